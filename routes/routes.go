package routes

import (
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/rallydesk/rallydesk/handlers"
	"github.com/rallydesk/rallydesk/middleware"
	"github.com/rallydesk/rallydesk/models"
)

// SetupRoutes mounts the full API surface. Three access tiers: public
// spectator reads, scoring endpoints behind an access-code token, and staff
// endpoints behind a staff JWT.
func SetupRoutes(
	router *chi.Mux,
	jwtSecret string,
	authHandler *handlers.AuthHandler,
	tournamentHandler *handlers.TournamentHandler,
	competitionHandler *handlers.CompetitionHandler,
	matchHandler *handlers.MatchHandler,
	boardHandler *handlers.BoardHandler,
	accessHandler *handlers.AccessHandler,
	playerHandler *handlers.PlayerHandler,
	teamHandler *handlers.TeamHandler,
	resourceHandler *handlers.ResourceHandler,
	webSocketHandler *handlers.WebSocketHandler,
) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)

	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	staffAuth := middleware.Authenticate([]byte(jwtSecret))
	scoringAuth := middleware.AuthenticateScoring([]byte(jwtSecret))
	organizerOnly := middleware.RequireRole(models.RoleOrganizer, models.RoleAdmin)

	router.Handle("/metrics", promhttp.Handler())
	router.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))
	router.Get("/ws/tournaments/{tournamentID}", webSocketHandler.ServeWs)

	router.Route("/api", func(r chi.Router) {
		r.Get("/health", handlers.HealthHandler)

		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
		})

		// Spectator reads, no authentication.
		r.Route("/public", func(r chi.Router) {
			r.Get("/tournaments", tournamentHandler.ListHandler)
			r.Get("/tournaments/{tournamentID}", tournamentHandler.GetByIDHandler)
			r.Get("/tournaments/{tournamentID}/board", boardHandler.PublicBoardHandler)
			r.Get("/tournaments/{tournamentID}/leaderboard", boardHandler.LeaderboardHandler)
			r.Get("/competitions/{competitionID}/standings", competitionHandler.StandingsHandler)
			r.Get("/competitions/{competitionID}/knockout", competitionHandler.ListKnockoutRoundsHandler)
			r.Get("/competitions/{competitionID}/matches", competitionHandler.ListMatchesHandler)
		})

		// Scoring endpoints. Referees get in with a token minted from an
		// access code; staff JWTs pass as well.
		r.Route("/scoring", func(r chi.Router) {
			r.Post("/validate", accessHandler.ValidateHandler)

			r.Group(func(r chi.Router) {
				r.Use(scoringAuth)
				r.Get("/matches/{matchID}", matchHandler.GetHandler)
				r.Post("/matches/{matchID}/lock", matchHandler.AcquireLockHandler)
				r.Put("/matches/{matchID}/lock", matchHandler.RenewLockHandler)
				r.Delete("/matches/{matchID}/lock", matchHandler.ReleaseLockHandler)
				r.Put("/matches/{matchID}/score", matchHandler.SubmitScoreHandler)
			})
		})

		// Staff endpoints.
		r.Group(func(r chi.Router) {
			r.Use(staffAuth)
			r.Use(organizerOnly)

			r.Route("/tournaments", func(r chi.Router) {
				r.Post("/", tournamentHandler.CreateHandler)
				r.Patch("/{tournamentID}/status", tournamentHandler.UpdateStatusHandler)
				r.Delete("/{tournamentID}", tournamentHandler.DeleteHandler)

				r.Get("/{tournamentID}/control-desk", boardHandler.ControlDeskHandler)
				r.Get("/{tournamentID}/stats", boardHandler.StatsHandler)

				r.Post("/{tournamentID}/competitions", competitionHandler.CreateHandler)
				r.Get("/{tournamentID}/competitions", competitionHandler.ListByTournamentHandler)

				r.Post("/{tournamentID}/players", playerHandler.CreateHandler)
				r.Post("/{tournamentID}/players/bulk", playerHandler.BulkAddHandler)
				r.Get("/{tournamentID}/players", playerHandler.ListByTournamentHandler)

				r.Post("/{tournamentID}/teams", teamHandler.CreateHandler)
				r.Get("/{tournamentID}/teams", teamHandler.ListByTournamentHandler)

				r.Post("/{tournamentID}/resources", resourceHandler.CreateHandler)
				r.Get("/{tournamentID}/resources", resourceHandler.ListByTournamentHandler)
			})

			r.Route("/competitions/{competitionID}", func(r chi.Router) {
				r.Get("/", competitionHandler.GetByIDHandler)
				r.Delete("/", competitionHandler.DeleteHandler)
				r.Post("/participants", competitionHandler.AddParticipantsHandler)
				r.Post("/draw", competitionHandler.GenerateDrawHandler)
				r.Post("/knockout", competitionHandler.GenerateKnockoutHandler)
				r.Post("/access-codes", accessHandler.CreateCodeHandler)
				r.Get("/access-codes", accessHandler.ListCodesHandler)
			})

			r.Route("/matches/{matchID}", func(r chi.Router) {
				r.Post("/score/confirm", matchHandler.ConfirmScoreHandler)
				r.Patch("/resource", boardHandler.AssignResourceHandler)
			})

			r.Delete("/access-codes/{accessCodeID}", accessHandler.RevokeCodeHandler)

			r.Get("/players/{playerID}", playerHandler.GetByIDHandler)
			r.Delete("/players/{playerID}", playerHandler.DeleteHandler)

			r.Get("/teams/{teamID}", teamHandler.GetByIDHandler)
			r.Put("/teams/{teamID}/players", teamHandler.SetPlayersHandler)
			r.Delete("/teams/{teamID}", teamHandler.DeleteHandler)

			r.Patch("/resources/{resourceID}/status", resourceHandler.SetStatusHandler)
			r.Delete("/resources/{resourceID}", resourceHandler.DeleteHandler)
		})
	})
}
