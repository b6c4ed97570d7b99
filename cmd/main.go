package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"github.com/rallydesk/rallydesk/config"
	"github.com/rallydesk/rallydesk/db"
	_ "github.com/rallydesk/rallydesk/docs"
	"github.com/rallydesk/rallydesk/handlers"
	"github.com/rallydesk/rallydesk/live"
	"github.com/rallydesk/rallydesk/repositories"
	api "github.com/rallydesk/rallydesk/routes"
	"github.com/rallydesk/rallydesk/scorelock"
	"github.com/rallydesk/rallydesk/services"
	"github.com/rallydesk/rallydesk/storage"
)

// schedulerInterval is how often tournament statuses are reconciled against
// their dates.
const schedulerInterval = 30 * time.Second

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort))

	dbConn, err := db.Connect(cfg.DatabaseURL, 5*time.Second)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Error("failed to close database connection", slog.Any("error", err))
		} else {
			logger.Info("database connection closed")
		}
	}()
	logger.Info("database connection established")

	var uploader storage.FileUploader
	if cfg.SnapshotsEnabled() {
		uploader, err = storage.NewCloudflareR2Uploader(storage.CloudflareR2UploaderConfig{
			AccountID:       cfg.R2AccountID,
			AccessKeyID:     cfg.R2AccessKeyID,
			SecretAccessKey: cfg.R2SecretAccessKey,
			BucketName:      cfg.R2BucketName,
			PublicBaseURL:   cfg.R2PublicBaseURL,
		})
		if err != nil {
			logger.Error("failed to initialize Cloudflare R2 uploader", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("Cloudflare R2 uploader initialized")
	} else {
		logger.Info("board snapshot publishing disabled, no R2 credentials configured")
	}

	wsHub := live.NewHub(logger)
	go wsHub.Run()
	logger.Info("WebSocket hub started")

	userRepo := repositories.NewPostgresUserRepository(dbConn)
	tournamentRepo := repositories.NewPostgresTournamentRepository(dbConn)
	competitionRepo := repositories.NewPostgresCompetitionRepository(dbConn)
	matchRepo := repositories.NewPostgresMatchRepository(dbConn)
	playerRepo := repositories.NewPostgresPlayerRepository(dbConn)
	teamRepo := repositories.NewPostgresTeamRepository(dbConn)
	resourceRepo := repositories.NewPostgresResourceRepository(dbConn)
	accessCodeRepo := repositories.NewPostgresAccessCodeRepository(dbConn)
	logger.Info("repositories initialized")

	var lockStore scorelock.Store
	if cfg.ScoringLockBackend == "redis" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			logger.Error("failed to connect to redis", slog.Any("error", err))
			os.Exit(1)
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Error("failed to close redis client", slog.Any("error", err))
			}
		}()
		lockStore = scorelock.NewRedisStore(redisClient)
		logger.Info("scoring locks backed by redis", slog.String("addr", cfg.RedisAddr))
	} else {
		lockStore = scorelock.NewMemoryStore()
		logger.Info("scoring locks backed by process memory")
	}
	lockManager := scorelock.NewManager(lockStore, cfg.ScoringLockTTL)

	authService := services.NewAuthService(userRepo)
	tournamentService := services.NewTournamentService(tournamentRepo, competitionRepo, logger)
	competitionService := services.NewCompetitionService(
		dbConn,
		competitionRepo,
		tournamentRepo,
		matchRepo,
		playerRepo,
		teamRepo,
		wsHub,
		logger,
	)
	standingsService := services.NewStandingsService(competitionRepo, matchRepo, playerRepo, teamRepo)
	knockoutService := services.NewKnockoutService(dbConn, competitionRepo, matchRepo, wsHub, logger)
	scoreService := services.NewScoreService(
		dbConn,
		matchRepo,
		competitionRepo,
		resourceRepo,
		lockManager,
		wsHub,
		logger,
	)
	boardService := services.NewBoardService(
		dbConn,
		tournamentRepo,
		competitionRepo,
		matchRepo,
		resourceRepo,
		playerRepo,
		teamRepo,
		standingsService,
		wsHub,
		logger,
	)
	accessService := services.NewAccessService(accessCodeRepo, competitionRepo)
	playerService := services.NewPlayerService(dbConn, playerRepo)
	teamService := services.NewTeamService(teamRepo, playerRepo)
	resourceService := services.NewResourceService(resourceRepo)
	logger.Info("services initialized")

	go func() {
		ticker := time.NewTicker(schedulerInterval)
		defer ticker.Stop()
		logger.Info("tournament status scheduler started", slog.Duration("interval", schedulerInterval))

		// Run once immediately at startup, then on ticker.
		if err := tournamentService.AutoUpdateTournamentStatusesByDates(context.Background()); err != nil {
			logger.Error("scheduler: initial run failed", slog.Any("error", err))
		}

		for range ticker.C {
			if err := tournamentService.AutoUpdateTournamentStatusesByDates(context.Background()); err != nil {
				logger.Error("scheduler: periodic run failed", slog.Any("error", err))
			}
		}
	}()

	if uploader != nil {
		snapshotService := services.NewSnapshotService(tournamentRepo, boardService, uploader, logger)
		go func() {
			ticker := time.NewTicker(cfg.SnapshotInterval)
			defer ticker.Stop()
			logger.Info("board snapshot publisher started", slog.Duration("interval", cfg.SnapshotInterval))

			for range ticker.C {
				if err := snapshotService.PublishAll(context.Background()); err != nil {
					logger.Error("snapshot publisher run failed", slog.Any("error", err))
				}
			}
		}()
	}

	authHandler := handlers.NewAuthHandler(authService, cfg.JWTSecretKey)
	tournamentHandler := handlers.NewTournamentHandler(tournamentService)
	competitionHandler := handlers.NewCompetitionHandler(competitionService, standingsService, knockoutService)
	matchHandler := handlers.NewMatchHandler(scoreService)
	boardHandler := handlers.NewBoardHandler(boardService, standingsService)
	accessHandler := handlers.NewAccessHandler(accessService, cfg.JWTSecretKey)
	playerHandler := handlers.NewPlayerHandler(playerService)
	teamHandler := handlers.NewTeamHandler(teamService)
	resourceHandler := handlers.NewResourceHandler(resourceService)
	webSocketHandler := handlers.NewWebSocketHandler(wsHub, logger)
	logger.Info("HTTP handlers initialized")

	router := chi.NewRouter()
	api.SetupRoutes(
		router,
		cfg.JWTSecretKey,
		authHandler,
		tournamentHandler,
		competitionHandler,
		matchHandler,
		boardHandler,
		accessHandler,
		playerHandler,
		teamHandler,
		resourceHandler,
		webSocketHandler,
	)
	logger.Info("routes configured")

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		} else {
			logger.Info("server stopped gracefully")
		}
	case sig := <-quit:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancelShutdown()

		logger.Info("shutting down server", slog.Duration("timeout", 15*time.Second))
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
			os.Exit(1)
		} else {
			logger.Info("server shutdown complete")
		}
	}
	logger.Info("application exited")
}
