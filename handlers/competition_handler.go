package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/rallydesk/rallydesk/services"
)

type CompetitionHandler struct {
	competitionService services.CompetitionService
	standingsService   services.StandingsService
	knockoutService    services.KnockoutService
}

func NewCompetitionHandler(
	cs services.CompetitionService,
	ss services.StandingsService,
	ks services.KnockoutService,
) *CompetitionHandler {
	return &CompetitionHandler{
		competitionService: cs,
		standingsService:   ss,
		knockoutService:    ks,
	}
}

// CreateHandler handles POST /tournaments/{tournamentID}/competitions.
func (h *CompetitionHandler) CreateHandler(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := idFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input services.CreateCompetitionInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	input.TournamentID = tournamentID

	competition, err := h.competitionService.Create(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"competition": competition}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ListByTournamentHandler handles GET /tournaments/{tournamentID}/competitions.
func (h *CompetitionHandler) ListByTournamentHandler(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := idFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	competitions, err := h.competitionService.ListByTournament(r.Context(), tournamentID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"competitions": competitions}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// GetByIDHandler handles GET /competitions/{competitionID}.
func (h *CompetitionHandler) GetByIDHandler(w http.ResponseWriter, r *http.Request) {
	id, err := idFromURL(r, "competitionID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	competition, err := h.competitionService.GetByID(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"competition": competition}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// AddParticipantsHandler handles POST /competitions/{competitionID}/participants.
func (h *CompetitionHandler) AddParticipantsHandler(w http.ResponseWriter, r *http.Request) {
	id, err := idFromURL(r, "competitionID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input struct {
		ParticipantIDs []string `json:"participant_ids"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if len(input.ParticipantIDs) == 0 {
		badRequestResponse(w, r, errors.New("participant_ids must not be empty"))
		return
	}

	competition, err := h.competitionService.AddParticipants(r.Context(), id, input.ParticipantIDs)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"competition": competition}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// GenerateDrawHandler handles POST /competitions/{competitionID}/draw.
func (h *CompetitionHandler) GenerateDrawHandler(w http.ResponseWriter, r *http.Request) {
	id, err := idFromURL(r, "competitionID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	matches, err := h.competitionService.GenerateDraw(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"matches": matches}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ListMatchesHandler handles GET /competitions/{competitionID}/matches.
// An optional ?group=N query restricts the list to one group's matches.
func (h *CompetitionHandler) ListMatchesHandler(w http.ResponseWriter, r *http.Request) {
	id, err := idFromURL(r, "competitionID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var groupNumber *int
	if groupStr := r.URL.Query().Get("group"); groupStr != "" {
		group, err := strconv.Atoi(groupStr)
		if err != nil || group <= 0 {
			badRequestResponse(w, r, errors.New("invalid group query parameter"))
			return
		}
		groupNumber = &group
	}

	matches, err := h.competitionService.ListMatches(r.Context(), id, groupNumber)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"matches": matches}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// StandingsHandler handles GET /competitions/{competitionID}/standings.
func (h *CompetitionHandler) StandingsHandler(w http.ResponseWriter, r *http.Request) {
	id, err := idFromURL(r, "competitionID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	standings, err := h.standingsService.GetStandings(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"standings": standings}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// GenerateKnockoutHandler handles POST /competitions/{competitionID}/knockout.
func (h *CompetitionHandler) GenerateKnockoutHandler(w http.ResponseWriter, r *http.Request) {
	id, err := idFromURL(r, "competitionID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	matches, err := h.knockoutService.GenerateKnockout(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"matches": matches}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ListKnockoutRoundsHandler handles GET /competitions/{competitionID}/knockout.
func (h *CompetitionHandler) ListKnockoutRoundsHandler(w http.ResponseWriter, r *http.Request) {
	id, err := idFromURL(r, "competitionID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	rounds, err := h.knockoutService.ListKnockoutRounds(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"rounds": rounds}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// DeleteHandler handles DELETE /competitions/{competitionID}.
func (h *CompetitionHandler) DeleteHandler(w http.ResponseWriter, r *http.Request) {
	id, err := idFromURL(r, "competitionID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.competitionService.Delete(r.Context(), id); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
