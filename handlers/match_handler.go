package handlers

import (
	"errors"
	"net/http"

	"github.com/rallydesk/rallydesk/middleware"
	"github.com/rallydesk/rallydesk/models"
	"github.com/rallydesk/rallydesk/services"
)

// MatchHandler owns the scoring endpoints: lock lifecycle, score submission
// and confirmation. All of them are match-scoped.
type MatchHandler struct {
	scoreService services.ScoreService
}

func NewMatchHandler(scoreService services.ScoreService) *MatchHandler {
	return &MatchHandler{scoreService: scoreService}
}

type lockInput struct {
	SessionID string `json:"session_id"`
}

type submitScoreInput struct {
	SessionID string            `json:"session_id"`
	Sets      []models.SetScore `json:"sets"`
}

// checkScope rejects code-based scorers whose token was issued for a
// different competition. Staff tokens carry no competition and pass.
func (h *MatchHandler) checkScope(r *http.Request, match *models.Match) error {
	competitionID, err := middleware.GetScoringCompetitionFromContext(r.Context())
	if err != nil {
		return err
	}
	if competitionID != "" && competitionID != match.CompetitionID {
		return services.ErrForbiddenOperation
	}
	return nil
}

func (h *MatchHandler) loadScopedMatch(w http.ResponseWriter, r *http.Request) (*models.Match, bool) {
	matchID, err := idFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return nil, false
	}

	match, err := h.scoreService.GetMatch(r.Context(), matchID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return nil, false
	}

	if err := h.checkScope(r, match); err != nil {
		if errors.Is(err, services.ErrForbiddenOperation) {
			forbiddenResponse(w, r, "scoring token is for a different competition")
		} else {
			unauthorizedResponse(w, r, err.Error())
		}
		return nil, false
	}
	return match, true
}

// GetHandler handles GET /matches/{matchID}.
func (h *MatchHandler) GetHandler(w http.ResponseWriter, r *http.Request) {
	match, ok := h.loadScopedMatch(w, r)
	if !ok {
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"match": match}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// AcquireLockHandler handles POST /matches/{matchID}/lock.
func (h *MatchHandler) AcquireLockHandler(w http.ResponseWriter, r *http.Request) {
	match, ok := h.loadScopedMatch(w, r)
	if !ok {
		return
	}

	var input lockInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if input.SessionID == "" {
		badRequestResponse(w, r, errors.New("session_id is required"))
		return
	}

	record, err := h.scoreService.AcquireLock(r.Context(), match.ID, input.SessionID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"lock": record}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// RenewLockHandler handles PUT /matches/{matchID}/lock.
func (h *MatchHandler) RenewLockHandler(w http.ResponseWriter, r *http.Request) {
	match, ok := h.loadScopedMatch(w, r)
	if !ok {
		return
	}

	var input lockInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if input.SessionID == "" {
		badRequestResponse(w, r, errors.New("session_id is required"))
		return
	}

	record, err := h.scoreService.RenewLock(r.Context(), match.ID, input.SessionID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"lock": record}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ReleaseLockHandler handles DELETE /matches/{matchID}/lock. Releasing a lock
// the session no longer holds is not an error, so clients can fire this on
// the way out without checking.
func (h *MatchHandler) ReleaseLockHandler(w http.ResponseWriter, r *http.Request) {
	match, ok := h.loadScopedMatch(w, r)
	if !ok {
		return
	}

	var input lockInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if input.SessionID == "" {
		badRequestResponse(w, r, errors.New("session_id is required"))
		return
	}

	if err := h.scoreService.ReleaseLock(r.Context(), match.ID, input.SessionID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// SubmitScoreHandler handles PUT /matches/{matchID}/score. The body carries
// the complete set list; anything previously stored for the match is
// replaced.
func (h *MatchHandler) SubmitScoreHandler(w http.ResponseWriter, r *http.Request) {
	match, ok := h.loadScopedMatch(w, r)
	if !ok {
		return
	}

	var input submitScoreInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if input.SessionID == "" {
		badRequestResponse(w, r, errors.New("session_id is required"))
		return
	}

	updated, err := h.scoreService.SubmitScore(r.Context(), services.SubmitScoreInput{
		MatchID:       match.ID,
		SessionID:     input.SessionID,
		Sets:          input.Sets,
		SubmitterRole: middleware.ScorerRoleFromContext(r.Context()),
	})
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"match": updated}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ConfirmScoreHandler handles POST /matches/{matchID}/score/confirm.
// Organizer-only; routing enforces the role.
func (h *MatchHandler) ConfirmScoreHandler(w http.ResponseWriter, r *http.Request) {
	matchID, err := idFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	match, err := h.scoreService.ConfirmScore(r.Context(), matchID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"match": match}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
