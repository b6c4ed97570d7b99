package handlers

import (
	"errors"
	"net/http"

	"github.com/rallydesk/rallydesk/services"
)

type PlayerHandler struct {
	playerService services.PlayerService
}

func NewPlayerHandler(ps services.PlayerService) *PlayerHandler {
	return &PlayerHandler{
		playerService: ps,
	}
}

// CreateHandler handles POST /tournaments/{tournamentID}/players.
func (h *PlayerHandler) CreateHandler(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := idFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input services.CreatePlayerInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	player, err := h.playerService.Create(r.Context(), tournamentID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"player": player}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// BulkAddHandler godoc
// @Summary Add a batch of players to a tournament roster
// @Tags players
// @Description All entries are validated first; one bad entry rejects the whole batch.
// @Accept json
// @Produce json
// @Param tournamentID path string true "Tournament ID"
// @Success 201 {object} map[string]interface{} "Created players"
// @Failure 400 {object} map[string]string "Malformed request"
// @Failure 422 {object} map[string]string "Validation failed"
// @Security BearerAuth
// @Router /tournaments/{tournamentID}/players/bulk [post]
func (h *PlayerHandler) BulkAddHandler(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := idFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input struct {
		Players []services.CreatePlayerInput `json:"players"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if len(input.Players) == 0 {
		badRequestResponse(w, r, errors.New("players must not be empty"))
		return
	}

	players, err := h.playerService.BulkAdd(r.Context(), tournamentID, input.Players)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"players": players}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// GetByIDHandler handles GET /players/{playerID}.
func (h *PlayerHandler) GetByIDHandler(w http.ResponseWriter, r *http.Request) {
	playerID, err := idFromURL(r, "playerID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	player, err := h.playerService.GetByID(r.Context(), playerID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"player": player}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ListByTournamentHandler handles GET /tournaments/{tournamentID}/players.
func (h *PlayerHandler) ListByTournamentHandler(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := idFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	players, err := h.playerService.ListByTournament(r.Context(), tournamentID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"players": players}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// DeleteHandler handles DELETE /players/{playerID}.
func (h *PlayerHandler) DeleteHandler(w http.ResponseWriter, r *http.Request) {
	playerID, err := idFromURL(r, "playerID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.playerService.Delete(r.Context(), playerID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
