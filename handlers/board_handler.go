package handlers

import (
	"net/http"

	"github.com/rallydesk/rallydesk/services"
)

// BoardHandler serves the aggregated tournament views: the organizer's
// control desk, the public spectator board, the leaderboard and headline
// stats.
type BoardHandler struct {
	boardService     services.BoardService
	standingsService services.StandingsService
}

func NewBoardHandler(boardService services.BoardService, standingsService services.StandingsService) *BoardHandler {
	return &BoardHandler{
		boardService:     boardService,
		standingsService: standingsService,
	}
}

// ControlDeskHandler handles GET /tournaments/{tournamentID}/control-desk.
func (h *BoardHandler) ControlDeskHandler(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := idFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	desk, err := h.boardService.ControlDesk(r.Context(), tournamentID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, desk, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// PublicBoardHandler handles GET /public/tournaments/{tournamentID}/board.
// No authentication; this is the spectator view.
func (h *BoardHandler) PublicBoardHandler(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := idFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	board, err := h.boardService.PublicBoard(r.Context(), tournamentID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, board, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// StatsHandler handles GET /tournaments/{tournamentID}/stats.
func (h *BoardHandler) StatsHandler(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := idFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	stats, err := h.boardService.Stats(r.Context(), tournamentID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, stats, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// LeaderboardHandler handles GET /public/tournaments/{tournamentID}/leaderboard.
func (h *BoardHandler) LeaderboardHandler(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := idFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	entries, err := h.standingsService.Leaderboard(r.Context(), tournamentID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"leaderboard": entries}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// AssignResourceHandler handles PATCH /matches/{matchID}/resource. A null
// resource_id sends the match back to the scheduled queue.
func (h *BoardHandler) AssignResourceHandler(w http.ResponseWriter, r *http.Request) {
	matchID, err := idFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input struct {
		ResourceID *string `json:"resource_id"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	match, err := h.boardService.AssignResource(r.Context(), matchID, input.ResourceID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"match": match}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
