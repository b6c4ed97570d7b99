package handlers

import (
	"net/http"

	"github.com/rallydesk/rallydesk/models"
	"github.com/rallydesk/rallydesk/services"
)

type ResourceHandler struct {
	resourceService services.ResourceService
}

func NewResourceHandler(rs services.ResourceService) *ResourceHandler {
	return &ResourceHandler{resourceService: rs}
}

// CreateHandler handles POST /tournaments/{tournamentID}/resources.
func (h *ResourceHandler) CreateHandler(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := idFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input services.CreateResourceInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	resource, err := h.resourceService.Create(r.Context(), tournamentID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"resource": resource}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ListByTournamentHandler handles GET /tournaments/{tournamentID}/resources.
func (h *ResourceHandler) ListByTournamentHandler(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := idFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	resources, err := h.resourceService.ListByTournament(r.Context(), tournamentID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"resources": resources}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// SetStatusHandler handles PATCH /resources/{resourceID}/status.
func (h *ResourceHandler) SetStatusHandler(w http.ResponseWriter, r *http.Request) {
	resourceID, err := idFromURL(r, "resourceID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input struct {
		Status models.ResourceStatus `json:"status"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	resource, err := h.resourceService.SetStatus(r.Context(), resourceID, input.Status)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"resource": resource}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// DeleteHandler handles DELETE /resources/{resourceID}.
func (h *ResourceHandler) DeleteHandler(w http.ResponseWriter, r *http.Request) {
	resourceID, err := idFromURL(r, "resourceID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.resourceService.Delete(r.Context(), resourceID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
