package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"github.com/rallydesk/rallydesk/middleware"
	"github.com/rallydesk/rallydesk/services"
)

// scoringTokenTTL covers a long tournament day. The code itself can be
// revoked at any time; revocation only blocks new validations.
const scoringTokenTTL = 12 * time.Hour

// AccessHandler exchanges scoring access codes for scoring tokens and lets
// organizers manage the codes.
type AccessHandler struct {
	accessService services.AccessService
	jwtSecret     []byte
}

func NewAccessHandler(accessService services.AccessService, jwtSecret string) *AccessHandler {
	return &AccessHandler{
		accessService: accessService,
		jwtSecret:     []byte(jwtSecret),
	}
}

// ValidateHandler handles POST /scoring/validate. A valid code yields a
// scoring token scoped to the code's competition.
func (h *AccessHandler) ValidateHandler(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Code string `json:"code"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if input.Code == "" {
		badRequestResponse(w, r, errors.New("code is required"))
		return
	}

	grant, err := h.accessService.ValidateCode(r.Context(), input.Code)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	claims := jwt.MapClaims{
		"scope":          middleware.ScoringScope,
		"competition_id": grant.Competition.ID,
		"access_code_id": grant.AccessCode.ID,
		"exp":            time.Now().Add(scoringTokenTTL).Unix(),
		"iat":            time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(h.jwtSecret)
	if err != nil {
		serverErrorResponse(w, r, fmt.Errorf("failed to sign scoring token: %w", err))
		return
	}

	response := jsonResponse{
		"token":       tokenString,
		"competition": grant.Competition,
	}

	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// CreateCodeHandler handles POST /competitions/{competitionID}/access-codes.
func (h *AccessHandler) CreateCodeHandler(w http.ResponseWriter, r *http.Request) {
	competitionID, err := idFromURL(r, "competitionID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input services.CreateAccessCodeInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	input.CompetitionID = competitionID

	code, err := h.accessService.CreateCode(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"access_code": code}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ListCodesHandler handles GET /competitions/{competitionID}/access-codes.
func (h *AccessHandler) ListCodesHandler(w http.ResponseWriter, r *http.Request) {
	competitionID, err := idFromURL(r, "competitionID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	codes, err := h.accessService.ListCodes(r.Context(), competitionID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"access_codes": codes}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// RevokeCodeHandler handles DELETE /access-codes/{accessCodeID}.
func (h *AccessHandler) RevokeCodeHandler(w http.ResponseWriter, r *http.Request) {
	id, err := idFromURL(r, "accessCodeID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.accessService.RevokeCode(r.Context(), id); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
