package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/rallydesk/rallydesk/scorelock"
	"github.com/rallydesk/rallydesk/services"
)

type jsonResponse map[string]interface{}

func readJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	maxBytes := 1_048_576 // 1MB
	r.Body = http.MaxBytesReader(w, r.Body, int64(maxBytes))

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	err := dec.Decode(dst)
	if err != nil {
		var syntaxError *json.SyntaxError
		var unmarshalTypeError *json.UnmarshalTypeError
		var invalidUnmarshalError *json.InvalidUnmarshalError

		switch {
		case errors.As(err, &syntaxError):
			return fmt.Errorf("body contains badly-formed JSON (at character %d)", syntaxError.Offset)
		case errors.Is(err, io.ErrUnexpectedEOF):
			return errors.New("body contains badly-formed JSON")
		case errors.As(err, &unmarshalTypeError):
			if unmarshalTypeError.Field != "" {
				return fmt.Errorf("body contains incorrect JSON type for field %q", unmarshalTypeError.Field)
			}
			return fmt.Errorf("body contains incorrect JSON type (at character %d)", unmarshalTypeError.Offset)
		case errors.Is(err, io.EOF):
			return errors.New("body must not be empty")
		case strings.HasPrefix(err.Error(), "json: unknown field "):
			fieldName := strings.TrimPrefix(err.Error(), "json: unknown field ")
			return fmt.Errorf("body contains unknown key %s", fieldName)
		case err.Error() == "http: request body too large":
			return fmt.Errorf("body must not be larger than %d bytes", maxBytes)
		case errors.As(err, &invalidUnmarshalError):
			// Programmer error: a non-pointer was passed in.
			panic(err)
		default:
			return err
		}
	}

	err = dec.Decode(&struct{}{})
	if !errors.Is(err, io.EOF) {
		return errors.New("body must only contain a single JSON value")
	}

	return nil
}

func writeJSON(w http.ResponseWriter, status int, data interface{}, headers http.Header) error {
	js, err := json.MarshalIndent(data, "", "\t")
	if err != nil {
		return err
	}
	js = append(js, '\n')

	for key, value := range headers {
		w.Header()[key] = value
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, err = w.Write(js)
	if err != nil {
		return err
	}

	return nil
}

func errorResponse(w http.ResponseWriter, r *http.Request, status int, message interface{}) {
	env := jsonResponse{"error": message}
	err := writeJSON(w, status, env, nil)
	if err != nil {
		slog.Error("failed to write error response", slog.Any("error", err), slog.String("path", r.URL.Path))
		w.WriteHeader(http.StatusInternalServerError)
	}
}

func serverErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	slog.Error("internal server error",
		slog.Any("error", err),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
	)
	message := "the server encountered a problem and could not process your request"
	errorResponse(w, r, http.StatusInternalServerError, message)
}

func badRequestResponse(w http.ResponseWriter, r *http.Request, err error) {
	errorResponse(w, r, http.StatusBadRequest, err.Error())
}

func failedValidationResponse(w http.ResponseWriter, r *http.Request, err error) {
	errorResponse(w, r, http.StatusUnprocessableEntity, err.Error())
}

func notFoundResponse(w http.ResponseWriter, r *http.Request) {
	message := "the requested resource could not be found"
	errorResponse(w, r, http.StatusNotFound, message)
}

func conflictResponse(w http.ResponseWriter, r *http.Request, message string) {
	errorResponse(w, r, http.StatusConflict, message)
}

// staleLockResponse reports a lease the caller used to hold but no longer
// does. It is kept apart from 409 so scoring clients can tell "someone else
// has the lock" from "your own lock lapsed, re-acquire before resubmitting".
func staleLockResponse(w http.ResponseWriter, r *http.Request, message string) {
	errorResponse(w, r, http.StatusPreconditionFailed, message)
}

func unauthorizedResponse(w http.ResponseWriter, r *http.Request, message string) {
	errorResponse(w, r, http.StatusUnauthorized, message)
}

func forbiddenResponse(w http.ResponseWriter, r *http.Request, message string) {
	errorResponse(w, r, http.StatusForbidden, message)
}

// mapServiceErrorToHTTP translates service-layer sentinels into HTTP responses.
func mapServiceErrorToHTTP(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	// Not found.
	case errors.Is(err, services.ErrNotFound),
		errors.Is(err, services.ErrUserNotFound),
		errors.Is(err, services.ErrTournamentNotFound),
		errors.Is(err, services.ErrCompetitionNotFound),
		errors.Is(err, services.ErrMatchNotFound),
		errors.Is(err, services.ErrPlayerNotFound),
		errors.Is(err, services.ErrTeamNotFound),
		errors.Is(err, services.ErrResourceNotFound),
		errors.Is(err, services.ErrAccessCodeNotFound):
		notFoundResponse(w, r)

	// Conflicts, including a scoring lock held by someone else.
	case errors.Is(err, services.ErrUserEmailConflict),
		errors.Is(err, services.ErrTournamentNameConflict),
		errors.Is(err, services.ErrCompetitionNameConflict),
		errors.Is(err, services.ErrTeamNameConflict),
		errors.Is(err, services.ErrDrawAlreadyGenerated),
		errors.Is(err, services.ErrKnockoutAlreadyGenerated),
		errors.Is(err, services.ErrGroupStageIncomplete),
		errors.Is(err, services.ErrResourceBusy),
		errors.Is(err, services.ErrScoreNotPending),
		errors.Is(err, services.ErrMatchAlreadyFinal),
		errors.Is(err, scorelock.ErrLockHeld):
		conflictResponse(w, r, err.Error())

	// The caller's own lease is gone.
	case errors.Is(err, scorelock.ErrLockExpired),
		errors.Is(err, scorelock.ErrLockNotHeld),
		errors.Is(err, services.ErrScoringLockRequired):
		staleLockResponse(w, r, err.Error())

	// Validation and business-rule failures.
	case errors.Is(err, services.ErrValidationFailed),
		errors.Is(err, services.ErrPasswordTooShort),
		errors.Is(err, services.ErrNegativeSetScore),
		errors.Is(err, services.ErrTooManySets),
		errors.Is(err, services.ErrMatchSidesUnset),
		errors.Is(err, services.ErrTournamentInvalidDate),
		errors.Is(err, services.ErrNotEnoughParticipants),
		errors.Is(err, services.ErrUnsupportedFormat):
		failedValidationResponse(w, r, err)

	// Authentication.
	case errors.Is(err, services.ErrInvalidCredentials),
		errors.Is(err, services.ErrAuthenticationFailed),
		errors.Is(err, services.ErrAccessCodeInvalid),
		errors.Is(err, services.ErrAccessCodeRevoked),
		errors.Is(err, services.ErrAccessCodeExpired):
		unauthorizedResponse(w, r, err.Error())

	case errors.Is(err, services.ErrForbiddenOperation):
		forbiddenResponse(w, r, err.Error())

	default:
		serverErrorResponse(w, r, err)
	}
}

// idFromURL extracts and validates a UUID path parameter.
func idFromURL(r *http.Request, paramName string) (string, error) {
	id := chi.URLParam(r, paramName)
	if id == "" {
		return "", fmt.Errorf("missing %s in URL path", paramName)
	}
	if err := uuid.Validate(id); err != nil {
		return "", fmt.Errorf("invalid %s format: %q", paramName, id)
	}
	return id, nil
}

// HealthHandler reports liveness for load balancers and uptime checks.
func HealthHandler(w http.ResponseWriter, r *http.Request) {
	env := jsonResponse{"status": "ok"}
	if err := writeJSON(w, http.StatusOK, env, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
