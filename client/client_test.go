package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rallydesk/rallydesk/models"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	c := New(server.URL)
	c.HTTP = server.Client()
	return c
}

func writeTestJSON(t *testing.T, w http.ResponseWriter, status int, payload any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	require.NoError(t, json.NewEncoder(w).Encode(payload))
}

func TestStatusErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   error
	}{
		{"unauthorized", http.StatusUnauthorized, ErrUnauthorized},
		{"forbidden", http.StatusForbidden, ErrForbidden},
		{"not found", http.StatusNotFound, ErrNotFound},
		{"conflict", http.StatusConflict, ErrConflict},
		{"stale lock", http.StatusPreconditionFailed, ErrStaleLock},
		{"validation", http.StatusUnprocessableEntity, ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				writeTestJSON(t, w, tt.status, map[string]string{"error": "rejected by server"})
			}))

			_, err := c.Match(context.Background(), "m1")

			require.ErrorIs(t, err, tt.want)
			assert.Contains(t, err.Error(), "rejected by server")
		})
	}
}

func TestStatusErrorUnknownStatus(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))

	_, err := c.Match(context.Background(), "m1")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
}

func TestValidateAccessCodeInstallsToken(t *testing.T) {
	var authHeader string
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/api/scoring/validate":
			var body map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "KXWQ47RT", body["code"])
			writeTestJSON(t, w, http.StatusOK, map[string]any{
				"token":       "scoring-token",
				"competition": &models.Competition{ID: "comp-1", Name: "Open Singles"},
			})
		case r.Method == http.MethodGet && r.URL.Path == "/api/scoring/matches/m1":
			authHeader = r.Header.Get("Authorization")
			writeTestJSON(t, w, http.StatusOK, map[string]any{
				"match": &models.Match{ID: "m1"},
			})
		default:
			http.NotFound(w, r)
		}
	}))

	competition, err := c.ValidateAccessCode(context.Background(), "KXWQ47RT")
	require.NoError(t, err)
	assert.Equal(t, "comp-1", competition.ID)

	_, err = c.Match(context.Background(), "m1")
	require.NoError(t, err)
	assert.Equal(t, "Bearer scoring-token", authHeader, "token from validation rides on later calls")
}

func TestSubmitScoreRoundTrip(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPut, r.Method)
		require.Equal(t, "/api/scoring/matches/m1/score", r.URL.Path)

		var body struct {
			SessionID string            `json:"session_id"`
			Sets      []models.SetScore `json:"sets"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "desk-1", body.SessionID)
		require.Len(t, body.Sets, 3)

		writeTestJSON(t, w, http.StatusOK, map[string]any{
			"match": &models.Match{ID: "m1", Status: models.MatchCompleted},
		})
	}))

	sets := []models.SetScore{
		{SetNumber: 1, SideA: 11, SideB: 7},
		{SetNumber: 2, SideA: 11, SideB: 5},
		{SetNumber: 3, SideA: 11, SideB: 9},
	}
	match, err := c.SubmitScore(context.Background(), "m1", "desk-1", sets)
	require.NoError(t, err)
	assert.Equal(t, models.MatchCompleted, match.Status)
}

func TestPublicBoardRoundTrip(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/public/tournaments/t1/board", r.URL.Path)
		assert.Empty(t, r.Header.Get("Authorization"), "spectator board needs no token")
		writeTestJSON(t, w, http.StatusOK, &models.PublicBoard{
			Tournament: &models.Tournament{ID: "t1"},
		})
	}))

	board, err := c.PublicBoard(context.Background(), "t1")
	require.NoError(t, err)
	assert.Equal(t, "t1", board.Tournament.ID)
}

func TestUnreachableServerIsTransient(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	c := New(server.URL)
	server.Close()

	_, err := c.Match(context.Background(), "m1")

	require.ErrorIs(t, err, ErrTransient)
}

func TestCancelledContextIsNotTransient(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeTestJSON(t, w, http.StatusOK, map[string]any{"match": &models.Match{ID: "m1"}})
	}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Match(ctx, "m1")

	require.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, ErrTransient)
}
