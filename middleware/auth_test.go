package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rallydesk/rallydesk/models"
)

var testSecret = []byte("test-secret")

func signClaims(t *testing.T, secret []byte, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	require.NoError(t, err)
	return token
}

func staffToken(t *testing.T, role models.UserRole) string {
	return signClaims(t, testSecret, jwt.MapClaims{
		"user_id": "user-1",
		"role":    string(role),
		"name":    "Dana Kim",
		"exp":     time.Now().Add(time.Hour).Unix(),
		"iat":     time.Now().Unix(),
	})
}

func scoringToken(t *testing.T, competitionID string) string {
	return signClaims(t, testSecret, jwt.MapClaims{
		"scope":          ScoringScope,
		"competition_id": competitionID,
		"access_code_id": "code-1",
		"exp":            time.Now().Add(time.Hour).Unix(),
		"iat":            time.Now().Unix(),
	})
}

// nextCapture records whether the wrapped handler ran and with what context.
type nextCapture struct {
	called bool
	ctx    context.Context
}

func serveThrough(mw func(http.Handler) http.Handler, authorization string) (*httptest.ResponseRecorder, *nextCapture) {
	captured := &nextCapture{}
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured.called = true
		captured.ctx = r.Context()
		w.WriteHeader(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	rec := httptest.NewRecorder()
	mw(next).ServeHTTP(rec, req)
	return rec, captured
}

func TestAuthenticateAcceptsStaffToken(t *testing.T) {
	rec, captured := serveThrough(Authenticate(testSecret), "Bearer "+staffToken(t, models.RoleOrganizer))

	require.True(t, captured.called)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	userID, err := GetUserIDFromContext(captured.ctx)
	require.NoError(t, err)
	assert.Equal(t, "user-1", userID)

	role, err := GetUserRoleFromContext(captured.ctx)
	require.NoError(t, err)
	assert.Equal(t, models.RoleOrganizer, role)
}

func TestAuthenticateRejections(t *testing.T) {
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"user_id": "user-1",
		"role":    string(models.RoleAdmin),
		"exp":     time.Now().Add(time.Hour).Unix(),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := []struct {
		name          string
		authorization string
	}{
		{"missing header", ""},
		{"not a bearer scheme", "Basic dXNlcjpwYXNz"},
		{"garbage token", "Bearer not-a-jwt"},
		{"wrong secret", "Bearer " + signClaims(t, []byte("other-secret"), jwt.MapClaims{
			"user_id": "user-1",
			"role":    string(models.RoleOrganizer),
			"exp":     time.Now().Add(time.Hour).Unix(),
		})},
		{"expired token", "Bearer " + signClaims(t, testSecret, jwt.MapClaims{
			"user_id": "user-1",
			"role":    string(models.RoleOrganizer),
			"exp":     time.Now().Add(-time.Hour).Unix(),
		})},
		{"unsigned token", "Bearer " + unsigned},
		{"scoring token on staff surface", "Bearer " + scoringToken(t, "comp-1")},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec, captured := serveThrough(Authenticate(testSecret), tc.authorization)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.False(t, captured.called)
		})
	}
}

func TestRequireRole(t *testing.T) {
	protect := func(roles ...models.UserRole) func(http.Handler) http.Handler {
		return func(next http.Handler) http.Handler {
			return Authenticate(testSecret)(RequireRole(roles...)(next))
		}
	}

	t.Run("allows a listed role", func(t *testing.T) {
		rec, captured := serveThrough(protect(models.RoleOrganizer, models.RoleAdmin), "Bearer "+staffToken(t, models.RoleAdmin))

		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.True(t, captured.called)
	})

	t.Run("forbids other roles", func(t *testing.T) {
		rec, captured := serveThrough(protect(models.RoleOrganizer, models.RoleAdmin), "Bearer "+staffToken(t, models.RoleReferee))

		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.False(t, captured.called)
	})

	t.Run("rejects unauthenticated requests", func(t *testing.T) {
		// RequireRole on its own, with no Authenticate in front.
		rec, captured := serveThrough(RequireRole(models.RoleOrganizer), "")

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.False(t, captured.called)
	})
}

func TestAuthenticateScoring(t *testing.T) {
	t.Run("accepts a scoring token", func(t *testing.T) {
		rec, captured := serveThrough(AuthenticateScoring(testSecret), "Bearer "+scoringToken(t, "comp-1"))

		require.True(t, captured.called)
		assert.Equal(t, http.StatusNoContent, rec.Code)

		competitionID, err := GetScoringCompetitionFromContext(captured.ctx)
		require.NoError(t, err)
		assert.Equal(t, "comp-1", competitionID)
	})

	t.Run("accepts a staff token", func(t *testing.T) {
		rec, captured := serveThrough(AuthenticateScoring(testSecret), "Bearer "+staffToken(t, models.RoleOrganizer))

		require.True(t, captured.called)
		assert.Equal(t, http.StatusNoContent, rec.Code)

		// Staff are not bound to one competition.
		competitionID, err := GetScoringCompetitionFromContext(captured.ctx)
		require.NoError(t, err)
		assert.Empty(t, competitionID)
	})

	t.Run("rejects missing and expired tokens", func(t *testing.T) {
		rec, captured := serveThrough(AuthenticateScoring(testSecret), "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.False(t, captured.called)

		expired := signClaims(t, testSecret, jwt.MapClaims{
			"scope":          ScoringScope,
			"competition_id": "comp-1",
			"exp":            time.Now().Add(-time.Minute).Unix(),
		})
		rec, captured = serveThrough(AuthenticateScoring(testSecret), "Bearer "+expired)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.False(t, captured.called)
	})
}

func TestScorerRoleFromContext(t *testing.T) {
	t.Run("staff keep their own role", func(t *testing.T) {
		_, captured := serveThrough(AuthenticateScoring(testSecret), "Bearer "+staffToken(t, models.RoleAdmin))
		require.True(t, captured.called)

		assert.Equal(t, models.RoleAdmin, ScorerRoleFromContext(captured.ctx))
	})

	t.Run("code-based scorers count as referees", func(t *testing.T) {
		_, captured := serveThrough(AuthenticateScoring(testSecret), "Bearer "+scoringToken(t, "comp-1"))
		require.True(t, captured.called)

		assert.Equal(t, models.RoleReferee, ScorerRoleFromContext(captured.ctx))
	})
}

func TestGetScoringCompetitionFromContext(t *testing.T) {
	t.Run("fails on a bare context", func(t *testing.T) {
		_, err := GetScoringCompetitionFromContext(context.Background())
		assert.Error(t, err)
	})

	t.Run("fails when the claim is missing", func(t *testing.T) {
		ctx := context.WithValue(context.Background(), scoringContextKey, jwt.MapClaims{"scope": ScoringScope})
		_, err := GetScoringCompetitionFromContext(ctx)
		assert.Error(t, err)
	})
}
