package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rallydesk/rallydesk/models"
	"github.com/rallydesk/rallydesk/repositories"
)

type accessServiceEnv struct {
	svc          AccessService
	codes        *FakeAccessCodeRepository
	competitions *FakeCompetitionRepository
}

func newAccessServiceEnv(t *testing.T) *accessServiceEnv {
	t.Helper()
	env := &accessServiceEnv{
		codes:        NewFakeAccessCodeRepository(),
		competitions: NewFakeCompetitionRepository(),
	}
	env.svc = NewAccessService(env.codes, env.competitions)
	return env
}

func accessCodeFixture() *models.AccessCode {
	return &models.AccessCode{
		ID:            "code-1",
		CompetitionID: "comp-1",
		Code:          "KXWQ47RT",
	}
}

func TestValidateCode(t *testing.T) {
	future := time.Now().Add(time.Hour)
	past := time.Now().Add(-time.Hour)

	tests := []struct {
		name    string
		code    string
		stored  func() *models.AccessCode
		wantErr error
	}{
		{
			name:    "empty input",
			code:    "",
			stored:  accessCodeFixture,
			wantErr: ErrAccessCodeInvalid,
		},
		{
			name:    "unknown code",
			code:    "WRONGONE",
			stored:  accessCodeFixture,
			wantErr: ErrAccessCodeInvalid,
		},
		{
			name: "revoked code",
			code: "KXWQ47RT",
			stored: func() *models.AccessCode {
				ac := accessCodeFixture()
				ac.Revoked = true
				return ac
			},
			wantErr: ErrAccessCodeRevoked,
		},
		{
			name: "expired code",
			code: "KXWQ47RT",
			stored: func() *models.AccessCode {
				ac := accessCodeFixture()
				ac.ExpiresAt = &past
				return ac
			},
			wantErr: ErrAccessCodeExpired,
		},
		{
			name: "live code with future expiry",
			code: "KXWQ47RT",
			stored: func() *models.AccessCode {
				ac := accessCodeFixture()
				ac.ExpiresAt = &future
				return ac
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newAccessServiceEnv(t)
			stored := tt.stored()
			env.codes.GetByCodeFn = func(_ context.Context, code string) (*models.AccessCode, error) {
				if code == stored.Code {
					return stored, nil
				}
				return nil, repositories.ErrAccessCodeNotFound
			}
			env.competitions.GetByIDFn = func(context.Context, string) (*models.Competition, error) {
				return competitionFixture(), nil
			}

			grant, err := env.svc.ValidateCode(context.Background(), tt.code)

			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, stored, grant.AccessCode)
			assert.Equal(t, "comp-1", grant.Competition.ID)
		})
	}
}

func TestValidateCodeCompetitionGone(t *testing.T) {
	env := newAccessServiceEnv(t)
	stored := accessCodeFixture()
	env.codes.GetByCodeFn = func(context.Context, string) (*models.AccessCode, error) {
		return stored, nil
	}

	_, err := env.svc.ValidateCode(context.Background(), stored.Code)

	require.ErrorIs(t, err, ErrCompetitionNotFound)
}

func TestCreateCodeGeneratesReadableCode(t *testing.T) {
	env := newAccessServiceEnv(t)
	env.competitions.GetByIDFn = func(context.Context, string) (*models.Competition, error) {
		return competitionFixture(), nil
	}

	expiry := time.Now().Add(6 * time.Hour)
	created, err := env.svc.CreateCode(context.Background(), CreateAccessCodeInput{
		CompetitionID: "comp-1",
		Label:         strPtr("Table 3 desk"),
		ExpiresAt:     &expiry,
	})
	require.NoError(t, err)

	assert.Equal(t, "comp-1", created.CompetitionID)
	assert.Equal(t, "Table 3 desk", *created.Label)
	assert.Equal(t, &expiry, created.ExpiresAt)
	assert.Len(t, created.Code, 8)
	for _, r := range created.Code {
		assert.Contains(t, accessCodeCharset, string(r), "code uses the unambiguous charset only")
	}
	assert.False(t, strings.ContainsAny(created.Code, "0O1I"), "lookalike characters are never issued")
}

func TestCreateCodeRetriesOnCollision(t *testing.T) {
	env := newAccessServiceEnv(t)
	env.competitions.GetByIDFn = func(context.Context, string) (*models.Competition, error) {
		return competitionFixture(), nil
	}

	attempts := 0
	env.codes.CreateFn = func(context.Context, *models.AccessCode) error {
		attempts++
		if attempts == 1 {
			return repositories.ErrAccessCodeConflict
		}
		return nil
	}

	created, err := env.svc.CreateCode(context.Background(), CreateAccessCodeInput{CompetitionID: "comp-1"})
	require.NoError(t, err)
	assert.Equal(t, 2, attempts)
	assert.Len(t, created.Code, 8)
}

func TestCreateCodeGivesUpAfterPersistentCollisions(t *testing.T) {
	env := newAccessServiceEnv(t)
	env.competitions.GetByIDFn = func(context.Context, string) (*models.Competition, error) {
		return competitionFixture(), nil
	}

	attempts := 0
	env.codes.CreateFn = func(context.Context, *models.AccessCode) error {
		attempts++
		return repositories.ErrAccessCodeConflict
	}

	_, err := env.svc.CreateCode(context.Background(), CreateAccessCodeInput{CompetitionID: "comp-1"})
	require.Error(t, err)
	assert.Equal(t, 5, attempts)
}

func TestCreateCodeUnknownCompetition(t *testing.T) {
	env := newAccessServiceEnv(t)

	_, err := env.svc.CreateCode(context.Background(), CreateAccessCodeInput{CompetitionID: "nope"})

	require.ErrorIs(t, err, ErrCompetitionNotFound)
	assert.NotContains(t, env.codes.Calls(), "Create")
}

func TestRevokeCode(t *testing.T) {
	env := newAccessServiceEnv(t)
	require.NoError(t, env.svc.RevokeCode(context.Background(), "code-1"))

	env.codes.RevokeFn = func(context.Context, string) error {
		return repositories.ErrAccessCodeNotFound
	}
	err := env.svc.RevokeCode(context.Background(), "missing")
	require.ErrorIs(t, err, ErrAccessCodeNotFound)
}
