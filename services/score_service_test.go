package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rallydesk/rallydesk/models"
	"github.com/rallydesk/rallydesk/repositories"
	"github.com/rallydesk/rallydesk/scorelock"
)

type scoreServiceEnv struct {
	svc          ScoreService
	matches      *FakeMatchRepository
	competitions *FakeCompetitionRepository
	resources    *FakeResourceRepository
	locks        scorelock.Manager
}

func newScoreServiceEnv(t *testing.T, ttl time.Duration) *scoreServiceEnv {
	t.Helper()
	env := &scoreServiceEnv{
		matches:      NewFakeMatchRepository(),
		competitions: NewFakeCompetitionRepository(),
		resources:    NewFakeResourceRepository(),
		locks:        scorelock.NewManager(scorelock.NewMemoryStore(), ttl),
	}
	env.svc = NewScoreService(newStubDB(t), env.matches, env.competitions, env.resources, env.locks, nil, testLogger())
	return env
}

// serve wires one match and its competition into the fakes.
func (env *scoreServiceEnv) serve(match *models.Match, competition *models.Competition) {
	env.matches.GetByIDFn = func(_ context.Context, id string) (*models.Match, error) {
		if id == match.ID {
			return match, nil
		}
		return nil, repositories.ErrMatchNotFound
	}
	env.competitions.GetByIDFn = func(_ context.Context, id string) (*models.Competition, error) {
		if id == competition.ID {
			return competition, nil
		}
		return nil, repositories.ErrCompetitionNotFound
	}
}

func groupMatchFixture() *models.Match {
	return &models.Match{
		ID:            "match-1",
		CompetitionID: "comp-1",
		RoundNumber:   1,
		MatchNumber:   1,
		GroupNumber:   intPtr(1),
		SideAID:       strPtr("alice"),
		SideBID:       strPtr("bob"),
		Status:        models.MatchScheduled,
		Scores:        []models.SetScore{},
		CurrentSet:    1,
	}
}

func competitionFixture() *models.Competition {
	return &models.Competition{
		ID:              "comp-1",
		TournamentID:    "tournament-1",
		Name:            "Open Singles",
		Format:          models.FormatGroupsKnockout,
		MatchType:       "singles",
		Status:          models.CompetitionInProgress,
		Rules:           models.DefaultScoringRules(),
		NumGroups:       2,
		AdvancePerGroup: 2,
		ParticipantIDs:  []string{"alice", "bob", "carol", "dave"},
	}
}

func scoreSet(n, a, b int) models.SetScore {
	return models.SetScore{SetNumber: n, SideA: a, SideB: b}
}

func TestSubmitScoreRequiresLock(t *testing.T) {
	env := newScoreServiceEnv(t, time.Minute)
	env.serve(groupMatchFixture(), competitionFixture())

	_, err := env.svc.SubmitScore(context.Background(), SubmitScoreInput{
		MatchID:       "match-1",
		SessionID:     "desk-1",
		Sets:          []models.SetScore{scoreSet(1, 11, 5)},
		SubmitterRole: models.RoleReferee,
	})

	require.ErrorIs(t, err, ErrScoringLockRequired)
	assert.NotContains(t, env.matches.Calls(), "UpdateScore")
}

func TestSubmitScoreCompletesMatchUnderLock(t *testing.T) {
	env := newScoreServiceEnv(t, time.Minute)
	match := groupMatchFixture()
	env.serve(match, competitionFixture())

	var gotExec repositories.SQLExecutor
	env.matches.UpdateScoreFn = func(_ context.Context, exec repositories.SQLExecutor, _ *models.Match) error {
		gotExec = exec
		return nil
	}

	_, err := env.svc.AcquireLock(context.Background(), "match-1", "desk-1")
	require.NoError(t, err)

	updated, err := env.svc.SubmitScore(context.Background(), SubmitScoreInput{
		MatchID:       "match-1",
		SessionID:     "desk-1",
		Sets:          []models.SetScore{scoreSet(1, 11, 7), scoreSet(2, 11, 5), scoreSet(3, 11, 9)},
		SubmitterRole: models.RoleReferee,
	})
	require.NoError(t, err)

	assert.Equal(t, models.MatchCompleted, updated.Status)
	require.NotNil(t, updated.WinnerID)
	assert.Equal(t, "alice", *updated.WinnerID)
	assert.Equal(t, models.ScorePending, updated.ScoreStatus)
	assert.Equal(t, 3, updated.CurrentSet)
	assert.NotNil(t, gotExec, "score write must go through the transaction")
}

func TestSubmitScorePartialKeepsMatchLive(t *testing.T) {
	env := newScoreServiceEnv(t, time.Minute)
	env.serve(groupMatchFixture(), competitionFixture())

	_, err := env.svc.AcquireLock(context.Background(), "match-1", "desk-1")
	require.NoError(t, err)

	updated, err := env.svc.SubmitScore(context.Background(), SubmitScoreInput{
		MatchID:       "match-1",
		SessionID:     "desk-1",
		Sets:          []models.SetScore{scoreSet(1, 11, 7), scoreSet(2, 8, 11)},
		SubmitterRole: models.RoleReferee,
	})
	require.NoError(t, err)

	assert.Equal(t, models.MatchLive, updated.Status)
	assert.Nil(t, updated.WinnerID)
	assert.Equal(t, 3, updated.CurrentSet, "play continues in the next set")
}

func TestSubmitScoreValidation(t *testing.T) {
	tests := []struct {
		name    string
		sets    []models.SetScore
		wantErr error
	}{
		{
			name:    "negative points",
			sets:    []models.SetScore{scoreSet(1, 11, -1)},
			wantErr: ErrNegativeSetScore,
		},
		{
			name: "more sets than best of five allows",
			sets: []models.SetScore{
				scoreSet(1, 11, 5), scoreSet(2, 5, 11), scoreSet(3, 11, 5),
				scoreSet(4, 5, 11), scoreSet(5, 11, 5), scoreSet(6, 11, 5),
			},
			wantErr: ErrTooManySets,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newScoreServiceEnv(t, time.Minute)
			env.serve(groupMatchFixture(), competitionFixture())

			_, err := env.svc.AcquireLock(context.Background(), "match-1", "desk-1")
			require.NoError(t, err)

			_, err = env.svc.SubmitScore(context.Background(), SubmitScoreInput{
				MatchID:       "match-1",
				SessionID:     "desk-1",
				Sets:          tt.sets,
				SubmitterRole: models.RoleReferee,
			})

			require.ErrorIs(t, err, tt.wantErr)
			assert.NotContains(t, env.matches.Calls(), "UpdateScore", "rejected submissions must not write")
		})
	}
}

func TestSubmitScoreRejectsUnassignedSides(t *testing.T) {
	env := newScoreServiceEnv(t, time.Minute)
	match := groupMatchFixture()
	match.SideBID = nil
	env.serve(match, competitionFixture())

	_, err := env.svc.AcquireLock(context.Background(), "match-1", "desk-1")
	require.NoError(t, err)

	_, err = env.svc.SubmitScore(context.Background(), SubmitScoreInput{
		MatchID:       "match-1",
		SessionID:     "desk-1",
		Sets:          []models.SetScore{scoreSet(1, 11, 5)},
		SubmitterRole: models.RoleReferee,
	})

	require.ErrorIs(t, err, ErrMatchSidesUnset)
}

func TestSubmitScoreConfirmationByRole(t *testing.T) {
	tests := []struct {
		name string
		role models.UserRole
		want models.ScoreStatus
	}{
		{"referee stays pending", models.RoleReferee, models.ScorePending},
		{"organizer confirms immediately", models.RoleOrganizer, models.ScoreConfirmed},
		{"admin confirms immediately", models.RoleAdmin, models.ScoreConfirmed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newScoreServiceEnv(t, time.Minute)
			env.serve(groupMatchFixture(), competitionFixture())

			_, err := env.svc.AcquireLock(context.Background(), "match-1", "desk-1")
			require.NoError(t, err)

			updated, err := env.svc.SubmitScore(context.Background(), SubmitScoreInput{
				MatchID:       "match-1",
				SessionID:     "desk-1",
				Sets:          []models.SetScore{scoreSet(1, 11, 3), scoreSet(2, 11, 6), scoreSet(3, 11, 8)},
				SubmitterRole: tt.role,
			})
			require.NoError(t, err)
			assert.Equal(t, tt.want, updated.ScoreStatus)
		})
	}
}

func TestSubmitScoreReplacesPreviousSets(t *testing.T) {
	env := newScoreServiceEnv(t, time.Minute)
	env.serve(groupMatchFixture(), competitionFixture())

	ctx := context.Background()
	_, err := env.svc.AcquireLock(ctx, "match-1", "desk-1")
	require.NoError(t, err)

	first := []models.SetScore{scoreSet(1, 11, 7), scoreSet(2, 11, 5), scoreSet(3, 11, 9)}
	updated, err := env.svc.SubmitScore(ctx, SubmitScoreInput{
		MatchID: "match-1", SessionID: "desk-1", Sets: first, SubmitterRole: models.RoleReferee,
	})
	require.NoError(t, err)
	require.Equal(t, "alice", *updated.WinnerID)

	// Desk notices set two was entered backwards and resubmits the whole
	// match. The stored sets are replaced, not appended to.
	corrected := []models.SetScore{
		scoreSet(1, 11, 7), scoreSet(2, 5, 11), scoreSet(3, 11, 9), scoreSet(4, 9, 11), scoreSet(5, 9, 11),
	}
	updated, err = env.svc.SubmitScore(ctx, SubmitScoreInput{
		MatchID: "match-1", SessionID: "desk-1", Sets: corrected, SubmitterRole: models.RoleReferee,
	})
	require.NoError(t, err)

	assert.Len(t, updated.Scores, 5)
	require.NotNil(t, updated.WinnerID)
	assert.Equal(t, "bob", *updated.WinnerID)
	assert.Equal(t, models.MatchCompleted, updated.Status)
}

func TestSubmitScoreIdenticalResubmission(t *testing.T) {
	env := newScoreServiceEnv(t, time.Minute)
	env.serve(groupMatchFixture(), competitionFixture())

	ctx := context.Background()
	_, err := env.svc.AcquireLock(ctx, "match-1", "desk-1")
	require.NoError(t, err)

	input := SubmitScoreInput{
		MatchID:       "match-1",
		SessionID:     "desk-1",
		Sets:          []models.SetScore{scoreSet(1, 11, 7), scoreSet(2, 11, 5), scoreSet(3, 11, 9)},
		SubmitterRole: models.RoleReferee,
	}

	first, err := env.svc.SubmitScore(ctx, input)
	require.NoError(t, err)

	second, err := env.svc.SubmitScore(ctx, input)
	require.NoError(t, err)

	assert.Equal(t, first.Scores, second.Scores)
	assert.Equal(t, first.Status, second.Status)
	assert.Equal(t, first.WinnerID, second.WinnerID)
	assert.Equal(t, first.CurrentSet, second.CurrentSet)
}

func TestSubmitScoreExpiredLock(t *testing.T) {
	env := newScoreServiceEnv(t, 20*time.Millisecond)
	env.serve(groupMatchFixture(), competitionFixture())

	ctx := context.Background()
	_, err := env.svc.AcquireLock(ctx, "match-1", "desk-1")
	require.NoError(t, err)

	time.Sleep(40 * time.Millisecond)

	_, err = env.svc.SubmitScore(ctx, SubmitScoreInput{
		MatchID:       "match-1",
		SessionID:     "desk-1",
		Sets:          []models.SetScore{scoreSet(1, 11, 5)},
		SubmitterRole: models.RoleReferee,
	})

	require.ErrorIs(t, err, scorelock.ErrLockExpired)
	assert.NotContains(t, env.matches.Calls(), "UpdateScore")
}

func TestSubmitScorePropagatesWinnerAndFreesResource(t *testing.T) {
	env := newScoreServiceEnv(t, time.Minute)

	match := groupMatchFixture()
	match.ID = "match-sf-1"
	match.RoundNumber = models.KnockoutRoundBase + 1
	match.GroupNumber = nil
	match.NextMatchID = strPtr("match-final")
	match.NextMatchSlot = intPtr(1)
	match.ResourceID = strPtr("table-2")
	env.serve(match, competitionFixture())

	var slotMatchID, slotParticipant string
	var slot int
	env.matches.SetSlotFn = func(_ context.Context, _ repositories.SQLExecutor, matchID string, s int, participantID string) error {
		slotMatchID, slot, slotParticipant = matchID, s, participantID
		return nil
	}
	var resourceStatus models.ResourceStatus
	env.resources.UpdateStatusFn = func(_ context.Context, _ repositories.SQLExecutor, _ string, status models.ResourceStatus) error {
		resourceStatus = status
		return nil
	}

	ctx := context.Background()
	_, err := env.svc.AcquireLock(ctx, "match-sf-1", "desk-1")
	require.NoError(t, err)

	_, err = env.svc.SubmitScore(ctx, SubmitScoreInput{
		MatchID:       "match-sf-1",
		SessionID:     "desk-1",
		Sets:          []models.SetScore{scoreSet(1, 11, 6), scoreSet(2, 11, 4), scoreSet(3, 11, 9)},
		SubmitterRole: models.RoleOrganizer,
	})
	require.NoError(t, err)

	assert.Equal(t, "match-final", slotMatchID)
	assert.Equal(t, 1, slot)
	assert.Equal(t, "alice", slotParticipant)
	assert.Equal(t, models.ResourceAvailable, resourceStatus, "table frees up once the match is done")
}

func TestSubmitScoreMarksResourceInUseWhileLive(t *testing.T) {
	env := newScoreServiceEnv(t, time.Minute)

	match := groupMatchFixture()
	match.ResourceID = strPtr("table-2")
	env.serve(match, competitionFixture())

	var resourceStatus models.ResourceStatus
	env.resources.UpdateStatusFn = func(_ context.Context, _ repositories.SQLExecutor, _ string, status models.ResourceStatus) error {
		resourceStatus = status
		return nil
	}

	ctx := context.Background()
	_, err := env.svc.AcquireLock(ctx, "match-1", "desk-1")
	require.NoError(t, err)

	_, err = env.svc.SubmitScore(ctx, SubmitScoreInput{
		MatchID:       "match-1",
		SessionID:     "desk-1",
		Sets:          []models.SetScore{scoreSet(1, 11, 7)},
		SubmitterRole: models.RoleReferee,
	})
	require.NoError(t, err)

	assert.Equal(t, models.ResourceInUse, resourceStatus)
}

func TestSubmitScoreUnknownMatch(t *testing.T) {
	env := newScoreServiceEnv(t, time.Minute)
	env.serve(groupMatchFixture(), competitionFixture())

	_, err := env.svc.SubmitScore(context.Background(), SubmitScoreInput{
		MatchID:       "no-such-match",
		SessionID:     "desk-1",
		Sets:          []models.SetScore{scoreSet(1, 11, 5)},
		SubmitterRole: models.RoleReferee,
	})

	require.ErrorIs(t, err, ErrMatchNotFound)
}

func TestConfirmScore(t *testing.T) {
	env := newScoreServiceEnv(t, time.Minute)
	match := groupMatchFixture()
	match.Status = models.MatchCompleted
	match.ScoreStatus = models.ScorePending
	match.WinnerID = strPtr("alice")
	env.serve(match, competitionFixture())

	updated, err := env.svc.ConfirmScore(context.Background(), "match-1")
	require.NoError(t, err)

	assert.Equal(t, models.ScoreConfirmed, updated.ScoreStatus)
	assert.Contains(t, env.matches.Calls(), "UpdateScore")
}

func TestConfirmScoreRejectsNonPending(t *testing.T) {
	env := newScoreServiceEnv(t, time.Minute)
	match := groupMatchFixture()
	match.Status = models.MatchCompleted
	match.ScoreStatus = models.ScoreConfirmed
	env.serve(match, competitionFixture())

	_, err := env.svc.ConfirmScore(context.Background(), "match-1")

	require.ErrorIs(t, err, ErrScoreNotPending)
	assert.NotContains(t, env.matches.Calls(), "UpdateScore")
}

func TestLockLifecycleThroughService(t *testing.T) {
	env := newScoreServiceEnv(t, time.Minute)
	env.serve(groupMatchFixture(), competitionFixture())
	ctx := context.Background()

	record, err := env.svc.AcquireLock(ctx, "match-1", "desk-1")
	require.NoError(t, err)
	assert.Equal(t, "desk-1", record.SessionID)
	assert.True(t, record.ExpiresAt.After(time.Now()))

	// A second desk is refused while the lease is live, with the expiry in
	// the message so the conflict is explainable at the venue.
	_, err = env.svc.AcquireLock(ctx, "match-1", "desk-2")
	require.ErrorIs(t, err, scorelock.ErrLockHeld)
	assert.Contains(t, err.Error(), "held until")

	renewed, err := env.svc.RenewLock(ctx, "match-1", "desk-1")
	require.NoError(t, err)
	assert.False(t, renewed.ExpiresAt.Before(record.ExpiresAt))

	_, err = env.svc.RenewLock(ctx, "match-1", "desk-2")
	require.ErrorIs(t, err, scorelock.ErrLockNotHeld)

	require.NoError(t, env.svc.ReleaseLock(ctx, "match-1", "desk-1"))
	// Releasing again is a no-op, and the lock is free for the next desk.
	require.NoError(t, env.svc.ReleaseLock(ctx, "match-1", "desk-1"))

	_, err = env.svc.AcquireLock(ctx, "match-1", "desk-2")
	require.NoError(t, err)
}

func TestAcquireLockUnknownMatch(t *testing.T) {
	env := newScoreServiceEnv(t, time.Minute)
	env.serve(groupMatchFixture(), competitionFixture())

	_, err := env.svc.AcquireLock(context.Background(), "no-such-match", "desk-1")
	require.ErrorIs(t, err, ErrMatchNotFound)
}
