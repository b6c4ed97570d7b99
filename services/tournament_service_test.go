package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rallydesk/rallydesk/models"
	"github.com/rallydesk/rallydesk/repositories"
)

type tournamentServiceEnv struct {
	svc          TournamentService
	tournaments  *FakeTournamentRepository
	competitions *FakeCompetitionRepository
}

func newTournamentServiceEnv(t *testing.T) *tournamentServiceEnv {
	t.Helper()
	env := &tournamentServiceEnv{
		tournaments:  NewFakeTournamentRepository(),
		competitions: NewFakeCompetitionRepository(),
	}
	env.svc = NewTournamentService(env.tournaments, env.competitions, testLogger())
	return env
}

func tournamentFixture() *models.Tournament {
	return &models.Tournament{
		ID:          "tournament-1",
		Name:        "Spring Club Open",
		Sport:       "table_tennis",
		OrganizerID: "user-1",
		StartDate:   time.Now().Add(24 * time.Hour),
		Status:      models.TournamentDraft,
	}
}

func TestCreateTournament(t *testing.T) {
	env := newTournamentServiceEnv(t)

	var stored *models.Tournament
	env.tournaments.CreateFn = func(_ context.Context, tournament *models.Tournament) error {
		stored = tournament
		return nil
	}

	start := time.Now().Add(24 * time.Hour)
	created, err := env.svc.Create(context.Background(), "user-1", CreateTournamentInput{
		Name:      "Spring Club Open",
		Sport:     "table_tennis",
		Venue:     strPtr("Main Hall"),
		StartDate: start,
	})
	require.NoError(t, err)

	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "user-1", created.OrganizerID)
	assert.Equal(t, models.TournamentDraft, created.Status)
	assert.Equal(t, stored, created)
}

func TestCreateTournamentValidation(t *testing.T) {
	start := time.Now().Add(24 * time.Hour)
	endBeforeStart := start.Add(-48 * time.Hour)

	tests := []struct {
		name    string
		input   CreateTournamentInput
		wantErr error
	}{
		{
			name:    "missing name",
			input:   CreateTournamentInput{Sport: "table_tennis", StartDate: start},
			wantErr: ErrValidationFailed,
		},
		{
			name:    "missing sport",
			input:   CreateTournamentInput{Name: "Open", StartDate: start},
			wantErr: ErrValidationFailed,
		},
		{
			name:    "missing start date",
			input:   CreateTournamentInput{Name: "Open", Sport: "table_tennis"},
			wantErr: ErrValidationFailed,
		},
		{
			name: "end before start",
			input: CreateTournamentInput{
				Name: "Open", Sport: "table_tennis",
				StartDate: start, EndDate: &endBeforeStart,
			},
			wantErr: ErrTournamentInvalidDate,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTournamentServiceEnv(t)

			_, err := env.svc.Create(context.Background(), "user-1", tt.input)

			require.ErrorIs(t, err, tt.wantErr)
			assert.NotContains(t, env.tournaments.Calls(), "Create")
		})
	}
}

func TestCreateTournamentNameConflict(t *testing.T) {
	env := newTournamentServiceEnv(t)
	env.tournaments.CreateFn = func(context.Context, *models.Tournament) error {
		return repositories.ErrTournamentNameConflict
	}

	_, err := env.svc.Create(context.Background(), "user-1", CreateTournamentInput{
		Name: "Open", Sport: "table_tennis", StartDate: time.Now().Add(time.Hour),
	})

	require.ErrorIs(t, err, ErrTournamentNameConflict)
}

func TestGetTournamentAttachesCompetitions(t *testing.T) {
	env := newTournamentServiceEnv(t)
	env.tournaments.GetByIDFn = func(context.Context, string) (*models.Tournament, error) {
		return tournamentFixture(), nil
	}
	env.competitions.ListByTournamentFn = func(context.Context, string) ([]models.Competition, error) {
		return []models.Competition{*competitionFixture()}, nil
	}

	tournament, err := env.svc.GetByID(context.Background(), "tournament-1")
	require.NoError(t, err)

	require.Len(t, tournament.Competitions, 1)
	assert.Equal(t, "comp-1", tournament.Competitions[0].ID)
}

func TestUpdateTournamentStatusTransitions(t *testing.T) {
	tests := []struct {
		name    string
		current models.TournamentStatus
		next    models.TournamentStatus
		wantErr bool
	}{
		{"draft opens registration", models.TournamentDraft, models.TournamentRegistration, false},
		{"draft starts directly", models.TournamentDraft, models.TournamentInProgress, false},
		{"registration starts", models.TournamentRegistration, models.TournamentInProgress, false},
		{"in progress completes", models.TournamentInProgress, models.TournamentCompleted, false},
		{"completed cannot reopen", models.TournamentCompleted, models.TournamentDraft, true},
		{"draft cannot complete directly", models.TournamentDraft, models.TournamentCompleted, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTournamentServiceEnv(t)
			fixture := tournamentFixture()
			fixture.Status = tt.current
			env.tournaments.GetByIDFn = func(context.Context, string) (*models.Tournament, error) {
				return fixture, nil
			}

			updated, err := env.svc.UpdateStatus(context.Background(), "tournament-1", tt.next)

			if tt.wantErr {
				require.ErrorIs(t, err, ErrValidationFailed)
				assert.NotContains(t, env.tournaments.Calls(), "UpdateStatus")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.next, updated.Status)
		})
	}
}

func TestAutoUpdateTournamentStatuses(t *testing.T) {
	env := newTournamentServiceEnv(t)

	now := time.Now()
	yesterday := now.Add(-24 * time.Hour)
	started := tournamentFixture()
	started.ID = "due-to-start"
	started.StartDate = yesterday

	twoDaysAgo := now.Add(-48 * time.Hour)
	finished := tournamentFixture()
	finished.ID = "due-to-finish"
	finished.Status = models.TournamentInProgress
	finished.StartDate = twoDaysAgo
	finished.EndDate = &yesterday

	env.tournaments.GetTournamentsForAutoStatusUpdateFn = func(context.Context, repositories.SQLExecutor, time.Time) ([]*models.Tournament, error) {
		return []*models.Tournament{started, finished}, nil
	}

	applied := make(map[string]models.TournamentStatus)
	env.tournaments.UpdateStatusFn = func(_ context.Context, _ repositories.SQLExecutor, id string, status models.TournamentStatus) error {
		applied[id] = status
		return nil
	}

	require.NoError(t, env.svc.AutoUpdateTournamentStatusesByDates(context.Background()))

	assert.Equal(t, models.TournamentInProgress, applied["due-to-start"])
	assert.Equal(t, models.TournamentCompleted, applied["due-to-finish"])
}

func TestAutoUpdateReportsFailures(t *testing.T) {
	env := newTournamentServiceEnv(t)

	overdue := tournamentFixture()
	overdue.StartDate = time.Now().Add(-time.Hour)
	env.tournaments.GetTournamentsForAutoStatusUpdateFn = func(context.Context, repositories.SQLExecutor, time.Time) ([]*models.Tournament, error) {
		return []*models.Tournament{overdue}, nil
	}
	env.tournaments.UpdateStatusFn = func(context.Context, repositories.SQLExecutor, string, models.TournamentStatus) error {
		return assert.AnError
	}

	err := env.svc.AutoUpdateTournamentStatusesByDates(context.Background())
	require.Error(t, err)
}

func TestDeleteTournamentNotFound(t *testing.T) {
	env := newTournamentServiceEnv(t)
	env.tournaments.DeleteFn = func(context.Context, string) error {
		return repositories.ErrTournamentNotFound
	}

	err := env.svc.Delete(context.Background(), "missing")
	require.ErrorIs(t, err, ErrTournamentNotFound)
}
