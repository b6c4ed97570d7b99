package services

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/rallydesk/rallydesk/models"
	"github.com/rallydesk/rallydesk/repositories"
)

// Hand-rolled programmable fakes for the repository interfaces. Each method
// records its name and delegates to the matching Fn field when set; without
// one, reads fall back to the repository's not-found error and writes
// succeed. Tests configure only the calls they care about.

type callTrace struct {
	calls []string
}

func (t *callTrace) record(step string) {
	t.calls = append(t.calls, step)
}

// Calls returns every repository method invoked so far, in order.
func (t *callTrace) Calls() []string {
	return append([]string(nil), t.calls...)
}

// --- stub database ---

// The transactional services only need Begin/Commit/Rollback to succeed;
// all real work happens in the fake repositories. A no-op driver keeps
// sql.DB happy without a running Postgres.
type stubDriver struct{}

func (stubDriver) Open(string) (driver.Conn, error) { return &stubConn{}, nil }

type stubConn struct{}

func (*stubConn) Prepare(string) (driver.Stmt, error) {
	return nil, errors.New("stub connection does not prepare statements")
}
func (*stubConn) Close() error              { return nil }
func (*stubConn) Begin() (driver.Tx, error) { return stubTx{}, nil }

type stubTx struct{}

func (stubTx) Commit() error   { return nil }
func (stubTx) Rollback() error { return nil }

func init() {
	sql.Register("stubdb", stubDriver{})
}

func newStubDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("stubdb", "")
	if err != nil {
		t.Fatalf("open stub db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func strPtr(s string) *string { return &s }

func intPtr(i int) *int { return &i }

// --- FakeMatchRepository ---

type FakeMatchRepository struct {
	callTrace

	CreateBatchFn             func(ctx context.Context, exec repositories.SQLExecutor, matches []models.Match) error
	GetByIDFn                 func(ctx context.Context, id string) (*models.Match, error)
	ListByCompetitionFn       func(ctx context.Context, competitionID string) ([]models.Match, error)
	ListByGroupFn             func(ctx context.Context, competitionID string, groupNumber int) ([]models.Match, error)
	ListKnockoutFn            func(ctx context.Context, competitionID string) ([]models.Match, error)
	UpdateScoreFn             func(ctx context.Context, exec repositories.SQLExecutor, match *models.Match) error
	SetSlotFn                 func(ctx context.Context, exec repositories.SQLExecutor, matchID string, slot int, participantID string) error
	AssignResourceFn          func(ctx context.Context, exec repositories.SQLExecutor, matchID string, resourceID *string) error
	UpdateStatusFn            func(ctx context.Context, exec repositories.SQLExecutor, matchID string, status models.MatchStatus) error
	DeleteByCompetitionFn     func(ctx context.Context, exec repositories.SQLExecutor, competitionID string) error
	ListPendingByTournamentFn func(ctx context.Context, tournamentID string) ([]models.Match, error)
	ListLiveByTournamentFn    func(ctx context.Context, tournamentID string) ([]models.Match, error)
	ListRecentCompletedFn     func(ctx context.Context, tournamentID string, limit int) ([]models.Match, error)
	StatsByTournamentFn       func(ctx context.Context, tournamentID string) (int, int, int, error)
}

func NewFakeMatchRepository() *FakeMatchRepository {
	return &FakeMatchRepository{}
}

func (f *FakeMatchRepository) CreateBatch(ctx context.Context, exec repositories.SQLExecutor, matches []models.Match) error {
	f.record("CreateBatch")
	if f.CreateBatchFn != nil {
		return f.CreateBatchFn(ctx, exec, matches)
	}
	return nil
}

func (f *FakeMatchRepository) GetByID(ctx context.Context, id string) (*models.Match, error) {
	f.record("GetByID")
	if f.GetByIDFn != nil {
		return f.GetByIDFn(ctx, id)
	}
	return nil, repositories.ErrMatchNotFound
}

func (f *FakeMatchRepository) ListByCompetition(ctx context.Context, competitionID string) ([]models.Match, error) {
	f.record("ListByCompetition")
	if f.ListByCompetitionFn != nil {
		return f.ListByCompetitionFn(ctx, competitionID)
	}
	return nil, nil
}

func (f *FakeMatchRepository) ListByGroup(ctx context.Context, competitionID string, groupNumber int) ([]models.Match, error) {
	f.record("ListByGroup")
	if f.ListByGroupFn != nil {
		return f.ListByGroupFn(ctx, competitionID, groupNumber)
	}
	return nil, nil
}

func (f *FakeMatchRepository) ListKnockout(ctx context.Context, competitionID string) ([]models.Match, error) {
	f.record("ListKnockout")
	if f.ListKnockoutFn != nil {
		return f.ListKnockoutFn(ctx, competitionID)
	}
	return nil, nil
}

func (f *FakeMatchRepository) UpdateScore(ctx context.Context, exec repositories.SQLExecutor, match *models.Match) error {
	f.record("UpdateScore")
	if f.UpdateScoreFn != nil {
		return f.UpdateScoreFn(ctx, exec, match)
	}
	return nil
}

func (f *FakeMatchRepository) SetSlot(ctx context.Context, exec repositories.SQLExecutor, matchID string, slot int, participantID string) error {
	f.record("SetSlot")
	if f.SetSlotFn != nil {
		return f.SetSlotFn(ctx, exec, matchID, slot, participantID)
	}
	return nil
}

func (f *FakeMatchRepository) AssignResource(ctx context.Context, exec repositories.SQLExecutor, matchID string, resourceID *string) error {
	f.record("AssignResource")
	if f.AssignResourceFn != nil {
		return f.AssignResourceFn(ctx, exec, matchID, resourceID)
	}
	return nil
}

func (f *FakeMatchRepository) UpdateStatus(ctx context.Context, exec repositories.SQLExecutor, matchID string, status models.MatchStatus) error {
	f.record("UpdateStatus")
	if f.UpdateStatusFn != nil {
		return f.UpdateStatusFn(ctx, exec, matchID, status)
	}
	return nil
}

func (f *FakeMatchRepository) DeleteByCompetition(ctx context.Context, exec repositories.SQLExecutor, competitionID string) error {
	f.record("DeleteByCompetition")
	if f.DeleteByCompetitionFn != nil {
		return f.DeleteByCompetitionFn(ctx, exec, competitionID)
	}
	return nil
}

func (f *FakeMatchRepository) ListPendingByTournament(ctx context.Context, tournamentID string) ([]models.Match, error) {
	f.record("ListPendingByTournament")
	if f.ListPendingByTournamentFn != nil {
		return f.ListPendingByTournamentFn(ctx, tournamentID)
	}
	return nil, nil
}

func (f *FakeMatchRepository) ListLiveByTournament(ctx context.Context, tournamentID string) ([]models.Match, error) {
	f.record("ListLiveByTournament")
	if f.ListLiveByTournamentFn != nil {
		return f.ListLiveByTournamentFn(ctx, tournamentID)
	}
	return nil, nil
}

func (f *FakeMatchRepository) ListRecentCompleted(ctx context.Context, tournamentID string, limit int) ([]models.Match, error) {
	f.record("ListRecentCompleted")
	if f.ListRecentCompletedFn != nil {
		return f.ListRecentCompletedFn(ctx, tournamentID, limit)
	}
	return nil, nil
}

func (f *FakeMatchRepository) StatsByTournament(ctx context.Context, tournamentID string) (int, int, int, error) {
	f.record("StatsByTournament")
	if f.StatsByTournamentFn != nil {
		return f.StatsByTournamentFn(ctx, tournamentID)
	}
	return 0, 0, 0, nil
}

// --- FakeCompetitionRepository ---

type FakeCompetitionRepository struct {
	callTrace

	CreateFn            func(ctx context.Context, competition *models.Competition) error
	GetByIDFn           func(ctx context.Context, id string) (*models.Competition, error)
	ListByTournamentFn  func(ctx context.Context, tournamentID string) ([]models.Competition, error)
	UpdateStatusFn      func(ctx context.Context, exec repositories.SQLExecutor, id string, status models.CompetitionStatus) error
	SetParticipantsFn   func(ctx context.Context, exec repositories.SQLExecutor, id string, participantIDs []string) error
	DeleteFn            func(ctx context.Context, id string) error
	CountByTournamentFn func(ctx context.Context, tournamentID string) (int, error)
}

func NewFakeCompetitionRepository() *FakeCompetitionRepository {
	return &FakeCompetitionRepository{}
}

func (f *FakeCompetitionRepository) Create(ctx context.Context, competition *models.Competition) error {
	f.record("Create")
	if f.CreateFn != nil {
		return f.CreateFn(ctx, competition)
	}
	return nil
}

func (f *FakeCompetitionRepository) GetByID(ctx context.Context, id string) (*models.Competition, error) {
	f.record("GetByID")
	if f.GetByIDFn != nil {
		return f.GetByIDFn(ctx, id)
	}
	return nil, repositories.ErrCompetitionNotFound
}

func (f *FakeCompetitionRepository) ListByTournament(ctx context.Context, tournamentID string) ([]models.Competition, error) {
	f.record("ListByTournament")
	if f.ListByTournamentFn != nil {
		return f.ListByTournamentFn(ctx, tournamentID)
	}
	return nil, nil
}

func (f *FakeCompetitionRepository) UpdateStatus(ctx context.Context, exec repositories.SQLExecutor, id string, status models.CompetitionStatus) error {
	f.record("UpdateStatus")
	if f.UpdateStatusFn != nil {
		return f.UpdateStatusFn(ctx, exec, id, status)
	}
	return nil
}

func (f *FakeCompetitionRepository) SetParticipants(ctx context.Context, exec repositories.SQLExecutor, id string, participantIDs []string) error {
	f.record("SetParticipants")
	if f.SetParticipantsFn != nil {
		return f.SetParticipantsFn(ctx, exec, id, participantIDs)
	}
	return nil
}

func (f *FakeCompetitionRepository) Delete(ctx context.Context, id string) error {
	f.record("Delete")
	if f.DeleteFn != nil {
		return f.DeleteFn(ctx, id)
	}
	return nil
}

func (f *FakeCompetitionRepository) CountByTournament(ctx context.Context, tournamentID string) (int, error) {
	f.record("CountByTournament")
	if f.CountByTournamentFn != nil {
		return f.CountByTournamentFn(ctx, tournamentID)
	}
	return 0, nil
}

// --- FakeResourceRepository ---

type FakeResourceRepository struct {
	callTrace

	CreateFn           func(ctx context.Context, resource *models.Resource) error
	GetByIDFn          func(ctx context.Context, id string) (*models.Resource, error)
	ListByTournamentFn func(ctx context.Context, tournamentID string) ([]models.Resource, error)
	UpdateStatusFn     func(ctx context.Context, exec repositories.SQLExecutor, id string, status models.ResourceStatus) error
	DeleteFn           func(ctx context.Context, id string) error
}

func NewFakeResourceRepository() *FakeResourceRepository {
	return &FakeResourceRepository{}
}

func (f *FakeResourceRepository) Create(ctx context.Context, resource *models.Resource) error {
	f.record("Create")
	if f.CreateFn != nil {
		return f.CreateFn(ctx, resource)
	}
	return nil
}

func (f *FakeResourceRepository) GetByID(ctx context.Context, id string) (*models.Resource, error) {
	f.record("GetByID")
	if f.GetByIDFn != nil {
		return f.GetByIDFn(ctx, id)
	}
	return nil, repositories.ErrResourceNotFound
}

func (f *FakeResourceRepository) ListByTournament(ctx context.Context, tournamentID string) ([]models.Resource, error) {
	f.record("ListByTournament")
	if f.ListByTournamentFn != nil {
		return f.ListByTournamentFn(ctx, tournamentID)
	}
	return nil, nil
}

func (f *FakeResourceRepository) UpdateStatus(ctx context.Context, exec repositories.SQLExecutor, id string, status models.ResourceStatus) error {
	f.record("UpdateStatus")
	if f.UpdateStatusFn != nil {
		return f.UpdateStatusFn(ctx, exec, id, status)
	}
	return nil
}

func (f *FakeResourceRepository) Delete(ctx context.Context, id string) error {
	f.record("Delete")
	if f.DeleteFn != nil {
		return f.DeleteFn(ctx, id)
	}
	return nil
}

// --- FakeTournamentRepository ---

type FakeTournamentRepository struct {
	callTrace

	CreateFn                            func(ctx context.Context, tournament *models.Tournament) error
	GetByIDFn                           func(ctx context.Context, id string) (*models.Tournament, error)
	ListFn                              func(ctx context.Context, filter repositories.ListTournamentsFilter) ([]models.Tournament, error)
	UpdateFn                            func(ctx context.Context, tournament *models.Tournament) error
	UpdateStatusFn                      func(ctx context.Context, exec repositories.SQLExecutor, id string, status models.TournamentStatus) error
	DeleteFn                            func(ctx context.Context, id string) error
	GetTournamentsForAutoStatusUpdateFn func(ctx context.Context, exec repositories.SQLExecutor, currentTime time.Time) ([]*models.Tournament, error)
}

func NewFakeTournamentRepository() *FakeTournamentRepository {
	return &FakeTournamentRepository{}
}

func (f *FakeTournamentRepository) Create(ctx context.Context, tournament *models.Tournament) error {
	f.record("Create")
	if f.CreateFn != nil {
		return f.CreateFn(ctx, tournament)
	}
	return nil
}

func (f *FakeTournamentRepository) GetByID(ctx context.Context, id string) (*models.Tournament, error) {
	f.record("GetByID")
	if f.GetByIDFn != nil {
		return f.GetByIDFn(ctx, id)
	}
	return nil, repositories.ErrTournamentNotFound
}

func (f *FakeTournamentRepository) List(ctx context.Context, filter repositories.ListTournamentsFilter) ([]models.Tournament, error) {
	f.record("List")
	if f.ListFn != nil {
		return f.ListFn(ctx, filter)
	}
	return nil, nil
}

func (f *FakeTournamentRepository) Update(ctx context.Context, tournament *models.Tournament) error {
	f.record("Update")
	if f.UpdateFn != nil {
		return f.UpdateFn(ctx, tournament)
	}
	return nil
}

func (f *FakeTournamentRepository) UpdateStatus(ctx context.Context, exec repositories.SQLExecutor, id string, status models.TournamentStatus) error {
	f.record("UpdateStatus")
	if f.UpdateStatusFn != nil {
		return f.UpdateStatusFn(ctx, exec, id, status)
	}
	return nil
}

func (f *FakeTournamentRepository) Delete(ctx context.Context, id string) error {
	f.record("Delete")
	if f.DeleteFn != nil {
		return f.DeleteFn(ctx, id)
	}
	return nil
}

func (f *FakeTournamentRepository) GetTournamentsForAutoStatusUpdate(ctx context.Context, exec repositories.SQLExecutor, currentTime time.Time) ([]*models.Tournament, error) {
	f.record("GetTournamentsForAutoStatusUpdate")
	if f.GetTournamentsForAutoStatusUpdateFn != nil {
		return f.GetTournamentsForAutoStatusUpdateFn(ctx, exec, currentTime)
	}
	return nil, nil
}

// --- FakePlayerRepository ---

type FakePlayerRepository struct {
	callTrace

	CreateFn            func(ctx context.Context, player *models.Player) error
	CreateBatchFn       func(ctx context.Context, exec repositories.SQLExecutor, players []models.Player) error
	GetByIDFn           func(ctx context.Context, id string) (*models.Player, error)
	ListByTournamentFn  func(ctx context.Context, tournamentID string) ([]models.Player, error)
	ListByIDsFn         func(ctx context.Context, ids []string) ([]models.Player, error)
	DeleteFn            func(ctx context.Context, id string) error
	CountByTournamentFn func(ctx context.Context, tournamentID string) (int, error)
}

func NewFakePlayerRepository() *FakePlayerRepository {
	return &FakePlayerRepository{}
}

func (f *FakePlayerRepository) Create(ctx context.Context, player *models.Player) error {
	f.record("Create")
	if f.CreateFn != nil {
		return f.CreateFn(ctx, player)
	}
	return nil
}

func (f *FakePlayerRepository) CreateBatch(ctx context.Context, exec repositories.SQLExecutor, players []models.Player) error {
	f.record("CreateBatch")
	if f.CreateBatchFn != nil {
		return f.CreateBatchFn(ctx, exec, players)
	}
	return nil
}

func (f *FakePlayerRepository) GetByID(ctx context.Context, id string) (*models.Player, error) {
	f.record("GetByID")
	if f.GetByIDFn != nil {
		return f.GetByIDFn(ctx, id)
	}
	return nil, repositories.ErrPlayerNotFound
}

func (f *FakePlayerRepository) ListByTournament(ctx context.Context, tournamentID string) ([]models.Player, error) {
	f.record("ListByTournament")
	if f.ListByTournamentFn != nil {
		return f.ListByTournamentFn(ctx, tournamentID)
	}
	return nil, nil
}

func (f *FakePlayerRepository) ListByIDs(ctx context.Context, ids []string) ([]models.Player, error) {
	f.record("ListByIDs")
	if f.ListByIDsFn != nil {
		return f.ListByIDsFn(ctx, ids)
	}
	return nil, nil
}

func (f *FakePlayerRepository) Delete(ctx context.Context, id string) error {
	f.record("Delete")
	if f.DeleteFn != nil {
		return f.DeleteFn(ctx, id)
	}
	return nil
}

func (f *FakePlayerRepository) CountByTournament(ctx context.Context, tournamentID string) (int, error) {
	f.record("CountByTournament")
	if f.CountByTournamentFn != nil {
		return f.CountByTournamentFn(ctx, tournamentID)
	}
	return 0, nil
}

// --- FakeTeamRepository ---

type FakeTeamRepository struct {
	callTrace

	CreateFn            func(ctx context.Context, team *models.Team) error
	GetByIDFn           func(ctx context.Context, id string) (*models.Team, error)
	ListByTournamentFn  func(ctx context.Context, tournamentID string) ([]models.Team, error)
	ListByIDsFn         func(ctx context.Context, ids []string) ([]models.Team, error)
	SetPlayersFn        func(ctx context.Context, id string, playerIDs []string) error
	DeleteFn            func(ctx context.Context, id string) error
	CountByTournamentFn func(ctx context.Context, tournamentID string) (int, error)
}

func NewFakeTeamRepository() *FakeTeamRepository {
	return &FakeTeamRepository{}
}

func (f *FakeTeamRepository) Create(ctx context.Context, team *models.Team) error {
	f.record("Create")
	if f.CreateFn != nil {
		return f.CreateFn(ctx, team)
	}
	return nil
}

func (f *FakeTeamRepository) GetByID(ctx context.Context, id string) (*models.Team, error) {
	f.record("GetByID")
	if f.GetByIDFn != nil {
		return f.GetByIDFn(ctx, id)
	}
	return nil, repositories.ErrTeamNotFound
}

func (f *FakeTeamRepository) ListByTournament(ctx context.Context, tournamentID string) ([]models.Team, error) {
	f.record("ListByTournament")
	if f.ListByTournamentFn != nil {
		return f.ListByTournamentFn(ctx, tournamentID)
	}
	return nil, nil
}

func (f *FakeTeamRepository) ListByIDs(ctx context.Context, ids []string) ([]models.Team, error) {
	f.record("ListByIDs")
	if f.ListByIDsFn != nil {
		return f.ListByIDsFn(ctx, ids)
	}
	return nil, nil
}

func (f *FakeTeamRepository) SetPlayers(ctx context.Context, id string, playerIDs []string) error {
	f.record("SetPlayers")
	if f.SetPlayersFn != nil {
		return f.SetPlayersFn(ctx, id, playerIDs)
	}
	return nil
}

func (f *FakeTeamRepository) Delete(ctx context.Context, id string) error {
	f.record("Delete")
	if f.DeleteFn != nil {
		return f.DeleteFn(ctx, id)
	}
	return nil
}

func (f *FakeTeamRepository) CountByTournament(ctx context.Context, tournamentID string) (int, error) {
	f.record("CountByTournament")
	if f.CountByTournamentFn != nil {
		return f.CountByTournamentFn(ctx, tournamentID)
	}
	return 0, nil
}

// --- FakeAccessCodeRepository ---

type FakeAccessCodeRepository struct {
	callTrace

	CreateFn            func(ctx context.Context, code *models.AccessCode) error
	GetByCodeFn         func(ctx context.Context, code string) (*models.AccessCode, error)
	ListByCompetitionFn func(ctx context.Context, competitionID string) ([]models.AccessCode, error)
	RevokeFn            func(ctx context.Context, id string) error
}

func NewFakeAccessCodeRepository() *FakeAccessCodeRepository {
	return &FakeAccessCodeRepository{}
}

func (f *FakeAccessCodeRepository) Create(ctx context.Context, code *models.AccessCode) error {
	f.record("Create")
	if f.CreateFn != nil {
		return f.CreateFn(ctx, code)
	}
	return nil
}

func (f *FakeAccessCodeRepository) GetByCode(ctx context.Context, code string) (*models.AccessCode, error) {
	f.record("GetByCode")
	if f.GetByCodeFn != nil {
		return f.GetByCodeFn(ctx, code)
	}
	return nil, repositories.ErrAccessCodeNotFound
}

func (f *FakeAccessCodeRepository) ListByCompetition(ctx context.Context, competitionID string) ([]models.AccessCode, error) {
	f.record("ListByCompetition")
	if f.ListByCompetitionFn != nil {
		return f.ListByCompetitionFn(ctx, competitionID)
	}
	return nil, nil
}

func (f *FakeAccessCodeRepository) Revoke(ctx context.Context, id string) error {
	f.record("Revoke")
	if f.RevokeFn != nil {
		return f.RevokeFn(ctx, id)
	}
	return nil
}

// --- FakeUserRepository ---

type FakeUserRepository struct {
	callTrace

	CreateFn     func(ctx context.Context, user *models.User) error
	GetByIDFn    func(ctx context.Context, id string) (*models.User, error)
	GetByEmailFn func(ctx context.Context, email string) (*models.User, error)
}

func NewFakeUserRepository() *FakeUserRepository {
	return &FakeUserRepository{}
}

func (f *FakeUserRepository) Create(ctx context.Context, user *models.User) error {
	f.record("Create")
	if f.CreateFn != nil {
		return f.CreateFn(ctx, user)
	}
	return nil
}

func (f *FakeUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	f.record("GetByID")
	if f.GetByIDFn != nil {
		return f.GetByIDFn(ctx, id)
	}
	return nil, repositories.ErrUserNotFound
}

func (f *FakeUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	f.record("GetByEmail")
	if f.GetByEmailFn != nil {
		return f.GetByEmailFn(ctx, email)
	}
	return nil, repositories.ErrUserNotFound
}
