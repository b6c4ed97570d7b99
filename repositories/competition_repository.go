package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/rallydesk/rallydesk/models"
)

var (
	ErrCompetitionNotFound          = errors.New("competition not found")
	ErrCompetitionNameConflict      = errors.New("competition name conflict in this tournament")
	ErrCompetitionInvalidTournament = errors.New("invalid tournament reference")
)

type CompetitionRepository interface {
	Create(ctx context.Context, competition *models.Competition) error
	GetByID(ctx context.Context, id string) (*models.Competition, error)
	ListByTournament(ctx context.Context, tournamentID string) ([]models.Competition, error)
	UpdateStatus(ctx context.Context, exec SQLExecutor, id string, status models.CompetitionStatus) error
	SetParticipants(ctx context.Context, exec SQLExecutor, id string, participantIDs []string) error
	Delete(ctx context.Context, id string) error
	CountByTournament(ctx context.Context, tournamentID string) (int, error)
}

type postgresCompetitionRepository struct {
	db *sql.DB
}

func NewPostgresCompetitionRepository(db *sql.DB) CompetitionRepository {
	return &postgresCompetitionRepository{db: db}
}

func (r *postgresCompetitionRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresCompetitionRepository) Create(ctx context.Context, c *models.Competition) error {
	query := `
		INSERT INTO competitions (
			id, tournament_id, name, format, match_type, status,
			sets_to_win, points_to_win_set, points_must_win_by,
			num_groups, advance_per_group, participant_ids
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING created_at`

	err := r.db.QueryRowContext(ctx, query,
		c.ID, c.TournamentID, c.Name, c.Format, c.MatchType, c.Status,
		c.Rules.SetsToWin, c.Rules.PointsToWinSet, c.Rules.PointsMustWinBy,
		c.NumGroups, c.AdvancePerGroup, pq.Array(c.ParticipantIDs),
	).Scan(&c.CreatedAt)

	return r.handleCompetitionError(err)
}

func (r *postgresCompetitionRepository) GetByID(ctx context.Context, id string) (*models.Competition, error) {
	query := `
		SELECT
			id, tournament_id, name, format, match_type, status,
			sets_to_win, points_to_win_set, points_must_win_by,
			num_groups, advance_per_group, participant_ids, created_at
		FROM competitions
		WHERE id = $1`

	c, err := scanCompetition(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCompetitionNotFound
		}
		return nil, err
	}
	return c, nil
}

func (r *postgresCompetitionRepository) ListByTournament(ctx context.Context, tournamentID string) ([]models.Competition, error) {
	query := `
		SELECT
			id, tournament_id, name, format, match_type, status,
			sets_to_win, points_to_win_set, points_must_win_by,
			num_groups, advance_per_group, participant_ids, created_at
		FROM competitions
		WHERE tournament_id = $1
		ORDER BY created_at ASC`

	rows, err := r.db.QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	competitions := make([]models.Competition, 0)
	for rows.Next() {
		c, scanErr := scanCompetitionRow(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		competitions = append(competitions, *c)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}
	return competitions, nil
}

func (r *postgresCompetitionRepository) UpdateStatus(ctx context.Context, exec SQLExecutor, id string, status models.CompetitionStatus) error {
	executor := r.getExecutor(exec)
	query := `UPDATE competitions SET status = $1 WHERE id = $2`
	result, err := executor.ExecContext(ctx, query, status, id)
	if err != nil {
		return r.handleCompetitionError(err)
	}
	return checkAffectedRows(result, ErrCompetitionNotFound)
}

// SetParticipants replaces the full entry list. Partial edits go through the
// service, which reads, merges and writes back.
func (r *postgresCompetitionRepository) SetParticipants(ctx context.Context, exec SQLExecutor, id string, participantIDs []string) error {
	executor := r.getExecutor(exec)
	query := `UPDATE competitions SET participant_ids = $1 WHERE id = $2`
	result, err := executor.ExecContext(ctx, query, pq.Array(participantIDs), id)
	if err != nil {
		return fmt.Errorf("failed to update competition participants: %w", err)
	}
	return checkAffectedRows(result, ErrCompetitionNotFound)
}

func (r *postgresCompetitionRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM competitions WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return r.handleCompetitionError(err)
	}
	return checkAffectedRows(result, ErrCompetitionNotFound)
}

func (r *postgresCompetitionRepository) CountByTournament(ctx context.Context, tournamentID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM competitions WHERE tournament_id = $1`, tournamentID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count competitions: %w", err)
	}
	return count, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanCompetition(row *sql.Row) (*models.Competition, error) {
	return scanCompetitionRow(row)
}

func scanCompetitionRow(row rowScanner) (*models.Competition, error) {
	c := &models.Competition{}
	err := row.Scan(
		&c.ID, &c.TournamentID, &c.Name, &c.Format, &c.MatchType, &c.Status,
		&c.Rules.SetsToWin, &c.Rules.PointsToWinSet, &c.Rules.PointsMustWinBy,
		&c.NumGroups, &c.AdvancePerGroup, pq.Array(&c.ParticipantIDs), &c.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (r *postgresCompetitionRepository) handleCompetitionError(err error) error {
	if err == nil {
		return nil
	}
	if pqErr, ok := err.(*pq.Error); ok {
		switch pqErr.Code {
		case "23505":
			if pqErr.Constraint == "competitions_tournament_id_name_key" {
				return ErrCompetitionNameConflict
			}
		case "23503":
			if pqErr.Constraint == "competitions_tournament_id_fkey" {
				return ErrCompetitionInvalidTournament
			}
		}
	}
	return err
}
