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
	ErrTeamNotFound          = errors.New("team not found")
	ErrTeamNameConflict      = errors.New("team name conflict in this tournament")
	ErrTeamInvalidTournament = errors.New("invalid tournament reference")
)

type TeamRepository interface {
	Create(ctx context.Context, team *models.Team) error
	GetByID(ctx context.Context, id string) (*models.Team, error)
	ListByTournament(ctx context.Context, tournamentID string) ([]models.Team, error)
	ListByIDs(ctx context.Context, ids []string) ([]models.Team, error)
	SetPlayers(ctx context.Context, id string, playerIDs []string) error
	Delete(ctx context.Context, id string) error
	CountByTournament(ctx context.Context, tournamentID string) (int, error)
}

type postgresTeamRepository struct {
	db *sql.DB
}

func NewPostgresTeamRepository(db *sql.DB) TeamRepository {
	return &postgresTeamRepository{db: db}
}

func (r *postgresTeamRepository) Create(ctx context.Context, t *models.Team) error {
	query := `
		INSERT INTO teams (id, tournament_id, name, sport, player_ids)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at`

	err := r.db.QueryRowContext(ctx, query,
		t.ID, t.TournamentID, t.Name, t.Sport, pq.Array(t.PlayerIDs),
	).Scan(&t.CreatedAt)
	return r.handleTeamError(err)
}

func (r *postgresTeamRepository) GetByID(ctx context.Context, id string) (*models.Team, error) {
	query := `
		SELECT id, tournament_id, name, sport, player_ids, created_at
		FROM teams
		WHERE id = $1`

	t, err := scanTeam(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTeamNotFound
		}
		return nil, err
	}
	return t, nil
}

func (r *postgresTeamRepository) ListByTournament(ctx context.Context, tournamentID string) ([]models.Team, error) {
	query := `
		SELECT id, tournament_id, name, sport, player_ids, created_at
		FROM teams
		WHERE tournament_id = $1
		ORDER BY name ASC`
	return r.queryTeams(ctx, query, tournamentID)
}

func (r *postgresTeamRepository) ListByIDs(ctx context.Context, ids []string) ([]models.Team, error) {
	if len(ids) == 0 {
		return []models.Team{}, nil
	}
	query := `
		SELECT id, tournament_id, name, sport, player_ids, created_at
		FROM teams
		WHERE id = ANY($1)`
	return r.queryTeams(ctx, query, pq.Array(ids))
}

func (r *postgresTeamRepository) SetPlayers(ctx context.Context, id string, playerIDs []string) error {
	query := `UPDATE teams SET player_ids = $1 WHERE id = $2`
	result, err := r.db.ExecContext(ctx, query, pq.Array(playerIDs), id)
	if err != nil {
		return fmt.Errorf("failed to update team players: %w", err)
	}
	return checkAffectedRows(result, ErrTeamNotFound)
}

func (r *postgresTeamRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM teams WHERE id = $1`, id)
	if err != nil {
		return r.handleTeamError(err)
	}
	return checkAffectedRows(result, ErrTeamNotFound)
}

func (r *postgresTeamRepository) CountByTournament(ctx context.Context, tournamentID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM teams WHERE tournament_id = $1`, tournamentID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count teams: %w", err)
	}
	return count, nil
}

func (r *postgresTeamRepository) queryTeams(ctx context.Context, query string, args ...interface{}) ([]models.Team, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	teams := make([]models.Team, 0)
	for rows.Next() {
		t, scanErr := scanTeam(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		teams = append(teams, *t)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}
	return teams, nil
}

func scanTeam(row rowScanner) (*models.Team, error) {
	t := &models.Team{}
	err := row.Scan(
		&t.ID, &t.TournamentID, &t.Name, &t.Sport, pq.Array(&t.PlayerIDs), &t.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (r *postgresTeamRepository) handleTeamError(err error) error {
	if err == nil {
		return nil
	}
	if pqErr, ok := err.(*pq.Error); ok {
		switch pqErr.Code {
		case "23505":
			if pqErr.Constraint == "teams_tournament_id_name_key" {
				return ErrTeamNameConflict
			}
		case "23503":
			if pqErr.Constraint == "teams_tournament_id_fkey" {
				return ErrTeamInvalidTournament
			}
		}
	}
	return err
}
