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
	ErrPlayerNotFound          = errors.New("player not found")
	ErrPlayerInvalidTournament = errors.New("invalid tournament reference")
)

type PlayerRepository interface {
	Create(ctx context.Context, player *models.Player) error
	CreateBatch(ctx context.Context, exec SQLExecutor, players []models.Player) error
	GetByID(ctx context.Context, id string) (*models.Player, error)
	ListByTournament(ctx context.Context, tournamentID string) ([]models.Player, error)
	ListByIDs(ctx context.Context, ids []string) ([]models.Player, error)
	Delete(ctx context.Context, id string) error
	CountByTournament(ctx context.Context, tournamentID string) (int, error)
}

type postgresPlayerRepository struct {
	db *sql.DB
}

func NewPostgresPlayerRepository(db *sql.DB) PlayerRepository {
	return &postgresPlayerRepository{db: db}
}

func (r *postgresPlayerRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const playerInsertQuery = `
	INSERT INTO players (
		id, tournament_id, first_name, last_name, email, phone, gender,
		skill_level, sport
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	RETURNING created_at`

func (r *postgresPlayerRepository) Create(ctx context.Context, p *models.Player) error {
	err := r.db.QueryRowContext(ctx, playerInsertQuery,
		p.ID, p.TournamentID, p.FirstName, p.LastName, p.Email, p.Phone, p.Gender,
		p.SkillLevel, p.Sport,
	).Scan(&p.CreatedAt)
	return r.handlePlayerError(err)
}

// CreateBatch inserts the whole bulk-add list, typically inside a transaction
// so a single bad row rolls back the lot.
func (r *postgresPlayerRepository) CreateBatch(ctx context.Context, exec SQLExecutor, players []models.Player) error {
	executor := r.getExecutor(exec)
	for i := range players {
		p := &players[i]
		err := executor.QueryRowContext(ctx, playerInsertQuery,
			p.ID, p.TournamentID, p.FirstName, p.LastName, p.Email, p.Phone, p.Gender,
			p.SkillLevel, p.Sport,
		).Scan(&p.CreatedAt)
		if err != nil {
			return r.handlePlayerError(err)
		}
	}
	return nil
}

func (r *postgresPlayerRepository) GetByID(ctx context.Context, id string) (*models.Player, error) {
	query := `
		SELECT id, tournament_id, first_name, last_name, email, phone, gender,
			skill_level, sport, created_at
		FROM players
		WHERE id = $1`

	p, err := scanPlayer(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPlayerNotFound
		}
		return nil, err
	}
	return p, nil
}

func (r *postgresPlayerRepository) ListByTournament(ctx context.Context, tournamentID string) ([]models.Player, error) {
	query := `
		SELECT id, tournament_id, first_name, last_name, email, phone, gender,
			skill_level, sport, created_at
		FROM players
		WHERE tournament_id = $1
		ORDER BY last_name ASC, first_name ASC`
	return r.queryPlayers(ctx, query, tournamentID)
}

func (r *postgresPlayerRepository) ListByIDs(ctx context.Context, ids []string) ([]models.Player, error) {
	if len(ids) == 0 {
		return []models.Player{}, nil
	}
	query := `
		SELECT id, tournament_id, first_name, last_name, email, phone, gender,
			skill_level, sport, created_at
		FROM players
		WHERE id = ANY($1)`
	return r.queryPlayers(ctx, query, pq.Array(ids))
}

func (r *postgresPlayerRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM players WHERE id = $1`, id)
	if err != nil {
		return r.handlePlayerError(err)
	}
	return checkAffectedRows(result, ErrPlayerNotFound)
}

func (r *postgresPlayerRepository) CountByTournament(ctx context.Context, tournamentID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM players WHERE tournament_id = $1`, tournamentID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count players: %w", err)
	}
	return count, nil
}

func (r *postgresPlayerRepository) queryPlayers(ctx context.Context, query string, args ...interface{}) ([]models.Player, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	players := make([]models.Player, 0)
	for rows.Next() {
		p, scanErr := scanPlayer(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		players = append(players, *p)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}
	return players, nil
}

func scanPlayer(row rowScanner) (*models.Player, error) {
	p := &models.Player{}
	err := row.Scan(
		&p.ID, &p.TournamentID, &p.FirstName, &p.LastName, &p.Email, &p.Phone, &p.Gender,
		&p.SkillLevel, &p.Sport, &p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *postgresPlayerRepository) handlePlayerError(err error) error {
	if err == nil {
		return nil
	}
	if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23503" {
		if pqErr.Constraint == "players_tournament_id_fkey" {
			return ErrPlayerInvalidTournament
		}
	}
	return err
}
