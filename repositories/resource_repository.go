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
	ErrResourceNotFound          = errors.New("resource not found")
	ErrResourceInvalidTournament = errors.New("invalid tournament reference")
)

type ResourceRepository interface {
	Create(ctx context.Context, resource *models.Resource) error
	GetByID(ctx context.Context, id string) (*models.Resource, error)
	ListByTournament(ctx context.Context, tournamentID string) ([]models.Resource, error)
	UpdateStatus(ctx context.Context, exec SQLExecutor, id string, status models.ResourceStatus) error
	Delete(ctx context.Context, id string) error
}

type postgresResourceRepository struct {
	db *sql.DB
}

func NewPostgresResourceRepository(db *sql.DB) ResourceRepository {
	return &postgresResourceRepository{db: db}
}

func (r *postgresResourceRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresResourceRepository) Create(ctx context.Context, res *models.Resource) error {
	query := `
		INSERT INTO resources (id, tournament_id, name, resource_type, sport, location, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at`

	err := r.db.QueryRowContext(ctx, query,
		res.ID, res.TournamentID, res.Name, res.ResourceType, res.Sport, res.Location, res.Status,
	).Scan(&res.CreatedAt)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23503" {
			if pqErr.Constraint == "resources_tournament_id_fkey" {
				return ErrResourceInvalidTournament
			}
		}
		return fmt.Errorf("failed to insert resource: %w", err)
	}
	return nil
}

func (r *postgresResourceRepository) GetByID(ctx context.Context, id string) (*models.Resource, error) {
	query := `
		SELECT id, tournament_id, name, resource_type, sport, location, status, created_at
		FROM resources
		WHERE id = $1`

	res, err := scanResource(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrResourceNotFound
		}
		return nil, err
	}
	return res, nil
}

func (r *postgresResourceRepository) ListByTournament(ctx context.Context, tournamentID string) ([]models.Resource, error) {
	query := `
		SELECT id, tournament_id, name, resource_type, sport, location, status, created_at
		FROM resources
		WHERE tournament_id = $1
		ORDER BY name ASC`

	rows, err := r.db.QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	resources := make([]models.Resource, 0)
	for rows.Next() {
		res, scanErr := scanResource(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		resources = append(resources, *res)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}
	return resources, nil
}

func (r *postgresResourceRepository) UpdateStatus(ctx context.Context, exec SQLExecutor, id string, status models.ResourceStatus) error {
	executor := r.getExecutor(exec)
	query := `UPDATE resources SET status = $1 WHERE id = $2`
	result, err := executor.ExecContext(ctx, query, status, id)
	if err != nil {
		return fmt.Errorf("failed to update resource status: %w", err)
	}
	return checkAffectedRows(result, ErrResourceNotFound)
}

func (r *postgresResourceRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM resources WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrResourceNotFound)
}

func scanResource(row rowScanner) (*models.Resource, error) {
	res := &models.Resource{}
	err := row.Scan(
		&res.ID, &res.TournamentID, &res.Name, &res.ResourceType, &res.Sport,
		&res.Location, &res.Status, &res.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return res, nil
}
