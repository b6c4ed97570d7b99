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
	ErrAccessCodeNotFound = errors.New("access code not found")
	ErrAccessCodeConflict = errors.New("access code already exists")
)

type AccessCodeRepository interface {
	Create(ctx context.Context, code *models.AccessCode) error
	GetByCode(ctx context.Context, code string) (*models.AccessCode, error)
	ListByCompetition(ctx context.Context, competitionID string) ([]models.AccessCode, error)
	Revoke(ctx context.Context, id string) error
}

type postgresAccessCodeRepository struct {
	db *sql.DB
}

func NewPostgresAccessCodeRepository(db *sql.DB) AccessCodeRepository {
	return &postgresAccessCodeRepository{db: db}
}

func (r *postgresAccessCodeRepository) Create(ctx context.Context, ac *models.AccessCode) error {
	query := `
		INSERT INTO access_codes (id, competition_id, code, label, revoked, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at`

	err := r.db.QueryRowContext(ctx, query,
		ac.ID, ac.CompetitionID, ac.Code, ac.Label, ac.Revoked, ac.ExpiresAt,
	).Scan(&ac.CreatedAt)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			if pqErr.Constraint == "access_codes_code_key" {
				return ErrAccessCodeConflict
			}
		}
		return fmt.Errorf("failed to insert access code: %w", err)
	}
	return nil
}

// GetByCode looks a code up by its value. Codes are unique across all
// competitions so scorers never have to name the competition they are entering.
func (r *postgresAccessCodeRepository) GetByCode(ctx context.Context, code string) (*models.AccessCode, error) {
	query := `
		SELECT id, competition_id, code, label, revoked, expires_at, created_at
		FROM access_codes
		WHERE code = $1`

	ac, err := scanAccessCode(r.db.QueryRowContext(ctx, query, code))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAccessCodeNotFound
		}
		return nil, err
	}
	return ac, nil
}

func (r *postgresAccessCodeRepository) ListByCompetition(ctx context.Context, competitionID string) ([]models.AccessCode, error) {
	query := `
		SELECT id, competition_id, code, label, revoked, expires_at, created_at
		FROM access_codes
		WHERE competition_id = $1
		ORDER BY created_at ASC`

	rows, err := r.db.QueryContext(ctx, query, competitionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	codes := make([]models.AccessCode, 0)
	for rows.Next() {
		ac, scanErr := scanAccessCode(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		codes = append(codes, *ac)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}
	return codes, nil
}

func (r *postgresAccessCodeRepository) Revoke(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE access_codes SET revoked = TRUE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to revoke access code: %w", err)
	}
	return checkAffectedRows(result, ErrAccessCodeNotFound)
}

func scanAccessCode(row rowScanner) (*models.AccessCode, error) {
	ac := &models.AccessCode{}
	err := row.Scan(
		&ac.ID, &ac.CompetitionID, &ac.Code, &ac.Label, &ac.Revoked,
		&ac.ExpiresAt, &ac.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return ac, nil
}
