package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/rallydesk/rallydesk/models"
)

var (
	ErrMatchNotFound           = errors.New("match not found")
	ErrMatchInvalidCompetition = errors.New("invalid competition reference")
	ErrMatchInvalidResource    = errors.New("invalid resource reference")
)

type MatchRepository interface {
	CreateBatch(ctx context.Context, exec SQLExecutor, matches []models.Match) error
	GetByID(ctx context.Context, id string) (*models.Match, error)
	ListByCompetition(ctx context.Context, competitionID string) ([]models.Match, error)
	ListByGroup(ctx context.Context, competitionID string, groupNumber int) ([]models.Match, error)
	ListKnockout(ctx context.Context, competitionID string) ([]models.Match, error)
	UpdateScore(ctx context.Context, exec SQLExecutor, match *models.Match) error
	SetSlot(ctx context.Context, exec SQLExecutor, matchID string, slot int, participantID string) error
	AssignResource(ctx context.Context, exec SQLExecutor, matchID string, resourceID *string) error
	UpdateStatus(ctx context.Context, exec SQLExecutor, matchID string, status models.MatchStatus) error
	DeleteByCompetition(ctx context.Context, exec SQLExecutor, competitionID string) error
	ListPendingByTournament(ctx context.Context, tournamentID string) ([]models.Match, error)
	ListLiveByTournament(ctx context.Context, tournamentID string) ([]models.Match, error)
	ListRecentCompleted(ctx context.Context, tournamentID string, limit int) ([]models.Match, error)
	StatsByTournament(ctx context.Context, tournamentID string) (total, completed, live int, err error)
}

type postgresMatchRepository struct {
	db *sql.DB
}

func NewPostgresMatchRepository(db *sql.DB) MatchRepository {
	return &postgresMatchRepository{db: db}
}

func (r *postgresMatchRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const matchColumns = `
	id, competition_id, round_number, match_number, group_number,
	participant1_id, participant2_id, winner_id, resource_id, scheduled_time,
	status, score_status, scores, current_set, next_match_id, next_match_slot,
	created_at`

func (r *postgresMatchRepository) CreateBatch(ctx context.Context, exec SQLExecutor, matches []models.Match) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO matches (
			id, competition_id, round_number, match_number, group_number,
			participant1_id, participant2_id, winner_id, resource_id, scheduled_time,
			status, score_status, scores, current_set, next_match_id, next_match_slot
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`

	for i := range matches {
		m := &matches[i]
		scores, err := marshalScores(m.Scores)
		if err != nil {
			return err
		}
		_, err = executor.ExecContext(ctx, query,
			m.ID, m.CompetitionID, m.RoundNumber, m.MatchNumber, m.GroupNumber,
			m.SideAID, m.SideBID, m.WinnerID, m.ResourceID, m.ScheduledAt,
			m.Status, m.ScoreStatus, scores, m.CurrentSet, m.NextMatchID, m.NextMatchSlot,
		)
		if err != nil {
			return r.handleMatchError(err)
		}
	}
	return nil
}

func (r *postgresMatchRepository) GetByID(ctx context.Context, id string) (*models.Match, error) {
	query := `SELECT` + matchColumns + ` FROM matches WHERE id = $1`

	m, err := scanMatch(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchNotFound
		}
		return nil, err
	}
	return m, nil
}

func (r *postgresMatchRepository) ListByCompetition(ctx context.Context, competitionID string) ([]models.Match, error) {
	query := `SELECT` + matchColumns + `
		FROM matches
		WHERE competition_id = $1
		ORDER BY round_number ASC, match_number ASC`
	return r.queryMatches(ctx, query, competitionID)
}

func (r *postgresMatchRepository) ListByGroup(ctx context.Context, competitionID string, groupNumber int) ([]models.Match, error) {
	query := `SELECT` + matchColumns + `
		FROM matches
		WHERE competition_id = $1 AND group_number = $2 AND round_number < $3
		ORDER BY round_number ASC, match_number ASC`
	return r.queryMatches(ctx, query, competitionID, groupNumber, models.KnockoutRoundBase)
}

func (r *postgresMatchRepository) ListKnockout(ctx context.Context, competitionID string) ([]models.Match, error) {
	query := `SELECT` + matchColumns + `
		FROM matches
		WHERE competition_id = $1 AND round_number >= $2
		ORDER BY round_number ASC, match_number ASC`
	return r.queryMatches(ctx, query, competitionID, models.KnockoutRoundBase)
}

// UpdateScore persists the full scoring outcome of a submission: the replaced
// set list plus the derived winner, statuses and current set, in one statement.
func (r *postgresMatchRepository) UpdateScore(ctx context.Context, exec SQLExecutor, m *models.Match) error {
	executor := r.getExecutor(exec)
	scores, err := marshalScores(m.Scores)
	if err != nil {
		return err
	}

	query := `
		UPDATE matches SET
			scores = $1,
			winner_id = $2,
			status = $3,
			score_status = $4,
			current_set = $5,
			updated_at = NOW()
		WHERE id = $6`

	result, err := executor.ExecContext(ctx, query,
		scores, m.WinnerID, m.Status, m.ScoreStatus, m.CurrentSet, m.ID,
	)
	if err != nil {
		return r.handleMatchError(err)
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

// SetSlot places a participant into side 1 or 2 of a match. Used to propagate
// a winner into the next bracket match.
func (r *postgresMatchRepository) SetSlot(ctx context.Context, exec SQLExecutor, matchID string, slot int, participantID string) error {
	executor := r.getExecutor(exec)

	var query string
	switch slot {
	case 1:
		query = `UPDATE matches SET participant1_id = $1 WHERE id = $2`
	case 2:
		query = `UPDATE matches SET participant2_id = $1 WHERE id = $2`
	default:
		return fmt.Errorf("invalid match slot %d", slot)
	}

	result, err := executor.ExecContext(ctx, query, participantID, matchID)
	if err != nil {
		return r.handleMatchError(err)
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

func (r *postgresMatchRepository) AssignResource(ctx context.Context, exec SQLExecutor, matchID string, resourceID *string) error {
	executor := r.getExecutor(exec)
	query := `UPDATE matches SET resource_id = $1 WHERE id = $2`
	result, err := executor.ExecContext(ctx, query, resourceID, matchID)
	if err != nil {
		return r.handleMatchError(err)
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

func (r *postgresMatchRepository) UpdateStatus(ctx context.Context, exec SQLExecutor, matchID string, status models.MatchStatus) error {
	executor := r.getExecutor(exec)
	query := `UPDATE matches SET status = $1, updated_at = NOW() WHERE id = $2`
	result, err := executor.ExecContext(ctx, query, status, matchID)
	if err != nil {
		return r.handleMatchError(err)
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

func (r *postgresMatchRepository) DeleteByCompetition(ctx context.Context, exec SQLExecutor, competitionID string) error {
	executor := r.getExecutor(exec)
	_, err := executor.ExecContext(ctx, `DELETE FROM matches WHERE competition_id = $1`, competitionID)
	if err != nil {
		return fmt.Errorf("failed to delete matches for competition %s: %w", competitionID, err)
	}
	return nil
}

func (r *postgresMatchRepository) ListPendingByTournament(ctx context.Context, tournamentID string) ([]models.Match, error) {
	query := `
		SELECT m.id, m.competition_id, m.round_number, m.match_number, m.group_number,
			m.participant1_id, m.participant2_id, m.winner_id, m.resource_id, m.scheduled_time,
			m.status, m.score_status, m.scores, m.current_set, m.next_match_id, m.next_match_slot,
			m.created_at
		FROM matches m
		JOIN competitions c ON m.competition_id = c.id
		WHERE c.tournament_id = $1 AND m.status = $2
			AND m.participant1_id IS NOT NULL AND m.participant2_id IS NOT NULL
		ORDER BY m.scheduled_time ASC NULLS LAST, m.round_number ASC, m.match_number ASC`
	return r.queryMatches(ctx, query, tournamentID, models.MatchScheduled)
}

func (r *postgresMatchRepository) ListLiveByTournament(ctx context.Context, tournamentID string) ([]models.Match, error) {
	query := `
		SELECT m.id, m.competition_id, m.round_number, m.match_number, m.group_number,
			m.participant1_id, m.participant2_id, m.winner_id, m.resource_id, m.scheduled_time,
			m.status, m.score_status, m.scores, m.current_set, m.next_match_id, m.next_match_slot,
			m.created_at
		FROM matches m
		JOIN competitions c ON m.competition_id = c.id
		WHERE c.tournament_id = $1 AND m.status = $2
		ORDER BY m.round_number ASC, m.match_number ASC`
	return r.queryMatches(ctx, query, tournamentID, models.MatchLive)
}

func (r *postgresMatchRepository) ListRecentCompleted(ctx context.Context, tournamentID string, limit int) ([]models.Match, error) {
	if limit <= 0 {
		limit = 10
	}
	query := `
		SELECT m.id, m.competition_id, m.round_number, m.match_number, m.group_number,
			m.participant1_id, m.participant2_id, m.winner_id, m.resource_id, m.scheduled_time,
			m.status, m.score_status, m.scores, m.current_set, m.next_match_id, m.next_match_slot,
			m.created_at
		FROM matches m
		JOIN competitions c ON m.competition_id = c.id
		WHERE c.tournament_id = $1 AND m.status = $2
		ORDER BY m.updated_at DESC
		LIMIT $3`
	return r.queryMatches(ctx, query, tournamentID, models.MatchCompleted, limit)
}

func (r *postgresMatchRepository) StatsByTournament(ctx context.Context, tournamentID string) (total, completed, live int, err error) {
	query := `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE m.status = $2),
			COUNT(*) FILTER (WHERE m.status = $3)
		FROM matches m
		JOIN competitions c ON m.competition_id = c.id
		WHERE c.tournament_id = $1`

	err = r.db.QueryRowContext(ctx, query, tournamentID, models.MatchCompleted, models.MatchLive).
		Scan(&total, &completed, &live)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("failed to count matches for tournament %s: %w", tournamentID, err)
	}
	return total, completed, live, nil
}

func (r *postgresMatchRepository) queryMatches(ctx context.Context, query string, args ...interface{}) ([]models.Match, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	matches := make([]models.Match, 0)
	for rows.Next() {
		m, scanErr := scanMatch(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		matches = append(matches, *m)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}
	return matches, nil
}

func scanMatch(row rowScanner) (*models.Match, error) {
	m := &models.Match{}
	var scoresRaw []byte
	err := row.Scan(
		&m.ID, &m.CompetitionID, &m.RoundNumber, &m.MatchNumber, &m.GroupNumber,
		&m.SideAID, &m.SideBID, &m.WinnerID, &m.ResourceID, &m.ScheduledAt,
		&m.Status, &m.ScoreStatus, &scoresRaw, &m.CurrentSet, &m.NextMatchID, &m.NextMatchSlot,
		&m.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	m.Scores = make([]models.SetScore, 0)
	if len(scoresRaw) > 0 {
		if err := json.Unmarshal(scoresRaw, &m.Scores); err != nil {
			return nil, fmt.Errorf("failed to decode scores for match %s: %w", m.ID, err)
		}
	}
	return m, nil
}

func marshalScores(scores []models.SetScore) ([]byte, error) {
	if scores == nil {
		scores = []models.SetScore{}
	}
	raw, err := json.Marshal(scores)
	if err != nil {
		return nil, fmt.Errorf("failed to encode scores: %w", err)
	}
	return raw, nil
}

func (r *postgresMatchRepository) handleMatchError(err error) error {
	if err == nil {
		return nil
	}
	if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23503" {
		switch pqErr.Constraint {
		case "matches_competition_id_fkey":
			return ErrMatchInvalidCompetition
		case "matches_resource_id_fkey":
			return ErrMatchInvalidResource
		}
	}
	return err
}
