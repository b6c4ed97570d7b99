package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rallydesk/rallydesk/models"
	"github.com/rallydesk/rallydesk/repositories"
)

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func validateTournamentDates(start time.Time, end *time.Time) error {
	if start.IsZero() {
		return fmt.Errorf("%w: start date is required", ErrValidationFailed)
	}
	if end != nil && !start.Before(*end) {
		return fmt.Errorf("%w: start date (%s) must be before end date (%s)",
			ErrTournamentInvalidDate, start.Format(time.RFC3339), end.Format(time.RFC3339))
	}
	return nil
}

// runInTx wraps fn in a transaction, rolling back on error or panic.
func runInTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("transaction error: %w (rollback also failed: %v)", err, rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// participantNames resolves competition entry IDs against both players and
// teams. Singles entries are player IDs, doubles and team entries are team IDs,
// so both tables are consulted and whichever matches wins.
func participantNames(
	ctx context.Context,
	playerRepo repositories.PlayerRepository,
	teamRepo repositories.TeamRepository,
	ids []string,
) (map[string]string, error) {
	names := make(map[string]string, len(ids))
	if len(ids) == 0 {
		return names, nil
	}

	players, err := playerRepo.ListByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve player names: %w", err)
	}
	for _, p := range players {
		names[p.ID] = p.DisplayName()
	}

	if len(names) == len(ids) {
		return names, nil
	}

	missing := make([]string, 0, len(ids)-len(names))
	for _, id := range ids {
		if _, ok := names[id]; !ok {
			missing = append(missing, id)
		}
	}
	teams, err := teamRepo.ListByIDs(ctx, missing)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve team names: %w", err)
	}
	for _, t := range teams {
		names[t.ID] = t.Name
	}
	return names, nil
}

func isValidTournamentTransition(current, next models.TournamentStatus) bool {
	if current == next {
		return true
	}
	allowed := map[models.TournamentStatus][]models.TournamentStatus{
		models.TournamentDraft:        {models.TournamentRegistration, models.TournamentInProgress},
		models.TournamentRegistration: {models.TournamentInProgress},
		models.TournamentInProgress:   {models.TournamentCompleted},
		models.TournamentCompleted:    {},
	}
	for _, s := range allowed[current] {
		if next == s {
			return true
		}
	}
	return false
}
