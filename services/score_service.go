package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/rallydesk/rallydesk/live"
	"github.com/rallydesk/rallydesk/metrics"
	"github.com/rallydesk/rallydesk/models"
	"github.com/rallydesk/rallydesk/repositories"
	"github.com/rallydesk/rallydesk/scorelock"
	"github.com/rallydesk/rallydesk/scoring"
)

type SubmitScoreInput struct {
	MatchID       string
	SessionID     string
	Sets          []models.SetScore
	SubmitterRole models.UserRole
}

type ScoreService interface {
	GetMatch(ctx context.Context, matchID string) (*models.Match, error)
	AcquireLock(ctx context.Context, matchID, sessionID string) (*scorelock.LockRecord, error)
	RenewLock(ctx context.Context, matchID, sessionID string) (*scorelock.LockRecord, error)
	ReleaseLock(ctx context.Context, matchID, sessionID string) error
	SubmitScore(ctx context.Context, input SubmitScoreInput) (*models.Match, error)
	ConfirmScore(ctx context.Context, matchID string) (*models.Match, error)
}

type scoreService struct {
	db              *sql.DB
	matchRepo       repositories.MatchRepository
	competitionRepo repositories.CompetitionRepository
	resourceRepo    repositories.ResourceRepository
	locks           scorelock.Manager
	hub             *live.Hub
	logger          *slog.Logger
}

func NewScoreService(
	db *sql.DB,
	matchRepo repositories.MatchRepository,
	competitionRepo repositories.CompetitionRepository,
	resourceRepo repositories.ResourceRepository,
	locks scorelock.Manager,
	hub *live.Hub,
	logger *slog.Logger,
) ScoreService {
	return &scoreService{
		db:              db,
		matchRepo:       matchRepo,
		competitionRepo: competitionRepo,
		resourceRepo:    resourceRepo,
		locks:           locks,
		hub:             hub,
		logger:          logger,
	}
}

func (s *scoreService) GetMatch(ctx context.Context, matchID string) (*models.Match, error) {
	return s.loadMatch(ctx, matchID)
}

func (s *scoreService) AcquireLock(ctx context.Context, matchID, sessionID string) (*scorelock.LockRecord, error) {
	match, err := s.loadMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}

	record, err := s.locks.Acquire(ctx, match.LockResourceID(), sessionID)
	if err != nil {
		if errors.Is(err, scorelock.ErrLockHeld) {
			metrics.LockAcquiresTotal.WithLabelValues(metrics.OutcomeConflict).Inc()
		} else {
			metrics.LockAcquiresTotal.WithLabelValues(metrics.OutcomeError).Inc()
		}
		return nil, err
	}

	metrics.LockAcquiresTotal.WithLabelValues(metrics.OutcomeGranted).Inc()
	return record, nil
}

func (s *scoreService) RenewLock(ctx context.Context, matchID, sessionID string) (*scorelock.LockRecord, error) {
	match, err := s.loadMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}

	record, err := s.locks.Renew(ctx, match.LockResourceID(), sessionID)
	if err != nil {
		if errors.Is(err, scorelock.ErrLockExpired) {
			metrics.LockRenewalsTotal.WithLabelValues(metrics.OutcomeExpired).Inc()
		} else {
			metrics.LockRenewalsTotal.WithLabelValues(metrics.OutcomeError).Inc()
		}
		return nil, err
	}

	metrics.LockRenewalsTotal.WithLabelValues(metrics.OutcomeOK).Inc()
	return record, nil
}

func (s *scoreService) ReleaseLock(ctx context.Context, matchID, sessionID string) error {
	match, err := s.loadMatch(ctx, matchID)
	if err != nil {
		return err
	}

	if err := s.locks.Release(ctx, match.LockResourceID(), sessionID); err != nil {
		return err
	}
	metrics.LockReleasesTotal.Inc()
	return nil
}

// SubmitScore replaces the match's set list with the submitted one and derives
// everything else from it: set tallies, the winner, match status, and the
// confirmation state. Submitting the same sets twice lands on the same row, so
// retries are safe.
func (s *scoreService) SubmitScore(ctx context.Context, input SubmitScoreInput) (*models.Match, error) {
	outcome := metrics.OutcomeRejected
	defer func() {
		metrics.ScoreSubmissionsTotal.WithLabelValues(outcome).Inc()
	}()

	match, err := s.loadMatch(ctx, input.MatchID)
	if err != nil {
		return nil, err
	}

	if err := s.checkLock(ctx, match, input.SessionID); err != nil {
		return nil, err
	}

	competition, err := s.loadCompetition(ctx, match.CompetitionID)
	if err != nil {
		return nil, err
	}

	sets, err := validateSets(competition.Rules, match, input.Sets)
	if err != nil {
		return nil, err
	}

	winner, _, _ := scoring.EvaluateMatch(competition.Rules, sets)

	match.Scores = sets
	switch winner {
	case scoring.SideA:
		match.WinnerID = match.SideAID
	case scoring.SideB:
		match.WinnerID = match.SideBID
	default:
		match.WinnerID = nil
	}

	if winner != scoring.SideNone {
		match.Status = models.MatchCompleted
		match.CurrentSet = len(sets)
	} else {
		match.Status = models.MatchLive
		match.CurrentSet = len(sets) + 1
	}
	if match.CurrentSet < 1 {
		match.CurrentSet = 1
	}

	if input.SubmitterRole == models.RoleOrganizer || input.SubmitterRole == models.RoleAdmin {
		match.ScoreStatus = models.ScoreConfirmed
	} else {
		match.ScoreStatus = models.ScorePending
	}

	err = runInTx(ctx, s.db, func(tx *sql.Tx) error {
		if err := s.matchRepo.UpdateScore(ctx, tx, match); err != nil {
			return err
		}

		if match.Status == models.MatchCompleted && match.WinnerID != nil &&
			match.NextMatchID != nil && match.NextMatchSlot != nil {
			if err := s.matchRepo.SetSlot(ctx, tx, *match.NextMatchID, *match.NextMatchSlot, *match.WinnerID); err != nil {
				return err
			}
		}

		if match.ResourceID != nil {
			resourceStatus := models.ResourceInUse
			if match.Status == models.MatchCompleted {
				resourceStatus = models.ResourceAvailable
			}
			if err := s.resourceRepo.UpdateStatus(ctx, tx, *match.ResourceID, resourceStatus); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	outcome = metrics.OutcomeAccepted
	s.logger.Debug("score submitted",
		slog.String("match_id", match.ID),
		slog.String("session_id", input.SessionID),
		slog.Int("sets", len(sets)),
		slog.String("status", string(match.Status)))

	s.broadcastMatch(competition.TournamentID, match)
	return match, nil
}

// ConfirmScore moves a pending refereed score to confirmed. Only the score
// status changes; the set list stays as submitted.
func (s *scoreService) ConfirmScore(ctx context.Context, matchID string) (*models.Match, error) {
	match, err := s.loadMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}

	if match.ScoreStatus != models.ScorePending {
		return nil, ErrScoreNotPending
	}

	competition, err := s.loadCompetition(ctx, match.CompetitionID)
	if err != nil {
		return nil, err
	}

	match.ScoreStatus = models.ScoreConfirmed
	if err := s.matchRepo.UpdateScore(ctx, nil, match); err != nil {
		return nil, err
	}

	s.broadcastMatch(competition.TournamentID, match)
	return match, nil
}

func (s *scoreService) loadMatch(ctx context.Context, matchID string) (*models.Match, error) {
	match, err := s.matchRepo.GetByID(ctx, matchID)
	if err != nil {
		if errors.Is(err, repositories.ErrMatchNotFound) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to load match: %w", err)
	}
	return match, nil
}

func (s *scoreService) loadCompetition(ctx context.Context, competitionID string) (*models.Competition, error) {
	competition, err := s.competitionRepo.GetByID(ctx, competitionID)
	if err != nil {
		if errors.Is(err, repositories.ErrCompetitionNotFound) {
			return nil, ErrCompetitionNotFound
		}
		return nil, fmt.Errorf("failed to load competition: %w", err)
	}
	return competition, nil
}

func (s *scoreService) checkLock(ctx context.Context, match *models.Match, sessionID string) error {
	_, err := s.locks.Check(ctx, match.LockResourceID(), sessionID)
	if err == nil {
		return nil
	}
	if errors.Is(err, scorelock.ErrLockExpired) {
		return err
	}
	if errors.Is(err, scorelock.ErrLockNotHeld) {
		return ErrScoringLockRequired
	}
	return fmt.Errorf("failed to check scoring lock: %w", err)
}

// validateSets rejects the whole submission before anything is written, so a
// bad set never lands partially.
func validateSets(rules models.ScoringRules, match *models.Match, sets []models.SetScore) ([]models.SetScore, error) {
	if match.SideAID == nil || match.SideBID == nil {
		return nil, ErrMatchSidesUnset
	}
	if maxSets := scoring.MaxSets(rules); len(sets) > maxSets {
		return nil, fmt.Errorf("%w: got %d, match is best of %d", ErrTooManySets, len(sets), maxSets)
	}

	normalized := make([]models.SetScore, len(sets))
	for i, set := range sets {
		if set.SideA < 0 || set.SideB < 0 {
			return nil, fmt.Errorf("%w: set %d has score %d-%d", ErrNegativeSetScore, i+1, set.SideA, set.SideB)
		}
		normalized[i] = models.SetScore{
			SetNumber: i + 1,
			SideA:     set.SideA,
			SideB:     set.SideB,
		}
	}
	return normalized, nil
}

func (s *scoreService) broadcastMatch(tournamentID string, match *models.Match) {
	if s.hub == nil {
		return
	}
	s.hub.BroadcastEvent(tournamentID, live.EventMatchUpdated, match)
}
