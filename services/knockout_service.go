package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/rallydesk/rallydesk/draw"
	"github.com/rallydesk/rallydesk/live"
	"github.com/rallydesk/rallydesk/metrics"
	"github.com/rallydesk/rallydesk/models"
	"github.com/rallydesk/rallydesk/repositories"
	"github.com/rallydesk/rallydesk/scoring"
)

// KnockoutRound is one elimination round with its display name resolved
// against the bracket as it currently stands.
type KnockoutRound struct {
	RoundNumber int            `json:"round_number"`
	Name        string         `json:"name"`
	Matches     []models.Match `json:"matches"`
}

type KnockoutService interface {
	GenerateKnockout(ctx context.Context, competitionID string) ([]models.Match, error)
	ListKnockoutRounds(ctx context.Context, competitionID string) ([]KnockoutRound, error)
}

type knockoutService struct {
	db              *sql.DB
	competitionRepo repositories.CompetitionRepository
	matchRepo       repositories.MatchRepository
	hub             *live.Hub
	logger          *slog.Logger
}

func NewKnockoutService(
	db *sql.DB,
	competitionRepo repositories.CompetitionRepository,
	matchRepo repositories.MatchRepository,
	hub *live.Hub,
	logger *slog.Logger,
) KnockoutService {
	return &knockoutService{
		db:              db,
		competitionRepo: competitionRepo,
		matchRepo:       matchRepo,
		hub:             hub,
		logger:          logger,
	}
}

// GenerateKnockout seeds the elimination bracket from the final group tables.
// It refuses to run twice and refuses to run while any group match is still
// open, so the bracket can only ever come from a settled group stage.
func (s *knockoutService) GenerateKnockout(ctx context.Context, competitionID string) ([]models.Match, error) {
	competition, err := s.competitionRepo.GetByID(ctx, competitionID)
	if err != nil {
		if errors.Is(err, repositories.ErrCompetitionNotFound) {
			return nil, ErrCompetitionNotFound
		}
		return nil, fmt.Errorf("failed to load competition: %w", err)
	}

	matches, err := s.matchRepo.ListByCompetition(ctx, competitionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load matches: %w", err)
	}

	if scoring.KnockoutGenerated(matches) {
		return nil, ErrKnockoutAlreadyGenerated
	}
	if !scoring.GroupStageComplete(matches) {
		return nil, ErrGroupStageIncomplete
	}

	tables := scoring.ComputeStandings(matches, competition.ParticipantIDs, competition.AdvancePerGroup)

	groupNumbers := make([]int, 0, len(tables))
	for g := range tables {
		groupNumbers = append(groupNumbers, g)
	}
	sort.Ints(groupNumbers)

	qualifiers := make([][]string, 0, len(tables))
	for _, g := range groupNumbers {
		rows := tables[g]
		qualified := make([]string, 0, competition.AdvancePerGroup)
		for _, row := range rows {
			if row.Qualified {
				qualified = append(qualified, row.ParticipantID)
			}
		}
		qualifiers = append(qualifiers, qualified)
	}

	generated, err := draw.KnockoutFromQualifiers(competitionID, qualifiers)
	if err != nil {
		if errors.Is(err, draw.ErrNotEnoughParticipants) {
			return nil, fmt.Errorf("%w: %v", ErrNotEnoughParticipants, err)
		}
		return nil, fmt.Errorf("failed to build knockout bracket: %w", err)
	}

	created := make([]models.Match, len(generated))
	for i, m := range generated {
		created[i] = *m
	}

	err = runInTx(ctx, s.db, func(tx *sql.Tx) error {
		return s.matchRepo.CreateBatch(ctx, tx, created)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to store knockout bracket: %w", err)
	}

	metrics.KnockoutGenerationsTotal.Inc()
	s.logger.Info("knockout bracket generated",
		slog.String("competition_id", competitionID),
		slog.Int("matches", len(created)),
		slog.Int("groups", len(qualifiers)))

	if s.hub != nil {
		s.hub.BroadcastEvent(competition.TournamentID, live.EventBracketUpdated, created)
	}
	return created, nil
}

// ListKnockoutRounds returns the bracket grouped by round. Round names are
// derived from the set of rounds present at call time, so "Final" moves as the
// bracket grows and never sticks to a stale label.
func (s *knockoutService) ListKnockoutRounds(ctx context.Context, competitionID string) ([]KnockoutRound, error) {
	matches, err := s.matchRepo.ListKnockout(ctx, competitionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load knockout matches: %w", err)
	}

	rounds := scoring.KnockoutRounds(matches)
	byRound := make(map[int][]models.Match, len(rounds))
	for _, m := range matches {
		byRound[m.RoundNumber] = append(byRound[m.RoundNumber], m)
	}

	result := make([]KnockoutRound, 0, len(rounds))
	for _, round := range rounds {
		result = append(result, KnockoutRound{
			RoundNumber: round,
			Name:        scoring.NameRound(round, rounds),
			Matches:     byRound[round],
		})
	}
	return result, nil
}
