package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"

	"github.com/google/uuid"
	"github.com/rallydesk/rallydesk/draw"
	"github.com/rallydesk/rallydesk/live"
	"github.com/rallydesk/rallydesk/models"
	"github.com/rallydesk/rallydesk/repositories"
)

type CreateCompetitionInput struct {
	TournamentID    string              `json:"tournament_id"`
	Name            string              `json:"name"`
	Format          string              `json:"format"`
	MatchType       string              `json:"match_type"`
	Rules           models.ScoringRules `json:"rules"`
	NumGroups       int                 `json:"num_groups"`
	AdvancePerGroup int                 `json:"advance_per_group"`
}

type CompetitionService interface {
	Create(ctx context.Context, input CreateCompetitionInput) (*models.Competition, error)
	GetByID(ctx context.Context, id string) (*models.Competition, error)
	ListByTournament(ctx context.Context, tournamentID string) ([]models.Competition, error)
	AddParticipants(ctx context.Context, competitionID string, participantIDs []string) (*models.Competition, error)
	GenerateDraw(ctx context.Context, competitionID string) ([]models.Match, error)
	ListMatches(ctx context.Context, competitionID string, groupNumber *int) ([]models.Match, error)
	Delete(ctx context.Context, id string) error
}

type competitionService struct {
	db              *sql.DB
	competitionRepo repositories.CompetitionRepository
	tournamentRepo  repositories.TournamentRepository
	matchRepo       repositories.MatchRepository
	playerRepo      repositories.PlayerRepository
	teamRepo        repositories.TeamRepository
	hub             *live.Hub
	logger          *slog.Logger
}

func NewCompetitionService(
	db *sql.DB,
	competitionRepo repositories.CompetitionRepository,
	tournamentRepo repositories.TournamentRepository,
	matchRepo repositories.MatchRepository,
	playerRepo repositories.PlayerRepository,
	teamRepo repositories.TeamRepository,
	hub *live.Hub,
	logger *slog.Logger,
) CompetitionService {
	return &competitionService{
		db:              db,
		competitionRepo: competitionRepo,
		tournamentRepo:  tournamentRepo,
		matchRepo:       matchRepo,
		playerRepo:      playerRepo,
		teamRepo:        teamRepo,
		hub:             hub,
		logger:          logger,
	}
}

func (s *competitionService) Create(ctx context.Context, input CreateCompetitionInput) (*models.Competition, error) {
	if input.Name == "" {
		return nil, fmt.Errorf("%w: competition name is required", ErrValidationFailed)
	}

	format := models.CompetitionFormat(input.Format)
	switch format {
	case models.FormatSingleElimination, models.FormatRoundRobin, models.FormatGroupsKnockout:
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, input.Format)
	}

	if _, err := s.tournamentRepo.GetByID(ctx, input.TournamentID); err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("failed to load tournament: %w", err)
	}

	rules := input.Rules
	if rules.SetsToWin <= 0 || rules.PointsToWinSet <= 0 || rules.PointsMustWinBy <= 0 {
		rules = models.DefaultScoringRules()
	}

	numGroups := input.NumGroups
	if format == models.FormatGroupsKnockout && numGroups < 2 {
		numGroups = 2
	}
	advance := input.AdvancePerGroup
	if advance <= 0 {
		advance = 2
	}

	matchType := input.MatchType
	if matchType == "" {
		matchType = "singles"
	}

	competition := &models.Competition{
		ID:              uuid.NewString(),
		TournamentID:    input.TournamentID,
		Name:            input.Name,
		Format:          format,
		MatchType:       matchType,
		Status:          models.CompetitionSetup,
		Rules:           rules,
		NumGroups:       numGroups,
		AdvancePerGroup: advance,
		ParticipantIDs:  []string{},
	}

	if err := s.competitionRepo.Create(ctx, competition); err != nil {
		if errors.Is(err, repositories.ErrCompetitionNameConflict) {
			return nil, ErrCompetitionNameConflict
		}
		return nil, fmt.Errorf("failed to create competition: %w", err)
	}
	return competition, nil
}

func (s *competitionService) GetByID(ctx context.Context, id string) (*models.Competition, error) {
	competition, err := s.competitionRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrCompetitionNotFound) {
			return nil, ErrCompetitionNotFound
		}
		return nil, fmt.Errorf("failed to load competition: %w", err)
	}
	return competition, nil
}

func (s *competitionService) ListByTournament(ctx context.Context, tournamentID string) ([]models.Competition, error) {
	return s.competitionRepo.ListByTournament(ctx, tournamentID)
}

// AddParticipants appends new entries to the competition, skipping any that
// are already in. Entries can only change before the draw is generated.
func (s *competitionService) AddParticipants(ctx context.Context, competitionID string, participantIDs []string) (*models.Competition, error) {
	competition, err := s.GetByID(ctx, competitionID)
	if err != nil {
		return nil, err
	}
	if competition.Status != models.CompetitionSetup {
		return nil, ErrDrawAlreadyGenerated
	}

	names, err := participantNames(ctx, s.playerRepo, s.teamRepo, participantIDs)
	if err != nil {
		return nil, err
	}
	for _, id := range participantIDs {
		if _, ok := names[id]; !ok {
			return nil, fmt.Errorf("%w: unknown participant %s", ErrValidationFailed, id)
		}
	}

	present := make(map[string]bool, len(competition.ParticipantIDs))
	for _, id := range competition.ParticipantIDs {
		present[id] = true
	}
	merged := competition.ParticipantIDs
	for _, id := range participantIDs {
		if !present[id] {
			merged = append(merged, id)
			present[id] = true
		}
	}

	if err := s.competitionRepo.SetParticipants(ctx, nil, competitionID, merged); err != nil {
		return nil, fmt.Errorf("failed to update participants: %w", err)
	}
	competition.ParticipantIDs = merged
	return competition, nil
}

// GenerateDraw builds and stores the opening matches for the competition's
// format and moves it to in_progress. Runs only from setup, which is what
// blocks an accidental second draw.
func (s *competitionService) GenerateDraw(ctx context.Context, competitionID string) ([]models.Match, error) {
	competition, err := s.GetByID(ctx, competitionID)
	if err != nil {
		return nil, err
	}
	if competition.Status != models.CompetitionSetup {
		return nil, ErrDrawAlreadyGenerated
	}
	if len(competition.ParticipantIDs) < 2 {
		return nil, ErrNotEnoughParticipants
	}

	entries := make([]string, len(competition.ParticipantIDs))
	copy(entries, competition.ParticipantIDs)
	rand.Shuffle(len(entries), func(i, j int) {
		entries[i], entries[j] = entries[j], entries[i]
	})

	var generated []*models.Match
	switch competition.Format {
	case models.FormatGroupsKnockout:
		generated, err = draw.GroupDraw(competitionID, entries, competition.NumGroups)
	case models.FormatRoundRobin:
		generated, err = draw.GroupDraw(competitionID, entries, 1)
	case models.FormatSingleElimination:
		generated, err = draw.SingleElimination(competitionID, entries, models.KnockoutRoundBase)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, competition.Format)
	}
	if err != nil {
		if errors.Is(err, draw.ErrNotEnoughParticipants) {
			return nil, ErrNotEnoughParticipants
		}
		return nil, fmt.Errorf("failed to generate draw: %w", err)
	}

	created := make([]models.Match, len(generated))
	for i, m := range generated {
		created[i] = *m
	}

	err = runInTx(ctx, s.db, func(tx *sql.Tx) error {
		if err := s.matchRepo.DeleteByCompetition(ctx, tx, competitionID); err != nil {
			return err
		}
		if err := s.matchRepo.CreateBatch(ctx, tx, created); err != nil {
			return err
		}
		return s.competitionRepo.UpdateStatus(ctx, tx, competitionID, models.CompetitionInProgress)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to store draw: %w", err)
	}

	s.logger.Info("draw generated",
		slog.String("competition_id", competitionID),
		slog.String("format", string(competition.Format)),
		slog.Int("entries", len(entries)),
		slog.Int("matches", len(created)))

	if s.hub != nil {
		s.hub.BroadcastEvent(competition.TournamentID, live.EventBracketUpdated, created)
	}
	return created, nil
}

func (s *competitionService) ListMatches(ctx context.Context, competitionID string, groupNumber *int) ([]models.Match, error) {
	if _, err := s.GetByID(ctx, competitionID); err != nil {
		return nil, err
	}
	if groupNumber != nil {
		return s.matchRepo.ListByGroup(ctx, competitionID, *groupNumber)
	}
	return s.matchRepo.ListByCompetition(ctx, competitionID)
}

func (s *competitionService) Delete(ctx context.Context, id string) error {
	err := runInTx(ctx, s.db, func(tx *sql.Tx) error {
		if err := s.matchRepo.DeleteByCompetition(ctx, tx, id); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return err
	}
	if err := s.competitionRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repositories.ErrCompetitionNotFound) {
			return ErrCompetitionNotFound
		}
		return fmt.Errorf("failed to delete competition: %w", err)
	}
	return nil
}
