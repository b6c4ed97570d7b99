package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/rallydesk/rallydesk/models"
	"github.com/rallydesk/rallydesk/repositories"
)

type CreateTournamentInput struct {
	Name        string     `json:"name"`
	Sport       string     `json:"sport"`
	Venue       *string    `json:"venue,omitempty"`
	Description *string    `json:"description,omitempty"`
	StartDate   time.Time  `json:"start_date"`
	EndDate     *time.Time `json:"end_date,omitempty"`
}

type TournamentService interface {
	Create(ctx context.Context, organizerID string, input CreateTournamentInput) (*models.Tournament, error)
	GetByID(ctx context.Context, id string) (*models.Tournament, error)
	List(ctx context.Context, filter repositories.ListTournamentsFilter) ([]models.Tournament, error)
	UpdateStatus(ctx context.Context, id string, status models.TournamentStatus) (*models.Tournament, error)
	Delete(ctx context.Context, id string) error
	AutoUpdateTournamentStatusesByDates(ctx context.Context) error
}

type tournamentService struct {
	tournamentRepo  repositories.TournamentRepository
	competitionRepo repositories.CompetitionRepository
	logger          *slog.Logger
}

func NewTournamentService(
	tournamentRepo repositories.TournamentRepository,
	competitionRepo repositories.CompetitionRepository,
	logger *slog.Logger,
) TournamentService {
	return &tournamentService{
		tournamentRepo:  tournamentRepo,
		competitionRepo: competitionRepo,
		logger:          logger,
	}
}

func (s *tournamentService) Create(ctx context.Context, organizerID string, input CreateTournamentInput) (*models.Tournament, error) {
	if input.Name == "" {
		return nil, fmt.Errorf("%w: tournament name is required", ErrValidationFailed)
	}
	if input.Sport == "" {
		return nil, fmt.Errorf("%w: sport is required", ErrValidationFailed)
	}
	if err := validateTournamentDates(input.StartDate, input.EndDate); err != nil {
		return nil, err
	}

	tournament := &models.Tournament{
		ID:          uuid.NewString(),
		Name:        input.Name,
		Sport:       input.Sport,
		Venue:       input.Venue,
		Description: input.Description,
		OrganizerID: organizerID,
		StartDate:   input.StartDate,
		EndDate:     input.EndDate,
		Status:      models.TournamentDraft,
	}

	if err := s.tournamentRepo.Create(ctx, tournament); err != nil {
		if errors.Is(err, repositories.ErrTournamentNameConflict) {
			return nil, ErrTournamentNameConflict
		}
		return nil, fmt.Errorf("failed to create tournament: %w", err)
	}
	return tournament, nil
}

func (s *tournamentService) GetByID(ctx context.Context, id string) (*models.Tournament, error) {
	tournament, err := s.tournamentRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("failed to load tournament: %w", err)
	}

	competitions, err := s.competitionRepo.ListByTournament(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load competitions: %w", err)
	}
	tournament.Competitions = competitions

	return tournament, nil
}

func (s *tournamentService) List(ctx context.Context, filter repositories.ListTournamentsFilter) ([]models.Tournament, error) {
	return s.tournamentRepo.List(ctx, filter)
}

func (s *tournamentService) UpdateStatus(ctx context.Context, id string, status models.TournamentStatus) (*models.Tournament, error) {
	tournament, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !isValidTournamentTransition(tournament.Status, status) {
		return nil, fmt.Errorf("%w: cannot move tournament from %s to %s",
			ErrValidationFailed, tournament.Status, status)
	}

	if err := s.tournamentRepo.UpdateStatus(ctx, nil, id, status); err != nil {
		return nil, fmt.Errorf("failed to update tournament status: %w", err)
	}
	tournament.Status = status
	return tournament, nil
}

func (s *tournamentService) Delete(ctx context.Context, id string) error {
	err := s.tournamentRepo.Delete(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return ErrTournamentNotFound
		}
		return fmt.Errorf("failed to delete tournament: %w", err)
	}
	return nil
}

// AutoUpdateTournamentStatusesByDates moves tournaments across status
// boundaries their dates have passed: into in_progress once the start date
// hits, into completed once the end date does. Called by the scheduler.
func (s *tournamentService) AutoUpdateTournamentStatusesByDates(ctx context.Context) error {
	now := time.Now()
	candidates, err := s.tournamentRepo.GetTournamentsForAutoStatusUpdate(ctx, nil, now)
	if err != nil {
		return fmt.Errorf("failed to find tournaments for status update: %w", err)
	}

	var failed int
	for _, t := range candidates {
		var target models.TournamentStatus
		switch {
		case t.Status != models.TournamentInProgress && !t.StartDate.After(now):
			target = models.TournamentInProgress
		case t.Status == models.TournamentInProgress && t.EndDate != nil && !t.EndDate.After(now):
			target = models.TournamentCompleted
		default:
			continue
		}

		if err := s.tournamentRepo.UpdateStatus(ctx, nil, t.ID, target); err != nil {
			failed++
			s.logger.ErrorContext(ctx, "failed to auto-update tournament status",
				slog.String("tournament_id", t.ID),
				slog.String("target_status", string(target)),
				slog.Any("error", err))
			continue
		}
		s.logger.InfoContext(ctx, "tournament status auto-updated",
			slog.String("tournament_id", t.ID),
			slog.String("from", string(t.Status)),
			slog.String("to", string(target)))
	}

	if failed > 0 {
		return fmt.Errorf("failed to update %d of %d tournaments", failed, len(candidates))
	}
	return nil
}
