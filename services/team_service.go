package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rallydesk/rallydesk/models"
	"github.com/rallydesk/rallydesk/repositories"
)

type CreateTeamInput struct {
	TournamentID string   `json:"tournament_id"`
	Name         string   `json:"name"`
	Sport        string   `json:"sport"`
	PlayerIDs    []string `json:"player_ids"`
}

type TeamService interface {
	Create(ctx context.Context, input CreateTeamInput) (*models.Team, error)
	GetByID(ctx context.Context, id string) (*models.Team, error)
	ListByTournament(ctx context.Context, tournamentID string) ([]models.Team, error)
	SetPlayers(ctx context.Context, id string, playerIDs []string) (*models.Team, error)
	Delete(ctx context.Context, id string) error
}

type teamService struct {
	teamRepo   repositories.TeamRepository
	playerRepo repositories.PlayerRepository
}

func NewTeamService(teamRepo repositories.TeamRepository, playerRepo repositories.PlayerRepository) TeamService {
	return &teamService{
		teamRepo:   teamRepo,
		playerRepo: playerRepo,
	}
}

func (s *teamService) Create(ctx context.Context, input CreateTeamInput) (*models.Team, error) {
	if input.Name == "" {
		return nil, fmt.Errorf("%w: team name is required", ErrValidationFailed)
	}
	if err := s.checkPlayersExist(ctx, input.PlayerIDs); err != nil {
		return nil, err
	}

	team := &models.Team{
		ID:           uuid.NewString(),
		TournamentID: input.TournamentID,
		Name:         input.Name,
		Sport:        input.Sport,
		PlayerIDs:    input.PlayerIDs,
	}
	if team.PlayerIDs == nil {
		team.PlayerIDs = []string{}
	}

	if err := s.teamRepo.Create(ctx, team); err != nil {
		switch {
		case errors.Is(err, repositories.ErrTeamNameConflict):
			return nil, ErrTeamNameConflict
		case errors.Is(err, repositories.ErrTeamInvalidTournament):
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("failed to create team: %w", err)
	}
	return team, nil
}

// GetByID loads the team along with its member players.
func (s *teamService) GetByID(ctx context.Context, id string) (*models.Team, error) {
	team, err := s.teamRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("failed to load team: %w", err)
	}

	players, err := s.playerRepo.ListByIDs(ctx, team.PlayerIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load team players: %w", err)
	}
	team.Players = players

	return team, nil
}

func (s *teamService) ListByTournament(ctx context.Context, tournamentID string) ([]models.Team, error) {
	return s.teamRepo.ListByTournament(ctx, tournamentID)
}

func (s *teamService) SetPlayers(ctx context.Context, id string, playerIDs []string) (*models.Team, error) {
	if err := s.checkPlayersExist(ctx, playerIDs); err != nil {
		return nil, err
	}

	if err := s.teamRepo.SetPlayers(ctx, id, playerIDs); err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("failed to update team players: %w", err)
	}
	return s.GetByID(ctx, id)
}

func (s *teamService) Delete(ctx context.Context, id string) error {
	err := s.teamRepo.Delete(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return ErrTeamNotFound
		}
		return fmt.Errorf("failed to delete team: %w", err)
	}
	return nil
}

func (s *teamService) checkPlayersExist(ctx context.Context, playerIDs []string) error {
	if len(playerIDs) == 0 {
		return nil
	}
	players, err := s.playerRepo.ListByIDs(ctx, playerIDs)
	if err != nil {
		return fmt.Errorf("failed to verify players: %w", err)
	}
	if len(players) != len(playerIDs) {
		return fmt.Errorf("%w: one or more players do not exist", ErrValidationFailed)
	}
	return nil
}
