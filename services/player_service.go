package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rallydesk/rallydesk/models"
	"github.com/rallydesk/rallydesk/repositories"
)

type CreatePlayerInput struct {
	FirstName  string  `json:"first_name"`
	LastName   string  `json:"last_name"`
	Email      *string `json:"email,omitempty"`
	Phone      *string `json:"phone,omitempty"`
	Gender     *string `json:"gender,omitempty"`
	SkillLevel string  `json:"skill_level"`
	Sport      string  `json:"sport"`
}

type PlayerService interface {
	Create(ctx context.Context, tournamentID string, input CreatePlayerInput) (*models.Player, error)
	BulkAdd(ctx context.Context, tournamentID string, inputs []CreatePlayerInput) ([]models.Player, error)
	GetByID(ctx context.Context, id string) (*models.Player, error)
	ListByTournament(ctx context.Context, tournamentID string) ([]models.Player, error)
	Delete(ctx context.Context, id string) error
}

type playerService struct {
	db         *sql.DB
	playerRepo repositories.PlayerRepository
}

func NewPlayerService(db *sql.DB, playerRepo repositories.PlayerRepository) PlayerService {
	return &playerService{
		db:         db,
		playerRepo: playerRepo,
	}
}

func (s *playerService) Create(ctx context.Context, tournamentID string, input CreatePlayerInput) (*models.Player, error) {
	player, err := buildPlayer(tournamentID, input)
	if err != nil {
		return nil, err
	}

	if err := s.playerRepo.Create(ctx, player); err != nil {
		if errors.Is(err, repositories.ErrPlayerInvalidTournament) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("failed to create player: %w", err)
	}
	return player, nil
}

// BulkAdd registers a whole list of players in one transaction. One bad entry
// rejects the whole list, so a desk never ends up with half a roster.
func (s *playerService) BulkAdd(ctx context.Context, tournamentID string, inputs []CreatePlayerInput) ([]models.Player, error) {
	if len(inputs) == 0 {
		return nil, fmt.Errorf("%w: no players to add", ErrValidationFailed)
	}

	players := make([]models.Player, 0, len(inputs))
	for i, input := range inputs {
		player, err := buildPlayer(tournamentID, input)
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i+1, err)
		}
		players = append(players, *player)
	}

	err := runInTx(ctx, s.db, func(tx *sql.Tx) error {
		return s.playerRepo.CreateBatch(ctx, tx, players)
	})
	if err != nil {
		if errors.Is(err, repositories.ErrPlayerInvalidTournament) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("failed to add players: %w", err)
	}
	return players, nil
}

func (s *playerService) GetByID(ctx context.Context, id string) (*models.Player, error) {
	player, err := s.playerRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrPlayerNotFound) {
			return nil, ErrPlayerNotFound
		}
		return nil, fmt.Errorf("failed to load player: %w", err)
	}
	return player, nil
}

func (s *playerService) ListByTournament(ctx context.Context, tournamentID string) ([]models.Player, error) {
	return s.playerRepo.ListByTournament(ctx, tournamentID)
}

func (s *playerService) Delete(ctx context.Context, id string) error {
	err := s.playerRepo.Delete(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrPlayerNotFound) {
			return ErrPlayerNotFound
		}
		return fmt.Errorf("failed to delete player: %w", err)
	}
	return nil
}

func buildPlayer(tournamentID string, input CreatePlayerInput) (*models.Player, error) {
	if input.FirstName == "" || input.LastName == "" {
		return nil, fmt.Errorf("%w: player first and last name are required", ErrValidationFailed)
	}
	return &models.Player{
		ID:           uuid.NewString(),
		TournamentID: tournamentID,
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		Email:        input.Email,
		Phone:        input.Phone,
		Gender:       input.Gender,
		SkillLevel:   input.SkillLevel,
		Sport:        input.Sport,
	}, nil
}
