package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/rallydesk/rallydesk/live"
	"github.com/rallydesk/rallydesk/models"
	"github.com/rallydesk/rallydesk/repositories"
	"golang.org/x/sync/errgroup"
)

const recentResultsLimit = 10

type BoardService interface {
	ControlDesk(ctx context.Context, tournamentID string) (*models.ControlDesk, error)
	PublicBoard(ctx context.Context, tournamentID string) (*models.PublicBoard, error)
	Stats(ctx context.Context, tournamentID string) (*models.TournamentStats, error)
	AssignResource(ctx context.Context, matchID string, resourceID *string) (*models.Match, error)
}

type boardService struct {
	db              *sql.DB
	tournamentRepo  repositories.TournamentRepository
	competitionRepo repositories.CompetitionRepository
	matchRepo       repositories.MatchRepository
	resourceRepo    repositories.ResourceRepository
	playerRepo      repositories.PlayerRepository
	teamRepo        repositories.TeamRepository
	standings       StandingsService
	hub             *live.Hub
	logger          *slog.Logger
}

func NewBoardService(
	db *sql.DB,
	tournamentRepo repositories.TournamentRepository,
	competitionRepo repositories.CompetitionRepository,
	matchRepo repositories.MatchRepository,
	resourceRepo repositories.ResourceRepository,
	playerRepo repositories.PlayerRepository,
	teamRepo repositories.TeamRepository,
	standings StandingsService,
	hub *live.Hub,
	logger *slog.Logger,
) BoardService {
	return &boardService{
		db:              db,
		tournamentRepo:  tournamentRepo,
		competitionRepo: competitionRepo,
		matchRepo:       matchRepo,
		resourceRepo:    resourceRepo,
		playerRepo:      playerRepo,
		teamRepo:        teamRepo,
		standings:       standings,
		hub:             hub,
		logger:          logger,
	}
}

// ControlDesk assembles the organizer's live operations view: every resource,
// what is waiting, what is on, and what just finished.
func (s *boardService) ControlDesk(ctx context.Context, tournamentID string) (*models.ControlDesk, error) {
	desk := &models.ControlDesk{}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		tournament, err := s.loadTournament(gCtx, tournamentID)
		if err != nil {
			return err
		}
		desk.Tournament = tournament
		return nil
	})
	g.Go(func() error {
		resources, err := s.resourceRepo.ListByTournament(gCtx, tournamentID)
		if err != nil {
			return fmt.Errorf("failed to load resources: %w", err)
		}
		desk.Resources = resources
		return nil
	})
	g.Go(func() error {
		pending, err := s.matchRepo.ListPendingByTournament(gCtx, tournamentID)
		if err != nil {
			return fmt.Errorf("failed to load pending matches: %w", err)
		}
		desk.PendingMatches = pending
		return nil
	})
	g.Go(func() error {
		liveMatches, err := s.matchRepo.ListLiveByTournament(gCtx, tournamentID)
		if err != nil {
			return fmt.Errorf("failed to load live matches: %w", err)
		}
		desk.LiveMatches = liveMatches
		return nil
	})
	g.Go(func() error {
		recent, err := s.matchRepo.ListRecentCompleted(gCtx, tournamentID, recentResultsLimit)
		if err != nil {
			return fmt.Errorf("failed to load recent results: %w", err)
		}
		desk.RecentCompleted = recent
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return desk, nil
}

// PublicBoard assembles the spectator view: courts with whatever is being
// played on them, the latest results, and the current group tables of every
// competition that has groups.
func (s *boardService) PublicBoard(ctx context.Context, tournamentID string) (*models.PublicBoard, error) {
	board := &models.PublicBoard{
		Standings: make(map[string][]models.GroupStanding),
	}

	var (
		resources   []models.Resource
		liveMatches []models.Match
	)

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		tournament, err := s.loadTournament(gCtx, tournamentID)
		if err != nil {
			return err
		}
		board.Tournament = tournament
		return nil
	})
	g.Go(func() error {
		var err error
		resources, err = s.resourceRepo.ListByTournament(gCtx, tournamentID)
		if err != nil {
			return fmt.Errorf("failed to load resources: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		liveMatches, err = s.matchRepo.ListLiveByTournament(gCtx, tournamentID)
		if err != nil {
			return fmt.Errorf("failed to load live matches: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		recent, err := s.matchRepo.ListRecentCompleted(gCtx, tournamentID, recentResultsLimit)
		if err != nil {
			return fmt.Errorf("failed to load recent results: %w", err)
		}
		board.RecentResults = recent
		return nil
	})
	g.Go(func() error {
		competitions, err := s.competitionRepo.ListByTournament(gCtx, tournamentID)
		if err != nil {
			return fmt.Errorf("failed to load competitions: %w", err)
		}
		for _, competition := range competitions {
			if competition.Format == models.FormatSingleElimination {
				continue
			}
			groups, err := s.standings.GetStandings(gCtx, competition.ID)
			if err != nil {
				return fmt.Errorf("failed to compute standings for %s: %w", competition.Name, err)
			}
			rows := make([]models.GroupStanding, 0)
			for _, group := range groups {
				rows = append(rows, group.Standings...)
			}
			board.Standings[competition.Name] = rows
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	byResource := make(map[string]*models.Match, len(liveMatches))
	for i := range liveMatches {
		if liveMatches[i].ResourceID != nil {
			byResource[*liveMatches[i].ResourceID] = &liveMatches[i]
		}
	}
	board.Resources = make([]models.BoardResource, 0, len(resources))
	for _, res := range resources {
		board.Resources = append(board.Resources, models.BoardResource{
			Resource: res,
			Match:    byResource[res.ID],
		})
	}

	board.GeneratedAt = time.Now().UTC()
	return board, nil
}

func (s *boardService) Stats(ctx context.Context, tournamentID string) (*models.TournamentStats, error) {
	stats := &models.TournamentStats{}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		count, err := s.playerRepo.CountByTournament(gCtx, tournamentID)
		if err != nil {
			return err
		}
		stats.PlayersTotal = count
		return nil
	})
	g.Go(func() error {
		count, err := s.teamRepo.CountByTournament(gCtx, tournamentID)
		if err != nil {
			return err
		}
		stats.TeamsTotal = count
		return nil
	})
	g.Go(func() error {
		count, err := s.competitionRepo.CountByTournament(gCtx, tournamentID)
		if err != nil {
			return err
		}
		stats.CompetitionsTotal = count
		return nil
	})
	g.Go(func() error {
		total, completed, liveCount, err := s.matchRepo.StatsByTournament(gCtx, tournamentID)
		if err != nil {
			return err
		}
		stats.MatchesTotal = total
		stats.MatchesCompleted = completed
		stats.MatchesLive = liveCount
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return stats, nil
}

// AssignResource sends a match to a court (or pulls it back off one). The
// match and the resource change together or not at all.
func (s *boardService) AssignResource(ctx context.Context, matchID string, resourceID *string) (*models.Match, error) {
	match, err := s.matchRepo.GetByID(ctx, matchID)
	if err != nil {
		if errors.Is(err, repositories.ErrMatchNotFound) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to load match: %w", err)
	}
	if match.Status == models.MatchCompleted {
		return nil, ErrMatchAlreadyFinal
	}

	var resource *models.Resource
	if resourceID != nil {
		resource, err = s.resourceRepo.GetByID(ctx, *resourceID)
		if err != nil {
			if errors.Is(err, repositories.ErrResourceNotFound) {
				return nil, ErrResourceNotFound
			}
			return nil, fmt.Errorf("failed to load resource: %w", err)
		}
		if resource.Status == models.ResourceInUse {
			return nil, ErrResourceBusy
		}
	}

	previousResourceID := match.ResourceID

	err = runInTx(ctx, s.db, func(tx *sql.Tx) error {
		if err := s.matchRepo.AssignResource(ctx, tx, matchID, resourceID); err != nil {
			return err
		}

		if previousResourceID != nil && (resourceID == nil || *previousResourceID != *resourceID) {
			if err := s.resourceRepo.UpdateStatus(ctx, tx, *previousResourceID, models.ResourceAvailable); err != nil {
				return err
			}
		}

		if resourceID != nil {
			if err := s.resourceRepo.UpdateStatus(ctx, tx, *resourceID, models.ResourceInUse); err != nil {
				return err
			}
			return s.matchRepo.UpdateStatus(ctx, tx, matchID, models.MatchLive)
		}
		return s.matchRepo.UpdateStatus(ctx, tx, matchID, models.MatchScheduled)
	})
	if err != nil {
		return nil, err
	}

	match, err = s.matchRepo.GetByID(ctx, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload match: %w", err)
	}

	if s.hub != nil {
		if competition, cErr := s.competitionRepo.GetByID(ctx, match.CompetitionID); cErr == nil {
			s.hub.BroadcastEvent(competition.TournamentID, live.EventMatchUpdated, match)
		}
	}
	return match, nil
}

func (s *boardService) loadTournament(ctx context.Context, tournamentID string) (*models.Tournament, error) {
	tournament, err := s.tournamentRepo.GetByID(ctx, tournamentID)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("failed to load tournament: %w", err)
	}
	return tournament, nil
}
