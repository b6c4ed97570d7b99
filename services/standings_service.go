package services

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/rallydesk/rallydesk/models"
	"github.com/rallydesk/rallydesk/repositories"
	"github.com/rallydesk/rallydesk/scoring"
)

// GroupStandings is one group's table, ready for rendering.
type GroupStandings struct {
	GroupNumber int                    `json:"group_number"`
	Standings   []models.GroupStanding `json:"standings"`
}

type StandingsService interface {
	GetStandings(ctx context.Context, competitionID string) ([]GroupStandings, error)
	Leaderboard(ctx context.Context, tournamentID string) ([]models.LeaderboardEntry, error)
}

type standingsService struct {
	competitionRepo repositories.CompetitionRepository
	matchRepo       repositories.MatchRepository
	playerRepo      repositories.PlayerRepository
	teamRepo        repositories.TeamRepository
}

func NewStandingsService(
	competitionRepo repositories.CompetitionRepository,
	matchRepo repositories.MatchRepository,
	playerRepo repositories.PlayerRepository,
	teamRepo repositories.TeamRepository,
) StandingsService {
	return &standingsService{
		competitionRepo: competitionRepo,
		matchRepo:       matchRepo,
		playerRepo:      playerRepo,
		teamRepo:        teamRepo,
	}
}

// GetStandings recomputes the group tables from stored matches on every call.
// Nothing is cached or incremented, so a corrected score is reflected on the
// next read with no cleanup.
func (s *standingsService) GetStandings(ctx context.Context, competitionID string) ([]GroupStandings, error) {
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

	tables := scoring.ComputeStandings(matches, competition.ParticipantIDs, competition.AdvancePerGroup)

	names, err := participantNames(ctx, s.playerRepo, s.teamRepo, competition.ParticipantIDs)
	if err != nil {
		return nil, err
	}

	groups := make([]GroupStandings, 0, len(tables))
	for groupNumber, rows := range tables {
		for i := range rows {
			rows[i].ParticipantName = names[rows[i].ParticipantID]
		}
		groups = append(groups, GroupStandings{GroupNumber: groupNumber, Standings: rows})
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].GroupNumber < groups[j].GroupNumber })

	return groups, nil
}

// Leaderboard aggregates win/loss records across every competition of a
// tournament, counting only completed matches.
func (s *standingsService) Leaderboard(ctx context.Context, tournamentID string) ([]models.LeaderboardEntry, error) {
	competitions, err := s.competitionRepo.ListByTournament(ctx, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load competitions: %w", err)
	}

	type record struct {
		played int
		wins   int
		losses int
	}
	records := make(map[string]*record)
	order := make([]string, 0)

	recordFor := func(id string) *record {
		if r, ok := records[id]; ok {
			return r
		}
		r := &record{}
		records[id] = r
		order = append(order, id)
		return r
	}

	allIDs := make([]string, 0)
	for _, competition := range competitions {
		matches, err := s.matchRepo.ListByCompetition(ctx, competition.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to load matches for competition %s: %w", competition.ID, err)
		}
		allIDs = append(allIDs, competition.ParticipantIDs...)

		for _, m := range matches {
			if m.Status != models.MatchCompleted || m.WinnerID == nil {
				continue
			}
			if m.SideAID == nil || m.SideBID == nil {
				continue
			}
			a := recordFor(*m.SideAID)
			b := recordFor(*m.SideBID)
			a.played++
			b.played++
			if *m.WinnerID == *m.SideAID {
				a.wins++
				b.losses++
			} else if *m.WinnerID == *m.SideBID {
				b.wins++
				a.losses++
			}
		}
	}

	names, err := participantNames(ctx, s.playerRepo, s.teamRepo, allIDs)
	if err != nil {
		return nil, err
	}

	entries := make([]models.LeaderboardEntry, 0, len(order))
	for _, id := range order {
		r := records[id]
		entries = append(entries, models.LeaderboardEntry{
			ParticipantID:   id,
			ParticipantName: names[id],
			MatchesPlayed:   r.played,
			Wins:            r.wins,
			Losses:          r.losses,
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Wins != entries[j].Wins {
			return entries[i].Wins > entries[j].Wins
		}
		return entries[i].Losses < entries[j].Losses
	})
	return entries, nil
}
