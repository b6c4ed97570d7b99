package models

import "time"

type CompetitionFormat string

const (
	FormatSingleElimination CompetitionFormat = "single_elimination"
	FormatRoundRobin        CompetitionFormat = "round_robin"
	FormatGroupsKnockout    CompetitionFormat = "groups_knockout"
)

type CompetitionStatus string

const (
	CompetitionSetup      CompetitionStatus = "setup"
	CompetitionInProgress CompetitionStatus = "in_progress"
	CompetitionCompleted  CompetitionStatus = "completed"
)

// ScoringRules define how sets and matches are won. PointsMustWinBy keeps
// deuce sets (10:10 in table tennis) open until the margin is reached.
type ScoringRules struct {
	SetsToWin       int `json:"sets_to_win" db:"sets_to_win"`
	PointsToWinSet  int `json:"points_to_win_set" db:"points_to_win_set"`
	PointsMustWinBy int `json:"points_must_win_by" db:"points_must_win_by"`
}

// DefaultScoringRules are the table-tennis defaults: best of five,
// eleven points, win by two.
func DefaultScoringRules() ScoringRules {
	return ScoringRules{SetsToWin: 3, PointsToWinSet: 11, PointsMustWinBy: 2}
}

// Competition is a single bracket or group event inside a tournament.
// ParticipantIDs reference players (singles) or teams (doubles).
type Competition struct {
	ID              string            `json:"id" db:"id"`
	TournamentID    string            `json:"tournament_id" db:"tournament_id"`
	Name            string            `json:"name" db:"name"`
	Format          CompetitionFormat `json:"format" db:"format"`
	MatchType       string            `json:"match_type" db:"match_type"`
	Status          CompetitionStatus `json:"status" db:"status"`
	Rules           ScoringRules      `json:"rules"`
	NumGroups       int               `json:"num_groups" db:"num_groups"`
	AdvancePerGroup int               `json:"advance_per_group" db:"advance_per_group"`
	ParticipantIDs  []string          `json:"participant_ids" db:"participant_ids"`
	CreatedAt       time.Time         `json:"created_at" db:"created_at"`
}
