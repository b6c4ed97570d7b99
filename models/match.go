package models

import "time"

type MatchStatus string

const (
	MatchScheduled MatchStatus = "scheduled"
	MatchLive      MatchStatus = "live"
	MatchCompleted MatchStatus = "completed"
)

// ScoreStatus tracks who entered the score: referee submissions stay
// pending until an organizer confirms them.
type ScoreStatus string

const (
	ScorePending   ScoreStatus = "pending"
	ScoreConfirmed ScoreStatus = "confirmed"
)

// KnockoutRoundBase splits the round numbering: group-stage rounds stay
// below it, elimination rounds count up from it.
const KnockoutRoundBase = 100

// SetScore is one completed or in-progress set. Raw points only; whether
// the set is decided is derived from the competition's scoring rules.
type SetScore struct {
	SetNumber int `json:"set_number"`
	SideA     int `json:"participant1_score"`
	SideB     int `json:"participant2_score"`
}

type Match struct {
	ID            string      `json:"id" db:"id"`
	CompetitionID string      `json:"competition_id" db:"competition_id"`
	RoundNumber   int         `json:"round_number" db:"round_number"`
	MatchNumber   int         `json:"match_number" db:"match_number"`
	GroupNumber   *int        `json:"group_number,omitempty" db:"group_number"`
	SideAID       *string     `json:"participant1_id,omitempty" db:"participant1_id"`
	SideBID       *string     `json:"participant2_id,omitempty" db:"participant2_id"`
	WinnerID      *string     `json:"winner_id,omitempty" db:"winner_id"`
	ResourceID    *string     `json:"resource_id,omitempty" db:"resource_id"`
	ScheduledAt   *time.Time  `json:"scheduled_time,omitempty" db:"scheduled_time"`
	Status        MatchStatus `json:"status" db:"status"`
	ScoreStatus   ScoreStatus `json:"score_status" db:"score_status"`
	Scores        []SetScore  `json:"scores" db:"scores"`
	CurrentSet    int         `json:"current_set" db:"current_set"`
	NextMatchID   *string     `json:"next_match_id,omitempty" db:"next_match_id"`
	NextMatchSlot *int        `json:"next_match_slot,omitempty" db:"next_match_slot"`
	CreatedAt     time.Time   `json:"created_at" db:"created_at"`
}

// IsKnockout reports whether the match belongs to the elimination phase.
func (m *Match) IsKnockout() bool {
	return m.RoundNumber >= KnockoutRoundBase
}

// LockResourceID is the key under which scoring sessions serialize writes
// to this match.
func (m *Match) LockResourceID() string {
	return "match:" + m.ID
}
