package models

import "time"

// ControlDesk is the organizer's operational view: what can start, what is
// on a table right now, what just finished.
type ControlDesk struct {
	Tournament      *Tournament `json:"tournament"`
	Resources       []Resource  `json:"resources"`
	PendingMatches  []Match     `json:"pending_matches"`
	LiveMatches     []Match     `json:"live_matches"`
	RecentCompleted []Match     `json:"recent_completed"`
}

// BoardResource pairs a table with whatever is being played on it.
type BoardResource struct {
	Resource Resource `json:"resource"`
	Match    *Match   `json:"match,omitempty"`
}

// PublicBoard is the unauthenticated venue display. It is served live and
// also published as a JSON snapshot for static hosting.
type PublicBoard struct {
	Tournament    *Tournament                `json:"tournament"`
	Resources     []BoardResource            `json:"resources"`
	RecentResults []Match                    `json:"recent_results"`
	Standings     map[string][]GroupStanding `json:"standings,omitempty"`
	GeneratedAt   time.Time                  `json:"generated_at"`
}

// LeaderboardEntry is derived from completed matches on read; nothing is
// incremented in place, so resubmitting a score never double-counts.
type LeaderboardEntry struct {
	ParticipantID   string `json:"participant_id"`
	ParticipantName string `json:"participant_name,omitempty"`
	MatchesPlayed   int    `json:"matches_played"`
	Wins            int    `json:"wins"`
	Losses          int    `json:"losses"`
}

type TournamentStats struct {
	PlayersTotal      int `json:"players_total"`
	TeamsTotal        int `json:"teams_total"`
	CompetitionsTotal int `json:"competitions_total"`
	MatchesTotal      int `json:"matches_total"`
	MatchesCompleted  int `json:"matches_completed"`
	MatchesLive       int `json:"matches_live"`
}
