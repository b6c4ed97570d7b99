package models

import "time"

// Team is a doubles pairing (or larger squad) drawn from registered players.
type Team struct {
	ID           string    `json:"id" db:"id"`
	TournamentID string    `json:"tournament_id" db:"tournament_id"`
	Name         string    `json:"name" db:"name"`
	Sport        string    `json:"sport" db:"sport"`
	PlayerIDs    []string  `json:"player_ids" db:"player_ids"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`

	Players []Player `json:"players,omitempty" db:"-"`
}
