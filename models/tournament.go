package models

import "time"

// TournamentStatus mirrors the ENUM in the database.
type TournamentStatus string

const (
	TournamentDraft        TournamentStatus = "draft"
	TournamentRegistration TournamentStatus = "registration"
	TournamentInProgress   TournamentStatus = "in_progress"
	TournamentCompleted    TournamentStatus = "completed"
)

// Tournament is the top-level event container. Formats, scoring rules and
// participants live on its competitions.
type Tournament struct {
	ID          string           `json:"id" db:"id"`
	Name        string           `json:"name" db:"name"`
	Sport       string           `json:"sport" db:"sport"`
	Venue       *string          `json:"venue,omitempty" db:"venue"`
	Description *string          `json:"description,omitempty" db:"description"`
	OrganizerID string           `json:"organizer_id" db:"organizer_id"`
	StartDate   time.Time        `json:"start_date" db:"start_date"`
	EndDate     *time.Time       `json:"end_date,omitempty" db:"end_date"`
	Status      TournamentStatus `json:"status" db:"status"`
	CreatedAt   time.Time        `json:"created_at" db:"created_at"`

	// Populated on detail reads, not mapped directly.
	Competitions []Competition `json:"competitions,omitempty" db:"-"`
}
