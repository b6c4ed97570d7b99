package models

import "time"

type Player struct {
	ID           string    `json:"id" db:"id"`
	TournamentID string    `json:"tournament_id" db:"tournament_id"`
	FirstName    string    `json:"first_name" db:"first_name"`
	LastName     string    `json:"last_name" db:"last_name"`
	Email        *string   `json:"email,omitempty" db:"email"`
	Phone        *string   `json:"phone,omitempty" db:"phone"`
	Gender       *string   `json:"gender,omitempty" db:"gender"`
	SkillLevel   string    `json:"skill_level" db:"skill_level"`
	Sport        string    `json:"sport" db:"sport"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

func (p *Player) DisplayName() string {
	if p.LastName == "" {
		return p.FirstName
	}
	return p.FirstName + " " + p.LastName
}
