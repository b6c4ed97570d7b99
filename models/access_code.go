package models

import "time"

// AccessCode grants referee scoring rights for one competition. Codes are
// short human-typable strings handed out at the venue; validating one
// yields a scoring token, never a full user session.
type AccessCode struct {
	ID            string     `json:"id" db:"id"`
	CompetitionID string     `json:"competition_id" db:"competition_id"`
	Code          string     `json:"code" db:"code"`
	Label         *string    `json:"label,omitempty" db:"label"`
	Revoked       bool       `json:"revoked" db:"revoked"`
	ExpiresAt     *time.Time `json:"expires_at,omitempty" db:"expires_at"`
	CreatedAt     time.Time  `json:"created_at" db:"created_at"`
}

// Usable reports whether the code can still be exchanged for a scoring token.
func (c *AccessCode) Usable(now time.Time) bool {
	if c.Revoked {
		return false
	}
	if c.ExpiresAt != nil && !now.Before(*c.ExpiresAt) {
		return false
	}
	return true
}
