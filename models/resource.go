package models

import "time"

type ResourceStatus string

const (
	ResourceAvailable   ResourceStatus = "available"
	ResourceInUse       ResourceStatus = "in_use"
	ResourceMaintenance ResourceStatus = "maintenance"
)

// Resource is a physical table or court matches get assigned to.
type Resource struct {
	ID           string         `json:"id" db:"id"`
	TournamentID string         `json:"tournament_id" db:"tournament_id"`
	Name         string         `json:"name" db:"name"`
	ResourceType string         `json:"resource_type" db:"resource_type"`
	Sport        string         `json:"sport" db:"sport"`
	Location     *string        `json:"location,omitempty" db:"location"`
	Status       ResourceStatus `json:"status" db:"status"`
	CreatedAt    time.Time      `json:"created_at" db:"created_at"`
}
