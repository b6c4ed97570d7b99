package models

// GroupStanding is one row of a group table, recomputed from completed
// matches on every read. Sets are tallied by comparing raw set points,
// points are raw rally points; both columns are kept even where they
// disagree with the rulebook's view of a set.
type GroupStanding struct {
	ParticipantID string `json:"participant_id"`
	GroupNumber   int    `json:"group_number"`
	Played        int    `json:"played"`
	Wins          int    `json:"wins"`
	Losses        int    `json:"losses"`
	SetsFor       int    `json:"sets_for"`
	SetsAgainst   int    `json:"sets_against"`
	PointsFor     int    `json:"points_for"`
	PointsAgainst int    `json:"points_against"`
	Qualified     bool   `json:"qualified"`

	// Optional display name, populated by the service layer.
	ParticipantName string `json:"participant_name,omitempty"`
}

// PointDiff is the secondary ranking key.
func (s *GroupStanding) PointDiff() int {
	return s.PointsFor - s.PointsAgainst
}
