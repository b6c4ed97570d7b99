package draw

import (
	"math"

	"github.com/google/uuid"

	"github.com/rallydesk/rallydesk/models"
)

// SingleElimination lays a linked bracket over the entries in the order
// given, padding with byes up to the next power of two. The first `byes`
// entries get the free passes, so put the strongest seeds first. Bye
// matches complete on the spot and their winner is pre-filled into the
// following round. Rounds are numbered from baseRound upward.
func SingleElimination(competitionID string, entries []string, baseRound int) ([]*models.Match, error) {
	n := len(entries)
	if n < 2 {
		return nil, ErrNotEnoughParticipants
	}

	numRounds := int(math.Ceil(math.Log2(float64(n))))
	size := 1 << uint(numRounds)
	byes := size - n

	// Interleave byes behind the top seeds; the remaining entries pair
	// among themselves, so two byes never meet.
	slots := make([]string, 0, size)
	idx := 0
	for b := 0; b < byes; b++ {
		slots = append(slots, entries[idx], "")
		idx++
	}
	slots = append(slots, entries[idx:]...)

	matches := make([]*models.Match, 0, size-1)
	matchNumber := 1

	newMatch := func(round int, aID, bID *string) *models.Match {
		m := &models.Match{
			ID:            uuid.NewString(),
			CompetitionID: competitionID,
			RoundNumber:   round,
			MatchNumber:   matchNumber,
			SideAID:       aID,
			SideBID:       bID,
			Status:        models.MatchScheduled,
			ScoreStatus:   models.ScorePending,
			Scores:        []models.SetScore{},
			CurrentSet:    1,
		}
		matchNumber++
		return m
	}

	sideOf := func(slot string) *string {
		if slot == "" {
			return nil
		}
		s := slot
		return &s
	}

	currentRound := make([]*models.Match, 0, size/2)
	for i := 0; i < len(slots); i += 2 {
		m := newMatch(baseRound, sideOf(slots[i]), sideOf(slots[i+1]))
		// A bye completes immediately; the score list stays empty.
		if m.SideAID != nil && m.SideBID == nil {
			m.WinnerID = m.SideAID
			m.Status = models.MatchCompleted
			m.ScoreStatus = models.ScoreConfirmed
		} else if m.SideBID != nil && m.SideAID == nil {
			m.WinnerID = m.SideBID
			m.Status = models.MatchCompleted
			m.ScoreStatus = models.ScoreConfirmed
		}
		matches = append(matches, m)
		currentRound = append(currentRound, m)
	}

	for r := 1; r < numRounds; r++ {
		nextRound := make([]*models.Match, 0, len(currentRound)/2)
		for i := 0; i < len(currentRound); i += 2 {
			m := newMatch(baseRound+r, nil, nil)

			feedA, feedB := currentRound[i], currentRound[i+1]
			slotA, slotB := 1, 2
			feedA.NextMatchID = &m.ID
			feedA.NextMatchSlot = &slotA
			feedB.NextMatchID = &m.ID
			feedB.NextMatchSlot = &slotB

			// Bye winners advance into the new match right away.
			if feedA.WinnerID != nil {
				m.SideAID = feedA.WinnerID
			}
			if feedB.WinnerID != nil {
				m.SideBID = feedB.WinnerID
			}

			matches = append(matches, m)
			nextRound = append(nextRound, m)
		}
		currentRound = nextRound
	}

	return matches, nil
}

// KnockoutFromQualifiers seeds the elimination bracket from the group
// tables: qualifiers[g] lists group g's advancing participants best first.
// With the standard two-per-group from an even number of groups, adjacent
// groups cross (A1 vs B2, B1 vs A2); other shapes fall back to a rank
// interleave so group winners still spread across the bracket.
func KnockoutFromQualifiers(competitionID string, qualifiers [][]string) ([]*models.Match, error) {
	entries := seedQualifiers(qualifiers)
	if len(entries) < 2 {
		return nil, ErrNotEnoughParticipants
	}
	return SingleElimination(competitionID, entries, models.KnockoutRoundBase)
}

func seedQualifiers(qualifiers [][]string) []string {
	crossable := len(qualifiers) >= 2 && len(qualifiers)%2 == 0
	for _, q := range qualifiers {
		if len(q) != 2 {
			crossable = false
			break
		}
	}

	entries := make([]string, 0)
	if crossable {
		for g := 0; g+1 < len(qualifiers); g += 2 {
			a, b := qualifiers[g], qualifiers[g+1]
			entries = append(entries, a[0], b[1], b[0], a[1])
		}
		return entries
	}

	maxRank := 0
	for _, q := range qualifiers {
		if len(q) > maxRank {
			maxRank = len(q)
		}
	}
	for rank := 0; rank < maxRank; rank++ {
		for g := range qualifiers {
			// Alternate group direction per rank so top seeds drift apart.
			idx := g
			if rank%2 == 1 {
				idx = len(qualifiers) - 1 - g
			}
			if rank < len(qualifiers[idx]) {
				entries = append(entries, qualifiers[idx][rank])
			}
		}
	}
	return entries
}
