package scoring

import (
	"fmt"
	"sort"

	"github.com/rallydesk/rallydesk/models"
)

// GroupStageComplete reports whether the group phase has finished: at least
// one group match exists and none of them is still open. A competition with
// no group matches at all has nothing to complete.
func GroupStageComplete(matches []models.Match) bool {
	seen := false
	for i := range matches {
		if matches[i].IsKnockout() {
			continue
		}
		seen = true
		if matches[i].Status != models.MatchCompleted {
			return false
		}
	}
	return seen
}

// KnockoutGenerated reports whether any elimination match exists yet. The
// round numbering itself is the marker; no separate flag is stored.
func KnockoutGenerated(matches []models.Match) bool {
	for i := range matches {
		if matches[i].IsKnockout() {
			return true
		}
	}
	return false
}

// KnockoutRounds returns the distinct elimination round numbers in
// ascending order.
func KnockoutRounds(matches []models.Match) []int {
	seen := make(map[int]bool)
	rounds := make([]int, 0)
	for i := range matches {
		if !matches[i].IsKnockout() {
			continue
		}
		r := matches[i].RoundNumber
		if !seen[r] {
			seen[r] = true
			rounds = append(rounds, r)
		}
	}
	sort.Ints(rounds)
	return rounds
}

// NameRound maps an elimination round number to its display name, given
// every elimination round the competition currently has. Names count from
// the end: the last round is the Final, the one before it the Semi-Final,
// then the Quarter-Final; earlier rounds fall back to "Round N". Names are
// derived on each call so a growing bracket renames earlier rounds
// (a lone round 100 is the Final until round 101 appears).
func NameRound(roundNumber int, knockoutRounds []int) string {
	distinct := make([]int, 0, len(knockoutRounds))
	seen := make(map[int]bool, len(knockoutRounds))
	for _, r := range knockoutRounds {
		if !seen[r] {
			seen[r] = true
			distinct = append(distinct, r)
		}
	}
	sort.Ints(distinct)

	index := -1
	for i, r := range distinct {
		if r == roundNumber {
			index = i
			break
		}
	}
	if index < 0 {
		return fmt.Sprintf("Round %d", roundNumber-models.KnockoutRoundBase+1)
	}

	switch len(distinct) - index {
	case 1:
		return "Final"
	case 2:
		return "Semi-Final"
	case 3:
		return "Quarter-Final"
	default:
		return fmt.Sprintf("Round %d", index+1)
	}
}
