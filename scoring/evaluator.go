// Package scoring holds the pure rulebook of the system: set and match
// evaluation, group standings and knockout round naming. Nothing here
// touches storage or the clock; services feed it data and act on the result.
package scoring

import (
	"github.com/rallydesk/rallydesk/models"
)

// Side identifies a side of a match independent of participant identity.
type Side int

const (
	SideNone Side = iota
	SideA
	SideB
)

func (s Side) String() string {
	switch s {
	case SideA:
		return "A"
	case SideB:
		return "B"
	default:
		return "none"
	}
}

// SetWinner decides a single set under the given rules. A set is won by the
// side that has at least PointsToWinSet points and leads by at least
// PointsMustWinBy; anything else (including a deuce at 11:10 under win-by-2)
// is still undecided and reports SideNone.
func SetWinner(rules models.ScoringRules, set models.SetScore) Side {
	if set.SideA >= rules.PointsToWinSet && set.SideA-set.SideB >= rules.PointsMustWinBy {
		return SideA
	}
	if set.SideB >= rules.PointsToWinSet && set.SideB-set.SideA >= rules.PointsMustWinBy {
		return SideB
	}
	return SideNone
}

// EvaluateMatch applies the rules to the submitted sets and reports the
// match winner, if any, together with the number of sets each side has won.
// Undecided sets contribute to neither tally. The winner is the side that
// reached SetsToWin; with a full set list both sides cannot reach it.
func EvaluateMatch(rules models.ScoringRules, scores []models.SetScore) (winner Side, setsA, setsB int) {
	for _, set := range scores {
		switch SetWinner(rules, set) {
		case SideA:
			setsA++
		case SideB:
			setsB++
		}
	}

	if setsA >= rules.SetsToWin {
		return SideA, setsA, setsB
	}
	if setsB >= rules.SetsToWin {
		return SideB, setsA, setsB
	}
	return SideNone, setsA, setsB
}

// MaxSets is the longest a match can run under the rules (best of N).
func MaxSets(rules models.ScoringRules) int {
	return 2*rules.SetsToWin - 1
}
