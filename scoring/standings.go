package scoring

import (
	"sort"

	"github.com/rallydesk/rallydesk/models"
)

// DefaultAdvancePerGroup is used when a competition does not configure how
// many participants leave each group.
const DefaultAdvancePerGroup = 2

// ComputeStandings rebuilds the group tables from the given matches.
// Only group-stage matches count (rounds below models.KnockoutRoundBase);
// knockout results never feed back into the tables. When roster is
// non-empty it restricts the tables to those participant IDs.
//
// Every participant that appears in a group match gets a row, zeroed until
// results arrive. Completed matches add one played to both sides and a
// win/loss according to winner_id. Set columns go to the side with the
// higher raw score in each set, and point columns accumulate raw points.
// A raw set tally can therefore disagree with the rulebook's set count
// (an unfinished 11:10 deuce set counts here but wins nothing in
// EvaluateMatch); both views are kept on purpose.
//
// Rows are ordered by wins, then point difference. Participants tied on
// both keys stay in first-appearance order; there is no further
// head-to-head break. The top advancePerGroup rows of each group are
// flagged qualified. Flags are recomputed on every call and never stored.
func ComputeStandings(matches []models.Match, roster []string, advancePerGroup int) map[int][]models.GroupStanding {
	if advancePerGroup <= 0 {
		advancePerGroup = DefaultAdvancePerGroup
	}

	allowed := make(map[string]bool, len(roster))
	for _, id := range roster {
		allowed[id] = true
	}
	included := func(id string) bool {
		return len(roster) == 0 || allowed[id]
	}

	// Per group: rows indexed by participant, plus first-appearance order.
	type groupTable struct {
		rows  map[string]*models.GroupStanding
		order []string
	}
	groups := make(map[int]*groupTable)
	groupOrder := make([]int, 0)

	rowFor := func(groupNumber int, participantID string) *models.GroupStanding {
		table, ok := groups[groupNumber]
		if !ok {
			table = &groupTable{rows: make(map[string]*models.GroupStanding)}
			groups[groupNumber] = table
			groupOrder = append(groupOrder, groupNumber)
		}
		row, ok := table.rows[participantID]
		if !ok {
			row = &models.GroupStanding{ParticipantID: participantID, GroupNumber: groupNumber}
			table.rows[participantID] = row
			table.order = append(table.order, participantID)
		}
		return row
	}

	for i := range matches {
		m := &matches[i]
		if m.IsKnockout() || m.GroupNumber == nil {
			continue
		}
		if m.SideAID == nil || m.SideBID == nil {
			continue
		}
		aID, bID := *m.SideAID, *m.SideBID
		if !included(aID) || !included(bID) {
			continue
		}

		group := *m.GroupNumber
		rowA := rowFor(group, aID)
		rowB := rowFor(group, bID)

		if m.Status != models.MatchCompleted {
			continue
		}

		rowA.Played++
		rowB.Played++
		if m.WinnerID != nil {
			switch *m.WinnerID {
			case aID:
				rowA.Wins++
				rowB.Losses++
			case bID:
				rowB.Wins++
				rowA.Losses++
			}
		}

		for _, set := range m.Scores {
			rowA.PointsFor += set.SideA
			rowA.PointsAgainst += set.SideB
			rowB.PointsFor += set.SideB
			rowB.PointsAgainst += set.SideA

			if set.SideA > set.SideB {
				rowA.SetsFor++
				rowB.SetsAgainst++
			} else if set.SideB > set.SideA {
				rowB.SetsFor++
				rowA.SetsAgainst++
			}
		}
	}

	result := make(map[int][]models.GroupStanding, len(groups))
	for _, groupNumber := range groupOrder {
		table := groups[groupNumber]
		rows := make([]models.GroupStanding, 0, len(table.order))
		for _, id := range table.order {
			rows = append(rows, *table.rows[id])
		}

		sort.SliceStable(rows, func(i, j int) bool {
			if rows[i].Wins != rows[j].Wins {
				return rows[i].Wins > rows[j].Wins
			}
			return rows[i].PointDiff() > rows[j].PointDiff()
		})

		for i := range rows {
			rows[i].Qualified = i < advancePerGroup
		}
		result[groupNumber] = rows
	}
	return result
}
