// Package draw generates match plans: group-stage round robins and linked
// single-elimination brackets. Generators are pure; they build match
// structures and leave persistence, shuffling and scheduling to services.
package draw

import (
	"errors"

	"github.com/google/uuid"

	"github.com/rallydesk/rallydesk/models"
)

var ErrNotEnoughParticipants = errors.New("not enough participants for a draw")

// GroupDraw partitions the participants over numGroups and schedules a
// round robin inside each group: every pair meets once, nobody plays twice
// in the same round. Group rounds are numbered from 1 and always stay
// below models.KnockoutRoundBase. Participants are taken in the order
// given; callers shuffle beforehand if they want a random draw.
func GroupDraw(competitionID string, participantIDs []string, numGroups int) ([]*models.Match, error) {
	if len(participantIDs) < 2 {
		return nil, ErrNotEnoughParticipants
	}
	if numGroups < 1 {
		numGroups = 1
	}
	// Every group needs at least two members to produce matches.
	if max := len(participantIDs) / 2; numGroups > max {
		numGroups = max
	}

	groups := make([][]string, numGroups)
	for i, id := range participantIDs {
		groups[i%numGroups] = append(groups[i%numGroups], id)
	}

	matches := make([]*models.Match, 0)
	matchNumber := 1
	for g, members := range groups {
		groupNumber := g + 1
		for roundIdx, pairs := range roundRobinRounds(members) {
			for _, pair := range pairs {
				a, b := pair[0], pair[1]
				matches = append(matches, &models.Match{
					ID:            uuid.NewString(),
					CompetitionID: competitionID,
					RoundNumber:   roundIdx + 1,
					MatchNumber:   matchNumber,
					GroupNumber:   &groupNumber,
					SideAID:       &a,
					SideBID:       &b,
					Status:        models.MatchScheduled,
					ScoreStatus:   models.ScorePending,
					Scores:        []models.SetScore{},
					CurrentSet:    1,
				})
				matchNumber++
			}
		}
	}
	return matches, nil
}

// roundRobinRounds is the classic rotation schedule: one participant stays
// fixed, the rest rotate one position per round. An odd field gets a
// phantom slot whose pairings are dropped, which is how byes fall out.
func roundRobinRounds(ids []string) [][][2]string {
	arr := make([]string, len(ids))
	copy(arr, ids)
	if len(arr)%2 == 1 {
		arr = append(arr, "")
	}

	n := len(arr)
	rounds := make([][][2]string, 0, n-1)
	for r := 0; r < n-1; r++ {
		pairs := make([][2]string, 0, n/2)
		for i := 0; i < n/2; i++ {
			a, b := arr[i], arr[n-1-i]
			if a == "" || b == "" {
				continue
			}
			pairs = append(pairs, [2]string{a, b})
		}
		rounds = append(rounds, pairs)

		rotated := make([]string, n)
		rotated[0] = arr[0]
		rotated[1] = arr[n-1]
		copy(rotated[2:], arr[1:n-1])
		arr = rotated
	}
	return rounds
}
