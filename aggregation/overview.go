package aggregation

import (
	"time"

	"go.vocdoni.io/analytics/types"
)

// ComputeOverview builds the dashboard totals over a set of elections.
// Elections without an entry in results count as having no votes.
func ComputeOverview(elections []*types.Election, results map[int]types.ResultsMap,
	users types.Users, now time.Time) types.Overview {
	overview := types.Overview{
		TotalElections:  len(elections),
		ByStatus:        map[types.ElectionStatus]int{},
		RegisteredUsers: len(users),
		Leaders:         []types.ElectionLeader{},
	}
	for _, e := range elections {
		summary := ComputeElectionSummary(e, results[e.ElectionID], now)
		overview.ByStatus[summary.Status]++
		overview.TotalVotes += summary.TotalVotes
		leader := types.ElectionLeader{
			ElectionID: e.ElectionID,
			Name:       e.Name,
			Status:     summary.Status,
			Leader:     summary.Leader,
		}
		for _, c := range summary.PerCandidate {
			if c.Name == summary.Leader {
				leader.Votes = c.Votes
				break
			}
		}
		overview.Leaders = append(overview.Leaders, leader)
	}
	overview.ParticipationRate = percent(float64(overview.TotalVotes), float64(len(users)))
	return overview
}
