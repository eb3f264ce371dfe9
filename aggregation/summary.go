package aggregation

import (
	"sort"
	"time"

	"go.vocdoni.io/analytics/types"
)

// candidateOrder returns the declared candidates followed by any candidate
// present in results but not declared, the latter sorted by name.
func candidateOrder(election *types.Election, results types.ResultsMap) []string {
	declared := make(map[string]struct{}, len(election.Candidates))
	order := make([]string, 0, len(election.Candidates))
	for _, c := range election.Candidates {
		if _, dup := declared[c]; dup {
			continue
		}
		declared[c] = struct{}{}
		order = append(order, c)
	}
	var extra []string
	for c := range results {
		if _, ok := declared[c]; !ok {
			extra = append(extra, c)
		}
	}
	sort.Strings(extra)
	return append(order, extra...)
}

// ComputeElectionSummary tallies the results of a single election.
//
// The leader is the first candidate, in declaration order, holding the
// highest vote count. With no votes at all it is the first declared
// candidate.
func ComputeElectionSummary(election *types.Election, results types.ResultsMap,
	now time.Time) types.ElectionSummary {
	total := results.Total()
	summary := types.ElectionSummary{
		ElectionID:   election.ElectionID,
		Name:         election.Name,
		Status:       election.Status(now),
		TotalVotes:   total,
		PerCandidate: []types.CandidateResult{},
	}
	var top uint64
	for i, c := range candidateOrder(election, results) {
		votes := results[c]
		summary.PerCandidate = append(summary.PerCandidate, types.CandidateResult{
			Name:       c,
			Votes:      votes,
			Percentage: percent(float64(votes), float64(total)),
		})
		if i == 0 || votes > top {
			top = votes
			summary.Leader = c
		}
	}
	return summary
}

// RankCandidates orders the candidates of an election by votes. Ties keep
// declaration order. Ranks start at 1.
func RankCandidates(election *types.Election, results types.ResultsMap) []types.CandidateResult {
	ranking := ComputeElectionSummary(election, results, time.Time{}).PerCandidate
	sort.SliceStable(ranking, func(i, j int) bool {
		return ranking[i].Votes > ranking[j].Votes
	})
	for i := range ranking {
		ranking[i].Rank = i + 1
	}
	return ranking
}

// FilterByStatus returns the elections whose status at now equals status
func FilterByStatus(elections []*types.Election, status types.ElectionStatus,
	now time.Time) []*types.Election {
	filtered := []*types.Election{}
	for _, e := range elections {
		if e.Status(now) == status {
			filtered = append(filtered, e)
		}
	}
	return filtered
}
