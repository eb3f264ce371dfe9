package aggregation

import (
	"sort"

	"go.vocdoni.io/analytics/types"
)

// CombineResults merges the candidate totals of several elections into a
// single results map.
func CombineResults(results ...types.ResultsMap) types.ResultsMap {
	combined := make(types.ResultsMap)
	for _, r := range results {
		for candidate, votes := range r {
			combined[candidate] += votes
		}
	}
	return combined
}

// registeredByProvince counts the users of each province. Users without a
// province are left out.
func registeredByProvince(users types.Users) map[string]int {
	registered := make(map[string]int)
	for _, u := range users {
		if u.Province == "" {
			continue
		}
		registered[u.Province]++
	}
	return registered
}

// AggregateProvinceStats distributes the votes of combinedResults among the
// provinces proportionally to the number of users registered in each one.
//
// Only provinces with at least one registered user are returned, ordered by
// votes (descending) and then by name. The sum of the returned votes matches
// the total up to one vote of rounding error per province, and is lower when
// some users have no province, since they still count towards the total
// number of users.
func AggregateProvinceStats(users types.Users, combinedResults types.ResultsMap) []types.ProvinceStat {
	registered := registeredByProvince(users)
	totalVotes := combinedResults.Total()
	totalUsers := len(users)

	stats := make([]types.ProvinceStat, 0, len(registered))
	for name, count := range registered {
		votes := share(count, totalUsers, totalVotes)
		stats = append(stats, types.ProvinceStat{
			Name:              name,
			Votes:             votes,
			Registered:        count,
			ParticipationRate: percent(float64(votes), float64(count)),
		})
	}
	sortProvinceStats(stats)
	return stats
}

func sortProvinceStats(stats []types.ProvinceStat) {
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].Votes != stats[j].Votes {
			return stats[i].Votes > stats[j].Votes
		}
		return stats[i].Name < stats[j].Name
	})
}

// MissingProvinces returns, in canonical order, the fixed provinces that do
// not appear in stats.
func MissingProvinces(stats []types.ProvinceStat) []string {
	present := make(map[string]struct{}, len(stats))
	for _, s := range stats {
		present[s.Name] = struct{}{}
	}
	missing := []string{}
	for _, p := range types.Provinces {
		if _, ok := present[p]; !ok {
			missing = append(missing, p)
		}
	}
	return missing
}
