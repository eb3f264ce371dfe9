package aggregation

import "go.vocdoni.io/analytics/types"

// MeasureTurnout computes the turnout of an election from the has-voted
// flags of its registered users. Unlike AggregateProvinceStats the per
// province votes are actual voter counts, not a proportional estimate.
func MeasureTurnout(electionID int, users types.Users, voted map[string]bool) types.Turnout {
	turnout := types.Turnout{
		ElectionID: electionID,
		Registered: len(users),
		Provinces:  []types.ProvinceStat{},
	}
	voters := make(map[string]uint64)
	for id, u := range users {
		if !voted[id] {
			continue
		}
		turnout.Voters++
		if u.Province != "" {
			voters[u.Province]++
		}
	}
	for name, count := range registeredByProvince(users) {
		turnout.Provinces = append(turnout.Provinces, types.ProvinceStat{
			Name:              name,
			Votes:             voters[name],
			Registered:        count,
			ParticipationRate: percent(float64(voters[name]), float64(count)),
		})
	}
	sortProvinceStats(turnout.Provinces)
	turnout.Rate = percent(float64(turnout.Voters), float64(turnout.Registered))
	return turnout
}
