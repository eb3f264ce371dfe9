package aggregation

import "go.vocdoni.io/analytics/types"

// AgeDistribution is a fixed placeholder distribution of voters by age band.
// User records carry no age, so it is not derived from any data.
var AgeDistribution = []types.AgeBand{
	{Band: "18-25", Percentage: 22},
	{Band: "26-35", Percentage: 28},
	{Band: "36-45", Percentage: 25},
	{Band: "46-55", Percentage: 15},
	{Band: "56+", Percentage: 10},
}

// DemographicBreakdown returns a copy of AgeDistribution. The users argument
// is accepted for when real stratification becomes possible and is ignored.
func DemographicBreakdown(users types.Users) []types.AgeBand {
	bands := make([]types.AgeBand, len(AgeDistribution))
	copy(bands, AgeDistribution)
	return bands
}
