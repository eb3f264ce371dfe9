package aggregation

import (
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
	"go.vocdoni.io/analytics/types"
)

func TestComputeOverview(t *testing.T) {
	c := qt.New(t)
	first := testElection()
	second := testElection()
	second.ElectionID = 2
	second.Name = "municipal"
	second.Candidates = []string{"Dario", "Elena"}
	second.StartTime = testNow.Add(time.Hour).Unix()
	second.EndTime = testNow.Add(2 * time.Hour).Unix()

	users := types.Users{
		"a": {Province: "Azua"},
		"b": {Province: "Azua"},
		"c": {Province: "Santiago"},
		"d": {Province: "Santiago"},
	}
	results := map[int]types.ResultsMap{
		1: {"Ana": 1, "Bruno": 2},
	}
	overview := ComputeOverview([]*types.Election{first, second}, results, users, testNow)
	c.Assert(overview.TotalElections, qt.Equals, 2)
	c.Assert(overview.TotalVotes, qt.Equals, uint64(3))
	c.Assert(overview.RegisteredUsers, qt.Equals, 4)
	c.Assert(overview.ParticipationRate, qt.Equals, 75.0)
	c.Assert(overview.ByStatus, qt.DeepEquals, map[types.ElectionStatus]int{
		types.StatusActive:   1,
		types.StatusUpcoming: 1,
	})
	c.Assert(overview.Leaders, qt.DeepEquals, []types.ElectionLeader{
		{ElectionID: 1, Name: "presidential", Status: types.StatusActive, Leader: "Bruno", Votes: 2},
		{ElectionID: 2, Name: "municipal", Status: types.StatusUpcoming, Leader: "Dario"},
	})

	empty := ComputeOverview(nil, nil, nil, testNow)
	c.Assert(empty.TotalElections, qt.Equals, 0)
	c.Assert(empty.ParticipationRate, qt.Equals, 0.0)
	c.Assert(empty.Leaders, qt.HasLen, 0)
}

func TestMeasureTurnout(t *testing.T) {
	c := qt.New(t)
	users := types.Users{
		"a": {Province: "Azua"},
		"b": {Province: "Azua"},
		"c": {Province: "Santiago"},
		"d": {},
	}
	turnout := MeasureTurnout(7, users, map[string]bool{"a": true, "c": true, "d": true, "x": true})
	c.Assert(turnout.ElectionID, qt.Equals, 7)
	c.Assert(turnout.Voters, qt.Equals, 3)
	c.Assert(turnout.Registered, qt.Equals, 4)
	c.Assert(turnout.Rate, qt.Equals, 75.0)
	c.Assert(turnout.Provinces, qt.DeepEquals, []types.ProvinceStat{
		{Name: "Azua", Votes: 1, Registered: 2, ParticipationRate: 50},
		{Name: "Santiago", Votes: 1, Registered: 1, ParticipationRate: 100},
	})

	none := MeasureTurnout(7, nil, nil)
	c.Assert(none.Rate, qt.Equals, 0.0)
	c.Assert(none.Provinces, qt.HasLen, 0)
}
