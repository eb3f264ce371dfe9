package testapi

import (
	"testing"

	qt "github.com/frankban/quicktest"
)

func TestTurnout(t *testing.T) {
	t.Parallel()
	c := qt.New(t)

	Fail(t, "/priv/elections/1/turnout", "", "GET")
	Fail(t, "/priv/elections/1/turnout", "wrong", "GET")

	resp := Get(t, "/priv/elections/1/turnout", API.AuthToken, "GET")
	c.Assert(resp.Turnout.Voters, qt.Equals, 50)
	c.Assert(resp.Turnout.Registered, qt.Equals, 100)
	c.Assert(resp.Turnout.Rate, qt.Equals, 50.0)
	c.Assert(resp.Turnout.Provinces, qt.HasLen, 4)
	c.Assert(resp.Turnout.Provinces[0].Name, qt.Equals, "Azua")
	c.Assert(resp.Turnout.Provinces[1].Name, qt.Equals, "Barahona")
	c.Assert(resp.Turnout.Provinces[2].Votes, qt.Equals, uint64(0))
}

func TestSnapshots(t *testing.T) {
	t.Parallel()
	c := qt.New(t)

	Fail(t, "/priv/elections/2/snapshots", "", "POST")

	resp := Get(t, "/priv/elections/2/snapshots", API.AuthToken, "POST")
	c.Assert(resp.Snapshot, qt.IsNotNil)
	c.Assert(resp.Snapshot.ElectionID, qt.Equals, 2)
	c.Assert(resp.Snapshot.Leader, qt.Equals, "Dario")
	c.Assert(resp.Snapshot.TotalVotes, qt.Equals, int64(20))
	c.Assert(resp.Snapshot.RegisteredUsers, qt.Equals, 100)
	snapshotID := resp.Snapshot.ID.String()

	resp = Get(t, "/priv/snapshots/"+snapshotID, API.AuthToken, "GET")
	c.Assert(resp.Snapshot.ID.String(), qt.Equals, snapshotID)
	c.Assert([]string(resp.Snapshot.Candidates), qt.DeepEquals, []string{"Dario", "Eva"})
	Fail(t, "/priv/snapshots/not-an-uuid", API.AuthToken, "GET")

	resp = Get(t, "/priv/snapshots", API.AuthToken, "POST")
	c.Assert(resp.Message, qt.Equals, "3 snapshots stored")

	resp = Get(t, "/priv/elections/2/snapshots?order=asc", API.AuthToken, "GET")
	c.Assert(resp.Snapshots, qt.HasLen, 2)
	c.Assert(resp.Snapshots[0].ID.String(), qt.Equals, snapshotID)
	Fail(t, "/priv/elections/2/snapshots?order=sideways", API.AuthToken, "GET")

	resp = Get(t, "/priv/elections/2/snapshots", API.AuthToken, "DELETE")
	c.Assert(*resp.Removed, qt.Equals, 2)
	resp = Get(t, "/priv/elections/2/snapshots", API.AuthToken, "GET")
	c.Assert(resp.Snapshots, qt.HasLen, 0)
}
