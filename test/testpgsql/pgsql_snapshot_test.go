package testpgsql

import (
	"errors"
	"math/rand"
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/google/uuid"
	"go.vocdoni.io/analytics/database"
	"go.vocdoni.io/analytics/test/testcommon"
	"go.vocdoni.io/analytics/types"
)

func TestSnapshot(t *testing.T) {
	t.Parallel()
	c := qt.New(t)
	electionID := 1000000 + rand.Intn(1000000)
	snapshot := testcommon.CreateSnapshots(electionID, 1)[0]

	id, err := API.DB.CreateSnapshot(&snapshot)
	c.Assert(err, qt.IsNil)
	c.Assert(id, qt.Not(qt.Equals), uuid.Nil)

	stored, err := API.DB.GetSnapshot(id)
	c.Assert(err, qt.IsNil)
	c.Assert(stored.ElectionID, qt.Equals, electionID)
	c.Assert(stored.Leader, qt.Equals, snapshot.Leader)
	c.Assert([]string(stored.Candidates), qt.DeepEquals, []string(snapshot.Candidates))
	c.Assert([]int64(stored.Votes), qt.DeepEquals, []int64(snapshot.Votes))
	c.Assert(stored.CreatedAt.Equal(snapshot.CreatedAt), qt.IsTrue)

	// mismatched candidates and votes are rejected
	broken := testcommon.CreateSnapshots(electionID, 1)[0]
	broken.Votes = broken.Votes[:1]
	_, err = API.DB.CreateSnapshot(&broken)
	c.Assert(err, qt.IsNotNil)

	removed, err := API.DB.DeleteSnapshots(electionID)
	c.Assert(err, qt.IsNil)
	c.Assert(removed, qt.Equals, 1)
	_, err = API.DB.GetSnapshot(id)
	c.Assert(errors.Is(err, database.ErrSnapshotNotFound), qt.IsTrue)
}

func TestSnapshotList(t *testing.T) {
	t.Parallel()
	c := qt.New(t)
	electionID := 2000000 + rand.Intn(1000000)
	snapshots := testcommon.CreateSnapshots(electionID, 25)

	n, err := API.DB.CreateSnapshots(snapshots)
	c.Assert(err, qt.IsNil)
	c.Assert(n, qt.Equals, 25)

	count, err := API.DB.CountSnapshots(electionID)
	c.Assert(err, qt.IsNil)
	c.Assert(count, qt.Equals, 25)

	// newest first by default
	list, err := API.DB.ListSnapshots(electionID, &types.ListOptions{Count: 10})
	c.Assert(err, qt.IsNil)
	c.Assert(list, qt.HasLen, 10)
	c.Assert(list[0].ID, qt.Equals, snapshots[24].ID)

	list, err = API.DB.ListSnapshots(electionID, &types.ListOptions{Count: 10, Skip: 20, Order: "asc"})
	c.Assert(err, qt.IsNil)
	c.Assert(list, qt.HasLen, 5)
	c.Assert(list[0].ID, qt.Equals, snapshots[20].ID)

	list, err = API.DB.ListSnapshots(electionID+1, nil)
	c.Assert(err, qt.IsNil)
	c.Assert(list, qt.HasLen, 0)

	removed, err := API.DB.DeleteSnapshots(electionID)
	c.Assert(err, qt.IsNil)
	c.Assert(removed, qt.Equals, 25)
}
