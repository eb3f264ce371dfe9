package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
	"go.vocdoni.io/dvote/db"
	"go.vocdoni.io/dvote/db/metadb"
	"go.vocdoni.io/dvote/log"

	"go.vocdoni.io/analytics/backend"
	"go.vocdoni.io/analytics/database"
	"go.vocdoni.io/analytics/database/kvcache"
	"go.vocdoni.io/analytics/database/testdb"
	"go.vocdoni.io/analytics/types"
)

func TestMain(m *testing.M) {
	log.Init("error", "stderr")
	os.Exit(m.Run())
}

var testNow = time.Unix(1700000000, 0)

type fakeBackend struct {
	lock      sync.Mutex
	elections map[int]*types.Election
	results   map[int]types.ResultsMap
	users     types.Users
	voted     map[string]bool
	calls     int32
	inFlight  int32
	maxFlight int32
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		elections: map[int]*types.Election{
			1: {ElectionID: 1, Name: "presidential", Candidates: []string{"Ana", "Bruno"},
				StartTime: testNow.Unix() - 100, EndTime: testNow.Unix() + 100},
			2: {ElectionID: 2, Name: "senate", Candidates: []string{"Carla", "Dario"},
				StartTime: testNow.Unix() - 200, EndTime: testNow.Unix() - 100},
			3: {ElectionID: 3, Name: "mayor", Candidates: []string{"Eva"},
				StartTime: testNow.Unix() + 100, EndTime: testNow.Unix() + 200},
		},
		results: map[int]types.ResultsMap{
			1: {"Ana": 3, "Bruno": 5},
			2: {"Carla": 2, "Dario": 0},
			3: {},
		},
		users: types.Users{
			"001": {SocialID: "001", Province: "Santiago"},
			"002": {SocialID: "002", Province: "Santiago"},
			"003": {SocialID: "003", Province: "Azua"},
			"004": {SocialID: "004", Province: "Azua"},
			"005": {SocialID: "005"},
		},
		voted: map[string]bool{"001": true, "003": true, "004": true},
	}
}

func (b *fakeBackend) enter() func() {
	atomic.AddInt32(&b.calls, 1)
	n := atomic.AddInt32(&b.inFlight, 1)
	b.lock.Lock()
	if n > b.maxFlight {
		b.maxFlight = n
	}
	b.lock.Unlock()
	time.Sleep(time.Millisecond)
	return func() { atomic.AddInt32(&b.inFlight, -1) }
}

func (b *fakeBackend) ListElections(ctx context.Context) ([]types.ElectionRef, error) {
	defer b.enter()()
	refs := []types.ElectionRef{}
	for id, e := range b.elections {
		refs = append(refs, types.ElectionRef{ElectionID: id, Name: e.Name})
	}
	sort.Slice(refs, func(i, j int) bool { return refs[i].ElectionID < refs[j].ElectionID })
	return refs, nil
}

func (b *fakeBackend) GetElection(ctx context.Context, id int) (*types.Election, error) {
	defer b.enter()()
	e, ok := b.elections[id]
	if !ok {
		return nil, fmt.Errorf("could not get election %d: %w", id, backend.ErrNotFound)
	}
	copied := *e
	return &copied, nil
}

func (b *fakeBackend) GetResults(ctx context.Context, id int) (types.ResultsMap, error) {
	defer b.enter()()
	r, ok := b.results[id]
	if !ok {
		return nil, fmt.Errorf("could not get results of election %d: %w", id, backend.ErrNotFound)
	}
	copied := types.ResultsMap{}
	for k, v := range r {
		copied[k] = v
	}
	return copied, nil
}

func (b *fakeBackend) GetUsers(ctx context.Context) (types.Users, error) {
	defer b.enter()()
	copied := types.Users{}
	for k, v := range b.users {
		copied[k] = v
	}
	return copied, nil
}

func (b *fakeBackend) HasVoted(ctx context.Context, id int, socialID string) (bool, error) {
	defer b.enter()()
	if socialID == "boom" {
		return false, errors.New("backend unavailable")
	}
	return b.voted[socialID], nil
}

func newTestService(t *testing.T, b Backend, withCache bool) *AnalyticsService {
	var cache Cache
	if withCache {
		kv, err := metadb.New(db.TypePebble, t.TempDir())
		if err != nil {
			t.Fatal(err)
		}
		t.Cleanup(func() { kv.Close() })
		cache = kvcache.New(kv, time.Minute, nil)
	}
	store, err := testdb.New()
	if err != nil {
		t.Fatal(err)
	}
	s := NewAnalyticsService(b, cache, store, 2)
	s.now = func() time.Time { return testNow }
	return s
}

func TestElectionSummary(t *testing.T) {
	c := qt.New(t)
	s := newTestService(t, newFakeBackend(), false)
	ctx := context.Background()

	summary, err := s.ElectionSummary(ctx, 1)
	c.Assert(err, qt.IsNil)
	c.Assert(summary.Status, qt.Equals, types.StatusActive)
	c.Assert(summary.TotalVotes, qt.Equals, uint64(8))
	c.Assert(summary.Leader, qt.Equals, "Bruno")

	ranking, err := s.Ranking(ctx, 1)
	c.Assert(err, qt.IsNil)
	c.Assert(ranking[0].Name, qt.Equals, "Bruno")
	c.Assert(ranking[0].Rank, qt.Equals, 1)

	_, err = s.ElectionSummary(ctx, 9)
	c.Assert(errors.Is(err, backend.ErrNotFound), qt.IsTrue)
}

func TestElectionList(t *testing.T) {
	c := qt.New(t)
	s := newTestService(t, newFakeBackend(), false)
	ctx := context.Background()

	list, err := s.ElectionList(ctx, nil)
	c.Assert(err, qt.IsNil)
	c.Assert(list, qt.HasLen, 3)
	c.Assert(list[0].ElectionID, qt.Equals, 1)
	c.Assert(list[2].Leader, qt.Equals, "Eva")

	expired := types.StatusExpired
	list, err = s.ElectionList(ctx, &expired)
	c.Assert(err, qt.IsNil)
	c.Assert(list, qt.HasLen, 1)
	c.Assert(list[0].Name, qt.Equals, "senate")
	c.Assert(list[0].Leader, qt.Equals, "Carla")

	disabled := types.StatusDisabled
	list, err = s.ElectionList(ctx, &disabled)
	c.Assert(err, qt.IsNil)
	c.Assert(list, qt.HasLen, 0)
}

func TestProvinceStats(t *testing.T) {
	c := qt.New(t)
	s := newTestService(t, newFakeBackend(), false)
	ctx := context.Background()

	// 8 votes over 5 users, 2 of them in each listed province
	stats, err := s.ProvinceStats(ctx, []int{1})
	c.Assert(err, qt.IsNil)
	c.Assert(stats, qt.DeepEquals, []types.ProvinceStat{
		{Name: "Azua", Votes: 3, Registered: 2, ParticipationRate: 150},
		{Name: "Santiago", Votes: 3, Registered: 2, ParticipationRate: 150},
	})

	// a repeated id is combined once
	repeated, err := s.ProvinceStats(ctx, []int{1, 1})
	c.Assert(err, qt.IsNil)
	c.Assert(repeated, qt.DeepEquals, stats)
	repeated, err = s.ProvinceStats(ctx, []int{1, 2, 1, 2})
	c.Assert(err, qt.IsNil)
	combined, err := s.ProvinceStats(ctx, []int{1, 2})
	c.Assert(err, qt.IsNil)
	c.Assert(repeated, qt.DeepEquals, combined)

	// all elections combined: 10 votes
	stats, err = s.ProvinceStats(ctx, nil)
	c.Assert(err, qt.IsNil)
	c.Assert(stats[0].Votes, qt.Equals, uint64(4))

	_, err = s.ProvinceStats(ctx, []int{1, 9})
	c.Assert(err, qt.IsNotNil)
}

func TestTimelineAndDemographics(t *testing.T) {
	c := qt.New(t)
	s := newTestService(t, newFakeBackend(), false)
	ctx := context.Background()

	timeline, err := s.Timeline(ctx, 1)
	c.Assert(err, qt.IsNil)
	c.Assert(timeline, qt.HasLen, 11)
	c.Assert(timeline[0].Time, qt.Equals, "08:00")

	bands, err := s.Demographics(ctx)
	c.Assert(err, qt.IsNil)
	c.Assert(bands, qt.HasLen, 5)
}

func TestOverview(t *testing.T) {
	c := qt.New(t)
	s := newTestService(t, newFakeBackend(), false)

	overview, err := s.Overview(context.Background())
	c.Assert(err, qt.IsNil)
	c.Assert(overview.TotalElections, qt.Equals, 3)
	c.Assert(overview.TotalVotes, qt.Equals, uint64(10))
	c.Assert(overview.RegisteredUsers, qt.Equals, 5)
	c.Assert(overview.ParticipationRate, qt.Equals, 200.0)
	c.Assert(overview.ByStatus, qt.DeepEquals, map[types.ElectionStatus]int{
		types.StatusActive:   1,
		types.StatusExpired:  1,
		types.StatusUpcoming: 1,
	})
}

func TestTurnout(t *testing.T) {
	c := qt.New(t)
	b := newFakeBackend()
	for i := 0; i < 20; i++ {
		id := fmt.Sprintf("1%02d", i)
		b.users[id] = types.User{SocialID: id, Province: "Peravia"}
	}
	s := newTestService(t, b, false)

	turnout, err := s.Turnout(context.Background(), 1)
	c.Assert(err, qt.IsNil)
	c.Assert(turnout.Voters, qt.Equals, 3)
	c.Assert(turnout.Registered, qt.Equals, 25)
	c.Assert(turnout.Rate, qt.Equals, 12.0)
	c.Assert(turnout.Provinces[0].Name, qt.Equals, "Azua")
	c.Assert(turnout.Provinces[0].ParticipationRate, qt.Equals, 100.0)
	c.Assert(b.maxFlight <= 2, qt.IsTrue, qt.Commentf("max in flight %d", b.maxFlight))

	_, err = s.Turnout(context.Background(), 9)
	c.Assert(errors.Is(err, backend.ErrNotFound), qt.IsTrue)

	b.users["boom"] = types.User{SocialID: "boom"}
	_, err = s.Turnout(context.Background(), 1)
	c.Assert(err, qt.ErrorMatches, "backend unavailable")
}

func TestCachedReads(t *testing.T) {
	c := qt.New(t)
	b := newFakeBackend()
	s := newTestService(t, b, true)
	ctx := context.Background()

	_, err := s.ElectionSummary(ctx, 1)
	c.Assert(err, qt.IsNil)
	calls := atomic.LoadInt32(&b.calls)
	c.Assert(calls, qt.Equals, int32(2))

	_, err = s.ElectionSummary(ctx, 1)
	c.Assert(err, qt.IsNil)
	c.Assert(atomic.LoadInt32(&b.calls), qt.Equals, calls)

	b.results[1]["Ana"] = 10
	c.Assert(s.Invalidate(1), qt.IsNil)
	summary, err := s.ElectionSummary(ctx, 1)
	c.Assert(err, qt.IsNil)
	c.Assert(summary.Leader, qt.Equals, "Ana")
}

func TestSnapshots(t *testing.T) {
	c := qt.New(t)
	s := newTestService(t, newFakeBackend(), false)
	ctx := context.Background()

	snapshot, err := s.CaptureSnapshot(ctx, 1)
	c.Assert(err, qt.IsNil)
	c.Assert(snapshot.Leader, qt.Equals, "Bruno")
	c.Assert([]string(snapshot.Candidates), qt.DeepEquals, []string{"Ana", "Bruno"})
	c.Assert([]int64(snapshot.Votes), qt.DeepEquals, []int64{3, 5})
	c.Assert(snapshot.RegisteredUsers, qt.Equals, 5)

	stored, err := s.Snapshot(snapshot.ID)
	c.Assert(err, qt.IsNil)
	c.Assert(stored.TotalVotes, qt.Equals, int64(8))

	n, err := s.CaptureAll(ctx)
	c.Assert(err, qt.IsNil)
	c.Assert(n, qt.Equals, 3)

	list, err := s.Snapshots(1, &types.ListOptions{Order: "desc"})
	c.Assert(err, qt.IsNil)
	c.Assert(list, qt.HasLen, 2)

	removed, err := s.DeleteSnapshots(1)
	c.Assert(err, qt.IsNil)
	c.Assert(removed, qt.Equals, 2)
	_, err = s.Snapshot(snapshot.ID)
	c.Assert(errors.Is(err, database.ErrSnapshotNotFound), qt.IsTrue)
}

func TestSnapshotsDisabled(t *testing.T) {
	c := qt.New(t)
	s := NewAnalyticsService(newFakeBackend(), nil, nil, 0)
	c.Assert(s.HasDatabase(), qt.IsFalse)
	c.Assert(s.maxConcurrent, qt.Equals, DefaultMaxConcurrentChecks)
	_, err := s.CaptureSnapshot(context.Background(), 1)
	c.Assert(err, qt.Equals, ErrNoDatabase)
	_, err = s.Snapshots(1, nil)
	c.Assert(err, qt.Equals, ErrNoDatabase)
}

func TestSnapshotStoreFailure(t *testing.T) {
	c := qt.New(t)
	b := newFakeBackend()
	b.elections[testdb.FailElectionID] = &types.Election{ElectionID: testdb.FailElectionID,
		Name: "broken", Candidates: []string{"Ana"}}
	b.results[testdb.FailElectionID] = types.ResultsMap{"Ana": 1}
	s := newTestService(t, b, false)

	_, err := s.CaptureSnapshot(context.Background(), testdb.FailElectionID)
	c.Assert(err, qt.ErrorMatches, "could not store snapshot of election 666: .*")
	// the batch is rejected as a whole
	_, err = s.CaptureAll(context.Background())
	c.Assert(err, qt.IsNotNil)
	list, err := s.Snapshots(1, nil)
	c.Assert(err, qt.IsNil)
	c.Assert(list, qt.HasLen, 0)
}
