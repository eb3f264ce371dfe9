package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"go.vocdoni.io/analytics/aggregation"
	"go.vocdoni.io/analytics/database"
	"go.vocdoni.io/analytics/types"
	"go.vocdoni.io/dvote/log"
)

// DefaultMaxConcurrentChecks bounds the parallel requests sent to the backend
// when the service fans out over elections or users
const DefaultMaxConcurrentChecks = 8

// ErrNoDatabase is returned by the snapshot operations when the service runs
// without a snapshot store
var ErrNoDatabase = errors.New("snapshot storage is not enabled")

// Backend is the voting backend data API
type Backend interface {
	ListElections(ctx context.Context) ([]types.ElectionRef, error)
	GetElection(ctx context.Context, id int) (*types.Election, error)
	GetResults(ctx context.Context, id int) (types.ResultsMap, error)
	GetUsers(ctx context.Context) (types.Users, error)
	HasVoted(ctx context.Context, id int, socialID string) (bool, error)
}

// Cache keeps backend responses around between requests.
// Getters return nil on a miss.
type Cache interface {
	GetResults(electionID int) (types.ResultsMap, error)
	StoreResults(electionID int, results types.ResultsMap) error
	GetElection(electionID int) (*types.Election, error)
	StoreElection(election *types.Election) error
	GetUsers() (types.Users, error)
	StoreUsers(users types.Users) error
	Invalidate(electionID int) error
}

type AnalyticsService struct {
	backend       Backend
	cache         Cache
	db            database.Database
	maxConcurrent int
	now           func() time.Time
}

// NewAnalyticsService creates the analytics service on top of the backend.
// Both cache and db are optional and may be nil.
func NewAnalyticsService(b Backend, c Cache, db database.Database, maxConcurrent int) *AnalyticsService {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrentChecks
	}
	return &AnalyticsService{
		backend:       b,
		cache:         c,
		db:            db,
		maxConcurrent: maxConcurrent,
		now:           time.Now,
	}
}

func (s *AnalyticsService) HasDatabase() bool {
	return s.db != nil
}

// Invalidate drops the cached data of an election, used when the backend
// notifies new results
func (s *AnalyticsService) Invalidate(electionID int) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Invalidate(electionID)
}

// ElectionList returns the summaries of all the elections, optionally only
// those with the given status
func (s *AnalyticsService) ElectionList(ctx context.Context, status *types.ElectionStatus) ([]types.ElectionSummary, error) {
	elections, err := s.elections(ctx)
	if err != nil {
		return nil, err
	}
	now := s.now()
	if status != nil {
		elections = aggregation.FilterByStatus(elections, *status, now)
	}
	results, err := s.resultsOf(ctx, elections)
	if err != nil {
		return nil, err
	}
	summaries := make([]types.ElectionSummary, len(elections))
	for i, e := range elections {
		summaries[i] = aggregation.ComputeElectionSummary(e, results[e.ElectionID], now)
	}
	return summaries, nil
}

func (s *AnalyticsService) ElectionSummary(ctx context.Context, id int) (*types.ElectionSummary, error) {
	election, results, err := s.electionWithResults(ctx, id)
	if err != nil {
		return nil, err
	}
	summary := aggregation.ComputeElectionSummary(election, results, s.now())
	return &summary, nil
}

func (s *AnalyticsService) Ranking(ctx context.Context, id int) ([]types.CandidateResult, error) {
	election, results, err := s.electionWithResults(ctx, id)
	if err != nil {
		return nil, err
	}
	return aggregation.RankCandidates(election, results), nil
}

// ProvinceStats distributes the combined votes of the given elections over
// the provinces. With no ids every known election is combined. Repeated ids
// are counted once.
func (s *AnalyticsService) ProvinceStats(ctx context.Context, ids []int) ([]types.ProvinceStat, error) {
	ids = uniqueIDs(ids)
	if len(ids) == 0 {
		refs, err := s.backend.ListElections(ctx)
		if err != nil {
			return nil, err
		}
		for _, r := range refs {
			ids = append(ids, r.ElectionID)
		}
	}
	users, err := s.users(ctx)
	if err != nil {
		return nil, err
	}
	all := make([]types.ResultsMap, len(ids))
	if err := s.forEach(ctx, len(ids), func(ctx context.Context, i int) error {
		r, err := s.results(ctx, ids[i])
		all[i] = r
		return err
	}); err != nil {
		return nil, err
	}
	return aggregation.AggregateProvinceStats(users, aggregation.CombineResults(all...)), nil
}

// uniqueIDs drops repeated ids keeping the first occurrence order
func uniqueIDs(ids []int) []int {
	seen := make(map[int]struct{}, len(ids))
	unique := make([]int, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}
	return unique
}

func (s *AnalyticsService) Timeline(ctx context.Context, id int) ([]types.TimeBucket, error) {
	results, err := s.results(ctx, id)
	if err != nil {
		return nil, err
	}
	return aggregation.BucketVotesByTime(results.Total()), nil
}

func (s *AnalyticsService) Demographics(ctx context.Context) ([]types.AgeBand, error) {
	users, err := s.users(ctx)
	if err != nil {
		return nil, err
	}
	return aggregation.DemographicBreakdown(users), nil
}

func (s *AnalyticsService) Overview(ctx context.Context) (*types.Overview, error) {
	elections, err := s.elections(ctx)
	if err != nil {
		return nil, err
	}
	results, err := s.resultsOf(ctx, elections)
	if err != nil {
		return nil, err
	}
	users, err := s.users(ctx)
	if err != nil {
		return nil, err
	}
	overview := aggregation.ComputeOverview(elections, results, users, s.now())
	return &overview, nil
}

// Turnout asks the backend whether every registered user voted in the
// election. Checks run in parallel, bounded by the service concurrency.
func (s *AnalyticsService) Turnout(ctx context.Context, id int) (*types.Turnout, error) {
	// fail early on unknown elections
	if _, err := s.election(ctx, id); err != nil {
		return nil, err
	}
	users, err := s.users(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(users))
	for socialID := range users {
		ids = append(ids, socialID)
	}
	flags := make([]bool, len(ids))
	if err := s.forEach(ctx, len(ids), func(ctx context.Context, i int) error {
		var err error
		flags[i], err = s.backend.HasVoted(ctx, id, ids[i])
		return err
	}); err != nil {
		return nil, err
	}
	voted := make(map[string]bool, len(ids))
	for i, socialID := range ids {
		voted[socialID] = flags[i]
	}
	turnout := aggregation.MeasureTurnout(id, users, voted)
	return &turnout, nil
}

func (s *AnalyticsService) HasVoted(ctx context.Context, id int, socialID string) (bool, error) {
	return s.backend.HasVoted(ctx, id, socialID)
}

// CaptureSnapshot stores the current summary of an election
func (s *AnalyticsService) CaptureSnapshot(ctx context.Context, id int) (*types.Snapshot, error) {
	if s.db == nil {
		return nil, ErrNoDatabase
	}
	election, results, err := s.electionWithResults(ctx, id)
	if err != nil {
		return nil, err
	}
	users, err := s.users(ctx)
	if err != nil {
		return nil, err
	}
	snapshot := s.snapshotOf(election, results, len(users))
	if snapshot.ID, err = s.db.CreateSnapshot(snapshot); err != nil {
		return nil, fmt.Errorf("could not store snapshot of election %d: %w", id, err)
	}
	return snapshot, nil
}

// CaptureAll stores a snapshot of every known election in a single batch
func (s *AnalyticsService) CaptureAll(ctx context.Context) (int, error) {
	if s.db == nil {
		return 0, ErrNoDatabase
	}
	elections, err := s.elections(ctx)
	if err != nil {
		return 0, err
	}
	results, err := s.resultsOf(ctx, elections)
	if err != nil {
		return 0, err
	}
	users, err := s.users(ctx)
	if err != nil {
		return 0, err
	}
	snapshots := make([]types.Snapshot, len(elections))
	for i, e := range elections {
		snapshots[i] = *s.snapshotOf(e, results[e.ElectionID], len(users))
	}
	n, err := s.db.CreateSnapshots(snapshots)
	if err != nil {
		return n, fmt.Errorf("could not store snapshots: %w", err)
	}
	log.Infof("stored %d election snapshots", n)
	return n, nil
}

func (s *AnalyticsService) Snapshots(id int, opts *types.ListOptions) ([]types.Snapshot, error) {
	if s.db == nil {
		return nil, ErrNoDatabase
	}
	return s.db.ListSnapshots(id, opts)
}

func (s *AnalyticsService) Snapshot(id uuid.UUID) (*types.Snapshot, error) {
	if s.db == nil {
		return nil, ErrNoDatabase
	}
	return s.db.GetSnapshot(id)
}

func (s *AnalyticsService) DeleteSnapshots(id int) (int, error) {
	if s.db == nil {
		return 0, ErrNoDatabase
	}
	return s.db.DeleteSnapshots(id)
}

func (s *AnalyticsService) snapshotOf(election *types.Election, results types.ResultsMap,
	registered int) *types.Snapshot {
	summary := aggregation.ComputeElectionSummary(election, results, s.now())
	snapshot := &types.Snapshot{
		ElectionID:      election.ElectionID,
		ElectionName:    election.Name,
		Status:          string(summary.Status),
		TotalVotes:      int64(summary.TotalVotes),
		Leader:          summary.Leader,
		Candidates:      make([]string, len(summary.PerCandidate)),
		Votes:           make([]int64, len(summary.PerCandidate)),
		RegisteredUsers: registered,
	}
	for i, c := range summary.PerCandidate {
		snapshot.Candidates[i] = c.Name
		snapshot.Votes[i] = int64(c.Votes)
	}
	return snapshot
}

func (s *AnalyticsService) electionWithResults(ctx context.Context,
	id int) (*types.Election, types.ResultsMap, error) {
	election, err := s.election(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	results, err := s.results(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return election, results, nil
}

// elections fetches the full form of every election listed by the backend
func (s *AnalyticsService) elections(ctx context.Context) ([]*types.Election, error) {
	refs, err := s.backend.ListElections(ctx)
	if err != nil {
		return nil, err
	}
	elections := make([]*types.Election, len(refs))
	if err := s.forEach(ctx, len(refs), func(ctx context.Context, i int) error {
		var err error
		elections[i], err = s.election(ctx, refs[i].ElectionID)
		return err
	}); err != nil {
		return nil, err
	}
	return elections, nil
}

func (s *AnalyticsService) resultsOf(ctx context.Context,
	elections []*types.Election) (map[int]types.ResultsMap, error) {
	all := make([]types.ResultsMap, len(elections))
	if err := s.forEach(ctx, len(elections), func(ctx context.Context, i int) error {
		var err error
		all[i], err = s.results(ctx, elections[i].ElectionID)
		return err
	}); err != nil {
		return nil, err
	}
	results := make(map[int]types.ResultsMap, len(elections))
	for i, e := range elections {
		results[e.ElectionID] = all[i]
	}
	return results, nil
}

func (s *AnalyticsService) election(ctx context.Context, id int) (*types.Election, error) {
	if s.cache != nil {
		election, err := s.cache.GetElection(id)
		if err != nil {
			log.Warnf("cache: %v", err)
		} else if election != nil {
			return election, nil
		}
	}
	election, err := s.backend.GetElection(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if err := s.cache.StoreElection(election); err != nil {
			log.Warnf("cache: %v", err)
		}
	}
	return election, nil
}

func (s *AnalyticsService) results(ctx context.Context, id int) (types.ResultsMap, error) {
	if s.cache != nil {
		results, err := s.cache.GetResults(id)
		if err != nil {
			log.Warnf("cache: %v", err)
		} else if results != nil {
			return results, nil
		}
	}
	results, err := s.backend.GetResults(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if err := s.cache.StoreResults(id, results); err != nil {
			log.Warnf("cache: %v", err)
		}
	}
	return results, nil
}

func (s *AnalyticsService) users(ctx context.Context) (types.Users, error) {
	if s.cache != nil {
		users, err := s.cache.GetUsers()
		if err != nil {
			log.Warnf("cache: %v", err)
		} else if users != nil {
			return users, nil
		}
	}
	users, err := s.backend.GetUsers(ctx)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if err := s.cache.StoreUsers(users); err != nil {
			log.Warnf("cache: %v", err)
		}
	}
	return users, nil
}

// forEach runs fn for every index in [0, n) with at most maxConcurrent calls
// in flight. The first error cancels the remaining calls.
func (s *AnalyticsService) forEach(ctx context.Context, n int,
	fn func(ctx context.Context, i int) error) error {
	g, gctx := errgroup.WithContext(ctx)
	sem := make(chan struct{}, s.maxConcurrent)
loop:
	for i := 0; i < n; i++ {
		select {
		case sem <- struct{}{}:
		case <-gctx.Done():
			break loop
		}
		i := i
		g.Go(func() error {
			defer func() { <-sem }()
			return fn(gctx, i)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}
