package testdb

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	migrate "github.com/rubenv/sql-migrate"
	"go.vocdoni.io/analytics/database"
	"go.vocdoni.io/analytics/types"
)

// FailElectionID makes every snapshot operation on it fail
const FailElectionID = 666

// Database is an in-memory snapshot store for tests
type Database struct {
	lock      sync.RWMutex
	snapshots map[uuid.UUID]types.Snapshot
}

func New() (*Database, error) {
	return &Database{snapshots: make(map[uuid.UUID]types.Snapshot)}, nil
}

func (d *Database) Ping() error {
	return nil
}

func (d *Database) Close() error {
	return nil
}

func (d *Database) CreateSnapshot(snapshot *types.Snapshot) (uuid.UUID, error) {
	if snapshot.ElectionID == FailElectionID {
		return uuid.Nil, fmt.Errorf("error creating snapshot for election %d", snapshot.ElectionID)
	}
	if snapshot.ID == uuid.Nil {
		snapshot.ID = uuid.New()
	}
	if snapshot.CreatedAt.IsZero() {
		snapshot.CreatedAt = time.Now()
	}
	d.lock.Lock()
	defer d.lock.Unlock()
	d.snapshots[snapshot.ID] = *snapshot
	return snapshot.ID, nil
}

func (d *Database) CreateSnapshots(snapshots []types.Snapshot) (int, error) {
	for i := range snapshots {
		if snapshots[i].ElectionID == FailElectionID {
			return 0, fmt.Errorf("error creating snapshot for election %d", snapshots[i].ElectionID)
		}
	}
	for i := range snapshots {
		if _, err := d.CreateSnapshot(&snapshots[i]); err != nil {
			return i, err
		}
	}
	return len(snapshots), nil
}

func (d *Database) GetSnapshot(id uuid.UUID) (*types.Snapshot, error) {
	d.lock.RLock()
	defer d.lock.RUnlock()
	snapshot, ok := d.snapshots[id]
	if !ok {
		return nil, database.ErrSnapshotNotFound
	}
	return &snapshot, nil
}

func (d *Database) ListSnapshots(electionID int, filter *types.ListOptions) ([]types.Snapshot, error) {
	if electionID == FailElectionID {
		return nil, fmt.Errorf("error listing snapshots of election %d", electionID)
	}
	d.lock.RLock()
	list := []types.Snapshot{}
	for _, s := range d.snapshots {
		if s.ElectionID == electionID {
			list = append(list, s)
		}
	}
	d.lock.RUnlock()
	asc := filter != nil && filter.Order == "asc"
	sort.Slice(list, func(i, j int) bool {
		if asc {
			return list[i].CreatedAt.Before(list[j].CreatedAt)
		}
		return list[i].CreatedAt.After(list[j].CreatedAt)
	})
	if filter != nil {
		if filter.Skip >= len(list) {
			return []types.Snapshot{}, nil
		}
		list = list[filter.Skip:]
		if filter.Count > 0 && filter.Count < len(list) {
			list = list[:filter.Count]
		}
	}
	return list, nil
}

func (d *Database) CountSnapshots(electionID int) (int, error) {
	list, err := d.ListSnapshots(electionID, nil)
	return len(list), err
}

func (d *Database) DeleteSnapshots(electionID int) (int, error) {
	if electionID == FailElectionID {
		return 0, fmt.Errorf("error deleting snapshots of election %d", electionID)
	}
	d.lock.Lock()
	defer d.lock.Unlock()
	n := 0
	for id, s := range d.snapshots {
		if s.ElectionID == electionID {
			delete(d.snapshots, id)
			n++
		}
	}
	return n, nil
}

func (d *Database) Migrate(dir migrate.MigrationDirection) (int, error) {
	return 0, nil
}

func (d *Database) MigrateStatus() (int, int, string, error) {
	return 0, 0, "", nil
}

func (d *Database) MigrationUpSync() (int, error) {
	return 0, nil
}

var _ database.Database = (*Database)(nil)
