package database

import (
	"errors"

	"github.com/google/uuid"
	migrate "github.com/rubenv/sql-migrate"
	"go.vocdoni.io/analytics/types"
)

// ErrSnapshotNotFound is returned when no snapshot matches the request
var ErrSnapshotNotFound = errors.New("snapshot not found")

type Database interface {
	// Snapshots
	CreateSnapshot(snapshot *types.Snapshot) (uuid.UUID, error)
	CreateSnapshots(snapshots []types.Snapshot) (int, error)
	GetSnapshot(id uuid.UUID) (*types.Snapshot, error)
	ListSnapshots(electionID int, filter *types.ListOptions) ([]types.Snapshot, error)
	CountSnapshots(electionID int) (int, error)
	DeleteSnapshots(electionID int) (int, error)
	// Manage DB
	Ping() error
	Close() error
	// Migrations
	Migrate(dir migrate.MigrationDirection) (int, error)
	MigrateStatus() (int, int, string, error)
	MigrationUpSync() (int, error)
}
