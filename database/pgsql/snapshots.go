package pgsql

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.vocdoni.io/analytics/database"
	"go.vocdoni.io/analytics/types"
)

const snapshotFields = 10

const insertSnapshot = `INSERT INTO snapshots
		( id, election_id, election_name, status, total_votes, leader,
			candidates, votes, registered_users, created_at)
		VALUES ( :id, :election_id, :election_name, :status, :total_votes, :leader,
			:candidates, :votes, :registered_users, :created_at)`

const selectSnapshot = `SELECT id, election_id, election_name, status, total_votes, leader,
			candidates, votes, registered_users, created_at
		FROM snapshots`

// prepareSnapshot fills the id and creation time of a snapshot if missing
func prepareSnapshot(snapshot *types.Snapshot) error {
	if len(snapshot.Candidates) != len(snapshot.Votes) {
		return fmt.Errorf("snapshot has %d candidates and %d vote counts",
			len(snapshot.Candidates), len(snapshot.Votes))
	}
	if snapshot.ID == uuid.Nil {
		snapshot.ID = uuid.New()
	}
	if snapshot.CreatedAt.IsZero() {
		snapshot.CreatedAt = time.Now()
	}
	return nil
}

func (d *Database) CreateSnapshot(snapshot *types.Snapshot) (uuid.UUID, error) {
	if err := prepareSnapshot(snapshot); err != nil {
		return uuid.Nil, fmt.Errorf("error creating snapshot: %w", err)
	}
	if _, err := d.db.NamedExec(insertSnapshot, snapshot); err != nil {
		return uuid.Nil, fmt.Errorf("error creating snapshot: %w", err)
	}
	return snapshot.ID, nil
}

// CreateSnapshots inserts all the snapshots in a single transaction
func (d *Database) CreateSnapshots(snapshots []types.Snapshot) (int, error) {
	if len(snapshots) == 0 {
		return 0, nil
	}
	for i := range snapshots {
		if err := prepareSnapshot(&snapshots[i]); err != nil {
			return 0, fmt.Errorf("error creating snapshots: %w", err)
		}
	}
	tx, err := d.db.Beginx()
	if err != nil {
		return 0, fmt.Errorf("error creating snapshots: %w", err)
	}
	n, err := bulkInsert(tx, insertSnapshot, snapshots, snapshotFields)
	if err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("error committing snapshots: %w", err)
	}
	return n, nil
}

func (d *Database) GetSnapshot(id uuid.UUID) (*types.Snapshot, error) {
	var snapshot types.Snapshot
	row := d.db.QueryRowx(selectSnapshot+` WHERE id=$1`, id)
	if err := row.StructScan(&snapshot); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, database.ErrSnapshotNotFound
		}
		return nil, fmt.Errorf("error getting snapshot %s: %w", id, err)
	}
	return &snapshot, nil
}

// ListSnapshots returns the snapshots of an election, newest first unless
// filter.Order is "asc"
func (d *Database) ListSnapshots(electionID int, filter *types.ListOptions) ([]types.Snapshot, error) {
	order := "DESC"
	limit := "ALL"
	offset := 0
	if filter != nil {
		if filter.Order == "asc" {
			order = "ASC"
		}
		if filter.Count > 0 {
			limit = fmt.Sprintf("%d", filter.Count)
		}
		offset = filter.Skip
	}
	query := fmt.Sprintf(`%s WHERE election_id=$1 ORDER BY created_at %s LIMIT %s OFFSET $2`,
		selectSnapshot, order, limit)
	snapshots := []types.Snapshot{}
	if err := d.db.Select(&snapshots, query, electionID, offset); err != nil {
		return nil, fmt.Errorf("error listing snapshots of election %d: %w", electionID, err)
	}
	return snapshots, nil
}

func (d *Database) CountSnapshots(electionID int) (int, error) {
	var count int
	if err := d.db.Get(&count, `SELECT COUNT(*) FROM snapshots WHERE election_id=$1`, electionID); err != nil {
		return 0, fmt.Errorf("error counting snapshots of election %d: %w", electionID, err)
	}
	return count, nil
}

func (d *Database) DeleteSnapshots(electionID int) (int, error) {
	result, err := d.db.Exec(`DELETE FROM snapshots WHERE election_id=$1`, electionID)
	if err != nil {
		return 0, fmt.Errorf("error deleting snapshots of election %d: %w", electionID, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("error verifying deleted snapshots: %w", err)
	}
	return int(rows), nil
}
