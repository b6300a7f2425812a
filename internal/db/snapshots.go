package db

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"parcel-portal/internal/inventory"
)

type snapshotRow struct {
	SnapshotID  string `db:"snapshot_id"`
	RecordCount int    `db:"record_count"`
	Payload     string `db:"payload"`
	FetchedAt   string `db:"fetched_at"`
}

// SaveSnapshot stores an inventory snapshot. When a snapshot with the same
// content identity already exists only its fetch time is refreshed and
// false is returned.
func (db *DB) SaveSnapshot(snap inventory.Snapshot) (bool, error) {
	fetchedAt := formatTime(snap.FetchedAt)

	var exists bool
	if err := db.Get(&exists, `SELECT EXISTS(SELECT 1 FROM inventory_snapshots WHERE snapshot_id = ?)`, snap.ID); err != nil {
		return false, fmt.Errorf("failed to check snapshot: %w", err)
	}
	if exists {
		if _, err := db.Exec(`UPDATE inventory_snapshots SET fetched_at = ? WHERE snapshot_id = ?`, fetchedAt, snap.ID); err != nil {
			return false, fmt.Errorf("failed to touch snapshot: %w", err)
		}
		return false, nil
	}

	payload, err := json.Marshal(snap.Records)
	if err != nil {
		return false, fmt.Errorf("failed to encode snapshot: %w", err)
	}

	_, err = db.Exec(`
		INSERT INTO inventory_snapshots (snapshot_id, record_count, payload, fetched_at)
		VALUES (?, ?, ?, ?)
	`, snap.ID, len(snap.Records), string(payload), fetchedAt)
	if err != nil {
		return false, fmt.Errorf("failed to insert snapshot: %w", err)
	}
	return true, nil
}

// LatestSnapshot returns the most recently fetched snapshot
func (db *DB) LatestSnapshot() (inventory.Snapshot, error) {
	var row snapshotRow
	err := db.Get(&row, `
		SELECT snapshot_id, record_count, payload, fetched_at
		FROM inventory_snapshots
		ORDER BY fetched_at DESC, id DESC
		LIMIT 1
	`)
	if errors.Is(err, sql.ErrNoRows) {
		return inventory.Snapshot{}, ErrNotFound
	}
	if err != nil {
		return inventory.Snapshot{}, fmt.Errorf("failed to query snapshot: %w", err)
	}

	var records []inventory.Record
	if err := json.Unmarshal([]byte(row.Payload), &records); err != nil {
		return inventory.Snapshot{}, fmt.Errorf("failed to decode snapshot %s: %w", row.SnapshotID, err)
	}
	fetchedAt, err := parseTime(row.FetchedAt)
	if err != nil {
		return inventory.Snapshot{}, err
	}

	return inventory.Snapshot{ID: row.SnapshotID, FetchedAt: fetchedAt, Records: records}, nil
}

// PruneSnapshots keeps only the keep most recently fetched snapshots
func (db *DB) PruneSnapshots(keep int) (int64, error) {
	result, err := db.Exec(`
		DELETE FROM inventory_snapshots
		WHERE id NOT IN (
			SELECT id FROM inventory_snapshots ORDER BY fetched_at DESC, id DESC LIMIT ?
		)
	`, keep)
	if err != nil {
		return 0, fmt.Errorf("failed to prune snapshots: %w", err)
	}
	return result.RowsAffected()
}
