// Package sqlite provides a SQLite-backed hash ledger for single-node
// deployments, using the cgo-free modernc.org/sqlite driver.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/casetrail/casetrail/pkg/evidence"
)

const schema = `
CREATE TABLE IF NOT EXISTS object_hash (
    object_key  TEXT    NOT NULL,
    version_id  TEXT    NOT NULL,
    md5_hash    TEXT    NOT NULL,
    sha256_hash TEXT    NOT NULL,
    size_bytes  INTEGER NOT NULL,
    recorded_at TEXT    NOT NULL,
    PRIMARY KEY (object_key, version_id)
);`

// Ledger implements evidence.HashLedger using SQLite.
type Ledger struct {
	db *sql.DB
}

// Open opens (creating if necessary) a SQLite ledger at path.
func Open(path string) (*Ledger, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("sqlite ledger path is required")
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite ledger: %w", err)
	}
	// The ledger sees short point queries only; a single connection keeps
	// the driver's locking behavior predictable.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize sqlite ledger schema: %w", err)
	}
	return &Ledger{db: db}, nil
}

// Close releases the underlying database handle.
func (l *Ledger) Close() error {
	return l.db.Close()
}

// Record inserts a hash record, tolerating identical re-records and
// rejecting conflicting hashes for the same object version.
func (l *Ledger) Record(ctx context.Context, rec evidence.ObjectRecord) error {
	res, err := l.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO object_hash (object_key, version_id, md5_hash, sha256_hash, size_bytes, recorded_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		rec.ObjectKey, rec.VersionID,
		strings.ToLower(rec.MD5Hash), strings.ToLower(rec.SHA256Hash),
		rec.SizeBytes, rec.RecordedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return &evidence.LedgerError{Op: "record", Key: rec.ObjectKey, VersionID: rec.VersionID, Err: err}
	}
	if n, err := res.RowsAffected(); err == nil && n > 0 {
		return nil
	}

	existing, err := l.Lookup(ctx, rec.ObjectKey, rec.VersionID)
	if err != nil {
		return err
	}
	if !strings.EqualFold(existing.MD5Hash, rec.MD5Hash) || !strings.EqualFold(existing.SHA256Hash, rec.SHA256Hash) {
		return &evidence.LedgerError{
			Op:        "record",
			Key:       rec.ObjectKey,
			VersionID: rec.VersionID,
			Err:       evidence.ErrHashConflict,
		}
	}
	return nil
}

// Lookup returns the record for (objectKey, versionID).
func (l *Ledger) Lookup(ctx context.Context, objectKey, versionID string) (*evidence.ObjectRecord, error) {
	var rec evidence.ObjectRecord
	var recordedAt string
	err := l.db.QueryRowContext(ctx,
		`SELECT object_key, version_id, md5_hash, sha256_hash, size_bytes, recorded_at
		 FROM object_hash WHERE object_key = ? AND version_id = ?`,
		objectKey, versionID).Scan(
		&rec.ObjectKey, &rec.VersionID, &rec.MD5Hash, &rec.SHA256Hash, &rec.SizeBytes, &recordedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &evidence.LedgerError{
				Op:        "lookup",
				Key:       objectKey,
				VersionID: versionID,
				Err:       evidence.ErrRecordNotFound,
			}
		}
		return nil, &evidence.LedgerError{Op: "lookup", Key: objectKey, VersionID: versionID, Err: err}
	}

	if t, err := time.Parse(time.RFC3339Nano, recordedAt); err == nil {
		rec.RecordedAt = t
	}
	return &rec, nil
}
