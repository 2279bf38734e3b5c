// Package postgres provides a PostgreSQL-backed hash ledger.
//
// Expected schema:
//
//	CREATE TABLE object_hash (
//	    object_key   TEXT        NOT NULL,
//	    version_id   TEXT        NOT NULL,
//	    md5_hash     CHAR(32)    NOT NULL,
//	    sha256_hash  CHAR(64)    NOT NULL,
//	    size_bytes   BIGINT      NOT NULL,
//	    recorded_at  TIMESTAMPTZ NOT NULL,
//	    PRIMARY KEY (object_key, version_id)
//	);
package postgres

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/casetrail/casetrail/pkg/evidence"
)

// DBTX is an interface that allows us to use either a database connection
// or a transaction.
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// Ledger implements evidence.HashLedger using PostgreSQL.
type Ledger struct {
	db DBTX
}

// New creates a new PostgreSQL hash ledger.
func New(db DBTX) *Ledger {
	return &Ledger{db: db}
}

// NewWithPool creates a new PostgreSQL hash ledger from a connection pool.
func NewWithPool(pool *pgxpool.Pool) *Ledger {
	return &Ledger{db: pool}
}

// Record inserts a hash record. The insert is conditional on the primary
// key; when the row already exists the stored hashes are compared instead
// of being overwritten, so a ledger row is never mutated after the fact.
func (l *Ledger) Record(ctx context.Context, rec evidence.ObjectRecord) error {
	query := `
		INSERT INTO object_hash (object_key, version_id, md5_hash, sha256_hash, size_bytes, recorded_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (object_key, version_id) DO NOTHING`

	tag, err := l.db.Exec(ctx, query,
		rec.ObjectKey, rec.VersionID,
		strings.ToLower(rec.MD5Hash), strings.ToLower(rec.SHA256Hash),
		rec.SizeBytes, rec.RecordedAt)
	if err != nil {
		return &evidence.LedgerError{Op: "record", Key: rec.ObjectKey, VersionID: rec.VersionID, Err: err}
	}
	if tag.RowsAffected() > 0 {
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
	query := `
		SELECT object_key, version_id, md5_hash, sha256_hash, size_bytes, recorded_at
		FROM object_hash
		WHERE object_key = $1 AND version_id = $2`

	var rec evidence.ObjectRecord
	err := l.db.QueryRow(ctx, query, objectKey, versionID).Scan(
		&rec.ObjectKey, &rec.VersionID, &rec.MD5Hash, &rec.SHA256Hash, &rec.SizeBytes, &rec.RecordedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &evidence.LedgerError{
				Op:        "lookup",
				Key:       objectKey,
				VersionID: versionID,
				Err:       evidence.ErrRecordNotFound,
			}
		}
		return nil, &evidence.LedgerError{Op: "lookup", Key: objectKey, VersionID: versionID, Err: err}
	}

	// CHAR columns pad with trailing spaces on some deployments.
	rec.MD5Hash = strings.TrimSpace(rec.MD5Hash)
	rec.SHA256Hash = strings.TrimSpace(rec.SHA256Hash)
	return &rec, nil
}
