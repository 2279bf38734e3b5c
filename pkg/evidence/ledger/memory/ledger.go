// Package memory provides an in-memory hash ledger for tests and
// development.
package memory

import (
	"context"
	"strings"
	"sync"

	"github.com/casetrail/casetrail/pkg/evidence"
)

// Ledger is an in-memory implementation of evidence.HashLedger.
type Ledger struct {
	mu      sync.RWMutex
	records map[string]evidence.ObjectRecord
}

// New creates a new in-memory hash ledger.
func New() *Ledger {
	return &Ledger{
		records: make(map[string]evidence.ObjectRecord),
	}
}

func recordKey(objectKey, versionID string) string {
	return objectKey + "\x00" + versionID
}

// Record inserts a hash record. Identical re-records are no-ops;
// conflicting hashes for the same object version fail.
func (l *Ledger) Record(ctx context.Context, rec evidence.ObjectRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	key := recordKey(rec.ObjectKey, rec.VersionID)
	existing, exists := l.records[key]
	if exists {
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

	l.records[key] = rec
	return nil
}

// Lookup returns the record for (objectKey, versionID).
func (l *Ledger) Lookup(ctx context.Context, objectKey, versionID string) (*evidence.ObjectRecord, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	rec, exists := l.records[recordKey(objectKey, versionID)]
	if !exists {
		return nil, &evidence.LedgerError{
			Op:        "lookup",
			Key:       objectKey,
			VersionID: versionID,
			Err:       evidence.ErrRecordNotFound,
		}
	}
	return &rec, nil
}
