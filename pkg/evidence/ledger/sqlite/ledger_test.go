package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/casetrail/casetrail/pkg/evidence"
	"github.com/casetrail/casetrail/pkg/evidence/ledger/sqlite"
)

func openTestLedger(t *testing.T) *sqlite.Ledger {
	t.Helper()
	l, err := sqlite.Open(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { l.Close() })
	return l
}

func TestSQLiteRecordAndLookup(t *testing.T) {
	l := openTestLedger(t)
	ctx := context.Background()

	rec := evidence.ObjectRecord{
		ObjectKey:  "cases/5/shared/tabs/7/content.txt",
		VersionID:  "v1",
		MD5Hash:    "5d41402abc4b2a76b9719d911017c592",
		SHA256Hash: "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824",
		SizeBytes:  5,
		RecordedAt: time.Now().UTC(),
	}
	require.NoError(t, l.Record(ctx, rec))

	got, err := l.Lookup(ctx, rec.ObjectKey, rec.VersionID)
	require.NoError(t, err)
	assert.Equal(t, rec.MD5Hash, got.MD5Hash)
	assert.Equal(t, rec.SHA256Hash, got.SHA256Hash)
	assert.Equal(t, rec.SizeBytes, got.SizeBytes)
	assert.WithinDuration(t, rec.RecordedAt, got.RecordedAt, time.Second)

	// Identical re-record is a no-op.
	assert.NoError(t, l.Record(ctx, rec))

	// Conflicting hashes for the same version are rejected.
	conflicting := rec
	conflicting.SHA256Hash = "0000000000000000000000000000000000000000000000000000000000000000"
	assert.ErrorIs(t, l.Record(ctx, conflicting), evidence.ErrHashConflict)

	// Unknown version is a hard not-found.
	_, err = l.Lookup(ctx, rec.ObjectKey, "v2")
	assert.ErrorIs(t, err, evidence.ErrRecordNotFound)
}
