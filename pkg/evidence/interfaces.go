package evidence

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"
)

// BlobStore defines the interface for versioned storage backends.
//
// Every write is assigned an opaque version identifier by the backend, and
// every read reports the version it actually returned. The gateway keys
// hash records on that version, so a reader always verifies against the
// digests recorded for the exact bytes the store handed back.
type BlobStore interface {
	// BucketExists reports whether the configured bucket exists. It
	// returns ErrBucketNotFound when absent and never creates buckets.
	BucketExists(ctx context.Context) error

	// Head retrieves metadata for an object, including its current
	// version ID. Returns ErrObjectNotFound when absent.
	Head(ctx context.Context, objectKey string) (*ObjectMeta, error)

	// Put writes an object and returns the version ID assigned by the
	// backend to the written revision.
	Put(ctx context.Context, objectKey string, reader io.Reader) (string, error)

	// Get opens an object for reading and reports the version ID of the
	// revision being returned. Returns ErrObjectNotFound when absent.
	Get(ctx context.Context, objectKey string) (io.ReadCloser, string, error)

	// PresignGet returns a time-bounded read-only URL for an object.
	PresignGet(ctx context.Context, objectKey string, ttl time.Duration) (string, error)
}

// ObjectMeta contains storage-level metadata about an object.
type ObjectMeta struct {
	Key         string
	VersionID   string
	Size        int64
	ContentType string
	UpdatedAt   time.Time
	ETag        string
}

// HashLedger defines the interface for persisted hash records.
type HashLedger interface {
	// Record inserts a hash record. Inserting an identical record for the
	// same (object key, version) pair is a no-op; inserting a record with
	// different hashes for that pair fails with ErrHashConflict.
	Record(ctx context.Context, rec ObjectRecord) error

	// Lookup returns the record for (objectKey, versionID), or
	// ErrRecordNotFound.
	Lookup(ctx context.Context, objectKey, versionID string) (*ObjectRecord, error)
}

// CaseDirectory is the external collaborator owning case identity and
// content metadata. Read-only from this package's point of view.
type CaseDirectory interface {
	// GetCase returns the case snapshot embedded in exports.
	GetCase(ctx context.Context, caseID uuid.UUID) (*Case, error)

	// ListContent returns the content refs visible to userID within a
	// case: the user's personal notes and tabs plus all shared items and
	// exhibit refs.
	ListContent(ctx context.Context, caseID, userID uuid.UUID) ([]ContentRef, error)
}

// Renderer turns an assembled export model into a binary artifact.
type Renderer interface {
	Render(ctx context.Context, model *ExportModel) (*Artifact, error)
}

// AuditEvent is one append-only action log entry.
type AuditEvent struct {
	Action    string
	CaseID    uuid.UUID
	UserID    uuid.UUID
	ObjectKey string
	Detail    string
	At        time.Time
}

// AuditSink receives fire-and-forget action events. Implementations must
// never fail the operation that emitted the event.
type AuditSink interface {
	Emit(ctx context.Context, event AuditEvent)
}
