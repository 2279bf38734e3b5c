package evidence

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/casetrail/casetrail/pkg/evidence/objectkey"
)

// DefaultPresignTTL is the validity window for presigned access URLs.
const DefaultPresignTTL = 3600 * time.Second

// Service is the evidentiary content store: verified writes and reads of
// case documents and assets, reference resolution, and export assembly.
type Service interface {
	// EnsureBucket verifies the deployment precondition that the bucket
	// exists. It never creates buckets.
	EnsureBucket(ctx context.Context) error

	// Upsert writes content at objectKey and records its hashes. An
	// existing object must verify against the ledger before it may be
	// overwritten; an existing object with no ledger entry fails with
	// ErrUnledgeredObject.
	Upsert(ctx context.Context, objectKey string, content io.Reader) (UpsertOutcome, *ObjectRecord, error)

	// Fetch returns the verified bytes at objectKey along with the ledger
	// record they were checked against.
	Fetch(ctx context.Context, objectKey string) ([]byte, *ObjectRecord, error)

	// Presign returns a time-bounded read URL. A zero ttl uses the
	// service's configured window.
	Presign(ctx context.Context, objectKey string, ttl time.Duration) (string, error)

	// PresignTTL reports the configured validity window for presigned
	// URLs.
	PresignTTL() time.Duration

	// PutDocument stores a content item's primary document.
	PutDocument(ctx context.Context, ref ContentRef, content io.Reader) (UpsertOutcome, *ObjectRecord, error)

	// GetDocument returns a content item's primary document, verified and
	// with embedded local asset references rewritten to presigned URLs.
	GetDocument(ctx context.Context, ref ContentRef) (*Document, error)

	// PutAsset stores a sub-asset (embedded image or attached file) of a
	// content item.
	PutAsset(ctx context.Context, ref ContentRef, kind objectkey.AssetKind, name string, content io.Reader) (UpsertOutcome, *ObjectRecord, error)

	// AssetURL verifies a stored asset and returns a presigned URL for it.
	AssetURL(ctx context.Context, ref ContentRef, kind objectkey.AssetKind, name string) (string, error)

	// Export assembles, verifies, and renders all of a case's content
	// visible to the requesting user into one stored artifact. Fail-closed:
	// the first unverifiable item aborts the export and nothing is stored.
	Export(ctx context.Context, req ExportRequest) (*ExportResult, error)
}

// ExportRequest identifies the case and requesting user for an export.
type ExportRequest struct {
	CaseID uuid.UUID
	UserID uuid.UUID
}

// ExportResult describes a stored export artifact.
type ExportResult struct {
	ExportID  uuid.UUID    `json:"export_id"`
	ObjectKey string       `json:"object_key"`
	URL       string       `json:"url"`
	Record    ObjectRecord `json:"record"`
	Entries   int          `json:"entries"`
}
