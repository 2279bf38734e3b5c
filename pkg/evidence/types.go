package evidence

import (
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/casetrail/casetrail/pkg/evidence/objectkey"
)

// Scope is the domain type for content visibility.
type Scope string

// Scope constants (typed).
const (
	ScopePersonal Scope = "personal"
	ScopeShared   Scope = "shared"
)

// ContentType is the domain type for the kind of stored case content.
type ContentType string

// Content type constants (typed). These appear verbatim as object key
// segments, so they are stable identifiers rather than display names.
const (
	ContentTypeNotes    ContentType = "contemporaneous-notes"
	ContentTypeTabs     ContentType = "tabs"
	ContentTypeExhibits ContentType = "exhibits"
	ContentTypeExport   ContentType = "export"
)

// ContentRef identifies one case content item. Identity and metadata are
// owned by the external case directory; this package only derives storage
// keys from it.
type ContentRef struct {
	CaseID      uuid.UUID   `json:"case_id"`
	Scope       Scope       `json:"scope"`
	OwnerID     uuid.UUID   `json:"owner_id,omitempty"` // zero for shared items
	ContentType ContentType `json:"content_type"`
	ContentID   string      `json:"content_id"`
	Title       string      `json:"title,omitempty"`
	FileName    string      `json:"file_name,omitempty"` // exhibit files only
}

// scopeSegment returns the key segment for the ref's scope: the owner ID
// for personal items, the literal shared segment otherwise.
func (r ContentRef) scopeSegment() string {
	if r.Scope == ScopeShared {
		return objectkey.SharedSegment
	}
	return r.OwnerID.String()
}

// ObjectKey returns the storage key of the ref's primary document.
func (r ContentRef) ObjectKey() string {
	return objectkey.Document(r.CaseID.String(), r.scopeSegment(), string(r.ContentType), r.ContentID)
}

// AssetKey returns the storage key of a sub-asset of the ref's document.
func (r ContentRef) AssetKey(kind objectkey.AssetKind, name string) string {
	return objectkey.Asset(r.CaseID.String(), r.scopeSegment(), string(r.ContentType), r.ContentID, kind, name)
}

// ObjectRecord is one hash ledger entry: the expected digests for a
// specific version of a stored object. It is created atomically with a
// successful blob write and never exists without a matching blob version.
type ObjectRecord struct {
	ObjectKey  string    `json:"object_key"`
	VersionID  string    `json:"version_id"`
	MD5Hash    string    `json:"md5_hash"`    // 32-char lowercase hex
	SHA256Hash string    `json:"sha256_hash"` // 64-char lowercase hex
	SizeBytes  int64     `json:"size_bytes"`
	RecordedAt time.Time `json:"recorded_at"`
}

// UpsertOutcome reports how an Upsert completed.
type UpsertOutcome string

const (
	// UpsertCreated means no object existed at the key and a new one was
	// written and recorded.
	UpsertCreated UpsertOutcome = "created"
	// UpsertVerified means an object already existed, its current version
	// passed verification, and it was overwritten with a new version.
	UpsertVerified UpsertOutcome = "verified"
)

// Case is the directory's snapshot of a case, as embedded in exports.
type Case struct {
	ID               uuid.UUID  `json:"id"`
	Name             string     `json:"name"`
	Number           string     `json:"number,omitempty"`
	LeadInvestigator string     `json:"lead_investigator,omitempty"`
	Participants     []CaseUser `json:"participants,omitempty"`
	OpenedAt         time.Time  `json:"opened_at"`
}

// CaseUser is one user associated with a case.
type CaseUser struct {
	ID          uuid.UUID `json:"id"`
	DisplayName string    `json:"display_name"`
}

// Document is a verified, reference-resolved content item as returned to
// callers. Content has passed dual-digest verification against Record and
// had its local asset markers rewritten to presigned URLs.
type Document struct {
	Ref     ContentRef   `json:"ref"`
	Content []byte       `json:"content"`
	Record  ObjectRecord `json:"record"`
}

// ExportEntry is one resolved content item inside an export model.
// Exhibit entries carry no document body; Record still proves the stored
// file verified at assembly time.
type ExportEntry struct {
	Ref      ContentRef   `json:"ref"`
	Document string       `json:"document,omitempty"`
	Record   ObjectRecord `json:"record"`
}

// ExportModel is the transient aggregate assembled per export request.
// It is never persisted; only the rendered artifact is stored.
type ExportModel struct {
	Case        Case          `json:"case"`
	RequestedBy uuid.UUID     `json:"requested_by"`
	GeneratedAt time.Time     `json:"generated_at"`
	Entries     []ExportEntry `json:"entries"`
}

// Artifact is a rendered export document produced by a Renderer.
type Artifact struct {
	Content     io.ReadCloser
	FileName    string
	ContentType string
}
