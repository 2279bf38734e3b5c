package evidence

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/casetrail/casetrail/pkg/evidence/objectkey"
)

// service implements the Service interface.
type service struct {
	store      BlobStore
	ledger     HashLedger
	directory  CaseDirectory
	renderer   Renderer
	audit      AuditSink
	presignTTL time.Duration

	verifier *Verifier
	resolver *ReferenceResolver
}

// Option represents a functional option for configuring the service.
type Option func(*service)

// WithBlobStore sets the blob storage backend.
func WithBlobStore(store BlobStore) Option {
	return func(s *service) {
		s.store = store
	}
}

// WithLedger sets the hash ledger.
func WithLedger(ledger HashLedger) Option {
	return func(s *service) {
		s.ledger = ledger
	}
}

// WithCaseDirectory sets the case directory collaborator. Required only
// for Export.
func WithCaseDirectory(directory CaseDirectory) Option {
	return func(s *service) {
		s.directory = directory
	}
}

// WithRenderer sets the export renderer collaborator. Required only for
// Export.
func WithRenderer(renderer Renderer) Option {
	return func(s *service) {
		s.renderer = renderer
	}
}

// WithAuditSink sets the audit sink.
func WithAuditSink(sink AuditSink) Option {
	return func(s *service) {
		s.audit = sink
	}
}

// WithPresignTTL overrides the validity window for presigned URLs.
func WithPresignTTL(ttl time.Duration) Option {
	return func(s *service) {
		s.presignTTL = ttl
	}
}

// New creates a new service instance with the given options.
func New(options ...Option) (Service, error) {
	s := &service{
		audit:      NoopAuditSink{},
		presignTTL: DefaultPresignTTL,
	}

	for _, option := range options {
		option(s)
	}

	if s.store == nil {
		return nil, fmt.Errorf("blob store is required")
	}
	if s.ledger == nil {
		return nil, fmt.Errorf("hash ledger is required")
	}

	s.verifier = NewVerifier(s.store, s.ledger)
	s.resolver = NewReferenceResolver(s.verifier, s.store, s.presignTTL)

	return s, nil
}

// Document operations

func (s *service) PutDocument(ctx context.Context, ref ContentRef, content io.Reader) (UpsertOutcome, *ObjectRecord, error) {
	outcome, rec, err := s.Upsert(ctx, ref.ObjectKey(), content)
	if err != nil {
		return "", nil, err
	}
	s.audit.Emit(ctx, AuditEvent{
		Action:    "document.put",
		CaseID:    ref.CaseID,
		UserID:    ref.OwnerID,
		ObjectKey: rec.ObjectKey,
		Detail:    string(outcome),
		At:        time.Now().UTC(),
	})
	return outcome, rec, nil
}

func (s *service) GetDocument(ctx context.Context, ref ContentRef) (*Document, error) {
	data, rec, err := s.verifier.ReadVerified(ctx, ref.ObjectKey())
	if err != nil {
		return nil, err
	}

	resolved, err := s.resolver.Resolve(ctx, ref, data)
	if err != nil {
		return nil, err
	}

	s.audit.Emit(ctx, AuditEvent{
		Action:    "document.read",
		CaseID:    ref.CaseID,
		UserID:    ref.OwnerID,
		ObjectKey: rec.ObjectKey,
		At:        time.Now().UTC(),
	})

	return &Document{Ref: ref, Content: resolved, Record: *rec}, nil
}

// Asset operations

func (s *service) PutAsset(ctx context.Context, ref ContentRef, kind objectkey.AssetKind, name string, content io.Reader) (UpsertOutcome, *ObjectRecord, error) {
	outcome, rec, err := s.Upsert(ctx, ref.AssetKey(kind, name), content)
	if err != nil {
		return "", nil, err
	}
	s.audit.Emit(ctx, AuditEvent{
		Action:    "asset.put",
		CaseID:    ref.CaseID,
		UserID:    ref.OwnerID,
		ObjectKey: rec.ObjectKey,
		Detail:    string(outcome),
		At:        time.Now().UTC(),
	})
	return outcome, rec, nil
}

func (s *service) AssetURL(ctx context.Context, ref ContentRef, kind objectkey.AssetKind, name string) (string, error) {
	objectKey := ref.AssetKey(kind, name)
	if _, err := s.verifier.VerifyObject(ctx, objectKey); err != nil {
		return "", err
	}
	return s.Presign(ctx, objectKey, 0)
}
