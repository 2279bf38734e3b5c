package evidence

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/casetrail/casetrail/pkg/evidence/objectkey"
)

// Export assembles all case content visible to the requesting user into
// one rendered artifact: the requester's personal notes and tabs plus all
// shared notes, tabs, and exhibit metadata, each verified against the
// ledger and with embedded references resolved.
//
// The assembly is fail-closed: the first content item that fails
// verification or reference resolution aborts the whole export, and the
// artifact is only written after every entry has been assembled, so no
// partial export is ever stored. Export reads and transforms; it never
// mutates source content.
func (s *service) Export(ctx context.Context, req ExportRequest) (*ExportResult, error) {
	if s.directory == nil {
		return nil, fmt.Errorf("case directory is required for export")
	}
	if s.renderer == nil {
		return nil, fmt.Errorf("renderer is required for export")
	}

	c, err := s.directory.GetCase(ctx, req.CaseID)
	if err != nil {
		return nil, fmt.Errorf("case lookup failed for %s: %w", req.CaseID, err)
	}
	refs, err := s.directory.ListContent(ctx, req.CaseID, req.UserID)
	if err != nil {
		return nil, fmt.Errorf("content listing failed for case %s: %w", req.CaseID, err)
	}

	s.audit.Emit(ctx, AuditEvent{
		Action: "export.start",
		CaseID: req.CaseID,
		UserID: req.UserID,
		At:     time.Now().UTC(),
	})

	model := &ExportModel{
		Case:        *c,
		RequestedBy: req.UserID,
		GeneratedAt: time.Now().UTC(),
		Entries:     make([]ExportEntry, 0, len(refs)),
	}

	for _, ref := range refs {
		entry, err := s.assembleEntry(ctx, ref)
		if err != nil {
			return nil, fmt.Errorf("export of case %s aborted at %s %q: %w",
				req.CaseID, ref.ContentType, ref.ContentID, err)
		}
		model.Entries = append(model.Entries, *entry)
	}

	artifact, err := s.renderer.Render(ctx, model)
	if err != nil {
		return nil, fmt.Errorf("export rendering failed for case %s: %w", req.CaseID, err)
	}
	defer artifact.Content.Close()

	exportID := uuid.New()
	exportRef := ContentRef{
		CaseID:      req.CaseID,
		Scope:       ScopePersonal,
		OwnerID:     req.UserID,
		ContentType: ContentTypeExport,
		ContentID:   exportID.String(),
	}
	objectKey := exportRef.AssetKey(objectkey.KindFile, artifact.FileName)

	_, rec, err := s.Upsert(ctx, objectKey, artifact.Content)
	if err != nil {
		return nil, fmt.Errorf("failed to store export artifact for case %s: %w", req.CaseID, err)
	}

	url, err := s.Presign(ctx, objectKey, 0)
	if err != nil {
		return nil, err
	}

	s.audit.Emit(ctx, AuditEvent{
		Action:    "export.complete",
		CaseID:    req.CaseID,
		UserID:    req.UserID,
		ObjectKey: objectKey,
		Detail:    fmt.Sprintf("%d entries", len(model.Entries)),
		At:        time.Now().UTC(),
	})

	return &ExportResult{
		ExportID:  exportID,
		ObjectKey: objectKey,
		URL:       url,
		Record:    *rec,
		Entries:   len(model.Entries),
	}, nil
}

// assembleEntry verifies and resolves one content item. Documents are
// read fully (they are authored text); exhibit files are streamed through
// the verifier without being retained, since the export carries exhibit
// metadata rather than exhibit bytes.
func (s *service) assembleEntry(ctx context.Context, ref ContentRef) (*ExportEntry, error) {
	if ref.ContentType == ContentTypeExhibits {
		rec, err := s.verifier.VerifyObject(ctx, ref.AssetKey(objectkey.KindFile, ref.FileName))
		if err != nil {
			return nil, err
		}
		return &ExportEntry{Ref: ref, Record: *rec}, nil
	}

	data, rec, err := s.verifier.ReadVerified(ctx, ref.ObjectKey())
	if err != nil {
		return nil, err
	}
	resolved, err := s.resolver.Resolve(ctx, ref, data)
	if err != nil {
		return nil, err
	}
	return &ExportEntry{Ref: ref, Document: string(resolved), Record: *rec}, nil
}
