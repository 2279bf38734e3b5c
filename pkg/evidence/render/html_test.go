package render_test

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/casetrail/casetrail/pkg/evidence"
	"github.com/casetrail/casetrail/pkg/evidence/render"
)

func TestRenderExportModel(t *testing.T) {
	r := render.NewHTMLRenderer()

	caseID := uuid.New()
	model := &evidence.ExportModel{
		Case: evidence.Case{
			ID:               caseID,
			Name:             "Warehouse Inquiry",
			Number:           "2026-017",
			LeadInvestigator: "R. Vance",
		},
		RequestedBy: uuid.New(),
		GeneratedAt: time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC),
		Entries: []evidence.ExportEntry{
			{
				Ref: evidence.ContentRef{
					ContentType: evidence.ContentTypeNotes, ContentID: "n1", Title: "Site visit",
				},
				Document: "# Site visit\n\nThe **door** was open.\n",
				Record:   evidence.ObjectRecord{SHA256Hash: "abc123"},
			},
			{
				Ref: evidence.ContentRef{
					ContentType: evidence.ContentTypeExhibits, ContentID: "e1",
					Title: "Ledger book", FileName: "ledger.pdf",
				},
				Record: evidence.ObjectRecord{SHA256Hash: "def456", SizeBytes: 1024},
			},
		},
	}

	artifact, err := r.Render(context.Background(), model)
	require.NoError(t, err)
	defer artifact.Content.Close()

	assert.Equal(t, "text/html; charset=utf-8", artifact.ContentType)
	assert.Contains(t, artifact.FileName, caseID.String())

	data, err := io.ReadAll(artifact.Content)
	require.NoError(t, err)
	html := string(data)

	assert.Contains(t, html, "<title>Warehouse Inquiry</title>")
	assert.Contains(t, html, "R. Vance")
	assert.Contains(t, html, "2026-08-30T12:00:00Z")
	assert.Contains(t, html, "<strong>door</strong>")
	assert.Contains(t, html, "sha256 abc123")
	assert.Contains(t, html, "ledger.pdf")
	assert.Contains(t, html, "1024 bytes")
}

func TestRenderEscapesCaseMetadata(t *testing.T) {
	r := render.NewHTMLRenderer()

	model := &evidence.ExportModel{
		Case:        evidence.Case{ID: uuid.New(), Name: "<script>alert(1)</script>"},
		GeneratedAt: time.Now().UTC(),
	}

	artifact, err := r.Render(context.Background(), model)
	require.NoError(t, err)
	defer artifact.Content.Close()

	data, err := io.ReadAll(artifact.Content)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "<script>")
}
