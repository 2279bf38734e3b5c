package evidence_test

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/casetrail/casetrail/pkg/evidence"
	directorymemory "github.com/casetrail/casetrail/pkg/evidence/directory/memory"
	ledgermemory "github.com/casetrail/casetrail/pkg/evidence/ledger/memory"
	"github.com/casetrail/casetrail/pkg/evidence/objectkey"
	"github.com/casetrail/casetrail/pkg/evidence/render"
	storagememory "github.com/casetrail/casetrail/pkg/evidence/storage/memory"
)

type exportFixture struct {
	store     *storagememory.Backend
	ledger    *ledgermemory.Ledger
	directory *directorymemory.Directory
	service   evidence.Service

	caseID uuid.UUID
	userID uuid.UUID
}

// newExportFixture stores two personal notes for the user (one embedding
// an image) plus one shared tab, registered in the directory.
func newExportFixture(t *testing.T) *exportFixture {
	t.Helper()
	ctx := context.Background()

	store := storagememory.New()
	ledger := ledgermemory.New()
	directory := directorymemory.New()

	svc, err := evidence.New(
		evidence.WithBlobStore(store),
		evidence.WithLedger(ledger),
		evidence.WithCaseDirectory(directory),
		evidence.WithRenderer(render.NewHTMLRenderer()),
	)
	require.NoError(t, err)

	f := &exportFixture{
		store:     store,
		ledger:    ledger,
		directory: directory,
		service:   svc,
		caseID:    uuid.New(),
		userID:    uuid.New(),
	}

	directory.AddCase(evidence.Case{
		ID:               f.caseID,
		Name:             "Warehouse Inquiry",
		Number:           "2026-017",
		LeadInvestigator: "R. Vance",
	})

	note1 := evidence.ContentRef{
		CaseID: f.caseID, Scope: evidence.ScopePersonal, OwnerID: f.userID,
		ContentType: evidence.ContentTypeNotes, ContentID: "n1", Title: "Site visit",
	}
	note2 := evidence.ContentRef{
		CaseID: f.caseID, Scope: evidence.ScopePersonal, OwnerID: f.userID,
		ContentType: evidence.ContentTypeNotes, ContentID: "n2", Title: "Follow-up",
	}
	tab := evidence.ContentRef{
		CaseID: f.caseID, Scope: evidence.ScopeShared,
		ContentType: evidence.ContentTypeTabs, ContentID: "t1", Title: "Timeline",
	}

	_, _, err = svc.PutAsset(ctx, note1, objectkey.KindImage, "door.png", strings.NewReader("png-bytes"))
	require.NoError(t, err)
	_, _, err = svc.PutDocument(ctx, note1, strings.NewReader("# Site visit\n\n![door](local://door.png)\n"))
	require.NoError(t, err)
	_, _, err = svc.PutDocument(ctx, note2, strings.NewReader("# Follow-up\n\nNothing further.\n"))
	require.NoError(t, err)
	_, _, err = svc.PutDocument(ctx, tab, strings.NewReader("# Timeline\n\n- 09:00 arrival\n"))
	require.NoError(t, err)

	directory.AddContent(f.caseID, note1, note2, tab)
	return f
}

func (f *exportFixture) exportKeys() []string {
	var keys []string
	for _, key := range f.store.Keys() {
		if strings.Contains(key, "/export/") {
			keys = append(keys, key)
		}
	}
	return keys
}

func TestExportAssemblesAllVisibleContent(t *testing.T) {
	f := newExportFixture(t)
	ctx := context.Background()

	result, err := f.service.Export(ctx, evidence.ExportRequest{CaseID: f.caseID, UserID: f.userID})
	require.NoError(t, err)

	assert.Equal(t, 3, result.Entries)
	assert.NotEmpty(t, result.URL)
	assert.Contains(t, result.ObjectKey, "/"+f.userID.String()+"/export/")

	// The stored artifact itself passes verification.
	artifact, rec, err := f.service.Fetch(ctx, result.ObjectKey)
	require.NoError(t, err)
	assert.Equal(t, result.Record.SHA256Hash, rec.SHA256Hash)

	html := string(artifact)
	assert.Contains(t, html, "Warehouse Inquiry")
	assert.Contains(t, html, "Site visit")
	assert.Contains(t, html, "Follow-up")
	assert.Contains(t, html, "Timeline")
	assert.NotContains(t, html, evidence.LocalMarker)
}

func TestExportDoesNotSeeOtherUsersPersonalContent(t *testing.T) {
	f := newExportFixture(t)
	ctx := context.Background()

	otherUser := uuid.New()
	otherNote := evidence.ContentRef{
		CaseID: f.caseID, Scope: evidence.ScopePersonal, OwnerID: otherUser,
		ContentType: evidence.ContentTypeNotes, ContentID: "n3", Title: "Private",
	}
	_, _, err := f.service.PutDocument(ctx, otherNote, strings.NewReader("# Private\n"))
	require.NoError(t, err)
	f.directory.AddContent(f.caseID, otherNote)

	result, err := f.service.Export(ctx, evidence.ExportRequest{CaseID: f.caseID, UserID: f.userID})
	require.NoError(t, err)
	assert.Equal(t, 3, result.Entries)

	artifact, _, err := f.service.Fetch(ctx, result.ObjectKey)
	require.NoError(t, err)
	assert.NotContains(t, string(artifact), "Private")
}

func TestExportIncludesExhibitMetadata(t *testing.T) {
	f := newExportFixture(t)
	ctx := context.Background()

	exhibit := evidence.ContentRef{
		CaseID: f.caseID, Scope: evidence.ScopeShared,
		ContentType: evidence.ContentTypeExhibits, ContentID: "e1",
		Title: "Ledger book", FileName: "ledger.pdf",
	}
	_, _, err := f.service.PutAsset(ctx, exhibit, objectkey.KindFile, "ledger.pdf", strings.NewReader("%PDF-1.7 fake"))
	require.NoError(t, err)
	f.directory.AddContent(f.caseID, exhibit)

	result, err := f.service.Export(ctx, evidence.ExportRequest{CaseID: f.caseID, UserID: f.userID})
	require.NoError(t, err)
	assert.Equal(t, 4, result.Entries)

	artifact, _, err := f.service.Fetch(ctx, result.ObjectKey)
	require.NoError(t, err)
	assert.Contains(t, string(artifact), "ledger.pdf")
}

func TestExportFailsClosedOnCorruptedItem(t *testing.T) {
	f := newExportFixture(t)
	ctx := context.Background()

	note2 := evidence.ContentRef{
		CaseID: f.caseID, Scope: evidence.ScopePersonal, OwnerID: f.userID,
		ContentType: evidence.ContentTypeNotes, ContentID: "n2",
	}
	require.True(t, f.store.Corrupt(note2.ObjectKey(), []byte("tampered note")))

	_, err := f.service.Export(ctx, evidence.ExportRequest{CaseID: f.caseID, UserID: f.userID})
	assert.ErrorIs(t, err, evidence.ErrIntegrity)

	// Fail-closed: no artifact of any kind was stored.
	assert.Empty(t, f.exportKeys())
}

func TestExportFailsClosedOnUnresolvableReference(t *testing.T) {
	f := newExportFixture(t)
	ctx := context.Background()

	note1 := evidence.ContentRef{
		CaseID: f.caseID, Scope: evidence.ScopePersonal, OwnerID: f.userID,
		ContentType: evidence.ContentTypeNotes, ContentID: "n1",
	}
	f.store.Remove(note1.AssetKey(objectkey.KindImage, "door.png"))

	_, err := f.service.Export(ctx, evidence.ExportRequest{CaseID: f.caseID, UserID: f.userID})
	assert.ErrorIs(t, err, evidence.ErrObjectNotFound)
	assert.Empty(t, f.exportKeys())
}

func TestExportDoesNotMutateSources(t *testing.T) {
	f := newExportFixture(t)
	ctx := context.Background()

	note1 := evidence.ContentRef{
		CaseID: f.caseID, Scope: evidence.ScopePersonal, OwnerID: f.userID,
		ContentType: evidence.ContentTypeNotes, ContentID: "n1",
	}
	before, beforeRec, err := f.service.Fetch(ctx, note1.ObjectKey())
	require.NoError(t, err)

	_, err = f.service.Export(ctx, evidence.ExportRequest{CaseID: f.caseID, UserID: f.userID})
	require.NoError(t, err)

	after, afterRec, err := f.service.Fetch(ctx, note1.ObjectKey())
	require.NoError(t, err)
	assert.Equal(t, string(before), string(after))
	assert.Equal(t, beforeRec.VersionID, afterRec.VersionID)
}

func TestExportRequiresCollaborators(t *testing.T) {
	svc, err := evidence.New(
		evidence.WithBlobStore(storagememory.New()),
		evidence.WithLedger(ledgermemory.New()),
	)
	require.NoError(t, err)

	_, err = svc.Export(context.Background(), evidence.ExportRequest{CaseID: uuid.New(), UserID: uuid.New()})
	assert.Error(t, err)
}
