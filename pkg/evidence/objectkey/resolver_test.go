package objectkey_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/casetrail/casetrail/pkg/evidence/objectkey"
)

func TestDocumentKeys(t *testing.T) {
	tests := []struct {
		name        string
		caseID      string
		scope       string
		contentType string
		contentID   string
		expected    string
	}{
		{
			name:        "shared tab",
			caseID:      "5",
			scope:       objectkey.SharedSegment,
			contentType: "tabs",
			contentID:   "7",
			expected:    "cases/5/shared/tabs/7/content.txt",
		},
		{
			name:        "personal note uses note.txt",
			caseID:      "5",
			scope:       "user-1",
			contentType: "contemporaneous-notes",
			contentID:   "12",
			expected:    "cases/5/user-1/contemporaneous-notes/12/note.txt",
		},
		{
			name:        "shared exhibit",
			caseID:      "9",
			scope:       objectkey.SharedSegment,
			contentType: "exhibits",
			contentID:   "3",
			expected:    "cases/9/shared/exhibits/3/content.txt",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := objectkey.Document(tt.caseID, tt.scope, tt.contentType, tt.contentID)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestDocumentDeterminism(t *testing.T) {
	a := objectkey.Document("c1", "u1", "tabs", "t1")
	b := objectkey.Document("c1", "u1", "tabs", "t1")
	assert.Equal(t, a, b)
}

func TestKeysDoNotCollide(t *testing.T) {
	tuples := []struct {
		caseID, scope, contentType, contentID string
	}{
		{"c1", "u1", "contemporaneous-notes", "n1"},
		{"c1", "u1", "tabs", "n1"},
		{"c1", "u1", "exhibits", "n1"},
		{"c1", "u2", "tabs", "n1"},
		{"c1", objectkey.SharedSegment, "tabs", "n1"},
		{"c2", "u1", "tabs", "n1"},
		{"c1", "u1", "tabs", "n2"},
		{"c1", "u1", "export", "n1"},
	}

	seen := make(map[string]int)
	for i, tt := range tuples {
		key := objectkey.Document(tt.caseID, tt.scope, tt.contentType, tt.contentID)
		prev, dup := seen[key]
		assert.False(t, dup, "tuple %d collides with tuple %d on key %s", i, prev, key)
		seen[key] = i
	}
}

func TestAssetKeys(t *testing.T) {
	got := objectkey.Asset("5", objectkey.SharedSegment, "tabs", "7", objectkey.KindImage, "diagram.png")
	assert.Equal(t, "cases/5/shared/tabs/7/images/diagram.png", got)

	got = objectkey.Asset("5", "u1", "exhibits", "2", objectkey.KindFile, "report.pdf")
	assert.Equal(t, "cases/5/u1/exhibits/2/files/report.pdf", got)
}

func TestAssetNameSanitization(t *testing.T) {
	got := objectkey.Asset("5", "u1", "tabs", "7", objectkey.KindImage, "../escape attempt.png")
	assert.Equal(t, "cases/5/u1/tabs/7/images/.._escape_attempt.png", got)
	assert.NotContains(t, got, "../")
}
