// Package objectkey computes deterministic storage keys for case content.
//
// Key grammar:
//
//	cases/{caseId}/{scope}/{contentType}/{contentId}/{artifact}
//
// where scope is an owner ID (personal content) or the literal "shared",
// and artifact is the primary document name, images/{name}, or
// files/{name}. Identical inputs always yield identical keys and distinct
// inputs never collide, so a key doubles as an item's primary identifier.
package objectkey

import (
	"fmt"
	"strings"
)

// SharedSegment is the scope segment used for shared content instead of
// an owner ID.
const SharedSegment = "shared"

// Primary document artifact names per content type.
const (
	noteDocumentName    = "note.txt"
	defaultDocumentName = "content.txt"

	notesContentType = "contemporaneous-notes"
)

// AssetKind selects the sub-asset directory within a document's key space.
type AssetKind string

const (
	KindImage AssetKind = "images"
	KindFile  AssetKind = "files"
)

// Document returns the key of a content item's primary document.
// Contemporaneous notes store their document as note.txt; every other
// content type uses content.txt.
func Document(caseID, scope, contentType, contentID string) string {
	return fmt.Sprintf("cases/%s/%s/%s/%s/%s", caseID, scope, contentType, contentID, documentName(contentType))
}

// Asset returns the key of a sub-asset belonging to a content item.
func Asset(caseID, scope, contentType, contentID string, kind AssetKind, name string) string {
	return fmt.Sprintf("cases/%s/%s/%s/%s/%s/%s", caseID, scope, contentType, contentID, kind, SanitizeName(name))
}

func documentName(contentType string) string {
	if contentType == notesContentType {
		return noteDocumentName
	}
	return defaultDocumentName
}

// SanitizeName replaces characters that are unsafe in key segments. Asset
// names come from user-supplied file names; slashes in particular must not
// introduce extra key segments.
func SanitizeName(name string) string {
	replacer := strings.NewReplacer(
		"/", "_",
		"\\", "_",
		":", "_",
		"*", "_",
		"?", "_",
		"\"", "_",
		"<", "_",
		">", "_",
		"|", "_",
		" ", "_",
	)
	return replacer.Replace(name)
}
