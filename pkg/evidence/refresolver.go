package evidence

import (
	"bytes"
	"context"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/casetrail/casetrail/pkg/evidence/objectkey"
)

// LocalMarker is the placeholder URL prefix authors use to reference an
// embedded asset that has no durable public URL at authoring time.
const LocalMarker = "local://"

// ReferenceResolver rewrites local asset markers inside markdown
// documents into verified, time-bounded access URLs.
//
// The stored document keeps its symbolic form; resolution produces a new
// document per read. This keeps the stored bytes stable (and therefore
// verifiable against the ledger forever) while the resolved form carries
// URLs that expire with the presign window.
type ReferenceResolver struct {
	verifier *Verifier
	store    BlobStore
	ttl      time.Duration
	markdown goldmark.Markdown
}

// NewReferenceResolver creates a resolver using the given verifier and
// store, presigning URLs for ttl.
func NewReferenceResolver(verifier *Verifier, store BlobStore, ttl time.Duration) *ReferenceResolver {
	return &ReferenceResolver{
		verifier: verifier,
		store:    store,
		ttl:      ttl,
		markdown: goldmark.New(),
	}
}

// Resolve returns a copy of document with every local-marker image
// reference replaced by a presigned URL for the corresponding verified
// asset. A document with no markers is returned unchanged. Any referenced
// asset that fails stat or verification fails the whole document; partial
// substitution would produce an export that looks complete but is not.
func (r *ReferenceResolver) Resolve(ctx context.Context, ref ContentRef, document []byte) ([]byte, error) {
	names := r.localReferences(document)
	if len(names) == 0 {
		return document, nil
	}

	urls := make(map[string]string, len(names))
	for _, name := range names {
		assetKey := ref.AssetKey(objectkey.KindImage, name)
		if _, err := r.verifier.VerifyObject(ctx, assetKey); err != nil {
			return nil, &ReferenceError{DocumentKey: ref.ObjectKey(), AssetName: name, Err: err}
		}
		url, err := r.store.PresignGet(ctx, assetKey, r.ttl)
		if err != nil {
			return nil, &ReferenceError{DocumentKey: ref.ObjectKey(), AssetName: name, Err: err}
		}
		urls[name] = url
	}

	return rewriteDestinations(document, urls), nil
}

// rewriteDestinations substitutes markers by position in a single pass. A
// marker is only rewritten when it sits in destination position (right
// after "](", with or without an angle bracket) and its complete
// destination name, read up to the closing delimiter, matches a resolved
// asset. Matching the full name keeps assets whose names share a prefix
// apart, and the position check leaves marker text in code spans or prose
// alone.
func rewriteDestinations(document []byte, urls map[string]string) []byte {
	marker := []byte(LocalMarker)
	var out bytes.Buffer
	rest := document
	for {
		i := bytes.Index(rest, marker)
		if i < 0 {
			out.Write(rest)
			return out.Bytes()
		}

		prefix := rest[:i]
		inDestination := bytes.HasSuffix(prefix, []byte("](")) || bytes.HasSuffix(prefix, []byte("](<"))

		end := i + len(marker)
		for end < len(rest) && !destinationEnd(rest[end]) {
			end++
		}
		name := string(rest[i+len(marker) : end])

		if url, ok := urls[name]; inDestination && ok {
			out.Write(prefix)
			out.WriteString(url)
		} else {
			out.Write(rest[:end])
		}
		rest = rest[end:]
	}
}

func destinationEnd(c byte) bool {
	switch c {
	case ')', '>', '"', '`', ' ', '\t', '\n', '\r':
		return true
	}
	return false
}

// localReferences parses the document and returns the asset names of all
// image nodes whose destination carries the local marker, deduplicated in
// document order. Parsing (rather than scanning for the marker string)
// keeps marker-looking text in code spans or prose from being rewritten.
func (r *ReferenceResolver) localReferences(document []byte) []string {
	root := r.markdown.Parser().Parse(text.NewReader(document))

	var names []string
	seen := make(map[string]bool)
	_ = ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		img, ok := n.(*ast.Image)
		if !ok {
			return ast.WalkContinue, nil
		}
		dest := string(img.Destination)
		if !strings.HasPrefix(dest, LocalMarker) {
			return ast.WalkContinue, nil
		}
		name := strings.TrimPrefix(dest, LocalMarker)
		if name != "" && !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
		return ast.WalkContinue, nil
	})
	return names
}
