// Package render provides the built-in export renderer: one
// self-contained HTML file per export, with every document converted from
// markdown. Deployments with a dedicated rendering pipeline (PDF and the
// like) supply their own evidence.Renderer instead.
package render

import (
	"bytes"
	"context"
	"fmt"
	"html"
	"io"
	"time"

	"github.com/yuin/goldmark"
	ghtml "github.com/yuin/goldmark/renderer/html"

	"github.com/casetrail/casetrail/pkg/evidence"
)

// HTMLRenderer renders an export model into a single HTML document.
type HTMLRenderer struct {
	markdown goldmark.Markdown
}

// NewHTMLRenderer creates a renderer. Unsafe raw HTML in documents is not
// passed through.
func NewHTMLRenderer() *HTMLRenderer {
	return &HTMLRenderer{
		markdown: goldmark.New(
			goldmark.WithRendererOptions(ghtml.WithXHTML()),
		),
	}
}

// Render produces the artifact for model.
func (r *HTMLRenderer) Render(ctx context.Context, model *evidence.ExportModel) (*evidence.Artifact, error) {
	var buf bytes.Buffer

	buf.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\"/>\n")
	fmt.Fprintf(&buf, "<title>%s</title>\n</head>\n<body>\n", html.EscapeString(model.Case.Name))

	fmt.Fprintf(&buf, "<h1>%s</h1>\n", html.EscapeString(model.Case.Name))
	if model.Case.Number != "" {
		fmt.Fprintf(&buf, "<p>Case number: %s</p>\n", html.EscapeString(model.Case.Number))
	}
	if model.Case.LeadInvestigator != "" {
		fmt.Fprintf(&buf, "<p>Lead investigator: %s</p>\n", html.EscapeString(model.Case.LeadInvestigator))
	}
	fmt.Fprintf(&buf, "<p>Generated at %s</p>\n", model.GeneratedAt.UTC().Format(time.RFC3339))

	for _, entry := range model.Entries {
		title := entry.Ref.Title
		if title == "" {
			title = entry.Ref.ContentID
		}
		fmt.Fprintf(&buf, "<section>\n<h2>%s</h2>\n", html.EscapeString(title))
		fmt.Fprintf(&buf, "<p class=\"provenance\">%s · sha256 %s</p>\n",
			html.EscapeString(string(entry.Ref.ContentType)), html.EscapeString(entry.Record.SHA256Hash))

		if entry.Ref.ContentType == evidence.ContentTypeExhibits {
			fmt.Fprintf(&buf, "<p>Exhibit file: %s (%d bytes)</p>\n",
				html.EscapeString(entry.Ref.FileName), entry.Record.SizeBytes)
		} else if err := r.markdown.Convert([]byte(entry.Document), &buf); err != nil {
			return nil, fmt.Errorf("failed to render entry %s: %w", entry.Ref.ContentID, err)
		}
		buf.WriteString("</section>\n")
	}

	buf.WriteString("</body>\n</html>\n")

	return &evidence.Artifact{
		Content:     io.NopCloser(bytes.NewReader(buf.Bytes())),
		FileName:    fmt.Sprintf("case-%s-export.html", model.Case.ID),
		ContentType: "text/html; charset=utf-8",
	}, nil
}
