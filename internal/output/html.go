package output

import (
	"bytes"
	"fmt"
	"html"
	"io"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	gmhtml "github.com/yuin/goldmark/renderer/html"

	"github.com/dshills/critic/internal/patterns"
	"github.com/dshills/critic/internal/review"
)

const pageTemplate = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>%s</title>
</head>
<body>
%s</body>
</html>
`

// HTMLWriter converts the markdown report to a sanitized HTML page.
type HTMLWriter struct {
	Catalog *patterns.Catalog
}

func (h *HTMLWriter) Write(w io.Writer, report *review.Report) error {
	var md bytes.Buffer
	if err := (&MarkdownWriter{Catalog: h.Catalog}).Write(&md, report); err != nil {
		return err
	}
	body, err := MarkdownToHTML(md.Bytes())
	if err != nil {
		return err
	}
	title := "critic report"
	if report.Input.Name != "" {
		title += ": " + report.Input.Name
	}
	_, err = fmt.Fprintf(w, pageTemplate, html.EscapeString(title), body)
	return err
}

// MarkdownToHTML renders GitHub-flavored markdown and strips anything the
// UGC policy does not allow. Advisory text is model output, so raw HTML in
// it is rendered and then sanitized rather than trusted.
func MarkdownToHTML(src []byte) (string, error) {
	md := goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithRendererOptions(gmhtml.WithUnsafe()),
	)

	var buf bytes.Buffer
	if err := md.Convert(src, &buf); err != nil {
		return "", fmt.Errorf("rendering markdown: %w", err)
	}
	return bluemonday.UGCPolicy().Sanitize(buf.String()), nil
}
