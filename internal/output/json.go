package output

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/dshills/critic/internal/review"
)

// JSONWriter outputs the report with its stage results, plus the rendered
// marker lines so clients can show the plain report without re-rendering.
type JSONWriter struct {
	Compact bool
}

type jsonReport struct {
	*review.Report
	Rendered []string `json:"rendered"`
}

func (j *JSONWriter) Write(w io.Writer, report *review.Report) error {
	doc := jsonReport{Report: report, Rendered: review.RenderLines(report.Results)}
	if doc.Rendered == nil {
		doc.Rendered = []string{}
	}

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if !j.Compact {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encoding JSON report: %w", err)
	}
	return nil
}
