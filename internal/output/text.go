package output

import (
	"fmt"
	"html"
	"io"
	"strings"

	"github.com/dshills/critic/internal/review"
)

// TextWriter outputs the rendered report lines.
type TextWriter struct {
	// Summary appends severity counts and timing after the report.
	Summary bool
}

func (t *TextWriter) Write(w io.Writer, report *review.Report) error {
	ew := &errWriter{w: w}
	ew.println(report.Render(review.SepText))
	if !t.Summary {
		return ew.err
	}

	c := report.Summary.Counts
	ew.println(strings.Repeat("─", 60))
	ew.printf("Findings: %d high, %d medium, %d low\n", c.High, c.Medium, c.Low)
	for _, res := range report.Results {
		ew.printf("  %-16s %-8s %dms\n", res.Stage, res.Status, res.DurationMs)
	}
	ew.printf("Completed in %dms (run %s)\n", report.Timing.TotalMs, report.RunID)
	return ew.err
}

// LegacyWriter outputs the rendered lines, HTML-escaped and joined with
// <br>, the form the upload page embeds.
type LegacyWriter struct{}

func (l *LegacyWriter) Write(w io.Writer, report *review.Report) error {
	lines := review.RenderLines(report.Results)
	for i, line := range lines {
		lines[i] = html.EscapeString(line)
	}
	_, err := io.WriteString(w, strings.Join(lines, review.SepHTML))
	return err
}

// errWriter wraps an io.Writer and captures the first error.
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, args ...interface{}) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintf(ew.w, format, args...)
}

func (ew *errWriter) println(s string) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintln(ew.w, s)
}
