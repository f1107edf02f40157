package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/dshills/critic/internal/patterns"
	"github.com/dshills/critic/internal/review"
)

// MarkdownWriter outputs one section per stage. Pattern findings carry the
// catalog description of their rule.
type MarkdownWriter struct {
	Catalog *patterns.Catalog
}

func (m *MarkdownWriter) Write(w io.Writer, report *review.Report) error {
	catalog := m.Catalog
	if catalog == nil {
		c, err := patterns.LoadCatalog()
		if err != nil {
			return err
		}
		catalog = c
	}
	ew := &errWriter{w: w}

	ew.printf("## Critic Report\n\n")
	if report.Input.Name != "" {
		ew.printf("**`%s`** | ", report.Input.Name)
	}
	ew.printf("%d lines | state: %s\n\n", report.Input.Lines, report.State)

	// Summary table
	ew.printf("| Severity | Count |\n")
	ew.printf("|----------|-------|\n")
	ew.printf("| High     | %d    |\n", report.Summary.Counts.High)
	ew.printf("| Medium   | %d    |\n", report.Summary.Counts.Medium)
	ew.printf("| Low      | %d    |\n\n", report.Summary.Counts.Low)

	for _, res := range report.Results {
		if res.Stage == review.StageSyntax && res.Status == review.StatusSuccess {
			continue
		}
		ew.printf("### %s\n\n", res.Title)
		switch {
		case res.Status == review.StatusSkipped:
			ew.printf("_Skipped: %s_\n\n", res.Reason)
			continue
		case res.Status == review.StatusFailed:
			ew.printf("%s Stage failed: %s\n\n", mdSeverityIcon(review.SeverityHigh), res.Reason)
		case res.Stage == review.StageComplexity && len(res.Findings) == 0:
			ew.printf("No function-level data.\n\n")
		}

		if res.Stage == review.StageAdvisory && res.Status == review.StatusSuccess {
			for _, f := range res.Findings {
				ew.printf("%s\n\n", f.Message)
			}
			continue
		}

		for _, f := range res.Findings {
			ew.printf("- %s%s\n", mdSeverityPrefix(f.Severity), f.Message)
			if f.Source != "" {
				ew.printf("\n  ```python\n  %s\n  ```\n", f.Source)
			}
		}
		ew.printf("\n")
		writeRuleDocs(ew, catalog, res.Findings)
	}

	ew.printf("---\n\n*Analyzed in %dms (run `%s`)*\n", report.Timing.TotalMs, report.RunID)
	return ew.err
}

// writeRuleDocs appends a collapsible description for each distinct rule.
func writeRuleDocs(ew *errWriter, catalog *patterns.Catalog, findings []review.Finding) {
	seen := make(map[string]bool)
	for _, f := range findings {
		if f.Rule == "" || seen[f.Rule] {
			continue
		}
		seen[f.Rule] = true
		entry, ok := catalog.Lookup(f.Rule)
		if !ok {
			continue
		}
		ew.printf("<details>\n<summary>%s: %s</summary>\n\n%s\n</details>\n\n",
			entry.Code, entry.Title, strings.TrimSpace(entry.Description))
	}
}

func mdSeverityPrefix(s review.Severity) string {
	if s == "" {
		return ""
	}
	return fmt.Sprintf("%s **%s** ", mdSeverityIcon(s), strings.ToUpper(string(s)))
}

func mdSeverityIcon(s review.Severity) string {
	switch s {
	case review.SeverityHigh:
		return ":red_circle:"
	case review.SeverityMedium:
		return ":orange_circle:"
	case review.SeverityLow:
		return ":yellow_circle:"
	default:
		return ":white_circle:"
	}
}
