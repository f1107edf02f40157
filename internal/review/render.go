package review

import "strings"

// Separators between rendered lines.
const (
	SepHTML = "<br>"
	SepText = "\n"
)

// Render joins the display lines of results with sep. It depends only on
// results, so the same report always renders identically.
func Render(results []StageResult, sep string) string {
	return strings.Join(RenderLines(results), sep)
}

// RenderLines returns the display lines of results in stage order.
func RenderLines(results []StageResult) []string {
	var lines []string
	for _, r := range results {
		lines = append(lines, renderResult(r)...)
	}
	return lines
}

// Render renders the report's results.
func (r *Report) Render(sep string) string {
	return Render(r.Results, sep)
}

func renderResult(r StageResult) []string {
	if r.Status == StatusSkipped {
		return []string{"⏭ " + r.Title + " skipped: " + r.Reason}
	}

	var lines []string
	switch r.Stage {
	case StagePatterns:
		if hasRuleFindings(r.Findings) {
			lines = append(lines, "⚠️ Issues Detected:")
		}
	case StageComplexity:
		if len(r.Findings) == 0 {
			return []string{"📊 Function Complexity: no function-level data"}
		}
		lines = append(lines, "📊 Function Complexity:")
	case StageAdvisory:
		lines = append(lines, "🧠 "+r.Title+":")
	}
	for _, f := range r.Findings {
		lines = append(lines, f.Message)
		if f.Source != "" {
			lines = append(lines, "➡️ "+f.Source)
		}
	}
	return lines
}

func hasRuleFindings(findings []Finding) bool {
	for _, f := range findings {
		if f.Rule != "" {
			return true
		}
	}
	return false
}
