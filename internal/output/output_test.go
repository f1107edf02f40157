package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/go-test/deep"

	"github.com/dshills/critic/internal/review"
)

func testReport() *review.Report {
	results := []review.StageResult{
		{Stage: review.StageSyntax, Title: "Syntax Check", Status: review.StatusSuccess},
		{Stage: review.StagePatterns, Title: "Static Analysis", Status: review.StatusSuccess, Findings: []review.Finding{{
			Kind:     review.KindStaticIssue,
			Line:     1,
			Rule:     "PY-S001",
			Message:  "[Line 1] Shell command injection risk. Suggestion: Use `subprocess.run`",
			Source:   "def unsafe(): os.system('rm -rf /')",
			Severity: review.SeverityHigh,
		}}},
		{Stage: review.StageMaintainability, Title: "Maintainability Index", Status: review.StatusSuccess, Findings: []review.Finding{{
			Kind: review.KindMetric, Message: "📈 Maintainability Index: 100.0 (A)", Grade: "A", Score: 100,
		}}},
		{Stage: review.StageComplexity, Title: "Function Complexity", Status: review.StatusSuccess, Findings: []review.Finding{{
			Kind: review.KindComplexity, Line: 1, Message: "Function `unsafe` → Score: 1, Grade: A", Grade: "A", Score: 1,
		}}},
		{Stage: review.StageClassifier, Title: "ML Prediction", Status: review.StatusSuccess, Findings: []review.Finding{{
			Kind: review.KindVerdict, Message: "🤖 ML Prediction: ❌ Potential bug detected", Severity: review.SeverityMedium,
		}}},
		{Stage: review.StageExecution, Title: "Runtime Check", Status: review.StatusSkipped, Reason: "disabled"},
		{Stage: review.StageAdvisory, Title: "AI Suggestions (Ollama)", Status: review.StatusSuccess, Findings: []review.Finding{{
			Kind: review.KindAdvisory, Message: "Use **subprocess**.\n\n<script>alert(1)</script>",
		}}},
	}
	r := &review.Report{
		Tool:    review.Tool,
		Version: "test",
		RunID:   "run-1",
		Input:   review.InputInfo{Name: "unsafe.py", Lines: 1, Bytes: 36},
		State:   review.StateDone,
		Results: results,
	}
	r.Summary = review.ComputeSummary(r.Findings())
	return r
}

func TestGetWriter(t *testing.T) {
	for _, f := range Formats {
		if _, err := GetWriter(f); err != nil {
			t.Errorf("GetWriter(%q) error: %v", f, err)
		}
	}
	if _, err := GetWriter("xml"); err == nil {
		t.Error("expected error for unsupported format")
	}
}

func TestTextWriter(t *testing.T) {
	report := testReport()
	var buf bytes.Buffer
	if err := (&TextWriter{}).Write(&buf, report); err != nil {
		t.Fatalf("Write error: %v", err)
	}
	if got, want := buf.String(), report.Render(review.SepText)+"\n"; got != want {
		t.Errorf("text output = %q, want %q", got, want)
	}

	buf.Reset()
	if err := (&TextWriter{Summary: true}).Write(&buf, report); err != nil {
		t.Fatalf("Write error: %v", err)
	}
	if !strings.Contains(buf.String(), "Findings: 1 high, 1 medium, 0 low") {
		t.Errorf("summary missing:\n%s", buf.String())
	}
}

func TestLegacyWriter(t *testing.T) {
	var buf bytes.Buffer
	if err := (&LegacyWriter{}).Write(&buf, testReport()); err != nil {
		t.Fatalf("Write error: %v", err)
	}
	out := buf.String()
	if !strings.HasPrefix(out, "⚠️ Issues Detected:<br>[Line 1] Shell command injection risk.") {
		t.Errorf("legacy output = %q", out)
	}
	if !strings.Contains(out, "<br>➡️ def unsafe(): os.system(&#39;rm -rf /&#39;)") {
		t.Errorf("source line not escaped: %q", out)
	}
	if strings.Contains(out, "<script>") {
		t.Errorf("advisory markup not escaped: %q", out)
	}
}

func TestJSONWriter_RoundTrip(t *testing.T) {
	report := testReport()
	var buf bytes.Buffer
	if err := (&JSONWriter{}).Write(&buf, report); err != nil {
		t.Fatalf("Write error: %v", err)
	}
	var decoded review.Report
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if diff := deep.Equal(decoded.Results[1], report.Results[1]); diff != nil {
		t.Errorf("patterns result differs: %v", diff)
	}
	if decoded.RunID != "run-1" || decoded.State != review.StateDone {
		t.Errorf("decoded header = %q/%q", decoded.RunID, decoded.State)
	}

	var withLines struct {
		Rendered []string `json:"rendered"`
	}
	if err := json.Unmarshal(buf.Bytes(), &withLines); err != nil {
		t.Fatal(err)
	}
	if diff := deep.Equal(withLines.Rendered, review.RenderLines(report.Results)); diff != nil {
		t.Errorf("rendered lines differ: %v", diff)
	}
}

func TestJSONWriter_Compact(t *testing.T) {
	var buf bytes.Buffer
	if err := (&JSONWriter{Compact: true}).Write(&buf, testReport()); err != nil {
		t.Fatalf("Write error: %v", err)
	}
	out := strings.TrimSuffix(buf.String(), "\n")
	if strings.Contains(out, "\n") {
		t.Errorf("compact output spans lines: %q", out)
	}
	if !strings.Contains(out, "⚠️ Issues Detected:") {
		t.Errorf("rendered lines missing or escaped: %q", out)
	}
}

func TestMarkdownWriter(t *testing.T) {
	var buf bytes.Buffer
	if err := (&MarkdownWriter{}).Write(&buf, testReport()); err != nil {
		t.Fatalf("Write error: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		"## Critic Report",
		"**`unsafe.py`**",
		"### Static Analysis",
		":red_circle: **HIGH** [Line 1] Shell command injection risk.",
		"<summary>PY-S001: Shell command injection risk</summary>",
		"### Runtime Check\n\n_Skipped: disabled_",
		"### AI Suggestions (Ollama)\n\nUse **subprocess**.",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("markdown missing %q\n%s", want, out)
		}
	}
	if strings.Contains(out, "### Syntax Check") {
		t.Error("successful syntax check should not get a section")
	}
}

func TestHTMLWriter_Sanitizes(t *testing.T) {
	var buf bytes.Buffer
	if err := (&HTMLWriter{}).Write(&buf, testReport()); err != nil {
		t.Fatalf("Write error: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "<title>critic report: unsafe.py</title>") {
		t.Errorf("title missing:\n%s", out)
	}
	if !strings.Contains(out, "<strong>subprocess</strong>") {
		t.Errorf("advisory markdown not rendered:\n%s", out)
	}
	if strings.Contains(out, "<script>") {
		t.Errorf("script tag survived sanitizing:\n%s", out)
	}
	if !strings.Contains(out, "<table>") {
		t.Errorf("GFM table not rendered:\n%s", out)
	}
}

func TestSARIFWriter(t *testing.T) {
	var buf bytes.Buffer
	if err := (&SARIFWriter{}).Write(&buf, testReport()); err != nil {
		t.Fatalf("Write error: %v", err)
	}

	var log struct {
		Version string `json:"version"`
		Runs    []struct {
			Tool struct {
				Driver struct {
					Name  string `json:"name"`
					Rules []struct {
						ID string `json:"id"`
					} `json:"rules"`
				} `json:"driver"`
			} `json:"tool"`
			Results []struct {
				RuleID    string `json:"ruleId"`
				Level     string `json:"level"`
				Locations []struct {
					PhysicalLocation struct {
						ArtifactLocation struct {
							URI string `json:"uri"`
						} `json:"artifactLocation"`
						Region *struct {
							StartLine int `json:"startLine"`
						} `json:"region"`
					} `json:"physicalLocation"`
				} `json:"locations"`
			} `json:"results"`
		} `json:"runs"`
	}
	if err := json.Unmarshal(buf.Bytes(), &log); err != nil {
		t.Fatalf("invalid SARIF JSON: %v", err)
	}
	if log.Version != "2.1.0" || len(log.Runs) != 1 {
		t.Fatalf("version/runs = %s/%d", log.Version, len(log.Runs))
	}
	run := log.Runs[0]
	if run.Tool.Driver.Name != "critic" {
		t.Errorf("driver = %q", run.Tool.Driver.Name)
	}
	if len(run.Results) != 2 {
		t.Fatalf("results = %d, want 2 (severity-bearing findings only)", len(run.Results))
	}
	first := run.Results[0]
	if first.RuleID != "PY-S001" || first.Level != "error" {
		t.Errorf("first result = %s/%s", first.RuleID, first.Level)
	}
	loc := first.Locations[0].PhysicalLocation
	if loc.ArtifactLocation.URI != "unsafe.py" || loc.Region == nil || loc.Region.StartLine != 1 {
		t.Errorf("location = %+v", loc)
	}
	second := run.Results[1]
	if second.RuleID != "critic/ml-verdict" || second.Level != "warning" {
		t.Errorf("second result = %s/%s", second.RuleID, second.Level)
	}
	if second.Locations[0].PhysicalLocation.Region != nil {
		t.Error("finding without a line should have no region")
	}
}

func TestContentType(t *testing.T) {
	tests := map[string]string{
		"json":   "application/json; charset=utf-8",
		"legacy": "text/html; charset=utf-8",
		"text":   "text/plain; charset=utf-8",
	}
	for format, want := range tests {
		if got := ContentType(format); got != want {
			t.Errorf("ContentType(%q) = %q, want %q", format, got, want)
		}
	}
}
