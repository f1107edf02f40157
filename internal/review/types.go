package review

// Severity represents the severity level of a finding.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// SeverityRank returns a numeric rank for sorting (higher = more severe).
func SeverityRank(s Severity) int {
	switch s {
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 1
	default:
		return 0
	}
}

// MeetsThreshold returns true if severity is at or above the threshold.
func MeetsThreshold(s Severity, threshold string) bool {
	if threshold == "none" || threshold == "" {
		return false
	}
	return SeverityRank(s) >= SeverityRank(Severity(threshold))
}

// ValidSeverity reports whether s names a severity level.
func ValidSeverity(s string) bool {
	return SeverityRank(Severity(s)) > 0
}

// Kind tags what a finding describes.
type Kind string

const (
	KindSyntaxError  Kind = "syntax-error"
	KindStaticIssue  Kind = "static-issue"
	KindMetric       Kind = "metric"
	KindComplexity   Kind = "complexity-entry"
	KindVerdict      Kind = "ml-verdict"
	KindRuntimeError Kind = "runtime-error"
	KindAdvisory     Kind = "advisory"
)

// Finding is one line of analysis output. Message is the rendered text;
// Source, when set, is the literal offending line echoed below it.
type Finding struct {
	Kind     Kind     `json:"kind"`
	Line     int      `json:"line,omitempty"`
	Message  string   `json:"message"`
	Source   string   `json:"source,omitempty"`
	Rule     string   `json:"rule,omitempty"`
	Severity Severity `json:"severity,omitempty"`
	Grade    string   `json:"grade,omitempty"`
	Score    float64  `json:"score,omitempty"`
}

// StageID names a pipeline stage.
type StageID string

const (
	StageSyntax          StageID = "syntax"
	StagePatterns        StageID = "patterns"
	StageMaintainability StageID = "maintainability"
	StageComplexity      StageID = "complexity"
	StageClassifier      StageID = "classifier"
	StageExecution       StageID = "execution"
	StageAdvisory        StageID = "advisory"
)

// StageOrder is the fixed order of stages in a report.
var StageOrder = []StageID{
	StageSyntax,
	StagePatterns,
	StageMaintainability,
	StageComplexity,
	StageClassifier,
	StageExecution,
	StageAdvisory,
}

// Status is the outcome of one stage.
type Status string

const (
	StatusSuccess Status = "success"
	StatusSkipped Status = "skipped"
	StatusFailed  Status = "failed"
)

// StageResult is what one stage contributed to a report.
type StageResult struct {
	Stage      StageID   `json:"stage"`
	Title      string    `json:"title"`
	Status     Status    `json:"status"`
	Findings   []Finding `json:"findings"`
	Reason     string    `json:"reason,omitempty"`
	DurationMs int64     `json:"durationMs"`
}

// InputInfo describes what was analyzed.
type InputInfo struct {
	Name  string `json:"name,omitempty"`
	Lines int    `json:"lines"`
	Bytes int    `json:"bytes"`
}

// SeverityCounts holds counts by severity level.
type SeverityCounts struct {
	Low    int `json:"low"`
	Medium int `json:"medium"`
	High   int `json:"high"`
}

// Summary provides an overview of findings.
type Summary struct {
	Findings        int            `json:"findings"`
	Counts          SeverityCounts `json:"counts"`
	HighestSeverity Severity       `json:"highestSeverity"`
}

// Timing contains performance metrics.
type Timing struct {
	TotalMs int64 `json:"totalMs"`
}

// Report is the top-level output structure.
type Report struct {
	Tool    string        `json:"tool"`
	Version string        `json:"version"`
	RunID   string        `json:"runId"`
	Input   InputInfo     `json:"input"`
	State   State         `json:"state"`
	Results []StageResult `json:"results"`
	Summary Summary       `json:"summary"`
	Timing  Timing        `json:"timing"`
}

// Findings returns every finding of the report in stage order.
func (r *Report) Findings() []Finding {
	var all []Finding
	for _, res := range r.Results {
		all = append(all, res.Findings...)
	}
	return all
}

// Result returns the result of stage id.
func (r *Report) Result(id StageID) (StageResult, bool) {
	for _, res := range r.Results {
		if res.Stage == id {
			return res, true
		}
	}
	return StageResult{}, false
}

// ComputeSummary calculates the summary from findings.
func ComputeSummary(findings []Finding) Summary {
	s := Summary{Findings: len(findings)}
	for _, f := range findings {
		switch f.Severity {
		case SeverityLow:
			s.Counts.Low++
		case SeverityMedium:
			s.Counts.Medium++
		case SeverityHigh:
			s.Counts.High++
		}
		if SeverityRank(f.Severity) > SeverityRank(s.HighestSeverity) {
			s.HighestSeverity = f.Severity
		}
	}
	return s
}
