package output

import (
	"fmt"
	"io"

	"github.com/owenrumney/go-sarif/v2/sarif"

	"github.com/dshills/critic/internal/patterns"
	"github.com/dshills/critic/internal/review"
)

const informationURI = "https://github.com/dshills/critic"

// kindDescriptions describe the rules of findings that carry no rule code.
var kindDescriptions = map[review.Kind]string{
	review.KindSyntaxError:  "The source does not parse as Python.",
	review.KindRuntimeError: "Executing the source raised an exception or hit the time limit.",
	review.KindVerdict:      "The learned classifier flagged the source as risky.",
	review.KindComplexity:   "A function has high cyclomatic complexity.",
	review.KindMetric:       "The module has a low maintainability index.",
	review.KindStaticIssue:  "A static pattern rule matched.",
	review.KindAdvisory:     "Advisory text.",
}

// SARIFWriter outputs actionable findings (those with a severity) in SARIF
// v2.1.0 format.
type SARIFWriter struct {
	Catalog *patterns.Catalog
}

func (s *SARIFWriter) Write(w io.Writer, report *review.Report) error {
	catalog := s.Catalog
	if catalog == nil {
		c, err := patterns.LoadCatalog()
		if err != nil {
			return err
		}
		catalog = c
	}

	doc, err := sarif.New(sarif.Version210)
	if err != nil {
		return fmt.Errorf("creating SARIF report: %w", err)
	}
	run := sarif.NewRunWithInformationURI(review.Tool, informationURI)

	uri := report.Input.Name
	if uri == "" {
		uri = "stdin"
	}

	for _, f := range report.Findings() {
		if f.Severity == "" {
			continue
		}
		rule := run.AddRule(ruleID(f)).
			WithDescription(ruleDescription(catalog, f)).
			WithDefaultConfiguration(&sarif.ReportingConfiguration{
				Level: severityToLevel(f.Severity),
			})

		physical := sarif.NewPhysicalLocation().
			WithArtifactLocation(sarif.NewArtifactLocation().WithUri(uri))
		if f.Line > 0 {
			physical = physical.WithRegion(sarif.NewRegion().WithStartLine(f.Line))
		}

		result := sarif.NewRuleResult(rule.ID).
			WithMessage(sarif.NewTextMessage(f.Message)).
			WithLevel(severityToLevel(f.Severity)).
			WithLocations([]*sarif.Location{sarif.NewLocation().WithPhysicalLocation(physical)})
		run.AddResult(result)
	}

	doc.AddRun(run)
	if err := doc.PrettyWrite(w); err != nil {
		return fmt.Errorf("writing SARIF: %w", err)
	}
	return nil
}

// ruleID is the pattern code, or critic/<kind> for findings without one.
func ruleID(f review.Finding) string {
	if f.Rule != "" {
		return f.Rule
	}
	return review.Tool + "/" + string(f.Kind)
}

func ruleDescription(catalog *patterns.Catalog, f review.Finding) string {
	if e, ok := catalog.Lookup(f.Rule); ok {
		return e.Title
	}
	return kindDescriptions[f.Kind]
}

// severityToLevel maps critic severity to SARIF level.
func severityToLevel(s review.Severity) string {
	switch s {
	case review.SeverityHigh:
		return "error"
	case review.SeverityMedium:
		return "warning"
	default:
		return "note"
	}
}
