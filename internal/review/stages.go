package review

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"
	"golang.org/x/time/rate"

	"github.com/dshills/critic/internal/cache"
	"github.com/dshills/critic/internal/classifier"
	"github.com/dshills/critic/internal/metrics"
	"github.com/dshills/critic/internal/patterns"
	"github.com/dshills/critic/internal/providers"
	"github.com/dshills/critic/internal/sandbox"
	"github.com/dshills/critic/internal/syntax"
	"github.com/dshills/critic/internal/telemetry"
)

const noStaticIssues = "✅ No static issues found."

// Source is a validated input together with its parse tree.
type Source struct {
	Input *Input
	Tree  *syntax.Tree
}

// Stage is one analysis step after the syntax gate.
type Stage interface {
	ID() StageID
	Title() string
	// Run returns the stage findings. A skipError marks the stage skipped;
	// any other error marks it failed, and findings returned alongside the
	// error describe the failure.
	Run(ctx context.Context, src *Source) ([]Finding, error)
}

type skipError struct{ reason string }

func (e *skipError) Error() string { return e.reason }

func skip(reason string) error { return &skipError{reason: reason} }

func syntaxFinding(in *Input, e *syntax.Error) Finding {
	return Finding{
		Kind:     KindSyntaxError,
		Line:     e.Line,
		Message:  fmt.Sprintf("❌ Syntax Error at Line %d: %s", e.Line, e.Message),
		Source:   in.LineAt(e.Line),
		Severity: SeverityHigh,
	}
}

type patternStage struct {
	scanner *patterns.Scanner
	catalog *patterns.Catalog
}

func (s *patternStage) ID() StageID   { return StagePatterns }
func (s *patternStage) Title() string { return "Static Analysis" }

func (s *patternStage) Run(_ context.Context, src *Source) ([]Finding, error) {
	matches := s.scanner.Scan(src.Input.Lines())
	if len(matches) == 0 {
		return []Finding{{Kind: KindStaticIssue, Message: noStaticIssues}}, nil
	}
	findings := make([]Finding, 0, len(matches))
	for _, m := range matches {
		f := Finding{
			Kind:     KindStaticIssue,
			Line:     m.Line,
			Message:  m.Message,
			Source:   m.Source,
			Rule:     m.Rule,
			Severity: SeverityMedium,
		}
		if e, ok := s.catalog.Lookup(m.Rule); ok && ValidSeverity(e.Severity) {
			f.Severity = Severity(e.Severity)
		}
		findings = append(findings, f)
	}
	return findings, nil
}

type maintainabilityStage struct{}

func (maintainabilityStage) ID() StageID   { return StageMaintainability }
func (maintainabilityStage) Title() string { return "Maintainability Index" }

func (maintainabilityStage) Run(_ context.Context, src *Source) ([]Finding, error) {
	m := metrics.ComputeMaintainability(src.Tree)
	return []Finding{{
		Kind:     KindMetric,
		Message:  fmt.Sprintf("📈 Maintainability Index: %s (%s)", formatIndex(m.Index), m.Grade),
		Grade:    m.Grade,
		Score:    m.Index,
		Severity: gradeSeverity(m.Grade),
	}}, nil
}

// formatIndex rounds to two decimals and keeps one decimal on whole numbers.
func formatIndex(v float64) string {
	s := strconv.FormatFloat(v, 'f', 2, 64)
	s = strings.TrimRight(s, "0")
	if strings.HasSuffix(s, ".") {
		s += "0"
	}
	return s
}

func gradeSeverity(grade string) Severity {
	if grade == "C" {
		return SeverityLow
	}
	return ""
}

type complexityStage struct{}

func (complexityStage) ID() StageID   { return StageComplexity }
func (complexityStage) Title() string { return "Function Complexity" }

func (complexityStage) Run(_ context.Context, src *Source) ([]Finding, error) {
	fns := metrics.Functions(src.Tree)
	findings := make([]Finding, 0, len(fns))
	for _, fn := range fns {
		findings = append(findings, Finding{
			Kind:     KindComplexity,
			Line:     fn.Line,
			Message:  fmt.Sprintf("Function `%s` → Score: %d, Grade: %s", fn.Name, fn.Complexity, fn.Grade),
			Grade:    fn.Grade,
			Score:    float64(fn.Complexity),
			Severity: gradeSeverity(fn.Grade),
		})
	}
	return findings, nil
}

type classifierStage struct {
	model classifier.Model
}

func (s *classifierStage) ID() StageID   { return StageClassifier }
func (s *classifierStage) Title() string { return "ML Prediction" }

func (s *classifierStage) Run(_ context.Context, src *Source) ([]Finding, error) {
	if s.model == nil {
		return nil, skip("no model loaded")
	}
	label := s.model.Predict(classifier.Extract(src.Input.Text()))
	if label == classifier.Risky {
		return []Finding{{
			Kind:     KindVerdict,
			Message:  "🤖 ML Prediction: ❌ Potential bug detected",
			Grade:    label.String(),
			Severity: SeverityMedium,
		}}, nil
	}
	return []Finding{{
		Kind:    KindVerdict,
		Message: "🤖 ML Prediction: ✅ Looks safe",
		Grade:   label.String(),
	}}, nil
}

type executionStage struct {
	executor sandbox.Executor
	timeout  time.Duration
}

func (s *executionStage) ID() StageID   { return StageExecution }
func (s *executionStage) Title() string { return "Runtime Check" }

func (s *executionStage) Run(ctx context.Context, src *Source) ([]Finding, error) {
	if s.executor == nil {
		return nil, skip("disabled")
	}
	out, err := s.executor.Run(ctx, src.Input.Text(), s.timeout)
	if err != nil {
		if errors.Is(err, sandbox.ErrInterpreterNotFound) {
			return []Finding{{
				Kind:    KindRuntimeError,
				Message: "⚙ Runtime Check: ❗ interpreter not available",
			}}, err
		}
		return nil, err
	}

	switch out.Status {
	case sandbox.StatusFault:
		f := Finding{
			Kind:     KindRuntimeError,
			Line:     out.Line,
			Severity: SeverityHigh,
		}
		if out.Line > 0 {
			f.Message = fmt.Sprintf("⚙ Runtime Error on Line %d: %s", out.Line, out.Message)
			f.Source = src.Input.LineAt(out.Line)
		} else {
			f.Line = 0
			f.Message = fmt.Sprintf("⚙ Runtime Error: %s", out.Message)
			f.Source = Unavailable
		}
		return []Finding{f}, nil
	case sandbox.StatusTimeout:
		return []Finding{{
			Kind:     KindRuntimeError,
			Message:  fmt.Sprintf("⚙ Runtime Check: ⏱ execution timed out after %s", s.timeout),
			Severity: SeverityMedium,
		}}, nil
	default:
		return []Finding{{Kind: KindRuntimeError, Message: "⚙ Runtime Check: ✅ No runtime errors"}}, nil
	}
}

type advisoryStage struct {
	client  providers.AdvisoryClient
	model   string
	cache   *cache.Cache
	limiter *rate.Limiter
	timeout time.Duration
	redact  bool
	rules   *Rules
	logger  hclog.Logger
}

func (s *advisoryStage) ID() StageID { return StageAdvisory }

func (s *advisoryStage) Title() string {
	if s.client == nil {
		return "AI Suggestions"
	}
	return fmt.Sprintf("AI Suggestions (%s)", capitalize(s.client.Name()))
}

func (s *advisoryStage) Run(ctx context.Context, src *Source) ([]Finding, error) {
	if s.client == nil {
		return nil, skip("disabled")
	}
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	code := AdvisorySource(src.Input.Text(), s.redact)
	prompt := BuildAdvisoryPrompt(code, s.rules)
	key := cache.Key(s.client.Name(), s.model, prompt)

	text, hit, err := s.cache.Fetch(key, s.client.Name(), s.model, func() (string, error) {
		if s.limiter != nil {
			if err := s.limiter.Wait(ctx); err != nil {
				return "", fmt.Errorf("waiting for rate limiter: %w", err)
			}
		}
		resp, err := s.client.Advise(ctx, providers.AdviceRequest{Prompt: prompt})
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(resp.Text), nil
	})
	if s.cache.Enabled() {
		telemetry.ObserveAdvisoryCache(hit)
	}
	if err != nil {
		return []Finding{{
			Kind:    KindAdvisory,
			Message: fmt.Sprintf("%s error: %v", capitalize(s.client.Name()), err),
		}}, err
	}
	s.logger.Debug("advisory text received", "provider", s.client.Name(), "cached", hit, "chars", len(text))
	return []Finding{{Kind: KindAdvisory, Message: text}}, nil
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
