package review

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"
	"golang.org/x/time/rate"

	"github.com/dshills/critic/internal/cache"
	"github.com/dshills/critic/internal/classifier"
	"github.com/dshills/critic/internal/patterns"
	"github.com/dshills/critic/internal/providers"
	"github.com/dshills/critic/internal/sandbox"
	"github.com/dshills/critic/internal/syntax"
	"github.com/dshills/critic/internal/telemetry"
)

// Tool is the report's tool name.
const Tool = "critic"

// ErrDecode is returned for input that is not valid UTF-8.
var ErrDecode = errors.New("input is not valid UTF-8 text")

const (
	defaultExecTimeout     = 5 * time.Second
	defaultAdvisoryTimeout = 60 * time.Second
)

// Options configures a Pipeline.
type Options struct {
	// Model is the trained classifier. Nil skips the classifier stage.
	Model classifier.Model
	// Executor runs the source. Nil skips the execution stage.
	Executor    sandbox.Executor
	ExecTimeout time.Duration

	// Advisor produces advisory text. Nil skips the advisory stage.
	Advisor         providers.AdvisoryClient
	AdvisoryModel   string
	AdvisoryTimeout time.Duration
	Cache           *cache.Cache
	Limiter         *rate.Limiter
	RedactSecrets   bool

	Rules   *Rules
	Version string
	Logger  hclog.Logger
}

// Pipeline analyzes sources. It is safe for concurrent use; every Analyze
// call owns its own input and parse tree.
type Pipeline struct {
	stages  []Stage
	version string
	logger  hclog.Logger
	rules   *Rules
}

// New builds a pipeline from opts.
func New(opts Options) (*Pipeline, error) {
	catalog, err := patterns.LoadCatalog()
	if err != nil {
		return nil, err
	}
	if opts.Logger == nil {
		opts.Logger = hclog.NewNullLogger()
	}
	if opts.ExecTimeout <= 0 {
		opts.ExecTimeout = defaultExecTimeout
	}
	if opts.AdvisoryTimeout <= 0 {
		opts.AdvisoryTimeout = defaultAdvisoryTimeout
	}
	if opts.Cache == nil {
		opts.Cache, _ = cache.New(false, "", 0)
	}
	if opts.Rules != nil {
		if err := opts.Rules.Validate(); err != nil {
			return nil, err
		}
	}

	var enabled []patterns.Rule
	for _, r := range patterns.DefaultRules() {
		if opts.Rules.Enabled(r.Code) {
			enabled = append(enabled, r)
		}
	}
	scanner := patterns.NewScanner(enabled...)

	p := &Pipeline{
		version: opts.Version,
		logger:  opts.Logger.Named("pipeline"),
		rules:   opts.Rules,
	}
	p.stages = []Stage{
		&patternStage{scanner: scanner, catalog: catalog},
		maintainabilityStage{},
		complexityStage{},
		&classifierStage{model: opts.Model},
		&executionStage{executor: opts.Executor, timeout: opts.ExecTimeout},
		&advisoryStage{
			client:  opts.Advisor,
			model:   opts.AdvisoryModel,
			cache:   opts.Cache,
			limiter: opts.Limiter,
			timeout: opts.AdvisoryTimeout,
			redact:  opts.RedactSecrets,
			rules:   opts.Rules,
			logger:  opts.Logger.Named("advisory"),
		},
	}
	return p, nil
}

// AnalyzeBytes decodes data as UTF-8 and analyzes it.
func (p *Pipeline) AnalyzeBytes(ctx context.Context, name string, data []byte) (*Report, error) {
	if !utf8.Valid(data) {
		return nil, ErrDecode
	}
	return p.Analyze(ctx, name, string(data))
}

// Analyze runs every stage over text and returns the report. An error means
// the pipeline itself could not run; problems in the source are findings.
func (p *Pipeline) Analyze(ctx context.Context, name, text string) (*Report, error) {
	if !utf8.ValidString(text) {
		return nil, ErrDecode
	}
	start := time.Now()
	in := NewInput(name, text)
	report := &Report{
		Tool:    Tool,
		Version: p.version,
		RunID:   uuid.NewString(),
		Input:   InputInfo{Name: name, Lines: len(in.Lines()), Bytes: len(text)},
		State:   StateStart,
	}
	logger := p.logger.With("run", report.RunID)

	report.State = StateValidating
	tree, gate, err := p.validate(ctx, in)
	if err != nil {
		telemetry.ObserveAnalysis("error")
		return nil, err
	}
	report.Results = append(report.Results, gate)

	if gate.Status == StatusFailed {
		report.State = StateSyntaxError
		logger.Debug("syntax gate rejected input", "line", gate.Findings[0].Line)
	} else {
		src := &Source{Input: in, Tree: tree}
		for _, st := range p.stages {
			report.State = stateOf(st.ID())
			if ctx.Err() != nil {
				res := StageResult{Stage: st.ID(), Title: st.Title(), Status: StatusSkipped, Reason: "canceled"}
				telemetry.ObserveStage(string(res.Stage), string(res.Status), 0)
				report.Results = append(report.Results, res)
				continue
			}
			res := p.runStage(ctx, logger, st, src)
			res.Findings = ApplySeverityOverrides(res.Findings, p.rules)
			report.Results = append(report.Results, res)
		}
		tree.Close()
		report.State = StateDone
	}

	report.Summary = ComputeSummary(report.Findings())
	report.Timing.TotalMs = time.Since(start).Milliseconds()
	telemetry.ObserveAnalysis(string(report.State))
	logger.Info("analysis complete",
		"state", report.State,
		"findings", report.Summary.Findings,
		"duration_ms", report.Timing.TotalMs)
	return report, nil
}

// validate runs the syntax gate. A syntax error yields a failed result, not
// an error; an error means the parser itself broke.
func (p *Pipeline) validate(ctx context.Context, in *Input) (*syntax.Tree, StageResult, error) {
	start := time.Now()
	res := StageResult{Stage: StageSyntax, Title: "Syntax Check", Status: StatusSuccess}

	tree, err := syntax.Parse(ctx, []byte(in.Text()))
	res.DurationMs = time.Since(start).Milliseconds()
	if err != nil {
		var synErr *syntax.Error
		if !errors.As(err, &synErr) {
			return nil, res, fmt.Errorf("syntax check: %w", err)
		}
		res.Status = StatusFailed
		res.Reason = synErr.Message
		res.Findings = []Finding{syntaxFinding(in, synErr)}
	}
	telemetry.ObserveStage(string(res.Stage), string(res.Status), time.Since(start))
	return tree, res, nil
}

// runStage runs st, converting a panic into a failed result.
func (p *Pipeline) runStage(ctx context.Context, logger hclog.Logger, st Stage, src *Source) (res StageResult) {
	start := time.Now()
	res = StageResult{Stage: st.ID(), Title: st.Title()}

	defer func() {
		if r := recover(); r != nil {
			logger.Error("stage panicked", "stage", st.ID(), "panic", r)
			res.Status = StatusFailed
			res.Reason = fmt.Sprintf("panic: %v", r)
			res.Findings = []Finding{failureFinding(st, res.Reason)}
		}
		d := time.Since(start)
		res.DurationMs = d.Milliseconds()
		telemetry.ObserveStage(string(res.Stage), string(res.Status), d)
	}()

	findings, err := st.Run(ctx, src)
	var sk *skipError
	switch {
	case err == nil:
		res.Status = StatusSuccess
		res.Findings = findings
	case errors.As(err, &sk):
		res.Status = StatusSkipped
		res.Reason = sk.reason
	default:
		logger.Warn("stage failed", "stage", st.ID(), "error", err)
		res.Status = StatusFailed
		res.Reason = err.Error()
		res.Findings = findings
		if len(res.Findings) == 0 {
			res.Findings = []Finding{failureFinding(st, res.Reason)}
		}
	}
	return res
}

func failureFinding(st Stage, reason string) Finding {
	return Finding{
		Kind:    stageKind(st.ID()),
		Message: fmt.Sprintf("❗ %s failed: %s", st.Title(), reason),
	}
}

func stageKind(id StageID) Kind {
	switch id {
	case StageSyntax:
		return KindSyntaxError
	case StagePatterns:
		return KindStaticIssue
	case StageMaintainability:
		return KindMetric
	case StageComplexity:
		return KindComplexity
	case StageClassifier:
		return KindVerdict
	case StageExecution:
		return KindRuntimeError
	default:
		return KindAdvisory
	}
}
