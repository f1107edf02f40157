package review

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/critic/internal/cache"
	"github.com/dshills/critic/internal/classifier"
	"github.com/dshills/critic/internal/providers"
	"github.com/dshills/critic/internal/sandbox"
)

type stubModel struct{ label classifier.Label }

func (m stubModel) Predict(classifier.FeatureVector) classifier.Label { return m.label }

type panicModel struct{}

func (panicModel) Predict(classifier.FeatureVector) classifier.Label { panic("boom") }

type fakeExecutor struct {
	outcome sandbox.Outcome
	err     error
	hook    func()
}

func (f *fakeExecutor) Run(ctx context.Context, code string, timeout time.Duration) (sandbox.Outcome, error) {
	if f.hook != nil {
		f.hook()
	}
	return f.outcome, f.err
}

type fakeAdvisor struct {
	text    string
	err     error
	calls   atomic.Int32
	prompts []string
}

func (f *fakeAdvisor) Name() string { return "fake" }

func (f *fakeAdvisor) Advise(ctx context.Context, req providers.AdviceRequest) (providers.AdviceResponse, error) {
	f.calls.Add(1)
	f.prompts = append(f.prompts, req.Prompt)
	if f.err != nil {
		return providers.AdviceResponse{}, f.err
	}
	return providers.AdviceResponse{Text: f.text}, nil
}

func newPipeline(t *testing.T, opts Options) *Pipeline {
	t.Helper()
	if opts.Model == nil {
		opts.Model = stubModel{label: classifier.Safe}
	}
	p, err := New(opts)
	require.NoError(t, err)
	return p
}

func stageIDs(results []StageResult) []StageID {
	ids := make([]StageID, 0, len(results))
	for _, r := range results {
		ids = append(ids, r.Stage)
	}
	return ids
}

func TestAnalyze_CleanFunction(t *testing.T) {
	p := newPipeline(t, Options{})
	report, err := p.Analyze(context.Background(), "add.py", "def add(a, b): return a + b")
	require.NoError(t, err)

	assert.Equal(t, StateDone, report.State)
	assert.Equal(t, StageOrder, stageIDs(report.Results))
	assert.NotEmpty(t, report.RunID)
	assert.Equal(t, Tool, report.Tool)

	lines := strings.Split(report.Render(SepText), "\n")
	require.Len(t, lines, 7, "rendered: %q", lines)
	assert.Equal(t, noStaticIssues, lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "📈 Maintainability Index: 88.4"), lines[1])
	assert.True(t, strings.HasSuffix(lines[1], "(A)"), lines[1])
	assert.Equal(t, "📊 Function Complexity:", lines[2])
	assert.Equal(t, "Function `add` → Score: 1, Grade: A", lines[3])
	assert.Equal(t, "🤖 ML Prediction: ✅ Looks safe", lines[4])
	assert.Equal(t, "⏭ Runtime Check skipped: disabled", lines[5])
	assert.Equal(t, "⏭ AI Suggestions skipped: disabled", lines[6])
}

func TestAnalyze_ShellCall(t *testing.T) {
	model, err := classifier.Default()
	require.NoError(t, err)
	p := newPipeline(t, Options{Model: model})

	src := "def unsafe(): os.system('rm -rf /')"
	report, err := p.Analyze(context.Background(), "", src)
	require.NoError(t, err)

	out := report.Render(SepHTML)
	assert.Contains(t, out, "⚠️ Issues Detected:<br>[Line 1] Shell command injection risk. Suggestion: Use `subprocess.run`<br>➡️ "+src)
	assert.Contains(t, out, "🤖 ML Prediction: ❌ Potential bug detected")
	assert.NotContains(t, out, noStaticIssues)

	pat, ok := report.Result(StagePatterns)
	require.True(t, ok)
	require.Len(t, pat.Findings, 1)
	assert.Equal(t, "PY-S001", pat.Findings[0].Rule)
	assert.Equal(t, SeverityHigh, pat.Findings[0].Severity)
	assert.Equal(t, SeverityHigh, report.Summary.HighestSeverity)
}

func TestAnalyze_SyntaxGate(t *testing.T) {
	exec := &fakeExecutor{}
	advisor := &fakeAdvisor{text: "unused"}
	p := newPipeline(t, Options{Executor: exec, Advisor: advisor})

	src := "def fail(): if True print('x')"
	report, err := p.Analyze(context.Background(), "", src)
	require.NoError(t, err)

	assert.Equal(t, StateSyntaxError, report.State)
	require.Len(t, report.Results, 1)
	res := report.Results[0]
	assert.Equal(t, StageSyntax, res.Stage)
	assert.Equal(t, StatusFailed, res.Status)
	require.Len(t, res.Findings, 1)
	assert.Equal(t, KindSyntaxError, res.Findings[0].Kind)
	assert.Equal(t, 1, res.Findings[0].Line)

	out := report.Render(SepHTML)
	assert.True(t, strings.HasPrefix(out, "❌ Syntax Error at Line 1: "), out)
	assert.True(t, strings.HasSuffix(out, "<br>➡️ "+src), out)
	assert.Equal(t, int32(0), advisor.calls.Load())
}

func TestAnalyze_SyntaxGateRejectsPython2(t *testing.T) {
	exec := &fakeExecutor{}
	p := newPipeline(t, Options{Executor: exec})

	report, err := p.Analyze(context.Background(), "", "x = 1\nprint x\n")
	require.NoError(t, err)

	assert.Equal(t, StateSyntaxError, report.State)
	require.Len(t, report.Results, 1)
	require.Len(t, report.Results[0].Findings, 1)
	assert.Equal(t, 2, report.Results[0].Findings[0].Line)
	assert.Equal(t, "❌ Syntax Error at Line 2: Missing parentheses in call to 'print'<br>➡️ print x", report.Render(SepHTML))
}

func TestAnalyze_EmptySource(t *testing.T) {
	p := newPipeline(t, Options{})
	report, err := p.Analyze(context.Background(), "", "")
	require.NoError(t, err)

	out := report.Render(SepText)
	assert.Contains(t, out, noStaticIssues)
	assert.Contains(t, out, "📈 Maintainability Index: 100.0 (A)")
	assert.Contains(t, out, "📊 Function Complexity: no function-level data")
}

func TestAnalyze_DecodeError(t *testing.T) {
	p := newPipeline(t, Options{})
	_, err := p.AnalyzeBytes(context.Background(), "bad.py", []byte{0xff, 0xfe, 'x'})
	assert.ErrorIs(t, err, ErrDecode)
}

func TestAnalyze_RuntimeFault(t *testing.T) {
	exec := &fakeExecutor{outcome: sandbox.Outcome{
		Status:  sandbox.StatusFault,
		Line:    2,
		Message: "ZeroDivisionError: division by zero",
	}}
	p := newPipeline(t, Options{Executor: exec})

	report, err := p.Analyze(context.Background(), "", "x = 1\ny = x / 0\n")
	require.NoError(t, err)

	res, ok := report.Result(StageExecution)
	require.True(t, ok)
	assert.Equal(t, StatusSuccess, res.Status)
	assert.Contains(t, report.Render(SepText),
		"⚙ Runtime Error on Line 2: ZeroDivisionError: division by zero\n➡️ y = x / 0")
}

func TestAnalyze_RuntimeFaultUnknownLine(t *testing.T) {
	exec := &fakeExecutor{outcome: sandbox.Outcome{Status: sandbox.StatusFault, Line: -1, Message: "SystemExit: 3"}}
	p := newPipeline(t, Options{Executor: exec})

	report, err := p.Analyze(context.Background(), "", "x = 1\n")
	require.NoError(t, err)
	assert.Contains(t, report.Render(SepText), "⚙ Runtime Error: SystemExit: 3\n➡️ "+Unavailable)
}

func TestAnalyze_RuntimeOutcomes(t *testing.T) {
	tests := []struct {
		name    string
		exec    *fakeExecutor
		status  Status
		message string
	}{
		{"clean", &fakeExecutor{outcome: sandbox.Outcome{Status: sandbox.StatusClean}}, StatusSuccess, "⚙ Runtime Check: ✅ No runtime errors"},
		{"timeout", &fakeExecutor{outcome: sandbox.Outcome{Status: sandbox.StatusTimeout}}, StatusSuccess, "⚙ Runtime Check: ⏱ execution timed out after 2s"},
		{"no interpreter", &fakeExecutor{err: sandbox.ErrInterpreterNotFound}, StatusFailed, "⚙ Runtime Check: ❗ interpreter not available"},
		{"broken", &fakeExecutor{err: errors.New("pipe closed")}, StatusFailed, "❗ Runtime Check failed: pipe closed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newPipeline(t, Options{Executor: tt.exec, ExecTimeout: 2 * time.Second})
			report, err := p.Analyze(context.Background(), "", "print(1)\n")
			require.NoError(t, err)

			res, _ := report.Result(StageExecution)
			assert.Equal(t, tt.status, res.Status)
			require.Len(t, res.Findings, 1)
			assert.Equal(t, tt.message, res.Findings[0].Message)
		})
	}
}

func TestAnalyze_PanicIsolated(t *testing.T) {
	p := newPipeline(t, Options{Model: panicModel{}})
	report, err := p.Analyze(context.Background(), "", "def add(a, b): return a + b")
	require.NoError(t, err)

	assert.Equal(t, StageOrder, stageIDs(report.Results))
	res, _ := report.Result(StageClassifier)
	assert.Equal(t, StatusFailed, res.Status)
	assert.Equal(t, "panic: boom", res.Reason)
	assert.Contains(t, report.Render(SepText), "❗ ML Prediction failed: panic: boom")

	mi, _ := report.Result(StageMaintainability)
	assert.Equal(t, StatusSuccess, mi.Status)
}

func TestAnalyze_AdvisoryFailureIsolated(t *testing.T) {
	advisor := &fakeAdvisor{err: errors.New("connection refused")}
	p := newPipeline(t, Options{Advisor: advisor})

	report, err := p.Analyze(context.Background(), "", "def add(a, b): return a + b")
	require.NoError(t, err)

	res, _ := report.Result(StageAdvisory)
	assert.Equal(t, StatusFailed, res.Status)
	out := report.Render(SepText)
	assert.Contains(t, out, "🧠 AI Suggestions (Fake):\nFake error: connection refused")
	assert.Contains(t, out, "Function `add` → Score: 1, Grade: A")
}

func TestAnalyze_AdvisoryCached(t *testing.T) {
	c, err := cache.New(true, t.TempDir(), 3600)
	require.NoError(t, err)
	advisor := &fakeAdvisor{text: "  Add a docstring.\n"}
	p := newPipeline(t, Options{Advisor: advisor, Cache: c, AdvisoryModel: "m"})

	for i := 0; i < 2; i++ {
		report, err := p.Analyze(context.Background(), "", "def add(a, b): return a + b")
		require.NoError(t, err)
		assert.Contains(t, report.Render(SepText), "🧠 AI Suggestions (Fake):\nAdd a docstring.")
	}
	assert.Equal(t, int32(1), advisor.calls.Load())
	require.Len(t, advisor.prompts, 1)
	assert.True(t, strings.HasPrefix(advisor.prompts[0], "You are an expert Python code reviewer.\n"))
	assert.Contains(t, advisor.prompts[0], "Code:\ndef add(a, b): return a + b\n")
}

func TestAnalyze_AdvisoryRedacts(t *testing.T) {
	advisor := &fakeAdvisor{text: "ok"}
	p := newPipeline(t, Options{Advisor: advisor, RedactSecrets: true})

	_, err := p.Analyze(context.Background(), "", "password = \"hunter2hunter2\"\n")
	require.NoError(t, err)
	require.Len(t, advisor.prompts, 1)
	assert.NotContains(t, advisor.prompts[0], "hunter2hunter2")
}

func TestAnalyze_CanceledMidway(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	exec := &fakeExecutor{outcome: sandbox.Outcome{Status: sandbox.StatusClean}, hook: cancel}
	advisor := &fakeAdvisor{text: "unused"}
	p := newPipeline(t, Options{Executor: exec, Advisor: advisor})

	report, err := p.Analyze(ctx, "", "print(1)\n")
	require.NoError(t, err)

	assert.Equal(t, StageOrder, stageIDs(report.Results))
	res, _ := report.Result(StageAdvisory)
	assert.Equal(t, StatusSkipped, res.Status)
	assert.Equal(t, "canceled", res.Reason)
	assert.Equal(t, int32(0), advisor.calls.Load())
}

func TestAnalyze_Rules(t *testing.T) {
	rules := &Rules{
		Disabled:          []string{"py-s003"},
		SeverityOverrides: map[string]string{"PY-S001": "low", "ml-verdict": "high"},
	}
	p := newPipeline(t, Options{Rules: rules, Model: stubModel{label: classifier.Risky}})

	report, err := p.Analyze(context.Background(), "", "os.system(cmd)\neval(x)\n")
	require.NoError(t, err)

	pat, _ := report.Result(StagePatterns)
	require.Len(t, pat.Findings, 1)
	assert.Equal(t, "PY-S001", pat.Findings[0].Rule)
	assert.Equal(t, SeverityLow, pat.Findings[0].Severity)

	verdict, _ := report.Result(StageClassifier)
	require.Len(t, verdict.Findings, 1)
	assert.Equal(t, SeverityHigh, verdict.Findings[0].Severity)
}

func TestAnalyze_AllRulesDisabled(t *testing.T) {
	rules := &Rules{Disabled: []string{"PY-S001", "PY-S002", "PY-S003", "PY-D001"}}
	p := newPipeline(t, Options{Rules: rules})

	report, err := p.Analyze(context.Background(), "", "def unsafe(): os.system('rm -rf /')")
	require.NoError(t, err)

	pat, _ := report.Result(StagePatterns)
	require.Len(t, pat.Findings, 1)
	assert.Equal(t, noStaticIssues, pat.Findings[0].Message)
	assert.Empty(t, pat.Findings[0].Rule)
}

func TestAnalyze_DisabledRuleSuppressed(t *testing.T) {
	p := newPipeline(t, Options{Rules: &Rules{Disabled: []string{"PY-S001"}}})

	report, err := p.Analyze(context.Background(), "", "def unsafe(): os.system('rm -rf /')")
	require.NoError(t, err)

	for _, f := range report.Findings() {
		assert.NotEqual(t, "PY-S001", f.Rule)
	}
}

func TestNew_InvalidRules(t *testing.T) {
	_, err := New(Options{Rules: &Rules{SeverityOverrides: map[string]string{"PY-S001": "critical"}}})
	assert.Error(t, err)
}

func TestAnalyze_Idempotent(t *testing.T) {
	p := newPipeline(t, Options{})
	src := "def a(x):\n    if x:\n        return 1\n    return 2\n"
	r1, err := p.Analyze(context.Background(), "", src)
	require.NoError(t, err)
	r2, err := p.Analyze(context.Background(), "", src)
	require.NoError(t, err)

	assert.Equal(t, r1.Render(SepHTML), r2.Render(SepHTML))
	assert.Equal(t, r1.Render(SepText), Render(r1.Results, SepText))
	assert.NotEqual(t, r1.RunID, r2.RunID)
}
