package sandbox

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/hashicorp/go-hclog"
	"golang.org/x/sync/semaphore"
)

const (
	snippetName     = "snippet.py"
	maxStderrBytes  = 64 * 1024
	defaultMemoryMB = 256
	waitDelay       = time.Second
)

// driver executes the snippet with fresh globals so module-level code runs
// the way a bare exec would, without __main__ semantics.
const driver = `import sys
path = sys.argv[1]
with open(path, encoding="utf-8") as f:
    source = f.read()
exec(compile(source, path, "exec"), {})
`

// PythonOptions configures a Python executor.
type PythonOptions struct {
	Interpreter   string // default python3
	MemoryMB      int    // address-space limit, default 256
	MaxConcurrent int64  // default 4
	Logger        hclog.Logger
}

// Python executes sources with a local CPython interpreter.
type Python struct {
	interpreter string
	memoryMB    int
	sem         *semaphore.Weighted
	logger      hclog.Logger
}

// NewPython builds a Python executor, filling unset options with defaults.
func NewPython(opts PythonOptions) *Python {
	if opts.Interpreter == "" {
		opts.Interpreter = "python3"
	}
	if opts.MemoryMB <= 0 {
		opts.MemoryMB = defaultMemoryMB
	}
	if opts.MaxConcurrent <= 0 {
		opts.MaxConcurrent = 4
	}
	if opts.Logger == nil {
		opts.Logger = hclog.NewNullLogger()
	}
	return &Python{
		interpreter: opts.Interpreter,
		memoryMB:    opts.MemoryMB,
		sem:         semaphore.NewWeighted(opts.MaxConcurrent),
		logger:      opts.Logger.Named("sandbox"),
	}
}

// Run executes code and reports its outcome.
func (p *Python) Run(ctx context.Context, code string, timeout time.Duration) (Outcome, error) {
	path, err := exec.LookPath(p.interpreter)
	if err != nil {
		return Outcome{}, fmt.Errorf("%w: %s", ErrInterpreterNotFound, p.interpreter)
	}

	if err := p.sem.Acquire(ctx, 1); err != nil {
		return Outcome{}, fmt.Errorf("waiting for execution slot: %w", err)
	}
	defer p.sem.Release(1)

	dir, err := os.MkdirTemp("", "critic-sandbox-*")
	if err != nil {
		return Outcome{}, fmt.Errorf("creating sandbox dir: %w", err)
	}
	defer os.RemoveAll(dir)

	if err := os.WriteFile(filepath.Join(dir, snippetName), []byte(code), 0o600); err != nil {
		return Outcome{}, fmt.Errorf("writing snippet: %w", err)
	}

	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, path, "-I", "-B", "-c", driver, snippetName)
	cmd.Dir = dir
	cmd.Env = []string{
		"PATH=" + os.Getenv("PATH"),
		"HOME=" + dir,
		"TMPDIR=" + dir,
		"LANG=C.UTF-8",
	}
	stderr := &tailBuffer{limit: maxStderrBytes}
	cmd.Stdout = io.Discard
	cmd.Stderr = stderr
	cmd.WaitDelay = waitDelay
	configureCommand(cmd)

	p.logger.Debug("executing snippet", "interpreter", path, "timeout", timeout)

	start := time.Now()
	if err := cmd.Start(); err != nil {
		return Outcome{}, fmt.Errorf("starting interpreter: %w", err)
	}
	if err := limitProcess(cmd.Process.Pid, p.memoryMB, timeout); err != nil {
		p.logger.Warn("resource limits not applied", "error", err)
	}
	waitErr := cmd.Wait()
	duration := time.Since(start)

	if errors.Is(runCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
		p.logger.Debug("snippet timed out", "timeout", timeout)
		return Outcome{
			Status:   StatusTimeout,
			Line:     -1,
			Message:  fmt.Sprintf("%v after %s", ErrTimeout, timeout),
			Duration: duration,
		}, nil
	}
	if ctx.Err() != nil {
		return Outcome{}, ctx.Err()
	}

	if waitErr == nil {
		return Outcome{Status: StatusClean, Line: -1, Duration: duration}, nil
	}

	var exitErr *exec.ExitError
	if !errors.As(waitErr, &exitErr) {
		return Outcome{}, fmt.Errorf("running interpreter: %w", waitErr)
	}

	if fault, ok := ParseTraceback(stderr.String(), snippetName); ok {
		return Outcome{Status: StatusFault, Line: fault.Line, Message: fault.Message, Duration: duration}, nil
	}
	return Outcome{
		Status:   StatusFault,
		Line:     -1,
		Message:  fmt.Sprintf("interpreter exited: %v", exitErr),
		Duration: duration,
	}, nil
}

// tailBuffer keeps the last limit bytes written to it. A traceback is always
// at the end of stderr, so the head is what gets dropped.
type tailBuffer struct {
	limit int
	buf   []byte
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	t.buf = append(t.buf, p...)
	if over := len(t.buf) - t.limit; over > 0 {
		t.buf = append(t.buf[:0], t.buf[over:]...)
	}
	return len(p), nil
}

func (t *tailBuffer) String() string { return string(t.buf) }
