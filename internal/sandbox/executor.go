package sandbox

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrInterpreterNotFound means the configured interpreter is not on PATH.
	ErrInterpreterNotFound = errors.New("python interpreter not found")
	// ErrTimeout marks an execution stopped by its wall-clock limit.
	ErrTimeout = errors.New("execution timed out")
)

// Status classifies an execution outcome.
type Status string

const (
	StatusClean   Status = "clean"
	StatusFault   Status = "fault"
	StatusTimeout Status = "timeout"
)

// Outcome is the result of running a source to completion or to its limit.
// Line is the 1-based input line of the fault, or -1 when no frame of the
// input could be identified.
type Outcome struct {
	Status   Status
	Line     int
	Message  string
	Duration time.Duration
}

// Executor runs source text under a timeout. An error means the execution
// could not be attempted or observed; runtime faults and timeouts are
// reported through the Outcome.
type Executor interface {
	Run(ctx context.Context, code string, timeout time.Duration) (Outcome, error)
}
