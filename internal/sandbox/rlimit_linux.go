//go:build linux

package sandbox

import (
	"fmt"
	"os/exec"
	"syscall"
	"time"

	"golang.org/x/sys/unix"
)

const maxFileBytes = 16 << 20

// configureCommand puts the interpreter in its own process group so a
// timeout kills anything it spawned.
func configureCommand(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		return unix.Kill(-cmd.Process.Pid, unix.SIGKILL)
	}
}

// limitProcess caps address space, CPU seconds and written file size of pid.
// Limits land just after start; allocations made before that are not capped.
func limitProcess(pid, memoryMB int, timeout time.Duration) error {
	mem := uint64(memoryMB) << 20
	cpu := uint64(timeout/time.Second) + 1
	limits := []struct {
		name     string
		resource int
		value    uint64
	}{
		{"address space", unix.RLIMIT_AS, mem},
		{"cpu", unix.RLIMIT_CPU, cpu},
		{"file size", unix.RLIMIT_FSIZE, maxFileBytes},
	}
	for _, l := range limits {
		rl := unix.Rlimit{Cur: l.value, Max: l.value}
		if err := unix.Prlimit(pid, l.resource, &rl, nil); err != nil {
			return fmt.Errorf("setting %s limit: %w", l.name, err)
		}
	}
	return nil
}
