//go:build !linux

package sandbox

import (
	"os/exec"
	"time"
)

func configureCommand(cmd *exec.Cmd) {}

func limitProcess(pid, memoryMB int, timeout time.Duration) error { return nil }
