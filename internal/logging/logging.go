// Package logging builds the hclog loggers used across critic and adapts
// them for the resty HTTP client.
package logging

import (
	"fmt"
	"io"
	"os"

	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-hclog"
)

// ParseLevel maps a level name to an hclog level. Unknown names fall back
// to warn.
func ParseLevel(name string) hclog.Level {
	lvl := hclog.LevelFromString(name)
	if lvl == hclog.NoLevel {
		return hclog.Warn
	}
	return lvl
}

// New returns a named logger writing to w (stderr when nil).
func New(name, level string, w io.Writer) hclog.Logger {
	if w == nil {
		w = os.Stderr
	}
	return hclog.New(&hclog.LoggerOptions{
		Name:   name,
		Output: w,
		Level:  ParseLevel(level),
	})
}

// restyAdapter forwards resty's printf-style logging to an hclog.Logger.
type restyAdapter struct {
	logger hclog.Logger
}

// Resty adapts logger to the resty.Logger interface.
func Resty(logger hclog.Logger) resty.Logger {
	return &restyAdapter{logger: logger}
}

func (a *restyAdapter) Errorf(format string, v ...interface{}) {
	a.logger.Error(fmt.Sprintf(format, v...))
}

func (a *restyAdapter) Warnf(format string, v ...interface{}) {
	a.logger.Warn(fmt.Sprintf(format, v...))
}

func (a *restyAdapter) Debugf(format string, v ...interface{}) {
	a.logger.Debug(fmt.Sprintf(format, v...))
}
