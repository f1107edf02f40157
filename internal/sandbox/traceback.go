package sandbox

import (
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

const tracebackHeader = "Traceback (most recent call last):"

var frameLine = regexp.MustCompile(`^\s*File "([^"]+)", line (\d+)`)

// Fault is a parsed interpreter traceback.
type Fault struct {
	Line    int
	Message string
}

// ParseTraceback reads the last traceback in stderr. Line is taken from the
// deepest frame whose file base name is file, or -1 when none is. Message is
// the exception line that closes the traceback.
func ParseTraceback(stderr, file string) (Fault, bool) {
	lines := strings.Split(strings.ReplaceAll(stderr, "\r\n", "\n"), "\n")
	start := -1
	for i, l := range lines {
		if strings.TrimSpace(l) == tracebackHeader {
			start = i
		}
	}
	if start < 0 {
		return Fault{}, false
	}

	fault := Fault{Line: -1}
	for _, l := range lines[start+1:] {
		if m := frameLine.FindStringSubmatch(l); m != nil {
			if filepath.Base(m[1]) == file {
				if n, err := strconv.Atoi(m[2]); err == nil {
					fault.Line = n
				}
			}
			continue
		}
		if l == "" || l[0] == ' ' || l[0] == '\t' {
			continue
		}
		fault.Message = strings.TrimSpace(l)
		break
	}
	if fault.Message == "" {
		fault.Message = "unknown error"
	}
	return fault, true
}
