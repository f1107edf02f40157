package review

import "strings"

// Unavailable stands in for a line that cannot be echoed.
const Unavailable = "<unavailable>"

// Input is the immutable source under analysis.
type Input struct {
	name  string
	text  string
	lines []string
}

// NewInput splits text into lines once. A trailing newline does not add an
// empty final line.
func NewInput(name, text string) *Input {
	var lines []string
	if text != "" {
		lines = strings.Split(strings.TrimSuffix(text, "\n"), "\n")
		for i, l := range lines {
			lines[i] = strings.TrimSuffix(l, "\r")
		}
	}
	return &Input{name: name, text: text, lines: lines}
}

// Name is the display name of the input, often a file name.
func (in *Input) Name() string { return in.name }

// Text returns the full source.
func (in *Input) Text() string { return in.text }

// Lines returns the source lines. Callers must not modify the slice.
func (in *Input) Lines() []string { return in.lines }

// LineAt returns 1-based line n, or Unavailable when n is out of range.
func (in *Input) LineAt(n int) string {
	if n < 1 || n > len(in.lines) {
		return Unavailable
	}
	return in.lines[n-1]
}
