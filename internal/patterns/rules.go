package patterns

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/dshills/critic/internal/redact"
)

// Rule codes.
const (
	CodeShellCommand   = "PY-S001"
	CodeHardcodedKey   = "PY-S002"
	CodeDynamicEval    = "PY-S003"
	CodeFunctionStruct = "PY-D001"
)

// Match is one rule hit.
type Match struct {
	Rule    string
	Line    int
	Message string
	Source  string
}

// Check inspects one line. index is 1-based.
type Check func(line string, index int) (Match, bool)

// Rule pairs a code with its check.
type Rule struct {
	Code  string
	Check Check
}

var evalCall = regexp.MustCompile(`(^|[^\w.])(eval|exec)\s*\(`)

// DefaultRules returns the built-in rules in evaluation order.
func DefaultRules() []Rule {
	return []Rule{
		{Code: CodeShellCommand, Check: shellCommand},
		{Code: CodeHardcodedKey, Check: hardcodedSecret},
		{Code: CodeDynamicEval, Check: dynamicEval},
		{Code: CodeFunctionStruct, Check: functionStructure},
	}
}

func shellCommand(line string, index int) (Match, bool) {
	if !strings.Contains(line, "os.system") {
		return Match{}, false
	}
	return Match{
		Rule:    CodeShellCommand,
		Line:    index,
		Message: fmt.Sprintf("[Line %d] Shell command injection risk. Suggestion: Use `subprocess.run`", index),
	}, true
}

func hardcodedSecret(line string, index int) (Match, bool) {
	kind, ok := redact.Detect(line)
	if !ok {
		return Match{}, false
	}
	return Match{
		Rule:    CodeHardcodedKey,
		Line:    index,
		Message: fmt.Sprintf("[Line %d] Hardcoded secret (%s). Suggestion: Load it from the environment", index, kind),
	}, true
}

func dynamicEval(line string, index int) (Match, bool) {
	m := evalCall.FindStringSubmatch(line)
	if m == nil {
		return Match{}, false
	}
	return Match{
		Rule:    CodeDynamicEval,
		Line:    index,
		Message: fmt.Sprintf("[Line %d] Dynamic code evaluation via `%s`. Suggestion: Use `ast.literal_eval` or explicit parsing", index, m[2]),
	}, true
}

// functionStructure flags def lines that lack a colon or are too short to
// carry a meaningful signature.
func functionStructure(line string, index int) (Match, bool) {
	stripped := strings.TrimSpace(line)
	fields := strings.Fields(stripped)
	if len(fields) < 2 || fields[0] != "def" {
		return Match{}, false
	}
	if !strings.Contains(line, "(") || !strings.Contains(line, ")") {
		return Match{}, false
	}
	if strings.Contains(line, ":") && len(stripped) >= 10 {
		return Match{}, false
	}
	name, _, _ := strings.Cut(fields[1], "(")
	return Match{
		Rule:    CodeFunctionStruct,
		Line:    index,
		Message: fmt.Sprintf("[Line %d] Function `%s` may lack docstring or structure.", index, name),
	}, true
}
