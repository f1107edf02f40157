package review

import (
	"strings"

	"github.com/dshills/critic/internal/redact"
)

const advisoryPreamble = `You are an expert Python code reviewer.
Review the following code and provide:
- Bugs
- Suggestions
- Security risks
- Best practices
`

// BuildAdvisoryPrompt embeds code in the advisory template. Focus areas
// from rules, when present, go between the checklist and the code.
func BuildAdvisoryPrompt(code string, rules *Rules) string {
	var b strings.Builder
	b.WriteString(advisoryPreamble)
	b.WriteString(BuildFocusSection(rules))
	b.WriteString("\nCode:\n")
	b.WriteString(code)
	b.WriteString("\n")
	return b.String()
}

// AdvisorySource returns the code sent to the advisory model.
func AdvisorySource(code string, redactSecrets bool) string {
	if redactSecrets {
		return redact.Secrets(code)
	}
	return code
}
