package redact

import (
	"regexp"
)

const placeholder = "[REDACTED]"

// detector is a named secret shape.
type detector struct {
	name    string
	pattern *regexp.Regexp
}

var detectors = []detector{
	{"api key", regexp.MustCompile(`(?i)(api[_-]?key|apikey|api[_-]?secret)\s*[:=]\s*["']?([A-Za-z0-9/+=_-]{20,})["']?`)},
	{"aws access key id", regexp.MustCompile(`AKIA[0-9A-Z]{16}`)},
	{"aws secret access key", regexp.MustCompile(`(?i)(aws[_-]?secret[_-]?access[_-]?key)\s*[:=]\s*["']?([A-Za-z0-9/+=]{40})["']?`)},
	{"credential assignment", regexp.MustCompile(`(?i)(secret|token|password|passwd|credential)\s*[:=]\s*["']([^"']{8,})["']`)},
	{"bearer token", regexp.MustCompile(`(?i)Bearer\s+[A-Za-z0-9._-]{20,}`)},
	{"jwt", regexp.MustCompile(`eyJ[A-Za-z0-9_-]{10,}\.eyJ[A-Za-z0-9_-]{10,}\.[A-Za-z0-9_-]{10,}`)},
	{"private key", regexp.MustCompile(`-----BEGIN\s+(RSA\s+)?PRIVATE KEY-----`)},
	{"github token", regexp.MustCompile(`gh[pousr]_[A-Za-z0-9_]{36,}`)},
	{"slack token", regexp.MustCompile(`xox[bporas]-[A-Za-z0-9-]{10,}`)},
	{"anthropic key", regexp.MustCompile(`sk-ant-[A-Za-z0-9_-]{20,}`)},
	{"openai key", regexp.MustCompile(`sk-[A-Za-z0-9]{20,}`)},
	{"database url", regexp.MustCompile(`(?i)(postgres|postgresql|mysql|mongodb(\+srv)?|redis|amqp)://[^:\s"']+:[^@\s"']+@`)},
	{"hex secret", regexp.MustCompile(`(?i)(key|secret|token)\s*[:=]\s*["']?[0-9a-f]{32,}["']?`)},
}

// Secrets replaces every detected secret in text with [REDACTED].
func Secrets(text string) string {
	result := text
	for _, d := range detectors {
		result = d.pattern.ReplaceAllLiteralString(result, placeholder)
	}
	return result
}

// Detect reports the kind of the first secret found in line.
func Detect(line string) (string, bool) {
	for _, d := range detectors {
		if d.pattern.MatchString(line) {
			return d.name, true
		}
	}
	return "", false
}

// Count returns how many secret matches text contains across all detectors.
func Count(text string) int {
	n := 0
	for _, d := range detectors {
		n += len(d.pattern.FindAllStringIndex(text, -1))
	}
	return n
}
