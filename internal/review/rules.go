package review

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// Rules represents a rules pack loaded from --rules.
type Rules struct {
	// Disabled lists pattern rule codes that are not scanned for.
	Disabled []string `json:"disabled,omitempty"`
	// SeverityOverrides maps a rule code or finding kind to a severity.
	SeverityOverrides map[string]string `json:"severityOverrides,omitempty"`
	// Focus areas are appended to the advisory prompt.
	Focus []string `json:"focus,omitempty"`
}

// LoadRules loads a rules file from disk. Returns nil Rules and nil error if path is empty.
func LoadRules(path string) (*Rules, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading rules file: %w", err)
	}
	var rules Rules
	if err := json.Unmarshal(data, &rules); err != nil {
		return nil, fmt.Errorf("parsing rules file: %w", err)
	}
	if err := rules.Validate(); err != nil {
		return nil, err
	}
	return &rules, nil
}

// Validate checks that every override names a known severity.
func (r *Rules) Validate() error {
	for key, sev := range r.SeverityOverrides {
		if !ValidSeverity(sev) {
			return fmt.Errorf("rules: severity override for %s: unknown severity %q", key, sev)
		}
	}
	return nil
}

// Enabled reports whether pattern rule code is scanned for.
func (r *Rules) Enabled(code string) bool {
	if r == nil {
		return true
	}
	for _, d := range r.Disabled {
		if strings.EqualFold(d, code) {
			return false
		}
	}
	return true
}

// BuildFocusSection returns the advisory prompt lines derived from rules.
func BuildFocusSection(rules *Rules) string {
	if rules == nil || len(rules.Focus) == 0 {
		return ""
	}
	return fmt.Sprintf("\nFocus areas: %s. Prioritize findings in these areas.\n",
		strings.Join(rules.Focus, ", "))
}

// ApplySeverityOverrides rewrites finding severities. A rule code override
// wins over a kind override.
func ApplySeverityOverrides(findings []Finding, rules *Rules) []Finding {
	if rules == nil || len(rules.SeverityOverrides) == 0 {
		return findings
	}

	for i := range findings {
		if f := findings[i]; f.Rule != "" {
			if override, ok := rules.SeverityOverrides[f.Rule]; ok {
				findings[i].Severity = Severity(override)
				continue
			}
		}
		if override, ok := rules.SeverityOverrides[string(findings[i].Kind)]; ok {
			findings[i].Severity = Severity(override)
		}
	}
	return findings
}
