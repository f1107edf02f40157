package patterns

// Scanner applies an ordered rule list to source lines.
type Scanner struct {
	rules []Rule
}

// NewScanner returns a scanner over exactly rules. A scanner with no rules
// never matches.
func NewScanner(rules ...Rule) *Scanner {
	return &Scanner{rules: append([]Rule(nil), rules...)}
}

// DefaultScanner returns a scanner over DefaultRules.
func DefaultScanner() *Scanner {
	return NewScanner(DefaultRules()...)
}

// Register appends a rule after the existing ones.
func (s *Scanner) Register(r Rule) {
	s.rules = append(s.rules, r)
}

// Rules returns the rule codes in evaluation order.
func (s *Scanner) Rules() []string {
	codes := make([]string, len(s.rules))
	for i, r := range s.rules {
		codes[i] = r.Code
	}
	return codes
}

// Scan runs every rule on every line. Matches are ordered by line, then by
// rule order. Source is filled with the offending line.
func (s *Scanner) Scan(lines []string) []Match {
	var matches []Match
	for i, line := range lines {
		for _, r := range s.rules {
			m, ok := r.Check(line, i+1)
			if !ok {
				continue
			}
			if m.Rule == "" {
				m.Rule = r.Code
			}
			m.Source = line
			matches = append(matches, m)
		}
	}
	return matches
}
