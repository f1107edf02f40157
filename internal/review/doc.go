// Package review runs a single Python source through the analysis pipeline
// and assembles the report.
//
// The syntax stage is a gate: when the source does not parse, the report
// holds only the syntax error. Otherwise every later stage (pattern scan,
// maintainability, complexity, classifier, execution, advisory) runs in a
// fixed order and contributes exactly one StageResult, whether it succeeds,
// is skipped, fails, or panics. Rendering is a pure function of those
// results.
//
// Rules packs (rules.go) let callers disable pattern rules, override their
// severities, and add focus areas to the advisory prompt.
package review
