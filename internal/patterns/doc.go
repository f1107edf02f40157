// Package patterns runs line-oriented heuristic rules over Python source.
//
// Each Rule is a tagged predicate over one line and its 1-based index. The
// Scanner applies every rule to every line in order, so findings come out
// line-major and, within a line, in rule order. Rule metadata (category,
// title, severity, markdown description) is kept in an embedded TOML catalog
// that report writers and the CLI read.
package patterns
