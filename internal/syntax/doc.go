// Package syntax validates Python source with the tree-sitter Python grammar.
//
// Parse is the gate of the review pipeline: a source that does not parse
// yields a *Error carrying the 1-based line and a short parser message, and
// nothing downstream runs. A source that parses yields a *Tree which the
// metric stages walk directly instead of parsing again.
package syntax
