// Package metrics computes maintainability and cyclomatic complexity for a
// parsed Python module.
//
// Both scorers walk the tree-sitter tree produced by the syntax package. The
// maintainability index combines Halstead volume, total cyclomatic
// complexity, logical line count, and comment density into a 0-100 score.
// Complexity is reported per function, with methods and nested functions
// named by their dotted path.
package metrics
