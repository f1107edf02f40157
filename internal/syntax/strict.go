package syntax

import (
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
)

// The tree-sitter grammar still accepts a few Python 2 forms and target
// shapes that CPython 3 rejects. strictCheck reports the first of them so
// the gate agrees with the interpreter.

var augTargetNames = map[string]string{
	"pattern_list":    "tuple",
	"expression_list": "tuple",
	"tuple_pattern":   "tuple",
	"tuple":           "tuple",
	"list_pattern":    "list",
	"list":            "list",
}

var delTargetNames = map[string]string{
	"call":                   "function call",
	"string":                 "literal",
	"concatenated_string":    "literal",
	"integer":                "literal",
	"float":                  "literal",
	"true":                   "literal",
	"false":                  "literal",
	"none":                   "literal",
	"binary_operator":        "expression",
	"unary_operator":         "expression",
	"boolean_operator":       "expression",
	"comparison_operator":    "expression",
	"conditional_expression": "conditional expression",
	"lambda":                 "lambda",
	"await":                  "await expression",
	"list_comprehension":     "list comprehension",
	"generator_expression":   "generator expression",
	"dictionary":             "dict literal",
	"set":                    "set display",
}

func strictCheck(root *sitter.Node, src []byte) *Error {
	var found *Error
	Walk(root, func(n *sitter.Node) bool {
		if found != nil {
			return false
		}
		if msg, at := checkNode(n, src); msg != "" {
			pos := at.StartPoint()
			found = &Error{Line: int(pos.Row) + 1, Column: int(pos.Column) + 1, Message: msg}
			return false
		}
		return true
	})
	return found
}

// checkNode returns a message and the offending node, or "" when n is fine.
func checkNode(n *sitter.Node, src []byte) (string, *sitter.Node) {
	switch n.Type() {
	case "print_statement":
		return "Missing parentheses in call to 'print'", n
	case "exec_statement":
		return "Missing parentheses in call to 'exec'", n
	case "augmented_assignment":
		left := n.ChildByFieldName("left")
		if left != nil {
			if kind, bad := augTargetNames[left.Type()]; bad {
				return fmt.Sprintf("'%s' is an illegal expression for augmented assignment", kind), left
			}
		}
	case "delete_statement":
		for i := 0; i < int(n.NamedChildCount()); i++ {
			if msg, at := checkDelTarget(n.NamedChild(i)); msg != "" {
				return msg, at
			}
		}
	case "for_in_clause":
		if comma := unparenthesizedIterable(n); comma != nil {
			if p := n.Parent(); p != nil && p.Type() == "generator_expression" {
				return "Generator expression must be parenthesized", comma
			}
			return "invalid syntax near ','", comma
		}
	case "comparison_operator":
		for i := 0; i < int(n.ChildCount()); i++ {
			if c := n.Child(i); !c.IsNamed() && c.Content(src) == "<>" {
				return "invalid syntax near '<>'", c
			}
		}
	}
	return "", nil
}

func checkDelTarget(n *sitter.Node) (string, *sitter.Node) {
	switch n.Type() {
	case "identifier", "keyword_identifier", "attribute", "subscript", "comment":
		return "", nil
	case "expression_list", "tuple", "list", "parenthesized_expression", "pattern_list",
		"tuple_pattern", "list_pattern":
		for i := 0; i < int(n.NamedChildCount()); i++ {
			if msg, at := checkDelTarget(n.NamedChild(i)); msg != "" {
				return msg, at
			}
		}
		return "", nil
	}
	if kind, ok := delTargetNames[n.Type()]; ok {
		return "cannot delete " + kind, n
	}
	return "", nil
}

// unparenthesizedIterable returns the first comma after the 'in' of a
// comprehension clause. Python 3 requires such a tuple to be parenthesized.
func unparenthesizedIterable(clause *sitter.Node) *sitter.Node {
	seenIn := false
	for i := 0; i < int(clause.ChildCount()); i++ {
		c := clause.Child(i)
		switch {
		case c.Type() == "in" && !c.IsNamed():
			seenIn = true
		case seenIn && c.Type() == ",":
			return c
		}
	}
	return nil
}
