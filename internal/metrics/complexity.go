package metrics

import (
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/dshills/critic/internal/syntax"
)

// FunctionScore is the cyclomatic complexity of one function.
type FunctionScore struct {
	Name       string `json:"name"`
	Line       int    `json:"line"`
	Complexity int    `json:"complexity"`
	Grade      string `json:"grade"`
}

// ComplexityGrade maps a complexity score to A (<=5), B (<=10) or C.
func ComplexityGrade(c int) string {
	switch {
	case c <= 5:
		return "A"
	case c <= 10:
		return "B"
	default:
		return "C"
	}
}

// Functions scores every function definition in document order. Methods are
// named Class.method and nested functions outer.inner. A nested function's
// branches count toward itself only.
func Functions(tree *syntax.Tree) []FunctionScore {
	var scores []FunctionScore
	var visit func(n *sitter.Node, prefix string)
	visit = func(n *sitter.Node, prefix string) {
		switch n.Type() {
		case "function_definition":
			name := prefix + nameOf(tree, n)
			c := 1 + decisions(n.ChildByFieldName("body"))
			scores = append(scores, FunctionScore{
				Name:       name,
				Line:       int(n.StartPoint().Row) + 1,
				Complexity: c,
				Grade:      ComplexityGrade(c),
			})
			visitChildren(n, name+".", visit)
		case "class_definition":
			visitChildren(n, prefix+nameOf(tree, n)+".", visit)
		default:
			visitChildren(n, prefix, visit)
		}
	}
	visit(tree.Root(), "")
	return scores
}

// TotalComplexity is the module-level complexity used by the maintainability
// index: one for the module plus every function's score plus decision points
// outside any function.
func TotalComplexity(tree *syntax.Tree) int {
	total := 1 + decisions(tree.Root())
	for _, f := range Functions(tree) {
		total += f.Complexity
	}
	return total
}

func visitChildren(n *sitter.Node, prefix string, visit func(*sitter.Node, string)) {
	for i := 0; i < int(n.ChildCount()); i++ {
		visit(n.Child(i), prefix)
	}
}

func nameOf(tree *syntax.Tree, n *sitter.Node) string {
	if id := n.ChildByFieldName("name"); id != nil {
		return tree.Text(id)
	}
	return "<anonymous>"
}

// decisions counts branch points under n without entering nested function or
// class bodies.
func decisions(n *sitter.Node) int {
	if n == nil {
		return 0
	}
	count := 0
	syntax.Walk(n, func(node *sitter.Node) bool {
		if node != n {
			switch node.Type() {
			case "function_definition", "class_definition":
				return false
			}
		}
		count += branchWeight(node)
		return true
	})
	return count
}

func branchWeight(n *sitter.Node) int {
	switch n.Type() {
	case "if_statement", "elif_clause",
		"for_statement", "while_statement",
		"except_clause", "except_group_clause",
		"conditional_expression", "boolean_operator",
		"for_in_clause", "if_clause",
		"assert_statement", "case_clause":
		return 1
	case "else_clause":
		// else on a loop or try adds a path; else on an if does not
		if p := n.Parent(); p != nil {
			switch p.Type() {
			case "for_statement", "while_statement", "try_statement":
				return 1
			}
		}
	}
	return 0
}
