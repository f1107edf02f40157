package metrics

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/dshills/critic/internal/syntax"
)

// Raw holds line-level counts.
type Raw struct {
	SLOC     int `json:"sloc"`     // non-blank lines that are not comment-only
	LLOC     int `json:"lloc"`     // logical lines (statements and clause headers)
	Comments int `json:"comments"` // lines carrying a # comment
	Multi    int `json:"multi"`    // lines spanned by statement-level strings
}

// CommentPercent is the share of comment and docstring lines over SLOC.
func (r Raw) CommentPercent() float64 {
	if r.SLOC == 0 {
		return 0
	}
	return float64(r.Comments+r.Multi) / float64(r.SLOC) * 100
}

var logicalLines = map[string]bool{
	"expression_statement":    true,
	"return_statement":        true,
	"pass_statement":          true,
	"break_statement":         true,
	"continue_statement":      true,
	"raise_statement":         true,
	"import_statement":        true,
	"import_from_statement":   true,
	"future_import_statement": true,
	"global_statement":        true,
	"nonlocal_statement":      true,
	"assert_statement":        true,
	"delete_statement":        true,
	"type_alias_statement":    true,
	"function_definition":     true,
	"class_definition":        true,
	"if_statement":            true,
	"elif_clause":             true,
	"else_clause":             true,
	"for_statement":           true,
	"while_statement":         true,
	"try_statement":           true,
	"except_clause":           true,
	"except_group_clause":     true,
	"finally_clause":          true,
	"with_statement":          true,
	"match_statement":         true,
	"case_clause":             true,
}

// ComputeRaw counts source, logical, comment and docstring lines.
func ComputeRaw(tree *syntax.Tree) Raw {
	var r Raw
	commentRows := map[uint32]bool{}
	codeRows := map[uint32]bool{}

	syntax.Walk(tree.Root(), func(n *sitter.Node) bool {
		switch {
		case n.Type() == "comment":
			commentRows[n.StartPoint().Row] = true
			return false
		case logicalLines[n.Type()]:
			r.LLOC++
			if isStringStatement(n) {
				r.Multi += int(n.EndPoint().Row-n.StartPoint().Row) + 1
			}
		}
		if n.ChildCount() == 0 {
			for row := n.StartPoint().Row; row <= n.EndPoint().Row; row++ {
				codeRows[row] = true
			}
		}
		return true
	})

	lines := strings.Split(string(tree.Source()), "\n")
	for i, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		if commentRows[uint32(i)] && !codeRows[uint32(i)] {
			continue
		}
		r.SLOC++
	}
	r.Comments = len(commentRows)
	return r
}

func isStringStatement(n *sitter.Node) bool {
	if n.Type() != "expression_statement" || n.NamedChildCount() != 1 {
		return false
	}
	t := n.NamedChild(0).Type()
	return t == "string" || t == "concatenated_string"
}
