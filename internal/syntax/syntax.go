package syntax

import (
	"context"
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"
)

// maxNearLen caps the token echoed in an "invalid syntax near" message.
const maxNearLen = 40

// Error describes the first syntax error found in a source.
type Error struct {
	Line    int // 1-based
	Column  int // 1-based
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Message)
}

// Tree is a parsed Python module. Callers must Close it.
type Tree struct {
	tree *sitter.Tree
	src  []byte
}

// Root returns the module node.
func (t *Tree) Root() *sitter.Node { return t.tree.RootNode() }

// Source returns the bytes the tree was parsed from.
func (t *Tree) Source() []byte { return t.src }

// Text returns the source text spanned by n.
func (t *Tree) Text(n *sitter.Node) string { return n.Content(t.src) }

// Close releases the underlying parser tree.
func (t *Tree) Close() {
	if t != nil && t.tree != nil {
		t.tree.Close()
	}
}

// Parse parses src as a Python module. A source with syntax errors returns a
// nil tree and a *Error; any other error means the parser itself failed.
func Parse(ctx context.Context, src []byte) (*Tree, error) {
	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(python.GetLanguage())

	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("parsing python: %w", err)
	}

	root := tree.RootNode()
	if !root.HasError() {
		if serr := strictCheck(root, src); serr != nil {
			tree.Close()
			return nil, serr
		}
		return &Tree{tree: tree, src: src}, nil
	}
	defer tree.Close()

	bad := firstError(root)
	if bad == nil {
		// HasError was set but no ERROR/MISSING node was reachable.
		return nil, &Error{Line: 1, Column: 1, Message: "invalid syntax"}
	}
	pos := bad.StartPoint()
	return nil, &Error{
		Line:    int(pos.Row) + 1,
		Column:  int(pos.Column) + 1,
		Message: describe(bad, src),
	}
}

// Walk visits n and its descendants in document order. Returning false from
// fn skips the children of the node just visited.
func Walk(n *sitter.Node, fn func(*sitter.Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		Walk(n.Child(i), fn)
	}
}

func firstError(root *sitter.Node) *sitter.Node {
	var found *sitter.Node
	Walk(root, func(n *sitter.Node) bool {
		if found != nil {
			return false
		}
		if n.IsError() || n.IsMissing() {
			found = n
			return false
		}
		return n.HasError()
	})
	return found
}

func describe(n *sitter.Node, src []byte) string {
	if n.IsMissing() {
		return fmt.Sprintf("Missing '%s'", n.Type())
	}
	near := firstLeaf(n, src)
	if near == "" {
		return "invalid syntax"
	}
	return fmt.Sprintf("invalid syntax near '%s'", near)
}

func firstLeaf(n *sitter.Node, src []byte) string {
	for n.ChildCount() > 0 {
		n = n.Child(0)
	}
	text := strings.TrimSpace(n.Content(src))
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		text = text[:i]
	}
	if len(text) > maxNearLen {
		text = text[:maxNearLen]
	}
	return text
}
