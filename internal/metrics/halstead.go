package metrics

import (
	"math"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/dshills/critic/internal/syntax"
)

// Halstead holds operator/operand counts and the derived program volume.
type Halstead struct {
	DistinctOperators int     `json:"distinctOperators"`
	DistinctOperands  int     `json:"distinctOperands"`
	Operators         int     `json:"operators"`
	Operands          int     `json:"operands"`
	Volume            float64 `json:"volume"`
}

type halsteadCounter struct {
	tree      *syntax.Tree
	operators map[string]bool
	operands  map[string]bool
	n1, n2    int
}

// ComputeHalstead counts operators and operands over arithmetic, boolean,
// comparison, unary and augmented-assignment expressions.
func ComputeHalstead(tree *syntax.Tree) Halstead {
	c := &halsteadCounter{
		tree:      tree,
		operators: map[string]bool{},
		operands:  map[string]bool{},
	}
	syntax.Walk(tree.Root(), func(n *sitter.Node) bool {
		c.visit(n)
		return true
	})

	h := Halstead{
		DistinctOperators: len(c.operators),
		DistinctOperands:  len(c.operands),
		Operators:         c.n1,
		Operands:          c.n2,
	}
	vocabulary := h.DistinctOperators + h.DistinctOperands
	length := h.Operators + h.Operands
	if vocabulary > 0 {
		h.Volume = float64(length) * math.Log2(float64(vocabulary))
	}
	return h
}

func (c *halsteadCounter) visit(n *sitter.Node) {
	switch n.Type() {
	case "binary_operator", "boolean_operator", "augmented_assignment":
		c.operator(n.ChildByFieldName("operator"))
		c.operand(n.ChildByFieldName("left"))
		c.operand(n.ChildByFieldName("right"))
	case "unary_operator":
		c.operator(n.ChildByFieldName("operator"))
		c.operand(n.ChildByFieldName("argument"))
	case "not_operator":
		c.addOperator("not")
		c.operand(n.ChildByFieldName("argument"))
	case "comparison_operator":
		for i := 0; i < int(n.ChildCount()); i++ {
			child := n.Child(i)
			if child.IsNamed() {
				c.operand(child)
			} else {
				c.operator(child)
			}
		}
	}
}

func (c *halsteadCounter) operator(n *sitter.Node) {
	if n == nil {
		return
	}
	c.addOperator(c.tree.Text(n))
}

func (c *halsteadCounter) addOperator(op string) {
	c.operators[op] = true
	c.n1++
}

func (c *halsteadCounter) operand(n *sitter.Node) {
	if n == nil {
		return
	}
	c.operands[c.tree.Text(n)] = true
	c.n2++
}
