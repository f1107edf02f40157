package classifier

import (
	"math/rand"
	"sort"
)

// Options tunes forest training.
type Options struct {
	Trees       int
	Seed        int64
	MaxFeatures int // features tried per split before falling back to the rest
}

// DefaultOptions returns 100 trees, seed 42, one feature per split.
func DefaultOptions() Options {
	return Options{Trees: 100, Seed: 42, MaxFeatures: 1}
}

type treeNode struct {
	leaf      bool
	risk      float64 // fraction of Risky samples at a leaf
	feature   int
	threshold float64
	left      *treeNode
	right     *treeNode
}

func (n *treeNode) predict(x FeatureVector) float64 {
	for !n.leaf {
		if x[n.feature] <= n.threshold {
			n = n.left
		} else {
			n = n.right
		}
	}
	return n.risk
}

// forest is a bagged ensemble of fully grown decision trees.
type forest struct {
	trees []*treeNode
}

func (f *forest) risk(x FeatureVector) float64 {
	if len(f.trees) == 0 {
		return 0
	}
	var sum float64
	for _, t := range f.trees {
		sum += t.predict(x)
	}
	return sum / float64(len(f.trees))
}

type grower struct {
	xs          []FeatureVector
	ys          []Label
	rng         *rand.Rand
	maxFeatures int
}

func trainForest(xs []FeatureVector, ys []Label, opts Options) *forest {
	g := &grower{
		xs:          xs,
		ys:          ys,
		rng:         rand.New(rand.NewSource(opts.Seed)),
		maxFeatures: opts.MaxFeatures,
	}
	if g.maxFeatures < 1 || g.maxFeatures > NumFeatures {
		g.maxFeatures = NumFeatures
	}
	f := &forest{trees: make([]*treeNode, 0, opts.Trees)}
	n := len(xs)
	for t := 0; t < opts.Trees; t++ {
		bag := make([]int, n)
		for i := range bag {
			bag[i] = g.rng.Intn(n)
		}
		f.trees = append(f.trees, g.grow(bag))
	}
	return f
}

func (g *grower) grow(idx []int) *treeNode {
	risk := g.riskFraction(idx)
	if risk == 0 || risk == 1 || len(idx) < 2 {
		return &treeNode{leaf: true, risk: risk}
	}

	var best split
	for k, feature := range g.rng.Perm(NumFeatures) {
		if k >= g.maxFeatures && best.ok {
			break
		}
		if s := g.bestSplit(idx, feature); s.ok && (!best.ok || s.impurity < best.impurity) {
			best = s
		}
	}
	if !best.ok {
		return &treeNode{leaf: true, risk: risk}
	}

	var left, right []int
	for _, i := range idx {
		if g.xs[i][best.feature] <= best.threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	return &treeNode{
		feature:   best.feature,
		threshold: best.threshold,
		left:      g.grow(left),
		right:     g.grow(right),
	}
}

type split struct {
	ok        bool
	feature   int
	threshold float64
	impurity  float64
}

// bestSplit finds the midpoint threshold on feature with the lowest weighted
// Gini impurity. It fails when the feature is constant over idx.
func (g *grower) bestSplit(idx []int, feature int) split {
	values := make([]float64, 0, len(idx))
	for _, i := range idx {
		values = append(values, g.xs[i][feature])
	}
	sort.Float64s(values)

	best := split{feature: feature}
	for k := 1; k < len(values); k++ {
		if values[k] == values[k-1] {
			continue
		}
		threshold := (values[k] + values[k-1]) / 2
		imp := g.splitImpurity(idx, feature, threshold)
		if !best.ok || imp < best.impurity {
			best = split{ok: true, feature: feature, threshold: threshold, impurity: imp}
		}
	}
	return best
}

func (g *grower) splitImpurity(idx []int, feature int, threshold float64) float64 {
	var ln, lr, rn, rr float64
	for _, i := range idx {
		risky := 0.0
		if g.ys[i] == Risky {
			risky = 1
		}
		if g.xs[i][feature] <= threshold {
			ln++
			lr += risky
		} else {
			rn++
			rr += risky
		}
	}
	total := ln + rn
	return ln/total*gini(lr, ln) + rn/total*gini(rr, rn)
}

func gini(risky, n float64) float64 {
	if n == 0 {
		return 0
	}
	p := risky / n
	return 2 * p * (1 - p)
}

func (g *grower) riskFraction(idx []int) float64 {
	if len(idx) == 0 {
		return 0
	}
	var risky float64
	for _, i := range idx {
		if g.ys[i] == Risky {
			risky++
		}
	}
	return risky / float64(len(idx))
}
