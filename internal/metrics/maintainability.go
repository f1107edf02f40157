package metrics

import (
	"math"

	"github.com/dshills/critic/internal/syntax"
)

// Maintainability is the maintainability index of a module with its inputs.
type Maintainability struct {
	Index          float64  `json:"index"`
	Grade          string   `json:"grade"`
	Halstead       Halstead `json:"halstead"`
	Complexity     int      `json:"complexity"`
	Raw            Raw      `json:"raw"`
	CommentPercent float64  `json:"commentPercent"`
}

// MaintainabilityGrade maps an index to A (>=85), B (>=70) or C.
func MaintainabilityGrade(mi float64) string {
	switch {
	case mi >= 85:
		return "A"
	case mi >= 70:
		return "B"
	default:
		return "C"
	}
}

// MaintainabilityIndex applies the comment-weighted MI formula, normalized to
// 0-100. A module with no volume or no logical lines scores 100.
func MaintainabilityIndex(volume float64, complexity, lloc int, commentPercent float64) float64 {
	if volume <= 0 || lloc <= 0 {
		return 100
	}
	raw := 171 -
		5.2*math.Log(volume) -
		0.23*float64(complexity) -
		16.2*math.Log(float64(lloc)) +
		50*math.Sin(math.Sqrt(2.46*commentPercent*math.Pi/180))
	return math.Max(0, math.Min(100, raw*100/171))
}

// ComputeMaintainability scores a parsed module. It never fails: an empty
// module scores 100.
func ComputeMaintainability(tree *syntax.Tree) Maintainability {
	h := ComputeHalstead(tree)
	raw := ComputeRaw(tree)
	g := TotalComplexity(tree)
	pct := raw.CommentPercent()
	mi := MaintainabilityIndex(h.Volume, g, raw.LLOC, pct)
	return Maintainability{
		Index:          mi,
		Grade:          MaintainabilityGrade(mi),
		Halstead:       h,
		Complexity:     g,
		Raw:            raw,
		CommentPercent: pct,
	}
}
