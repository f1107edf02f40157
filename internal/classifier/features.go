package classifier

import (
	"strings"
	"unicode/utf8"
)

// NumFeatures is the length of a FeatureVector.
const NumFeatures = 3

// dangerousCall is the substring that sets the third feature.
const dangerousCall = "os.system"

// FeatureVector is [lineCount, charCount, containsDangerousCall].
type FeatureVector [NumFeatures]float64

// Extract computes the feature vector of a source. Lines are counted the way
// a line splitter does: an empty source has zero lines and a trailing newline
// does not open a new one.
func Extract(code string) FeatureVector {
	var v FeatureVector
	v[0] = float64(countLines(code))
	v[1] = float64(utf8.RuneCountInString(code))
	if strings.Contains(code, dangerousCall) {
		v[2] = 1
	}
	return v
}

func countLines(code string) int {
	if code == "" {
		return 0
	}
	n := strings.Count(code, "\n")
	if !strings.HasSuffix(code, "\n") {
		n++
	}
	return n
}
