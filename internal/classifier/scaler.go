package classifier

import "math"

// Scaler standardizes features to zero mean and unit variance. A feature
// with zero variance keeps a scale of 1.
type Scaler struct {
	Mean  FeatureVector
	Scale FeatureVector
}

// FitScaler computes per-feature mean and population standard deviation.
func FitScaler(xs []FeatureVector) Scaler {
	var s Scaler
	n := float64(len(xs))
	if n == 0 {
		for j := range s.Scale {
			s.Scale[j] = 1
		}
		return s
	}
	for _, x := range xs {
		for j := range x {
			s.Mean[j] += x[j]
		}
	}
	for j := range s.Mean {
		s.Mean[j] /= n
	}
	for _, x := range xs {
		for j := range x {
			d := x[j] - s.Mean[j]
			s.Scale[j] += d * d
		}
	}
	for j := range s.Scale {
		s.Scale[j] = math.Sqrt(s.Scale[j] / n)
		if s.Scale[j] == 0 {
			s.Scale[j] = 1
		}
	}
	return s
}

// Transform returns the standardized copy of x.
func (s Scaler) Transform(x FeatureVector) FeatureVector {
	var out FeatureVector
	for j := range x {
		out[j] = (x[j] - s.Mean[j]) / s.Scale[j]
	}
	return out
}
