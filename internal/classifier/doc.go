// Package classifier is the learned bug-risk classifier.
//
// A source is reduced to a three-element FeatureVector (line count, character
// count, presence of a shell call). TrainModel fits a standard scaler and a
// seeded random forest over a labelled corpus; the resulting Model is
// immutable and safe for concurrent use. The default corpus ships embedded as
// YAML.
package classifier
