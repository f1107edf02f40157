package classifier

import "fmt"

// Model predicts a label for a feature vector. Implementations must be safe
// for concurrent use.
type Model interface {
	Predict(x FeatureVector) Label
}

// Trainer builds a Model from labelled samples.
type Trainer func(samples []Sample) (Model, error)

// ForestModel is a standard scaler followed by a random forest.
type ForestModel struct {
	scaler Scaler
	forest *forest
}

// TrainModel fits a ForestModel with DefaultOptions. It satisfies Trainer.
func TrainModel(samples []Sample) (Model, error) {
	return Train(samples, DefaultOptions())
}

// Train fits a scaler and forest over samples. Identical samples and options
// always produce an identical model.
func Train(samples []Sample, opts Options) (*ForestModel, error) {
	if len(samples) == 0 {
		return nil, fmt.Errorf("training: no samples")
	}
	if opts.Trees < 1 {
		return nil, fmt.Errorf("training: need at least one tree, got %d", opts.Trees)
	}
	raw := make([]FeatureVector, len(samples))
	ys := make([]Label, len(samples))
	for i, s := range samples {
		raw[i] = Extract(s.Code)
		ys[i] = s.Label
	}
	scaler := FitScaler(raw)
	xs := make([]FeatureVector, len(raw))
	for i, x := range raw {
		xs[i] = scaler.Transform(x)
	}
	return &ForestModel{scaler: scaler, forest: trainForest(xs, ys, opts)}, nil
}

// Risk returns the mean Risky probability across trees.
func (m *ForestModel) Risk(x FeatureVector) float64 {
	return m.forest.risk(m.scaler.Transform(x))
}

// Predict returns Risky when more than half the forest's probability mass
// says so.
func (m *ForestModel) Predict(x FeatureVector) Label {
	if m.Risk(x) > 0.5 {
		return Risky
	}
	return Safe
}

// Default trains the model on the embedded corpus.
func Default() (*ForestModel, error) {
	samples, err := DefaultCorpus()
	if err != nil {
		return nil, err
	}
	return Train(samples, DefaultOptions())
}
