package classifier

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

//go:embed corpus.yaml
var defaultCorpus []byte

// Label is a classifier verdict.
type Label int

const (
	Safe  Label = 0
	Risky Label = 1
)

func (l Label) String() string {
	if l == Risky {
		return "risky"
	}
	return "safe"
}

// Sample is one labelled training example.
type Sample struct {
	Code  string `yaml:"code"`
	Label Label  `yaml:"label"`
}

type corpusFile struct {
	Samples []Sample `yaml:"samples"`
}

// LoadCorpus decodes a YAML corpus document.
func LoadCorpus(r io.Reader) ([]Sample, error) {
	var f corpusFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("decoding corpus: %w", err)
	}
	for i, s := range f.Samples {
		if s.Label != Safe && s.Label != Risky {
			return nil, fmt.Errorf("corpus sample %d: label must be 0 or 1, got %d", i, s.Label)
		}
	}
	if len(f.Samples) == 0 {
		return nil, fmt.Errorf("corpus has no samples")
	}
	return f.Samples, nil
}

// DefaultCorpus returns the embedded training corpus.
func DefaultCorpus() ([]Sample, error) {
	return LoadCorpus(bytes.NewReader(defaultCorpus))
}
