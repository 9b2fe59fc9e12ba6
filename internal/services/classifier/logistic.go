package classifier

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"StockSignal/internal/domain/models"
	domsvc "StockSignal/internal/domain/service"

	"gonum.org/v1/gonum/floats"
	"gopkg.in/yaml.v3"
)

// LogisticModel is the on-disk form of a binary logistic regression over the feature row.
// Means and Scales are optional standardization parameters applied before the dot product.
type LogisticModel struct {
	Features []string  `json:"features" yaml:"features"`
	Weights  []float64 `json:"weights" yaml:"weights"`
	Bias     float64   `json:"bias" yaml:"bias"`
	Means    []float64 `json:"means,omitempty" yaml:"means,omitempty"`
	Scales   []float64 `json:"scales,omitempty" yaml:"scales,omitempty"`
}

// Logistic scores a feature vector with a loaded LogisticModel. It is immutable after
// construction and safe for concurrent use.
type Logistic struct {
	name    string
	weights []float64
	bias    float64
	means   []float64
	scales  []float64
}

var _ domsvc.Classifier = (*Logistic)(nil)

// LoadLogistic reads a model artifact. Files ending in .yaml or .yml are parsed as YAML,
// anything else as JSON.
func LoadLogistic(path string) (*Logistic, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model: %w", err)
	}

	var m LogisticModel
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(b, &m)
	default:
		err = json.Unmarshal(b, &m)
	}
	if err != nil {
		return nil, fmt.Errorf("parse model %s: %w", path, err)
	}

	l, err := NewLogistic(m)
	if err != nil {
		return nil, fmt.Errorf("model %s: %w", path, err)
	}
	l.name = "logistic:" + filepath.Base(path)
	return l, nil
}

// NewLogistic validates m and binds its weights to the canonical feature order.
// The artifact may list features in any order but must name each of the 14 exactly once.
func NewLogistic(m LogisticModel) (*Logistic, error) {
	n := len(m.Features)
	if n != models.NumFeatures {
		return nil, fmt.Errorf("expected %d features, got %d", models.NumFeatures, n)
	}
	if len(m.Weights) != n {
		return nil, fmt.Errorf("expected %d weights, got %d", n, len(m.Weights))
	}
	if m.Means != nil && len(m.Means) != n {
		return nil, fmt.Errorf("expected %d means, got %d", n, len(m.Means))
	}
	if m.Scales != nil && len(m.Scales) != n {
		return nil, fmt.Errorf("expected %d scales, got %d", n, len(m.Scales))
	}

	l := &Logistic{
		name:    "logistic",
		weights: make([]float64, n),
		bias:    m.Bias,
	}
	if m.Means != nil {
		l.means = make([]float64, n)
	}
	if m.Scales != nil {
		l.scales = make([]float64, n)
	}

	seen := make(map[int]bool, n)
	for i, name := range m.Features {
		pos, ok := models.FeatureIndex(name)
		if !ok {
			return nil, fmt.Errorf("unknown feature %q", name)
		}
		if seen[pos] {
			return nil, fmt.Errorf("duplicate feature %q", name)
		}
		seen[pos] = true

		l.weights[pos] = m.Weights[i]
		if l.means != nil {
			l.means[pos] = m.Means[i]
		}
		if l.scales != nil {
			if m.Scales[i] == 0 {
				return nil, fmt.Errorf("zero scale for feature %q", name)
			}
			l.scales[pos] = m.Scales[i]
		}
	}

	if !finite(l.weights) || !finite(l.means) || !finite(l.scales) || !finite([]float64{l.bias}) {
		return nil, fmt.Errorf("model parameters must be finite")
	}
	return l, nil
}

func (l *Logistic) Name() string { return l.name }

// Predict returns [p_sell, p_buy] for a vector in canonical feature order.
func (l *Logistic) Predict(_ context.Context, vector []float64) ([]float64, error) {
	if len(vector) != len(l.weights) {
		return nil, fmt.Errorf("expected %d features, got %d", len(l.weights), len(vector))
	}

	x := make([]float64, len(vector))
	copy(x, vector)
	if l.means != nil {
		floats.Sub(x, l.means)
	}
	if l.scales != nil {
		floats.Div(x, l.scales)
	}

	z := floats.Dot(l.weights, x) + l.bias
	p := sigmoid(z)
	if math.IsNaN(p) {
		return nil, fmt.Errorf("model produced NaN")
	}
	return []float64{1 - p, p}, nil
}

func sigmoid(z float64) float64 {
	if z >= 0 {
		return 1 / (1 + math.Exp(-z))
	}
	e := math.Exp(z)
	return e / (1 + e)
}

func finite(xs []float64) bool {
	for _, x := range xs {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}
