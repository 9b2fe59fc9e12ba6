package classifier

import (
	"context"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"testing"

	"StockSignal/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func canonicalModel() LogisticModel {
	return LogisticModel{
		Features: models.FeatureNames[:],
		Weights:  make([]float64, models.NumFeatures),
	}
}

func TestLogistic_ZeroWeightsIsCoinFlip(t *testing.T) {
	l, err := NewLogistic(canonicalModel())
	require.NoError(t, err)

	p, err := l.Predict(context.Background(), make([]float64, models.NumFeatures))
	require.NoError(t, err)
	assert.Equal(t, []float64{0.5, 0.5}, p)
}

func TestLogistic_BindsByName(t *testing.T) {
	// rsi_14 listed first with the only non-zero weight
	m := LogisticModel{
		Features: append([]string{"rsi_14"}, models.FeatureNames[:models.NumFeatures-1]...),
		Weights:  make([]float64, models.NumFeatures),
		Bias:     -5,
	}
	m.Weights[0] = 0.1
	l, err := NewLogistic(m)
	require.NoError(t, err)

	v := make([]float64, models.NumFeatures)
	v[models.FeatRSI14] = 50
	p, err := l.Predict(context.Background(), v)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, p[1], 1e-12)
	assert.InDelta(t, 1.0, p[0]+p[1], 1e-12)
}

func TestLogistic_Standardizes(t *testing.T) {
	m := canonicalModel()
	m.Weights[models.FeatMA1] = 1
	m.Means = make([]float64, models.NumFeatures)
	m.Scales = make([]float64, models.NumFeatures)
	for i := range m.Scales {
		m.Scales[i] = 1
	}
	m.Means[models.FeatMA1] = 100
	m.Scales[models.FeatMA1] = 10
	l, err := NewLogistic(m)
	require.NoError(t, err)

	v := make([]float64, models.NumFeatures)
	v[models.FeatMA1] = 120
	p, err := l.Predict(context.Background(), v)
	require.NoError(t, err)
	assert.InDelta(t, 1/(1+math.Exp(-2)), p[1], 1e-12)
	assert.Equal(t, 120.0, v[models.FeatMA1], "input must not be mutated")
}

func TestNewLogistic_Rejects(t *testing.T) {
	unknown := canonicalModel()
	unknown.Features = append([]string{"ret_2"}, unknown.Features[1:]...)

	dup := canonicalModel()
	dup.Features = append([]string{"ma_1"}, dup.Features[1:]...)

	short := canonicalModel()
	short.Weights = short.Weights[:3]

	zeroScale := canonicalModel()
	zeroScale.Scales = make([]float64, models.NumFeatures)

	nanBias := canonicalModel()
	nanBias.Bias = math.NaN()

	for name, m := range map[string]LogisticModel{
		"unknown": unknown, "duplicate": dup, "short": short, "zero scale": zeroScale, "nan bias": nanBias,
	} {
		_, err := NewLogistic(m)
		assert.Error(t, err, name)
	}
}

func TestLoadLogistic_JSONAndYAML(t *testing.T) {
	dir := t.TempDir()

	m := canonicalModel()
	m.Bias = 1
	b, err := json.Marshal(m)
	require.NoError(t, err)
	jsonPath := filepath.Join(dir, "model.json")
	require.NoError(t, os.WriteFile(jsonPath, b, 0o600))

	yamlBody := "features: [ret_1, ma_1, ret_3, ma_3, ret_5, ma_5, ret_10, ma_10, ret_20, ma_20, ret_50, ma_50, vol_10, rsi_14]\n" +
		"weights: [0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0]\n" +
		"bias: 1\n"
	yamlPath := filepath.Join(dir, "model.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte(yamlBody), 0o600))

	for _, path := range []string{jsonPath, yamlPath} {
		l, err := LoadLogistic(path)
		require.NoError(t, err, path)
		p, err := l.Predict(context.Background(), make([]float64, models.NumFeatures))
		require.NoError(t, err)
		assert.InDelta(t, 1/(1+math.Exp(-1)), p[1], 1e-12)
		assert.Contains(t, l.Name(), filepath.Base(path))
	}

	_, err = LoadLogistic(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)
}

func TestLogistic_WrongWidth(t *testing.T) {
	l, err := NewLogistic(canonicalModel())
	require.NoError(t, err)
	_, err = l.Predict(context.Background(), []float64{1, 2})
	assert.Error(t, err)
}
