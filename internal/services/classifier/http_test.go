package classifier

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"StockSignal/internal/domain/models"
	"StockSignal/pkg/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPClassifier_Predict(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req predictRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Len(t, req.Vector, models.NumFeatures)
		assert.Equal(t, 13.0, req.Features["rsi_14"])
		assert.Equal(t, 13.0, req.Vector[models.FeatRSI14])
		_ = json.NewEncoder(w).Encode(predictResponse{Probabilities: []float64{0.3, 0.7}})
	}))
	defer srv.Close()

	c, err := NewHTTPClassifier(srv.URL, time.Second)
	require.NoError(t, err)

	v := make([]float64, models.NumFeatures)
	for i := range v {
		v[i] = float64(i)
	}
	p, err := c.Predict(context.Background(), v)
	require.NoError(t, err)
	assert.Equal(t, []float64{0.3, 0.7}, p)
}

func TestHTTPClassifier_Errors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/bad" {
			_, _ = w.Write([]byte(`{"probabilities":[1]}`))
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	for _, url := range []string{srv.URL + "/bad", srv.URL + "/fail"} {
		c, err := NewHTTPClassifier(url, time.Second)
		require.NoError(t, err)
		_, err = c.Predict(context.Background(), make([]float64, models.NumFeatures))
		assert.Error(t, err, url)
	}

	_, err := NewHTTPClassifier("", time.Second)
	assert.Error(t, err)
}

func TestLoad(t *testing.T) {
	cfg := &config.Config{}
	cfg.Classifier.Type = config.ClassifierNone
	clf, err := Load(cfg)
	require.NoError(t, err)
	assert.Nil(t, clf)

	cfg.Classifier.Type = config.ClassifierHTTP
	cfg.Classifier.URL = "http://model.local/predict"
	clf, err = Load(cfg)
	require.NoError(t, err)
	assert.Equal(t, "http:http://model.local/predict", clf.Name())

	cfg.Classifier.Type = config.ClassifierFile
	cfg.Classifier.Path = "/does/not/exist.json"
	_, err = Load(cfg)
	assert.Error(t, err)

	cfg.Classifier.Type = "svm"
	_, err = Load(cfg)
	assert.Error(t, err)
}
