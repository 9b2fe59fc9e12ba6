package classifier

import (
	"context"
	"fmt"
	"time"

	"StockSignal/internal/domain/models"
	domsvc "StockSignal/internal/domain/service"
	xhttp "StockSignal/pkg/http"
)

// HTTPClassifier delegates scoring to a remote model service.
type HTTPClassifier struct {
	url    string
	client *xhttp.Client
}

var _ domsvc.Classifier = (*HTTPClassifier)(nil)

type predictRequest struct {
	Features map[string]float64 `json:"features"`
	Vector   []float64          `json:"vector"`
}

type predictResponse struct {
	Probabilities []float64 `json:"probabilities"`
}

// NewHTTPClassifier builds a client posting to url.
func NewHTTPClassifier(url string, timeout time.Duration) (*HTTPClassifier, error) {
	if url == "" {
		return nil, fmt.Errorf("classifier url is empty")
	}
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	client, err := xhttp.NewClient(xhttp.WithTimeout(timeout))
	if err != nil {
		return nil, err
	}
	return &HTTPClassifier{url: url, client: client}, nil
}

func (c *HTTPClassifier) Name() string { return "http:" + c.url }

// Predict posts the vector both positionally and by name.
func (c *HTTPClassifier) Predict(ctx context.Context, vector []float64) ([]float64, error) {
	if len(vector) != models.NumFeatures {
		return nil, fmt.Errorf("expected %d features, got %d", models.NumFeatures, len(vector))
	}
	var row models.FeatureRow
	copy(row[:], vector)

	var resp predictResponse
	err := c.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodPost,
		URL:    c.url,
		Headers: map[string]string{
			"Content-Type": "application/json",
		},
		Body: predictRequest{Features: row.Map(), Vector: row.Vector()},
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("post classifier: %w", err)
	}
	if len(resp.Probabilities) != 2 {
		return nil, fmt.Errorf("classifier returned %d probabilities", len(resp.Probabilities))
	}
	return resp.Probabilities, nil
}
