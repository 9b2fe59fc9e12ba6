package service

import (
	"context"

	"StockSignal/internal/domain/models"
)

// Classifier is a trained model scoring a feature vector.
// Predict returns class probabilities: index 0 is the sell class, index 1 the buy class.
type Classifier interface {
	Predict(ctx context.Context, vector []float64) ([]float64, error)
	Name() string
}

// Decider turns the newest feature row into a trading signal.
type Decider interface {
	Decide(ctx context.Context, price float64, row models.FeatureRow) models.Decision
}
