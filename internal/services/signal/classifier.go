package signal

import (
	"context"
	"fmt"
	"math"

	"StockSignal/internal/domain/models"
	"StockSignal/internal/domain/service"
	"StockSignal/pkg/logger"
	xutil "StockSignal/pkg/util"
)

// DefaultThreshold is the minimum class probability that turns into a BUY or SELL.
const DefaultThreshold = 0.55

// Thresholds configures the probability cut-offs of the classifier strategy.
type Thresholds struct {
	Buy  float64
	Sell float64
}

// DefaultThresholds returns 0.55 for both classes.
func DefaultThresholds() Thresholds {
	return Thresholds{Buy: DefaultThreshold, Sell: DefaultThreshold}
}

// FromProbabilities maps [p_sell, p_buy] to a decision: BUY if p_buy reaches the buy threshold,
// else SELL if p_sell reaches the sell threshold, else HOLD with the larger probability.
func FromProbabilities(probs []float64, th Thresholds) (models.Decision, error) {
	if len(probs) != 2 {
		return models.Decision{}, fmt.Errorf("expected 2 class probabilities, got %d", len(probs))
	}
	pSell, pBuy := probs[0], probs[1]
	for _, p := range probs {
		if math.IsNaN(p) || p < 0 || p > 1 {
			return models.Decision{}, fmt.Errorf("invalid probability %v", p)
		}
	}

	d := models.Decision{Strategy: models.StrategyModel}
	switch {
	case pBuy >= th.Buy:
		d.Signal, d.Confidence = models.SignalBuy, pBuy
	case pSell >= th.Sell:
		d.Signal, d.Confidence = models.SignalSell, pSell
	default:
		d.Signal, d.Confidence = models.SignalHold, math.Max(pSell, pBuy)
	}
	d.Confidence = xutil.Round(d.Confidence, 2)
	return d, nil
}

// ClassifierDecider scores the feature vector with a trained model and falls back
// to the rule table when the model fails or answers nonsense.
type ClassifierDecider struct {
	clf        service.Classifier
	thresholds Thresholds
	fallback   service.Decider
	log        *logger.Logger
}

var _ service.Decider = (*ClassifierDecider)(nil)

// Option configures a ClassifierDecider.
type Option func(*ClassifierDecider)

// WithThresholds overrides the default 0.55 cut-offs.
func WithThresholds(th Thresholds) Option {
	return func(d *ClassifierDecider) { d.thresholds = th }
}

// WithFallback replaces the rule table fallback.
func WithFallback(f service.Decider) Option {
	return func(d *ClassifierDecider) { d.fallback = f }
}

// WithLogger sets the logger used to report classifier failures.
func WithLogger(l *logger.Logger) Option {
	return func(d *ClassifierDecider) { d.log = l }
}

// NewClassifierDecider wraps clf. clf must not be nil.
func NewClassifierDecider(clf service.Classifier, opts ...Option) *ClassifierDecider {
	d := &ClassifierDecider{
		clf:        clf,
		thresholds: DefaultThresholds(),
		fallback:   RuleDecider{},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *ClassifierDecider) Decide(ctx context.Context, price float64, row models.FeatureRow) models.Decision {
	probs, err := d.clf.Predict(ctx, row.Vector())
	if err == nil {
		var dec models.Decision
		if dec, err = FromProbabilities(probs, d.thresholds); err == nil {
			return dec
		}
	}
	if d.log != nil {
		d.log.Warn("classifier failed, using rule table",
			logger.String("classifier", d.clf.Name()),
			logger.Error(err),
		)
	}
	return d.fallback.Decide(ctx, price, row)
}
