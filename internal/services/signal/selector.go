package signal

import (
	"context"

	"StockSignal/internal/domain/models"
	"StockSignal/internal/domain/service"
)

// Selector picks a decider per request. The classifier strategy is used when one
// is loaded and the caller did not ask for rules.
type Selector struct {
	rules service.Decider
	model service.Decider
}

// NewSelector builds a selector. model may be nil when no classifier is configured.
func NewSelector(model service.Decider) *Selector {
	return &Selector{rules: RuleDecider{}, model: model}
}

// HasModel reports whether a classifier strategy is available.
func (s *Selector) HasModel() bool { return s.model != nil }

// Decide runs the requested strategy. An empty strategy means the default:
// the model when loaded, rules otherwise. Asking for the model without one
// silently uses the rule table.
func (s *Selector) Decide(ctx context.Context, want models.Strategy, price float64, row models.FeatureRow) models.Decision {
	if want != models.StrategyRules && s.model != nil {
		return s.model.Decide(ctx, price, row)
	}
	return s.rules.Decide(ctx, price, row)
}
