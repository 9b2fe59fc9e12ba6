package signal

import (
	"context"

	"StockSignal/internal/domain/models"
	"StockSignal/internal/domain/service"
)

// Inputs are the indicator values the rule table looks at.
type Inputs struct {
	Price float64
	MA10  float64
	MA20  float64
	MA50  float64
	RSI   float64
}

// InputsFromRow picks the rule inputs out of a feature row.
func InputsFromRow(price float64, row models.FeatureRow) Inputs {
	return Inputs{
		Price: price,
		MA10:  row.MA10(),
		MA20:  row.MA20(),
		MA50:  row.MA50(),
		RSI:   row.RSI14(),
	}
}

// Rule is one row of the decision table.
type Rule struct {
	Name       string
	When       func(in Inputs) bool
	Signal     models.Signal
	Confidence float64
}

// Rules is evaluated top to bottom; the first matching rule wins.
var Rules = []Rule{
	{
		Name:       "below_short_averages",
		When:       func(in Inputs) bool { return in.Price < in.MA10 && in.Price < in.MA20 },
		Signal:     models.SignalSell,
		Confidence: 0.75,
	},
	{
		Name:       "overbought",
		When:       func(in Inputs) bool { return in.RSI > 70 },
		Signal:     models.SignalSell,
		Confidence: 0.85,
	},
	{
		Name:       "uptrend_not_overbought",
		When:       func(in Inputs) bool { return in.Price > in.MA20 && in.RSI < 60 },
		Signal:     models.SignalBuy,
		Confidence: 0.75,
	},
	{
		Name:       "between_mid_and_long_average",
		When:       func(in Inputs) bool { return in.Price < in.MA20 && in.Price > in.MA50 },
		Signal:     models.SignalHold,
		Confidence: 0.60,
	},
}

// DefaultRule applies when nothing in Rules matches.
var DefaultRule = Rule{Name: "default", Signal: models.SignalHold, Confidence: 0.50}

// Evaluate runs the rule table. Comparisons against NaN are false, so
// degenerate inputs fall through to DefaultRule.
func Evaluate(in Inputs) models.Decision {
	rule := DefaultRule
	for _, r := range Rules {
		if r.When(in) {
			rule = r
			break
		}
	}
	return models.Decision{
		Signal:     rule.Signal,
		Confidence: rule.Confidence,
		Strategy:   models.StrategyRules,
		Rule:       rule.Name,
	}
}

// RuleDecider is the always available rule-table strategy.
type RuleDecider struct{}

var _ service.Decider = RuleDecider{}

func (RuleDecider) Decide(_ context.Context, price float64, row models.FeatureRow) models.Decision {
	return Evaluate(InputsFromRow(price, row))
}
