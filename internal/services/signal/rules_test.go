package signal

import (
	"context"
	"math"
	"testing"

	"StockSignal/internal/domain/models"

	"github.com/stretchr/testify/assert"
)

func TestEvaluate_Table(t *testing.T) {
	cases := []struct {
		name string
		in   Inputs
		sig  models.Signal
		conf float64
		rule string
	}{
		{"below both short averages wins over overbought", Inputs{Price: 90, MA10: 100, MA20: 100, MA50: 80, RSI: 80}, models.SignalSell, 0.75, "below_short_averages"},
		{"overbought above averages", Inputs{Price: 110, MA10: 100, MA20: 100, MA50: 100, RSI: 75}, models.SignalSell, 0.85, "overbought"},
		{"uptrend with moderate rsi", Inputs{Price: 110, MA10: 100, MA20: 100, MA50: 100, RSI: 55}, models.SignalBuy, 0.75, "uptrend_not_overbought"},
		{"between ma50 and ma20", Inputs{Price: 95, MA10: 90, MA20: 100, MA50: 90, RSI: 50}, models.SignalHold, 0.60, "between_mid_and_long_average"},
		{"above ma20 with rsi in 60..70", Inputs{Price: 110, MA10: 100, MA20: 100, MA50: 100, RSI: 65}, models.SignalHold, 0.50, "default"},
		{"rsi exactly 70 is not overbought", Inputs{Price: 110, MA10: 100, MA20: 100, MA50: 100, RSI: 70}, models.SignalHold, 0.50, "default"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			d := Evaluate(c.in)
			assert.Equal(t, c.sig, d.Signal)
			assert.Equal(t, c.conf, d.Confidence)
			assert.Equal(t, c.rule, d.Rule)
			assert.Equal(t, models.StrategyRules, d.Strategy)
		})
	}
}

func TestEvaluate_NaNFallsThrough(t *testing.T) {
	nan := math.NaN()
	d := Evaluate(Inputs{Price: 100, MA10: nan, MA20: nan, MA50: nan, RSI: nan})
	assert.Equal(t, models.SignalHold, d.Signal)
	assert.Equal(t, 0.50, d.Confidence)
}

func TestRuleDecider_Deterministic(t *testing.T) {
	var row models.FeatureRow
	row[models.FeatMA10] = 100
	row[models.FeatMA20] = 100
	row[models.FeatMA50] = 100
	row[models.FeatRSI14] = 55

	first := RuleDecider{}.Decide(context.Background(), 110, row)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, RuleDecider{}.Decide(context.Background(), 110, row))
	}
	assert.Equal(t, models.SignalBuy, first.Signal)
}
