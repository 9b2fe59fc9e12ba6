package models

// Signal is the discrete trading recommendation.
type Signal string

const (
	SignalBuy  Signal = "BUY"
	SignalSell Signal = "SELL"
	SignalHold Signal = "HOLD"
)

// Strategy names which decider produced a signal.
type Strategy string

const (
	StrategyRules Strategy = "rules"
	StrategyModel Strategy = "model"
)

// ParseStrategy maps a query value to a Strategy. Empty means "whatever is configured".
func ParseStrategy(s string) (Strategy, bool) {
	switch Strategy(s) {
	case "":
		return "", true
	case StrategyRules, StrategyModel:
		return Strategy(s), true
	default:
		return "", false
	}
}

// Decision is the raw output of a signal decider.
type Decision struct {
	Signal     Signal
	Confidence float64
	Strategy   Strategy
	Rule       string
}

// PredictionDetails carries the indicator values shown next to a signal.
type PredictionDetails struct {
	RSI        float64 `json:"rsi"`
	Volatility float64 `json:"volatility"`
	MA50       float64 `json:"ma_50"`
}

// PredictionResult is the response of a prediction request. Prediction mirrors Signal.
type PredictionResult struct {
	Symbol       string            `json:"symbol"`
	Signal       Signal            `json:"signal"`
	Prediction   Signal            `json:"prediction"`
	Confidence   float64           `json:"confidence"`
	CurrentPrice float64           `json:"current_price"`
	Strategy     Strategy          `json:"strategy"`
	Details      PredictionDetails `json:"details"`
}

// HistoryPoint is one chart sample.
type HistoryPoint struct {
	Time  string  `json:"time"`
	Price float64 `json:"price"`
}
