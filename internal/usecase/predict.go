package usecase

import (
	"context"
	"errors"
	"time"

	"StockSignal/internal/domain/models"
	domrepo "StockSignal/internal/domain/repository"
	"StockSignal/internal/services/features"
	"StockSignal/internal/services/signal"
	applogger "StockSignal/pkg/logger"
	xutil "StockSignal/pkg/util"
)

// PredictUseCase runs fetch, indicators and signal decision for one symbol.
type PredictUseCase struct {
	bars         domrepo.BarSource
	selector     *signal.Selector
	metrics      domrepo.Metrics
	logger       *applogger.Logger
	lookbackDays int
	now          func() time.Time
}

func NewPredictUseCase(
	bars domrepo.BarSource,
	selector *signal.Selector,
	metrics domrepo.Metrics,
	logger *applogger.Logger,
	lookbackDays int,
) *PredictUseCase {
	if logger == nil {
		logger = applogger.NewNop()
	}
	return &PredictUseCase{
		bars:         bars,
		selector:     selector,
		metrics:      metrics,
		logger:       logger,
		lookbackDays: lookbackDays,
		now:          time.Now,
	}
}

type PredictParams struct {
	Symbol   string
	Strategy models.Strategy
	// Bar, when set, replaces the newest fetched bar if it falls on the same
	// calendar day and is appended otherwise.
	Bar *models.Bar
}

// HasModel reports whether a classifier backs the default strategy.
func (uc *PredictUseCase) HasModel() bool { return uc.selector.HasModel() }

func (uc *PredictUseCase) Predict(ctx context.Context, p PredictParams) (*models.PredictionResult, error) {
	start := uc.now()
	symbol := xutil.NormalizeSymbol(p.Symbol)
	if symbol == "" {
		return nil, models.ErrInvalidSymbol
	}

	res, err := uc.predict(ctx, symbol, p)
	if uc.metrics != nil {
		uc.metrics.RecordLatency("predict", time.Since(start))
	}
	if err != nil {
		uc.recordError(symbol, err)
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.RecordPrediction(string(res.Strategy), string(res.Signal))
		uc.metrics.RecordLastPrice(symbol, res.CurrentPrice)
	}
	return res, nil
}

func (uc *PredictUseCase) predict(ctx context.Context, symbol string, p PredictParams) (*models.PredictionResult, error) {
	series, err := uc.bars.FetchDailyBars(ctx, symbol, uc.lookbackDays)
	if err != nil {
		return nil, err
	}
	series.Symbol = symbol
	if p.Bar != nil {
		series = withBar(series, *p.Bar, uc.now())
	}

	row, err := features.Compute(series)
	if err != nil {
		return nil, err
	}

	last, _ := series.Last()
	decision := uc.selector.Decide(ctx, p.Strategy, last.Close, row)

	uc.logger.Debug("prediction",
		applogger.String("symbol", symbol),
		applogger.String("source", uc.bars.Name()),
		applogger.Int("bars", series.Len()),
		applogger.String("strategy", string(decision.Strategy)),
		applogger.String("rule", decision.Rule),
		applogger.String("signal", string(decision.Signal)),
	)
	return assemble(symbol, last.Close, row, decision), nil
}

// assemble builds the response, replacing non-finite numbers with zero before rounding.
func assemble(symbol string, price float64, row models.FeatureRow, d models.Decision) *models.PredictionResult {
	return &models.PredictionResult{
		Symbol:       symbol,
		Signal:       d.Signal,
		Prediction:   d.Signal,
		Confidence:   xutil.Round(xutil.CleanFloat(d.Confidence), 2),
		CurrentPrice: xutil.Round(xutil.CleanFloat(price), 2),
		Strategy:     d.Strategy,
		Details: models.PredictionDetails{
			RSI:        xutil.Round(xutil.CleanFloat(row.RSI14()), 2),
			Volatility: xutil.Round(xutil.CleanFloat(row.Vol10()), 4),
			MA50:       xutil.Round(xutil.CleanFloat(row.MA50()), 2),
		},
	}
}

// withBar returns a copy of series with bar merged in as the newest observation.
func withBar(series models.Series, bar models.Bar, now time.Time) models.Series {
	if bar.Time.IsZero() {
		bar.Time = now
	}
	bars := make([]models.Bar, len(series.Bars), len(series.Bars)+1)
	copy(bars, series.Bars)

	if n := len(bars); n > 0 {
		last := bars[n-1]
		if sameDay(last.Time, bar.Time) {
			bar.Time = last.Time
			bars[n-1] = bar
			return models.Series{Symbol: series.Symbol, Bars: bars}
		}
		if bar.Time.Before(last.Time) {
			bar.Time = last.Time.AddDate(0, 0, 1)
		}
	}
	return models.Series{Symbol: series.Symbol, Bars: append(bars, bar)}
}

func sameDay(a, b time.Time) bool {
	b = b.In(a.Location())
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func (uc *PredictUseCase) recordError(symbol string, err error) {
	kind := errorKind(err)
	if uc.metrics != nil {
		uc.metrics.RecordError(kind)
	}
	switch kind {
	case "upstream", "internal":
		uc.logger.Error("prediction failed",
			applogger.String("symbol", symbol),
			applogger.String("kind", kind),
			applogger.Error(err),
		)
	default:
		uc.logger.Info("prediction rejected",
			applogger.String("symbol", symbol),
			applogger.String("kind", kind),
			applogger.String("reason", err.Error()),
		)
	}
}

func errorKind(err error) string {
	var upstream *models.UpstreamFetchError
	switch {
	case models.IsInsufficientData(err):
		return "insufficient_data"
	case errors.Is(err, models.ErrSymbolNotFound):
		return "symbol_not_found"
	case errors.Is(err, models.ErrNoHistory):
		return "no_history"
	case errors.Is(err, models.ErrInvalidSymbol):
		return "invalid_symbol"
	case errors.As(err, &upstream):
		return "upstream"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "internal"
	}
}
