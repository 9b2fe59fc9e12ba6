package repository

import (
	"context"
	"time"

	"StockSignal/internal/domain/models"
)

// BarSource fetches daily bars for the indicator pipeline.
type BarSource interface {
	// FetchDailyBars returns daily bars covering the trailing `days` calendar days, oldest first.
	// An unknown symbol yields models.ErrSymbolNotFound; transport or decode failures yield
	// *models.UpstreamFetchError.
	FetchDailyBars(ctx context.Context, symbol string, days int) (models.Series, error)
	Name() string
}

// HistorySource fetches intraday bars for charting.
type HistorySource interface {
	FetchBars(ctx context.Context, symbol string, rng string, interval Interval) (models.Series, error)
}

// SymbolSearcher forwards a free-text ticker query to an external autocomplete service.
type SymbolSearcher interface {
	Search(ctx context.Context, query string) ([]byte, error)
}

type Metrics interface {
	RecordPrediction(strategy, signal string)
	RecordError(kind string)
	RecordLastPrice(symbol string, price float64)
	RecordLatency(op string, d time.Duration)
	RecordCache(namespace string, hit bool)
}
