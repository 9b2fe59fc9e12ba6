package usecase

import (
	"context"
	"time"

	"StockSignal/internal/domain/models"
	domrepo "StockSignal/internal/domain/repository"
	"StockSignal/pkg/cache"
	applogger "StockSignal/pkg/logger"
	xutil "StockSignal/pkg/util"
)

// HistoryUseCase serves chart points, cached per symbol, range and interval.
type HistoryUseCase struct {
	source          domrepo.HistorySource
	cache           cache.Service
	ttl             time.Duration
	metrics         domrepo.Metrics
	logger          *applogger.Logger
	defaultRange    string
	defaultInterval domrepo.Interval
}

func NewHistoryUseCase(
	source domrepo.HistorySource,
	c cache.Service,
	ttl time.Duration,
	metrics domrepo.Metrics,
	logger *applogger.Logger,
	defaultRange string,
	defaultInterval domrepo.Interval,
) *HistoryUseCase {
	if logger == nil {
		logger = applogger.NewNop()
	}
	if defaultRange == "" {
		defaultRange = "1mo"
	}
	return &HistoryUseCase{
		source:          source,
		cache:           c,
		ttl:             ttl,
		metrics:         metrics,
		logger:          logger,
		defaultRange:    defaultRange,
		defaultInterval: domrepo.NormalizeInterval(string(defaultInterval)),
	}
}

type HistoryParams struct {
	Symbol   string
	Range    string
	Interval domrepo.Interval
}

func (uc *HistoryUseCase) normalize(p HistoryParams) (HistoryParams, error) {
	p.Symbol = xutil.NormalizeSymbol(p.Symbol)
	if p.Symbol == "" {
		return p, models.ErrInvalidSymbol
	}
	if p.Range == "" {
		p.Range = uc.defaultRange
	}
	if p.Interval == "" {
		p.Interval = uc.defaultInterval
	}
	return p, nil
}

func historyKey(p HistoryParams) string {
	return cache.GenerateKeyWithParams("history", p.Symbol, p.Range, p.Interval)
}

// History returns close prices as chart points. An empty provider result is models.ErrNoHistory.
func (uc *HistoryUseCase) History(ctx context.Context, p HistoryParams) ([]models.HistoryPoint, error) {
	p, err := uc.normalize(p)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	points, hit, err := cache.GetOrLoad(ctx, uc.cache, historyKey(p), uc.ttl,
		func(ctx context.Context) ([]models.HistoryPoint, error) {
			return uc.load(ctx, p)
		})
	if uc.metrics != nil {
		uc.metrics.RecordCache("history", hit)
		uc.metrics.RecordLatency("history", time.Since(start))
		if err != nil {
			uc.metrics.RecordError(errorKind(err))
		}
	}
	if err != nil {
		return nil, err
	}
	return points, nil
}

// Refresh reloads one chart from the provider and overwrites its cache entry.
func (uc *HistoryUseCase) Refresh(ctx context.Context, p HistoryParams) (int, error) {
	p, err := uc.normalize(p)
	if err != nil {
		return 0, err
	}
	points, err := uc.load(ctx, p)
	if err != nil {
		return 0, err
	}
	if uc.cache != nil {
		if err := uc.cache.Set(ctx, historyKey(p), points, uc.ttl); err != nil {
			uc.logger.Warn("history cache write failed",
				applogger.String("symbol", p.Symbol),
				applogger.Error(err),
			)
		}
	}
	return len(points), nil
}

func (uc *HistoryUseCase) load(ctx context.Context, p HistoryParams) ([]models.HistoryPoint, error) {
	series, err := uc.source.FetchBars(ctx, p.Symbol, p.Range, p.Interval)
	if err != nil {
		return nil, err
	}
	if series.Len() == 0 {
		return nil, models.ErrNoHistory
	}

	points := make([]models.HistoryPoint, 0, series.Len())
	for _, b := range series.Bars {
		points = append(points, models.HistoryPoint{
			Time:  xutil.FormatChartTime(b.Time),
			Price: xutil.Round(xutil.CleanFloat(b.Close), 2),
		})
	}
	return points, nil
}
