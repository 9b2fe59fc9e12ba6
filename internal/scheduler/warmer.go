package scheduler

import (
	"context"
	"fmt"
	"time"

	"StockSignal/internal/usecase"
	applogger "StockSignal/pkg/logger"

	"github.com/robfig/cron/v3"
)

// HistoryRefresher reloads one chart into the cache.
type HistoryRefresher interface {
	Refresh(ctx context.Context, p usecase.HistoryParams) (int, error)
}

// CacheWarmer keeps the history cache populated for a fixed symbol list so
// chart requests for popular tickers do not wait on the provider.
type CacheWarmer struct {
	cron    *cron.Cron
	history HistoryRefresher
	symbols []string
	timeout time.Duration
	logger  *applogger.Logger

	ctx    context.Context
	cancel context.CancelFunc
}

func NewCacheWarmer(history HistoryRefresher, symbols []string, timeout time.Duration, logger *applogger.Logger) *CacheWarmer {
	if logger == nil {
		logger = applogger.NewNop()
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &CacheWarmer{
		cron:    cron.New(),
		history: history,
		symbols: symbols,
		timeout: timeout,
		logger:  logger,
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Register schedules the refresh job. schedule is a 5-field cron spec or a
// descriptor such as "@every 5m".
func (w *CacheWarmer) Register(schedule string) error {
	job := cron.NewChain(cron.SkipIfStillRunning(cron.DiscardLogger)).Then(cron.FuncJob(func() {
		w.RunOnce(w.ctx)
	}))
	if _, err := w.cron.AddJob(schedule, job); err != nil {
		return fmt.Errorf("register cache warmer %q: %w", schedule, err)
	}
	return nil
}

// RunOnce refreshes every configured symbol and returns how many succeeded.
func (w *CacheWarmer) RunOnce(ctx context.Context) int {
	warmed := 0
	for _, symbol := range w.symbols {
		if ctx.Err() != nil {
			break
		}
		callCtx, cancel := context.WithTimeout(ctx, w.timeout)
		n, err := w.history.Refresh(callCtx, usecase.HistoryParams{Symbol: symbol})
		cancel()
		if err != nil {
			w.logger.Warn("cache warm failed", applogger.String("symbol", symbol), applogger.Error(err))
			continue
		}
		w.logger.Debug("cache warmed", applogger.String("symbol", symbol), applogger.Int("points", n))
		warmed++
	}
	return warmed
}

func (w *CacheWarmer) Start() {
	w.cron.Start()
	w.logger.Info("cache warmer started", applogger.Strings("symbols", w.symbols))
}

// Stop cancels a running refresh and waits for it to return.
func (w *CacheWarmer) Stop() {
	w.cancel()
	<-w.cron.Stop().Done()
	w.logger.Info("cache warmer stopped")
}
