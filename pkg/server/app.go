package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"StockSignal/internal/scheduler"
	"StockSignal/pkg/config"
	xhttp "StockSignal/pkg/http"
	applogger "StockSignal/pkg/logger"
)

// App encapsulates the application lifecycle.
type App struct {
	cfg    *config.Config
	logger *applogger.Logger
	http   *xhttp.Server
	warmer *scheduler.CacheWarmer
}

// New creates a new App. warmer may be nil.
func New(cfg *config.Config, l *applogger.Logger, srv *xhttp.Server, warmer *scheduler.CacheWarmer) *App {
	return &App{cfg: cfg, logger: l, http: srv, warmer: warmer}
}

// Run starts the HTTP server and cache warmer and blocks until ctx is done,
// an interrupt arrives or the listener fails.
func (a *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if a.warmer != nil {
		// fill the cache before the first scheduled tick
		go a.warmer.RunOnce(ctx)
		a.warmer.Start()
	}

	errCh := a.http.Start()
	a.logger.Info("stocksignal started",
		applogger.String("env", a.cfg.Environment),
		applogger.String("provider", a.cfg.MarketData.Provider),
		applogger.String("classifier", a.cfg.Classifier.Type),
		applogger.String("cache", a.cfg.Cache.Backend),
	)

	var runErr error
	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err, ok := <-errCh:
		if ok && err != nil {
			a.logger.Error("http server failed", applogger.Error(err))
			runErr = err
		}
	}

	a.shutdown()
	return runErr
}

func (a *App) shutdown() {
	a.logger.Info("shutting down")

	if a.warmer != nil {
		a.warmer.Stop()
	}
	if err := a.http.Stop(context.Background()); err != nil {
		a.logger.Error("http shutdown error", applogger.Error(err))
	}

	a.logger.Info("shutdown complete")
}
