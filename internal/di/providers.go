package di

import (
	"context"
	"errors"
	"fmt"
	"time"

	"StockSignal/internal/domain/repository"
	"StockSignal/internal/handler/api"
	internalrepo "StockSignal/internal/repository"
	"StockSignal/internal/scheduler"
	"StockSignal/internal/service/ratelimit"
	"StockSignal/internal/service/yahoo"
	"StockSignal/internal/services/classifier"
	"StockSignal/internal/services/signal"
	"StockSignal/internal/usecase"
	"StockSignal/pkg/cache"
	pkgch "StockSignal/pkg/clickhouse"
	"StockSignal/pkg/config"
	xhttp "StockSignal/pkg/http"
	"StockSignal/pkg/http/middleware"
	pkgkafka "StockSignal/pkg/kafka"
	applogger "StockSignal/pkg/logger"
	"StockSignal/pkg/metrics"
	"StockSignal/pkg/server"
	pkgsqlite "StockSignal/pkg/sqlite"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const schemaTimeout = 10 * time.Second

// ProvideLogger creates the application logger from the logger section.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	l, err := applogger.New(&applogger.Config{
		Level:  cfg.Logger.Level,
		Format: cfg.Logger.Format,
		Output: cfg.Logger.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l, nil
}

// ProvideRegistry creates the Prometheus registry served on the metrics path.
func ProvideRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics(reg *prometheus.Registry) repository.Metrics {
	return metrics.NewWithRegistry(reg)
}

// ProvideYahooClient creates the Yahoo chart and search client.
func ProvideYahooClient(cfg *config.Config, l *applogger.Logger) (*yahoo.Client, error) {
	httpOpts := []xhttp.ClientOption{xhttp.WithTimeout(cfg.MarketData.Timeout)}
	if cfg.MarketData.Proxy != "" {
		httpOpts = append(httpOpts, xhttp.WithProxy(cfg.MarketData.Proxy))
	}
	return yahoo.New(httpOpts,
		yahoo.WithBaseURL(cfg.MarketData.BaseURL),
		yahoo.WithSearchURL(cfg.MarketData.SearchURL),
		yahoo.WithAliases(cfg.MarketData.Aliases),
		yahoo.WithLogger(l),
	)
}

// ProvideBarSource selects the daily bar provider. Database-backed providers
// return a cleanup that closes the connection.
func ProvideBarSource(cfg *config.Config, y *yahoo.Client, l *applogger.Logger) (repository.BarSource, func(), error) {
	switch cfg.MarketData.Provider {
	case config.ProviderClickHouse:
		client, err := pkgch.NewClient(
			pkgch.WithAddr(cfg.ClickHouse.Host, cfg.ClickHouse.Port),
			pkgch.WithAuth(cfg.ClickHouse.Database, cfg.ClickHouse.User, cfg.ClickHouse.Password),
			pkgch.WithPool(10, 5),
			pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
			pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout),
			pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
		)
		if err != nil {
			return nil, nil, fmt.Errorf("clickhouse client: %w", err)
		}
		ctx, cancel := context.WithTimeout(context.Background(), schemaTimeout)
		defer cancel()
		if err := client.InitSchema(ctx, internalrepo.ClickHouseSchema(cfg.ClickHouse.Database, cfg.ClickHouse.Table)); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("clickhouse schema: %w", err)
		}
		store, err := internalrepo.NewSQLBarStore(client.DB(), cfg.ClickHouse.Database+"."+cfg.ClickHouse.Table, internalrepo.SourceClickHouse)
		if err != nil {
			_ = client.Close()
			return nil, nil, err
		}
		store.SetLogger(l)
		return store, func() { _ = client.Close() }, nil

	case config.ProviderSQLite:
		client, err := pkgsqlite.NewClient(
			pkgsqlite.WithPath(cfg.SQLite.Path),
			pkgsqlite.WithBusyTimeout(cfg.SQLite.BusyTimeout),
		)
		if err != nil {
			return nil, nil, fmt.Errorf("sqlite client: %w", err)
		}
		ctx, cancel := context.WithTimeout(context.Background(), schemaTimeout)
		defer cancel()
		if err := client.InitSchema(ctx, internalrepo.SQLiteSchema(cfg.SQLite.Table)); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("sqlite schema: %w", err)
		}
		store, err := internalrepo.NewSQLBarStore(client.DB(), cfg.SQLite.Table, internalrepo.SourceSQLite)
		if err != nil {
			_ = client.Close()
			return nil, nil, err
		}
		store.SetLogger(l)
		return store, func() { _ = client.Close() }, nil

	default:
		return y, func() {}, nil
	}
}

// ProvideCache creates the history/search cache for cfg.Cache.Backend.
func ProvideCache(cfg *config.Config) (cache.Service, func(), error) {
	var svc cache.Service
	switch cfg.Cache.Backend {
	case config.CacheRedis, config.CacheLayered:
		remote, err := cache.NewRedisCache(
			cache.WithRedisAddr(cfg.Redis.Addr),
			cache.WithRedisPassword(cfg.Redis.Password),
			cache.WithRedisDB(cfg.Redis.DB),
			cache.WithRedisPrefix(cfg.Redis.Prefix),
		)
		if err != nil {
			return nil, nil, fmt.Errorf("redis cache: %w", err)
		}
		svc = remote
		if cfg.Cache.Backend == config.CacheLayered {
			svc = cache.NewLayeredCache(remote, cache.WithLayeredMemorySize(cfg.Cache.MemoryMaxSize))
		}
	default:
		svc = cache.NewMemoryCache(cache.WithMemoryMaxSize(cfg.Cache.MemoryMaxSize))
	}
	return svc, func() { _ = svc.Close() }, nil
}

// ProvideSelector loads the configured classifier, if any, behind the strategy selector.
func ProvideSelector(cfg *config.Config, l *applogger.Logger) (*signal.Selector, error) {
	clf, err := classifier.Load(cfg)
	switch {
	case errors.Is(err, classifier.ErrUnknownType):
		return nil, fmt.Errorf("classifier: %w", err)
	case err != nil:
		l.Warn("classifier unavailable, using rule table",
			applogger.String("type", cfg.Classifier.Type),
			applogger.String("path", cfg.Classifier.Path),
			applogger.String("url", cfg.Classifier.URL),
			applogger.Error(err),
		)
		return signal.NewSelector(nil), nil
	case clf == nil:
		l.Info("no classifier configured, using rule table", applogger.Bool("model", false))
		return signal.NewSelector(nil), nil
	}

	th := signal.Thresholds{
		Buy:  cfg.Classifier.BuyThreshold,
		Sell: cfg.Classifier.SellThreshold,
	}
	l.Info("classifier loaded",
		applogger.String("classifier", clf.Name()),
		applogger.Bool("model", true),
		applogger.Any("thresholds", th),
	)
	return signal.NewSelector(signal.NewClassifierDecider(clf,
		signal.WithThresholds(th),
		signal.WithLogger(l),
	)), nil
}

func ProvidePredictUseCase(cfg *config.Config, bars repository.BarSource, sel *signal.Selector, m repository.Metrics, l *applogger.Logger) *usecase.PredictUseCase {
	return usecase.NewPredictUseCase(bars, sel, m, l, cfg.MarketData.LookbackDays)
}

func ProvideHistoryUseCase(cfg *config.Config, src repository.HistorySource, c cache.Service, m repository.Metrics, l *applogger.Logger) *usecase.HistoryUseCase {
	return usecase.NewHistoryUseCase(src, c, cfg.Cache.HistoryTTL, m, l,
		cfg.MarketData.HistoryRange, repository.NormalizeInterval(cfg.MarketData.HistoryInterval))
}

func ProvideSearchUseCase(cfg *config.Config, s repository.SymbolSearcher, c cache.Service, m repository.Metrics) *usecase.SearchUseCase {
	return usecase.NewSearchUseCase(s, c, cfg.Cache.SearchTTL, m)
}

// ProvideRateLimiter returns nil when rate limiting is disabled.
func ProvideRateLimiter(cfg *config.Config) middleware.Allower {
	if !cfg.Server.RateLimit.Enabled {
		return nil
	}
	return ratelimit.New(cfg.Server.RateLimit.RPS, cfg.Server.RateLimit.Burst)
}

func ProvidePredictionHandler(
	l *applogger.Logger,
	p *usecase.PredictUseCase,
	h *usecase.HistoryUseCase,
	s *usecase.SearchUseCase,
	limiter middleware.Allower,
) *api.PredictionHandler {
	return api.NewPredictionHandler(l, p, h, s, limiter)
}

// ProvideHTTPServer builds the echo server with routes and middleware.
func ProvideHTTPServer(cfg *config.Config, l *applogger.Logger, h *api.PredictionHandler, reg *prometheus.Registry) *xhttp.Server {
	opts := []xhttp.ServerOption{
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
	}
	if cfg.Server.CORS {
		opts = append(opts, xhttp.WithCORS(middleware.DefaultCORSConfig()))
	}
	if cfg.Metrics.Enabled {
		opts = append(opts, xhttp.WithMetrics(reg, reg, cfg.Metrics.Path))
	}
	return xhttp.NewServer(l, []xhttp.Handler{h}, opts...)
}

// ProvideCacheWarmer returns nil when no warm symbols are configured.
func ProvideCacheWarmer(cfg *config.Config, h *usecase.HistoryUseCase, l *applogger.Logger) (*scheduler.CacheWarmer, error) {
	if len(cfg.Cache.WarmSymbols) == 0 {
		return nil, nil
	}
	w := scheduler.NewCacheWarmer(h, cfg.Cache.WarmSymbols, cfg.MarketData.Timeout, l)
	if err := w.Register(cfg.Cache.WarmSchedule); err != nil {
		return nil, err
	}
	return w, nil
}

// ProvideLogShipping attaches a Kafka-backed error log collector to l when
// kafka is enabled. The cleanup flushes the collector before closing the producer.
func ProvideLogShipping(cfg *config.Config, l *applogger.Logger, reg *prometheus.Registry) (*pkgkafka.Producer, func(), error) {
	if !cfg.Kafka.Enabled {
		return nil, func() {}, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithTopic(cfg.Kafka.Topic),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithMaxAttempts(cfg.Kafka.MaxAttempts),
		pkgkafka.WithWriteTimeout(cfg.Kafka.WriteTimeout),
		pkgkafka.WithBatching(cfg.Kafka.BatchSize, cfg.Kafka.BatchTimeout),
		pkgkafka.WithRegisterer(reg),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("kafka producer: %w", err)
	}
	l.SetCollector(applogger.NewLogCollector(applogger.CollectionConfig{
		TimeInterval:   cfg.Kafka.Collector.FlushInterval,
		CountThreshold: cfg.Kafka.Collector.MaxCount,
		Topic:          cfg.Kafka.Topic,
		Source:         "stocksignal",
		Publisher:      producer,
	}))
	return producer, func() {
		l.Close()
		_ = producer.Close()
	}, nil
}

// ProvideApp creates the application lifecycle owner.
func ProvideApp(cfg *config.Config, l *applogger.Logger, srv *xhttp.Server, warmer *scheduler.CacheWarmer, _ *pkgkafka.Producer) *server.App {
	return server.New(cfg, l, srv, warmer)
}
