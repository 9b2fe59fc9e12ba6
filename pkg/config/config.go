package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	xutil "StockSignal/pkg/util"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment"`
	Server      struct {
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
		CORS            bool          `yaml:"cors"`
		RateLimit       struct {
			Enabled bool    `yaml:"enabled"`
			RPS     float64 `yaml:"rps"`
			Burst   int     `yaml:"burst"`
		} `yaml:"rate_limit"`
	} `yaml:"server"`
	Logger struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
		Output string `yaml:"output"`
	} `yaml:"logger"`
	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"metrics"`
	MarketData struct {
		Provider        string            `yaml:"provider"`
		BaseURL         string            `yaml:"base_url"`
		SearchURL       string            `yaml:"search_url"`
		LookbackDays    int               `yaml:"lookback_days"`
		HistoryRange    string            `yaml:"history_range"`
		HistoryInterval string            `yaml:"history_interval"`
		Timeout         time.Duration     `yaml:"timeout"`
		Proxy           string            `yaml:"proxy"`
		Aliases         map[string]string `yaml:"aliases"`
	} `yaml:"market_data"`
	Classifier struct {
		Type          string        `yaml:"type"`
		Path          string        `yaml:"path"`
		URL           string        `yaml:"url"`
		Timeout       time.Duration `yaml:"timeout"`
		BuyThreshold  float64       `yaml:"buy_threshold"`
		SellThreshold float64       `yaml:"sell_threshold"`
	} `yaml:"classifier"`
	Cache struct {
		Backend       string        `yaml:"backend"`
		HistoryTTL    time.Duration `yaml:"history_ttl"`
		SearchTTL     time.Duration `yaml:"search_ttl"`
		MemoryMaxSize int           `yaml:"memory_max_size"`
		WarmSymbols   []string      `yaml:"warm_symbols"`
		WarmSchedule  string        `yaml:"warm_schedule"`
	} `yaml:"cache"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		Prefix   string `yaml:"prefix"`
	} `yaml:"redis"`
	ClickHouse struct {
		Host             string        `yaml:"host"`
		Port             int           `yaml:"port"`
		Database         string        `yaml:"database"`
		Table            string        `yaml:"table"`
		User             string        `yaml:"user"`
		Password         string        `yaml:"password"`
		UseHTTP          bool          `yaml:"use_http"`
		DialTimeout      time.Duration `yaml:"dial_timeout"`
		ReadTimeout      time.Duration `yaml:"read_timeout"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time"`
	} `yaml:"clickhouse"`
	SQLite struct {
		Path        string        `yaml:"path"`
		Table       string        `yaml:"table"`
		BusyTimeout time.Duration `yaml:"busy_timeout"`
	} `yaml:"sqlite"`
	Kafka struct {
		Enabled      bool          `yaml:"enabled"`
		Brokers      []string      `yaml:"brokers"`
		Topic        string        `yaml:"topic"`
		RequiredAcks int           `yaml:"required_acks"`
		Compression  string        `yaml:"compression"`
		MaxAttempts  int           `yaml:"max_attempts"`
		WriteTimeout time.Duration `yaml:"write_timeout"`
		BatchSize    int           `yaml:"batch_size"`
		BatchTimeout time.Duration `yaml:"batch_timeout"`
		Collector    struct {
			MaxCount      int           `yaml:"max_count"`
			FlushInterval time.Duration `yaml:"flush_interval"`
		} `yaml:"collector"`
	} `yaml:"kafka"`
}

const (
	ProviderYahoo      = "yahoo"
	ProviderClickHouse = "clickhouse"
	ProviderSQLite     = "sqlite"

	ClassifierNone = "none"
	ClassifierFile = "file"
	ClassifierHTTP = "http"

	CacheMemory  = "memory"
	CacheRedis   = "redis"
	CacheLayered = "layered"
)

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	c, err := parse(path)
	if err != nil {
		return nil, err
	}

	// Validate required fields
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := parse(path)
	if err != nil {
		return nil, err
	}

	c.applyEnv(os.Getenv)

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

func parse(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	c.applyDefaults()
	return &c, nil
}

func (c *Config) applyEnv(getenv func(string) string) {
	if v := getenv("PORT"); v != "" {
		c.Server.Port = xutil.ParseIntDefault(v, c.Server.Port)
	}
	if v := getenv("MARKET_DATA_PROVIDER"); v != "" {
		c.MarketData.Provider = v
	}
	if v := getenv("CLASSIFIER_TYPE"); v != "" {
		c.Classifier.Type = v
	}
	if v := getenv("CLASSIFIER_PATH"); v != "" {
		c.Classifier.Path = v
	}
	if v := getenv("CLASSIFIER_URL"); v != "" {
		c.Classifier.URL = v
	}
	if v := getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
	}
	if v := getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = xutil.SplitCSV(v)
	}
	if v := getenv("LOG_LEVEL"); v != "" {
		c.Logger.Level = strings.ToLower(v)
	}
}

func (c *Config) applyDefaults() {
	if c.Environment == "" {
		c.Environment = "development"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8000
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 10 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 30 * time.Second
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 10 * time.Second
	}
	if c.Server.RateLimit.RPS == 0 {
		c.Server.RateLimit.RPS = 5
	}
	if c.Server.RateLimit.Burst == 0 {
		c.Server.RateLimit.Burst = 10
	}
	if c.Logger.Level == "" {
		c.Logger.Level = "info"
	}
	if c.Logger.Format == "" {
		c.Logger.Format = "json"
	}
	if c.Logger.Output == "" {
		c.Logger.Output = "stdout"
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}
	if c.MarketData.Provider == "" {
		c.MarketData.Provider = ProviderYahoo
	}
	if c.MarketData.BaseURL == "" {
		c.MarketData.BaseURL = "https://query1.finance.yahoo.com"
	}
	if c.MarketData.SearchURL == "" {
		c.MarketData.SearchURL = "https://query2.finance.yahoo.com"
	}
	if c.MarketData.LookbackDays == 0 {
		c.MarketData.LookbackDays = 150
	}
	if c.MarketData.HistoryRange == "" {
		c.MarketData.HistoryRange = "1mo"
	}
	if c.MarketData.HistoryInterval == "" {
		c.MarketData.HistoryInterval = "1h"
	}
	if c.MarketData.Timeout == 0 {
		c.MarketData.Timeout = 10 * time.Second
	}
	if c.Classifier.Type == "" {
		c.Classifier.Type = ClassifierNone
	}
	if c.Classifier.Timeout == 0 {
		c.Classifier.Timeout = 3 * time.Second
	}
	if c.Classifier.BuyThreshold == 0 {
		c.Classifier.BuyThreshold = 0.55
	}
	if c.Classifier.SellThreshold == 0 {
		c.Classifier.SellThreshold = 0.55
	}
	if c.Cache.Backend == "" {
		c.Cache.Backend = CacheMemory
	}
	if c.Cache.HistoryTTL == 0 {
		c.Cache.HistoryTTL = 5 * time.Minute
	}
	if c.Cache.SearchTTL == 0 {
		c.Cache.SearchTTL = time.Hour
	}
	if c.Cache.MemoryMaxSize == 0 {
		c.Cache.MemoryMaxSize = 1000
	}
	if c.Redis.Prefix == "" {
		c.Redis.Prefix = "stocksignal:"
	}
	if c.ClickHouse.Port == 0 {
		c.ClickHouse.Port = 9000
	}
	if c.ClickHouse.Database == "" {
		c.ClickHouse.Database = "market"
	}
	if c.ClickHouse.Table == "" {
		c.ClickHouse.Table = "daily_bars"
	}
	if c.Cache.WarmSchedule == "" {
		c.Cache.WarmSchedule = "@every 5m"
	}
	if c.SQLite.Table == "" {
		c.SQLite.Table = "daily_bars"
	}
	if c.SQLite.BusyTimeout == 0 {
		c.SQLite.BusyTimeout = 5 * time.Second
	}
	if c.Kafka.Topic == "" {
		c.Kafka.Topic = "stocksignal.logs"
	}
	if c.Kafka.RequiredAcks == 0 {
		c.Kafka.RequiredAcks = 1
	}
	if c.Kafka.MaxAttempts == 0 {
		c.Kafka.MaxAttempts = 3
	}
	if c.Kafka.Collector.MaxCount == 0 {
		c.Kafka.Collector.MaxCount = 100
	}
	if c.Kafka.Collector.FlushInterval == 0 {
		c.Kafka.Collector.FlushInterval = 30 * time.Second
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	switch c.MarketData.Provider {
	case ProviderYahoo:
	case ProviderClickHouse:
		if c.ClickHouse.Host == "" {
			return fmt.Errorf("clickhouse.host is required for market_data.provider '%s'", ProviderClickHouse)
		}
	case ProviderSQLite:
		if c.SQLite.Path == "" {
			return fmt.Errorf("sqlite.path is required for market_data.provider '%s'", ProviderSQLite)
		}
	default:
		return fmt.Errorf("market_data.provider must be 'yahoo', 'clickhouse' or 'sqlite', got '%s'", c.MarketData.Provider)
	}
	if c.MarketData.LookbackDays < 75 {
		return fmt.Errorf("market_data.lookback_days must cover at least 75 calendar days, got %d", c.MarketData.LookbackDays)
	}
	if _, ok := xutil.RangeDays(c.MarketData.HistoryRange); !ok {
		return fmt.Errorf("market_data.history_range unsupported: '%s'", c.MarketData.HistoryRange)
	}
	switch c.Classifier.Type {
	case ClassifierNone:
	case ClassifierFile:
		if c.Classifier.Path == "" {
			return fmt.Errorf("classifier.path is required for classifier.type 'file'")
		}
	case ClassifierHTTP:
		if c.Classifier.URL == "" {
			return fmt.Errorf("classifier.url is required for classifier.type 'http'")
		}
	default:
		return fmt.Errorf("classifier.type must be 'none', 'file' or 'http', got '%s'", c.Classifier.Type)
	}
	for name, th := range map[string]float64{
		"classifier.buy_threshold":  c.Classifier.BuyThreshold,
		"classifier.sell_threshold": c.Classifier.SellThreshold,
	} {
		if th <= 0 || th > 1 {
			return fmt.Errorf("%s must be in (0, 1], got %v", name, th)
		}
	}
	switch c.Cache.Backend {
	case CacheMemory:
	case CacheRedis, CacheLayered:
		if c.Redis.Addr == "" {
			return fmt.Errorf("redis.addr is required for cache.backend '%s'", c.Cache.Backend)
		}
	default:
		return fmt.Errorf("cache.backend must be 'memory', 'redis' or 'layered', got '%s'", c.Cache.Backend)
	}
	if len(c.Cache.WarmSymbols) > 0 && strings.TrimSpace(c.Cache.WarmSchedule) == "" {
		return fmt.Errorf("cache.warm_schedule is required when cache.warm_symbols is set")
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers cannot be empty when kafka.enabled")
	}
	return nil
}
