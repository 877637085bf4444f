package config

import (
	"time"

	"stock-news-trader/pkg/config"
)

// Trader holds pipeline tuning.
type Trader struct {
	MinMapConfidence float64       `mapstructure:"min_map_confidence"`
	RiskPenaltyCap   float64       `mapstructure:"risk_penalty_cap"`
	OrderQty         float64       `mapstructure:"order_qty"`
	MaxHoldingPeriod time.Duration `mapstructure:"max_holding_period"`

	RedisStreamExecutionTimeout         time.Duration `mapstructure:"redis_stream_execution_timeout"`
	RedisStreamExecutionRetryInterval   time.Duration `mapstructure:"redis_stream_execution_retry_interval"`
	RedisStreamExecutionMaxIdleDuration time.Duration `mapstructure:"redis_stream_execution_max_idle_duration"`
	RedisStreamExecutionMaxRetry        int           `mapstructure:"redis_stream_execution_max_retry"`
}

// Paper holds the simulated venue knobs.
type Paper struct {
	ReferencePrice float64       `mapstructure:"reference_price"`
	LatencyBase    time.Duration `mapstructure:"latency_base"`
	LatencyJitter  time.Duration `mapstructure:"latency_jitter"`
	FailRate       float64       `mapstructure:"fail_rate"`
}

// Broker selects and bounds the order venue.
type Broker struct {
	Driver      string        `mapstructure:"driver"`
	SendTimeout time.Duration `mapstructure:"send_timeout"`
	Paper       Paper         `mapstructure:"paper"`
}

// KIS holds the Korea Investment & Securities venue credentials.
type KIS struct {
	AppKey              string `mapstructure:"app_key"`
	AppSecret           string `mapstructure:"app_secret"`
	AccountNo           string `mapstructure:"account_no"`
	ProductCode         string `mapstructure:"product_code"`
	Mode                string `mapstructure:"mode"`
	BaseURL             string `mapstructure:"base_url"`
	MaxRequestPerMinute int    `mapstructure:"max_request_per_minute"`
}

// AI selects the event analyzer provider.
type AI struct {
	Provider string `mapstructure:"provider"`
}

// Gemini holds the configuration for the Gemini API.
type Gemini struct {
	APIKey              string `mapstructure:"api_key"`
	Model               string `mapstructure:"model"`
	MaxRequestPerMinute int    `mapstructure:"max_request_per_minute"`
}

// FeedSource is one RSS feed with its trust tier.
type FeedSource struct {
	URL    string `mapstructure:"url"`
	Source string `mapstructure:"source"`
	Tier   int    `mapstructure:"tier"`
}

// Ingest holds news feed configuration.
type Ingest struct {
	Provider      string        `mapstructure:"provider"`
	Feeds         []FeedSource  `mapstructure:"feeds"`
	FetchTimeout  time.Duration `mapstructure:"fetch_timeout"`
	BodyMaxRunes  int           `mapstructure:"body_max_runes"`
	MaxItemsSweep int           `mapstructure:"max_items_sweep"`
}

// Scheduler holds the cron expressions for the periodic sweeps.
type Scheduler struct {
	IngestCron    string `mapstructure:"ingest_cron"`
	ReconcileCron string `mapstructure:"reconcile_cron"`
}

// Config holds the full configuration for the trading service.
type Config struct {
	App       config.App      `mapstructure:"app"`
	Logger    config.Logger   `mapstructure:"logger"`
	Database  config.Database `mapstructure:"database"`
	Redis     config.Redis    `mapstructure:"redis"`
	API       config.API      `mapstructure:"api"`
	Trader    Trader          `mapstructure:"trader"`
	Broker    Broker          `mapstructure:"broker"`
	KIS       KIS             `mapstructure:"kis"`
	AI        AI              `mapstructure:"ai"`
	Gemini    Gemini          `mapstructure:"gemini"`
	Telegram  config.Telegram `mapstructure:"telegram"`
	Ingest    Ingest          `mapstructure:"ingest"`
	Scheduler Scheduler       `mapstructure:"scheduler"`
}

// Load loads the trading service configuration from the given path.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := config.Load(path, &cfg); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Trader.MinMapConfidence == 0 {
		cfg.Trader.MinMapConfidence = 0.92
	}
	if cfg.Trader.RiskPenaltyCap == 0 {
		cfg.Trader.RiskPenaltyCap = 30
	}
	if cfg.Trader.OrderQty == 0 {
		cfg.Trader.OrderQty = 1
	}
	if cfg.Trader.MaxHoldingPeriod == 0 {
		cfg.Trader.MaxHoldingPeriod = 24 * time.Hour
	}
	if cfg.Broker.Driver == "" {
		cfg.Broker.Driver = "paper"
	}
	if cfg.Broker.SendTimeout == 0 {
		cfg.Broker.SendTimeout = 8 * time.Second
	}
	if cfg.KIS.ProductCode == "" {
		cfg.KIS.ProductCode = "01"
	}
	if cfg.KIS.Mode == "" {
		cfg.KIS.Mode = "paper"
	}
	if cfg.Ingest.Provider == "" {
		cfg.Ingest.Provider = "sample"
	}
	if cfg.Ingest.BodyMaxRunes == 0 {
		cfg.Ingest.BodyMaxRunes = 4000
	}
	if cfg.Ingest.FetchTimeout == 0 {
		cfg.Ingest.FetchTimeout = 20 * time.Second
	}
	if cfg.Ingest.MaxItemsSweep == 0 {
		cfg.Ingest.MaxItemsSweep = 25
	}
	if cfg.Trader.RedisStreamExecutionTimeout == 0 {
		cfg.Trader.RedisStreamExecutionTimeout = 30 * time.Second
	}
	if cfg.Trader.RedisStreamExecutionRetryInterval == 0 {
		cfg.Trader.RedisStreamExecutionRetryInterval = 30 * time.Second
	}
	if cfg.Trader.RedisStreamExecutionMaxIdleDuration == 0 {
		cfg.Trader.RedisStreamExecutionMaxIdleDuration = time.Minute
	}
	if cfg.Trader.RedisStreamExecutionMaxRetry == 0 {
		cfg.Trader.RedisStreamExecutionMaxRetry = 3
	}
	if cfg.Scheduler.IngestCron == "" {
		cfg.Scheduler.IngestCron = "*/5 * * * *"
	}
	if cfg.Scheduler.ReconcileCron == "" {
		cfg.Scheduler.ReconcileCron = "*/10 * * * *"
	}
}
