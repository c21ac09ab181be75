// Package config defines the top-level configuration for the linesight
// engine and provides validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the root configuration structure. Fields are populated from a TOML
// file and then optionally overridden by LINESIGHT_* environment variables.
type Config struct {
	Engine   EngineConfig   `toml:"engine"`
	Feeds    FeedsConfig    `toml:"feeds"`
	TheOdds  TheOddsConfig  `toml:"theodds"`
	Kalshi   KalshiConfig   `toml:"kalshi"`
	Postgres PostgresConfig `toml:"postgres"`
	Redis    RedisConfig    `toml:"redis"`
	Server   ServerConfig   `toml:"server"`
	Notify   NotifyConfig   `toml:"notify"`
	Mode     string         `toml:"mode"`
	LogLevel string         `toml:"log_level"`
}

// EngineConfig holds detection and validation thresholds.
type EngineConfig struct {
	// MinThreshold is the minimum edge (as a probability, e.g. 0.02 = 2%)
	// an opportunity must clear before it is reported.
	MinThreshold float64 `toml:"min_threshold"`
	// SpreadWarnThreshold flags quotes whose bid/ask spread exceeds this
	// width; such quotes are kept but annotated.
	SpreadWarnThreshold float64 `toml:"spread_warn_threshold"`
	// ProbabilitySumTolerance bounds how far a binary market's implied
	// probabilities may drift from summing to 1.0 before being flagged.
	ProbabilitySumTolerance float64 `toml:"probability_sum_tolerance"`
	// TopN caps how many opportunities each cycle reports; 0 means all.
	TopN int `toml:"top_n"`
}

// FeedsConfig holds feed caching and pacing parameters shared by all venues.
type FeedsConfig struct {
	CacheTTL           duration `toml:"cache_ttl"`
	MinRequestInterval duration `toml:"min_request_interval"`
	QuotaWarnAt        int      `toml:"quota_warn_at"`
	CollectInterval    duration `toml:"collect_interval"`
}

// TheOddsConfig holds The Odds API aggregator parameters.
type TheOddsConfig struct {
	Enabled bool   `toml:"enabled"`
	BaseURL string `toml:"base_url"`
	ApiKey  string `toml:"api_key"`
	Sport   string `toml:"sport"`
	Regions string `toml:"regions"`
}

// KalshiConfig holds Kalshi exchange market data parameters. Reads use the
// public endpoints, so no credentials are required.
type KalshiConfig struct {
	Enabled      bool   `toml:"enabled"`
	BaseURL      string `toml:"base_url"`
	SeriesTicker string `toml:"series_ticker"`
}

// PostgresConfig holds PostgreSQL connection parameters.
type PostgresConfig struct {
	DSN           string `toml:"dsn"`
	Host          string `toml:"host"`
	Port          int    `toml:"port"`
	Database      string `toml:"database"`
	User          string `toml:"user"`
	Password      string `toml:"password"`
	SSLMode       string `toml:"ssl_mode"`
	PoolMaxConns  int    `toml:"pool_max_conns"`
	PoolMinConns  int    `toml:"pool_min_conns"`
	RunMigrations bool   `toml:"run_migrations"`
}

// RedisConfig holds Redis connection parameters. Redis is optional; when
// disabled the engine runs without the summary cache.
type RedisConfig struct {
	Enabled    bool     `toml:"enabled"`
	Addr       string   `toml:"addr"`
	Password   string   `toml:"password"`
	DB         int      `toml:"db"`
	PoolSize   int      `toml:"pool_size"`
	MaxRetries int      `toml:"max_retries"`
	TLSEnabled bool     `toml:"tls_enabled"`
	SummaryTTL duration `toml:"summary_ttl"`
}

// ServerConfig holds HTTP server parameters.
type ServerConfig struct {
	Enabled     bool     `toml:"enabled"`
	Port        int      `toml:"port"`
	CORSOrigins []string `toml:"cors_origins"`
	ApiKey      string   `toml:"api_key"`
}

// NotifyConfig holds notification channel credentials. Channels with empty
// credentials are skipped.
type NotifyConfig struct {
	TelegramToken     string   `toml:"telegram_token"`
	TelegramChatID    string   `toml:"telegram_chat_id"`
	DiscordWebhookURL string   `toml:"discord_webhook_url"`
	Events            []string `toml:"events"`
}

// duration wraps time.Duration so it can be written as "5m" in TOML.
type duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler so the TOML decoder can
// parse duration strings like "5m" or "30s".
func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText implements encoding.TextMarshaler for round-trip encoding.
func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Defaults returns a Config populated with reasonable default values.
// These match the values in config.example.toml.
func Defaults() Config {
	return Config{
		Engine: EngineConfig{
			MinThreshold:            0.02,
			SpreadWarnThreshold:     0.20,
			ProbabilitySumTolerance: 0.10,
			TopN:                    20,
		},
		Feeds: FeedsConfig{
			CacheTTL:           duration{300 * time.Second},
			MinRequestInterval: duration{time.Second},
			QuotaWarnAt:        50,
			CollectInterval:    duration{5 * time.Minute},
		},
		TheOdds: TheOddsConfig{
			Enabled: true,
			BaseURL: "https://api.the-odds-api.com/v4",
			Sport:   "americanfootball_nfl",
			Regions: "us",
		},
		Kalshi: KalshiConfig{
			Enabled:      true,
			BaseURL:      "https://api.elections.kalshi.com/trade-api/v2",
			SeriesTicker: "KXNFLGAME",
		},
		Postgres: PostgresConfig{
			Host:          "localhost",
			Port:          5432,
			Database:      "linesight",
			User:          "postgres",
			SSLMode:       "disable",
			PoolMaxConns:  10,
			PoolMinConns:  2,
			RunMigrations: true,
		},
		Redis: RedisConfig{
			Enabled:    true,
			Addr:       "localhost:6379",
			DB:         0,
			PoolSize:   20,
			MaxRetries: 3,
			SummaryTTL: duration{time.Hour},
		},
		Server: ServerConfig{
			Enabled:     true,
			Port:        8000,
			CORSOrigins: []string{"http://localhost:3000", "http://localhost:5173"},
		},
		Notify: NotifyConfig{
			Events: []string{"opportunity_detected"},
		},
		Mode:     "full",
		LogLevel: "info",
	}
}

// validModes enumerates the accepted values for Config.Mode.
var validModes = map[string]bool{
	"collect": true,
	"watch":   true,
	"server":  true,
	"full":    true,
}

// validLogLevels enumerates the accepted values for Config.LogLevel.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks Config for obviously invalid or missing values and returns a
// combined error describing every problem found.
func (c *Config) Validate() error {
	var errs []string

	// Mode
	if !validModes[strings.ToLower(c.Mode)] {
		errs = append(errs, fmt.Sprintf("unknown mode %q (valid: collect, watch, server, full)", c.Mode))
	}

	// LogLevel
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	// Engine thresholds are probabilities.
	if c.Engine.MinThreshold <= 0 || c.Engine.MinThreshold >= 1 {
		errs = append(errs, fmt.Sprintf("engine: min_threshold must be in (0, 1), got %v", c.Engine.MinThreshold))
	}
	if c.Engine.SpreadWarnThreshold <= 0 || c.Engine.SpreadWarnThreshold >= 1 {
		errs = append(errs, fmt.Sprintf("engine: spread_warn_threshold must be in (0, 1), got %v", c.Engine.SpreadWarnThreshold))
	}
	if c.Engine.ProbabilitySumTolerance <= 0 || c.Engine.ProbabilitySumTolerance >= 1 {
		errs = append(errs, fmt.Sprintf("engine: probability_sum_tolerance must be in (0, 1), got %v", c.Engine.ProbabilitySumTolerance))
	}
	if c.Engine.TopN < 0 {
		errs = append(errs, "engine: top_n must be >= 0")
	}

	// Feeds
	if c.Feeds.CacheTTL.Duration <= 0 {
		errs = append(errs, "feeds: cache_ttl must be positive")
	}
	if c.Feeds.MinRequestInterval.Duration <= 0 {
		errs = append(errs, "feeds: min_request_interval must be positive")
	}
	if c.Feeds.CollectInterval.Duration <= 0 {
		errs = append(errs, "feeds: collect_interval must be positive")
	}

	// Venues — collection modes need at least one enabled feed.
	collects := c.Mode == "collect" || c.Mode == "watch" || c.Mode == "full"
	if collects && !c.TheOdds.Enabled && !c.Kalshi.Enabled {
		errs = append(errs, "feeds: at least one venue must be enabled for mode "+c.Mode)
	}
	if c.TheOdds.Enabled {
		if c.TheOdds.BaseURL == "" {
			errs = append(errs, "theodds: base_url must not be empty")
		}
		if collects && c.TheOdds.ApiKey == "" {
			errs = append(errs, "theodds: api_key is required when the feed is enabled")
		}
		if c.TheOdds.Sport == "" {
			errs = append(errs, "theodds: sport must not be empty")
		}
	}
	if c.Kalshi.Enabled && c.Kalshi.BaseURL == "" {
		errs = append(errs, "kalshi: base_url must not be empty")
	}

	// Postgres
	if strings.TrimSpace(c.Postgres.DSN) == "" {
		if c.Postgres.Host == "" {
			errs = append(errs, "postgres: host must not be empty (or set postgres.dsn)")
		}
		if c.Postgres.Port <= 0 || c.Postgres.Port > 65535 {
			errs = append(errs, fmt.Sprintf("postgres: port must be 1-65535, got %d", c.Postgres.Port))
		}
		if c.Postgres.Database == "" {
			errs = append(errs, "postgres: database must not be empty")
		}
	}
	if c.Postgres.PoolMaxConns < 1 {
		errs = append(errs, "postgres: pool_max_conns must be >= 1")
	}
	if c.Postgres.PoolMinConns < 0 {
		errs = append(errs, "postgres: pool_min_conns must be >= 0")
	}
	if c.Postgres.PoolMinConns > c.Postgres.PoolMaxConns {
		errs = append(errs, "postgres: pool_min_conns must not exceed pool_max_conns")
	}

	// Redis
	if c.Redis.Enabled {
		if c.Redis.Addr == "" {
			errs = append(errs, "redis: addr must not be empty")
		}
		if c.Redis.PoolSize < 1 {
			errs = append(errs, "redis: pool_size must be >= 1")
		}
	}

	// Server
	if c.Server.Enabled {
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			errs = append(errs, fmt.Sprintf("server: port must be 1-65535, got %d", c.Server.Port))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
