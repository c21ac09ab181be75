package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies LINESIGHT_* environment variable overrides, and
// returns the final Config. The returned Config has NOT been validated; the
// caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known LINESIGHT_* environment variables and
// overwrites the corresponding Config fields when a variable is set (i.e. not
// empty). This lets operators inject secrets at deploy time without touching
// the TOML file.
func applyEnvOverrides(cfg *Config) {
	// ── Engine ──
	setFloat64(&cfg.Engine.MinThreshold, "LINESIGHT_ENGINE_MIN_THRESHOLD")
	setFloat64(&cfg.Engine.SpreadWarnThreshold, "LINESIGHT_ENGINE_SPREAD_WARN_THRESHOLD")
	setFloat64(&cfg.Engine.ProbabilitySumTolerance, "LINESIGHT_ENGINE_PROBABILITY_SUM_TOLERANCE")
	setInt(&cfg.Engine.TopN, "LINESIGHT_ENGINE_TOP_N")

	// ── Feeds ──
	setDuration(&cfg.Feeds.CacheTTL, "LINESIGHT_FEEDS_CACHE_TTL")
	setDuration(&cfg.Feeds.MinRequestInterval, "LINESIGHT_FEEDS_MIN_REQUEST_INTERVAL")
	setInt(&cfg.Feeds.QuotaWarnAt, "LINESIGHT_FEEDS_QUOTA_WARN_AT")
	setDuration(&cfg.Feeds.CollectInterval, "LINESIGHT_FEEDS_COLLECT_INTERVAL")

	// ── The Odds API ──
	setBool(&cfg.TheOdds.Enabled, "LINESIGHT_THEODDS_ENABLED")
	setStr(&cfg.TheOdds.BaseURL, "LINESIGHT_THEODDS_BASE_URL")
	setStr(&cfg.TheOdds.ApiKey, "LINESIGHT_THEODDS_API_KEY")
	setStr(&cfg.TheOdds.Sport, "LINESIGHT_THEODDS_SPORT")
	setStr(&cfg.TheOdds.Regions, "LINESIGHT_THEODDS_REGIONS")

	// ── Kalshi ──
	setBool(&cfg.Kalshi.Enabled, "LINESIGHT_KALSHI_ENABLED")
	setStr(&cfg.Kalshi.BaseURL, "LINESIGHT_KALSHI_BASE_URL")
	setStr(&cfg.Kalshi.SeriesTicker, "LINESIGHT_KALSHI_SERIES_TICKER")

	// ── Postgres ──
	setStr(&cfg.Postgres.DSN, "LINESIGHT_POSTGRES_DSN")
	setStr(&cfg.Postgres.DSN, "DATABASE_URL") // compatibility alias
	setStr(&cfg.Postgres.Host, "LINESIGHT_POSTGRES_HOST")
	setInt(&cfg.Postgres.Port, "LINESIGHT_POSTGRES_PORT")
	setStr(&cfg.Postgres.Database, "LINESIGHT_POSTGRES_DATABASE")
	setStr(&cfg.Postgres.User, "LINESIGHT_POSTGRES_USER")
	setStr(&cfg.Postgres.Password, "LINESIGHT_POSTGRES_PASSWORD")
	setStr(&cfg.Postgres.SSLMode, "LINESIGHT_POSTGRES_SSLMODE")
	setInt(&cfg.Postgres.PoolMaxConns, "LINESIGHT_POSTGRES_POOL_MAX_CONNS")
	setInt(&cfg.Postgres.PoolMinConns, "LINESIGHT_POSTGRES_POOL_MIN_CONNS")
	setBool(&cfg.Postgres.RunMigrations, "LINESIGHT_POSTGRES_RUN_MIGRATIONS")

	// ── Redis ──
	setBool(&cfg.Redis.Enabled, "LINESIGHT_REDIS_ENABLED")
	setStr(&cfg.Redis.Addr, "LINESIGHT_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "LINESIGHT_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "LINESIGHT_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "LINESIGHT_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "LINESIGHT_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "LINESIGHT_REDIS_TLS_ENABLED")
	setDuration(&cfg.Redis.SummaryTTL, "LINESIGHT_REDIS_SUMMARY_TTL")

	// ── Server ──
	setBool(&cfg.Server.Enabled, "LINESIGHT_SERVER_ENABLED")
	setInt(&cfg.Server.Port, "LINESIGHT_SERVER_PORT")
	setStringSlice(&cfg.Server.CORSOrigins, "LINESIGHT_SERVER_CORS_ORIGINS")
	setStr(&cfg.Server.ApiKey, "LINESIGHT_SERVER_API_KEY")

	// ── Notify ──
	setStr(&cfg.Notify.TelegramToken, "LINESIGHT_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "LINESIGHT_NOTIFY_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.DiscordWebhookURL, "LINESIGHT_NOTIFY_DISCORD_WEBHOOK_URL")
	setStringSlice(&cfg.Notify.Events, "LINESIGHT_NOTIFY_EVENTS")

	// ── Top-level ──
	setStr(&cfg.Mode, "LINESIGHT_MODE")
	setStr(&cfg.LogLevel, "LINESIGHT_LOG_LEVEL")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}
