package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sharpagents/linesight/internal/arb"
	"github.com/sharpagents/linesight/internal/cache/redis"
	"github.com/sharpagents/linesight/internal/config"
	"github.com/sharpagents/linesight/internal/domain"
	"github.com/sharpagents/linesight/internal/feedcache"
	"github.com/sharpagents/linesight/internal/normalize"
	"github.com/sharpagents/linesight/internal/notify"
	"github.com/sharpagents/linesight/internal/pipeline"
	"github.com/sharpagents/linesight/internal/platform/kalshi"
	"github.com/sharpagents/linesight/internal/platform/theodds"
	"github.com/sharpagents/linesight/internal/service"
	"github.com/sharpagents/linesight/internal/store/postgres"
	"github.com/sharpagents/linesight/internal/validate"
)

// Dependencies bundles everything the application modes need to operate. It
// is constructed by Wire and torn down by the returned cleanup function.
type Dependencies struct {
	// Stores
	MarketStore      domain.MarketStore
	QuoteStore       domain.QuoteStore
	OpportunityStore domain.OpportunityStore

	// Caches; nil when Redis is disabled or unreachable.
	SummaryCache domain.SummaryCache

	// Feeds
	Feeds  *feedcache.Cache
	Venues []string

	// Services
	Markets *service.MarketService
	Arb     *service.ArbService

	// Collection
	Collector *pipeline.Collector
}

// Wire constructs all concrete dependency implementations from the given
// configuration and returns them together with a cleanup function that should
// be called on shutdown to release resources.
func Wire(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{}

	// --- PostgreSQL ---
	pgClient, err := postgres.New(ctx, postgres.ClientConfig{
		DSN:      cfg.Postgres.DSN,
		Host:     cfg.Postgres.Host,
		Port:     cfg.Postgres.Port,
		Database: cfg.Postgres.Database,
		User:     cfg.Postgres.User,
		Password: cfg.Postgres.Password,
		SSLMode:  cfg.Postgres.SSLMode,
		MaxConns: cfg.Postgres.PoolMaxConns,
		MinConns: cfg.Postgres.PoolMinConns,
	})
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: postgres: %w", err)
	}
	closers = append(closers, pgClient.Close)

	if cfg.Postgres.RunMigrations {
		if err := pgClient.RunMigrations(ctx); err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: postgres migrations: %w", err)
		}
	}

	pool := pgClient.Pool()
	deps.MarketStore = postgres.NewMarketStore(pool)
	deps.QuoteStore = postgres.NewQuoteStore(pool)
	deps.OpportunityStore = postgres.NewOpportunityStore(pool)

	// --- Redis (optional: the engine runs without the summary cache) ---
	if cfg.Redis.Enabled {
		redisClient, err := redis.New(ctx, redis.ClientConfig{
			Addr:       cfg.Redis.Addr,
			Password:   cfg.Redis.Password,
			DB:         cfg.Redis.DB,
			PoolSize:   cfg.Redis.PoolSize,
			MaxRetries: cfg.Redis.MaxRetries,
			TLSEnabled: cfg.Redis.TLSEnabled,
		})
		if err != nil {
			logger.WarnContext(ctx, "wire: redis unavailable, continuing without summary cache",
				slog.String("error", err.Error()),
			)
		} else {
			closers = append(closers, func() { _ = redisClient.Close() })
			deps.SummaryCache = redis.NewSummaryCache(redisClient, cfg.Redis.SummaryTTL.Duration)
		}
	}

	// --- Venue adapters + feed cache ---
	var adapters []domain.VenueAdapter
	if cfg.TheOdds.Enabled {
		adapters = append(adapters, theodds.NewClient(
			cfg.TheOdds.BaseURL,
			cfg.TheOdds.ApiKey,
			cfg.TheOdds.Sport,
			cfg.TheOdds.Regions,
		))
	}
	if cfg.Kalshi.Enabled {
		adapters = append(adapters, kalshi.NewClient(
			cfg.Kalshi.BaseURL,
			cfg.Kalshi.SeriesTicker,
		))
	}
	for _, a := range adapters {
		deps.Venues = append(deps.Venues, a.Name())
	}

	deps.Feeds = feedcache.New(adapters, feedcache.Options{
		TTL:         cfg.Feeds.CacheTTL.Duration,
		MinInterval: cfg.Feeds.MinRequestInterval.Duration,
		QuotaWarnAt: cfg.Feeds.QuotaWarnAt,
	}, logger)

	// --- Services ---
	deps.Markets = service.NewMarketService(
		normalize.New(logger),
		validate.New(cfg.Engine.SpreadWarnThreshold, cfg.Engine.ProbabilitySumTolerance),
		deps.MarketStore,
		deps.QuoteStore,
		deps.SummaryCache,
		logger,
	)
	deps.Arb = service.NewArbService(
		arb.NewDetector(cfg.Engine.MinThreshold, logger),
		deps.OpportunityStore,
		cfg.Engine.MinThreshold,
		cfg.Engine.TopN,
		logger,
	)

	// --- Notifications ---
	var senders []notify.Sender
	if cfg.Notify.TelegramToken != "" && cfg.Notify.TelegramChatID != "" {
		senders = append(senders, notify.NewTelegramSender(
			cfg.Notify.TelegramToken,
			cfg.Notify.TelegramChatID,
		))
	}
	if cfg.Notify.DiscordWebhookURL != "" {
		senders = append(senders, notify.NewDiscordSender(cfg.Notify.DiscordWebhookURL))
	}
	if len(senders) > 0 {
		deps.Arb.WithAlerter(notify.NewNotifier(senders, cfg.Notify.Events, logger))
	}

	// --- Collector ---
	deps.Collector = pipeline.NewCollector(deps.Feeds, deps.Markets, deps.Arb, deps.Venues, logger)

	return deps, cleanup, nil
}
