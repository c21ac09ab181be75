package app

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/sharpagents/linesight/internal/server"
	"github.com/sharpagents/linesight/internal/server/handler"
)

// CollectMode runs a single collect-and-detect cycle and exits.
func (a *App) CollectMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting collect mode")
	return deps.Collector.Run(ctx)
}

// WatchMode runs the collect-and-detect cycle on the configured interval
// until the context is cancelled.
func (a *App) WatchMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting watch mode",
		slog.String("interval", a.cfg.Feeds.CollectInterval.Duration.String()),
	)
	return deps.Collector.RunLoop(ctx, a.cfg.Feeds.CollectInterval.Duration)
}

// ServerMode serves the read-only HTTP API over previously collected data
// without running the collector.
func (a *App) ServerMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting server mode")

	g, ctx := errgroup.WithContext(ctx)
	a.startHTTPServer(ctx, g, deps)
	return g.Wait()
}

// FullMode runs the collection loop and the HTTP API together.
func (a *App) FullMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting full mode")

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return deps.Collector.RunLoop(ctx, a.cfg.Feeds.CollectInterval.Duration)
	})
	a.startHTTPServer(ctx, g, deps)

	return g.Wait()
}

// startHTTPServer registers the API handlers and runs the HTTP server on the
// errgroup, shutting it down gracefully when the context is cancelled.
func (a *App) startHTTPServer(ctx context.Context, g *errgroup.Group, deps *Dependencies) {
	if !a.cfg.Server.Enabled {
		a.logger.InfoContext(ctx, "server.enabled is false, skipping HTTP server")
		return
	}

	srv := server.NewServer(
		server.Config{
			Port:        a.cfg.Server.Port,
			CORSOrigins: a.cfg.Server.CORSOrigins,
			APIKey:      a.cfg.Server.ApiKey,
		},
		server.Handlers{
			Health:        handler.NewHealthHandler(a.logger),
			Markets:       handler.NewMarketHandler(deps.Markets, a.logger),
			Opportunities: handler.NewOpportunityHandler(deps.Arb, a.logger),
			Status:        handler.NewStatusHandler(deps.Collector, a.cfg.Feeds.CollectInterval.Duration),
		},
		a.logger,
	)

	g.Go(func() error {
		return srv.Start()
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
}
