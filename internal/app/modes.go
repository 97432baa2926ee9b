package app

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/eveexchange/backend/internal/auth"
	"github.com/eveexchange/backend/internal/notify"
	"github.com/eveexchange/backend/internal/server"
	"github.com/eveexchange/backend/internal/server/handler"
	"github.com/eveexchange/backend/internal/server/ws"
	"github.com/eveexchange/backend/internal/service"
)

// services bundles the request-scoped services shared by the modes.
type services struct {
	market        *service.MarketService
	portfolios    *service.PortfolioService
	notifications *service.NotificationService
	settings      *service.SettingsService
}

// buildServices constructs the service layer from the wired dependencies.
func (a *App) buildServices(deps *Dependencies) *services {
	// A nil *Archiver or *Notifier must stay a nil interface, not a
	// typed nil.
	var archiver service.ScanArchiver
	if deps.Archiver != nil {
		archiver = deps.Archiver
	}
	var notifier service.Notifier
	if deps.Notifier != nil {
		notifier = deps.Notifier
	}

	market := service.NewMarketService(
		deps.OrderCache,
		deps.StatsCache,
		deps.AuditStore,
		deps.NotificationStore,
		deps.SignalBus,
		deps.RateLimiter,
		deps.Catalog,
		deps.Catalog,
		deps.Catalog,
		archiver,
		notifier,
		service.MarketLimits{
			DefaultMinProfit: a.cfg.Market.MinProfit,
			MinScanVolume:    a.cfg.Market.MinScanVolume,
			MinScanPrice:     a.cfg.Market.MinScanPrice,
			ScanRateLimit:    a.cfg.Market.ScanRateLimit,
			ScanRateWindow:   a.cfg.Market.ScanRateWindow.Duration,
			SweepVolume:      a.cfg.Market.SweepVolume,
			SweepPrice:       a.cfg.Market.SweepPrice,
		},
		a.logger,
	)

	portfolios := service.NewPortfolioService(
		deps.PortfolioStore,
		deps.AuditStore,
		deps.OrderCache,
		deps.Catalog,
		deps.Catalog,
		deps.Catalog,
		service.PortfolioLimits{
			MaxPortfolios: a.cfg.Market.MaxPortfolios,
			MaxComponents: a.cfg.Market.MaxComponents,
		},
		a.logger,
	)

	return &services{
		market:        market,
		portfolios:    portfolios,
		notifications: service.NewNotificationService(deps.NotificationStore, a.logger),
		settings:      service.NewSettingsService(deps.SettingsStore, deps.AuditStore, deps.Catalog, a.logger),
	}
}

// ServerMode runs the HTTP API and the WebSocket bridge.
func (a *App) ServerMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting server mode")

	g, ctx := errgroup.WithContext(ctx)
	a.startServer(ctx, g, deps, a.buildServices(deps))
	return g.Wait()
}

// ScanMode runs the background market sweep without the HTTP surface.
func (a *App) ScanMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting scan mode",
		slog.Duration("interval", a.cfg.Market.SweepInterval.Duration),
	)

	g, ctx := errgroup.WithContext(ctx)
	a.startSweeper(ctx, g, a.buildServices(deps), deps.Notifier)
	return g.Wait()
}

// FullMode runs the HTTP API, the WebSocket bridge, and the background
// sweep together.
func (a *App) FullMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting full mode")

	g, ctx := errgroup.WithContext(ctx)
	svcs := a.buildServices(deps)
	if a.cfg.Server.Enabled {
		a.startServer(ctx, g, deps, svcs)
	}
	a.startSweeper(ctx, g, svcs, deps.Notifier)
	return g.Wait()
}

// startServer builds the HTTP server and WebSocket hub and registers
// their goroutines, including graceful shutdown on context cancel.
func (a *App) startServer(ctx context.Context, g *errgroup.Group, deps *Dependencies, svcs *services) {
	verifier := auth.NewVerifier(a.cfg.Auth.JWTSecret, a.cfg.Auth.TokenTTL.Duration, deps.SettingsStore)
	hub := ws.NewHub(deps.SignalBus, a.logger)

	srv := server.NewServer(
		server.Config{
			Port:        a.cfg.Server.Port,
			CORSOrigins: a.cfg.Server.CORSOrigins,
			RateLimit:   a.cfg.Server.RateLimit,
			RateWindow:  a.cfg.Server.RateWindow.Duration,
		},
		server.Handlers{
			Health:        handler.NewHealthHandler(deps.Cache, a.logger),
			Market:        handler.NewMarketHandler(svcs.market, svcs.settings, a.logger),
			Portfolios:    handler.NewPortfolioHandler(svcs.portfolios, a.logger),
			Notifications: handler.NewNotificationHandler(svcs.notifications, a.logger),
			Settings:      handler.NewSettingsHandler(svcs.settings, a.logger),
		},
		verifier,
		deps.RateLimiter,
		hub,
		a.logger,
	)

	g.Go(func() error {
		return hub.Run(ctx)
	})
	g.Go(srv.Start)
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
}

// startSweeper registers the periodic sweep goroutine. The first sweep
// runs immediately; subsequent sweeps follow the configured interval.
func (a *App) startSweeper(ctx context.Context, g *errgroup.Group, svcs *services, notifier *notify.Notifier) {
	g.Go(func() error {
		ticker := time.NewTicker(a.cfg.Market.SweepInterval.Duration)
		defer ticker.Stop()

		for {
			scans, err := svcs.market.Sweep(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				a.logger.ErrorContext(ctx, "sweep failed", slog.String("error", err.Error()))
				if notifier != nil {
					if nerr := notifier.Alert(ctx, notify.EventError, "Market sweep failed", err.Error()); nerr != nil {
						a.logger.WarnContext(ctx, "sweep alert failed", slog.String("error", nerr.Error()))
					}
				}
			} else {
				a.logger.InfoContext(ctx, "sweep completed", slog.Int("scans", len(scans)))
			}

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
			}
		}
	})
}
