// Package server assembles the HTTP mux, middleware chain and WebSocket
// endpoint.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/eveexchange/backend/internal/domain"
	"github.com/eveexchange/backend/internal/server/handler"
	"github.com/eveexchange/backend/internal/server/middleware"
	"github.com/eveexchange/backend/internal/server/ws"
)

// Config holds the HTTP server configuration.
type Config struct {
	Port        int
	CORSOrigins []string
	RateLimit   int
	RateWindow  time.Duration
}

// Handlers aggregates the HTTP handlers the server registers.
type Handlers struct {
	Health        *handler.HealthHandler
	Market        *handler.MarketHandler
	Portfolios    *handler.PortfolioHandler
	Notifications *handler.NotificationHandler
	Settings      *handler.SettingsHandler
}

// Server is the HTTP + WebSocket API server.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer registers all routes and wires the middleware chain: CORS,
// request logging, auth, then per-user rate limiting. The health check
// stays outside auth.
func NewServer(
	cfg Config,
	handlers Handlers,
	verifier middleware.TokenVerifier,
	limiter domain.RateLimiter,
	wsHub *ws.Hub,
	logger *slog.Logger,
) *Server {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/health", handlers.Health.HealthCheck)

	mux.HandleFunc("GET /api/market/forecast", handlers.Market.Forecast)
	mux.HandleFunc("GET /api/market/forecast/regional", handlers.Market.ForecastRegional)

	mux.HandleFunc("GET /api/portfolios", handlers.Portfolios.List)
	mux.HandleFunc("POST /api/portfolios", handlers.Portfolios.Create)
	mux.HandleFunc("GET /api/portfolios/{id}", handlers.Portfolios.Get)
	mux.HandleFunc("DELETE /api/portfolios/{id}", handlers.Portfolios.Delete)
	mux.HandleFunc("GET /api/portfolios/{id}/multibuy", handlers.Portfolios.Multibuy)

	mux.HandleFunc("GET /api/notifications", handlers.Notifications.List)
	mux.HandleFunc("POST /api/notifications/read-all", handlers.Notifications.ReadAll)
	mux.HandleFunc("POST /api/notifications/{id}/read", handlers.Notifications.MarkRead)
	mux.HandleFunc("POST /api/notifications/{id}/unread", handlers.Notifications.MarkUnread)

	mux.HandleFunc("GET /api/settings", handlers.Settings.Get)
	mux.HandleFunc("PUT /api/settings", handlers.Settings.Update)
	mux.HandleFunc("GET /api/settings/keys", handlers.Settings.ListAPIKeys)
	mux.HandleFunc("POST /api/settings/keys", handlers.Settings.CreateAPIKey)
	mux.HandleFunc("DELETE /api/settings/keys/{id}", handlers.Settings.DeleteAPIKey)

	if wsHub != nil {
		mux.HandleFunc("GET /ws", wsHub.HandleWS)
	}

	var h http.Handler = mux
	h = middleware.RateLimit(limiter, cfg.RateLimit, cfg.RateWindow)(h)
	h = middleware.Auth(verifier, "/api/health", "/ws")(h)
	h = middleware.Logging(logger)(h)
	h = middleware.CORS(cfg.CORSOrigins)(h)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      h,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: srv,
		logger:     logger.With(slog.String("component", "server")),
	}
}

// Start begins listening for HTTP requests. It blocks until the server
// encounters an error or is shut down.
func (s *Server) Start() error {
	s.logger.Info("starting", slog.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server: listen: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server, waiting for in-flight
// requests to complete within the context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	return nil
}
