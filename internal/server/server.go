package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/soultie/soultie-be/internal/access"
	"github.com/soultie/soultie-be/internal/auth"
	"github.com/soultie/soultie-be/internal/config"
	"github.com/soultie/soultie-be/internal/http/handlers"
	"github.com/soultie/soultie-be/internal/match"
	"github.com/soultie/soultie-be/internal/middleware"
	"github.com/soultie/soultie-be/internal/payments"
	"github.com/soultie/soultie-be/internal/storage"
)

// Server wraps an http.Server with configured routes.
type Server struct {
	inner *http.Server
}

// New wires up the services, handlers, and middleware, and returns a
// ready server. notifier may be nil when event publishing is disabled.
func New(cfg config.Config, stores storage.Stores, gateway payments.Gateway, notifier access.Notifier, logger *slog.Logger) *Server {
	tokenManager := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTTTL)
	grants := access.NewService(stores, notifier)
	matcher := match.NewService(stores.Biodatas())

	mux := http.NewServeMux()
	handlers.NewHealthHandler(time.Now()).Register(mux)
	handlers.NewAuthHandler(stores.Users(), tokenManager, logger).Register(mux)
	handlers.NewUserHandler(stores.Users(), logger).Register(mux)
	handlers.NewBiodataHandler(stores.Biodatas(), matcher, logger).Register(mux)
	handlers.NewPaymentHandler(gateway, grants, logger).Register(mux)
	handlers.NewStoryHandler(stores.Stories(), logger).Register(mux)
	handlers.NewFavouriteHandler(stores.Favourites(), logger).Register(mux)
	handlers.NewStatsHandler(stores, logger).Register(mux)

	handler := middleware.CORS(cfg.CORSOrigins, middleware.Logging(logger, mux))

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddress(),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	return &Server{inner: httpServer}
}

// Start begins serving HTTP traffic.
func (s *Server) Start() error {
	return s.inner.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.inner.Shutdown(ctx)
}
