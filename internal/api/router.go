package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/igraphixwebpreview/RoadReportHub/internal/api/handlers/http/admin"
	"github.com/igraphixwebpreview/RoadReportHub/internal/api/handlers/http/alerts"
	"github.com/igraphixwebpreview/RoadReportHub/internal/api/handlers/http/incidents"
	"github.com/igraphixwebpreview/RoadReportHub/internal/api/handlers/http/settings"
	"github.com/igraphixwebpreview/RoadReportHub/internal/api/handlers/http/system"
	"github.com/igraphixwebpreview/RoadReportHub/internal/config"
	"github.com/igraphixwebpreview/RoadReportHub/internal/middleware"
)

type Handlers struct {
	Incidents *incidents.Handler
	Settings  *settings.Handler
	Alerts    *alerts.Handler
	Admin     *admin.Handler
	System    *system.Handler
}

type Server struct {
	logger *slog.Logger
	router *chi.Mux
	cfg    config.Config
}

// NewServer builds the router. ctx bounds the rate limiter's cleanup loops.
func NewServer(ctx context.Context, cfg *config.Config, logger *slog.Logger, auth *middleware.Authenticator, h Handlers) *Server {
	r := InitRouter(ctx, cfg, auth, h, logger)

	return &Server{
		logger: logger,
		router: r,
		cfg:    *cfg,
	}
}

func InitRouter(ctx context.Context, cfg *config.Config, auth *middleware.Authenticator, h Handlers, logger *slog.Logger) *chi.Mux {
	r := chi.NewMux()

	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Logger)

	writeLimit := middleware.Limit(ctx, cfg.Http.RateLimitRPS, cfg.Http.RateLimitBurst, 10*time.Minute, logger)

	r.Route("/api", func(api chi.Router) {
		api.Use(auth.Middleware)

		// PUBLIC
		api.Get("/incidents", h.Incidents.List)
		api.Get("/incidents/nearby", h.Incidents.Nearby)
		api.Get("/incidents/{id}", h.Incidents.Get)

		// CALLER
		api.Group(func(pr chi.Router) {
			pr.Use(middleware.RequireAuth)

			pr.Get("/user/incidents", h.Incidents.Mine)
			pr.Get("/settings", h.Settings.Get)
			pr.Get("/alerts/stream", h.Alerts.Stream)

			pr.Group(func(wr chi.Router) {
				wr.Use(writeLimit)

				wr.Post("/incidents", h.Incidents.Create)
				wr.Post("/incidents/{id}/verify", h.Incidents.Verify)
				wr.Put("/settings", h.Settings.Update)
			})

			pr.With(middleware.Limit(ctx, 10, 20, 5*time.Minute, logger)).
				Post("/location/check", h.Alerts.LocationCheck)
		})

		// ADMIN
		api.Route("/admin", func(ar chi.Router) {
			ar.Use(middleware.APIKeyMiddleware(cfg.Auth.AdminAPIKey))
			ar.Use(middleware.Limit(ctx, 2, 5, 10*time.Minute, logger))

			ar.Get("/stats", h.Admin.Stats)
			ar.Get("/incidents", h.Admin.IncidentList)
			ar.Get("/incidents/{id}", h.Admin.IncidentGet)
		})

		// SYSTEM
		api.Get("/health", h.System.SystemHealth)
	})

	return r
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) Run(ctx context.Context) error {
	port := s.cfg.Http.Port
	if !strings.HasPrefix(port, ":") {
		port = ":" + port
	}

	srv := &http.Server{
		Addr:         port,
		Handler:      s.router,
		ReadTimeout:  s.cfg.Http.ReadTimeout,
		WriteTimeout: s.cfg.Http.WriteTimeout,
		IdleTimeout:  30 * time.Second,
	}

	errChan := make(chan error, 1)

	go func() {
		s.logger.Info("starting HTTP server",
			slog.String("addr", srv.Addr),
			slog.Duration("read_timeout", s.cfg.Http.ReadTimeout),
			slog.Duration("write_timeout", s.cfg.Http.WriteTimeout),
		)

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("ListenAndServe error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("shutting down HTTP server", slog.String("reason", ctx.Err().Error()))

		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Http.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("server shutdown failed", slog.Any("error", err))
			return err
		}
		return nil

	case err := <-errChan:
		return err
	}
}
