package components

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/igraphixwebpreview/RoadReportHub/internal/api"
	"github.com/igraphixwebpreview/RoadReportHub/internal/api/handlers/http/admin"
	"github.com/igraphixwebpreview/RoadReportHub/internal/api/handlers/http/alerts"
	"github.com/igraphixwebpreview/RoadReportHub/internal/api/handlers/http/incidents"
	"github.com/igraphixwebpreview/RoadReportHub/internal/api/handlers/http/settings"
	"github.com/igraphixwebpreview/RoadReportHub/internal/api/handlers/http/system"
	"github.com/igraphixwebpreview/RoadReportHub/internal/config"
	"github.com/igraphixwebpreview/RoadReportHub/internal/events"
	"github.com/igraphixwebpreview/RoadReportHub/internal/lifecycle"
	"github.com/igraphixwebpreview/RoadReportHub/internal/middleware"
	"github.com/igraphixwebpreview/RoadReportHub/internal/proximity"
	"github.com/igraphixwebpreview/RoadReportHub/internal/redis"
	"github.com/igraphixwebpreview/RoadReportHub/internal/service"
	"github.com/igraphixwebpreview/RoadReportHub/internal/telemetry"
	"github.com/igraphixwebpreview/RoadReportHub/internal/workers"
	"github.com/igraphixwebpreview/RoadReportHub/pkg/logger"
)

type Components struct {
	logger     *slog.Logger
	HttpServer *api.Server
	Storage    *Storage
	Redis      *redis.Redis
	Bus        events.Bus

	LocationChecker *workers.LocationChecker
	AlertWebhook    *workers.AlertWebhookSender

	shutdownTracing telemetry.ShutdownFunc
}

func InitComponents(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Components, error) {
	shutdownTracing, err := telemetry.Setup(ctx, cfg.Telemetry, cfg.Env, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to init tracing: %w", err)
	}

	c := &Components{logger: logger, shutdownTracing: shutdownTracing}
	checks := []system.Check{}

	logger.Info("Initializing storage", slog.String("driver", cfg.Storage.Driver))
	c.Storage, err = OpenStorage(ctx, cfg, logger)
	if err != nil {
		c.ShutdownAll()
		return nil, fmt.Errorf("failed to init storage: %w", err)
	}
	if c.Storage.Ping != nil {
		checks = append(checks, system.Check{Name: "storage", Ping: c.Storage.Ping})
	}

	var (
		cache      service.IncidentCache
		gate       proximity.CooldownGate
		alertQueue *redis.AlertQueue
	)
	if cfg.Redis.Addr != "" {
		logger.Info("Initializing Redis")
		c.Redis, err = redis.NewRedis(ctx, cfg.Redis, logger)
		if err != nil {
			c.ShutdownAll()
			return nil, fmt.Errorf("failed to init redis: %w", err)
		}
		cache = redis.NewIncidentCache(c.Redis.Client)
		gate = redis.NewCooldownGate(c.Redis.Client)
		alertQueue = redis.NewAlertQueue(c.Redis.Client, cfg.Redis.AlertQueueKey)
		checks = append(checks, system.Check{Name: "redis", Ping: c.Redis.Ping})
	} else {
		logger.Warn("REDIS_ADDR empty, cache and cooldown stay in process")
	}

	if cfg.NATS.URL != "" {
		logger.Info("Connecting to NATS", slog.String("url", cfg.NATS.URL))
		bus, err := events.NewNATSBus(cfg.NATS.URL, cfg.NATS.Subject, logger)
		if err != nil {
			c.ShutdownAll()
			return nil, fmt.Errorf("failed to init nats: %w", err)
		}
		c.Bus = bus
		checks = append(checks, system.Check{Name: "nats", Ping: bus.Ping})
	} else {
		c.Bus = events.NewBroadcaster()
	}

	svc := newServices(cfg, logger, c.Storage, cache, gate, alertQueue, c.Bus)

	c.LocationChecker = workers.NewLocationChecker(svc.Alerts, svc.Incidents, logger, 4)
	if alertQueue != nil && !cfg.Webhook.Disabled && cfg.Webhook.URL != "" {
		c.AlertWebhook = workers.NewAlertWebhookSender(logger, cfg.Webhook, alertQueue)
	}

	auth := middleware.NewAuthenticator(cfg.Auth, logger)
	c.HttpServer = api.NewServer(ctx, cfg, logger, auth, api.Handlers{
		Incidents: incidents.NewHandler(logger, svc.Incidents, svc.Verifications),
		Settings:  settings.NewHandler(logger, svc.Settings),
		Alerts:    alerts.NewHandler(logger, svc.Alerts, c.LocationChecker, c.Bus),
		Admin:     admin.NewHandler(logger, svc.Incidents, svc.Stats),
		System:    system.NewHandler(logger, checks...),
	})
	logger.Info("Initialized server")

	return c, nil
}

func newServices(
	cfg *config.Config,
	logger *slog.Logger,
	st *Storage,
	cache service.IncidentCache,
	gate proximity.CooldownGate,
	queue *redis.AlertQueue,
	bus events.Bus,
) *service.Service {
	// A nil *AlertQueue must not become a non-nil interface.
	var alertQueue service.AlertQueue
	if queue != nil {
		alertQueue = queue
	}

	incidentSvc := service.NewIncidentService(st.Incidents, cache, bus, logger, service.IncidentOptions{
		CacheTTL:     cfg.Redis.ActiveCacheTTL,
		NearbyRadius: cfg.Incidents.NearbyDefaultRadius,
	})
	verificationSvc := service.NewVerificationService(
		st.Incidents,
		st.Verifications,
		cache,
		bus,
		lifecycle.NewEngine(cfg.Incidents.DismissThreshold),
		logger,
		service.VerificationOptions{},
	)
	settingsSvc := service.NewSettingsService(st.Settings)
	notifier := proximity.NewNotifier(gate, proximity.WithCooldown(cfg.Incidents.AlertCooldown))
	alertSvc := service.NewAlertService(incidentSvc, settingsSvc, st.Checks, alertQueue, notifier, logger)
	statsSvc := service.NewStatsService(st.Checks)

	return service.NewService(incidentSvc, verificationSvc, settingsSvc, alertSvc, statsSvc)
}

// RunWorkers blocks until ctx ends and every background worker has returned.
func (c *Components) RunWorkers(ctx context.Context) {
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		c.LocationChecker.Run(ctx)
		c.logger.Info("location checker stopped")
	}()

	if c.AlertWebhook != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.AlertWebhook.Run(ctx)
			c.logger.Info("alert webhook sender stopped")
		}()
	}

	wg.Wait()
}

func SetupLogger(env string) *slog.Logger {
	switch env {
	case "local":
		return logger.SetupPrettySlog()
	case "dev":
		return slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
				Level: slog.LevelDebug,
			}),
		)
	default:
		return slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
				Level: slog.LevelInfo,
			}),
		)
	}
}

func (c *Components) ShutdownAll() {
	start := time.Now()
	c.logger.Info("Shutting down components")

	if c.Bus != nil {
		if err := c.Bus.Close(); err != nil {
			c.logger.Error("event bus close failed", slog.String("err", err.Error()))
		}
	}
	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			c.logger.Error("Redis close failed", slog.String("err", err.Error()))
		}
	}
	if c.Storage != nil && c.Storage.Close != nil {
		if err := c.Storage.Close(); err != nil {
			c.logger.Error("storage close failed", slog.String("err", err.Error()))
		}
	}
	if c.shutdownTracing != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := c.shutdownTracing(ctx); err != nil {
			c.logger.Error("tracer shutdown failed", slog.String("err", err.Error()))
		}
		cancel()
	}

	c.logger.Info("All components stopped",
		slog.Duration("latency", time.Since(start)))
}
