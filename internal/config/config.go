package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
	StorageSQLite   = "sqlite"
)

type Config struct {
	Env       string          `json:"env"`
	Http      HttpConfig      `json:"http"`
	Storage   StorageConfig   `json:"storage"`
	Postgres  PostgresConfig  `json:"postgres"`
	SQLite    SQLiteConfig    `json:"sqlite"`
	Redis     RedisConfig     `json:"redis"`
	NATS      NATSConfig      `json:"nats"`
	Auth      AuthConfig      `json:"auth"`
	Incidents IncidentsConfig `json:"incidents"`
	Webhook   WebhookConfig   `json:"webhook"`
	Telemetry TelemetryConfig `json:"telemetry"`
}

type HttpConfig struct {
	Port            string        `json:"port"`
	ReadTimeout     time.Duration `json:"read_timeout"`
	WriteTimeout    time.Duration `json:"write_timeout"`
	ShutdownTimeout time.Duration `json:"shutdown_timeout"`
	RateLimitRPS    float64       `json:"rate_limit_rps"`
	RateLimitBurst  int           `json:"rate_limit_burst"`
}

type StorageConfig struct {
	Driver string `json:"driver"`
}

type PostgresConfig struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Database string `json:"database"`
	User     string `json:"user"`
	Password string `json:"password,omitempty"`
	SSLMode  string `json:"ssl_mode"`

	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

type SQLiteConfig struct {
	Path string `json:"path"`
}

// RedisConfig with an empty Addr runs without Redis: cache and cooldown stay
// in process and fired alerts are not queued for the webhook.
type RedisConfig struct {
	Addr           string        `json:"addr"`
	Password       string        `json:"password,omitempty"`
	DB             int           `json:"db"`
	ActiveCacheTTL time.Duration `json:"active_cache_ttl"`
	AlertQueueKey  string        `json:"alert_queue_key"`
}

type NATSConfig struct {
	URL     string `json:"url"`
	Subject string `json:"subject"`
}

type AuthConfig struct {
	JWTSecret   string `json:"-"`
	JWTIssuer   string `json:"jwt_issuer"`
	AdminAPIKey string `json:"-"`
}

type IncidentsConfig struct {
	DismissThreshold    int           `json:"dismiss_threshold"`
	AlertCooldown       time.Duration `json:"alert_cooldown"`
	NearbyDefaultRadius float64       `json:"nearby_default_radius_m"`
}

type WebhookConfig struct {
	URL      string `json:"url"`
	Disabled bool   `json:"disabled"`
}

type TelemetryConfig struct {
	OTLPEndpoint string  `json:"otlp_endpoint"`
	Insecure     bool    `json:"insecure"`
	ServiceName  string  `json:"service_name"`
	SampleRate   float64 `json:"sample_rate"`
}

func Load(ctx context.Context) (*Config, error) {

	stdLogger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		stdLogger.Warn(".env load warning", slog.Any("error", err))
	}

	cfg := &Config{
		Env: getEnv("ENV", "local"),
		Http: HttpConfig{
			Port:            getEnv("HTTP_PORT", ":8080"),
			ReadTimeout:     getEnvDuration("HTTP_READ_TIMEOUT", 10*time.Second),
			WriteTimeout:    getEnvDuration("HTTP_WRITE_TIMEOUT", 10*time.Second),
			ShutdownTimeout: getEnvDuration("HTTP_SHUTDOWN_TIMEOUT", 10*time.Second),
			RateLimitRPS:    getEnvFloat("HTTP_RATE_LIMIT_RPS", 5),
			RateLimitBurst:  getEnvInt("HTTP_RATE_LIMIT_BURST", 10),
		},
		Storage: StorageConfig{
			Driver: strings.ToLower(getEnv("STORAGE_DRIVER", StoragePostgres)),
		},
		Postgres: PostgresConfig{
			Host:            getEnv("POSTGRES_HOST", "pg-local"),
			Port:            getEnvInt("POSTGRES_PORT", 5432),
			Database:        getEnv("POSTGRES_DB", "roadreport"),
			User:            getEnv("POSTGRES_USER", "postgres"),
			Password:        getEnv("POSTGRES_PASSWORD", "postgres"),
			SSLMode:         getEnv("POSTGRES_SSL_MODE", "disable"),
			MaxConns:        int32(getEnvInt("POSTGRES_MAX_CONNS", 20)),
			MinConns:        int32(getEnvInt("POSTGRES_MIN_CONNS", 1)),
			MaxConnLifetime: getEnvDuration("POSTGRES_MAX_CONN_LIFETIME", time.Hour),
		},
		SQLite: SQLiteConfig{
			Path: getEnv("SQLITE_PATH", "roadreport.db"),
		},
		Redis: RedisConfig{
			Addr:           getEnv("REDIS_ADDR", ""),
			Password:       getEnv("REDIS_PASSWORD", ""),
			DB:             getEnvInt("REDIS_DB", 0),
			ActiveCacheTTL: getEnvDuration("ACTIVE_CACHE_TTL", 30*time.Second),
			AlertQueueKey:  getEnv("REDIS_ALERT_QUEUE", "alerts:queue"),
		},
		NATS: NATSConfig{
			URL:     getEnv("NATS_URL", ""),
			Subject: getEnv("NATS_SUBJECT", "roadreport.incidents"),
		},
		Auth: AuthConfig{
			JWTSecret:   getEnv("AUTH_JWT_SECRET", ""),
			JWTIssuer:   getEnv("AUTH_JWT_ISSUER", ""),
			AdminAPIKey: getEnv("ADMIN_API_KEY", ""),
		},
		Incidents: IncidentsConfig{
			DismissThreshold:    getEnvInt("DISMISS_THRESHOLD", 3),
			AlertCooldown:       getEnvDuration("ALERT_COOLDOWN", 5*time.Second),
			NearbyDefaultRadius: getEnvFloat("NEARBY_DEFAULT_RADIUS_M", 5000),
		},
		Webhook: WebhookConfig{
			URL:      getEnv("WEBHOOK_URL", ""),
			Disabled: getEnvBool("WEBHOOK_DISABLED", false),
		},
		Telemetry: TelemetryConfig{
			OTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
			Insecure:     getEnvBool("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName:  getEnv("OTEL_SERVICE_NAME", "roadreporthub"),
			SampleRate:   getEnvFloat("OTEL_SAMPLE_RATE", 1),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if cfg.Webhook.Disabled || cfg.Webhook.URL == "" {
		stdLogger.Warn("alert webhooks disabled")
	}

	stdLogger.Info("Config loaded successfully",
		slog.String("env", cfg.Env),
		slog.String("http_port", cfg.Http.Port),
		slog.String("storage_driver", cfg.Storage.Driver),
		slog.String("redis_addr", cfg.Redis.Addr),
		slog.String("nats_url", cfg.NATS.URL),
		slog.Int("dismiss_threshold", cfg.Incidents.DismissThreshold))

	return cfg, nil
}

func (c *Config) Validate() error {

	if c.Http.Port == "" || c.Http.Port[0] != ':' {
		return errors.New("HTTP_PORT must start with ':' like ':8080'")
	}
	if _, err := strconv.Atoi(c.Http.Port[1:]); err != nil {
		return fmt.Errorf("HTTP_PORT %q is not a port", c.Http.Port)
	}

	switch c.Storage.Driver {
	case StoragePostgres:
		if c.Postgres.Host == "" {
			return errors.New("POSTGRES_HOST required")
		}
	case StorageSQLite:
		if c.SQLite.Path == "" {
			return errors.New("SQLITE_PATH required")
		}
	case StorageMemory:
	default:
		return fmt.Errorf("STORAGE_DRIVER %q unknown, want postgres|sqlite|memory", c.Storage.Driver)
	}

	if c.Incidents.DismissThreshold <= 0 {
		return errors.New("DISMISS_THRESHOLD must be positive")
	}
	if c.Incidents.AlertCooldown <= 0 {
		return errors.New("ALERT_COOLDOWN must be positive")
	}
	if c.Incidents.NearbyDefaultRadius <= 0 {
		return errors.New("NEARBY_DEFAULT_RADIUS_M must be positive")
	}

	if c.Auth.JWTSecret == "" {
		return errors.New("AUTH_JWT_SECRET required")
	}

	return nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getEnvFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}
