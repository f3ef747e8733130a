// Package config provides application configuration loaded from environment
// variables with defaults and validation. It centralizes application settings
// such as server timeouts, logging, key-value backends, invitation expiry,
// notification delivery, rate limiting, and observability.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Store backends.
const (
	BackendRedis  = "redis"
	BackendSQLite = "sqlite"
)

// CORSConfig defines Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:","`
}

// SecurityConfig defines security-related settings such as HSTS.
type SecurityConfig struct {
	EnableHSTS bool          `env:"ENABLE_HSTS"  envDefault:"false"`
	HSTSMaxAge time.Duration `env:"HSTS_MAX_AGE" envDefault:"4320h"`
}

// OTELConfig defines OpenTelemetry observability settings.
type OTELConfig struct {
	Enabled     bool    `env:"OTEL_ENABLED"                envDefault:"false"`
	Endpoint    string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4317"`
	Insecure    bool    `env:"OTEL_EXPORTER_OTLP_INSECURE" envDefault:"true"`
	ServiceName string  `env:"OTEL_SERVICE_NAME"           envDefault:"invitations"`
	SampleRatio float64 `env:"OTEL_TRACES_SAMPLER_ARG"     envDefault:"1.0"`
}

// StoreConfig selects and addresses the key-value backends.
//
// With the sqlite backend the invitation store, the account lookup and the
// block lookup all share the same database file.
type StoreConfig struct {
	Backend         string        `env:"STORE_BACKEND"           envDefault:"redis"`
	InvitationsAddr string        `env:"REDIS_INVITATIONS_ADDR"  envDefault:"localhost:6379"`
	AuthAddr        string        `env:"REDIS_AUTH_ADDR"         envDefault:"localhost:6379"`
	UsermetaAddr    string        `env:"REDIS_USERMETA_ADDR"` // empty disables the block check
	RedisPassword   string        `env:"REDIS_PASSWORD"`
	RedisDB         int           `env:"REDIS_DB"                envDefault:"0"`
	DBPath          string        `env:"DB_PATH"                 envDefault:"invitations.db"`
	JanitorInterval time.Duration `env:"SQLITE_JANITOR_INTERVAL" envDefault:"1m"`
}

// NotificationsConfig addresses the notifications service.
type NotificationsConfig struct {
	URL     string        `env:"NOTIFICATIONS_URL"`
	Timeout time.Duration `env:"NOTIFICATIONS_TIMEOUT" envDefault:"10s"`
}

// InvitationsConfig holds the lifecycle tunables.
type InvitationsConfig struct {
	TTL         time.Duration `env:"INVITATION_TTL" envDefault:"360h"` // 15 days
	BanDuration time.Duration `env:"BAN_DURATION"   envDefault:"6h"`
}

// TasksConfig sizes the background task runner.
type TasksConfig struct {
	Workers int           `env:"TASK_WORKERS" envDefault:"16"`
	Timeout time.Duration `env:"TASK_TIMEOUT" envDefault:"30s"`
}

// Config holds all configuration values for the application.
type Config struct {
	// Server
	Port              string        `env:"PORT"                envDefault:"8000"`
	ReadTimeout       time.Duration `env:"READ_TIMEOUT"        envDefault:"15s"`
	ReadHeaderTimeout time.Duration `env:"READ_HEADER_TIMEOUT" envDefault:"10s"`
	WriteTimeout      time.Duration `env:"WRITE_TIMEOUT"       envDefault:"20s"`
	IdleTimeout       time.Duration `env:"IDLE_TIMEOUT"        envDefault:"60s"`
	MaxHeaderBytes    int           `env:"MAX_HEADER_BYTES"    envDefault:"1048576"`
	GinMode           string        `env:"GIN_MODE"            envDefault:"release"`

	// Logging / Docs
	LogLevel       string `env:"LOG_LEVEL"       envDefault:"info"`
	LogPretty      bool   `env:"LOG_PRETTY"      envDefault:"false"`
	SwaggerEnabled bool   `env:"SWAGGER_ENABLED" envDefault:"false"`
	APIBasePath    string `env:"API_BASE_PATH"   envDefault:"/invitations/v1"`

	// ServiceID identifies this service as the sender of notifications.
	// Defaults to APIBasePath without its leading slash ("invitations/v1").
	ServiceID string `env:"SERVICE_ID"`

	// APISecret enables spoofed "<secret>.<username>" tokens when non-empty.
	APISecret string `env:"API_SECRET"`

	// Rate limiting
	RateRPS   float64 `env:"RATE_RPS"   envDefault:"5"`
	RateBurst int     `env:"RATE_BURST" envDefault:"10"`

	Store         StoreConfig
	Notifications NotificationsConfig
	Invitations   InvitationsConfig
	Tasks         TasksConfig

	// Web protection
	CORS     CORSConfig
	Security SecurityConfig

	// Observability
	OTEL OTELConfig
}

// MustLoad loads the configuration and panics if validation fails.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads configuration from environment variables,
// applies defaults, normalizes values, and validates the result.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse env: %w", err)
	}

	// --- normalization ---
	cfg.LogLevel = strings.ToLower(strings.TrimSpace(cfg.LogLevel))
	if cfg.LogLevel == "warning" {
		cfg.LogLevel = "warn"
	}
	cfg.GinMode = strings.ToLower(strings.TrimSpace(cfg.GinMode))
	switch cfg.GinMode {
	case "debug", "release", "test":
	default:
		cfg.GinMode = "release"
	}
	cfg.APIBasePath = normalizeBasePath(cfg.APIBasePath)
	if strings.TrimSpace(cfg.ServiceID) == "" {
		cfg.ServiceID = strings.TrimPrefix(cfg.APIBasePath, "/")
	}
	cfg.Store.Backend = strings.ToLower(strings.TrimSpace(cfg.Store.Backend))
	cfg.Notifications.URL = strings.TrimRight(strings.TrimSpace(cfg.Notifications.URL), "/")
	cfg.CORS.AllowedOrigins = cleanList(cfg.CORS.AllowedOrigins)

	return cfg, cfg.Validate()
}

// Validate reports the first invalid setting.
func (cfg Config) Validate() error {
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error", "fatal", "panic":
	default:
		return errors.New("LOG_LEVEL must be one of: debug, info, warn, error, fatal, panic")
	}
	if strings.TrimSpace(cfg.Port) == "" {
		return errors.New("PORT must not be empty")
	}
	if cfg.ReadTimeout <= 0 || cfg.ReadHeaderTimeout <= 0 || cfg.WriteTimeout <= 0 || cfg.IdleTimeout <= 0 {
		return errors.New("timeouts must be positive durations")
	}
	if cfg.MaxHeaderBytes <= 0 {
		return errors.New("MAX_HEADER_BYTES must be > 0")
	}

	switch cfg.Store.Backend {
	case BackendRedis:
		if strings.TrimSpace(cfg.Store.InvitationsAddr) == "" {
			return errors.New("REDIS_INVITATIONS_ADDR must not be empty")
		}
		if strings.TrimSpace(cfg.Store.AuthAddr) == "" {
			return errors.New("REDIS_AUTH_ADDR must not be empty")
		}
	case BackendSQLite:
		if strings.TrimSpace(cfg.Store.DBPath) == "" {
			return errors.New("DB_PATH must not be empty")
		}
		if cfg.Store.JanitorInterval <= 0 {
			return errors.New("SQLITE_JANITOR_INTERVAL must be > 0")
		}
	default:
		return errors.New("STORE_BACKEND must be one of: redis, sqlite")
	}

	if cfg.Invitations.TTL <= 0 {
		return errors.New("INVITATION_TTL must be > 0")
	}
	if cfg.Invitations.BanDuration <= 0 {
		return errors.New("BAN_DURATION must be > 0")
	}
	if cfg.Notifications.Timeout <= 0 {
		return errors.New("NOTIFICATIONS_TIMEOUT must be > 0")
	}
	if cfg.Notifications.URL != "" {
		u, err := url.Parse(cfg.Notifications.URL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return errors.New("NOTIFICATIONS_URL must be an absolute http(s) URL")
		}
	}
	if cfg.Tasks.Workers < 1 {
		return errors.New("TASK_WORKERS must be >= 1")
	}
	if cfg.Tasks.Timeout <= 0 {
		return errors.New("TASK_TIMEOUT must be > 0")
	}
	if cfg.RateRPS < 0 {
		return errors.New("RATE_RPS must be >= 0")
	}
	if cfg.RateBurst < 1 {
		return errors.New("RATE_BURST must be >= 1")
	}
	if cfg.Security.HSTSMaxAge < 0 {
		return errors.New("HSTS_MAX_AGE must be >= 0")
	}
	if cfg.OTEL.SampleRatio < 0 || cfg.OTEL.SampleRatio > 1 {
		return errors.New("OTEL_TRACES_SAMPLER_ARG must be in [0,1]")
	}
	return nil
}

func cleanList(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	out := make([]string, 0, len(in))
	for _, p := range in {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// normalizeBasePath ensures leading '/' and strips trailing '/' (except root).
func normalizeBasePath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if len(p) > 1 && strings.HasSuffix(p, "/") {
		p = strings.TrimRight(p, "/")
	}
	return p
}
