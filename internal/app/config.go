package app

import (
	"errors"
	"net/url"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds runtime configuration for the gateway, worker and CLI.
type Config struct {
	AppEnv            string        `envconfig:"APP_ENV" default:"development"`
	AppAddr           string        `envconfig:"APP_ADDR" default:":3000"`
	AppReadTimeout    time.Duration `envconfig:"APP_READ_TIMEOUT" default:"15s"`
	AppWriteTimeout   time.Duration `envconfig:"APP_WRITE_TIMEOUT" default:"45s"`
	AppRequestTimeout time.Duration `envconfig:"APP_REQUEST_TIMEOUT" default:"30s"`

	LogFormat string `envconfig:"LOG_FORMAT" default:"pretty"`

	// BackendURL is the origin of the ERP REST API, without the /api/v1 suffix.
	BackendURL   string        `envconfig:"BACKEND_URL" default:"http://backend:8000"`
	ProxyTimeout time.Duration `envconfig:"PROXY_TIMEOUT" default:"30s"`
	// ServiceToken authenticates background list refreshes against the backend.
	ServiceToken string `envconfig:"BACKEND_SERVICE_TOKEN"`

	RedisAddr     string        `envconfig:"REDIS_ADDR" default:"127.0.0.1:6379"`
	RedisPassword string        `envconfig:"REDIS_PASSWORD"`
	RedisDB       int           `envconfig:"REDIS_DB" default:"0"`
	SessionTTL    time.Duration `envconfig:"SESSION_TTL" default:"168h"`

	// PGDSN enables the write audit trail when set.
	PGDSN string `envconfig:"PG_DSN"`

	ListCacheTTL time.Duration `envconfig:"LIST_CACHE_TTL" default:"5m"`
	RefreshDelay time.Duration `envconfig:"REFRESH_DELAY" default:"500ms"`
	// WarmSchedule is the cron spec for the worker's full list warm-up.
	WarmSchedule      string `envconfig:"WARM_SCHEDULE" default:"*/30 * * * *"`
	WorkerConcurrency int    `envconfig:"WORKER_CONCURRENCY" default:"4"`
	// WorkerMetricsAddr exposes the worker's job metrics when set.
	WorkerMetricsAddr string `envconfig:"WORKER_METRICS_ADDR"`

	RateLimitPerMinute int `envconfig:"RATE_LIMIT_PER_MINUTE" default:"600"`

	SPADir string `envconfig:"SPA_DIR"`
	// ContentSecurityPolicy overrides DefaultContentSecurityPolicy.
	ContentSecurityPolicy string `envconfig:"CONTENT_SECURITY_POLICY"`
}

// LoadConfig reads configuration from environment variables.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	u, err := url.Parse(c.BackendURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return errors.New("backend url must be an absolute http(s) origin")
	}
	if c.ProxyTimeout <= 0 {
		return errors.New("proxy timeout must be positive")
	}
	if c.RefreshDelay < 0 {
		return errors.New("refresh delay must not be negative")
	}
	return nil
}

// IsProduction returns true when the application runs in production.
func (c *Config) IsProduction() bool {
	return c != nil && c.AppEnv == "production"
}
