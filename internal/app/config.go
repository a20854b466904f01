package app

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"

	"github.com/taxi-insights/taxi-insights/internal/tripmetrics"
)

// Config holds runtime configuration for the application.
type Config struct {
	AppEnv            string        `envconfig:"APP_ENV" default:"development" validate:"oneof=development staging production test"`
	AppAddr           string        `envconfig:"APP_ADDR" default:":8080" validate:"required"`
	AppReadTimeout    time.Duration `envconfig:"APP_READ_TIMEOUT" default:"15s" validate:"gte=0"`
	AppWriteTimeout   time.Duration `envconfig:"APP_WRITE_TIMEOUT" default:"0s" validate:"gte=0"`
	AppRequestTimeout time.Duration `envconfig:"APP_REQUEST_TIMEOUT" default:"30s" validate:"gte=0"`

	LogFormat string `envconfig:"LOG_FORMAT" default:"pretty" validate:"oneof=pretty json"`
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info" validate:"oneof=debug info warn error"`

	MetricsAPIURL     string        `envconfig:"METRICS_API_URL" default:"http://127.0.0.1:8000" validate:"required,url"`
	MetricsAPITimeout time.Duration `envconfig:"METRICS_API_TIMEOUT" default:"0s" validate:"gte=0"`

	DefaultStart string `envconfig:"DEFAULT_START" default:"2023-01-01"`
	DefaultEnd   string `envconfig:"DEFAULT_END" default:"2023-01-31"`

	RedisAddr string        `envconfig:"REDIS_ADDR"`
	CacheTTL  time.Duration `envconfig:"CACHE_TTL" default:"10m" validate:"gt=0"`

	GotenbergURL string `envconfig:"GOTENBERG_URL" validate:"omitempty,url"`

	WarmupCron        string `envconfig:"WARMUP_CRON" default:"15 * * * *"`
	WorkerMetricsAddr string `envconfig:"WORKER_METRICS_ADDR" default:":9091"`
}

var validate = validator.New()

// LoadConfig reads configuration from environment variables.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks field constraints.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// IsProduction returns true when the application runs in production.
func (c *Config) IsProduction() bool {
	return c != nil && c.AppEnv == "production"
}

// DefaultRange is the filter the dashboard starts with.
func (c *Config) DefaultRange() tripmetrics.DateRange {
	return tripmetrics.DateRange{Start: c.DefaultStart, End: c.DefaultEnd}
}

// CacheEnabled reports whether a Redis address was configured.
func (c *Config) CacheEnabled() bool {
	return c != nil && c.RedisAddr != ""
}
