package config

import (
	"fmt"

	pkgconfig "github.com/ozanyurtsever/shopcore/pkg/config"
)

// Config holds all configuration for the checkout service.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	HTTPPort int `env:"CHECKOUT_HTTP_PORT" envDefault:"8005"`

	CartServiceURL    string `env:"CART_SERVICE_URL" envDefault:"http://localhost:8003"`
	CatalogServiceURL string `env:"CATALOG_SERVICE_URL" envDefault:"http://localhost:8002"`
	OrderServiceURL   string `env:"ORDER_SERVICE_URL" envDefault:"http://localhost:8004"`

	RedisHost     string `env:"REDIS_HOST" envDefault:"localhost"`
	RedisPort     int    `env:"REDIS_PORT" envDefault:"6379"`
	RedisPassword string `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB       int    `env:"CHECKOUT_REDIS_DB" envDefault:"1"`

	KafkaBrokers []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`

	// Per-step timeouts for the checkout flow, in seconds. Each step is
	// bounded with context.WithTimeout so a slow downstream cannot stall
	// the whole attempt. Zero disables the bound for that step.
	StepCartTimeout    int `env:"CHECKOUT_STEP_CART_TIMEOUT" envDefault:"5"`
	StepPricingTimeout int `env:"CHECKOUT_STEP_PRICING_TIMEOUT" envDefault:"5"`
	StepOrderTimeout   int `env:"CHECKOUT_STEP_ORDER_TIMEOUT" envDefault:"10"`
	StepClearTimeout   int `env:"CHECKOUT_STEP_CLEAR_TIMEOUT" envDefault:"5"`

	JWTSecret string `env:"JWT_SECRET" envDefault:"change-this-to-a-secure-secret"`

	OTELEnabled    bool    `env:"OTEL_ENABLED" envDefault:"false"`
	OTELEndpoint   string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4318"`
	OTELSampleRate float64 `env:"OTEL_SAMPLE_RATE" envDefault:"1.0"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load checkout config: %w", err)
	}
	if cfg.HTTPPort < 1 || cfg.HTTPPort > 65535 {
		return nil, fmt.Errorf("invalid HTTP port: %d", cfg.HTTPPort)
	}
	return cfg, nil
}
