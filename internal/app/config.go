package app

import (
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Config holds the complete application configuration, loadable from
// environment variables (SHOP_ prefix), flags, or YAML config files.
type Config struct {
	Addr        string        `default:"0.0.0.0:8080" usage:"API server listen address"`
	DatabaseURL string        `usage:"PostgreSQL connection URL (SHOP_DATABASE_URL or DATABASE_URL)" flag:"database-url"`
	RedisAddr   string        `default:"" usage:"Redis address for cart snapshots; empty disables persistence" flag:"redis-addr"`
	CartTTL     time.Duration `default:"168h" usage:"Lifetime of persisted cart snapshots" flag:"cart-ttl"`
	TaxRate     string        `default:"" usage:"Tax rate override as a decimal fraction, e.g. 0.08" flag:"tax-rate"`
	SMTP        SMTPConfig
	Checkout    CheckoutConfig
	RateLimit   RateLimitConfig
	CORS        CORSConfig
	Graceful    GracefulConfig
}

// SMTPConfig configures the order-confirmation mail transport. Host and
// From left empty select the log-only notifier.
type SMTPConfig struct {
	Host     string `default:"" usage:"SMTP host"`
	Port     int    `default:"587" usage:"SMTP port"`
	From     string `default:"" usage:"Confirmation sender address" flag:"smtp-from"`
	Username string `default:"" usage:"SMTP username"`
	Password string `default:"" usage:"SMTP password"`
}

// CheckoutConfig tunes the best-effort secondary fan-out of order placement.
type CheckoutConfig struct {
	SecondaryTimeout  time.Duration `default:"5s" usage:"Per-attempt timeout of each secondary step" flag:"secondary-timeout"`
	SecondaryAttempts int           `default:"3" usage:"Tries per secondary step" flag:"secondary-attempts"`
	RetryBackoff      time.Duration `default:"100ms" usage:"Initial backoff between secondary attempts" flag:"retry-backoff"`
}

// RateLimitConfig controls the per-client sliding window rate limiter.
type RateLimitConfig struct {
	Max    int           `default:"100" usage:"Max requests per window"`
	Window time.Duration `default:"1m"  usage:"Rate limit window duration"`
}

// CORSConfig controls Cross-Origin Resource Sharing headers.
type CORSConfig struct {
	Origins          []string `default:"*" usage:"Allowed CORS origins"`
	AllowCredentials bool     `default:"false" usage:"Allow credentials (cookies, auth headers)" flag:"cors-credentials"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// ParsedTaxRate returns the configured tax rate, or zero when unset so the
// pricing default applies.
func (c *Config) ParsedTaxRate() (decimal.Decimal, error) {
	if c.TaxRate == "" {
		return decimal.Zero, nil
	}
	rate, err := decimal.NewFromString(c.TaxRate)
	if err != nil {
		return decimal.Zero, errors.Wrapf(err, "parse tax rate %q", c.TaxRate)
	}
	return rate, nil
}

// LoadConfig loads configuration from environment variables, YAML config
// files, and applies platform-specific defaults.
func LoadConfig() (*Config, error) {
	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "SHOP",
		Files:     []string{"config.yaml", "/etc/glowcart/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()

	if cfg.DatabaseURL == "" {
		return nil, errors.New("database URL is required: set SHOP_DATABASE_URL or DATABASE_URL")
	}

	return &cfg, nil
}

// applyPlatformDefaults maps platform-provided environment variables
// (Railway, Render, etc.) that use standard names like DATABASE_URL and
// PORT to the application's SHOP_-prefixed configuration.
func (c *Config) applyPlatformDefaults() {
	if c.DatabaseURL == "" {
		if v := os.Getenv("DATABASE_URL"); v != "" {
			c.DatabaseURL = v
		}
	}
	if c.RedisAddr == "" {
		if v := os.Getenv("REDIS_URL"); v != "" {
			c.RedisAddr = v
		}
	}
	if port := os.Getenv("PORT"); port != "" && c.Addr == "0.0.0.0:8080" {
		c.Addr = "0.0.0.0:" + port
	}
}
