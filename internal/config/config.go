package config

import (
	"flag"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds application level configuration loaded from environment and flags.
type Config struct {
	RunAddress          string        `envconfig:"RUN_ADDRESS" default:":8080"`
	DatabaseURI         string        `envconfig:"DATABASE_URI"`
	StripeSecretKey     string        `envconfig:"STRIPE_SECRET_KEY"`
	StripeWebhookSecret string        `envconfig:"STRIPE_WEBHOOK_SECRET"`
	SiteURL             string        `envconfig:"SITE_URL"`
	Currency            string        `envconfig:"CURRENCY" default:"eur"`
	SessionTTL          time.Duration `envconfig:"SESSION_TTL" default:"30m"`
	RetryInterval       time.Duration `envconfig:"RETRY_INTERVAL" default:"30s"`
	RetryBatch          int           `envconfig:"RETRY_BATCH" default:"16"`
	RetryMaxAttempts    int           `envconfig:"RETRY_MAX_ATTEMPTS" default:"5"`
	WorkerPoolSize      int           `envconfig:"WORKER_POOL_SIZE" default:"2"`
	ShutdownTimeout     time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`
	LogLevel            string        `envconfig:"LOG_LEVEL" default:"info"`
	OpsTokenHash        string        `envconfig:"OPS_TOKEN_HASH"`
}

const (
	defaultRetryInterval    = 30 * time.Second
	defaultRetryBatch       = 16
	defaultRetryMaxAttempts = 5
	defaultWorkerPoolSize   = 2
	defaultShutdownTimeout  = 10 * time.Second

	// Checkout sessions accept an expiry between 30 minutes and 24 hours.
	minSessionTTL = 30 * time.Minute
	maxSessionTTL = 24 * time.Hour
)

// secretFiles maps *_FILE variables onto the settings they replace.
var secretFiles = []struct {
	env    string
	target func(*Config) *string
}{
	{"STRIPE_SECRET_KEY_FILE", func(c *Config) *string { return &c.StripeSecretKey }},
	{"STRIPE_WEBHOOK_SECRET_FILE", func(c *Config) *string { return &c.StripeWebhookSecret }},
	{"OPS_TOKEN_HASH_FILE", func(c *Config) *string { return &c.OpsTokenHash }},
}

// Load parses configuration from environment variables and flags.
func Load() (*Config, error) {
	return load(os.Args[1:])
}

func load(args []string) (*Config, error) {
	cfg := &Config{}
	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("read environment: %w", err)
	}

	fs := flag.NewFlagSet("parishpay", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.RunAddress, "a", cfg.RunAddress, "HTTP server listen address")
	fs.StringVar(&cfg.DatabaseURI, "d", cfg.DatabaseURI, "PostgreSQL DSN")
	fs.StringVar(&cfg.SiteURL, "site", cfg.SiteURL, "Public site URL used for payment redirects")
	fs.StringVar(&cfg.Currency, "currency", cfg.Currency, "ISO currency code for all payments")
	fs.DurationVar(&cfg.SessionTTL, "session-ttl", cfg.SessionTTL, "Lifetime of order payment sessions")
	fs.DurationVar(&cfg.RetryInterval, "retry-interval", cfg.RetryInterval, "Interval between retry sweeps")
	fs.IntVar(&cfg.RetryBatch, "retry-batch", cfg.RetryBatch, "Maximum notifications per retry sweep")
	fs.IntVar(&cfg.RetryMaxAttempts, "retry-attempts", cfg.RetryMaxAttempts, "Attempts before a notification needs attention")
	fs.IntVar(&cfg.WorkerPoolSize, "worker-pool", cfg.WorkerPoolSize, "Number of concurrent retry workers")
	fs.DurationVar(&cfg.ShutdownTimeout, "shutdown-timeout", cfg.ShutdownTimeout, "Graceful shutdown timeout")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level: debug, info, warn, error")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	for _, sf := range secretFiles {
		path, ok := os.LookupEnv(sf.env)
		if !ok || path == "" {
			continue
		}
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", strings.ToLower(sf.env), err)
		}
		*sf.target(cfg) = strings.TrimSpace(string(content))
	}

	normalize(cfg)

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func normalize(cfg *Config) {
	cfg.Currency = strings.ToLower(strings.TrimSpace(cfg.Currency))
	cfg.SiteURL = strings.TrimRight(cfg.SiteURL, "/")

	if cfg.WorkerPoolSize <= 0 {
		cfg.WorkerPoolSize = defaultWorkerPoolSize
	}
	if cfg.RetryBatch <= 0 {
		cfg.RetryBatch = defaultRetryBatch
	}
	if cfg.RetryMaxAttempts <= 0 {
		cfg.RetryMaxAttempts = defaultRetryMaxAttempts
	}
	if cfg.RetryInterval <= 0 {
		cfg.RetryInterval = defaultRetryInterval
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = defaultShutdownTimeout
	}
}

func validate(cfg *Config) error {
	if cfg.DatabaseURI == "" {
		return fmt.Errorf("database URI must be provided")
	}
	if cfg.StripeSecretKey == "" {
		return fmt.Errorf("stripe secret key must be provided")
	}
	if cfg.StripeWebhookSecret == "" {
		return fmt.Errorf("stripe webhook secret must be provided")
	}
	if cfg.SiteURL == "" {
		return fmt.Errorf("site URL must be provided")
	}
	if u, err := url.Parse(cfg.SiteURL); err != nil || !u.IsAbs() {
		return fmt.Errorf("site URL must be absolute")
	}
	if len(cfg.Currency) != 3 {
		return fmt.Errorf("invalid currency %q", cfg.Currency)
	}
	if cfg.SessionTTL < minSessionTTL || cfg.SessionTTL > maxSessionTTL {
		return fmt.Errorf("session ttl must be between %s and %s", minSessionTTL, maxSessionTTL)
	}
	return nil
}
