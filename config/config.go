package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"voicecreate/database"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

// Metrics exporters understood by observability.NewMetricsProvider
const (
	MetricsExporterNone   = "none"
	MetricsExporterStdout = "stdout"
	MetricsExporterOTLP   = "otlp"
)

// Config holds all application configuration
type Config struct {
	// Discord configuration
	DiscordToken string  `env:"DISCORD_TOKEN"`
	BotOwnerIDs  []int64 `env:"BOT_OWNER_IDS" envSeparator:","` // always treated as admins

	// Database configuration
	DatabaseURL  string `env:"DATABASE_URL"`
	DatabaseName string `env:"DATABASE_NAME"`

	// Guild defaults
	Language        string   `env:"LANGUAGE" envDefault:"en-us"`
	DefaultPrefixes []string `env:"DEFAULT_PREFIXES" envSeparator:"," envDefault:"!"`

	// Channel lifecycle
	CleanupDelay       time.Duration `env:"CLEANUP_DELAY" envDefault:"2s"`
	ReconcileInterval  time.Duration `env:"RECONCILE_INTERVAL" envDefault:"5m"`
	CreateTextChannels bool          `env:"CREATE_TEXT_CHANNELS" envDefault:"true"`
	WelcomeMessage     string        `env:"WELCOME_MESSAGE"`
	PromptTimeout      time.Duration `env:"PROMPT_TIMEOUT" envDefault:"60s"`

	// Platform REST retries
	GatewayMaxRetries uint64 `env:"GATEWAY_MAX_RETRIES" envDefault:"3"`

	// NATS configuration; lifecycle events are mirrored only when set
	NATSServers       string `env:"NATS_SERVERS"`
	NATSSubjectPrefix string `env:"NATS_SUBJECT_PREFIX" envDefault:"voicecreate"`

	// Metrics
	MetricsExporter string        `env:"OTEL_METRICS_EXPORTER" envDefault:"none"`
	OTLPEndpoint    string        `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	ServiceName     string        `env:"OTEL_SERVICE_NAME" envDefault:"voicecreate"`
	MetricInterval  time.Duration `env:"OTEL_METRIC_EXPORT_INTERVAL" envDefault:"60s"`

	// Environment
	Environment string    `env:"ENVIRONMENT" envDefault:"development"` // "development", "production" or "test"
	LogLevel    log.Level `env:"LOG_LEVEL" envDefault:"info"`
}

// Load reads an optional .env file and then the environment
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env: %w", err)
	}
	return Parse()
}

// Parse builds a Config from the process environment alone
func Parse() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("environment variables are invalid or missing: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks required values; the test environment needs no credentials
func (c *Config) Validate() error {
	if !c.IsTest() {
		if c.DiscordToken == "" {
			return fmt.Errorf("DISCORD_TOKEN is required")
		}
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required")
		}
	}
	if c.DatabaseName != "" && strings.TrimSpace(c.DatabaseName) == "" {
		return fmt.Errorf("DATABASE_NAME cannot be blank when provided")
	}
	if c.CleanupDelay < 0 {
		return fmt.Errorf("CLEANUP_DELAY cannot be negative")
	}
	if c.ReconcileInterval <= 0 {
		return fmt.Errorf("RECONCILE_INTERVAL must be positive")
	}
	if c.PromptTimeout <= 0 {
		return fmt.Errorf("PROMPT_TIMEOUT must be positive")
	}

	switch c.MetricsExporter {
	case MetricsExporterNone, MetricsExporterStdout:
	case MetricsExporterOTLP:
		if c.OTLPEndpoint == "" {
			return fmt.Errorf("OTEL_EXPORTER_OTLP_ENDPOINT is required for the otlp exporter")
		}
	default:
		return fmt.Errorf("unknown OTEL_METRICS_EXPORTER %q", c.MetricsExporter)
	}

	prefixes := c.DefaultPrefixes[:0]
	for _, p := range c.DefaultPrefixes {
		if p = strings.TrimSpace(p); p != "" {
			prefixes = append(prefixes, p)
		}
	}
	if len(prefixes) == 0 {
		return fmt.Errorf("DEFAULT_PREFIXES needs at least one prefix")
	}
	c.DefaultPrefixes = prefixes

	return nil
}

// GetDatabaseURL constructs the full database URL by combining base URL and database name
func (c *Config) GetDatabaseURL() string {
	return database.ConstructDatabaseURL(c.DatabaseURL, c.DatabaseName)
}

func (c *Config) IsTest() bool {
	return c.Environment == "test"
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// NewTestConfig creates a minimal config suitable for unit tests
func NewTestConfig() *Config {
	return &Config{
		Environment:        "test",
		Language:           "en-us",
		DefaultPrefixes:    []string{"!"},
		CleanupDelay:       0,
		ReconcileInterval:  time.Minute,
		CreateTextChannels: true,
		PromptTimeout:      time.Second,
		GatewayMaxRetries:  0,
		MetricsExporter:    MetricsExporterNone,
		ServiceName:        "voicecreate-test",
		LogLevel:           log.DebugLevel,
	}
}
