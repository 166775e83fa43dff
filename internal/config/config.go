package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	pkgconfig "github.com/pct1089547896/games-marketplace-sub000/pkg/config"
	"github.com/pct1089547896/games-marketplace-sub000/pkg/database"
	"github.com/pct1089547896/games-marketplace-sub000/pkg/middleware"
	"github.com/pct1089547896/games-marketplace-sub000/pkg/tracing"
)

const (
	AuthModeJWT    = "jwt"
	AuthModeRemote = "remote"
)

// Config holds all configuration for the engagement service.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	Version     string `env:"SERVICE_VERSION" envDefault:"dev"`

	// HTTP server
	HTTPPort        int           `env:"ENGAGEMENT_HTTP_PORT" envDefault:"8010"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"15s"`

	// Postgres
	PostgresHost        string        `env:"POSTGRES_HOST" envDefault:"localhost"`
	PostgresPort        int           `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresUser        string        `env:"POSTGRES_USER" envDefault:"marketplace"`
	PostgresPassword    string        `env:"POSTGRES_PASSWORD" envDefault:"marketplace"`
	PostgresDB          string        `env:"POSTGRES_DB" envDefault:"marketplace"`
	PostgresSSLMode     string        `env:"POSTGRES_SSLMODE" envDefault:"disable"`
	PostgresMaxConns    int32         `env:"POSTGRES_MAX_CONNS" envDefault:"20"`
	PostgresMinConns    int32         `env:"POSTGRES_MIN_CONNS" envDefault:"2"`
	PostgresMaxLifetime time.Duration `env:"POSTGRES_MAX_CONN_LIFETIME" envDefault:"1h"`
	PostgresMaxIdleTime time.Duration `env:"POSTGRES_MAX_CONN_IDLE_TIME" envDefault:"10m"`
	SlowQueryThreshold  time.Duration `env:"SLOW_QUERY_THRESHOLD" envDefault:"200ms"`
	RunMigrations       bool          `env:"RUN_MIGRATIONS" envDefault:"true"`

	// Redis
	RedisHost       string        `env:"REDIS_HOST" envDefault:"localhost"`
	RedisPort       int           `env:"REDIS_PORT" envDefault:"6379"`
	RedisPassword   string        `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB         int           `env:"REDIS_DB" envDefault:"0"`
	RelatedCacheTTL time.Duration `env:"RELATED_CACHE_TTL" envDefault:"10m"`

	// RelatedMaxAge is the public Cache-Control max-age of related lists.
	RelatedMaxAge time.Duration `env:"RELATED_MAX_AGE" envDefault:"60s"`

	// Kafka
	KafkaEnabled       bool          `env:"KAFKA_ENABLED" envDefault:"true"`
	KafkaBrokers       []string      `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`
	KafkaConsumerGroup string        `env:"KAFKA_CONSUMER_GROUP" envDefault:"engagement-service"`
	KafkaMaxRetries    int           `env:"KAFKA_MAX_RETRIES" envDefault:"3"`
	KafkaRetryWait     time.Duration `env:"KAFKA_RETRY_WAIT" envDefault:"200ms"`
	IdempotencyTTL     time.Duration `env:"KAFKA_IDEMPOTENCY_TTL" envDefault:"168h"`
	KafkaDeadLetter    bool          `env:"KAFKA_DLQ_ENABLED" envDefault:"true"`

	// Tracing
	OTELEnabled    bool    `env:"OTEL_ENABLED" envDefault:"false"`
	OTELEndpoint   string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4318"`
	OTELSampleRate float64 `env:"OTEL_SAMPLE_RATE" envDefault:"1.0"`

	// Auth
	AuthMode          string        `env:"AUTH_MODE" envDefault:"jwt"`
	JWTSecret         string        `env:"AUTH_JWT_SECRET"`
	JWTIssuer         string        `env:"AUTH_JWT_ISSUER" envDefault:""`
	AuthRemoteURL     string        `env:"AUTH_REMOTE_URL"`
	AuthRemoteTimeout time.Duration `env:"AUTH_REMOTE_TIMEOUT" envDefault:"3s"`

	// HTTP edges
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`
	PprofAllowedCIDRs  []string `env:"PPROF_ALLOWED_CIDRS" envDefault:"127.0.0.1/32,::1/128" envSeparator:","`
	ReportRatePerMin   int      `env:"REPORT_RATE_PER_MINUTE" envDefault:"10"`
	ReportRateBurst    int      `env:"REPORT_RATE_BURST" envDefault:"3"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load engagement config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}
	if c.PostgresMaxConns < 1 || c.PostgresMinConns < 0 || c.PostgresMinConns > c.PostgresMaxConns {
		return fmt.Errorf("invalid postgres pool size: min %d, max %d", c.PostgresMinConns, c.PostgresMaxConns)
	}
	if c.OTELSampleRate < 0 || c.OTELSampleRate > 1 {
		return fmt.Errorf("OTEL_SAMPLE_RATE must be between 0.0 and 1.0, got %v", c.OTELSampleRate)
	}
	if c.KafkaEnabled && len(c.KafkaBrokers) == 0 {
		return fmt.Errorf("KAFKA_BROKERS is required when Kafka is enabled")
	}
	if c.RelatedCacheTTL <= 0 {
		return fmt.Errorf("RELATED_CACHE_TTL must be positive")
	}
	if c.ReportRatePerMin < 1 || c.ReportRateBurst < 1 {
		return fmt.Errorf("report rate limit must be at least 1 per minute with burst 1")
	}
	if _, invalid := middleware.ParseCIDRs(c.PprofAllowedCIDRs); len(invalid) > 0 {
		return fmt.Errorf("PPROF_ALLOWED_CIDRS has invalid entries: %s", strings.Join(invalid, ", "))
	}

	switch c.AuthMode {
	case AuthModeJWT:
		if len(c.JWTSecret) < 32 {
			return fmt.Errorf("AUTH_JWT_SECRET must be at least 32 bytes in jwt mode")
		}
	case AuthModeRemote:
		u, err := url.Parse(c.AuthRemoteURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("AUTH_REMOTE_URL must be an absolute URL in remote mode")
		}
	default:
		return fmt.Errorf("AUTH_MODE must be %q or %q, got %q", AuthModeJWT, AuthModeRemote, c.AuthMode)
	}
	return nil
}

// IsProduction reports whether the service runs in production.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func (c *Config) Postgres() database.PostgresConfig {
	return database.PostgresConfig{
		Host:            c.PostgresHost,
		Port:            c.PostgresPort,
		User:            c.PostgresUser,
		Password:        c.PostgresPassword,
		DBName:          c.PostgresDB,
		SSLMode:         c.PostgresSSLMode,
		MaxConns:        c.PostgresMaxConns,
		MinConns:        c.PostgresMinConns,
		MaxConnLifetime: c.PostgresMaxLifetime,
		MaxConnIdleTime: c.PostgresMaxIdleTime,
	}
}

func (c *Config) Redis() database.RedisConfig {
	return database.RedisConfig{
		Host:     c.RedisHost,
		Port:     c.RedisPort,
		Password: c.RedisPassword,
		DB:       c.RedisDB,
	}
}

func (c *Config) Tracing(serviceName string) tracing.Config {
	return tracing.Config{
		Enabled:        c.OTELEnabled,
		ServiceName:    serviceName,
		ServiceVersion: c.Version,
		Environment:    c.Environment,
		OTLPEndpoint:   c.OTELEndpoint,
		SampleRate:     c.OTELSampleRate,
	}
}
