package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("AUTH_JWT_SECRET", testSecret)

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, 8010, cfg.HTTPPort)
	assert.Equal(t, AuthModeJWT, cfg.AuthMode)
	assert.Equal(t, 10*time.Minute, cfg.RelatedCacheTTL)
	assert.Equal(t, []string{"localhost:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "localhost:6379", cfg.Redis().Addr())
	assert.False(t, cfg.IsProduction())
}

func TestLoad_PostgresConfig(t *testing.T) {
	t.Setenv("AUTH_JWT_SECRET", testSecret)
	t.Setenv("POSTGRES_HOST", "db.internal")
	t.Setenv("POSTGRES_PASSWORD", "p@ss/word")
	t.Setenv("POSTGRES_MAX_CONNS", "40")

	cfg, err := Load()
	require.NoError(t, err)

	pg := cfg.Postgres()
	assert.Equal(t, "db.internal", pg.Host)
	assert.Equal(t, int32(40), pg.MaxConns)
	assert.Contains(t, pg.DSN(), "db.internal:5432")
	assert.NotContains(t, pg.DSN(), "p@ss/word")
}

func TestLoad_TracingConfig(t *testing.T) {
	t.Setenv("AUTH_JWT_SECRET", testSecret)
	t.Setenv("OTEL_ENABLED", "true")
	t.Setenv("OTEL_SAMPLE_RATE", "0.25")

	cfg, err := Load()
	require.NoError(t, err)

	tc := cfg.Tracing("engagement-service")
	assert.True(t, tc.Enabled)
	assert.Equal(t, "engagement-service", tc.ServiceName)
	assert.InDelta(t, 0.25, tc.SampleRate, 1e-9)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"port", map[string]string{"ENGAGEMENT_HTTP_PORT": "0"}, "invalid HTTP port"},
		{"sample rate", map[string]string{"OTEL_SAMPLE_RATE": "2.0"}, "OTEL_SAMPLE_RATE must be between 0.0 and 1.0"},
		{"short secret", map[string]string{"AUTH_JWT_SECRET": "short"}, "AUTH_JWT_SECRET must be at least 32 bytes"},
		{"auth mode", map[string]string{"AUTH_MODE": "basic"}, "AUTH_MODE must be"},
		{"remote url", map[string]string{"AUTH_MODE": "remote", "AUTH_REMOTE_URL": "/me"}, "AUTH_REMOTE_URL must be an absolute URL"},
		{"pool", map[string]string{"POSTGRES_MIN_CONNS": "50"}, "invalid postgres pool size"},
		{"rate", map[string]string{"REPORT_RATE_PER_MINUTE": "0"}, "report rate limit"},
		{"pprof cidr", map[string]string{"PPROF_ALLOWED_CIDRS": "10.0.0.0/8,localhost"}, "PPROF_ALLOWED_CIDRS has invalid entries: localhost"},
		{"malformed", map[string]string{"RELATED_CACHE_TTL": "soon"}, "load engagement config"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("AUTH_JWT_SECRET", testSecret)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			cfg, err := Load()

			assert.Nil(t, cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoad_RemoteMode(t *testing.T) {
	t.Setenv("AUTH_MODE", "remote")
	t.Setenv("AUTH_REMOTE_URL", "http://identity:8080/api/v1/auth/me")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, AuthModeRemote, cfg.AuthMode)
	assert.Equal(t, 3*time.Second, cfg.AuthRemoteTimeout)
}
