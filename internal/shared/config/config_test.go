package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfig_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/bizops")

	cfg, err := NewConfig()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "dev", cfg.Environment)
	assert.Equal(t, 10, cfg.HashCost)
	assert.Equal(t, 24*time.Hour, cfg.TokenTTL)
	assert.Equal(t, "bizops", cfg.TokenIssuer)
	assert.Equal(t, 20, cfg.AuthRateLimit)
	assert.Equal(t, time.Minute, cfg.AuthRateWindow)
	assert.Equal(t, uint64(5), cfg.ConnectAttempts)
	assert.False(t, cfg.MigrateOnStart)
	assert.False(t, cfg.IsEnvProd())
}

func TestNewConfig_Overrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("HASH_COST", "12")
	t.Setenv("TOKEN_TTL", "0s")
	t.Setenv("JWT_SECRET", "s3cret")

	cfg, err := NewConfig()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, 12, cfg.HashCost)
	assert.Equal(t, time.Duration(0), cfg.TokenTTL)
	assert.Equal(t, []byte("s3cret"), cfg.SigningSecret())
}

func TestNewConfig_InvalidValue(t *testing.T) {
	t.Setenv("PORT", "not-a-number")

	_, err := NewConfig()
	assert.Error(t, err)
}

func TestConfig_Modes(t *testing.T) {
	tests := []struct {
		name   string
		cfg    Config
		prod   bool
		sentry bool
	}{
		{name: "dev", cfg: Config{Environment: "dev", SentryDSN: "https://x@sentry"}, prod: false, sentry: false},
		{name: "prod without dsn", cfg: Config{Environment: "prod"}, prod: true, sentry: false},
		{name: "prod with dsn", cfg: Config{Environment: "prod", SentryDSN: "https://x@sentry"}, prod: true, sentry: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.prod, tt.cfg.IsEnvProd())
			assert.Equal(t, tt.sentry, tt.cfg.SentryEnabled())
		})
	}
}
