package config

import (
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds application configuration
type Config struct {
	Version     string `env:"VERSION" envDefault:"0.1.0"`
	Port        int    `env:"PORT" envDefault:"8080"`
	Environment string `env:"ENVIRONMENT" envDefault:"dev"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	SentryDSN   string `env:"SENTRY_DSN"`
	DatabaseURL string `env:"DATABASE_URL"`

	// Auth
	JWTSecret   string        `env:"JWT_SECRET"`
	TokenTTL    time.Duration `env:"TOKEN_TTL" envDefault:"24h"`
	TokenIssuer string        `env:"TOKEN_ISSUER" envDefault:"bizops"`
	HashCost    int           `env:"HASH_COST" envDefault:"10"`

	// Rate limiting for /v1/auth
	RedisURL        string        `env:"REDIS_URL"`
	AuthRateLimit   int           `env:"AUTH_RATE_LIMIT" envDefault:"20"`
	AuthRateWindow  time.Duration `env:"AUTH_RATE_WINDOW" envDefault:"1m"`
	MigrateOnStart  bool          `env:"MIGRATE_ON_START" envDefault:"false"`
	ConnectAttempts uint64        `env:"DB_CONNECT_ATTEMPTS" envDefault:"5"`
}

func NewConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// IsEnvProd reports whether responses must hide diagnostic details.
func (c *Config) IsEnvProd() bool {
	return c.Environment == "prod"
}

// SentryEnabled is true only in prod with a DSN configured.
func (c *Config) SentryEnabled() bool {
	return c.IsEnvProd() && c.SentryDSN != ""
}

// SigningSecret returns the token signing key. It may be empty; signing then fails at call time.
func (c *Config) SigningSecret() []byte {
	return []byte(c.JWTSecret)
}
