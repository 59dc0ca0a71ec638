package ratelimit

import (
	"context"

	"github.com/rs/zerolog"
	"go.uber.org/fx"

	"github.com/andrasnagy-data/bizops/internal/shared/config"
)

// New returns the limiter for /v1/auth: Redis when REDIS_URL is set and reachable, memory
// otherwise. The limiter is closed when the fx application stops.
func New(lc fx.Lifecycle, cfg *config.Config, logger zerolog.Logger) Limiter {
	l := newLimiter(cfg, logger)
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return l.Close()
		},
	})
	return l
}

func newLimiter(cfg *config.Config, logger zerolog.Logger) Limiter {
	if cfg.RedisURL == "" {
		logger.Debug().Int("limit", cfg.AuthRateLimit).Dur("window", cfg.AuthRateWindow).Msg("Using in-memory rate limiter")
		return NewMemory(cfg.AuthRateLimit, cfg.AuthRateWindow)
	}

	rl, err := NewRedis(cfg.RedisURL, cfg.AuthRateLimit, cfg.AuthRateWindow, logger)
	if err != nil {
		logger.Error().Err(err).Msg("Redis rate limiter unavailable, falling back to in-memory limiter")
		return NewMemory(cfg.AuthRateLimit, cfg.AuthRateWindow)
	}
	logger.Info().Msg("Using Redis rate limiter")
	return rl
}
