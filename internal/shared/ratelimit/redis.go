package ratelimit

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/samber/oops"
)

const redisKeyPrefix = "bizops:ratelimit:"

// Redis shares window counters between replicas. Redis failures fail open.
type Redis struct {
	client  *redis.Client
	logger  zerolog.Logger
	limit   int
	window  time.Duration
	timeout time.Duration
}

// NewRedis connects to url and verifies the connection with a ping.
func NewRedis(url string, limit int, window time.Duration, logger zerolog.Logger) (*Redis, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, oops.Code("RATELIMIT_REDIS_URL").With("operation", "parse redis url").Wrap(err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, oops.Code("RATELIMIT_REDIS_PING").With("addr", opts.Addr).Wrap(err)
	}

	if window <= 0 {
		window = time.Minute
	}
	return &Redis{
		client:  client,
		logger:  logger.With().Str("component", "ratelimit").Logger(),
		limit:   limit,
		window:  window,
		timeout: 250 * time.Millisecond,
	}, nil
}

func (rl *Redis) Allow(ctx context.Context, key string) Decision {
	if rl.limit <= 0 {
		return Decision{Allowed: true}
	}
	ctx, cancel := context.WithTimeout(ctx, rl.timeout)
	defer cancel()

	redisKey := redisKeyPrefix + key
	counter, err := rl.client.Incr(ctx, redisKey).Result()
	if err != nil {
		rl.logger.Error().Err(err).Str("op", "incr").Msg("Rate limiter unavailable")
		return Decision{Allowed: true}
	}
	if counter == 1 {
		if err := rl.client.Expire(ctx, redisKey, rl.window).Err(); err != nil {
			rl.logger.Error().Err(err).Str("op", "expire").Msg("Rate limiter unavailable")
		}
	}
	ttl, err := rl.client.TTL(ctx, redisKey).Result()
	if err != nil || ttl <= 0 {
		ttl = rl.window
	}
	return Decision{
		Allowed:   int(counter) <= rl.limit,
		Count:     int(counter),
		WindowEnd: time.Now().Add(ttl),
	}
}

func (rl *Redis) Close() error {
	return rl.client.Close()
}
