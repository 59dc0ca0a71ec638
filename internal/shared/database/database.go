package database

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"
	"go.uber.org/fx"

	"github.com/andrasnagy-data/bizops/internal/shared/config"
)

// Querier is the subset of pgx used by repositories. *pgxpool.Pool, pgx.Tx and pgxmock pools
// satisfy it.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// NewPgxPool creates a PostgreSQL connection pool with production-ready settings.
// It configures connection limits, timeouts, and lifetimes optimized for web applications.
// Pool settings: max 10 connections, min 2 connections, 1-hour max lifetime, 30-min idle timeout.
// The first ping is retried with exponential backoff so the service can start alongside its
// database; the pool is closed when the fx application stops.
func NewPgxPool(lc fx.Lifecycle, cfg *config.Config, logger zerolog.Logger) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to parse database URL")
		return nil, oops.Code("DB_CONFIG_INVALID").Wrap(err)
	}
	logger.Debug().
		Str("host", poolConfig.ConnConfig.Host).
		Str("database", poolConfig.ConnConfig.Database).
		Msg("Initializing database connection pool")

	poolConfig.MaxConns = 10
	poolConfig.MinConns = 2
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = time.Minute * 30

	logger.Debug().
		Int32("max_conns", poolConfig.MaxConns).
		Int32("min_conns", poolConfig.MinConns).
		Dur("max_conns_lifetime", poolConfig.MaxConnLifetime).
		Dur("max_conns_idletime", poolConfig.MaxConnIdleTime).
		Msg("Database connection pool configuration")

	pool, err := pgxpool.NewWithConfig(context.Background(), poolConfig)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to create database connection pool")
		return nil, oops.Code("DB_POOL_FAILED").Wrap(err)
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return Ping(ctx, pool, cfg.ConnectAttempts, logger)
		},
		OnStop: func(context.Context) error {
			logger.Info().Msg("Closing database connection pool")
			pool.Close()
			return nil
		},
	})

	logger.Debug().Msg("Database connection pool created successfully")
	return pool, nil
}

type pinger interface {
	Ping(ctx context.Context) error
}

// Ping checks connectivity, retrying up to attempts times with exponential backoff.
func Ping(ctx context.Context, p pinger, attempts uint64, logger zerolog.Logger) error {
	backoff := retry.WithMaxRetries(attempts, retry.NewExponential(200*time.Millisecond))

	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := p.Ping(ctx); err != nil {
			logger.Warn().Err(err).Msg("Database not reachable yet")
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		return oops.Code("DB_UNREACHABLE").With("attempts", attempts).Wrap(err)
	}
	return nil
}
