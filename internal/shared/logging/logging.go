package logging

import (
	"io"
	"os"
	"time"

	sentryzerolog "github.com/getsentry/sentry-go/zerolog"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/andrasnagy-data/bizops/internal/shared/config"
)

// NewLogger creates a zerolog logger with pretty console output outside production, or JSON output
// mirrored to Sentry in production. The Sentry writer is nil unless Sentry is enabled.
func NewLogger(cfg *config.Config) (zerolog.Logger, *sentryzerolog.Writer) {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if !cfg.SentryEnabled() {
		if cfg.IsEnvProd() {
			return newJSON(os.Stderr, cfg), nil
		}
		return newConsole(os.Stderr), nil
	}

	// Assumes the Sentry client is initialized by the server before the first event
	sentryWriter, err := sentryzerolog.New(sentryzerolog.Config{
		Options: sentryzerolog.Options{
			Levels:          []zerolog.Level{zerolog.ErrorLevel, zerolog.FatalLevel, zerolog.PanicLevel},
			WithBreadcrumbs: true,
			FlushTimeout:    3 * time.Second,
		},
	})
	if err != nil {
		log.Error().Err(err).Msg("Failed to initialize Sentry writer, using stderr only")
		return newJSON(os.Stderr, cfg), nil
	}

	log.Info().Msg("Zerolog Sentry writer initialized")
	return newJSON(zerolog.MultiLevelWriter(os.Stderr, sentryWriter), cfg), sentryWriter
}

func newConsole(out io.Writer) zerolog.Logger {
	consoleWriter := zerolog.ConsoleWriter{
		Out:        out,
		TimeFormat: time.RFC3339,
	}
	return zerolog.New(consoleWriter).
		With().
		Timestamp().
		Caller().
		Logger()
}

func newJSON(out io.Writer, cfg *config.Config) zerolog.Logger {
	return zerolog.New(out).
		With().
		Timestamp().
		Caller().
		Str("version", cfg.Version).
		Str("environment", cfg.Environment).
		Logger()
}
