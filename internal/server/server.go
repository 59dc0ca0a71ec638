package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/getsentry/sentry-go"
	sentryhttp "github.com/getsentry/sentry-go/http"
	sentryzerolog "github.com/getsentry/sentry-go/zerolog"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
	"go.uber.org/fx"

	"github.com/andrasnagy-data/bizops/internal/shared/config"
	"github.com/andrasnagy-data/bizops/internal/shared/httpx"
	"github.com/andrasnagy-data/bizops/internal/shared/metrics"
)

type (
	// Server represents the HTTP server with all dependencies
	Server struct {
		server       *http.Server
		config       *config.Config
		logger       zerolog.Logger
		sentryWriter *sentryzerolog.Writer
	}

	params struct {
		fx.In

		Config        *config.Config
		Logger        zerolog.Logger
		SentryWriter  *sentryzerolog.Writer
		Responder     *httpx.Responder
		Metrics       *metrics.Metrics
		HealthHandler http.HandlerFunc
		AuthRouter    chi.Router `name:"authRouter"`
		RolesRouter   chi.Router `name:"rolesRouter"`
	}
)

func NewServer(p params) *Server {
	if p.Config.SentryEnabled() {
		initSentry(p.Config, p.Logger)
	}

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", p.Config.Port),
		Handler:           newRouter(p),
		ReadHeaderTimeout: 10 * time.Second,
	}

	return &Server{
		config:       p.Config,
		logger:       p.Logger,
		server:       server,
		sentryWriter: p.SentryWriter,
	}
}

func initSentry(cfg *config.Config, logger zerolog.Logger) {
	err := sentry.Init(sentry.ClientOptions{
		Dsn:              cfg.SentryDSN,
		Environment:      cfg.Environment,
		Release:          cfg.Version,
		AttachStacktrace: true,
		// Request bodies carry passwords.
		SendDefaultPII: false,
		EnableTracing:  true,
		TracesSampler: sentry.TracesSampler(func(ctx sentry.SamplingContext) float64 {
			if ctx.Span.Name == "GET /health" || ctx.Span.Name == "GET /metrics" {
				return 0.0
			}
			return 1.0
		}),
	})
	if err != nil {
		logger.Error().Err(err).Msg("Failed to initialize Sentry")
		return
	}
	logger.Debug().Str("environment", cfg.Environment).Msg("Sentry initialized")
}

func newRouter(p params) chi.Router {
	r := chi.NewRouter()

	// Recovery middleware
	// Sentry recovers and reports in prod, chi's recoverer everywhere else
	if p.Config.SentryEnabled() {
		r.Use(sentryhttp.New(sentryhttp.Options{}).Handle)
	} else {
		r.Use(chimiddleware.Recoverer)
	}

	// Middleware
	r.Use(hlog.NewHandler(p.Logger))
	r.Use(hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
		hlog.FromRequest(r).Info().
			Str("method", r.Method).
			Str("url", r.URL.Path).
			Int("status", status).
			Int("size", size).
			Dur("duration", duration).
			Msg("HTTP request")
	}))
	r.Use(hlog.RequestIDHandler("req_id", "Request-Id"))
	r.Use(p.Metrics.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Request-Id", "Retry-After"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.NotFound(p.Responder.NotFound)
	r.MethodNotAllowed(p.Responder.MethodNotAllowed)

	// Routes
	r.Get("/health", p.HealthHandler)
	r.Method(http.MethodGet, "/metrics", p.Metrics.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Mount("/auth", p.AuthRouter)
		r.Mount("/roles", p.RolesRouter)
	})

	return r
}

// Register hooks the server into the fx lifecycle.
func Register(lc fx.Lifecycle, s *Server) {
	lc.Append(fx.Hook{
		OnStart: s.start,
		OnStop:  s.stop,
	})
}

// start starts the HTTP server
func (s *Server) start(_ context.Context) error {
	s.logger.Info().
		Str("addr", s.server.Addr).
		Str("environment", s.config.Environment).
		Bool("sentry_enabled", s.config.SentryEnabled()).
		Msg("Starting HTTP server")
	go func() {
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error().Err(err).Msg("Server failed to start")
		}
	}()

	s.logger.Info().Msg("HTTP server started")
	return nil
}

// stop gracefully shuts down the HTTP server
func (s *Server) stop(ctx context.Context) error {
	// Create timeout context for graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	s.logger.Info().Msg("Shutting down HTTP server...")

	if s.config.SentryEnabled() {
		s.logger.Info().Msg("Flushing Sentry client and writer")
		if s.sentryWriter != nil {
			s.sentryWriter.Close()
		}
		sentry.Flush(2 * time.Second)
	}

	if err := s.server.Shutdown(shutdownCtx); err != nil {
		s.logger.Error().Err(err).Msg("Error during server shutdown")
		return err
	}

	s.logger.Info().Msg("HTTP server shutdown completed")
	return nil
}
