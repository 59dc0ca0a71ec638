// Bizops API server: credential sign-in/sign-up, bearer token gate and the role catalog.
package main

import (
	"go.uber.org/fx"

	"github.com/andrasnagy-data/bizops/internal/components/auth"
	"github.com/andrasnagy-data/bizops/internal/components/roles"
	"github.com/andrasnagy-data/bizops/internal/server"
	"github.com/andrasnagy-data/bizops/internal/shared/config"
	"github.com/andrasnagy-data/bizops/internal/shared/database"
	"github.com/andrasnagy-data/bizops/internal/shared/httpx"
	"github.com/andrasnagy-data/bizops/internal/shared/logging"
	"github.com/andrasnagy-data/bizops/internal/shared/metrics"
	"github.com/andrasnagy-data/bizops/internal/shared/middleware"
	"github.com/andrasnagy-data/bizops/internal/shared/ratelimit"
	"github.com/andrasnagy-data/bizops/internal/shared/token"
)

func main() {
	fx.New(
		fx.Provide(
			config.NewConfig,
			logging.NewLogger,
			fx.Annotate(database.NewPgxPool, fx.As(fx.Self()), fx.As(new(database.Querier))),
			metrics.NewMetrics,
			httpx.NewResponder,
			fx.Annotate(token.NewIssuer, fx.As(fx.Self()), fx.As(new(middleware.Verifier))),
			ratelimit.New,
			server.NewServer,
			server.NewHealthSrvc,
			server.NewHealthHandler,
			auth.NewValidator,
			auth.NewStore,
			auth.NewBcryptHasher,
			auth.NewService,
			fx.Annotate(auth.NewRouter, fx.ResultTags(`name:"authRouter"`)),
			roles.NewRepo,
			roles.NewService,
			fx.Annotate(roles.NewRouter, fx.ResultTags(`name:"rolesRouter"`)),
		),
		fx.Invoke(database.RegisterMigrations, server.Register),
	).Run()
}
