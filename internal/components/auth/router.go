package auth

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/hlog"

	"github.com/andrasnagy-data/bizops/internal/shared/apperr"
	"github.com/andrasnagy-data/bizops/internal/shared/httpx"
	"github.com/andrasnagy-data/bizops/internal/shared/middleware"
	"github.com/andrasnagy-data/bizops/internal/shared/ratelimit"
)

// rateLimitScope keys sign-in and sign-up budgets in the limiter.
const rateLimitScope = "auth"

type (
	Router struct {
		service  servicer
		verifier middleware.Verifier
		limiter  ratelimit.Limiter
		rp       *httpx.Responder
	}
)

func NewRouter(
	service servicer,
	verifier middleware.Verifier,
	limiter ratelimit.Limiter,
	rp *httpx.Responder,
) chi.Router {
	router := &Router{
		service:  service,
		verifier: verifier,
		limiter:  limiter,
		rp:       rp,
	}
	return router.Routes()
}

func (r *Router) Routes() chi.Router {
	router := chi.NewRouter()
	router.NotFound(r.rp.NotFound)
	router.MethodNotAllowed(r.rp.MethodNotAllowed)

	router.Group(func(router chi.Router) {
		router.Use(ratelimit.Middleware(r.limiter, rateLimitScope, r.rp))
		router.Post("/signin", r.rp.Handle(r.SignIn))
		router.Post("/signup", r.rp.Handle(r.SignUp))
	})

	router.Group(func(router chi.Router) {
		router.Use(middleware.NewAuthMiddleware(r.verifier, r.rp))
		router.Get("/me", r.rp.Handle(r.Me))
	})
	return router
}

// SignIn godoc
// POST /v1/auth/signin {username, password} -> 200 {data: token}
func (r *Router) SignIn(w http.ResponseWriter, req *http.Request) error {
	body, err := httpx.ReadBody(w, req)
	if err != nil {
		return err
	}

	tok, err := r.service.SignIn(req.Context(), body)
	if err != nil {
		return err
	}

	hlog.FromRequest(req).Debug().Msg("Sign-in successful")
	return httpx.JSON(w, http.StatusOK, httpx.Data{Data: tok})
}

// SignUp godoc
// POST /v1/auth/signup {username, password} -> 201 {data: token}
func (r *Router) SignUp(w http.ResponseWriter, req *http.Request) error {
	body, err := httpx.ReadBody(w, req)
	if err != nil {
		return err
	}

	tok, err := r.service.SignUp(req.Context(), body)
	if err != nil {
		return err
	}

	hlog.FromRequest(req).Info().Msg("Credential created")
	return httpx.JSON(w, http.StatusCreated, httpx.Data{Data: tok})
}

// Me returns the verified claims of the caller.
func (r *Router) Me(w http.ResponseWriter, req *http.Request) error {
	claims, ok := middleware.ClaimsFrom(req.Context())
	if !ok {
		return apperr.New(apperr.Unauthorized, middleware.CodeMissingHeader)
	}
	return httpx.JSON(w, http.StatusOK, httpx.Data{Data: claims})
}
