package roles

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/andrasnagy-data/bizops/internal/shared/httpx"
	"github.com/andrasnagy-data/bizops/internal/shared/middleware"
)

// PermissionRead grants read access to the role catalog.
const PermissionRead = "roles.read"

type (
	Router struct {
		service  servicer
		verifier middleware.Verifier
		rp       *httpx.Responder
	}
)

func NewRouter(service servicer, verifier middleware.Verifier, rp *httpx.Responder) chi.Router {
	router := &Router{service: service, verifier: verifier, rp: rp}
	return router.Routes()
}

func (r *Router) Routes() chi.Router {
	router := chi.NewRouter()
	router.NotFound(r.rp.NotFound)
	router.MethodNotAllowed(r.rp.MethodNotAllowed)

	// Gated routes
	router.Group(func(router chi.Router) {
		router.Use(middleware.NewAuthMiddleware(r.verifier, r.rp))
		router.Use(middleware.RequirePermission(PermissionRead, r.rp))

		router.Get("/", r.rp.Handle(r.List))
		router.Get("/{id}", r.rp.Handle(r.Get))
	})
	return router
}

// List godoc
// GET /v1/roles -> 200 {data: [{id, name, permissions}]}
func (r *Router) List(w http.ResponseWriter, req *http.Request) error {
	roles, err := r.service.List(req.Context())
	if err != nil {
		return err
	}
	return httpx.JSON(w, http.StatusOK, httpx.Data{Data: roles})
}

// Get godoc
// GET /v1/roles/{id} -> 200 {data: {id, name, permissions}}
func (r *Router) Get(w http.ResponseWriter, req *http.Request) error {
	role, err := r.service.Get(req.Context(), chi.URLParam(req, "id"))
	if err != nil {
		return err
	}
	return httpx.JSON(w, http.StatusOK, httpx.Data{Data: role})
}
