package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/andrasnagy-data/bizops/internal/shared/apperr"
	"github.com/andrasnagy-data/bizops/internal/shared/httpx"
	"github.com/andrasnagy-data/bizops/internal/shared/token"
)

// Gate failure codes.
const (
	CodeMissingHeader      = "M01-01"
	CodeMissingPrefix      = "M01-02"
	CodeEmptyToken         = "M01-03"
	CodeInvalidToken       = "M01-04"
	CodeMissingSubject     = "M01-05"
	CodeMissingRoles       = "M01-06"
	CodeMissingPermissions = "M01-07"
	CodeVerifierMisconfig  = "M01-08"
	CodeMissingPermission  = "M02-01"
)

const bearerPrefix = "Bearer "

// contextKey is a custom type for context keys to avoid collisions
type contextKey string

const claimsKey contextKey = "claims"

type Verifier interface {
	Verify(raw string) (*token.Claims, error)
}

// ClaimsFrom extracts the verified claims from the request context
func ClaimsFrom(ctx context.Context) (*token.Claims, bool) {
	claims, ok := ctx.Value(claimsKey).(*token.Claims)
	return claims, ok
}

// WithClaims attaches claims to ctx.
func WithClaims(ctx context.Context, claims *token.Claims) context.Context {
	return context.WithValue(ctx, claimsKey, claims)
}

// NewAuthMiddleware verifies the bearer token on every request and attaches the decoded claims to
// the request context for downstream authorization checks.
func NewAuthMiddleware(verifier Verifier, rp *httpx.Responder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, err := authenticate(verifier, r.Header.Get("Authorization"))
			if err != nil {
				rp.Error(w, r, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}

// RequirePermission rejects requests whose claims do not grant perm. It must run after the
// auth middleware.
func RequirePermission(perm string, rp *httpx.Responder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := ClaimsFrom(r.Context())
			if !ok || !claims.HasPermission(perm) {
				rp.Error(w, r, apperr.New(apperr.Forbidden, CodeMissingPermission))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func authenticate(verifier Verifier, header string) (*token.Claims, error) {
	if header == "" {
		return nil, apperr.New(apperr.Unauthorized, CodeMissingHeader)
	}
	if !strings.HasPrefix(header, bearerPrefix) {
		return nil, apperr.New(apperr.Unauthorized, CodeMissingPrefix)
	}
	raw := strings.TrimSpace(strings.TrimPrefix(header, bearerPrefix))
	if raw == "" {
		return nil, apperr.New(apperr.Unauthorized, CodeEmptyToken)
	}

	claims, err := verifier.Verify(raw)
	switch {
	case err == nil:
		return claims, nil
	case errors.Is(err, token.ErrMissingSubject):
		return nil, apperr.Wrap(apperr.Unauthorized, CodeMissingSubject, err)
	case errors.Is(err, token.ErrMissingRoles):
		return nil, apperr.Wrap(apperr.Unauthorized, CodeMissingRoles, err)
	case errors.Is(err, token.ErrMissingPermissions):
		return nil, apperr.Wrap(apperr.Unauthorized, CodeMissingPermissions, err)
	case errors.Is(err, token.ErrMissingSecret):
		return nil, apperr.Wrap(apperr.Internal, CodeVerifierMisconfig, err)
	default:
		return nil, apperr.Wrap(apperr.Unauthorized, CodeInvalidToken, err)
	}
}
