package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrasnagy-data/bizops/internal/shared/config"
	"github.com/andrasnagy-data/bizops/internal/shared/httpx"
	"github.com/andrasnagy-data/bizops/internal/shared/token"
)

const testSecret = "gate-secret"

func newGate(t *testing.T) (*token.Issuer, http.Handler) {
	t.Helper()
	cfg := &config.Config{Environment: "dev", JWTSecret: testSecret, TokenTTL: time.Hour}
	issuer := token.NewIssuer(cfg)
	rp := httpx.NewResponder(cfg)

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := ClaimsFrom(r.Context())
		require.True(t, ok)
		_ = httpx.JSON(w, http.StatusOK, httpx.Data{Data: claims.Subject})
	})
	return issuer, NewAuthMiddleware(issuer, rp)(next)
}

func doRequest(h http.Handler, header string) (*httptest.ResponseRecorder, httpx.ErrorBody) {
	req := httptest.NewRequest(http.MethodGet, "/v1/roles", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var body httpx.ErrorBody
	_ = json.Unmarshal(rec.Body.Bytes(), &body)
	return rec, body
}

func signRaw(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return raw
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	issuer, h := newGate(t)
	raw, err := issuer.Sign(token.Principal{ID: "user-1", Roles: []string{"admin"}})
	require.NoError(t, err)

	rec, _ := doRequest(h, "Bearer "+raw)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"data":"user-1"}`, rec.Body.String())
}

func TestAuthMiddleware_Rejections(t *testing.T) {
	_, h := newGate(t)

	tests := []struct {
		name   string
		header string
		code   string
	}{
		{name: "missing header", header: "", code: CodeMissingHeader},
		{name: "missing prefix", header: "Token abc", code: CodeMissingPrefix},
		{name: "lowercase prefix", header: "bearer abc", code: CodeMissingPrefix},
		{name: "empty token", header: "Bearer    ", code: CodeEmptyToken},
		{name: "garbage token", header: "Bearer abc.def.ghi", code: CodeInvalidToken},
		{
			name:   "missing sub",
			header: "Bearer " + signRaw(t, jwt.MapClaims{"roles": []string{}, "permissions": []string{}}),
			code:   CodeMissingSubject,
		},
		{
			name:   "missing roles",
			header: "Bearer " + signRaw(t, jwt.MapClaims{"sub": "u", "permissions": []string{}}),
			code:   CodeMissingRoles,
		},
		{
			name:   "missing permissions",
			header: "Bearer " + signRaw(t, jwt.MapClaims{"sub": "u", "roles": []string{}}),
			code:   CodeMissingPermissions,
		},
	}

	seen := map[string]bool{}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, body := doRequest(h, tt.header)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Equal(t, "Unauthorized", body.Error.Message)
			assert.Equal(t, tt.code, body.Error.Code)
		})
		seen[tt.code] = true
	}
	assert.Len(t, seen, 7)
}

func TestAuthMiddleware_ForeignIssuer(t *testing.T) {
	cfg := &config.Config{Environment: "dev", JWTSecret: testSecret, TokenIssuer: "bizops", TokenTTL: time.Hour}
	h := NewAuthMiddleware(token.NewIssuer(cfg), httpx.NewResponder(cfg))(http.NotFoundHandler())

	foreign := token.NewIssuer(&config.Config{JWTSecret: testSecret, TokenIssuer: "other-service", TokenTTL: time.Hour})
	raw, err := foreign.Sign(token.Principal{ID: "user-1", Roles: []string{"admin"}})
	require.NoError(t, err)

	rec, body := doRequest(h, "Bearer "+raw)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, CodeInvalidToken, body.Error.Code)
}

func TestAuthMiddleware_MissingSecretIsInternal(t *testing.T) {
	cfg := &config.Config{Environment: "dev"}
	h := NewAuthMiddleware(token.NewIssuer(cfg), httpx.NewResponder(cfg))(http.NotFoundHandler())

	rec, body := doRequest(h, "Bearer abc.def.ghi")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, CodeVerifierMisconfig, body.Error.Code)
}

func TestRequirePermission(t *testing.T) {
	cfg := &config.Config{Environment: "dev", JWTSecret: testSecret}
	issuer := token.NewIssuer(cfg)
	rp := httpx.NewResponder(cfg)
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	h := NewAuthMiddleware(issuer, rp)(RequirePermission("roles.read", rp)(ok))

	t.Run("granted", func(t *testing.T) {
		raw, err := issuer.Sign(token.Principal{ID: "u", Permissions: []string{"roles.read"}})
		require.NoError(t, err)

		rec, _ := doRequest(h, "Bearer "+raw)
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})

	t.Run("denied", func(t *testing.T) {
		raw, err := issuer.Sign(token.Principal{ID: "u", Permissions: []string{"orders.read"}})
		require.NoError(t, err)

		rec, body := doRequest(h, "Bearer "+raw)
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Equal(t, CodeMissingPermission, body.Error.Code)
	})

	t.Run("no claims in context", func(t *testing.T) {
		rec := httptest.NewRecorder()
		RequirePermission("roles.read", rp)(ok).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}
