package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrasnagy-data/bizops/internal/shared/config"
	"github.com/andrasnagy-data/bizops/internal/shared/httpx"
	"github.com/andrasnagy-data/bizops/internal/shared/ratelimit"
)

type routerFixture struct {
	*serviceFixture
	handler http.Handler
}

func newRouterFixture(t *testing.T, env string, limit int) *routerFixture {
	t.Helper()
	f := newServiceFixture(t)

	limiter := ratelimit.NewMemory(limit, time.Minute)
	t.Cleanup(func() { _ = limiter.Close() })

	rp := httpx.NewResponder(&config.Config{Environment: env})
	return &routerFixture{
		serviceFixture: f,
		handler:        NewRouter(f.svc, f.issuer, limiter, rp),
	}
}

func (f *routerFixture) seed(t *testing.T, username, password string) {
	t.Helper()
	hash, err := f.hasher.Hash(password)
	require.NoError(t, err)
	_, err = f.store.Create(context.Background(), username, hash)
	require.NoError(t, err)
}

func (f *routerFixture) do(method, path, body string, header http.Header) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header[k] = v
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) httpx.ErrorBody {
	t.Helper()
	var body httpx.ErrorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func decodeToken(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Data string `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Data
}

func TestRouter_SignIn_Validation(t *testing.T) {
	f := newRouterFixture(t, "dev", 0)

	rec := f.do(http.MethodPost, "/signin", `{"username":"a","password":"d"}`, nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeError(t, rec)
	assert.False(t, body.Success)
	assert.Equal(t, http.StatusBadRequest, body.Error.Status)
	assert.Contains(t, body.Error.Message, "Validation")
	assert.Equal(t, CodeSignInValidation, body.Error.Code)
}

func TestRouter_SignIn_Unregistered(t *testing.T) {
	f := newRouterFixture(t, "dev", 0)

	rec := f.do(http.MethodPost, "/signin", `{"username":"unregisteredUser","password":"Any.P@sswOrd-2"}`, nil)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	body := decodeError(t, rec)
	assert.Contains(t, body.Error.Message, "Forbidden")
	assert.Equal(t, CodeSignInUnknown, body.Error.Code)
}

func TestRouter_SignIn_Seeded(t *testing.T) {
	f := newRouterFixture(t, "dev", 0)
	f.seed(t, "seededUser", "Any.P@sswOrd-2")

	rec := f.do(http.MethodPost, "/signin", `{"username":"seededUser","password":"Any.P@sswOrd-2"}`, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	tok := decodeToken(t, rec)
	assert.Equal(t, 2, strings.Count(tok, "."))
	assert.Greater(t, len(tok), 100)
}

func TestRouter_SignIn_WrongPasswordProd(t *testing.T) {
	f := newRouterFixture(t, "prod", 0)
	f.seed(t, "seededUser", "Any.P@sswOrd-2")

	rec := f.do(http.MethodPost, "/signin", `{"username":"seededUser","password":"nope-nope"}`, nil)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.JSONEq(t, `{"success":false,"error":{"message":"Forbidden","status":403}}`, rec.Body.String())
}

func TestRouter_SignUp(t *testing.T) {
	f := newRouterFixture(t, "dev", 0)

	rec := f.do(http.MethodPost, "/signup", `{"username":"newUser","password":"Any.P@sswOrd-2"}`, nil)

	require.Equal(t, http.StatusCreated, rec.Code)
	claims, err := f.issuer.Verify(decodeToken(t, rec))
	require.NoError(t, err)
	assert.Equal(t, f.store.byName["newUser"].ID.String(), claims.Subject)

	rec = f.do(http.MethodPost, "/signup", `{"username":"newUser","password":"another-one"}`, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, CodeSignUpTaken, decodeError(t, rec).Error.Code)
}

func TestRouter_SignUp_MalformedBody(t *testing.T) {
	f := newRouterFixture(t, "dev", 0)

	rec := f.do(http.MethodPost, "/signup", `not json`, nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, CodeSignUpValidation, decodeError(t, rec).Error.Code)
}

func TestRouter_MethodNotAllowed(t *testing.T) {
	f := newRouterFixture(t, "dev", 0)

	for _, path := range []string{"/signin", "/signup"} {
		for _, method := range []string{http.MethodGet, http.MethodPut, http.MethodDelete} {
			rec := f.do(method, path, "", nil)
			assert.Equal(t, http.StatusMethodNotAllowed, rec.Code, "%s %s", method, path)
			assert.Equal(t, http.StatusMethodNotAllowed, decodeError(t, rec).Error.Status)
		}
	}
}

func TestRouter_Me(t *testing.T) {
	f := newRouterFixture(t, "dev", 0)

	rec := f.do(http.MethodGet, "/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = f.do(http.MethodPost, "/signup", `{"username":"newUser","password":"Any.P@sswOrd-2"}`, nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	tok := decodeToken(t, rec)

	rec = f.do(http.MethodGet, "/me", "", http.Header{"Authorization": {"Bearer " + tok}})
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "newUser", body.Data["username"])
	assert.Equal(t, f.store.byName["newUser"].ID.String(), body.Data["sub"])
	assert.Equal(t, []any{}, body.Data["roles"])
}

func TestRouter_RateLimited(t *testing.T) {
	f := newRouterFixture(t, "dev", 2)

	for range 2 {
		rec := f.do(http.MethodPost, "/signin", `{"username":"a","password":"d"}`, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	}

	rec := f.do(http.MethodPost, "/signup", `{"username":"a","password":"d"}`, nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	assert.Equal(t, ratelimit.CodeLimited, decodeError(t, rec).Error.Code)
}
