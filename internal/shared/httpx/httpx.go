// Package httpx adapts error-returning handlers to net/http and owns the single place where an
// error becomes an HTTP response.
package httpx

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"

	"github.com/andrasnagy-data/bizops/internal/shared/apperr"
	"github.com/andrasnagy-data/bizops/internal/shared/config"
)

// Router-level failure codes.
const (
	CodeRouteNotFound    = "H01-01"
	CodeMethodNotAllowed = "H01-02"
	CodeBodyUnreadable   = "H01-03"
)

// maxBodyBytes caps request bodies read by ReadBody.
const maxBodyBytes = 1 << 16

type (
	// HandlerFunc is a controller: it either writes a success response or returns an error.
	HandlerFunc func(w http.ResponseWriter, r *http.Request) error

	// Data is the success envelope.
	Data struct {
		Data any `json:"data"`
	}

	// ErrorBody is the failure envelope.
	ErrorBody struct {
		Success bool        `json:"success"`
		Error   ErrorDetail `json:"error"`
	}

	ErrorDetail struct {
		Message string `json:"message"`
		Status  int    `json:"status"`
		Code    string `json:"code,omitempty"`
		Stack   string `json:"stack,omitempty"`
	}

	// Responder renders errors. In production it hides step codes and stack traces.
	Responder struct {
		prod bool
	}
)

func NewResponder(cfg *config.Config) *Responder {
	return &Responder{prod: cfg.IsEnvProd()}
}

// Handle adapts h to http.HandlerFunc, sending any returned error through Error.
func (rp *Responder) Handle(h HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := h(w, r); err != nil {
			rp.Error(w, r, err)
		}
	}
}

// Error logs err and writes the error envelope with the status of its kind.
func (rp *Responder) Error(w http.ResponseWriter, r *http.Request, err error) {
	appErr := apperr.From(err)
	status := appErr.Kind.Status()

	logger := hlog.FromRequest(r)
	var event *zerolog.Event
	if status >= http.StatusInternalServerError {
		event = logger.Error()
	} else {
		event = logger.Warn()
	}
	event.Err(err).
		Str("code", appErr.Code).
		Str("kind", string(appErr.Kind)).
		Int("status", status).
		Fields(appErr.Context()).
		Msg("Request failed")

	body := ErrorBody{
		Error: ErrorDetail{
			Message: appErr.Message(),
			Status:  status,
		},
	}
	if !rp.prod {
		body.Error.Code = appErr.Code
		body.Error.Stack = appErr.Stack()
	}

	if err := JSON(w, status, body); err != nil {
		logger.Error().Err(err).Msg("Failed to encode error response")
	}
}

// NotFound writes the 404 envelope. Routers install it with chi's NotFound.
func (rp *Responder) NotFound(w http.ResponseWriter, r *http.Request) {
	rp.Error(w, r, apperr.New(apperr.NotFound, CodeRouteNotFound))
}

// MethodNotAllowed writes the 405 envelope. Routers install it with chi's MethodNotAllowed.
func (rp *Responder) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	rp.Error(w, r, apperr.New(apperr.MethodNotAllowed, CodeMethodNotAllowed))
}

// ReadBody reads at most 64 KiB of the request body. Oversized or broken bodies are validation
// failures.
func ReadBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	b, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return nil, apperr.Invalid(CodeBodyUnreadable, err)
	}
	return b, nil
}

// JSON writes v as a JSON body with the given status.
func JSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(v)
}
