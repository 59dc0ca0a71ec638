package server

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog/hlog"

	"github.com/andrasnagy-data/bizops/internal/shared/database"
	"github.com/andrasnagy-data/bizops/internal/shared/httpx"
)

// healthTimeout bounds the database probe so a hung connection cannot stall the check.
const healthTimeout = 2 * time.Second

type (
	// HealthSrvc handles business logic for health check functionality
	HealthSrvc struct {
		db  database.Querier
		now func() time.Time
	}

	// HealthResponse represents the response structure for health check endpoint
	HealthResponse struct {
		Status    string    `json:"status"`
		Timestamp time.Time `json:"timestamp"`
		Database  bool      `json:"database"`
	}
)

func NewHealthHandler(srvc *HealthSrvc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := hlog.FromRequest(r)

		response := srvc.check(r.Context())

		status := http.StatusOK
		if response.Database {
			logger.Debug().Msg("Database healthcheck ok")
		} else {
			logger.Error().Msg("Database healthcheck failed")
			status = http.StatusServiceUnavailable
		}

		if err := httpx.JSON(w, status, response); err != nil {
			logger.Error().Err(err).Msg("Failed to encode health check response")
		}
	}
}

func NewHealthSrvc(db database.Querier) *HealthSrvc {
	return &HealthSrvc{db: db, now: time.Now}
}

func (s *HealthSrvc) check(ctx context.Context) HealthResponse {
	ctx, cancel := context.WithTimeout(ctx, healthTimeout)
	defer cancel()

	var res int
	err := s.db.QueryRow(ctx, "SELECT 1").Scan(&res)
	dbOk := err == nil && res == 1

	response := HealthResponse{
		Status:    "serving",
		Timestamp: s.now().UTC(),
		Database:  dbOk,
	}
	if !dbOk {
		response.Status = "not serving"
	}
	return response
}
