package handlers

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"catalog-engine-go/internal/models"
)

// Pinger is a backend the readiness check pings.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler handles health and readiness checks
type HealthHandler struct {
	redis    Pinger
	postgres Pinger
	logger   *zap.Logger
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(redis, postgres Pinger, logger *zap.Logger) *HealthHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HealthHandler{
		redis:    redis,
		postgres: postgres,
		logger:   logger,
	}
}

// HandleHealth handles GET /api/v1/health (liveness)
// Returns 200 unconditionally; liveness must not depend on Redis or Postgres.
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	response := models.HealthResponse{
		Status: "ok",
	}
	respondWithJSON(w, http.StatusOK, response)
}

// HandleReady handles GET /api/v1/ready (readiness)
// Postgres is required to serve anything. Redis only caches, so its outage
// is reported but does not fail the check.
func (h *HealthHandler) HandleReady(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	response := models.ReadyResponse{
		Status:   "ready",
		Postgres: "ok",
		Redis:    "ok",
	}

	if err := h.redis.Ping(ctx); err != nil {
		h.logger.Warn("readiness check: redis unavailable", zap.Error(err))
		response.Redis = "unavailable"
	}

	if err := h.postgres.Ping(ctx); err != nil {
		h.logger.Error("readiness check failed: postgres unavailable", zap.Error(err))
		response.Status = "unavailable"
		response.Postgres = "unavailable"
		respondWithJSON(w, http.StatusServiceUnavailable, response)
		return
	}

	respondWithJSON(w, http.StatusOK, response)
}
