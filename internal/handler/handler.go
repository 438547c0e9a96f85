package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/regfence-dev/regfence/internal/checks"
	"github.com/regfence-dev/regfence/internal/config"
	"github.com/regfence-dev/regfence/internal/logger"
	"github.com/regfence-dev/regfence/internal/service"
)

// HealthChecker is satisfied by the storage layer and consumed by the
// readiness probe.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

type Handler struct {
	guard       service.GuardService
	admin       service.AdminService
	timingToken *checks.TimingToken
	cfg         *config.Config
	health      HealthChecker
}

func New(guard service.GuardService, admin service.AdminService, timingToken *checks.TimingToken, cfg *config.Config, health HealthChecker) *Handler {
	return &Handler{guard, admin, timingToken, cfg, health}
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	// Encode has already started the response by the time it can fail, so
	// the error cannot be turned into a status code anymore.
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Log.Error("failed to encode response", "error", err)
	}
}
