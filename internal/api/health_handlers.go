package api

import (
	"ats-analyzer/internal/lib/sl"
	"context"
	"net/http"
	"time"
)

const healthTimeout = 2 * time.Second

type HealthResponse struct {
	Status   string `json:"status" example:"ok"`
	Database string `json:"database" example:"ok"`
}

// @Summary      Health check
// @Tags         ops
// @Produce      json
// @Success      200  {object}  HealthResponse
// @Failure      503  {object}  HealthResponse
// @Router       /health [get]
func (s *Server) HealthHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
	defer cancel()

	if err := s.store.Ping(ctx); err != nil {
		s.requestLogger(r, "api.HealthHandler").Error("database ping failed", sl.Err(err))
		writeJSON(w, r, http.StatusServiceUnavailable, HealthResponse{Status: "degraded", Database: "unreachable"})
		return
	}
	writeJSON(w, r, http.StatusOK, HealthResponse{Status: "ok", Database: "ok"})
}
