package api

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"
)

type healthResponse struct {
	Status    string `json:"status"`
	Sessions  string `json:"sessions"`
	Assistant bool   `json:"assistant"`
}

// HealthHandler reports whether the session store is reachable.
func (s *Server) HealthHandler(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "ok", Sessions: "ok", Assistant: s.Assistant != nil && s.Assistant.Available()}
	status := http.StatusOK
	if s.Sessions != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.Sessions.Ping(ctx); err != nil {
			s.logger(r).Warn("session store ping failed", zap.Error(err))
			resp.Status, resp.Sessions = "degraded", "unreachable"
			status = http.StatusServiceUnavailable
		}
	}
	writeJSON(w, status, resp)
}
