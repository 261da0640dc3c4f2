package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

const checkTimeout = 2 * time.Second

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// Health runs every registered check and answers 503 when any of them fails.
// Each check reports "ok" or its error text.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "ok", Checks: make(map[string]string, len(h.checks))}
	for _, c := range h.checks {
		ctx, cancel := context.WithTimeout(r.Context(), checkTimeout)
		err := c.fn(ctx)
		cancel()
		if err != nil {
			slog.WarnContext(r.Context(), "health check failed", "check", c.name, "error", err)
			resp.Status = "unhealthy"
			resp.Checks[c.name] = err.Error()
			continue
		}
		resp.Checks[c.name] = "ok"
	}

	status := http.StatusOK
	if resp.Status != "ok" {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, resp)
}
