package infra

import (
	"net/http"
	"time"

	"github.com/mandalnilabja/roboadmin/internal/transport/http/handler/shared"
	"github.com/mandalnilabja/roboadmin/internal/version"
)

// HealthCheck reports liveness plus session and cache state. It answers 503
// until persisted sessions have been rehydrated.
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	status := "active"
	code := http.StatusOK
	if !h.Sessions.Ready() {
		status = "starting"
		code = http.StatusServiceUnavailable
	}

	response := map[string]any{
		"status":         status,
		"app":            "roboadmin",
		"version":        version.Version,
		"uptime_seconds": int64(time.Since(h.StartTime).Seconds()),
		"sessions":       h.Sessions.Len(),
	}
	if stats, ok := h.Cache.Stats(); ok {
		response["cache"] = stats
	}
	shared.WriteJSON(w, response, code)
}
