package httpx

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"time"
)

const (
	healthResponse      = `{"status":"ok"}`
	readinessTimeout    = 2 * time.Second
	readinessStatusOK   = "ok"
	readinessStatusDown = "unavailable"
)

// healthHandler returns a simple 200 OK status for liveness checks.
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if r.Method == http.MethodHead {
		return
	}
	if _, err := io.WriteString(w, healthResponse); err != nil {
		// Nothing more to do if the client connection is gone.
		return
	}
}

// ReadinessCheck probes one dependency. It must honor ctx.
type ReadinessCheck func(ctx context.Context) error

// readinessHandler reports 503 when any dependency check fails.
func readinessHandler(checks map[string]ReadinessCheck, logger *slog.Logger) http.HandlerFunc {
	names := make([]string, 0, len(checks))
	for name := range checks {
		names = append(names, name)
	}
	sort.Strings(names)

	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()

		status := http.StatusOK
		result := make(map[string]string, len(names))
		for _, name := range names {
			if err := checks[name](ctx); err != nil {
				logger.WarnContext(ctx, "readiness check failed", "check", name, "error", err)
				result[name] = readinessStatusDown
				status = http.StatusServiceUnavailable
				continue
			}
			result[name] = readinessStatusOK
		}
		WriteJSON(w, status, map[string]any{"checks": result})
	}
}
