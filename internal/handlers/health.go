package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/minashop/api/internal/platform/httpx"
)

// Pinger reports whether the backing datastore is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandlers serves the liveness and readiness probes.
type HealthHandlers struct {
	pinger Pinger
}

// NewHealthHandlers wires the optional readiness pinger.
func NewHealthHandlers(pinger Pinger) *HealthHandlers {
	return &HealthHandlers{pinger: pinger}
}

// Healthz always reports alive.
func (h *HealthHandlers) Healthz(w http.ResponseWriter, r *http.Request) {
	httpx.WriteJSON(r.Context(), w, http.StatusOK, map[string]string{"status": "ok"})
}

// Readyz checks the datastore with a short deadline.
func (h *HealthHandlers) Readyz(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.pinger != nil {
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		defer cancel()
		if err := h.pinger.Ping(pingCtx); err != nil {
			httpx.WriteError(ctx, w, httpx.NewError("not_ready", "datastore unreachable", http.StatusServiceUnavailable))
			return
		}
	}
	httpx.WriteJSON(ctx, w, http.StatusOK, map[string]string{"status": "ready"})
}
