package handler

import (
	"net/http"

	"github.com/merqado/concierge/internal/catalog"
	natsclient "github.com/merqado/concierge/internal/nats"
)

// HealthHandler handles health check endpoints.
type HealthHandler struct {
	natsClient *natsclient.Client
	snapshot   *catalog.Snapshot
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(natsClient *natsclient.Client, snapshot *catalog.Snapshot) *HealthHandler {
	return &HealthHandler{
		natsClient: natsClient,
		snapshot:   snapshot,
	}
}

// Health handles GET /health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
	})
}

// Ready handles GET /ready
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	if h.natsClient == nil || !h.natsClient.IsConnected() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not ready",
			"reason": "NATS not connected",
		})
		return
	}

	stores, products, promotions := h.snapshot.Counts()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ready",
		"catalog": map[string]int{
			"stores":     stores,
			"products":   products,
			"promotions": promotions,
		},
	})
}
