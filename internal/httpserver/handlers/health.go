package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/MrSnakeDoc/beacon/internal/domain"
	"github.com/MrSnakeDoc/beacon/internal/httpserver/deps"
)

type healthSnapshotResponse struct {
	Status    string                         `json:"status"`
	Timestamp time.Time                      `json:"timestamp"`
	Services  map[string]domain.HealthRecord `json:"services"`
}

// Health returns the latest aggregate health map from the poller.
func Health(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		services := d.HealthState.Snapshot()

		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-store")
		_ = json.NewEncoder(w).Encode(healthSnapshotResponse{
			Status:    "healthy",
			Timestamp: d.HealthState.LastTick(),
			Services:  services,
		})
	}
}
