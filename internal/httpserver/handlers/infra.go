package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/MrSnakeDoc/beacon/internal/health"
	"github.com/MrSnakeDoc/beacon/internal/httpserver/deps"
	"github.com/MrSnakeDoc/beacon/internal/pipeline"
	"github.com/MrSnakeDoc/beacon/internal/store/messages"
)

type componentStatus struct {
	OK             bool   `json:"ok"`
	ServicesLoaded *int   `json:"services_loaded,omitempty"`
	LastReload     string `json:"last_reload,omitempty"`
	Mode           string `json:"mode,omitempty"`
	Error          string `json:"error,omitempty"`
}

type infraResponse struct {
	Mode       string                     `json:"mode"`
	Components map[string]componentStatus `json:"components"`
	Cache      health.CacheStats          `json:"cache"`
	Store      messages.Stats             `json:"store"`
	Pipeline   pipeline.Stats             `json:"pipeline"`
	Hub        hubStatus                  `json:"hub"`
}

type hubStatus struct {
	Clients       int   `json:"clients"`
	FramesSent    int64 `json:"frames_sent"`
	FramesDropped int64 `json:"frames_dropped"`
}

// Infra exposes the proxy's internal component status and counters.
func Infra(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		servicesCount := d.Catalog.Count()
		lastReload := "never"
		if t := d.Catalog.LastReload(); !t.IsZero() {
			lastReload = t.Format("2006-01-02 15:04:05")
		}

		catalogMode := "manifest"
		if d.Catalog.Fallback() {
			catalogMode = "default-catalog"
		}

		busConnected := d.Bus != nil && d.Bus.IsConnected()
		busStatus := componentStatus{OK: busConnected, Mode: "connected"}
		if !busConnected {
			busStatus.Mode = "disconnected"
		}

		components := map[string]componentStatus{
			"catalog": {
				OK:             servicesCount > 0,
				ServicesLoaded: &servicesCount,
				LastReload:     lastReload,
				Mode:           catalogMode,
			},
			"bus":    busStatus,
			"mirror": checkMirror(r.Context(), d),
		}

		sent, dropped := d.Hub.Stats()
		response := infraResponse{
			Mode:       determineMode(components),
			Components: components,
			Cache:      d.HealthCache.Stats(),
			Store:      d.Store.Stats(),
			Pipeline:   d.Pipeline.Stats(),
			Hub: hubStatus{
				Clients:       d.Hub.Clients(),
				FramesSent:    sent,
				FramesDropped: dropped,
			},
		}

		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(response)
	}
}

// determineMode collapses component status into one operator-facing word.
func determineMode(components map[string]componentStatus) string {
	if catalog, exists := components["catalog"]; exists && !catalog.OK {
		return "critical" // nothing to poll
	}
	if bus, exists := components["bus"]; exists && !bus.OK {
		return "degraded" // health polling only, no live telemetry
	}
	return "nominal"
}

func checkMirror(ctx context.Context, d deps.Deps) componentStatus {
	if d.Mirror == nil {
		return componentStatus{OK: true, Mode: "disabled"}
	}

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := d.Mirror.Ping(pingCtx); err != nil {
		return componentStatus{OK: false, Mode: "unreachable", Error: err.Error()}
	}
	return componentStatus{OK: true, Mode: "mirroring"}
}
