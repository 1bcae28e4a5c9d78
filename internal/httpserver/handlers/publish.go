package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/MrSnakeDoc/beacon/internal/bus"
	"github.com/MrSnakeDoc/beacon/internal/httpserver/deps"
	"github.com/MrSnakeDoc/beacon/internal/logger"
)

type publishRequest struct {
	Topic   string          `json:"topic"`
	Message json.RawMessage `json:"message"`
}

type publishResponse struct {
	Status string `json:"status"`
	Topic  string `json:"topic,omitempty"`
	Error  string `json:"error,omitempty"`
}

// Publish forwards one message to the bus. Fails fast with 503 while the
// broker link is down; the proxy never queues on the caller's behalf.
func Publish(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		var req publishRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writePublishError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		if req.Topic == "" || len(req.Message) == 0 {
			writePublishError(w, http.StatusBadRequest, "topic and message are required")
			return
		}

		if d.Bus == nil || !d.Bus.IsConnected() {
			writePublishError(w, http.StatusServiceUnavailable, "bus connection unavailable")
			return
		}

		if err := d.Bus.Publish(req.Topic, payloadBytes(req.Message)); err != nil {
			status := http.StatusBadGateway
			if errors.Is(err, bus.ErrNotConnected) {
				status = http.StatusServiceUnavailable
			}
			d.Logger.Warn("publish to bus failed",
				logger.String("topic", req.Topic),
				logger.Error(err))
			writePublishError(w, status, "publish failed")
			return
		}

		_ = json.NewEncoder(w).Encode(publishResponse{
			Status: "published",
			Topic:  req.Topic,
		})
	}
}

// payloadBytes unwraps JSON strings so `{"message": "on"}` publishes the
// bare text `on`, matching what bus peers expect; structured messages go
// out as their JSON serialization.
func payloadBytes(raw json.RawMessage) []byte {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return []byte(s)
	}
	return raw
}

func writePublishError(w http.ResponseWriter, status int, msg string) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(publishResponse{
		Status: "error",
		Error:  msg,
	})
}
