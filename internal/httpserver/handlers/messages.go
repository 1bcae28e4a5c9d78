package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/MrSnakeDoc/beacon/internal/domain"
	"github.com/MrSnakeDoc/beacon/internal/httpserver/deps"
)

const defaultMessageLimit = 100

type messagesResponse struct {
	Messages []domain.StoredEvent `json:"messages"`
}

// Messages serves the recent message window, newest-last. Optional query
// params: limit, topic (exact topic filter), q (case-insensitive search).
func Messages(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := defaultMessageLimit
		if v := r.URL.Query().Get("limit"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 {
				limit = n
			}
		}

		var events []domain.StoredEvent
		switch {
		case r.URL.Query().Get("q") != "":
			events = d.Store.Search(r.URL.Query().Get("q"), limit)
		case r.URL.Query().Get("topic") != "":
			events = d.Store.ByTopic(r.URL.Query().Get("topic"), limit)
		default:
			events = d.Store.Recent(limit)
		}

		if events == nil {
			events = []domain.StoredEvent{}
		}

		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-store")
		_ = json.NewEncoder(w).Encode(messagesResponse{Messages: events})
	}
}
