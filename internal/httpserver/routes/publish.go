package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/beacon/internal/httpserver/deps"
	"github.com/MrSnakeDoc/beacon/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/beacon/internal/httpserver/mw"
)

func init() { Register(registerPublish) }

func registerPublish(r chi.Router, d deps.Deps) {
	r.With(mw.RateLimit(mw.RateLimitConfig{
		Burst:             d.PublishBurst,
		RefillPerIPPerMin: d.PublishRefillPerMin,
		MaxEntries:        1024,
		TrustProxy:        d.TrustProxy,
	})).Post("/api/publish", handlers.Publish(d))

	r.Post("/api/reload", handlers.Reload(d))
}
