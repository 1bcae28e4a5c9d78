package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/beacon/internal/httpserver/deps"
	"github.com/MrSnakeDoc/beacon/internal/httpserver/handlers"
)

func init() { Register(registerMessages) }

func registerMessages(r chi.Router, d deps.Deps) {
	r.Get("/api/messages", handlers.Messages(d))
	r.Get("/api/ws", handlers.WS(d))
}
