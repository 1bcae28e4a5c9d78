package handlers

import (
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/MrSnakeDoc/beacon/internal/httpserver/deps"
	"github.com/MrSnakeDoc/beacon/internal/hub"
	"github.com/MrSnakeDoc/beacon/internal/logger"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// The live channel is read-only telemetry; origin policy is left to
	// the deployment's reverse proxy.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// WS upgrades the connection and hands it to the hub. The hub queues the
// snapshot frames before the client joins the live broadcast set.
func WS(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			d.Logger.Warn("websocket upgrade failed", logger.Error(err))
			return
		}

		client := hub.NewClient(d.Hub, conn, d.Logger)
		d.Hub.Register(client)
		client.Start()
	}
}
