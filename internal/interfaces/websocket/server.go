package websocket

import (
	"net/http"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The browser UI is served from a different origin than the API in
	// every deployment; authentication happens before the upgrade.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Handler returns the HTTP handler that upgrades an authenticated request
// into a hub subscription. memberIDFromRequest extracts the caller's
// identity the same way the REST middleware does.
func Handler(hub *Hub, sendBuffer int, memberIDFromRequest func(*http.Request) string, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		memberID := memberIDFromRequest(r)
		if memberID == "" {
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Warn("websocket upgrade failed", zap.Error(err))
			return
		}

		client := newClient(hub, conn, memberID, sendBuffer, logger)
		hub.register <- client

		go client.writePump()
		go client.readPump()
	}
}
