// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"net/http"

	"github.com/gorilla/websocket"
)

// WSHandler upgrades live observer connections and hands them to the hub.
type WSHandler struct {
	deps     Dependencies
	upgrader websocket.Upgrader
}

// NewWSHandler creates a new websocket handler.
func NewWSHandler(deps Dependencies) *WSHandler {
	return &WSHandler{
		deps: deps,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Dashboards are served from arbitrary origins.
			CheckOrigin: func(_ *http.Request) bool { return true },
		},
	}
}

// HandleWS handles GET /ws requests. The connection receives every
// accepted record as a JSON text message until the client disconnects.
func (h *WSHandler) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error response.
		return
	}

	sub := h.deps.Subscribe(conn)
	defer h.deps.Unsubscribe(sub)

	// Inbound frames are ignored; the read loop only detects closure.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
