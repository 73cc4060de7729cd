package api

import (
	"net/http"
)

// WebSocket endpoints

// HandleCanvasWebSocket upgrades a connection for room collaboration.
func (h *Handler) HandleCanvasWebSocket(w http.ResponseWriter, r *http.Request) {
	h.wsHandler.HandleCanvasConnection(w, r)
}
