package api

import (
	"github.com/gorilla/mux"

	"github.com/Dineshmedisetty/collaborative-canvas/internal/middleware"
)

func SetupRoutes(h *Handler) *mux.Router {
	r := mux.NewRouter()

	// Middleware runs in order: tracing first, then recovery, then CORS
	r.Use(middleware.TracingMiddleware)
	r.Use(middleware.ErrorRecoveryMiddleware)
	r.Use(middleware.CORSMiddleware)

	// Read-only inspection API
	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/rooms", h.ListRooms).Methods("GET")
	api.HandleFunc("/rooms/{id}", h.GetRoom).Methods("GET")
	api.HandleFunc("/health", h.Health).Methods("GET")

	// WebSocket route; room binding happens via the join message
	r.HandleFunc("/ws", h.HandleCanvasWebSocket)

	return r
}
