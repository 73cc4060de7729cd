package collaboration

import (
	"context"
	"log"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/Dineshmedisetty/collaborative-canvas/internal/middleware"
	"github.com/Dineshmedisetty/collaborative-canvas/internal/registry"
	"go.opentelemetry.io/otel/attribute"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// TODO: validate origin once a deployment origin is known
		return true
	},
}

// WebSocketHandler upgrades connections into canvas sessions. The
// connection itself is room-agnostic; binding happens through the join
// message.
type WebSocketHandler struct {
	manager *SessionManager
	rooms   *registry.Registry
}

// NewWebSocketHandler creates a new WebSocket handler
func NewWebSocketHandler(manager *SessionManager, rooms *registry.Registry) *WebSocketHandler {
	return &WebSocketHandler{manager: manager, rooms: rooms}
}

// HandleCanvasConnection upgrades the HTTP request and starts the
// session's pumps. Reconnecting clients may present their previous
// user id; everyone else gets a fresh one.
func (h *WebSocketHandler) HandleCanvasConnection(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		userID = uuid.New().String()
	}

	ctx, span := middleware.StartSpan(ctx, "WebSocket.Connect",
		attribute.String("user.id", userID),
	)
	defer span.End()

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("Failed to upgrade WebSocket: %v", err)
		middleware.AddSpanError(ctx, err)
		return
	}

	session := NewSession(userID, conn, h.manager)
	dispatcher := NewDispatcher(session, h.manager, h.rooms)

	// The request context dies when this handler returns, but the
	// session outlives it; keep the trace parent, drop cancelation so
	// hydration and eviction saves aren't cut short.
	go session.WritePump()
	go session.ReadPump(context.WithoutCancel(ctx), dispatcher)

	log.Printf("✓ WebSocket connection established (session: %s, user: %s)", session.ID, userID)
}
