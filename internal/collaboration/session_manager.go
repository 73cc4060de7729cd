package collaboration

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel/attribute"

	"github.com/Dineshmedisetty/collaborative-canvas/internal/middleware"
	"github.com/Dineshmedisetty/collaborative-canvas/internal/models"
	"github.com/segmentio/ksuid"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingInterval   = 54 * time.Second
	sendBufferSize = 256
)

// SessionManager is the broadcaster: it tracks which connections are
// registered to which room and fans outbound frames to them. Stroke
// lifecycle and cursor frames exclude the sender (the author already
// rendered locally); authoritative frames go to everyone, sender
// included, so every client converges on the same corrected state.
type SessionManager struct {
	mu    sync.RWMutex
	rooms map[string]map[*Session]bool

	broadcast chan *BroadcastMessage

	// Optional cross-instance relay; nil when Redis is not configured.
	relay *RedisRelay

	done     chan struct{}
	stopOnce sync.Once
}

// Session is one live WebSocket connection. A connection is bound to
// at most one room at a time; RoomID is empty until the join message
// arrives.
type Session struct {
	ID      string
	UserID  string
	Conn    *websocket.Conn
	Manager *SessionManager

	RoomID string
	Member *models.Member

	ConnectedAt  time.Time
	LastActiveAt time.Time

	send      chan []byte
	closed    chan struct{}
	closeOnce sync.Once
}

// BroadcastMessage is one frame bound for a room's connections.
type BroadcastMessage struct {
	RoomID  string
	Payload []byte
	Exclude *Session // skip this session; nil broadcasts to everyone

	// remote frames arrived through the relay and are never
	// republished, so two instances can't echo each other forever.
	remote bool
}

// NewSessionManager creates a manager. relay may be nil.
func NewSessionManager(relay *RedisRelay) *SessionManager {
	return &SessionManager{
		rooms:     make(map[string]map[*Session]bool),
		broadcast: make(chan *BroadcastMessage, 256),
		relay:     relay,
		done:      make(chan struct{}),
	}
}

// NewSession wraps an upgraded connection.
func NewSession(userID string, conn *websocket.Conn, manager *SessionManager) *Session {
	now := time.Now()
	return &Session{
		ID:           ksuid.New().String(),
		UserID:       userID,
		Conn:         conn,
		Manager:      manager,
		ConnectedAt:  now,
		LastActiveAt: now,
		send:         make(chan []byte, sendBufferSize),
		closed:       make(chan struct{}),
	}
}

// Start begins the broadcast loop and, when configured, the relay
// receive loop.
func (sm *SessionManager) Start() {
	log.Println("🔄 Starting WebSocket session manager...")

	go func() {
		for {
			select {
			case <-sm.done:
				log.Println("Session manager broadcast loop stopped")
				return
			case msg := <-sm.broadcast:
				sm.handleBroadcast(msg)
			}
		}
	}()

	if sm.relay != nil {
		go sm.relay.Listen(func(roomID string, payload []byte) {
			sm.enqueue(&BroadcastMessage{RoomID: roomID, Payload: payload, remote: true})
		})
	}

	log.Println("✓ WebSocket session manager started")
}

// Register binds a session to a room's fan-out set.
func (sm *SessionManager) Register(session *Session, roomID string) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.rooms[roomID] == nil {
		sm.rooms[roomID] = make(map[*Session]bool)
	}
	sm.rooms[roomID][session] = true

	log.Printf("  Session %s joined room %s (total: %d connections)",
		session.ID, roomID, len(sm.rooms[roomID]))
}

// Unregister removes a session from its room's fan-out set. The
// session itself stays usable; re-join binds it to another room.
func (sm *SessionManager) Unregister(session *Session, roomID string) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	sessions, ok := sm.rooms[roomID]
	if !ok {
		return
	}
	if _, ok := sessions[session]; !ok {
		return
	}
	delete(sessions, session)
	if len(sessions) == 0 {
		delete(sm.rooms, roomID)
	}

	log.Printf("  Session %s left room %s (remaining: %d connections)",
		session.ID, roomID, len(sessions))
}

// Broadcast queues a frame for every connection in the room, minus
// exclude. Local frames are also published to the relay.
func (sm *SessionManager) Broadcast(roomID string, payload []byte, exclude *Session) {
	if payload == nil {
		return
	}
	sm.enqueue(&BroadcastMessage{RoomID: roomID, Payload: payload, Exclude: exclude})
}

// SendTo queues a frame for one connection only (init snapshots,
// advisory notices).
func (sm *SessionManager) SendTo(session *Session, payload []byte) {
	if payload == nil {
		return
	}
	if !session.push(payload) {
		log.Printf("⚠️  Session %s buffer full, dropping direct frame", session.ID)
	}
}

// RoomConnectionCount reports the fan-out set size for a room.
func (sm *SessionManager) RoomConnectionCount(roomID string) int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.rooms[roomID])
}

func (sm *SessionManager) enqueue(msg *BroadcastMessage) {
	select {
	case sm.broadcast <- msg:
	case <-sm.done:
	}
}

func (sm *SessionManager) handleBroadcast(msg *BroadcastMessage) {
	sm.mu.RLock()
	targets := make([]*Session, 0, len(sm.rooms[msg.RoomID]))
	for session := range sm.rooms[msg.RoomID] {
		if msg.Exclude != nil && session == msg.Exclude {
			continue
		}
		targets = append(targets, session)
	}
	sm.mu.RUnlock()

	var slow []*Session
	for _, session := range targets {
		if !session.push(msg.Payload) {
			// Buffer full - connection is slow or dead.
			log.Printf("⚠️  Session %s buffer full, closing connection", session.ID)
			slow = append(slow, session)
		}
	}
	for _, session := range slow {
		session.Close()
	}

	if !msg.remote && sm.relay != nil {
		sm.relay.Publish(context.Background(), msg.RoomID, msg.Payload)
	}
}

// Shutdown stops the loops and closes every live connection.
func (sm *SessionManager) Shutdown() {
	log.Println("🛑 Shutting down session manager...")

	sm.stopOnce.Do(func() { close(sm.done) })
	if sm.relay != nil {
		sm.relay.Close()
	}

	sm.mu.Lock()
	defer sm.mu.Unlock()
	for _, sessions := range sm.rooms {
		for session := range sessions {
			session.Close()
		}
	}
	sm.rooms = make(map[string]map[*Session]bool)

	log.Println("✓ Session manager shutdown complete")
}

// Session methods

// push queues a frame without ever blocking. Returns false when the
// session is closed or its buffer is full.
func (s *Session) push(payload []byte) bool {
	select {
	case <-s.closed:
		return false
	default:
	}
	select {
	case s.send <- payload:
		return true
	default:
		return false
	}
}

// Close tears the connection down once. The send channel is never
// closed; WritePump exits through the closed signal instead, so a
// concurrent push can never panic.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		close(s.closed)
		if s.Conn != nil {
			s.Conn.Close()
		}
	})
}

// ReadPump reads frames off the socket and hands them to the
// dispatcher. Each session has its own reading goroutine; the
// dispatcher therefore never needs internal locking.
func (s *Session) ReadPump(ctx context.Context, dispatcher *Dispatcher) {
	defer func() {
		dispatcher.Disconnect(ctx)
		s.Close()
	}()

	s.Conn.SetReadDeadline(time.Now().Add(pongWait))
	s.Conn.SetPongHandler(func(string) error {
		s.Conn.SetReadDeadline(time.Now().Add(pongWait))
		s.LastActiveAt = time.Now()
		return nil
	})

	for {
		_, message, err := s.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			break
		}

		s.LastActiveAt = time.Now()

		msgCtx, span := middleware.StartSpan(ctx, "WebSocket.ProcessMessage",
			attribute.String("session.id", s.ID),
			attribute.String("user.id", s.UserID),
			attribute.Int("message.size", len(message)),
		)
		dispatcher.HandleMessage(msgCtx, message)
		span.End()
	}
}

// WritePump drains the send buffer to the socket and keeps the
// connection alive with pings. One writer goroutine per connection
// prevents blocking on slow clients.
func (s *Session) WritePump() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		s.Close()
	}()

	for {
		select {
		case <-s.closed:
			s.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			s.Conn.WriteMessage(websocket.CloseMessage, []byte{})
			return

		case message := <-s.send:
			s.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			s.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
