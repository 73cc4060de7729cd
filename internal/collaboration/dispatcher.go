package collaboration

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/Dineshmedisetty/collaborative-canvas/internal/canvas"
	"github.com/Dineshmedisetty/collaborative-canvas/internal/models"
	"github.com/Dineshmedisetty/collaborative-canvas/internal/registry"
)

// sessionState tracks where a connection is in its lifecycle.
type sessionState int

const (
	stateUnbound sessionState = iota
	stateJoined
	stateTerminated
)

// Dispatcher is the per-connection state machine: it decides which
// room messages are legal given join status and routes them into the
// owning room. Every failure here is local and advisory; nothing a
// client sends can take the server down.
//
// All methods run on the session's read goroutine, so no locking is
// needed for the dispatcher's own state.
type Dispatcher struct {
	session *Session
	manager *SessionManager
	rooms   *registry.Registry

	state sessionState
	room  *canvas.Room
}

// NewDispatcher creates a dispatcher in the unbound state.
func NewDispatcher(session *Session, manager *SessionManager, rooms *registry.Registry) *Dispatcher {
	return &Dispatcher{
		session: session,
		manager: manager,
		rooms:   rooms,
		state:   stateUnbound,
	}
}

// HandleMessage parses one inbound frame and routes it. Messages
// received before join are rejected with an advisory notice, never an
// error.
func (d *Dispatcher) HandleMessage(ctx context.Context, raw []byte) {
	if d.state == stateTerminated {
		return
	}

	var msg models.ClientMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		d.notify("malformed message ignored")
		return
	}

	if msg.Type == models.MessageJoin {
		d.handleJoin(ctx, msg.RoomID)
		return
	}

	// Everything else is only legal once joined, and only for the
	// room this connection is bound to.
	if d.state != stateJoined {
		d.notify("join a room first")
		return
	}
	if msg.RoomID != "" && msg.RoomID != d.session.RoomID {
		d.notify("message addressed to a room you have not joined")
		return
	}

	switch msg.Type {
	case models.MessageStrokeStart:
		d.handleStrokeStart(&msg)
	case models.MessageStrokeDraw:
		d.handleStrokeDraw(&msg)
	case models.MessageStrokeEnd:
		d.handleStrokeEnd(&msg)
	case models.MessageCursorMove:
		d.handleCursorMove(&msg)
	case models.MessageUndo:
		d.handleUndo()
	case models.MessageRedo:
		d.handleRedo()
	case models.MessageClear:
		d.handleClear()
	default:
		d.notify("unknown message type")
	}
}

// handleJoin binds the connection to a room. A connection is joined to
// at most one room; re-joining leaves the prior room first with the
// same semantics as a disconnect, minus the connection teardown.
func (d *Dispatcher) handleJoin(ctx context.Context, roomID string) {
	if roomID == "" {
		d.notify("join requires a room id")
		return
	}
	if d.state == stateJoined {
		if roomID == d.session.RoomID {
			return
		}
		d.leaveRoom(ctx)
	}

	// Join goes through the registry so the membership add can never
	// race an eviction of the same room.
	room, member := d.rooms.Join(ctx, roomID, d.session.UserID)

	d.room = room
	d.state = stateJoined
	d.session.RoomID = roomID
	d.session.Member = member

	d.manager.Register(d.session, roomID)

	// Initial snapshot goes to the joining connection only.
	d.manager.SendTo(d.session, encode(&models.InitMessage{
		Type:           models.MessageInit,
		AssignedUserID: member.UserID,
		AssignedColor:  member.Color,
	}))
	visible, cursor := room.Snapshot()
	d.manager.SendTo(d.session, encode(&models.CanvasStateMessage{
		Type:              models.MessageCanvasState,
		VisibleOperations: visible,
		Cursor:            cursor,
	}))

	// Membership changes are authoritative: everyone, joiner included.
	d.manager.Broadcast(roomID, encode(&models.MembershipMessage{
		Type:   models.MessageMemberJoined,
		UserID: member.UserID,
		Color:  member.Color,
	}), nil)
	d.broadcastRoster()
}

func (d *Dispatcher) handleStrokeStart(msg *models.ClientMessage) {
	if msg.Stroke == nil {
		return
	}
	d.room.BeginStroke(d.session.UserID, msg.Stroke)

	// The author already rendered its own stroke via local
	// prediction; a loopback would be redundant.
	d.manager.Broadcast(d.session.RoomID, encode(&models.StrokeMessage{
		Type:     models.MessageStroke,
		Phase:    models.PhaseStart,
		Stroke:   msg.Stroke,
		AuthorID: d.session.UserID,
	}), d.session)
}

func (d *Dispatcher) handleStrokeDraw(msg *models.ClientMessage) {
	// A draw frame with no staged stroke is silently dropped:
	// out-of-order or duplicate messages are not errors.
	if !d.room.ExtendStroke(d.session.UserID, msg.NewPoints, msg.EndPos) {
		return
	}

	d.manager.Broadcast(d.session.RoomID, encode(&models.StrokeMessage{
		Type:      models.MessageStroke,
		Phase:     models.PhaseDraw,
		NewPoints: msg.NewPoints,
		EndPos:    msg.EndPos,
		AuthorID:  d.session.UserID,
	}), d.session)
}

// handleStrokeEnd runs the commit path: stage commit → operation →
// log append → stroke-end to the others, then the authoritative
// canvas state to everyone including the sender. The double message is
// intentional: it lets late joiners and the author converge on exactly
// the array/cursor pair the server holds.
func (d *Dispatcher) handleStrokeEnd(msg *models.ClientMessage) {
	op, ok := d.room.CommitStroke(d.session.UserID, msg.Stroke)
	if !ok {
		return
	}

	d.manager.Broadcast(d.session.RoomID, encode(&models.StrokeMessage{
		Type:     models.MessageStroke,
		Phase:    models.PhaseEnd,
		Stroke:   op.Stroke,
		AuthorID: d.session.UserID,
	}), d.session)

	visible, cursor := d.room.Snapshot()
	d.manager.Broadcast(d.session.RoomID, encode(&models.CanvasStateMessage{
		Type:              models.MessageCanvasState,
		VisibleOperations: visible,
		Cursor:            cursor,
	}), nil)
}

func (d *Dispatcher) handleCursorMove(msg *models.ClientMessage) {
	if msg.Position == nil {
		return
	}
	color := ""
	if d.session.Member != nil {
		color = d.session.Member.Color
	}

	d.manager.Broadcast(d.session.RoomID, encode(&models.CursorMessage{
		Type:     models.MessageCursor,
		AuthorID: d.session.UserID,
		Position: *msg.Position,
		Color:    color,
	}), d.session)
}

func (d *Dispatcher) handleUndo() {
	ok, all, cursor := d.room.Undo()
	if !ok {
		d.notify("nothing to undo")
		return
	}
	d.broadcastOperation(models.OpUndo, all, cursor)
}

func (d *Dispatcher) handleRedo() {
	ok, all, cursor := d.room.Redo()
	if !ok {
		d.notify("nothing to redo")
		return
	}
	d.broadcastOperation(models.OpRedo, all, cursor)
}

func (d *Dispatcher) handleClear() {
	d.room.Clear()
	d.broadcastOperation(models.OpClear, []*models.Operation{}, -1)
}

// Disconnect finishes the state machine. Any active stroke the author
// had staged is discarded — a disconnect never commits.
func (d *Dispatcher) Disconnect(ctx context.Context) {
	if d.state == stateTerminated {
		return
	}
	if d.state == stateJoined {
		d.leaveRoom(ctx)
	}
	d.state = stateTerminated
}

// leaveRoom removes this connection, tells the rest of the room when
// the member is actually gone, and checks for eviction. Shared by
// disconnect and re-join.
func (d *Dispatcher) leaveRoom(ctx context.Context) {
	roomID := d.session.RoomID

	removed := d.room.Leave(d.session.UserID)
	d.manager.Unregister(d.session, roomID)

	// Another connection with the same user id may still hold the
	// roster entry; the departure is only announced for the last one.
	if removed {
		d.manager.Broadcast(roomID, encode(&models.MembershipMessage{
			Type:   models.MessageMemberLeft,
			UserID: d.session.UserID,
		}), nil)
		d.manager.Broadcast(roomID, encode(&models.OnlineUsersMessage{
			Type:    models.MessageOnlineUsers,
			Members: d.room.Members(),
		}), nil)
	}

	d.rooms.EvictIfEmpty(ctx, roomID)

	d.room = nil
	d.state = stateUnbound
	d.session.RoomID = ""
	d.session.Member = nil
}

func (d *Dispatcher) broadcastOperation(kind models.OperationKind, all []*models.Operation, cursor int) {
	d.manager.Broadcast(d.session.RoomID, encode(&models.OperationMessage{
		Type:          models.MessageOperation,
		Kind:          kind,
		AllOperations: all,
		Cursor:        cursor,
		AuthorID:      d.session.UserID,
		Timestamp:     time.Now().UnixMilli(),
	}), nil)
}

func (d *Dispatcher) broadcastRoster() {
	d.manager.Broadcast(d.session.RoomID, encode(&models.OnlineUsersMessage{
		Type:    models.MessageOnlineUsers,
		Members: d.room.Members(),
	}), nil)
}

func (d *Dispatcher) notify(text string) {
	d.manager.SendTo(d.session, encode(&models.NoticeMessage{
		Type: models.MessageNotice,
		Text: text,
	}))
}

// encode marshals an outbound frame. A marshal failure only loses that
// one frame.
func encode(v interface{}) []byte {
	payload, err := json.Marshal(v)
	if err != nil {
		log.Printf("⚠️  Failed to encode outbound message: %v", err)
		return nil
	}
	return payload
}
