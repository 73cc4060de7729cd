package models

// MessageType tags every frame exchanged over the room WebSocket.
type MessageType string

const (
	// Client → server
	MessageJoin        MessageType = "join"
	MessageStrokeStart MessageType = "strokeStart"
	MessageStrokeDraw  MessageType = "strokeDraw"
	MessageStrokeEnd   MessageType = "strokeEnd"
	MessageCursorMove  MessageType = "cursorMove"
	MessageUndo        MessageType = "undo"
	MessageRedo        MessageType = "redo"
	MessageClear       MessageType = "clear"

	// Server → client
	MessageInit         MessageType = "init"
	MessageCanvasState  MessageType = "canvasState"
	MessageStroke       MessageType = "stroke"
	MessageCursor       MessageType = "cursor"
	MessageOperation    MessageType = "operation"
	MessageMemberJoined MessageType = "memberJoined"
	MessageMemberLeft   MessageType = "memberLeft"
	MessageOnlineUsers  MessageType = "onlineUsers"
	MessageNotice       MessageType = "notice"
)

// StrokePhase distinguishes the three stroke lifecycle frames relayed
// to other room members.
type StrokePhase string

const (
	PhaseStart StrokePhase = "start"
	PhaseDraw  StrokePhase = "draw"
	PhaseEnd   StrokePhase = "end"
)

// ClientMessage is the inbound envelope. One struct covers the whole
// client catalog; which fields are set depends on Type.
type ClientMessage struct {
	Type      MessageType `json:"type"`
	RoomID    string      `json:"roomId,omitempty"`
	Stroke    *Stroke     `json:"stroke,omitempty"`
	NewPoints []Point     `json:"newPoints,omitempty"`
	EndPos    *Point      `json:"endPos,omitempty"`
	Position  *Point      `json:"position,omitempty"`
	AuthorID  string      `json:"authorId,omitempty"`
	Timestamp int64       `json:"ts,omitempty"`
}

// InitMessage is sent once to a joining connection only.
type InitMessage struct {
	Type           MessageType `json:"type"`
	AssignedUserID string      `json:"assignedUserId"`
	AssignedColor  string      `json:"assignedColor"`
}

// CanvasStateMessage carries the authoritative visible history. Sent to
// a joiner on join and to every member (sender included) after a
// commit, so all clients converge on the exact array/cursor pair the
// server holds.
type CanvasStateMessage struct {
	Type              MessageType  `json:"type"`
	VisibleOperations []*Operation `json:"visibleOperations"`
	Cursor            int          `json:"cursor"`
}

// StrokeMessage relays a live stroke phase to everyone except the
// author, who already rendered it locally.
type StrokeMessage struct {
	Type      MessageType `json:"type"`
	Phase     StrokePhase `json:"phase"`
	Stroke    *Stroke     `json:"stroke,omitempty"`
	NewPoints []Point     `json:"newPoints,omitempty"`
	EndPos    *Point      `json:"endPos,omitempty"`
	AuthorID  string      `json:"authorId"`
}

// CursorMessage relays a member's pointer position to the rest of the
// room.
type CursorMessage struct {
	Type     MessageType `json:"type"`
	AuthorID string      `json:"authorId"`
	Position Point       `json:"position"`
	Color    string      `json:"color"`
}

// OperationMessage announces a history cursor movement (undo/redo) or
// a clear. The full operations array is resent each time so a client
// can never be desynchronized between which operations exist and which
// are visible.
type OperationMessage struct {
	Type          MessageType   `json:"type"`
	Kind          OperationKind `json:"kind"`
	AllOperations []*Operation  `json:"allOperations"`
	Cursor        int           `json:"cursor"`
	AuthorID      string        `json:"authorId"`
	Timestamp     int64         `json:"ts"`
}

// History cursor movements reuse OperationKind values beyond draw.
const (
	OpUndo  OperationKind = "undo"
	OpRedo  OperationKind = "redo"
	OpClear OperationKind = "clear"
)

// MembershipMessage announces a member joining or leaving.
type MembershipMessage struct {
	Type   MessageType `json:"type"`
	UserID string      `json:"userId"`
	Color  string      `json:"color,omitempty"`
}

// OnlineUsersMessage carries the full roster after any membership
// change.
type OnlineUsersMessage struct {
	Type    MessageType `json:"type"`
	Members []*Member   `json:"members"`
}

// NoticeMessage is an advisory rejection ("nothing to undo") or
// protocol warning. Never fatal.
type NoticeMessage struct {
	Type MessageType `json:"type"`
	Text string      `json:"text"`
}
