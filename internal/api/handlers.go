package api

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/Dineshmedisetty/collaborative-canvas/internal/collaboration"
	"github.com/Dineshmedisetty/collaborative-canvas/internal/models"
)

// Handler serves the read-only REST surface: room inspection and
// health. All mutation happens over the WebSocket.
type Handler struct {
	directory RoomDirectory
	snapshots SnapshotLoader
	wsHandler *collaboration.WebSocketHandler
	manager   *collaboration.SessionManager
}

func NewHandler(
	directory RoomDirectory,
	snapshots SnapshotLoader,
	wsHandler *collaboration.WebSocketHandler,
	manager *collaboration.SessionManager,
) *Handler {
	return &Handler{
		directory: directory,
		snapshots: snapshots,
		wsHandler: wsHandler,
		manager:   manager,
	}
}

// roomSummary is the list-endpoint projection of a live room.
type roomSummary struct {
	RoomID      string `json:"roomId"`
	Members     int    `json:"members"`
	Connections int    `json:"connections"`
	Operations  int    `json:"operations"`
	Cursor      int    `json:"cursor"`
}

// roomDetail is the single-room projection: the visible history plus
// cursor, and whether it came from a live room or a persisted record.
type roomDetail struct {
	RoomID            string              `json:"roomId"`
	Live              bool                `json:"live"`
	Members           []*models.Member    `json:"members,omitempty"`
	VisibleOperations []*models.Operation `json:"visibleOperations"`
	Cursor            int                 `json:"cursor"`
}

// ListRooms returns every live room with membership and history
// counts.
func (h *Handler) ListRooms(w http.ResponseWriter, r *http.Request) {
	rooms := h.directory.Rooms()

	summaries := make([]roomSummary, 0, len(rooms))
	for _, room := range rooms {
		all, cursor := room.History()
		summaries = append(summaries, roomSummary{
			RoomID:      room.ID,
			Members:     room.MemberCount(),
			Connections: h.manager.RoomConnectionCount(room.ID),
			Operations:  len(all),
			Cursor:      cursor,
		})
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"rooms": summaries,
		"count": len(summaries),
	})
}

// GetRoom returns a room's visible history. Live rooms are read
// directly; otherwise the persisted snapshot is consulted.
func (h *Handler) GetRoom(w http.ResponseWriter, r *http.Request) {
	roomID := mux.Vars(r)["id"]

	if room, ok := h.directory.Get(roomID); ok {
		visible, cursor := room.Snapshot()
		writeJSON(w, http.StatusOK, roomDetail{
			RoomID:            roomID,
			Live:              true,
			Members:           room.Members(),
			VisibleOperations: visible,
			Cursor:            cursor,
		})
		return
	}

	record, err := h.snapshots.Load(r.Context(), roomID)
	if err != nil {
		http.Error(w, "failed to load room", http.StatusInternalServerError)
		return
	}
	if record == nil {
		http.Error(w, "room not found", http.StatusNotFound)
		return
	}

	visible := record.Operations
	if record.Cursor+1 < len(visible) {
		visible = visible[:record.Cursor+1]
	}
	writeJSON(w, http.StatusOK, roomDetail{
		RoomID:            roomID,
		Live:              false,
		VisibleOperations: visible,
		Cursor:            record.Cursor,
	})
}

// Health reports liveness.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
