package api

import (
	"context"

	"github.com/Dineshmedisetty/collaborative-canvas/internal/canvas"
	"github.com/Dineshmedisetty/collaborative-canvas/internal/models"
)

// Consumer-driven interfaces: the handlers declare exactly what they
// need from the registry and the persistence layer, nothing more.

// RoomDirectory is the view of the live room registry used by the
// inspection endpoints.
type RoomDirectory interface {
	Get(roomID string) (*canvas.Room, bool)
	Rooms() []*canvas.Room
}

// SnapshotLoader reads persisted room records for rooms that are not
// currently live.
type SnapshotLoader interface {
	Load(ctx context.Context, roomID string) (*models.RoomRecord, error)
}
