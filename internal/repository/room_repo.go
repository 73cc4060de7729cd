package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Dineshmedisetty/collaborative-canvas/internal/models"
)

// RoomSnapshotRepositoryImpl stores one durable record per room: the
// serialized operation log plus the undo cursor. This is the concrete
// persistence gateway; the registry declares the interface it consumes.
type RoomSnapshotRepositoryImpl struct {
	db *gorm.DB
}

// NewRoomSnapshotRepository creates a new snapshot repository.
// Returns concrete type - "Accept interfaces, return structs"
func NewRoomSnapshotRepository(db *gorm.DB) *RoomSnapshotRepositoryImpl {
	return &RoomSnapshotRepositoryImpl{db: db}
}

// Load fetches the persisted record for a room. Absence of a record is
// not an error — rooms start empty — so both return values are nil.
func (r *RoomSnapshotRepositoryImpl) Load(ctx context.Context, roomID string) (*models.RoomRecord, error) {
	var snap models.RoomSnapshot

	err := r.db.WithContext(ctx).First(&snap, "room_id = ?", roomID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load room snapshot: %w", err)
	}

	var ops []*models.Operation
	if len(snap.Operations) > 0 {
		if err := json.Unmarshal(snap.Operations, &ops); err != nil {
			return nil, fmt.Errorf("failed to decode room snapshot: %w", err)
		}
	}

	return &models.RoomRecord{
		RoomID:     snap.RoomID,
		Operations: ops,
		Cursor:     snap.Cursor,
		SavedAt:    snap.SavedAt,
	}, nil
}

// Save overwrites the room's record with the full operation log and
// cursor.
func (r *RoomSnapshotRepositoryImpl) Save(ctx context.Context, roomID string, ops []*models.Operation, cursor int) error {
	payload, err := json.Marshal(ops)
	if err != nil {
		return fmt.Errorf("failed to encode room snapshot: %w", err)
	}

	snap := models.RoomSnapshot{
		RoomID:     roomID,
		Operations: payload,
		Cursor:     cursor,
		SavedAt:    time.Now(),
	}

	err = r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "room_id"}},
			UpdateAll: true,
		}).
		Create(&snap).Error
	if err != nil {
		return fmt.Errorf("failed to save room snapshot: %w", err)
	}

	return nil
}

// Delete removes a room's record permanently.
func (r *RoomSnapshotRepositoryImpl) Delete(ctx context.Context, roomID string) error {
	result := r.db.WithContext(ctx).Delete(&models.RoomSnapshot{}, "room_id = ?", roomID)
	if result.Error != nil {
		return fmt.Errorf("failed to delete room snapshot: %w", result.Error)
	}
	return nil
}
