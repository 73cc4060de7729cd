package models

import "time"

// RoomSnapshot is the durable record for one room: the serialized
// operation log plus the undo cursor. One row per room, overwritten on
// every save.
type RoomSnapshot struct {
	RoomID     string    `gorm:"type:varchar(64);primaryKey" json:"room_id"`
	Operations []byte    `gorm:"type:jsonb;not null" json:"-"`
	Cursor     int       `gorm:"not null" json:"cursor"`
	SavedAt    time.Time `gorm:"not null" json:"saved_at"`
}

// TableName override
func (RoomSnapshot) TableName() string {
	return "room_snapshots"
}

// RoomRecord is the decoded form handed across the persistence
// gateway boundary. Absence of a record is not an error; rooms start
// empty.
type RoomRecord struct {
	RoomID     string       `json:"roomId"`
	Operations []*Operation `json:"operations"`
	Cursor     int          `json:"cursor"`
	SavedAt    time.Time    `json:"savedAt"`
}
