package models

import "time"

// Member is one user currently present in a room. Members are
// ephemeral: created on join, removed on leave/disconnect, never
// persisted.
type Member struct {
	UserID   string    `json:"userId"`
	Color    string    `json:"color"`
	JoinedAt time.Time `json:"joinedAt"`
}
