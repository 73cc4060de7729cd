package models

import (
	"time"

	"github.com/segmentio/ksuid"
)

// OperationKind classifies a committed history entry. Only draw exists
// today; the type is open so future kinds (image insert, etc.) don't
// break the log contract.
type OperationKind string

const (
	OpDraw OperationKind = "draw"
)

// Operation is one committed, immutable unit of drawing history.
// The KSUID id is time-ordered, so sorting by id matches commit order.
type Operation struct {
	ID       string        `json:"id"`
	Kind     OperationKind `json:"kind"`
	Stroke   *Stroke       `json:"stroke"`
	AuthorID string        `json:"authorId"`

	// SequenceTimestamp is assigned by the server at commit time
	// (arrival order), never taken from the client.
	SequenceTimestamp int64 `json:"ts"`
}

// NewDrawOperation wraps a committed stroke as a history entry.
func NewDrawOperation(stroke *Stroke, authorID string) *Operation {
	return &Operation{
		ID:                ksuid.New().String(),
		Kind:              OpDraw,
		Stroke:            stroke,
		AuthorID:          authorID,
		SequenceTimestamp: time.Now().UnixMilli(),
	}
}
