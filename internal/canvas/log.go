package canvas

import (
	"github.com/Dineshmedisetty/collaborative-canvas/internal/models"
)

// DefaultMaxHistory bounds the operation log of a room. Oldest entries
// are trimmed once the bound is exceeded.
const DefaultMaxHistory = 1000

// OperationLog is the ordered drawing history of one room plus the
// undo/redo cursor. operations[0..cursor] is the visible history;
// anything past the cursor is forward (redo) history. Pure data
// structure: no locks, no I/O, nothing here blocks. Callers serialize
// access through the owning Room.
//
// Invariant: -1 <= cursor <= len(operations)-1.
type OperationLog struct {
	ops        []*models.Operation
	cursor     int
	maxHistory int
}

// NewOperationLog creates an empty log. maxHistory <= 0 selects
// DefaultMaxHistory.
func NewOperationLog(maxHistory int) *OperationLog {
	if maxHistory <= 0 {
		maxHistory = DefaultMaxHistory
	}
	return &OperationLog{cursor: -1, maxHistory: maxHistory}
}

// Append commits op at the cursor. Any forward history past the cursor
// is destroyed first; branching history is never supported. If the log
// then exceeds maxHistory the oldest entries are dropped and the
// cursor decremented by the trimmed count, so it keeps tracking the
// same logical operation.
func (l *OperationLog) Append(op *models.Operation) {
	if l.cursor < len(l.ops)-1 {
		l.ops = l.ops[:l.cursor+1]
	}

	l.ops = append(l.ops, op)
	l.cursor = len(l.ops) - 1

	if excess := len(l.ops) - l.maxHistory; excess > 0 {
		trimmed := make([]*models.Operation, len(l.ops)-excess)
		copy(trimmed, l.ops[excess:])
		l.ops = trimmed
		l.cursor -= excess
	}
}

// Undo steps the cursor back. Returns false (state unchanged) when
// there is nothing to undo.
func (l *OperationLog) Undo() bool {
	if l.cursor < 0 {
		return false
	}
	l.cursor--
	return true
}

// Redo steps the cursor forward into retained history. Returns false
// (state unchanged) when there is nothing to redo.
func (l *OperationLog) Redo() bool {
	if l.cursor >= len(l.ops)-1 {
		return false
	}
	l.cursor++
	return true
}

// Clear drops the entire history and resets the cursor.
func (l *OperationLog) Clear() {
	l.ops = nil
	l.cursor = -1
}

// Visible returns a copy of operations[0..cursor] — the only slice
// clients should ever render.
func (l *OperationLog) Visible() []*models.Operation {
	out := make([]*models.Operation, l.cursor+1)
	copy(out, l.ops[:l.cursor+1])
	return out
}

// All returns a copy of the full sequence including the undone tail,
// for full-state transmission supporting subsequent redo.
func (l *OperationLog) All() []*models.Operation {
	out := make([]*models.Operation, len(l.ops))
	copy(out, l.ops)
	return out
}

// Cursor returns the current undo/redo cursor.
func (l *OperationLog) Cursor() int {
	return l.cursor
}

// Len returns the total number of retained operations.
func (l *OperationLog) Len() int {
	return len(l.ops)
}

// Restore replaces the log contents from a persisted snapshot. The
// cursor is clamped into the invariant range in case the stored record
// predates a maxHistory change.
func (l *OperationLog) Restore(ops []*models.Operation, cursor int) {
	if excess := len(ops) - l.maxHistory; excess > 0 {
		ops = ops[excess:]
		cursor -= excess
	}
	l.ops = make([]*models.Operation, len(ops))
	copy(l.ops, ops)

	if cursor < -1 {
		cursor = -1
	}
	if cursor > len(l.ops)-1 {
		cursor = len(l.ops) - 1
	}
	l.cursor = cursor
}
