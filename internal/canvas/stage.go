package canvas

import (
	"github.com/Dineshmedisetty/collaborative-canvas/internal/models"
)

// StrokeStage holds each author's in-progress, uncommitted stroke.
// Staged strokes are invisible to history until committed; presence in
// the map is what marks a stroke as in progress. Independent of the
// operation log; the owning Room serializes access.
type StrokeStage struct {
	active map[string]*models.Stroke
}

// NewStrokeStage creates an empty stage.
func NewStrokeStage() *StrokeStage {
	return &StrokeStage{active: make(map[string]*models.Stroke)}
}

// Begin creates or overwrites the author's active stroke. A
// stroke-start always wins over any previous unfinished stroke by the
// same author; the prior one is silently abandoned.
func (st *StrokeStage) Begin(authorID string, stroke *models.Stroke) {
	st.active[authorID] = stroke
}

// AppendPoints extends the author's free-path stroke in place. No-op
// when the author has no active stroke: out-of-order or duplicate
// frames are ignored rather than errored.
func (st *StrokeStage) AppendPoints(authorID string, points []models.Point) bool {
	stroke, ok := st.active[authorID]
	if !ok {
		return false
	}
	stroke.Points = append(stroke.Points, points...)
	return true
}

// Extend moves the end position of the author's shape stroke. No-op
// without an active stroke.
func (st *StrokeStage) Extend(authorID string, end models.Point) bool {
	stroke, ok := st.active[authorID]
	if !ok {
		return false
	}
	stroke.EndPos = &end
	return true
}

// Commit removes and returns the author's active stroke for promotion
// into an Operation. Returns nil when nothing is staged.
func (st *StrokeStage) Commit(authorID string) *models.Stroke {
	stroke, ok := st.active[authorID]
	if !ok {
		return nil
	}
	delete(st.active, authorID)
	return stroke
}

// Discard removes the author's active stroke without promoting it.
// Used on disconnect and on clear.
func (st *StrokeStage) Discard(authorID string) {
	delete(st.active, authorID)
}

// DiscardAll drops every staged stroke.
func (st *StrokeStage) DiscardAll() {
	st.active = make(map[string]*models.Stroke)
}

// Has reports whether the author currently has a staged stroke.
func (st *StrokeStage) Has(authorID string) bool {
	_, ok := st.active[authorID]
	return ok
}

// Len returns the number of staged strokes.
func (st *StrokeStage) Len() int {
	return len(st.active)
}
