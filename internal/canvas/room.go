package canvas

import (
	"sync"
	"time"

	"github.com/Dineshmedisetty/collaborative-canvas/internal/models"
)

// memberPalette is the fixed set of cursor colors handed out
// round-robin as members join.
var memberPalette = []string{
	"#e6194b", "#3cb44b", "#4363d8", "#f58231", "#911eb4",
	"#46f0f0", "#f032e6", "#bcf60c", "#fabebe", "#008080",
}

// Room is one isolated workspace: operation log, per-author stroke
// staging, and the member roster. All mutation is serialized by the
// room's own mutex; different rooms never share state and run fully in
// parallel. Conflict resolution is an explicit policy: server arrival
// order, last write wins.
type Room struct {
	ID string

	mu       sync.Mutex
	log      *OperationLog
	stage    *StrokeStage
	members  map[string]*models.Member
	conns    map[string]int
	colorIdx int
	dirty    bool
	defunct  bool

	hydrateOnce sync.Once

	CreatedAt time.Time
}

// NewRoom creates an empty room. Hydration from a persisted snapshot,
// if any, happens through EnsureHydrated before the first member joins.
func NewRoom(id string, maxHistory int) *Room {
	return &Room{
		ID:        id,
		log:       NewOperationLog(maxHistory),
		stage:     NewStrokeStage(),
		members:   make(map[string]*models.Member),
		conns:     make(map[string]int),
		CreatedAt: time.Now(),
	}
}

// EnsureHydrated runs load exactly once, before any member-visible
// mutation. Later callers block until the first load completes, so a
// join racing the creation can never observe a half-hydrated room.
func (r *Room) EnsureHydrated(load func() (*models.RoomRecord, error)) {
	r.hydrateOnce.Do(func() {
		record, err := load()
		if err != nil || record == nil {
			// Load failure is non-fatal; the room starts empty.
			return
		}
		r.mu.Lock()
		defer r.mu.Unlock()
		r.log.Restore(record.Operations, record.Cursor)
	})
}

// Join adds a connection for the user and assigns the next palette
// color. A second connection with the same user id (a reconnect, or a
// second tab) shares the roster entry and keeps the assigned color.
// Returns false when the room has been retired; the caller must fetch
// a fresh room from the registry.
func (r *Room) Join(userID string) (*models.Member, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.defunct {
		return nil, false
	}

	if m, ok := r.members[userID]; ok {
		r.conns[userID]++
		m.JoinedAt = time.Now()
		return m, true
	}

	m := &models.Member{
		UserID:   userID,
		Color:    memberPalette[r.colorIdx%len(memberPalette)],
		JoinedAt: time.Now(),
	}
	r.colorIdx++
	r.members[userID] = m
	r.conns[userID] = 1
	return m, true
}

// Leave drops one connection for the user. The roster entry survives
// while other connections of the same user remain; the last one out
// removes the member and discards any stroke they had staged — a
// stroke abandoned by a disconnect is never promoted into history.
// Returns true when the roster entry was actually removed.
func (r *Room) Leave(userID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.members[userID]; !ok {
		return false
	}
	if r.conns[userID] > 1 {
		r.conns[userID]--
		return false
	}

	delete(r.conns, userID)
	r.stage.Discard(userID)
	delete(r.members, userID)
	return true
}

// Retire marks an empty room as defunct so no join can land on it
// after the registry drops it. Fails while any member remains. The
// registry calls this inside its removal critical section, making
// removal and a racing Join mutually exclusive.
func (r *Room) Retire() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.members) > 0 {
		return false
	}
	r.defunct = true
	return true
}

// MemberCount returns the current roster size.
func (r *Room) MemberCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.members)
}

// Members returns a copy of the roster.
func (r *Room) Members() []*models.Member {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]*models.Member, 0, len(r.members))
	for _, m := range r.members {
		out = append(out, m)
	}
	return out
}

// Member looks up one roster entry.
func (r *Room) Member(userID string) (*models.Member, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.members[userID]
	return m, ok
}

// BeginStroke stages a new in-progress stroke for the author,
// abandoning any previous unfinished one.
func (r *Room) BeginStroke(authorID string, stroke *models.Stroke) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stroke.AuthorID = authorID
	r.stage.Begin(authorID, stroke)
}

// ExtendStroke applies a strokeDraw delta to the author's staged
// stroke. Returns false (no-op) when nothing is staged — a draw frame
// without a prior start is silently dropped.
func (r *Room) ExtendStroke(authorID string, points []models.Point, end *models.Point) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	applied := false
	if len(points) > 0 {
		applied = r.stage.AppendPoints(authorID, points) || applied
	}
	if end != nil {
		applied = r.stage.Extend(authorID, *end) || applied
	}
	return applied
}

// CommitStroke promotes the author's stroke into the operation log.
// The final snapshot from the strokeEnd frame takes precedence over
// the staged record when present; with neither, the commit is a no-op.
// Appending destroys any forward (redo) history.
func (r *Room) CommitStroke(authorID string, final *models.Stroke) (*models.Operation, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	staged := r.stage.Commit(authorID)
	stroke := final
	if stroke == nil {
		stroke = staged
	}
	if stroke == nil {
		return nil, false
	}

	stroke = stroke.Clone()
	stroke.AuthorID = authorID

	op := models.NewDrawOperation(stroke, authorID)
	r.log.Append(op)
	r.dirty = true
	return op, true
}

// Undo steps the history cursor back. The full operations array and
// new cursor are returned for authoritative fan-out.
func (r *Room) Undo() (ok bool, all []*models.Operation, cursor int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ok = r.log.Undo()
	if ok {
		r.dirty = true
	}
	return ok, r.log.All(), r.log.Cursor()
}

// Redo steps the history cursor forward into retained history.
func (r *Room) Redo() (ok bool, all []*models.Operation, cursor int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ok = r.log.Redo()
	if ok {
		r.dirty = true
	}
	return ok, r.log.All(), r.log.Cursor()
}

// Clear atomically resets the history and discards every staged
// stroke, mid-flight ones included — nothing is promoted.
func (r *Room) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.log.Clear()
	r.stage.DiscardAll()
	r.dirty = true
}

// Snapshot returns the visible history and cursor, copied under the
// lock.
func (r *Room) Snapshot() (visible []*models.Operation, cursor int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.log.Visible(), r.log.Cursor()
}

// History returns the full operation sequence (undone tail included)
// and cursor.
func (r *Room) History() (all []*models.Operation, cursor int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.log.All(), r.log.Cursor()
}

// HasActiveStroke reports whether the author has an uncommitted stroke
// staged.
func (r *Room) HasActiveStroke(authorID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stage.Has(authorID)
}

// ConsumeDirty atomically reads and clears the dirty flag. The save
// scheduler uses this so only rooms mutated since the last cycle are
// written out.
func (r *Room) ConsumeDirty() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	d := r.dirty
	r.dirty = false
	return d
}

// MarkDirty re-flags the room, used when a save attempt fails so the
// next cycle retries.
func (r *Room) MarkDirty() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dirty = true
}
