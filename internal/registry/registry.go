package registry

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/Dineshmedisetty/collaborative-canvas/internal/canvas"
	"github.com/Dineshmedisetty/collaborative-canvas/internal/models"
)

// PersistenceGateway is what the registry needs from durable storage.
// Declared here, on the consumer side; internal/repository provides
// the Postgres implementation.
type PersistenceGateway interface {
	// Load returns the room's record, or (nil, nil) when none exists.
	Load(ctx context.Context, roomID string) (*models.RoomRecord, error)
	// Save overwrites the room's record.
	Save(ctx context.Context, roomID string, ops []*models.Operation, cursor int) error
	// Delete removes the room's record.
	Delete(ctx context.Context, roomID string) error
}

// Registry owns the live rooms, keyed by room id. It lazily creates
// and hydrates rooms, evicts them when the last member leaves, and
// runs the dirty-flag save loop. The registry mutex guards only the
// map; persistence I/O always runs outside it, and never inside a
// room's own critical section.
type Registry struct {
	mu    sync.RWMutex
	rooms map[string]*canvas.Room

	gateway    PersistenceGateway
	maxHistory int

	done     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewRegistry creates an empty registry backed by the given gateway.
func NewRegistry(gateway PersistenceGateway, maxHistory int) *Registry {
	return &Registry{
		rooms:      make(map[string]*canvas.Room),
		gateway:    gateway,
		maxHistory: maxHistory,
		done:       make(chan struct{}),
	}
}

// GetOrCreate returns the live room, constructing and hydrating it on
// first use. Hydration happens exactly once per room, before any
// member-visible mutation; a failed load yields an empty room rather
// than an error.
func (g *Registry) GetOrCreate(ctx context.Context, roomID string) *canvas.Room {
	g.mu.Lock()
	room, ok := g.rooms[roomID]
	if !ok {
		room = canvas.NewRoom(roomID, g.maxHistory)
		g.rooms[roomID] = room
	}
	g.mu.Unlock()

	room.EnsureHydrated(func() (*models.RoomRecord, error) {
		record, err := g.gateway.Load(ctx, roomID)
		if err != nil {
			log.Printf("⚠️  Failed to load room %s, starting empty: %v", roomID, err)
			return nil, err
		}
		if record != nil {
			log.Printf("  Room %s hydrated (%d operations, cursor %d)",
				roomID, len(record.Operations), record.Cursor)
		}
		return record, nil
	})

	return room
}

// Join binds a user to the live room, creating and hydrating it when
// needed. The membership add and an in-flight eviction of the same
// room are mutually exclusive: a room retired by EvictIfEmpty refuses
// the add, and the loop starts over with a fresh room hydrated from
// the snapshot the eviction just wrote. A member returned here is
// always in a room the registry can see.
func (g *Registry) Join(ctx context.Context, roomID, userID string) (*canvas.Room, *models.Member) {
	for {
		room := g.GetOrCreate(ctx, roomID)
		if member, ok := room.Join(userID); ok {
			return room, member
		}
	}
}

// Get returns the live room without creating one.
func (g *Registry) Get(roomID string) (*canvas.Room, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	room, ok := g.rooms[roomID]
	return room, ok
}

// Rooms returns a snapshot of the live rooms.
func (g *Registry) Rooms() []*canvas.Room {
	g.mu.RLock()
	defer g.mu.RUnlock()

	out := make([]*canvas.Room, 0, len(g.rooms))
	for _, room := range g.rooms {
		out = append(out, room)
	}
	return out
}

// EvictIfEmpty tears the room down once its last member is gone: save
// first, then remove. The save runs outside every lock; if someone
// joins while it is in flight, Retire fails and the save was just an
// ordinary snapshot. Removal only happens on a successfully retired
// room, so no member can ever sit in a room the registry dropped.
func (g *Registry) EvictIfEmpty(ctx context.Context, roomID string) {
	g.mu.RLock()
	room, ok := g.rooms[roomID]
	g.mu.RUnlock()
	if !ok || room.MemberCount() > 0 {
		return
	}

	ops, cursor := room.History()
	room.ConsumeDirty()
	if len(ops) == 0 {
		// Nothing to keep: drop the row instead of writing an empty
		// snapshot.
		if err := g.gateway.Delete(ctx, roomID); err != nil {
			log.Printf("⚠️  Failed to delete room %s snapshot: %v", roomID, err)
		}
	} else if err := g.gateway.Save(ctx, roomID, ops, cursor); err != nil {
		// Best effort: the room is still evicted, live state is gone
		// either way once everyone has left.
		log.Printf("⚠️  Failed to save room %s on eviction: %v", roomID, err)
	}

	g.mu.Lock()
	if current, ok := g.rooms[roomID]; ok && current == room && room.Retire() {
		delete(g.rooms, roomID)
		log.Printf("  Room %s evicted (empty)", roomID)
	}
	g.mu.Unlock()
}

// StartSaveLoop runs the persistence scheduler: every interval it
// saves the rooms mutated since the last cycle. Replaces any notion of
// a global timer inside the log itself; the log never knows about
// wall-clock time.
func (g *Registry) StartSaveLoop(interval time.Duration) {
	g.wg.Add(1)
	go func() {
		defer g.wg.Done()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-g.done:
				return
			case <-ticker.C:
				g.SaveDirty(context.Background())
			}
		}
	}()
}

// SaveDirty persists every room whose log changed since the last
// cycle. Save failures re-flag the room so the next cycle retries.
func (g *Registry) SaveDirty(ctx context.Context) int {
	saved := 0
	for _, room := range g.Rooms() {
		if !room.ConsumeDirty() {
			continue
		}
		ops, cursor := room.History()
		if err := g.gateway.Save(ctx, room.ID, ops, cursor); err != nil {
			log.Printf("⚠️  Failed to save room %s: %v", room.ID, err)
			room.MarkDirty()
			continue
		}
		saved++
	}
	return saved
}

// Shutdown stops the save loop and flushes every dirty room.
func (g *Registry) Shutdown(ctx context.Context) {
	g.stopOnce.Do(func() { close(g.done) })
	g.wg.Wait()

	if n := g.SaveDirty(ctx); n > 0 {
		log.Printf("✓ Flushed %d dirty room(s) on shutdown", n)
	}
}
