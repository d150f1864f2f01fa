// Package registry owns the room table. All room creation, lookup, listing,
// and removal flows through a Registry instance; there is no ambient global
// state. The registry serializes only the table itself, never gameplay, so
// moves in different rooms proceed independently.
package registry

import (
	"strings"
	"sync"

	"github.com/dotgrid/dotgrid/internal/game/engine"
	apperrors "github.com/dotgrid/dotgrid/internal/platform/errors"
)

var (
	// ErrRoomNotFound indicates a lookup for an unregistered room id.
	ErrRoomNotFound = apperrors.New(apperrors.CodeRoomNotFound, "room not found")
	// ErrRoomExists indicates a create against a registered room id.
	ErrRoomExists = apperrors.New(apperrors.CodeRoomExists, "room already exists")
)

// Summary is a read-only room listing entry.
type Summary struct {
	RoomID      string
	PlayerCount int
	Players     []string
	GridSize    int
	Status      engine.Status
}

// Registry holds every active room keyed by id. Listing order is room
// creation order.
type Registry struct {
	mu    sync.RWMutex
	rooms map[string]*engine.Room
	order []string
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{rooms: make(map[string]*engine.Room)}
}

// Create registers a new room with the creator seated at seat 0. The
// onCreate callback, if non-nil, runs while the registry lock is still held,
// so it completes before any Join or Get can observe the room.
func (g *Registry) Create(roomID string, size int, creator engine.Player, onCreate func(*engine.Room)) (*engine.Room, error) {
	roomID = strings.TrimSpace(roomID)

	g.mu.Lock()
	defer g.mu.Unlock()

	if _, exists := g.rooms[roomID]; exists {
		return nil, ErrRoomExists
	}
	room, err := engine.NewRoom(roomID, size, creator)
	if err != nil {
		return nil, err
	}
	g.rooms[roomID] = room
	g.order = append(g.order, roomID)
	if onCreate != nil {
		onCreate(room)
	}
	return room, nil
}

// Get looks up a registered room.
func (g *Registry) Get(roomID string) (*engine.Room, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	room, ok := g.rooms[roomID]
	if !ok {
		return nil, ErrRoomNotFound
	}
	return room, nil
}

// Join seats a player in a room. The onStart callback is forwarded to the
// room and runs if this join starts the game.
func (g *Registry) Join(roomID string, p engine.Player, onStart func(engine.Snapshot)) (*engine.Room, int, error) {
	room, err := g.Get(roomID)
	if err != nil {
		return nil, 0, err
	}
	seat, err := room.Join(p, onStart)
	if err != nil {
		return nil, 0, err
	}
	return room, seat, nil
}

// List returns summaries of every registered room in creation order.
func (g *Registry) List() []Summary {
	g.mu.RLock()
	defer g.mu.RUnlock()

	summaries := make([]Summary, 0, len(g.order))
	for _, roomID := range g.order {
		room, ok := g.rooms[roomID]
		if !ok {
			continue
		}
		playerCount, gridSize, names, status := room.Summary()
		summaries = append(summaries, Summary{
			RoomID:      roomID,
			PlayerCount: playerCount,
			Players:     names,
			GridSize:    gridSize,
			Status:      status,
		})
	}
	return summaries
}

// Leave vacates a seat and removes the room once it is empty. It reports how
// many players remain seated.
func (g *Registry) Leave(roomID string, seat int) (remaining int, removed bool) {
	room, err := g.Get(roomID)
	if err != nil {
		return 0, false
	}
	remaining = room.Leave(seat)
	if remaining == 0 {
		g.Remove(roomID)
		removed = true
	}
	return remaining, removed
}

// Remove drops a room from the registry.
func (g *Registry) Remove(roomID string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.rooms[roomID]; !ok {
		return
	}
	delete(g.rooms, roomID)
	for i, id := range g.order {
		if id == roomID {
			g.order = append(g.order[:i], g.order[i+1:]...)
			break
		}
	}
}

// Len returns the number of registered rooms.
func (g *Registry) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.rooms)
}
