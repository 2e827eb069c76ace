package server

import (
	"sync"

	"github.com/google/uuid"
)

// Registry tracks live rooms by session id with an explicit
// create/retire lifecycle. Sessions share no state with each other; the
// registry's lock only guards the map.
type Registry struct {
	mu    sync.Mutex
	rooms map[uuid.UUID]*Room
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{rooms: make(map[uuid.UUID]*Room)}
}

// Add registers a room and starts its command loop.
func (reg *Registry) Add(room *Room) {
	reg.mu.Lock()
	reg.rooms[room.ID] = room
	reg.mu.Unlock()
	go room.Run()
}

// Get returns the room for a session id, or nil if unknown or retired.
func (reg *Registry) Get(id uuid.UUID) *Room {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	return reg.rooms[id]
}

// Remove drops a retired room from the registry. Intents for its
// session id are rejected from then on.
func (reg *Registry) Remove(id uuid.UUID) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	delete(reg.rooms, id)
}

// Len returns the number of live rooms.
func (reg *Registry) Len() int {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	return len(reg.rooms)
}
