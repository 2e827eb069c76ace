package server

import (
	"sync"

	"github.com/google/uuid"

	"crapette/internal/game"
)

// Matchmaker pairs join intents two at a time. The first joiner waits;
// the second completes the pair and a room is dealt with the waiting
// player as seat 1.
type Matchmaker struct {
	mu      sync.Mutex
	waiting *game.PlayerInfo

	// newRoom creates and registers a room for a completed pair.
	newRoom func(seat1, seat2 game.PlayerInfo) *Room
}

// NewMatchmaker returns a matchmaker that hands completed pairs to
// newRoom.
func NewMatchmaker(newRoom func(seat1, seat2 game.PlayerInfo) *Room) *Matchmaker {
	return &Matchmaker{newRoom: newRoom}
}

// Enqueue adds a player to the queue. It returns the created room when
// the player completed a pair, or nil when they are now waiting.
func (m *Matchmaker) Enqueue(p game.PlayerInfo) *Room {
	m.mu.Lock()
	if m.waiting == nil || m.waiting.ID == p.ID {
		m.waiting = &p
		m.mu.Unlock()
		return nil
	}
	seat1 := *m.waiting
	m.waiting = nil
	m.mu.Unlock()

	return m.newRoom(seat1, p)
}

// Withdraw removes a waiting player, typically on disconnect before a
// pair formed. Returns true if the player was waiting.
func (m *Matchmaker) Withdraw(playerID uuid.UUID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.waiting != nil && m.waiting.ID == playerID {
		m.waiting = nil
		return true
	}
	return false
}
