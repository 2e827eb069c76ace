package game

import "github.com/google/uuid"

// PlayerSnapshot mirrors one player's piles for the session-start
// payload. Slices are ordered bottom to top.
type PlayerSnapshot struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	Hand     []*Card   `json:"hand"`
	Stock    []*Card   `json:"stock"`
	Waste    []*Card   `json:"waste"`
	Crapette []*Card   `json:"crapettePile"`
}

// Snapshot is the full serializable session state. It is sent once at
// session start; afterwards clients are kept consistent by replaying
// diffs, never by re-sending the snapshot.
type Snapshot struct {
	SessionID       uuid.UUID                    `json:"sessionId"`
	Players         map[uuid.UUID]PlayerSnapshot `json:"players"`
	Tableau         [NumTableau][]*Card          `json:"tableau"`
	Foundations     [NumFoundations][]*Card      `json:"foundations"`
	CurrentPlayerID uuid.UUID                    `json:"currentPlayerId"`
}

// Snapshot captures the current session state. Card slices are copied so
// the snapshot stays stable while the session keeps mutating, but the
// cards themselves are shared; marshal before further moves apply.
func (s *Session) Snapshot() Snapshot {
	snap := Snapshot{
		SessionID:       s.ID,
		Players:         make(map[uuid.UUID]PlayerSnapshot, len(s.Players)),
		CurrentPlayerID: s.CurrentPlayerID,
	}
	for id, p := range s.Players {
		snap.Players[id] = PlayerSnapshot{
			ID:       p.ID,
			Name:     p.Name,
			Hand:     copyCards(p.Hand.Cards),
			Stock:    copyCards(p.Stock.Cards),
			Waste:    copyCards(p.Waste.Cards),
			Crapette: copyCards(p.Crapette.Cards),
		}
	}
	for i, t := range s.Tableau {
		snap.Tableau[i] = copyCards(t.Cards)
	}
	for i, f := range s.Foundations {
		snap.Foundations[i] = copyCards(f.Cards)
	}
	return snap
}

func copyCards(cards []*Card) []*Card {
	out := make([]*Card, len(cards))
	copy(out, cards)
	return out
}
