package game

import (
	"fmt"
	"math/rand/v2"

	"github.com/google/uuid"
)

// Board dimensions and deal sizes.
const (
	NumTableau      = 8
	NumFoundations  = 8
	CrapetteSize    = 13 // cards dealt to each player's crapette pile
	InitialTableau  = 4  // tableau slots seeded from seat 1's stock
	TotalMatchCards = 2 * DeckSize
)

// PlayerInfo is the external identity handed in by the pairing
// collaborator when a session is created.
type PlayerInfo struct {
	ID   uuid.UUID
	Name string
}

// PlayerState is one player's side of the board.
type PlayerState struct {
	ID       uuid.UUID
	Name     string
	Hand     *Pile
	Stock    *Pile
	Waste    *Pile
	Crapette *Pile
}

// Session is the authoritative state of one two-player match. It is not
// safe for concurrent use; the room serializes all access to it.
type Session struct {
	ID    uuid.UUID
	Seats [2]uuid.UUID // seat order; Seats[0] acts first

	Players     map[uuid.UUID]*PlayerState
	Tableau     [NumTableau]*Pile
	Foundations [NumFoundations]*Pile

	CurrentPlayerID uuid.UUID

	// locator maps every card id to its containing pile. It is updated
	// in the same step as every pile mutation, so a move message that
	// only names a card resolves its origin without scanning piles.
	locator map[uuid.UUID]*Pile

	retired bool
}

// NewSession deals a fresh match for the two paired players. Each player
// gets an independent shuffled 52-card deck: 13 cards to the crapette
// pile (top face up), the rest to the stock. Tableau slots 0..3 are then
// seeded face up from seat 1's stock, and seat 1 starts active.
func NewSession(id uuid.UUID, seat1, seat2 PlayerInfo, r *rand.Rand) *Session {
	s := &Session{
		ID:      id,
		Seats:   [2]uuid.UUID{seat1.ID, seat2.ID},
		Players: make(map[uuid.UUID]*PlayerState, 2),
		locator: make(map[uuid.UUID]*Pile, TotalMatchCards),
	}

	for i := range s.Tableau {
		s.Tableau[i] = &Pile{Kind: PileTableau, Index: i}
	}
	for i := range s.Foundations {
		s.Foundations[i] = &Pile{Kind: PileFoundation, Index: i}
	}

	for _, info := range []PlayerInfo{seat1, seat2} {
		s.Players[info.ID] = s.dealPlayer(info, NewDeck(r))
	}

	// The initial tableau is dealt from seat 1's stock only; stocks are
	// never replenished afterwards.
	first := s.Players[seat1.ID]
	for i := 0; i < InitialTableau; i++ {
		card, _ := first.Stock.Pop()
		if card == nil {
			break
		}
		card.FaceUp = true
		s.place(card, s.Tableau[i])
	}

	s.CurrentPlayerID = seat1.ID
	return s
}

// dealPlayer splits one deck into the player's piles and indexes every
// card in the locator.
func (s *Session) dealPlayer(info PlayerInfo, deck []*Card) *PlayerState {
	p := &PlayerState{
		ID:       info.ID,
		Name:     info.Name,
		Hand:     &Pile{Kind: PileHand, Owner: info.ID},
		Stock:    &Pile{Kind: PileStock, Owner: info.ID},
		Waste:    &Pile{Kind: PileWaste, Owner: info.ID},
		Crapette: &Pile{Kind: PileCrapette, Owner: info.ID},
	}

	for _, c := range deck[:CrapetteSize] {
		s.place(c, p.Crapette)
	}
	p.Crapette.Top().FaceUp = true

	for _, c := range deck[CrapetteSize:] {
		s.place(c, p.Stock)
	}
	return p
}

// place pushes a card and keeps the locator in step.
func (s *Session) place(c *Card, p *Pile) {
	p.Push(c)
	s.locator[c.ID] = p
}

// PileByRef resolves a pile descriptor against this session.
func (s *Session) PileByRef(ref PileRef) (*Pile, error) {
	switch ref.Kind {
	case PileTableau:
		if ref.Index < 0 || ref.Index >= NumTableau {
			return nil, fmt.Errorf("tableau index %d: %w", ref.Index, ErrNotFound)
		}
		return s.Tableau[ref.Index], nil
	case PileFoundation:
		if ref.Index < 0 || ref.Index >= NumFoundations {
			return nil, fmt.Errorf("foundation index %d: %w", ref.Index, ErrNotFound)
		}
		return s.Foundations[ref.Index], nil
	}

	p, ok := s.Players[ref.Owner]
	if !ok {
		return nil, fmt.Errorf("player %s: %w", ref.Owner, ErrNotFound)
	}
	switch ref.Kind {
	case PileStock:
		return p.Stock, nil
	case PileWaste:
		return p.Waste, nil
	case PileCrapette:
		return p.Crapette, nil
	case PileHand:
		return p.Hand, nil
	}
	return nil, fmt.Errorf("pile kind %d: %w", ref.Kind, ErrNotFound)
}

// Other returns the opponent of the given player id.
func (s *Session) Other(playerID uuid.UUID) uuid.UUID {
	if playerID == s.Seats[0] {
		return s.Seats[1]
	}
	return s.Seats[0]
}

// Retired reports whether the session has been torn down.
func (s *Session) Retired() bool { return s.retired }

// Retire marks the session as torn down; all further mutation is
// rejected.
func (s *Session) Retire() { s.retired = true }

// ApplyMove validates and applies one move atomically. On success it
// returns the minimal diff to broadcast; on failure nothing has mutated
// and the error wraps one of the validation sentinels.
func (s *Session) ApplyMove(cardID uuid.UUID, dest PileRef, actor uuid.UUID) (*Diff, error) {
	if s.retired {
		return nil, fmt.Errorf("session %s is retired: %w", s.ID, ErrNotFound)
	}

	src, ok := s.locator[cardID]
	if !ok {
		return nil, fmt.Errorf("card %s: %w", cardID, ErrNotFound)
	}
	card := src.Top()
	if card == nil || card.ID != cardID {
		return nil, fmt.Errorf("card %s is not on top of %s: %w", cardID, src.Ref(), ErrIllegalMove)
	}
	if err := s.validateMove(card, src, dest, actor); err != nil {
		return nil, err
	}

	// Validation passed; the mutation below cannot fail.
	target, _ := s.PileByRef(dest)

	_, revealed := src.Pop()
	card.FaceUp = true // every legal destination exposes the card
	s.place(card, target)

	diff := &Diff{
		CardID:      card.ID,
		Origin:      src.Ref(),
		Destination: target.Ref(),
	}
	if revealed != nil {
		diff.FlippedCardID = revealed.ID
	}

	if target.Kind == PileWaste && target.Owner == actor {
		s.CurrentPlayerID = s.Other(actor)
		diff.TurnEnded = true
		diff.ActivePlayerID = s.CurrentPlayerID
	}
	return diff, nil
}

// EndTurn handles an explicit end-turn intent, flipping the active
// player. Only the active player may end the turn.
func (s *Session) EndTurn(actor uuid.UUID) (uuid.UUID, error) {
	if s.retired {
		return uuid.Nil, fmt.Errorf("session %s is retired: %w", s.ID, ErrNotFound)
	}
	if _, ok := s.Players[actor]; !ok {
		return uuid.Nil, fmt.Errorf("player %s: %w", actor, ErrNotFound)
	}
	if actor != s.CurrentPlayerID {
		return uuid.Nil, fmt.Errorf("player %s is not active: %w", actor, ErrNotAuthorized)
	}
	s.CurrentPlayerID = s.Other(actor)
	return s.CurrentPlayerID, nil
}
