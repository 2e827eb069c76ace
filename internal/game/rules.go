package game

import (
	"fmt"

	"github.com/google/uuid"
)

// ValidateMove checks whether moving the named card to dest is legal for
// the acting player without mutating anything. A nil return means the
// move is legal; otherwise the error wraps one of the validation
// sentinels (ErrNotFound, ErrOutOfTurn, ErrIllegalMove).
//
// Clients run the same check optimistically, but the session re-runs it
// before applying every submitted move: a peer's claim that a move was
// legal is never trusted.
func (s *Session) ValidateMove(cardID uuid.UUID, dest PileRef, actor uuid.UUID) error {
	src, ok := s.locator[cardID]
	if !ok {
		return fmt.Errorf("card %s: %w", cardID, ErrNotFound)
	}
	card := src.Top()
	if card == nil || card.ID != cardID {
		// Only the exposed top card of any pile is movable.
		return fmt.Errorf("card %s is not on top of %s: %w", cardID, src.Ref(), ErrIllegalMove)
	}
	return s.validateMove(card, src, dest, actor)
}

// validateMove is the pure rule set, evaluated by destination kind.
// card must already be the top of src.
func (s *Session) validateMove(card *Card, src *Pile, dest PileRef, actor uuid.UUID) error {
	if actor != s.CurrentPlayerID {
		return fmt.Errorf("player %s: %w", actor, ErrOutOfTurn)
	}

	target, err := s.PileByRef(dest)
	if err != nil {
		return err
	}
	if target == src {
		return fmt.Errorf("destination equals origin %s: %w", src.Ref(), ErrIllegalMove)
	}

	switch dest.Kind {
	case PileFoundation:
		return validateFoundation(card, target)

	case PileTableau:
		return validateTableau(card, target)

	case PileWaste:
		if dest.Owner == actor {
			// Dropping on one's own waste is always legal; it is the
			// designated end-turn action.
			return nil
		}
		return validateLoading(card, target)

	case PileCrapette:
		if dest.Owner == actor {
			return fmt.Errorf("own crapette pile is not a drop target: %w", ErrIllegalMove)
		}
		return validateLoading(card, target)

	case PileStock, PileHand:
		return fmt.Errorf("%s is not a drop target: %w", dest.Kind, ErrIllegalMove)

	default:
		return fmt.Errorf("pile kind %d: %w", dest.Kind, ErrIllegalMove)
	}
}

// validateFoundation enforces same-suit ascending from Ace, no wraparound.
func validateFoundation(card *Card, target *Pile) error {
	top := target.Top()
	if top == nil {
		if card.Rank != RankAce {
			return fmt.Errorf("empty foundation accepts only an ace, got %s: %w", card, ErrIllegalMove)
		}
		return nil
	}
	if card.Suit != top.Suit {
		return fmt.Errorf("foundation suit is %s, got %s: %w", top.Suit, card, ErrIllegalMove)
	}
	if card.Rank != top.Rank+1 {
		return fmt.Errorf("foundation top is %s, got %s: %w", top, card, ErrIllegalMove)
	}
	return nil
}

// validateTableau enforces alternating color, strictly descending rank.
// An empty tableau slot accepts any card.
func validateTableau(card *Card, target *Pile) error {
	top := target.Top()
	if top == nil {
		return nil
	}
	if card.Suit.Color() == top.Suit.Color() {
		return fmt.Errorf("tableau top %s has the same color as %s: %w", top, card, ErrIllegalMove)
	}
	if card.Rank != top.Rank-1 {
		return fmt.Errorf("tableau top is %s, got %s: %w", top, card, ErrIllegalMove)
	}
	return nil
}

// validateLoading enforces the opponent-pile loading rule: same suit,
// rank exactly one away in either direction, never onto an empty pile.
func validateLoading(card *Card, target *Pile) error {
	top := target.Top()
	if top == nil {
		return fmt.Errorf("cannot seed an opponent's empty %s: %w", target.Kind, ErrIllegalMove)
	}
	if card.Suit != top.Suit {
		return fmt.Errorf("loading requires suit %s, got %s: %w", top.Suit, card, ErrIllegalMove)
	}
	diff := int(card.Rank) - int(top.Rank)
	if diff != 1 && diff != -1 {
		return fmt.Errorf("loading target is %s, got %s: %w", top, card, ErrIllegalMove)
	}
	return nil
}
