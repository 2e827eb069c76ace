package game

import "github.com/google/uuid"

// Diff is the minimal description of the net change produced by one
// applied move. Replaying it against an identical pre-move state yields
// the identical post-move state; replaying it a second time is rejected
// because the card is no longer at the claimed origin.
type Diff struct {
	CardID      uuid.UUID `json:"cardId"`
	Origin      PileRef   `json:"origin"`
	Destination PileRef   `json:"destination"`

	// FlippedCardID is the card revealed at the origin pile's new top,
	// if the move exposed one.
	FlippedCardID uuid.UUID `json:"flippedCardId,omitempty"`

	// TurnEnded is set when the move landed on the actor's own waste
	// pile; ActivePlayerID then names the newly active player.
	TurnEnded      bool      `json:"turnEnded,omitempty"`
	ActivePlayerID uuid.UUID `json:"activePlayerId,omitempty"`
}
