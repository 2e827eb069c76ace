package game

import "errors"

// Validation errors. All of them reject a single operation, leave the
// session untouched and are reported only to the submitting client.
var (
	// ErrNotFound means the referenced card, session or player is unknown.
	ErrNotFound = errors.New("not found")

	// ErrIllegalMove means the move fails the legality rules.
	ErrIllegalMove = errors.New("illegal move")

	// ErrOutOfTurn means the actor is not the active player.
	ErrOutOfTurn = errors.New("out of turn")

	// ErrNotAuthorized means the sender may not perform the requested
	// control action (e.g. an end-turn from the non-active player).
	ErrNotAuthorized = errors.New("not authorized")
)
