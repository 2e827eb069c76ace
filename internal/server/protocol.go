// Package server exposes the authoritative game sessions over
// WebSockets: the wire protocol, per-connection pumps, the serialized
// per-session room loop, the session registry and the pairing queue.
package server

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"crapette/internal/game"
)

// MessageType discriminates the envelope for routing.
type MessageType string

// Client → server intents.
const (
	MsgJoin    MessageType = "join"
	MsgMove    MessageType = "move"
	MsgEndTurn MessageType = "end_turn"
)

// Server → client notices.
const (
	MsgSessionStart     MessageType = "session_start"
	MsgMoveApplied      MessageType = "move_applied"
	MsgMoveRejected     MessageType = "move_rejected" // submitter only
	MsgTurnUpdate       MessageType = "turn_update"
	MsgPeerDisconnected MessageType = "peer_disconnected"
	MsgError            MessageType = "error"
)

// Message is the envelope for all traffic in both directions. The
// payload stays raw until the type has been inspected.
type Message struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// NewMessage marshals payload into an envelope of the given type.
func NewMessage(t MessageType, payload any) (Message, error) {
	if payload == nil {
		return Message{Type: t}, nil
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return Message{}, fmt.Errorf("marshal %s payload: %w", t, err)
	}
	return Message{Type: t, Payload: raw}, nil
}

// mustMessage is NewMessage for payload types the server itself
// constructs; a marshal failure there is a programming error.
func mustMessage(t MessageType, payload any) Message {
	msg, err := NewMessage(t, payload)
	if err != nil {
		panic(err)
	}
	return msg
}

// MovePayload is a client's move intent: the card plus a destination
// descriptor. The origin pile is resolved server-side.
type MovePayload struct {
	SessionID   uuid.UUID    `json:"sessionId"`
	CardID      uuid.UUID    `json:"cardId"`
	Destination game.PileRef `json:"destination"`
}

// EndTurnPayload is a client's explicit end-turn intent.
type EndTurnPayload struct {
	SessionID uuid.UUID `json:"sessionId"`
	PlayerID  uuid.UUID `json:"playerId"`
}

// SessionStartPayload delivers the full snapshot once, atomically, to
// both participants. SeatOf labels each player "seat1" or "seat2".
type SessionStartPayload struct {
	SessionID      uuid.UUID            `json:"sessionId"`
	Snapshot       game.Snapshot        `json:"snapshot"`
	SeatOf         map[uuid.UUID]string `json:"seatOf"`
	ActivePlayerID uuid.UUID            `json:"activePlayerId"`
}

// TurnUpdatePayload announces the newly active player.
type TurnUpdatePayload struct {
	ActivePlayerID uuid.UUID `json:"activePlayerId"`
}

// PeerDisconnectedPayload tells the remaining player their opponent is
// gone and the session is retired.
type PeerDisconnectedPayload struct {
	SessionID uuid.UUID `json:"sessionId"`
}

// Rejection codes carried in MoveRejectedPayload.
const (
	RejectNotFound      = "not_found"
	RejectIllegalMove   = "illegal_move"
	RejectOutOfTurn     = "out_of_turn"
	RejectNotAuthorized = "not_authorized"
)

// MoveRejectedPayload is sent only to the submitting client; the peer
// never learns about rejected intents.
type MoveRejectedPayload struct {
	SessionID uuid.UUID `json:"sessionId"`
	CardID    uuid.UUID `json:"cardId,omitempty"`
	Code      string    `json:"code"`
	Reason    string    `json:"reason"`
}

// rejectionCode maps a validation error to its wire code.
func rejectionCode(err error) string {
	switch {
	case errors.Is(err, game.ErrOutOfTurn):
		return RejectOutOfTurn
	case errors.Is(err, game.ErrNotAuthorized):
		return RejectNotAuthorized
	case errors.Is(err, game.ErrNotFound):
		return RejectNotFound
	default:
		return RejectIllegalMove
	}
}

// ErrorPayload reports a protocol-level problem (bad payload, unknown
// session) back to the sender.
type ErrorPayload struct {
	Reason string `json:"reason"`
}
