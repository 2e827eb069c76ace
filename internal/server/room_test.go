package server

import (
	"encoding/json"
	"math/rand/v2"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crapette/internal/game"
)

// msgRecorder captures per-player messages for assertions.
type msgRecorder struct {
	mu       sync.Mutex
	byPlayer map[uuid.UUID][]Message
}

func newMsgRecorder() *msgRecorder {
	return &msgRecorder{byPlayer: make(map[uuid.UUID][]Message)}
}

func (r *msgRecorder) send(playerID uuid.UUID, msg Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byPlayer[playerID] = append(r.byPlayer[playerID], msg)
}

// lastOfType returns the most recent message of the given type sent to
// the player, or nil.
func (r *msgRecorder) lastOfType(playerID uuid.UUID, t MessageType) *Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	msgs := r.byPlayer[playerID]
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Type == t {
			return &msgs[i]
		}
	}
	return nil
}

func (r *msgRecorder) countOfType(playerID uuid.UUID, t MessageType) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, m := range r.byPlayer[playerID] {
		if m.Type == t {
			n++
		}
	}
	return n
}

// decodePayload unmarshals a message payload into out.
func decodePayload(t *testing.T, msg *Message, out any) {
	t.Helper()
	require.NotNil(t, msg)
	require.NoError(t, json.Unmarshal(msg.Payload, out))
}

// newTestRoom builds a room with a deterministic deal and a recorder in
// place of real connections. The room loop is NOT started; tests drive
// the handlers synchronously.
func newTestRoom(t *testing.T) (*Room, *msgRecorder, game.PlayerInfo, game.PlayerInfo) {
	t.Helper()
	p1 := game.PlayerInfo{ID: uuid.New(), Name: "Alice"}
	p2 := game.PlayerInfo{ID: uuid.New(), Name: "Bob"}
	rec := newMsgRecorder()

	log := logrus.New()
	log.SetLevel(logrus.PanicLevel) // keep test output quiet

	room := NewRoom(p1, p2, RoomDeps{
		Log:    log,
		SendTo: rec.send,
		Rand:   rand.New(rand.NewPCG(21, 42)),
	})
	return room, rec, p1, p2
}

func TestSessionStartBroadcast(t *testing.T) {
	room, rec, p1, p2 := newTestRoom(t)
	room.broadcastSessionStart()

	for _, p := range []game.PlayerInfo{p1, p2} {
		var payload SessionStartPayload
		decodePayload(t, rec.lastOfType(p.ID, MsgSessionStart), &payload)

		assert.Equal(t, room.ID, payload.SessionID)
		assert.Equal(t, p1.ID, payload.ActivePlayerID, "seat 1 starts active")
		assert.Equal(t, SeatOne, payload.SeatOf[p1.ID])
		assert.Equal(t, SeatTwo, payload.SeatOf[p2.ID])
		assert.Len(t, payload.Snapshot.Players, 2)
	}
}

func TestMoveAppliedBroadcastToBoth(t *testing.T) {
	room, rec, p1, p2 := newTestRoom(t)

	// Moving the active player's crapette top to their own waste is
	// always legal and ends the turn.
	card := room.session.Players[p1.ID].Crapette.Top()
	room.handleMove(p1.ID, MovePayload{
		SessionID:   room.ID,
		CardID:      card.ID,
		Destination: game.PileRef{Kind: game.PileWaste, Owner: p1.ID},
	})

	for _, p := range []game.PlayerInfo{p1, p2} {
		var diff game.Diff
		decodePayload(t, rec.lastOfType(p.ID, MsgMoveApplied), &diff)
		assert.Equal(t, card.ID, diff.CardID)
		assert.True(t, diff.TurnEnded)

		var turn TurnUpdatePayload
		decodePayload(t, rec.lastOfType(p.ID, MsgTurnUpdate), &turn)
		assert.Equal(t, p2.ID, turn.ActivePlayerID)
	}
}

func TestMoveRejectedOnlySubmitterHears(t *testing.T) {
	room, rec, p1, p2 := newTestRoom(t)

	// Seat 2 acts while seat 1 is active.
	card := room.session.Players[p2.ID].Crapette.Top()
	room.handleMove(p2.ID, MovePayload{
		SessionID:   room.ID,
		CardID:      card.ID,
		Destination: game.PileRef{Kind: game.PileTableau, Index: 7},
	})

	var rej MoveRejectedPayload
	decodePayload(t, rec.lastOfType(p2.ID, MsgMoveRejected), &rej)
	assert.Equal(t, RejectOutOfTurn, rej.Code)
	assert.Equal(t, card.ID, rej.CardID)

	assert.Nil(t, rec.lastOfType(p1.ID, MsgMoveRejected), "peer must not hear about rejections")
	assert.Zero(t, rec.countOfType(p1.ID, MsgMoveApplied))
}

func TestEndTurnBroadcastAndAuthorization(t *testing.T) {
	room, rec, p1, p2 := newTestRoom(t)

	// Non-active player is privately rejected, nothing broadcast.
	room.handleEndTurn(p2.ID)
	var rej MoveRejectedPayload
	decodePayload(t, rec.lastOfType(p2.ID, MsgMoveRejected), &rej)
	assert.Equal(t, RejectNotAuthorized, rej.Code)
	assert.Zero(t, rec.countOfType(p1.ID, MsgTurnUpdate))

	// Active player flips the turn for both.
	room.handleEndTurn(p1.ID)
	for _, p := range []game.PlayerInfo{p1, p2} {
		var turn TurnUpdatePayload
		decodePayload(t, rec.lastOfType(p.ID, MsgTurnUpdate), &turn)
		assert.Equal(t, p2.ID, turn.ActivePlayerID)
	}
}

func TestDisconnectRetiresRoom(t *testing.T) {
	room, rec, p1, p2 := newTestRoom(t)
	retired := false
	room.onRetire = func(id uuid.UUID) {
		assert.Equal(t, room.ID, id)
		retired = true
	}

	room.handleDisconnect(p1.ID)

	var payload PeerDisconnectedPayload
	decodePayload(t, rec.lastOfType(p2.ID, MsgPeerDisconnected), &payload)
	assert.Equal(t, room.ID, payload.SessionID)
	assert.Nil(t, rec.lastOfType(p1.ID, MsgPeerDisconnected), "only the peer is notified")
	assert.True(t, retired)
	assert.True(t, room.session.Retired())

	// Further submissions are dropped without blocking.
	card := room.session.Players[p2.ID].Crapette.Top()
	room.SubmitMove(p2.ID, MovePayload{SessionID: room.ID, CardID: card.ID})
	room.SubmitEndTurn(p2.ID)
}

// TestRoomLoopSerializesSubmissions drives the room through its real
// command loop with concurrent submitters.
func TestRoomLoopSerializesSubmissions(t *testing.T) {
	room, rec, p1, p2 := newTestRoom(t)
	go room.Run()

	require.Eventually(t, func() bool {
		return rec.lastOfType(p1.ID, MsgSessionStart) != nil &&
			rec.lastOfType(p2.ID, MsgSessionStart) != nil
	}, time.Second, 5*time.Millisecond)

	// Both players hammer the room; only seat 1's own-waste move is
	// legal, everything else must be privately rejected.
	var wg sync.WaitGroup
	card := room.session.Players[p1.ID].Crapette.Top()
	for i := 0; i < 5; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			room.SubmitMove(p1.ID, MovePayload{
				SessionID:   room.ID,
				CardID:      card.ID,
				Destination: game.PileRef{Kind: game.PileWaste, Owner: p1.ID},
			})
		}()
		go func() {
			defer wg.Done()
			room.SubmitEndTurn(p2.ID)
		}()
	}
	wg.Wait()

	require.Eventually(t, func() bool {
		return rec.countOfType(p2.ID, MsgMoveApplied) == 1
	}, time.Second, 5*time.Millisecond)

	// The first own-waste submission applied and flipped the turn; the
	// four replays find the card no longer movable and are rejected.
	require.Eventually(t, func() bool {
		return rec.countOfType(p1.ID, MsgMoveRejected) == 4
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, 1, rec.countOfType(p1.ID, MsgMoveApplied))

	room.Disconnect(p1.ID)
	require.Eventually(t, func() bool {
		return rec.lastOfType(p2.ID, MsgPeerDisconnected) != nil
	}, time.Second, 5*time.Millisecond)
}
