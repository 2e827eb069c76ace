package server

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"crapette/internal/database"
	"crapette/internal/game"
	"crapette/internal/history"
)

// Seat labels delivered in the session-start payload.
const (
	SeatOne = "seat1"
	SeatTwo = "seat2"
)

type cmdKind uint8

const (
	cmdMove cmdKind = iota
	cmdEndTurn
	cmdDisconnect
)

type roomCmd struct {
	kind  cmdKind
	actor uuid.UUID
	move  MovePayload
}

// Room owns the authoritative session for one matched pair. All mutation
// goes through a single command loop, so concurrent submissions from
// both players are applied one at a time in arrival order; network I/O
// happens outside that critical section via the send callback.
type Room struct {
	ID uuid.UUID

	session *game.Session
	seatOf  map[uuid.UUID]string
	log     *logrus.Entry

	// sendTo delivers a message to one player. Injected so the loop is
	// testable without sockets.
	sendTo func(playerID uuid.UUID, msg Message)

	// onRetire lets the registry drop the room once it is torn down.
	onRetire func(roomID uuid.UUID)

	hist    *history.Publisher
	archive *database.Archive

	cmds        chan roomCmd
	done        chan struct{}
	actionIndex int
}

// RoomDeps carries the room's collaborators.
type RoomDeps struct {
	Log      *logrus.Logger
	SendTo   func(playerID uuid.UUID, msg Message)
	OnRetire func(roomID uuid.UUID)
	History  *history.Publisher
	Archive  *database.Archive
	Rand     *rand.Rand // optional; defaults to a time-seeded source
}

// NewRoom deals a session for the two paired players. Seat 1 is the
// first-paired player and starts active. Call Run to start the loop.
func NewRoom(seat1, seat2 game.PlayerInfo, deps RoomDeps) *Room {
	id := uuid.New()
	r := deps.Rand
	if r == nil {
		now := uint64(time.Now().UnixNano())
		r = rand.New(rand.NewPCG(now, now>>32))
	}
	room := &Room{
		ID:      id,
		session: game.NewSession(id, seat1, seat2, r),
		seatOf: map[uuid.UUID]string{
			seat1.ID: SeatOne,
			seat2.ID: SeatTwo,
		},
		log:      deps.Log.WithField("session", id),
		sendTo:   deps.SendTo,
		onRetire: deps.OnRetire,
		hist:     deps.History,
		archive:  deps.Archive,
		cmds:     make(chan roomCmd, 32),
		done:     make(chan struct{}),
	}
	return room
}

// Players returns the two participant ids, seat 1 first.
func (r *Room) Players() [2]uuid.UUID {
	return r.session.Seats
}

// Run delivers the session-start payload to both players and then
// serves commands until the room is retired. Run blocks; start it on
// its own goroutine.
func (r *Room) Run() {
	r.broadcastSessionStart()
	r.logAction(uuid.Nil, "session_start", map[string]any{
		"players": []uuid.UUID{r.session.Seats[0], r.session.Seats[1]},
	})
	if r.archive != nil {
		snap := r.session.Snapshot()
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := r.archive.RecordSessionStart(ctx, r.ID, snap); err != nil {
				r.log.WithError(err).Error("archive session start failed")
			}
		}()
	}

	for {
		select {
		case cmd := <-r.cmds:
			switch cmd.kind {
			case cmdMove:
				r.handleMove(cmd.actor, cmd.move)
			case cmdEndTurn:
				r.handleEndTurn(cmd.actor)
			case cmdDisconnect:
				r.handleDisconnect(cmd.actor)
				return
			}
		case <-r.done:
			return
		}
	}
}

// submit enqueues a command unless the room is already retired.
func (r *Room) submit(cmd roomCmd) {
	select {
	case r.cmds <- cmd:
	case <-r.done:
	}
}

// SubmitMove enqueues a move intent from a client.
func (r *Room) SubmitMove(actor uuid.UUID, p MovePayload) {
	r.submit(roomCmd{kind: cmdMove, actor: actor, move: p})
}

// SubmitEndTurn enqueues an explicit end-turn intent.
func (r *Room) SubmitEndTurn(actor uuid.UUID) {
	r.submit(roomCmd{kind: cmdEndTurn, actor: actor})
}

// Disconnect tears the room down: the peer is notified, the session is
// retired and no further commands are accepted.
func (r *Room) Disconnect(playerID uuid.UUID) {
	r.submit(roomCmd{kind: cmdDisconnect, actor: playerID})
}

// broadcastSessionStart delivers the snapshot and seat labels to both
// players atomically (both messages built from the same state, before
// any command is served).
func (r *Room) broadcastSessionStart() {
	payload := SessionStartPayload{
		SessionID:      r.ID,
		Snapshot:       r.session.Snapshot(),
		SeatOf:         r.seatOf,
		ActivePlayerID: r.session.CurrentPlayerID,
	}
	msg := mustMessage(MsgSessionStart, payload)
	for _, pid := range r.session.Seats {
		r.sendTo(pid, msg)
	}
	r.log.WithFields(logrus.Fields{
		"seat1": r.session.Seats[0],
		"seat2": r.session.Seats[1],
	}).Info("session started")
}

// handleMove re-validates and applies one move. On success the diff is
// broadcast to both players, plus a turn notice if the move ended the
// turn; on failure only the submitter hears about it.
func (r *Room) handleMove(actor uuid.UUID, p MovePayload) {
	diff, err := r.session.ApplyMove(p.CardID, p.Destination, actor)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"player": actor,
			"card":   p.CardID,
			"dest":   p.Destination.String(),
		}).WithError(err).Debug("move rejected")
		r.sendTo(actor, mustMessage(MsgMoveRejected, MoveRejectedPayload{
			SessionID: r.ID,
			CardID:    p.CardID,
			Code:      rejectionCode(err),
			Reason:    err.Error(),
		}))
		return
	}

	r.broadcast(mustMessage(MsgMoveApplied, diff))
	if diff.TurnEnded {
		r.broadcast(mustMessage(MsgTurnUpdate, TurnUpdatePayload{ActivePlayerID: diff.ActivePlayerID}))
	}
	r.logAction(actor, "move_applied", map[string]any{
		"card":   diff.CardID,
		"origin": diff.Origin.String(),
		"dest":   diff.Destination.String(),
	})
}

// handleEndTurn validates the sender is active and announces the turn
// change; intents from the non-active player are ignored apart from a
// private rejection.
func (r *Room) handleEndTurn(actor uuid.UUID) {
	next, err := r.session.EndTurn(actor)
	if err != nil {
		r.log.WithField("player", actor).WithError(err).Debug("end turn rejected")
		r.sendTo(actor, mustMessage(MsgMoveRejected, MoveRejectedPayload{
			SessionID: r.ID,
			Code:      rejectionCode(err),
			Reason:    err.Error(),
		}))
		return
	}
	r.broadcast(mustMessage(MsgTurnUpdate, TurnUpdatePayload{ActivePlayerID: next}))
	r.logAction(actor, "turn_ended", nil)
}

// handleDisconnect notifies the remaining player and retires the room.
func (r *Room) handleDisconnect(playerID uuid.UUID) {
	other := r.session.Other(playerID)
	r.sendTo(other, mustMessage(MsgPeerDisconnected, PeerDisconnectedPayload{SessionID: r.ID}))

	r.session.Retire()
	close(r.done)

	r.log.WithField("player", playerID).Info("player disconnected, session retired")
	r.logAction(playerID, "session_retired", map[string]any{"reason": "disconnect"})
	if r.archive != nil {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := r.archive.RecordSessionEnd(ctx, r.ID, "disconnect"); err != nil {
				r.log.WithError(err).Error("archive session end failed")
			}
		}()
	}
	if r.onRetire != nil {
		r.onRetire(r.ID)
	}
}

// broadcast sends a message to both players, including the submitter.
func (r *Room) broadcast(msg Message) {
	for _, pid := range r.session.Seats {
		r.sendTo(pid, msg)
	}
}

// logAction appends to the session's action history, asynchronously and
// best-effort.
func (r *Room) logAction(actorID uuid.UUID, kind string, payload map[string]any) {
	r.actionIndex++
	rec := history.Record{
		SessionID:   r.ID,
		ActionIndex: r.actionIndex,
		ActorID:     actorID,
		Kind:        kind,
		Payload:     payload,
		Timestamp:   time.Now().UnixMilli(),
	}
	if r.hist == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := r.hist.Publish(ctx, rec); err != nil {
			r.log.WithError(err).WithField("action", rec.Kind).Error("publish action failed")
		}
	}()
}
