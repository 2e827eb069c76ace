package server

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"crapette/internal/auth"
	"crapette/internal/database"
	"crapette/internal/game"
	"crapette/internal/history"
)

// Gateway accepts player connections, pairs join intents into rooms and
// routes intents to the owning room. It never touches session state
// itself; every mutation goes through a room's command loop.
type Gateway struct {
	log      *logrus.Logger
	auth     *auth.Service
	registry *Registry
	match    *Matchmaker
	hist     *history.Publisher
	archive  *database.Archive

	mu      sync.Mutex
	clients map[uuid.UUID]*Client
	roomOf  map[uuid.UUID]uuid.UUID // player id -> session id
}

// NewGateway wires the gateway and its matchmaker.
func NewGateway(log *logrus.Logger, authSvc *auth.Service, hist *history.Publisher, archive *database.Archive) *Gateway {
	g := &Gateway{
		log:      log,
		auth:     authSvc,
		registry: NewRegistry(),
		hist:     hist,
		archive:  archive,
		clients:  make(map[uuid.UUID]*Client),
		roomOf:   make(map[uuid.UUID]uuid.UUID),
	}
	g.match = NewMatchmaker(g.createRoom)
	return g
}

// createRoom deals a room for a completed pair and registers it.
func (g *Gateway) createRoom(seat1, seat2 game.PlayerInfo) *Room {
	room := NewRoom(seat1, seat2, RoomDeps{
		Log:      g.log,
		SendTo:   g.sendToPlayer,
		OnRetire: g.retireRoom,
		History:  g.hist,
		Archive:  g.archive,
	})

	g.mu.Lock()
	for _, pid := range room.Players() {
		g.roomOf[pid] = room.ID
	}
	g.mu.Unlock()

	g.registry.Add(room)
	return room
}

// retireRoom forgets a torn-down room and its players' room bindings.
func (g *Gateway) retireRoom(roomID uuid.UUID) {
	g.registry.Remove(roomID)
	g.mu.Lock()
	for pid, rid := range g.roomOf {
		if rid == roomID {
			delete(g.roomOf, pid)
		}
	}
	g.mu.Unlock()
}

// sendToPlayer delivers a message to a connected player; messages to
// players that already dropped are discarded.
func (g *Gateway) sendToPlayer(playerID uuid.UUID, msg Message) {
	g.mu.Lock()
	c := g.clients[playerID]
	g.mu.Unlock()
	if c != nil {
		c.trySend(msg)
	}
}

// HandleGuest issues a guest token. POST with an optional
// {"name": "..."} body.
func (g *Gateway) HandleGuest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var body struct {
		Name string `json:"name"`
	}
	_ = json.NewDecoder(r.Body).Decode(&body) // empty body is fine
	if body.Name == "" {
		body.Name = "Guest"
	}

	token, playerID, err := g.auth.IssueGuest(body.Name)
	if err != nil {
		g.log.WithError(err).Error("issue guest token failed")
		http.Error(w, "token issuance failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{
		"token":    token,
		"playerId": playerID.String(),
	})
}

// HandleWS upgrades a connection. The client authenticates with a
// ?token= query parameter and then speaks the message protocol; the
// handler blocks for the life of the connection.
func (g *Gateway) HandleWS(w http.ResponseWriter, r *http.Request) {
	playerID, name, err := g.auth.Verify(r.URL.Query().Get("token"))
	if err != nil {
		g.log.WithError(err).Debug("ws auth failed")
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		g.log.WithError(err).Debug("ws accept failed")
		return
	}

	c := newClient(playerID, name, conn, g.log)

	g.mu.Lock()
	if _, dup := g.clients[playerID]; dup {
		g.mu.Unlock()
		conn.Close(websocket.StatusPolicyViolation, "player already connected")
		return
	}
	g.clients[playerID] = c
	g.mu.Unlock()

	c.log.Info("player connected")

	ctx := r.Context()
	go c.writeLoop(ctx)
	c.readLoop(ctx, g)

	g.handleDisconnect(c)
	conn.Close(websocket.StatusNormalClosure, "")
}

// handleMessage routes one inbound envelope. Malformed payloads and
// unknown sessions get a private error reply; they never reach a room.
func (g *Gateway) handleMessage(c *Client, msg Message) {
	switch msg.Type {
	case MsgJoin:
		g.handleJoin(c)

	case MsgMove:
		var p MovePayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			c.trySend(mustMessage(MsgError, ErrorPayload{Reason: "malformed move payload"}))
			return
		}
		room := g.registry.Get(p.SessionID)
		if room == nil {
			c.trySend(mustMessage(MsgError, ErrorPayload{Reason: "unknown session"}))
			return
		}
		// The acting player is the connection's identity, never a
		// payload field: a client cannot move on the peer's behalf.
		room.SubmitMove(c.playerID, p)

	case MsgEndTurn:
		var p EndTurnPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			c.trySend(mustMessage(MsgError, ErrorPayload{Reason: "malformed end-turn payload"}))
			return
		}
		room := g.registry.Get(p.SessionID)
		if room == nil {
			c.trySend(mustMessage(MsgError, ErrorPayload{Reason: "unknown session"}))
			return
		}
		room.SubmitEndTurn(c.playerID)

	default:
		c.trySend(mustMessage(MsgError, ErrorPayload{Reason: "unknown message type"}))
	}
}

// handleJoin queues the player for pairing. Players already in a live
// room cannot queue again.
func (g *Gateway) handleJoin(c *Client) {
	g.mu.Lock()
	_, inRoom := g.roomOf[c.playerID]
	g.mu.Unlock()
	if inRoom {
		c.trySend(mustMessage(MsgError, ErrorPayload{Reason: "already in a session"}))
		return
	}

	info := game.PlayerInfo{ID: c.playerID, Name: c.name}
	if room := g.match.Enqueue(info); room != nil {
		c.log.WithField("session", room.ID).Info("pair completed")
		return
	}
	c.log.Info("waiting for an opponent")
}

// handleDisconnect cleans up after a dropped connection: a waiting
// player leaves the queue, a playing one retires their room.
func (g *Gateway) handleDisconnect(c *Client) {
	g.mu.Lock()
	delete(g.clients, c.playerID)
	roomID, inRoom := g.roomOf[c.playerID]
	g.mu.Unlock()

	if g.match.Withdraw(c.playerID) {
		c.log.Info("left matchmaking queue")
		return
	}
	if inRoom {
		if room := g.registry.Get(roomID); room != nil {
			room.Disconnect(c.playerID)
		}
	}
	c.log.Info("player disconnected")
}
