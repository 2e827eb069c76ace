package server

import (
	"context"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	// writeTimeout bounds a single outbound write.
	writeTimeout = 10 * time.Second

	// sendBuffer is the outbound queue per connection. A client that
	// falls this far behind is dropped rather than stalling its room.
	sendBuffer = 64
)

// Client is one player's connection from the server's point of view: the
// socket plus the buffered outbound queue drained by writeLoop.
type Client struct {
	playerID uuid.UUID
	name     string

	conn *websocket.Conn
	send chan Message
	log  *logrus.Entry
}

func newClient(playerID uuid.UUID, name string, conn *websocket.Conn, log *logrus.Logger) *Client {
	return &Client{
		playerID: playerID,
		name:     name,
		conn:     conn,
		send:     make(chan Message, sendBuffer),
		log:      log.WithField("player", playerID),
	}
}

// trySend queues a message for delivery. If the outbound buffer is full
// the connection is closed; the room must never block on a slow client.
func (c *Client) trySend(msg Message) {
	select {
	case c.send <- msg:
	default:
		c.log.Warn("outbound buffer full, dropping connection")
		c.conn.Close(websocket.StatusPolicyViolation, "client too slow")
	}
}

// readLoop decodes inbound envelopes and hands them to the gateway. It
// returns when the connection dies; the caller handles the disconnect.
func (c *Client) readLoop(ctx context.Context, g *Gateway) {
	for {
		var msg Message
		if err := wsjson.Read(ctx, c.conn, &msg); err != nil {
			status := websocket.CloseStatus(err)
			if status != websocket.StatusNormalClosure && status != websocket.StatusGoingAway {
				c.log.WithError(err).Debug("read failed")
			}
			return
		}
		g.handleMessage(c, msg)
	}
}

// writeLoop drains the outbound queue onto the socket.
func (c *Client) writeLoop(ctx context.Context) {
	for {
		select {
		case msg := <-c.send:
			writeCtx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := wsjson.Write(writeCtx, c.conn, msg)
			cancel()
			if err != nil {
				c.log.WithError(err).Debug("write failed")
				c.conn.Close(websocket.StatusAbnormalClosure, "write failed")
				return
			}
		case <-ctx.Done():
			return
		}
	}
}
