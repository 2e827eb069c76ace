// Package history publishes an ordered audit trail of session actions to
// a Redis stream. It is optional: a nil Publisher silently drops
// records, so rooms never depend on Redis being configured.
package history

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Stream is the Redis stream key all action records are appended to.
const Stream = "crapette:actions"

// Record is one entry of a session's action history.
type Record struct {
	SessionID   uuid.UUID      `json:"sessionId"`
	ActionIndex int            `json:"actionIndex"`
	ActorID     uuid.UUID      `json:"actorId"` // Nil for lifecycle events
	Kind        string         `json:"kind"`
	Payload     map[string]any `json:"payload,omitempty"`
	Timestamp   int64          `json:"timestamp"` // unix millis
}

// Publisher appends records to the action stream.
type Publisher struct {
	rdb *redis.Client
}

// NewPublisher connects to Redis at addr. An empty addr disables history
// and returns nil.
func NewPublisher(addr string) *Publisher {
	if addr == "" {
		return nil
	}
	return &Publisher{rdb: redis.NewClient(&redis.Options{Addr: addr})}
}

// Publish appends one record. Safe to call on a nil Publisher.
func (p *Publisher) Publish(ctx context.Context, rec Record) error {
	if p == nil {
		return nil
	}
	body, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal action record: %w", err)
	}
	return p.rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: Stream,
		Values: map[string]any{"record": body},
	}).Err()
}

// Close releases the Redis connection. Safe on nil.
func (p *Publisher) Close() error {
	if p == nil {
		return nil
	}
	return p.rdb.Close()
}
