// Package database archives session lifecycle records to Postgres. Like
// the history publisher it is optional: a nil Archive is a no-op, so the
// engine runs fully in memory when no database is configured.
package database

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Schema for the session archive. Applied on connect.
const schema = `
CREATE TABLE IF NOT EXISTS sessions (
	id          UUID PRIMARY KEY,
	snapshot    JSONB NOT NULL,
	started_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	ended_at    TIMESTAMPTZ,
	end_reason  TEXT
);`

// Archive stores session start/end records.
type Archive struct {
	pool *pgxpool.Pool
}

// Connect opens a pool against url and ensures the schema exists. An
// empty url disables archiving and returns a nil Archive.
func Connect(ctx context.Context, url string) (*Archive, error) {
	if url == "" {
		return nil, nil
	}
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Archive{pool: pool}, nil
}

// RecordSessionStart stores the initial snapshot of a freshly dealt
// session. Safe on a nil Archive.
func (a *Archive) RecordSessionStart(ctx context.Context, sessionID uuid.UUID, snapshot any) error {
	if a == nil {
		return nil
	}
	body, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	_, err = a.pool.Exec(ctx,
		`INSERT INTO sessions (id, snapshot) VALUES ($1, $2) ON CONFLICT (id) DO UPDATE SET snapshot = $2`,
		sessionID, body)
	return err
}

// RecordSessionEnd marks a session retired. Safe on a nil Archive.
func (a *Archive) RecordSessionEnd(ctx context.Context, sessionID uuid.UUID, reason string) error {
	if a == nil {
		return nil
	}
	_, err := a.pool.Exec(ctx,
		`UPDATE sessions SET ended_at = now(), end_reason = $2 WHERE id = $1`,
		sessionID, reason)
	return err
}

// Close releases the pool. Safe on nil.
func (a *Archive) Close() {
	if a != nil {
		a.pool.Close()
	}
}
