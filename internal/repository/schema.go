package repository

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
)

// schema is applied idempotently at startup.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		uid           TEXT PRIMARY KEY,
		email         TEXT NOT NULL DEFAULT '',
		name          TEXT NOT NULL DEFAULT '',
		picture       TEXT NOT NULL DEFAULT '',
		role          TEXT NOT NULL DEFAULT 'user',
		favorites     TEXT[] NOT NULL DEFAULT '{}',
		favorite_team TEXT,
		display_name  TEXT,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS discussion_messages (
		id          UUID PRIMARY KEY,
		thread_date TEXT NOT NULL,
		uid         TEXT NOT NULL DEFAULT '',
		name        TEXT NOT NULL,
		text        TEXT NOT NULL,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS discussion_messages_thread_idx
		ON discussion_messages (thread_date, created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS predictions (
		id                   SERIAL PRIMARY KEY,
		event_id             TEXT NOT NULL,
		model_name           TEXT NOT NULL,
		model_version        TEXT,
		home_team            TEXT NOT NULL,
		away_team            TEXT NOT NULL,
		commence_time        TIMESTAMPTZ,
		predicted_home_score DOUBLE PRECISION NOT NULL,
		predicted_away_score DOUBLE PRECISION NOT NULL,
		predicted_margin     DOUBLE PRECISION NOT NULL,
		predicted_winner     TEXT NOT NULL,
		predicted_at         TIMESTAMPTZ NOT NULL,
		created_at           TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS predictions_event_idx
		ON predictions (event_id, predicted_at DESC)`,
}

// EnsureSchema creates the tables and indexes if they do not exist.
func (db *Database) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := db.Pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	log.Info().Int("statements", len(schema)).Msg("Database schema ensured")
	return nil
}
