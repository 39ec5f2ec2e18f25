package audit

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// PGRecorder writes usage events to a usage_log table instead of the flat
// file. Selected when DATABASE_URL is configured.
type PGRecorder struct {
	pool *pgxpool.Pool
	log  zerolog.Logger
}

func NewPGRecorder(pool *pgxpool.Pool, logger zerolog.Logger) *PGRecorder {
	return &PGRecorder{pool: pool, log: logger}
}

// EnsureSchema creates the usage_log table if it does not exist.
func (r *PGRecorder) EnsureSchema(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS usage_log (
			id          BIGSERIAL PRIMARY KEY,
			username    TEXT NOT NULL,
			role        TEXT NOT NULL DEFAULT '',
			recorded_at TIMESTAMPTZ NOT NULL,
			event       TEXT NOT NULL,
			action      TEXT NOT NULL DEFAULT ''
		)`)
	return err
}

// Record inserts one event row. Failures are logged, never returned.
func (r *PGRecorder) Record(ctx context.Context, username, role, event, action string) {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO usage_log (username, role, recorded_at, event, action)
		 VALUES ($1, $2, $3, $4, $5)`,
		username, role, time.Now().UTC(), event, action)
	if err != nil {
		r.log.Error().Err(err).Msg("usage log insert failed")
	}
}

// Tail returns the newest limit entries, newest first.
func (r *PGRecorder) Tail(ctx context.Context, limit int) ([]Entry, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT username, role, recorded_at, event, action
		 FROM usage_log ORDER BY id DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Username, &e.Role, &e.Timestamp, &e.Event, &e.Action); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
