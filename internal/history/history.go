// Package history records schedule lifecycle events in an embedded
// sqlite database so past activations survive the volatile registry.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// Event is one recorded schedule operation.
type Event struct {
	OccurredAt time.Time
	Pgid       int
	Op         string // "add", "activate", "terminate"
	Start      int64
	Duration   int64
	Caption    string
}

// Sink writes and lists events. A nil *Sink discards everything, so
// callers need no history-enabled check at each site.
type Sink struct {
	db *sql.DB
}

// Open creates a sink for the given DSN. Accepted forms follow the
// sqlite driver: a plain path, ":memory:", or a "sqlite://" prefixed
// variant of either.
func Open(dsn string) (*Sink, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return nil, errors.New("history: empty DSN")
	}
	if strings.HasPrefix(strings.ToLower(dsn), "sqlite://") {
		dsn = dsn[len("sqlite://"):]
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("history: open %s: %w", dsn, err)
	}

	s := &Sink{db: db}
	if err := s.ensureSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Sink) ensureSchema(ctx context.Context) error {
	stmt := `CREATE TABLE IF NOT EXISTS schedule_history(
		occurred_at TIMESTAMP NOT NULL DEFAULT (CURRENT_TIMESTAMP),
		pgid INTEGER NOT NULL,
		op TEXT NOT NULL,
		start INTEGER NOT NULL,
		duration INTEGER NOT NULL,
		caption TEXT NOT NULL
	);`
	_, err := s.db.ExecContext(ctx, stmt)
	return err
}

// Record appends one event. Recording to a nil sink is a no-op.
func (s *Sink) Record(ctx context.Context, e Event) error {
	if s == nil {
		return nil
	}
	occur := e.OccurredAt
	if occur.IsZero() {
		occur = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO schedule_history(occurred_at, pgid, op, start, duration, caption)
		VALUES(?, ?, ?, ?, ?, ?);`,
		occur.UTC(), e.Pgid, e.Op, e.Start, e.Duration, e.Caption)
	if err != nil {
		return fmt.Errorf("history: record: %w", err)
	}
	return nil
}

// List returns up to limit events, most recent first.
func (s *Sink) List(ctx context.Context, limit int) ([]Event, error) {
	if s == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT occurred_at, pgid, op, start, duration, caption
		FROM schedule_history ORDER BY occurred_at DESC, rowid DESC LIMIT ?;`, limit)
	if err != nil {
		return nil, fmt.Errorf("history: list: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var events []Event
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.OccurredAt, &e.Pgid, &e.Op, &e.Start, &e.Duration, &e.Caption); err != nil {
			return nil, fmt.Errorf("history: scan: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// Close releases the database handle.
func (s *Sink) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
