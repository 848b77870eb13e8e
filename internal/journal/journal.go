// Package journal persists message traffic to SQLite for diagnostics.
//
// Every published and received message is recorded with its topic,
// payload and, for received messages, source address and signal
// strength. The journal is strictly an observer: write failures are
// reported to the caller, which logs and carries on.
package journal

import (
	"context"
	"fmt"
	"time"

	"github.com/nerrad567/radiomesh/internal/infrastructure/database"
)

// Direction values stored in the messages table.
const (
	DirectionPublished = "published"
	DirectionReceived  = "received"
)

// writeTimeout bounds each journal write; the processing loop must not
// stall on a slow disk.
const writeTimeout = 2 * time.Second

// schema creates the journal table. Kept additive; the table is created
// on first open.
const schema = `
CREATE TABLE IF NOT EXISTS messages (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	direction   TEXT NOT NULL CHECK (direction IN ('published', 'received')),
	topic       TEXT NOT NULL,
	payload     BLOB NOT NULL,
	source      TEXT,
	rssi        INTEGER,
	recorded_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ', 'now'))
);
CREATE INDEX IF NOT EXISTS idx_messages_direction_id ON messages(direction, id);
`

// Entry is one journalled message.
type Entry struct {
	ID         int64
	Direction  string
	Topic      string
	Payload    []byte
	Source     string
	RSSI       int
	RecordedAt string
}

// Journal records message traffic in SQLite.
type Journal struct {
	db     *database.DB
	retain int
}

// New creates a journal on the given database, creating the schema if
// needed. retain caps rows kept per direction; zero keeps everything.
//
// Returns:
//   - *Journal: ready journal
//   - error: if schema creation fails
func New(db *database.DB, retain int) (*Journal, error) {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()

	if _, err := db.ExecContext(ctx, schema); err != nil {
		return nil, fmt.Errorf("creating journal schema: %w", err)
	}
	return &Journal{db: db, retain: retain}, nil
}

// RecordPublished records an outbound message.
func (j *Journal) RecordPublished(topic string, payload []byte) error {
	return j.record(DirectionPublished, topic, payload, "", 0)
}

// RecordReceived records an inbound message with its source and signal
// strength.
func (j *Journal) RecordReceived(topic string, payload []byte, source string, rssi int) error {
	return j.record(DirectionReceived, topic, payload, source, rssi)
}

func (j *Journal) record(direction, topic string, payload []byte, source string, rssi int) error {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()

	_, err := j.db.ExecContext(ctx,
		"INSERT INTO messages (direction, topic, payload, source, rssi) VALUES (?, ?, ?, ?, ?)",
		direction, topic, payload, source, rssi,
	)
	if err != nil {
		return fmt.Errorf("journalling %s message: %w", direction, err)
	}

	if j.retain > 0 {
		return j.prune(ctx, direction)
	}
	return nil
}

// prune deletes the oldest rows beyond the retention cap for one
// direction. SQLite's single-writer pool serialises it with the insert.
func (j *Journal) prune(ctx context.Context, direction string) error {
	_, err := j.db.ExecContext(ctx, `
		DELETE FROM messages
		WHERE direction = ?
		  AND id NOT IN (
			SELECT id FROM messages WHERE direction = ? ORDER BY id DESC LIMIT ?
		  )`,
		direction, direction, j.retain,
	)
	if err != nil {
		return fmt.Errorf("pruning journal: %w", err)
	}
	return nil
}

// Recent returns the newest entries, newest first, up to limit.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//   - limit: Maximum entries to return
//
// Returns:
//   - []Entry: journalled messages, newest first
//   - error: if the query fails
func (j *Journal) Recent(ctx context.Context, limit int) ([]Entry, error) {
	rows, err := j.db.DB.QueryContext(ctx, `
		SELECT id, direction, topic, payload, COALESCE(source, ''), COALESCE(rssi, 0), recorded_at
		FROM messages ORDER BY id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying journal: %w", err)
	}
	defer rows.Close() //nolint:errcheck // read-only cursor

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.Direction, &e.Topic, &e.Payload, &e.Source, &e.RSSI, &e.RecordedAt); err != nil {
			return nil, fmt.Errorf("scanning journal row: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating journal rows: %w", err)
	}
	return entries, nil
}

// Count returns the number of journalled messages for one direction.
func (j *Journal) Count(ctx context.Context, direction string) (int, error) {
	var count int
	err := j.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM messages WHERE direction = ?", direction).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting journal rows: %w", err)
	}
	return count, nil
}
