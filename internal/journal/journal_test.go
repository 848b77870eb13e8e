package journal

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/nerrad567/radiomesh/internal/infrastructure/database"
)

// newTestJournal creates a journal on a temporary database.
func newTestJournal(t *testing.T, retain int) *Journal {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "journal.db")
	db, err := database.Open(database.Config{
		Path:        dbPath,
		WALMode:     true,
		BusyTimeout: 5,
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() }) //nolint:errcheck // Test cleanup

	j, err := New(db, retain)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return j
}

func TestRecordAndRecent(t *testing.T) {
	j := newTestJournal(t, 0)
	ctx := context.Background()

	if err := j.RecordPublished("sensors/kitchen/temp", []byte("21.5")); err != nil {
		t.Fatalf("RecordPublished() error = %v", err)
	}
	if err := j.RecordReceived("actuators/valve", []byte("open"), "02:00:00:00:00:09", -47); err != nil {
		t.Fatalf("RecordReceived() error = %v", err)
	}

	entries, err := j.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("Recent() returned %d entries, want 2", len(entries))
	}

	// Newest first.
	got := entries[0]
	if got.Direction != DirectionReceived {
		t.Errorf("Direction = %q, want %q", got.Direction, DirectionReceived)
	}
	if got.Topic != "actuators/valve" {
		t.Errorf("Topic = %q, want %q", got.Topic, "actuators/valve")
	}
	if string(got.Payload) != "open" {
		t.Errorf("Payload = %q, want %q", got.Payload, "open")
	}
	if got.Source != "02:00:00:00:00:09" {
		t.Errorf("Source = %q, want %q", got.Source, "02:00:00:00:00:09")
	}
	if got.RSSI != -47 {
		t.Errorf("RSSI = %d, want -47", got.RSSI)
	}
	if got.RecordedAt == "" {
		t.Error("RecordedAt is empty")
	}

	published := entries[1]
	if published.Direction != DirectionPublished {
		t.Errorf("Direction = %q, want %q", published.Direction, DirectionPublished)
	}
	if published.Source != "" {
		t.Errorf("Source = %q, want empty for published messages", published.Source)
	}
}

func TestRetentionPrunesOldest(t *testing.T) {
	j := newTestJournal(t, 5)
	ctx := context.Background()

	for i := 0; i < 12; i++ {
		if err := j.RecordPublished(fmt.Sprintf("t/%d", i), []byte("x")); err != nil {
			t.Fatalf("RecordPublished(%d) error = %v", i, err)
		}
	}

	count, err := j.Count(ctx, DirectionPublished)
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if count != 5 {
		t.Errorf("Count() = %d, want 5 (retention cap)", count)
	}

	// The survivors are the newest five.
	entries, err := j.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(entries) != 5 {
		t.Fatalf("Recent() returned %d entries, want 5", len(entries))
	}
	if entries[0].Topic != "t/11" {
		t.Errorf("newest topic = %q, want %q", entries[0].Topic, "t/11")
	}
	if entries[4].Topic != "t/7" {
		t.Errorf("oldest surviving topic = %q, want %q", entries[4].Topic, "t/7")
	}
}

func TestRetentionIsPerDirection(t *testing.T) {
	j := newTestJournal(t, 3)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if err := j.RecordPublished(fmt.Sprintf("out/%d", i), []byte("x")); err != nil {
			t.Fatalf("RecordPublished() error = %v", err)
		}
		if err := j.RecordReceived(fmt.Sprintf("in/%d", i), []byte("x"), "02:00:00:00:00:01", -50); err != nil {
			t.Fatalf("RecordReceived() error = %v", err)
		}
	}

	for _, direction := range []string{DirectionPublished, DirectionReceived} {
		count, err := j.Count(ctx, direction)
		if err != nil {
			t.Fatalf("Count(%s) error = %v", direction, err)
		}
		if count != 3 {
			t.Errorf("Count(%s) = %d, want 3", direction, count)
		}
	}
}

func TestZeroRetainKeepsEverything(t *testing.T) {
	j := newTestJournal(t, 0)
	ctx := context.Background()

	for i := 0; i < 20; i++ {
		if err := j.RecordPublished("t", []byte("x")); err != nil {
			t.Fatalf("RecordPublished() error = %v", err)
		}
	}

	count, err := j.Count(ctx, DirectionPublished)
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if count != 20 {
		t.Errorf("Count() = %d, want 20", count)
	}
}
