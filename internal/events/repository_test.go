package events

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// setupTestDB creates an in-memory SQLite database with the events table.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	schema := `
		CREATE TABLE events (
			id TEXT PRIMARY KEY,
			type TEXT NOT NULL,
			lamp_state INTEGER NOT NULL,
			presence INTEGER NOT NULL,
			brightness REAL NOT NULL,
			created_at TEXT NOT NULL
		);
		CREATE INDEX idx_events_created_at ON events(created_at DESC);
		CREATE INDEX idx_events_type ON events(type);
	`

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		t.Fatalf("failed to create test schema: %v", err)
	}

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

// insertEventRow inserts an event row with a specific timestamp, using
// the same format the repository writes.
func insertEventRow(t *testing.T, db *sql.DB, id, eventType string, createdAt time.Time) {
	t.Helper()

	_, err := db.Exec(
		"INSERT INTO events (id, type, lamp_state, presence, brightness, created_at) VALUES (?, ?, 0, 0, 0.5, ?)",
		id,
		eventType,
		createdAt.UTC().Format(timeLayout),
	)
	if err != nil {
		t.Fatalf("failed to insert event row: %v", err)
	}
}

func TestRecord(t *testing.T) {
	repo := NewRepository(setupTestDB(t))
	ctx := context.Background()

	ev, err := repo.Record(ctx, TypeLamp, 1, true, 0.312)
	if err != nil {
		t.Fatalf("Record() error = %v", err)
	}

	if ev.ID == "" {
		t.Error("Record() returned empty ID")
	}
	if ev.Type != TypeLamp || ev.LampState != 1 || !ev.Presence || ev.Brightness != 0.312 {
		t.Errorf("Record() = %+v", ev)
	}
	if ev.CreatedAt.IsZero() {
		t.Error("Record() returned zero timestamp")
	}
}

func TestRecord_InvalidType(t *testing.T) {
	repo := NewRepository(setupTestDB(t))

	_, err := repo.Record(context.Background(), "bogus", 0, false, 0)
	if !errors.Is(err, ErrInvalidType) {
		t.Errorf("Record() error = %v, want ErrInvalidType", err)
	}
}

func TestListRecent(t *testing.T) {
	repo := NewRepository(setupTestDB(t))
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if _, err := repo.Record(ctx, TypePresence, 0, i%2 == 0, float64(i)/10); err != nil {
			t.Fatalf("Record() error = %v", err)
		}
		// Distinct timestamps so ordering is deterministic.
		time.Sleep(2 * time.Millisecond)
	}

	got, err := repo.ListRecent(ctx, 3)
	if err != nil {
		t.Fatalf("ListRecent() error = %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("ListRecent() returned %d events, want 3", len(got))
	}
	for i := 1; i < len(got); i++ {
		if got[i].CreatedAt.After(got[i-1].CreatedAt) {
			t.Errorf("events not ordered newest first: %v before %v",
				got[i-1].CreatedAt, got[i].CreatedAt)
		}
	}
}

func TestListRecent_SameSecondOrdering(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db)

	// Fractions chosen so one is a string prefix of the other: ".1"
	// sorts after ".15" lexicographically unless trailing zeros are
	// kept in the stored form.
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	insertEventRow(t, db, "earlier", TypePresence, base.Add(100*time.Millisecond))
	insertEventRow(t, db, "later", TypePresence, base.Add(150*time.Millisecond))

	got, err := repo.ListRecent(context.Background(), 10)
	if err != nil {
		t.Fatalf("ListRecent() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("ListRecent() returned %d events, want 2", len(got))
	}
	if got[0].ID != "later" || got[1].ID != "earlier" {
		t.Errorf("order = [%s %s], want [later earlier]", got[0].ID, got[1].ID)
	}
}

func TestTimeLayoutIsFixedWidth(t *testing.T) {
	// Stored timestamps must all have the same length, or ORDER BY on
	// the text column diverges from time order.
	times := []time.Time{
		time.Date(2026, 3, 1, 12, 0, 0, 100000000, time.UTC),
		time.Date(2026, 3, 1, 12, 0, 0, 150000000, time.UTC),
		time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		time.Date(2026, 3, 1, 12, 0, 0, 999999999, time.UTC),
	}
	width := len(times[0].Format(timeLayout))
	for _, at := range times[1:] {
		if got := len(at.Format(timeLayout)); got != width {
			t.Errorf("Format(%v) width = %d, want %d", at, got, width)
		}
	}

	// Round-trip through the layout preserves the instant.
	for _, at := range times {
		parsed, err := time.Parse(timeLayout, at.Format(timeLayout))
		if err != nil {
			t.Fatalf("Parse() error = %v", err)
		}
		if !parsed.Equal(at) {
			t.Errorf("round trip = %v, want %v", parsed, at)
		}
	}
}

func TestListRecent_LimitBounds(t *testing.T) {
	repo := NewRepository(setupTestDB(t))
	ctx := context.Background()

	if _, err := repo.Record(ctx, TypeLamp, 0, false, 0.5); err != nil {
		t.Fatalf("Record() error = %v", err)
	}

	// Zero and negative limits fall back to the default; both queries
	// just need to succeed and return the one row.
	for _, limit := range []int{0, -5, 10000} {
		got, err := repo.ListRecent(ctx, limit)
		if err != nil {
			t.Fatalf("ListRecent(%d) error = %v", limit, err)
		}
		if len(got) != 1 {
			t.Errorf("ListRecent(%d) returned %d events, want 1", limit, len(got))
		}
	}
}

func TestListRecent_Empty(t *testing.T) {
	repo := NewRepository(setupTestDB(t))

	got, err := repo.ListRecent(context.Background(), 10)
	if err != nil {
		t.Fatalf("ListRecent() error = %v", err)
	}
	if len(got) != 0 {
		t.Errorf("ListRecent() returned %d events, want 0", len(got))
	}
}
