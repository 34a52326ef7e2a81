package events

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

// timeLayout is a fixed-width RFC3339 variant. Trailing fractional
// zeros are kept so that lexicographic order of stored timestamps
// matches time order; RFC3339Nano strips them and breaks ORDER BY for
// events within the same second.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// Repository persists sensing events in SQLite.
type Repository struct {
	db *sql.DB
}

// NewRepository creates an event repository over an open connection.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Record inserts a new event with a generated ID and the current time.
//
// Parameters:
//   - ctx: Context for cancellation and timeout
//   - eventType: TypeLamp or TypePresence
//   - lampState: Commanded lamp state at the time of the event (0|1)
//   - presence: Sensed presence at the time of the event
//   - brightness: Sensed brightness at the time of the event
//
// Returns:
//   - Event: The stored event including ID and timestamp
//   - error: nil on success, otherwise the underlying database error
func (r *Repository) Record(ctx context.Context, eventType string, lampState int, presence bool, brightness float64) (Event, error) {
	if eventType != TypeLamp && eventType != TypePresence {
		return Event{}, fmt.Errorf("%w: %q", ErrInvalidType, eventType)
	}

	ev := Event{
		ID:         uuid.New().String(),
		Type:       eventType,
		LampState:  lampState,
		Presence:   presence,
		Brightness: brightness,
		CreatedAt:  time.Now().UTC(),
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO events (id, type, lamp_state, presence, brightness, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		ev.ID,
		ev.Type,
		ev.LampState,
		boolToInt(ev.Presence),
		ev.Brightness,
		ev.CreatedAt.Format(timeLayout),
	)
	if err != nil {
		return Event{}, fmt.Errorf("inserting event: %w", err)
	}

	return ev, nil
}

// ListRecent returns recent events ordered newest first.
//
// Limit defaults to 50 and is capped at 200.
func (r *Repository) ListRecent(ctx context.Context, limit int) ([]Event, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, type, lamp_state, presence, brightness, created_at
		 FROM events
		 ORDER BY created_at DESC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying events: %w", err)
	}
	defer rows.Close()

	list := make([]Event, 0, limit)
	for rows.Next() {
		var ev Event
		var presence int
		var createdAt string

		if err := rows.Scan(&ev.ID, &ev.Type, &ev.LampState, &presence, &ev.Brightness, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning event: %w", err)
		}
		ev.Presence = presence != 0
		ev.CreatedAt, err = time.Parse(timeLayout, createdAt)
		if err != nil {
			return nil, fmt.Errorf("parsing event timestamp: %w", err)
		}

		list = append(list, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating events: %w", err)
	}

	return list, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
