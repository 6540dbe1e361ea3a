package store

import (
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a requested resource does not exist.
var ErrNotFound = errors.New("not found")

// Event is one accepted gesture event recorded for history.
type Event struct {
	ID         string
	Gesture    string
	DetectedAt time.Time
	CreatedAt  time.Time
}

// EventRepository provides access to the gesture event history.
type EventRepository struct {
	db *sql.DB
}

// Events returns the event repository for this store.
func (s *Store) Events() *EventRepository {
	return &EventRepository{db: s.db}
}

// Record inserts an accepted gesture event. A fresh ID is assigned when
// the caller left it empty.
func (r *EventRepository) Record(e *Event) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	e.CreatedAt = time.Now()

	_, err := r.db.Exec(
		`INSERT INTO events (id, gesture, detected_at, created_at)
		 VALUES (?, ?, ?, ?)`,
		e.ID, e.Gesture, e.DetectedAt, e.CreatedAt,
	)
	return err
}

// Recent returns up to limit events, newest first.
func (r *EventRepository) Recent(limit int) ([]*Event, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.db.Query(
		`SELECT id, gesture, detected_at, created_at
		 FROM events ORDER BY detected_at DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*Event
	for rows.Next() {
		e := &Event{}
		if err := rows.Scan(&e.ID, &e.Gesture, &e.DetectedAt, &e.CreatedAt); err != nil {
			return nil, err
		}
		events = append(events, e)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return events, nil
}

// GetByID retrieves one recorded event.
func (r *EventRepository) GetByID(id string) (*Event, error) {
	e := &Event{}

	err := r.db.QueryRow(
		`SELECT id, gesture, detected_at, created_at
		 FROM events WHERE id = ?`,
		id,
	).Scan(&e.ID, &e.Gesture, &e.DetectedAt, &e.CreatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return e, nil
}

// Prune removes events detected before the cutoff and returns how many
// rows were deleted.
func (r *EventRepository) Prune(before time.Time) (int64, error) {
	result, err := r.db.Exec(`DELETE FROM events WHERE detected_at < ?`, before)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
