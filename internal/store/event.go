package store

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// Event is one journaled gesture.
type Event struct {
	ID        string    `json:"id"`
	SessionID string    `json:"sessionId"`
	Type      string    `json:"type"`
	Intensity int       `json:"intensity,omitempty"`
	HandIndex int       `json:"hand"`
	CreatedAt time.Time `json:"createdAt"`
}

// EventRepository journals gesture events.
type EventRepository struct {
	db *sql.DB
}

// Events returns the event repository for this store.
func (s *Store) Events() *EventRepository {
	return &EventRepository{db: s.db}
}

const eventColumns = `id, session_id, type, intensity, hand_index, created_at`

// Record inserts an event. A missing ID or timestamp is filled in.
func (r *EventRepository) Record(e *Event) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}

	_, err := r.db.Exec(
		`INSERT INTO gesture_events (`+eventColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		e.ID, e.SessionID, e.Type, e.Intensity, e.HandIndex, e.CreatedAt,
	)
	return err
}

// ListBySession returns a session's events, oldest first.
func (r *EventRepository) ListBySession(sessionID string) ([]*Event, error) {
	return r.query(
		`SELECT `+eventColumns+` FROM gesture_events WHERE session_id = ?
		 ORDER BY created_at, rowid`,
		sessionID,
	)
}

// Recent returns up to limit events across all sessions, newest first.
func (r *EventRepository) Recent(limit int) ([]*Event, error) {
	return r.query(
		`SELECT `+eventColumns+` FROM gesture_events
		 ORDER BY created_at DESC, rowid DESC LIMIT ?`,
		limit,
	)
}

// CountByType returns how many events of each type a session produced.
func (r *EventRepository) CountByType(sessionID string) (map[string]int, error) {
	rows, err := r.db.Query(
		`SELECT type, COUNT(*) FROM gesture_events WHERE session_id = ? GROUP BY type`,
		sessionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var t string
		var n int
		if err := rows.Scan(&t, &n); err != nil {
			return nil, err
		}
		counts[t] = n
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return counts, nil
}

func (r *EventRepository) query(q string, args ...any) ([]*Event, error) {
	rows, err := r.db.Query(q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*Event
	for rows.Next() {
		e := &Event{}
		if err := rows.Scan(&e.ID, &e.SessionID, &e.Type, &e.Intensity, &e.HandIndex, &e.CreatedAt); err != nil {
			return nil, err
		}
		events = append(events, e)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return events, nil
}
