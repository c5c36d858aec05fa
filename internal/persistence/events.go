package persistence

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/yangxiaofu/the-owners-sim-sub011/internal/calendar"
	"github.com/yangxiaofu/the-owners-sim-sub011/internal/event"
)

// The events table is append-only: rows are inserted once and later marked
// executed with a result payload, never deleted. Every query takes a
// dynasty id so parallel playthroughs can never see each other's rows.

const selectEvent = `SELECT seq, id, dynasty_id, kind, date, payload, result, executed FROM events`

// eventRow is the scan target for event queries. The JSON columns come
// back from the driver as TEXT or NULL, neither of which database/sql will
// put into a json.RawMessage directly, so rows go through NullString and
// convert on the way out.
type eventRow struct {
	Seq      int64          `db:"seq"`
	ID       string         `db:"id"`
	Dynasty  string         `db:"dynasty_id"`
	Kind     event.Kind     `db:"kind"`
	Date     calendar.Date  `db:"date"`
	Payload  sql.NullString `db:"payload"`
	Result   sql.NullString `db:"result"`
	Executed bool           `db:"executed"`
}

func (r eventRow) toEvent() event.Event {
	e := event.Event{
		Seq:      r.Seq,
		ID:       r.ID,
		Dynasty:  r.Dynasty,
		Kind:     r.Kind,
		Date:     r.Date,
		Executed: r.Executed,
	}
	if r.Payload.Valid {
		e.Payload = json.RawMessage(r.Payload.String)
	}
	if r.Result.Valid {
		e.Result = json.RawMessage(r.Result.String)
	}
	return e
}

func toEvents(rows []eventRow) []event.Event {
	if rows == nil {
		return nil
	}
	out := make([]event.Event, len(rows))
	for i, r := range rows {
		out[i] = r.toEvent()
	}
	return out
}

// InsertEvent appends an event. Returns event.ErrDuplicateEvent when the
// (dynasty, id) pair already exists.
func (db *DB) InsertEvent(e *event.Event) error {
	res, err := db.conn.Exec(
		`INSERT INTO events (id, dynasty_id, kind, date, payload, result, executed)
		 VALUES (?, ?, ?, ?, ?, NULL, 0)`,
		e.ID, e.Dynasty, string(e.Kind), e.Date, nullable(e.Payload),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return fmt.Errorf("insert event %s for %s: %w", e.ID, e.Dynasty, event.ErrDuplicateEvent)
		}
		return fmt.Errorf("insert event %s: %w", e.ID, err)
	}
	if seq, err := res.LastInsertId(); err == nil {
		e.Seq = seq
	}
	return nil
}

// EventsOn returns the dynasty's events scheduled for exactly date, in
// insertion order. An empty slice is a valid result.
func (db *DB) EventsOn(dynasty string, date calendar.Date) ([]event.Event, error) {
	var rows []eventRow
	err := db.conn.Select(&rows,
		selectEvent+` WHERE dynasty_id = ? AND date = ? ORDER BY seq`,
		dynasty, date,
	)
	if err != nil {
		return nil, fmt.Errorf("events on %s for %s: %w", date, dynasty, err)
	}
	return toEvents(rows), nil
}

// EventsInRange returns the dynasty's events with start <= date <= end,
// optionally filtered by kind (empty kind means all kinds). Ordered by
// date, then insertion order. Used by the calendar read-model and for
// bracket bookkeeping.
func (db *DB) EventsInRange(dynasty string, start, end calendar.Date, kind event.Kind) ([]event.Event, error) {
	query := selectEvent + ` WHERE dynasty_id = ? AND date >= ? AND date <= ?`
	args := []any{dynasty, start, end}
	if kind != "" {
		query += ` AND kind = ?`
		args = append(args, string(kind))
	}
	query += ` ORDER BY date, seq`

	var rows []eventRow
	if err := db.conn.Select(&rows, query, args...); err != nil {
		return nil, fmt.Errorf("events in [%s, %s] for %s: %w", start, end, dynasty, err)
	}
	return toEvents(rows), nil
}

// NextMilestoneAfter returns the dynasty's first milestone event strictly
// after date. ok is false when no milestone remains on the calendar.
func (db *DB) NextMilestoneAfter(dynasty string, date calendar.Date) (event.Event, bool, error) {
	var row eventRow
	err := db.conn.Get(&row,
		selectEvent+` WHERE dynasty_id = ? AND kind = ? AND date > ? ORDER BY date, seq LIMIT 1`,
		dynasty, string(event.KindMilestone), date,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return event.Event{}, false, nil
	}
	if err != nil {
		return event.Event{}, false, fmt.Errorf("next milestone after %s for %s: %w", date, dynasty, err)
	}
	return row.toEvent(), true, nil
}

// MarkExecuted attaches a result to an event and marks it executed. The
// row itself is never removed.
func (db *DB) MarkExecuted(dynasty, id string, result json.RawMessage) error {
	res, err := db.conn.Exec(
		`UPDATE events SET executed = 1, result = ? WHERE dynasty_id = ? AND id = ?`,
		nullable(result), dynasty, id,
	)
	if err != nil {
		return fmt.Errorf("mark executed %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("mark executed %s: no such event for %s", id, dynasty)
	}
	return nil
}

// nullable keeps empty JSON payloads as SQL NULL instead of empty strings.
func nullable(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	return string(raw)
}
