package persistence

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"

	"github.com/yangxiaofu/the-owners-sim-sub011/internal/calendar"
	"github.com/yangxiaofu/the-owners-sim-sub011/internal/phase"
)

// State is the durable snapshot of one dynasty's position in the league
// calendar. The coordinator owns all writes; the season controller holds a
// cached copy that is only replaced after a successful commit.
type State struct {
	Dynasty string        `db:"dynasty_id" json:"dynasty"`
	Date    calendar.Date `db:"date" json:"date"`
	Phase   phase.Phase   `db:"phase" json:"phase"`
	Year    int           `db:"season_year" json:"season_year"`
	Week    int           `db:"week" json:"week"`
	Round   int           `db:"playoff_round" json:"playoff_round"`
}

func (s State) summary() string {
	return fmt.Sprintf("(%s %s y%d w%d r%d)", s.Date, s.Phase, s.Year, s.Week, s.Round)
}

func (s State) equal(other State) bool {
	return s.Dynasty == other.Dynasty &&
		s.Date.Equal(other.Date) &&
		s.Phase == other.Phase &&
		s.Year == other.Year &&
		s.Week == other.Week &&
		s.Round == other.Round
}

const selectState = `SELECT dynasty_id, date, phase, season_year, week, playoff_round
	FROM dynasty_state WHERE dynasty_id = ?`

// LoadState reads the durable snapshot for a dynasty. ok is false when the
// dynasty has never been committed.
func (db *DB) LoadState(dynasty string) (State, bool, error) {
	var st State
	err := db.conn.Get(&st, selectState, dynasty)
	if errors.Is(err, sql.ErrNoRows) {
		return State{}, false, nil
	}
	if err != nil {
		return State{}, false, fmt.Errorf("load state for %s: %w", dynasty, err)
	}
	return st, true, nil
}

// Coordinator performs the atomic state commit: pre-commit consistency
// check, write, and read-back verification inside one immediate
// transaction. Any failure rolls the whole transaction back and surfaces a
// typed error; there is no silent-failure path.
type Coordinator struct {
	db *DB

	// writeFault is a fault-injection point for tests: when set, it runs
	// inside the transaction in place of a storage-level write failure.
	writeFault func(tx *sqlx.Tx) error
}

// NewCoordinator builds a coordinator over db.
func NewCoordinator(db *DB) *Coordinator {
	return &Coordinator{db: db}
}

// Commit durably replaces the dynasty's state with next. prev must be the
// caller's cached copy of the last committed state; a zero-date prev means
// the dynasty is being committed for the first time. On any error the
// durable row is untouched and the caller must keep its cache at prev.
func (c *Coordinator) Commit(prev, next State) error {
	if next.Dynasty == "" {
		return &WriteError{Dynasty: next.Dynasty, Step: "precheck", Err: errors.New("empty dynasty id")}
	}

	tx, err := c.db.conn.Beginx()
	if err != nil {
		return &WriteError{Dynasty: next.Dynasty, Step: "begin", Err: err}
	}
	defer tx.Rollback()

	// Pre-commit check: the durable row must still match what the caller
	// believes was last committed.
	var cur State
	err = tx.Get(&cur, selectState, next.Dynasty)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		if !prev.Date.IsZero() {
			return &ConsistencyError{Dynasty: next.Dynasty, Expected: prev.summary(), Actual: "no durable row"}
		}
	case err != nil:
		return &WriteError{Dynasty: next.Dynasty, Step: "precheck", Err: err}
	default:
		if prev.Date.IsZero() {
			return &ConsistencyError{Dynasty: next.Dynasty, Expected: "no durable row", Actual: cur.summary()}
		}
		if !cur.equal(prev) {
			return &ConsistencyError{Dynasty: next.Dynasty, Expected: prev.summary(), Actual: cur.summary()}
		}
	}

	// Write.
	if c.writeFault != nil {
		if ferr := c.writeFault(tx); ferr != nil {
			return &WriteError{Dynasty: next.Dynasty, Step: "write", Err: ferr}
		}
	}
	_, err = tx.Exec(`INSERT INTO dynasty_state (dynasty_id, date, phase, season_year, week, playoff_round)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(dynasty_id) DO UPDATE SET
			date = excluded.date,
			phase = excluded.phase,
			season_year = excluded.season_year,
			week = excluded.week,
			playoff_round = excluded.playoff_round`,
		next.Dynasty, next.Date, string(next.Phase), next.Year, next.Week, next.Round,
	)
	if err != nil {
		return &WriteError{Dynasty: next.Dynasty, Step: "write", Err: err}
	}

	// Read-back verification, still inside the transaction.
	var verify State
	if err := tx.Get(&verify, selectState, next.Dynasty); err != nil {
		return &WriteError{Dynasty: next.Dynasty, Step: "verify", Err: err}
	}
	if !verify.equal(next) {
		return &ConsistencyError{Dynasty: next.Dynasty, Expected: next.summary(), Actual: verify.summary()}
	}

	if err := tx.Commit(); err != nil {
		return &WriteError{Dynasty: next.Dynasty, Step: "commit", Err: err}
	}

	slog.Debug("state committed",
		"dynasty", next.Dynasty,
		"date", next.Date,
		"phase", next.Phase,
		"year", next.Year,
		"week", next.Week,
	)
	return nil
}
