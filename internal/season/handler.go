// Package season drives the league calendar: one handler per phase plus
// the cycle controller that advances days, runs due events, checks phase
// transitions, and commits state.
package season

import (
	"encoding/json"
	"errors"

	"github.com/yangxiaofu/the-owners-sim-sub011/internal/calendar"
	"github.com/yangxiaofu/the-owners-sim-sub011/internal/event"
	"github.com/yangxiaofu/the-owners-sim-sub011/internal/persistence"
	"github.com/yangxiaofu/the-owners-sim-sub011/internal/phase"
)

// Counters are the phase-specific counters a handler reports back after
// assessing a day. The controller folds them into the state it commits.
type Counters struct {
	Week  int
	Round int
}

// HandlerResult summarizes the scheduling work a handler did for one day,
// before events execute.
type HandlerResult struct {
	EventsScheduled int
}

// Handler is the per-phase "simulate one day" strategy. Handlers read the
// clock's date as an argument and may insert events, but never mutate the
// committed state or the clock; counters flow back through Assess.
type Handler interface {
	Phase() phase.Phase

	// Enter runs when the dynasty transitions into this phase, on the
	// boundary date itself. It seeds the phase's scheduled events and
	// initializes phase counters on the working state.
	Enter(st *persistence.State) error

	// SimulateDay runs before event execution and may enqueue same-day
	// work.
	SimulateDay(st persistence.State, date calendar.Date) (HandlerResult, error)

	// Assess folds the day's execution results into the transition
	// outcome and the counters to commit.
	Assess(st persistence.State, date calendar.Date, res event.ExecutionResult) (phase.Outcome, Counters, error)
}

// GamePayload is the payload attached to game events. Round 0 means a
// regular-season game.
type GamePayload struct {
	Home  string `json:"home"`
	Away  string `json:"away"`
	Week  int    `json:"week,omitempty"`
	Round int    `json:"round,omitempty"`
}

// insertScheduled inserts an event with a deterministic id, treating a
// duplicate as already-scheduled. Keeps phase entry idempotent when a
// boundary day is replayed after a failed commit.
func insertScheduled(db *persistence.DB, e *event.Event) error {
	err := db.InsertEvent(e)
	if errors.Is(err, event.ErrDuplicateEvent) {
		return nil
	}
	return err
}

func marshalPayload(v any) (json.RawMessage, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return raw, nil
}

// executedGames extracts the day's successfully executed game events.
func executedGames(res event.ExecutionResult) []event.Event {
	var out []event.Event
	for _, e := range res.Events {
		if e.Kind == event.KindGame && e.Executed {
			out = append(out, e)
		}
	}
	return out
}

// gameFailures reports whether any game event failed to execute.
func gameFailures(res event.ExecutionResult) bool {
	for _, f := range res.Failures {
		if f.Kind == event.KindGame {
			return true
		}
	}
	return false
}
