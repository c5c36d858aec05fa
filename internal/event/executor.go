package event

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/yangxiaofu/the-owners-sim-sub011/internal/calendar"
)

// ExecFunc runs one event and returns its result payload. Registered per
// Kind by the owning collaborator (game resolution, offseason logic, ...).
type ExecFunc func(e *Event) (json.RawMessage, error)

// Failure records one event that could not be executed. Failures are
// collected, never thrown: one bad event must not abort its siblings.
type Failure struct {
	EventID string `json:"event_id"`
	Kind    Kind   `json:"kind"`
	Reason  string `json:"reason"`
}

// ExecutionResult summarizes one day's event run. Events holds everything
// due on the date, including events already executed on an earlier pass over
// the same day; Replayed counts those, so downstream phase logic can judge
// the full day rather than only the fresh work.
type ExecutionResult struct {
	Date     calendar.Date `json:"date"`
	Events   []Event       `json:"events"`
	Failures []Failure     `json:"failures,omitempty"`
	Replayed int           `json:"replayed,omitempty"`
}

// Executed returns the number of events that ran successfully on this pass.
func (r ExecutionResult) Executed() int {
	return len(r.Events) - len(r.Failures) - r.Replayed
}

// Executor runs every due event for a date through its kind's registered
// collaborator and attaches results back onto the store.
type Executor struct {
	store Store
	funcs map[Kind]ExecFunc
}

// NewExecutor creates an executor over the given store.
func NewExecutor(store Store) *Executor {
	return &Executor{store: store, funcs: make(map[Kind]ExecFunc)}
}

// Register wires the execution behavior for one event kind. Later
// registrations replace earlier ones.
func (x *Executor) Register(k Kind, fn ExecFunc) {
	x.funcs[k] = fn
}

// ExecuteDay fetches the dynasty's events scheduled for date and runs each
// one exactly once. Already-executed events (left over from a day replayed
// after a failed state commit) are not re-run, but they still appear in the
// result so the day's outcome can be recomputed from the full slate.
// Per-event failures land in the result; only a store read failure aborts
// the whole batch.
func (x *Executor) ExecuteDay(dynasty string, date calendar.Date) (ExecutionResult, error) {
	res := ExecutionResult{Date: date}

	due, err := x.store.EventsOn(dynasty, date)
	if err != nil {
		return res, fmt.Errorf("fetch events for %s on %s: %w", dynasty, date, err)
	}

	for i := range due {
		e := due[i]
		if e.Executed {
			res.Events = append(res.Events, e)
			res.Replayed++
			continue
		}

		fn, ok := x.funcs[e.Kind]
		if !ok {
			res.Events = append(res.Events, e)
			res.Failures = append(res.Failures, Failure{
				EventID: e.ID,
				Kind:    e.Kind,
				Reason:  fmt.Sprintf("no executor registered for kind %q", e.Kind),
			})
			continue
		}

		result, execErr := fn(&e)
		if execErr != nil {
			slog.Warn("event execution failed",
				"dynasty", dynasty,
				"event", e.ID,
				"kind", e.Kind,
				"date", date,
				"error", execErr,
			)
			res.Events = append(res.Events, e)
			res.Failures = append(res.Failures, Failure{EventID: e.ID, Kind: e.Kind, Reason: execErr.Error()})
			continue
		}

		if err := x.store.MarkExecuted(dynasty, e.ID, result); err != nil {
			res.Events = append(res.Events, e)
			res.Failures = append(res.Failures, Failure{
				EventID: e.ID,
				Kind:    e.Kind,
				Reason:  fmt.Sprintf("mark executed: %v", err),
			})
			continue
		}

		e.Executed = true
		e.Result = result
		res.Events = append(res.Events, e)
	}

	return res, nil
}
