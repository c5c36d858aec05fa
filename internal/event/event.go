// Package event defines the scheduled league events and the executor that
// runs every event due on a simulated date.
package event

import (
	"encoding/json"
	"errors"

	"github.com/google/uuid"

	"github.com/yangxiaofu/the-owners-sim-sub011/internal/calendar"
)

// Kind tags the closed set of event categories. Each kind is executed by a
// collaborator registered with the Executor.
type Kind string

const (
	KindGame      Kind = "game"
	KindDeadline  Kind = "deadline"
	KindWindow    Kind = "window"
	KindMilestone Kind = "milestone"
)

// ErrDuplicateEvent is returned by the store when an event identifier
// already exists within a dynasty. Local and non-fatal: the scheduler that
// attempted the insert decides whether it matters.
var ErrDuplicateEvent = errors.New("duplicate event id")

// Event is a unit of work bound to one date inside one dynasty. Events are
// never deleted; execution marks them executed and attaches a result, so
// the events table doubles as an audit trail.
type Event struct {
	Seq      int64           `json:"-"`
	ID       string          `json:"id"`
	Dynasty  string          `json:"dynasty"`
	Kind     Kind            `json:"kind"`
	Date     calendar.Date   `json:"date"`
	Payload  json.RawMessage `json:"payload,omitempty"`
	Result   json.RawMessage `json:"result,omitempty"`
	Executed bool            `json:"executed"`
}

// New builds an event with a random identifier. Schedulers that need
// idempotent re-insertion (schedule seeding after a failed commit) should
// set a deterministic ID instead and treat ErrDuplicateEvent as benign.
func New(dynasty string, kind Kind, date calendar.Date, payload any) (*Event, error) {
	var raw json.RawMessage
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		raw = b
	}
	return &Event{
		ID:      uuid.NewString(),
		Dynasty: dynasty,
		Kind:    kind,
		Date:    date,
		Payload: raw,
	}, nil
}

// Store is the durable event collection the executor reads from. The
// persistence package provides the SQLite implementation; every method is
// scoped to one dynasty.
type Store interface {
	InsertEvent(e *Event) error
	EventsOn(dynasty string, date calendar.Date) ([]Event, error)
	MarkExecuted(dynasty, id string, result json.RawMessage) error
}
