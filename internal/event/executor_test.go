package event

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yangxiaofu/the-owners-sim-sub011/internal/calendar"
)

// memStore is a minimal in-memory Store for executor tests; the SQLite
// implementation has its own tests under internal/persistence.
type memStore struct {
	events []Event
}

func (s *memStore) InsertEvent(e *Event) error {
	for _, existing := range s.events {
		if existing.Dynasty == e.Dynasty && existing.ID == e.ID {
			return ErrDuplicateEvent
		}
	}
	e.Seq = int64(len(s.events) + 1)
	s.events = append(s.events, *e)
	return nil
}

func (s *memStore) EventsOn(dynasty string, date calendar.Date) ([]Event, error) {
	var out []Event
	for _, e := range s.events {
		if e.Dynasty == dynasty && e.Date.Equal(date) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *memStore) MarkExecuted(dynasty, id string, result json.RawMessage) error {
	for i := range s.events {
		if s.events[i].Dynasty == dynasty && s.events[i].ID == id {
			s.events[i].Executed = true
			s.events[i].Result = result
			return nil
		}
	}
	return errors.New("not found")
}

func TestExecuteDayCollectsFailures(t *testing.T) {
	store := &memStore{}
	d := calendar.NewDate(2025, time.October, 12)

	for _, id := range []string{"g1", "g2", "g3"} {
		require.NoError(t, store.InsertEvent(&Event{ID: id, Dynasty: "alpha", Kind: KindGame, Date: d}))
	}

	x := NewExecutor(store)
	x.Register(KindGame, func(e *Event) (json.RawMessage, error) {
		if e.ID == "g2" {
			return nil, errors.New("resolver blew up")
		}
		return json.RawMessage(`{"ok":true}`), nil
	})

	res, err := x.ExecuteDay("alpha", d)
	require.NoError(t, err)

	assert.Len(t, res.Events, 3)
	require.Len(t, res.Failures, 1, "one failing event must not abort its siblings")
	assert.Equal(t, "g2", res.Failures[0].EventID)
	assert.Equal(t, 2, res.Executed())

	// g1 and g3 are durably marked; g2 is not.
	after, err := store.EventsOn("alpha", d)
	require.NoError(t, err)
	for _, e := range after {
		assert.Equal(t, e.ID != "g2", e.Executed, "event %s", e.ID)
	}
}

func TestExecuteDaySkipsAlreadyExecuted(t *testing.T) {
	store := &memStore{}
	d := calendar.NewDate(2025, time.October, 12)

	require.NoError(t, store.InsertEvent(&Event{ID: "g1", Dynasty: "alpha", Kind: KindGame, Date: d}))

	calls := 0
	x := NewExecutor(store)
	x.Register(KindGame, func(e *Event) (json.RawMessage, error) {
		calls++
		return json.RawMessage(`{}`), nil
	})

	res, err := x.ExecuteDay("alpha", d)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Executed())

	// Replay of the same day, as after a failed state commit: the event
	// must not run a second time, but it still shows up in the day's
	// slate so the outcome can be judged from the full set.
	res, err = x.ExecuteDay("alpha", d)
	require.NoError(t, err)
	require.Len(t, res.Events, 1)
	assert.True(t, res.Events[0].Executed)
	assert.Equal(t, 1, res.Replayed)
	assert.Equal(t, 0, res.Executed())
	assert.Equal(t, 1, calls)
}

func TestExecuteDayUnknownKind(t *testing.T) {
	store := &memStore{}
	d := calendar.NewDate(2026, time.March, 12)
	require.NoError(t, store.InsertEvent(&Event{ID: "w1", Dynasty: "alpha", Kind: KindWindow, Date: d}))

	x := NewExecutor(store)
	res, err := x.ExecuteDay("alpha", d)
	require.NoError(t, err)
	require.Len(t, res.Failures, 1)
	assert.Contains(t, res.Failures[0].Reason, "no executor registered")
}

func TestNewEventAssignsID(t *testing.T) {
	d := calendar.NewDate(2026, time.April, 24)
	e, err := New("alpha", KindMilestone, d, map[string]string{"title": "Draft Day"})
	require.NoError(t, err)
	assert.NotEmpty(t, e.ID)
	assert.Equal(t, KindMilestone, e.Kind)
	assert.JSONEq(t, `{"title":"Draft Day"}`, string(e.Payload))
}
