package season

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yangxiaofu/the-owners-sim-sub011/internal/calendar"
	"github.com/yangxiaofu/the-owners-sim-sub011/internal/event"
	"github.com/yangxiaofu/the-owners-sim-sub011/internal/game"
	"github.com/yangxiaofu/the-owners-sim-sub011/internal/phase"
)

func TestWeekAdvancementScenario(t *testing.T) {
	// A week of regular season advances the week counter by one and
	// executes exactly the handler's slate size in games.
	c, _ := newTestController(t)

	startWeek := c.State().Week
	res, err := c.AdvanceWeek()
	require.NoError(t, err)

	if !res.Transitioned {
		assert.Equal(t, startWeek+1, res.Week)
		assert.Equal(t, phase.RegularSeason, res.Phase)
	}

	games := 0
	for _, e := range res.EventsExecuted {
		if e.Kind == event.KindGame {
			games++
		}
	}
	assert.Equal(t, len(testConfig().Teams)/2, games)
}

func TestPlayoffBracketPairs(t *testing.T) {
	pairs := bracketPairs([]string{"s1", "s2", "s3", "s4"})
	require.Len(t, pairs, 2)
	assert.Equal(t, [2]string{"s1", "s4"}, pairs[0])
	assert.Equal(t, [2]string{"s2", "s3"}, pairs[1])
}

func TestFreeAgencyRespectsCapValidator(t *testing.T) {
	rejectGB := capFunc(func(dynasty, team string, value int64) error {
		if team == "GB" {
			return errors.New("over the cap")
		}
		return nil
	})

	c, db := newTestController(t, WithCapValidator(rejectGB))

	_, err := c.SimulateToDate(calendar.NewDate(2026, time.March, 12))
	require.NoError(t, err)
	require.Equal(t, phase.FreeAgency, c.State().Phase)

	evs, err := db.EventsOn("alpha", calendar.NewDate(2026, time.March, 12))
	require.NoError(t, err)

	var window *event.Event
	for i := range evs {
		if evs[i].Kind == event.KindWindow {
			window = &evs[i]
		}
	}
	require.NotNil(t, window)

	var payload struct {
		Teams []string `json:"teams"`
	}
	require.NoError(t, json.Unmarshal(window.Payload, &payload))
	assert.Len(t, payload.Teams, 3)
	assert.NotContains(t, payload.Teams, "GB")
}

func TestDraftRoundsUseOrdinals(t *testing.T) {
	c, db := newTestController(t)

	_, err := c.SimulateToDate(calendar.NewDate(2026, time.April, 24))
	require.NoError(t, err)
	require.Equal(t, phase.Draft, c.State().Phase)

	evs, err := db.EventsInRange("alpha",
		calendar.NewDate(2026, time.April, 24), calendar.NewDate(2026, time.April, 30), event.KindWindow)
	require.NoError(t, err)

	titles := map[string]bool{}
	for _, e := range evs {
		var p struct {
			Title string `json:"title"`
			Round int    `json:"round"`
		}
		require.NoError(t, json.Unmarshal(e.Payload, &p))
		titles[p.Title] = true
	}
	assert.True(t, titles["1st Round"], "got %v", titles)
	assert.True(t, titles["2nd Round"], "got %v", titles)
}

func TestPlayoffTieGoesToHost(t *testing.T) {
	tieResolver := resolverFunc(func(home, away string, date calendar.Date) (game.Outcome, error) {
		return game.Outcome{Home: home, Away: away, HomeScore: 20, AwayScore: 20, Tie: true}, nil
	})

	c, _ := newTestController(t, WithResolver(tieResolver))

	res, err := c.SimulateToDate(calendar.NewDate(2025, time.September, 18))
	require.NoError(t, err)
	assert.Equal(t, phase.FranchiseTag, res.Phase, "playoff tie must still produce a champion")

	var final *event.Event
	for i := range res.EventsExecuted {
		if res.EventsExecuted[i].Kind == event.KindGame && res.EventsExecuted[i].Date.String() == "2025-09-18" {
			final = &res.EventsExecuted[i]
		}
	}
	require.NotNil(t, final)

	var o game.Outcome
	require.NoError(t, json.Unmarshal(final.Result, &o))
	assert.False(t, o.Tie)
	assert.Equal(t, o.Home, o.Winner)
	assert.Equal(t, 23, o.HomeScore)
}

func TestFailedGameHoldsWeekOpen(t *testing.T) {
	// A resolver failure is collected per event, not raised, and a
	// partial slate does not advance the week counter.
	calls := 0
	flaky := resolverFunc(func(home, away string, date calendar.Date) (game.Outcome, error) {
		calls++
		if calls == 1 {
			return game.Outcome{}, fmt.Errorf("stats engine unavailable")
		}
		out := game.Outcome{Home: home, Away: away, HomeScore: 21, AwayScore: 14, Winner: home}
		return out, nil
	})

	c, _ := newTestController(t, WithResolver(flaky))

	res, err := c.AdvanceDay()
	require.NoError(t, err, "a per-event failure is collected, not raised")
	require.Len(t, res.Failures, 1)
	assert.Equal(t, 1, res.Week, "partial slate holds the week")

	// The day still committed; the quiet day after carries no failures.
	res, err = c.AdvanceDay()
	require.NoError(t, err)
	assert.Empty(t, res.Failures)
	assert.Equal(t, "2025-09-05", res.Date.String())
}

// resolverFunc adapts a function to game.Resolver.
type resolverFunc func(home, away string, date calendar.Date) (game.Outcome, error)

func (f resolverFunc) Resolve(home, away string, date calendar.Date) (game.Outcome, error) {
	return f(home, away, date)
}

// capFunc adapts a function to league.CapValidator.
type capFunc func(dynasty, team string, value int64) error

func (f capFunc) ValidateSigning(dynasty, team string, value int64) error {
	return f(dynasty, team, value)
}
