package season

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yangxiaofu/the-owners-sim-sub011/internal/calendar"
	"github.com/yangxiaofu/the-owners-sim-sub011/internal/event"
	"github.com/yangxiaofu/the-owners-sim-sub011/internal/league"
	"github.com/yangxiaofu/the-owners-sim-sub011/internal/persistence"
	"github.com/yangxiaofu/the-owners-sim-sub011/internal/phase"
)

// testConfig is a four-team league with a two-week season and a one-game
// postseason, so a full league year plays out in a few hundred simulated
// days.
func testConfig() *league.Config {
	return &league.Config{
		Teams: []string{"DET", "CHI", "GB", "MIN"},
		Season: league.SeasonConfig{
			RegularWeeks:     2,
			PlayoffTeams:     2,
			PlayoffLeadDays:  7,
			PlayoffRoundDays: 7,
			Kickoff:          league.Boundary{Month: time.September, Day: 4},
			TagDeadline:      league.Boundary{Month: time.March, Day: 4},
			FreeAgency:       league.Boundary{Month: time.March, Day: 12},
			Draft:            league.Boundary{Month: time.April, Day: 24},
			TrainingCamp:     league.Boundary{Month: time.July, Day: 22},
			DraftRounds:      2,
		},
	}
}

func newTestController(t *testing.T, opts ...Option) (*Controller, *persistence.DB) {
	t.Helper()
	db, err := persistence.Open(filepath.Join(t.TempDir(), "league.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	c, err := NewController(db, testConfig(), "alpha", 2025, opts...)
	require.NoError(t, err)
	return c, db
}

func TestNewDynastyStartsAtWeekOne(t *testing.T) {
	c, db := newTestController(t)

	st := c.State()
	assert.Equal(t, phase.RegularSeason, st.Phase)
	assert.Equal(t, 2025, st.Year)
	assert.Equal(t, 1, st.Week)
	assert.Equal(t, "2025-09-03", st.Date.String(), "day before kickoff")

	// The schedule is already durable.
	games, err := db.EventsInRange("alpha", st.Date, st.Date.AddDays(30), event.KindGame)
	require.NoError(t, err)
	assert.Len(t, games, 4, "two weeks of two games each")
}

func TestAdvanceDayPlaysSlate(t *testing.T) {
	c, _ := newTestController(t)

	res, err := c.AdvanceDay()
	require.NoError(t, err)
	assert.Equal(t, "2025-09-04", res.Date.String())
	assert.Equal(t, 1, res.DaysAdvanced)
	assert.Equal(t, phase.RegularSeason, res.Phase)
	assert.Equal(t, 2, res.Week, "week counter moves after the slate plays")
	assert.Empty(t, res.Failures)

	games := 0
	for _, e := range res.EventsExecuted {
		if e.Kind == event.KindGame {
			games++
			assert.True(t, e.Executed)
			assert.NotEmpty(t, e.Result)
		}
	}
	assert.Equal(t, 2, games)
}

func TestSimulateToDateLandsExactly(t *testing.T) {
	// Targets 1, 2, and 11 days ahead all land exactly on target.
	for _, ahead := range []int{1, 2, 11} {
		c, _ := newTestController(t)
		start := c.State().Date
		target := start.AddDays(ahead)

		res, err := c.SimulateToDate(target)
		require.NoError(t, err, "ahead=%d", ahead)
		assert.Equal(t, target, res.Date, "ahead=%d", ahead)
		assert.Equal(t, ahead, res.DaysAdvanced, "ahead=%d", ahead)
		assert.Equal(t, target, c.State().Date)
	}

	// A target in the past advances nothing and is not an error.
	c, _ := newTestController(t)
	res, err := c.SimulateToDate(c.State().Date.AddDays(-3))
	require.NoError(t, err)
	assert.Zero(t, res.DaysAdvanced)
}

func TestSeasonCompleteTransitionsToPlayoffs(t *testing.T) {
	// The post-check fires after the deciding slate.
	c, _ := newTestController(t)

	// Final regular slate is week 2, 2025-09-11.
	res, err := c.SimulateToDate(calendar.NewDate(2025, time.September, 11))
	require.NoError(t, err)
	assert.True(t, res.Transitioned)
	assert.Equal(t, phase.Playoffs, res.Phase)
	assert.Equal(t, 1, c.State().Round)
}

func TestAdvanceWeekExitsEarlyAtBoundary(t *testing.T) {
	// A week block never straddles a phase boundary.
	c, _ := newTestController(t)

	_, err := c.SimulateToDate(calendar.NewDate(2025, time.September, 8))
	require.NoError(t, err)
	require.Equal(t, phase.RegularSeason, c.State().Phase)

	res, err := c.AdvanceWeek()
	require.NoError(t, err)
	assert.Equal(t, 3, res.DaysAdvanced, "boundary is three days out")
	assert.True(t, res.Transitioned)
	assert.NotEqual(t, phase.RegularSeason, res.Phase)
}

func TestAdvanceWeekFullSevenDays(t *testing.T) {
	c, _ := newTestController(t)

	res, err := c.AdvanceWeek()
	require.NoError(t, err)
	assert.Equal(t, 7, res.DaysAdvanced)
	assert.False(t, res.Transitioned)
	assert.Equal(t, 2, res.Week)

	games := 0
	for _, e := range res.EventsExecuted {
		if e.Kind == event.KindGame {
			games++
		}
	}
	assert.Equal(t, 2, games, "one slate inside the seven days")
}

func TestChampionshipLeadsToOffseason(t *testing.T) {
	c, db := newTestController(t)

	// Playoff final: last slate 09-11 plus seven lead days.
	res, err := c.SimulateToDate(calendar.NewDate(2025, time.September, 18))
	require.NoError(t, err)
	assert.Equal(t, phase.FranchiseTag, res.Phase)
	assert.True(t, res.Transitioned)

	// The tag deadline is on next spring's calendar.
	ms, ok, err := db.NextMilestoneAfter("alpha", c.State().Date)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "2026-03-04", ms.Date.String())
}

func TestDateTriggeredBoundaryUsesNewHandler(t *testing.T) {
	// The free-agency handler, not the franchise-tag one,
	// owns the boundary date. Observable because only free-agency entry
	// seeds the fa-opens milestone, which then executes that same day.
	c, _ := newTestController(t)

	_, err := c.SimulateToDate(calendar.NewDate(2026, time.March, 11))
	require.NoError(t, err)
	require.Equal(t, phase.FranchiseTag, c.State().Phase)

	res, err := c.AdvanceDay()
	require.NoError(t, err)
	assert.True(t, res.Transitioned)
	assert.Equal(t, phase.FreeAgency, res.Phase)

	var sawOpening, sawWindow bool
	for _, e := range res.EventsExecuted {
		if e.ID == "fa-opens-2025" && e.Executed {
			sawOpening = true
		}
		if e.ID == "fa-window-2025-day1" && e.Executed {
			sawWindow = true
		}
	}
	assert.True(t, sawOpening, "boundary date must be processed by the new phase")
	assert.True(t, sawWindow)
}

func TestMilestoneWaitingResult(t *testing.T) {
	// Between the tag deadline and free agency no milestone remains;
	// the result reports the days to the boundary instead of erroring.
	c, _ := newTestController(t)

	_, err := c.SimulateToDate(calendar.NewDate(2026, time.March, 4))
	require.NoError(t, err)
	require.Equal(t, phase.FranchiseTag, c.State().Phase)

	res, err := c.SimulateToNextMilestone()
	require.NoError(t, err)
	assert.True(t, res.Waiting)
	assert.Equal(t, 8, res.DaysUntilBoundary)
	assert.Zero(t, res.DaysAdvanced, "waiting never auto-advances")
}

func TestSimulateToNextMilestone(t *testing.T) {
	c, _ := newTestController(t)

	// First milestone on a fresh dynasty is the trade deadline
	// (week 2 slate plus two days).
	res, err := c.SimulateToNextMilestone()
	require.NoError(t, err)
	require.NotNil(t, res.Milestone)
	assert.Equal(t, "2025-09-13", res.Date.String())
	assert.Equal(t, res.Milestone.Date, res.Date)
	assert.False(t, res.Waiting)
}

func TestNextMilestoneActionKinds(t *testing.T) {
	c, _ := newTestController(t)

	// Fresh dynasty: a milestone exists.
	act, err := c.NextMilestoneAction()
	require.NoError(t, err)
	assert.Equal(t, ActionSimulateToMilestone, act.Kind)
	require.NotNil(t, act.Milestone)
	assert.Equal(t, 10, act.Days)

	// Mid-playoffs: no milestone, and the only exit is an outcome.
	_, err = c.SimulateToDate(calendar.NewDate(2025, time.September, 14))
	require.NoError(t, err)
	require.Equal(t, phase.Playoffs, c.State().Phase)
	act, err = c.NextMilestoneAction()
	require.NoError(t, err)
	assert.Equal(t, ActionDisabled, act.Kind)

	// A week out from free agency the answer is a wait.
	_, err = c.SimulateToDate(calendar.NewDate(2026, time.March, 5))
	require.NoError(t, err)
	require.Equal(t, phase.FranchiseTag, c.State().Phase)
	act, err = c.NextMilestoneAction()
	require.NoError(t, err)
	assert.Equal(t, ActionWait, act.Kind)
	assert.Equal(t, 7, act.Days)

	// Day before free agency: the boundary is one advance away.
	_, err = c.SimulateToDate(calendar.NewDate(2026, time.March, 11))
	require.NoError(t, err)
	act, err = c.NextMilestoneAction()
	require.NoError(t, err)
	assert.Equal(t, ActionStartNextPhase, act.Kind)
	assert.Equal(t, 1, act.Days)
}

func TestFullLeagueYearCycle(t *testing.T) {
	c, db := newTestController(t)

	// Through the draft and camp into the next season's kickoff.
	res, err := c.SimulateToDate(calendar.NewDate(2026, time.September, 4))
	require.NoError(t, err)

	st := c.State()
	assert.Equal(t, phase.RegularSeason, st.Phase)
	assert.Equal(t, 2026, st.Year, "year wraps at the new kickoff")
	assert.Equal(t, 2, st.Week, "kickoff slate played, counter advanced")
	assert.Equal(t, res.Date, st.Date)

	// The 2026 schedule exists and its week 1 games are executed.
	games, err := db.EventsOn("alpha", calendar.NewDate(2026, time.September, 4))
	require.NoError(t, err)
	played := 0
	for _, g := range games {
		if g.Kind == event.KindGame && g.Executed {
			played++
		}
	}
	assert.Equal(t, 2, played)

	// Draft and camp milestones were executed along the way.
	for _, id := range []string{"draft-day-2025", "camp-opens-2025", "roster-cuts-2025-milestone"} {
		evs, err := db.EventsInRange("alpha", calendar.NewDate(2026, time.January, 1), calendar.NewDate(2026, time.September, 4), "")
		require.NoError(t, err)
		found := false
		for _, e := range evs {
			if e.ID == id {
				found = e.Executed
			}
		}
		assert.True(t, found, "expected %s to have executed", id)
	}
}

func TestResumeFromStore(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "league.db")

	db, err := persistence.Open(path)
	require.NoError(t, err)
	c, err := NewController(db, testConfig(), "alpha", 2025)
	require.NoError(t, err)

	_, err = c.SimulateToDate(calendar.NewDate(2025, time.September, 10))
	require.NoError(t, err)
	want := c.State()
	require.NoError(t, db.Close())

	db2, err := persistence.Open(path)
	require.NoError(t, err)
	defer db2.Close()
	c2, err := NewController(db2, testConfig(), "alpha", 2025)
	require.NoError(t, err)

	got := c2.State()
	assert.Equal(t, want.Date.String(), got.Date.String())
	assert.Equal(t, want.Phase, got.Phase)
	assert.Equal(t, want.Week, got.Week)
}

func TestDynastyIsolationInController(t *testing.T) {
	// Two dynasties in one database run the
	// same calendar without seeing each other's events.
	db, err := persistence.Open(filepath.Join(t.TempDir(), "league.db"))
	require.NoError(t, err)
	defer db.Close()

	a, err := NewController(db, testConfig(), "alpha", 2025, WithSeed(1))
	require.NoError(t, err)
	b, err := NewController(db, testConfig(), "beta", 2025, WithSeed(2))
	require.NoError(t, err)

	resA, err := a.AdvanceDay()
	require.NoError(t, err)
	for _, e := range resA.EventsExecuted {
		assert.Equal(t, "alpha", e.Dynasty)
	}

	// Beta has not advanced; none of its events are executed.
	evs, err := db.EventsOn("beta", calendar.NewDate(2025, time.September, 4))
	require.NoError(t, err)
	require.NotEmpty(t, evs)
	for _, e := range evs {
		assert.False(t, e.Executed)
	}

	resB, err := b.AdvanceDay()
	require.NoError(t, err)
	assert.Equal(t, resA.Date, resB.Date)
}

func TestCommitFailureKeepsCallerView(t *testing.T) {
	// Drift is induced through a second coordinator writing the durable
	// row out from under the controller's cache.
	c, db := newTestController(t)

	_, err := c.AdvanceDay()
	require.NoError(t, err)
	before := c.State()

	tampered := before
	tampered.Week = 9
	require.NoError(t, persistence.NewCoordinator(db).Commit(before, tampered))

	var decisions []int
	policy := func(err error, attempt int) RecoveryDecision {
		decisions = append(decisions, attempt)
		return Abort
	}
	c.policy = policy

	_, err = c.AdvanceDay()
	require.Error(t, err)
	var cerr *persistence.ConsistencyError
	assert.True(t, errors.As(err, &cerr), "expected consistency error, got %v", err)
	assert.Len(t, decisions, 1)

	// The caller's view of the current date is unchanged.
	after := c.State()
	assert.Equal(t, before.Date.String(), after.Date.String())
	assert.Equal(t, before.Week, after.Week)
}

func TestCommitFailureReloadFromStore(t *testing.T) {
	c, db := newTestController(t)

	_, err := c.AdvanceDay()
	require.NoError(t, err)
	before := c.State()

	tampered := before
	tampered.Week = 9
	require.NoError(t, persistence.NewCoordinator(db).Commit(before, tampered))

	c.policy = func(err error, attempt int) RecoveryDecision { return ReloadFromStore }

	_, err = c.AdvanceDay()
	require.Error(t, err, "reload still surfaces the failure")

	// The cache re-synchronized to the durable row.
	st := c.State()
	assert.Equal(t, 9, st.Week)
	assert.Equal(t, before.Date.String(), st.Date.String())

	// With cache and store agreed, advancement works again.
	res, err := c.AdvanceDay()
	require.NoError(t, err)
	assert.Equal(t, before.Date.AddDays(1).String(), res.Date.String())
}

func TestReplayedDecidingDayStillTransitions(t *testing.T) {
	// A day whose games all executed but whose commit failed must, on
	// replay, still produce the season-complete outcome: the replayed
	// slate counts when the phase exit is judged.
	c, db := newTestController(t)

	_, err := c.SimulateToDate(calendar.NewDate(2025, time.September, 10))
	require.NoError(t, err)
	before := c.State()
	require.Equal(t, 2, before.Week)

	tampered := before
	tampered.Round = 5
	require.NoError(t, persistence.NewCoordinator(db).Commit(before, tampered))

	c.policy = func(err error, attempt int) RecoveryDecision { return ReloadFromStore }

	// The final week's slate executes, then the commit fails against the
	// tampered row and the cache reloads to September 10.
	_, err = c.AdvanceDay()
	require.Error(t, err)
	assert.Equal(t, before.Date.String(), c.State().Date.String())

	// Replaying the day runs no game a second time but still sees the
	// full slate, so the season completes and the playoffs begin.
	res, err := c.AdvanceDay()
	require.NoError(t, err)
	assert.True(t, res.Transitioned)
	assert.Equal(t, phase.Playoffs, res.Phase)
	assert.Equal(t, 1, c.State().Round)

	// The rest of the year proceeds normally from there.
	res, err = c.SimulateToDate(calendar.NewDate(2025, time.September, 18))
	require.NoError(t, err)
	assert.Equal(t, phase.FranchiseTag, res.Phase)
}

func TestRetryAfterAbortDoesNotReplayEvents(t *testing.T) {
	// Events executed during a day whose commit failed stay executed;
	// replaying the day must not run them twice.
	c, db := newTestController(t)

	before := c.State()
	tampered := before
	tampered.Week = 9
	require.NoError(t, persistence.NewCoordinator(db).Commit(before, tampered))

	c.policy = func(err error, attempt int) RecoveryDecision { return ReloadFromStore }
	_, err := c.AdvanceDay()
	require.Error(t, err)

	// Cache now matches the store; the replayed kickoff day executes the
	// slate exactly once in total.
	res, err := c.AdvanceDay()
	require.NoError(t, err)

	games, err := db.EventsOn("alpha", res.Date)
	require.NoError(t, err)
	executed := 0
	for _, g := range games {
		if g.Kind == event.KindGame && g.Executed {
			executed++
		}
	}
	assert.Equal(t, 2, executed)
}
