package season

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/yangxiaofu/the-owners-sim-sub011/internal/calendar"
	"github.com/yangxiaofu/the-owners-sim-sub011/internal/event"
	"github.com/yangxiaofu/the-owners-sim-sub011/internal/game"
	"github.com/yangxiaofu/the-owners-sim-sub011/internal/league"
	"github.com/yangxiaofu/the-owners-sim-sub011/internal/persistence"
	"github.com/yangxiaofu/the-owners-sim-sub011/internal/phase"
)

// Controller is the season cycle orchestrator for one dynasty. It owns the
// clock and the cached copy of the committed state; every advancement runs
// the same pipeline: advance clock, pre transition check, handler, event
// execution, post transition check, atomic commit.
//
// The controller is not reentrant: a mutex serializes advancement calls,
// and the cache is only replaced after a successful commit, so a second
// call can never observe a half-advanced day.
type Controller struct {
	mu sync.Mutex

	dynasty  string
	cfg      *league.Config
	db       *persistence.DB
	coord    *persistence.Coordinator
	clock    *calendar.Clock
	machine  *phase.Machine
	handlers map[phase.Phase]Handler
	exec     *event.Executor
	policy   RecoveryPolicy

	state persistence.State // last committed state
}

// Option customizes controller construction.
type Option func(*options)

type options struct {
	resolver game.Resolver
	policy   RecoveryPolicy
	cap      league.CapValidator
	seed     int64
}

// WithResolver replaces the default game-resolution collaborator.
func WithResolver(r game.Resolver) Option {
	return func(o *options) { o.resolver = r }
}

// WithRecoveryPolicy replaces the default commit-failure policy.
func WithRecoveryPolicy(p RecoveryPolicy) Option {
	return func(o *options) { o.policy = p }
}

// WithCapValidator wires the salary-cap collaborator consulted by the
// free-agency handler.
func WithCapValidator(v league.CapValidator) Option {
	return func(o *options) { o.cap = v }
}

// WithSeed sets the seed for the default resolver.
func WithSeed(seed int64) Option {
	return func(o *options) { o.seed = seed }
}

// NewController opens or creates the dynasty and positions the controller
// at its committed state. A fresh dynasty starts in the regular season at
// week 1, the day before kickoff, with its full schedule seeded.
func NewController(db *persistence.DB, cfg *league.Config, dynasty string, startYear int, opts ...Option) (*Controller, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if dynasty == "" {
		return nil, fmt.Errorf("new controller: empty dynasty id")
	}

	o := options{seed: 1, policy: DefaultRecovery, cap: league.PermissiveCap{}}
	for _, opt := range opts {
		opt(&o)
	}
	if o.resolver == nil {
		o.resolver = game.NewFormResolver(o.seed, cfg.Season.Kickoff.At(startYear))
	}

	machine, err := phase.NewMachine(cfg.Rules())
	if err != nil {
		return nil, err
	}

	c := &Controller{
		dynasty: dynasty,
		cfg:     cfg,
		db:      db,
		coord:   persistence.NewCoordinator(db),
		machine: machine,
		policy:  o.policy,
		handlers: map[phase.Phase]Handler{
			phase.RegularSeason: NewRegularSeasonHandler(db, cfg, dynasty),
			phase.Playoffs:      NewPlayoffsHandler(db, cfg, dynasty),
			phase.FranchiseTag:  NewFranchiseTagHandler(db, cfg, dynasty),
			phase.FreeAgency:    NewFreeAgencyHandler(db, cfg, dynasty, o.cap),
			phase.Draft:         NewDraftHandler(db, cfg, dynasty),
			phase.TrainingCamp:  NewTrainingCampHandler(db, cfg, dynasty),
		},
	}

	c.exec = event.NewExecutor(db)
	registerExecutors(c.exec, db, o.resolver, dynasty)

	st, ok, err := db.LoadState(dynasty)
	if err != nil {
		return nil, err
	}
	if ok {
		c.state = st
		slog.Info("dynasty resumed",
			"dynasty", dynasty,
			"date", st.Date,
			"phase", st.Phase,
			"year", st.Year,
			"week", st.Week,
		)
	} else {
		fresh := persistence.State{
			Dynasty: dynasty,
			Date:    cfg.Season.Kickoff.At(startYear).AddDays(-1),
			Phase:   phase.RegularSeason,
			Year:    startYear,
			Week:    1,
		}
		if err := c.handlers[phase.RegularSeason].Enter(&fresh); err != nil {
			return nil, fmt.Errorf("seed new dynasty %s: %w", dynasty, err)
		}
		if err := c.coord.Commit(persistence.State{}, fresh); err != nil {
			return nil, fmt.Errorf("commit new dynasty %s: %w", dynasty, err)
		}
		c.state = fresh
		slog.Info("dynasty created", "dynasty", dynasty, "year", startYear, "kickoff", fresh.Date.AddDays(1))
	}

	c.clock = calendar.NewClock(c.state.Date)
	return c, nil
}

// State returns a copy of the last committed state.
func (c *Controller) State() persistence.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// AdvanceDay advances the calendar one day through the full pipeline.
func (c *Controller) AdvanceDay() (AdvancementResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	res := c.newResult()
	day, err := c.advanceDay()
	if err != nil {
		return res, err
	}
	res.absorb(day)
	return res, nil
}

// AdvanceWeek advances up to seven days, exiting early the first time a
// phase transition occurs so a week block never straddles a boundary.
func (c *Controller) AdvanceWeek() (AdvancementResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	res := c.newResult()
	for i := 0; i < 7; i++ {
		day, err := c.advanceDay()
		if err != nil {
			return res, err
		}
		res.absorb(day)
		if day.Transitioned {
			break
		}
	}
	return res, nil
}

// SimulateToDate advances day by day while the current date is strictly
// before target, which by construction lands exactly on target and never
// past it. A target on or before the current date advances nothing.
func (c *Controller) SimulateToDate(target calendar.Date) (AdvancementResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.simulateToDate(target)
}

func (c *Controller) simulateToDate(target calendar.Date) (AdvancementResult, error) {
	res := c.newResult()
	for c.state.Date.Before(target) {
		day, err := c.advanceDay()
		if err != nil {
			return res, err
		}
		res.absorb(day)
	}
	return res, nil
}

// SimulateToNextMilestone advances to the dynasty's next milestone event.
// When none remains it returns a structured waiting result carrying the
// days until the next dated phase boundary; it never advances on its own
// in that case (caller-driven by design).
func (c *Controller) SimulateToNextMilestone() (AdvancementResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	m, ok, err := c.db.NextMilestoneAfter(c.dynasty, c.state.Date)
	if err != nil {
		return c.newResult(), c.withContext(err)
	}
	if ok {
		res, err := c.simulateToDate(m.Date)
		if err == nil {
			res.Milestone = &m
		}
		return res, err
	}

	res := c.newResult()
	res.Waiting = true
	if boundary, found := c.machine.NextBoundary(c.state.Phase, c.state.Year, c.state.Date); found {
		res.DaysUntilBoundary = c.state.Date.DaysUntil(boundary)
	}
	return res, nil
}

// NextMilestoneAction reports what a milestone advancement would do right
// now, as one of four unambiguous action kinds.
func (c *Controller) NextMilestoneAction() (MilestoneAction, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	m, ok, err := c.db.NextMilestoneAfter(c.dynasty, c.state.Date)
	if err != nil {
		return MilestoneAction{}, c.withContext(err)
	}
	if ok {
		target := m.Date
		return MilestoneAction{
			Kind:      ActionSimulateToMilestone,
			Target:    &target,
			Days:      c.state.Date.DaysUntil(target),
			Milestone: &m,
		}, nil
	}

	boundary, found := c.machine.NextBoundary(c.state.Phase, c.state.Year, c.state.Date)
	if !found {
		// The only way out of this phase is an outcome (games must be
		// played), so there is no date to offer.
		return MilestoneAction{Kind: ActionDisabled}, nil
	}

	days := c.state.Date.DaysUntil(boundary)
	kind := ActionWait
	if days <= 1 {
		kind = ActionStartNextPhase
	}
	return MilestoneAction{Kind: kind, Target: &boundary, Days: days}, nil
}

// advanceDay runs one day through the pipeline. The caller holds the lock.
func (c *Controller) advanceDay() (DayResult, error) {
	prev := c.state
	next := prev

	c.clock.Set(prev.Date)
	date, err := c.clock.Advance(1)
	if err != nil {
		return DayResult{}, c.withContext(err)
	}
	next.Date = date

	// Pre-check: date-triggered boundaries hand the day to the new
	// phase's handler.
	transitioned := false
	rule := ""
	tr, err := c.machine.CheckPre(next.Phase, next.Year, date)
	if err != nil {
		return DayResult{}, c.abort(err)
	}
	if tr != nil {
		if err := c.applyTransition(&next, tr); err != nil {
			return DayResult{}, c.abort(err)
		}
		transitioned, rule = true, tr.Rule
	}

	handler := c.handlers[next.Phase]
	if _, err := handler.SimulateDay(next, date); err != nil {
		return DayResult{}, c.abort(err)
	}

	execRes, err := c.exec.ExecuteDay(c.dynasty, date)
	if err != nil {
		return DayResult{}, c.abort(err)
	}

	outcome, counters, err := handler.Assess(next, date, execRes)
	if err != nil {
		return DayResult{}, c.abort(err)
	}
	next.Week = counters.Week
	next.Round = counters.Round

	// Post-check: outcome-triggered boundaries, only when the pre-check
	// did not already move.
	if !transitioned {
		tr, err := c.machine.CheckPost(next.Phase, date, outcome)
		if err != nil {
			return DayResult{}, c.abort(err)
		}
		if tr != nil {
			if err := c.applyTransition(&next, tr); err != nil {
				return DayResult{}, c.abort(err)
			}
			transitioned, rule = true, tr.Rule
		}
	}

	if err := c.commitWithRecovery(prev, next); err != nil {
		return DayResult{}, err
	}
	c.state = next

	return DayResult{
		Date:           next.Date,
		Phase:          next.Phase,
		Year:           next.Year,
		Week:           next.Week,
		Transitioned:   transitioned,
		TransitionRule: rule,
		Execution:      execRes,
	}, nil
}

// applyTransition moves the working state into the new phase and lets the
// destination handler seed its calendar. The year rolls over on the wrap
// back into the regular season.
func (c *Controller) applyTransition(st *persistence.State, tr *phase.Transition) error {
	if tr.WrapsYear {
		st.Year++
	}
	st.Phase = tr.To
	if err := c.handlers[tr.To].Enter(st); err != nil {
		return fmt.Errorf("enter phase %s: %w", tr.To, err)
	}
	return nil
}

// commitWithRecovery commits next and, on failure, consults the recovery
// policy. Whatever the decision, the cache and the durable store are never
// left silently divergent: abort keeps the cache at prev, reload adopts
// the durable row.
func (c *Controller) commitWithRecovery(prev, next persistence.State) error {
	attempt := 0
	for {
		err := c.coord.Commit(prev, next)
		if err == nil {
			return nil
		}
		attempt++

		switch c.policy(err, attempt) {
		case Retry:
			slog.Warn("state commit failed, retrying",
				"dynasty", c.dynasty,
				"attempt", attempt,
				"error", err,
			)
		case ReloadFromStore:
			st, ok, lerr := c.db.LoadState(c.dynasty)
			if lerr != nil || !ok {
				c.clock.Set(c.state.Date)
				return c.withContext(fmt.Errorf("reload after failed commit: %v (commit: %w)", lerr, err))
			}
			c.state = st
			c.clock.Set(st.Date)
			slog.Warn("state reloaded from store after failed commit",
				"dynasty", c.dynasty,
				"date", st.Date,
				"phase", st.Phase,
			)
			return c.withContext(err)
		default: // Abort
			c.clock.Set(c.state.Date)
			return c.withContext(err)
		}
	}
}

// abort resets the clock to the committed date and attaches diagnostics.
func (c *Controller) abort(err error) error {
	c.clock.Set(c.state.Date)
	return c.withContext(err)
}

func (c *Controller) withContext(err error) error {
	return fmt.Errorf("dynasty %s at %s (%s): %w", c.dynasty, c.state.Date, c.state.Phase, err)
}

func (c *Controller) newResult() AdvancementResult {
	return AdvancementResult{
		Dynasty: c.dynasty,
		Date:    c.state.Date,
		Phase:   c.state.Phase,
		Year:    c.state.Year,
		Week:    c.state.Week,
	}
}
