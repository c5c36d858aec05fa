package phase

import (
	"fmt"
	"log/slog"

	"github.com/yangxiaofu/the-owners-sim-sub011/internal/calendar"
)

// Trigger classifies when a transition rule is evaluated relative to the
// day's handler run. Date rules fire before the handler so the new phase's
// handler processes the boundary date; outcome rules can only be judged
// after the handler and executor have run.
type Trigger int

const (
	TriggerDate Trigger = iota
	TriggerOutcome
)

// Rule is one transition edge in the phase machine.
type Rule struct {
	Name    string
	From    Phase
	To      Phase
	Trigger Trigger

	// At resolves the boundary date for a date-triggered rule within the
	// given season year. Nil for outcome-triggered rules.
	At func(seasonYear int) calendar.Date

	// Met evaluates an outcome-triggered rule against the day's outcome.
	// Nil for date-triggered rules.
	Met func(o Outcome) bool

	// WrapsYear marks the rule that rolls the dynasty into the next
	// season year (the final offseason stage back into the regular season).
	WrapsYear bool
}

// AmbiguityError reports two transition rules firing for the same phase on
// the same day. This is a rule-set configuration bug, not a runtime
// condition to recover from.
type AmbiguityError struct {
	From  Phase
	Date  calendar.Date
	Rules []string
}

func (e *AmbiguityError) Error() string {
	return fmt.Sprintf("ambiguous phase transition from %s on %s: rules %v fired together", e.From, e.Date, e.Rules)
}

// Transition is the result of a fired rule.
type Transition struct {
	To        Phase
	Rule      string
	WrapsYear bool
}

// Machine holds the configured transition rules and answers transition
// checks. It carries no mutable state of its own; the current phase lives
// in the dynasty's committed state row.
type Machine struct {
	rules []Rule
}

// NewMachine validates and wraps a rule set.
func NewMachine(rules []Rule) (*Machine, error) {
	for _, r := range rules {
		if !r.From.Valid() || !r.To.Valid() {
			return nil, fmt.Errorf("rule %q: invalid phase %q -> %q", r.Name, r.From, r.To)
		}
		switch r.Trigger {
		case TriggerDate:
			if r.At == nil {
				return nil, fmt.Errorf("rule %q: date-triggered rule needs a boundary date", r.Name)
			}
		case TriggerOutcome:
			if r.Met == nil {
				return nil, fmt.Errorf("rule %q: outcome-triggered rule needs a condition", r.Name)
			}
		default:
			return nil, fmt.Errorf("rule %q: unknown trigger %d", r.Name, r.Trigger)
		}
	}
	return &Machine{rules: rules}, nil
}

// CheckPre evaluates date-triggered rules for the day about to be handled.
// Run before the phase handler so the destination phase owns the boundary
// date. Returns nil when no rule fires.
func (m *Machine) CheckPre(current Phase, seasonYear int, date calendar.Date) (*Transition, error) {
	var fired []Rule
	for _, r := range m.rules {
		if r.From != current || r.Trigger != TriggerDate {
			continue
		}
		boundary := r.At(seasonYear)
		// The boundary fires on its exact date and keeps firing if it was
		// somehow skipped, so an overshoot can never strand a dynasty in a
		// stale phase.
		if !date.Before(boundary) {
			fired = append(fired, r)
		}
	}
	return m.resolve(current, date, fired)
}

// CheckPost evaluates outcome-triggered rules after the handler and event
// executor have run. Only called when CheckPre did not already transition.
func (m *Machine) CheckPost(current Phase, date calendar.Date, o Outcome) (*Transition, error) {
	var fired []Rule
	for _, r := range m.rules {
		if r.From != current || r.Trigger != TriggerOutcome {
			continue
		}
		if r.Met(o) {
			fired = append(fired, r)
		}
	}
	return m.resolve(current, date, fired)
}

// NextBoundary returns the earliest date-triggered boundary reachable from
// the current phase on or after date. ok is false when the only way out of
// the phase is an outcome-triggered rule, which has no date to report.
func (m *Machine) NextBoundary(current Phase, seasonYear int, date calendar.Date) (calendar.Date, bool) {
	var best calendar.Date
	found := false
	for _, r := range m.rules {
		if r.From != current || r.Trigger != TriggerDate {
			continue
		}
		b := r.At(seasonYear)
		if b.Before(date) {
			continue
		}
		if !found || b.Before(best) {
			best = b
			found = true
		}
	}
	return best, found
}

func (m *Machine) resolve(current Phase, date calendar.Date, fired []Rule) (*Transition, error) {
	switch len(fired) {
	case 0:
		return nil, nil
	case 1:
		r := fired[0]
		slog.Info("phase transition",
			"rule", r.Name,
			"from", current,
			"to", r.To,
			"date", date,
		)
		return &Transition{To: r.To, Rule: r.Name, WrapsYear: r.WrapsYear}, nil
	default:
		names := make([]string, len(fired))
		for i, r := range fired {
			names[i] = r.Name
		}
		return nil, &AmbiguityError{From: current, Date: date, Rules: names}
	}
}
