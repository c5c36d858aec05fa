package season

import (
	"github.com/yangxiaofu/the-owners-sim-sub011/internal/calendar"
	"github.com/yangxiaofu/the-owners-sim-sub011/internal/event"
	"github.com/yangxiaofu/the-owners-sim-sub011/internal/phase"
)

// DayResult is the outcome of one advanced day.
type DayResult struct {
	Date           calendar.Date         `json:"date"`
	Phase          phase.Phase           `json:"phase"`
	Year           int                   `json:"season_year"`
	Week           int                   `json:"week"`
	Transitioned   bool                  `json:"transitioned"`
	TransitionRule string                `json:"transition_rule,omitempty"`
	Execution      event.ExecutionResult `json:"execution"`
}

// AdvancementResult aggregates a multi-day advancement call.
type AdvancementResult struct {
	Dynasty        string          `json:"dynasty"`
	Date           calendar.Date   `json:"date"`
	Phase          phase.Phase     `json:"phase"`
	Year           int             `json:"season_year"`
	Week           int             `json:"week"`
	DaysAdvanced   int             `json:"days_advanced"`
	EventsExecuted []event.Event   `json:"events_executed"`
	Failures       []event.Failure `json:"failures,omitempty"`
	Transitioned   bool            `json:"transitioned"`

	// Milestone is set when the advancement targeted a milestone.
	Milestone *event.Event `json:"milestone,omitempty"`

	// Waiting reports a milestone advancement that had nothing to target:
	// no milestone remains and the next phase boundary (if dated) is
	// DaysUntilBoundary away. Not an error.
	Waiting           bool `json:"waiting,omitempty"`
	DaysUntilBoundary int  `json:"days_until_boundary,omitempty"`
}

func (r *AdvancementResult) absorb(day DayResult) {
	r.Date = day.Date
	r.Phase = day.Phase
	r.Year = day.Year
	r.Week = day.Week
	r.DaysAdvanced++
	r.EventsExecuted = append(r.EventsExecuted, day.Execution.Events...)
	r.Failures = append(r.Failures, day.Execution.Failures...)
	if day.Transitioned {
		r.Transitioned = true
	}
}

// ActionKind classifies what the caller's "next milestone" control should
// do, so "no milestone" never has to be interpreted as a failure.
type ActionKind string

const (
	ActionSimulateToMilestone ActionKind = "simulate_to_milestone"
	ActionStartNextPhase      ActionKind = "start_next_phase"
	ActionWait                ActionKind = "wait"
	ActionDisabled            ActionKind = "disabled"
)

// MilestoneAction is the structured answer to "what happens if I advance
// to the next milestone?".
type MilestoneAction struct {
	Kind ActionKind `json:"kind"`

	// Target is the milestone or boundary date, when one exists.
	Target *calendar.Date `json:"target,omitempty"`

	// Days until Target.
	Days int `json:"days,omitempty"`

	// Milestone is set for ActionSimulateToMilestone.
	Milestone *event.Event `json:"milestone,omitempty"`
}
