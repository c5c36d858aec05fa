package season

import (
	"fmt"
	"log/slog"

	"github.com/dustin/go-humanize"

	"github.com/yangxiaofu/the-owners-sim-sub011/internal/calendar"
	"github.com/yangxiaofu/the-owners-sim-sub011/internal/event"
	"github.com/yangxiaofu/the-owners-sim-sub011/internal/league"
	"github.com/yangxiaofu/the-owners-sim-sub011/internal/persistence"
	"github.com/yangxiaofu/the-owners-sim-sub011/internal/phase"
)

// The offseason stages share a shape: phase entry seeds that stage's
// deadlines, windows, and milestones, and the stage exits on a configured
// calendar date rather than an outcome. Their Assess methods therefore
// report nothing decisive.

type offseasonBase struct {
	db      *persistence.DB
	cfg     *league.Config
	dynasty string
}

func (offseasonBase) SimulateDay(st persistence.State, date calendar.Date) (HandlerResult, error) {
	return HandlerResult{}, nil
}

func (offseasonBase) Assess(st persistence.State, date calendar.Date, res event.ExecutionResult) (phase.Outcome, Counters, error) {
	return phase.Outcome{GamesPlayed: len(executedGames(res))}, Counters{Week: st.Week, Round: st.Round}, nil
}

func (b offseasonBase) seed(kind event.Kind, id string, date calendar.Date, payload any) error {
	raw, err := marshalPayload(payload)
	if err != nil {
		return err
	}
	return insertScheduled(b.db, &event.Event{
		ID:      id,
		Dynasty: b.dynasty,
		Kind:    kind,
		Date:    date,
		Payload: raw,
	})
}

// FranchiseTagHandler covers the stretch between the championship and free
// agency: teams may apply franchise tags until the league deadline.
type FranchiseTagHandler struct {
	offseasonBase
}

// NewFranchiseTagHandler builds the franchise-tag stage handler.
func NewFranchiseTagHandler(db *persistence.DB, cfg *league.Config, dynasty string) *FranchiseTagHandler {
	return &FranchiseTagHandler{offseasonBase{db: db, cfg: cfg, dynasty: dynasty}}
}

func (h *FranchiseTagHandler) Phase() phase.Phase { return phase.FranchiseTag }

func (h *FranchiseTagHandler) Enter(st *persistence.State) error {
	st.Week = 0
	st.Round = 0

	deadline := h.cfg.Season.TagDeadline.At(st.Year + 1)
	title := map[string]string{"title": "Franchise Tag Deadline"}
	if err := h.seed(event.KindDeadline, fmt.Sprintf("tag-deadline-%d", st.Year), deadline, title); err != nil {
		return err
	}
	if err := h.seed(event.KindMilestone, fmt.Sprintf("tag-deadline-%d-milestone", st.Year), deadline, title); err != nil {
		return err
	}

	slog.Info("offseason begins", "dynasty", h.dynasty, "year", st.Year, "tag_deadline", deadline)
	return nil
}

// FreeAgencyHandler opens the signing period. Signing windows are only
// created for teams the cap collaborator clears.
type FreeAgencyHandler struct {
	offseasonBase
	capv league.CapValidator
}

// NewFreeAgencyHandler builds the free-agency stage handler.
func NewFreeAgencyHandler(db *persistence.DB, cfg *league.Config, dynasty string, capv league.CapValidator) *FreeAgencyHandler {
	if capv == nil {
		capv = league.PermissiveCap{}
	}
	return &FreeAgencyHandler{offseasonBase: offseasonBase{db: db, cfg: cfg, dynasty: dynasty}, capv: capv}
}

func (h *FreeAgencyHandler) Phase() phase.Phase { return phase.FreeAgency }

func (h *FreeAgencyHandler) Enter(st *persistence.State) error {
	opens := h.cfg.Season.FreeAgency.At(st.Year + 1)

	if err := h.seed(event.KindMilestone, fmt.Sprintf("fa-opens-%d", st.Year), opens,
		map[string]string{"title": "Free Agency Opens"}); err != nil {
		return err
	}

	// Three daily signing windows; each lists only cap-cleared teams.
	const windowValue = 12_000_000
	for day := 0; day < 3; day++ {
		var cleared []string
		for _, team := range h.cfg.Teams {
			if err := h.capv.ValidateSigning(h.dynasty, team, windowValue); err != nil {
				slog.Debug("team excluded from signing window",
					"dynasty", h.dynasty, "team", team, "reason", err)
				continue
			}
			cleared = append(cleared, team)
		}
		id := fmt.Sprintf("fa-window-%d-day%d", st.Year, day+1)
		payload := map[string]any{"title": fmt.Sprintf("Signing Window, Day %d", day+1), "teams": cleared}
		if err := h.seed(event.KindWindow, id, opens.AddDays(day), payload); err != nil {
			return err
		}
	}
	return nil
}

// DraftHandler places the draft rounds on the calendar: round 1 on draft
// day, rounds 2-3 the next day, the rest on day three.
type DraftHandler struct {
	offseasonBase
}

// NewDraftHandler builds the draft stage handler.
func NewDraftHandler(db *persistence.DB, cfg *league.Config, dynasty string) *DraftHandler {
	return &DraftHandler{offseasonBase{db: db, cfg: cfg, dynasty: dynasty}}
}

func (h *DraftHandler) Phase() phase.Phase { return phase.Draft }

func (h *DraftHandler) Enter(st *persistence.State) error {
	draftDay := h.cfg.Season.Draft.At(st.Year + 1)

	if err := h.seed(event.KindMilestone, fmt.Sprintf("draft-day-%d", st.Year), draftDay,
		map[string]string{"title": "Draft Day"}); err != nil {
		return err
	}

	for round := 1; round <= h.cfg.Season.DraftRounds; round++ {
		offset := 0
		switch {
		case round >= 4:
			offset = 2
		case round >= 2:
			offset = 1
		}
		payload := map[string]any{
			"title": fmt.Sprintf("%s Round", humanize.Ordinal(round)),
			"round": round,
			"picks": len(h.cfg.Teams),
		}
		id := fmt.Sprintf("draft-%d-round%d", st.Year, round)
		if err := h.seed(event.KindWindow, id, draftDay.AddDays(offset), payload); err != nil {
			return err
		}
	}
	return nil
}

// TrainingCampHandler closes out the league year: camp opens and the
// roster-cut deadline lands shortly before the next kickoff.
type TrainingCampHandler struct {
	offseasonBase
}

// NewTrainingCampHandler builds the training-camp stage handler.
func NewTrainingCampHandler(db *persistence.DB, cfg *league.Config, dynasty string) *TrainingCampHandler {
	return &TrainingCampHandler{offseasonBase{db: db, cfg: cfg, dynasty: dynasty}}
}

func (h *TrainingCampHandler) Phase() phase.Phase { return phase.TrainingCamp }

func (h *TrainingCampHandler) Enter(st *persistence.State) error {
	opens := h.cfg.Season.TrainingCamp.At(st.Year + 1)
	kickoff := h.cfg.Season.Kickoff.At(st.Year + 1)

	if err := h.seed(event.KindMilestone, fmt.Sprintf("camp-opens-%d", st.Year), opens,
		map[string]string{"title": "Training Camp Opens"}); err != nil {
		return err
	}

	cuts := kickoff.AddDays(-9)
	title := map[string]string{"title": "Final Roster Cuts"}
	if err := h.seed(event.KindDeadline, fmt.Sprintf("roster-cuts-%d", st.Year), cuts, title); err != nil {
		return err
	}
	return h.seed(event.KindMilestone, fmt.Sprintf("roster-cuts-%d-milestone", st.Year), cuts, title)
}
