package season

import (
	"fmt"
	"log/slog"

	"github.com/yangxiaofu/the-owners-sim-sub011/internal/calendar"
	"github.com/yangxiaofu/the-owners-sim-sub011/internal/event"
	"github.com/yangxiaofu/the-owners-sim-sub011/internal/league"
	"github.com/yangxiaofu/the-owners-sim-sub011/internal/persistence"
	"github.com/yangxiaofu/the-owners-sim-sub011/internal/phase"
)

// RegularSeasonHandler plays out the weekly schedule. The full slate is
// materialized as game events when the phase begins; each game day the
// executor runs that week's games and the week counter advances.
type RegularSeasonHandler struct {
	db      *persistence.DB
	cfg     *league.Config
	dynasty string
}

// NewRegularSeasonHandler builds the regular-season handler.
func NewRegularSeasonHandler(db *persistence.DB, cfg *league.Config, dynasty string) *RegularSeasonHandler {
	return &RegularSeasonHandler{db: db, cfg: cfg, dynasty: dynasty}
}

func (h *RegularSeasonHandler) Phase() phase.Phase { return phase.RegularSeason }

// Enter resets standings, seeds the season's game events, and places the
// trade deadline on the calendar.
func (h *RegularSeasonHandler) Enter(st *persistence.State) error {
	st.Week = 1
	st.Round = 0

	if err := h.db.ResetStandings(h.dynasty); err != nil {
		return err
	}

	games := h.cfg.Schedule(st.Year)
	for _, g := range games {
		payload := GamePayload{Home: g.Home, Away: g.Away, Week: g.Week}
		e := &event.Event{
			ID:      g.EventID,
			Dynasty: h.dynasty,
			Kind:    event.KindGame,
			Date:    g.Date,
		}
		raw, err := marshalPayload(payload)
		if err != nil {
			return err
		}
		e.Payload = raw
		if err := insertScheduled(h.db, e); err != nil {
			return fmt.Errorf("seed week %d game: %w", g.Week, err)
		}
	}

	// Trade deadline midway through the season, as both an enforcement
	// deadline and a skip-ahead milestone.
	deadlineWeek := h.cfg.Season.RegularWeeks/2 + 1
	deadlineDate := h.cfg.GameDay(st.Year, deadlineWeek).AddDays(2)
	for _, spec := range []struct {
		id   string
		kind event.Kind
	}{
		{fmt.Sprintf("trade-deadline-%d", st.Year), event.KindDeadline},
		{fmt.Sprintf("trade-deadline-%d-milestone", st.Year), event.KindMilestone},
	} {
		raw, err := marshalPayload(map[string]string{"title": "Trade Deadline"})
		if err != nil {
			return err
		}
		e := &event.Event{ID: spec.id, Dynasty: h.dynasty, Kind: spec.kind, Date: deadlineDate, Payload: raw}
		if err := insertScheduled(h.db, e); err != nil {
			return err
		}
	}

	slog.Info("regular season scheduled",
		"dynasty", h.dynasty,
		"year", st.Year,
		"weeks", h.cfg.Season.RegularWeeks,
		"games", len(games),
	)
	return nil
}

// SimulateDay has nothing to enqueue: the slate was seeded at phase entry.
func (h *RegularSeasonHandler) SimulateDay(st persistence.State, date calendar.Date) (HandlerResult, error) {
	return HandlerResult{}, nil
}

// Assess advances the week counter after a slate plays out and flags the
// season complete once the final week is in the books.
func (h *RegularSeasonHandler) Assess(st persistence.State, date calendar.Date, res event.ExecutionResult) (phase.Outcome, Counters, error) {
	counters := Counters{Week: st.Week, Round: st.Round}
	games := executedGames(res)
	out := phase.Outcome{GamesPlayed: len(games)}

	if len(games) == 0 {
		return out, counters, nil
	}
	if gameFailures(res) {
		// A partial slate holds the week open; the failed games stay
		// unexecuted in the store for the operator to re-run.
		return out, counters, nil
	}

	if st.Week >= h.cfg.Season.RegularWeeks {
		out.SeasonComplete = true
	} else {
		counters.Week = st.Week + 1
	}
	return out, counters, nil
}
