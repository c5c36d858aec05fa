package season

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/yangxiaofu/the-owners-sim-sub011/internal/calendar"
	"github.com/yangxiaofu/the-owners-sim-sub011/internal/event"
	"github.com/yangxiaofu/the-owners-sim-sub011/internal/game"
	"github.com/yangxiaofu/the-owners-sim-sub011/internal/league"
	"github.com/yangxiaofu/the-owners-sim-sub011/internal/persistence"
	"github.com/yangxiaofu/the-owners-sim-sub011/internal/phase"
)

// PlayoffsHandler runs the single-elimination bracket. Round 1 is seeded
// from the standings when the phase begins; each later round is scheduled
// the moment its predecessor's deciding games have all been played, which
// is what makes the playoff exits outcome-triggered.
type PlayoffsHandler struct {
	db      *persistence.DB
	cfg     *league.Config
	dynasty string
}

// NewPlayoffsHandler builds the playoffs handler.
func NewPlayoffsHandler(db *persistence.DB, cfg *league.Config, dynasty string) *PlayoffsHandler {
	return &PlayoffsHandler{db: db, cfg: cfg, dynasty: dynasty}
}

func (h *PlayoffsHandler) Phase() phase.Phase { return phase.Playoffs }

// Enter seeds round 1 from the final standings: best seed hosts worst.
func (h *PlayoffsHandler) Enter(st *persistence.State) error {
	st.Round = 1

	records, err := h.db.Standings(h.dynasty)
	if err != nil {
		return err
	}
	n := h.cfg.Season.PlayoffTeams
	if len(records) < n {
		return fmt.Errorf("seed playoffs: need %d teams in standings, have %d", n, len(records))
	}

	seeds := make([]string, n)
	for i := 0; i < n; i++ {
		seeds[i] = records[i].TeamID
	}

	firstRound := h.firstRoundDate(st.Year)
	if err := h.scheduleRound(st.Year, 1, firstRound, bracketPairs(seeds)); err != nil {
		return err
	}

	slog.Info("playoff bracket seeded",
		"dynasty", h.dynasty,
		"year", st.Year,
		"teams", n,
		"first_round", firstRound,
	)
	return nil
}

// SimulateDay has nothing to enqueue; rounds are scheduled by Assess.
func (h *PlayoffsHandler) SimulateDay(st persistence.State, date calendar.Date) (HandlerResult, error) {
	return HandlerResult{}, nil
}

// Assess detects a decided round, schedules the next one from its winners,
// and crowns the champion after the final.
func (h *PlayoffsHandler) Assess(st persistence.State, date calendar.Date, res event.ExecutionResult) (phase.Outcome, Counters, error) {
	counters := Counters{Week: st.Week, Round: st.Round}
	games := executedGames(res)
	out := phase.Outcome{GamesPlayed: len(games)}

	if len(games) == 0 || gameFailures(res) {
		return out, counters, nil
	}
	if len(games) != h.roundSize(st.Round) {
		// A partial round is not decisive yet. Replayed games count here,
		// so a day re-run after a failed commit still decides its round.
		return out, counters, nil
	}

	winners := make([]string, 0, len(games))
	for _, g := range games {
		var o game.Outcome
		if err := json.Unmarshal(g.Result, &o); err != nil {
			return out, counters, fmt.Errorf("parse playoff result %s: %w", g.ID, err)
		}
		if o.Winner == "" {
			return out, counters, fmt.Errorf("playoff game %s has no winner", g.ID)
		}
		winners = append(winners, o.Winner)
	}

	out.RoundDecided = true
	if st.Round >= h.cfg.PlayoffRounds() {
		out.ChampionCrowned = true
		slog.Info("champion crowned", "dynasty", h.dynasty, "year", st.Year, "team", winners[0])
		return out, counters, nil
	}

	nextRound := st.Round + 1
	if err := h.scheduleRound(st.Year, nextRound, date.AddDays(h.cfg.Season.PlayoffRoundDays), bracketPairs(winners)); err != nil {
		return out, counters, err
	}
	counters.Round = nextRound
	return out, counters, nil
}

// roundSize is the number of games in a round.
func (h *PlayoffsHandler) roundSize(round int) int {
	n := h.cfg.Season.PlayoffTeams
	for i := 1; i < round; i++ {
		n /= 2
	}
	return n / 2
}

// firstRoundDate is round 1's scheduled date; later rounds are anchored to
// the day their predecessor was decided.
func (h *PlayoffsHandler) firstRoundDate(seasonYear int) calendar.Date {
	lastSlate := h.cfg.GameDay(seasonYear, h.cfg.Season.RegularWeeks)
	return lastSlate.AddDays(h.cfg.Season.PlayoffLeadDays)
}

func (h *PlayoffsHandler) scheduleRound(seasonYear, round int, date calendar.Date, pairs [][2]string) error {
	for _, p := range pairs {
		payload, err := marshalPayload(GamePayload{Home: p[0], Away: p[1], Round: round})
		if err != nil {
			return err
		}
		e := &event.Event{
			ID:      fmt.Sprintf("playoff-%d-r%d-%s-%s", seasonYear, round, p[0], p[1]),
			Dynasty: h.dynasty,
			Kind:    event.KindGame,
			Date:    date,
			Payload: payload,
		}
		if err := insertScheduled(h.db, e); err != nil {
			return fmt.Errorf("schedule playoff round %d: %w", round, err)
		}
	}
	return nil
}

// bracketPairs matches the best remaining seed with the worst: 1v8, 2v7...
// The order of winners passed back in preserves seeding.
func bracketPairs(teams []string) [][2]string {
	n := len(teams)
	pairs := make([][2]string, 0, n/2)
	for i := 0; i < n/2; i++ {
		pairs = append(pairs, [2]string{teams[i], teams[n-1-i]})
	}
	return pairs
}
