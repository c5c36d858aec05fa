package season

import (
	"encoding/json"
	"fmt"

	"github.com/yangxiaofu/the-owners-sim-sub011/internal/event"
	"github.com/yangxiaofu/the-owners-sim-sub011/internal/game"
	"github.com/yangxiaofu/the-owners-sim-sub011/internal/persistence"
)

// registerExecutors wires the kind-specific execution behavior into the
// executor. Games go through the resolution collaborator; the
// administrative kinds acknowledge themselves so the audit trail records
// that the date passed.
func registerExecutors(x *event.Executor, db *persistence.DB, resolver game.Resolver, dynasty string) {
	x.Register(event.KindGame, gameExec(db, resolver, dynasty))
	x.Register(event.KindDeadline, acknowledgeExec)
	x.Register(event.KindWindow, acknowledgeExec)
	x.Register(event.KindMilestone, acknowledgeExec)
}

func gameExec(db *persistence.DB, resolver game.Resolver, dynasty string) event.ExecFunc {
	return func(e *event.Event) (json.RawMessage, error) {
		var p GamePayload
		if err := json.Unmarshal(e.Payload, &p); err != nil {
			return nil, fmt.Errorf("game payload %s: %w", e.ID, err)
		}

		out, err := resolver.Resolve(p.Home, p.Away, e.Date)
		if err != nil {
			return nil, err
		}

		if p.Round > 0 && out.Tie {
			// Postseason games cannot end tied; overtime goes to the
			// hosting seed.
			out.Tie = false
			out.HomeScore += 3
			out.Winner = out.Home
		}

		if p.Round == 0 {
			if out.Tie {
				err = db.RecordResult(dynasty, out.Home, out.Away, true)
			} else {
				loser := out.Away
				if out.Winner == out.Away {
					loser = out.Home
				}
				err = db.RecordResult(dynasty, out.Winner, loser, false)
			}
			if err != nil {
				return nil, fmt.Errorf("record result for %s: %w", e.ID, err)
			}
		}

		return json.Marshal(out)
	}
}

// acknowledgeExec executes deadlines, windows, and milestones: they carry
// no behavior of their own in the core, but executing them stamps the
// audit trail.
func acknowledgeExec(e *event.Event) (json.RawMessage, error) {
	result := map[string]any{"acknowledged": true}
	if len(e.Payload) > 0 {
		var p struct {
			Title string `json:"title"`
		}
		if err := json.Unmarshal(e.Payload, &p); err == nil && p.Title != "" {
			result["title"] = p.Title
		}
	}
	return json.Marshal(result)
}
