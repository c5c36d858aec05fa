// Package phase defines the league calendar phases and the state machine
// that decides when the simulation moves from one phase to the next.
package phase

import "fmt"

// Phase is one stage of the league year. The set is closed; a dynasty is in
// exactly one phase at a time and cycles through them indefinitely across
// season years.
type Phase string

const (
	RegularSeason Phase = "regular_season"
	Playoffs      Phase = "playoffs"
	FranchiseTag  Phase = "franchise_tag"
	FreeAgency    Phase = "free_agency"
	Draft         Phase = "draft"
	TrainingCamp  Phase = "training_camp"
)

// All lists the phases in league-year order, starting from the regular
// season. The order matters: transitions only move forward through this
// ring, wrapping into the next season year after TrainingCamp.
var All = []Phase{RegularSeason, Playoffs, FranchiseTag, FreeAgency, Draft, TrainingCamp}

// Valid reports whether p is a member of the closed phase set.
func (p Phase) Valid() bool {
	for _, known := range All {
		if p == known {
			return true
		}
	}
	return false
}

// Name returns a human-readable phase name.
func (p Phase) Name() string {
	switch p {
	case RegularSeason:
		return "Regular Season"
	case Playoffs:
		return "Playoffs"
	case FranchiseTag:
		return "Franchise Tag Period"
	case FreeAgency:
		return "Free Agency"
	case Draft:
		return "Draft"
	case TrainingCamp:
		return "Training Camp"
	default:
		return "Unknown"
	}
}

// Parse converts a stored phase tag back to a Phase.
func Parse(s string) (Phase, error) {
	p := Phase(s)
	if !p.Valid() {
		return "", fmt.Errorf("unknown phase tag %q", s)
	}
	return p, nil
}

// Outcome carries the facts about a simulated day that outcome-triggered
// transition rules evaluate. Handlers fill in only the fields their phase
// can produce; the zero value means "nothing decisive happened".
type Outcome struct {
	GamesPlayed     int  // games executed on this date
	SeasonComplete  bool // final regular-season week has fully played out
	RoundDecided    bool // current playoff round's deciding game was played
	ChampionCrowned bool // the championship game was played
	StageComplete   bool // an offseason stage finished its work early
}
