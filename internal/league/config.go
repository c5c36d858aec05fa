// Package league holds the league-structure configuration: teams, the
// season calendar template, and the schedule generator.
package league

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/yangxiaofu/the-owners-sim-sub011/internal/calendar"
	"github.com/yangxiaofu/the-owners-sim-sub011/internal/phase"
)

// Boundary is a recurring month/day anchor within a season year.
type Boundary struct {
	Month time.Month `yaml:"month"`
	Day   int        `yaml:"day"`
}

// At resolves the boundary in a concrete calendar year.
func (b Boundary) At(year int) calendar.Date {
	return calendar.NewDate(year, b.Month, b.Day)
}

// SeasonConfig is the calendar template for one season year. A season year
// Y runs from kickoff in Y through training camp in Y+1.
type SeasonConfig struct {
	RegularWeeks int `yaml:"regular_weeks"`
	PlayoffTeams int `yaml:"playoff_teams"`

	// Days after the last regular-season slate before playoff round 1,
	// and between successive playoff rounds.
	PlayoffLeadDays  int `yaml:"playoff_lead_days"`
	PlayoffRoundDays int `yaml:"playoff_round_days"`

	Kickoff      Boundary `yaml:"kickoff"`       // in year Y
	FreeAgency   Boundary `yaml:"free_agency"`   // in year Y+1
	Draft        Boundary `yaml:"draft"`         // in year Y+1
	TrainingCamp Boundary `yaml:"training_camp"` // in year Y+1

	// Franchise tag deadline, in year Y+1, before free agency opens.
	TagDeadline Boundary `yaml:"tag_deadline"`

	DraftRounds int `yaml:"draft_rounds"`
}

// Config is the full league structure.
type Config struct {
	Teams  []string     `yaml:"teams"`
	Season SeasonConfig `yaml:"season"`
}

// Load reads a YAML league configuration from disk.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read league config: %w", err)
	}
	cfg := &Config{}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("parse league config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns the stock 32-team league structure.
func Default() *Config {
	return &Config{
		Teams: []string{
			"ARI", "ATL", "BAL", "BUF", "CAR", "CHI", "CIN", "CLE",
			"DAL", "DEN", "DET", "GB", "HOU", "IND", "JAX", "KC",
			"LAC", "LAR", "LV", "MIA", "MIN", "NE", "NO", "NYG",
			"NYJ", "PHI", "PIT", "SEA", "SF", "TB", "TEN", "WAS",
		},
		Season: SeasonConfig{
			RegularWeeks:     18,
			PlayoffTeams:     8,
			PlayoffLeadDays:  7,
			PlayoffRoundDays: 7,
			Kickoff:          Boundary{Month: time.September, Day: 4},
			TagDeadline:      Boundary{Month: time.March, Day: 4},
			FreeAgency:       Boundary{Month: time.March, Day: 12},
			Draft:            Boundary{Month: time.April, Day: 24},
			TrainingCamp:     Boundary{Month: time.July, Day: 22},
			DraftRounds:      7,
		},
	}
}

// Validate checks the structural constraints the season loop relies on.
func (c *Config) Validate() error {
	if len(c.Teams) < 2 || len(c.Teams)%2 != 0 {
		return fmt.Errorf("league config: need an even team count >= 2, got %d", len(c.Teams))
	}
	seen := make(map[string]bool, len(c.Teams))
	for _, t := range c.Teams {
		if t == "" {
			return fmt.Errorf("league config: empty team id")
		}
		if seen[t] {
			return fmt.Errorf("league config: duplicate team %q", t)
		}
		seen[t] = true
	}
	s := c.Season
	if s.RegularWeeks < 1 {
		return fmt.Errorf("league config: regular_weeks must be >= 1")
	}
	if s.PlayoffTeams < 2 || s.PlayoffTeams&(s.PlayoffTeams-1) != 0 {
		return fmt.Errorf("league config: playoff_teams must be a power of two >= 2, got %d", s.PlayoffTeams)
	}
	if s.PlayoffTeams > len(c.Teams) {
		return fmt.Errorf("league config: playoff_teams %d exceeds team count %d", s.PlayoffTeams, len(c.Teams))
	}
	if s.PlayoffLeadDays < 1 || s.PlayoffRoundDays < 1 {
		return fmt.Errorf("league config: playoff spacing must be >= 1 day")
	}
	if s.DraftRounds < 1 {
		return fmt.Errorf("league config: draft_rounds must be >= 1")
	}
	return nil
}

// PlayoffRounds returns the number of rounds implied by the bracket size.
func (c *Config) PlayoffRounds() int {
	rounds := 0
	for n := c.Season.PlayoffTeams; n > 1; n /= 2 {
		rounds++
	}
	return rounds
}

// GameDay returns the date of the given regular-season week's slate.
// Week 1 plays on kickoff day; each later week is seven days on.
func (c *Config) GameDay(seasonYear, week int) calendar.Date {
	return c.Season.Kickoff.At(seasonYear).AddDays(7 * (week - 1))
}

// Rules materializes the phase transition rule set for this league
// structure. The regular season and playoffs end on outcomes (the games
// have to be played first); the offseason stages open on calendar dates.
func (c *Config) Rules() []phase.Rule {
	s := c.Season
	return []phase.Rule{
		{
			Name:    "season-complete",
			From:    phase.RegularSeason,
			To:      phase.Playoffs,
			Trigger: phase.TriggerOutcome,
			Met:     func(o phase.Outcome) bool { return o.SeasonComplete },
		},
		{
			Name:    "champion-crowned",
			From:    phase.Playoffs,
			To:      phase.FranchiseTag,
			Trigger: phase.TriggerOutcome,
			Met:     func(o phase.Outcome) bool { return o.ChampionCrowned },
		},
		{
			Name:    "free-agency-opens",
			From:    phase.FranchiseTag,
			To:      phase.FreeAgency,
			Trigger: phase.TriggerDate,
			At:      func(year int) calendar.Date { return s.FreeAgency.At(year + 1) },
		},
		{
			Name:    "draft-begins",
			From:    phase.FreeAgency,
			To:      phase.Draft,
			Trigger: phase.TriggerDate,
			At:      func(year int) calendar.Date { return s.Draft.At(year + 1) },
		},
		{
			Name:    "camp-opens",
			From:    phase.Draft,
			To:      phase.TrainingCamp,
			Trigger: phase.TriggerDate,
			At:      func(year int) calendar.Date { return s.TrainingCamp.At(year + 1) },
		},
		{
			Name:      "new-season-kickoff",
			From:      phase.TrainingCamp,
			To:        phase.RegularSeason,
			Trigger:   phase.TriggerDate,
			At:        func(year int) calendar.Date { return s.Kickoff.At(year + 1) },
			WrapsYear: true,
		},
	}
}
