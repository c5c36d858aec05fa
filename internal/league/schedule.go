package league

import (
	"fmt"

	"github.com/yangxiaofu/the-owners-sim-sub011/internal/calendar"
)

// ScheduledGame is one regular-season matchup placed on the calendar.
type ScheduledGame struct {
	EventID string
	Week    int
	Date    calendar.Date
	Home    string
	Away    string
}

// Schedule generates the full regular-season slate for one season year
// using the circle method: the first team stays fixed while the rest
// rotate, so every team plays every week and meets varied opponents.
// Event IDs are deterministic, which makes re-seeding after a replayed
// boundary day a harmless duplicate insert.
func (c *Config) Schedule(seasonYear int) []ScheduledGame {
	var games []ScheduledGame

	for week := 1; week <= c.Season.RegularWeeks; week++ {
		date := c.GameDay(seasonYear, week)
		for _, m := range weeklyPairs(c.Teams, week) {
			home, away := m[0], m[1]
			// Alternate venues week to week.
			if week%2 == 0 {
				home, away = away, home
			}
			games = append(games, ScheduledGame{
				EventID: fmt.Sprintf("game-%d-w%02d-%s-%s", seasonYear, week, home, away),
				Week:    week,
				Date:    date,
				Home:    home,
				Away:    away,
			})
		}
	}

	return games
}

// weeklyPairs returns one round of the rotation for the given week.
func weeklyPairs(teams []string, week int) [][2]string {
	n := len(teams)
	round := (week - 1) % (n - 1)

	// Rotate all but the first team.
	rotated := make([]string, n)
	rotated[0] = teams[0]
	for i := 1; i < n; i++ {
		src := (i-1+round)%(n-1) + 1
		rotated[i] = teams[src]
	}

	pairs := make([][2]string, 0, n/2)
	for i := 0; i < n/2; i++ {
		pairs = append(pairs, [2]string{rotated[i], rotated[n-1-i]})
	}
	return pairs
}
