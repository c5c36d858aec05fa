package calendar

import "fmt"

// Clock owns the current simulated date for one league run. It only moves
// forward through Advance; Set exists for restoring from a saved state.
type Clock struct {
	current Date
}

// NewClock creates a clock positioned at start.
func NewClock(start Date) *Clock {
	return &Clock{current: start}
}

// Current returns the clock's date without modifying it.
func (c *Clock) Current() Date {
	return c.current
}

// Advance moves the clock forward by days and returns the new date.
// days must be at least 1.
func (c *Clock) Advance(days int) (Date, error) {
	if days < 1 {
		return c.current, fmt.Errorf("advance clock: days must be >= 1, got %d", days)
	}
	c.current = c.current.AddDays(days)
	return c.current, nil
}

// Set repositions the clock, used when reloading a saved run or when an
// advancement is rolled back after a failed commit.
func (c *Clock) Set(d Date) {
	c.current = d
}
