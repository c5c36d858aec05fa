package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDateArithmetic(t *testing.T) {
	d := NewDate(2025, time.September, 4)

	assert.Equal(t, "2025-09-04", d.String())
	assert.Equal(t, "2025-09-11", d.AddDays(7).String())
	assert.Equal(t, "2025-08-28", d.AddDays(-7).String())

	// Offset across a month boundary.
	assert.Equal(t, "2025-10-04", d.AddDays(30).String())
}

func TestDateDaysUntil(t *testing.T) {
	d := NewDate(2025, time.December, 28)
	later := NewDate(2026, time.January, 4)

	assert.Equal(t, 7, d.DaysUntil(later))
	assert.Equal(t, -7, later.DaysUntil(d))
	assert.Equal(t, 0, d.DaysUntil(d))
}

func TestDateOrdering(t *testing.T) {
	a := NewDate(2025, time.September, 4)
	b := NewDate(2025, time.September, 5)

	assert.True(t, a.Before(b))
	assert.True(t, b.After(a))
	assert.False(t, a.Equal(b))
	assert.True(t, a.Equal(a.AddDays(0)))
}

func TestDateRoundTrip(t *testing.T) {
	d, err := ParseDate("2026-02-14")
	require.NoError(t, err)
	assert.Equal(t, 2026, d.Year())
	assert.Equal(t, time.February, d.Month())
	assert.Equal(t, 14, d.Day())

	var scanned Date
	require.NoError(t, scanned.Scan("2026-02-14"))
	assert.True(t, d.Equal(scanned))

	v, err := d.Value()
	require.NoError(t, err)
	assert.Equal(t, "2026-02-14", v)

	_, err = ParseDate("not-a-date")
	assert.Error(t, err)
}

func TestClockAdvance(t *testing.T) {
	c := NewClock(NewDate(2025, time.September, 4))

	d, err := c.Advance(1)
	require.NoError(t, err)
	assert.Equal(t, "2025-09-05", d.String())
	assert.Equal(t, "2025-09-05", c.Current().String())

	_, err = c.Advance(0)
	assert.Error(t, err)
	assert.Equal(t, "2025-09-05", c.Current().String(), "failed advance must not move the clock")

	c.Set(NewDate(2025, time.September, 4))
	assert.Equal(t, "2025-09-04", c.Current().String())
}
