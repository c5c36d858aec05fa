package game

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yangxiaofu/the-owners-sim-sub011/internal/calendar"
)

func TestFormResolverDeterministic(t *testing.T) {
	epoch := calendar.NewDate(2025, time.September, 4)
	d := epoch.AddDays(10)

	a := NewFormResolver(42, epoch)
	b := NewFormResolver(42, epoch)

	o1, err := a.Resolve("DET", "CHI", d)
	require.NoError(t, err)
	o2, err := b.Resolve("DET", "CHI", d)
	require.NoError(t, err)

	assert.Equal(t, o1, o2, "same seed and date must replay the same score")
	assert.GreaterOrEqual(t, o1.HomeScore, 0)
	if !o1.Tie {
		assert.Contains(t, []string{"DET", "CHI"}, o1.Winner)
	}
}

func TestFormResolverSeedsDiffer(t *testing.T) {
	epoch := calendar.NewDate(2025, time.September, 4)

	a := NewFormResolver(1, epoch)
	b := NewFormResolver(2, epoch)

	// Across a slate of games at least one score should differ.
	differ := false
	for day := 0; day < 14; day += 7 {
		d := epoch.AddDays(day)
		o1, err := a.Resolve("DET", "GB", d)
		require.NoError(t, err)
		o2, err := b.Resolve("DET", "GB", d)
		require.NoError(t, err)
		if o1 != o2 {
			differ = true
		}
	}
	assert.True(t, differ)
}

func TestFormResolverRejectsBadMatchup(t *testing.T) {
	r := NewFormResolver(7, calendar.NewDate(2025, time.September, 4))
	_, err := r.Resolve("DET", "DET", calendar.NewDate(2025, time.September, 7))
	assert.Error(t, err)
	_, err = r.Resolve("", "CHI", calendar.NewDate(2025, time.September, 7))
	assert.Error(t, err)
}
