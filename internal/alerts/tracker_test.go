package alerts

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mirror_trader/internal/models"
)

func trackedPosition(ticker string, openedAt time.Time) models.TrackedPosition {
	return models.TrackedPosition{
		Ticker:    ticker,
		Strike:    "100",
		Direction: models.DirectionCall,
		Price:     1.5,
		ExpDate:   openedAt.AddDate(0, 0, 7),
		OpenedAt:  openedAt,
	}
}

func TestTrackerMatchExactAndFuzzy(t *testing.T) {
	tr := NewTracker("test")
	base := time.Date(2026, time.March, 3, 10, 0, 0, 0, time.Local)

	tr.Add(trackedPosition("AMD", base))
	tr.Add(trackedPosition("NVDA", base.Add(time.Minute)))

	p, ok := tr.Match("NVDA")
	require.True(t, ok)
	assert.Equal(t, "NVDA", p.Ticker)

	// One-letter typo still resolves.
	p, ok = tr.Match("AMDD")
	require.True(t, ok)
	assert.Equal(t, "AMD", p.Ticker)

	_, ok = tr.Match("XOM")
	assert.False(t, ok)
}

func TestTrackerMatchPrefersLatestForSameTicker(t *testing.T) {
	tr := NewTracker("test")
	base := time.Date(2026, time.March, 3, 10, 0, 0, 0, time.Local)

	first := trackedPosition("SPY", base)
	second := trackedPosition("SPY", base.Add(time.Hour))
	second.Strike = "455"
	tr.Add(first)
	tr.Add(second)

	p, ok := tr.Match("SPY")
	require.True(t, ok)
	assert.Equal(t, "455", p.Strike)
}

func TestTrackerTouchPromotesPosition(t *testing.T) {
	tr := NewTracker("test")
	base := time.Date(2026, time.March, 3, 10, 0, 0, 0, time.Local)

	spy := trackedPosition("SPY", base)
	aapl := trackedPosition("AAPL", base.Add(time.Minute))
	tr.Add(spy)
	tr.Add(aapl)

	tr.Touch(spy, base.Add(time.Hour))

	p, ok := tr.MostRecent()
	require.True(t, ok)
	assert.Equal(t, "SPY", p.Ticker)
}

func TestTrackerRemove(t *testing.T) {
	tr := NewTracker("test")
	base := time.Date(2026, time.March, 3, 10, 0, 0, 0, time.Local)

	p := trackedPosition("SPY", base)
	tr.Add(p)

	assert.True(t, tr.Remove(p))
	assert.Equal(t, 0, tr.Len())
	assert.False(t, tr.Remove(p))
}

func TestTrackerRestoreSplitsExpired(t *testing.T) {
	tr := NewTracker("test")
	today := time.Date(2026, time.March, 3, 0, 0, 0, 0, time.Local)

	live := trackedPosition("SPY", today)
	dead := trackedPosition("AAPL", today.AddDate(0, 0, -14))

	tr.Restore([]models.TrackedPosition{live, dead}, today)

	assert.Equal(t, 1, tr.Len())

	p, ok := tr.PopExpired()
	require.True(t, ok)
	assert.Equal(t, "AAPL", p.Ticker)

	_, ok = tr.PopExpired()
	assert.False(t, ok)
}
