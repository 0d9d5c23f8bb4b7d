package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mirror_trader/internal/models"
)

func TestFileTrackerRoundTrip(t *testing.T) {
	f := NewFile(t.TempDir())
	ctx := context.Background()

	positions := []models.TrackedPosition{{
		Ticker:    "SPY",
		Strike:    "450",
		Direction: models.DirectionCall,
		Price:     2.5,
		ExpDate:   time.Date(2026, time.March, 6, 0, 0, 0, 0, time.UTC),
		OpenedAt:  time.Date(2026, time.March, 3, 9, 45, 0, 0, time.UTC),
	}}

	require.NoError(t, f.SaveTracker(ctx, "real-day-trading", positions))

	got, err := f.LoadTracker(ctx, "real-day-trading")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, positions[0].Ticker, got[0].Ticker)
	assert.Equal(t, positions[0].Strike, got[0].Strike)
	assert.True(t, positions[0].ExpDate.Equal(got[0].ExpDate))
}

func TestFileTrackerMissingChannel(t *testing.T) {
	f := NewFile(t.TempDir())

	got, err := f.LoadTracker(context.Background(), "no-such-channel")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestFileStopsRoundTrip(t *testing.T) {
	f := NewFile(t.TempDir())
	ctx := context.Background()

	stops := map[string]models.StopLossState{
		"c-1": {StopPrice: 2.2, Level: 0.2},
		"c-2": {StopPrice: 0.95, Level: -0.2},
	}

	require.NoError(t, f.SaveStops(ctx, stops))

	got, err := f.LoadStops(ctx)
	require.NoError(t, err)
	assert.Equal(t, stops, got)
}

func TestFileStopsEmpty(t *testing.T) {
	f := NewFile(t.TempDir())

	got, err := f.LoadStops(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got)
}

// Dirty is runtime-only and must not survive a restart.
func TestFileStopsDirtyNotPersisted(t *testing.T) {
	f := NewFile(t.TempDir())
	ctx := context.Background()

	require.NoError(t, f.SaveStops(ctx, map[string]models.StopLossState{
		"c-1": {StopPrice: 2.2, Level: 0.2, Dirty: true},
	}))

	got, err := f.LoadStops(ctx)
	require.NoError(t, err)
	assert.False(t, got["c-1"].Dirty)
}
