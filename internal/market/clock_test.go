package market

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mirror_trader/internal/modules/config"
)

func newTestClock(t *testing.T) *Clock {
	t.Helper()
	cfg := &config.Config{}
	cfg.Market.Open = "06:30"
	cfg.Market.Close = "13:00"

	c, err := NewClock(cfg)
	require.NoError(t, err)
	return c
}

func TestClockIsOpen(t *testing.T) {
	c := newTestClock(t)
	day := time.Date(2026, time.March, 3, 0, 0, 0, 0, time.Local)

	assert.False(t, c.IsOpen(day.Add(6*time.Hour)))
	assert.True(t, c.IsOpen(day.Add(6*time.Hour+30*time.Minute)))
	assert.True(t, c.IsOpen(day.Add(12*time.Hour+59*time.Minute)))
	assert.False(t, c.IsOpen(day.Add(13*time.Hour)))
}

func TestClockAfterClose(t *testing.T) {
	c := newTestClock(t)
	day := time.Date(2026, time.March, 3, 0, 0, 0, 0, time.Local)

	assert.False(t, c.AfterClose(day.Add(12*time.Hour)))
	assert.True(t, c.AfterClose(day.Add(13*time.Hour)))
}

func TestWaitForOpenAlreadyOpen(t *testing.T) {
	c := newTestClock(t)
	now := time.Date(2026, time.March, 3, 9, 0, 0, 0, time.Local)

	assert.NoError(t, c.WaitForOpen(context.Background(), now))
}

func TestWaitForOpenCancelled(t *testing.T) {
	c := newTestClock(t)
	now := time.Date(2026, time.March, 3, 5, 0, 0, 0, time.Local)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Error(t, c.WaitForOpen(ctx, now))
}

func TestIsWeekend(t *testing.T) {
	saturday := time.Date(2026, time.March, 7, 0, 0, 0, 0, time.Local)
	assert.True(t, IsWeekend(saturday))
	assert.False(t, IsWeekend(saturday.AddDate(0, 0, 2)))
}

func TestDateTruncation(t *testing.T) {
	ts := time.Date(2026, time.March, 3, 15, 42, 7, 0, time.Local)
	assert.Equal(t, time.Date(2026, time.March, 3, 0, 0, 0, 0, time.Local), Date(ts))
}
