package market

import (
	"context"
	"time"

	"mirror_trader/internal/modules/config"
)

// Clock knows the session open and close times for the trading day.
// Holiday calendars are out of scope; weekends are checked locally.
type Clock struct {
	openHour, openMinute   int
	closeHour, closeMinute int
}

func NewClock(cfg *config.Config) (*Clock, error) {
	oh, om, err := config.ClockTime(cfg.Market.Open)
	if err != nil {
		return nil, err
	}
	ch, cm, err := config.ClockTime(cfg.Market.Close)
	if err != nil {
		return nil, err
	}
	return &Clock{
		openHour:   oh,
		openMinute: om,
		closeHour:  ch, closeMinute: cm,
	}, nil
}

func (c *Clock) OpenAt(day time.Time) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), c.openHour, c.openMinute, 0, 0, day.Location())
}

func (c *Clock) CloseAt(day time.Time) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), c.closeHour, c.closeMinute, 0, 0, day.Location())
}

func (c *Clock) IsOpen(now time.Time) bool {
	return !now.Before(c.OpenAt(now)) && now.Before(c.CloseAt(now))
}

func (c *Clock) AfterClose(now time.Time) bool {
	return !now.Before(c.CloseAt(now))
}

// WaitForOpen blocks until the session opens or the context is cancelled.
func (c *Clock) WaitForOpen(ctx context.Context, now time.Time) error {
	open := c.OpenAt(now)
	if !now.Before(open) {
		return nil
	}

	t := time.NewTimer(open.Sub(now))
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func IsWeekend(t time.Time) bool {
	wd := t.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// Date truncates to midnight in the local zone; expiry comparisons are
// calendar-day comparisons.
func Date(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
