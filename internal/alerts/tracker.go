package alerts

import (
	"strings"
	"time"

	"github.com/agnivade/levenshtein"

	"mirror_trader/internal/models"
)

// Tracker remembers the contracts a channel has opened so that Close
// alerts can be resolved back to them. Each tracker is owned by a single
// poller goroutine.
type Tracker struct {
	channel string
	open    []models.TrackedPosition
	expired []models.TrackedPosition
}

func NewTracker(channel string) *Tracker {
	return &Tracker{channel: channel}
}

func (t *Tracker) Channel() string { return t.channel }

func (t *Tracker) Add(p models.TrackedPosition) {
	t.open = append(t.open, p)
}

func (t *Tracker) Open() []models.TrackedPosition {
	out := make([]models.TrackedPosition, len(t.open))
	copy(out, t.open)
	return out
}

func (t *Tracker) Len() int { return len(t.open) }

// MostRecent returns the open position with the latest alert time.
func (t *Tracker) MostRecent() (models.TrackedPosition, bool) {
	if len(t.open) == 0 {
		return models.TrackedPosition{}, false
	}

	best := t.open[0]
	for _, p := range t.open[1:] {
		if p.OpenedAt.After(best.OpenedAt) {
			best = p
		}
	}
	return best, true
}

// Match resolves a ticker to a tracked position, exact first, then by
// fuzzy ratio for the usual one-letter typos. Ties on ticker go to the
// most recently opened position.
func (t *Tracker) Match(ticker string) (models.TrackedPosition, bool) {
	if ticker == "" {
		return models.TrackedPosition{}, false
	}

	if p, ok := t.latestFor(ticker); ok {
		return p, true
	}

	for _, candidate := range t.tickers() {
		if fuzzyRatio(ticker, candidate) >= fuzzyMatchThreshold {
			return t.latestFor(candidate)
		}
	}

	return models.TrackedPosition{}, false
}

func (t *Tracker) latestFor(ticker string) (models.TrackedPosition, bool) {
	var (
		best  models.TrackedPosition
		found bool
	)
	for _, p := range t.open {
		if p.Ticker != ticker {
			continue
		}
		if !found || p.OpenedAt.After(best.OpenedAt) {
			best = p
			found = true
		}
	}
	return best, found
}

func (t *Tracker) tickers() []string {
	seen := make(map[string]struct{}, len(t.open))
	var out []string
	for _, p := range t.open {
		if _, ok := seen[p.Ticker]; ok {
			continue
		}
		seen[p.Ticker] = struct{}{}
		out = append(out, p.Ticker)
	}
	return out
}

// Touch refreshes the alert time of a tracked position so it becomes
// the most recent one.
func (t *Tracker) Touch(p models.TrackedPosition, at time.Time) {
	for i := range t.open {
		if t.open[i].SameContract(p) && t.open[i].OpenedAt.Equal(p.OpenedAt) {
			t.open[i].OpenedAt = at
			return
		}
	}
}

func (t *Tracker) Remove(p models.TrackedPosition) bool {
	for i := range t.open {
		if t.open[i].SameContract(p) {
			t.open = append(t.open[:i], t.open[i+1:]...)
			return true
		}
	}
	return false
}

// Restore loads persisted positions, moving already-expired contracts to
// the expired set. Paper sessions replay those as synthetic closes.
func (t *Tracker) Restore(positions []models.TrackedPosition, today time.Time) {
	t.open = t.open[:0]
	t.expired = t.expired[:0]

	for _, p := range positions {
		if p.ExpDate.Before(today) {
			t.expired = append(t.expired, p)
		} else {
			t.open = append(t.open, p)
		}
	}
}

// PopExpired hands out one expired position at a time.
func (t *Tracker) PopExpired() (models.TrackedPosition, bool) {
	if len(t.expired) == 0 {
		return models.TrackedPosition{}, false
	}

	p := t.expired[len(t.expired)-1]
	t.expired = t.expired[:len(t.expired)-1]
	return p, true
}

func fuzzyRatio(a, b string) int {
	a = strings.ToUpper(a)
	b = strings.ToUpper(b)

	lensum := len(a) + len(b)
	if lensum == 0 {
		return 100
	}

	dist := levenshtein.ComputeDistance(a, b)
	return (lensum - dist) * 100 / lensum
}
