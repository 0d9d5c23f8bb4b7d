package store

import (
	"context"

	"mirror_trader/internal/models"
	"mirror_trader/pkg/db"
)

// TrackerStore persists the per-channel position trackers between runs.
type TrackerStore interface {
	LoadTracker(ctx context.Context, channel string) ([]models.TrackedPosition, error)
	SaveTracker(ctx context.Context, channel string, positions []models.TrackedPosition) error
}

// StopLossStore persists the ratchet state, keyed by contract id.
type StopLossStore interface {
	LoadStops(ctx context.Context) (map[string]models.StopLossState, error)
	SaveStops(ctx context.Context, stops map[string]models.StopLossState) error
}

type Store interface {
	TrackerStore
	StopLossStore
}

// New prefers postgres; without a configured pool it falls back to
// flat files next to the binary.
func New(txm *db.PgTxManager) Store {
	if txm != nil {
		return NewPg(txm)
	}
	return NewFile("trackers")
}
