package store

import (
	"context"
	"os"
	"path/filepath"

	"github.com/bytedance/sonic"
	"github.com/pkg/errors"

	"mirror_trader/internal/models"
)

const stopsFileName = "stop_loss.json"

// File keeps one <channel>.tracker file per channel plus a single
// stop-loss state file, all under dir.
type File struct {
	dir string
}

func NewFile(dir string) *File { return &File{dir: dir} }

func (f *File) LoadTracker(_ context.Context, channel string) ([]models.TrackedPosition, error) {
	data, err := os.ReadFile(f.trackerPath(channel))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrapf(err, "read tracker %s", channel)
	}

	var positions []models.TrackedPosition
	if err := sonic.Unmarshal(data, &positions); err != nil {
		return nil, errors.Wrapf(err, "decode tracker %s", channel)
	}
	return positions, nil
}

func (f *File) SaveTracker(_ context.Context, channel string, positions []models.TrackedPosition) error {
	if err := os.MkdirAll(f.dir, 0o755); err != nil {
		return errors.Wrap(err, "tracker dir")
	}

	data, err := sonic.Marshal(positions)
	if err != nil {
		return errors.Wrapf(err, "encode tracker %s", channel)
	}
	return errors.Wrapf(os.WriteFile(f.trackerPath(channel), data, 0o644), "write tracker %s", channel)
}

func (f *File) LoadStops(_ context.Context) (map[string]models.StopLossState, error) {
	data, err := os.ReadFile(filepath.Join(f.dir, stopsFileName))
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]models.StopLossState{}, nil
		}
		return nil, errors.Wrap(err, "read stops")
	}

	stops := map[string]models.StopLossState{}
	if err := sonic.Unmarshal(data, &stops); err != nil {
		return nil, errors.Wrap(err, "decode stops")
	}
	return stops, nil
}

func (f *File) SaveStops(_ context.Context, stops map[string]models.StopLossState) error {
	if err := os.MkdirAll(f.dir, 0o755); err != nil {
		return errors.Wrap(err, "tracker dir")
	}

	data, err := sonic.Marshal(stops)
	if err != nil {
		return errors.Wrap(err, "encode stops")
	}
	return errors.Wrap(os.WriteFile(filepath.Join(f.dir, stopsFileName), data, 0o644), "write stops")
}

func (f *File) trackerPath(channel string) string {
	return filepath.Join(f.dir, channel+".tracker")
}
