package store

import (
	"context"

	"github.com/bytedance/sonic"
	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"

	"mirror_trader/internal/models"
	"mirror_trader/pkg/db"
)

// Pg keeps one row per channel tracker and one per contract stop state.
// Payloads are JSON so schema changes stay cheap.
type Pg struct {
	txm *db.PgTxManager
}

func NewPg(txm *db.PgTxManager) *Pg { return &Pg{txm: txm} }

func (p *Pg) LoadTracker(ctx context.Context, channel string) ([]models.TrackedPosition, error) {
	var payload []byte
	err := p.txm.Conn().
		QueryRow(ctx, `SELECT payload FROM channel_trackers WHERE channel = $1`, channel).
		Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "load tracker %s", channel)
	}

	var positions []models.TrackedPosition
	if err := sonic.Unmarshal(payload, &positions); err != nil {
		return nil, errors.Wrapf(err, "decode tracker %s", channel)
	}
	return positions, nil
}

func (p *Pg) SaveTracker(ctx context.Context, channel string, positions []models.TrackedPosition) error {
	payload, err := sonic.Marshal(positions)
	if err != nil {
		return errors.Wrapf(err, "encode tracker %s", channel)
	}

	return p.txm.Run(ctx, func(ctxTx context.Context, tx pgx.Tx) error {
		_, err := tx.Exec(ctxTx, `
			INSERT INTO channel_trackers (channel, payload, updated_at)
			VALUES ($1, $2, now())
			ON CONFLICT (channel) DO UPDATE
			SET payload = excluded.payload, updated_at = now()`,
			channel, payload)
		return errors.Wrapf(err, "save tracker %s", channel)
	})
}

func (p *Pg) LoadStops(ctx context.Context) (map[string]models.StopLossState, error) {
	rows, err := p.txm.Conn().
		Query(ctx, `SELECT contract_id, payload FROM stop_loss_states`)
	if err != nil {
		return nil, errors.Wrap(err, "load stops")
	}
	defer rows.Close()

	stops := map[string]models.StopLossState{}
	for rows.Next() {
		var (
			contractID string
			payload    []byte
		)
		if err := rows.Scan(&contractID, &payload); err != nil {
			return nil, errors.Wrap(err, "scan stop state")
		}
		var st models.StopLossState
		if err := sonic.Unmarshal(payload, &st); err != nil {
			return nil, errors.Wrapf(err, "decode stop state %s", contractID)
		}
		stops[contractID] = st
	}
	return stops, rows.Err()
}

func (p *Pg) SaveStops(ctx context.Context, stops map[string]models.StopLossState) error {
	return p.txm.Run(ctx, func(ctxTx context.Context, tx pgx.Tx) error {
		if _, err := tx.Exec(ctxTx, `DELETE FROM stop_loss_states`); err != nil {
			return errors.Wrap(err, "clear stops")
		}
		for contractID, st := range stops {
			payload, err := sonic.Marshal(st)
			if err != nil {
				return errors.Wrapf(err, "encode stop state %s", contractID)
			}
			if _, err := tx.Exec(ctxTx, `
				INSERT INTO stop_loss_states (contract_id, payload, updated_at)
				VALUES ($1, $2, now())`,
				contractID, payload); err != nil {
				return errors.Wrapf(err, "save stop state %s", contractID)
			}
		}
		return nil
	})
}
