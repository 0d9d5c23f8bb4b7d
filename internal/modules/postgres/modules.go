package postgres

import (
	"context"
	"fmt"
	"mirror_trader/internal/modules/config"
	"mirror_trader/pkg/db"

	"go.uber.org/fx"
)

// Module provides the tx manager. Nil when no DSN is configured;
// the store falls back to tracker files in that case.
func Module() fx.Option {
	return fx.Module("postgres",
		fx.Provide(
			func(ctx context.Context, cfg *config.Config) (*db.PgTxManager, error) {
				if cfg.DB == "" {
					return nil, nil
				}

				pool, err := db.NewPool(ctx, db.PoolConfig{
					DSN: cfg.DB,
				})
				if err != nil {
					return nil, fmt.Errorf("failed to create pool: %w", err)
				}

				err = pool.Ping(ctx)
				if err != nil {
					return nil, err
				}

				return db.NewPgTxManager(pool), nil
			},
		),
	)
}
