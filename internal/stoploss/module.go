package stoploss

import (
	"context"

	"go.uber.org/fx"

	"mirror_trader/internal/session"
)

func Module() fx.Option {
	return fx.Module("stoploss",
		fx.Provide(NewEngine),
		fx.Invoke(RunEngine),
	)
}

func RunEngine(lc fx.Lifecycle, e *Engine, sess *session.Session) {
	done := make(chan struct{})
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				defer close(done)
				e.Run(sess.Context())
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			sess.Shutdown()
			select {
			case <-done:
			case <-ctx.Done():
			}
			return nil
		},
	})
}
