package dispatch

import (
	"context"

	"go.uber.org/fx"

	"mirror_trader/internal/session"
)

func Module() fx.Option {
	return fx.Module("dispatch",
		fx.Provide(NewDispatcher),
		fx.Invoke(RunDispatcher),
	)
}

func RunDispatcher(lc fx.Lifecycle, d *Dispatcher, sess *session.Session, shutdowner fx.Shutdowner) {
	done := make(chan struct{})
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				defer close(done)
				d.Run(sess.Context())
				// Dispatcher exit ends the whole app.
				_ = shutdowner.Shutdown()
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
