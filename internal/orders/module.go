package orders

import (
	"context"

	"go.uber.org/fx"
)

func Module() fx.Option {
	return fx.Module("orders",
		fx.Provide(NewManager),
		fx.Invoke(registerWait),
	)
}

// registerWait keeps the app alive until every supervisor lets go of
// its order.
func registerWait(lc fx.Lifecycle, m *Manager) {
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			done := make(chan struct{})
			go func() {
				defer close(done)
				m.Wait()
			}()
			select {
			case <-done:
			case <-ctx.Done():
			}
			return nil
		},
	})
}
