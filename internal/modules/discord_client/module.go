package discord_client

import (
	"context"

	"go.uber.org/fx"

	"mirror_trader/internal/modules/config"
	"mirror_trader/internal/modules/discord_client/service"
	"mirror_trader/internal/session"
)

func Module() fx.Option {
	return fx.Module("discord_client",
		fx.Provide(
			NewServiceClient,
			NewPoller,
		),
		fx.Invoke(RunPoller),
	)
}

func NewServiceClient(cfg *config.Config) *service.Client {
	return service.NewClient(cfg.Discord.Token)
}

func RunPoller(lc fx.Lifecycle, p *Poller, sess *session.Session) {
	done := make(chan struct{})
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				defer close(done)
				p.Run(sess.Context())
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
