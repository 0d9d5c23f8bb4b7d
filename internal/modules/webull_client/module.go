package webull_client

import (
	"go.uber.org/fx"

	"mirror_trader/internal/broker"
	"mirror_trader/internal/modules/config"
	"mirror_trader/internal/modules/webull_client/service"
)

func Module() fx.Option {
	return fx.Module("webull_client",
		fx.Provide(NewGateway),
	)
}

func NewGateway(cfg *config.Config) broker.Gateway {
	return service.NewClient(
		cfg.Webull.Endpoint,
		cfg.Webull.DeviceID,
		cfg.Webull.Token,
		cfg.Webull.Paper,
	)
}
