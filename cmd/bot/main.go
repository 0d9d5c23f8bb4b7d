package main

import (
	"context"
	"log"

	"go.uber.org/fx"

	"mirror_trader/internal/dispatch"
	"mirror_trader/internal/market"
	"mirror_trader/internal/modules/config"
	"mirror_trader/internal/modules/discord_client"
	"mirror_trader/internal/modules/health"
	"mirror_trader/internal/modules/killswitch"
	"mirror_trader/internal/modules/postgres"
	"mirror_trader/internal/modules/webull_client"
	"mirror_trader/internal/orders"
	"mirror_trader/internal/session"
	"mirror_trader/internal/stoploss"
	"mirror_trader/internal/store"
	"mirror_trader/pkg/logger"
	"mirror_trader/pkg/tracing"
)

const serviceName = "mirror_trader"

func main() {
	logger.SetServiceName(serviceName)
	if err := logger.Init(); err != nil {
		log.Fatal(err)
	}
	tracing.SetServiceName(serviceName)

	app := fx.New(
		fx.Provide(
			func() context.Context { return context.Background() },
			newSession,
			market.NewClock,
			store.New,
		),
		config.Module(),
		postgres.Module(),
		webull_client.Module(),
		killswitch.Module(),
		health.Module(),
		orders.Module(),
		stoploss.Module(),
		dispatch.Module(),
		discord_client.Module(),
		fx.Invoke(initTracing),
	)
	app.Run()
}

func newSession(cfg *config.Config) *session.Session {
	return session.New(context.Background(), cfg.Developer)
}

func initTracing(lc fx.Lifecycle, cfg *config.Config) error {
	if cfg.Jaeger.Host == "" {
		return nil
	}
	_, closer, err := tracing.InitTracer(tracing.Config{Host: cfg.Jaeger.Host, Port: cfg.Jaeger.Port})
	if err != nil {
		return err
	}
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			closer()
			return nil
		},
	})
	return nil
}
