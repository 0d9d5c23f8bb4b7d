package killswitch

import (
	"context"

	"go.uber.org/fx"

	"mirror_trader/internal/broker"
	"mirror_trader/internal/modules/config"
	"mirror_trader/internal/notify"
	"mirror_trader/internal/session"
	"mirror_trader/pkg/logger"
)

// The kill switch is the Telegram side channel: it owns the notifier
// and forwards chat text to the session queue as control items.
func Module() fx.Option {
	return fx.Module("killswitch",
		fx.Provide(NewNotifier),
		fx.Invoke(Run),
	)
}

func NewNotifier(cfg *config.Config, gw broker.Gateway) notify.Notifier {
	if cfg.Telegram.Token == "" {
		logger.Info("killswitch: no telegram token, falling back to stdout")
		return notify.NewStdout()
	}
	t, err := notify.NewTelegram(cfg.Telegram.Token, cfg.Telegram.ChatID, gw)
	if err != nil {
		logger.Error("killswitch: telegram init: %v", err)
		return notify.NewStdout()
	}
	return t
}

func Run(lc fx.Lifecycle, n notify.Notifier, sess *session.Session) {
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			if t, ok := n.(*notify.Telegram); ok {
				if err := t.Start(sess.Context(), func(text string) {
					sess.Push(session.Item{Kind: session.ItemControl, Command: text})
				}); err != nil {
					return err
				}
			}
			n.Send("Mirror Trader is active! Type (END/STOP/QUIT) to shutdown.")
			return nil
		},
		OnStop: func(context.Context) error {
			if t, ok := n.(*notify.Telegram); ok {
				t.Stop()
			}
			return nil
		},
	})
}
