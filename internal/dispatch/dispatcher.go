package dispatch

import (
	"context"
	"strings"
	"time"

	"github.com/opentracing/opentracing-go"

	"mirror_trader/internal/market"
	"mirror_trader/internal/models"
	"mirror_trader/internal/notify"
	"mirror_trader/internal/orders"
	"mirror_trader/internal/session"
	"mirror_trader/pkg/logger"
)

// Dispatcher is the single consumer of the session queue. It routes
// alert items to the order manager and control items to the shutdown
// path, and stops the session when the market closes.
type Dispatcher struct {
	sess     *session.Session
	manager  *orders.Manager
	clock    *market.Clock
	notifier notify.Notifier
}

func NewDispatcher(sess *session.Session, manager *orders.Manager, clock *market.Clock, notifier notify.Notifier) *Dispatcher {
	return &Dispatcher{sess: sess, manager: manager, clock: clock, notifier: notifier}
}

func (d *Dispatcher) Run(ctx context.Context) {
	closeCheck := time.NewTicker(time.Second)
	defer closeCheck.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case <-closeCheck.C:
			if d.clock.AfterClose(time.Now()) && !d.sess.Developer() {
				logger.Info("dispatch: market closed, shutting down")
				d.notifier.Send("Market closed. Shutting down.")
				d.sess.Shutdown()
				return
			}

		case item := <-d.sess.Queue():
			switch item.Kind {
			case session.ItemControl:
				if d.handleControl(item.Command) {
					return
				}
			case session.ItemAlert:
				d.handleAlert(ctx, item)
			}
		}
	}
}

// handleControl reports true when the command ends the session.
func (d *Dispatcher) handleControl(command string) bool {
	switch strings.ToUpper(strings.TrimSpace(command)) {
	case "END", "STOP", "QUIT":
		logger.Info("dispatch: shutdown command received")
		d.notifier.Send("Shutting down. Goodbye!")
		d.sess.Shutdown()
		return true
	default:
		d.notifier.Sendf("Unknown command %q. Type (END/STOP/QUIT) to shutdown.", command)
		return false
	}
}

func (d *Dispatcher) handleAlert(ctx context.Context, item session.Item) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "dispatch.alert")
	defer span.Finish()
	span.SetTag("channel", item.Channel)

	alert := item.Alert
	logger.Info("[%s] dispatch %s %s %s %s", item.Channel, alert.Signal, alert.Ticker, alert.Strike, alert.Direction)

	var err error
	switch alert.Signal {
	case models.SignalOpen:
		err = d.manager.Buy(ctx, alert)
	case models.SignalClose:
		err = d.manager.Sell(ctx, alert)
	default:
		logger.Warn("[%s] alert without signal, dropped", item.Channel)
		return
	}

	if err != nil {
		logger.Error("[%s] %v", item.Channel, err)
		d.notifier.Sendf("ORDER FAILED: %v", err)
	}
}
