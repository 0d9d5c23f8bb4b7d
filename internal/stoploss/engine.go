package stoploss

import (
	"context"
	"time"

	"mirror_trader/internal/broker"
	"mirror_trader/internal/models"
	"mirror_trader/internal/modules/config"
	"mirror_trader/internal/notify"
	"mirror_trader/internal/store"
	"mirror_trader/pkg/logger"
)

const scanInterval = 500 * time.Millisecond

// Engine watches every open position and ratchets its protective stop
// as profit grows. Paper accounts have no live stop orders, so the
// engine also acts as their synthetic stop trigger.
type Engine struct {
	gw       broker.Gateway
	store    store.StopLossStore
	notifier notify.Notifier

	defaultSL float64
	states    map[string]models.StopLossState
}

func NewEngine(cfg *config.Config, gw broker.Gateway, st store.Store, notifier notify.Notifier) *Engine {
	return &Engine{
		gw:        gw,
		store:     st,
		notifier:  notifier,
		defaultSL: cfg.Trading.DefaultSL,
		states:    map[string]models.StopLossState{},
	}
}

func (e *Engine) Run(ctx context.Context) {
	if stops, err := e.store.LoadStops(ctx); err != nil {
		logger.Error("stoploss: restore states: %v", err)
	} else if len(stops) > 0 {
		e.states = stops
		logger.Info("stoploss: restored %d ratchet states", len(stops))
	}
	defer e.persist()

	tick := time.NewTicker(scanInterval)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-tick.C:
			e.scan(ctx)
		}
	}
}

func (e *Engine) persist() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := e.store.SaveStops(ctx, e.states); err != nil {
		logger.Error("stoploss: persist states: %v", err)
	}
}

func (e *Engine) scan(ctx context.Context) {
	positions, err := e.gw.GetPositions(ctx)
	if err != nil {
		logger.Error("stoploss: positions: %v", err)
		return
	}
	working, err := e.gw.GetWorkingOrders(ctx)
	if err != nil {
		logger.Error("stoploss: working orders: %v", err)
		return
	}

	seen := make(map[string]struct{}, len(positions))
	for _, pos := range positions {
		if pos.Quantity <= 0 {
			continue
		}
		seen[pos.ContractID] = struct{}{}
		e.track(ctx, pos, working)
	}

	// Closed positions take their ratchet state with them.
	for id := range e.states {
		if _, ok := seen[id]; !ok {
			delete(e.states, id)
		}
	}
}

func (e *Engine) track(ctx context.Context, pos models.OpenPosition, working []models.WorkingOrder) {
	stopOrder, hasStop := findStopOrder(working, pos.ContractID)

	st, tracked := e.states[pos.ContractID]

	if !e.gw.Paper() && !hasStop {
		if !tracked {
			// Fresh fill whose protective stop is not on the book yet.
			return
		}
		// The stop order vanished without us touching it: it triggered.
		delete(e.states, pos.ContractID)
		e.notifier.Sendf("STOPPED OUT %s %s %s @ %.2f", pos.Ticker, pos.Strike, pos.Direction, st.StopPrice)
		return
	}

	if !tracked {
		orderStop := 0.0
		if !e.gw.Paper() {
			orderStop = stopOrder.StopLoss
		}
		st = seedState(pos.CostPrice, orderStop, e.defaultSL)
		e.states[pos.ContractID] = st
		logger.Info("[%s] ratchet seeded, stop %.2f", pos.Ticker, st.StopPrice)
	}

	if e.gw.Paper() && pos.LastPrice <= st.StopPrice {
		e.liquidate(ctx, pos, st)
		return
	}

	st = decideRatchet(input{
		entryPrice: pos.CostPrice,
		lastPrice:  pos.LastPrice,
		state:      st,
		defaultSL:  e.defaultSL,
	})

	if st.Dirty {
		if e.gw.Paper() {
			// No broker order to move; the state itself is the stop.
			st.Dirty = false
			e.notifier.Sendf("STOP RAISED %s -> %.2f", pos.Ticker, st.StopPrice)
		} else if err := e.gw.ModifyOrder(ctx, models.Order{
			OrderID:    stopOrder.OrderID,
			Ticker:     pos.Ticker,
			ContractID: pos.ContractID,
			Action:     models.ActionSell,
			OrderType:  models.OrderStop,
			StopPrice:  st.StopPrice,
			Quantity:   int(pos.Quantity),
		}, models.EnforceGTC); err != nil {
			logger.Error("[%s] raise stop to %.2f: %v", pos.Ticker, st.StopPrice, err)
		} else {
			st.Dirty = false
			e.notifier.Sendf("STOP RAISED %s -> %.2f", pos.Ticker, st.StopPrice)
		}
	}

	e.states[pos.ContractID] = st
}

// liquidate emulates a triggered stop on a paper account.
func (e *Engine) liquidate(ctx context.Context, pos models.OpenPosition, st models.StopLossState) {
	_, err := e.gw.PlaceOrder(ctx, models.Order{
		Ticker:     pos.Ticker,
		ContractID: pos.ContractID,
		Action:     models.ActionSell,
		OrderType:  models.OrderMarket,
		Quantity:   int(pos.Quantity),
	}, models.EnforceDay)
	if err != nil {
		logger.Error("[%s] paper stop liquidation: %v", pos.Ticker, err)
		return
	}

	delete(e.states, pos.ContractID)
	e.notifier.Sendf("STOPPED OUT %s %s %s @ %.2f (paper)", pos.Ticker, pos.Strike, pos.Direction, st.StopPrice)
}

func findStopOrder(working []models.WorkingOrder, contractID string) (models.WorkingOrder, bool) {
	for _, o := range working {
		if o.OrderType == models.OrderStop && o.ContractID == contractID {
			return o, true
		}
	}
	return models.WorkingOrder{}, false
}
