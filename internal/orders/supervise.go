package orders

import (
	"context"
	"time"

	"mirror_trader/internal/models"
	"mirror_trader/pkg/logger"
)

func (m *Manager) superviseAsync(wo models.WorkingOrder, limitPrice float64, qty int) {
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		m.supervise(m.sess.Context(), wo, limitPrice, qty)
	}()
}

// supervise works a single order until it fills or dies: it chases the
// mid price within the drift limit, converts stale buy limits to
// market, and places the protective stop after a buy fill.
func (m *Manager) supervise(ctx context.Context, wo models.WorkingOrder, limitPrice float64, qty int) {
	start := m.now()
	failedModifies := 0

	tick := time.NewTicker(orderPollInterval)
	defer tick.Stop()

	for !wo.Filled {
		select {
		case <-ctx.Done():
			m.cancel(wo, "shutdown")
			return
		case <-tick.C:
		}

		if m.clock.AfterClose(m.now()) && !m.sess.Developer() {
			m.cancel(wo, "market closed")
			return
		}

		working, err := m.gw.GetWorkingOrders(ctx)
		if err != nil {
			logger.Error("[%s] working orders: %v", wo.Ticker, err)
			continue
		}
		if !containsOrder(working, wo.OrderID) {
			// Gone from the book means filled.
			wo.Filled = true
			break
		}

		if wo.OrderType == models.OrderMarket {
			continue
		}

		quote, err := m.gw.GetQuote(ctx, wo.Ticker, wo.ContractID)
		if err != nil {
			logger.Error("[%s] quote: %v", wo.Ticker, err)
			continue
		}
		mid := roundTick(quote.Mid())
		smallSpread := (quote.Ask-quote.Bid)*100 < maxSpreadCents

		// Never chase a running price.
		if wo.Action == models.ActionBuy && (mid-limitPrice)*100 > m.maxPriceDiff {
			m.cancel(wo, "price ran away")
			m.notifier.Sendf("NOT FILLED %s: price moved %.2f -> %.2f", wo.Ticker, limitPrice, mid)
			return
		}

		order := models.Order{
			OrderID:    wo.OrderID,
			Ticker:     wo.Ticker,
			ContractID: wo.ContractID,
			Action:     wo.Action,
			OrderType:  wo.OrderType,
			LimitPrice: mid,
			Quantity:   qty,
		}
		if (wo.Action == models.ActionBuy && wo.OrderType == models.OrderLimit &&
			m.now().Sub(start) >= modifyLimitOrderTimeout) || smallSpread {
			order.OrderType = models.OrderMarket
		}

		if err := m.gw.ModifyOrder(ctx, order, models.EnforceDay); err != nil {
			failedModifies++
			logger.Error("[%s] modify %d/%d failed: %v", wo.Ticker, failedModifies, maxFailedModifyAttempts, err)
			if failedModifies >= maxFailedModifyAttempts {
				m.cancel(wo, "modify kept failing")
				return
			}
			continue
		}
		failedModifies = 0
		limitPrice = mid
		wo.OrderType = order.OrderType
	}

	logger.Info("[%s] %s order %s filled", wo.Ticker, wo.Action, wo.OrderID)
	m.notifier.Sendf("FILLED %s %s", wo.Action, wo.Ticker)

	switch wo.Action {
	case models.ActionBuy:
		m.placeProtectiveStop(ctx, wo)
	case models.ActionSell:
		// Remainder of a partial close needs its stop back.
		m.restoreStopAfterPartialClose(ctx, wo)
	}
}

func (m *Manager) cancel(wo models.WorkingOrder, reason string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := m.gw.CancelOrder(ctx, wo.OrderID); err != nil {
		logger.Error("[%s] cancel %s (%s): %v", wo.Ticker, wo.OrderID, reason, err)
		return
	}
	logger.Info("[%s] canceled %s order %s: %s", wo.Ticker, wo.Action, wo.OrderID, reason)
}

// placeProtectiveStop guards the whole filled quantity with a GTC stop.
func (m *Manager) placeProtectiveStop(ctx context.Context, wo models.WorkingOrder) {
	positions, err := m.gw.GetPositions(ctx)
	if err != nil {
		logger.Error("[%s] positions after fill: %v", wo.Ticker, err)
		return
	}

	for _, pos := range positions {
		if pos.ContractID != wo.ContractID || pos.Quantity <= 0 {
			continue
		}

		stop := wo.StopLoss
		if stop <= 0 || stop >= pos.CostPrice {
			stop = pos.CostPrice * (1 - m.defaultSL)
		}
		stop = roundTick(stop)

		_, err := m.gw.PlaceOrder(ctx, models.Order{
			Ticker:     wo.Ticker,
			ContractID: wo.ContractID,
			Action:     models.ActionSell,
			OrderType:  models.OrderStop,
			StopPrice:  stop,
			Quantity:   int(pos.Quantity),
		}, models.EnforceGTC)
		if err != nil {
			logger.Error("[%s] protective stop: %v", wo.Ticker, err)
			m.notifier.Sendf("NO STOP for %s: %v", wo.Ticker, err)
			return
		}
		logger.Info("[%s] protective stop @ %.2f x%d", wo.Ticker, stop, int(pos.Quantity))
		return
	}
}

func (m *Manager) restoreStopAfterPartialClose(ctx context.Context, wo models.WorkingOrder) {
	positions, err := m.gw.GetPositions(ctx)
	if err != nil {
		logger.Error("[%s] positions after close: %v", wo.Ticker, err)
		return
	}

	for _, pos := range positions {
		if pos.ContractID != wo.ContractID || pos.Quantity <= 0 {
			continue
		}

		// No stop was carried over; the remainder still gets the default.
		stop := wo.StopLoss
		if stop <= 0 {
			stop = pos.CostPrice * (1 - m.defaultSL)
		}
		stop = roundTick(stop)

		_, err := m.gw.PlaceOrder(ctx, models.Order{
			Ticker:     wo.Ticker,
			ContractID: wo.ContractID,
			Action:     models.ActionSell,
			OrderType:  models.OrderStop,
			StopPrice:  stop,
			Quantity:   int(pos.Quantity),
		}, models.EnforceGTC)
		if err != nil {
			logger.Error("[%s] restore stop: %v", wo.Ticker, err)
			return
		}
		logger.Info("[%s] stop restored @ %.2f for remaining x%d", wo.Ticker, stop, int(pos.Quantity))
		return
	}
}

func containsOrder(working []models.WorkingOrder, orderID string) bool {
	for _, o := range working {
		if o.OrderID == orderID {
			return true
		}
	}
	return false
}
