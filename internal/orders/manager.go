package orders

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/opentracing/opentracing-go"

	"mirror_trader/internal/broker"
	"mirror_trader/internal/market"
	"mirror_trader/internal/models"
	"mirror_trader/internal/modules/config"
	"mirror_trader/internal/notify"
	"mirror_trader/internal/session"
	"mirror_trader/pkg/logger"
)

const (
	// A resting buy limit older than this is converted to market.
	modifyLimitOrderTimeout = 10 * time.Second
	maxFailedModifyAttempts = 3
	// Spread below this many cents per contract means the book is tight
	// enough for a market order.
	maxSpreadCents    = 10.0
	priceIncrement    = 0.05
	orderPollInterval = 500 * time.Millisecond

	// Close fractions in this band are absolute contract counts, not shares
	// of the position.
	sellSingleMin = 0.01
	sellSingleMax = 0.09
)

// Manager owns the full order lifecycle: sizing, placement, price
// supervision until fill and the protective stop afterwards.
type Manager struct {
	gw       broker.Gateway
	clock    *market.Clock
	sess     *session.Session
	notifier notify.Notifier

	defaultSL    float64
	maxPriceDiff float64
	cutoffHour   int
	cutoffMinute int

	wg  sync.WaitGroup
	now func() time.Time
}

func NewManager(
	cfg *config.Config,
	gw broker.Gateway,
	clock *market.Clock,
	sess *session.Session,
	notifier notify.Notifier,
) (*Manager, error) {
	h, m, err := config.ClockTime(cfg.Trading.BuyCutoff)
	if err != nil {
		return nil, fmt.Errorf("orders: bad buy cutoff %q: %w", cfg.Trading.BuyCutoff, err)
	}
	return &Manager{
		gw:           gw,
		clock:        clock,
		sess:         sess,
		notifier:     notifier,
		defaultSL:    cfg.Trading.DefaultSL,
		maxPriceDiff: cfg.Trading.MaxPriceDiff,
		cutoffHour:   h,
		cutoffMinute: m,
		now:          time.Now,
	}, nil
}

// Wait blocks until every order supervisor has finished.
func (m *Manager) Wait() { m.wg.Wait() }

// Buy opens a position from an alert. The supervisor goroutine keeps
// working the order after this returns.
func (m *Manager) Buy(ctx context.Context, alert models.TradeAlert) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "orders.buy")
	defer span.Finish()
	span.SetTag("ticker", alert.Ticker)

	contractID, resolvedExp, err := m.gw.GetOptionContractID(ctx, alert.Ticker, alert.Strike, alert.Direction, alert.ExpDate)
	if err != nil {
		return fmt.Errorf("buy %s: %w", alert.Ticker, err)
	}

	now := m.now()
	if sameDay(resolvedExp, now) && pastCutoff(now, m.cutoffHour, m.cutoffMinute) {
		return fmt.Errorf("buy %s: same-day expiry after %02d:%02d cutoff", alert.Ticker, m.cutoffHour, m.cutoffMinute)
	}

	quote, err := m.gw.GetQuote(ctx, alert.Ticker, contractID)
	if err != nil {
		return fmt.Errorf("buy %s: %w", alert.Ticker, err)
	}
	mid := roundTick(quote.Mid())
	smallSpread := (quote.Ask-quote.Bid)*100 < maxSpreadCents

	price, stop := alert.Price, alert.StopLoss
	if mid < price || price == 0 {
		// The book is better than the alert; keep the stop distance
		// proportional when adopting the quote.
		if stop >= mid {
			if price > 0 {
				stop = mid - mid*((price-stop)/price)
			} else {
				stop = mid * (1 - m.defaultSL)
			}
		}
		price = mid
	}
	price = roundTick(price)
	stop = roundTick(stop)

	orderType := models.OrderLimit
	if smallSpread {
		orderType = models.OrderMarket
	}

	qty, err := m.buyQuantity(ctx, alert.InvestPct, price)
	if err != nil {
		return fmt.Errorf("buy %s: %w", alert.Ticker, err)
	}

	orderID, err := m.gw.PlaceOrder(ctx, models.Order{
		Ticker:     alert.Ticker,
		ContractID: contractID,
		Action:     models.ActionBuy,
		OrderType:  orderType,
		LimitPrice: price,
		Quantity:   qty,
	}, models.EnforceDay)
	if err != nil {
		return fmt.Errorf("buy %s: %w", alert.Ticker, err)
	}

	logger.Info("[%s] buy %d x %s %s @ %.2f (%s), stop %.2f",
		alert.Ticker, qty, alert.Strike, alert.Direction, price, orderType, stop)
	m.notifier.Sendf("BUY %s %s %s x%d @ %.2f", alert.Ticker, alert.Strike, alert.Direction, qty, price)

	m.superviseAsync(models.WorkingOrder{
		Action:     models.ActionBuy,
		OrderID:    orderID,
		Ticker:     alert.Ticker,
		ContractID: contractID,
		StopLoss:   stop,
		OrderType:  orderType,
	}, price, qty)
	return nil
}

// Sell closes all or part of a tracked position.
func (m *Manager) Sell(ctx context.Context, alert models.TradeAlert) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "orders.sell")
	defer span.Finish()
	span.SetTag("ticker", alert.Ticker)

	positions, err := m.gw.GetPositions(ctx)
	if err != nil {
		return fmt.Errorf("sell %s: %w", alert.Ticker, err)
	}

	pos, ok := matchPosition(positions, alert)
	if !ok {
		return fmt.Errorf("sell %s %s %s: no open position", alert.Ticker, alert.Strike, alert.Direction)
	}

	// A resting protective stop on the same contract blocks the close.
	canceledStop, err := m.cancelProtectiveStop(ctx, pos)
	if err != nil {
		return fmt.Errorf("sell %s: %w", alert.Ticker, err)
	}

	quote, err := m.gw.GetQuote(ctx, pos.Ticker, pos.ContractID)
	if err != nil {
		return fmt.Errorf("sell %s: %w", alert.Ticker, err)
	}
	mid := roundTick(quote.Mid())
	smallSpread := (quote.Ask-quote.Bid)*100 < maxSpreadCents

	price := alert.Price
	if mid > price || price == 0 {
		price = mid
	}
	price = roundTick(price)

	qty := sellQuantity(alert.Close.Fraction, pos.Quantity)
	if qty <= 0 {
		return fmt.Errorf("sell %s: nothing to sell", alert.Ticker)
	}

	orderType := models.OrderLimit
	if smallSpread || m.gw.Paper() {
		orderType = models.OrderMarket
	}

	orderID, err := m.gw.PlaceOrder(ctx, models.Order{
		Ticker:     pos.Ticker,
		ContractID: pos.ContractID,
		Action:     models.ActionSell,
		OrderType:  orderType,
		LimitPrice: price,
		Quantity:   qty,
	}, models.EnforceDay)
	if err != nil {
		return fmt.Errorf("sell %s: %w", alert.Ticker, err)
	}

	logger.Info("[%s] sell %d of %.0f @ %.2f (%s)", pos.Ticker, qty, pos.Quantity, price, orderType)
	m.notifier.Sendf("SELL %s %s %s x%d @ %.2f", pos.Ticker, pos.Strike, pos.Direction, qty, price)

	m.superviseAsync(models.WorkingOrder{
		Action:     models.ActionSell,
		OrderID:    orderID,
		Ticker:     pos.Ticker,
		ContractID: pos.ContractID,
		StopLoss:   canceledStop,
		OrderType:  orderType,
	}, price, qty)
	return nil
}

func (m *Manager) buyQuantity(ctx context.Context, investPct, price float64) (int, error) {
	if price <= 0 {
		return 0, fmt.Errorf("no price to size against")
	}
	balances, err := m.gw.GetAccountBalances(ctx)
	if err != nil {
		return 0, err
	}

	var qty int
	if m.gw.Paper() {
		qty = int(balances.Cash * investPct / price)
	} else {
		qty = int(balances.OptionBP * investPct / (price * 100))
	}
	if qty <= 0 {
		return 0, fmt.Errorf("insufficient buying power for %.2f", price)
	}
	return qty, nil
}

// sellQuantity: fractions in the single-contract band mean "sell N
// contracts"; anything else is a share of the held quantity.
func sellQuantity(fraction, held float64) int {
	if held <= 0 {
		return 0
	}
	if fraction >= sellSingleMin && fraction <= sellSingleMax {
		qty := int(math.Round(fraction * 100))
		if float64(qty) > held {
			qty = int(held)
		}
		return qty
	}

	q := held * fraction
	if q > 0 && q < 1 {
		q = 1
	}
	qty := int(q)
	if float64(qty) > held {
		qty = int(held)
	}
	return qty
}

// cancelProtectiveStop removes a working stop order on the contract and
// returns its trigger price, zero when there was none.
func (m *Manager) cancelProtectiveStop(ctx context.Context, pos models.OpenPosition) (float64, error) {
	working, err := m.gw.GetWorkingOrders(ctx)
	if err != nil {
		return 0, err
	}
	for _, o := range working {
		if o.OrderType != models.OrderStop || o.ContractID != pos.ContractID {
			continue
		}
		if err := m.gw.CancelOrder(ctx, o.OrderID); err != nil {
			return 0, err
		}
		logger.Info("[%s] canceled protective stop %s @ %.2f", pos.Ticker, o.OrderID, o.StopLoss)
		return o.StopLoss, nil
	}
	return 0, nil
}

func matchPosition(positions []models.OpenPosition, alert models.TradeAlert) (models.OpenPosition, bool) {
	for _, p := range positions {
		if p.Ticker != alert.Ticker {
			continue
		}
		if alert.Strike != "" && p.Strike != alert.Strike {
			continue
		}
		if alert.Direction != "" && p.Direction != alert.Direction {
			continue
		}
		if !alert.ExpDate.IsZero() && !sameDay(p.ExpDate, alert.ExpDate) {
			continue
		}
		return p, true
	}
	return models.OpenPosition{}, false
}

// roundTick snaps sub-$3 option prices to the five-cent grid.
func roundTick(p float64) float64 {
	if p <= 0 || p >= 3 {
		return round2(p)
	}
	return round2(math.Round(p/priceIncrement) * priceIncrement)
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }

func sameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}

func pastCutoff(now time.Time, hour, minute int) bool {
	return now.Hour() > hour || (now.Hour() == hour && now.Minute() >= minute)
}
