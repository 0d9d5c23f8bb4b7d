package stoploss

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mirror_trader/internal/models"
	"mirror_trader/internal/modules/config"
	"mirror_trader/internal/store"
	"mirror_trader/pkg/logger"
)

func TestMain(m *testing.M) {
	if err := logger.Init(); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

type fakeGateway struct {
	mu sync.Mutex

	paper     bool
	positions []models.OpenPosition
	working   []models.WorkingOrder

	placed   []models.Order
	modified []models.Order
}

func (f *fakeGateway) PlaceOrder(_ context.Context, o models.Order, _ models.TimeInForce) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.placed = append(f.placed, o)
	return "ord-1", nil
}

func (f *fakeGateway) ModifyOrder(_ context.Context, o models.Order, _ models.TimeInForce) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.modified = append(f.modified, o)
	return nil
}

func (f *fakeGateway) CancelOrder(context.Context, string) error { return nil }

func (f *fakeGateway) GetPositions(context.Context) ([]models.OpenPosition, error) {
	return f.positions, nil
}

func (f *fakeGateway) GetWorkingOrders(context.Context) ([]models.WorkingOrder, error) {
	return f.working, nil
}

func (f *fakeGateway) GetQuote(context.Context, string, string) (models.Quote, error) {
	return models.Quote{}, nil
}

func (f *fakeGateway) GetAccountBalances(context.Context) (models.AccountBalances, error) {
	return models.AccountBalances{}, nil
}

func (f *fakeGateway) GetOptionContractID(_ context.Context, _, _ string, _ models.Direction, exp time.Time) (string, time.Time, error) {
	return "c-1", exp, nil
}

func (f *fakeGateway) Paper() bool { return f.paper }

type recordingNotifier struct {
	mu   sync.Mutex
	sent []string
}

func (r *recordingNotifier) Send(msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, msg)
}

func (r *recordingNotifier) Sendf(format string, args ...any) {
	r.Send(fmt.Sprintf(format, args...))
}

func newTestEngine(t *testing.T, gw *fakeGateway) (*Engine, *recordingNotifier) {
	t.Helper()
	cfg := &config.Config{}
	cfg.Trading.DefaultSL = 0.2
	n := &recordingNotifier{}
	return NewEngine(cfg, gw, store.NewFile(t.TempDir()), n), n
}

func TestEngineSeedsAndRaisesStop(t *testing.T) {
	gw := &fakeGateway{
		positions: []models.OpenPosition{{
			Ticker: "SPY", ContractID: "c-1", Quantity: 5, CostPrice: 2.0, LastPrice: 2.3,
		}},
		working: []models.WorkingOrder{{
			OrderID: "stp-1", ContractID: "c-1",
			OrderType: models.OrderStop, StopLoss: 1.6,
		}},
	}
	e, _ := newTestEngine(t, gw)

	e.scan(context.Background())

	// +15% ratchets the stop to breakeven via the broker order.
	require.Len(t, gw.modified, 1)
	assert.Equal(t, "stp-1", gw.modified[0].OrderID)
	assert.Equal(t, 2.0, gw.modified[0].StopPrice)

	st := e.states["c-1"]
	assert.Equal(t, 2.0, st.StopPrice)
	assert.False(t, st.Dirty)
}

func TestEngineStopOrderGoneMeansStoppedOut(t *testing.T) {
	gw := &fakeGateway{
		positions: []models.OpenPosition{{
			Ticker: "SPY", ContractID: "c-1", Quantity: 5, CostPrice: 2.0, LastPrice: 1.5,
		}},
	}
	e, n := newTestEngine(t, gw)
	e.states["c-1"] = models.StopLossState{StopPrice: 1.6, Level: -0.2}

	e.scan(context.Background())

	_, tracked := e.states["c-1"]
	assert.False(t, tracked)
	require.Len(t, n.sent, 1)
	assert.Contains(t, n.sent[0], "STOPPED OUT")
}

func TestEngineLeavesFreshPositionWithoutStopAlone(t *testing.T) {
	// A just-filled buy has no stop order until its supervisor places
	// one; the engine must not mistake that gap for a triggered stop.
	gw := &fakeGateway{
		positions: []models.OpenPosition{{
			Ticker: "SPY", ContractID: "c-1", Quantity: 5, CostPrice: 2.0, LastPrice: 2.05,
		}},
	}
	e, n := newTestEngine(t, gw)

	for i := 0; i < 3; i++ {
		e.scan(context.Background())
	}

	_, tracked := e.states["c-1"]
	assert.False(t, tracked)
	assert.Empty(t, n.sent)

	// Once the protective stop shows up the position is adopted.
	gw.working = []models.WorkingOrder{{
		OrderID: "stp-1", ContractID: "c-1",
		OrderType: models.OrderStop, StopLoss: 1.6,
	}}
	e.scan(context.Background())

	_, tracked = e.states["c-1"]
	assert.True(t, tracked)
}

func TestEnginePaperLiquidatesAtStop(t *testing.T) {
	gw := &fakeGateway{
		paper: true,
		positions: []models.OpenPosition{{
			Ticker: "SPY", ContractID: "c-1", Quantity: 5, CostPrice: 2.0, LastPrice: 1.55,
		}},
	}
	e, _ := newTestEngine(t, gw)

	e.scan(context.Background())

	require.Len(t, gw.placed, 1)
	assert.Equal(t, models.ActionSell, gw.placed[0].Action)
	assert.Equal(t, models.OrderMarket, gw.placed[0].OrderType)
	assert.Equal(t, 5, gw.placed[0].Quantity)

	_, tracked := e.states["c-1"]
	assert.False(t, tracked)
}

func TestEngineDropsStateForClosedPositions(t *testing.T) {
	gw := &fakeGateway{}
	e, _ := newTestEngine(t, gw)
	e.states["c-9"] = models.StopLossState{StopPrice: 1.0}

	e.scan(context.Background())

	assert.Empty(t, e.states)
}
