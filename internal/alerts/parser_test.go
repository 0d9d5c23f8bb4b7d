package alerts

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mirror_trader/internal/models"
)

// Tuesday, so "weeklies" resolves to Friday the 6th.
var testNow = time.Date(2026, time.March, 3, 9, 45, 0, 0, time.Local)

func newTestParser(t *testing.T) *Parser {
	t.Helper()
	p := NewParser(Config{InvestPct: 0.5, DefaultSL: 0.2}, NewTracker("test-channel"))
	p.now = func() time.Time { return testNow }
	return p
}

func TestParseOpenFullAlert(t *testing.T) {
	p := newTestParser(t)

	alert, ok := p.Parse(models.HintOpen, "trader", "SPY 450 call 2.50 tomorrow stop 2.00")
	require.True(t, ok)

	assert.Equal(t, models.SignalOpen, alert.Signal)
	assert.Equal(t, "SPY", alert.Ticker)
	assert.Equal(t, "450", alert.Strike)
	assert.Equal(t, models.DirectionCall, alert.Direction)
	assert.Equal(t, 2.5, alert.Price)
	assert.Equal(t, time.Date(2026, time.March, 4, 0, 0, 0, 0, time.Local), alert.ExpDate)
	assert.Equal(t, 2.0, alert.StopLoss)
	assert.Equal(t, models.RiskSwing, alert.Risk)
	assert.InDelta(t, 0.35, alert.InvestPct, 1e-9)

	assert.Equal(t, 1, p.Tracker().Len())
}

func TestParseOpenDayTradeRisk(t *testing.T) {
	p := newTestParser(t)

	alert, ok := p.Parse(models.HintOpen, "trader", "QQQ 380 puts 1.20 weeklies day trade")
	require.True(t, ok)

	assert.Equal(t, models.DirectionPut, alert.Direction)
	// Friday of the same week.
	assert.Equal(t, time.Date(2026, time.March, 6, 0, 0, 0, 0, time.Local), alert.ExpDate)
	assert.Equal(t, models.RiskDaytrade, alert.Risk)
	assert.InDelta(t, 0.5, alert.InvestPct, 1e-9)
	// No stop in the text: default 20% distance.
	assert.InDelta(t, 0.96, alert.StopLoss, 1e-9)
}

func TestParseOpenDefaultStopGrowsWithExpiry(t *testing.T) {
	p := newTestParser(t)

	alert, ok := p.Parse(models.HintOpen, "trader", "TSLA 300 call 10.00 6/19")
	require.True(t, ok)

	assert.Equal(t, time.Date(2026, time.June, 19, 0, 0, 0, 0, time.Local), alert.ExpDate)
	// Three months out: 0.2 + 3*0.0727 distance.
	assert.InDelta(t, 5.82, alert.StopLoss, 1e-9)
}

func TestParseOpenStopTypoCorrected(t *testing.T) {
	p := newTestParser(t)

	// 2.45 against a 2.50 entry is a 2% stop, clearly a typo.
	alert, ok := p.Parse(models.HintOpen, "trader", "SPY 450 call 2.50 stop 2.45")
	require.True(t, ok)
	assert.InDelta(t, 2.0, alert.StopLoss, 1e-9)
}

func TestParseOpenExplicitStopPercent(t *testing.T) {
	p := newTestParser(t)

	alert, ok := p.Parse(models.HintOpen, "trader", "SPY 450 call 2.50 sl 30%")
	require.True(t, ok)
	assert.InDelta(t, 1.75, alert.StopLoss, 1e-9)
}

func TestParseSkipsVerticalAndCommon(t *testing.T) {
	p := newTestParser(t)

	_, ok := p.Parse(models.HintOpen, "trader", "SPY 450/455 call vertical 1.20")
	assert.False(t, ok)

	_, ok = p.Parse(models.HintOpen, "trader", "AAPL common at 190")
	assert.False(t, ok)

	assert.Equal(t, 0, p.Tracker().Len())
}

func TestParsePaperRejectsSPX(t *testing.T) {
	p := NewParser(Config{InvestPct: 0.5, DefaultSL: 0.2, Paper: true}, NewTracker("test-channel"))
	p.now = func() time.Time { return testNow }

	_, ok := p.Parse(models.HintOpen, "trader", "SPX 5000 call 12.50")
	assert.False(t, ok)
}

func TestParseCloseStoppedOutUsesMostRecent(t *testing.T) {
	p := newTestParser(t)

	_, ok := p.Parse(models.HintOpen, "trader", "SPY 450 call 2.50")
	require.True(t, ok)

	alert, ok := p.Parse(models.HintClose, "trader", "Stopped out of SPY")
	require.True(t, ok)

	assert.Equal(t, models.SignalClose, alert.Signal)
	assert.Equal(t, "SPY", alert.Ticker)
	assert.Equal(t, "450", alert.Strike)
	assert.Equal(t, models.CloseAllOut, alert.Close.Kind)
	assert.Equal(t, 1.0, alert.Close.Fraction)

	// All-out removes the position from the tracker.
	assert.Equal(t, 0, p.Tracker().Len())
}

func TestParseCloseHalfKeepsPosition(t *testing.T) {
	p := newTestParser(t)

	_, ok := p.Parse(models.HintOpen, "trader", "AAPL 190 call 3.10")
	require.True(t, ok)

	alert, ok := p.Parse(models.HintClose, "trader", "Sold half of AAPL here")
	require.True(t, ok)

	assert.Equal(t, models.CloseHalf, alert.Close.Kind)
	assert.Equal(t, 0.5, alert.Close.Fraction)
	assert.Equal(t, 1, p.Tracker().Len())
}

func TestParseCloseFuzzyTickerMatch(t *testing.T) {
	p := newTestParser(t)

	_, ok := p.Parse(models.HintOpen, "trader", "AMD 120 call 1.80")
	require.True(t, ok)

	alert, ok := p.Parse(models.HintClose, "trader", "Trimming AMDD 1/2")
	require.True(t, ok)

	assert.Equal(t, "AMD", alert.Ticker)
	assert.Equal(t, models.CloseFractional, alert.Close.Kind)
	assert.Equal(t, 0.5, alert.Close.Fraction)
}

func TestParseCloseAtBreakeven(t *testing.T) {
	p := newTestParser(t)

	_, ok := p.Parse(models.HintOpen, "trader", "NVDA 500 call 5.00")
	require.True(t, ok)

	alert, ok := p.Parse(models.HintClose, "trader", "Selling NVDA at even")
	require.True(t, ok)

	assert.Equal(t, 5.0, alert.Price)
}

func TestParseCloseEvaRestatedContract(t *testing.T) {
	p := newTestParser(t)

	_, ok := p.Parse(models.HintOpen, "Eva Trades", "SPY 450 call 2.50")
	require.True(t, ok)

	alert, ok := p.Parse(models.HintClose, "Eva Trades", "SPY 450c 3.50")
	require.True(t, ok)

	// The restated strike must not be read as a price or amount.
	assert.Equal(t, "450", alert.Strike)
	assert.Equal(t, 3.5, alert.Price)
}

func TestParseCloseEmptyTracker(t *testing.T) {
	p := newTestParser(t)

	_, ok := p.Parse(models.HintClose, "trader", "Stopped out")
	assert.False(t, ok)
}

func TestParseCloseUnknownTicker(t *testing.T) {
	p := newTestParser(t)

	_, ok := p.Parse(models.HintOpen, "trader", "SPY 450 call 2.50")
	require.True(t, ok)

	_, ok = p.Parse(models.HintClose, "trader", "Closing XOM position for a loss")
	assert.False(t, ok)
}
