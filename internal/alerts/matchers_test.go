package alerts

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mirror_trader/internal/models"
)

func TestFindTicker(t *testing.T) {
	cases := []struct {
		in     string
		ticker string
		found  bool
	}{
		{"SPY 450 call", "SPY", true},
		{"Buy SPY here", "SPY", true},        // capitalised word is not a ticker
		{"NOTE: SPY looking good", "SPY", true}, // tag before colon is not a ticker
		{"nothing here", "", false},
		{"F 12 call", "F", true}, // single-letter ticker
	}

	for _, c := range cases {
		ticker, _, _, found := findTicker(c.in)
		assert.Equal(t, c.found, found, c.in)
		assert.Equal(t, c.ticker, ticker, c.in)
	}
}

func TestFindDirection(t *testing.T) {
	cases := []struct {
		in        string
		direction string
		found     bool
	}{
		{"450 call @ 2.50", "call", true},
		{"450 c 2.50", "c", true},
		{"450 P", "P", true},
		{"CPI: call at 2.50", "call", true}, // letters before a colon are a tag
		{"PMI: data only", "", false},
		{"400 88 100", "", false},
	}

	for _, c := range cases {
		direction, _, _, found := findDirection(c.in)
		assert.Equal(t, c.found, found, c.in)
		assert.Equal(t, c.direction, direction, c.in)
	}
}

func TestFixDecimalTypos(t *testing.T) {
	assert.Equal(t, "2.5", fixDecimalTypos("2, 5"))
	assert.Equal(t, "12.5", fixDecimalTypos("12..5"))
	assert.Equal(t, "1.75", fixDecimalTypos("1. 75"))
	assert.Equal(t, "450", fixDecimalTypos("450"))
}

func TestResolveExpiry(t *testing.T) {
	// Tuesday.
	today := time.Date(2026, time.March, 3, 0, 0, 0, 0, time.Local)

	cases := []struct {
		in      string
		exp     time.Time
		matched bool
	}{
		{"weeklies", time.Date(2026, time.March, 6, 0, 0, 0, 0, time.Local), true},
		{"tomorrow", time.Date(2026, time.March, 4, 0, 0, 0, 0, time.Local), true},
		{"2DTE", time.Date(2026, time.March, 5, 0, 0, 0, 0, time.Local), true},
		{"6/19", time.Date(2026, time.June, 19, 0, 0, 0, 0, time.Local), true},
		{"6/19/27", time.Date(2027, time.June, 19, 0, 0, 0, 0, time.Local), true},
		{"June monthlies", time.Date(2026, time.June, 1, 0, 0, 0, 0, time.Local), true},
		{"today", today, true},
		{"no date at all", today, false},
	}

	for _, c := range cases {
		exp, matched := resolveExpiry(c.in, today)
		assert.Equal(t, c.matched, matched, c.in)
		assert.Equal(t, c.exp, exp, c.in)
	}
}

func TestDaysToFriday(t *testing.T) {
	friday := time.Date(2026, time.March, 6, 0, 0, 0, 0, time.Local)
	assert.Equal(t, 0, daysToFriday(friday))

	saturday := friday.AddDate(0, 0, 1)
	assert.Equal(t, 6, daysToFriday(saturday))

	monday := friday.AddDate(0, 0, 3)
	assert.Equal(t, 4, daysToFriday(monday))
}

func TestClassifyCloseAmount(t *testing.T) {
	cases := []struct {
		in       string
		kind     models.CloseKind
		fraction float64
	}{
		{"stopped out here", models.CloseAllOut, 1.0},
		{"taking profit on the rest", models.CloseAllOut, 1.0},
		{"selling most here", models.CloseMost, 0.75},
		{"half off", models.CloseHalf, 0.5},
		{"trimming some", models.CloseSome, 0.25},
		{"another one off", models.CloseSingle, 0.01},
		{"sold three here", models.CloseSpecific, 0.03},
		{"1/2", models.CloseFractional, 0.5},
		{"3/4", models.CloseFractional, 0.75},
		{"selling 25", models.CloseSpecific, 0.25},
		{"closing it", models.CloseAllOut, 1.0},
	}

	for _, c := range cases {
		instr, _ := classifyCloseAmount(c.in)
		assert.Equal(t, c.kind, instr.Kind, c.in)
		assert.InDelta(t, c.fraction, instr.Fraction, 1e-9, c.in)
	}
}

func TestParseNumericAmountDegenerateFractions(t *testing.T) {
	// "1/" style typos get a denominator rebuilt from the numerator.
	instr := parseNumericAmount("3/0")
	assert.Equal(t, models.CloseFractional, instr.Kind)
	assert.InDelta(t, 0.75, instr.Fraction, 1e-9)

	instr = parseNumericAmount("0/4")
	assert.Equal(t, models.CloseFractional, instr.Kind)
	assert.InDelta(t, 0.5, instr.Fraction, 1e-9)

	instr = parseNumericAmount("0/0")
	require.Equal(t, models.CloseFractional, instr.Kind)
	assert.InDelta(t, 0.5, instr.Fraction, 1e-9)
}
