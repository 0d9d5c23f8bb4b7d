package alerts

import (
	"strconv"
	"strings"
	"time"

	"mirror_trader/internal/market"
	"mirror_trader/internal/models"
	"mirror_trader/pkg/logger"
)

const (
	sellMostFraction   = 0.75
	sellHalfFraction   = 0.5
	sellSomeFraction   = 0.25
	sellSingleFraction = 0.01 // one contract

	// Stop distance widens for far-dated contracts.
	stopGrowthPerMonth = 0.0727

	fuzzyMatchThreshold = 80

	// A Close ticker mentioned in the tail of the message is commentary,
	// not a contract reference.
	tickerPositionLimit = 0.75
)

type Config struct {
	InvestPct float64
	DefaultSL float64
	Paper     bool
}

// Parser turns scrubbed channel messages into trade alerts. It owns the
// channel's tracker; a parser instance is not safe for concurrent use.
type Parser struct {
	cfg     Config
	tracker *Tracker
	now     func() time.Time
}

func NewParser(cfg Config, tracker *Tracker) *Parser {
	return &Parser{
		cfg:     cfg,
		tracker: tracker,
		now:     time.Now,
	}
}

func (p *Parser) Tracker() *Tracker { return p.tracker }

// Parse extracts a trade alert from message content. The bool result is
// false when the message carries no actionable alert.
func (p *Parser) Parse(hint models.SignalHint, author, content string) (models.TradeAlert, bool) {
	upper := strings.ToUpper(content)

	// Multi-leg and share alerts are not mirrored.
	if strings.Contains(upper, "VERTICAL") {
		logger.Warn("[%s] ignoring vertical trade alert", p.tracker.Channel())
		return models.TradeAlert{}, false
	}
	if strings.Contains(upper, "COMMON") {
		logger.Warn("[%s] ignoring common stock trade alert", p.tracker.Channel())
		return models.TradeAlert{}, false
	}

	var (
		alert models.TradeAlert
		ok    bool
	)

	switch hint {
	case models.HintOpen:
		alert, ok = p.parseOpen(content)
	case models.HintClose:
		alert, ok = p.parseClose(author, content)
	default:
		return models.TradeAlert{}, false
	}

	if !ok {
		return models.TradeAlert{}, false
	}

	// Paper accounts trade shares; index options have no share proxy.
	if p.cfg.Paper && alert.Ticker == "SPX" {
		logger.Warn("[%s] cannot mirror SPX on a paper account", p.tracker.Channel())
		return models.TradeAlert{}, false
	}

	return alert, true
}

func (p *Parser) parseOpen(content string) (models.TradeAlert, bool) {
	alert := models.TradeAlert{Signal: models.SignalOpen}
	today := market.Date(p.now())

	ticker, start, end, found := findTicker(content)
	if !found {
		logger.Error("[%s] ticker not found", p.tracker.Channel())
		return models.TradeAlert{}, false
	}
	alert.Ticker = ticker
	content = stripSpan(content, start, end)

	strike := strikePattern.FindString(content)
	if strike == "" {
		logger.Error("[%s] strike price not found", p.tracker.Channel())
		return models.TradeAlert{}, false
	}
	alert.Strike = fixDecimalTypos(strike)
	content = stripFirst(strikePattern, content)

	direction, dStart, dEnd, found := findDirection(content)
	if !found {
		logger.Error("[%s] direction not found", p.tracker.Channel())
		return models.TradeAlert{}, false
	}
	switch strings.ToLower(direction) {
	case "c", "call":
		alert.Direction = models.DirectionCall
	case "p", "put":
		alert.Direction = models.DirectionPut
	}
	content = stripSpan(content, dStart, dEnd)

	price := pricePattern.FindString(content)
	if price == "" {
		logger.Error("[%s] price not found", p.tracker.Channel())
		return models.TradeAlert{}, false
	}
	alert.Price = round2(parseFloat(fixDecimalTypos(price)))
	content = stripFirst(pricePattern, content)

	var matched bool
	alert.ExpDate, matched = resolveExpiry(content, today)
	if matched {
		content = stripFirst(expDatePattern, content)
	}

	p.tracker.Add(models.TrackedPosition{
		Ticker:    alert.Ticker,
		Strike:    alert.Strike,
		Direction: alert.Direction,
		Price:     alert.Price,
		ExpDate:   alert.ExpDate,
		OpenedAt:  p.now(),
	})

	alert.StopLoss, content = p.resolveStopLoss(content, alert.Price, alert.ExpDate, today)

	if riskPattern.MatchString(content) {
		alert.Risk = models.RiskDaytrade
		alert.InvestPct = p.cfg.InvestPct
	} else {
		// Swing alerts get a 30% haircut on position size.
		alert.Risk = models.RiskSwing
		alert.InvestPct = p.cfg.InvestPct - p.cfg.InvestPct*0.3
	}

	return alert, true
}

// resolveStopLoss reads an explicit stop price or percent from the text,
// falling back to the default distance grown by months to expiry.
func (p *Parser) resolveStopLoss(content string, price float64, exp, today time.Time) (float64, string) {
	m := stopPattern.FindStringSubmatch(content)
	if m == nil {
		return p.defaultStop(price, exp, today), content
	}

	switch {
	case m[1] != "":
		stop := round2(parseFloat(fixDecimalTypos(m[1])))
		// An explicit stop tighter than the default distance is a typo.
		if 1.0-stop/price < p.cfg.DefaultSL {
			stop = round2(price - price*p.cfg.DefaultSL)
		}
		return stop, stripFirst(stopPattern, content)

	case m[2] != "":
		pct := parseFloat(strings.TrimSuffix(m[2], "%")) / 100
		return round2(price - price*pct), stripFirst(stopPattern, content)
	}

	return p.defaultStop(price, exp, today), stripFirst(stopPattern, content)
}

func (p *Parser) defaultStop(price float64, exp, today time.Time) float64 {
	months := (exp.Year()-today.Year())*12 + int(exp.Month()) - int(today.Month())

	pct := p.cfg.DefaultSL
	if months > 1 {
		pct += float64(months) * stopGrowthPerMonth
		if pct > 1.0 {
			pct = 1.0
		}
	}

	return round2(price - price*pct)
}

func (p *Parser) parseClose(author, content string) (models.TradeAlert, bool) {
	alert := models.TradeAlert{Signal: models.SignalClose}

	var (
		pos   models.TrackedPosition
		found bool
	)

	ticker, start, end, ok := findTicker(content)
	if ok && !strings.Contains(ticker, "STOP") &&
		float64(start)/float64(len(content)) < tickerPositionLimit {

		content = stripSpan(content, start, end)

		pos, found = p.tracker.Match(ticker)
		if !found {
			logger.Error("[%s] no tracked trade matches %s", p.tracker.Channel(), ticker)
			return models.TradeAlert{}, false
		}
	} else {
		// "Stopped out" and other ticker-less closes refer to the latest open.
		pos, found = p.tracker.MostRecent()
		if !found {
			logger.Warn("[%s] tracker is empty", p.tracker.Channel())
			return models.TradeAlert{}, false
		}
	}

	alert.Ticker = pos.Ticker
	alert.Strike = pos.Strike
	alert.Direction = pos.Direction
	alert.ExpDate = pos.ExpDate

	// Some authors restate the full contract when closing; drop those
	// fields so they cannot be mistaken for a price or amount.
	if strings.Contains(strings.ToUpper(author), "EVA") {
		content = stripFirst(strikePattern, content)
		content = stripDirection(content)
		content = stripFirst(expDatePattern, content)
	}

	upper := strings.ToUpper(content)
	if strings.Contains(upper, "AT EVEN") || strings.Contains(upper, "AT BREAK EVEN") {
		alert.Price = pos.Price
		content = stripFirst(pricePattern, content)
	} else if price := pricePattern.FindString(content); price != "" {
		alert.Price = round2(parseFloat(fixDecimalTypos(price)))
		content = stripFirst(pricePattern, content)
	}

	p.tracker.Touch(pos, p.now())

	alert.Close, _ = classifyCloseAmount(content)

	if alert.Close.Kind == models.CloseAllOut {
		p.tracker.Remove(pos)
	}

	return alert, true
}

func parseFloat(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}
