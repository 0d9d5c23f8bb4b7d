package discord_client

import (
	"context"
	"errors"
	"time"

	"mirror_trader/internal/alerts"
	"mirror_trader/internal/market"
	"mirror_trader/internal/models"
	"mirror_trader/internal/modules/config"
	"mirror_trader/internal/modules/discord_client/service"
	healthsvc "mirror_trader/internal/modules/health/service"
	"mirror_trader/internal/session"
	"mirror_trader/internal/store"
	"mirror_trader/pkg/logger"
)

const (
	// One REST call per tick keeps us inside Discord's rate budget.
	pollInterval = 500 * time.Millisecond
	messageLimit = 1
)

type seenMessage struct {
	timestamp time.Time
	content   string
}

// Poller walks the configured channels round-robin, feeds fresh
// messages through the per-channel parsers and pushes alerts onto the
// session queue. One goroutine covers every channel.
type Poller struct {
	client   *service.Client
	sess     *session.Session
	clock    *market.Clock
	prober   *healthsvc.Prober
	state    *healthsvc.State
	store    store.TrackerStore
	channels []config.Channel
	parsers  map[string]*alerts.Parser
	stream   bool
	paper    bool
}

func NewPoller(
	cfg *config.Config,
	client *service.Client,
	sess *session.Session,
	clock *market.Clock,
	prober *healthsvc.Prober,
	state *healthsvc.State,
	st store.Store,
) *Poller {
	parsers := make(map[string]*alerts.Parser, len(cfg.Discord.Channels))
	for _, ch := range cfg.Discord.Channels {
		parsers[ch.Name] = alerts.NewParser(alerts.Config{
			InvestPct: cfg.Trading.InvestPct,
			DefaultSL: cfg.Trading.DefaultSL,
			Paper:     cfg.Webull.Paper,
		}, alerts.NewTracker(ch.Name))
	}
	return &Poller{
		client:   client,
		sess:     sess,
		clock:    clock,
		prober:   prober,
		state:    state,
		store:    st,
		channels: cfg.Discord.Channels,
		parsers:  parsers,
		stream:   cfg.Discord.Stream,
		paper:    cfg.Webull.Paper,
	}
}

func (p *Poller) Run(ctx context.Context) {
	p.restoreTrackers(ctx)
	defer p.saveTrackers()

	if !p.sess.Developer() {
		logger.Info("waiting for market open")
		if err := p.clock.WaitForOpen(ctx, time.Now()); err != nil {
			return
		}
	}
	p.sess.SetMarketOpen(true)
	p.state.SetReady(true)
	p.replayExpired()

	if p.stream {
		p.runStream(ctx)
		return
	}
	p.runPolling(ctx)
}

func (p *Poller) runPolling(ctx context.Context) {
	seen := make(map[string]seenMessage, len(p.channels))

	tick := time.NewTicker(pollInterval)
	defer tick.Stop()

	idx := 0
	for {
		select {
		case <-ctx.Done():
			return
		case <-tick.C:
		}

		ch := p.channels[idx]
		idx = (idx + 1) % len(p.channels)

		msgs, err := p.client.ChannelMessages(ctx, ch.ID, messageLimit)
		if err != nil {
			p.handleFetchError(ctx, ch.Name, err)
			continue
		}
		p.state.SetFeedConnected(true)
		if len(msgs) == 0 {
			continue
		}

		msg := msgs[0]
		prev, ok := seen[ch.ID]
		if ok && prev.timestamp.Equal(msg.Timestamp) && prev.content == msg.Content {
			continue
		}
		seen[ch.ID] = seenMessage{timestamp: msg.Timestamp, content: msg.Content}

		// Only trade the current session; history is context, not signal.
		if !market.Date(msg.Timestamp).Equal(market.Date(time.Now())) {
			continue
		}

		p.process(ch.Name, msg)
	}
}

func (p *Poller) runStream(ctx context.Context) {
	byID := make(map[string]string, len(p.channels))
	ids := make([]string, 0, len(p.channels))
	for _, ch := range p.channels {
		byID[ch.ID] = ch.Name
		ids = append(ids, ch.ID)
	}

	p.state.SetFeedConnected(true)
	for item := range p.client.StreamMessages(ctx, ids) {
		name, ok := byID[item.ChannelID]
		if !ok {
			continue
		}
		p.process(name, item.Message)
	}
}

func (p *Poller) process(channel string, msg models.ChannelMessage) {
	if msg.Hint == models.HintNone || msg.Content == "" {
		return
	}

	parser, ok := p.parsers[channel]
	if !ok {
		return
	}

	alert, ok := parser.Parse(msg.Hint, msg.Author, msg.Content)
	if !ok {
		logger.Info("[%s] no trade alert in %q", channel, msg.Content)
		return
	}

	p.state.TouchAlert(time.Now())
	p.sess.Push(session.Item{Kind: session.ItemAlert, Channel: channel, Alert: alert})
}

func (p *Poller) handleFetchError(ctx context.Context, channel string, err error) {
	var rl *service.RateLimitError
	if errors.As(err, &rl) {
		logger.Warn("[%s] %v", channel, rl)
		select {
		case <-ctx.Done():
		case <-time.After(rl.RetryAfter):
		}
		return
	}

	logger.Error("[%s] fetch messages: %v", channel, err)
	p.state.SetFeedConnected(false)
	if !p.prober.WaitForNetwork(ctx) && ctx.Err() == nil {
		p.sess.Shutdown()
	}
}

// replayExpired turns positions whose expiry passed while we were down
// into synthetic full closes, so paper books do not hold dead contracts.
func (p *Poller) replayExpired() {
	if !p.paper {
		return
	}
	for name, parser := range p.parsers {
		for {
			pos, ok := parser.Tracker().PopExpired()
			if !ok {
				break
			}
			logger.Info("[%s] replaying expired %s %s %s", name, pos.Ticker, pos.Strike, pos.Direction)
			p.sess.Push(session.Item{
				Kind:    session.ItemAlert,
				Channel: name,
				Alert: models.TradeAlert{
					Signal:    models.SignalClose,
					Ticker:    pos.Ticker,
					Strike:    pos.Strike,
					Direction: pos.Direction,
					ExpDate:   pos.ExpDate,
					Close:     models.CloseInstruction{Kind: models.CloseAllOut, Fraction: 1},
				},
			})
		}
	}
}

func (p *Poller) restoreTrackers(ctx context.Context) {
	today := market.Date(time.Now())
	for name, parser := range p.parsers {
		positions, err := p.store.LoadTracker(ctx, name)
		if err != nil {
			logger.Error("[%s] restore tracker: %v", name, err)
			continue
		}
		parser.Tracker().Restore(positions, today)
		if n := parser.Tracker().Len(); n > 0 {
			logger.Info("[%s] restored %d tracked positions", name, n)
		}
	}
}

func (p *Poller) saveTrackers() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for name, parser := range p.parsers {
		if err := p.store.SaveTracker(ctx, name, parser.Tracker().Open()); err != nil {
			logger.Error("[%s] save tracker: %v", name, err)
		}
	}
}
