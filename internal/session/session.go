package session

import (
	"context"
	"sync/atomic"

	"mirror_trader/internal/models"
)

type ItemKind int

const (
	ItemAlert ItemKind = iota
	ItemControl
)

// Item — one tagged entry on the program queue. Alert items come from
// channel pollers, control items from the kill switch.
type Item struct {
	Kind    ItemKind
	Channel string
	Alert   models.TradeAlert
	Command string
}

// Session carries the shared run state. Producers push onto the queue,
// the dispatcher is the single consumer.
type Session struct {
	ctx    context.Context
	cancel context.CancelFunc

	marketOpen atomic.Bool
	shutdown   atomic.Bool
	developer  atomic.Bool

	queue chan Item
}

func New(parent context.Context, developer bool) *Session {
	ctx, cancel := context.WithCancel(parent)
	s := &Session{
		ctx:    ctx,
		cancel: cancel,
		queue:  make(chan Item, 256),
	}
	s.developer.Store(developer)
	return s
}

func (s *Session) Context() context.Context { return s.ctx }

func (s *Session) Queue() <-chan Item { return s.queue }

// Push enqueues an item unless the session is already cancelled.
func (s *Session) Push(item Item) bool {
	select {
	case <-s.ctx.Done():
		return false
	case s.queue <- item:
		return true
	}
}

// Shutdown is idempotent; the first call cancels the session context.
func (s *Session) Shutdown() {
	if s.shutdown.CompareAndSwap(false, true) {
		s.cancel()
	}
}

func (s *Session) ShutdownRequested() bool { return s.shutdown.Load() }

func (s *Session) SetMarketOpen(v bool) { s.marketOpen.Store(v) }
func (s *Session) MarketOpen() bool     { return s.marketOpen.Load() }

func (s *Session) Developer() bool { return s.developer.Load() }
