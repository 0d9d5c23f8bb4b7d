package session

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPushAndConsume(t *testing.T) {
	s := New(context.Background(), false)
	defer s.Shutdown()

	require.True(t, s.Push(Item{Kind: ItemControl, Command: "END"}))

	item := <-s.Queue()
	assert.Equal(t, ItemControl, item.Kind)
	assert.Equal(t, "END", item.Command)
}

func TestPushAfterShutdown(t *testing.T) {
	s := New(context.Background(), false)
	s.Shutdown()

	assert.False(t, s.Push(Item{Kind: ItemControl, Command: "END"}))
}

func TestShutdownIsIdempotent(t *testing.T) {
	s := New(context.Background(), false)

	s.Shutdown()
	s.Shutdown()

	assert.True(t, s.ShutdownRequested())
	assert.Error(t, s.Context().Err())
}

func TestMarketOpenFlag(t *testing.T) {
	s := New(context.Background(), false)
	defer s.Shutdown()

	assert.False(t, s.MarketOpen())
	s.SetMarketOpen(true)
	assert.True(t, s.MarketOpen())
}

func TestDeveloperFlag(t *testing.T) {
	assert.True(t, New(context.Background(), true).Developer())
	assert.False(t, New(context.Background(), false).Developer())
}
