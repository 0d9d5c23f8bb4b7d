package dispatch

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mirror_trader/internal/market"
	"mirror_trader/internal/modules/config"
	"mirror_trader/internal/session"
	"mirror_trader/pkg/logger"
)

func TestMain(m *testing.M) {
	if err := logger.Init(); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

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

func newTestDispatcher(t *testing.T) (*Dispatcher, *session.Session, *recordingNotifier) {
	t.Helper()

	cfg := &config.Config{}
	cfg.Market.Open = "06:30"
	cfg.Market.Close = "13:00"
	clock, err := market.NewClock(cfg)
	require.NoError(t, err)

	sess := session.New(context.Background(), true)
	t.Cleanup(sess.Shutdown)

	n := &recordingNotifier{}
	return NewDispatcher(sess, nil, clock, n), sess, n
}

func TestHandleControlShutdownVocabulary(t *testing.T) {
	for _, cmd := range []string{"END", "stop", " Quit "} {
		d, sess, _ := newTestDispatcher(t)
		assert.True(t, d.handleControl(cmd), cmd)
		assert.True(t, sess.ShutdownRequested(), cmd)
	}
}

func TestHandleControlUnknownCommand(t *testing.T) {
	d, sess, n := newTestDispatcher(t)

	assert.False(t, d.handleControl("dance"))
	assert.False(t, sess.ShutdownRequested())

	n.mu.Lock()
	defer n.mu.Unlock()
	require.Len(t, n.sent, 1)
	assert.Contains(t, n.sent[0], "Unknown command")
}

func TestRunStopsOnShutdownCommand(t *testing.T) {
	d, sess, _ := newTestDispatcher(t)

	done := make(chan struct{})
	go func() {
		defer close(done)
		d.Run(sess.Context())
	}()

	require.True(t, sess.Push(session.Item{Kind: session.ItemControl, Command: "END"}))
	<-done
	assert.True(t, sess.ShutdownRequested())
}
