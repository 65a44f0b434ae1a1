package fleet

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coopermor/hive/internal/config"
	"github.com/coopermor/hive/internal/proto"
	"github.com/coopermor/hive/internal/session"
)

type stubConn struct {
	mu       sync.Mutex
	handlers map[string]proto.Handler
	sent     []string
}

func (c *stubConn) On(name string, h proto.Handler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers[name] = h
}

func (c *stubConn) Send(name string, _ any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, name)
	return nil
}

func (c *stubConn) Close() error { return nil }

type stubDialer struct {
	mu    sync.Mutex
	dials int
}

func (d *stubDialer) Dial(context.Context, proto.DialOptions) (proto.Conn, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.dials++
	return &stubConn{handlers: make(map[string]proto.Handler)}, nil
}

func newTestManager(t *testing.T) (*Manager, *stubDialer) {
	t.Helper()
	require.NoError(t, config.AddBot("worker01", &config.BotCfg{
		Address:  "ws://localhost:19132",
		Username: "worker01",
		Command:  "/kit claim",
	}))
	dialer := &stubDialer{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewManager(logger, dialer, session.NewClock()), dialer
}

func TestConnectUnknownBot(t *testing.T) {
	mng, _ := newTestManager(t)
	assert.Error(t, mng.Connect(context.Background(), "nobody"))
}

func TestConnectAndStatus(t *testing.T) {
	mng, dialer := newTestManager(t)

	require.NoError(t, mng.Connect(context.Background(), "worker01"))
	assert.Equal(t, 1, dialer.dials)
	assert.Equal(t, []string{"worker01"}, mng.List())

	st := mng.Status("worker01")
	assert.Equal(t, session.StateAuthenticating, st.State)
}

func TestConnectTwiceFails(t *testing.T) {
	mng, dialer := newTestManager(t)

	require.NoError(t, mng.Connect(context.Background(), "worker01"))
	assert.Error(t, mng.Connect(context.Background(), "worker01"), "a live session must not be dialed twice")
	assert.Equal(t, 1, dialer.dials)
}

func TestDisconnectKeepsSessionRegistered(t *testing.T) {
	mng, _ := newTestManager(t)

	require.NoError(t, mng.Connect(context.Background(), "worker01"))
	require.NoError(t, mng.Disconnect("worker01"))

	assert.Equal(t, []string{"worker01"}, mng.List(), "disconnect must not destroy the session")
	assert.Equal(t, session.StateDisconnected, mng.Status("worker01").State)

	// and it can be connected again
	assert.NoError(t, mng.Connect(context.Background(), "worker01"))
}

func TestRemoveDestroysSession(t *testing.T) {
	mng, _ := newTestManager(t)

	require.NoError(t, mng.Connect(context.Background(), "worker01"))
	mng.Remove("worker01")

	assert.Empty(t, mng.List())
	assert.Equal(t, session.StateDisconnected, mng.Status("worker01").State)
}

func TestSendCommandRequiresSession(t *testing.T) {
	mng, _ := newTestManager(t)
	assert.Error(t, mng.SendCommand("worker01", "/kit daily"))
}

func TestStatusAllCoversConfiguredBots(t *testing.T) {
	mng, _ := newTestManager(t)
	require.NoError(t, config.AddBot("worker02", &config.BotCfg{
		Address:  "ws://localhost:19133",
		Username: "worker02",
		Command:  "/kit claim",
	}))

	stats := mng.StatusAll()
	ids := make([]string, 0, len(stats))
	for _, st := range stats {
		ids = append(ids, st.ID)
	}
	assert.Contains(t, ids, "worker01")
	assert.Contains(t, ids, "worker02")
}
