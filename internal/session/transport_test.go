package session

import (
	"context"
	"errors"
	"sync"

	"github.com/coopermor/hive/internal/proto"
)

type sentPacket struct {
	name    string
	payload any
}

// fakeConn records sends and lets tests emit inbound packets.
type fakeConn struct {
	mu       sync.Mutex
	handlers map[string]proto.Handler
	sent     []sentPacket
	failSend map[string]bool
	closed   bool
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		handlers: make(map[string]proto.Handler),
		failSend: make(map[string]bool),
	}
}

func (c *fakeConn) On(name string, h proto.Handler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers[name] = h
}

func (c *fakeConn) Send(name string, payload any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failSend[name] {
		return errors.New("transport rejected " + name)
	}
	c.sent = append(c.sent, sentPacket{name: name, payload: payload})
	return nil
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

// emit delivers an inbound packet the way the bridge would: synchronously,
// from the calling goroutine, in call order.
func (c *fakeConn) emit(name string, payload any) {
	c.mu.Lock()
	h := c.handlers[name]
	c.mu.Unlock()
	if h != nil {
		h(payload)
	}
}

func (c *fakeConn) countSent(name string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, p := range c.sent {
		if p.name == name {
			n++
		}
	}
	return n
}

func (c *fakeConn) lastSent(name string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := len(c.sent) - 1; i >= 0; i-- {
		if c.sent[i].name == name {
			return c.sent[i].payload, true
		}
	}
	return nil, false
}

type fakeDialer struct {
	mu      sync.Mutex
	conns   []*fakeConn
	dialErr error
}

func (d *fakeDialer) Dial(_ context.Context, _ proto.DialOptions) (proto.Conn, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.dialErr != nil {
		return nil, d.dialErr
	}
	c := newFakeConn()
	d.conns = append(d.conns, c)
	return c, nil
}

func (d *fakeDialer) last() *fakeConn {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.conns) == 0 {
		return nil
	}
	return d.conns[len(d.conns)-1]
}

func (d *fakeDialer) dials() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.conns)
}
