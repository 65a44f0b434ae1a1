package proto

import "context"

// Handler consumes one decoded inbound packet. Implementations of Conn must
// dispatch all handlers for a connection from a single goroutine so the
// session observes packets in arrival order.
type Handler func(payload any)

// Conn is one live protocol connection. The wire codec behind it is a black
// box: it decodes inbound packets into the payload structs of this package
// and encodes outbound payloads by name.
type Conn interface {
	// On registers the handler for a named inbound event. Must be called
	// before packets for that name arrive; registering twice replaces the
	// previous handler.
	On(name string, h Handler)

	// Send encodes and writes one outbound packet. Safe for concurrent use.
	Send(name string, payload any) error

	// Close tears the connection down. A Disconnect event is delivered to
	// the registered handler exactly once, whether the close was local or
	// remote.
	Close() error
}

// DialOptions identify the endpoint and the session credentials.
type DialOptions struct {
	Address         string
	Username        string
	ProtocolVersion string
}

// Dialer produces connections. Each session owns its dialer and replaces the
// resulting Conn wholesale on reconnect.
type Dialer interface {
	Dial(ctx context.Context, opts DialOptions) (Conn, error)
}
