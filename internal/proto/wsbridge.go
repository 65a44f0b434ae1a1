package proto

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/gorilla/websocket"
)

// CmdLogin starts the server-side session. The bridge forwards it verbatim;
// the server stays silent until it arrives, which is what lets the session
// register handlers between Dial and login without losing packets.
const CmdLogin = "login"

// Login carries the session credentials.
type Login struct {
	Username        string `json:"username"`
	ProtocolVersion string `json:"protocolVersion"`
}

// wsFrame is the bridge framing: one JSON object per websocket message.
type wsFrame struct {
	Name    string          `json:"name"`
	Payload json.RawMessage `json:"payload"`
}

// BridgeDialer dials a protocol bridge that speaks name+payload JSON frames
// over a websocket. The bridge owns the real wire codec; this dialer only
// moves decoded packets in and out.
type BridgeDialer struct {
	logger *slog.Logger
}

func NewBridgeDialer(logger *slog.Logger) *BridgeDialer {
	return &BridgeDialer{logger: logger}
}

func (d *BridgeDialer) Dial(ctx context.Context, opts DialOptions) (Conn, error) {
	ws, _, err := websocket.DefaultDialer.DialContext(ctx, opts.Address, nil)
	if err != nil {
		return nil, fmt.Errorf("dialing bridge %s: %w", opts.Address, err)
	}

	c := &bridgeConn{
		ws:       ws,
		logger:   d.logger,
		handlers: make(map[string]Handler),
	}
	go c.readLoop()

	return c, nil
}

type bridgeConn struct {
	ws     *websocket.Conn
	logger *slog.Logger

	mu       sync.RWMutex
	handlers map[string]Handler

	writeMu sync.Mutex
	closed  bool
}

func (c *bridgeConn) On(name string, h Handler) {
	c.mu.Lock()
	c.handlers[name] = h
	c.mu.Unlock()
}

func (c *bridgeConn) Send(name string, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", name, err)
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if c.closed {
		return fmt.Errorf("send %s: connection closed", name)
	}
	if err := c.ws.WriteJSON(wsFrame{Name: name, Payload: raw}); err != nil {
		return fmt.Errorf("writing %s: %w", name, err)
	}
	return nil
}

func (c *bridgeConn) Close() error {
	c.writeMu.Lock()
	if c.closed {
		c.writeMu.Unlock()
		return nil
	}
	c.closed = true
	c.writeMu.Unlock()
	return c.ws.Close()
}

// readLoop dispatches every inbound frame from this single goroutine, which
// is what guarantees the session sees packets in arrival order.
func (c *bridgeConn) readLoop() {
	for {
		var frame wsFrame
		if err := c.ws.ReadJSON(&frame); err != nil {
			c.dispatch(EvtDisconnect, Disconnect{Reason: err.Error()})
			return
		}

		decode, known := inboundDecoders[frame.Name]
		if !known {
			c.logger.Debug("bridge frame with no decoder, skipping", slog.String("name", frame.Name))
			continue
		}

		payload, err := decode(frame.Payload)
		if err != nil {
			c.dispatch(EvtError, TransportError{Message: fmt.Sprintf("decoding %s: %s", frame.Name, err)})
			continue
		}
		c.dispatch(frame.Name, payload)
	}
}

func (c *bridgeConn) dispatch(name string, payload any) {
	c.mu.RLock()
	h := c.handlers[name]
	c.mu.RUnlock()
	if h != nil {
		h(payload)
	}
}

func decodeAs[T any](raw json.RawMessage) (any, error) {
	var v T
	if len(raw) == 0 {
		return v, nil
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	return v, nil
}

var inboundDecoders = map[string]func(json.RawMessage) (any, error){
	EvtPlayStatus:        decodeAs[PlayStatus],
	EvtResourcePacksInfo: decodeAs[ResourcePacksInfo],
	EvtStartGame:         decodeAs[StartGame],
	EvtAvailableCommands: decodeAs[AvailableCommands],
	EvtInventoryContent:  decodeAs[InventoryContent],
	EvtInventorySlot:     decodeAs[InventorySlot],
	EvtContainerOpen:     decodeAs[ContainerOpen],
	EvtContainerClose:    decodeAs[ContainerClose],
	EvtDisconnect:        decodeAs[Disconnect],
	EvtError:             decodeAs[TransportError],
}
