package session

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/coopermor/hive/internal/event"
	"github.com/coopermor/hive/internal/proto"
	"github.com/google/uuid"
)

// Config is everything one session needs to run its scripted flow.
type Config struct {
	Address         string
	Username        string
	ProtocolVersion string

	// Command is the scripted command dispatched once the session is ready.
	Command string
	// TargetSlot is the container slot to interact with once content arrives.
	TargetSlot int

	SettleDelay        time.Duration
	ReadinessFallback  time.Duration
	UITimeout          time.Duration
	InteractionTimeout time.Duration
	ChunkRadius        int
}

func (c *Config) applyDefaults() {
	if c.SettleDelay <= 0 {
		c.SettleDelay = 2 * time.Second
	}
	if c.ReadinessFallback <= 0 {
		c.ReadinessFallback = 15 * time.Second
	}
	if c.UITimeout <= 0 {
		c.UITimeout = 10 * time.Second
	}
	if c.InteractionTimeout <= 0 {
		c.InteractionTimeout = 5 * time.Second
	}
	if c.ChunkRadius <= 0 {
		c.ChunkRadius = 8
	}
	if c.ProtocolVersion == "" {
		c.ProtocolVersion = "1.21.0"
	}
}

// Stats is a point-in-time snapshot for dashboards and remote front-ends.
type Stats struct {
	ID               string    `json:"id"`
	State            State     `json:"state"`
	ConnID           string    `json:"connId,omitempty"`
	ReconnectAttempt int       `json:"reconnectAttempt"`
	WindowID         *int      `json:"windowId,omitempty"`
	CommandsSent     int       `json:"commandsSent"`
	LastError        string    `json:"lastError,omitempty"`
	ConnectedAt      time.Time `json:"connectedAt,omitzero"`
}

// benignNoiseMarkers are transport-error substrings known to be harmless
// decode noise from exotic packets the codec half-understands. They are
// swallowed entirely: no state change, no error surfaced.
var benignNoiseMarkers = []string{
	"unread bytes after packet",
	"unknown packet id",
	"partial packet",
	"palette entry out of range",
}

// Session is one automated client's end-to-end protocol lifecycle. All
// transitions and timer callbacks are serialized under one mutex: the
// transport dispatches from a single goroutine and every timer created
// through the session's clock re-enters through the same lock, so no two
// transitions for the same session ever run concurrently.
type Session struct {
	id     string
	cfg    Config
	logger *slog.Logger
	dialer proto.Dialer

	mu    sync.Mutex
	clock Clock // lock-wrapped; timer callbacks run under mu

	state  State
	conn   proto.Conn
	connID string

	gate      *ReadinessGate
	rec       *Reconnector
	window    *Window
	playerInv []proto.Item

	settleTimer   Timer
	uiTimer       Timer
	interactTimer Timer

	commandsSent int
	lastErr      string
	connectedAt  time.Time
}

// New builds a session around a dialer and a clock. The clock is wrapped so
// its callbacks run under the session lock; pass NewClock() outside tests.
func New(id string, cfg Config, logger *slog.Logger, dialer proto.Dialer, clock Clock) *Session {
	cfg.applyDefaults()
	s := &Session{
		id:     id,
		cfg:    cfg,
		logger: logger.With(slog.String("session", id)),
		dialer: dialer,
		state:  StateDisconnected,
	}
	s.clock = lockedClock{inner: clock, mu: &s.mu}
	s.gate = NewReadinessGate(s.logger, s.clock, s.onReadinessComplete)
	s.rec = NewReconnector(s.logger, s.clock, s.redial)
	return s
}

func (s *Session) ID() string { return s.id }

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := Stats{
		ID:               s.id,
		State:            s.state,
		ConnID:           s.connID,
		ReconnectAttempt: s.rec.Attempt(),
		CommandsSent:     s.commandsSent,
		LastError:        s.lastErr,
		ConnectedAt:      s.connectedAt,
	}
	if s.window != nil {
		id := int(s.window.ID)
		st.WindowID = &id
	}
	return st
}

// Connect is the user-initiated connect. It raises the wants-connected guard
// and dials synchronously; the caller decides whether to run it in its own
// goroutine.
func (s *Session) Connect(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn != nil {
		return fmt.Errorf("session %s is already connected", s.id)
	}
	s.rec.SetWantsConnected(true)
	s.rec.Cancel()
	return s.connectLocked(ctx)
}

// Disconnect is the user-initiated teardown: lowers the guard flag (which
// also resets the attempt counter) and drops the connection without
// scheduling anything.
func (s *Session) Disconnect() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rec.SetWantsConnected(false)
	if s.conn != nil {
		s.disconnectLocked("user requested disconnect", true)
	}
}

// DispatchCommand sends an externally supplied command, bypassing the settle
// delay. Legal only from READY, a terminal state, or ERROR.
func (s *Session) DispatchCommand(command string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateReady && !s.state.Completed() && s.state != StateError {
		return fmt.Errorf("session %s cannot dispatch in state %s", s.id, s.state)
	}
	s.stopTimer(&s.settleTimer)
	return s.dispatchLocked(command)
}

// redial runs under the session lock when the reconnect timer fires.
func (s *Session) redial() {
	if err := s.connectLocked(context.Background()); err != nil {
		s.logger.Error("reconnect attempt failed", slog.Any("error", err))
	}
}

func (s *Session) connectLocked(ctx context.Context) error {
	if err := s.transitionLocked(StateConnecting, "dialing "+s.cfg.Address); err != nil {
		return err
	}
	s.connID = uuid.NewString()

	conn, err := s.dialer.Dial(ctx, proto.DialOptions{
		Address:         s.cfg.Address,
		Username:        s.cfg.Username,
		ProtocolVersion: s.cfg.ProtocolVersion,
	})
	if err != nil {
		s.lastErr = err.Error()
		s.logger.Error("dial failed", slog.String("address", s.cfg.Address), slog.Any("error", err))
		_ = s.transitionLocked(StateDisconnected, "dial failed")
		s.scheduleReconnectLocked("dial failed: " + err.Error())
		return err
	}

	s.conn = conn
	s.connectedAt = s.clock.Now()
	s.registerHandlers(conn)

	if !s.sendLocked(proto.CmdLogin, proto.Login{
		Username:        s.cfg.Username,
		ProtocolVersion: s.cfg.ProtocolVersion,
	}) {
		// a failed login send is followed by the transport's disconnect event
		return fmt.Errorf("session %s: transport rejected login", s.id)
	}

	return s.transitionLocked(StateAuthenticating, "login sent")
}

// registerHandlers binds the inbound packet handlers to one specific
// connection. Handlers compare the connection they were registered on
// against the current one so late packets from a replaced connection are
// dropped instead of corrupting the new session state.
func (s *Session) registerHandlers(conn proto.Conn) {
	handle := func(f func(payload any)) proto.Handler {
		return func(payload any) {
			s.mu.Lock()
			defer s.mu.Unlock()
			if s.conn != conn {
				return
			}
			f(payload)
		}
	}

	conn.On(proto.EvtPlayStatus, handle(s.handlePlayStatus))
	conn.On(proto.EvtResourcePacksInfo, handle(s.handleResourcePacks))
	conn.On(proto.EvtStartGame, handle(s.handleStartGame))
	conn.On(proto.EvtAvailableCommands, handle(s.handleAvailableCommands))
	conn.On(proto.EvtInventoryContent, handle(s.handleInventoryContent))
	conn.On(proto.EvtInventorySlot, handle(s.handleInventorySlot))
	conn.On(proto.EvtContainerOpen, handle(s.handleContainerOpen))
	conn.On(proto.EvtContainerClose, handle(s.handleContainerClose))
	conn.On(proto.EvtDisconnect, handle(s.handleDisconnect))
	conn.On(proto.EvtError, handle(s.handleTransportError))
}

func (s *Session) handlePlayStatus(payload any) {
	p, ok := payload.(proto.PlayStatus)
	if !ok {
		return
	}
	if p.Status != proto.StatusLoginSuccess {
		s.logger.Debug("play status", slog.String("status", p.Status))
		return
	}
	_ = s.transitionLocked(StateResourceNegotiation, "login confirmed")
}

// handleResourcePacks is the only automatic, unconditional outbound reply:
// every offered pack is accepted immediately.
func (s *Session) handleResourcePacks(payload any) {
	if s.state != StateResourceNegotiation {
		s.logger.Debug("pack negotiation outside resource_negotiation, ignoring", slog.String("state", string(s.state)))
		return
	}
	s.sendLocked(proto.CmdResourcePackResponse, proto.ResourcePackResponse{Status: proto.PackResponseCompleted})
	_ = s.transitionLocked(StateSpawning, "resource packs accepted")
}

func (s *Session) handleStartGame(payload any) {
	p, _ := payload.(proto.StartGame)

	// some servers skip pack negotiation entirely
	if s.state == StateResourceNegotiation {
		_ = s.transitionLocked(StateSpawning, "no pack negotiation offered")
	}

	event.Send(event.GameJoined(event.Text(s.id, "joined game"), p.EntityID, p.GameMode))

	// best effort, not required for correctness
	s.sendLocked(proto.CmdRequestChunkRadius, proto.RequestChunkRadius{Radius: s.cfg.ChunkRadius})

	if s.state != StateSpawning {
		// readiness signals outran the spawn handshake and already drove the
		// session to READY
		s.logger.Debug("game start after readiness", slog.String("state", string(s.state)))
		return
	}
	if s.transitionLocked(StateAwaitingReadiness, "game started") != nil {
		return
	}
	s.gate.ArmFallback(s.cfg.ReadinessFallback)

	if s.gate.IsReady() {
		// both signals arrived while earlier handshake states were active
		s.onReadinessComplete(s.gate.Forced())
	}
}

func (s *Session) handleAvailableCommands(_ any) {
	s.gate.SetCommandsAvailable(true)
}

func (s *Session) handleInventoryContent(payload any) {
	p, ok := payload.(proto.InventoryContent)
	if !ok {
		return
	}
	id, err := proto.NormalizeWindowID(p.WindowID)
	if err != nil {
		s.logger.Warn("dropping snapshot with bad window id", slog.Any("error", err))
		return
	}

	// content for the tracked container
	if s.window != nil && id == s.window.ID {
		s.window.ApplyContent(p.Items)
		s.dumpWindowOnce()
		s.maybeInteractLocked()
		return
	}

	// the inference fallback for servers that skip the explicit open signal
	if s.state == StateAwaitingUI && s.window == nil {
		c := ClassifyWindow(id, p.ContainerID, p.DynamicID, len(p.Items))
		if c.ForeignUI {
			s.openContainerLocked(id, true, c.Rule)
			s.window.ApplyContent(p.Items)
			s.dumpWindowOnce()
			s.maybeInteractLocked()
			return
		}
		s.logger.Debug("snapshot classified as inventory traffic while awaiting UI",
			slog.Int("windowId", int(id)),
			slog.String("rule", c.Rule),
		)
	}

	// ordinary player inventory churn
	if id == proto.WindowInventory {
		s.playerInv = make([]proto.Item, len(p.Items))
		copy(s.playerInv, p.Items)
		s.gate.SetInventoryReady(true, "inventory snapshot")
		return
	}

	s.logger.Debug("ignoring snapshot for untracked window", slog.Int("windowId", int(id)))
}

func (s *Session) handleInventorySlot(payload any) {
	p, ok := payload.(proto.InventorySlot)
	if !ok {
		return
	}
	id, err := proto.NormalizeWindowID(p.WindowID)
	if err != nil {
		s.logger.Warn("dropping slot update with bad window id", slog.Any("error", err))
		return
	}

	if s.window != nil && id == s.window.ID {
		s.window.ApplySlot(p.Slot, p.Item)
		s.maybeInteractLocked()
		return
	}

	if id == proto.WindowInventory {
		for len(s.playerInv) <= p.Slot && len(s.playerInv) < proto.PlayerInventorySize {
			s.playerInv = append(s.playerInv, proto.EmptyItem)
		}
		if p.Slot >= 0 && p.Slot < len(s.playerInv) {
			s.playerInv[p.Slot] = p.Item
		}
	}
}

func (s *Session) handleContainerOpen(payload any) {
	p, ok := payload.(proto.ContainerOpen)
	if !ok {
		return
	}
	id, err := proto.NormalizeWindowID(p.WindowID)
	if err != nil {
		s.logger.Warn("dropping container open with bad window id", slog.Any("error", err))
		return
	}

	if s.state != StateAwaitingUI || s.window != nil {
		s.logger.Debug("ignoring container open",
			slog.Int("windowId", int(id)),
			slog.String("state", string(s.state)),
		)
		return
	}
	s.openContainerLocked(id, false, "container_open "+p.ContainerType)
}

func (s *Session) handleContainerClose(payload any) {
	p, ok := payload.(proto.ContainerClose)
	if !ok {
		return
	}
	id, err := proto.NormalizeWindowID(p.WindowID)
	if err != nil {
		s.logger.Warn("dropping container close with bad window id", slog.Any("error", err))
		return
	}
	if s.window == nil || id != s.window.ID {
		s.logger.Debug("ignoring close for untracked window", slog.Int("windowId", int(id)))
		return
	}

	if s.state == StateSlotInteracted {
		s.stopTimer(&s.interactTimer)
		s.window = nil
		if s.transitionLocked(StateCompleted, "container closed") == nil {
			event.Send(event.SessionCompleted(event.Text(s.id, "flow completed"), true))
		}
		return
	}

	s.logger.Warn("container closed before slot interaction", slog.Int("windowId", int(id)))
	s.window = nil
	s.clearFlowTimersLocked()
	_ = s.transitionLocked(StateError, "container closed prematurely")
}

func (s *Session) handleDisconnect(payload any) {
	p, _ := payload.(proto.Disconnect)
	reason := p.Reason
	if reason == "" {
		reason = "connection closed"
	}
	s.disconnectLocked(reason, false)
}

func (s *Session) handleTransportError(payload any) {
	p, ok := payload.(proto.TransportError)
	if !ok {
		return
	}
	for _, marker := range benignNoiseMarkers {
		if strings.Contains(p.Message, marker) {
			s.logger.Debug("suppressing benign transport noise", slog.String("message", p.Message))
			return
		}
	}
	s.lastErr = p.Message
	s.logger.Error("transport error", slog.String("message", p.Message))
}

// onReadinessComplete runs under the session lock whenever the gate's AND
// condition first becomes true for this connection.
func (s *Session) onReadinessComplete(forced bool) {
	if s.state != StateSpawning && s.state != StateAwaitingReadiness {
		return
	}
	if s.transitionLocked(StateReady, readyReason(forced)) != nil {
		return
	}
	event.Send(event.SessionReady(event.Text(s.id, "session ready"), forced))

	// settle before the scripted command so we never race server-side init
	s.stopTimer(&s.settleTimer)
	s.settleTimer = s.clock.AfterFunc(s.cfg.SettleDelay, func() {
		s.settleTimer = nil
		if s.state != StateReady {
			return
		}
		if err := s.dispatchLocked(s.cfg.Command); err != nil {
			s.logger.Error("scripted command dispatch failed", slog.Any("error", err))
		}
	})
}

func readyReason(forced bool) string {
	if forced {
		return "readiness forced by fallback"
	}
	return "both readiness signals received"
}

// dispatchLocked clears all prior window state, sends the command and moves
// the machine into the UI wait.
func (s *Session) dispatchLocked(command string) error {
	if command == "" {
		return fmt.Errorf("session %s has no command to dispatch", s.id)
	}

	// the previous flow's window and timers must never leak into a new one
	s.window = nil
	s.clearFlowTimersLocked()

	payload := proto.CommandRequest{
		Command: command,
		Origin: proto.CommandOrigin{
			Type:      proto.OriginPlayer,
			UUID:      uuid.NewString(),
			RequestID: uuid.NewString(),
		},
		Internal: false,
		Version:  s.cfg.ProtocolVersion,
	}
	if !s.sendLocked(proto.CmdCommandRequest, payload) {
		return fmt.Errorf("session %s: transport rejected command", s.id)
	}
	s.commandsSent++

	if err := s.transitionLocked(StateCommandDispatched, "command sent"); err != nil {
		return err
	}
	event.Send(event.CommandDispatched(event.Text(s.id, "command dispatched"), command))

	if err := s.transitionLocked(StateAwaitingUI, "awaiting container response"); err != nil {
		return err
	}
	s.uiTimer = s.clock.AfterFunc(s.cfg.UITimeout, func() {
		s.uiTimer = nil
		if s.state != StateAwaitingUI {
			return
		}
		s.lastErr = "no container response"
		_ = s.transitionLocked(StateError, "no container response within timeout")
	})
	return nil
}

func (s *Session) openContainerLocked(id proto.WindowID, inferred bool, detail string) {
	if s.transitionLocked(StateContainerOpen, detail) != nil {
		return
	}
	s.stopTimer(&s.uiTimer)
	s.window = newWindow(id, true)
	event.Send(event.ContainerOpened(event.Text(s.id, "container opened"), int(id), inferred))
	_ = s.transitionLocked(StateAwaitingContent, "waiting for container content")
}

// maybeInteractLocked fires the slot transaction once the target slot is
// populated, whether by the full snapshot or by a later increment.
func (s *Session) maybeInteractLocked() {
	if s.state != StateAwaitingContent || s.window == nil || !s.window.ContentReceived {
		return
	}

	slot := s.cfg.TargetSlot
	if slot < 0 || slot >= len(s.window.Items) {
		s.logger.Error("target slot out of range, rejecting locally",
			slog.Int("slot", slot),
			slog.Int("windowSize", len(s.window.Items)),
		)
		return
	}
	if !s.window.SlotPopulated(slot) {
		// wait for an increment to fill it
		return
	}

	txn, err := BuildSlotTransaction(s.window.ID, slot, s.window.ItemAt(slot), s.playerInv)
	if err != nil {
		s.logger.Error("slot transaction rejected", slog.Any("error", err))
		return
	}
	if !s.sendLocked(proto.CmdInventoryTransaction, txn.Payload) {
		return
	}

	if s.transitionLocked(StateSlotInteracted, "sent "+string(txn.Kind)+" transaction") != nil {
		return
	}
	event.Send(event.SlotInteracted(event.Text(s.id, "slot interacted"), int(s.window.ID), slot))

	// silence after the interaction is assumed to be success, but kept as a
	// distinct terminal so it never masquerades as a confirmed completion
	s.interactTimer = s.clock.AfterFunc(s.cfg.InteractionTimeout, func() {
		s.interactTimer = nil
		if s.state != StateSlotInteracted {
			return
		}
		s.window = nil
		if s.transitionLocked(StateCompletedUnconfirmed, "no close signal, assuming success") == nil {
			event.Send(event.SessionCompleted(event.Text(s.id, "flow completed without confirmation"), false))
		}
	})
}

func (s *Session) disconnectLocked(reason string, userInitiated bool) {
	s.clearFlowTimersLocked()
	s.gate.Reset()
	s.window = nil
	s.playerInv = nil

	if s.conn != nil {
		_ = s.conn.Close()
		s.conn = nil
	}
	s.connID = ""

	if s.state != StateDisconnected {
		_ = s.transitionLocked(StateDisconnected, reason)
	}
	event.Send(event.Disconnected(event.Text(s.id, "disconnected"), reason, userInitiated))

	if !userInitiated {
		s.scheduleReconnectLocked(reason)
	}
}

func (s *Session) scheduleReconnectLocked(reason string) {
	if delay, ok := s.rec.Schedule(reason); ok {
		event.Send(event.ReconnectScheduled(event.Text(s.id, "reconnect scheduled"), s.rec.Attempt(), delay))
	}
}

// sendLocked is the single outbound path: every send is logged here once.
// Failures surface as false and never force a transition by themselves; the
// transport follows up with its own disconnect event.
func (s *Session) sendLocked(name string, payload any) bool {
	if s.conn == nil {
		s.logger.Warn("dropping send, no live connection", slog.String("packet", name))
		return false
	}
	s.logger.Debug("sending packet", slog.String("packet", name), slog.String("conn", s.connID))
	if err := s.conn.Send(name, payload); err != nil {
		s.lastErr = err.Error()
		s.logger.Error("send failed", slog.String("packet", name), slog.Any("error", err))
		return false
	}
	return true
}

func (s *Session) transitionLocked(next State, reason string) error {
	if !s.state.CanTransitionTo(next) {
		err := illegalTransition(s.state, next)
		s.logger.Error("rejected illegal transition",
			slog.String("from", string(s.state)),
			slog.String("to", string(next)),
			slog.String("reason", reason),
		)
		return err
	}
	s.logger.Info("session transition",
		slog.String("from", string(s.state)),
		slog.String("to", string(next)),
		slog.String("reason", reason),
	)
	s.state = next
	return nil
}

func (s *Session) clearFlowTimersLocked() {
	s.stopTimer(&s.settleTimer)
	s.stopTimer(&s.uiTimer)
	s.stopTimer(&s.interactTimer)
}

func (s *Session) stopTimer(t *Timer) {
	if *t != nil {
		(*t).Stop()
		*t = nil
	}
}

func (s *Session) dumpWindowOnce() {
	if s.window == nil || s.window.dumpedOnce {
		return
	}
	s.window.dumpedOnce = true
	populated := 0
	for _, it := range s.window.Items {
		if !it.Empty() {
			populated++
		}
	}
	s.logger.Info("container content",
		slog.Int("windowId", int(s.window.ID)),
		slog.Int("slots", len(s.window.Items)),
		slog.Int("populated", populated),
	)
}

// lockedClock re-enters the session lock for every timer callback so timers
// are serialized with packet handlers.
type lockedClock struct {
	inner Clock
	mu    *sync.Mutex
}

func (c lockedClock) Now() time.Time { return c.inner.Now() }

func (c lockedClock) AfterFunc(d time.Duration, f func()) Timer {
	return c.inner.AfterFunc(d, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		f()
	})
}
