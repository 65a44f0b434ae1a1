package fleet

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	hivelog "github.com/coopermor/hive/cmd/hive/log"
	"github.com/coopermor/hive/internal/config"
	"github.com/coopermor/hive/internal/proto"
	"github.com/coopermor/hive/internal/session"
)

// Manager owns the id -> session mapping and routes remote commands to the
// right instance. Sessions are destroyed only on explicit Remove; a dropped
// connection leaves the session in place, reconnecting on its own.
type Manager struct {
	logger *slog.Logger
	dialer proto.Dialer
	clock  session.Clock

	mu       sync.RWMutex // protects sessions
	sessions map[string]*session.Session
}

func NewManager(logger *slog.Logger, dialer proto.Dialer, clock session.Clock) *Manager {
	return &Manager{
		logger:   logger,
		dialer:   dialer,
		clock:    clock,
		sessions: make(map[string]*session.Session),
	}
}

// AvailableBots lists every configured bot identity, connected or not.
func (mng *Manager) AvailableBots() []string {
	names := make([]string, 0)
	for name := range config.GetBots() {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Connect creates the session for a configured bot (if needed) and dials.
// The dial is synchronous; callers that must not block run it in their own
// goroutine.
func (mng *Manager) Connect(ctx context.Context, name string) error {
	bc, found := config.GetBot(name)
	if !found {
		return fmt.Errorf("bot %s not found", name)
	}

	mng.mu.RLock()
	sess, exists := mng.sessions[name]
	mng.mu.RUnlock()

	if !exists {
		built, err := mng.buildSession(name, bc)
		if err != nil {
			return err
		}

		mng.mu.Lock()
		// double-check under the write lock so two concurrent Connect calls
		// cannot both insert a session for the same bot
		if racing, alreadyBuilt := mng.sessions[name]; alreadyBuilt {
			sess = racing
		} else {
			mng.sessions[name] = built
			sess = built
		}
		mng.mu.Unlock()
	}

	return sess.Connect(ctx)
}

// Disconnect is the user-initiated teardown; the session stays registered
// and will not reconnect until the next Connect.
func (mng *Manager) Disconnect(name string) error {
	mng.mu.RLock()
	sess, found := mng.sessions[name]
	mng.mu.RUnlock()
	if !found {
		return fmt.Errorf("bot %s has no session", name)
	}
	mng.logger.Info("disconnecting session", slog.String("bot", name))
	sess.Disconnect()
	return nil
}

// Remove disconnects and forgets the session entirely.
func (mng *Manager) Remove(name string) {
	mng.mu.Lock()
	sess, found := mng.sessions[name]
	if found {
		delete(mng.sessions, name)
	}
	mng.mu.Unlock()

	if !found {
		return
	}
	mng.logger.Info("removing session", slog.String("bot", name))
	sess.Disconnect()
}

// SendCommand routes a remotely supplied command to one session.
func (mng *Manager) SendCommand(name string, command string) error {
	mng.mu.RLock()
	sess, found := mng.sessions[name]
	mng.mu.RUnlock()
	if !found {
		return fmt.Errorf("bot %s has no session", name)
	}
	return sess.DispatchCommand(command)
}

// Status returns the stats snapshot for one bot, zero-valued when no
// session exists yet.
func (mng *Manager) Status(name string) session.Stats {
	mng.mu.RLock()
	sess, found := mng.sessions[name]
	mng.mu.RUnlock()
	if found {
		return sess.Stats()
	}
	return session.Stats{ID: name, State: session.StateDisconnected}
}

// StatusAll snapshots every configured bot.
func (mng *Manager) StatusAll() []session.Stats {
	stats := make([]session.Stats, 0)
	for _, name := range mng.AvailableBots() {
		stats = append(stats, mng.Status(name))
	}
	return stats
}

// List names the bots with live session instances.
func (mng *Manager) List() []string {
	mng.mu.RLock()
	names := make([]string, 0, len(mng.sessions))
	for name := range mng.sessions {
		names = append(names, name)
	}
	mng.mu.RUnlock()
	sort.Strings(names)
	return names
}

// StopAll disconnects every session. Used on shutdown.
func (mng *Manager) StopAll() {
	mng.mu.RLock()
	snapshot := make([]*session.Session, 0, len(mng.sessions))
	for _, s := range mng.sessions {
		snapshot = append(snapshot, s)
	}
	mng.mu.RUnlock()

	for _, s := range snapshot {
		s.Disconnect()
	}
}

func (mng *Manager) buildSession(name string, bc *config.BotCfg) (*session.Session, error) {
	logger := mng.logger
	if config.Hive != nil {
		botLogger, err := hivelog.NewLogger(config.Hive.Debug.Log, config.Hive.LogSaveDirectory, name)
		if err != nil {
			return nil, fmt.Errorf("error creating logger for %s: %w", name, err)
		}
		logger = botLogger
	}

	cfg := session.Config{
		Address:         bc.Address,
		Username:        bc.Username,
		ProtocolVersion: bc.ProtocolVersion,
		Command:         bc.Command,
		TargetSlot:      bc.TargetSlot,
	}
	if config.Hive != nil {
		ctl := config.Hive.Controller
		cfg.SettleDelay = time.Duration(ctl.SettleDelayMs) * time.Millisecond
		cfg.ReadinessFallback = time.Duration(ctl.ReadinessFallbackSec) * time.Second
		cfg.UITimeout = time.Duration(ctl.UITimeoutSec) * time.Second
		cfg.InteractionTimeout = time.Duration(ctl.InteractionTimeoutSec) * time.Second
		cfg.ChunkRadius = ctl.ChunkRadius
	}

	return session.New(name, cfg, logger, mng.dialer, mng.clock), nil
}
