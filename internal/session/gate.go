package session

import (
	"log/slog"
	"time"
)

// ReadinessGate tracks the two preconditions that must both hold before the
// first scripted command goes out: the server's command catalog is usable
// and the player inventory has been delivered. Once inventory readiness is
// observed it sticks, servers are known to resend conflicting values later.
//
// The gate is not internally synchronized; the owning session serializes
// every call, including the fallback timer callback.
type ReadinessGate struct {
	logger *slog.Logger
	clock  Clock

	commandsAvailable bool
	inventoryReady    bool
	forced            bool

	commandsAt  time.Time
	inventoryAt time.Time

	fallback Timer

	// onComplete runs at most once per arming cycle, the moment both flags
	// hold. The session uses it to drive the AWAITING_READINESS -> READY
	// transition.
	onComplete func(forced bool)
}

func NewReadinessGate(logger *slog.Logger, clock Clock, onComplete func(forced bool)) *ReadinessGate {
	return &ReadinessGate{
		logger:     logger,
		clock:      clock,
		onComplete: onComplete,
	}
}

// SetCommandsAvailable records the command-catalog signal.
func (g *ReadinessGate) SetCommandsAvailable(available bool) {
	wasReady := g.IsReady()
	g.commandsAvailable = available
	if available {
		g.commandsAt = g.clock.Now()
	}
	g.completeIf(wasReady)
}

// SetInventoryReady records the inventory signal. True is sticky: a later
// false from a confused server is logged and ignored.
func (g *ReadinessGate) SetInventoryReady(ready bool, reason string) {
	if !ready && g.inventoryReady {
		g.logger.Debug("ignoring inventory readiness retraction", slog.String("reason", reason))
		return
	}
	wasReady := g.IsReady()
	if ready && !g.inventoryReady {
		g.inventoryReady = true
		g.inventoryAt = g.clock.Now()
		g.logger.Debug("inventory ready", slog.String("reason", reason))
	}
	g.completeIf(wasReady)
}

// IsReady is the AND of both flags.
func (g *ReadinessGate) IsReady() bool {
	return g.commandsAvailable && g.inventoryReady
}

// Forced reports whether readiness was assumed by the fallback timer rather
// than signaled by the server.
func (g *ReadinessGate) Forced() bool {
	return g.forced
}

// ArmFallback starts the timer that assumes inventory readiness when the
// server never sends an explicit signal. Re-arming resets the timer.
func (g *ReadinessGate) ArmFallback(timeout time.Duration) {
	g.CancelFallback()
	g.fallback = g.clock.AfterFunc(timeout, func() {
		if g.inventoryReady {
			return
		}
		g.forced = true
		g.logger.Warn("no inventory signal received, forcing readiness",
			slog.Duration("waited", timeout),
		)
		g.SetInventoryReady(true, "fallback timeout")
	})
}

// CancelFallback stops the pending fallback timer, if any. Called when
// readiness arrives explicitly.
func (g *ReadinessGate) CancelFallback() {
	if g.fallback != nil {
		g.fallback.Stop()
		g.fallback = nil
	}
}

// Reset clears all flags and timers for a fresh connection.
func (g *ReadinessGate) Reset() {
	g.CancelFallback()
	g.commandsAvailable = false
	g.inventoryReady = false
	g.forced = false
	g.commandsAt = time.Time{}
	g.inventoryAt = time.Time{}
}

func (g *ReadinessGate) completeIf(wasReady bool) {
	if wasReady || !g.IsReady() {
		return
	}
	g.CancelFallback()
	if g.onComplete != nil {
		g.onComplete(g.forced)
	}
}
