package session

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestGateRequiresBothSignals(t *testing.T) {
	completions := 0
	g := NewReadinessGate(discardLogger(), newFakeClock(), func(bool) { completions++ })

	assert.False(t, g.IsReady())

	g.SetCommandsAvailable(true)
	assert.False(t, g.IsReady(), "commands alone must not satisfy the gate")
	assert.Zero(t, completions)

	g.SetInventoryReady(true, "snapshot")
	assert.True(t, g.IsReady())
	assert.Equal(t, 1, completions)
}

func TestGateOrderDoesNotMatter(t *testing.T) {
	for name, order := range map[string][]string{
		"inventory first": {"inventory", "commands"},
		"commands first":  {"commands", "inventory"},
	} {
		t.Run(name, func(t *testing.T) {
			ready := false
			g := NewReadinessGate(discardLogger(), newFakeClock(), func(bool) { ready = true })
			for _, signal := range order {
				if signal == "inventory" {
					g.SetInventoryReady(true, "test")
				} else {
					g.SetCommandsAvailable(true)
				}
			}
			assert.True(t, g.IsReady())
			assert.True(t, ready)
		})
	}
}

func TestGateInventoryReadinessIsSticky(t *testing.T) {
	g := NewReadinessGate(discardLogger(), newFakeClock(), nil)

	g.SetInventoryReady(true, "snapshot")
	g.SetInventoryReady(false, "conflicting resend")
	g.SetCommandsAvailable(true)

	assert.True(t, g.IsReady(), "later conflicting signals must not retract inventory readiness")
}

func TestGateCompletesOnlyOnce(t *testing.T) {
	completions := 0
	g := NewReadinessGate(discardLogger(), newFakeClock(), func(bool) { completions++ })

	g.SetCommandsAvailable(true)
	g.SetInventoryReady(true, "snapshot")
	g.SetInventoryReady(true, "resend")
	g.SetCommandsAvailable(true)

	assert.Equal(t, 1, completions)
}

func TestGateFallbackForcesInventoryReadiness(t *testing.T) {
	clock := newFakeClock()
	var forced *bool
	g := NewReadinessGate(discardLogger(), clock, func(f bool) { forced = &f })

	g.SetCommandsAvailable(true)
	g.ArmFallback(15 * time.Second)

	clock.Advance(14 * time.Second)
	assert.False(t, g.IsReady())

	clock.Advance(2 * time.Second)
	assert.True(t, g.IsReady())
	if assert.NotNil(t, forced) {
		assert.True(t, *forced, "fallback completion must be marked as forced")
	}
	assert.True(t, g.Forced())
}

func TestGateExplicitSignalCancelsFallback(t *testing.T) {
	clock := newFakeClock()
	g := NewReadinessGate(discardLogger(), clock, nil)

	g.ArmFallback(15 * time.Second)
	g.SetCommandsAvailable(true)
	g.SetInventoryReady(true, "snapshot")

	assert.Zero(t, clock.pending(), "explicit readiness must cancel the fallback timer")
	assert.False(t, g.Forced())
}

func TestGateResetClearsEverything(t *testing.T) {
	clock := newFakeClock()
	g := NewReadinessGate(discardLogger(), clock, nil)

	g.SetCommandsAvailable(true)
	g.SetInventoryReady(true, "snapshot")
	g.ArmFallback(15 * time.Second)
	g.Reset()

	assert.False(t, g.IsReady())
	assert.Zero(t, clock.pending())
}
