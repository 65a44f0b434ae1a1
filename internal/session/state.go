package session

import (
	"errors"
	"fmt"
)

// State is the session protocol phase. States form an explicit transition
// table; anything not listed in legalTransitions is rejected with a
// diagnostic naming the disallowed pair, so out-of-order server signals can
// never corrupt the controller.
type State string

const (
	StateConnecting          State = "connecting"
	StateAuthenticating      State = "authenticating"
	StateResourceNegotiation State = "resource_negotiation"
	StateSpawning            State = "spawning"
	StateAwaitingReadiness   State = "awaiting_readiness"
	StateReady               State = "ready"
	StateCommandDispatched   State = "command_dispatched"
	StateAwaitingUI          State = "awaiting_ui"
	StateContainerOpen       State = "container_open"
	StateAwaitingContent     State = "awaiting_content"
	StateSlotInteracted      State = "slot_interacted"

	// StateCompleted is reached through an explicit container close after the
	// slot interaction. StateCompletedUnconfirmed is its silence-as-success
	// sibling: the interaction was sent but never acknowledged, so operators
	// and tests can tell the two apart.
	StateCompleted            State = "completed"
	StateCompletedUnconfirmed State = "completed_unconfirmed"

	StateError        State = "error"
	StateDisconnected State = "disconnected"
)

var ErrIllegalTransition = errors.New("illegal state transition")

// legalTransitions lists every permitted successor per state. READY is
// reachable from both SPAWNING and AWAITING_READINESS because some servers
// deliver the readiness signals before the spawn handshake finishes.
var legalTransitions = map[State][]State{
	StateConnecting:          {StateAuthenticating, StateError, StateDisconnected},
	StateAuthenticating:      {StateResourceNegotiation, StateError, StateDisconnected},
	StateResourceNegotiation: {StateSpawning, StateError, StateDisconnected},
	StateSpawning:            {StateAwaitingReadiness, StateReady, StateError, StateDisconnected},
	StateAwaitingReadiness:   {StateReady, StateError, StateDisconnected},
	StateReady:               {StateCommandDispatched, StateError, StateDisconnected},
	StateCommandDispatched:   {StateAwaitingUI, StateError, StateDisconnected},
	StateAwaitingUI:          {StateContainerOpen, StateError, StateDisconnected},
	StateContainerOpen:       {StateAwaitingContent, StateError, StateDisconnected},
	StateAwaitingContent:     {StateSlotInteracted, StateError, StateDisconnected},
	StateSlotInteracted:      {StateCompleted, StateCompletedUnconfirmed, StateError, StateDisconnected},

	// A finished session can run another command without reconnecting.
	StateCompleted:            {StateCommandDispatched, StateError, StateDisconnected},
	StateCompletedUnconfirmed: {StateCommandDispatched, StateError, StateDisconnected},

	StateError:        {StateCommandDispatched, StateDisconnected},
	StateDisconnected: {StateConnecting},
}

// CanTransitionTo reports whether moving to next is legal from s.
func (s State) CanTransitionTo(next State) bool {
	for _, allowed := range legalTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Completed reports whether the session reached either terminal variant.
func (s State) Completed() bool {
	return s == StateCompleted || s == StateCompletedUnconfirmed
}

func illegalTransition(from, to State) error {
	return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, from, to)
}
