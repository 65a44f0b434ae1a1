package event

import "time"

// GameJoinedEvent fires when a session finishes the spawn handshake.
type GameJoinedEvent struct {
	BaseEvent
	EntityID int64
	GameMode string
}

func GameJoined(be BaseEvent, entityID int64, gameMode string) GameJoinedEvent {
	return GameJoinedEvent{BaseEvent: be, EntityID: entityID, GameMode: gameMode}
}

// SessionReadyEvent fires when both readiness preconditions are satisfied.
// Forced is true when the fallback timer assumed readiness.
type SessionReadyEvent struct {
	BaseEvent
	Forced bool
}

func SessionReady(be BaseEvent, forced bool) SessionReadyEvent {
	return SessionReadyEvent{BaseEvent: be, Forced: forced}
}

// CommandDispatchedEvent fires after the scripted command is sent.
type CommandDispatchedEvent struct {
	BaseEvent
	Command string
}

func CommandDispatched(be BaseEvent, command string) CommandDispatchedEvent {
	return CommandDispatchedEvent{BaseEvent: be, Command: command}
}

// ContainerOpenedEvent fires when a foreign UI window is tracked, whether the
// server announced it explicitly or the session inferred it from a snapshot.
type ContainerOpenedEvent struct {
	BaseEvent
	WindowID int
	Inferred bool
}

func ContainerOpened(be BaseEvent, windowID int, inferred bool) ContainerOpenedEvent {
	return ContainerOpenedEvent{BaseEvent: be, WindowID: windowID, Inferred: inferred}
}

// SlotInteractedEvent fires after a slot transaction is sent.
type SlotInteractedEvent struct {
	BaseEvent
	WindowID int
	Slot     int
}

func SlotInteracted(be BaseEvent, windowID int, slot int) SlotInteractedEvent {
	return SlotInteractedEvent{BaseEvent: be, WindowID: windowID, Slot: slot}
}

// SessionCompletedEvent fires on the terminal state. Confirmed is false when
// completion was assumed after silence rather than acknowledged by a close.
type SessionCompletedEvent struct {
	BaseEvent
	Confirmed bool
}

func SessionCompleted(be BaseEvent, confirmed bool) SessionCompletedEvent {
	return SessionCompletedEvent{BaseEvent: be, Confirmed: confirmed}
}

// DisconnectedEvent fires on any connection loss, user-initiated or not.
type DisconnectedEvent struct {
	BaseEvent
	Reason        string
	UserInitiated bool
}

func Disconnected(be BaseEvent, reason string, userInitiated bool) DisconnectedEvent {
	return DisconnectedEvent{BaseEvent: be, Reason: reason, UserInitiated: userInitiated}
}

// ReconnectScheduledEvent fires when the reconnection supervisor arms a timer.
type ReconnectScheduledEvent struct {
	BaseEvent
	Attempt int
	Delay   time.Duration
}

func ReconnectScheduled(be BaseEvent, attempt int, delay time.Duration) ReconnectScheduledEvent {
	return ReconnectScheduledEvent{BaseEvent: be, Attempt: attempt, Delay: delay}
}
