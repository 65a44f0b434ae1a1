package proto

// Inbound event names delivered by the transport. The transport decodes the
// wire format; the controller only sees named packets with structured fields.
const (
	EvtPlayStatus        = "play_status"
	EvtResourcePacksInfo = "resource_packs_info"
	EvtStartGame         = "start_game"
	EvtAvailableCommands = "available_commands"
	EvtInventoryContent  = "inventory_content"
	EvtInventorySlot     = "inventory_slot"
	EvtContainerOpen     = "container_open"
	EvtContainerClose    = "container_close"
	EvtDisconnect        = "disconnect"
	EvtError             = "error"
)

// Outbound command names accepted by the transport.
const (
	CmdResourcePackResponse = "resource_pack_client_response"
	CmdRequestChunkRadius   = "request_chunk_radius"
	CmdCommandRequest       = "command_request"
	CmdInventoryTransaction = "inventory_transaction"
)

// PlayStatus signals login progress; StatusLoginSuccess confirms the server
// accepted the session credentials.
type PlayStatus struct {
	Status string `json:"status"`
}

const StatusLoginSuccess = "login_success"

// ResourcePacksInfo announces server packs; the controller always accepts.
type ResourcePacksInfo struct {
	MustAccept bool `json:"mustAccept"`
	PackCount  int  `json:"packCount"`
}

// ResourcePackResponse is the unconditional "accept all" acknowledgment.
type ResourcePackResponse struct {
	Status string `json:"status"`
}

const PackResponseCompleted = "completed"

// StartGame carries the spawn handshake. Entity id and game mode are
// informational only, the controller keys off the packet's arrival.
type StartGame struct {
	EntityID int64  `json:"entityId"`
	GameMode string `json:"gameMode"`
}

// AvailableCommands signals that the server's command catalog is usable.
// Occurrence is all that matters.
type AvailableCommands struct{}

// InventoryContent is a full snapshot of a window's slots. WindowID and
// DynamicID arrive in whatever raw form the server used and are normalized
// on ingestion. ContainerID is an optional string hint naming the container
// class ("inventory", "chest", ...).
type InventoryContent struct {
	WindowID    any    `json:"windowId"`
	ContainerID string `json:"containerId,omitempty"`
	DynamicID   any    `json:"dynamicId,omitempty"`
	Items       []Item `json:"items"`
}

// InventorySlot is an incremental single-slot update.
type InventorySlot struct {
	WindowID any  `json:"windowId"`
	Slot     int  `json:"slot"`
	Item     Item `json:"item"`
}

// ContainerOpen is the explicit UI open signal. Some servers skip it.
type ContainerOpen struct {
	WindowID      any    `json:"windowId"`
	ContainerType string `json:"containerType"`
}

// ContainerClose confirms a window was dismissed server-side.
type ContainerClose struct {
	WindowID any `json:"windowId"`
}

// Disconnect reports connection loss, a kick (Reason set) or both.
type Disconnect struct {
	Reason string `json:"reason"`
}

// TransportError surfaces decode-level failures. Some messages are known
// benign noise and are suppressed by the session.
type TransportError struct {
	Message string `json:"message"`
}

// RequestChunkRadius is a best-effort request issued after spawn.
type RequestChunkRadius struct {
	Radius int `json:"radius"`
}

// CommandOrigin describes who issued a command request. The controller
// always marks commands as player-issued and non-internal.
type CommandOrigin struct {
	Type      string `json:"type"`
	UUID      string `json:"uuid"`
	RequestID string `json:"requestId"`
}

const OriginPlayer = "player"

// CommandRequest carries the scripted (or remotely supplied) command text.
type CommandRequest struct {
	Command  string        `json:"command"`
	Origin   CommandOrigin `json:"origin"`
	Internal bool          `json:"internal"`
	Version  string        `json:"version"`
}

// TransactionAction is one slot mutation inside an inventory transaction:
// the server validates the old item against its own view before applying
// the new one.
type TransactionAction struct {
	WindowID WindowID `json:"windowId"`
	Slot     int      `json:"slot"`
	OldItem  Item     `json:"oldItem"`
	NewItem  Item     `json:"newItem"`
}

// InventoryTransaction is the outbound slot-interaction message.
type InventoryTransaction struct {
	Actions []TransactionAction `json:"actions"`
}
