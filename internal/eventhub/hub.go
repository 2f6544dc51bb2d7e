// internal/eventhub/hub.go
package eventhub

import "context"

// Broadcaster delivers events to whatever frontend is attached: the
// wails runtime in GUI mode, the websocket server in headless mode.
type Broadcaster interface {
	BroadcastEvent(eventType string, payload interface{})
}

// EventHub is the single fan-out point for backend events.
type EventHub struct {
	ctx         context.Context
	broadcaster Broadcaster
}

// New creates an EventHub.
func New(ctx context.Context) *EventHub {
	return &EventHub{ctx: ctx}
}

// SetBroadcaster attaches the event sink.
func (h *EventHub) SetBroadcaster(b Broadcaster) {
	h.broadcaster = b
}

func (h *EventHub) emit(eventName string, payload interface{}) {
	if h.broadcaster != nil {
		h.broadcaster.BroadcastEvent(eventName, payload)
	}
}

// Emit sends an arbitrary event.
func (h *EventHub) Emit(eventName string, payload interface{}) {
	h.emit(eventName, payload)
}

// WorkspaceChangedEvent signals that the file list should refresh.
type WorkspaceChangedEvent struct {
	Path   string `json:"path"`
	Change string `json:"change"` // "create", "modify", "delete"
}

func (h *EventHub) EmitWorkspaceChanged(event WorkspaceChangedEvent) {
	h.emit("workspace:changed", event)
}

// ChatTurnEvent carries one appended conversation turn.
type ChatTurnEvent struct {
	Role    string `json:"role"`
	Summary string `json:"summary"`
}

func (h *EventHub) EmitChatTurn(event ChatTurnEvent) {
	h.emit("chat:turn", event)
}

// PreviewInvalidatedEvent signals that the preview pane must recompose.
type PreviewInvalidatedEvent struct {
	Filename string `json:"filename"`
}

func (h *EventHub) EmitPreviewInvalidated(event PreviewInvalidatedEvent) {
	h.emit("preview:invalidated", event)
}

// CheckpointCreatedEvent signals a new workspace snapshot.
type CheckpointCreatedEvent struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

func (h *EventHub) EmitCheckpointCreated(event CheckpointCreatedEvent) {
	h.emit("checkpoint:created", event)
}

// GitCommittedEvent signals a new workspace history entry.
type GitCommittedEvent struct {
	Hash    string `json:"hash"`
	Message string `json:"message"`
}

func (h *EventHub) EmitGitCommitted(event GitCommittedEvent) {
	h.emit("git:committed", event)
}

// ReportEvent carries an inline human-readable warning or error message.
type ReportEvent struct {
	Message string `json:"message"`
}

func (h *EventHub) EmitReport(message string) {
	h.emit("report", ReportEvent{Message: message})
}
