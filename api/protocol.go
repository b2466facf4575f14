package api

import "github.com/bytedance/sonic"

// frameMaxSize bounds inbound WebSocket messages. Attachments travel inline
// as data: URLs, so the limit has to fit a few of them.
const frameMaxSize = 16 * 1024 * 1024 // 16 MiB

// Inbound event names, exactly as the board client emits them.
const (
	eventTaskCreate = "task:create"
	eventTaskUpdate = "task:update"
	eventTaskMove   = "task:move"
	eventTaskDelete = "task:delete"
	eventSyncTasks  = "sync:tasks"
)

// Outbound event names.
const (
	eventTasksSynced = "tasks:synced"
	eventError       = "error"
)

// frame is the envelope every WebSocket message travels in.
type frame struct {
	Event string                 `json:"event"`
	Data  sonic.NoCopyRawMessage `json:"data,omitempty"`
}

// outFrame is the outbound counterpart; Data is marshalled in place.
type outFrame struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// errorPayload is the body of an "error" frame.
type errorPayload struct {
	Message string `json:"message"`
}

// commandKind is the typed form of an inbound event name. Frames are decoded
// into a kind once at the edge; everything past that point dispatches on the
// kind, not the string.
type commandKind int

const (
	cmdCreate commandKind = iota
	cmdUpdate
	cmdMove
	cmdDelete
	cmdResync
)

var commandKinds = map[string]commandKind{
	eventTaskCreate: cmdCreate,
	eventTaskUpdate: cmdUpdate,
	eventTaskMove:   cmdMove,
	eventTaskDelete: cmdDelete,
	eventSyncTasks:  cmdResync,
}

func (k commandKind) String() string {
	switch k {
	case cmdCreate:
		return eventTaskCreate
	case cmdUpdate:
		return eventTaskUpdate
	case cmdMove:
		return eventTaskMove
	case cmdDelete:
		return eventTaskDelete
	case cmdResync:
		return eventSyncTasks
	}
	return "unknown"
}

// failureMessage is the generic error surfaced when a handler fails
// unexpectedly; store state and other sessions stay unaffected.
func (k commandKind) failureMessage() string {
	switch k {
	case cmdCreate:
		return "Failed to create task"
	case cmdUpdate:
		return "Failed to update task"
	case cmdMove:
		return "Failed to move task"
	case cmdDelete:
		return "Failed to delete task"
	}
	return "Failed to process event"
}
