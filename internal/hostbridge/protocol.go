package hostbridge

import (
	"encoding/json"

	"blight/internal/session"
)

// Command types a client may send.
const (
	CmdAddStructure    = "add_structure"
	CmdRemoveStructure = "remove_structure"
	CmdAddPipe         = "add_pipe"
	CmdRemovePipe      = "remove_pipe"
	CmdQueryRadius     = "query_radius"
)

// Event types the hub sends as text frames. Texture updates travel as
// binary frames holding the raw W×H grid.
const (
	EvtHello            = "hello"
	EvtBlightUpdated    = "blight_updated"
	EvtAmountsUpdated   = "amounts_updated"
	EvtStructureAdded   = "structure_added"
	EvtStructureRemoved = "structure_removed"
	EvtPipeAdded        = "pipe_added"
	EvtPipeRemoved      = "pipe_removed"
	EvtQueryResult      = "query_result"
	EvtError            = "error"
)

// Command is a client request. Fields are interpreted per Type.
type Command struct {
	Type      string `json:"type"`
	RequestID string `json:"request_id,omitempty"`

	StructureType string  `json:"structure_type,omitempty"`
	X             float64 `json:"x,omitempty"`
	Y             float64 `json:"y,omitempty"`
	PipeFrom      int64   `json:"pipe_from,omitempty"`

	ID int64 `json:"id,omitempty"`
	A  int64 `json:"a,omitempty"`
	B  int64 `json:"b,omitempty"`
}

// Event is a server message.
type Event struct {
	Type      string          `json:"type"`
	RequestID string          `json:"request_id,omitempty"`
	Frame     uint64          `json:"frame"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Error     string          `json:"error,omitempty"`
}

// Hello is sent once on connect, before the first texture.
type Hello struct {
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	Generation uint64 `json:"generation"`
}

// StructureAdded echoes a placement.
type StructureAdded struct {
	session.AddStructureResult
	StructureType string  `json:"structure_type"`
	X             float64 `json:"x"`
	Y             float64 `json:"y"`
}

// PipeEvent describes a pipe that was added or removed.
type PipeEvent struct {
	ID int64 `json:"id"`
	A  int64 `json:"a,omitempty"`
	B  int64 `json:"b,omitempty"`
}
