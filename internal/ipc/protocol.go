package ipc

import (
	"encoding/json"
	"fmt"

	"github.com/1broseidon/tilestate/internal/geometry"
)

// CommandType represents different IPC command types
type CommandType string

const (
	CommandReload        CommandType = "RELOAD"
	CommandGetStatus     CommandType = "GET_STATUS"
	CommandGetOutputs    CommandType = "GET_OUTPUTS"
	CommandListToplevels CommandType = "LIST_TOPLEVELS"
	CommandListLayouts   CommandType = "LIST_LAYOUTS"
	CommandMove          CommandType = "MOVE"
	CommandPlace         CommandType = "PLACE"
	CommandResize        CommandType = "RESIZE"
	CommandSwap          CommandType = "SWAP"
	CommandMaximize      CommandType = "MAXIMIZE"
	CommandFullscreen    CommandType = "FULLSCREEN"
	CommandFloat         CommandType = "FLOAT"
	CommandTile          CommandType = "TILE"
	CommandSendToOutput  CommandType = "SEND_TO_OUTPUT"
)

// Request represents an IPC request from client to server
type Request struct {
	Command CommandType     `json:"command"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Response represents an IPC response from server to client
type Response struct {
	Status string          `json:"status"` // "OK" or "ERROR"
	Data   json.RawMessage `json:"data,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// Box is a geometry on the wire.
type Box struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

func BoxFrom(b geometry.Box) Box {
	return Box{X: b.X, Y: b.Y, Width: b.Width, Height: b.Height}
}

func (b Box) Geometry() geometry.Box {
	return geometry.Box{X: b.X, Y: b.Y, Width: b.Width, Height: b.Height}
}

// StatusData represents the data returned by GET_STATUS
type StatusData struct {
	ActiveLayout       string `json:"active_layout"`
	ToplevelCount      int    `json:"toplevel_count"`
	OutputCount        int    `json:"output_count"`
	InFlight           int    `json:"in_flight"`
	Applied            uint64 `json:"applied"`
	Forced             uint64 `json:"forced"`
	Aborted            uint64 `json:"aborted"`
	TransactionTimeout int64  `json:"transaction_timeout_ms"`
	UptimeSeconds      int64  `json:"uptime_seconds"`
	DaemonRunning      bool   `json:"daemon_running"`
}

// OutputInfo represents information about a single output
type OutputInfo struct {
	ID     int    `json:"id"`
	Name   string `json:"name"`
	Bounds Box    `json:"bounds"`
	Usable Box    `json:"usable"`
}

// OutputsData represents the data returned by GET_OUTPUTS
type OutputsData struct {
	Outputs []OutputInfo `json:"outputs"`
}

// StateInfo is one buffer of a toplevel's state.
type StateInfo struct {
	Mapped       bool   `json:"mapped"`
	Geometry     Box    `json:"geometry"`
	Content      Box    `json:"content"`
	Gravity      string `json:"gravity"`
	TiledEdges   string `json:"tiled_edges"`
	Maximization string `json:"maximization"`
	Fullscreen   bool   `json:"fullscreen"`
	Margins      [4]int `json:"margins"` // left, right, top, bottom
}

// ToplevelInfo describes a managed window and its three state buffers.
type ToplevelInfo struct {
	ID        uint32    `json:"id"`
	AppID     string    `json:"app_id,omitempty"`
	Title     string    `json:"title,omitempty"`
	PID       int       `json:"pid,omitempty"`
	Output    string    `json:"output,omitempty"`
	Phase     string    `json:"phase"`
	Pending   StateInfo `json:"pending"`
	Committed StateInfo `json:"committed"`
	Current   StateInfo `json:"current"`
}

// ToplevelsData represents the data returned by LIST_TOPLEVELS
type ToplevelsData struct {
	Toplevels []ToplevelInfo `json:"toplevels"`
}

type LayoutsData struct {
	Layouts       []string `json:"layouts"`
	DefaultLayout string   `json:"default_layout"`
	ActiveLayout  string   `json:"active_layout"`
}

// TransactionData reports what happened to the transaction a command
// submitted. Queued means the windows were busy and the change will be
// committed once they are idle.
type TransactionData struct {
	ID      uint64   `json:"id,omitempty"`
	Objects []uint32 `json:"objects"`
	Stage   string   `json:"stage"`
	Forced  bool     `json:"forced,omitempty"`
	Queued  bool     `json:"queued,omitempty"`
}

// Wait asks the daemon to answer only after the transaction was applied.
type Wait struct {
	Wait bool `json:"wait,omitempty"`
}

type MovePayload struct {
	Wait
	WindowID uint32 `json:"window_id"`
	DX       int    `json:"dx"`
	DY       int    `json:"dy"`
}

type PlacePayload struct {
	Wait
	WindowID uint32 `json:"window_id"`
	Geometry Box    `json:"geometry"`
}

type ResizePayload struct {
	Wait
	WindowID uint32 `json:"window_id"`
	Edges    string `json:"edges"` // e.g. "bottom|right"
	DX       int    `json:"dx"`
	DY       int    `json:"dy"`
}

type SwapPayload struct {
	Wait
	A uint32 `json:"a"`
	B uint32 `json:"b"`
}

type MaximizePayload struct {
	Wait
	WindowID     uint32 `json:"window_id"`
	Maximization string `json:"maximization"` // none, vertical, horizontal, full or edge names
}

type FullscreenPayload struct {
	Wait
	WindowID   uint32 `json:"window_id"`
	Fullscreen bool   `json:"fullscreen"`
}

type FloatPayload struct {
	Wait
	WindowID uint32 `json:"window_id"`
}

type TilePayload struct {
	Wait
	LayoutName string `json:"layout_name,omitempty"`
	Output     string `json:"output,omitempty"`
	// WindowOrder, if set, is used instead of adoption order.
	WindowOrder []uint32 `json:"window_order,omitempty"`
}

type SendToOutputPayload struct {
	Wait
	WindowID uint32 `json:"window_id"`
	Output   string `json:"output"`
}

// NewOKResponse creates a successful response with optional data
func NewOKResponse(data interface{}) (*Response, error) {
	var dataBytes json.RawMessage
	if data != nil {
		bytes, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal response data: %w", err)
		}
		dataBytes = bytes
	}

	return &Response{
		Status: "OK",
		Data:   dataBytes,
	}, nil
}

// NewErrorResponse creates an error response with a message
func NewErrorResponse(errMsg string) *Response {
	return &Response{
		Status: "ERROR",
		Error:  errMsg,
	}
}

// ParseRequest parses a request from JSON bytes
func ParseRequest(data []byte) (*Request, error) {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("failed to parse request: %w", err)
	}
	return &req, nil
}

// Marshal converts a response to JSON bytes
func (r *Response) Marshal() ([]byte, error) {
	return json.Marshal(r)
}
