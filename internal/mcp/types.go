package mcp

import "github.com/1broseidon/tilestate/internal/ipc"

// GetStatusInput is the input for the get_status tool.
type GetStatusInput struct{}

// ListToplevelsInput is the input for the list_toplevels tool.
type ListToplevelsInput struct {
	AppID string `json:"app_id,omitempty" jsonschema:"Only list windows whose WM_CLASS matches"`
}

// ListLayoutsInput is the input for the list_layouts tool.
type ListLayoutsInput struct{}

// MoveToplevelInput is the input for the move_toplevel tool.
type MoveToplevelInput struct {
	WindowID uint32 `json:"window_id" jsonschema:"X window id from list_toplevels"`
	DX       int    `json:"dx,omitempty" jsonschema:"Horizontal offset in pixels"`
	DY       int    `json:"dy,omitempty" jsonschema:"Vertical offset in pixels"`
	X        *int   `json:"x,omitempty" jsonschema:"Absolute frame x; used together with y, width and height"`
	Y        *int   `json:"y,omitempty" jsonschema:"Absolute frame y"`
	Width    int    `json:"width,omitempty" jsonschema:"Frame width; when set the window is placed instead of moved"`
	Height   int    `json:"height,omitempty" jsonschema:"Frame height"`
	Wait     bool   `json:"wait,omitempty" jsonschema:"Return only after the window presented the new geometry or the transaction timed out"`
}

// SwapToplevelsInput is the input for the swap_toplevels tool.
type SwapToplevelsInput struct {
	A    uint32 `json:"a" jsonschema:"First window id"`
	B    uint32 `json:"b" jsonschema:"Second window id"`
	Wait bool   `json:"wait,omitempty" jsonschema:"Wait for both windows to be applied"`
}

// SetMaximizationInput is the input for the set_maximization tool.
type SetMaximizationInput struct {
	WindowID     uint32 `json:"window_id" jsonschema:"X window id"`
	Maximization string `json:"maximization" jsonschema:"none, vertical, horizontal, full or edges like top|left"`
	Wait         bool   `json:"wait,omitempty"`
}

// SetFullscreenInput is the input for the set_fullscreen tool.
type SetFullscreenInput struct {
	WindowID   uint32 `json:"window_id" jsonschema:"X window id"`
	Fullscreen bool   `json:"fullscreen" jsonschema:"true to enter fullscreen, false to leave it"`
	Wait       bool   `json:"wait,omitempty"`
}

// TileLayoutInput is the input for the tile_layout tool.
type TileLayoutInput struct {
	Layout      string   `json:"layout,omitempty" jsonschema:"Layout name (default: active layout)"`
	Output      string   `json:"output,omitempty" jsonschema:"RandR output name (default: output of the focused window)"`
	WindowOrder []uint32 `json:"window_order,omitempty" jsonschema:"Explicit windows to tile, in slot order"`
	Wait        bool     `json:"wait,omitempty"`
}

// ListToplevelsOutput is the output for the list_toplevels tool.
type ListToplevelsOutput struct {
	Toplevels []ipc.ToplevelInfo `json:"toplevels"`
	Count     int                `json:"count"`
}

// TransactionOutput reports what happened to the submitted change.
type TransactionOutput struct {
	Transaction ipc.TransactionData `json:"transaction"`
	Summary     string              `json:"summary"`
}
