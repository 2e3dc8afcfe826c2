// Package mcp exposes the daemon's window operations as Model Context
// Protocol tools over stdio.
package mcp

import (
	"context"
	"log/slog"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/1broseidon/tilestate/internal/ipc"
)

const (
	ServerName    = "tilestate"
	ServerVersion = "0.1.0"
)

// Daemon is the part of the IPC client the tools use.
type Daemon interface {
	GetStatus() (*ipc.StatusData, error)
	ListToplevels() (*ipc.ToplevelsData, error)
	ListLayouts() (*ipc.LayoutsData, error)
	Move(p ipc.MovePayload) (*ipc.TransactionData, error)
	Place(p ipc.PlacePayload) (*ipc.TransactionData, error)
	Swap(p ipc.SwapPayload) (*ipc.TransactionData, error)
	Maximize(p ipc.MaximizePayload) (*ipc.TransactionData, error)
	Fullscreen(p ipc.FullscreenPayload) (*ipc.TransactionData, error)
	Tile(p ipc.TilePayload) (*ipc.TransactionData, error)
}

var _ Daemon = (*ipc.Client)(nil)

// Server is the MCP server forwarding tool calls to the daemon.
type Server struct {
	mcpServer *mcpsdk.Server
	daemon    Daemon
	logger    *slog.Logger
}

// NewServer creates a new MCP server talking to daemon.
func NewServer(daemon Daemon, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		daemon: daemon,
		logger: logger,
	}

	s.mcpServer = mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    ServerName,
			Version: ServerVersion,
		},
		nil,
	)

	s.registerTools()
	return s
}

// Run starts the MCP server on stdio transport, blocking until done.
func (s *Server) Run(ctx context.Context) error {
	s.logger.Info("MCP server starting", "name", ServerName, "version", ServerVersion)
	return s.mcpServer.Run(ctx, &mcpsdk.StdioTransport{})
}

func (s *Server) registerTools() {
	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "get_status",
		Description: "Report the daemon status: active layout, number of managed windows and outputs, and how many transactions were applied, forced after the timeout or aborted.",
	}, s.handleGetStatus)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "list_toplevels",
		Description: "List every managed window with its pending, committed and current state. Pending is what the next commit will request, committed is what the window was asked to show and current is what it shows.",
	}, s.handleListToplevels)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "list_layouts",
		Description: "List the tiling layouts that can be passed to tile_layout.",
	}, s.handleListLayouts)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "move_toplevel",
		Description: "Move a window by a pixel offset, or place it at an exact frame geometry when width and height are given. Moving a window unmaximizes it.",
	}, s.handleMoveToplevel)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "swap_toplevels",
		Description: "Exchange the places of two windows. Both windows change in a single transaction, so neither is shown in its new place before the other.",
	}, s.handleSwapToplevels)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "set_maximization",
		Description: "Maximize a window along an axis. Accepts none, vertical, horizontal, full or a list of tiled edges such as top|left.",
	}, s.handleSetMaximization)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "set_fullscreen",
		Description: "Make a window cover its whole output without decorations, or restore it.",
	}, s.handleSetFullscreen)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "tile_layout",
		Description: "Tile the windows of an output with a layout, all in one transaction. Defaults to the active layout and the output of the focused window.",
	}, s.handleTileLayout)
}
