package mcp

import (
	"context"
	"fmt"
	"strings"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/1broseidon/tilestate/internal/ipc"
)

func (s *Server) handleGetStatus(_ context.Context, _ *mcpsdk.CallToolRequest, _ GetStatusInput) (*mcpsdk.CallToolResult, ipc.StatusData, error) {
	status, err := s.daemon.GetStatus()
	if err != nil {
		return nil, ipc.StatusData{}, err
	}
	return nil, *status, nil
}

func (s *Server) handleListToplevels(_ context.Context, _ *mcpsdk.CallToolRequest, args ListToplevelsInput) (*mcpsdk.CallToolResult, ListToplevelsOutput, error) {
	data, err := s.daemon.ListToplevels()
	if err != nil {
		return nil, ListToplevelsOutput{}, err
	}

	out := ListToplevelsOutput{Toplevels: make([]ipc.ToplevelInfo, 0, len(data.Toplevels))}
	for _, t := range data.Toplevels {
		if args.AppID != "" && !strings.EqualFold(t.AppID, args.AppID) {
			continue
		}
		out.Toplevels = append(out.Toplevels, t)
	}
	out.Count = len(out.Toplevels)
	return nil, out, nil
}

func (s *Server) handleListLayouts(_ context.Context, _ *mcpsdk.CallToolRequest, _ ListLayoutsInput) (*mcpsdk.CallToolResult, ipc.LayoutsData, error) {
	data, err := s.daemon.ListLayouts()
	if err != nil {
		return nil, ipc.LayoutsData{}, err
	}
	return nil, *data, nil
}

func (s *Server) handleMoveToplevel(_ context.Context, _ *mcpsdk.CallToolRequest, args MoveToplevelInput) (*mcpsdk.CallToolResult, TransactionOutput, error) {
	if args.WindowID == 0 {
		return nil, TransactionOutput{}, fmt.Errorf("window_id is required")
	}
	wait := ipc.Wait{Wait: args.Wait}

	if args.Width > 0 || args.Height > 0 {
		if args.X == nil || args.Y == nil || args.Width <= 0 || args.Height <= 0 {
			return nil, TransactionOutput{}, fmt.Errorf("placing a window needs x, y and a positive width and height")
		}
		return s.transaction(s.daemon.Place(ipc.PlacePayload{
			Wait:     wait,
			WindowID: args.WindowID,
			Geometry: ipc.Box{X: *args.X, Y: *args.Y, Width: args.Width, Height: args.Height},
		}))
	}

	if args.DX == 0 && args.DY == 0 {
		return nil, TransactionOutput{}, fmt.Errorf("nothing to do: dx and dy are both zero")
	}
	return s.transaction(s.daemon.Move(ipc.MovePayload{
		Wait:     wait,
		WindowID: args.WindowID,
		DX:       args.DX,
		DY:       args.DY,
	}))
}

func (s *Server) handleSwapToplevels(_ context.Context, _ *mcpsdk.CallToolRequest, args SwapToplevelsInput) (*mcpsdk.CallToolResult, TransactionOutput, error) {
	if args.A == args.B {
		return nil, TransactionOutput{}, fmt.Errorf("a and b must be different windows")
	}
	return s.transaction(s.daemon.Swap(ipc.SwapPayload{
		Wait: ipc.Wait{Wait: args.Wait},
		A:    args.A,
		B:    args.B,
	}))
}

func (s *Server) handleSetMaximization(_ context.Context, _ *mcpsdk.CallToolRequest, args SetMaximizationInput) (*mcpsdk.CallToolResult, TransactionOutput, error) {
	return s.transaction(s.daemon.Maximize(ipc.MaximizePayload{
		Wait:         ipc.Wait{Wait: args.Wait},
		WindowID:     args.WindowID,
		Maximization: args.Maximization,
	}))
}

func (s *Server) handleSetFullscreen(_ context.Context, _ *mcpsdk.CallToolRequest, args SetFullscreenInput) (*mcpsdk.CallToolResult, TransactionOutput, error) {
	return s.transaction(s.daemon.Fullscreen(ipc.FullscreenPayload{
		Wait:       ipc.Wait{Wait: args.Wait},
		WindowID:   args.WindowID,
		Fullscreen: args.Fullscreen,
	}))
}

func (s *Server) handleTileLayout(_ context.Context, _ *mcpsdk.CallToolRequest, args TileLayoutInput) (*mcpsdk.CallToolResult, TransactionOutput, error) {
	return s.transaction(s.daemon.Tile(ipc.TilePayload{
		Wait:        ipc.Wait{Wait: args.Wait},
		LayoutName:  args.Layout,
		Output:      args.Output,
		WindowOrder: args.WindowOrder,
	}))
}

func (s *Server) transaction(data *ipc.TransactionData, err error) (*mcpsdk.CallToolResult, TransactionOutput, error) {
	if err != nil {
		return nil, TransactionOutput{}, err
	}
	out := TransactionOutput{Transaction: *data, Summary: summarize(*data)}
	s.logger.Debug("MCP transaction", "id", data.ID, "stage", data.Stage, "objects", data.Objects)
	return nil, out, nil
}

func summarize(d ipc.TransactionData) string {
	switch {
	case d.Queued:
		return fmt.Sprintf("%d window(s) busy; change queued until their current transaction completes", len(d.Objects))
	case d.Forced:
		return fmt.Sprintf("transaction %d applied after timeout; not every window confirmed", d.ID)
	default:
		return fmt.Sprintf("transaction %d %s for %d window(s)", d.ID, d.Stage, len(d.Objects))
	}
}
