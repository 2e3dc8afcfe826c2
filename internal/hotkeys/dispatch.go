package hotkeys

import (
	"context"
	"fmt"

	"github.com/1broseidon/tilestate/internal/config"
	"github.com/1broseidon/tilestate/internal/ipc"
	"github.com/1broseidon/tilestate/internal/maximize"
)

// Target is what bound actions drive. The daemon's controller implements it.
type Target interface {
	ActiveToplevel(ctx context.Context) (ipc.ToplevelInfo, error)
	Move(ctx context.Context, p ipc.MovePayload) (ipc.TransactionData, error)
	Maximize(ctx context.Context, p ipc.MaximizePayload) (ipc.TransactionData, error)
	Fullscreen(ctx context.Context, p ipc.FullscreenPayload) (ipc.TransactionData, error)
	Float(ctx context.Context, p ipc.FloatPayload) (ipc.TransactionData, error)
	Tile(ctx context.Context, p ipc.TilePayload) (ipc.TransactionData, error)
	SendToOutput(ctx context.Context, p ipc.SendToOutputPayload) (ipc.TransactionData, error)
}

// Dispatch runs a on the focused window. Tile acts on the focused window's
// output and does not need a managed window to be focused.
func Dispatch(ctx context.Context, target Target, a config.Action) (ipc.TransactionData, error) {
	if a.Verb == config.ActionTile {
		return target.Tile(ctx, ipc.TilePayload{LayoutName: a.Layout})
	}

	active, err := target.ActiveToplevel(ctx)
	if err != nil {
		return ipc.TransactionData{}, fmt.Errorf("%s: %w", a.Verb, err)
	}

	switch a.Verb {
	case config.ActionMove:
		return target.Move(ctx, ipc.MovePayload{WindowID: active.ID, DX: a.DX, DY: a.DY})

	case config.ActionMaximize:
		return target.Maximize(ctx, ipc.MaximizePayload{WindowID: active.ID, Maximization: a.Maximization.String()})

	case config.ActionToggleMaximize:
		current, err := maximize.Parse(active.Pending.Maximization)
		if err != nil {
			return ipc.TransactionData{}, err
		}
		next := current.Add(a.Maximization)
		if current.Contains(a.Maximization) {
			next = current.Remove(a.Maximization)
		}
		return target.Maximize(ctx, ipc.MaximizePayload{WindowID: active.ID, Maximization: next.String()})

	case config.ActionToggleFullscreen:
		return target.Fullscreen(ctx, ipc.FullscreenPayload{WindowID: active.ID, Fullscreen: !active.Pending.Fullscreen})

	case config.ActionFloat:
		return target.Float(ctx, ipc.FloatPayload{WindowID: active.ID})

	case config.ActionSend:
		return target.SendToOutput(ctx, ipc.SendToOutputPayload{WindowID: active.ID, Output: a.Output})
	}
	return ipc.TransactionData{}, fmt.Errorf("unsupported action %q", a.Verb)
}
