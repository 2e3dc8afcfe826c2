package mcp

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/1broseidon/tilestate/internal/ipc"
)

type fakeDaemon struct {
	moves   []ipc.MovePayload
	places  []ipc.PlacePayload
	swaps   []ipc.SwapPayload
	maxes   []ipc.MaximizePayload
	tiles   []ipc.TilePayload
	reply   ipc.TransactionData
	failErr error
}

func (f *fakeDaemon) GetStatus() (*ipc.StatusData, error) {
	return &ipc.StatusData{ActiveLayout: "grid", ToplevelCount: 2, DaemonRunning: true}, nil
}

func (f *fakeDaemon) ListToplevels() (*ipc.ToplevelsData, error) {
	return &ipc.ToplevelsData{Toplevels: []ipc.ToplevelInfo{
		{ID: 1, AppID: "XTerm", Phase: "idle"},
		{ID: 2, AppID: "firefox", Phase: "committed"},
	}}, nil
}

func (f *fakeDaemon) ListLayouts() (*ipc.LayoutsData, error) {
	return &ipc.LayoutsData{Layouts: []string{"columns", "grid"}, DefaultLayout: "grid"}, nil
}

func (f *fakeDaemon) tx() (*ipc.TransactionData, error) {
	if f.failErr != nil {
		return nil, f.failErr
	}
	r := f.reply
	return &r, nil
}

func (f *fakeDaemon) Move(p ipc.MovePayload) (*ipc.TransactionData, error) {
	f.moves = append(f.moves, p)
	return f.tx()
}

func (f *fakeDaemon) Place(p ipc.PlacePayload) (*ipc.TransactionData, error) {
	f.places = append(f.places, p)
	return f.tx()
}

func (f *fakeDaemon) Swap(p ipc.SwapPayload) (*ipc.TransactionData, error) {
	f.swaps = append(f.swaps, p)
	return f.tx()
}

func (f *fakeDaemon) Maximize(p ipc.MaximizePayload) (*ipc.TransactionData, error) {
	f.maxes = append(f.maxes, p)
	return f.tx()
}

func (f *fakeDaemon) Fullscreen(p ipc.FullscreenPayload) (*ipc.TransactionData, error) {
	return f.tx()
}

func (f *fakeDaemon) Tile(p ipc.TilePayload) (*ipc.TransactionData, error) {
	f.tiles = append(f.tiles, p)
	return f.tx()
}

func newTestServer(d *fakeDaemon) *Server {
	return NewServer(d, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func intPtr(v int) *int { return &v }

func TestMoveToplevelChoosesMoveOrPlace(t *testing.T) {
	d := &fakeDaemon{reply: ipc.TransactionData{ID: 4, Objects: []uint32{7}, Stage: "committed"}}
	s := newTestServer(d)
	ctx := context.Background()

	_, out, err := s.handleMoveToplevel(ctx, nil, MoveToplevelInput{WindowID: 7, DX: 10, Wait: true})
	if err != nil {
		t.Fatalf("move error = %v", err)
	}
	if len(d.moves) != 1 || d.moves[0].DX != 10 || !d.moves[0].Wait.Wait {
		t.Fatalf("moves = %+v", d.moves)
	}
	if out.Summary != "transaction 4 committed for 1 window(s)" {
		t.Fatalf("summary = %q", out.Summary)
	}

	_, _, err = s.handleMoveToplevel(ctx, nil, MoveToplevelInput{WindowID: 7, X: intPtr(0), Y: intPtr(30), Width: 640, Height: 480})
	if err != nil {
		t.Fatalf("place error = %v", err)
	}
	if len(d.places) != 1 || d.places[0].Geometry != (ipc.Box{X: 0, Y: 30, Width: 640, Height: 480}) {
		t.Fatalf("places = %+v", d.places)
	}

	tests := map[string]MoveToplevelInput{
		"no window":   {DX: 1},
		"no offset":   {WindowID: 7},
		"missing x":   {WindowID: 7, Y: intPtr(0), Width: 10, Height: 10},
		"zero height": {WindowID: 7, X: intPtr(0), Y: intPtr(0), Width: 10},
	}
	for name, in := range tests {
		t.Run(name, func(t *testing.T) {
			if _, _, err := s.handleMoveToplevel(ctx, nil, in); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestSwapAndTileForwarding(t *testing.T) {
	d := &fakeDaemon{reply: ipc.TransactionData{Objects: []uint32{1, 2}, Stage: "queued", Queued: true}}
	s := newTestServer(d)
	ctx := context.Background()

	if _, _, err := s.handleSwapToplevels(ctx, nil, SwapToplevelsInput{A: 1, B: 1}); err == nil {
		t.Fatalf("expected error swapping a window with itself")
	}

	_, out, err := s.handleSwapToplevels(ctx, nil, SwapToplevelsInput{A: 1, B: 2})
	if err != nil {
		t.Fatalf("swap error = %v", err)
	}
	if !out.Transaction.Queued {
		t.Fatalf("expected queued transaction, got %+v", out.Transaction)
	}

	_, _, err = s.handleTileLayout(ctx, nil, TileLayoutInput{Layout: "columns", Output: "DP-1", WindowOrder: []uint32{2, 1}})
	if err != nil {
		t.Fatalf("tile error = %v", err)
	}
	if got := d.tiles[0]; got.LayoutName != "columns" || got.Output != "DP-1" || len(got.WindowOrder) != 2 {
		t.Fatalf("tile payload = %+v", got)
	}

	_, _, err = s.handleSetMaximization(ctx, nil, SetMaximizationInput{WindowID: 1, Maximization: "vertical"})
	if err != nil {
		t.Fatalf("maximize error = %v", err)
	}
	if d.maxes[0].Maximization != "vertical" {
		t.Fatalf("maximize payload = %+v", d.maxes[0])
	}
}

func TestDaemonErrorsPropagate(t *testing.T) {
	d := &fakeDaemon{failErr: errors.New("daemon error: window 9: unknown window")}
	s := newTestServer(d)

	_, _, err := s.handleSetFullscreen(context.Background(), nil, SetFullscreenInput{WindowID: 9, Fullscreen: true})
	if err == nil || err.Error() != d.failErr.Error() {
		t.Fatalf("error = %v, want %v", err, d.failErr)
	}
}

func TestListToplevelsFiltersByAppID(t *testing.T) {
	s := newTestServer(&fakeDaemon{})

	_, out, err := s.handleListToplevels(context.Background(), nil, ListToplevelsInput{AppID: "xterm"})
	if err != nil {
		t.Fatalf("list error = %v", err)
	}
	if out.Count != 1 || out.Toplevels[0].ID != 1 {
		t.Fatalf("filtered list = %+v", out)
	}

	_, all, err := s.handleListToplevels(context.Background(), nil, ListToplevelsInput{})
	if err != nil {
		t.Fatalf("list error = %v", err)
	}
	if all.Count != 2 {
		t.Fatalf("count = %d, want 2", all.Count)
	}
}

func TestSummarize(t *testing.T) {
	tests := map[string]struct {
		data ipc.TransactionData
		want string
	}{
		"applied": {ipc.TransactionData{ID: 3, Objects: []uint32{1}, Stage: "applied"}, "transaction 3 applied for 1 window(s)"},
		"forced":  {ipc.TransactionData{ID: 5, Stage: "applied", Forced: true}, "transaction 5 applied after timeout; not every window confirmed"},
		"queued":  {ipc.TransactionData{Objects: []uint32{1, 2}, Queued: true}, "2 window(s) busy; change queued until their current transaction completes"},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			if got := summarize(tt.data); got != tt.want {
				t.Fatalf("summarize() = %q, want %q", got, tt.want)
			}
		})
	}
}
