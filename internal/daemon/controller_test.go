package daemon

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/1broseidon/tilestate/internal/config"
	"github.com/1broseidon/tilestate/internal/geometry"
	"github.com/1broseidon/tilestate/internal/ipc"
)

// startDaemon runs a session on a real control loop.
func startDaemon(t *testing.T, backend *fakeBackend, configPath string) *Controller {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())

	loop := NewLoop(discardLogger())
	session := NewSession(SessionOptions{
		Backend:   backend,
		Config:    testConfig(),
		Scheduler: loop,
		Post:      func(fn func()) { loop.Post(fn) },
		Logger:    discardLogger(),
	})

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = loop.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	ctrl := NewController(loop, session, configPath, discardLogger())
	require.NoError(t, ctrl.Sync(ctx))
	return ctrl
}

func TestControllerWaitsForApply(t *testing.T) {
	backend := newFakeBackend()
	backend.autoConfigure = true
	backend.addWindow(1, geometry.Box{X: 100, Y: 100, Width: 400, Height: 300})
	ctrl := startDaemon(t, backend, "")

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	data, err := ctrl.Move(ctx, ipc.MovePayload{Wait: ipc.Wait{Wait: true}, WindowID: 1, DX: 25})
	require.NoError(t, err)
	assert.Equal(t, "applied", data.Stage)
	assert.Equal(t, []uint32{1}, data.Objects)
	assert.False(t, data.Forced)

	list, err := ctrl.Toplevels(ctx)
	require.NoError(t, err)
	require.Len(t, list.Toplevels, 1)
	top := list.Toplevels[0]
	assert.Equal(t, "idle", top.Phase)
	assert.Equal(t, "DP-1", top.Output)
	assert.Equal(t, ipc.Box{X: 123, Y: 80, Width: 404, Height: 322}, top.Current.Geometry)
	assert.Equal(t, ipc.Box{X: 125, Y: 100, Width: 400, Height: 300}, top.Current.Content)

	status, err := ctrl.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, status.ToplevelCount)
	assert.Equal(t, 2, status.OutputCount)
	assert.Equal(t, uint64(1), status.Applied)
	assert.Equal(t, int64(150), status.TransactionTimeout)
}

func TestControllerForcesSilentClients(t *testing.T) {
	backend := newFakeBackend()
	backend.addWindow(1, geometry.Box{X: 100, Y: 100, Width: 400, Height: 300})
	ctrl := startDaemon(t, backend, "")

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	data, err := ctrl.Maximize(ctx, ipc.MaximizePayload{Wait: ipc.Wait{Wait: true}, WindowID: 1, Maximization: "vertical"})
	require.NoError(t, err)
	assert.Equal(t, "applied", data.Stage)
	assert.True(t, data.Forced)

	_, err = ctrl.Maximize(ctx, ipc.MaximizePayload{WindowID: 1, Maximization: "sideways"})
	assert.Error(t, err)
	_, err = ctrl.Resize(ctx, ipc.ResizePayload{WindowID: 1, Edges: "middle"})
	assert.Error(t, err)
}

func TestControllerOverIPC(t *testing.T) {
	backend := newFakeBackend()
	backend.autoConfigure = true
	backend.addWindow(1, geometry.Box{X: 100, Y: 100, Width: 400, Height: 300})
	backend.addWindow(2, geometry.Box{X: 600, Y: 100, Width: 300, Height: 300})

	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("default_layout: rows\n"), 0o644))
	ctrl := startDaemon(t, backend, configPath)
	applied := make(chan string, 1)
	ctrl.OnApply(func(cfg *config.Config) { applied <- cfg.DefaultLayout })

	socket := filepath.Join(dir, "d.sock")
	server := ipc.NewServer(socket, ctrl, discardLogger())
	require.NoError(t, server.Start())
	t.Cleanup(server.Stop)

	client := ipc.NewClientWithPath(socket)
	require.NoError(t, client.Ping())

	tx, err := client.Tile(ipc.TilePayload{Wait: ipc.Wait{Wait: true}, LayoutName: "columns", Output: "DP-1"})
	require.NoError(t, err)
	assert.Equal(t, "applied", tx.Stage)
	assert.ElementsMatch(t, []uint32{1, 2}, tx.Objects)

	layouts, err := client.ListLayouts()
	require.NoError(t, err)
	assert.Equal(t, "columns", layouts.ActiveLayout)

	require.NoError(t, client.Reload())
	layouts, err = client.ListLayouts()
	require.NoError(t, err)
	assert.Equal(t, "rows", layouts.DefaultLayout)
	select {
	case name := <-applied:
		assert.Equal(t, "rows", name)
	default:
		t.Fatalf("OnApply hook did not run on reload")
	}

	outputs, err := client.GetOutputs()
	require.NoError(t, err)
	require.Len(t, outputs.Outputs, 2)
	assert.Equal(t, "HDMI-1", outputs.Outputs[1].Name)

	_, err = client.Move(ipc.MovePayload{WindowID: 99, DX: 1})
	assert.ErrorContains(t, err, "unknown window")
}

func TestControllerActiveToplevel(t *testing.T) {
	backend := newFakeBackend()
	backend.addWindow(1, geometry.Box{X: 100, Y: 100, Width: 400, Height: 300})
	backend.addWindow(2, geometry.Box{X: 1200, Y: 100, Width: 400, Height: 300})
	ctrl := startDaemon(t, backend, "")
	ctx := context.Background()

	_, err := ctrl.ActiveToplevel(ctx)
	require.Error(t, err)

	backend.mu.Lock()
	backend.active = 2
	backend.mu.Unlock()
	info, err := ctrl.ActiveToplevel(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint32(2), info.ID)
	assert.Equal(t, "HDMI-1", info.Output)

	backend.mu.Lock()
	backend.active = 99
	backend.mu.Unlock()
	_, err = ctrl.ActiveToplevel(ctx)
	assert.ErrorIs(t, err, ErrUnknownToplevel)
}
