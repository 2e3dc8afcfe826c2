package daemon

import (
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/1broseidon/tilestate/internal/config"
	"github.com/1broseidon/tilestate/internal/geometry"
	"github.com/1broseidon/tilestate/internal/maximize"
	"github.com/1broseidon/tilestate/internal/platform"
	"github.com/1broseidon/tilestate/internal/txn"
)

type placeCall struct {
	id        platform.WindowID
	placement platform.Placement
}

// fakeBackend is an in-memory window system. Place only records the request;
// tests deliver the resulting ConfigureNotify with configure.
type fakeBackend struct {
	mu       sync.Mutex
	displays []platform.Display
	windows  []platform.Window
	watchers map[platform.WindowID]platform.WindowEvents
	placed   []placeCall
	active   platform.WindowID
	placeErr error
	// autoConfigure reports every placement back right away.
	autoConfigure bool
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		displays: []platform.Display{
			{
				ID:     0,
				Name:   "DP-1",
				Bounds: geometry.Box{Width: 1000, Height: 800},
				Usable: geometry.Box{Width: 1000, Height: 800},
			},
			{
				ID:     1,
				Name:   "HDMI-1",
				Bounds: geometry.Box{X: 1000, Width: 2000, Height: 1600},
				Usable: geometry.Box{X: 1000, Width: 2000, Height: 1600},
			},
		},
		watchers: make(map[platform.WindowID]platform.WindowEvents),
	}
}

func (f *fakeBackend) addWindow(id platform.WindowID, bounds geometry.Box) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.windows = append(f.windows, platform.Window{ID: id, AppID: "xterm", Title: "term", Bounds: bounds})
}

func (f *fakeBackend) setWindows(ws ...platform.Window) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.windows = ws
}

func (f *fakeBackend) Displays() ([]platform.Display, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]platform.Display(nil), f.displays...), nil
}

func (f *fakeBackend) ActiveWindow() (platform.WindowID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.active == 0 {
		return 0, errors.New("no active window")
	}
	return f.active, nil
}

func (f *fakeBackend) Windows() ([]platform.Window, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]platform.Window(nil), f.windows...), nil
}

func (f *fakeBackend) Place(id platform.WindowID, p platform.Placement) error {
	f.mu.Lock()
	if f.placeErr != nil {
		err := f.placeErr
		f.mu.Unlock()
		return err
	}
	f.placed = append(f.placed, placeCall{id: id, placement: p})
	auto := f.autoConfigure
	f.mu.Unlock()

	if auto {
		f.configure(id, p.Bounds)
	}
	return nil
}

func (f *fakeBackend) Watch(id platform.WindowID, ev platform.WindowEvents) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.watchers[id] = ev
	return nil
}

func (f *fakeBackend) Unwatch(id platform.WindowID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.watchers, id)
}

func (f *fakeBackend) configure(id platform.WindowID, bounds geometry.Box) {
	f.mu.Lock()
	ev, ok := f.watchers[id]
	f.mu.Unlock()
	if ok && ev.Configured != nil {
		ev.Configured(id, bounds)
	}
}

func (f *fakeBackend) destroy(id platform.WindowID) {
	f.mu.Lock()
	ev, ok := f.watchers[id]
	f.mu.Unlock()
	if ok && ev.Gone != nil {
		ev.Gone(id)
	}
}

func (f *fakeBackend) lastPlacement(t *testing.T) placeCall {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.placed)
	return f.placed[len(f.placed)-1]
}

func (f *fakeBackend) placements() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.placed)
}

type harness struct {
	backend *fakeBackend
	clock   *txn.ManualClock
	queue   []func()
	session *Session
	cfg     *config.Config
}

var testMargins = geometry.Difference{Left: 2, Right: 2, Top: 20, Bottom: 2}

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.GapSize = 0
	cfg.Decoration.UseFrameExtents = false
	cfg.Decoration.Margins = config.Margins{Left: 2, Right: 2, Top: 20, Bottom: 2}
	return cfg
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		backend: newFakeBackend(),
		clock:   txn.NewManualClock(),
		cfg:     testConfig(),
	}
	h.session = NewSession(SessionOptions{
		Backend:   h.backend,
		Config:    h.cfg,
		Scheduler: h.clock,
		Post:      func(fn func()) { h.queue = append(h.queue, fn) },
		Logger:    discardLogger(),
	})
	return h
}

// drain runs everything posted to the session, like the control loop does.
func (h *harness) drain() {
	for len(h.queue) > 0 {
		fn := h.queue[0]
		h.queue = h.queue[1:]
		fn()
	}
}

func (h *harness) sync(t *testing.T) {
	t.Helper()
	require.NoError(t, h.session.Sync())
	h.drain()
}

func TestSyncAdoptsWindows(t *testing.T) {
	h := newHarness(t)
	h.backend.addWindow(1, geometry.Box{X: 100, Y: 100, Width: 400, Height: 300})
	h.sync(t)

	tl, err := h.session.lookup(1)
	require.NoError(t, err)

	want := geometry.Box{X: 98, Y: 80, Width: 404, Height: 322}
	assert.Equal(t, want, tl.Pending().Geometry)
	assert.Equal(t, want, tl.Committed().Geometry)
	assert.Equal(t, want, tl.Current().Geometry)
	assert.Equal(t, testMargins, tl.Current().Margins)
	assert.True(t, tl.Current().Mapped)
	assert.Equal(t, txn.Idle, tl.Phase())
	assert.Contains(t, h.backend.watchers, platform.WindowID(1))
	assert.Zero(t, h.backend.placements())
}

func TestAdoptKeepsWindowManagerMaximization(t *testing.T) {
	h := newHarness(t)
	h.backend.setWindows(platform.Window{
		ID:     1,
		Bounds: geometry.Box{X: 0, Y: 20, Width: 400, Height: 778},
		State:  platform.WindowState{MaximizedVert: true},
	})
	h.sync(t)

	tl, err := h.session.lookup(1)
	require.NoError(t, err)
	cur := tl.Current()
	assert.Equal(t, maximize.Vertical, cur.Maximization())
	// Only the untiled left and right edges carry a margin.
	assert.Equal(t, geometry.Box{X: -2, Y: 20, Width: 404, Height: 778}, cur.Geometry)
	assert.Equal(t, geometry.Box{X: 0, Y: 20, Width: 400, Height: 778}, cur.ContentGeometry())
}

func TestMoveAppliesOnConfigure(t *testing.T) {
	h := newHarness(t)
	h.backend.addWindow(1, geometry.Box{X: 100, Y: 100, Width: 400, Height: 300})
	h.sync(t)

	tx, err := h.session.Move(1, geometry.Point{X: 10})
	require.NoError(t, err)
	require.NotNil(t, tx)
	assert.Equal(t, txn.StageCommitted, tx.Stage())

	call := h.backend.lastPlacement(t)
	assert.Equal(t, platform.WindowID(1), call.id)
	assert.Equal(t, geometry.Box{X: 110, Y: 100, Width: 400, Height: 300}, call.placement.Bounds)
	assert.False(t, call.placement.Fullscreen)

	tl, _ := h.session.lookup(1)
	assert.Equal(t, 108, tl.Committed().Geometry.X)
	assert.Equal(t, 98, tl.Current().Geometry.X, "current must wait for the client")

	h.backend.configure(1, call.placement.Bounds)
	h.drain()

	assert.Equal(t, txn.StageApplied, tx.Stage())
	assert.False(t, tx.Forced())
	assert.Equal(t, 108, tl.Current().Geometry.X)
	assert.Equal(t, txn.Idle, tl.Phase())
	assert.Equal(t, uint64(1), h.session.applied)
}

func TestUnacknowledgedTransactionIsForced(t *testing.T) {
	h := newHarness(t)
	h.backend.addWindow(1, geometry.Box{X: 100, Y: 100, Width: 400, Height: 300})
	h.sync(t)

	tx, err := h.session.Move(1, geometry.Point{Y: 50})
	require.NoError(t, err)

	h.clock.Advance(h.cfg.TransactionTimeout() - 1)
	assert.Equal(t, txn.StageCommitted, tx.Stage())

	h.clock.Advance(1)
	assert.Equal(t, txn.StageApplied, tx.Stage())
	assert.True(t, tx.Forced())
	assert.Equal(t, uint64(1), h.session.forced)

	// A late configure for the forced request is harmless.
	h.backend.configure(1, geometry.Box{X: 100, Y: 150, Width: 400, Height: 300})
	h.drain()
	tl, _ := h.session.lookup(1)
	assert.Equal(t, txn.Idle, tl.Phase())
}

func TestBusyWindowIsQueued(t *testing.T) {
	h := newHarness(t)
	h.backend.addWindow(1, geometry.Box{X: 100, Y: 100, Width: 400, Height: 300})
	h.sync(t)

	first, err := h.session.Move(1, geometry.Point{X: 10})
	require.NoError(t, err)

	second, err := h.session.Move(1, geometry.Point{X: 5})
	require.NoError(t, err)
	assert.Nil(t, second, "a busy window queues the change")
	assert.True(t, h.session.isQueued(1))

	tl, _ := h.session.lookup(1)
	assert.Equal(t, 113, tl.Pending().Geometry.X)
	assert.Equal(t, 108, tl.Committed().Geometry.X)

	h.backend.configure(1, geometry.Box{X: 110, Y: 100, Width: 400, Height: 300})
	h.drain()

	assert.Equal(t, txn.StageApplied, first.Stage())
	assert.False(t, h.session.isQueued(1))
	assert.Equal(t, txn.Committed, tl.Phase())
	assert.Equal(t, 113, tl.Committed().Geometry.X)
	assert.Equal(t, 115, h.backend.lastPlacement(t).placement.Bounds.X)
}

func TestQueuedSwapWaitsForBothWindows(t *testing.T) {
	h := newHarness(t)
	h.backend.addWindow(1, geometry.Box{X: 100, Y: 100, Width: 400, Height: 300})
	h.backend.addWindow(2, geometry.Box{X: 600, Y: 100, Width: 300, Height: 300})
	h.backend.addWindow(3, geometry.Box{X: 1200, Y: 100, Width: 300, Height: 300})
	h.sync(t)

	_, err := h.session.Move(1, geometry.Point{X: 10})
	require.NoError(t, err)
	_, err = h.session.Move(3, geometry.Point{X: 10})
	require.NoError(t, err)

	a, _ := h.session.lookup(1)
	b, _ := h.session.lookup(2)
	bBefore := b.Committed().Geometry

	tx, err := h.session.Swap(1, 2)
	require.NoError(t, err)
	assert.Nil(t, tx, "window 1 is busy, the swap is queued")
	assert.Equal(t, [][]uint32{{1, 2}}, h.session.queued)

	// Touching window 2 alone must not commit its half of the swap.
	tx, err = h.session.Move(2, geometry.Point{Y: 4})
	require.NoError(t, err)
	assert.Nil(t, tx)
	assert.Equal(t, [][]uint32{{1, 2}}, h.session.queued)
	wantA, wantB := a.Pending().Geometry, b.Pending().Geometry

	placed := h.backend.placements()
	h.backend.configure(3, geometry.Box{X: 1210, Y: 100, Width: 300, Height: 300})
	h.drain()

	assert.Equal(t, txn.Idle, b.Phase(), "an unrelated ack leaves the group queued")
	assert.Equal(t, bBefore, b.Committed().Geometry)
	assert.Equal(t, placed, h.backend.placements())
	assert.True(t, h.session.isQueued(2))

	h.backend.configure(1, geometry.Box{X: 110, Y: 100, Width: 400, Height: 300})
	h.drain()

	assert.Empty(t, h.session.queued)
	assert.Equal(t, txn.Committed, a.Phase())
	assert.Equal(t, txn.Committed, b.Phase())
	assert.Equal(t, wantA, a.Committed().Geometry)
	assert.Equal(t, wantB, b.Committed().Geometry)
	assert.NotEqual(t, a.Committed().Geometry, b.Committed().Geometry)
	assert.Equal(t, placed+2, h.backend.placements())
}

func TestRemovedWindowLeavesQueue(t *testing.T) {
	h := newHarness(t)
	h.backend.addWindow(1, geometry.Box{X: 100, Y: 100, Width: 400, Height: 300})
	h.backend.addWindow(2, geometry.Box{X: 600, Y: 100, Width: 300, Height: 300})
	h.sync(t)

	_, err := h.session.Move(1, geometry.Point{X: 10})
	require.NoError(t, err)
	tx, err := h.session.Swap(1, 2)
	require.NoError(t, err)
	require.Nil(t, tx)

	h.backend.destroy(1)
	h.drain()

	b, _ := h.session.lookup(2)
	assert.Equal(t, txn.Committed, b.Phase(), "the survivor is committed once nothing blocks it")
	assert.Empty(t, h.session.queued)
}

func TestSwapIsAtomic(t *testing.T) {
	h := newHarness(t)
	h.backend.addWindow(1, geometry.Box{X: 100, Y: 100, Width: 400, Height: 300})
	h.backend.addWindow(2, geometry.Box{X: 600, Y: 100, Width: 300, Height: 300})
	h.sync(t)

	tx, err := h.session.Swap(1, 2)
	require.NoError(t, err)
	require.Equal(t, 2, tx.Len())

	a, _ := h.session.lookup(1)
	b, _ := h.session.lookup(2)

	h.backend.configure(1, geometry.Box{X: 600, Y: 100, Width: 300, Height: 300})
	h.drain()
	assert.Equal(t, txn.StageCommitted, tx.Stage())
	assert.Equal(t, 98, a.Current().Geometry.X, "no member is applied alone")
	assert.Equal(t, txn.Ready, a.Phase())

	h.backend.configure(2, geometry.Box{X: 100, Y: 100, Width: 400, Height: 300})
	h.drain()
	assert.Equal(t, txn.StageApplied, tx.Stage())
	assert.Equal(t, 598, a.Current().Geometry.X)
	assert.Equal(t, 98, b.Current().Geometry.X)

	_, err = h.session.Swap(1, 1)
	assert.Error(t, err)
}

func TestTileCommitsOneTransaction(t *testing.T) {
	h := newHarness(t)
	h.backend.addWindow(1, geometry.Box{X: 100, Y: 100, Width: 400, Height: 300})
	h.backend.addWindow(2, geometry.Box{X: 600, Y: 100, Width: 300, Height: 300})
	h.backend.addWindow(3, geometry.Box{X: 1200, Y: 100, Width: 300, Height: 300})
	h.sync(t)

	tx, err := h.session.Tile("columns", "DP-1", nil)
	require.NoError(t, err)
	assert.Equal(t, 2, tx.Len(), "only windows on the output are tiled")
	assert.Equal(t, "columns", h.session.activeLayout)

	a, _ := h.session.lookup(1)
	b, _ := h.session.lookup(2)
	assert.Equal(t, geometry.Box{Width: 500, Height: 800}, a.Committed().Geometry)
	assert.Equal(t, geometry.EdgeTop|geometry.EdgeBottom|geometry.EdgeLeft, a.Committed().TiledEdges())
	assert.Equal(t, geometry.Box{Width: 498, Height: 800}, a.Committed().ContentGeometry())
	assert.Equal(t, geometry.Box{X: 502, Width: 498, Height: 800}, b.Committed().ContentGeometry())

	_, err = h.session.Tile("missing", "", nil)
	assert.Error(t, err)
}

func TestMaximizeAndFullscreen(t *testing.T) {
	h := newHarness(t)
	h.backend.addWindow(1, geometry.Box{X: 100, Y: 100, Width: 400, Height: 300})
	h.backend.autoConfigure = true
	h.sync(t)

	tx, err := h.session.Maximize(1, maximize.Full)
	require.NoError(t, err)
	h.drain()
	assert.Equal(t, txn.StageApplied, tx.Stage())
	assert.Equal(t, geometry.Box{Width: 1000, Height: 800}, h.backend.lastPlacement(t).placement.Bounds)

	tx, err = h.session.Maximize(1, maximize.None)
	require.NoError(t, err)
	h.drain()
	assert.Equal(t, txn.StageApplied, tx.Stage())
	tl, _ := h.session.lookup(1)
	assert.Equal(t, geometry.Box{X: 98, Y: 80, Width: 404, Height: 322}, tl.Current().Geometry)

	_, err = h.session.Fullscreen(1, true)
	require.NoError(t, err)
	h.drain()
	call := h.backend.lastPlacement(t)
	assert.True(t, call.placement.Fullscreen)
	assert.True(t, tl.Current().Fullscreen)
	assert.Equal(t, geometry.Difference{}, tl.Current().Margins)

	_, err = h.session.Move(1, geometry.Point{X: 1})
	assert.ErrorIs(t, err, ErrFullscreen)

	_, err = h.session.Fullscreen(1, false)
	require.NoError(t, err)
	h.drain()
	assert.False(t, tl.Current().Fullscreen)
	assert.Equal(t, geometry.Box{X: 98, Y: 80, Width: 404, Height: 322}, tl.Current().Geometry)
	assert.Equal(t, testMargins, tl.Current().Margins)
}

func TestFloatRestoresGeometry(t *testing.T) {
	h := newHarness(t)
	h.backend.addWindow(1, geometry.Box{X: 100, Y: 100, Width: 400, Height: 300})
	h.backend.autoConfigure = true
	h.sync(t)

	_, err := h.session.Float(1)
	assert.ErrorIs(t, err, ErrNotTiled)

	_, err = h.session.Maximize(1, maximize.Vertical)
	require.NoError(t, err)
	h.drain()
	tl, _ := h.session.lookup(1)
	assert.Equal(t, maximize.Vertical, tl.Current().Maximization())

	tx, err := h.session.Float(1)
	require.NoError(t, err)
	h.drain()
	assert.Equal(t, txn.StageApplied, tx.Stage())
	assert.Equal(t, geometry.EdgeNone, tl.Current().TiledEdges())
	assert.Equal(t, geometry.Box{X: 98, Y: 80, Width: 404, Height: 322}, tl.Current().Geometry)

	_, err = h.session.Float(1)
	assert.ErrorIs(t, err, ErrNotTiled)
}

func TestResizeFromLeftEdge(t *testing.T) {
	h := newHarness(t)
	h.backend.addWindow(1, geometry.Box{X: 100, Y: 100, Width: 400, Height: 300})
	h.sync(t)

	_, err := h.session.Resize(1, geometry.EdgeLeft, geometry.Point{X: -50})
	require.NoError(t, err)

	tl, _ := h.session.lookup(1)
	assert.Equal(t, geometry.Box{X: 48, Y: 80, Width: 454, Height: 322}, tl.Committed().Geometry)
	assert.Equal(t, geometry.EdgeTop|geometry.EdgeRight, tl.Committed().Gravity)

	_, err = h.session.Resize(1, geometry.EdgeLeft|geometry.EdgeRight, geometry.Point{})
	assert.Error(t, err)
}

func TestSendToOutputScales(t *testing.T) {
	h := newHarness(t)
	h.backend.addWindow(1, geometry.Box{X: 100, Y: 100, Width: 400, Height: 300})
	h.sync(t)

	_, err := h.session.SendToOutput(1, "HDMI-1")
	require.NoError(t, err)

	tl, _ := h.session.lookup(1)
	assert.Equal(t, geometry.Box{X: 1196, Y: 160, Width: 808, Height: 644}, tl.Committed().Geometry)

	_, err = h.session.SendToOutput(1, "VGA-9")
	assert.Error(t, err)
}

func TestGoneWindowReleasesTransaction(t *testing.T) {
	h := newHarness(t)
	h.backend.addWindow(1, geometry.Box{X: 100, Y: 100, Width: 400, Height: 300})
	h.sync(t)

	tx, err := h.session.Move(1, geometry.Point{X: 10})
	require.NoError(t, err)

	h.backend.destroy(1)
	h.drain()

	assert.Equal(t, txn.StageApplied, tx.Stage())
	assert.False(t, tx.Forced())
	_, err = h.session.lookup(1)
	assert.ErrorIs(t, err, ErrUnknownToplevel)
	assert.NotContains(t, h.backend.watchers, platform.WindowID(1))
}

func TestPlaceErrorDoesNotBlock(t *testing.T) {
	h := newHarness(t)
	h.backend.addWindow(1, geometry.Box{X: 100, Y: 100, Width: 400, Height: 300})
	h.sync(t)
	h.backend.placeErr = errors.New("bad window")

	tx, err := h.session.Place(1, geometry.Box{X: 0, Y: 0, Width: 200, Height: 200})
	require.NoError(t, err)
	assert.Equal(t, txn.StageApplied, tx.Stage())

	_, err = h.session.Place(1, geometry.Box{Width: 0, Height: 10})
	assert.Error(t, err)
}

func TestSyncTracksExternalChanges(t *testing.T) {
	h := newHarness(t)
	h.backend.addWindow(1, geometry.Box{X: 100, Y: 100, Width: 400, Height: 300})
	h.backend.addWindow(2, geometry.Box{X: 600, Y: 100, Width: 300, Height: 300})
	h.sync(t)

	h.backend.setWindows(platform.Window{ID: 1, Bounds: geometry.Box{X: 300, Y: 300, Width: 400, Height: 300}})
	h.sync(t)

	tl, err := h.session.lookup(1)
	require.NoError(t, err)
	assert.Equal(t, geometry.Box{X: 298, Y: 280, Width: 404, Height: 322}, tl.Current().Geometry)
	assert.Equal(t, txn.Idle, tl.Phase())

	_, err = h.session.lookup(2)
	assert.ErrorIs(t, err, ErrUnknownToplevel)
	assert.Equal(t, []uint32{1}, h.session.order)
}

func TestReloadRedecorates(t *testing.T) {
	h := newHarness(t)
	h.backend.addWindow(1, geometry.Box{X: 100, Y: 100, Width: 400, Height: 300})
	h.sync(t)

	cfg := testConfig()
	cfg.Decoration.Enabled = false
	cfg.TransactionTimeoutMs = 500
	require.NoError(t, h.session.Reload(cfg))

	tl, _ := h.session.lookup(1)
	assert.Equal(t, geometry.Difference{}, tl.Committed().Margins)
	assert.Equal(t, tl.Committed().Geometry, h.backend.lastPlacement(t).placement.Bounds)
	assert.Equal(t, cfg.TransactionTimeout(), h.session.manager.Timeout())
}

func TestReloadAppliesManageFilter(t *testing.T) {
	h := newHarness(t)
	h.backend.setWindows(
		platform.Window{ID: 1, AppID: "XTerm", Bounds: geometry.Box{X: 100, Y: 100, Width: 400, Height: 300}},
		platform.Window{ID: 2, AppID: "Firefox", Bounds: geometry.Box{X: 600, Y: 100, Width: 300, Height: 300}},
	)
	h.sync(t)
	assert.Equal(t, []uint32{1, 2}, h.session.order)

	cfg := testConfig()
	cfg.Manage.ExcludeClasses = []string{"firefox"}
	require.NoError(t, h.session.Reload(cfg))

	assert.Equal(t, []uint32{1}, h.session.order)
	_, err := h.session.lookup(2)
	assert.ErrorIs(t, err, ErrUnknownToplevel)

	cfg = testConfig()
	require.NoError(t, h.session.Reload(cfg))
	assert.Equal(t, []uint32{1, 2}, h.session.order)
}
