package daemon

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/1broseidon/tilestate/internal/config"
	"github.com/1broseidon/tilestate/internal/geometry"
	"github.com/1broseidon/tilestate/internal/maximize"
	"github.com/1broseidon/tilestate/internal/platform"
	"github.com/1broseidon/tilestate/internal/scene"
	"github.com/1broseidon/tilestate/internal/txn"
	"github.com/1broseidon/tilestate/internal/wm/decoration"
	"github.com/1broseidon/tilestate/internal/wm/filter"
	"github.com/1broseidon/tilestate/internal/wm/grid"
	"github.com/1broseidon/tilestate/internal/wm/resize"
	"github.com/1broseidon/tilestate/internal/wm/toplevel"
)

var (
	ErrUnknownToplevel = errors.New("unknown window")
	ErrFullscreen      = errors.New("window is fullscreen")
	ErrNoOutputs       = errors.New("no outputs")
	ErrNotTiled        = errors.New("window is neither tiled nor maximized")
)

type entry struct {
	t     *toplevel.Toplevel
	appID string
	title string
	pid   int
}

// SessionOptions configures a Session.
type SessionOptions struct {
	Backend   platform.Backend
	Config    *config.Config
	Scheduler txn.Scheduler
	// Post runs fn on the goroutine that owns the session. Window system
	// events arrive on other goroutines and are handed over through it.
	Post   func(fn func())
	Logger *slog.Logger
}

// Session is the set of managed windows and the machinery that moves their
// state through transactions. It is not safe for concurrent use; every
// method must be called from the goroutine Post runs functions on.
type Session struct {
	backend   platform.Backend
	cfg       *config.Config
	manager   *txn.Manager
	bridge    *bridge
	grid      *grid.Grid
	decorator *decoration.Decorator
	filter    *filter.Filter
	scene     *scene.Layout
	post      func(func())
	logger    *slog.Logger

	toplevels map[uint32]*entry
	// order is adoption order, the default tiling order.
	order []uint32
	// queued holds changes that found a window busy. Each group is a set of
	// windows whose pending states must be committed together. Groups are
	// disjoint.
	queued [][]uint32

	activeLayout string
	started      time.Time

	applied uint64
	forced  uint64
	aborted uint64
}

func NewSession(opts SessionOptions) *Session {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	post := opts.Post
	if post == nil {
		post = func(fn func()) { fn() }
	}

	s := &Session{
		backend: opts.Backend,
		cfg:     cfg,
		manager: txn.NewManager(txn.Options{
			Timeout:   cfg.TransactionTimeout(),
			Scheduler: opts.Scheduler,
			Logger:    logger,
		}),
		bridge: newBridge(opts.Backend, logger),
		grid:   grid.New(),
		decorator: decoration.New(cfg.Decoration.Enabled,
			cfg.Decoration.Margins.Difference(), cfg.Decoration.UseFrameExtents),
		filter:       filter.New(cfg.Manage),
		scene:        scene.New(nil, geometry.Difference{}),
		post:         post,
		logger:       logger,
		toplevels:    make(map[uint32]*entry),
		activeLayout: cfg.DefaultLayout,
		started:      time.Now(),
	}
	s.manager.OnDone(s.transactionDone)
	return s
}

func (s *Session) transactionDone(tx *txn.Transaction) {
	switch {
	case tx.Stage() == txn.StageAborted:
		s.aborted++
	case tx.Forced():
		s.forced++
		s.applied++
	default:
		s.applied++
	}
	for _, o := range tx.Objects() {
		delete(s.bridge.expect, o.ObjectID())
	}
	if len(s.queued) > 0 {
		s.post(s.flush)
	}
}

// flush commits every queued group whose windows are all idle again.
func (s *Session) flush() {
	var ready [][]*toplevel.Toplevel
	for _, group := range s.queued {
		ts := make([]*toplevel.Toplevel, 0, len(group))
		for _, id := range group {
			if e, ok := s.toplevels[id]; ok && e.t.Phase() == txn.Idle {
				ts = append(ts, e.t)
			}
		}
		if len(ts) == len(group) {
			ready = append(ready, ts)
		}
	}
	for _, ts := range ready {
		if _, err := s.submit(ts...); err != nil {
			s.logger.Warn("failed to commit queued change", "windows", len(ts), "error", err)
		}
	}
}

func (s *Session) isQueued(id uint32) bool {
	return slices.ContainsFunc(s.queued, func(group []uint32) bool {
		return slices.Contains(group, id)
	})
}

// withQueued takes every queued group sharing a window with ts off the queue
// and returns ts extended by their windows, along with the groups taken.
// Their pending state already carries the queued change, so it can only be
// committed as a whole.
func (s *Session) withQueued(ts []*toplevel.Toplevel) ([]*toplevel.Toplevel, [][]uint32) {
	in := make(map[uint32]bool, len(ts))
	for _, t := range ts {
		in[t.ObjectID()] = true
	}
	out := slices.Clone(ts)
	var taken [][]uint32
	s.queued = slices.DeleteFunc(s.queued, func(group []uint32) bool {
		if !slices.ContainsFunc(group, func(id uint32) bool { return in[id] }) {
			return false
		}
		taken = append(taken, group)
		for _, id := range group {
			if e, ok := s.toplevels[id]; ok && !in[id] {
				in[id] = true
				out = append(out, e.t)
			}
		}
		return true
	})
	return out, taken
}

func (s *Session) enqueue(ts []*toplevel.Toplevel) {
	group := make([]uint32, 0, len(ts))
	for _, t := range ts {
		group = append(group, t.ObjectID())
	}
	slices.Sort(group)
	s.queued = append(s.queued, group)
}

// submit decorates ts and commits their pending state in one transaction.
// When one of them is still busy nothing is committed: the windows are queued
// as one group and a nil transaction is returned.
func (s *Session) submit(ts ...*toplevel.Toplevel) (*txn.Transaction, error) {
	ts, taken := s.withQueued(ts)
	objects := make([]txn.Object, 0, len(ts))
	for _, t := range ts {
		if err := s.decorator.Decorate(t); err != nil {
			s.queued = append(s.queued, taken...)
			return nil, err
		}
		objects = append(objects, t)
	}

	tx := s.manager.NewTransaction(objects...)
	err := s.manager.Submit(tx)
	var conflict *txn.ConflictError
	if errors.As(err, &conflict) {
		s.enqueue(ts)
		s.logger.Debug("windows busy, change queued", "window_id", conflict.ObjectID, "windows", len(ts))
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return tx, nil
}

// Sync refreshes the outputs and the set of managed windows from the window
// system, and takes over moves made behind the daemon's back.
func (s *Session) Sync() error {
	displays, err := s.backend.Displays()
	if err != nil {
		return fmt.Errorf("list displays: %w", err)
	}
	s.scene = scene.New(displays, s.cfg.ScreenPadding.Difference())

	windows, err := s.backend.Windows()
	if err != nil {
		return fmt.Errorf("list windows: %w", err)
	}

	seen := make(map[uint32]bool, len(windows))
	for _, w := range windows {
		if !s.filter.Manages(w.AppID) {
			continue
		}
		id := uint32(w.ID)
		seen[id] = true

		e, ok := s.toplevels[id]
		if !ok {
			s.adopt(w)
			continue
		}
		e.title = w.Title
		if w.HasExtents {
			s.decorator.SetFrameExtents(id, w.Extents)
		}
		s.reflect(e.t, w.Bounds)
	}

	for _, id := range slices.Clone(s.order) {
		if !seen[id] {
			s.remove(id)
		}
	}
	return nil
}

func (s *Session) adopt(w platform.Window) {
	id := uint32(w.ID)
	if w.HasExtents {
		s.decorator.SetFrameExtents(id, w.Extents)
	}

	m := maximize.None
	if w.State.MaximizedVert {
		m = m.Add(maximize.Vertical)
	}
	if w.State.MaximizedHorz {
		m = m.Add(maximize.Horizontal)
	}

	state := toplevel.DefaultState()
	state.Mapped = true
	state.Fullscreen = w.State.Fullscreen
	if state.Fullscreen {
		m = maximize.Full
	} else {
		state.Margins = s.decorator.Margins(id)
	}
	state.SetMaximization(m)
	state.Geometry = toplevel.ExpandByMargins(w.Bounds, state.Margins, m)

	t := toplevel.Restore(id, s.bridge, state)
	t.SetSizeHints(w.MinSize, w.MaxSize)
	s.toplevels[id] = &entry{t: t, appID: w.AppID, title: w.Title, pid: w.PID}
	s.order = append(s.order, id)
	s.bridge.observe(id, w.Bounds)

	err := s.backend.Watch(w.ID, platform.WindowEvents{
		Configured: func(wid platform.WindowID, bounds geometry.Box) {
			s.post(func() { s.configured(uint32(wid), bounds) })
		},
		Gone: func(wid platform.WindowID) {
			s.post(func() { s.remove(uint32(wid)) })
		},
	})
	if err != nil {
		s.logger.Warn("failed to watch window", "window_id", id, "error", err)
	}
	s.logger.Debug("window adopted", "window_id", id, "app_id", w.AppID, "geometry", state.Geometry)
}

// reflect makes a window that was moved by someone else keep its new place.
func (s *Session) reflect(t *toplevel.Toplevel, bounds geometry.Box) {
	id := t.ObjectID()
	s.bridge.observe(id, bounds)

	cur := t.Current()
	if t.Phase() != txn.Idle || s.isQueued(id) || s.bridge.waiting(id) ||
		cur.Fullscreen || cur.ContentGeometry() == bounds {
		return
	}

	p := t.Pending()
	p.Geometry = toplevel.ExpandByMargins(bounds, p.Margins, p.Maximization())
	s.logger.Debug("window moved externally", "window_id", id, "geometry", p.Geometry)
	if _, err := s.submit(t); err != nil {
		s.logger.Warn("failed to take over window geometry", "window_id", id, "error", err)
	}
}

func (s *Session) configured(id uint32, bounds geometry.Box) {
	if _, ok := s.toplevels[id]; !ok {
		return
	}
	s.bridge.configured(id, bounds)
}

func (s *Session) remove(id uint32) {
	e, ok := s.toplevels[id]
	if !ok {
		return
	}
	// An outstanding commit must not hold its transaction until the timeout.
	e.t.Release()

	delete(s.toplevels, id)
	for i, group := range s.queued {
		s.queued[i] = slices.DeleteFunc(group, func(v uint32) bool { return v == id })
	}
	s.queued = slices.DeleteFunc(s.queued, func(group []uint32) bool { return len(group) == 0 })
	s.order = slices.DeleteFunc(s.order, func(v uint32) bool { return v == id })
	s.grid.Forget(id)
	s.decorator.Forget(id)
	s.bridge.forget(id)
	s.backend.Unwatch(platform.WindowID(id))
	s.logger.Debug("window removed", "window_id", id)
}

func (s *Session) lookup(id uint32) (*toplevel.Toplevel, error) {
	e, ok := s.toplevels[id]
	if !ok {
		return nil, fmt.Errorf("window %d: %w", id, ErrUnknownToplevel)
	}
	return e.t, nil
}

// windowed looks a window up and refuses fullscreen ones.
func (s *Session) windowed(id uint32) (*toplevel.Toplevel, error) {
	t, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	if t.Pending().Fullscreen {
		return nil, fmt.Errorf("window %d: %w", id, ErrFullscreen)
	}
	return t, nil
}

func (s *Session) outputOf(t *toplevel.Toplevel) (scene.Output, error) {
	o, ok := s.scene.OutputFor(t.Pending().Geometry)
	if !ok {
		return scene.Output{}, ErrNoOutputs
	}
	return o, nil
}

// Move shifts a window by delta. A moved window is no longer maximized.
func (s *Session) Move(id uint32, delta geometry.Point) (*txn.Transaction, error) {
	t, err := s.windowed(id)
	if err != nil {
		return nil, err
	}
	p := t.Pending()
	p.SetMaximization(maximize.None)
	p.Geometry = p.Geometry.Translate(delta)
	s.grid.Forget(id)
	return s.submit(t)
}

// Place gives a window an exact frame geometry.
func (s *Session) Place(id uint32, box geometry.Box) (*txn.Transaction, error) {
	if box.Width <= 0 || box.Height <= 0 {
		return nil, fmt.Errorf("place window %d: invalid size %v", id, box.Dimensions())
	}
	t, err := s.windowed(id)
	if err != nil {
		return nil, err
	}
	p := t.Pending()
	p.SetMaximization(maximize.None)
	p.Geometry = box
	s.grid.Forget(id)
	return s.submit(t)
}

// Resize drags the given edges of a window by delta.
func (s *Session) Resize(id uint32, edges geometry.Edges, delta geometry.Point) (*txn.Transaction, error) {
	t, err := s.windowed(id)
	if err != nil {
		return nil, err
	}
	grab, err := resize.Begin(t, edges)
	if err != nil {
		return nil, err
	}
	defer grab.End()

	if _, err := grab.Update(delta); err != nil {
		return nil, err
	}
	s.grid.Forget(id)
	return s.submit(t)
}

// Swap exchanges the places of two windows in one transaction.
func (s *Session) Swap(a, b uint32) (*txn.Transaction, error) {
	if a == b {
		return nil, fmt.Errorf("swap window %d with itself", a)
	}
	ta, err := s.windowed(a)
	if err != nil {
		return nil, err
	}
	tb, err := s.windowed(b)
	if err != nil {
		return nil, err
	}
	if err := s.grid.Swap(ta, tb); err != nil {
		return nil, err
	}
	return s.submit(ta, tb)
}

// Maximize stretches a window over the usable area of its output along the
// axes m covers.
func (s *Session) Maximize(id uint32, m maximize.Maximization) (*txn.Transaction, error) {
	t, err := s.windowed(id)
	if err != nil {
		return nil, err
	}
	o, err := s.outputOf(t)
	if err != nil {
		return nil, err
	}
	s.grid.Maximize(t, m, o.Usable)
	return s.submit(t)
}

// Fullscreen makes a window cover its whole output, or restores it.
func (s *Session) Fullscreen(id uint32, on bool) (*txn.Transaction, error) {
	t, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	o, err := s.outputOf(t)
	if err != nil {
		return nil, err
	}
	if err := s.decorator.SetFullscreen(t, on, o.Bounds); err != nil {
		return nil, err
	}
	return s.submit(t)
}

// Float takes a window out of the grid. Its edges stop being tiled and it
// goes back to where it was before it was first tiled or maximized.
func (s *Session) Float(id uint32) (*txn.Transaction, error) {
	t, err := s.windowed(id)
	if err != nil {
		return nil, err
	}
	if _, ok := s.grid.Floating(id); !ok && t.Pending().TiledEdges() == geometry.EdgeNone {
		return nil, fmt.Errorf("window %d: %w", id, ErrNotTiled)
	}
	s.grid.Float(t)
	return s.submit(t)
}

// Tile lays out windows on an output with a named layout, all in one
// transaction. Without an explicit order the windows on the output are
// tiled in adoption order.
func (s *Session) Tile(layoutName, outputName string, order []uint32) (*txn.Transaction, error) {
	if layoutName == "" {
		layoutName = s.activeLayout
	}
	layout, err := s.cfg.GetLayout(layoutName)
	if err != nil {
		return nil, err
	}

	out, err := s.tileOutput(outputName)
	if err != nil {
		return nil, err
	}

	var windows []*toplevel.Toplevel
	if len(order) > 0 {
		for _, id := range order {
			t, err := s.windowed(id)
			if err != nil {
				return nil, err
			}
			windows = append(windows, t)
		}
	} else {
		for _, id := range s.order {
			t := s.toplevels[id].t
			if t.Pending().Fullscreen {
				continue
			}
			if o, _ := s.scene.OutputFor(t.Pending().Geometry); o.ID == out.ID {
				windows = append(windows, t)
			}
		}
	}
	if len(windows) == 0 {
		return nil, fmt.Errorf("no windows to tile on output %s", out.Name)
	}

	placed, err := s.grid.Tile(windows, out.Usable, layout, s.cfg.GapSize)
	if err != nil {
		return nil, err
	}
	s.activeLayout = layoutName
	s.logger.Info("tiling windows", "layout", layoutName, "output", out.Name, "windows", len(placed))
	return s.submit(placed...)
}

// tileOutput resolves the output to tile: the named one, else the one with
// the active window, else the first.
func (s *Session) tileOutput(name string) (scene.Output, error) {
	if name != "" {
		return s.scene.OutputByName(name)
	}
	if wid, err := s.backend.ActiveWindow(); err == nil {
		if e, ok := s.toplevels[uint32(wid)]; ok {
			return s.outputOf(e.t)
		}
	}
	outputs := s.scene.Outputs()
	if len(outputs) == 0 {
		return scene.Output{}, ErrNoOutputs
	}
	return outputs[0], nil
}

// SendToOutput moves a window to another output, keeping its place relative
// to the usable area.
func (s *Session) SendToOutput(id uint32, outputName string) (*txn.Transaction, error) {
	t, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	to, err := s.scene.OutputByName(outputName)
	if err != nil {
		return nil, err
	}
	from, err := s.outputOf(t)
	if err != nil {
		return nil, err
	}

	p := t.Pending()
	if p.Fullscreen {
		p.Geometry = to.Bounds
	} else {
		p.Geometry = scene.Clamp(scene.Convert(p.Geometry, from, to), to)
		s.grid.Forget(id)
	}
	return s.submit(t)
}

// Reload applies a new configuration. Windows whose decoration changed are
// committed again.
func (s *Session) Reload(cfg *config.Config) error {
	s.cfg = cfg
	s.manager.SetTimeout(cfg.TransactionTimeout())
	s.filter.Update(cfg.Manage)
	s.decorator.Configure(cfg.Decoration.Enabled,
		cfg.Decoration.Margins.Difference(), cfg.Decoration.UseFrameExtents)
	if _, err := cfg.GetLayout(s.activeLayout); err != nil {
		s.activeLayout = cfg.DefaultLayout
	}

	if err := s.Sync(); err != nil {
		return err
	}

	for _, id := range s.order {
		t := s.toplevels[id].t
		p := t.Pending()
		before := p.Margins
		if err := s.decorator.Decorate(t); err != nil {
			return err
		}
		if p.Margins == before {
			continue
		}
		if _, err := s.submit(t); err != nil {
			s.logger.Warn("failed to redecorate window", "window_id", id, "error", err)
		}
	}
	s.logger.Info("configuration reloaded", "layout", s.activeLayout,
		"transaction_timeout", cfg.TransactionTimeout())
	return nil
}
