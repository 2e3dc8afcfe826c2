package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/1broseidon/tilestate/internal/config"
	"github.com/1broseidon/tilestate/internal/geometry"
	"github.com/1broseidon/tilestate/internal/ipc"
	"github.com/1broseidon/tilestate/internal/maximize"
	"github.com/1broseidon/tilestate/internal/txn"
	"github.com/1broseidon/tilestate/internal/wm/toplevel"
)

// Controller serves IPC requests by running them on the control loop.
type Controller struct {
	loop       *Loop
	session    *Session
	configPath string
	logger     *slog.Logger
	onApply    []func(*config.Config)
}

var _ ipc.Controller = (*Controller)(nil)

// NewController creates a controller. configPath is reloaded on RELOAD.
func NewController(loop *Loop, session *Session, configPath string, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		loop:       loop,
		session:    session,
		configPath: configPath,
		logger:     logger,
	}
}

func (c *Controller) Status(ctx context.Context) (ipc.StatusData, error) {
	var data ipc.StatusData
	err := c.loop.Do(ctx, func() error {
		s := c.session
		inflight := make(map[uint64]bool)
		for id := range s.toplevels {
			if tx, ok := s.manager.InFlight(id); ok {
				inflight[tx.ID()] = true
			}
		}
		data = ipc.StatusData{
			ActiveLayout:       s.activeLayout,
			ToplevelCount:      len(s.toplevels),
			OutputCount:        len(s.scene.Outputs()),
			InFlight:           len(inflight),
			Applied:            s.applied,
			Forced:             s.forced,
			Aborted:            s.aborted,
			TransactionTimeout: s.manager.Timeout().Milliseconds(),
			UptimeSeconds:      int64(time.Since(s.started).Seconds()),
			DaemonRunning:      true,
		}
		return nil
	})
	return data, err
}

func (c *Controller) Outputs(ctx context.Context) (ipc.OutputsData, error) {
	var data ipc.OutputsData
	err := c.loop.Do(ctx, func() error {
		for _, o := range c.session.scene.Outputs() {
			data.Outputs = append(data.Outputs, ipc.OutputInfo{
				ID:     o.ID,
				Name:   o.Name,
				Bounds: ipc.BoxFrom(o.Bounds),
				Usable: ipc.BoxFrom(o.Usable),
			})
		}
		return nil
	})
	return data, err
}

func (c *Controller) Toplevels(ctx context.Context) (ipc.ToplevelsData, error) {
	data := ipc.ToplevelsData{Toplevels: []ipc.ToplevelInfo{}}
	err := c.loop.Do(ctx, func() error {
		for _, id := range c.session.order {
			data.Toplevels = append(data.Toplevels, c.toplevelInfo(id))
		}
		return nil
	})
	return data, err
}

// ActiveToplevel describes the focused window if it is managed.
func (c *Controller) ActiveToplevel(ctx context.Context) (ipc.ToplevelInfo, error) {
	var info ipc.ToplevelInfo
	err := c.loop.Do(ctx, func() error {
		wid, err := c.session.backend.ActiveWindow()
		if err != nil {
			return err
		}
		if _, err := c.session.lookup(uint32(wid)); err != nil {
			return err
		}
		info = c.toplevelInfo(uint32(wid))
		return nil
	})
	return info, err
}

func (c *Controller) toplevelInfo(id uint32) ipc.ToplevelInfo {
	s := c.session
	e := s.toplevels[id]
	info := ipc.ToplevelInfo{
		ID:        id,
		AppID:     e.appID,
		Title:     e.title,
		PID:       e.pid,
		Phase:     e.t.Phase().String(),
		Pending:   stateInfo(*e.t.Pending()),
		Committed: stateInfo(e.t.Committed()),
		Current:   stateInfo(e.t.Current()),
	}
	if o, ok := s.scene.OutputFor(e.t.Current().Geometry); ok {
		info.Output = o.Name
	}
	return info
}

func stateInfo(s toplevel.State) ipc.StateInfo {
	return ipc.StateInfo{
		Mapped:       s.Mapped,
		Geometry:     ipc.BoxFrom(s.Geometry),
		Content:      ipc.BoxFrom(s.ContentGeometry()),
		Gravity:      s.Gravity.String(),
		TiledEdges:   s.TiledEdges().String(),
		Maximization: s.Maximization().String(),
		Fullscreen:   s.Fullscreen,
		Margins:      [4]int{s.Margins.Left, s.Margins.Right, s.Margins.Top, s.Margins.Bottom},
	}
}

func (c *Controller) Layouts(ctx context.Context) (ipc.LayoutsData, error) {
	var data ipc.LayoutsData
	err := c.loop.Do(ctx, func() error {
		s := c.session
		data = ipc.LayoutsData{
			Layouts:       s.cfg.LayoutNames(),
			DefaultLayout: s.cfg.DefaultLayout,
			ActiveLayout:  s.activeLayout,
		}
		return nil
	})
	return data, err
}

// Reload reads the configuration file again and applies it.
func (c *Controller) Reload(ctx context.Context) error {
	res, err := config.LoadFromPath(c.configPath)
	if err != nil {
		return fmt.Errorf("reload config: %w", err)
	}
	return c.ApplyConfig(ctx, res.Config)
}

// OnApply registers fn to run after a configuration was applied. It must be
// called before the controller serves requests.
func (c *Controller) OnApply(fn func(*config.Config)) {
	c.onApply = append(c.onApply, fn)
}

// ApplyConfig hands an already loaded configuration to the session.
func (c *Controller) ApplyConfig(ctx context.Context, cfg *config.Config) error {
	err := c.loop.Do(ctx, func() error {
		return c.session.Reload(cfg)
	})
	if err != nil {
		return err
	}
	for _, fn := range c.onApply {
		fn(cfg)
	}
	return nil
}

// Sync refreshes the session from the window system.
func (c *Controller) Sync(ctx context.Context) error {
	return c.loop.Do(ctx, c.session.Sync)
}

func (c *Controller) Move(ctx context.Context, p ipc.MovePayload) (ipc.TransactionData, error) {
	return c.transact(ctx, p.Wait, func(s *Session) (*txn.Transaction, []uint32, error) {
		tx, err := s.Move(p.WindowID, geometry.Point{X: p.DX, Y: p.DY})
		return tx, []uint32{p.WindowID}, err
	})
}

func (c *Controller) Place(ctx context.Context, p ipc.PlacePayload) (ipc.TransactionData, error) {
	return c.transact(ctx, p.Wait, func(s *Session) (*txn.Transaction, []uint32, error) {
		tx, err := s.Place(p.WindowID, p.Geometry.Geometry())
		return tx, []uint32{p.WindowID}, err
	})
}

func (c *Controller) Resize(ctx context.Context, p ipc.ResizePayload) (ipc.TransactionData, error) {
	edges, err := geometry.ParseEdgeNames(p.Edges)
	if err != nil {
		return ipc.TransactionData{}, err
	}
	return c.transact(ctx, p.Wait, func(s *Session) (*txn.Transaction, []uint32, error) {
		tx, err := s.Resize(p.WindowID, edges, geometry.Point{X: p.DX, Y: p.DY})
		return tx, []uint32{p.WindowID}, err
	})
}

func (c *Controller) Swap(ctx context.Context, p ipc.SwapPayload) (ipc.TransactionData, error) {
	return c.transact(ctx, p.Wait, func(s *Session) (*txn.Transaction, []uint32, error) {
		tx, err := s.Swap(p.A, p.B)
		return tx, []uint32{p.A, p.B}, err
	})
}

func (c *Controller) Maximize(ctx context.Context, p ipc.MaximizePayload) (ipc.TransactionData, error) {
	m, err := maximize.Parse(p.Maximization)
	if err != nil {
		return ipc.TransactionData{}, err
	}
	return c.transact(ctx, p.Wait, func(s *Session) (*txn.Transaction, []uint32, error) {
		tx, err := s.Maximize(p.WindowID, m)
		return tx, []uint32{p.WindowID}, err
	})
}

func (c *Controller) Fullscreen(ctx context.Context, p ipc.FullscreenPayload) (ipc.TransactionData, error) {
	return c.transact(ctx, p.Wait, func(s *Session) (*txn.Transaction, []uint32, error) {
		tx, err := s.Fullscreen(p.WindowID, p.Fullscreen)
		return tx, []uint32{p.WindowID}, err
	})
}

func (c *Controller) Float(ctx context.Context, p ipc.FloatPayload) (ipc.TransactionData, error) {
	return c.transact(ctx, p.Wait, func(s *Session) (*txn.Transaction, []uint32, error) {
		tx, err := s.Float(p.WindowID)
		return tx, []uint32{p.WindowID}, err
	})
}

func (c *Controller) Tile(ctx context.Context, p ipc.TilePayload) (ipc.TransactionData, error) {
	return c.transact(ctx, p.Wait, func(s *Session) (*txn.Transaction, []uint32, error) {
		tx, err := s.Tile(p.LayoutName, p.Output, p.WindowOrder)
		return tx, p.WindowOrder, err
	})
}

func (c *Controller) SendToOutput(ctx context.Context, p ipc.SendToOutputPayload) (ipc.TransactionData, error) {
	return c.transact(ctx, p.Wait, func(s *Session) (*txn.Transaction, []uint32, error) {
		tx, err := s.SendToOutput(p.WindowID, p.Output)
		return tx, []uint32{p.WindowID}, err
	})
}

// transact runs op on the loop. With wait set it returns once the
// transaction op submitted was applied.
func (c *Controller) transact(ctx context.Context, wait ipc.Wait, op func(*Session) (*txn.Transaction, []uint32, error)) (ipc.TransactionData, error) {
	var (
		tx   *txn.Transaction
		data ipc.TransactionData
	)
	err := c.loop.Do(ctx, func() error {
		var ids []uint32
		var err error
		tx, ids, err = op(c.session)
		if err != nil {
			return err
		}
		data = transactionData(tx, ids)
		return nil
	})
	if err != nil || tx == nil || !wait.Wait {
		return data, err
	}

	select {
	case <-tx.Done():
	case <-ctx.Done():
		return data, fmt.Errorf("waiting for transaction %d: %w", tx.ID(), ctx.Err())
	}
	err = c.loop.Do(ctx, func() error {
		data = transactionData(tx, nil)
		return nil
	})
	return data, err
}

// transactionData describes tx. A nil tx means the change was queued behind
// a transaction already in flight for the windows in ids.
func transactionData(tx *txn.Transaction, ids []uint32) ipc.TransactionData {
	if tx == nil {
		if ids == nil {
			ids = []uint32{}
		}
		return ipc.TransactionData{Objects: ids, Stage: "queued", Queued: true}
	}
	objects := make([]uint32, 0, tx.Len())
	for _, o := range tx.Objects() {
		objects = append(objects, o.ObjectID())
	}
	return ipc.TransactionData{
		ID:      tx.ID(),
		Objects: objects,
		Stage:   tx.Stage().String(),
		Forced:  tx.Forced(),
	}
}
