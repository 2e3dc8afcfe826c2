package daemon

import (
	"log/slog"

	"github.com/1broseidon/tilestate/internal/geometry"
	"github.com/1broseidon/tilestate/internal/platform"
	"github.com/1broseidon/tilestate/internal/wm/toplevel"
)

// bridge presents committed toplevel state through the platform backend.
// X clients have no configure serials, so the first ConfigureNotify after a
// request stands in for the acknowledgement.
type bridge struct {
	backend platform.Backend
	logger  *slog.Logger
	actual  map[uint32]geometry.Box
	expect  map[uint32]pendingAck
}

type pendingAck struct {
	t      *toplevel.Toplevel
	serial uint32
}

var _ toplevel.Client = (*bridge)(nil)

func newBridge(backend platform.Backend, logger *slog.Logger) *bridge {
	return &bridge{
		backend: backend,
		logger:  logger,
		actual:  make(map[uint32]geometry.Box),
		expect:  make(map[uint32]pendingAck),
	}
}

func (b *bridge) Configure(t *toplevel.Toplevel, serial uint32, state toplevel.State) {
	id := t.ObjectID()
	delete(b.expect, id)

	if !state.Mapped {
		t.Ack(serial)
		return
	}

	content := state.ContentGeometry()
	err := b.backend.Place(platform.WindowID(id), platform.Placement{
		Bounds:     content,
		Fullscreen: state.Fullscreen,
	})
	if err != nil {
		b.logger.Warn("failed to place window", "window_id", id, "error", err)
		t.Release()
		return
	}

	if have, ok := b.actual[id]; ok && have == content {
		t.Ack(serial)
		return
	}
	b.expect[id] = pendingAck{t: t, serial: serial}
}

// configured records the client area reported by the window system and
// acknowledges an outstanding request for the window.
func (b *bridge) configured(id uint32, bounds geometry.Box) {
	b.actual[id] = bounds
	if p, ok := b.expect[id]; ok {
		delete(b.expect, id)
		p.t.Ack(p.serial)
	}
}

// observe records bounds without acknowledging anything.
func (b *bridge) observe(id uint32, bounds geometry.Box) {
	b.actual[id] = bounds
}

// waiting reports whether a request for the window is unacknowledged.
func (b *bridge) waiting(id uint32) bool {
	_, ok := b.expect[id]
	return ok
}

func (b *bridge) forget(id uint32) {
	delete(b.actual, id)
	delete(b.expect, id)
}
