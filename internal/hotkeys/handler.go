// Package hotkeys binds global key sequences to window actions.
package hotkeys

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/keybind"
	"github.com/BurntSushi/xgbutil/xevent"

	"github.com/1broseidon/tilestate/internal/config"
	"github.com/1broseidon/tilestate/internal/platform"
)

const actionTimeout = 2 * time.Second

// x11Accessor is implemented by backends that expose X11 internals.
type x11Accessor interface {
	XUtil() *xgbutil.XUtil
	RootWindow() xproto.Window
}

// Handler grabs key sequences on the root window and runs their actions.
type Handler struct {
	xu     *xgbutil.XUtil
	root   xproto.Window
	target Target
	logger *slog.Logger
	ctx    context.Context
}

var ignoreModsOnce sync.Once

// NewHandler creates a handler. Actions run with ctx; once it is done key
// presses are ignored.
func NewHandler(ctx context.Context, backend platform.Backend, target Target, logger *slog.Logger) (*Handler, error) {
	accessor, ok := backend.(x11Accessor)
	if !ok {
		return nil, fmt.Errorf("backend does not support key bindings")
	}
	if logger == nil {
		logger = slog.Default()
	}
	xu := accessor.XUtil()

	ignoreModsOnce.Do(func() {
		configureIgnoreMods(xu)
	})

	return &Handler{
		xu:     xu,
		root:   accessor.RootWindow(),
		target: target,
		logger: logger,
		ctx:    ctx,
	}, nil
}

// Bind replaces every binding with actions. A sequence that cannot be grabbed
// is reported and skipped; the others stay bound.
func (h *Handler) Bind(actions map[string]config.Action) error {
	keybind.Detach(h.xu, h.root)

	var errs []error
	for seq, action := range actions {
		if err := h.register(seq, action); err != nil {
			errs = append(errs, fmt.Errorf("bind %s: %w", seq, err))
			continue
		}
		h.logger.Debug("key bound", "keys", seq, "action", action.Verb)
	}
	h.logger.Info("key bindings registered", "count", len(actions)-len(errs))
	return errors.Join(errs...)
}

func (h *Handler) register(seq string, action config.Action) error {
	return keybind.KeyPressFun(func(xu *xgbutil.XUtil, ev xevent.KeyPressEvent) {
		// Dispatch waits on the control loop; keep the X event loop free.
		go h.run(seq, action)
	}).Connect(h.xu, h.root, seq, true)
}

func (h *Handler) run(seq string, action config.Action) {
	if h.ctx.Err() != nil {
		return
	}
	ctx, cancel := context.WithTimeout(h.ctx, actionTimeout)
	defer cancel()

	data, err := Dispatch(ctx, h.target, action)
	if err != nil {
		h.logger.Warn("key binding failed", "keys", seq, "action", action.Verb, "error", err)
		return
	}
	h.logger.Debug("key binding ran", "keys", seq, "action", action.Verb,
		"transaction", data.ID, "stage", data.Stage, "queued", data.Queued)
}

func configureIgnoreMods(xu *xgbutil.XUtil) {
	// Always ignore CapsLock.
	caps := uint16(xproto.ModMaskLock)

	numLock := modMaskForKeysym(xu, "Num_Lock")
	scrollLock := modMaskForKeysym(xu, "Scroll_Lock")

	unique := make(map[uint16]struct{})
	add := func(mask uint16) {
		unique[mask] = struct{}{}
	}

	add(0)
	base := []uint16{caps}
	if numLock != 0 && numLock != caps {
		base = append(base, numLock)
	}
	if scrollLock != 0 && scrollLock != caps && scrollLock != numLock {
		base = append(base, scrollLock)
	}

	for subset := 1; subset < (1 << len(base)); subset++ {
		var mask uint16
		for bit := range base {
			if subset&(1<<bit) != 0 {
				mask |= base[bit]
			}
		}
		add(mask)
	}

	ignore := make([]uint16, 0, len(unique))
	for mask := range unique {
		ignore = append(ignore, mask)
	}

	xevent.IgnoreMods = ignore
}

func modMaskForKeysym(xu *xgbutil.XUtil, keysym string) uint16 {
	for _, keycode := range keybind.StrToKeycodes(xu, keysym) {
		if mask := keybind.ModGet(xu, keycode); mask != 0 {
			return mask
		}
	}
	return 0
}
