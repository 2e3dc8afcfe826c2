package x11

import (
	"fmt"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/xevent"
	"github.com/BurntSushi/xgbutil/xwindow"
)

// WindowCallbacks are run on the event loop goroutine.
type WindowCallbacks struct {
	// Configured is called after the window was moved or resized.
	Configured func(Geometry)
	// Gone is called once when the window is unmapped or destroyed.
	Gone func()
}

// WatchWindow subscribes to structure events of a window.
func (c *Connection) WatchWindow(windowID xproto.Window, cb WindowCallbacks) error {
	win := xwindow.New(c.XUtil, windowID)
	if err := win.Listen(xproto.EventMaskStructureNotify); err != nil {
		return fmt.Errorf("listen on window %d: %w", windowID, err)
	}

	xevent.ConfigureNotifyFun(func(xu *xgbutil.XUtil, ev xevent.ConfigureNotifyEvent) {
		if cb.Configured == nil {
			return
		}
		// The event carries parent-relative coordinates, which are useless
		// for reparented clients.
		geom, err := c.GetWindowGeometry(windowID)
		if err != nil {
			return
		}
		cb.Configured(geom)
	}).Connect(c.XUtil, windowID)

	gone := func() {
		xevent.Detach(c.XUtil, windowID)
		if cb.Gone != nil {
			cb.Gone()
		}
	}
	xevent.UnmapNotifyFun(func(xu *xgbutil.XUtil, ev xevent.UnmapNotifyEvent) {
		gone()
	}).Connect(c.XUtil, windowID)
	xevent.DestroyNotifyFun(func(xu *xgbutil.XUtil, ev xevent.DestroyNotifyEvent) {
		gone()
	}).Connect(c.XUtil, windowID)

	return nil
}

// UnwatchWindow drops every callback registered for a window.
func (c *Connection) UnwatchWindow(windowID xproto.Window) {
	xevent.Detach(c.XUtil, windowID)
}
