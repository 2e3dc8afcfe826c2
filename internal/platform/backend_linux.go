//go:build linux

package platform

import (
	"fmt"
	"sort"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"

	"github.com/1broseidon/tilestate/internal/geometry"
	"github.com/1broseidon/tilestate/internal/x11"
)

// LinuxBackend wraps an existing X11 connection behind the platform Backend interface.
type LinuxBackend struct {
	conn *x11.Connection
}

var _ Backend = (*LinuxBackend)(nil)

// NewLinuxBackend creates a Linux platform backend from an existing X11 connection.
func NewLinuxBackend(conn *x11.Connection) *LinuxBackend {
	return &LinuxBackend{conn: conn}
}

// NewLinuxBackendFromDisplay opens a new X11 connection to display.
func NewLinuxBackendFromDisplay(display string) (*LinuxBackend, error) {
	conn, err := x11.NewConnection(display)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to X11: %w", err)
	}
	return &LinuxBackend{conn: conn}, nil
}

// XUtil exposes the X connection for key bindings.
func (b *LinuxBackend) XUtil() *xgbutil.XUtil {
	return b.conn.XUtil
}

// RootWindow returns the root window key grabs are made on.
func (b *LinuxBackend) RootWindow() xproto.Window {
	return b.conn.Root
}

// Disconnect closes the underlying X11 connection.
func (b *LinuxBackend) Disconnect() {
	if b != nil && b.conn != nil {
		b.conn.Close()
	}
}

// EventLoop runs the X11 event loop until Stop is called.
func (b *LinuxBackend) EventLoop() {
	if b != nil && b.conn != nil {
		b.conn.EventLoop()
	}
}

// Stop makes EventLoop return.
func (b *LinuxBackend) Stop() {
	if b != nil && b.conn != nil {
		b.conn.Quit()
	}
}

// Displays returns all active displays with their work areas.
func (b *LinuxBackend) Displays() ([]Display, error) {
	conn, err := b.connection()
	if err != nil {
		return nil, err
	}

	monitors, err := conn.GetMonitors()
	if err != nil {
		return nil, err
	}

	displays := make([]Display, 0, len(monitors))
	for _, m := range monitors {
		displays = append(displays, Display{
			ID:     m.ID,
			Name:   m.Name,
			Bounds: monitorBox(m),
			Usable: monitorBox(conn.WorkArea(m)),
		})
	}

	sort.Slice(displays, func(i, j int) bool {
		return displays[i].ID < displays[j].ID
	})
	return displays, nil
}

// ActiveWindow returns the currently active/focused window ID.
func (b *LinuxBackend) ActiveWindow() (WindowID, error) {
	conn, err := b.connection()
	if err != nil {
		return 0, err
	}
	wid, err := conn.GetActiveWindow()
	if err != nil {
		return 0, err
	}
	return WindowID(wid), nil
}

// Windows lists normal windows on the current desktop that are not hidden.
func (b *LinuxBackend) Windows() ([]Window, error) {
	conn, err := b.connection()
	if err != nil {
		return nil, err
	}

	clients, err := conn.ClientList()
	if err != nil {
		return nil, err
	}

	current, desktopErr := conn.GetCurrentDesktop()
	windows := make([]Window, 0, len(clients))
	for _, win := range clients {
		if !conn.IsNormalWindow(win) {
			continue
		}
		if desktopErr == nil {
			d, err := conn.GetWindowDesktop(win)
			if err == nil && d != x11.StickyDesktop && d != current {
				continue
			}
		}

		state := conn.GetWindowState(win)
		if state.Hidden {
			continue
		}

		geom, err := conn.GetWindowGeometry(win)
		if err != nil {
			continue
		}

		windows = append(windows, b.describe(win, geom, state))
	}

	sort.Slice(windows, func(i, j int) bool {
		return windows[i].ID < windows[j].ID
	})
	return windows, nil
}

func (b *LinuxBackend) describe(win xproto.Window, geom x11.Geometry, state x11.WindowState) Window {
	conn := b.conn
	w := Window{
		ID:     WindowID(win),
		PID:    conn.GetWindowPID(win),
		AppID:  conn.GetWindowClass(win),
		Title:  conn.GetWindowTitle(win),
		Bounds: geometryBox(geom),
		State: WindowState{
			Fullscreen:    state.Fullscreen,
			MaximizedVert: state.MaximizedVert,
			MaximizedHorz: state.MaximizedHorz,
		},
	}
	if l, r, t, bt, ok := conn.GetFrameExtents(win); ok {
		w.Extents = geometry.Difference{Left: l, Right: r, Top: t, Bottom: bt}
		w.HasExtents = true
	}
	hints := conn.GetSizeHints(win)
	w.MinSize = geometry.Dimensions{Width: hints.MinWidth, Height: hints.MinHeight}
	w.MaxSize = geometry.Dimensions{Width: hints.MaxWidth, Height: hints.MaxHeight}
	return w
}

// Place sets the window manager state of a window and, unless it is
// fullscreen, moves and resizes its client area. Maximized states are always
// cleared since the window manager would otherwise pick the geometry itself.
func (b *LinuxBackend) Place(id WindowID, p Placement) error {
	conn, err := b.connection()
	if err != nil {
		return err
	}

	win := xproto.Window(id)
	if err := conn.SetWindowState(win, x11.WindowState{Fullscreen: p.Fullscreen}); err != nil {
		return err
	}
	if p.Fullscreen {
		return nil
	}
	return conn.MoveResizeWindow(win, p.Bounds.X, p.Bounds.Y, p.Bounds.Width, p.Bounds.Height)
}

// Watch reports moves, resizes and disappearance of a window.
func (b *LinuxBackend) Watch(id WindowID, ev WindowEvents) error {
	conn, err := b.connection()
	if err != nil {
		return err
	}
	return conn.WatchWindow(xproto.Window(id), x11.WindowCallbacks{
		Configured: func(g x11.Geometry) {
			if ev.Configured != nil {
				ev.Configured(id, geometryBox(g))
			}
		},
		Gone: func() {
			if ev.Gone != nil {
				ev.Gone(id)
			}
		},
	})
}

func (b *LinuxBackend) Unwatch(id WindowID) {
	if conn, err := b.connection(); err == nil {
		conn.UnwatchWindow(xproto.Window(id))
	}
}

func (b *LinuxBackend) connection() (*x11.Connection, error) {
	if b == nil || b.conn == nil {
		return nil, fmt.Errorf("x11 backend connection is nil")
	}
	return b.conn, nil
}

func monitorBox(m x11.Monitor) geometry.Box {
	return geometry.Box{X: m.X, Y: m.Y, Width: m.Width, Height: m.Height}
}

func geometryBox(g x11.Geometry) geometry.Box {
	return geometry.Box{X: g.X, Y: g.Y, Width: g.Width, Height: g.Height}
}
