package x11

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/icccm"
	"github.com/BurntSushi/xgbutil/xwindow"
)

const (
	stateFullscreen = "_NET_WM_STATE_FULLSCREEN"
	stateMaxVert    = "_NET_WM_STATE_MAXIMIZED_VERT"
	stateMaxHorz    = "_NET_WM_STATE_MAXIMIZED_HORZ"
	stateHidden     = "_NET_WM_STATE_HIDDEN"
)

// WindowState is the subset of _NET_WM_STATE the daemon tracks.
type WindowState struct {
	Fullscreen    bool
	MaximizedVert bool
	MaximizedHorz bool
	Hidden        bool
}

// Geometry is a window's client area in root coordinates.
type Geometry struct {
	X, Y          int
	Width, Height int
}

// SizeHints are the WM_NORMAL_HINTS size limits. Zero means unset.
type SizeHints struct {
	MinWidth, MinHeight int
	MaxWidth, MaxHeight int
}

// MoveResizeWindow asks the window manager to give the client area of a
// window the specified geometry. StaticGravity makes x and y refer to the
// client area rather than the frame.
func (c *Connection) MoveResizeWindow(windowID xproto.Window, x, y, width, height int) error {
	err := ewmh.MoveresizeWindowExtra(c.XUtil, windowID, x, y, width, height,
		xproto.GravityStatic, 2, true, true)
	if err != nil {
		// Fallback to direct window manipulation
		xwindow.New(c.XUtil, windowID).MoveResize(x, y, width, height)
	}
	return nil
}

// SetWindowState adds or removes the fullscreen and maximized states so they
// match want. States that already match are left alone.
func (c *Connection) SetWindowState(windowID xproto.Window, want WindowState) error {
	have := c.GetWindowState(windowID)
	for _, s := range []struct {
		atom       string
		have, want bool
	}{
		{stateFullscreen, have.Fullscreen, want.Fullscreen},
		{stateMaxVert, have.MaximizedVert, want.MaximizedVert},
		{stateMaxHorz, have.MaximizedHorz, want.MaximizedHorz},
	} {
		if s.have == s.want {
			continue
		}
		action := ewmh.StateRemove
		if s.want {
			action = ewmh.StateAdd
		}
		if err := ewmh.WmStateReq(c.XUtil, windowID, action, s.atom); err != nil {
			return fmt.Errorf("request %s: %w", s.atom, err)
		}
	}
	return nil
}

// GetWindowState reads _NET_WM_STATE. A window without the property has no
// states set.
func (c *Connection) GetWindowState(windowID xproto.Window) WindowState {
	states, err := ewmh.WmStateGet(c.XUtil, windowID)
	if err != nil {
		return WindowState{}
	}

	var ws WindowState
	for _, s := range states {
		switch s {
		case stateFullscreen:
			ws.Fullscreen = true
		case stateMaxVert:
			ws.MaximizedVert = true
		case stateMaxHorz:
			ws.MaximizedHorz = true
		case stateHidden:
			ws.Hidden = true
		}
	}
	return ws
}

// GetWindowGeometry returns the client area of a window translated to root
// coordinates.
func (c *Connection) GetWindowGeometry(windowID xproto.Window) (Geometry, error) {
	geom, err := xproto.GetGeometry(c.XUtil.Conn(), xproto.Drawable(windowID)).Reply()
	if err != nil {
		return Geometry{}, fmt.Errorf("get geometry of window %d: %w", windowID, err)
	}

	translate, err := xproto.TranslateCoordinates(c.XUtil.Conn(), windowID, c.Root, 0, 0).Reply()
	if err != nil {
		return Geometry{}, fmt.Errorf("translate coordinates of window %d: %w", windowID, err)
	}

	return Geometry{
		X:      int(translate.DstX),
		Y:      int(translate.DstY),
		Width:  int(geom.Width),
		Height: int(geom.Height),
	}, nil
}

// GetFrameExtents returns the window decoration sizes (if available)
func (c *Connection) GetFrameExtents(windowID xproto.Window) (left, right, top, bottom int, ok bool) {
	extents, err := ewmh.FrameExtentsGet(c.XUtil, windowID)
	if err != nil {
		return 0, 0, 0, 0, false
	}
	return extents.Left, extents.Right, extents.Top, extents.Bottom, true
}

// GetSizeHints reads the program-specified min and max size of a window.
func (c *Connection) GetSizeHints(windowID xproto.Window) SizeHints {
	nh, err := icccm.WmNormalHintsGet(c.XUtil, windowID)
	if err != nil {
		return SizeHints{}
	}

	var h SizeHints
	if nh.Flags&icccm.SizeHintPMinSize != 0 {
		h.MinWidth = int(nh.MinWidth)
		h.MinHeight = int(nh.MinHeight)
	}
	if nh.Flags&icccm.SizeHintPMaxSize != 0 {
		h.MaxWidth = int(nh.MaxWidth)
		h.MaxHeight = int(nh.MaxHeight)
	}
	return h
}

// IsNormalWindow checks if a window is a normal application window
func (c *Connection) IsNormalWindow(windowID xproto.Window) bool {
	types, err := ewmh.WmWindowTypeGet(c.XUtil, windowID)
	if err != nil {
		// If we can't determine type, assume it's normal
		return true
	}

	for _, t := range types {
		switch t {
		case "_NET_WM_WINDOW_TYPE_NORMAL":
			return true
		case "_NET_WM_WINDOW_TYPE_DESKTOP",
			"_NET_WM_WINDOW_TYPE_DOCK",
			"_NET_WM_WINDOW_TYPE_SPLASH",
			"_NET_WM_WINDOW_TYPE_NOTIFICATION":
			return false
		}
	}

	// If no specific type is set, assume it's normal
	return len(types) == 0
}

// ClientList returns the managed windows in stacking-independent order.
func (c *Connection) ClientList() ([]xproto.Window, error) {
	return ewmh.ClientListGet(c.XUtil)
}

func (c *Connection) GetActiveWindow() (xproto.Window, error) {
	return ewmh.ActiveWindowGet(c.XUtil)
}

// GetWindowPID returns _NET_WM_PID, or 0.
func (c *Connection) GetWindowPID(windowID xproto.Window) int {
	pid, err := ewmh.WmPidGet(c.XUtil, windowID)
	if err != nil {
		return 0
	}
	return int(pid)
}

// GetWindowClass returns the WM_CLASS class name.
func (c *Connection) GetWindowClass(windowID xproto.Window) string {
	wmClass, err := icccm.WmClassGet(c.XUtil, windowID)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(wmClass.Class)
}

// GetWindowTitle prefers _NET_WM_NAME and falls back to WM_NAME.
func (c *Connection) GetWindowTitle(windowID xproto.Window) string {
	if title, err := ewmh.WmNameGet(c.XUtil, windowID); err == nil {
		if title = strings.TrimSpace(title); title != "" {
			return title
		}
	}
	if title, err := icccm.WmNameGet(c.XUtil, windowID); err == nil {
		return strings.TrimSpace(title)
	}
	return ""
}
