// Package platform abstracts the window system the daemon drives.
package platform

import "github.com/1broseidon/tilestate/internal/geometry"

// WindowID is a platform-neutral window identifier.
type WindowID uint32

// Display describes a physical display and its usable work area.
type Display struct {
	ID     int
	Name   string
	Bounds geometry.Box
	Usable geometry.Box
}

// Window contains metadata and geometry for a top-level window.
type Window struct {
	ID    WindowID
	PID   int
	AppID string
	Title string
	// Bounds is the client area, without decorations.
	Bounds geometry.Box
	// Extents are the decoration sizes the window manager reports. HasExtents
	// is false when it reports none.
	Extents    geometry.Difference
	HasExtents bool
	State      WindowState
	MinSize    geometry.Dimensions
	MaxSize    geometry.Dimensions
}

// WindowState mirrors the window manager's view of a window.
type WindowState struct {
	Fullscreen    bool
	MaximizedVert bool
	MaximizedHorz bool
}

// Placement is what the daemon asks the window system to show.
type Placement struct {
	// Bounds is the client area, without decorations. It is ignored for
	// fullscreen windows.
	Bounds     geometry.Box
	Fullscreen bool
}

// WindowEvents are called from the window system's event goroutine.
type WindowEvents struct {
	Configured func(id WindowID, bounds geometry.Box)
	Gone       func(id WindowID)
}

// Backend abstracts window-system operations.
type Backend interface {
	Displays() ([]Display, error)
	ActiveWindow() (WindowID, error)
	// Windows lists the normal, visible windows on the current desktop.
	Windows() ([]Window, error)
	Place(id WindowID, p Placement) error
	Watch(id WindowID, ev WindowEvents) error
	Unwatch(id WindowID)
}
