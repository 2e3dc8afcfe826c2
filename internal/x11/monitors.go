package x11

import (
	"fmt"

	"github.com/BurntSushi/xgb/randr"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/ewmh"
)

// Monitor represents a physical display
type Monitor struct {
	ID     int
	Name   string
	X      int
	Y      int
	Width  int
	Height int
}

func (m Monitor) x2() int { return m.X + m.Width }
func (m Monitor) y2() int { return m.Y + m.Height }

// GetMonitors retrieves all active monitors using XRandR
func (c *Connection) GetMonitors() ([]Monitor, error) {
	if err := randr.Init(c.XUtil.Conn()); err != nil {
		return nil, fmt.Errorf("randr init failed: %w", err)
	}

	resources, err := randr.GetScreenResources(c.XUtil.Conn(), c.Root).Reply()
	if err != nil {
		return nil, fmt.Errorf("failed to get screen resources: %w", err)
	}

	var monitors []Monitor
	for i, crtc := range resources.Crtcs {
		info, err := randr.GetCrtcInfo(c.XUtil.Conn(), crtc, resources.ConfigTimestamp).Reply()
		if err != nil {
			continue
		}
		// Skip disabled CRTCs
		if info.Width == 0 || info.Height == 0 || len(info.Outputs) == 0 {
			continue
		}

		name := fmt.Sprintf("Monitor%d", i)
		if out, err := randr.GetOutputInfo(c.XUtil.Conn(), info.Outputs[0], resources.ConfigTimestamp).Reply(); err == nil {
			name = string(out.Name)
		}

		monitors = append(monitors, Monitor{
			ID:     i,
			Name:   name,
			X:      int(info.X),
			Y:      int(info.Y),
			Width:  int(info.Width),
			Height: int(info.Height),
		})
	}

	return monitors, nil
}

// WorkArea returns the part of m that panels and docks leave free. Dock
// struts are used when any reach the monitor; otherwise the current
// desktop's _NET_WORKAREA is intersected with m.
func (c *Connection) WorkArea(m Monitor) Monitor {
	if s, ok := c.dockStruts(m); ok {
		m.X += s.left
		m.Y += s.top
		m.Width = max(m.Width-s.left-s.right, 1)
		m.Height = max(m.Height-s.top-s.bottom, 1)
		return m
	}

	areas, err := ewmh.WorkareaGet(c.XUtil)
	if err != nil || len(areas) == 0 {
		return m
	}
	idx := 0
	if d, err := ewmh.CurrentDesktopGet(c.XUtil); err == nil && int(d) < len(areas) {
		idx = int(d)
	}
	wa := areas[idx]

	x1, y1 := max(m.X, wa.X), max(m.Y, wa.Y)
	x2 := min(m.x2(), wa.X+int(wa.Width))
	y2 := min(m.y2(), wa.Y+int(wa.Height))
	if x2 > x1 && y2 > y1 {
		m.X, m.Y, m.Width, m.Height = x1, y1, x2-x1, y2-y1
	}
	return m
}

type struts struct {
	left, right, top, bottom int
}

func (c *Connection) dockStruts(m Monitor) (struts, bool) {
	var acc struts

	rootGeom, err := xproto.GetGeometry(c.XUtil.Conn(), xproto.Drawable(c.Root)).Reply()
	if err != nil {
		return acc, false
	}
	rootW, rootH := int(rootGeom.Width), int(rootGeom.Height)

	clients, err := ewmh.ClientListGet(c.XUtil)
	if err != nil {
		return acc, false
	}

	for _, win := range clients {
		if !c.isDock(win) {
			continue
		}
		sp, err := ewmh.WmStrutPartialGet(c.XUtil, win)
		if err != nil {
			// Some docks only set _NET_WM_STRUT, which spans the whole root.
			s, err := ewmh.WmStrutGet(c.XUtil, win)
			if err != nil {
				continue
			}
			sp = &ewmh.WmStrutPartial{
				Left: s.Left, Right: s.Right, Top: s.Top, Bottom: s.Bottom,
				LeftEndY: uint(rootH - 1), RightEndY: uint(rootH - 1),
				TopEndX: uint(rootW - 1), BottomEndX: uint(rootW - 1),
			}
		}
		acc.add(m, rootW, rootH, sp)
	}

	return acc, acc != struts{}
}

func (c *Connection) isDock(win xproto.Window) bool {
	types, err := ewmh.WmWindowTypeGet(c.XUtil, win)
	if err != nil {
		return false
	}
	for _, t := range types {
		if t == "_NET_WM_WINDOW_TYPE_DOCK" {
			return true
		}
	}
	return false
}

// add accumulates how far each strut reaches into m. Struts are given in
// root coordinates with inclusive start/end ranges.
func (s *struts) add(m Monitor, rootW, rootH int, sp *ewmh.WmStrutPartial) {
	if sp.Top > 0 {
		_, h := overlap(m, int(sp.TopStartX), 0, int(sp.TopEndX)+1, int(sp.Top))
		s.top = max(s.top, h)
	}
	if sp.Bottom > 0 {
		_, h := overlap(m, int(sp.BottomStartX), rootH-int(sp.Bottom), int(sp.BottomEndX)+1, rootH)
		s.bottom = max(s.bottom, h)
	}
	if sp.Left > 0 {
		w, _ := overlap(m, 0, int(sp.LeftStartY), int(sp.Left), int(sp.LeftEndY)+1)
		s.left = max(s.left, w)
	}
	if sp.Right > 0 {
		w, _ := overlap(m, rootW-int(sp.Right), int(sp.RightStartY), rootW, int(sp.RightEndY)+1)
		s.right = max(s.right, w)
	}
}

func overlap(m Monitor, x1, y1, x2, y2 int) (w, h int) {
	x1, y1 = max(x1, m.X), max(y1, m.Y)
	x2, y2 = min(x2, m.x2()), min(y2, m.y2())
	if x2 <= x1 || y2 <= y1 {
		return 0, 0
	}
	return x2 - x1, y2 - y1
}
