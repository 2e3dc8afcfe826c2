// Package grid places toplevels into layout slots and tracks which of their
// edges end up tiled against the work area.
package grid

import (
	"fmt"

	"github.com/1broseidon/tilestate/internal/config"
	"github.com/1broseidon/tilestate/internal/geometry"
	"github.com/1broseidon/tilestate/internal/maximize"
	"github.com/1broseidon/tilestate/internal/wm/internal/grant"
	"github.com/1broseidon/tilestate/internal/wm/toplevel"
)

// Grid edits pending state only; committing is up to the caller.
type Grid struct {
	token grant.Token
	// floating holds the geometry a toplevel had before it was first tiled
	// or maximized, keyed by object id.
	floating map[uint32]geometry.Box
}

func New() *Grid {
	return &Grid{
		token:    grant.Issue(),
		floating: make(map[uint32]geometry.Box),
	}
}

// Tile lays windows out inside workarea and returns the ones that got a slot,
// in slot order.
func (g *Grid) Tile(windows []*toplevel.Toplevel, workarea geometry.Box, layout *config.Layout, gap int) ([]*toplevel.Toplevel, error) {
	if layout == nil {
		return nil, fmt.Errorf("tile: no layout")
	}
	area := ApplyRegion(workarea, layout.TileRegion)
	slots, err := CalculatePositions(len(windows), area, layout, gap)
	if err != nil {
		return nil, err
	}

	placed := windows[:len(slots)]
	for i, t := range placed {
		g.remember(t)
		p := t.Pending()
		p.Geometry = slots[i]
		if err := p.SetTiledEdges(g.token, TouchingEdges(slots[i], workarea, gap)); err != nil {
			return nil, err
		}
	}
	return placed, nil
}

// TouchingEdges returns the edges of box that lie within tolerance of the
// matching edge of area.
func TouchingEdges(box, area geometry.Box, tolerance int) geometry.Edges {
	b, a := box.Rect(), area.Rect()
	var e geometry.Edges
	if abs(b.Y1-a.Y1) <= tolerance {
		e |= geometry.EdgeTop
	}
	if abs(a.Y2-b.Y2) <= tolerance {
		e |= geometry.EdgeBottom
	}
	if abs(b.X1-a.X1) <= tolerance {
		e |= geometry.EdgeLeft
	}
	if abs(a.X2-b.X2) <= tolerance {
		e |= geometry.EdgeRight
	}
	return e
}

// Maximize stretches the edges covered by m to workarea and puts the others
// back where the floating geometry had them. None restores the floating
// geometry completely.
func (g *Grid) Maximize(t *toplevel.Toplevel, m maximize.Maximization, workarea geometry.Box) {
	g.remember(t)
	p := t.Pending()
	floating, ok := g.floating[t.ObjectID()]
	if !ok {
		floating = p.Geometry
	}

	p.Geometry = geometry.SwitchIf(m.Edges(), workarea.Rect(), floating.Rect()).Box()
	p.SetMaximization(m)
	if m.IsNone() {
		delete(g.floating, t.ObjectID())
	}
}

// Swap exchanges the pending placement of a and b.
func (g *Grid) Swap(a, b *toplevel.Toplevel) error {
	pa, pb := a.Pending(), b.Pending()
	ea, eb := pa.TiledEdges(), pb.TiledEdges()

	pa.Geometry, pb.Geometry = pb.Geometry, pa.Geometry
	if err := pa.SetTiledEdges(g.token, eb); err != nil {
		return err
	}
	if err := pb.SetTiledEdges(g.token, ea); err != nil {
		return err
	}
	return nil
}

// Float clears the tiled edges of t and returns it to its remembered floating
// geometry, if there is one.
func (g *Grid) Float(t *toplevel.Toplevel) {
	p := t.Pending()
	if box, ok := g.floating[t.ObjectID()]; ok {
		p.Geometry = box
		delete(g.floating, t.ObjectID())
	}
	_ = p.SetTiledEdges(g.token, geometry.EdgeNone)
}

// Floating returns the remembered floating geometry of a toplevel.
func (g *Grid) Floating(id uint32) (geometry.Box, bool) {
	box, ok := g.floating[id]
	return box, ok
}

// Forget drops what the grid remembers about a toplevel.
func (g *Grid) Forget(id uint32) {
	delete(g.floating, id)
}

// remember records the floating geometry of t unless it is already tiled or
// already remembered.
func (g *Grid) remember(t *toplevel.Toplevel) {
	id := t.ObjectID()
	if _, ok := g.floating[id]; ok {
		return
	}
	p := t.Pending()
	if p.TiledEdges() != geometry.EdgeNone {
		return
	}
	g.floating[id] = p.Geometry
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
