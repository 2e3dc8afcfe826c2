// Package resize implements interactive resizing of a toplevel by one edge
// or one corner.
package resize

import (
	"errors"
	"fmt"

	"github.com/1broseidon/tilestate/internal/geometry"
	"github.com/1broseidon/tilestate/internal/wm/internal/grant"
	"github.com/1broseidon/tilestate/internal/wm/toplevel"
)

var (
	ErrInvalidEdges = errors.New("invalid resize edges")
	ErrEnded        = errors.New("resize grab already ended")
)

// Grab is an ongoing resize. Every Update is relative to the geometry the
// toplevel had when the grab began.
type Grab struct {
	t     *toplevel.Toplevel
	edges geometry.Edges
	start geometry.Box
	ended bool
}

// Begin starts resizing t by the given edges. A resized window is no longer
// tiled, so its tiled edges are cleared, and its gravity is set to the corner
// that stays put.
func Begin(t *toplevel.Toplevel, edges geometry.Edges) (*Grab, error) {
	if edges == geometry.EdgeNone || !edges.Valid() ||
		edges.Has(geometry.EdgesVertical) || edges.Has(geometry.EdgesHorizontal) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEdges, edges)
	}

	p := t.Pending()
	if err := p.SetTiledEdges(grant.Issue(), geometry.EdgeNone); err != nil {
		return nil, err
	}
	p.Gravity = anchor(edges)

	return &Grab{t: t, edges: edges, start: p.Geometry}, nil
}

// anchor returns the corner opposite the grabbed edges. An axis that is not
// being resized keeps its top or left edge.
func anchor(edges geometry.Edges) geometry.Edges {
	g := edges.Opposite()
	if edges&geometry.EdgesVertical == 0 {
		g |= geometry.EdgeTop
	}
	if edges&geometry.EdgesHorizontal == 0 {
		g |= geometry.EdgeLeft
	}
	return g
}

// Edges returns the edges being dragged.
func (g *Grab) Edges() geometry.Edges {
	return g.edges
}

// Update moves the grabbed edges by delta and writes the resulting geometry
// to the pending state. The size respects the client's size hints widened by
// the decoration margins; the anchored edges never move.
func (g *Grab) Update(delta geometry.Point) (geometry.Box, error) {
	if g.ended {
		return geometry.Box{}, ErrEnded
	}

	r := g.start.Rect()
	if g.edges&geometry.EdgeLeft != 0 {
		r.X1 += delta.X
	}
	if g.edges&geometry.EdgeRight != 0 {
		r.X2 += delta.X
	}
	if g.edges&geometry.EdgeTop != 0 {
		r.Y1 += delta.Y
	}
	if g.edges&geometry.EdgeBottom != 0 {
		r.Y2 += delta.Y
	}

	p := g.t.Pending()
	size := g.constrain(r.Box().Dimensions(), p)

	box := geometry.NewBox(g.start.Origin(), size)
	if g.edges&geometry.EdgeLeft != 0 {
		box.X = g.start.X + g.start.Width - size.Width
	}
	if g.edges&geometry.EdgeTop != 0 {
		box.Y = g.start.Y + g.start.Height - size.Height
	}

	p.Geometry = box
	return box, nil
}

func (g *Grab) constrain(d geometry.Dimensions, p *toplevel.State) geometry.Dimensions {
	m := p.Maximization()
	lo := toplevel.ExpandDimensionsByMargins(g.t.MinSize(), p.Margins, m)
	hi := toplevel.ExpandDimensionsByMargins(g.t.MaxSize(), p.Margins, m)

	if g.t.MinSize().Width > 0 {
		d.Width = max(d.Width, lo.Width)
	}
	if g.t.MinSize().Height > 0 {
		d.Height = max(d.Height, lo.Height)
	}
	if g.t.MaxSize().Width > 0 {
		d.Width = min(d.Width, hi.Width)
	}
	if g.t.MaxSize().Height > 0 {
		d.Height = min(d.Height, hi.Height)
	}
	d.Width = max(d.Width, 1)
	d.Height = max(d.Height, 1)
	return d
}

// End finishes the grab. Further updates fail.
func (g *Grab) End() {
	g.ended = true
}
