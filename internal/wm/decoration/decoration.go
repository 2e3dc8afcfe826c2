// Package decoration decides how much room server-side decorations take
// around each toplevel and keeps fullscreen windows undecorated.
package decoration

import (
	"github.com/1broseidon/tilestate/internal/geometry"
	"github.com/1broseidon/tilestate/internal/wm/internal/grant"
	"github.com/1broseidon/tilestate/internal/wm/toplevel"
)

// Decorator edits pending state only.
type Decorator struct {
	token      grant.Token
	enabled    bool
	margins    geometry.Difference
	useExtents bool
	extents    map[uint32]geometry.Difference
	restore    map[uint32]windowed
}

// windowed is what a toplevel looked like before it went fullscreen.
type windowed struct {
	geometry geometry.Box
	tiled    geometry.Edges
}

// New creates a decorator. When useExtents is set, frame extents reported
// for a window take precedence over margins.
func New(enabled bool, margins geometry.Difference, useExtents bool) *Decorator {
	return &Decorator{
		token:      grant.Issue(),
		enabled:    enabled,
		margins:    margins,
		useExtents: useExtents,
		extents:    make(map[uint32]geometry.Difference),
		restore:    make(map[uint32]windowed),
	}
}

// Configure replaces the decoration settings, for config reloads.
func (d *Decorator) Configure(enabled bool, margins geometry.Difference, useExtents bool) {
	d.enabled = enabled
	d.margins = margins
	d.useExtents = useExtents
}

// SetFrameExtents records the extents the X server reports for a window.
func (d *Decorator) SetFrameExtents(id uint32, extents geometry.Difference) {
	d.extents[id] = extents
}

// Forget drops everything recorded for a window.
func (d *Decorator) Forget(id uint32) {
	delete(d.extents, id)
	delete(d.restore, id)
}

// Margins returns the decoration margins a window gets when it is not
// fullscreen.
func (d *Decorator) Margins(id uint32) geometry.Difference {
	if !d.enabled {
		return geometry.Difference{}
	}
	if d.useExtents {
		if e, ok := d.extents[id]; ok {
			return e
		}
	}
	return d.margins
}

// Decorate writes the margins for t into its pending state. Fullscreen
// windows have no decoration and every edge tiled.
func (d *Decorator) Decorate(t *toplevel.Toplevel) error {
	p := t.Pending()
	if p.Fullscreen {
		p.Margins = geometry.Difference{}
		return p.SetTiledEdges(d.token, geometry.EdgesAll)
	}
	p.Margins = d.Margins(t.ObjectID())
	return nil
}

// SetFullscreen makes t cover output, or puts it back where it was before
// it went fullscreen.
func (d *Decorator) SetFullscreen(t *toplevel.Toplevel, on bool, output geometry.Box) error {
	p := t.Pending()
	id := t.ObjectID()

	switch {
	case on && !p.Fullscreen:
		d.restore[id] = windowed{geometry: p.Geometry, tiled: p.TiledEdges()}
		p.Fullscreen = true
		p.Geometry = output
	case on:
		p.Geometry = output
	case p.Fullscreen:
		p.Fullscreen = false
		prev, ok := d.restore[id]
		delete(d.restore, id)
		if ok {
			p.Geometry = prev.geometry
			if err := p.SetTiledEdges(d.token, prev.tiled); err != nil {
				return err
			}
		} else if err := p.SetTiledEdges(d.token, geometry.EdgeNone); err != nil {
			return err
		}
	}
	return d.Decorate(t)
}
