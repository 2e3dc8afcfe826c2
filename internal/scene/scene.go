// Package scene describes the output layout windows are placed on.
package scene

import (
	"fmt"

	"github.com/1broseidon/tilestate/internal/geometry"
	"github.com/1broseidon/tilestate/internal/platform"
)

// Output is one monitor. Usable is the part of Bounds windows are tiled
// into: the work area left by docks, shrunk by the configured padding.
type Output struct {
	ID     int
	Name   string
	Bounds geometry.Box
	Usable geometry.Box
}

// Layout is an immutable snapshot of the outputs.
type Layout struct {
	outputs []Output
}

// New builds a layout from the platform displays.
func New(displays []platform.Display, padding geometry.Difference) *Layout {
	l := &Layout{outputs: make([]Output, 0, len(displays))}
	for _, d := range displays {
		usable := d.Usable
		if usable.Empty() {
			usable = d.Bounds
		}
		usable = usable.Shrink(padding)
		usable.Width = max(usable.Width, 1)
		usable.Height = max(usable.Height, 1)

		l.outputs = append(l.outputs, Output{
			ID:     d.ID,
			Name:   d.Name,
			Bounds: d.Bounds,
			Usable: usable,
		})
	}
	return l
}

// Outputs returns a copy of the outputs.
func (l *Layout) Outputs() []Output {
	return append([]Output(nil), l.outputs...)
}

// Output returns the output with the given id.
func (l *Layout) Output(id int) (Output, error) {
	for _, o := range l.outputs {
		if o.ID == id {
			return o, nil
		}
	}
	return Output{}, fmt.Errorf("output %d not found", id)
}

// OutputByName looks an output up by its RandR name.
func (l *Layout) OutputByName(name string) (Output, error) {
	for _, o := range l.outputs {
		if o.Name == name {
			return o, nil
		}
	}
	return Output{}, fmt.Errorf("output %q not found", name)
}

// OutputAt returns the output containing p.
func (l *Layout) OutputAt(p geometry.Point) (Output, bool) {
	for _, o := range l.outputs {
		if o.Bounds.ContainsPoint(p) {
			return o, true
		}
	}
	return Output{}, false
}

// OutputFor returns the output sharing the largest area with box. A box on
// no output belongs to the first one.
func (l *Layout) OutputFor(box geometry.Box) (Output, bool) {
	if len(l.outputs) == 0 {
		return Output{}, false
	}
	best, bestArea := l.outputs[0], -1
	for _, o := range l.outputs {
		i := geometry.Intersection(o.Bounds, box)
		if area := i.Width * i.Height; area > bestArea {
			best, bestArea = o, area
		}
	}
	return best, true
}

// Convert moves box from one output to another, keeping its position and
// size relative to the usable area.
func Convert(box geometry.Box, from, to Output) geometry.Box {
	return geometry.ScaleBox(from.Usable, to.Usable, box)
}

// Clamp keeps box inside the usable area of o.
func Clamp(box geometry.Box, o Output) geometry.Box {
	return geometry.Clamp(box, o.Usable)
}
