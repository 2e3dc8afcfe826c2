// Package toplevel holds the double-buffered state of a top-level window and
// the hooks it needs to take part in transactions.
package toplevel

import (
	"fmt"

	"github.com/1broseidon/tilestate/internal/geometry"
	"github.com/1broseidon/tilestate/internal/maximize"
	"github.com/1broseidon/tilestate/internal/wm/internal/grant"
)

// State is one buffer of a toplevel's attributes.
type State struct {
	Mapped   bool
	Geometry geometry.Box
	// Gravity is the corner that stays fixed when the client picks a size
	// other than the one requested.
	Gravity    geometry.Edges
	Fullscreen bool
	// Margins is the space server-side decorations take around the content.
	Margins geometry.Difference

	tiledEdges geometry.Edges
}

// DefaultState is the state a toplevel starts with.
func DefaultState() State {
	return State{
		Geometry: geometry.Box{X: 100, Y: 100},
		Gravity:  geometry.EdgeTop | geometry.EdgeLeft,
	}
}

// TiledEdges returns the edges aligned to another surface or output edge.
func (s State) TiledEdges() geometry.Edges {
	return s.tiledEdges
}

// Maximization returns the tiled edges as a maximization value.
func (s State) Maximization() maximize.Maximization {
	return maximize.FromEdges(s.tiledEdges)
}

// SetMaximization tiles exactly the edges of m. No other field changes.
func (s *State) SetMaximization(m maximize.Maximization) {
	s.tiledEdges = m.Edges()
}

// SetTiledEdges writes the tiled-edge mask directly.
func (s *State) SetTiledEdges(_ grant.Token, e geometry.Edges) error {
	if !e.Valid() {
		return fmt.Errorf("set tiled edges %#x: %w", uint32(e), geometry.ErrInvalidEdges)
	}
	s.tiledEdges = e
	return nil
}

// ContentGeometry is the geometry without the decoration margins of the
// edges that are not tiled.
func (s State) ContentGeometry() geometry.Box {
	return ShrinkByMargins(s.Geometry, s.Margins, s.Maximization())
}

func (s State) String() string {
	return fmt.Sprintf("mapped=%t geometry=%v gravity=%v tiled=%v fullscreen=%t margins=%v",
		s.Mapped, s.Geometry, s.Gravity, s.tiledEdges, s.Fullscreen, s.Margins)
}
