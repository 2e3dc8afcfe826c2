// Package maximize models maximization as a view over a toplevel's tiled
// edges. A toplevel is maximized along an axis when both edges of that axis
// are tiled.
//
// To test for vertical maximization (including full maximization):
//
//	m.Contains(maximize.Vertical)
//
// To test for exactly vertical and nothing else:
//
//	m == maximize.Vertical
package maximize

import (
	"fmt"
	"strings"

	"github.com/1broseidon/tilestate/internal/geometry"
)

// Maximization wraps a tiled-edge mask. Every valid mask is a legal value,
// including partially tiled ones such as top|left.
type Maximization struct {
	edges geometry.Edges
}

var (
	None       = Maximization{}
	Vertical   = Maximization{edges: geometry.EdgesVertical}
	Horizontal = Maximization{edges: geometry.EdgesHorizontal}
	Full       = Maximization{edges: geometry.EdgesAll}
)

// FromEdges converts a tiled-edge mask. Bits outside the four edges are
// dropped; use FromRaw to have them reported instead.
func FromEdges(e geometry.Edges) Maximization {
	return Maximization{edges: e & geometry.EdgesAll}
}

// FromRaw converts an untyped mask, rejecting bits outside the four edges.
func FromRaw(raw uint32) (Maximization, error) {
	e, err := geometry.ParseEdges(raw)
	if err != nil {
		return None, err
	}
	return Maximization{edges: e}, nil
}

// Parse accepts "none", "vertical", "horizontal", "full" or an edge list
// such as "top|left".
func Parse(s string) (Maximization, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none", "off":
		return None, nil
	case "vertical", "v":
		return Vertical, nil
	case "horizontal", "h":
		return Horizontal, nil
	case "full", "both", "on":
		return Full, nil
	}
	e, err := geometry.ParseEdgeNames(s)
	if err != nil {
		return None, fmt.Errorf("invalid maximization %q: %w", s, err)
	}
	return Maximization{edges: e}, nil
}

// Edges returns the tiled-edge mask this value stands for.
func (m Maximization) Edges() geometry.Edges {
	return m.edges
}

func (m Maximization) IsNone() bool       { return m.edges == geometry.EdgeNone }
func (m Maximization) IsVertical() bool   { return m.edges.VerticallyMaximized() }
func (m Maximization) IsHorizontal() bool { return m.edges.HorizontallyMaximized() }
func (m Maximization) IsFull() bool       { return m.edges.FullyMaximized() }

// IsPartial reports a tiled state in which no axis is complete.
func (m Maximization) IsPartial() bool {
	return !m.IsNone() && !m.IsVertical() && !m.IsHorizontal()
}

// Add sets the edges of o.
func (m Maximization) Add(o Maximization) Maximization {
	return Maximization{edges: m.edges | o.edges}
}

// Remove clears the edges of o.
func (m Maximization) Remove(o Maximization) Maximization {
	return Maximization{edges: m.edges &^ o.edges}
}

// Toggle flips the edges of o.
func (m Maximization) Toggle(o Maximization) Maximization {
	return Maximization{edges: m.edges ^ o.edges}
}

// Invert flips every edge.
func (m Maximization) Invert() Maximization {
	return m.Toggle(Full)
}

// Contains reports whether every edge of o is also set in m.
func (m Maximization) Contains(o Maximization) bool {
	return m.edges.Has(o.edges)
}

// Less reports whether m's edges are a strict subset of o's. This is a
// partial order: Vertical and Horizontal are not comparable.
func (m Maximization) Less(o Maximization) bool {
	return m != o && o.Contains(m)
}

// Equal reports whether both values tile the same edges.
func (m Maximization) Equal(o Maximization) bool {
	return m.edges == o.edges
}

// Lacks reports whether m shares no edge with o.
func (m Maximization) Lacks(o Maximization) bool {
	return m.edges&o.edges == geometry.EdgeNone
}

func (m Maximization) String() string {
	switch m {
	case None:
		return "none"
	case Vertical:
		return "vertical"
	case Horizontal:
		return "horizontal"
	case Full:
		return "full"
	}
	return m.edges.String()
}
