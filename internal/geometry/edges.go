package geometry

import (
	"errors"
	"fmt"
	"strings"
)

// Edges is a bitmask of box edges. The bit values match wlroots' WLR_EDGE_*.
type Edges uint32

const (
	EdgeNone   Edges = 0
	EdgeTop    Edges = 1
	EdgeBottom Edges = 2
	EdgeLeft   Edges = 4
	EdgeRight  Edges = 8

	// EdgesVertical is the top and bottom edge; tiling both means vertically maximized.
	EdgesVertical = EdgeTop | EdgeBottom
	// EdgesHorizontal is the left and right edge; tiling both means horizontally maximized.
	EdgesHorizontal = EdgeLeft | EdgeRight
	// EdgesAll covers every edge.
	EdgesAll = EdgesVertical | EdgesHorizontal
)

// ErrInvalidEdges is returned for masks carrying bits outside EdgesAll.
var ErrInvalidEdges = errors.New("invalid edge mask")

// ParseEdges validates a raw mask.
func ParseEdges(raw uint32) (Edges, error) {
	e := Edges(raw)
	if !e.Valid() {
		return EdgeNone, fmt.Errorf("%w: 0x%x", ErrInvalidEdges, raw)
	}
	return e, nil
}

// ParseEdgeNames parses a list such as "top|left" or "bottom,right".
// "all" and "none" are accepted as shorthands.
func ParseEdgeNames(s string) (Edges, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return EdgeNone, nil
	}
	var out Edges
	for _, part := range strings.FieldsFunc(s, func(r rune) bool { return r == '|' || r == ',' || r == ' ' }) {
		switch strings.ToLower(part) {
		case "top":
			out |= EdgeTop
		case "bottom":
			out |= EdgeBottom
		case "left":
			out |= EdgeLeft
		case "right":
			out |= EdgeRight
		case "all":
			out |= EdgesAll
		case "none":
		default:
			return EdgeNone, fmt.Errorf("%w: unknown edge %q", ErrInvalidEdges, part)
		}
	}
	return out, nil
}

// Valid reports whether the mask only uses the four edge bits.
func (e Edges) Valid() bool {
	return e&^EdgesAll == 0
}

// Has reports whether every edge in o is set in e.
func (e Edges) Has(o Edges) bool {
	return e&o == o
}

// HorizontallyMaximized reports whether both the left and right edge are set.
func (e Edges) HorizontallyMaximized() bool {
	return e.Has(EdgesHorizontal)
}

// VerticallyMaximized reports whether both the top and bottom edge are set.
func (e Edges) VerticallyMaximized() bool {
	return e.Has(EdgesVertical)
}

// FullyMaximized reports whether all four edges are set.
func (e Edges) FullyMaximized() bool {
	return e.Has(EdgesAll)
}

// Opposite mirrors every edge: top becomes bottom, left becomes right.
func (e Edges) Opposite() Edges {
	var out Edges
	if e&EdgeTop != 0 {
		out |= EdgeBottom
	}
	if e&EdgeBottom != 0 {
		out |= EdgeTop
	}
	if e&EdgeLeft != 0 {
		out |= EdgeRight
	}
	if e&EdgeRight != 0 {
		out |= EdgeLeft
	}
	return out
}

func (e Edges) String() string {
	if e == EdgeNone {
		return "none"
	}
	var parts []string
	for _, n := range []struct {
		edge Edges
		name string
	}{
		{EdgeTop, "top"},
		{EdgeBottom, "bottom"},
		{EdgeLeft, "left"},
		{EdgeRight, "right"},
	} {
		if e&n.edge != 0 {
			parts = append(parts, n.name)
		}
	}
	if extra := e &^ EdgesAll; extra != 0 {
		parts = append(parts, fmt.Sprintf("0x%x", uint32(extra)))
	}
	return strings.Join(parts, "|")
}
