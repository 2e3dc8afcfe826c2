package toplevel

import (
	"github.com/1broseidon/tilestate/internal/geometry"
	"github.com/1broseidon/tilestate/internal/maximize"
)

// ExpandByMargins grows box by margins on every edge not covered by m.
// Tiled edges carry no decoration and pass through unchanged.
func ExpandByMargins(box geometry.Box, margins geometry.Difference, m maximize.Maximization) geometry.Box {
	return geometry.ExpandIf(box, m.Edges(), geometry.Difference{}, margins)
}

// ShrinkByMargins is ExpandByMargins with the margins negated.
func ShrinkByMargins(box geometry.Box, margins geometry.Difference, m maximize.Maximization) geometry.Box {
	return ExpandByMargins(box, margins.Neg(), m)
}

// ExpandDimensionsByMargins grows a size by the margins of the edges not
// covered by m. It is used when negotiating min/max sizes with a client.
func ExpandDimensionsByMargins(d geometry.Dimensions, margins geometry.Difference, m maximize.Maximization) geometry.Dimensions {
	return ExpandByMargins(geometry.NewBox(geometry.Point{}, d), margins, m).Dimensions()
}

// ShrinkDimensionsByMargins is ExpandDimensionsByMargins with the margins
// negated.
func ShrinkDimensionsByMargins(d geometry.Dimensions, margins geometry.Difference, m maximize.Maximization) geometry.Dimensions {
	return ExpandDimensionsByMargins(d, margins.Neg(), m)
}
