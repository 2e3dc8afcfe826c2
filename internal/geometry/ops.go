package geometry

import "math"

// Intersection returns the overlap of a and b. When they do not overlap the
// result has zero width and height and an unspecified position, so callers
// must check the size rather than the origin.
func Intersection(a, b Box) Box {
	if a.Empty() || b.Empty() {
		return Box{}
	}
	x1 := max(a.X, b.X)
	y1 := max(a.Y, b.Y)
	x2 := min(a.X+a.Width, b.X+b.Width)
	y2 := min(a.Y+a.Height, b.Y+b.Height)
	if x2 <= x1 || y2 <= y1 {
		return Box{}
	}
	return Rectangle{X1: x1, Y1: y1, X2: x2, Y2: y2}.Box()
}

// ClampInt returns the value closest to v inside [lo, hi].
func ClampInt(v, lo, hi int) int {
	return min(max(v, lo), hi)
}

// Clamp returns the box closest to box that lies completely inside bounds.
// The size is kept when it fits and shrunk only when it does not; the result
// is never bigger than box.
func Clamp(box, bounds Box) Box {
	box.Width = ClampInt(box.Width, 0, bounds.Width)
	box.Height = ClampInt(box.Height, 0, bounds.Height)
	box.X = ClampInt(box.X, bounds.X, bounds.X+bounds.Width-box.Width)
	box.Y = ClampInt(box.Y, bounds.Y, bounds.Y+bounds.Height-box.Height)
	return box
}

// ScaleBox maps box from coordinate space a into coordinate space b so that
// it covers the same relative part of b as it did of a. Both corners are
// floored, which keeps boxes that were adjacent in a adjacent in b.
// A degenerate a yields a zero-size box at b's origin.
func ScaleBox(a, b, box Box) Box {
	if a.Width <= 0 || a.Height <= 0 {
		return Box{X: b.X, Y: b.Y}
	}
	sx := float64(b.Width) / float64(a.Width)
	sy := float64(b.Height) / float64(a.Height)

	r := RectangleFrom(box)
	return Rectangle{
		X1: b.X + int(math.Floor(float64(r.X1-a.X)*sx)),
		Y1: b.Y + int(math.Floor(float64(r.Y1-a.Y)*sy)),
		X2: b.X + int(math.Floor(float64(r.X2-a.X)*sx)),
		Y2: b.Y + int(math.Floor(float64(r.Y2-a.Y)*sy)),
	}.Box()
}

// ExpandIf moves each edge of box outward by tiledDelta when that edge is in
// tiled and by delta otherwise. Negative values move the edge inward.
func ExpandIf(box Box, tiled Edges, tiledDelta, delta Difference) Box {
	r := RectangleFrom(box)
	r.X1 -= pick(tiled, EdgeLeft, tiledDelta.Left, delta.Left)
	r.Y1 -= pick(tiled, EdgeTop, tiledDelta.Top, delta.Top)
	r.X2 += pick(tiled, EdgeRight, tiledDelta.Right, delta.Right)
	r.Y2 += pick(tiled, EdgeBottom, tiledDelta.Bottom, delta.Bottom)
	return r.Box()
}

// SwitchIf builds a rectangle edge by edge, taking the coordinate from
// ifTiled for edges in tiled and from ifNotTiled for the rest.
func SwitchIf(tiled Edges, ifTiled, ifNotTiled Rectangle) Rectangle {
	return Rectangle{
		X1: pick(tiled, EdgeLeft, ifTiled.X1, ifNotTiled.X1),
		Y1: pick(tiled, EdgeTop, ifTiled.Y1, ifNotTiled.Y1),
		X2: pick(tiled, EdgeRight, ifTiled.X2, ifNotTiled.X2),
		Y2: pick(tiled, EdgeBottom, ifTiled.Y2, ifNotTiled.Y2),
	}
}

func pick(mask, edge Edges, a, b int) int {
	if mask&edge != 0 {
		return a
	}
	return b
}
