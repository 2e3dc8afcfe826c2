// Package geometry holds the 2D value types and box algebra used by the
// toplevel state machine: points, dimensions, boxes, rectangles, per-edge
// differences and tiled-edge masks.
package geometry

import (
	"fmt"
	"math"
)

// Point is an integer 2D coordinate.
type Point struct {
	X int
	Y int
}

// Add returns p + o.
func (p Point) Add(o Point) Point {
	return Point{X: p.X + o.X, Y: p.Y + o.Y}
}

// Sub returns p - o.
func (p Point) Sub(o Point) Point {
	return Point{X: p.X - o.X, Y: p.Y - o.Y}
}

// Neg returns -p.
func (p Point) Neg() Point {
	return Point{X: -p.X, Y: -p.Y}
}

// Length returns the euclidean length of p as a vector.
func (p Point) Length() float64 {
	return math.Hypot(float64(p.X), float64(p.Y))
}

func (p Point) String() string {
	return fmt.Sprintf("(%d,%d)", p.X, p.Y)
}

// PointF is a floating point 2D coordinate.
type PointF struct {
	X float64
	Y float64
}

// PointFFrom converts an integer point.
func PointFFrom(p Point) PointF {
	return PointF{X: float64(p.X), Y: float64(p.Y)}
}

func (p PointF) Add(o PointF) PointF {
	return PointF{X: p.X + o.X, Y: p.Y + o.Y}
}

func (p PointF) Sub(o PointF) PointF {
	return PointF{X: p.X - o.X, Y: p.Y - o.Y}
}

func (p PointF) Neg() PointF {
	return PointF{X: -p.X, Y: -p.Y}
}

// RoundDown truncates both coordinates toward zero.
func (p PointF) RoundDown() Point {
	return Point{X: int(p.X), Y: int(p.Y)}
}

// Round rounds both coordinates to the nearest integer, halves away from zero.
func (p PointF) Round() Point {
	return Point{X: int(math.Round(p.X)), Y: int(math.Round(p.Y))}
}

func (p PointF) String() string {
	return fmt.Sprintf("(%.3f,%.3f)", p.X, p.Y)
}

// Dimensions is a width/height pair. Negative values are not meaningful but
// are carried through untouched.
type Dimensions struct {
	Width  int
	Height int
}

func (d Dimensions) String() string {
	return fmt.Sprintf("%dx%d", d.Width, d.Height)
}

// Box is an axis-aligned rectangle given by its top-left corner and size.
type Box struct {
	X      int
	Y      int
	Width  int
	Height int
}

// NewBox builds a box from an origin and dimensions.
func NewBox(origin Point, dims Dimensions) Box {
	return Box{X: origin.X, Y: origin.Y, Width: dims.Width, Height: dims.Height}
}

// Origin returns the top-left corner.
func (b Box) Origin() Point {
	return Point{X: b.X, Y: b.Y}
}

// Dimensions returns the size of the box.
func (b Box) Dimensions() Dimensions {
	return Dimensions{Width: b.Width, Height: b.Height}
}

// Empty reports whether the box has no area.
func (b Box) Empty() bool {
	return b.Width <= 0 || b.Height <= 0
}

// Translate moves the box by p.
func (b Box) Translate(p Point) Box {
	b.X += p.X
	b.Y += p.Y
	return b
}

// Scale multiplies every coordinate by s. The top-left corner is floored and
// the bottom-right corner is ceiled so the result always covers the input.
func (b Box) Scale(s float64) Box {
	x1 := int(math.Floor(float64(b.X) * s))
	y1 := int(math.Floor(float64(b.Y) * s))
	x2 := int(math.Ceil(float64(b.X+b.Width) * s))
	y2 := int(math.Ceil(float64(b.Y+b.Height) * s))
	return Rectangle{X1: x1, Y1: y1, X2: x2, Y2: y2}.Box()
}

// ContainsPoint reports whether p lies inside the box.
func (b Box) ContainsPoint(p Point) bool {
	return p.X >= b.X && p.X < b.X+b.Width &&
		p.Y >= b.Y && p.Y < b.Y+b.Height
}

// ContainsPointF reports whether p lies inside the box.
func (b Box) ContainsPointF(p PointF) bool {
	return p.X >= float64(b.X) && p.X < float64(b.X+b.Width) &&
		p.Y >= float64(b.Y) && p.Y < float64(b.Y+b.Height)
}

// Intersects reports whether the two boxes share at least one point.
func (b Box) Intersects(o Box) bool {
	return !(b.X >= o.X+o.Width || o.X >= b.X+b.Width ||
		b.Y >= o.Y+o.Height || o.Y >= b.Y+b.Height)
}

// Expand grows every edge outward by the matching displacement in d.
// Negative displacements move the edge inward.
func (b Box) Expand(d Difference) Box {
	return Box{
		X:      b.X - d.Left,
		Y:      b.Y - d.Top,
		Width:  b.Width + d.Left + d.Right,
		Height: b.Height + d.Top + d.Bottom,
	}
}

// Shrink is Expand with every displacement negated.
func (b Box) Shrink(d Difference) Box {
	return b.Expand(d.Neg())
}

// DiffFrom returns the difference d for which from.Expand(d) == b.
func (b Box) DiffFrom(from Box) Difference {
	return Difference{
		Left:   from.X - b.X,
		Right:  b.X + b.Width - (from.X + from.Width),
		Top:    from.Y - b.Y,
		Bottom: b.Y + b.Height - (from.Y + from.Height),
	}
}

// Rect converts to the corner form.
func (b Box) Rect() Rectangle {
	return RectangleFrom(b)
}

func (b Box) String() string {
	return fmt.Sprintf("(%d,%d) %dx%d", b.X, b.Y, b.Width, b.Height)
}

// Rectangle is the corner form of a box: X1/Y1 inclusive, X2/Y2 one past the
// bottom-right pixel.
type Rectangle struct {
	X1, Y1 int
	X2, Y2 int
}

// RectangleFrom converts a box into corner form.
func RectangleFrom(b Box) Rectangle {
	return Rectangle{X1: b.X, Y1: b.Y, X2: b.X + b.Width, Y2: b.Y + b.Height}
}

// Box converts back to origin + size form.
func (r Rectangle) Box() Box {
	return Box{X: r.X1, Y: r.Y1, Width: r.X2 - r.X1, Height: r.Y2 - r.Y1}
}

func (r Rectangle) String() string {
	return fmt.Sprintf("(%d,%d)-(%d,%d)", r.X1, r.Y1, r.X2, r.Y2)
}

// Difference is an outward displacement of each of the four edges of a box.
// It is a transform, not a geometry: it can be added to or subtracted from a
// Box, and two boxes can be subtracted to produce one.
type Difference struct {
	Left   int
	Right  int
	Top    int
	Bottom int
}

// Neg flips the sign of every displacement.
func (d Difference) Neg() Difference {
	return Difference{Left: -d.Left, Right: -d.Right, Top: -d.Top, Bottom: -d.Bottom}
}

// IsZero reports whether all displacements are zero.
func (d Difference) IsZero() bool {
	return d == Difference{}
}

func (d Difference) String() string {
	return fmt.Sprintf("{left:%d right:%d top:%d bottom:%d}", d.Left, d.Right, d.Top, d.Bottom)
}
