package grid

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/1broseidon/tilestate/internal/config"
	"github.com/1broseidon/tilestate/internal/geometry"
	"github.com/1broseidon/tilestate/internal/maximize"
	"github.com/1broseidon/tilestate/internal/wm/toplevel"
)

func floatingToplevel(id uint32, box geometry.Box) *toplevel.Toplevel {
	s := toplevel.DefaultState()
	s.Mapped = true
	s.Geometry = box
	return toplevel.Restore(id, nil, s)
}

func TestTileSetsGeometryAndTiledEdges(t *testing.T) {
	g := New()
	a := floatingToplevel(1, geometry.Box{X: 10, Y: 10, Width: 300, Height: 200})
	b := floatingToplevel(2, geometry.Box{X: 50, Y: 50, Width: 300, Height: 200})
	layout := &config.Layout{Mode: config.LayoutModeHorizontal, TileRegion: config.TileRegion{Type: config.RegionFull}}
	workarea := geometry.Box{X: 0, Y: 0, Width: 1000, Height: 500}

	placed, err := g.Tile([]*toplevel.Toplevel{a, b}, workarea, layout, 0)
	require.NoError(t, err)
	require.Len(t, placed, 2)

	assert.Equal(t, geometry.Box{X: 0, Y: 0, Width: 500, Height: 500}, a.Pending().Geometry)
	assert.Equal(t, geometry.Box{X: 500, Y: 0, Width: 500, Height: 500}, b.Pending().Geometry)
	assert.Equal(t, geometry.EdgeTop|geometry.EdgeBottom|geometry.EdgeLeft, a.Pending().TiledEdges())
	assert.Equal(t, geometry.EdgeTop|geometry.EdgeBottom|geometry.EdgeRight, b.Pending().TiledEdges())

	// Only pending changes; committed waits for a transaction.
	assert.Equal(t, geometry.Box{X: 10, Y: 10, Width: 300, Height: 200}, a.Committed().Geometry)

	box, ok := g.Floating(1)
	require.True(t, ok)
	assert.Equal(t, geometry.Box{X: 10, Y: 10, Width: 300, Height: 200}, box)
}

func TestTileWithGapStillTouchesWorkarea(t *testing.T) {
	g := New()
	a := floatingToplevel(1, geometry.Box{Width: 100, Height: 100})
	layout := &config.Layout{Mode: config.LayoutModeAuto}
	workarea := geometry.Box{X: 0, Y: 0, Width: 1000, Height: 500}

	_, err := g.Tile([]*toplevel.Toplevel{a}, workarea, layout, 8)
	require.NoError(t, err)
	assert.Equal(t, geometry.Box{X: 8, Y: 8, Width: 984, Height: 484}, a.Pending().Geometry)
	assert.Equal(t, geometry.EdgesAll, a.Pending().TiledEdges())
}

func TestTouchingEdges(t *testing.T) {
	area := geometry.Box{X: 0, Y: 0, Width: 100, Height: 100}

	assert.Equal(t, geometry.EdgesAll, TouchingEdges(area, area, 0))
	assert.Equal(t, geometry.EdgeNone, TouchingEdges(geometry.Box{X: 10, Y: 10, Width: 10, Height: 10}, area, 5))
	assert.Equal(t, geometry.EdgeTop|geometry.EdgeLeft, TouchingEdges(geometry.Box{X: 4, Y: 0, Width: 10, Height: 10}, area, 5))
}

func TestMaximizeKeepsFloatingEdges(t *testing.T) {
	g := New()
	floating := geometry.Box{X: 100, Y: 200, Width: 800, Height: 600}
	tl := floatingToplevel(1, floating)
	workarea := geometry.Box{X: 0, Y: 0, Width: 1920, Height: 1080}

	g.Maximize(tl, maximize.Vertical, workarea)
	assert.Equal(t, geometry.Box{X: 100, Y: 0, Width: 800, Height: 1080}, tl.Pending().Geometry)
	assert.Equal(t, maximize.Vertical, tl.Pending().Maximization())

	g.Maximize(tl, maximize.Full, workarea)
	assert.Equal(t, workarea, tl.Pending().Geometry)

	g.Maximize(tl, maximize.None, workarea)
	assert.Equal(t, floating, tl.Pending().Geometry)
	assert.True(t, tl.Pending().Maximization().IsNone())

	_, ok := g.Floating(1)
	assert.False(t, ok)
}

func TestSwapExchangesPlacement(t *testing.T) {
	g := New()
	a := floatingToplevel(1, geometry.Box{X: 0, Y: 0, Width: 500, Height: 500})
	b := floatingToplevel(2, geometry.Box{X: 500, Y: 0, Width: 500, Height: 500})
	require.NoError(t, a.Pending().SetTiledEdges(g.token, geometry.EdgeLeft))
	require.NoError(t, b.Pending().SetTiledEdges(g.token, geometry.EdgeRight))

	require.NoError(t, g.Swap(a, b))
	assert.Equal(t, 500, a.Pending().Geometry.X)
	assert.Equal(t, 0, b.Pending().Geometry.X)
	assert.Equal(t, geometry.EdgeRight, a.Pending().TiledEdges())
	assert.Equal(t, geometry.EdgeLeft, b.Pending().TiledEdges())
}

func TestFloatRestoresRememberedGeometry(t *testing.T) {
	g := New()
	floating := geometry.Box{X: 30, Y: 40, Width: 200, Height: 100}
	tl := floatingToplevel(1, floating)
	layout := &config.Layout{Mode: config.LayoutModeAuto}

	_, err := g.Tile([]*toplevel.Toplevel{tl}, geometry.Box{Width: 800, Height: 600}, layout, 0)
	require.NoError(t, err)

	g.Float(tl)
	assert.Equal(t, floating, tl.Pending().Geometry)
	assert.Equal(t, geometry.EdgeNone, tl.Pending().TiledEdges())

	g.Forget(1)
	_, ok := g.Floating(1)
	assert.False(t, ok)
}

func TestTileRejectsMissingLayout(t *testing.T) {
	_, err := New().Tile(nil, geometry.Box{Width: 10, Height: 10}, nil, 0)
	assert.Error(t, err)
}
