package grid

import (
	"fmt"
	"math"

	"github.com/1broseidon/tilestate/internal/config"
	"github.com/1broseidon/tilestate/internal/geometry"
)

// CalculateGrid returns the rows and columns of the most square grid that
// holds n windows.
func CalculateGrid(n int) (rows, cols int) {
	if n <= 0 {
		return 0, 0
	}
	cols = int(math.Ceil(math.Sqrt(float64(n))))
	rows = int(math.Ceil(float64(n) / float64(cols)))
	return rows, cols
}

// CalculatePositions computes one slot per window inside area. Fixed and
// master-stack layouts have a capacity, so fewer slots than windows may be
// returned.
func CalculatePositions(n int, area geometry.Box, layout *config.Layout, gap int) ([]geometry.Box, error) {
	if n <= 0 {
		return nil, nil
	}

	flexible := layout.FlexibleLastRow
	var rows, cols int

	switch layout.Mode {
	case config.LayoutModeAuto:
		rows, cols = CalculateGrid(n)
	case config.LayoutModeFixed:
		rows, cols = layout.FixedGrid.Rows, layout.FixedGrid.Cols
		n = min(n, rows*cols)
		flexible = false
	case config.LayoutModeVertical:
		rows, cols = n, 1
		flexible = false
	case config.LayoutModeHorizontal:
		rows, cols = 1, n
		flexible = false
	case config.LayoutModeMasterStack:
		return masterStack(n, area, layout.MasterStack, gap)
	default:
		return nil, fmt.Errorf("unsupported layout mode: %q", layout.Mode)
	}

	if rows <= 0 || cols <= 0 {
		return nil, fmt.Errorf("invalid grid dimensions: rows=%d cols=%d", rows, cols)
	}

	slotW := (area.Width - (cols+1)*gap) / cols
	slotH := (area.Height - (rows+1)*gap) / rows
	if slotW <= 0 || slotH <= 0 {
		return nil, fmt.Errorf(
			"insufficient space for layout: area=%dx%d rows=%d cols=%d gap=%d (slot=%dx%d)",
			area.Width, area.Height, rows, cols, gap, slotW, slotH,
		)
	}
	winW := capSize(slotW, layout.MaxWindowWidth)
	winH := capSize(slotH, layout.MaxWindowHeight)

	lastRow := rows - 1
	inLastRow := n - lastRow*cols
	if inLastRow <= 0 {
		inLastRow = cols
	}
	stretchLast := flexible && inLastRow < cols

	var lastSlotW, lastWinW int
	if stretchLast {
		lastSlotW = (area.Width - (inLastRow+1)*gap) / inLastRow
		lastWinW = capSize(lastSlotW, layout.MaxWindowWidth)
	}

	out := make([]geometry.Box, n)
	for i := range out {
		row, col := i/cols, i%cols
		sw, ww := slotW, winW
		if stretchLast && row == lastRow {
			col = i - lastRow*cols
			sw, ww = lastSlotW, lastWinW
		}

		x := area.X + gap + col*(sw+gap)
		y := area.Y + gap + row*(slotH+gap)
		// Windows smaller than their slot are centred in it.
		x += (sw - ww) / 2
		y += (slotH - winH) / 2

		out[i] = geometry.Box{X: x, Y: y, Width: ww, Height: winH}
	}
	return out, nil
}

// masterStack puts the first window in a full-height pane on the left and
// grids the rest on the right.
func masterStack(n int, area geometry.Box, ms config.MasterStack, gap int) ([]geometry.Box, error) {
	masterW := area.Width*ms.MasterWidthPercent/100 - gap
	fullH := area.Height - 2*gap
	master := geometry.Box{X: area.X + gap, Y: area.Y + gap, Width: masterW, Height: fullH}

	if n == 1 {
		return []geometry.Box{master}, nil
	}

	stackX := area.X + masterW + 2*gap
	stackW := area.Width - masterW - 3*gap

	stack := n - 1
	cols := int(math.Ceil(float64(stack) / float64(ms.MaxStackRows)))
	cols = geometry.ClampInt(cols, 1, max(ms.MaxStackCols, 1))
	rows := min(int(math.Ceil(float64(stack)/float64(cols))), ms.MaxStackRows)
	stack = min(stack, rows*cols)

	cellW := (stackW - (cols-1)*gap) / cols
	cellH := (fullH - (rows-1)*gap) / rows
	if masterW <= 0 || cellW <= 0 || cellH <= 0 {
		return nil, fmt.Errorf(
			"insufficient space for master-stack layout: area=%dx%d master=%d cell=%dx%d gap=%d",
			area.Width, area.Height, masterW, cellW, cellH, gap,
		)
	}

	out := make([]geometry.Box, stack+1)
	out[0] = master
	for i := 0; i < stack; i++ {
		row, col := i/cols, i%cols
		out[i+1] = geometry.Box{
			X:      stackX + col*(cellW+gap),
			Y:      area.Y + gap + row*(cellH+gap),
			Width:  cellW,
			Height: cellH,
		}
	}
	return out, nil
}

func capSize(v, limit int) int {
	if limit > 0 && v > limit {
		return limit
	}
	return v
}

// ApplyRegion narrows area to the part a layout's tile region covers. The
// result is never smaller than 1x1.
func ApplyRegion(area geometry.Box, region config.TileRegion) geometry.Box {
	out := area

	switch region.Type {
	case config.RegionLeftHalf:
		out.Width = area.Width / 2
	case config.RegionRightHalf:
		out.X = area.X + area.Width/2
		out.Width = area.Width / 2
	case config.RegionTopHalf:
		out.Height = area.Height / 2
	case config.RegionBottomHalf:
		out.Y = area.Y + area.Height/2
		out.Height = area.Height / 2
	case config.RegionCustom:
		out = geometry.Box{
			X:      area.X + area.Width*region.XPercent/100,
			Y:      area.Y + area.Height*region.YPercent/100,
			Width:  area.Width * region.WidthPercent / 100,
			Height: area.Height * region.HeightPercent / 100,
		}
	}

	out.Width = max(out.Width, 1)
	out.Height = max(out.Height, 1)
	return out
}
