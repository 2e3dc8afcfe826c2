package grid

import (
	"testing"

	"github.com/1broseidon/tilestate/internal/config"
	"github.com/1broseidon/tilestate/internal/geometry"
)

func TestCalculatePositions_MaxWindowWidthDoesNotCompressGrid(t *testing.T) {
	layout := &config.Layout{
		Mode:           config.LayoutModeFixed,
		FixedGrid:      config.FixedGrid{Rows: 1, Cols: 2},
		TileRegion:     config.TileRegion{Type: config.RegionFull},
		MaxWindowWidth: 50,
	}
	area := geometry.Box{X: 0, Y: 0, Width: 210, Height: 100}

	positions, err := CalculatePositions(2, area, layout, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(positions) != 2 {
		t.Fatalf("expected 2 positions, got %d", len(positions))
	}

	// slot width (210-30)/2 = 90, window 50, centred 20 into the slot.
	if positions[0].X != 30 || positions[1].X != 130 {
		t.Fatalf("expected x=30 and x=130, got %d and %d", positions[0].X, positions[1].X)
	}
	if positions[0].Width != 50 || positions[1].Width != 50 {
		t.Fatalf("expected both widths to be 50, got %d and %d", positions[0].Width, positions[1].Width)
	}
}

func TestCalculatePositions_ErrorsWhenInsufficientSpace(t *testing.T) {
	layout := &config.Layout{
		Mode:       config.LayoutModeFixed,
		FixedGrid:  config.FixedGrid{Rows: 1, Cols: 2},
		TileRegion: config.TileRegion{Type: config.RegionFull},
	}
	area := geometry.Box{X: 0, Y: 0, Width: 20, Height: 10}

	if _, err := CalculatePositions(2, area, layout, 20); err == nil {
		t.Fatalf("expected error for insufficient space")
	}
}

func TestCalculatePositions_FixedGridCapsWindows(t *testing.T) {
	layout := &config.Layout{
		Mode:      config.LayoutModeFixed,
		FixedGrid: config.FixedGrid{Rows: 1, Cols: 2},
	}
	positions, err := CalculatePositions(5, geometry.Box{Width: 1000, Height: 500}, layout, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(positions) != 2 {
		t.Fatalf("expected 2 slots, got %d", len(positions))
	}
}

func TestCalculatePositions_FlexibleLastRow(t *testing.T) {
	layout := &config.Layout{Mode: config.LayoutModeAuto, FlexibleLastRow: true}
	area := geometry.Box{X: 0, Y: 0, Width: 1000, Height: 1000}

	positions, err := CalculatePositions(3, area, layout, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// 3 windows: 2x2 grid, the last row holds one window at full width.
	if positions[2].Width != 1000 || positions[2].X != 0 {
		t.Fatalf("expected last window to span the row, got %v", positions[2])
	}
	if positions[0].Width != 500 {
		t.Fatalf("expected first row cells of 500, got %v", positions[0])
	}
}

func TestCalculatePositions_MasterStack(t *testing.T) {
	layout := &config.Layout{
		Mode: config.LayoutModeMasterStack,
		MasterStack: config.MasterStack{
			MasterWidthPercent: 50,
			MaxStackRows:       3,
			MaxStackCols:       2,
		},
	}
	area := geometry.Box{X: 0, Y: 0, Width: 1000, Height: 600}

	positions, err := CalculatePositions(3, area, layout, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []geometry.Box{
		{X: 0, Y: 0, Width: 500, Height: 600},
		{X: 500, Y: 0, Width: 500, Height: 300},
		{X: 500, Y: 300, Width: 500, Height: 300},
	}
	if len(positions) != len(want) {
		t.Fatalf("expected %d positions, got %d", len(want), len(positions))
	}
	for i := range want {
		if positions[i] != want[i] {
			t.Fatalf("slot %d = %v, want %v", i, positions[i], want[i])
		}
	}
}

func TestApplyRegion(t *testing.T) {
	type tc struct {
		region   config.TileRegion
		expected geometry.Box
	}

	area := geometry.Box{X: 100, Y: 0, Width: 1000, Height: 800}
	tests := map[string]tc{
		"full":        {region: config.TileRegion{Type: config.RegionFull}, expected: area},
		"left half":   {region: config.TileRegion{Type: config.RegionLeftHalf}, expected: geometry.Box{X: 100, Y: 0, Width: 500, Height: 800}},
		"right half":  {region: config.TileRegion{Type: config.RegionRightHalf}, expected: geometry.Box{X: 600, Y: 0, Width: 500, Height: 800}},
		"bottom half": {region: config.TileRegion{Type: config.RegionBottomHalf}, expected: geometry.Box{X: 100, Y: 400, Width: 1000, Height: 400}},
		"custom clamps to minimum size": {
			region:   config.TileRegion{Type: config.RegionCustom, WidthPercent: 0, HeightPercent: 0},
			expected: geometry.Box{X: 100, Y: 0, Width: 1, Height: 1},
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			if got := ApplyRegion(area, tt.region); got != tt.expected {
				t.Fatalf("ApplyRegion() = %v, want %v", got, tt.expected)
			}
		})
	}
}
