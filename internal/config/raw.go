package config

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// IncludeList supports either:
//
//	include: "/path/to/file.yaml"
//
// or:
//
//	include:
//	  - "/path/to/file.yaml"
//	  - "/path/to/dir"
type IncludeList []string

func (l *IncludeList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case 0:
		*l = nil
		return nil
	case yaml.ScalarNode:
		if value.Tag != "!!str" {
			return fmt.Errorf("include must be a string or list of strings")
		}
		*l = []string{value.Value}
		return nil
	case yaml.SequenceNode:
		out := make([]string, 0, len(value.Content))
		for _, item := range value.Content {
			if item.Kind != yaml.ScalarNode || item.Tag != "!!str" {
				return fmt.Errorf("include entries must be strings")
			}
			out = append(out, item.Value)
		}
		*l = out
		return nil
	default:
		return fmt.Errorf("include must be a string or list of strings")
	}
}

// The Raw* types mirror the YAML schema with pointer fields so that an unset
// key can be told apart from a zero value when files are merged.

type RawMargins struct {
	Top    *int `yaml:"top"`
	Bottom *int `yaml:"bottom"`
	Left   *int `yaml:"left"`
	Right  *int `yaml:"right"`
}

type RawFixedGrid struct {
	Rows *int `yaml:"rows"`
	Cols *int `yaml:"cols"`
}

type RawMasterStack struct {
	MasterWidthPercent *int `yaml:"master_width_percent"`
	MaxStackRows       *int `yaml:"max_stack_rows"`
	MaxStackCols       *int `yaml:"max_stack_cols"`
}

type RawTileRegion struct {
	Type          *RegionType `yaml:"type"`
	XPercent      *int        `yaml:"x_percent"`
	YPercent      *int        `yaml:"y_percent"`
	WidthPercent  *int        `yaml:"width_percent"`
	HeightPercent *int        `yaml:"height_percent"`
}

type RawLayout struct {
	Inherits        *string         `yaml:"inherits"`
	Mode            *LayoutMode     `yaml:"mode"`
	TileRegion      *RawTileRegion  `yaml:"tile_region"`
	FixedGrid       *RawFixedGrid   `yaml:"fixed_grid"`
	MasterStack     *RawMasterStack `yaml:"master_stack"`
	MaxWindowWidth  *int            `yaml:"max_window_width"`
	MaxWindowHeight *int            `yaml:"max_window_height"`
	FlexibleLastRow *bool           `yaml:"flexible_last_row"`
}

type RawDecoration struct {
	Enabled         *bool       `yaml:"enabled"`
	UseFrameExtents *bool       `yaml:"use_frame_extents"`
	Margins         *RawMargins `yaml:"margins"`
}

type RawManage struct {
	IncludeClasses []string `yaml:"include_classes"`
	ExcludeClasses []string `yaml:"exclude_classes"`
}

type RawConfig struct {
	Include              IncludeList          `yaml:"include"`
	LogLevel             *string              `yaml:"log_level"`
	Display              *string              `yaml:"display"`
	XAuthority           *string              `yaml:"xauthority"`
	TransactionTimeoutMs *int                 `yaml:"transaction_timeout_ms"`
	ReconcileIntervalMs  *int                 `yaml:"reconcile_interval_ms"`
	GapSize              *int                 `yaml:"gap_size"`
	ScreenPadding        *RawMargins          `yaml:"screen_padding"`
	Decoration           *RawDecoration       `yaml:"decoration"`
	Manage               *RawManage           `yaml:"manage"`
	DefaultLayout        *string              `yaml:"default_layout"`
	Layouts              map[string]RawLayout `yaml:"layouts"`
	Bindings             map[string]string    `yaml:"bindings"`
}

func (c RawConfig) merge(overlay RawConfig) RawConfig {
	out := c

	mergePtr(&out.LogLevel, overlay.LogLevel)
	mergePtr(&out.Display, overlay.Display)
	mergePtr(&out.XAuthority, overlay.XAuthority)
	mergePtr(&out.TransactionTimeoutMs, overlay.TransactionTimeoutMs)
	mergePtr(&out.ReconcileIntervalMs, overlay.ReconcileIntervalMs)
	mergePtr(&out.GapSize, overlay.GapSize)
	mergePtr(&out.DefaultLayout, overlay.DefaultLayout)

	if overlay.ScreenPadding != nil {
		base := RawMargins{}
		if out.ScreenPadding != nil {
			base = *out.ScreenPadding
		}
		merged := mergeRawMargins(base, *overlay.ScreenPadding)
		out.ScreenPadding = &merged
	}

	if overlay.Decoration != nil {
		base := RawDecoration{}
		if out.Decoration != nil {
			base = *out.Decoration
		}
		merged := mergeRawDecoration(base, *overlay.Decoration)
		out.Decoration = &merged
	}

	if overlay.Manage != nil {
		merged := RawManage{}
		if out.Manage != nil {
			merged = *out.Manage
		}
		// Lists replace rather than append.
		if overlay.Manage.IncludeClasses != nil {
			merged.IncludeClasses = overlay.Manage.IncludeClasses
		}
		if overlay.Manage.ExcludeClasses != nil {
			merged.ExcludeClasses = overlay.Manage.ExcludeClasses
		}
		out.Manage = &merged
	}

	if overlay.Bindings != nil {
		bindings := make(map[string]string, len(out.Bindings)+len(overlay.Bindings))
		for key, action := range out.Bindings {
			bindings[key] = action
		}
		for key, action := range overlay.Bindings {
			bindings[key] = action
		}
		out.Bindings = bindings
	}

	if overlay.Layouts != nil {
		layouts := make(map[string]RawLayout, len(out.Layouts)+len(overlay.Layouts))
		for name, layout := range out.Layouts {
			layouts[name] = layout
		}
		for name, layout := range overlay.Layouts {
			base, ok := layouts[name]
			if !ok {
				layouts[name] = layout
				continue
			}
			layouts[name] = mergeRawLayout(base, layout)
		}
		out.Layouts = layouts
	}

	return out
}

func mergePtr[T any](dst **T, overlay *T) {
	if overlay != nil {
		*dst = overlay
	}
}

func mergeRawMargins(base RawMargins, overlay RawMargins) RawMargins {
	out := base
	mergePtr(&out.Top, overlay.Top)
	mergePtr(&out.Bottom, overlay.Bottom)
	mergePtr(&out.Left, overlay.Left)
	mergePtr(&out.Right, overlay.Right)
	return out
}

func mergeRawDecoration(base RawDecoration, overlay RawDecoration) RawDecoration {
	out := base
	mergePtr(&out.Enabled, overlay.Enabled)
	mergePtr(&out.UseFrameExtents, overlay.UseFrameExtents)
	if overlay.Margins != nil {
		margins := RawMargins{}
		if out.Margins != nil {
			margins = *out.Margins
		}
		merged := mergeRawMargins(margins, *overlay.Margins)
		out.Margins = &merged
	}
	return out
}

func mergeRawTileRegion(base RawTileRegion, overlay RawTileRegion) RawTileRegion {
	out := base
	mergePtr(&out.Type, overlay.Type)
	mergePtr(&out.XPercent, overlay.XPercent)
	mergePtr(&out.YPercent, overlay.YPercent)
	mergePtr(&out.WidthPercent, overlay.WidthPercent)
	mergePtr(&out.HeightPercent, overlay.HeightPercent)
	return out
}

func mergeRawLayout(base RawLayout, overlay RawLayout) RawLayout {
	out := base
	mergePtr(&out.Inherits, overlay.Inherits)
	mergePtr(&out.Mode, overlay.Mode)
	if overlay.TileRegion != nil {
		region := RawTileRegion{}
		if out.TileRegion != nil {
			region = *out.TileRegion
		}
		merged := mergeRawTileRegion(region, *overlay.TileRegion)
		out.TileRegion = &merged
	}
	if overlay.FixedGrid != nil {
		grid := RawFixedGrid{}
		if out.FixedGrid != nil {
			grid = *out.FixedGrid
		}
		mergePtr(&grid.Rows, overlay.FixedGrid.Rows)
		mergePtr(&grid.Cols, overlay.FixedGrid.Cols)
		out.FixedGrid = &grid
	}
	if overlay.MasterStack != nil {
		ms := RawMasterStack{}
		if out.MasterStack != nil {
			ms = *out.MasterStack
		}
		mergePtr(&ms.MasterWidthPercent, overlay.MasterStack.MasterWidthPercent)
		mergePtr(&ms.MaxStackRows, overlay.MasterStack.MaxStackRows)
		mergePtr(&ms.MaxStackCols, overlay.MasterStack.MaxStackCols)
		out.MasterStack = &ms
	}
	mergePtr(&out.MaxWindowWidth, overlay.MaxWindowWidth)
	mergePtr(&out.MaxWindowHeight, overlay.MaxWindowHeight)
	mergePtr(&out.FlexibleLastRow, overlay.FlexibleLastRow)
	return out
}
