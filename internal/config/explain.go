package config

import (
	"fmt"
	"strings"
)

// Explain returns the effective value at the given YAML-like path and its source.
//
// Supported paths include:
//
//	log_level
//	display
//	transaction_timeout_ms
//	reconcile_interval_ms
//	gap_size
//	screen_padding.top
//	decoration.enabled
//	decoration.margins.left
//	default_layout
//	layouts.<name>.mode
//	layouts.<name>.tile_region.type
//	layouts.<name>.fixed_grid.rows
//	bindings.<key>
func Explain(res *LoadResult, path string) (any, Source, error) {
	if res == nil || res.Config == nil {
		return nil, Source{}, fmt.Errorf("no config loaded")
	}
	if path == "" {
		return nil, Source{}, fmt.Errorf("path is empty")
	}

	value, err := lookupValue(res.Config, path)
	if err != nil {
		return nil, Source{}, err
	}

	// Exact-path file source wins.
	if src, ok := res.Sources[path]; ok {
		return value, src, nil
	}

	if strings.HasPrefix(path, "layouts.") {
		name := layoutNameFromPath(path)
		base := ""
		if name != "" {
			base = res.LayoutBases[name]
		}
		return value, Source{Kind: SourceBuiltin, Name: base}, nil
	}

	return value, Source{Kind: SourceDefault, Name: "defaults"}, nil
}

func layoutNameFromPath(path string) string {
	parts := strings.Split(path, ".")
	if len(parts) < 2 || parts[0] != "layouts" {
		return ""
	}
	return parts[1]
}

func lookupValue(cfg *Config, path string) (any, error) {
	parts := strings.Split(path, ".")
	unknown := fmt.Errorf("unknown path: %s", path)

	scalar := func(v any) (any, error) {
		if len(parts) != 1 {
			return nil, unknown
		}
		return v, nil
	}

	switch parts[0] {
	case "log_level":
		return scalar(cfg.LogLevel)
	case "display":
		return scalar(cfg.Display)
	case "xauthority":
		return scalar(cfg.XAuthority)
	case "transaction_timeout_ms":
		return scalar(cfg.TransactionTimeoutMs)
	case "reconcile_interval_ms":
		return scalar(cfg.ReconcileIntervalMs)
	case "gap_size":
		return scalar(cfg.GapSize)
	case "default_layout":
		return scalar(cfg.DefaultLayout)
	case "screen_padding":
		return lookupMargins(cfg.ScreenPadding, parts[1:], unknown)
	case "decoration":
		if len(parts) == 1 {
			return cfg.Decoration, nil
		}
		switch parts[1] {
		case "enabled":
			if len(parts) == 2 {
				return cfg.Decoration.Enabled, nil
			}
		case "use_frame_extents":
			if len(parts) == 2 {
				return cfg.Decoration.UseFrameExtents, nil
			}
		case "margins":
			return lookupMargins(cfg.Decoration.Margins, parts[2:], unknown)
		}
		return nil, unknown
	case "layouts":
		if len(parts) == 1 {
			return cfg.Layouts, nil
		}
		layout, ok := cfg.Layouts[parts[1]]
		if !ok {
			return nil, fmt.Errorf("unknown layout %q", parts[1])
		}
		return lookupLayout(layout, parts[2:], unknown)
	case "manage":
		if len(parts) == 1 {
			return cfg.Manage, nil
		}
		if len(parts) == 2 {
			switch parts[1] {
			case "include_classes":
				return cfg.Manage.IncludeClasses, nil
			case "exclude_classes":
				return cfg.Manage.ExcludeClasses, nil
			}
		}
		return nil, unknown
	case "bindings":
		if len(parts) == 1 {
			return cfg.Bindings, nil
		}
		action, ok := cfg.Bindings[parts[1]]
		if !ok || len(parts) != 2 {
			return nil, unknown
		}
		return action, nil
	}
	return nil, unknown
}

func lookupMargins(m Margins, rest []string, unknown error) (any, error) {
	if len(rest) == 0 {
		return m, nil
	}
	if len(rest) != 1 {
		return nil, unknown
	}
	switch rest[0] {
	case "top":
		return m.Top, nil
	case "bottom":
		return m.Bottom, nil
	case "left":
		return m.Left, nil
	case "right":
		return m.Right, nil
	}
	return nil, unknown
}

func lookupLayout(layout Layout, rest []string, unknown error) (any, error) {
	if len(rest) == 0 {
		return layout, nil
	}
	field := strings.Join(rest, ".")
	switch field {
	case "mode":
		return layout.Mode, nil
	case "tile_region":
		return layout.TileRegion, nil
	case "tile_region.type":
		return layout.TileRegion.Type, nil
	case "tile_region.x_percent":
		return layout.TileRegion.XPercent, nil
	case "tile_region.y_percent":
		return layout.TileRegion.YPercent, nil
	case "tile_region.width_percent":
		return layout.TileRegion.WidthPercent, nil
	case "tile_region.height_percent":
		return layout.TileRegion.HeightPercent, nil
	case "fixed_grid":
		return layout.FixedGrid, nil
	case "fixed_grid.rows":
		return layout.FixedGrid.Rows, nil
	case "fixed_grid.cols":
		return layout.FixedGrid.Cols, nil
	case "master_stack":
		return layout.MasterStack, nil
	case "master_stack.master_width_percent":
		return layout.MasterStack.MasterWidthPercent, nil
	case "master_stack.max_stack_rows":
		return layout.MasterStack.MaxStackRows, nil
	case "master_stack.max_stack_cols":
		return layout.MasterStack.MaxStackCols, nil
	case "max_window_width":
		return layout.MaxWindowWidth, nil
	case "max_window_height":
		return layout.MaxWindowHeight, nil
	case "flexible_last_row":
		return layout.FlexibleLastRow, nil
	}
	return nil, unknown
}
