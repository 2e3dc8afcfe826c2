package config

import (
	"fmt"
	"strings"
)

// ValidationError reports an invalid value together with the YAML path and,
// when known, the file position it was read from.
type ValidationError struct {
	Path   string
	Source Source
	Err    error
}

func (e *ValidationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Source.Kind == SourceFile && e.Source.File != "" && e.Source.Line > 0 {
		return fmt.Sprintf("%s:%d:%d: %s: %v", e.Source.File, e.Source.Line, e.Source.Column, e.Path, e.Err)
	}
	if e.Path != "" {
		return fmt.Sprintf("%s: %v", e.Path, e.Err)
	}
	return e.Err.Error()
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// BuildEffectiveConfig applies a merged raw config over DefaultConfig. It
// returns the config and, per layout, the builtin it was derived from.
func BuildEffectiveConfig(raw RawConfig) (*Config, map[string]string, error) {
	cfg := DefaultConfig()

	if raw.LogLevel != nil {
		cfg.LogLevel = normalizeLevel(*raw.LogLevel)
	}
	if raw.Display != nil {
		cfg.Display = *raw.Display
	}
	if raw.XAuthority != nil {
		cfg.XAuthority = *raw.XAuthority
	}
	if raw.TransactionTimeoutMs != nil {
		cfg.TransactionTimeoutMs = *raw.TransactionTimeoutMs
	}
	if raw.ReconcileIntervalMs != nil {
		cfg.ReconcileIntervalMs = *raw.ReconcileIntervalMs
	}
	if raw.GapSize != nil {
		cfg.GapSize = *raw.GapSize
	}
	if raw.ScreenPadding != nil {
		cfg.ScreenPadding = applyMargins(cfg.ScreenPadding, *raw.ScreenPadding)
	}
	if raw.Decoration != nil {
		if raw.Decoration.Enabled != nil {
			cfg.Decoration.Enabled = *raw.Decoration.Enabled
		}
		if raw.Decoration.UseFrameExtents != nil {
			cfg.Decoration.UseFrameExtents = *raw.Decoration.UseFrameExtents
		}
		if raw.Decoration.Margins != nil {
			cfg.Decoration.Margins = applyMargins(cfg.Decoration.Margins, *raw.Decoration.Margins)
		}
	}

	if raw.Manage != nil {
		cfg.Manage = Manage{
			IncludeClasses: raw.Manage.IncludeClasses,
			ExcludeClasses: raw.Manage.ExcludeClasses,
		}
	}

	// An empty action unbinds a key set by an earlier file.
	for key, action := range raw.Bindings {
		if strings.TrimSpace(action) == "" {
			continue
		}
		if cfg.Bindings == nil {
			cfg.Bindings = make(map[string]string)
		}
		cfg.Bindings[key] = action
	}

	layoutBases, err := applyLayouts(cfg, raw)
	if err != nil {
		return nil, nil, err
	}

	if raw.DefaultLayout != nil {
		cfg.DefaultLayout = *raw.DefaultLayout
	}
	if cfg.DefaultLayout == "" {
		cfg.DefaultLayout = DefaultBuiltinLayout
	}
	if _, err := cfg.GetLayout(cfg.DefaultLayout); err != nil {
		return nil, nil, &ValidationError{Path: "default_layout", Err: err}
	}

	return cfg, layoutBases, nil
}

func applyMargins(base Margins, raw RawMargins) Margins {
	return Margins{
		Top:    derefInt(raw.Top, base.Top),
		Bottom: derefInt(raw.Bottom, base.Bottom),
		Left:   derefInt(raw.Left, base.Left),
		Right:  derefInt(raw.Right, base.Right),
	}
}

func applyLayouts(cfg *Config, raw RawConfig) (map[string]string, error) {
	builtin := BuiltinLayouts()

	cfg.Layouts = make(map[string]Layout, len(builtin)+len(raw.Layouts))
	layoutBases := make(map[string]string, len(builtin)+len(raw.Layouts))
	for name, layout := range builtin {
		cfg.Layouts[name] = layout
		layoutBases[name] = name
	}

	for _, name := range sortedKeys(raw.Layouts) {
		patch := raw.Layouts[name]
		baseName, baseLayout, err := selectLayoutBase(name, patch, builtin)
		if err != nil {
			return nil, err
		}

		merged := mergeLayoutPatch(baseLayout, patch)
		if err := validateLayout(&merged); err != nil {
			return nil, &ValidationError{Path: "layouts." + name, Err: err}
		}

		cfg.Layouts[name] = merged
		layoutBases[name] = baseName
	}

	return layoutBases, nil
}

func selectLayoutBase(name string, patch RawLayout, builtin map[string]Layout) (string, Layout, error) {
	ref := ""
	if patch.Inherits != nil {
		ref = strings.TrimSpace(*patch.Inherits)
	}

	baseName := DefaultBuiltinLayout
	if _, ok := builtin[name]; ok {
		baseName = name
	}

	if ref != "" {
		const prefix = "builtin:"
		if !strings.HasPrefix(ref, prefix) {
			return "", Layout{}, &ValidationError{
				Path: "layouts." + name + ".inherits",
				Err:  fmt.Errorf("inherits must be %q-prefixed (builtin-only), got %q", prefix, ref),
			}
		}
		baseName = strings.TrimSpace(strings.TrimPrefix(ref, prefix))
	}

	baseLayout, ok := builtin[baseName]
	if !ok {
		return "", Layout{}, &ValidationError{
			Path: "layouts." + name + ".inherits",
			Err:  fmt.Errorf("unknown builtin layout %q", baseName),
		}
	}

	return baseName, baseLayout, nil
}

func mergeLayoutPatch(base Layout, patch RawLayout) Layout {
	out := base

	if patch.Mode != nil {
		out.Mode = *patch.Mode
	}
	if r := patch.TileRegion; r != nil {
		if r.Type != nil {
			out.TileRegion.Type = *r.Type
		}
		out.TileRegion.XPercent = derefInt(r.XPercent, out.TileRegion.XPercent)
		out.TileRegion.YPercent = derefInt(r.YPercent, out.TileRegion.YPercent)
		out.TileRegion.WidthPercent = derefInt(r.WidthPercent, out.TileRegion.WidthPercent)
		out.TileRegion.HeightPercent = derefInt(r.HeightPercent, out.TileRegion.HeightPercent)

		// A custom region without a size covers the whole work area.
		if out.TileRegion.Type == RegionCustom {
			if r.WidthPercent == nil && out.TileRegion.WidthPercent == 0 {
				out.TileRegion.WidthPercent = 100
			}
			if r.HeightPercent == nil && out.TileRegion.HeightPercent == 0 {
				out.TileRegion.HeightPercent = 100
			}
		}
	}
	if g := patch.FixedGrid; g != nil {
		out.FixedGrid.Rows = derefInt(g.Rows, out.FixedGrid.Rows)
		out.FixedGrid.Cols = derefInt(g.Cols, out.FixedGrid.Cols)
	}
	if ms := patch.MasterStack; ms != nil {
		out.MasterStack.MasterWidthPercent = derefInt(ms.MasterWidthPercent, out.MasterStack.MasterWidthPercent)
		out.MasterStack.MaxStackRows = derefInt(ms.MaxStackRows, out.MasterStack.MaxStackRows)
		out.MasterStack.MaxStackCols = derefInt(ms.MaxStackCols, out.MasterStack.MaxStackCols)
	}
	out.MaxWindowWidth = derefInt(patch.MaxWindowWidth, out.MaxWindowWidth)
	out.MaxWindowHeight = derefInt(patch.MaxWindowHeight, out.MaxWindowHeight)
	if patch.FlexibleLastRow != nil {
		out.FlexibleLastRow = *patch.FlexibleLastRow
	}

	return out
}

func derefInt(p *int, def int) int {
	if p == nil {
		return def
	}
	return *p
}
