package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/1broseidon/tilestate/internal/geometry"
)

// Margins is a per-edge size in pixels.
type Margins struct {
	Top    int `yaml:"top"`
	Bottom int `yaml:"bottom"`
	Left   int `yaml:"left"`
	Right  int `yaml:"right"`
}

// Difference converts the margins into an outward displacement.
func (m Margins) Difference() geometry.Difference {
	return geometry.Difference{Left: m.Left, Right: m.Right, Top: m.Top, Bottom: m.Bottom}
}

func (m Margins) negative() bool {
	return m.Top < 0 || m.Bottom < 0 || m.Left < 0 || m.Right < 0
}

// LayoutMode defines how windows are arranged.
type LayoutMode string

const (
	LayoutModeAuto        LayoutMode = "auto"         // Dynamic grid based on count.
	LayoutModeFixed       LayoutMode = "fixed"        // Specific rows × cols.
	LayoutModeVertical    LayoutMode = "vertical"     // Single column stack.
	LayoutModeHorizontal  LayoutMode = "horizontal"   // Single row side-by-side.
	LayoutModeMasterStack LayoutMode = "master-stack" // Master pane left, stack grid right.
)

// RegionType defines tile region presets.
type RegionType string

const (
	RegionFull       RegionType = "full"
	RegionLeftHalf   RegionType = "left-half"
	RegionRightHalf  RegionType = "right-half"
	RegionTopHalf    RegionType = "top-half"
	RegionBottomHalf RegionType = "bottom-half"
	RegionCustom     RegionType = "custom"
)

// TileRegion defines the part of the work area a layout fills.
type TileRegion struct {
	Type          RegionType `yaml:"type"`
	XPercent      int        `yaml:"x_percent"`      // 0-100
	YPercent      int        `yaml:"y_percent"`      // 0-100
	WidthPercent  int        `yaml:"width_percent"`  // 0-100
	HeightPercent int        `yaml:"height_percent"` // 0-100
}

// FixedGrid defines specific grid dimensions.
type FixedGrid struct {
	Rows int `yaml:"rows"`
	Cols int `yaml:"cols"`
}

// MasterStack defines the master-stack layout parameters.
type MasterStack struct {
	MasterWidthPercent int `yaml:"master_width_percent"` // 10-90
	MaxStackRows       int `yaml:"max_stack_rows"`
	MaxStackCols       int `yaml:"max_stack_cols"`
}

// Layout defines a tiling configuration.
type Layout struct {
	Mode            LayoutMode  `yaml:"mode"`
	TileRegion      TileRegion  `yaml:"tile_region"`
	FixedGrid       FixedGrid   `yaml:"fixed_grid,omitempty"`
	MasterStack     MasterStack `yaml:"master_stack,omitempty"`
	MaxWindowWidth  int         `yaml:"max_window_width"`  // 0 = unlimited
	MaxWindowHeight int         `yaml:"max_window_height"` // 0 = unlimited
	FlexibleLastRow bool        `yaml:"flexible_last_row"` // auto mode only
}

// Decoration configures server-side decoration margins.
type Decoration struct {
	Enabled bool `yaml:"enabled"`
	// UseFrameExtents prefers _NET_FRAME_EXTENTS reported for a window over
	// the configured margins.
	UseFrameExtents bool    `yaml:"use_frame_extents"`
	Margins         Margins `yaml:"margins"`
}

// Manage selects windows by WM_CLASS. An empty include list manages every
// window; exclude wins over include.
type Manage struct {
	IncludeClasses []string `yaml:"include_classes,omitempty"`
	ExcludeClasses []string `yaml:"exclude_classes,omitempty"`
}

const (
	DefaultTransactionTimeoutMs = 150
	DefaultReconcileIntervalMs  = 2000
)

// Config holds the application configuration.
type Config struct {
	LogLevel             string            `yaml:"log_level"`
	Display              string            `yaml:"display,omitempty"`
	XAuthority           string            `yaml:"xauthority,omitempty"`
	TransactionTimeoutMs int               `yaml:"transaction_timeout_ms"`
	ReconcileIntervalMs  int               `yaml:"reconcile_interval_ms"`
	GapSize              int               `yaml:"gap_size"`
	ScreenPadding        Margins           `yaml:"screen_padding"`
	Decoration           Decoration        `yaml:"decoration"`
	Manage               Manage            `yaml:"manage"`
	DefaultLayout        string            `yaml:"default_layout"`
	Layouts              map[string]Layout `yaml:"layouts"`
	Bindings             map[string]string `yaml:"bindings,omitempty"`
}

func DefaultConfig() *Config {
	return &Config{
		LogLevel:             "info",
		TransactionTimeoutMs: DefaultTransactionTimeoutMs,
		ReconcileIntervalMs:  DefaultReconcileIntervalMs,
		GapSize:              8,
		Decoration: Decoration{
			Enabled:         true,
			UseFrameExtents: true,
		},
		DefaultLayout: DefaultBuiltinLayout,
		Layouts:       BuiltinLayouts(),
	}
}

// TransactionTimeout is how long a committed transaction waits for its
// clients before it is force-applied.
func (c *Config) TransactionTimeout() time.Duration {
	if c == nil || c.TransactionTimeoutMs <= 0 {
		return DefaultTransactionTimeoutMs * time.Millisecond
	}
	return time.Duration(c.TransactionTimeoutMs) * time.Millisecond
}

// ReconcileInterval is the period of the daemon's state sync.
func (c *Config) ReconcileInterval() time.Duration {
	if c == nil || c.ReconcileIntervalMs <= 0 {
		return DefaultReconcileIntervalMs * time.Millisecond
	}
	return time.Duration(c.ReconcileIntervalMs) * time.Millisecond
}

// SlogLevel maps log_level onto a slog level.
func (c *Config) SlogLevel() slog.Level {
	if c == nil {
		return slog.LevelInfo
	}
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// DecorationMargins returns the configured margins, or zero when decorations
// are disabled.
func (c *Config) DecorationMargins() geometry.Difference {
	if c == nil || !c.Decoration.Enabled {
		return geometry.Difference{}
	}
	return c.Decoration.Margins.Difference()
}

// Save writes the configuration to the standard location.
//
// Note: this marshals the effective config and will not preserve comments or
// include/inherits structure from the original YAML.
func (c *Config) Save() error {
	path, err := DefaultConfigPath()
	if err != nil {
		return err
	}
	return c.SaveTo(path)
}

// SaveTo writes the configuration to path, leaving out builtin layouts that
// were not changed.
func (c *Config) SaveTo(path string) error {
	if err := c.Validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := c.Marshal(true)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Marshal renders the configuration as YAML. With trimBuiltins set, builtin
// layouts that match their defaults are omitted.
func (c *Config) Marshal(trimBuiltins bool) ([]byte, error) {
	out := *c
	if trimBuiltins {
		out.Layouts = layoutsForSave(c.Layouts)
	}
	data, err := yaml.Marshal(&out)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}
	return data, nil
}

func layoutsForSave(layouts map[string]Layout) map[string]Layout {
	builtin := BuiltinLayouts()
	out := make(map[string]Layout)
	for name, layout := range layouts {
		if base, ok := builtin[name]; ok && base == layout {
			continue
		}
		out[name] = layout
	}
	return out
}

// GetLayout retrieves a layout by name with validation.
func (c *Config) GetLayout(name string) (*Layout, error) {
	layout, ok := c.Layouts[name]
	if !ok {
		return nil, fmt.Errorf("layout %q not found", name)
	}

	if err := validateLayout(&layout); err != nil {
		return nil, fmt.Errorf("invalid layout %q: %w", name, err)
	}

	return &layout, nil
}

// GetDefaultLayout retrieves the default layout.
func (c *Config) GetDefaultLayout() (*Layout, error) {
	return c.GetLayout(c.DefaultLayout)
}

// LayoutNames returns the layout names in sorted order.
func (c *Config) LayoutNames() []string {
	return sortedKeys(c.Layouts)
}

// Validate performs strict validation of the effective configuration.
func (c *Config) Validate() error {
	switch c.LogLevel {
	case "debug", "info", "warning", "error":
	default:
		return &ValidationError{Path: "log_level", Err: fmt.Errorf("log_level must be one of: debug, info, warning, error")}
	}
	if c.TransactionTimeoutMs <= 0 {
		return &ValidationError{Path: "transaction_timeout_ms", Err: fmt.Errorf("transaction_timeout_ms must be > 0")}
	}
	if c.TransactionTimeoutMs > 60_000 {
		return &ValidationError{Path: "transaction_timeout_ms", Err: fmt.Errorf("transaction_timeout_ms must be <= 60000")}
	}
	if c.ReconcileIntervalMs < 100 {
		return &ValidationError{Path: "reconcile_interval_ms", Err: fmt.Errorf("reconcile_interval_ms must be >= 100")}
	}
	if c.GapSize < 0 {
		return &ValidationError{Path: "gap_size", Err: fmt.Errorf("gap_size must be >= 0")}
	}
	if c.ScreenPadding.negative() {
		return &ValidationError{Path: "screen_padding", Err: fmt.Errorf("screen_padding values must be >= 0")}
	}
	if c.Decoration.Margins.negative() {
		return &ValidationError{Path: "decoration.margins", Err: fmt.Errorf("decoration margins must be >= 0")}
	}

	if len(c.Layouts) == 0 {
		return &ValidationError{Path: "layouts", Err: fmt.Errorf("layouts must not be empty")}
	}
	if c.DefaultLayout == "" {
		return &ValidationError{Path: "default_layout", Err: fmt.Errorf("default_layout is required")}
	}
	if _, ok := c.Layouts[c.DefaultLayout]; !ok {
		return &ValidationError{Path: "default_layout", Err: fmt.Errorf("default_layout %q not found in layouts", c.DefaultLayout)}
	}

	for _, name := range sortedKeys(c.Layouts) {
		layout := c.Layouts[name]
		if err := validateLayout(&layout); err != nil {
			return &ValidationError{Path: "layouts." + name, Err: err}
		}
	}
	for path, classes := range map[string][]string{
		"manage.include_classes": c.Manage.IncludeClasses,
		"manage.exclude_classes": c.Manage.ExcludeClasses,
	} {
		if slices.ContainsFunc(classes, func(class string) bool { return strings.TrimSpace(class) == "" }) {
			return &ValidationError{Path: path, Err: fmt.Errorf("class names must not be empty")}
		}
	}
	if _, err := c.Actions(); err != nil {
		return err
	}

	return nil
}

// validateLayout checks if a layout configuration is valid.
func validateLayout(layout *Layout) error {
	switch layout.Mode {
	case LayoutModeAuto, LayoutModeFixed, LayoutModeVertical, LayoutModeHorizontal, LayoutModeMasterStack:
	default:
		return fmt.Errorf("invalid mode %q", layout.Mode)
	}

	if layout.Mode == LayoutModeFixed {
		if layout.FixedGrid.Rows <= 0 || layout.FixedGrid.Cols <= 0 {
			return fmt.Errorf("fixed mode requires rows and cols to be positive")
		}
	}

	if layout.Mode == LayoutModeMasterStack {
		if layout.MasterStack.MasterWidthPercent < 10 || layout.MasterStack.MasterWidthPercent > 90 {
			return fmt.Errorf("master_stack.master_width_percent must be between 10 and 90")
		}
		if layout.MasterStack.MaxStackRows < 1 {
			return fmt.Errorf("master_stack.max_stack_rows must be >= 1")
		}
		if layout.MasterStack.MaxStackCols < 1 {
			return fmt.Errorf("master_stack.max_stack_cols must be >= 1")
		}
	}

	if layout.MaxWindowWidth < 0 || layout.MaxWindowHeight < 0 {
		return fmt.Errorf("max_window_width/height must be >= 0")
	}

	switch layout.TileRegion.Type {
	case RegionFull, RegionLeftHalf, RegionRightHalf, RegionTopHalf, RegionBottomHalf:
	case RegionCustom:
		r := layout.TileRegion
		if r.XPercent < 0 || r.XPercent > 100 {
			return fmt.Errorf("x_percent must be between 0 and 100")
		}
		if r.YPercent < 0 || r.YPercent > 100 {
			return fmt.Errorf("y_percent must be between 0 and 100")
		}
		if r.WidthPercent <= 0 || r.WidthPercent > 100 {
			return fmt.Errorf("width_percent must be between 1 and 100")
		}
		if r.HeightPercent <= 0 || r.HeightPercent > 100 {
			return fmt.Errorf("height_percent must be between 1 and 100")
		}
		if r.XPercent+r.WidthPercent > 100 {
			return fmt.Errorf("x_percent + width_percent must be <= 100")
		}
		if r.YPercent+r.HeightPercent > 100 {
			return fmt.Errorf("y_percent + height_percent must be <= 100")
		}
	default:
		return fmt.Errorf("invalid region type %q", layout.TileRegion.Type)
	}

	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func normalizeLevel(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "warn" {
		return "warning"
	}
	return s
}
