package config

const (
	DefaultBuiltinLayout = "grid"
)

// BuiltinLayouts returns the layouts that exist without any configuration.
// User layouts either add to this set or patch one of its entries through
// "inherits: builtin:<name>".
func BuiltinLayouts() map[string]Layout {
	full := TileRegion{Type: RegionFull}
	return map[string]Layout{
		"grid": {
			Mode:            LayoutModeAuto,
			TileRegion:      full,
			FlexibleLastRow: true,
		},
		"columns": {
			Mode:       LayoutModeHorizontal,
			TileRegion: full,
		},
		"rows": {
			Mode:       LayoutModeVertical,
			TileRegion: full,
		},
		"half-left": {
			Mode:            LayoutModeAuto,
			TileRegion:      TileRegion{Type: RegionLeftHalf},
			FlexibleLastRow: true,
		},
		"half-right": {
			Mode:            LayoutModeAuto,
			TileRegion:      TileRegion{Type: RegionRightHalf},
			FlexibleLastRow: true,
		},
		"master-stack": {
			Mode:       LayoutModeMasterStack,
			TileRegion: full,
			MasterStack: MasterStack{
				MasterWidthPercent: 50,
				MaxStackRows:       3,
				MaxStackCols:       2,
			},
		},
	}
}
