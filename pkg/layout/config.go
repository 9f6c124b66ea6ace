// Package layout computes deterministic radial layouts for a visible-node
// graph: angular sector assignment, collision-naive ideal positions, and the
// persistent position overrides that survive rebuilds.
//
// The package implements the deterministic half of the layout pipeline:
//
//	sectors → ideal positions → starting positions (overrides applied)
//
// Collision resolution on top of these targets lives in layout/resolve;
// explicit ring/fan arrangement and focus layouts live in layout/arrange.
package layout

import (
	"fmt"
	"math"
	"os"

	"github.com/BurntSushi/toml"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI, API, and Server
// =============================================================================

const (
	// DefaultPerChildIncrement grows a ring's distance with its sibling
	// count so crowded rings sit further out.
	DefaultPerChildIncrement = 6.0

	// DefaultRowSpacing separates successive fan rows.
	DefaultRowSpacing = 56.0

	// DefaultMinSectorDeg is the per-sibling angular floor in degrees.
	DefaultMinSectorDeg = 8.0

	// DefaultSectorPadding is the fraction of a parent sector granted to
	// its children; the rest is clearance toward neighboring branches.
	DefaultSectorPadding = 0.9

	// DefaultFanSpan is the fraction of the parent sector a fan row spreads
	// across.
	DefaultFanSpan = 0.7

	// DefaultCollisionPadding is extra clearance added to the sum of two
	// collision radii before an overlap is declared.
	DefaultCollisionPadding = 4.0

	// DefaultAnchorStrength pulls a node toward its target each tick.
	DefaultAnchorStrength = 0.12

	// DefaultCollideIterations is how often the pairwise separation pass
	// runs within a single tick.
	DefaultCollideIterations = 3

	// DefaultVelocityDecay damps velocities each tick; 0.35 keeps the
	// simulation lively without oscillation.
	DefaultVelocityDecay = 0.35

	// DefaultSectorRestoring nudges a drifted node back toward its sector.
	DefaultSectorRestoring = 0.08

	// DefaultSettleThreshold is the motion energy below which the
	// relaxation reports itself settled.
	DefaultSettleThreshold = 0.02

	// DefaultAlphaDecay cools the relaxation: anchor and sector forces are
	// scaled by an alpha that shrinks by this fraction each tick, so layouts
	// whose targets can never be fully honored still come to rest.
	DefaultAlphaDecay = 0.02

	// DefaultWobbleImpulse is the velocity magnitude injected by a wobble.
	DefaultWobbleImpulse = 6.0

	// DefaultStaticMaxIterations caps the static resolver's passes.
	DefaultStaticMaxIterations = 40

	// DefaultArrangeCircumference is the arc length reserved per child when
	// ring-arranging, in pixels.
	DefaultArrangeCircumference = 90.0

	// DefaultArrangeSmallCount is the largest child count still placed on a
	// half circle; larger sets get a full circle with a gap.
	DefaultArrangeSmallCount = 5

	// DefaultArrangeGapDeg is the angular gap reserved toward the parent
	// chain on full-circle arrangements, in degrees.
	DefaultArrangeGapDeg = 70.0

	// DefaultFocusSpacing separates ancestor-chain nodes in focus mode.
	DefaultFocusSpacing = 160.0

	// DefaultFocusRootMin is the minimum distance the root is pushed out to
	// in focus mode, even for short ancestor chains.
	DefaultFocusRootMin = 420.0

	// DefaultFocusChildRadiusMin bounds the focus child ring from below.
	DefaultFocusChildRadiusMin = 120.0

	// DefaultFocusBurstTicks is the length of the synchronous relaxation
	// burst that pushes unrelated nodes away from a fresh focus layout.
	DefaultFocusBurstTicks = 30

	// DefaultFocusRadiusScale enlarges pinned nodes' collision radii during
	// the focus burst.
	DefaultFocusRadiusScale = 1.6
)

// DefaultBaseDistance is the ring distance per level, indexed from level 1.
// Levels beyond the slice reuse the last entry.
func DefaultBaseDistance() []float64 { return []float64{170, 110, 80} }

// DefaultCollisionRadius is the collision radius per level, indexed from
// level 0 (the root). Levels beyond the slice reuse the last entry.
func DefaultCollisionRadius() []float64 { return []float64{64, 48, 36, 26} }

// =============================================================================
// Config
// =============================================================================

// Config holds every tunable of the layout engine. The zero value is not
// usable; start from [DefaultConfig] or load a TOML file with [LoadConfig].
// All values must be strictly positive (fractions additionally at most 1):
// a zero or negative spacing or radius would propagate division-by-zero and
// NaN through the angle math, so [Config.Validate] rejects it up front.
type Config struct {
	// Radial placement
	BaseDistance      []float64 `toml:"base_distance" json:"base_distance"`
	PerChildIncrement float64   `toml:"per_child_increment" json:"per_child_increment"`
	RowSpacing        float64   `toml:"row_spacing" json:"row_spacing"`

	// Angular partition
	MinSectorDeg  float64 `toml:"min_sector_deg" json:"min_sector_deg"`
	SectorPadding float64 `toml:"sector_padding" json:"sector_padding"`
	FanSpan       float64 `toml:"fan_span" json:"fan_span"`

	// Collision
	CollisionRadius  []float64 `toml:"collision_radius" json:"collision_radius"`
	CollisionPadding float64   `toml:"collision_padding" json:"collision_padding"`

	// Relaxation mode
	AnchorStrength    float64 `toml:"anchor_strength" json:"anchor_strength"`
	CollideIterations int     `toml:"collide_iterations" json:"collide_iterations"`
	VelocityDecay     float64 `toml:"velocity_decay" json:"velocity_decay"`
	SectorRestoring   float64 `toml:"sector_restoring" json:"sector_restoring"`
	SettleThreshold   float64 `toml:"settle_threshold" json:"settle_threshold"`
	AlphaDecay        float64 `toml:"alpha_decay" json:"alpha_decay"`
	WobbleImpulse     float64 `toml:"wobble_impulse" json:"wobble_impulse"`

	// Static mode
	StaticMaxIterations int `toml:"static_max_iterations" json:"static_max_iterations"`

	// Arrangement commands
	ArrangeCircumference float64 `toml:"arrange_circumference" json:"arrange_circumference"`
	ArrangeSmallCount    int     `toml:"arrange_small_count" json:"arrange_small_count"`
	ArrangeGapDeg        float64 `toml:"arrange_gap_deg" json:"arrange_gap_deg"`

	// Focus mode
	FocusSpacing        float64 `toml:"focus_spacing" json:"focus_spacing"`
	FocusRootMin        float64 `toml:"focus_root_min" json:"focus_root_min"`
	FocusChildRadiusMin float64 `toml:"focus_child_radius_min" json:"focus_child_radius_min"`
	FocusBurstTicks     int     `toml:"focus_burst_ticks" json:"focus_burst_ticks"`
	FocusRadiusScale    float64 `toml:"focus_radius_scale" json:"focus_radius_scale"`
}

// DefaultConfig returns the configuration tuned for taxonomies of a few
// dozen to a few hundred nodes.
func DefaultConfig() Config {
	return Config{
		BaseDistance:      DefaultBaseDistance(),
		PerChildIncrement: DefaultPerChildIncrement,
		RowSpacing:        DefaultRowSpacing,

		MinSectorDeg:  DefaultMinSectorDeg,
		SectorPadding: DefaultSectorPadding,
		FanSpan:       DefaultFanSpan,

		CollisionRadius:  DefaultCollisionRadius(),
		CollisionPadding: DefaultCollisionPadding,

		AnchorStrength:    DefaultAnchorStrength,
		CollideIterations: DefaultCollideIterations,
		VelocityDecay:     DefaultVelocityDecay,
		SectorRestoring:   DefaultSectorRestoring,
		SettleThreshold:   DefaultSettleThreshold,
		AlphaDecay:        DefaultAlphaDecay,
		WobbleImpulse:     DefaultWobbleImpulse,

		StaticMaxIterations: DefaultStaticMaxIterations,

		ArrangeCircumference: DefaultArrangeCircumference,
		ArrangeSmallCount:    DefaultArrangeSmallCount,
		ArrangeGapDeg:        DefaultArrangeGapDeg,

		FocusSpacing:        DefaultFocusSpacing,
		FocusRootMin:        DefaultFocusRootMin,
		FocusChildRadiusMin: DefaultFocusChildRadiusMin,
		FocusBurstTicks:     DefaultFocusBurstTicks,
		FocusRadiusScale:    DefaultFocusRadiusScale,
	}
}

// LoadConfig reads a TOML configuration file and merges it over the
// defaults: keys absent from the file keep their default value. The merged
// configuration is validated before being returned.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg := DefaultConfig()
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks that every value is strictly positive and that fractions
// lie in (0, 1]. It returns the first violation found.
func (c Config) Validate() error {
	if len(c.BaseDistance) == 0 {
		return fmt.Errorf("base_distance must have at least one entry")
	}
	for i, d := range c.BaseDistance {
		if err := positive(fmt.Sprintf("base_distance[%d]", i), d); err != nil {
			return err
		}
	}
	if len(c.CollisionRadius) == 0 {
		return fmt.Errorf("collision_radius must have at least one entry")
	}
	for i, r := range c.CollisionRadius {
		if err := positive(fmt.Sprintf("collision_radius[%d]", i), r); err != nil {
			return err
		}
	}

	checks := []struct {
		name  string
		value float64
	}{
		{"per_child_increment", c.PerChildIncrement},
		{"row_spacing", c.RowSpacing},
		{"min_sector_deg", c.MinSectorDeg},
		{"collision_padding", c.CollisionPadding},
		{"anchor_strength", c.AnchorStrength},
		{"velocity_decay", c.VelocityDecay},
		{"sector_restoring", c.SectorRestoring},
		{"settle_threshold", c.SettleThreshold},
		{"wobble_impulse", c.WobbleImpulse},
		{"arrange_circumference", c.ArrangeCircumference},
		{"arrange_gap_deg", c.ArrangeGapDeg},
		{"focus_spacing", c.FocusSpacing},
		{"focus_root_min", c.FocusRootMin},
		{"focus_child_radius_min", c.FocusChildRadiusMin},
		{"focus_radius_scale", c.FocusRadiusScale},
	}
	for _, ch := range checks {
		if err := positive(ch.name, ch.value); err != nil {
			return err
		}
	}

	fractions := []struct {
		name  string
		value float64
	}{
		{"sector_padding", c.SectorPadding},
		{"fan_span", c.FanSpan},
		{"alpha_decay", c.AlphaDecay},
	}
	for _, fr := range fractions {
		if fr.value <= 0 || fr.value > 1 {
			return fmt.Errorf("%s must be in (0, 1], got %v", fr.name, fr.value)
		}
	}

	counts := []struct {
		name  string
		value int
	}{
		{"collide_iterations", c.CollideIterations},
		{"static_max_iterations", c.StaticMaxIterations},
		{"arrange_small_count", c.ArrangeSmallCount},
		{"focus_burst_ticks", c.FocusBurstTicks},
	}
	for _, ct := range counts {
		if ct.value <= 0 {
			return fmt.Errorf("%s must be positive, got %d", ct.name, ct.value)
		}
	}
	return nil
}

func positive(name string, v float64) error {
	if v <= 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("%s must be strictly positive, got %v", name, v)
	}
	return nil
}

// BaseDistanceFor returns the ring distance for the given level. Level 0 is
// the root and has no ring distance; levels past the configured slice reuse
// its last entry.
func (c Config) BaseDistanceFor(level int) float64 {
	if level <= 0 {
		return 0
	}
	idx := level - 1
	if idx >= len(c.BaseDistance) {
		idx = len(c.BaseDistance) - 1
	}
	return c.BaseDistance[idx]
}

// RadiusFor returns the collision radius for the given level. Levels past
// the configured slice reuse its last entry.
func (c Config) RadiusFor(level int) float64 {
	idx := level
	if idx < 0 {
		idx = 0
	}
	if idx >= len(c.CollisionRadius) {
		idx = len(c.CollisionRadius) - 1
	}
	return c.CollisionRadius[idx]
}

// MinSector returns the per-sibling angular floor in radians.
func (c Config) MinSector() float64 { return c.MinSectorDeg * math.Pi / 180 }

// ArrangeGap returns the full-circle arrangement gap in radians.
func (c Config) ArrangeGap() float64 { return c.ArrangeGapDeg * math.Pi / 180 }
