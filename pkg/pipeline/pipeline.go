// Package pipeline provides the core layout pipeline for Radialmap.
//
// This package implements the complete load → layout → render flow that
// can be used by CLI, API, and server components. By centralizing this logic,
// we ensure consistent behavior across all entry points and avoid code duplication.
//
// # Architecture
//
// The pipeline consists of three stages:
//
//  1. Load: Decode a taxonomy tree from a JSON or YAML document
//  2. Layout: Run the engine (sectors, ideal positions, collision resolution)
//  3. Render: Generate output in various formats (JSON, SVG, DOT, PNG)
//
// Each stage can be run independently or as part of the complete pipeline.
//
// # Usage
//
// Create a Runner and execute the pipeline:
//
//	runner := pipeline.NewRunner(logger)
//	opts := pipeline.Options{
//	    Mode:      "static",
//	    ExpandAll: true,
//	    Formats:   []string{"svg"},
//	}
//	result, err := runner.Execute(ctx, tree, opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	svg := result.Artifacts["svg"]
package pipeline

import (
	"fmt"
	"slices"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/radialmap/pkg/engine"
	"github.com/matzehuels/radialmap/pkg/layout"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and Server
// =============================================================================

const (
	// DefaultMode is the default collision-resolution strategy. Static
	// suits one-shot hosts; interactive hosts switch to relaxation.
	DefaultMode = string(engine.ModeStatic)

	// DefaultSeed is the default random seed for reproducibility.
	DefaultSeed = uint64(42)

	// DefaultMaxTicks caps the synchronous settling loop when the pipeline
	// runs the relaxation strategy to convergence in one call.
	DefaultMaxTicks = 600
)

// Format constants for output formats.
const (
	FormatJSON = "json"
	FormatSVG  = "svg"
	FormatDOT  = "dot"
	FormatPNG  = "png"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatJSON: true,
	FormatSVG:  true,
	FormatDOT:  true,
	FormatPNG:  true,
}

// ValidModes is the set of supported layout modes.
var ValidModes = map[string]bool{
	string(engine.ModeRelaxation): true,
	string(engine.ModeStatic):     true,
}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for the layout pipeline.
// This struct supports JSON serialization for API requests.
type Options struct {
	// Layout options
	Mode      string   `json:"mode,omitempty"`
	Expanded  []string `json:"expanded,omitempty"`
	ExpandAll bool     `json:"expand_all,omitempty"`
	Seed      uint64   `json:"seed,omitempty"`
	MaxTicks  int      `json:"max_ticks,omitempty"`

	// Config carries the engine tuning; the zero value means defaults.
	Config layout.Config `json:"config,omitempty"`

	// Render options
	Formats []string `json:"formats,omitempty"`
	Labels  bool     `json:"labels,omitempty"`
	Sectors bool     `json:"sectors,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool
}

// ValidateAndSetDefaults fills in unset fields and rejects invalid ones.
// It is idempotent; the Runner calls it on every Execute.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}

	if o.Mode == "" {
		o.Mode = DefaultMode
	}
	if !ValidModes[o.Mode] {
		return fmt.Errorf("unknown mode %q", o.Mode)
	}

	if o.Seed == 0 {
		o.Seed = DefaultSeed
	}
	if o.MaxTicks <= 0 {
		o.MaxTicks = DefaultMaxTicks
	}

	if len(o.Config.BaseDistance) == 0 && len(o.Config.CollisionRadius) == 0 {
		o.Config = layout.DefaultConfig()
	}
	if err := o.Config.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	if len(o.Formats) == 0 {
		o.Formats = []string{FormatJSON}
	}
	o.Formats = slices.Compact(slices.Clone(o.Formats))
	for _, f := range o.Formats {
		if !ValidFormats[f] {
			return fmt.Errorf("unknown format %q", f)
		}
	}

	o.validated = true
	return nil
}
