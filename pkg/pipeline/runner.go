package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/radialmap/pkg/engine"
	"github.com/matzehuels/radialmap/pkg/export"
	"github.com/matzehuels/radialmap/pkg/taxonomy"
)

// Runner encapsulates one-shot pipeline execution.
//
// The Runner is stateless except for the logger - it doesn't store pipeline
// results or keep an engine alive between calls. Multiple goroutines can
// safely use the same Runner with different options. Interactive hosts that
// need a live engine (drag, focus, ticking) should construct one directly;
// the Runner exists for the layout-once, render, exit flow.
type Runner struct {
	Logger *log.Logger
}

// NewRunner creates a runner. A nil logger falls back to log.Default.
func NewRunner(logger *log.Logger) *Runner {
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{Logger: logger}
}

// Stats captures per-stage timing and counts of one execution.
type Stats struct {
	LayoutTime time.Duration `json:"layout_time"`
	RenderTime time.Duration `json:"render_time"`
	NodeCount  int           `json:"node_count"`
	Ticks      int           `json:"ticks"`
}

// Result holds the outputs of a complete pipeline execution.
type Result struct {
	Snapshot  export.Snapshot
	Artifacts map[string][]byte
	Stats     Stats
}

// Execute runs the complete layout → snapshot → render pipeline over the
// given taxonomy tree.
func (r *Runner) Execute(ctx context.Context, tree *taxonomy.Node, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
	if tree == nil {
		return nil, fmt.Errorf("nil taxonomy tree")
	}

	result := &Result{
		Artifacts: make(map[string][]byte),
	}

	// Stage 1: Layout
	layoutStart := time.Now()
	eng, err := engine.New(opts.Config,
		engine.WithMode(engine.Mode(opts.Mode)),
		engine.WithSeed(opts.Seed))
	if err != nil {
		return nil, fmt.Errorf("layout: %w", err)
	}
	expanded := opts.Expanded
	if opts.ExpandAll {
		expanded = tree.IDs()
	}
	if err := eng.Initialize(tree, expanded); err != nil {
		return nil, fmt.Errorf("layout: %w", err)
	}
	ticks, err := r.settle(ctx, eng, opts)
	if err != nil {
		return nil, fmt.Errorf("layout: %w", err)
	}
	result.Stats.Ticks = ticks
	result.Stats.LayoutTime = time.Since(layoutStart)

	result.Snapshot = export.FromGraph(eng.Graph(), opts.Mode)
	result.Stats.NodeCount = len(result.Snapshot.Nodes)

	opts.Logger.Info("computed layout",
		"mode", opts.Mode,
		"nodes", result.Stats.NodeCount,
		"ticks", ticks,
		"duration", result.Stats.LayoutTime)

	// Stage 2: Render
	renderStart := time.Now()
	for _, format := range opts.Formats {
		data, err := r.render(ctx, result.Snapshot, format, opts)
		if err != nil {
			return nil, fmt.Errorf("render %s: %w", format, err)
		}
		result.Artifacts[format] = data
	}
	result.Stats.RenderTime = time.Since(renderStart)

	opts.Logger.Info("rendered outputs",
		"formats", opts.Formats,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// settle drives the relaxation strategy to convergence. Static passes
// complete inside Initialize, so settle returns immediately for them.
func (r *Runner) settle(ctx context.Context, eng *engine.Engine, opts Options) (int, error) {
	if opts.Mode != string(engine.ModeRelaxation) {
		return 0, nil
	}
	ticks := 0
	for eng.Tick() {
		ticks++
		if ticks >= opts.MaxTicks {
			opts.Logger.Warn("relaxation did not settle", "ticks", ticks)
			break
		}
		if err := ctx.Err(); err != nil {
			return ticks, err
		}
	}
	return ticks, nil
}

// render produces one artifact in the requested format.
func (r *Runner) render(ctx context.Context, s export.Snapshot, format string, opts Options) ([]byte, error) {
	switch format {
	case FormatJSON:
		var buf bytes.Buffer
		if err := export.WriteJSON(s, &buf); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	case FormatSVG:
		var svgOpts []export.SVGOption
		if opts.Labels {
			svgOpts = append(svgOpts, export.WithLabels())
		}
		if opts.Sectors {
			svgOpts = append(svgOpts, export.WithSectors())
		}
		return export.RenderSVG(s, svgOpts...), nil
	case FormatDOT:
		return []byte(export.ToDOT(s)), nil
	case FormatPNG:
		return export.RenderGraphviz(ctx, export.ToDOT(s), "png")
	default:
		return nil, fmt.Errorf("unknown format %q", format)
	}
}
