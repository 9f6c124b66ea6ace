// Package pkg provides the core libraries for Radialmap tree layout and
// visualization.
//
// # Overview
//
// Radialmap arranges a taxonomy tree radially around its root: direct children
// sit on an inner ring, expanded subtrees fan out into angular sectors, and a
// collision resolver keeps sibling branches apart. The pkg directory is
// organized into four main areas:
//
//  1. [taxonomy] / [view] - Input trees and visible-graph construction
//  2. [layout] / [engine] - Layout math and the stateful layout engine
//  3. [export] - Snapshot serialization and renderers (SVG, DOT, PNG, JSON)
//  4. [pipeline] - Orchestration (load → layout → render)
//
// # Architecture
//
// The typical data flow through Radialmap:
//
//	taxonomy.json / taxonomy.yaml
//	         ↓
//	    [taxonomy] package (parse + validate the tree)
//	         ↓
//	    [view] package (expansion state → visible graph)
//	         ↓
//	    [engine] package (sectors, ideal positions, collision resolution)
//	         ↓
//	    [export] package (snapshot → SVG/DOT/PNG/JSON)
//
// # Quick Start
//
// Lay out a tree and render it:
//
//	import (
//	    "context"
//	    "github.com/matzehuels/radialmap/pkg/pipeline"
//	    "github.com/matzehuels/radialmap/pkg/taxonomy"
//	)
//
//	tree, _ := taxonomy.Load("taxonomy.json")
//	runner := pipeline.NewRunner(nil)
//	res, _ := runner.Execute(context.Background(), tree, pipeline.Options{
//	    ExpandAll: true,
//	    Formats:   []string{pipeline.FormatSVG},
//	})
//	svg := res.Artifacts[pipeline.FormatSVG]
//
// # Main Packages
//
// [taxonomy] - Tree input: JSON and YAML readers, node identity and
// validation (unique IDs, single root, no cycles).
//
// [view] - Builds the visible graph from a tree plus an expansion set. The
// root's direct children are always visible; deeper nodes appear only when
// every ancestor below the root is expanded.
//
// [layout] - Pure layout math: subtree analysis (leaf counts, depth),
// angular sector assignment, ideal polar positions, and the two collision
// resolvers (iterative relaxation and deterministic static sweep). All
// tunables live in [layout.Config], loadable from TOML.
//
// [engine] - The stateful facade interactive hosts drive: expansion and mode
// changes, host-driven ticks, the drag protocol, circular child arrangement,
// focus mode, wobble, and position overrides. Every mutation triggers a
// rebuild through the layout pipeline.
//
// [store] - Persistence for position overrides, keyed by scope. File-backed
// for the CLI, Redis-backed for the server, memory-backed for tests.
//
// [export] - Snapshot types plus renderers: native SVG, Graphviz DOT and PNG,
// and JSON round-tripping so layouts can be re-rendered later.
//
// [pipeline] - One-shot orchestration (load → layout → render) shared by the
// CLI commands. Stateless; interactive hosts construct engines directly.
//
// [observability] - Hook interfaces the engine and stores report through,
// with a process-wide registry. The server binds these to Prometheus.
//
// [errors] - Structured error codes shared by the CLI and HTTP API, plus
// input validators for node IDs, scopes, and paths.
//
// [buildinfo] - Version metadata injected at build time via ldflags.
//
// # Common Workflows
//
// Drive an engine interactively:
//
//	eng := engine.New(layout.DefaultConfig(), engine.WithMode(engine.ModeRelaxation))
//	eng.Initialize(tree, tree.IDs())
//	for eng.Tick() {
//	}
//
// Drag a node and persist the result:
//
//	eng.BeginDrag("machine-learning")
//	eng.DragTo("machine-learning", 420, -180)
//	eng.EndDrag("machine-learning")
//	st := store.NewFileStore(dir)
//	_ = st.Save(ctx, "default", eng.Overrides())
//
// Focus on a subtree:
//
//	eng.EnterFocus("machine-learning")
//	if vp, ok := eng.FocusViewport(); ok {
//	    scale := vp.Scale(1280, 800)
//	    _ = scale
//	}
//
// # Testing
//
// Run tests:
//
//	go test ./pkg/...              # All tests
//	go test ./pkg/layout/...       # Specific package
//	go test -run Example           # Examples only
//
// [taxonomy]: https://pkg.go.dev/github.com/matzehuels/radialmap/pkg/taxonomy
// [view]: https://pkg.go.dev/github.com/matzehuels/radialmap/pkg/view
// [layout]: https://pkg.go.dev/github.com/matzehuels/radialmap/pkg/layout
// [layout.Config]: https://pkg.go.dev/github.com/matzehuels/radialmap/pkg/layout#Config
// [engine]: https://pkg.go.dev/github.com/matzehuels/radialmap/pkg/engine
// [store]: https://pkg.go.dev/github.com/matzehuels/radialmap/pkg/store
// [export]: https://pkg.go.dev/github.com/matzehuels/radialmap/pkg/export
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/radialmap/pkg/pipeline
// [observability]: https://pkg.go.dev/github.com/matzehuels/radialmap/pkg/observability
// [errors]: https://pkg.go.dev/github.com/matzehuels/radialmap/pkg/errors
// [buildinfo]: https://pkg.go.dev/github.com/matzehuels/radialmap/pkg/buildinfo
package pkg
