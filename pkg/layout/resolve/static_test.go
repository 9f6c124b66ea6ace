package resolve

import (
	"fmt"
	"math"
	"testing"

	"github.com/matzehuels/radialmap/pkg/layout"
	"github.com/matzehuels/radialmap/pkg/taxonomy"
	"github.com/matzehuels/radialmap/pkg/view"
)

const eps = 1e-6

// crowdedTree puts eight leaves under one of four branches, enough that
// their ideal positions overlap at default radii.
func crowdedTree() *taxonomy.Node {
	leaves := make([]*taxonomy.Node, 8)
	for i := range leaves {
		leaves[i] = &taxonomy.Node{ID: fmt.Sprintf("leaf%d", i)}
	}
	return &taxonomy.Node{
		ID: "root",
		Children: []*taxonomy.Node{
			{ID: "a", Children: leaves},
			{ID: "b"}, {ID: "c"}, {ID: "d"},
		},
	}
}

func prepared(t *testing.T, tree *taxonomy.Node, expanded map[string]bool, cfg layout.Config) *view.Graph {
	t.Helper()
	g := view.Build(tree, expanded)
	g.Analyze()
	layout.AssignSectors(g, cfg)
	layout.ComputeIdeal(g, cfg)
	layout.ApplyStartingPositions(g, layout.NewOverrides(), nil)
	return g
}

// assertSeparated checks the §-style pairwise distance bound for every pair
// with at least one movable node.
func assertSeparated(t *testing.T, g *view.Graph, over *layout.Overrides, cfg layout.Config) {
	t.Helper()
	order := g.Order()
	for i := 0; i < len(order); i++ {
		for j := i + 1; j < len(order); j++ {
			a, _ := g.Node(order[i])
			b, _ := g.Node(order[j])
			_, aOver := over.Get(a.ID)
			_, bOver := over.Get(b.ID)
			aFixed := a.IsRoot() || aOver
			bFixed := b.IsRoot() || bOver
			if aFixed && bFixed {
				continue
			}
			limit := cfg.RadiusFor(a.Level) + cfg.RadiusFor(b.Level)
			if d := a.Pos.Dist(b.Pos); d < limit-eps {
				t.Errorf("%s and %s too close: %v < %v", a.ID, b.ID, d, limit)
			}
		}
	}
}

func TestStaticSeparatesOverlaps(t *testing.T) {
	cfg := layout.DefaultConfig()
	over := layout.NewOverrides()
	g := prepared(t, crowdedTree(), map[string]bool{"a": true}, cfg)

	// The crowded branch must actually start with overlaps, otherwise this
	// test exercises nothing.
	overlapping := false
	for _, l := range g.ChildrenOf("a") {
		for _, m := range g.ChildrenOf("a") {
			if l.ID < m.ID && l.Pos.Dist(m.Pos) < 2*cfg.RadiusFor(l.Level) {
				overlapping = true
			}
		}
	}
	if !overlapping {
		t.Fatal("fixture is not crowded enough to overlap")
	}

	iterations := Static(g, over, cfg)
	if iterations < 1 || iterations > cfg.StaticMaxIterations {
		t.Errorf("iterations = %d, want within [1, %d]", iterations, cfg.StaticMaxIterations)
	}
	assertSeparated(t, g, over, cfg)
}

func TestStaticKeepsRootPinned(t *testing.T) {
	cfg := layout.DefaultConfig()
	g := prepared(t, crowdedTree(), map[string]bool{"a": true}, cfg)

	Static(g, layout.NewOverrides(), cfg)
	if g.Root().Pos != (view.Point{}) {
		t.Errorf("root moved to %v", g.Root().Pos)
	}
}

func TestStaticRespectsOverrides(t *testing.T) {
	cfg := layout.DefaultConfig()
	g := prepared(t, crowdedTree(), map[string]bool{"a": true}, cfg)

	// Pin one crowded leaf via an override: it must not move even though
	// its neighbors overlap it.
	over := layout.NewOverrides()
	pinnedPos := view.Point{X: 40, Y: -200}
	over.Set("leaf3", pinnedPos)
	n, _ := g.Node("leaf3")
	n.Pos = pinnedPos

	Static(g, over, cfg)

	if n.Pos != pinnedPos {
		t.Errorf("override-backed node moved: %v, want %v", n.Pos, pinnedPos)
	}
	assertSeparated(t, g, over, cfg)
}

func TestStaticEarlyStopWithoutOverlap(t *testing.T) {
	cfg := layout.DefaultConfig()
	// Collapsed view: four level-1 nodes far apart, nothing overlaps.
	g := prepared(t, crowdedTree(), nil, cfg)
	before := g.Positions()

	iterations := Static(g, layout.NewOverrides(), cfg)
	if iterations != 1 {
		t.Errorf("iterations = %d, want 1 for an overlap-free layout", iterations)
	}
	for id, p := range g.Positions() {
		if p != before[id] {
			t.Errorf("%s moved without overlap: %v -> %v", id, before[id], p)
		}
	}
}

func TestStaticIdempotent(t *testing.T) {
	cfg := layout.DefaultConfig()
	over := layout.NewOverrides()
	g := prepared(t, crowdedTree(), map[string]bool{"a": true}, cfg)

	Static(g, over, cfg)
	after := g.Positions()

	// A second pass over the already resolved layout finds no overlaps and
	// changes nothing.
	iterations := Static(g, over, cfg)
	if iterations != 1 {
		t.Errorf("second pass iterations = %d, want 1", iterations)
	}
	for id, p := range g.Positions() {
		if math.Abs(p.X-after[id].X) > eps || math.Abs(p.Y-after[id].Y) > eps {
			t.Errorf("%s moved on second pass: %v -> %v", id, after[id], p)
		}
	}
}

func TestStaticCoincidentCenters(t *testing.T) {
	cfg := layout.DefaultConfig()
	g := prepared(t, crowdedTree(), map[string]bool{"a": true}, cfg)

	// Stack two leaves exactly on top of each other.
	l0, _ := g.Node("leaf0")
	l1, _ := g.Node("leaf1")
	l1.Pos = l0.Pos

	Static(g, layout.NewOverrides(), cfg)

	limit := 2 * cfg.RadiusFor(l0.Level)
	if d := l0.Pos.Dist(l1.Pos); d < limit-eps {
		t.Errorf("coincident nodes still overlap: %v < %v", d, limit)
	}
}

func TestStaticResetsNonFinite(t *testing.T) {
	cfg := layout.DefaultConfig()
	g := prepared(t, crowdedTree(), nil, cfg)

	n, _ := g.Node("b")
	n.Pos = view.Point{X: math.NaN(), Y: 10}

	Static(g, layout.NewOverrides(), cfg)
	if !n.Pos.IsFinite() {
		t.Errorf("non-finite position survived: %v", n.Pos)
	}
}
