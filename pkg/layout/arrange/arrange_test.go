package arrange

import (
	"fmt"
	"math"
	"testing"

	"github.com/matzehuels/radialmap/pkg/layout"
	"github.com/matzehuels/radialmap/pkg/taxonomy"
	"github.com/matzehuels/radialmap/pkg/view"
)

const eps = 1e-9

// branchTree builds root -> a,b,c,d with n leaves under a.
func branchTree(n int) *taxonomy.Node {
	leaves := make([]*taxonomy.Node, n)
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

func TestChildrenSmallCountHalfCircle(t *testing.T) {
	cfg := layout.DefaultConfig()
	g := prepared(t, branchTree(3), map[string]bool{"a": true}, cfg)

	pos := Children(g, "a", cfg)
	if len(pos) != 3 {
		t.Fatalf("positions = %d, want 3", len(pos))
	}

	a, _ := g.Node("a")
	root := g.Root()
	away := a.Pos.Angle(root.Pos)
	radius := RingRadius(cfg, 2, 3)

	for id, p := range pos {
		if d := p.Dist(a.Pos); math.Abs(d-radius) > eps {
			t.Errorf("%s distance = %v, want %v", id, d, radius)
		}
		// Every child must sit in the half plane facing away from the root:
		// its angle from a within Pi/2 of away.
		diff := view.NormalizeAngle(p.Angle(a.Pos) - away)
		if diff > math.Pi/2+eps && diff < 3*math.Pi/2-eps {
			t.Errorf("%s placed toward the root: angular offset %v", id, diff)
		}
	}
}

func TestChildrenLargeCountFullCircleWithGap(t *testing.T) {
	cfg := layout.DefaultConfig()
	g := prepared(t, branchTree(7), map[string]bool{"a": true}, cfg)

	pos := Children(g, "a", cfg)
	if len(pos) != 7 {
		t.Fatalf("positions = %d, want 7", len(pos))
	}

	// Scenario: 7 children exceed the small count, so the radius must cover
	// ~90px of circumference per child.
	radius := RingRadius(cfg, 2, 7)
	if min := 7 * cfg.ArrangeCircumference / view.Tau; radius < min-eps {
		t.Errorf("radius = %v, want >= %v", radius, min)
	}

	// The gap must face the root: no child angle within gap/2 of the
	// direction from a back toward the root.
	a, _ := g.Node("a")
	root := g.Root()
	toward := root.Pos.Angle(a.Pos)
	for id, p := range pos {
		off := view.NormalizeAngle(p.Angle(a.Pos) - toward)
		if off > view.Tau/2 {
			off = view.Tau - off
		}
		if off < cfg.ArrangeGap()/2-eps {
			t.Errorf("%s inside the parent-facing gap: offset %v", id, off)
		}
	}
}

func TestChildrenRecursesIntoGrandchildren(t *testing.T) {
	cfg := layout.DefaultConfig()
	tree := &taxonomy.Node{
		ID: "root",
		Children: []*taxonomy.Node{
			{ID: "a", Children: []*taxonomy.Node{
				{ID: "a1", Children: []*taxonomy.Node{{ID: "a1x"}, {ID: "a1y"}}},
				{ID: "a2"},
			}},
			{ID: "b"},
		},
	}
	g := prepared(t, tree, map[string]bool{"a": true, "a1": true}, cfg)

	pos := Children(g, "a", cfg)
	for _, id := range []string{"a1", "a2", "a1x", "a1y"} {
		if _, ok := pos[id]; !ok {
			t.Errorf("missing position for %s", id)
		}
	}

	// Grandchildren flow outward: further from a than their parent a1.
	a, _ := g.Node("a")
	for _, id := range []string{"a1x", "a1y"} {
		if pos[id].Dist(a.Pos) <= pos["a1"].Dist(a.Pos) {
			t.Errorf("%s not outward of a1: %v <= %v", id, pos[id].Dist(a.Pos), pos["a1"].Dist(a.Pos))
		}
	}
}

func TestChildrenUnknownOrLeaf(t *testing.T) {
	cfg := layout.DefaultConfig()
	g := prepared(t, branchTree(3), nil, cfg)

	if pos := Children(g, "nope", cfg); pos != nil {
		t.Errorf("unknown id: got %v, want nil", pos)
	}
	if pos := Children(g, "b", cfg); pos != nil {
		t.Errorf("leaf: got %v, want nil", pos)
	}
}

func TestChildrenRootFullCircle(t *testing.T) {
	cfg := layout.DefaultConfig()
	g := prepared(t, branchTree(0), nil, cfg)

	pos := Children(g, "root", cfg)
	if len(pos) != 4 {
		t.Fatalf("positions = %d, want 4", len(pos))
	}
	// Even partition starting straight up.
	a, _ := g.Node("a")
	got := view.NormalizeAngle(pos[a.ID].Angle(view.Point{}))
	want := view.NormalizeAngle(-math.Pi / 2)
	if math.Abs(got-want) > eps {
		t.Errorf("first child angle = %v, want %v", got, want)
	}
}

func TestNewFocusChainAndChildren(t *testing.T) {
	cfg := layout.DefaultConfig()
	tree := &taxonomy.Node{
		ID: "root",
		Children: []*taxonomy.Node{
			{ID: "a", Children: []*taxonomy.Node{
				{ID: "a1", Children: []*taxonomy.Node{{ID: "x"}, {ID: "y"}, {ID: "z"}}},
			}},
			{ID: "b"},
		},
	}
	g := prepared(t, tree, map[string]bool{"a": true, "a1": true}, cfg)

	f, ok := NewFocus(g, "a1", cfg)
	if !ok {
		t.Fatal("NewFocus reported unknown id")
	}

	if p := f.Positions["a1"]; p != (view.Point{}) {
		t.Errorf("focus node at %v, want origin", p)
	}
	if p := f.Positions["a"]; p.X != -cfg.FocusSpacing || p.Y != 0 {
		t.Errorf("ancestor a at %v, want (%v, 0)", p, -cfg.FocusSpacing)
	}
	if p := f.Positions["root"]; p.X != -cfg.FocusRootMin {
		// Chain of two is shorter than the root minimum, so the minimum wins.
		t.Errorf("root at %v, want x = %v", p, -cfg.FocusRootMin)
	}

	// Three children: half circle on the positive x side, radius bounded
	// below.
	for _, id := range []string{"x", "y", "z"} {
		p, ok := f.Positions[id]
		if !ok {
			t.Fatalf("missing child %s", id)
		}
		if p.X < -eps {
			t.Errorf("child %s at %v, want on the side away from the root", id, p)
		}
		if r := p.Dist(view.Point{}); r < cfg.FocusChildRadiusMin-eps {
			t.Errorf("child %s radius = %v, want >= %v", id, r, cfg.FocusChildRadiusMin)
		}
	}

	// Pinned covers focus, chain and children.
	want := map[string]bool{"a1": true, "a": true, "root": true, "x": true, "y": true, "z": true}
	if len(f.Pinned) != len(want) {
		t.Fatalf("pinned = %v, want %d ids", f.Pinned, len(want))
	}
	for _, id := range f.Pinned {
		if !want[id] {
			t.Errorf("unexpected pinned id %s", id)
		}
	}

	// Viewport spans from the root to the outermost child.
	if f.Viewport.Min.X != f.Positions["root"].X {
		t.Errorf("viewport min x = %v, want %v", f.Viewport.Min.X, f.Positions["root"].X)
	}
	if f.Viewport.Max.X <= 0 {
		t.Errorf("viewport max x = %v, want > 0", f.Viewport.Max.X)
	}
}

func TestNewFocusUnknownID(t *testing.T) {
	cfg := layout.DefaultConfig()
	g := prepared(t, branchTree(2), nil, cfg)
	if _, ok := NewFocus(g, "ghost", cfg); ok {
		t.Error("NewFocus accepted an unknown id")
	}
}

func TestViewportScale(t *testing.T) {
	v := Viewport{Min: view.Point{X: -200, Y: -100}, Max: view.Point{X: 200, Y: 100}}
	if got := v.Scale(200, 200); math.Abs(got-0.5) > eps {
		t.Errorf("Scale = %v, want 0.5", got)
	}
	if got := v.Scale(4000, 4000); got != 1 {
		t.Errorf("Scale = %v, want capped at 1", got)
	}
	if got := (Viewport{}).Scale(100, 100); got != 1 {
		t.Errorf("degenerate Scale = %v, want 1", got)
	}
}
