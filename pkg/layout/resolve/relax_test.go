package resolve

import (
	"math"
	"testing"

	"github.com/matzehuels/radialmap/pkg/layout"
	"github.com/matzehuels/radialmap/pkg/view"
)

const relaxSeed = 7

// settle ticks until the relaxer reports convergence or the cap is hit,
// returning the tick count.
func settle(t *testing.T, r *Relaxer, cap int) int {
	t.Helper()
	for i := 1; i <= cap; i++ {
		if !r.Tick() {
			return i
		}
	}
	t.Fatalf("relaxation did not settle within %d ticks", cap)
	return cap
}

func TestRelaxerSettles(t *testing.T) {
	cfg := layout.DefaultConfig()
	over := layout.NewOverrides()
	g := prepared(t, crowdedTree(), map[string]bool{"a": true}, cfg)

	r := NewRelaxer(g, over, cfg, relaxSeed)
	if !r.Settling() {
		t.Fatal("fresh relaxer must report settling")
	}
	ticks := settle(t, r, 2000)
	if r.Settling() {
		t.Error("Settling() still true after convergence")
	}
	t.Logf("settled in %d ticks", ticks)

	// Converged layout separates the crowded leaves (relaxation converges
	// on force balance, so allow a modest tolerance).
	for _, a := range g.ChildrenOf("a") {
		for _, b := range g.ChildrenOf("a") {
			if a.ID >= b.ID {
				continue
			}
			limit := 2 * cfg.RadiusFor(a.Level) * 0.8
			if d := a.Pos.Dist(b.Pos); d < limit {
				t.Errorf("%s and %s still overlapping: %v < %v", a.ID, b.ID, d, limit)
			}
		}
	}
}

func TestRelaxerColdStartKeepsSettling(t *testing.T) {
	cfg := layout.DefaultConfig()
	g := prepared(t, crowdedTree(), map[string]bool{"a": true}, cfg)

	// Positions start exactly on the ideal targets, so the first tick has
	// zero anchor force and zero kinetic energy going in. The crowded leaves
	// overlap, so the overlap corrections still move nodes; the tick must
	// report the system as unconverged.
	r := NewRelaxer(g, layout.NewOverrides(), cfg, relaxSeed)
	if !r.Tick() {
		t.Fatal("first tick reported settled while overlaps were unresolved")
	}
	settle(t, r, 2000)
}

func TestRelaxerKeepsRootPinned(t *testing.T) {
	cfg := layout.DefaultConfig()
	g := prepared(t, crowdedTree(), map[string]bool{"a": true}, cfg)

	r := NewRelaxer(g, layout.NewOverrides(), cfg, relaxSeed)
	for i := 0; i < 50; i++ {
		r.Tick()
	}
	if g.Root().Pos != (view.Point{}) {
		t.Errorf("root moved to %v", g.Root().Pos)
	}
}

func TestRelaxerAnchorsToOverride(t *testing.T) {
	cfg := layout.DefaultConfig()
	over := layout.NewOverrides()
	g := prepared(t, crowdedTree(), nil, cfg)

	// Override b far away from its ideal; the anchor force must pull it to
	// the override target, not back to the ideal.
	target := view.Point{X: 600, Y: 400}
	over.Set("b", target)

	r := NewRelaxer(g, over, cfg, relaxSeed)
	settle(t, r, 2000)

	b, _ := g.Node("b")
	if d := b.Pos.Dist(target); d > 5 {
		t.Errorf("override-backed node settled %v away from its target", d)
	}
}

func TestRelaxerSectorForce(t *testing.T) {
	cfg := layout.DefaultConfig()
	g := prepared(t, crowdedTree(), nil, cfg)

	// Drop a level-1 node deep inside a sibling's sector; the restoring
	// force must steer it back inside its own.
	b, _ := g.Node("b")
	wrong := view.NormalizeAngle(b.Sector.Center() + math.Pi)
	b.Pos = view.Polar(view.Point{}, wrong, b.Radius)

	r := NewRelaxer(g, layout.NewOverrides(), cfg, relaxSeed)
	settle(t, r, 4000)

	angle := b.Pos.Angle(g.Root().Pos)
	if !b.Sector.Contains(angle) {
		// Allow a small angular slack: force balance can rest just outside
		// the edge.
		off := math.Min(
			view.NormalizeAngle(angle-b.Sector.Start),
			view.NormalizeAngle(b.Sector.End()-angle))
		if off > 0.15 {
			t.Errorf("node rests outside its sector: angle %v not in [%v, %v]",
				angle, b.Sector.Start, b.Sector.End())
		}
	}
}

func TestRelaxerWobbleUnsettles(t *testing.T) {
	cfg := layout.DefaultConfig()
	g := prepared(t, crowdedTree(), nil, cfg)
	ideals := make(map[string]view.Point)
	for _, n := range g.Nodes() {
		ideals[n.ID] = n.Ideal
	}

	r := NewRelaxer(g, layout.NewOverrides(), cfg, relaxSeed)
	settle(t, r, 2000)

	r.Wobble()
	if !r.Settling() {
		t.Fatal("wobble must restart settling")
	}
	settle(t, r, 2000)

	// No ideal target changed, so everything re-settles near its ideal.
	for _, n := range g.Nodes() {
		if d := n.Pos.Dist(ideals[n.ID]); d > 10 {
			t.Errorf("%s drifted %v from its ideal after wobble", n.ID, d)
		}
		if n.Ideal != ideals[n.ID] {
			t.Errorf("%s ideal changed by wobble", n.ID)
		}
	}
}

func TestRelaxerPinTracksPointer(t *testing.T) {
	cfg := layout.DefaultConfig()
	g := prepared(t, crowdedTree(), map[string]bool{"a": true}, cfg)

	r := NewRelaxer(g, layout.NewOverrides(), cfg, relaxSeed)
	r.Pin("leaf0", view.Point{X: 10, Y: 20})
	r.MovePinned("leaf0", view.Point{X: 33, Y: -44})

	for i := 0; i < 20; i++ {
		r.Tick()
	}
	n, _ := g.Node("leaf0")
	if n.Pos != (view.Point{X: 33, Y: -44}) {
		t.Errorf("pinned node moved by ticks: %v", n.Pos)
	}

	r.Unpin("leaf0")
	if !r.Settling() {
		t.Error("unpin must restart settling")
	}
}

func TestRelaxerPinRefusesRoot(t *testing.T) {
	cfg := layout.DefaultConfig()
	g := prepared(t, crowdedTree(), nil, cfg)

	r := NewRelaxer(g, layout.NewOverrides(), cfg, relaxSeed)
	r.Pin("root", view.Point{X: 99, Y: 99})
	if g.Root().Pos != (view.Point{}) {
		t.Errorf("root pinned away from origin: %v", g.Root().Pos)
	}
}

func TestRelaxerFreezeAndThaw(t *testing.T) {
	cfg := layout.DefaultConfig()
	g := prepared(t, crowdedTree(), map[string]bool{"a": true}, cfg)

	r := NewRelaxer(g, layout.NewOverrides(), cfg, relaxSeed)
	frozen := view.Point{X: 120, Y: 0}
	n, _ := g.Node("leaf0")
	n.Pos = frozen

	r.Freeze([]string{"leaf0"}, cfg.FocusRadiusScale)
	r.Burst(30)
	if n.Pos != frozen {
		t.Errorf("frozen node moved during burst: %v", n.Pos)
	}

	r.Thaw()
	settle(t, r, 2000)
	if d := n.Pos.Dist(n.Ideal); d > 200 {
		t.Errorf("thawed node never returned toward its ideal: %v away", d)
	}
}

func TestRelaxerResetsNonFinite(t *testing.T) {
	cfg := layout.DefaultConfig()
	g := prepared(t, crowdedTree(), nil, cfg)

	n, _ := g.Node("c")
	n.Pos = view.Point{X: math.Inf(1), Y: 0}

	r := NewRelaxer(g, layout.NewOverrides(), cfg, relaxSeed)
	r.Tick()
	if !n.Pos.IsFinite() {
		t.Errorf("non-finite position survived a tick: %v", n.Pos)
	}
}

func TestRelaxerDeterministicForSeed(t *testing.T) {
	cfg := layout.DefaultConfig()

	run := func() map[string]view.Point {
		g := prepared(t, crowdedTree(), map[string]bool{"a": true}, cfg)
		r := NewRelaxer(g, layout.NewOverrides(), cfg, relaxSeed)
		for i := 0; i < 100; i++ {
			r.Tick()
		}
		return g.Positions()
	}

	first, second := run(), run()
	for id, p := range first {
		if q := second[id]; math.Abs(p.X-q.X) > eps || math.Abs(p.Y-q.Y) > eps {
			t.Errorf("%s differs across seeded runs: %v vs %v", id, p, q)
		}
	}
}
