package resolve

import (
	"math"
	"math/rand/v2"

	"github.com/matzehuels/radialmap/pkg/layout"
	"github.com/matzehuels/radialmap/pkg/view"
)

// staticSeed fixes the jiggle sequence for zero-distance pairs, so repeated
// static passes over identical inputs produce identical positions.
const staticSeed = 42

// Static resolves overlaps synchronously with no time integration. It runs
// up to the configured iteration cap; each iteration pushes apart every node
// pair closer than the sum of their collision radii plus the padding
// constant, along the connecting vector, proportional to the overlap. The
// pass stops early once an iteration finds no overlap.
//
// A node is fixed if it is the root or has an override entry: fixed nodes
// never move, a pair of fixed nodes is skipped entirely, mixed pairs move
// the movable node by the full overlap, and movable pairs split it evenly.
//
// Positions are updated in place on the graph. The return value is the
// number of iterations run, at most cfg.StaticMaxIterations.
func Static(g *view.Graph, over *layout.Overrides, cfg layout.Config) int {
	order := g.Order()
	radii := make([]float64, len(order))
	fixed := make([]bool, len(order))
	for i, id := range order {
		n, _ := g.Node(id)
		radii[i] = cfg.RadiusFor(n.Level)
		_, hasOverride := over.Get(id)
		fixed[i] = n.IsRoot() || hasOverride
	}

	rng := rand.New(rand.NewPCG(staticSeed, staticSeed^0xdeadbeef))

	iterations := 0
	for iterations < cfg.StaticMaxIterations {
		iterations++
		moved := false
		for i := 0; i < len(order); i++ {
			for j := i + 1; j < len(order); j++ {
				if fixed[i] && fixed[j] {
					continue
				}
				a, _ := g.Node(order[i])
				b, _ := g.Node(order[j])
				limit := radii[i] + radii[j] + cfg.CollisionPadding
				if separate(a, b, fixed[i], fixed[j], limit, rng) {
					moved = true
				}
			}
		}
		if !moved {
			break
		}
	}

	for _, id := range order {
		n, _ := g.Node(id)
		if !n.Pos.IsFinite() {
			n.Pos = n.Ideal
		}
	}
	return iterations
}

// separate pushes two nodes apart if their centers are closer than limit.
// Coincident centers are split along a random direction; the direction
// comes from the caller's seeded source, keeping passes reproducible.
// Reports whether anything moved.
func separate(a, b *view.Node, aFixed, bFixed bool, limit float64, rng *rand.Rand) bool {
	dx := a.Pos.X - b.Pos.X
	dy := a.Pos.Y - b.Pos.Y
	dist := math.Hypot(dx, dy)
	if dist >= limit {
		return false
	}

	var ux, uy, overlap float64
	if dist == 0 {
		angle := rng.Float64() * view.Tau
		ux, uy = math.Cos(angle), math.Sin(angle)
		overlap = limit
	} else {
		ux, uy = dx/dist, dy/dist
		overlap = limit - dist
	}

	switch {
	case aFixed:
		b.Pos.X -= ux * overlap
		b.Pos.Y -= uy * overlap
	case bFixed:
		a.Pos.X += ux * overlap
		a.Pos.Y += uy * overlap
	default:
		half := overlap / 2
		a.Pos.X += ux * half
		a.Pos.Y += uy * half
		b.Pos.X -= ux * half
		b.Pos.Y -= uy * half
	}
	return true
}
