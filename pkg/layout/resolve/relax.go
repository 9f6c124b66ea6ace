// Package resolve perturbs ideal positions to remove node overlaps.
//
// Two interchangeable strategies are provided, selected per session:
//
//   - [Relaxer] runs a continuous relaxation, one [Relaxer.Tick] per
//     externally driven animation frame, and exposes a settling flag.
//   - [Static] runs a bounded synchronous pass with no time integration.
//
// Both keep the root pinned, treat a position-override entry as the node's
// target for the anchor and overlap math, and reset any node whose
// coordinate turns non-finite to its ideal position rather than failing the
// pass.
//
// Mutable physics state (velocities, transient fixed flags, effective radii)
// lives in records owned here, keyed by node ID and rebuilt alongside the
// graph. It is never attached to the shared view nodes.
package resolve

import (
	"math"
	"math/rand/v2"

	"github.com/matzehuels/radialmap/pkg/layout"
	"github.com/matzehuels/radialmap/pkg/view"
)

// body is the per-node physics record for the relaxation strategy.
type body struct {
	vel    view.Point
	prev   view.Point // position at the start of the current tick
	radius float64
	fixed  bool
}

// alphaFloor keeps a trace of anchor force alive after cooling, so a settled
// layout still creeps back if something nudges it between interactions.
const alphaFloor = 0.001

// Relaxer is the continuous collision strategy. Each [Relaxer.Tick] applies
// three forces per movable node: an anchor pull toward the node's effective
// target (override entry if present, else ideal position), a pairwise
// separation push between nodes whose collision radii overlap, and, for
// levels 1 and 2, a sector-restoring nudge that steers a node drifted
// outside its assigned sector back toward the nearest sector edge at its
// current radius from the parent.
//
// The anchor and sector forces cool over time: they are scaled by an alpha
// that decays each tick and is reset to full strength by every interaction
// (wobble, drag release, freeze/thaw). Cooling is what lets a crowded layout
// come to rest even when targets sit closer together than the collision
// radii allow: the anchor pull shrinks until the separation push wins.
//
// A Relaxer is built for exactly one graph instance and must be discarded
// when the graph is rebuilt. It is not safe for concurrent use.
type Relaxer struct {
	cfg  layout.Config
	g    *view.Graph
	over *layout.Overrides

	bodies map[string]*body
	nodes  []*view.Node
	rng    *rand.Rand

	alpha    float64
	settling bool
	frozen   map[string]float64 // frozen ID -> radius before scaling
	pinned   map[string]bool
}

// NewRelaxer builds the physics records for every visible node. The seed
// feeds the strategy's only randomness (zero-distance jiggle and wobble
// impulses), so runs with equal seeds are reproducible.
func NewRelaxer(g *view.Graph, over *layout.Overrides, cfg layout.Config, seed uint64) *Relaxer {
	r := &Relaxer{
		cfg:      cfg,
		g:        g,
		over:     over,
		bodies:   make(map[string]*body, g.Len()),
		nodes:    g.Nodes(),
		rng:      rand.New(rand.NewPCG(seed, seed^0xdeadbeef)),
		alpha:    1,
		settling: true,
		frozen:   make(map[string]float64),
		pinned:   make(map[string]bool),
	}
	for _, n := range r.nodes {
		r.bodies[n.ID] = &body{
			radius: cfg.RadiusFor(n.Level),
			fixed:  n.IsRoot(),
		}
	}
	return r
}

// Tick advances the relaxation by one step and reports whether the system
// is still settling. Convergence is judged on motion energy: the kinetic
// term plus the squared positional change of the tick, since the separation
// pass moves positions directly without passing through velocity.
func (r *Relaxer) Tick() bool {
	for _, n := range r.nodes {
		r.bodies[n.ID].prev = n.Pos
	}
	r.applyForces()
	r.integrate()
	for i := 0; i < r.cfg.CollideIterations; i++ {
		r.collide()
	}
	r.guardFinite()
	r.alpha = math.Max(alphaFloor, r.alpha*(1-r.cfg.AlphaDecay))
	r.settling = r.energy()+r.displacement() > r.cfg.SettleThreshold
	return r.settling
}

// applyForces accumulates the anchor and sector-restoring forces into each
// movable node's velocity.
func (r *Relaxer) applyForces() {
	for _, n := range r.nodes {
		b := r.bodies[n.ID]
		if b.fixed {
			continue
		}

		target := r.target(n)
		b.vel.X += (target.X - n.Pos.X) * r.cfg.AnchorStrength * r.alpha
		b.vel.Y += (target.Y - n.Pos.Y) * r.cfg.AnchorStrength * r.alpha

		if n.Level >= 1 && n.Level <= 2 {
			r.applySectorForce(n, b)
		}
	}
}

// applySectorForce nudges a node that has drifted outside its assigned
// sector back toward the nearest sector edge, keeping its current distance
// from the parent. Angles are measured relative to the parent's position so
// the check survives the parent itself having been displaced.
func (r *Relaxer) applySectorForce(n *view.Node, b *body) {
	parent, ok := r.g.ParentOf(n.ID)
	if !ok {
		return
	}
	radius := n.Pos.Dist(parent.Pos)
	if radius == 0 {
		return
	}
	angle := n.Pos.Angle(parent.Pos)
	if n.Sector.Contains(angle) {
		return
	}
	edge := n.Sector.ClampAngle(angle)
	desired := view.Polar(parent.Pos, edge, radius)
	b.vel.X += (desired.X - n.Pos.X) * r.cfg.SectorRestoring * r.alpha
	b.vel.Y += (desired.Y - n.Pos.Y) * r.cfg.SectorRestoring * r.alpha
}

// integrate moves every movable node by its velocity, then damps it.
func (r *Relaxer) integrate() {
	keep := 1 - r.cfg.VelocityDecay
	for _, n := range r.nodes {
		b := r.bodies[n.ID]
		if b.fixed {
			continue
		}
		n.Pos.X += b.vel.X
		n.Pos.Y += b.vel.Y
		b.vel.X *= keep
		b.vel.Y *= keep
	}
}

// collide pushes apart every overlapping pair. Positions are adjusted
// directly; fixed nodes never move, and a pair of fixed nodes is skipped.
func (r *Relaxer) collide() {
	for i := 0; i < len(r.nodes); i++ {
		for j := i + 1; j < len(r.nodes); j++ {
			a, c := r.nodes[i], r.nodes[j]
			ba, bc := r.bodies[a.ID], r.bodies[c.ID]
			if ba.fixed && bc.fixed {
				continue
			}
			limit := ba.radius + bc.radius
			separate(a, c, ba.fixed, bc.fixed, limit, r.rng)
		}
	}
}

// target returns the node's effective anchor target: its override entry if
// one exists, else its ideal position.
func (r *Relaxer) target(n *view.Node) view.Point {
	if p, ok := r.over.Get(n.ID); ok {
		return p
	}
	return n.Ideal
}

// energy returns the mean kinetic energy per movable node.
func (r *Relaxer) energy() float64 {
	total := 0.0
	movable := 0
	for _, b := range r.bodies {
		if b.fixed {
			continue
		}
		total += (b.vel.X*b.vel.X + b.vel.Y*b.vel.Y) / 2
		movable++
	}
	if movable == 0 {
		return 0
	}
	return total / float64(movable)
}

// displacement returns the mean squared per-tick positional change per
// movable node. Collision corrections adjust positions directly without
// passing through velocity, so the kinetic term alone cannot see them.
func (r *Relaxer) displacement() float64 {
	total := 0.0
	movable := 0
	for _, n := range r.nodes {
		b := r.bodies[n.ID]
		if b.fixed {
			continue
		}
		dx := n.Pos.X - b.prev.X
		dy := n.Pos.Y - b.prev.Y
		total += (dx*dx + dy*dy) / 2
		movable++
	}
	if movable == 0 {
		return 0
	}
	return total / float64(movable)
}

// guardFinite resets any node with a non-finite coordinate to its ideal
// position. The fault stays local: descendants and the rest of the pass are
// untouched.
func (r *Relaxer) guardFinite() {
	for _, n := range r.nodes {
		if n.Pos.IsFinite() {
			continue
		}
		n.Pos = n.Ideal
		r.bodies[n.ID].vel = view.Point{}
	}
}

// Settling reports whether the motion energy of the last tick was still
// above the configured threshold. It is refreshed by every Tick.
func (r *Relaxer) Settling() bool { return r.settling }

// Wobble injects a small, randomly directed velocity impulse into every
// non-root, non-pinned node so the layout visually re-settles without any
// ideal target changing.
func (r *Relaxer) Wobble() {
	for _, n := range r.nodes {
		b := r.bodies[n.ID]
		if b.fixed {
			continue
		}
		angle := r.rng.Float64() * view.Tau
		b.vel.X += r.cfg.WobbleImpulse * math.Cos(angle)
		b.vel.Y += r.cfg.WobbleImpulse * math.Sin(angle)
	}
	r.alpha = 1
	r.settling = true
}

// Pin fixes a node at the given position for the duration of a drag. The
// node stops responding to forces; its coordinate follows [Relaxer.MovePinned]
// exactly.
func (r *Relaxer) Pin(id string, p view.Point) {
	b, ok := r.bodies[id]
	if !ok {
		return
	}
	n, _ := r.g.Node(id)
	if n.IsRoot() {
		return
	}
	b.fixed = true
	b.vel = view.Point{}
	r.pinned[id] = true
	r.alpha = 1
	n.Pos = p
}

// MovePinned moves a pinned node to track the pointer. IDs that are not
// pinned are ignored.
func (r *Relaxer) MovePinned(id string, p view.Point) {
	if !r.pinned[id] {
		return
	}
	n, _ := r.g.Node(id)
	n.Pos = p
}

// Unpin releases a dragged node back into the simulation with zero
// velocity, so the relaxation resumes from a low-energy state rather than a
// cold start.
func (r *Relaxer) Unpin(id string) {
	b, ok := r.bodies[id]
	if !ok || !r.pinned[id] {
		return
	}
	delete(r.pinned, id)
	if _, stillFrozen := r.frozen[id]; !stillFrozen {
		b.fixed = false
	}
	b.vel = view.Point{}
	r.alpha = 1
	r.settling = true
}

// Freeze temporarily fixes the given nodes and scales their collision radii.
// Focus layouts use this to push unrelated nodes away from a freshly placed
// arrangement without disturbing it. Call [Relaxer.Thaw] to release.
func (r *Relaxer) Freeze(ids []string, radiusScale float64) {
	for _, id := range ids {
		b, ok := r.bodies[id]
		if !ok {
			continue
		}
		if _, already := r.frozen[id]; already {
			continue
		}
		r.frozen[id] = b.radius
		b.radius *= radiusScale
		b.fixed = true
		b.vel = view.Point{}
	}
	r.alpha = 1
}

// Thaw releases every frozen node, restoring its original collision radius.
// The root and any node pinned by an in-progress drag stay fixed.
func (r *Relaxer) Thaw() {
	for id, radius := range r.frozen {
		b := r.bodies[id]
		b.radius = radius
		n, _ := r.g.Node(id)
		b.fixed = n.IsRoot() || r.pinned[id]
	}
	r.frozen = make(map[string]float64)
	r.alpha = 1
	r.settling = true
}

// Burst runs n synchronous ticks, used by focus layouts to displace
// unrelated nodes in one call rather than across animation frames.
func (r *Relaxer) Burst(n int) {
	for i := 0; i < n; i++ {
		r.Tick()
	}
}
