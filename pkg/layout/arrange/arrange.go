// Package arrange computes explicit ring and fan placements for a node's
// children, plus the temporary focus layout that isolates one branch.
//
// Unlike the deterministic pipeline in pkg/layout, these placements are
// commands: they are invoked on demand for one node and their results are
// written into the override store by the engine (except in focus mode, where
// they are applied transiently and never persisted).
package arrange

import (
	"math"

	"github.com/matzehuels/radialmap/pkg/layout"
	"github.com/matzehuels/radialmap/pkg/view"
)

// Children computes ring positions for the visible children of the given
// node, and recursively fans each child's own children further outward.
// Positions are computed from the node's current position, so an already
// dragged node keeps its arrangement local.
//
// Small child sets (at most cfg.ArrangeSmallCount) fan across the half circle
// facing away from the arranged node's own parent, so they never overlap the
// path back toward the root. Larger sets are placed on a full circle with an
// angular gap reserved on the side facing the parent chain. The ring radius
// grows with the child count so that each child gets roughly
// cfg.ArrangeCircumference of arc length.
//
// The returned map holds every computed position keyed by node ID; it is nil
// if the ID is not visible or the node has no visible children. Children does
// not mutate the graph or any override store: applying and persisting the
// result is the caller's decision.
func Children(g *view.Graph, id string, cfg layout.Config) map[string]view.Point {
	n, ok := g.Node(id)
	if !ok || len(n.Children) == 0 {
		return nil
	}

	kids := g.ChildrenOf(id)
	radius := RingRadius(cfg, n.Level+1, len(kids))

	var angles []float64
	if parent, ok := g.ParentOf(id); ok {
		away := n.Pos.Angle(parent.Pos)
		angles = RingAngles(len(kids), away, cfg.ArrangeSmallCount, cfg.ArrangeGap())
	} else {
		// The root has no parent chain to avoid; partition the full circle
		// evenly, starting at the top like the level-1 sector layout.
		angles = make([]float64, len(kids))
		for i := range angles {
			angles[i] = -math.Pi/2 + float64(i)*view.Tau/float64(len(kids))
		}
	}

	out := make(map[string]view.Point, len(kids))
	for i, c := range kids {
		p := view.Polar(n.Pos, angles[i], radius)
		out[c.ID] = p
		fanOut(g, c, p, angles[i], cfg, out)
	}
	return out
}

// fanOut recursively places a node's children on a half circle centered on
// the direction the node itself was placed along, so deeper levels keep
// flowing outward away from the arranged node.
func fanOut(g *view.Graph, n *view.Node, pos view.Point, dir float64, cfg layout.Config, out map[string]view.Point) {
	kids := g.ChildrenOf(n.ID)
	if len(kids) == 0 {
		return
	}
	radius := RingRadius(cfg, n.Level+1, len(kids))
	span := math.Pi
	for i, c := range kids {
		a := dir - span/2 + (float64(i)+0.5)*span/float64(len(kids))
		p := view.Polar(pos, a, radius)
		out[c.ID] = p
		fanOut(g, c, p, a, cfg, out)
	}
}

// RingRadius returns the arrangement ring radius for children at the given
// level: a small ring sized from the configured collision radii, enlarged
// when the child count needs more circumference than the small ring offers.
func RingRadius(cfg layout.Config, childLevel, count int) float64 {
	small := 2 * (cfg.RadiusFor(childLevel-1) + cfg.RadiusFor(childLevel))
	byArc := float64(count) * cfg.ArrangeCircumference / view.Tau
	return math.Max(small, byArc)
}

// RingAngles returns the child angles for a ring arrangement. away is the
// direction pointing from the arranged node's parent toward the node, i.e.
// the side with free space. Counts up to smallCount fan across the half
// circle centered on away; larger counts use the full circle minus a gap of
// the given width (radians), centered on the side facing back toward the
// parent.
func RingAngles(count int, away float64, smallCount int, gap float64) []float64 {
	angles := make([]float64, count)
	if count <= smallCount {
		span := math.Pi
		start := away - span/2
		for i := range angles {
			angles[i] = start + (float64(i)+0.5)*span/float64(count)
		}
		return angles
	}
	avail := view.Tau - gap
	start := away + math.Pi + gap/2
	for i := range angles {
		angles[i] = start + (float64(i)+0.5)*avail/float64(count)
	}
	return angles
}
