package layout

import (
	"math"

	"github.com/matzehuels/radialmap/pkg/view"
)

// AssignSectors divides the circle among the graph's branches and writes a
// sector onto every node. Call [view.Graph.Analyze] first so weights are
// populated.
//
// The root owns the full circle. Its direct children always receive a fixed
// equal partition starting at -Pi/2 (straight up) in document order,
// independent of their weights, so the outermost ring never shifts when a
// deeper branch is expanded or collapsed. From level 2 downward a parent's
// children share the padded portion of the parent's sector proportionally to
// weight, floored at the configured per-sibling minimum, laid out
// left-to-right in document order. Preserving document order here is what
// keeps sibling branches' connecting lines from crossing.
func AssignSectors(g *view.Graph, cfg Config) {
	root := g.Root()
	root.Sector = view.FullCircle()

	n := len(root.Children)
	if n == 0 {
		return
	}
	width := view.Tau / float64(n)
	for i, child := range g.ChildrenOf(root.ID) {
		child.Sector = view.Sector{Start: -math.Pi/2 + float64(i)*width, Width: width}
		assignWithin(g, child, cfg)
	}
}

func assignWithin(g *view.Graph, parent *view.Node, cfg Config) {
	children := g.ChildrenOf(parent.ID)
	if len(children) == 0 {
		return
	}

	weights := make([]float64, len(children))
	for i, c := range children {
		weights[i] = c.Weight
	}
	widths, start := splitSector(parent.Sector, weights, cfg)

	offset := start
	for i, c := range children {
		c.Sector = view.Sector{Start: offset, Width: widths[i]}
		offset += widths[i]
		assignWithin(g, c, cfg)
	}
}

// splitSector computes per-child sector widths within the parent sector and
// the angle the first child starts at.
//
// The children share the padded allowance (SectorPadding of the parent
// width) proportionally to weight. Any child falling below the configured
// minimum is pinned to the minimum and the remainder is re-split among the
// rest, repeatedly, until every share clears the floor. If even the bare
// minimums do not fit the allowance, every child gets exactly the minimum
// and the block is centered on the parent sector, eating into the padding
// rather than violating the floor.
func splitSector(parent view.Sector, weights []float64, cfg Config) (widths []float64, start float64) {
	n := len(weights)
	widths = make([]float64, n)
	avail := parent.Shrink(cfg.SectorPadding)
	floor := cfg.MinSector()

	if float64(n)*floor >= avail.Width {
		for i := range widths {
			widths[i] = floor
		}
		return widths, parent.Center() - float64(n)*floor/2
	}

	floored := make([]bool, n)
	budget := avail.Width
	weightLeft := 0.0
	for _, w := range weights {
		weightLeft += w
	}

	for {
		var pin []int
		for i, w := range weights {
			if !floored[i] && budget*w/weightLeft < floor {
				pin = append(pin, i)
			}
		}
		if len(pin) == 0 {
			break
		}
		for _, i := range pin {
			floored[i] = true
			budget -= floor
			weightLeft -= weights[i]
		}
	}

	for i, w := range weights {
		if floored[i] {
			widths[i] = floor
		} else {
			widths[i] = budget * w / weightLeft
		}
	}
	return widths, avail.Start
}
