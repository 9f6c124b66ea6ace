package layout

import (
	"math"

	"github.com/matzehuels/radialmap/pkg/view"
)

// fanLevel is the first level placed with the multi-row fan instead of the
// single radial ring.
const fanLevel = 3

// ComputeIdeal derives the collision-naive target coordinate for every node
// from its sector and level. Call [AssignSectors] first.
//
// The root sits at the origin. Levels 1 and 2 are placed radially: each node
// at its sector's center angle, at a distance that grows with the sibling
// count so crowded rings spread further out. From level 3 downward children
// fan out from their immediate parent in rows of 3 to 5, each row further
// out, spread across the central FanSpan fraction of the parent's sector to
// keep clearance from neighboring branches.
//
// Placement is a pure function of parent position, sector, sibling index and
// sibling count. There is no randomness; identical inputs yield identical
// ideal positions.
func ComputeIdeal(g *view.Graph, cfg Config) {
	root := g.Root()
	root.Ideal = view.Point{}
	root.Angle = 0
	root.Radius = 0
	root.Ring = 0
	placeChildren(g, root, cfg)
}

func placeChildren(g *view.Graph, parent *view.Node, cfg Config) {
	children := g.ChildrenOf(parent.ID)
	n := len(children)
	if n == 0 {
		return
	}

	level := parent.Level + 1
	if level < fanLevel {
		dist := cfg.BaseDistanceFor(level) + float64(n)*cfg.PerChildIncrement
		for _, c := range children {
			c.Angle = c.Sector.Center()
			c.Radius = dist
			c.Ring = 0
			c.Ideal = view.Polar(parent.Ideal, c.Angle, dist)
		}
	} else {
		perRow := fanRowSize(n)
		span := parent.Sector.Shrink(cfg.FanSpan)
		for i, c := range children {
			row := i / perRow
			col := i % perRow
			rowCount := perRow
			if rem := n - row*perRow; rem < perRow {
				rowCount = rem
			}
			c.Angle = span.Start + (float64(col)+0.5)*span.Width/float64(rowCount)
			c.Radius = cfg.BaseDistanceFor(level) + float64(row)*cfg.RowSpacing
			c.Ring = row
			c.Ideal = view.Polar(parent.Ideal, c.Angle, c.Radius)
		}
	}

	for _, c := range children {
		placeChildren(g, c, cfg)
	}
}

// fanRowSize returns how many nodes share a fan row: ceil(sqrt(n)) clamped
// to [3, 5].
func fanRowSize(n int) int {
	perRow := int(math.Ceil(math.Sqrt(float64(n))))
	if perRow < 3 {
		perRow = 3
	}
	if perRow > 5 {
		perRow = 5
	}
	return perRow
}
