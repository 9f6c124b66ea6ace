package arrange

import (
	"math"

	"github.com/matzehuels/radialmap/pkg/layout"
	"github.com/matzehuels/radialmap/pkg/view"
)

// Focus is the temporary layout isolating one node's branch: the root pushed
// far to one side, the ancestor chain strung between root and focus, the
// focused node at the origin, and its direct children on a ring around it.
//
// Positions are transient: they are applied to the graph but never persisted
// into the override store. Pinned lists the IDs that the engine temporarily
// fixes (with enlarged collision radii) while a short relaxation burst pushes
// the remaining nodes out of the way.
type Focus struct {
	ID        string
	Positions map[string]view.Point
	Pinned    []string
	Viewport  Viewport
}

// NewFocus computes the focus layout for the given node. Reports false if
// the ID is not currently visible.
//
// The ancestor chain sits on the negative x axis: the nearest ancestor at
// -FocusSpacing, the next at -2*FocusSpacing, and so on, with the root pushed
// out to at least -FocusRootMin even when the chain is short. The focused
// node's children face away from that chain: at most cfg.ArrangeSmallCount of
// them sweep the right half circle; more get a full circle with a gap
// reserved on the side facing the root. The child ring radius grows with the
// count and never drops below cfg.FocusChildRadiusMin.
func NewFocus(g *view.Graph, id string, cfg layout.Config) (*Focus, bool) {
	if _, ok := g.Node(id); !ok {
		return nil, false
	}

	f := &Focus{
		ID:        id,
		Positions: map[string]view.Point{id: {}},
		Pinned:    []string{id},
	}

	chain := g.Ancestors(id) // nearest parent first, root last
	for k, aid := range chain {
		x := -float64(k+1) * cfg.FocusSpacing
		if k == len(chain)-1 {
			// The root anchors the far end of the line.
			x = -math.Max(cfg.FocusRootMin, float64(len(chain))*cfg.FocusSpacing)
		}
		f.Positions[aid] = view.Point{X: x}
		f.Pinned = append(f.Pinned, aid)
	}

	kids := g.ChildrenOf(id)
	if len(kids) > 0 {
		radius := math.Max(cfg.FocusChildRadiusMin,
			float64(len(kids))*cfg.ArrangeCircumference/view.Tau)
		// away = 0: the chain occupies the negative x side.
		angles := RingAngles(len(kids), 0, cfg.ArrangeSmallCount, cfg.ArrangeGap())
		for i, c := range kids {
			f.Positions[c.ID] = view.Polar(view.Point{}, angles[i], radius)
			f.Pinned = append(f.Pinned, c.ID)
		}
	}

	f.Viewport = BoundsOf(f.Positions)
	return f, true
}

// Viewport is the axis-aligned bounding box a host should fit its view to
// after entering focus mode: it spans from the leftmost ancestor to the
// outermost child.
type Viewport struct {
	Min view.Point `json:"min"`
	Max view.Point `json:"max"`
}

// Center returns the box's midpoint.
func (v Viewport) Center() view.Point {
	return view.Point{X: (v.Min.X + v.Max.X) / 2, Y: (v.Min.Y + v.Max.Y) / 2}
}

// Width returns the box's horizontal extent.
func (v Viewport) Width() float64 { return v.Max.X - v.Min.X }

// Height returns the box's vertical extent.
func (v Viewport) Height() float64 { return v.Max.Y - v.Min.Y }

// Scale returns the zoom factor that fits the box into a view of the given
// size, never scaling up past 1. A degenerate box yields 1.
func (v Viewport) Scale(viewW, viewH float64) float64 {
	w, h := v.Width(), v.Height()
	if w <= 0 || h <= 0 {
		return 1
	}
	s := math.Min(viewW/w, viewH/h)
	return math.Min(s, 1)
}

// BoundsOf returns the bounding box of the given positions. An empty map
// yields the zero box.
func BoundsOf(positions map[string]view.Point) Viewport {
	var v Viewport
	first := true
	for _, p := range positions {
		if first {
			v = Viewport{Min: p, Max: p}
			first = false
			continue
		}
		v.Min.X = math.Min(v.Min.X, p.X)
		v.Min.Y = math.Min(v.Min.Y, p.Y)
		v.Max.X = math.Max(v.Max.X, p.X)
		v.Max.Y = math.Max(v.Max.Y, p.Y)
	}
	return v
}
