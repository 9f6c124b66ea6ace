package export

import (
	"bytes"
	"fmt"
	"math"
)

// levelFills colors nodes by tree depth; levels beyond the palette reuse the
// last entry.
var levelFills = []string{"#1f6feb", "#2da44e", "#d29922", "#cf549d", "#8957e5"}

// levelRadii are the drawn node radii per level, visual only (collision
// radii live in the layout config, not here).
var levelRadii = []float64{34, 26, 18, 12}

// SVGOption configures [RenderSVG].
type SVGOption func(*svgRenderer)

type svgRenderer struct {
	labels  bool
	sectors bool
	margin  float64
}

// WithLabels draws each node's label (or ID when the label is empty).
func WithLabels() SVGOption { return func(r *svgRenderer) { r.labels = true } }

// WithSectors draws each level-1 node's sector boundaries as faint spokes,
// useful when debugging angular partitions.
func WithSectors() SVGOption { return func(r *svgRenderer) { r.sectors = true } }

// WithMargin overrides the whitespace around the layout's bounding box.
func WithMargin(m float64) SVGOption { return func(r *svgRenderer) { r.margin = m } }

// RenderSVG renders the snapshot as a standalone SVG document: parent links
// as spokes, nodes as level-colored circles, optional labels and sector
// boundaries. The viewBox is fitted to the layout's bounding box.
func RenderSVG(s Snapshot, opts ...SVGOption) []byte {
	r := svgRenderer{margin: 80}
	for _, opt := range opts {
		opt(&r)
	}

	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	byID := make(map[string]Node, len(s.Nodes))
	for _, n := range s.Nodes {
		byID[n.ID] = n
		minX = math.Min(minX, n.Pos.X)
		minY = math.Min(minY, n.Pos.Y)
		maxX = math.Max(maxX, n.Pos.X)
		maxY = math.Max(maxY, n.Pos.Y)
	}
	if len(s.Nodes) == 0 {
		minX, minY, maxX, maxY = 0, 0, 0, 0
	}
	minX -= r.margin
	minY -= r.margin
	w := maxX - minX + r.margin
	h := maxY - minY + r.margin

	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="%.1f %.1f %.1f %.1f" width="%.0f" height="%.0f">`+"\n",
		minX, minY, w, h, w, h)

	if r.sectors {
		renderSectors(&buf, s, byID)
	}

	// Links under nodes.
	for _, n := range s.Nodes {
		p, ok := byID[n.Parent]
		if !ok {
			continue
		}
		fmt.Fprintf(&buf, `  <line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f" stroke="#8b949e" stroke-width="1.5"/>`+"\n",
			p.Pos.X, p.Pos.Y, n.Pos.X, n.Pos.Y)
	}

	for _, n := range s.Nodes {
		fmt.Fprintf(&buf, `  <circle id="node-%s" cx="%.1f" cy="%.1f" r="%.1f" fill="%s" stroke="#0d1117" stroke-width="1"/>`+"\n",
			n.ID, n.Pos.X, n.Pos.Y, drawRadius(n.Level), levelFill(n.Level))
		if r.labels {
			label := n.Label
			if label == "" {
				label = n.ID
			}
			fmt.Fprintf(&buf, `  <text x="%.1f" y="%.1f" text-anchor="middle" font-family="sans-serif" font-size="11" fill="#24292f">%s</text>`+"\n",
				n.Pos.X, n.Pos.Y+drawRadius(n.Level)+12, escapeText(label))
		}
	}

	buf.WriteString("</svg>\n")
	return buf.Bytes()
}

// renderSectors draws the level-1 partition as faint spokes from the root.
func renderSectors(buf *bytes.Buffer, s Snapshot, byID map[string]Node) {
	var root Node
	found := false
	for _, n := range s.Nodes {
		if n.Level == 0 {
			root, found = n, true
			break
		}
	}
	if !found {
		return
	}
	const spokeLen = 600.0
	for _, n := range s.Nodes {
		if n.Level != 1 {
			continue
		}
		for _, a := range []float64{n.Sector.Start, n.Sector.End()} {
			fmt.Fprintf(buf, `  <line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f" stroke="#d0d7de" stroke-width="0.8" stroke-dasharray="4 4"/>`+"\n",
				root.Pos.X, root.Pos.Y,
				root.Pos.X+spokeLen*math.Cos(a), root.Pos.Y+spokeLen*math.Sin(a))
		}
	}
}

func levelFill(level int) string {
	if level >= len(levelFills) {
		level = len(levelFills) - 1
	}
	return levelFills[level]
}

func drawRadius(level int) float64 {
	if level >= len(levelRadii) {
		level = len(levelRadii) - 1
	}
	return levelRadii[level]
}

// escapeText escapes the characters XML text content cannot carry raw.
func escapeText(s string) string {
	var buf bytes.Buffer
	for _, r := range s {
		switch r {
		case '&':
			buf.WriteString("&amp;")
		case '<':
			buf.WriteString("&lt;")
		case '>':
			buf.WriteString("&gt;")
		default:
			buf.WriteRune(r)
		}
	}
	return buf.String()
}
