package export

import (
	"bytes"
	"context"
	"fmt"

	"github.com/goccy/go-graphviz"
)

// ToDOT converts a snapshot's visible topology to Graphviz DOT. Node
// positions are carried as pinned pos attributes so "neato -n" style
// rendering reproduces the radial placement; other Graphviz layouts are free
// to reflow it.
func ToDOT(s Snapshot) string {
	var buf bytes.Buffer
	buf.WriteString("graph radialmap {\n")
	buf.WriteString("  layout=neato;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=circle, style=filled, fontsize=10];\n")
	buf.WriteString("\n")

	for _, n := range s.Nodes {
		label := n.Label
		if label == "" {
			label = n.ID
		}
		// Graphviz points run y-up; layout space runs y-down.
		fmt.Fprintf(&buf, "  %q [label=%q, pos=\"%.1f,%.1f!\", fillcolor=%q];\n",
			n.ID, label, n.Pos.X, -n.Pos.Y, levelFill(n.Level))
	}

	buf.WriteString("\n")
	for _, n := range s.Nodes {
		if n.Parent == "" {
			continue
		}
		fmt.Fprintf(&buf, "  %q -- %q;\n", n.Parent, n.ID)
	}

	buf.WriteString("}\n")
	return buf.String()
}

// RenderGraphviz renders a DOT document with Graphviz to the given format
// ("svg", "png", "jpg", "dot").
func RenderGraphviz(ctx context.Context, dot string, format string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.Format(format), &buf); err != nil {
		return nil, fmt.Errorf("render %s: %w", format, err)
	}
	return buf.Bytes(), nil
}
