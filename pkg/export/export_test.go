package export

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matzehuels/radialmap/pkg/layout"
	"github.com/matzehuels/radialmap/pkg/taxonomy"
	"github.com/matzehuels/radialmap/pkg/view"
)

func sampleGraph(t *testing.T) *view.Graph {
	t.Helper()
	tree := &taxonomy.Node{
		ID:    "root",
		Label: "Topics",
		Children: []*taxonomy.Node{
			{ID: "a", Label: "Tax & Legal", Children: []*taxonomy.Node{{ID: "a1"}}},
			{ID: "b", Label: "Risk <Advisory>"},
		},
	}
	cfg := layout.DefaultConfig()
	g := view.Build(tree, map[string]bool{"a": true})
	g.Analyze()
	layout.AssignSectors(g, cfg)
	layout.ComputeIdeal(g, cfg)
	layout.ApplyStartingPositions(g, layout.NewOverrides(), nil)
	return g
}

func TestSnapshotRoundTrip(t *testing.T) {
	snap := FromGraph(sampleGraph(t), "static")
	if len(snap.Nodes) != 4 {
		t.Fatalf("nodes = %d, want 4", len(snap.Nodes))
	}
	if snap.Nodes[0].ID != "root" || snap.Nodes[0].Level != 0 {
		t.Errorf("first node = %+v, want the root", snap.Nodes[0])
	}

	path := filepath.Join(t.TempDir(), "layout.json")
	if err := WriteFile(snap, path); err != nil {
		t.Fatal(err)
	}
	got, err := ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if got.Mode != "static" {
		t.Errorf("mode = %q, want static", got.Mode)
	}
	want := snap.Positions()
	for id, p := range got.Positions() {
		if p != want[id] {
			t.Errorf("%s = %v, want %v", id, p, want[id])
		}
	}
}

func TestRenderSVG(t *testing.T) {
	snap := FromGraph(sampleGraph(t), "static")
	svg := string(RenderSVG(snap, WithLabels(), WithSectors()))

	if !strings.HasPrefix(svg, "<svg") || !strings.HasSuffix(svg, "</svg>\n") {
		t.Fatal("not a standalone SVG document")
	}
	for _, id := range []string{"node-root", "node-a", "node-a1", "node-b"} {
		if !strings.Contains(svg, id) {
			t.Errorf("missing %s", id)
		}
	}
	// Three parent links plus at least one sector spoke.
	if n := strings.Count(svg, "<line"); n < 4 {
		t.Errorf("lines = %d, want >= 4", n)
	}
	// Labels are escaped.
	if !strings.Contains(svg, "Risk &lt;Advisory&gt;") {
		t.Error("label not XML-escaped")
	}
	if strings.Contains(svg, "<Advisory>") {
		t.Error("raw angle brackets leaked into the SVG")
	}
}

func TestRenderSVGEmpty(t *testing.T) {
	svg := RenderSVG(Snapshot{})
	if !bytes.Contains(svg, []byte("<svg")) {
		t.Error("empty snapshot must still render a document")
	}
}

func TestToDOT(t *testing.T) {
	snap := FromGraph(sampleGraph(t), "static")
	dot := ToDOT(snap)

	if !strings.HasPrefix(dot, "graph radialmap {") {
		t.Fatal("not an undirected DOT graph")
	}
	for _, want := range []string{`"root"`, `"a" -- "a1"`, `"root" -- "b"`, "pos="} {
		if !strings.Contains(dot, want) {
			t.Errorf("missing %q in DOT output", want)
		}
	}
}
