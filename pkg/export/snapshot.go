// Package export serializes resolved layouts for hosts and debug tooling.
//
// A [Snapshot] is the flat, id-keyed record of one resolved layout pass:
// positions, levels, parent links and sectors for every visible node. It
// round-trips through JSON ([WriteJSON]/[ReadJSON]), renders to a standalone
// SVG ([RenderSVG]), and exports the visible topology as Graphviz DOT
// ([ToDOT]) with optional in-process rasterization ([RenderGraphviz]).
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/matzehuels/radialmap/pkg/view"
)

// Node is one visible node in a snapshot.
type Node struct {
	ID     string      `json:"id" bson:"id"`
	Label  string      `json:"label,omitempty" bson:"label,omitempty"`
	Level  int         `json:"level" bson:"level"`
	Parent string      `json:"parent,omitempty" bson:"parent,omitempty"`
	Pos    view.Point  `json:"pos" bson:"pos"`
	Ideal  view.Point  `json:"ideal" bson:"ideal"`
	Sector view.Sector `json:"sector" bson:"sector"`
}

// Snapshot is the externally consumable result of one layout pass.
// The bson tags let hosts archive snapshots in document stores unchanged.
type Snapshot struct {
	GeneratedAt time.Time `json:"generated_at" bson:"generated_at"`
	Mode        string    `json:"mode" bson:"mode"`
	Nodes       []Node    `json:"nodes" bson:"nodes"`
}

// FromGraph captures the current positions of every visible node in
// depth-first pre-order, root first.
func FromGraph(g *view.Graph, mode string) Snapshot {
	snap := Snapshot{
		GeneratedAt: time.Now().UTC(),
		Mode:        mode,
		Nodes:       make([]Node, 0, g.Len()),
	}
	for _, n := range g.Nodes() {
		snap.Nodes = append(snap.Nodes, Node{
			ID:     n.ID,
			Label:  n.Label,
			Level:  n.Level,
			Parent: n.Parent,
			Pos:    n.Pos,
			Ideal:  n.Ideal,
			Sector: n.Sector,
		})
	}
	return snap
}

// Positions returns the snapshot's id→position map.
func (s Snapshot) Positions() map[string]view.Point {
	pos := make(map[string]view.Point, len(s.Nodes))
	for _, n := range s.Nodes {
		pos[n.ID] = n.Pos
	}
	return pos
}

// WriteJSON encodes the snapshot as indented JSON.
func WriteJSON(s Snapshot, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s); err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	return nil
}

// ReadJSON decodes a snapshot from r. ReadJSON does not close r.
func ReadJSON(r io.Reader) (Snapshot, error) {
	var s Snapshot
	if err := json.NewDecoder(r).Decode(&s); err != nil {
		return Snapshot{}, fmt.Errorf("decode snapshot: %w", err)
	}
	return s, nil
}

// WriteFile writes the snapshot to a JSON file at path.
func WriteFile(s Snapshot, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return WriteJSON(s, f)
}

// ReadFile reads a snapshot from a JSON file at path.
func ReadFile(path string) (Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return Snapshot{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadJSON(f)
}
