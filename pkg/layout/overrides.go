package layout

import (
	"maps"

	"github.com/matzehuels/radialmap/pkg/view"
)

// Overrides is the persistent id→position map for user-dragged or explicitly
// arranged nodes. It is the only layout state that survives a graph rebuild:
// once an ID has an entry, that entry, not the freshly computed ideal
// position, is the node's effective target until explicitly cleared.
//
// Overrides is independent of any single graph instance; entries may refer
// to IDs not currently visible. It is not safe for concurrent use without
// external synchronization (the engine serializes access).
type Overrides struct {
	positions map[string]view.Point
}

// NewOverrides returns an empty override set.
func NewOverrides() *Overrides {
	return &Overrides{positions: make(map[string]view.Point)}
}

// Set records a position for the ID, replacing any existing entry.
func (o *Overrides) Set(id string, p view.Point) { o.positions[id] = p }

// Get returns the recorded position for the ID, if any.
func (o *Overrides) Get(id string) (view.Point, bool) {
	p, ok := o.positions[id]
	return p, ok
}

// Delete removes the entry for the ID. Removing an absent ID is a no-op.
func (o *Overrides) Delete(id string) { delete(o.positions, id) }

// Clear removes every entry.
func (o *Overrides) Clear() { o.positions = make(map[string]view.Point) }

// Len returns the number of recorded entries.
func (o *Overrides) Len() int { return len(o.positions) }

// Snapshot returns a copy of all entries, safe to retain or serialize.
func (o *Overrides) Snapshot() map[string]view.Point {
	return maps.Clone(o.positions)
}

// Replace swaps the full entry set, copying from m. A nil map clears.
func (o *Overrides) Replace(m map[string]view.Point) {
	o.positions = make(map[string]view.Point, len(m))
	maps.Copy(o.positions, m)
}

// ApplyStartingPositions resolves every visible node's starting position in
// priority order: the override entry if one exists, else the node's position
// from the immediately prior layout pass (visual continuity), else the
// freshly computed ideal position (nodes newly entering view). prev may be
// nil on the first pass. The root ignores all three sources and stays at its
// ideal origin.
func ApplyStartingPositions(g *view.Graph, o *Overrides, prev map[string]view.Point) {
	for _, n := range g.Nodes() {
		if n.IsRoot() {
			n.Pos = n.Ideal
			continue
		}
		if p, ok := o.Get(n.ID); ok {
			n.Pos = p
			continue
		}
		if p, ok := prev[n.ID]; ok {
			n.Pos = p
			continue
		}
		n.Pos = n.Ideal
	}
}
