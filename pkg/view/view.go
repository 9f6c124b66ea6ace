// Package view builds the flat working graph of currently-visible taxonomy
// nodes that every layout pass operates on.
//
// The graph is pure derived state: it is rebuilt from scratch by [Build] on
// every (tree, expanded-set) change and discarded wholesale on the next one.
// Parent/child references are held as IDs in an id-keyed arena rather than
// node pointers, so discarding a graph can never leave dangling references
// into a newer one.
//
// Visibility rule: the root and its direct children are always visible; a
// deeper node's children are visible only while its ID is in the expanded
// set. Child order always matches taxonomy document order.
package view

import (
	"slices"

	"github.com/matzehuels/radialmap/pkg/taxonomy"
)

// Node is a visible taxonomy node plus the layout state derived for it.
// Mutable physics state (velocities, transient fixed flags) deliberately does
// not live here; collision resolvers keep such state in their own records,
// keyed by ID, rebuilt alongside the graph.
//
// Nodes are created by [Build]; the zero value is not usable.
type Node struct {
	ID         string   // Unique identifier from the taxonomy
	Label      string   // Display label (may be empty)
	Categories []string // Category tags carried through for consumers
	Level      int      // Tree depth, root = 0
	Parent     string   // Parent node ID, empty for the root
	Children   []string // Child IDs in taxonomy document order

	// Subtree measures, filled in by Graph.Analyze.
	Descendants int     // Count of all descendants
	MaxDepth    int     // Longest downward path length, leaf = 0
	Weight      float64 // Angular-room heuristic: Descendants + 2*MaxDepth + 1

	// Angular assignment and deterministic target, filled in by the sector
	// and ideal-position passes.
	Sector Sector  // Angular interval reserved for this node's branch
	Angle  float64 // Polar angle of the ideal position
	Radius float64 // Distance from the placement origin at the ideal position
	Ideal  Point   // Collision-naive target coordinate
	Ring   int     // Fan row index for multi-row child placement

	// Pos is the node's current position, updated by collision resolution
	// and by explicit commands.
	Pos Point
}

// IsRoot reports whether the node is the tree root.
func (n *Node) IsRoot() bool { return n.Level == 0 }

// IsLeaf reports whether the node has no visible children.
func (n *Node) IsLeaf() bool { return len(n.Children) == 0 }

// Graph is the arena of currently-visible nodes. It is rebuilt atomically by
// [Build] on every tree or expansion change and is not safe for concurrent
// use without external synchronization.
type Graph struct {
	nodes map[string]*Node
	order []string // depth-first pre-order, root first
	root  string
}

// Build constructs the visible-node graph for the given taxonomy tree and
// expanded-ID set.
//
// Levels 0 and 1 are always included. A node's children are included only if
// the node is the root or its ID is in expanded. Construction is depth-first,
// so the graph's traversal order matches taxonomy document order. An empty or
// nil expanded set yields the root and its direct children only.
//
// Build never fails: an empty child set simply yields a leaf node.
func Build(root *taxonomy.Node, expanded map[string]bool) *Graph {
	g := &Graph{
		nodes: make(map[string]*Node, root.Count()),
		root:  root.ID,
	}
	g.add(root, 0, "", expanded)
	return g
}

func (g *Graph) add(src *taxonomy.Node, level int, parent string, expanded map[string]bool) {
	n := &Node{
		ID:         src.ID,
		Label:      src.Label,
		Categories: src.Categories,
		Level:      level,
		Parent:     parent,
	}
	g.nodes[n.ID] = n
	g.order = append(g.order, n.ID)

	if level >= 1 && !expanded[src.ID] {
		return
	}
	for _, c := range src.Children {
		n.Children = append(n.Children, c.ID)
		g.add(c, level+1, n.ID, expanded)
	}
}

// Root returns the root node.
func (g *Graph) Root() *Node { return g.nodes[g.root] }

// Node returns the node with the given ID and true, or nil and false if the
// ID is not currently visible.
func (g *Graph) Node(id string) (*Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// Len returns the number of visible nodes.
func (g *Graph) Len() int { return len(g.nodes) }

// Order returns the visible node IDs in depth-first pre-order, root first.
// The returned slice is the graph's own index; treat it as read-only.
func (g *Graph) Order() []string { return g.order }

// Nodes returns all visible nodes in depth-first pre-order. The returned
// slice contains pointers to the actual node structs, so modifications
// affect the graph.
func (g *Graph) Nodes() []*Node {
	nodes := make([]*Node, len(g.order))
	for i, id := range g.order {
		nodes[i] = g.nodes[id]
	}
	return nodes
}

// ChildrenOf returns the visible children of the given node in order.
// Returns nil for a leaf or an unknown ID.
func (g *Graph) ChildrenOf(id string) []*Node {
	n, ok := g.nodes[id]
	if !ok {
		return nil
	}
	children := make([]*Node, 0, len(n.Children))
	for _, c := range n.Children {
		children = append(children, g.nodes[c])
	}
	return children
}

// ParentOf returns the parent of the given node, or nil and false for the
// root or an unknown ID.
func (g *Graph) ParentOf(id string) (*Node, bool) {
	n, ok := g.nodes[id]
	if !ok || n.Parent == "" {
		return nil, false
	}
	p, ok := g.nodes[n.Parent]
	return p, ok
}

// Ancestors returns the chain of ancestor IDs from the node's parent up to
// and including the root. Returns nil for the root or an unknown ID.
func (g *Graph) Ancestors(id string) []string {
	var chain []string
	for {
		n, ok := g.nodes[id]
		if !ok || n.Parent == "" {
			return chain
		}
		chain = append(chain, n.Parent)
		id = n.Parent
	}
}

// Subtree returns the IDs of the node and all its visible descendants in
// depth-first pre-order. Returns nil for an unknown ID.
func (g *Graph) Subtree(id string) []string {
	n, ok := g.nodes[id]
	if !ok {
		return nil
	}
	ids := []string{n.ID}
	for _, c := range n.Children {
		ids = append(ids, g.Subtree(c)...)
	}
	return ids
}

// Positions returns a snapshot of every visible node's current position,
// keyed by ID. The returned map is independent of the graph.
func (g *Graph) Positions() map[string]Point {
	pos := make(map[string]Point, len(g.nodes))
	for id, n := range g.nodes {
		pos[id] = n.Pos
	}
	return pos
}

// SetPositions applies the given positions to matching visible nodes.
// IDs not currently visible are ignored.
func (g *Graph) SetPositions(pos map[string]Point) {
	for id, p := range pos {
		if n, ok := g.nodes[id]; ok {
			n.Pos = p
		}
	}
}

// IDs returns the set of visible node IDs. The returned map is independent
// of the graph.
func (g *Graph) IDs() map[string]bool {
	ids := make(map[string]bool, len(g.nodes))
	for id := range g.nodes {
		ids[id] = true
	}
	return ids
}

// Clone returns a deep copy of the graph. Node structs are copied, so the
// clone can be mutated freely without affecting the original.
func (g *Graph) Clone() *Graph {
	c := &Graph{
		nodes: make(map[string]*Node, len(g.nodes)),
		order: slices.Clone(g.order),
		root:  g.root,
	}
	for id, n := range g.nodes {
		cp := *n
		cp.Children = slices.Clone(n.Children)
		cp.Categories = slices.Clone(n.Categories)
		c.nodes[id] = &cp
	}
	return c
}

// Analyze fills in every node's subtree measures in a single post-order
// pass: Descendants counts all transitive children, MaxDepth is the longest
// downward path (leaf = 0), and Weight is the angular-room heuristic
// Descendants + 2*MaxDepth + 1, which gives larger and deeper branches
// proportionally more sector. A leaf's weight is exactly 1.
func (g *Graph) Analyze() {
	g.analyze(g.root)
}

func (g *Graph) analyze(id string) {
	n := g.nodes[id]
	n.Descendants = 0
	n.MaxDepth = 0
	for _, c := range n.Children {
		g.analyze(c)
		child := g.nodes[c]
		n.Descendants += 1 + child.Descendants
		if d := child.MaxDepth + 1; d > n.MaxDepth {
			n.MaxDepth = d
		}
	}
	n.Weight = float64(n.Descendants) + 2*float64(n.MaxDepth) + 1
}
