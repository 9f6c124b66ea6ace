// Package taxonomy defines the external taxonomy tree consumed by the layout
// engine.
//
// A taxonomy is a single rooted tree of topic nodes, typically three to four
// levels deep. Nodes carry an identifier, a display label, and optional
// category tags. The tree is immutable input: the engine derives all working
// state from it and never mutates it.
//
// Trees can be built directly, decoded from JSON or YAML documents
// ([ReadJSON], [ReadYAML], [Load]), or assembled from flat parent-referencing
// rows ([FromRows]).
package taxonomy

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyNodeID is returned by [Node.Validate] when a node has an empty
	// identifier. Every node must carry a non-empty, unique ID.
	ErrEmptyNodeID = errors.New("node ID must not be empty")

	// ErrDuplicateNodeID is returned by [Node.Validate] when two nodes share
	// an identifier. IDs must be unique across the whole tree.
	ErrDuplicateNodeID = errors.New("duplicate node ID")

	// ErrNoRoot is returned by [FromRows] when no row has an empty parent
	// reference, and by the readers when a document decodes to nothing.
	ErrNoRoot = errors.New("taxonomy has no root")
)

// Node is a single taxonomy entry. Children are ordered; the layout engine
// preserves this order when partitioning angular sectors, so document order
// is significant.
//
// The zero value is not a valid node - ID must be non-empty.
type Node struct {
	ID         string   `json:"id" yaml:"id" bson:"id"`
	Label      string   `json:"label,omitempty" yaml:"label,omitempty" bson:"label,omitempty"`
	Categories []string `json:"categories,omitempty" yaml:"categories,omitempty" bson:"categories,omitempty"`
	Children   []*Node  `json:"children,omitempty" yaml:"children,omitempty" bson:"children,omitempty"`
}

// Validate checks tree integrity and returns nil if valid.
// It verifies that every node has a non-empty ID and that no ID appears
// twice. Errors are wrapped with the offending ID for context; use
// errors.Is to check for [ErrEmptyNodeID] or [ErrDuplicateNodeID].
func (n *Node) Validate() error {
	seen := make(map[string]bool)
	return n.walkValidate(seen)
}

func (n *Node) walkValidate(seen map[string]bool) error {
	if n.ID == "" {
		return ErrEmptyNodeID
	}
	if seen[n.ID] {
		return fmt.Errorf("node %s: %w", n.ID, ErrDuplicateNodeID)
	}
	seen[n.ID] = true
	for _, c := range n.Children {
		if err := c.walkValidate(seen); err != nil {
			return err
		}
	}
	return nil
}

// Walk visits n and every descendant in depth-first pre-order, passing each
// node and its level (n itself is level 0). Children are visited in document
// order.
func (n *Node) Walk(visit func(node *Node, level int)) {
	n.walk(0, visit)
}

func (n *Node) walk(level int, visit func(*Node, int)) {
	visit(n, level)
	for _, c := range n.Children {
		c.walk(level+1, visit)
	}
}

// Find returns the node with the given ID in n's subtree, or nil if absent.
func (n *Node) Find(id string) *Node {
	if n.ID == id {
		return n
	}
	for _, c := range n.Children {
		if found := c.Find(id); found != nil {
			return found
		}
	}
	return nil
}

// Count returns the number of nodes in n's subtree, including n itself.
func (n *Node) Count() int {
	total := 1
	for _, c := range n.Children {
		total += c.Count()
	}
	return total
}

// Depth returns the maximum depth of n's subtree. A leaf has depth 0.
func (n *Node) Depth() int {
	depth := 0
	for _, c := range n.Children {
		if d := c.Depth() + 1; d > depth {
			depth = d
		}
	}
	return depth
}

// IDs returns the identifiers of every node in n's subtree in depth-first
// pre-order.
func (n *Node) IDs() []string {
	ids := make([]string, 0, n.Count())
	n.Walk(func(node *Node, _ int) {
		ids = append(ids, node.ID)
	})
	return ids
}
