package taxonomy

import "fmt"

// Row is a flat taxonomy entry referencing its parent by ID. Row slices are
// the wire format used by the HTTP API and by spreadsheet-style exports;
// [FromRows] assembles them into a tree and [Flatten] produces them from one.
type Row struct {
	ID         string   `json:"id" yaml:"id" bson:"id"`
	Label      string   `json:"label,omitempty" yaml:"label,omitempty" bson:"label,omitempty"`
	Categories []string `json:"categories,omitempty" yaml:"categories,omitempty" bson:"categories,omitempty"`
	Parent     string   `json:"parent,omitempty" yaml:"parent,omitempty" bson:"parent,omitempty"`
}

// FromRows assembles a tree from flat parent-referencing rows.
//
// The first row with an empty Parent becomes the root. Any later row with an
// empty Parent, and any row whose Parent does not match a known ID, is
// attached directly under the root rather than rejected; the returned orphan
// slice lists the IDs attached this way so callers can surface a warning.
// Children keep the relative order of their rows.
//
// Returns [ErrNoRoot] if rows is empty or no row has an empty Parent, and
// [ErrEmptyNodeID] or [ErrDuplicateNodeID] for malformed rows.
func FromRows(rows []Row) (root *Node, orphans []string, err error) {
	if len(rows) == 0 {
		return nil, nil, ErrNoRoot
	}

	nodes := make(map[string]*Node, len(rows))
	for _, r := range rows {
		if r.ID == "" {
			return nil, nil, ErrEmptyNodeID
		}
		if _, exists := nodes[r.ID]; exists {
			return nil, nil, fmt.Errorf("row %s: %w", r.ID, ErrDuplicateNodeID)
		}
		nodes[r.ID] = &Node{ID: r.ID, Label: r.Label, Categories: r.Categories}
	}

	for _, r := range rows {
		if r.Parent == "" {
			root = nodes[r.ID]
			break
		}
	}
	if root == nil {
		return nil, nil, ErrNoRoot
	}

	for _, r := range rows {
		n := nodes[r.ID]
		if n == root {
			continue
		}
		parent, ok := nodes[r.Parent]
		if !ok {
			orphans = append(orphans, r.ID)
			parent = root
		}
		parent.Children = append(parent.Children, n)
	}

	// Parent references can form a cycle detached from the root (a under b,
	// b under a). Reattach such rows to the root, first row first; each
	// reattachment can make further rows reachable, so repeat until stable.
	for {
		reachable := make(map[string]bool, len(rows))
		root.Walk(func(n *Node, _ int) { reachable[n.ID] = true })
		if len(reachable) == len(rows) {
			break
		}
		for _, r := range rows {
			if reachable[r.ID] {
				continue
			}
			n := nodes[r.ID]
			detachChild(nodes[r.Parent], n)
			root.Children = append(root.Children, n)
			orphans = append(orphans, r.ID)
			break
		}
	}

	if err := root.Validate(); err != nil {
		return nil, nil, err
	}
	return root, orphans, nil
}

func detachChild(parent, child *Node) {
	if parent == nil {
		return
	}
	for i, c := range parent.Children {
		if c == child {
			parent.Children = append(parent.Children[:i], parent.Children[i+1:]...)
			return
		}
	}
}

// Flatten converts a tree into flat rows in depth-first pre-order.
// The root row has an empty Parent. Flatten is the inverse of [FromRows]
// for trees without orphans.
func Flatten(root *Node) []Row {
	rows := make([]Row, 0, root.Count())
	var flatten func(n *Node, parent string)
	flatten = func(n *Node, parent string) {
		rows = append(rows, Row{ID: n.ID, Label: n.Label, Categories: n.Categories, Parent: parent})
		for _, c := range n.Children {
			flatten(c, n.ID)
		}
	}
	flatten(root, "")
	return rows
}
