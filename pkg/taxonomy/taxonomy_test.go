package taxonomy

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
)

func sampleTree() *Node {
	return &Node{
		ID: "root", Label: "Topics",
		Children: []*Node{
			{ID: "a", Label: "Alpha", Children: []*Node{
				{ID: "a1"},
				{ID: "a2", Children: []*Node{{ID: "a2x"}}},
			}},
			{ID: "b", Label: "Beta", Categories: []string{"advisory"}},
		},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		tree    *Node
		wantErr error
	}{
		{
			name: "valid tree",
			tree: sampleTree(),
		},
		{
			name:    "empty root id",
			tree:    &Node{},
			wantErr: ErrEmptyNodeID,
		},
		{
			name: "empty child id",
			tree: &Node{ID: "root", Children: []*Node{
				{ID: "a"}, {ID: ""},
			}},
			wantErr: ErrEmptyNodeID,
		},
		{
			name: "duplicate across levels",
			tree: &Node{ID: "root", Children: []*Node{
				{ID: "a", Children: []*Node{{ID: "root"}}},
			}},
			wantErr: ErrDuplicateNodeID,
		},
		{
			name: "duplicate siblings",
			tree: &Node{ID: "root", Children: []*Node{
				{ID: "a"}, {ID: "a"},
			}},
			wantErr: ErrDuplicateNodeID,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.tree.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("Validate() = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestWalkOrder(t *testing.T) {
	var ids []string
	var levels []int
	sampleTree().Walk(func(n *Node, level int) {
		ids = append(ids, n.ID)
		levels = append(levels, level)
	})

	wantIDs := []string{"root", "a", "a1", "a2", "a2x", "b"}
	if !slices.Equal(ids, wantIDs) {
		t.Errorf("Walk order = %v, want %v", ids, wantIDs)
	}
	wantLevels := []int{0, 1, 2, 2, 3, 1}
	if !slices.Equal(levels, wantLevels) {
		t.Errorf("Walk levels = %v, want %v", levels, wantLevels)
	}
}

func TestFindCountDepth(t *testing.T) {
	tree := sampleTree()

	if n := tree.Find("a2x"); n == nil || n.ID != "a2x" {
		t.Errorf("Find(a2x) = %v, want node a2x", n)
	}
	if n := tree.Find("missing"); n != nil {
		t.Errorf("Find(missing) = %v, want nil", n)
	}
	if got := tree.Count(); got != 6 {
		t.Errorf("Count() = %d, want 6", got)
	}
	if got := tree.Depth(); got != 3 {
		t.Errorf("Depth() = %d, want 3", got)
	}
	if got := (&Node{ID: "leaf"}).Depth(); got != 0 {
		t.Errorf("leaf Depth() = %d, want 0", got)
	}
}

func TestFromRows(t *testing.T) {
	t.Run("basic tree", func(t *testing.T) {
		rows := []Row{
			{ID: "root"},
			{ID: "a", Parent: "root"},
			{ID: "a1", Parent: "a"},
			{ID: "b", Parent: "root"},
		}
		root, orphans, err := FromRows(rows)
		if err != nil {
			t.Fatalf("FromRows() error = %v", err)
		}
		if len(orphans) != 0 {
			t.Errorf("orphans = %v, want none", orphans)
		}
		if got := root.IDs(); !slices.Equal(got, []string{"root", "a", "a1", "b"}) {
			t.Errorf("tree order = %v", got)
		}
	})

	t.Run("orphan attaches to root", func(t *testing.T) {
		rows := []Row{
			{ID: "root"},
			{ID: "x", Parent: "nope"},
		}
		root, orphans, err := FromRows(rows)
		if err != nil {
			t.Fatalf("FromRows() error = %v", err)
		}
		if !slices.Equal(orphans, []string{"x"}) {
			t.Errorf("orphans = %v, want [x]", orphans)
		}
		if len(root.Children) != 1 || root.Children[0].ID != "x" {
			t.Errorf("root children = %v, want [x]", root.Children)
		}
	})

	t.Run("detached cycle reattaches to root", func(t *testing.T) {
		rows := []Row{
			{ID: "root"},
			{ID: "a", Parent: "b"},
			{ID: "b", Parent: "a"},
		}
		root, orphans, err := FromRows(rows)
		if err != nil {
			t.Fatalf("FromRows() error = %v", err)
		}
		if len(orphans) != 1 || orphans[0] != "a" {
			t.Errorf("orphans = %v, want [a]", orphans)
		}
		if got := root.Count(); got != 3 {
			t.Errorf("Count() = %d, want all 3 rows reachable", got)
		}
	})

	t.Run("no root", func(t *testing.T) {
		_, _, err := FromRows([]Row{{ID: "a", Parent: "b"}, {ID: "b", Parent: "a"}})
		if !errors.Is(err, ErrNoRoot) {
			t.Errorf("FromRows() error = %v, want ErrNoRoot", err)
		}
	})

	t.Run("empty input", func(t *testing.T) {
		_, _, err := FromRows(nil)
		if !errors.Is(err, ErrNoRoot) {
			t.Errorf("FromRows(nil) error = %v, want ErrNoRoot", err)
		}
	})

	t.Run("duplicate id", func(t *testing.T) {
		_, _, err := FromRows([]Row{{ID: "root"}, {ID: "a", Parent: "root"}, {ID: "a", Parent: "root"}})
		if !errors.Is(err, ErrDuplicateNodeID) {
			t.Errorf("FromRows() error = %v, want ErrDuplicateNodeID", err)
		}
	})

	t.Run("second root attaches under first", func(t *testing.T) {
		rows := []Row{{ID: "r1"}, {ID: "r2"}}
		root, orphans, err := FromRows(rows)
		if err != nil {
			t.Fatalf("FromRows() error = %v", err)
		}
		if root.ID != "r1" {
			t.Errorf("root = %s, want r1", root.ID)
		}
		if !slices.Equal(orphans, []string{"r2"}) {
			t.Errorf("orphans = %v, want [r2]", orphans)
		}
	})
}

func TestFlattenRoundTrip(t *testing.T) {
	rows := Flatten(sampleTree())

	want := []Row{
		{ID: "root", Label: "Topics"},
		{ID: "a", Label: "Alpha", Parent: "root"},
		{ID: "a1", Parent: "a"},
		{ID: "a2", Parent: "a"},
		{ID: "a2x", Parent: "a2"},
		{ID: "b", Label: "Beta", Categories: []string{"advisory"}, Parent: "root"},
	}
	if len(rows) != len(want) {
		t.Fatalf("Flatten() produced %d rows, want %d", len(rows), len(want))
	}
	for i := range want {
		if rows[i].ID != want[i].ID || rows[i].Parent != want[i].Parent || rows[i].Label != want[i].Label {
			t.Errorf("row %d = %+v, want %+v", i, rows[i], want[i])
		}
	}

	rebuilt, orphans, err := FromRows(rows)
	if err != nil {
		t.Fatalf("FromRows(Flatten()) error = %v", err)
	}
	if len(orphans) != 0 {
		t.Errorf("round trip orphans = %v", orphans)
	}
	if !slices.Equal(rebuilt.IDs(), sampleTree().IDs()) {
		t.Errorf("round trip order = %v, want %v", rebuilt.IDs(), sampleTree().IDs())
	}
}

func TestReadJSON(t *testing.T) {
	input := `{
		"id": "root",
		"label": "Topics",
		"children": [
			{"id": "a", "categories": ["advisory"]},
			{"id": "b", "children": [{"id": "b1"}]}
		]
	}`

	root, err := ReadJSON(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ReadJSON() error = %v", err)
	}
	if got := root.IDs(); !slices.Equal(got, []string{"root", "a", "b", "b1"}) {
		t.Errorf("tree order = %v", got)
	}
	if got := root.Children[0].Categories; !slices.Equal(got, []string{"advisory"}) {
		t.Errorf("categories = %v", got)
	}

	if _, err := ReadJSON(strings.NewReader("{not json")); err == nil {
		t.Error("ReadJSON() accepted malformed input")
	}
	if _, err := ReadJSON(strings.NewReader(`{"id":"r","children":[{"id":"r"}]}`)); !errors.Is(err, ErrDuplicateNodeID) {
		t.Errorf("ReadJSON() error = %v, want ErrDuplicateNodeID", err)
	}
}

func TestReadYAML(t *testing.T) {
	input := `
id: root
label: Topics
children:
  - id: a
    label: Alpha
  - id: b
    children:
      - id: b1
`
	root, err := ReadYAML(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ReadYAML() error = %v", err)
	}
	if got := root.IDs(); !slices.Equal(got, []string{"root", "a", "b", "b1"}) {
		t.Errorf("tree order = %v", got)
	}

	if _, err := ReadYAML(strings.NewReader(":\t bad")); err == nil {
		t.Error("ReadYAML() accepted malformed input")
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()

	jsonPath := filepath.Join(dir, "tree.json")
	if err := os.WriteFile(jsonPath, []byte(`{"id":"root","children":[{"id":"a"}]}`), 0o644); err != nil {
		t.Fatal(err)
	}
	root, err := Load(jsonPath)
	if err != nil {
		t.Fatalf("Load(json) error = %v", err)
	}
	if root.ID != "root" || len(root.Children) != 1 {
		t.Errorf("Load(json) = %+v", root)
	}

	yamlPath := filepath.Join(dir, "tree.yaml")
	if err := os.WriteFile(yamlPath, []byte("id: root\nchildren:\n  - id: a\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(yamlPath); err != nil {
		t.Errorf("Load(yaml) error = %v", err)
	}

	txtPath := filepath.Join(dir, "tree.txt")
	if err := os.WriteFile(txtPath, []byte("root"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(txtPath); err == nil {
		t.Error("Load() accepted unsupported extension")
	}
	if _, err := Load(filepath.Join(dir, "missing.json")); err == nil {
		t.Error("Load() accepted missing file")
	}
}
