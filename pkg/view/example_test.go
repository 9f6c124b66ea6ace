package view_test

import (
	"fmt"

	"github.com/matzehuels/radialmap/pkg/taxonomy"
	"github.com/matzehuels/radialmap/pkg/view"
)

func ExampleBuild() {
	tree := &taxonomy.Node{ID: "root", Children: []*taxonomy.Node{
		{ID: "a", Children: []*taxonomy.Node{{ID: "a1"}, {ID: "a2"}}},
		{ID: "b"},
	}}

	// Nothing expanded: only the root and its direct children are visible.
	collapsed := view.Build(tree, nil)
	fmt.Println("Collapsed:", collapsed.Order())

	// Expanding "a" makes its children visible.
	expanded := view.Build(tree, map[string]bool{"a": true})
	fmt.Println("Expanded: ", expanded.Order())
	// Output:
	// Collapsed: [root a b]
	// Expanded:  [root a a1 a2 b]
}

func ExampleGraph_Analyze() {
	tree := &taxonomy.Node{ID: "root", Children: []*taxonomy.Node{
		{ID: "a", Children: []*taxonomy.Node{{ID: "a1"}, {ID: "a2"}}},
		{ID: "b"},
	}}

	g := view.Build(tree, map[string]bool{"a": true})
	g.Analyze()

	a, _ := g.Node("a")
	b, _ := g.Node("b")
	fmt.Printf("a: descendants=%d maxDepth=%d weight=%.0f\n", a.Descendants, a.MaxDepth, a.Weight)
	fmt.Printf("b: descendants=%d maxDepth=%d weight=%.0f\n", b.Descendants, b.MaxDepth, b.Weight)
	// Output:
	// a: descendants=2 maxDepth=1 weight=5
	// b: descendants=0 maxDepth=0 weight=1
}

func ExampleGraph_Subtree() {
	tree := &taxonomy.Node{ID: "root", Children: []*taxonomy.Node{
		{ID: "a", Children: []*taxonomy.Node{{ID: "a1"}}},
		{ID: "b"},
	}}

	g := view.Build(tree, map[string]bool{"a": true})
	fmt.Println("Subtree of a:", g.Subtree("a"))
	fmt.Println("Ancestors of a1:", g.Ancestors("a1"))
	// Output:
	// Subtree of a: [a a1]
	// Ancestors of a1: [a root]
}
