package pipeline

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/matzehuels/radialmap/pkg/taxonomy"
)

func sampleTree() *taxonomy.Node {
	return &taxonomy.Node{
		ID: "root", Label: "Root",
		Children: []*taxonomy.Node{
			{ID: "a", Label: "Alpha", Children: []*taxonomy.Node{
				{ID: "a1"}, {ID: "a2"},
			}},
			{ID: "b", Label: "Beta"},
			{ID: "c", Label: "Gamma"},
		},
	}
}

func TestOptionsDefaults(t *testing.T) {
	var opts Options
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("defaults rejected: %v", err)
	}
	if opts.Mode != DefaultMode {
		t.Errorf("mode = %q, want %q", opts.Mode, DefaultMode)
	}
	if opts.Seed != DefaultSeed {
		t.Errorf("seed = %d, want %d", opts.Seed, DefaultSeed)
	}
	if opts.MaxTicks != DefaultMaxTicks {
		t.Errorf("max ticks = %d, want %d", opts.MaxTicks, DefaultMaxTicks)
	}
	if len(opts.Formats) != 1 || opts.Formats[0] != FormatJSON {
		t.Errorf("formats = %v, want [json]", opts.Formats)
	}
	if err := opts.Config.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestOptionsRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		opts Options
	}{
		{"unknown mode", Options{Mode: "quantum"}},
		{"unknown format", Options{Formats: []string{"gif"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.opts.ValidateAndSetDefaults(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestExecuteStatic(t *testing.T) {
	r := NewRunner(nil)
	result, err := r.Execute(context.Background(), sampleTree(), Options{
		ExpandAll: true,
		Formats:   []string{FormatJSON, FormatSVG, FormatDOT},
		Labels:    true,
	})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if result.Stats.NodeCount != 6 {
		t.Errorf("node count = %d, want 6", result.Stats.NodeCount)
	}
	if result.Stats.Ticks != 0 {
		t.Errorf("static run ticked %d times", result.Stats.Ticks)
	}
	for _, f := range []string{FormatJSON, FormatSVG, FormatDOT} {
		if len(result.Artifacts[f]) == 0 {
			t.Errorf("missing %s artifact", f)
		}
	}
	if !strings.Contains(string(result.Artifacts[FormatSVG]), "Alpha") {
		t.Error("svg missing node label")
	}
	positions := result.Snapshot.Positions()
	root, ok := positions["root"]
	if !ok {
		t.Fatal("root missing from snapshot")
	}
	if root.X != 0 || root.Y != 0 {
		t.Errorf("root at (%v, %v), want origin", root.X, root.Y)
	}
}

// crowdedTree packs enough leaves under one branch that their ideal
// positions overlap, so a relaxation run has actual separation work to do.
func crowdedTree() *taxonomy.Node {
	leaves := make([]*taxonomy.Node, 8)
	for i := range leaves {
		leaves[i] = &taxonomy.Node{ID: fmt.Sprintf("leaf%d", i)}
	}
	return &taxonomy.Node{
		ID: "root",
		Children: []*taxonomy.Node{
			{ID: "a", Children: leaves},
			{ID: "b"}, {ID: "c"}, {ID: "d"},
		},
	}
}

func TestExecuteRelaxationSettles(t *testing.T) {
	r := NewRunner(nil)
	result, err := r.Execute(context.Background(), crowdedTree(), Options{
		Mode:      "relaxation",
		ExpandAll: true,
		Seed:      7,
	})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if result.Stats.Ticks == 0 {
		t.Error("relaxation run never ticked")
	}
	if result.Stats.Ticks >= DefaultMaxTicks {
		t.Errorf("relaxation hit the tick cap at %d", result.Stats.Ticks)
	}
}

func TestExecuteCollapsedRoot(t *testing.T) {
	r := NewRunner(nil)
	result, err := r.Execute(context.Background(), sampleTree(), Options{})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	// Nothing expanded: only the root and its immediate children are visible.
	if result.Stats.NodeCount != 4 {
		t.Errorf("node count = %d, want 4", result.Stats.NodeCount)
	}
}

func TestExecuteNilTree(t *testing.T) {
	r := NewRunner(nil)
	if _, err := r.Execute(context.Background(), nil, Options{}); err == nil {
		t.Error("expected error for nil tree")
	}
}
