package cli

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/matzehuels/radialmap/pkg/engine"
	"github.com/matzehuels/radialmap/pkg/errors"
	"github.com/matzehuels/radialmap/pkg/export"
	"github.com/matzehuels/radialmap/pkg/pipeline"
	"github.com/matzehuels/radialmap/pkg/store"
	"github.com/matzehuels/radialmap/pkg/view"
)

// arrangeCommand creates the arrange command for explicit ring arrangement.
func (c *CLI) arrangeCommand() *cobra.Command {
	var (
		output     string
		formatsStr string
		node       string
		children   string
		save       bool
		scope      string
		flags      layoutFlags
	)

	cmd := &cobra.Command{
		Use:   "arrange [taxonomy.json|taxonomy.yaml]",
		Short: "Arrange a node's children on an explicit ring",
		Long: `Arrange a node's children on an explicit ring.

The arrange command runs a normal layout pass, then places the chosen
node's children on a ring around it: a half-circle fan facing away from the
parent for small sets, a full circle with a gap toward the parent for large
ones. Deeper descendants fan outward recursively.

The produced positions act as recorded overrides: with --save they are
persisted to the local override store and survive future layout passes
under the same --scope.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := errors.ValidateNodeID(node); err != nil {
				return err
			}
			opts, err := flags.options()
			if err != nil {
				return err
			}
			opts.Formats = parseFormats(formatsStr)
			return c.runArrange(cmd.Context(), args[0], opts, arrangeParams{
				node:     node,
				children: parseIDs(children),
				output:   output,
				save:     save,
				scope:    scope,
			})
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): svg (default), json, dot, png (comma-separated)")
	cmd.Flags().StringVarP(&node, "node", "n", "", "node whose children to arrange (required)")
	cmd.Flags().StringVar(&children, "children", "", "restrict to these children's subtrees (comma-separated)")
	cmd.Flags().BoolVar(&save, "save", false, "persist the produced overrides")
	cmd.Flags().StringVar(&scope, "scope", "default", "override store scope for --save")
	flags.register(cmd)
	_ = cmd.MarkFlagRequired("node")

	return cmd
}

// arrangeParams holds the arrange-specific inputs.
type arrangeParams struct {
	node     string
	children []string
	output   string
	save     bool
	scope    string
}

// runArrange runs a layout pass, applies the ring arrangement, and writes
// output.
func (c *CLI) runArrange(ctx context.Context, input string, opts pipeline.Options, p arrangeParams) error {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return err
	}
	tree, err := loadTaxonomy(input)
	if err != nil {
		return err
	}

	eng, err := engine.New(opts.Config,
		engine.WithMode(engine.Mode(opts.Mode)),
		engine.WithSeed(opts.Seed))
	if err != nil {
		return err
	}
	expanded := opts.Expanded
	if opts.ExpandAll {
		expanded = tree.IDs()
	}
	if err := eng.Initialize(tree, expanded); err != nil {
		return err
	}
	if _, ok := eng.Positions()[p.node]; !ok {
		return errors.New(errors.ErrCodeNodeNotFound, "node %q is not visible; expand its ancestors", p.node)
	}

	eng.ArrangeChildrenCircular(p.node, p.children)
	settleTicks(eng, opts.MaxTicks)

	if p.save {
		if err := saveOverrides(ctx, p.scope, eng.Overrides()); err != nil {
			return err
		}
		printInfo("Saved %d overrides to scope %q", len(eng.Overrides()), p.scope)
	}

	snapshot := export.FromGraph(eng.Graph(), opts.Mode)
	artifacts, err := renderSnapshot(ctx, snapshot, opts)
	if err != nil {
		return err
	}

	printSuccess("Arranged children of %s", p.node)
	if err := writeArtifacts(artifactWriteParams{
		artifacts: artifacts,
		formats:   opts.Formats,
		input:     input,
		output:    p.output,
	}); err != nil {
		return err
	}
	printStats(len(snapshot.Nodes), 0, true)

	return nil
}

// settleTicks drives a relaxation engine to convergence, bounded by maxTicks.
// Static engines settle inside their structural calls, so this is a no-op
// for them.
func settleTicks(eng *engine.Engine, maxTicks int) int {
	ticks := 0
	for eng.Tick() && ticks < maxTicks {
		ticks++
	}
	return ticks
}

// saveOverrides persists overrides to the local file store.
func saveOverrides(ctx context.Context, scope string, overrides map[string]view.Point) error {
	dir, err := configDir()
	if err != nil {
		return fmt.Errorf("resolve config dir: %w", err)
	}
	fs, err := store.NewFileStore(filepath.Join(dir, "overrides"))
	if err != nil {
		return fmt.Errorf("open override store: %w", err)
	}
	return fs.Save(ctx, scope, overrides)
}
