package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/radialmap/pkg/engine"
	"github.com/matzehuels/radialmap/pkg/errors"
	"github.com/matzehuels/radialmap/pkg/export"
	"github.com/matzehuels/radialmap/pkg/pipeline"
)

// focusCommand creates the focus command for rendering a focus-mode layout.
func (c *CLI) focusCommand() *cobra.Command {
	var (
		output     string
		formatsStr string
		node       string
		viewWidth  float64
		viewHeight float64
		flags      layoutFlags
	)

	cmd := &cobra.Command{
		Use:   "focus [taxonomy.json|taxonomy.yaml]",
		Short: "Render the focus-mode layout for one node",
		Long: `Render the focus-mode layout for one node.

Focus mode isolates a node's branch: the focused node sits at the origin,
its ancestor chain stretches toward the root on one side, and its children
ring it. Unrelated nodes are pushed out of the way.

Focus positions are transient - they are never recorded as overrides, and a
normal layout pass restores the regular arrangement.`,
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
			return c.runFocus(cmd.Context(), args[0], opts, node, output, viewWidth, viewHeight)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): svg (default), json, dot, png (comma-separated)")
	cmd.Flags().StringVarP(&node, "node", "n", "", "node to focus (required)")
	cmd.Flags().Float64Var(&viewWidth, "width", 1280, "viewport width for the zoom factor")
	cmd.Flags().Float64Var(&viewHeight, "height", 800, "viewport height for the zoom factor")
	flags.register(cmd)
	_ = cmd.MarkFlagRequired("node")

	return cmd
}

// runFocus runs a layout pass, enters focus mode, and writes output.
func (c *CLI) runFocus(ctx context.Context, input string, opts pipeline.Options, node, output string, viewW, viewH float64) error {
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
	if _, ok := eng.Positions()[node]; !ok {
		return errors.New(errors.ErrCodeNodeNotFound, "node %q is not visible; expand its ancestors", node)
	}

	eng.EnterFocus(node)
	settleTicks(eng, opts.MaxTicks)

	snapshot := export.FromGraph(eng.Graph(), opts.Mode)
	artifacts, err := renderSnapshot(ctx, snapshot, opts)
	if err != nil {
		return err
	}

	printSuccess("Focused %s", node)
	if err := writeArtifacts(artifactWriteParams{
		artifacts: artifacts,
		formats:   opts.Formats,
		input:     input,
		output:    output,
	}); err != nil {
		return err
	}

	if vp, ok := eng.FocusViewport(); ok {
		center := vp.Center()
		printKeyValue("center", fmt.Sprintf("(%.0f, %.0f)", center.X, center.Y))
		printKeyValue("bounds", fmt.Sprintf("%.0f × %.0f", vp.Width(), vp.Height()))
		printKeyValue("zoom", fmt.Sprintf("%.2f", vp.Scale(viewW, viewH)))
	}
	printStats(len(snapshot.Nodes), 0, true)

	return nil
}
