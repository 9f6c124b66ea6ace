package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/radialmap/pkg/errors"
	"github.com/matzehuels/radialmap/pkg/pipeline"
)

// layoutCommand creates the layout command for computing radial layouts.
func (c *CLI) layoutCommand() *cobra.Command {
	var (
		output     string
		formatsStr string
		flags      layoutFlags
	)

	cmd := &cobra.Command{
		Use:   "layout [taxonomy.json|taxonomy.yaml]",
		Short: "Compute a radial layout from a taxonomy document",
		Long: `Compute a radial layout from a taxonomy document.

The layout command reads a taxonomy tree (JSON or YAML), partitions the
plane into weighted angular sectors, places every visible node at its ideal
radial position and resolves collisions with the selected strategy.

The output is one artifact per requested format: a layout.json snapshot
(positions, sectors, levels), an SVG or DOT rendering, or a PNG produced
via Graphviz.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := flags.options()
			if err != nil {
				return err
			}
			opts.Formats = parseFormats(formatsStr)
			return c.runLayout(cmd.Context(), args[0], opts, output)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): svg (default), json, dot, png (comma-separated)")
	flags.register(cmd)

	return cmd
}

// runLayout loads the taxonomy, runs the pipeline, and writes output.
func (c *CLI) runLayout(ctx context.Context, input string, opts pipeline.Options, output string) error {
	tree, err := loadTaxonomy(input)
	if err != nil {
		return err
	}

	spinner := newSpinner(ctx, fmt.Sprintf("Computing %s layout...", opts.Mode))
	spinner.Start()

	result, err := c.newRunner().Execute(ctx, tree, opts)
	if err != nil {
		spinner.StopWithError("Layout failed")
		return fmt.Errorf("compute layout: %w", err)
	}
	spinner.Stop()

	if ctx.Err() != nil {
		return ctx.Err()
	}

	printSuccess("Layout complete")
	if err := writeArtifacts(artifactWriteParams{
		artifacts: result.Artifacts,
		formats:   opts.Formats,
		input:     input,
		output:    output,
	}); err != nil {
		return err
	}
	printStats(result.Stats.NodeCount, result.Stats.Ticks, result.Stats.Ticks < opts.MaxTicks)
	printNewline()
	printNextStep("Re-render", "radialmap export <layout.json>")

	return nil
}

// =============================================================================
// Artifact Writing
// =============================================================================

// artifactWriteParams bundles the inputs of writeArtifacts.
type artifactWriteParams struct {
	artifacts map[string][]byte
	formats   []string
	input     string // source file; its basename seeds default output paths
	output    string // explicit output file or base path; empty derives from input
}

// writeArtifacts writes one file per requested format and prints each path.
// With a single format and an explicit output, the artifact is written there
// verbatim; otherwise the format is appended as an extension to the base
// path.
func writeArtifacts(p artifactWriteParams) error {
	base := p.output
	if base != "" {
		if err := errors.ValidatePath(base); err != nil {
			return fmt.Errorf("output path: %w", err)
		}
	}
	if base == "" {
		base = strings.TrimSuffix(p.input, filepath.Ext(p.input))
	}

	for _, format := range p.formats {
		data, ok := p.artifacts[format]
		if !ok {
			continue
		}
		path := base + "." + format
		if p.output != "" && len(p.formats) == 1 {
			path = p.output
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		printFile(path)
	}
	return nil
}
