package cli

import (
	"bytes"
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/radialmap/pkg/export"
	"github.com/matzehuels/radialmap/pkg/pipeline"
)

// exportCommand creates the export command for re-rendering a computed
// layout snapshot.
func (c *CLI) exportCommand() *cobra.Command {
	var (
		output     string
		formatsStr string
		labels     bool
		sectors    bool
	)

	cmd := &cobra.Command{
		Use:   "export [layout.json]",
		Short: "Render output formats from a computed layout snapshot",
		Long: `Render output formats from a computed layout snapshot.

The export command takes a layout.json file (produced by 'layout' or
'arrange') and renders it to SVG, DOT, or PNG. The snapshot already carries
all positions, so this step is purely about rendering.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := pipeline.Options{
				Formats: parseFormats(formatsStr),
				Labels:  labels,
				Sectors: sectors,
			}
			if err := opts.ValidateAndSetDefaults(); err != nil {
				return err
			}
			return c.runExport(cmd.Context(), args[0], opts, output)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): svg (default), dot, png (comma-separated)")
	cmd.Flags().BoolVar(&labels, "labels", true, "draw node labels (svg)")
	cmd.Flags().BoolVar(&sectors, "sectors", false, "draw level-1 sector boundaries (svg)")

	return cmd
}

// runExport loads the snapshot and renders it.
func (c *CLI) runExport(ctx context.Context, input string, opts pipeline.Options, output string) error {
	snapshot, err := export.ReadFile(input)
	if err != nil {
		return fmt.Errorf("load layout %s: %w", input, err)
	}

	spinner := newSpinner(ctx, "Rendering...")
	spinner.Start()

	artifacts, err := renderSnapshot(ctx, snapshot, opts)
	if err != nil {
		spinner.StopWithError("Rendering failed")
		return err
	}
	spinner.Stop()

	printSuccess("Export complete")
	return writeArtifacts(artifactWriteParams{
		artifacts: artifacts,
		formats:   opts.Formats,
		input:     input,
		output:    output,
	})
}

// renderSnapshot produces one artifact per requested format from a snapshot.
func renderSnapshot(ctx context.Context, s export.Snapshot, opts pipeline.Options) (map[string][]byte, error) {
	artifacts := make(map[string][]byte, len(opts.Formats))
	for _, format := range opts.Formats {
		switch format {
		case pipeline.FormatJSON:
			var buf bytes.Buffer
			if err := export.WriteJSON(s, &buf); err != nil {
				return nil, fmt.Errorf("render json: %w", err)
			}
			artifacts[format] = buf.Bytes()
		case pipeline.FormatSVG:
			var svgOpts []export.SVGOption
			if opts.Labels {
				svgOpts = append(svgOpts, export.WithLabels())
			}
			if opts.Sectors {
				svgOpts = append(svgOpts, export.WithSectors())
			}
			artifacts[format] = export.RenderSVG(s, svgOpts...)
		case pipeline.FormatDOT:
			artifacts[format] = []byte(export.ToDOT(s))
		case pipeline.FormatPNG:
			data, err := export.RenderGraphviz(ctx, export.ToDOT(s), "png")
			if err != nil {
				return nil, fmt.Errorf("render png: %w", err)
			}
			artifacts[format] = data
		default:
			return nil, fmt.Errorf("unknown format %q", format)
		}
	}
	return artifacts, nil
}
