// Package cli implements the radialmap command-line interface.
package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/radialmap/pkg/buildinfo"
	"github.com/matzehuels/radialmap/pkg/errors"
	"github.com/matzehuels/radialmap/pkg/layout"
	"github.com/matzehuels/radialmap/pkg/pipeline"
	"github.com/matzehuels/radialmap/pkg/taxonomy"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = "radialmap"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: log.NewWithOptions(w, log.Options{
			ReportTimestamp: true,
			TimeFormat:      "15:04:05.00",
			Level:           level,
		}),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          "radialmap",
		Short:        "Radialmap lays out hierarchical taxonomies as radial maps",
		Long:         `Radialmap is a CLI tool for computing radial tree layouts of hierarchical taxonomies: weighted angular sectors, collision-resolved positions, and SVG/PNG renderings.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())

	// Register all subcommands
	root.AddCommand(c.layoutCommand())
	root.AddCommand(c.arrangeCommand())
	root.AddCommand(c.focusCommand())
	root.AddCommand(c.exportCommand())
	root.AddCommand(c.watchCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner for CLI use.
func (c *CLI) newRunner() *pipeline.Runner {
	return pipeline.NewRunner(c.Logger)
}

// =============================================================================
// Paths
// =============================================================================

// configDir returns the configuration directory using the XDG standard
// (~/.config/radialmap/).
func configDir() (string, error) {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName), nil
}

// =============================================================================
// Options Helpers
// =============================================================================

// layoutFlags are the pipeline flags shared by the commands that run a
// layout pass.
type layoutFlags struct {
	configPath string
	mode       string
	seed       uint64
	maxTicks   int
	expand     string
	expandAll  bool
	labels     bool
	sectors    bool
}

// register attaches the shared flags to cmd.
func (f *layoutFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.configPath, "config", "", "layout tuning file (TOML)")
	cmd.Flags().StringVar(&f.mode, "mode", pipeline.DefaultMode, "collision strategy: static (default), relaxation")
	cmd.Flags().Uint64Var(&f.seed, "seed", pipeline.DefaultSeed, "random seed for reproducible layouts")
	cmd.Flags().IntVar(&f.maxTicks, "max-ticks", pipeline.DefaultMaxTicks, "tick cap for relaxation settling")
	cmd.Flags().StringVar(&f.expand, "expand", "", "node IDs to expand (comma-separated)")
	cmd.Flags().BoolVar(&f.expandAll, "expand-all", false, "expand every node")
	cmd.Flags().BoolVar(&f.labels, "labels", true, "draw node labels (svg)")
	cmd.Flags().BoolVar(&f.sectors, "sectors", false, "draw level-1 sector boundaries (svg)")
}

// options converts the flags into pipeline options.
func (f *layoutFlags) options() (pipeline.Options, error) {
	opts := pipeline.Options{
		Mode:      f.mode,
		Seed:      f.seed,
		MaxTicks:  f.maxTicks,
		Expanded:  parseIDs(f.expand),
		ExpandAll: f.expandAll,
		Labels:    f.labels,
		Sectors:   f.sectors,
	}
	if f.configPath != "" {
		cfg, err := layout.LoadConfig(f.configPath)
		if err != nil {
			return opts, err
		}
		opts.Config = cfg
	}
	return opts, nil
}

// loadTaxonomy reads and validates a taxonomy document.
func loadTaxonomy(path string) (*taxonomy.Node, error) {
	if err := errors.ValidatePath(path); err != nil {
		return nil, fmt.Errorf("taxonomy path: %w", err)
	}
	tree, err := taxonomy.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load taxonomy %s: %w", path, err)
	}
	return tree, nil
}

// parseFormats parses a comma-separated format string into a slice.
func parseFormats(s string) []string {
	if s == "" {
		return []string{pipeline.FormatSVG}
	}
	return strings.Split(s, ",")
}

// parseIDs parses a comma-separated ID list, dropping empty entries.
func parseIDs(s string) []string {
	if s == "" {
		return nil
	}
	var ids []string
	for _, id := range strings.Split(s, ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}
