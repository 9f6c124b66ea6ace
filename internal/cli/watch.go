package cli

import (
	"fmt"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/matzehuels/radialmap/pkg/engine"
	"github.com/matzehuels/radialmap/pkg/export"
	"github.com/matzehuels/radialmap/pkg/pipeline"
	"github.com/matzehuels/radialmap/pkg/taxonomy"
)

const (
	// watchFrameInterval paces the relaxation ticks (~30 fps).
	watchFrameInterval = 33 * time.Millisecond

	// watchDebounce delays reloads after a file event so editors that write
	// in multiple syscalls trigger a single reload.
	watchDebounce = 250 * time.Millisecond
)

// watchCommand creates the watch command for live layout preview.
func (c *CLI) watchCommand() *cobra.Command {
	var (
		output string
		flags  layoutFlags
	)

	cmd := &cobra.Command{
		Use:   "watch [taxonomy.json|taxonomy.yaml]",
		Short: "Watch a taxonomy file and keep its layout settled",
		Long: `Watch a taxonomy file and keep its layout settled.

The watch command runs the relaxation strategy continuously: every save of
the taxonomy file is picked up via filesystem notifications, the layout is
rebuilt with positional continuity, and the simulation re-settles live.

Keys: w wobbles the layout, r resets all overrides, q quits. On quit the
final snapshot is written to --output if given.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := flags.options()
			if err != nil {
				return err
			}
			// Watching is inherently interactive: the frame loop drives
			// ticks, so the strategy is always relaxation.
			opts.Mode = string(engine.ModeRelaxation)
			return c.runWatch(args[0], opts, output)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "snapshot file written on quit")
	flags.register(cmd)

	return cmd
}

// runWatch builds the engine and watcher and hands control to bubbletea.
func (c *CLI) runWatch(input string, opts pipeline.Options, output string) error {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return err
	}
	tree, err := loadTaxonomy(input)
	if err != nil {
		return err
	}

	eng, err := engine.New(opts.Config,
		engine.WithMode(engine.ModeRelaxation),
		engine.WithSeed(opts.Seed))
	if err != nil {
		return err
	}
	if err := eng.Initialize(tree, expandedFor(tree, opts)); err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()
	// Watch the directory, not the file: editors that save atomically
	// replace the file and would silently drop a file-level watch.
	if err := watcher.Add(filepath.Dir(input)); err != nil {
		return fmt.Errorf("watch %s: %w", input, err)
	}

	model := watchModel{
		path:    filepath.Clean(input),
		opts:    opts,
		eng:     eng,
		watcher: watcher,
		loaded:  time.Now(),
	}
	final, err := tea.NewProgram(model).Run()
	if err != nil {
		return fmt.Errorf("watch ui: %w", err)
	}

	if output != "" {
		m := final.(watchModel)
		snapshot := export.FromGraph(m.eng.Graph(), string(engine.ModeRelaxation))
		if err := export.WriteFile(snapshot, output); err != nil {
			return fmt.Errorf("write snapshot: %w", err)
		}
		printFile(output)
	}
	return nil
}

// expandedFor resolves the expansion set of a watch session.
func expandedFor(tree *taxonomy.Node, opts pipeline.Options) []string {
	if opts.ExpandAll {
		return tree.IDs()
	}
	return opts.Expanded
}

// =============================================================================
// Bubbletea Model
// =============================================================================

type frameMsg time.Time
type fileEventMsg fsnotify.Event
type watchErrMsg struct{ err error }

// watchModel is the bubbletea model of the watch session.
type watchModel struct {
	path    string
	opts    pipeline.Options
	eng     *engine.Engine
	watcher *fsnotify.Watcher

	settling  bool
	ticks     int
	reloads   int
	loaded    time.Time
	lastErr   error
	pendingAt time.Time
	pending   bool
}

func (m watchModel) Init() tea.Cmd {
	return tea.Batch(frameCmd(), m.waitForFile())
}

// frameCmd schedules the next relaxation tick.
func frameCmd() tea.Cmd {
	return tea.Tick(watchFrameInterval, func(t time.Time) tea.Msg { return frameMsg(t) })
}

// waitForFile blocks on the next filesystem event.
func (m watchModel) waitForFile() tea.Cmd {
	return func() tea.Msg {
		select {
		case ev, ok := <-m.watcher.Events:
			if !ok {
				return nil
			}
			return fileEventMsg(ev)
		case err, ok := <-m.watcher.Errors:
			if !ok {
				return nil
			}
			return watchErrMsg{err}
		}
	}
}

func (m watchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case frameMsg:
		if m.pending && time.Since(m.pendingAt) >= watchDebounce {
			m.pending = false
			m.reload()
		}
		m.settling = m.eng.Tick()
		if m.settling {
			m.ticks++
		}
		return m, frameCmd()

	case fileEventMsg:
		ev := fsnotify.Event(msg)
		if filepath.Clean(ev.Name) == m.path && ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
			m.pending = true
			m.pendingAt = time.Now()
		}
		return m, m.waitForFile()

	case watchErrMsg:
		m.lastErr = msg.err
		return m, m.waitForFile()

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "w":
			m.eng.Wobble()
		case "r":
			m.eng.ResetAllOverrides()
		}
		return m, nil
	}
	return m, nil
}

// reload re-reads the taxonomy and feeds it to the engine. A broken
// document keeps the previous layout on screen and surfaces the error.
func (m *watchModel) reload() {
	tree, err := taxonomy.Load(m.path)
	if err != nil {
		m.lastErr = err
		return
	}
	if err := m.eng.Update(tree, expandedFor(tree, m.opts)); err != nil {
		m.lastErr = err
		return
	}
	m.lastErr = nil
	m.reloads++
	m.loaded = time.Now()
	m.ticks = 0
}

func (m watchModel) View() string {
	status := styleSettled.Render(iconSettled)
	if m.settling {
		status = styleSettling.Render(iconSettling)
	}

	lines := []string{
		StyleTitle.Render("radialmap watch"),
		"",
		fmt.Sprintf("%s %s", StyleDim.Render("file"), StyleValue.Render(m.path)),
		fmt.Sprintf("%s %s", StyleDim.Render("nodes"), StyleNumber.Render(fmt.Sprintf("%d", len(m.eng.Positions())))),
		fmt.Sprintf("%s %s %s", StyleDim.Render("state"), status, StyleDim.Render(fmt.Sprintf("(%d ticks)", m.ticks))),
		fmt.Sprintf("%s %s", StyleDim.Render("loads"), StyleNumber.Render(fmt.Sprintf("%d", m.reloads+1))),
	}
	if m.pending {
		lines = append(lines, StyleWarning.Render("reloading..."))
	}
	if m.lastErr != nil {
		lines = append(lines, styleIconError.Render(iconError)+" "+m.lastErr.Error())
	}
	lines = append(lines, "", StyleDim.Render("w wobble · r reset overrides · q quit"))

	return lipgloss.NewStyle().Padding(1, 2).Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}
