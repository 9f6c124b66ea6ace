// Package engine is the facade of the radial layout engine.
//
// An [Engine] owns the full pipeline — visible-graph construction, subtree
// analysis, sector assignment, ideal positions, override application and
// collision resolution — plus the command surface the surrounding UI layer
// drives: the drag protocol, explicit arrangement, focus mode, wobble and
// override resets. Hosts exchange only id-keyed geometric data with it.
//
// The engine is single-threaded and cooperative: it spawns no goroutines,
// and all mutation happens inside a synchronous command or a host-driven
// [Engine.Tick]. A mutex guards the facade so hosts that call from multiple
// goroutines (HTTP handlers) stay safe; within one goroutine calls never
// block. Every structural call fully discards the previous working graph and
// its physics records before building the next, so a stale tick can never
// write into a newer graph — the last Update always wins.
package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/matzehuels/radialmap/pkg/layout"
	"github.com/matzehuels/radialmap/pkg/layout/arrange"
	"github.com/matzehuels/radialmap/pkg/layout/resolve"
	"github.com/matzehuels/radialmap/pkg/observability"
	"github.com/matzehuels/radialmap/pkg/taxonomy"
	"github.com/matzehuels/radialmap/pkg/view"
)

// Mode selects the collision-resolution strategy.
type Mode string

const (
	// ModeRelaxation resolves collisions with a continuous force
	// simulation, one Tick per externally driven animation frame.
	ModeRelaxation Mode = "relaxation"

	// ModeStatic resolves collisions synchronously inside every structural
	// call, with a bounded iteration count and no time integration.
	ModeStatic Mode = "static"
)

// Snapshot is the engine's externally visible state after a pass or tick.
type Snapshot struct {
	Positions map[string]view.Point `json:"positions"`
	Settling  bool                  `json:"settling"`
	Focused   string                `json:"focused,omitempty"`
}

// Listener receives a snapshot after every tick and structural change.
type Listener func(Snapshot)

// dragState tracks one in-flight drag.
type dragState struct {
	id     string
	origin view.Point
}

// focusState tracks the active focus layout.
type focusState struct {
	id       string
	viewport arrange.Viewport
}

// Engine computes and maintains positions for the currently-visible nodes of
// one taxonomy tree. Create it with [New], feed it trees with
// [Engine.Initialize] and [Engine.Update], and read positions with
// [Engine.Positions] or a registered [Listener].
type Engine struct {
	mu sync.Mutex

	cfg  layout.Config
	mode Mode
	seed uint64

	tree     *taxonomy.Node
	expanded map[string]bool

	graph *view.Graph
	over  *layout.Overrides
	relax *resolve.Relaxer

	drag  *dragState
	focus *focusState

	listeners map[int]Listener
	nextSub   int
}

// Option configures an Engine at construction.
type Option func(*Engine)

// WithMode sets the initial collision-resolution strategy. The default is
// ModeStatic, matching synchronous hosts; interactive hosts switch to
// ModeRelaxation and drive ticks.
func WithMode(m Mode) Option { return func(e *Engine) { e.mode = m } }

// WithSeed fixes the seed behind the relaxation strategy's randomness
// (wobble directions, coincident-center jiggle), making runs reproducible.
func WithSeed(seed uint64) Option { return func(e *Engine) { e.seed = seed } }

// New returns an engine with the given tuning. The configuration is
// validated up front: a zero or negative radius or spacing would propagate
// NaN through the angle math, so it is rejected here rather than mid-pass.
func New(cfg layout.Config, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("engine config: %w", err)
	}
	e := &Engine{
		cfg:       cfg,
		mode:      ModeStatic,
		seed:      uint64(time.Now().UnixNano()),
		over:      layout.NewOverrides(),
		listeners: make(map[int]Listener),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.mode != ModeRelaxation && e.mode != ModeStatic {
		return nil, fmt.Errorf("engine config: unknown mode %q", e.mode)
	}
	return e, nil
}

// =============================================================================
// Lifecycle
// =============================================================================

// Initialize adopts a taxonomy tree and expansion set and computes the first
// layout. Any in-flight drag or focus state from a previous tree is
// discarded; recorded overrides survive, as they are keyed by node ID, not by
// graph instance.
func (e *Engine) Initialize(root *taxonomy.Node, expandedIDs []string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if root == nil {
		return fmt.Errorf("initialize: nil taxonomy root")
	}
	e.drag = nil
	e.focus = nil
	e.tree = root
	e.expanded = idSet(expandedIDs)
	e.rebuild(nil)
	return nil
}

// Update recomputes the layout for a changed tree or expansion set. Nodes
// that stay visible keep their previous position as the starting point for
// visual continuity; nodes newly entering view start at their fresh ideal
// position. Update supersedes any state an earlier call produced, settled or
// not.
func (e *Engine) Update(root *taxonomy.Node, expandedIDs []string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if root == nil {
		return fmt.Errorf("update: nil taxonomy root")
	}
	var prev map[string]view.Point
	if e.graph != nil {
		prev = e.graph.Positions()
	}
	e.tree = root
	e.expanded = idSet(expandedIDs)
	e.rebuild(prev)
	return nil
}

// SetExpanded recomputes the layout for a new expansion set over the current
// tree. It is Update with the tree unchanged.
func (e *Engine) SetExpanded(expandedIDs []string) error {
	e.mu.Lock()
	tree := e.tree
	e.mu.Unlock()
	if tree == nil {
		return fmt.Errorf("set expanded: engine not initialized")
	}
	return e.Update(tree, expandedIDs)
}

// SetMode switches the collision-resolution strategy and re-resolves the
// current layout under it.
func (e *Engine) SetMode(m Mode) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if m != ModeRelaxation && m != ModeStatic {
		return fmt.Errorf("set mode: unknown mode %q", m)
	}
	e.mode = m
	if e.graph != nil {
		e.resolveCurrent()
		e.notify()
	}
	return nil
}

// Mode returns the active strategy.
func (e *Engine) Mode() Mode {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.mode
}

// rebuild discards the previous graph and physics records and runs the full
// pipeline. prev carries the prior pass's positions for continuity; nil on a
// cold start. Caller holds the lock.
func (e *Engine) rebuild(prev map[string]view.Point) {
	start := time.Now()
	observability.Engine().OnRebuildStart(context.Background(), e.tree.Count())

	g := view.Build(e.tree, e.expanded)
	g.Analyze()
	layout.AssignSectors(g, e.cfg)
	layout.ComputeIdeal(g, e.cfg)
	layout.ApplyStartingPositions(g, e.over, prev)

	e.graph = g
	e.relax = nil // never let a stale tick touch the new graph
	e.resolveCurrent()

	observability.Engine().OnRebuildComplete(context.Background(), string(e.mode), g.Len(), time.Since(start))
	e.notify()
}

// resolveCurrent applies the active strategy to the current graph. In static
// mode the pass runs to completion synchronously; in relaxation mode a fresh
// resolver is built (zero velocities, so settling restarts from a low-energy
// state) and the host drives it via Tick. An in-flight drag survives the
// swap: the dragged node is re-pinned at its current position.
func (e *Engine) resolveCurrent() {
	switch e.mode {
	case ModeStatic:
		e.relax = nil
		start := time.Now()
		iterations := resolve.Static(e.graph, e.over, e.cfg)
		observability.Engine().OnResolve(context.Background(), string(ModeStatic), iterations, time.Since(start))
	case ModeRelaxation:
		e.relax = resolve.NewRelaxer(e.graph, e.over, e.cfg, e.seed)
		if e.drag != nil {
			if n, ok := e.graph.Node(e.drag.id); ok {
				e.relax.Pin(n.ID, n.Pos)
			}
		}
	}
}

// =============================================================================
// Queries
// =============================================================================

// Positions returns a snapshot of every visible node's current position,
// keyed by ID. The map is independent of the engine; it is empty before
// Initialize. A lookup for an ID not currently visible is simply absent.
func (e *Engine) Positions() map[string]view.Point {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.graph == nil {
		return map[string]view.Point{}
	}
	return e.graph.Positions()
}

// Settling reports whether the relaxation is still dissipating kinetic
// energy. It is always false in static mode, whose passes complete inside
// the call that triggered them.
func (e *Engine) Settling() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.mode == ModeRelaxation && e.relax != nil && e.relax.Settling()
}

// Graph returns the current visible-node graph, or nil before Initialize.
// The graph is owned by the engine; treat it as read-only and do not retain
// it across Update calls.
func (e *Engine) Graph() *view.Graph {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.graph
}

// Overrides returns a copy of the persistent position overrides, for hosts
// that persist them across sessions.
func (e *Engine) Overrides() map[string]view.Point {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.over.Snapshot()
}

// RestoreOverrides replaces the override set wholesale (host-side persistence
// load) and re-resolves the current layout, if any.
func (e *Engine) RestoreOverrides(m map[string]view.Point) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.over.Replace(m)
	if e.graph != nil {
		layout.ApplyStartingPositions(e.graph, e.over, e.graph.Positions())
		e.resolveCurrent()
		e.notify()
	}
}

// FocusViewport returns the bounding box of the active focus arrangement and
// whether focus mode is active.
func (e *Engine) FocusViewport() (arrange.Viewport, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.focus == nil {
		return arrange.Viewport{}, false
	}
	return e.focus.viewport, true
}

// Focused returns the focused node's ID, or "" when focus mode is off.
func (e *Engine) Focused() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.focus == nil {
		return ""
	}
	return e.focus.id
}

// =============================================================================
// Tick loop
// =============================================================================

// Tick advances the relaxation by one frame and reports whether the system
// is still settling. In static mode, or before Initialize, Tick does nothing
// and reports false. Hosts drive Tick from their own frame timer; the engine
// never schedules one itself.
func (e *Engine) Tick() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.mode != ModeRelaxation || e.relax == nil {
		return false
	}
	settling := e.relax.Tick()
	observability.Engine().OnTick(context.Background(), settling)
	e.notify()
	return settling
}

// Subscribe registers a listener that receives a snapshot after every tick
// and structural change. The returned function cancels the registration.
// Listeners are invoked synchronously with the engine lock held: keep them
// short and never call back into the engine from one.
func (e *Engine) Subscribe(l Listener) (cancel func()) {
	e.mu.Lock()
	defer e.mu.Unlock()
	id := e.nextSub
	e.nextSub++
	e.listeners[id] = l
	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		delete(e.listeners, id)
	}
}

// notify pushes the current snapshot to every listener. Caller holds the
// lock.
func (e *Engine) notify() {
	if len(e.listeners) == 0 {
		return
	}
	snap := Snapshot{
		Positions: e.graph.Positions(),
		Settling:  e.mode == ModeRelaxation && e.relax != nil && e.relax.Settling(),
	}
	if e.focus != nil {
		snap.Focused = e.focus.id
	}
	for _, l := range e.listeners {
		l(snap)
	}
}

// =============================================================================
// Drag protocol
// =============================================================================

// BeginDrag pins a node to the pointer. While the drag is active the node
// ignores every force and follows [Engine.DragTo] exactly. Dragging the
// root, an unknown ID, or starting a second drag is a no-op.
func (e *Engine) BeginDrag(id string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.graph == nil || e.drag != nil {
		return
	}
	n, ok := e.graph.Node(id)
	if !ok || n.IsRoot() {
		return
	}
	e.drag = &dragState{id: id, origin: n.Pos}
	if e.relax != nil {
		e.relax.Pin(id, n.Pos)
	}
}

// DragTo moves the dragged node to track the pointer. IDs other than the
// active drag are ignored.
func (e *Engine) DragTo(id string, x, y float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.drag == nil || e.drag.id != id {
		return
	}
	p := view.Point{X: x, Y: y}
	if e.relax != nil {
		e.relax.MovePinned(id, p)
		return
	}
	if n, ok := e.graph.Node(id); ok {
		n.Pos = p
	}
}

// EndDrag commits the drag: the node's position, and the current positions
// of all its descendants, are written into the override store so the dragged
// subtree never snaps back on the next rebuild. In relaxation mode the node
// rejoins the simulation with zero velocity; in static mode the layout is
// re-resolved around the newly fixed node.
func (e *Engine) EndDrag(id string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.drag == nil || e.drag.id != id {
		return
	}
	e.drag = nil
	for _, sid := range e.graph.Subtree(id) {
		if n, ok := e.graph.Node(sid); ok {
			e.over.Set(sid, n.Pos)
		}
	}
	if e.relax != nil {
		e.relax.Unpin(id)
	} else if e.mode == ModeStatic {
		e.resolveCurrent()
	}
	observability.Engine().OnCommand(context.Background(), "drag", id)
	e.notify()
}

// CancelDrag abandons the drag: the node returns to the position it held
// when the drag began and nothing is committed.
func (e *Engine) CancelDrag(id string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.drag == nil || e.drag.id != id {
		return
	}
	origin := e.drag.origin
	e.drag = nil
	if n, ok := e.graph.Node(id); ok {
		n.Pos = origin
	}
	if e.relax != nil {
		e.relax.MovePinned(id, origin)
		e.relax.Unpin(id)
	}
	e.notify()
}

// =============================================================================
// Commands
// =============================================================================

// ArrangeChildrenCircular places the node's children on an explicit ring —
// a half-circle fan for small sets, a gapped full circle for large ones —
// and recursively fans deeper levels outward. childIDs restricts the
// arrangement to those children's subtrees; nil arranges all of them. Every
// produced position is written into the override store.
func (e *Engine) ArrangeChildrenCircular(parentID string, childIDs []string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.graph == nil {
		return
	}
	positions := arrange.Children(e.graph, parentID, e.cfg)
	if positions == nil {
		return
	}
	if childIDs != nil {
		positions = e.filterToSubtrees(positions, childIDs)
	}
	e.graph.SetPositions(positions)
	for id, p := range positions {
		e.over.Set(id, p)
	}
	e.resolveCurrent()
	observability.Engine().OnCommand(context.Background(), "arrange", parentID)
	e.notify()
}

// filterToSubtrees keeps only the entries belonging to the given nodes'
// subtrees. Caller holds the lock.
func (e *Engine) filterToSubtrees(positions map[string]view.Point, roots []string) map[string]view.Point {
	keep := make(map[string]bool)
	for _, id := range roots {
		for _, sid := range e.graph.Subtree(id) {
			keep[sid] = true
		}
	}
	out := make(map[string]view.Point, len(keep))
	for id, p := range positions {
		if keep[id] {
			out[id] = p
		}
	}
	return out
}

// EnterFocus switches to the temporary focus layout isolating the node's
// branch: root far to one side, ancestors strung toward the focused node at
// the origin, children on a ring around it. Remaining nodes are pushed out
// of the way by a short synchronous relaxation burst during which the focal
// arrangement is held fixed at enlarged collision radii; the artificial
// fixing is released before EnterFocus returns. Focus positions are
// transient and never persisted.
func (e *Engine) EnterFocus(id string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.graph == nil {
		return
	}
	f, ok := arrange.NewFocus(e.graph, id, e.cfg)
	if !ok {
		return
	}
	for nid, p := range f.Positions {
		if n, ok := e.graph.Node(nid); ok {
			n.Pos = p
		}
	}

	// The displacement burst always uses the relaxation pass, regardless of
	// the session mode; it is the only strategy that can hold the focal
	// nodes fixed at artificial radii while unrelated nodes yield.
	r := resolve.NewRelaxer(e.graph, e.over, e.cfg, e.seed)
	r.Freeze(f.Pinned, e.cfg.FocusRadiusScale)
	r.Burst(e.cfg.FocusBurstTicks)
	r.Thaw()
	if e.mode == ModeRelaxation {
		e.relax = r
	}

	e.focus = &focusState{id: id, viewport: f.Viewport}
	observability.Engine().OnCommand(context.Background(), "focus", id)
	e.notify()
}

// ExitFocus leaves focus mode, restoring every node to its override entry if
// one exists, else its ideal position, and re-resolving under the session
// strategy.
func (e *Engine) ExitFocus() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.focus == nil {
		return
	}
	e.focus = nil
	layout.ApplyStartingPositions(e.graph, e.over, nil)
	e.resolveCurrent()
	observability.Engine().OnCommand(context.Background(), "unfocus", "")
	e.notify()
}

// ResetOverride clears the recorded position for one node; it returns to its
// freshly computed ideal on the next pass. Unknown IDs are a no-op.
func (e *Engine) ResetOverride(id string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.over.Delete(id)
	if e.graph != nil {
		if n, ok := e.graph.Node(id); ok {
			n.Pos = n.Ideal
		}
		e.resolveCurrent()
		e.notify()
	}
	observability.Engine().OnCommand(context.Background(), "reset", id)
}

// ResetAllOverrides clears every recorded position: the full "reset all
// positions" action. Every node returns to its ideal.
func (e *Engine) ResetAllOverrides() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.over.Clear()
	if e.graph != nil {
		layout.ApplyStartingPositions(e.graph, e.over, nil)
		e.resolveCurrent()
		e.notify()
	}
	observability.Engine().OnCommand(context.Background(), "reset-all", "")
}

// Wobble injects a small random velocity impulse into every non-root node so
// the layout visually re-settles without changing any target. It only has an
// effect in relaxation mode; static mode has no velocities to perturb.
func (e *Engine) Wobble() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.relax == nil {
		return
	}
	e.relax.Wobble()
	observability.Engine().OnCommand(context.Background(), "wobble", "")
}

func idSet(ids []string) map[string]bool {
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}
