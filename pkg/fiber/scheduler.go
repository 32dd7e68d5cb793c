package fiber

import (
	stderrors "errors"
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/vango-dev/fibertree/internal/errors"
	"github.com/vango-dev/fibertree/pkg/host"
	"github.com/vango-dev/fibertree/pkg/idle"
	"github.com/vango-dev/fibertree/pkg/vdom"
)

// maxRenderRestarts bounds how often setters called during a render may
// re-run a component or restart a cycle before it fails.
const maxRenderRestarts = 25

// State is the scheduler's phase.
type State uint8

const (
	StateIdle State = iota
	StateRunning
	StateCommitting
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateCommitting:
		return "committing"
	default:
		return "unknown"
	}
}

// Scheduler renders into one container. It owns the committed tree, the
// work-in-progress tree and the pointer to the next unit of work.
type Scheduler struct {
	adapter   host.Adapter
	container host.Node
	slicer    idle.Slicer
	opts      options
	logger    *slog.Logger

	state     State
	current   *tree
	wip       *tree
	next      UnitID
	deletions []UnitID // units of wip.prev
	errs      []error
	cycle     *Cycle
	lastDone  *Cycle
	seq       uint64

	requested bool         // a slice request is outstanding
	rendering bool         // a component render function is running
	active    *hookContext // hooks of the rendering component
	dirty     bool // a setter fired while rendering or committing
	restarts  int
}

// NewScheduler creates a scheduler rendering into container through
// adapter. Work runs in slices granted by slicer; with a nil slicer no
// work happens until Flush is called.
func NewScheduler(adapter host.Adapter, container host.Node, slicer idle.Slicer, opts ...Option) *Scheduler {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Scheduler{
		adapter:   adapter,
		container: container,
		slicer:    slicer,
		opts:      o,
		logger:    o.logger,
		next:      noUnit,
	}
}

// State returns the current phase.
func (s *Scheduler) State() State {
	return s.state
}

// Container returns the host node this scheduler renders into.
func (s *Scheduler) Container() host.Node {
	return s.container
}

// Cycle returns the cycle in progress, or nil when idle.
func (s *Scheduler) Cycle() *Cycle {
	return s.cycle
}

// Committed returns the virtual tree of the last successful commit.
func (s *Scheduler) Committed() *vdom.VNode {
	return s.current.virtualRoot()
}

// Render starts a cycle that brings the container in line with tree. A
// nil tree empties the container. Any cycle still in its render phase is
// abandoned.
func (s *Scheduler) Render(tree *vdom.VNode) *Cycle {
	if s.rendering || s.state == StateCommitting {
		s.seq++
		err := errors.New("E113").WithDetailf("Render called while %s", s.busyReason())
		s.logger.Error("render rejected", "error", err)
		return failedCycle(s.seq, TriggerRender, s.opts.now(), err)
	}
	var children []*vdom.VNode
	if tree != nil {
		children = []*vdom.VNode{tree}
	}
	s.restarts = 0
	return s.start(TriggerRender, children)
}

func (s *Scheduler) busyReason() string {
	if s.rendering {
		return "a component was rendering"
	}
	return "committing"
}

// Flush performs pending work with an unbounded budget until the scheduler
// is idle, and returns the error of the last cycle it completed.
func (s *Scheduler) Flush() error {
	if s.rendering || s.state == StateCommitting {
		return errors.New("E113").WithDetailf("Flush called while %s", s.busyReason())
	}
	s.lastDone = nil
	for s.state == StateRunning {
		s.workLoop(idle.Unbounded)
	}
	if s.lastDone == nil {
		return nil
	}
	return s.lastDone.Err()
}

// start begins a cycle whose root has the given virtual children and the
// committed root as its alternate.
func (s *Scheduler) start(trigger Trigger, children []*vdom.VNode) *Cycle {
	if s.state == StateRunning {
		s.abandon()
	}

	s.seq++
	c := newCycle(s.seq, trigger, s.opts.now())
	s.cycle = c
	s.wip = newTree(s.current, s.container, children)
	s.next = rootID
	s.deletions = nil
	s.errs = nil
	s.state = StateRunning

	s.logger.Debug("cycle started", "cycle", c.id, "trigger", trigger)
	for _, obs := range s.opts.observers {
		obs.CycleStarted(c)
	}
	s.requestSlice()
	return c
}

// abandon drops the work-in-progress tree. Nothing it created was attached
// to the host.
func (s *Scheduler) abandon() {
	c := s.cycle
	s.reset()
	s.logger.Warn("cycle abandoned", "cycle", c.id, "units", c.stats.Units)
	s.completeCycle(c, errors.New("E110").WithDetailf("cycle %d replaced after %d units", c.id, c.stats.Units))
}

func (s *Scheduler) reset() {
	s.wip = nil
	s.next = noUnit
	s.deletions = nil
	s.errs = nil
	s.state = StateIdle
}

func (s *Scheduler) requestSlice() {
	if s.requested || s.slicer == nil {
		return
	}
	s.requested = true
	s.slicer.RequestSlice(s.onSlice)
}

func (s *Scheduler) onSlice(d idle.Deadline) {
	s.requested = false
	s.workLoop(d)
}

// workLoop performs units while the deadline allows, then either commits
// or asks for another slice.
func (s *Scheduler) workLoop(d idle.Deadline) {
	if s.state != StateRunning {
		return
	}
	c := s.cycle
	c.stats.Slices++
	performed := 0

	for s.state == StateRunning && s.next != noUnit && d.TimeRemaining() > s.opts.minRemaining {
		id := s.next
		s.perform(id)
		performed++

		if s.dirty {
			s.dirty = false
			s.sliceFinished(c, performed)
			s.restartFromRender()
			c, performed = s.cycle, 0
			if c == nil {
				return
			}
			c.stats.Slices++
			continue
		}
		s.next = s.wip.next(id)
	}

	s.sliceFinished(c, performed)
	if s.state != StateRunning || s.cycle != c {
		return
	}
	if s.next == noUnit {
		s.finish()
		return
	}
	s.requestSlice()
}

func (s *Scheduler) sliceFinished(c *Cycle, units int) {
	for _, obs := range s.opts.observers {
		obs.SliceFinished(c, units)
	}
}

// restartFromRender handles a setter for another component's cell that
// fired while a component was rendering.
func (s *Scheduler) restartFromRender() {
	s.restarts++
	if s.restarts > maxRenderRestarts {
		c := s.cycle
		s.reset()
		s.completeCycle(c, errors.New("E124").WithDetailf("%d restarts in a row", s.restarts-1))
		s.restarts = 0
		return
	}
	s.scheduleUpdate()
}

// perform processes one unit: the root and host units materialise their
// node and reconcile their children, component units render first.
func (s *Scheduler) perform(id UnitID) {
	u := s.wip.units[id]
	var err error
	switch {
	case id == rootID:
		err = s.reconcileChildren(id, u.children)
	case u.isComponent():
		err = s.updateComponent(id)
	default:
		err = s.updateHost(id)
	}
	s.cycle.stats.Units++
	if err != nil {
		var fe *errors.Error
		if stderrors.As(err, &fe) && fe.Path == nil {
			fe.WithPath(s.path(id)...)
		}
		s.logger.Debug("unit failed", "cycle", s.cycle.id, "unit", describe(u), "error", err)
		s.errs = append(s.errs, err)
	}
}

func (s *Scheduler) updateHost(id UnitID) error {
	u := s.wip.units[id]
	if u.host == nil {
		kind := u.vnode.HostKind()
		n, err := s.adapter.CreateNode(kind, u.props.Plain())
		if err != nil {
			return errors.New("E112").WithDetail(kind).Wrap(err)
		}
		for _, key := range u.props.Handlers().Keys() {
			if err := s.adapter.AddListener(n, vdom.EventName(key), u.props[key]); err != nil {
				return errors.New("E112").WithDetailf("%s listener %s", kind, key).Wrap(err)
			}
		}
		u.host = n
	}

	var children []*vdom.VNode
	if u.vnode.Kind == vdom.KindElement {
		children = u.vnode.Children
	}
	return s.reconcileChildren(id, children)
}

func (s *Scheduler) updateComponent(id UnitID) error {
	u := s.wip.units[id]
	hc := &hookContext{s: s, name: u.typ.String(), rendering: true}
	if alt := s.wip.alt(u); alt != nil {
		hc.prev = alt.hooks
		hc.hasAlt = true
	}

	var out *vdom.VNode
	for attempt := 0; ; attempt++ {
		var err error
		out, err = s.render(u, hc)
		hookErr := hc.finish()
		u.hooks = hc.cells
		if err != nil {
			return err
		}
		if hookErr != nil {
			return hookErr
		}
		if !hc.rerender {
			break
		}
		// The component set its own state while rendering: render it
		// again right away with the cells it just produced.
		if attempt == maxRenderRestarts {
			return errors.New("E124").WithDetailf("%s: %d renders in a row", hc.name, attempt+1)
		}
		hc = &hookContext{s: s, name: hc.name, prev: hc.cells, hasAlt: true, rendering: true}
	}

	if out == nil {
		e := errors.New("E100").WithDetail(hc.name)
		if file, line, ok := u.vnode.SourceLocation(); ok {
			e.WithLocation(file, line, 0)
		}
		return e
	}
	return s.reconcileChildren(id, []*vdom.VNode{out})
}

// render calls the component's render function, turning a panic into an
// error for the cycle.
func (s *Scheduler) render(u *unit, hc *hookContext) (out *vdom.VNode, err error) {
	s.rendering = true
	s.active = hc
	defer func() {
		s.rendering = false
		s.active = nil
		if r := recover(); r != nil {
			if e, ok := r.(*errors.Error); ok {
				err = e
				return
			}
			s.logger.Debug("render panic", "component", hc.name, "panic", r, "stack", string(debug.Stack()))
			err = errors.New("E102").WithDetail(fmt.Sprintf("%s: %v", hc.name, r))
		}
	}()
	return u.vnode.Comp(hc, u.props), nil
}

// setter returns the function that writes c and schedules a re-render.
func (s *Scheduler) setter(c *cell) func(any) {
	return func(v any) {
		if update, ok := v.(cellUpdate); ok {
			v = update(c.state)
		}
		c.state = v
		if hc := s.active; hc != nil && hc.owns(c) {
			hc.rerender = true
			return
		}
		s.scheduleUpdate()
	}
}

// scheduleUpdate starts a cycle from the committed tree. Work in progress
// is abandoned. While a render or commit is running the update is
// deferred until it returns.
func (s *Scheduler) scheduleUpdate() {
	if s.rendering || s.state == StateCommitting {
		s.dirty = true
		return
	}
	var children []*vdom.VNode
	switch {
	case s.current != nil:
		children = s.current.units[rootID].children
	case s.wip != nil:
		// Nothing committed yet: restart the first render.
		children = s.wip.units[rootID].children
	default:
		return
	}
	s.start(TriggerSetState, children)
}

// finish ends the render phase: a cycle with failed units is dropped,
// otherwise it is committed and promoted.
func (s *Scheduler) finish() {
	c := s.cycle
	if len(s.errs) > 0 {
		err := stderrors.Join(s.errs...)
		s.reset()
		s.logger.Error("render cycle failed", "cycle", c.id, "error", err)
		s.completeCycle(c, err)
		s.afterCycle()
		return
	}

	s.state = StateCommitting
	if err := s.commit(c); err != nil {
		s.reset()
		s.logger.Error("commit failed", "cycle", c.id, "error", err)
		s.completeCycle(c, err)
		s.afterCycle()
		return
	}

	s.current = s.wip
	s.current.prev = nil
	s.reset()
	s.restarts = 0
	s.logger.Debug("cycle committed",
		"cycle", c.id,
		"units", c.stats.Units,
		"slices", c.stats.Slices,
		"placed", c.stats.Placed,
		"updated", c.stats.Updated,
		"deleted", c.stats.Deleted)
	s.completeCycle(c, nil)
	s.afterCycle()
}

func (s *Scheduler) afterCycle() {
	if s.dirty {
		s.dirty = false
		s.scheduleUpdate()
	}
}

func (s *Scheduler) completeCycle(c *Cycle, err error) {
	if c == nil || c.Completed() {
		return
	}
	if s.cycle == c {
		s.cycle = nil
	}
	s.lastDone = c
	c.complete(err, s.opts.now())
	for _, obs := range s.opts.observers {
		obs.CycleFinished(c)
	}
	if err != nil && !errors.HasCode(err, "E110") && s.opts.onError != nil {
		s.opts.onError(err)
	}
}
