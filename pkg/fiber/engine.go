package fiber

import (
	stderrors "errors"
	"reflect"

	"github.com/vango-dev/fibertree/internal/errors"
	"github.com/vango-dev/fibertree/pkg/host"
	"github.com/vango-dev/fibertree/pkg/idle"
	"github.com/vango-dev/fibertree/pkg/vdom"
)

// Engine renders into any number of containers through one adapter,
// keeping a Scheduler per container.
type Engine struct {
	adapter    host.Adapter
	slicer     idle.Slicer
	opts       []Option
	base       options
	schedulers map[host.Node]*Scheduler
	order      []*Scheduler
	rejected   uint64
}

// NewEngine creates an engine. Options apply to every scheduler it
// creates.
func NewEngine(adapter host.Adapter, slicer idle.Slicer, opts ...Option) *Engine {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Engine{
		adapter:    adapter,
		slicer:     slicer,
		opts:       opts,
		base:       o,
		schedulers: make(map[host.Node]*Scheduler),
	}
}

// Render schedules tree to be rendered into container. The first call for
// a container mounts the tree; later calls update it in place.
func (e *Engine) Render(tree *vdom.VNode, container host.Node) *Cycle {
	s, err := e.Scheduler(container)
	if err != nil {
		e.rejected++
		return failedCycle(e.rejected, TriggerRender, e.base.now(), err)
	}
	return s.Render(tree)
}

// Scheduler returns the scheduler for container, creating it on first use.
func (e *Engine) Scheduler(container host.Node) (*Scheduler, error) {
	if container == nil || !reflect.TypeOf(container).Comparable() {
		return nil, errors.New("E114").WithDetailf("%T", container)
	}
	if s, ok := e.schedulers[container]; ok {
		return s, nil
	}
	opts := append([]Option{}, e.opts...)
	opts = append(opts, WithLogger(e.base.logger.With("container", len(e.order))))
	s := NewScheduler(e.adapter, container, e.slicer, opts...)
	e.schedulers[container] = s
	e.order = append(e.order, s)
	return s, nil
}

// Containers returns how many containers have been rendered into.
func (e *Engine) Containers() int {
	return len(e.order)
}

// Flush runs every container's pending work to completion.
func (e *Engine) Flush() error {
	var errs []error
	for _, s := range e.order {
		if err := s.Flush(); err != nil {
			errs = append(errs, err)
		}
	}
	return stderrors.Join(errs...)
}
