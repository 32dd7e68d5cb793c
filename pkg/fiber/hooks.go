package fiber

import (
	"reflect"

	"github.com/vango-dev/fibertree/internal/errors"
	"github.com/vango-dev/fibertree/pkg/vdom"
)

// cell is one positional hook slot. Every render gets fresh cells seeded
// from the alternate's, so writes made while rendering never reach the
// committed tree.
type cell struct {
	kind  string
	state any
}

// cellUpdate is a setter argument computed from the cell's latest state.
type cellUpdate func(any) any

// hookContext is the vdom.Hooks a component renders with.
type hookContext struct {
	s         *Scheduler
	name      string
	prev      []*cell
	hasAlt    bool
	cells     []*cell
	rendering bool
	rerender  bool // a setter for one of cells fired during the render
	err       error
}

var _ vdom.Hooks = (*hookContext)(nil)

// Cell implements vdom.Hooks. Order violations are recorded and fail the
// cycle once the render returns; the render itself continues with a fresh
// cell. Requesting a cell after the render returned panics.
func (hc *hookContext) Cell(kind string, initial any) (any, func(any)) {
	index := len(hc.cells)
	if !hc.rendering {
		panic(errors.New("E123").WithDetailf("%s requested cell %d (%s)", hc.name, index, kind))
	}

	var c *cell
	switch {
	case index < len(hc.prev):
		prev := hc.prev[index]
		if prev.kind != kind {
			hc.fail(errors.New("E120").WithDetailf("%s: cell %d was %s, now %s", hc.name, index, prev.kind, kind))
			c = &cell{kind: kind, state: initial}
			break
		}
		c = &cell{kind: kind, state: prev.state}
	case hc.hasAlt:
		hc.fail(errors.New("E121").WithDetailf("%s: cell %d requested, previous render used %d", hc.name, index, len(hc.prev)))
		c = &cell{kind: kind, state: initial}
	default:
		c = &cell{kind: kind, state: initial}
	}

	hc.cells = append(hc.cells, c)
	return c.state, hc.s.setter(c)
}

func (hc *hookContext) owns(c *cell) bool {
	for _, own := range hc.cells {
		if own == c {
			return true
		}
	}
	return false
}

func (hc *hookContext) fail(err *errors.Error) {
	if hc.err == nil {
		hc.err = err.WithSuggestion("Request hooks unconditionally and in the same order on every render.")
	}
}

// finish checks the cell count once the render function has returned.
func (hc *hookContext) finish() error {
	hc.rendering = false
	if hc.err != nil {
		return hc.err
	}
	if hc.hasAlt && len(hc.cells) < len(hc.prev) {
		return errors.New("E122").
			WithDetailf("%s: %d cells requested, previous render used %d", hc.name, len(hc.cells), len(hc.prev)).
			WithSuggestion("Request hooks unconditionally and in the same order on every render.")
	}
	return nil
}

func typeName[T any]() string {
	return reflect.TypeOf((*T)(nil)).Elem().String()
}

// UseState returns the current value of a state cell and a setter for it.
// On the first render the cell holds initial. Calling the setter stores
// the value and re-renders from the committed tree.
func UseState[T any](h vdom.Hooks, initial T) (T, func(T)) {
	v, set := h.Cell("state:"+typeName[T](), initial)
	value, _ := v.(T)
	return value, func(next T) { set(next) }
}

// Ref is a mutable box that survives re-renders. Writing Current does not
// trigger a render.
type Ref[T any] struct {
	Current T
}

// UseRef returns the component's Ref for this position.
func UseRef[T any](h vdom.Hooks, initial T) *Ref[T] {
	v, _ := h.Cell("ref:"+typeName[T](), &Ref[T]{Current: initial})
	ref, _ := v.(*Ref[T])
	return ref
}

// UseReducer keeps state that changes through a reducer. dispatch applies
// the reducer to the latest state, not the value seen by this render, so
// several dispatches before the next commit compose.
func UseReducer[S, A any](h vdom.Hooks, reducer func(S, A) S, initial S) (S, func(A)) {
	v, set := h.Cell("reducer:"+typeName[S](), initial)
	state, _ := v.(S)
	return state, func(action A) {
		set(cellUpdate(func(cur any) any {
			s, _ := cur.(S)
			return reducer(s, action)
		}))
	}
}
