package fiber

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/vango-dev/fibertree/internal/errors"
	"github.com/vango-dev/fibertree/pkg/vdom"
)

func TestHookPersistence(t *testing.T) {
	s, m, _ := newTestScheduler(t)

	var set func(int)
	var seen []int
	counter := func(h vdom.Hooks, props vdom.Props) *vdom.VNode {
		v, setV := UseState(h, 0)
		set = setV
		seen = append(seen, v)
		return vdom.Span(vdom.Textf("%d", v))
	}

	s.Render(vdom.Comp(counter, nil))
	mustFlush(t, s)
	set(5)
	if c := s.Cycle(); c == nil || c.Trigger() != TriggerSetState {
		t.Fatal("setter should start a setState cycle")
	}
	mustFlush(t, s)

	if diff := cmp.Diff([]int{0, 5}, seen); diff != "" {
		t.Errorf("values seen (-want +got):\n%s", diff)
	}
	if got := m.Root().TextContent(); got != "5" {
		t.Errorf("TextContent() = %q, want 5", got)
	}
}

func TestHooksAreIndependentPerPosition(t *testing.T) {
	s, m, _ := newTestScheduler(t)

	setters := map[string]func(int){}
	counter := func(h vdom.Hooks, props vdom.Props) *vdom.VNode {
		name := props["name"].(string)
		v, set := UseState(h, 0)
		setters[name] = set
		return vdom.Li(vdom.Textf("%s=%d", name, v))
	}
	app := func() *vdom.VNode {
		return vdom.Ul(
			vdom.Comp(counter, vdom.Props{"name": "a"}),
			vdom.Comp(counter, vdom.Props{"name": "b"}),
		)
	}

	s.Render(app())
	mustFlush(t, s)
	setters["b"](2)
	mustFlush(t, s)
	setters["a"](1)
	mustFlush(t, s)

	if got := m.Root().TextContent(); got != "a=1b=2" {
		t.Errorf("TextContent() = %q, want a=1b=2", got)
	}
}

func TestClickHandlerUpdatesState(t *testing.T) {
	s, m, _ := newTestScheduler(t)
	counter := func(h vdom.Hooks, props vdom.Props) *vdom.VNode {
		count, setCount := UseState(h, 0)
		return vdom.Button(
			vdom.OnClick(func() { setCount(count + 1) }),
			vdom.Textf("clicked %d", count),
		)
	}
	s.Render(vdom.Comp(counter, nil))
	mustFlush(t, s)

	button := m.Root().Children[0]
	for i := 0; i < 3; i++ {
		m.Dispatch(button, "click", "")
		mustFlush(t, s)
	}
	if got := m.Root().TextContent(); got != "clicked 3" {
		t.Errorf("TextContent() = %q, want clicked 3", got)
	}
	if n := len(button.Listeners["click"]); n != 1 {
		t.Errorf("click listeners = %d, want 1", n)
	}
}

func TestAbandonedStateUpdate(t *testing.T) {
	s, m, slicer := newTestScheduler(t)
	var set func(int)
	counter := func(h vdom.Hooks, props vdom.Props) *vdom.VNode {
		v, setV := UseState(h, 0)
		set = setV
		return vdom.Span(vdom.Textf("%d", v))
	}
	s.Render(vdom.Comp(counter, nil))
	slicer.Drain()
	m.ResetOps()

	set(1)
	first := s.Cycle()
	slicer.Step(2)
	if first.Completed() {
		t.Fatal("first update should still be rendering")
	}

	set(2)
	second := s.Cycle()
	if !errors.HasCode(first.Err(), "E110") {
		t.Errorf("first.Err() = %v, want E110", first.Err())
	}
	if ops := opStrings(m); len(ops) != 0 {
		t.Errorf("abandoned update touched the host: %v", ops)
	}
	slicer.Drain()

	if err := second.Err(); err != nil {
		t.Fatalf("second.Err() = %v", err)
	}
	want := []string{"setAttr #2 nodeValue=2", "flush"}
	if diff := cmp.Diff(want, opStrings(m)); diff != "" {
		t.Errorf("ops mismatch (-want +got):\n%s", diff)
	}
}

func TestSetterDuringRenderRerendersComponent(t *testing.T) {
	s, m, _ := newTestScheduler(t)
	renders := 0
	once := func(h vdom.Hooks, props vdom.Props) *vdom.VNode {
		renders++
		v, set := UseState(h, 0)
		if v == 0 {
			set(1)
		}
		return vdom.P(vdom.Textf("%d", v))
	}
	c := s.Render(vdom.Comp(once, nil))
	mustFlush(t, s)

	if c.Err() != nil {
		t.Errorf("cycle err = %v, want the component re-rendered in place", c.Err())
	}
	if got := m.Root().TextContent(); got != "1" {
		t.Errorf("TextContent() = %q, want 1", got)
	}
	if renders != 2 {
		t.Errorf("renders = %d, want 2", renders)
	}
}

func TestSetterEveryRenderFails(t *testing.T) {
	var reported []error
	s, m, _ := newTestScheduler(t, WithOnError(func(err error) { reported = append(reported, err) }))
	loop := func(h vdom.Hooks, props vdom.Props) *vdom.VNode {
		v, set := UseState(h, 0)
		set(v + 1)
		return vdom.P()
	}
	s.Render(vdom.Comp(loop, nil))

	if err := s.Flush(); !errors.HasCode(err, "E124") {
		t.Fatalf("Flush() = %v, want E124", err)
	}
	if len(reported) != 1 || !errors.HasCode(reported[0], "E124") {
		t.Errorf("OnError saw %v, want one E124", reported)
	}
	if len(m.Root().Children) != 0 || s.State() != StateIdle {
		t.Error("nothing should be committed")
	}
}

func TestUseReducerComposesDispatches(t *testing.T) {
	s, m, slicer := newTestScheduler(t)
	var dispatch func(int)
	sum := func(h vdom.Hooks, props vdom.Props) *vdom.VNode {
		total, d := UseReducer(h, func(state, delta int) int { return state + delta }, 0)
		dispatch = d
		return vdom.P(vdom.Textf("%d", total))
	}
	s.Render(vdom.Comp(sum, nil))
	slicer.Drain()

	dispatch(2)
	dispatch(3)
	slicer.Drain()

	if got := m.Root().TextContent(); got != "5" {
		t.Errorf("TextContent() = %q, want 5", got)
	}
}

func TestFailedCycleLeavesCommittedStateAlone(t *testing.T) {
	tests := []struct {
		name string
		use  func(h vdom.Hooks) (int, func())
	}{
		{"state", func(h vdom.Hooks) (int, func()) {
			v, set := UseState(h, 0)
			return v, func() { set(1) }
		}},
		{"reducer", func(h vdom.Hooks) (int, func()) {
			v, dispatch := UseReducer(h, func(state, delta int) int { return state + delta }, 0)
			return v, func() { dispatch(1) }
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, m, _ := newTestScheduler(t)
			broken := false
			var seen []int
			counter := func(h vdom.Hooks, props vdom.Props) *vdom.VNode {
				v, bump := tt.use(h)
				seen = append(seen, v)
				if broken && v == 0 {
					bump()
				}
				return vdom.P(vdom.Textf("%d", v))
			}
			sibling := func(h vdom.Hooks, props vdom.Props) *vdom.VNode {
				if broken {
					panic("sibling failed")
				}
				return vdom.Span("ok")
			}
			tree := func() *vdom.VNode {
				return vdom.Div(vdom.Comp(counter, nil), vdom.Comp(sibling, nil))
			}

			s.Render(tree())
			mustFlush(t, s)

			broken = true
			s.Render(tree())
			if err := s.Flush(); !errors.HasCode(err, "E102") {
				t.Fatalf("Flush() = %v, want E102", err)
			}

			broken = false
			s.Render(tree())
			mustFlush(t, s)

			// mount, failed render, its immediate re-render, clean render
			if diff := cmp.Diff([]int{0, 0, 1, 0}, seen); diff != "" {
				t.Errorf("values seen (-want +got):\n%s", diff)
			}
			if got := m.Root().TextContent(); got != "0ok" {
				t.Errorf("TextContent() = %q, want 0ok", got)
			}
		})
	}
}

func TestUseRefSurvivesWithoutRendering(t *testing.T) {
	s, _, _ := newTestScheduler(t)
	var ref *Ref[int]
	renders := 0
	comp := func(h vdom.Hooks, props vdom.Props) *vdom.VNode {
		renders++
		ref = UseRef(h, 10)
		ref.Current++
		return vdom.P()
	}
	s.Render(vdom.Comp(comp, nil))
	mustFlush(t, s)
	first := ref

	ref.Current = 100
	if s.State() != StateIdle {
		t.Error("writing a ref must not schedule a render")
	}
	s.Render(vdom.Comp(comp, nil))
	mustFlush(t, s)

	if ref != first || ref.Current != 101 {
		t.Errorf("ref = %p (%d), want the same ref holding 101", ref, ref.Current)
	}
	if renders != 2 {
		t.Errorf("renders = %d, want 2", renders)
	}
}

func TestHookOrderViolations(t *testing.T) {
	conditional := func(h vdom.Hooks, props vdom.Props) *vdom.VNode {
		UseState(h, 0)
		if props["extra"] == true {
			UseState(h, "extra")
		}
		return vdom.P()
	}
	mixed := func(h vdom.Hooks, props vdom.Props) *vdom.VNode {
		if props["text"] == true {
			UseState(h, "x")
		} else {
			UseState(h, 0)
		}
		return vdom.P()
	}

	tests := []struct {
		name        string
		first, next *vdom.VNode
		code        string
	}{
		{"kind mismatch", vdom.Comp(mixed, vdom.Props{"text": false}), vdom.Comp(mixed, vdom.Props{"text": true}), "E120"},
		{"extra hook", vdom.Comp(conditional, nil), vdom.Comp(conditional, vdom.Props{"extra": true}), "E121"},
		{"missing hook", vdom.Comp(conditional, vdom.Props{"extra": true}), vdom.Comp(conditional, nil), "E122"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, m, _ := newTestScheduler(t)
			s.Render(tt.first)
			mustFlush(t, s)
			before := m.Root().Snapshot()

			c := s.Render(tt.next)
			if err := s.Flush(); !errors.HasCode(err, tt.code) {
				t.Fatalf("Flush() = %v, want %s", err, tt.code)
			}
			if !errors.HasCode(c.Err(), tt.code) {
				t.Errorf("cycle err = %v, want %s", c.Err(), tt.code)
			}
			if diff := cmp.Diff(before, m.Root().Snapshot()); diff != "" {
				t.Errorf("failed cycle touched the host:\n%s", diff)
			}
		})
	}
}

func TestHookOutsideRenderPanics(t *testing.T) {
	s, _, _ := newTestScheduler(t)
	var saved vdom.Hooks
	comp := func(h vdom.Hooks, props vdom.Props) *vdom.VNode {
		saved = h
		return vdom.P()
	}
	s.Render(vdom.Comp(comp, nil))
	mustFlush(t, s)

	defer func() {
		r := recover()
		err, ok := r.(error)
		if !ok || !errors.HasCode(err, "E123") {
			t.Errorf("recovered %v, want E123", r)
		}
	}()
	UseState(saved, 0)
}
