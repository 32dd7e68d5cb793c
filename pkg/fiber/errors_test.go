package fiber

import (
	stderrors "errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/vango-dev/fibertree/internal/errors"
	"github.com/vango-dev/fibertree/pkg/host"
	"github.com/vango-dev/fibertree/pkg/vdom"
)

func TestRenderErrorsAbortBeforeCommit(t *testing.T) {
	nothing := func(h vdom.Hooks, props vdom.Props) *vdom.VNode { return nil }
	boom := func(h vdom.Hooks, props vdom.Props) *vdom.VNode { panic("boom") }

	tests := []struct {
		name      string
		tree      *vdom.VNode
		code      string
		wantUnits int
	}{
		// root, div, component, p, text: traversal continues past the failure.
		{"no node", vdom.Div(vdom.Comp(nothing, nil), vdom.P("ok")), "E100", 5},
		{"panic", vdom.Div(vdom.Comp(boom, nil), vdom.P("ok")), "E102", 5},
		{"nil child", &vdom.VNode{Kind: vdom.KindElement, Tag: "div", Children: []*vdom.VNode{nil}}, "E101", 2},
		{"unknown kind", vdom.Div(&vdom.VNode{Kind: vdom.VKind(9)}), "E101", 2},
		{"component without function", vdom.Div(&vdom.VNode{Kind: vdom.KindComponent}), "E101", 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var reported error
			s, m, _ := newTestScheduler(t, WithOnError(func(err error) { reported = err }))
			c := s.Render(tt.tree)
			err := s.Flush()

			if !errors.HasCode(err, tt.code) {
				t.Fatalf("Flush() = %v, want %s", err, tt.code)
			}
			if !errors.HasCode(reported, tt.code) {
				t.Errorf("OnError saw %v, want %s", reported, tt.code)
			}
			if got := c.Stats().Units; got != tt.wantUnits {
				t.Errorf("Units = %d, want %d", got, tt.wantUnits)
			}
			if len(m.Root().Children) != 0 {
				t.Error("nothing may be attached after a failed render")
			}
			for _, op := range m.Ops() {
				if op.Kind == host.OpInsert {
					t.Errorf("unexpected %s", op)
				}
			}
			if s.Committed() != nil {
				t.Error("Committed() should stay nil")
			}
		})
	}
}

func TestPanicDetailNamesComponent(t *testing.T) {
	s, _, _ := newTestScheduler(t)
	s.Render(vdom.Comp(panicky, nil))
	err := s.Flush()

	var fe *errors.Error
	if !stderrors.As(err, &fe) || fe.Code != "E102" {
		t.Fatalf("Flush() = %v, want E102", err)
	}
	if !strings.Contains(fe.Detail, "panicky") || !strings.Contains(fe.Detail, "kaboom") {
		t.Errorf("Detail = %q, want component name and panic value", fe.Detail)
	}
}

func TestUnitErrorsCarryTreePath(t *testing.T) {
	s, _, _ := newTestScheduler(t)
	s.Render(vdom.Section(vdom.Div(vdom.Comp(panicky, nil))))
	err := s.Flush()

	var fe *errors.Error
	if !stderrors.As(err, &fe) {
		t.Fatalf("Flush() = %v, want a structured error", err)
	}
	want := []string{"root", "section", "div", "fiber.panicky"}
	if diff := cmp.Diff(want, fe.Path); diff != "" {
		t.Errorf("Path mismatch (-want +got):\n%s", diff)
	}
	if !strings.Contains(fe.FormatCompact(), "root > section > div > fiber.panicky") {
		t.Errorf("FormatCompact() = %q", fe.FormatCompact())
	}
}

func panicky(h vdom.Hooks, props vdom.Props) *vdom.VNode {
	panic("kaboom")
}

func TestFailedRenderKeepsCommittedTree(t *testing.T) {
	s, m, _ := newTestScheduler(t)
	s.Render(vdom.P("v1"))
	mustFlush(t, s)
	before := m.HTML()

	nothing := func(h vdom.Hooks, props vdom.Props) *vdom.VNode { return nil }
	s.Render(vdom.Div(vdom.Comp(nothing, nil)))
	if err := s.Flush(); err == nil {
		t.Fatal("expected error")
	}
	if m.HTML() != before {
		t.Errorf("HTML() = %s, want %s", m.HTML(), before)
	}
	if s.Committed().Tag != "p" {
		t.Error("committed tree should still be the previous one")
	}

	s.Render(vdom.P("v2"))
	mustFlush(t, s)
	if got := m.Root().TextContent(); got != "v2" {
		t.Errorf("TextContent() = %q, want v2", got)
	}
}

func TestCommitFailureIsTerminal(t *testing.T) {
	s, m, _ := newTestScheduler(t)
	s.Render(vdom.Ul(vdom.Li("a")))
	mustFlush(t, s)

	detached := stderrors.New("detached parent")
	m.FailOn(func(op host.Op) error {
		if op.Kind == host.OpInsert {
			return detached
		}
		return nil
	})

	c := s.Render(vdom.Ul(vdom.Li("a"), vdom.Li("b")))
	err := s.Flush()
	if !errors.HasCode(err, "E111") || !stderrors.Is(err, detached) {
		t.Fatalf("Flush() = %v, want E111 wrapping the adapter error", err)
	}
	if c.Err() != err {
		t.Error("cycle should carry the commit error")
	}
	if s.Committed() == nil || len(s.Committed().Children) != 1 {
		t.Error("the previous tree should remain committed")
	}

	m.FailOn(nil)
	s.Render(vdom.Ul(vdom.Li("a"), vdom.Li("b")))
	mustFlush(t, s)
	if got := m.Root().TextContent(); got != "ab" {
		t.Errorf("TextContent() = %q, want ab", got)
	}
}

func TestCreateFailure(t *testing.T) {
	s, m, _ := newTestScheduler(t)
	m.FailOn(func(op host.Op) error {
		if op.Kind == host.OpCreate && op.Name == "span" {
			return stderrors.New("no spans")
		}
		return nil
	})
	s.Render(vdom.Div(vdom.Span("x"), vdom.P("y")))
	if err := s.Flush(); !errors.HasCode(err, "E112") {
		t.Fatalf("Flush() = %v, want E112", err)
	}
	if len(m.Root().Children) != 0 {
		t.Error("nothing may be attached")
	}
}

func TestFlushFailure(t *testing.T) {
	s, m, _ := newTestScheduler(t)
	m.FailOn(func(op host.Op) error {
		if op.Kind == host.OpFlush {
			return stderrors.New("flush failed")
		}
		return nil
	})
	s.Render(vdom.P("x"))
	if err := s.Flush(); !errors.HasCode(err, "E111") {
		t.Fatalf("Flush() = %v, want E111", err)
	}
}

func TestReentrantRenderIsRejected(t *testing.T) {
	s, _, _ := newTestScheduler(t)
	var inner *Cycle
	var flushErr error
	comp := func(h vdom.Hooks, props vdom.Props) *vdom.VNode {
		inner = s.Render(vdom.P("nested"))
		flushErr = s.Flush()
		return vdom.P("outer")
	}
	outer := s.Render(vdom.Comp(comp, nil))
	mustFlush(t, s)

	if !errors.HasCode(inner.Err(), "E113") {
		t.Errorf("nested Render err = %v, want E113", inner.Err())
	}
	if !errors.HasCode(flushErr, "E113") {
		t.Errorf("nested Flush err = %v, want E113", flushErr)
	}
	if outer.Err() != nil {
		t.Errorf("outer cycle err = %v", outer.Err())
	}
}

func TestAbandonedCycleNotReported(t *testing.T) {
	var reported []error
	s, _, slicer := newTestScheduler(t, WithOnError(func(err error) { reported = append(reported, err) }))
	s.Render(vdom.P("a"))
	s.Render(vdom.P("b"))
	slicer.Drain()
	if len(reported) != 0 {
		t.Errorf("OnError saw %v; abandonment is not a failure", reported)
	}
}
