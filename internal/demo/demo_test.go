package demo

import (
	stderrors "errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/vango-dev/fibertree/internal/errors"
	"github.com/vango-dev/fibertree/pkg/fiber"
	"github.com/vango-dev/fibertree/pkg/host"
	"github.com/vango-dev/fibertree/pkg/idle"
	"github.com/vango-dev/fibertree/pkg/vdom"
)

type harness struct {
	t *testing.T
	m *host.Memory
	s *fiber.Scheduler
}

func mount(t *testing.T, tree *vdom.VNode) *harness {
	t.Helper()
	m := host.NewMemory()
	s := fiber.NewScheduler(m, m.Root(), idle.NewManual(),
		fiber.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	s.Render(tree)
	h := &harness{t: t, m: m, s: s}
	h.flush()
	return h
}

func (h *harness) flush() {
	h.t.Helper()
	if err := h.s.Flush(); err != nil {
		h.t.Fatalf("Flush() = %v", err)
	}
}

func (h *harness) node(attr, value string) *host.MemNode {
	h.t.Helper()
	n := h.m.Root().ByAttr(attr, value)
	if n == nil {
		h.t.Fatalf("no node with %s=%q in\n%s", attr, value, h.m.HTML())
	}
	return n
}

func (h *harness) fire(n *host.MemNode, event, value string) {
	h.t.Helper()
	if h.m.Dispatch(n, event, value) == 0 {
		h.t.Fatalf("no %s listener on #%d", event, n.ID)
	}
	h.flush()
}

func (h *harness) click(id string) {
	h.t.Helper()
	h.fire(h.node("id", id), "click", "")
}

func TestLookup(t *testing.T) {
	if diff := cmp.Diff([]string{"counter", "todo"}, Names()); diff != "" {
		t.Errorf("Names() (-want +got):\n%s", diff)
	}
	for _, name := range Names() {
		d, err := Lookup(name)
		if err != nil || d.Name != name || d.Root == nil || d.Tree() == nil {
			t.Errorf("Lookup(%q) = %+v, %v", name, d, err)
		}
	}

	_, err := Lookup("nope")
	if !errors.HasCode(err, "E160") {
		t.Fatalf("Lookup(nope) = %v, want E160", err)
	}
	var fe *errors.Error
	if !stderrors.As(err, &fe) || !strings.Contains(fe.Suggestion, "counter, todo") {
		t.Errorf("suggestion should list demos, got %v", err)
	}
}

func TestCounter(t *testing.T) {
	h := mount(t, vdom.Comp(Counter, vdom.Props{"start": 10}))
	heading := func() string { return h.m.Root().Find(func(n *host.MemNode) bool { return n.Kind == "h1" }).TextContent() }

	if got := heading(); got != "Count: 10" {
		t.Fatalf("heading = %q", got)
	}
	if h.node("id", "reset").Attrs["disabled"] != true {
		t.Error("reset should start disabled")
	}

	h.click("inc")
	h.click("inc")
	if got := heading(); got != "Count: 12" {
		t.Errorf("after two increments heading = %q", got)
	}
	if h.node("id", "reset").Attrs["disabled"] != false {
		t.Error("reset should be enabled once the count moved")
	}

	h.fire(h.node("id", "step"), "input", "5")
	h.click("dec")
	if got := heading(); got != "Count: 7" {
		t.Errorf("after step 5 decrement heading = %q", got)
	}

	h.fire(h.node("id", "step"), "input", "junk")
	if got := h.node("id", "step").Attrs["value"]; got != "5" {
		t.Errorf("invalid step input changed value to %v", got)
	}

	h.click("reset")
	if got := heading(); got != "Count: 10" {
		t.Errorf("after reset heading = %q", got)
	}
}

func (h *harness) addTodo(title string) {
	h.t.Helper()
	h.fire(h.node("id", "title"), "input", title)
	h.fire(h.node("id", "new"), "submit", "")
}

func (h *harness) titles() []string {
	var out []string
	for _, li := range h.node("id", "items").Children {
		out = append(out, li.Children[1].TextContent())
	}
	return out
}

func TestTodoList(t *testing.T) {
	h := mount(t, vdom.Comp(TodoList, nil))

	h.addTodo("milk")
	h.addTodo("  ")
	h.addTodo("eggs")
	h.addTodo("bread")
	if diff := cmp.Diff([]string{"milk", "eggs", "bread"}, h.titles()); diff != "" {
		t.Fatalf("titles (-want +got):\n%s", diff)
	}
	if got := h.node("id", "title").Attrs["value"]; got != "" {
		t.Errorf("input should be cleared after adding, value %v", got)
	}

	// toggle eggs
	eggs := h.node("data-id", "2")
	h.fire(eggs.Children[0], "change", "")
	if !strings.Contains(vdom.PropToString(h.node("data-id", "2").Attrs["class"]), "done") {
		t.Error("eggs should be marked done")
	}
	heading := h.m.Root().Find(func(n *host.MemNode) bool { return n.Kind == "h2" })
	if got := heading.TextContent(); got != "Todos (2 left)" {
		t.Errorf("heading = %q", got)
	}

	h.click("filter-active")
	if diff := cmp.Diff([]string{"milk", "bread"}, h.titles()); diff != "" {
		t.Errorf("active filter (-want +got):\n%s", diff)
	}
	h.click("filter-done")
	if diff := cmp.Diff([]string{"eggs"}, h.titles()); diff != "" {
		t.Errorf("done filter (-want +got):\n%s", diff)
	}
	h.click("filter-all")

	// remove milk from the front; later items shift up a position
	milk := h.node("data-id", "1")
	h.fire(milk.Children[2], "click", "")
	if diff := cmp.Diff([]string{"eggs", "bread"}, h.titles()); diff != "" {
		t.Errorf("after remove (-want +got):\n%s", diff)
	}

	h.click("clear")
	if diff := cmp.Diff([]string{"bread"}, h.titles()); diff != "" {
		t.Errorf("after clear (-want +got):\n%s", diff)
	}
	if h.m.Root().ByAttr("id", "clear") != nil {
		t.Error("clear button should disappear with no completed items")
	}
}

func TestReduceTodosDoesNotMutate(t *testing.T) {
	s := reduceTodos(todoState{NextID: 1}, todoAction{Kind: "add", Title: "a"})
	before := append([]todoItem(nil), s.Items...)

	reduceTodos(s, todoAction{Kind: "toggle", ID: 1})
	reduceTodos(s, todoAction{Kind: "remove", ID: 1})
	if diff := cmp.Diff(before, s.Items); diff != "" {
		t.Errorf("reducer mutated its input (-before +after):\n%s", diff)
	}
	if got := reduceTodos(s, todoAction{Kind: "bogus"}); got.NextID != s.NextID || len(got.Items) != 1 {
		t.Errorf("unknown action changed state: %+v", got)
	}
}
