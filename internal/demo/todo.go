package demo

import (
	"strconv"
	"strings"

	"github.com/vango-dev/fibertree/pkg/fiber"
	"github.com/vango-dev/fibertree/pkg/vdom"
)

type todoItem struct {
	ID    int
	Title string
	Done  bool
}

type todoState struct {
	Items  []todoItem
	NextID int
}

type todoAction struct {
	Kind  string // add, toggle, remove, clear
	ID    int
	Title string
}

// reduceTodos never mutates s; rendered props keep pointing at old slices.
func reduceTodos(s todoState, a todoAction) todoState {
	switch a.Kind {
	case "add":
		items := append(append([]todoItem(nil), s.Items...), todoItem{ID: s.NextID, Title: a.Title})
		return todoState{Items: items, NextID: s.NextID + 1}
	case "toggle":
		items := append([]todoItem(nil), s.Items...)
		for i := range items {
			if items[i].ID == a.ID {
				items[i].Done = !items[i].Done
			}
		}
		return todoState{Items: items, NextID: s.NextID}
	case "remove", "clear":
		var items []todoItem
		for _, it := range s.Items {
			if (a.Kind == "remove" && it.ID == a.ID) || (a.Kind == "clear" && it.Done) {
				continue
			}
			items = append(items, it)
		}
		return todoState{Items: items, NextID: s.NextID}
	}
	return s
}

var filters = []string{"all", "active", "done"}

func (it todoItem) visible(filter string) bool {
	switch filter {
	case "active":
		return !it.Done
	case "done":
		return it.Done
	}
	return true
}

// TodoList renders an editable list of todos.
func TodoList(h vdom.Hooks, props vdom.Props) *vdom.VNode {
	state, dispatch := fiber.UseReducer(h, reduceTodos, todoState{NextID: 1})
	draft, setDraft := fiber.UseState(h, "")
	filter, setFilter := fiber.UseState(h, "all")
	renders := fiber.UseRef(h, 0)
	renders.Current++

	var visible []todoItem
	left, done := 0, 0
	for _, it := range state.Items {
		if it.Done {
			done++
		} else {
			left++
		}
		if it.visible(filter) {
			visible = append(visible, it)
		}
	}

	add := func() {
		if title := strings.TrimSpace(draft); title != "" {
			dispatch(todoAction{Kind: "add", Title: title})
			setDraft("")
		}
	}

	return vdom.Section(vdom.Class("todo"),
		vdom.H2(vdom.Textf("Todos (%d left)", left)),
		vdom.Form(vdom.ID("new"), vdom.OnSubmit(add),
			vdom.Input(
				vdom.ID("title"),
				vdom.Placeholder("What needs doing?"),
				vdom.Value(draft),
				vdom.OnInput(func(v string) { setDraft(v) }),
			),
			vdom.Button(vdom.Type_("submit"), vdom.Disabled(strings.TrimSpace(draft) == ""), "Add"),
		),
		vdom.Ul(vdom.ID("items"), vdom.Range(visible, func(it todoItem, _ int) *vdom.VNode {
			return vdom.Comp(TodoItem, vdom.Props{"item": it, "dispatch": dispatch})
		})),
		vdom.Div(vdom.Class("filters"), vdom.Range(filters, func(f string, _ int) *vdom.VNode {
			cls := "filter"
			if f == filter {
				cls += " selected"
			}
			return vdom.Button(vdom.ID("filter-"+f), vdom.Class(cls), vdom.OnClick(func() { setFilter(f) }), f)
		})),
		vdom.If(done > 0, vdom.Button(vdom.ID("clear"),
			vdom.OnClick(func() { dispatch(todoAction{Kind: "clear"}) }),
			vdom.Textf("Clear %d completed", done),
		)),
		vdom.P(vdom.Class("renders"), vdom.Textf("rendered %d times", renders.Current)),
	)
}

// TodoItem renders one todo with its toggle and remove controls.
func TodoItem(h vdom.Hooks, props vdom.Props) *vdom.VNode {
	item, _ := props["item"].(todoItem)
	dispatch, _ := props["dispatch"].(func(todoAction))

	cls := "item"
	if item.Done {
		cls += " done"
	}
	return vdom.Li(vdom.Class(cls), vdom.Data("id", strconv.Itoa(item.ID)),
		vdom.Input(
			vdom.Type_("checkbox"),
			vdom.Checked(item.Done),
			vdom.OnChange(func() { dispatch(todoAction{Kind: "toggle", ID: item.ID}) }),
		),
		vdom.Span(item.Title),
		vdom.Button(vdom.Class("remove"),
			vdom.OnClick(func() { dispatch(todoAction{Kind: "remove", ID: item.ID}) }),
			"x",
		),
	)
}
