// Package demo holds the components served by the fibertree CLI.
package demo

import (
	"sort"
	"strings"

	"github.com/vango-dev/fibertree/internal/errors"
	"github.com/vango-dev/fibertree/pkg/vdom"
)

// Demo is a named root component.
type Demo struct {
	Name        string
	Description string
	Root        vdom.Component
}

// Tree returns the root node for the demo.
func (d Demo) Tree() *vdom.VNode {
	return vdom.Comp(d.Root, nil)
}

var demos = map[string]Demo{
	"counter": {
		Name:        "counter",
		Description: "A counter with a configurable step",
		Root:        Counter,
	},
	"todo": {
		Name:        "todo",
		Description: "A todo list with filters",
		Root:        TodoList,
	},
}

// Names returns the available demo names in order.
func Names() []string {
	names := make([]string, 0, len(demos))
	for name := range demos {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Lookup finds a demo by name.
func Lookup(name string) (Demo, error) {
	d, ok := demos[name]
	if !ok {
		return Demo{}, errors.New("E160").
			WithDetailf("No demo named %q", name).
			WithSuggestion("Available demos: " + strings.Join(Names(), ", "))
	}
	return d, nil
}
