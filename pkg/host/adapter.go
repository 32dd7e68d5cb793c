package host

import (
	"reflect"

	"github.com/vango-dev/fibertree/pkg/vdom"
)

// Node is an opaque host node handle.
type Node = any

// Adapter materialises and mutates host nodes on behalf of the engine.
//
// CreateNode receives the node kind (a tag, or vdom.TextTag for text) and
// its plain attributes; event handlers are attached separately through
// AddListener. Created nodes are detached until InsertNode is called.
type Adapter interface {
	CreateNode(kind string, props vdom.Props) (Node, error)
	SetAttribute(n Node, name string, value any) error
	RemoveAttribute(n Node, name string) error
	AddListener(n Node, event string, handler any) error
	RemoveListener(n Node, event string, handler any) error
	InsertNode(parent, child Node) error
	RemoveNode(parent, child Node) error
}

// Flusher is implemented by adapters that batch mutations. Flush is called
// once at the end of every successful commit pass.
type Flusher interface {
	Flush() error
}

// Inserter is implemented by adapters that can insert a child ahead of an
// existing sibling. Without it new nodes are appended to their parent, so a
// replaced node in the middle of a list moves to the end.
type Inserter interface {
	InsertBefore(parent, child, before Node) error
}

// Event is the payload delivered to listeners that accept one.
type Event struct {
	Type   string         // Event name, e.g. "click"
	Target Node           // Node the listener is attached to
	Value  string         // Current value for input-like events
	Data   map[string]any // Extra event data
}

// Invoke calls handler with ev. Supported handler shapes are func(),
// func(Event) and func(string). It reports whether the handler was called.
func Invoke(handler any, ev Event) bool {
	switch h := handler.(type) {
	case func():
		h()
	case func(Event):
		h(ev)
	case func(string):
		h(ev.Value)
	default:
		return false
	}
	return true
}

// SameHandler reports whether a and b denote the same listener. Functions
// are compared by code pointer.
func SameHandler(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	if va.Kind() == reflect.Func || vb.Kind() == reflect.Func {
		return va.Kind() == vb.Kind() && va.Type() == vb.Type() && va.Pointer() == vb.Pointer()
	}
	if !va.Type().Comparable() || !vb.Type().Comparable() {
		return false
	}
	return a == b
}
