package vdom

import (
	"fmt"
	"reflect"
	"runtime"
	"strings"
)

// VKind is the node type discriminator.
type VKind uint8

const (
	KindElement   VKind = iota // <div>, <button>, etc.
	KindText                   // Plain text node
	KindComponent              // Function component
)

// String returns the string representation of the VKind.
func (k VKind) String() string {
	switch k {
	case KindElement:
		return "Element"
	case KindText:
		return "Text"
	case KindComponent:
		return "Component"
	default:
		return "Unknown"
	}
}

const (
	// TextTag is the host kind used for text nodes.
	TextTag = "#text"

	// NodeValue is the single prop a text node carries.
	NodeValue = "nodeValue"
)

// VNode is the virtual tree node. It is never mutated once built.
type VNode struct {
	Kind     VKind     // Node type
	Tag      string    // Element tag name (e.g., "div")
	Props    Props     // Attributes and event handlers, never children
	Children []*VNode  // Child nodes, position significant
	Comp     Component // For KindComponent
}

// Props holds attributes and event handlers.
type Props map[string]any

// Attr represents a single attribute.
type Attr struct {
	Key   string
	Value any
}

// IsEmpty returns true if this is an empty/nil attribute.
func (a Attr) IsEmpty() bool {
	return a.Key == ""
}

// EventHandler represents an event handler.
type EventHandler struct {
	Event   string // "onclick", "oninput", etc.
	Handler any    // Function to call
}

// Hooks is the hook-cell surface a component sees while it renders.
//
// Cell returns the current value of the next positional cell and a setter
// for it. kind names the value's type and must be the same for a given
// position on every render.
type Hooks interface {
	Cell(kind string, initial any) (any, func(any))
}

// Component renders exactly one node from its props.
type Component func(h Hooks, props Props) *VNode

// Type is the comparable identity of a node's kind. Two nodes at the same
// position with equal Types are reconciled in place.
type Type struct {
	Kind VKind
	Tag  string
	fn   uintptr
}

// String returns a readable name for the type.
func (t Type) String() string {
	switch t.Kind {
	case KindElement:
		return t.Tag
	case KindText:
		return TextTag
	case KindComponent:
		if f := runtime.FuncForPC(t.fn); f != nil {
			return f.Name()
		}
		return "component"
	default:
		return "unknown"
	}
}

// Type returns the node's type identity. Components are identified by the
// code pointer of their render function.
func (v *VNode) Type() Type {
	switch v.Kind {
	case KindElement:
		return Type{Kind: KindElement, Tag: v.Tag}
	case KindText:
		return Type{Kind: KindText, Tag: TextTag}
	case KindComponent:
		var fn uintptr
		if v.Comp != nil {
			fn = reflect.ValueOf(v.Comp).Pointer()
		}
		return Type{Kind: KindComponent, fn: fn}
	default:
		return Type{Kind: v.Kind}
	}
}

// HostKind returns the kind passed to a host adapter when materialising the
// node: the tag for elements, TextTag for text, "" for components.
func (v *VNode) HostKind() string {
	switch v.Kind {
	case KindElement:
		return v.Tag
	case KindText:
		return TextTag
	default:
		return ""
	}
}

// Validate reports whether the node itself is well formed. Children are
// not inspected.
func (v *VNode) Validate() error {
	if v == nil {
		return fmt.Errorf("nil node")
	}
	switch v.Kind {
	case KindElement:
		if v.Tag == "" || strings.HasPrefix(v.Tag, "#") {
			return fmt.Errorf("element with invalid tag %q", v.Tag)
		}
	case KindText:
		if len(v.Children) > 0 {
			return fmt.Errorf("text node with %d children", len(v.Children))
		}
	case KindComponent:
		if v.Comp == nil {
			return fmt.Errorf("component node without render function")
		}
	default:
		return fmt.Errorf("unknown node kind %d", v.Kind)
	}
	return nil
}

// SourceLocation returns the file and line of a component's render function.
func (v *VNode) SourceLocation() (string, int, bool) {
	if v == nil || v.Kind != KindComponent || v.Comp == nil {
		return "", 0, false
	}
	f := runtime.FuncForPC(reflect.ValueOf(v.Comp).Pointer())
	if f == nil {
		return "", 0, false
	}
	file, line := f.FileLine(f.Entry())
	return file, line, true
}
