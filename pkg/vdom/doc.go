// Package vdom provides the virtual tree description consumed by fibertree.
//
// A virtual tree is an immutable description of what should exist: element
// nodes with a tag, text nodes, and function components that render further
// nodes. The fiber package diffs successive virtual trees position by
// position and turns the differences into host mutations.
//
// # Core Types
//
// VNode is the building block representing elements, text and components.
// Props holds attributes and event handlers. Attr and EventHandler are used
// to build Props. Component is the signature of a render function.
//
// # Element API
//
// Elements are created using variadic factory functions:
//
//	Div(Class("card"), ID("main"),
//	    H1(Text("Title")),
//	    P(Text("Content")),
//	    OnClick(handler),
//	)
//
// # Components
//
// A Component receives the hook surface of its work unit and its props, and
// returns exactly one node:
//
//	func Counter(h vdom.Hooks, props vdom.Props) *vdom.VNode {
//	    count, setCount := fiber.UseState(h, 0)
//	    return Button(OnClick(func() { setCount(count + 1) }), Textf("%d", count))
//	}
//
//	root := Div(Comp(Counter, nil))
//
// # Event handlers
//
// A prop whose name starts with "on" (any case) and is longer than two bytes
// is an event handler. Its event name is the rest of the name, lower-cased:
// "onClick" and "onclick" both listen for "click".
package vdom
