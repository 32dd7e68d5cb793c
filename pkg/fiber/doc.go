// Package fiber is fibertree's reconciliation engine.
//
// A render cycle turns a virtual tree (package vdom) into host mutations
// (package host) in two phases. The render phase walks the tree one work
// unit at a time, inside slices granted by an idle.Slicer, and can be
// interrupted between any two units. Each unit renders a function component
// or materialises a detached host node, then diffs its virtual children
// against the previously committed tree by position and tags the result
// with an effect. The commit phase applies every tagged effect in one
// uninterrupted pass.
//
// Two trees exist while a cycle is running: the committed tree, which
// mirrors what the host shows, and the work-in-progress tree being built.
// Each work unit links to the unit at the same position in the committed
// tree (its alternate), which is where retained host nodes, previous props
// and hook cells come from. Starting a new cycle simply drops the
// work-in-progress tree.
//
// # Hooks
//
// Function components receive a vdom.Hooks value. Cells are identified by
// the order they are requested in, so a component must request the same
// cells in the same order on every render:
//
//	func Counter(h vdom.Hooks, props vdom.Props) *vdom.VNode {
//	    count, setCount := fiber.UseState(h, 0)
//	    return vdom.Button(
//	        vdom.OnClick(func() { setCount(count + 1) }),
//	        vdom.Textf("clicked %d times", count),
//	    )
//	}
//
// Calling a setter stores the new value and starts a new cycle from the
// committed tree.
//
// # Concurrency
//
// A Scheduler and an Engine are not safe for concurrent use. Drive them
// from one goroutine, such as the one owned by an idle.Loop, and route
// events from other goroutines through Loop.Do.
package fiber
