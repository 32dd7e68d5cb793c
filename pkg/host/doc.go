// Package host defines the contract fibertree needs from a host platform
// and ships an in-memory reference implementation.
//
// The engine never creates or mutates real nodes itself. It asks an Adapter
// to materialise nodes, set and remove attributes, attach and detach event
// listeners, and insert or remove children. Node handles are opaque to the
// engine.
//
// # Memory
//
// Memory keeps a plain tree of *MemNode values, records every operation it
// is asked to perform, and can be told to fail selected operations. It backs
// the tests, the demo command, and the live preview server's mirror.
//
//	m := host.NewMemory()
//	engine := fiber.NewEngine(m, slicer)
//	engine.Render(vdom.Div(vdom.Text("hi")), m.Root())
//	fmt.Println(m.HTML())
package host
