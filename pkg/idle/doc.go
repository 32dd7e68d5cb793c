// Package idle provides the time slices fibertree's scheduler works in.
//
// A Slicer accepts a callback and invokes it later with a Deadline that
// reports how much of the current slice is left. The scheduler performs
// work units while the deadline allows and asks for another slice when it
// runs out.
//
// Two providers are included:
//
//   - Manual queues callbacks until a test grants slices explicitly, which
//     makes interruption points deterministic.
//   - Loop owns a goroutine that grants fixed-length slices and serialises
//     work dispatched from other goroutines with Do.
package idle
