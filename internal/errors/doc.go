// Package errors provides structured, coded errors for fibertree.
//
// Every failure the engine surfaces carries a code (e.g., "E100") that maps
// to a registered template with a category, a short message, and a longer
// explanation. Errors wrap their cause so errors.Is and errors.As keep
// working across package boundaries.
//
// # Error Categories
//
// Errors are organized into categories:
//   - tree: malformed virtual trees (nil render results, unknown kinds, panics)
//   - scheduler: render cycles that were abandoned or could not start
//   - host: host adapter failures while materialising or committing
//   - hooks: hook-order violations in function components
//   - config: fibertree.json problems
//   - server: live preview transport failures
//   - snapshot: snapshot export failures
//   - cli: command line usage errors
//
// # Usage
//
//	err := errors.New("E100").
//	    WithPath("root", "main", "demo.Counter").
//	    WithSuggestion("Return a single *vdom.VNode from every render function")
//
//	fmt.Println(err.FormatCompact())
//	// Output:
//	// root > main > demo.Counter: E100: Render function returned no node
//
// Errors raised while the scheduler performs a unit get their Path filled in
// automatically. Format renders the full terminal report, including the
// source excerpt when a Location is set.
package errors
