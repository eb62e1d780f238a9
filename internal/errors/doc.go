// Package errors provides structured, actionable error messages for Reflow.
//
// Every registered error carries a stable code (e.g. "R001") mapping to a
// short message, a longer explanation, and a documentation URL, so the same
// failure renders consistently in logs, terminal output, and wire frames.
//
// # Error Categories
//
//   - runtime: reactive graph and scheduler failures (circular updates,
//     watcher panics)
//   - hydration: server markup and client tree disagree
//   - protocol: session wire errors (bad frames, unknown events)
//   - config: malformed or missing configuration
//   - cli: command usage errors
//
// # Usage
//
//	err := errors.New("R001").
//	    WithDetail("watcher \"todo-list\" re-queued itself 100 times").
//	    WithSuggestion("check for a watch handler that writes the value it watches")
//
//	fmt.Println(err.Format())
package errors
