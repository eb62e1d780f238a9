package reactive

import (
	"runtime"
	"sync"
)

// trackingContext holds the reactive tracking state for a goroutine.
// Each goroutine has its own context so that evaluating a watcher on one
// goroutine never leaks dependencies into a watcher running on another.
type trackingContext struct {
	// targets is the current-watcher stack. The top entry is the watcher
	// whose tracked function is currently evaluating; signal reads
	// subscribe it. An empty stack means reads are untracked.
	targets []*Watcher

	// noObserve suppresses auto-observation of freshly assigned values.
	// Scoped via WithoutObserving; never left set across calls.
	noObserve bool
}

// trackingContexts stores per-goroutine tracking contexts.
var trackingContexts sync.Map

// goroutineID returns a unique identifier for the current goroutine.
// This uses the runtime stack to extract the goroutine ID.
// Note: This is an implementation detail and should not be relied upon externally.
func goroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)

	// The stack starts with "goroutine <id> "
	var id uint64
	for i := 10; i < n; i++ { // Skip "goroutine "
		if buf[i] == ' ' {
			break
		}
		id = id*10 + uint64(buf[i]-'0')
	}
	return id
}

// getTracking returns the tracking context for the current goroutine,
// creating one if needed.
func getTracking() *trackingContext {
	gid := goroutineID()

	if tc, ok := trackingContexts.Load(gid); ok {
		return tc.(*trackingContext)
	}

	tc := &trackingContext{}
	trackingContexts.Store(gid, tc)
	return tc
}

// currentTarget returns the watcher currently being tracked on this
// goroutine, or nil if no tracked evaluation is in progress.
func currentTarget() *Watcher {
	tc := getTracking()
	if n := len(tc.targets); n > 0 {
		return tc.targets[n-1]
	}
	return nil
}

// pushTarget makes w the current tracked watcher. Must be paired with
// popTarget, normally via defer, so the stack is restored even when the
// tracked function panics.
func pushTarget(w *Watcher) {
	tc := getTracking()
	tc.targets = append(tc.targets, w)
}

// popTarget restores the previous tracked watcher.
func popTarget() {
	tc := getTracking()
	if n := len(tc.targets); n > 0 {
		tc.targets[n-1] = nil
		tc.targets = tc.targets[:n-1]
	}
}

// WithTarget runs fn with w as the current tracked watcher. A nil w makes
// reads inside fn untracked.
func WithTarget(w *Watcher, fn func()) {
	pushTarget(w)
	defer popTarget()
	fn()
}

// Untracked runs fn without tracking reads as dependencies.
//
// Example:
//
//	reactive.Untracked(func() {
//	    // Reading state here won't subscribe the current watcher.
//	    total = items.Len()
//	})
func Untracked(fn func()) {
	WithTarget(nil, fn)
}

// observingAllowed reports whether Observe should wrap freshly assigned
// values on this goroutine.
func observingAllowed() bool {
	return !getTracking().noObserve
}

// WithoutObserving runs fn with auto-observation suppressed. Writes made
// inside fn store values as-is instead of deep-observing them; the flag is
// restored synchronously when fn returns, including on panic, so re-entrant
// calls cannot leak the suppressed state.
//
// Used when installing externally supplied props whose owner already
// observes them.
func WithoutObserving(fn func()) {
	tc := getTracking()
	prev := tc.noObserve
	tc.noObserve = true
	defer func() { tc.noObserve = prev }()
	fn()
}
