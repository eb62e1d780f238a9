// Package reactive provides the dependency-tracking core for Reflow.
//
// Dependencies are tracked automatically at runtime: reading an observed
// value while a watcher's tracked function runs subscribes that watcher to
// the value's changes, and each re-run rebuilds the subscription set from
// scratch so stale dependencies are dropped.
//
// # Core Types
//
// Map and List are observed containers. Every read records a dependency and
// every mutation notifies exactly the watchers that read the changed part:
//
//	state := reactive.NewMap(map[string]any{"count": 0})
//	v := state.Get("count")   // read (subscribes current watcher)
//	state.Set("count", 5)     // write (notifies subscribers)
//
// Watcher is a tracked computation. The same type backs a render pass, a
// lazily cached computed value (Lazy), and an explicit user watch (User):
//
//	w := reactive.NewWatcher(sched, "doubled", func() any {
//	    return state.Get("count").(int) * 2
//	}, nil, reactive.WatcherOptions{Lazy: true})
//	v := w.Evaluate()  // recomputes only if dependencies changed
//
// # Scheduling
//
// Watchers do not re-run at mutation time. A Scheduler collects dirty
// watchers, deduplicated by id, and flushes them once per batching cycle in
// ascending id order. Mutations grouped in a single Do call coalesce into
// one flush:
//
//	sched.Do(func() {
//	    state.Set("a", 1)
//	    state.Set("b", 2)
//	    state.Set("c", 3)
//	})  // each affected watcher runs once
//
// NextTick awaits the point after the current cycle's flush, when derived
// output is consistent with all prior mutations.
//
// # Threading
//
// All reactive work is serialized on the scheduler's run loop. The tracking
// context is per-goroutine, so tracked functions must not spawn goroutines
// that expect to record dependencies.
package reactive
