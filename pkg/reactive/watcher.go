package reactive

import (
	"fmt"

	mapset "github.com/deckarep/golang-set/v2"
)

// WatcherOptions configures a watcher's flavor.
// The three flavors of the pipeline differ only by flags: a render watcher
// (no flags beyond Before/Updated), a computed-value watcher (Lazy), and an
// explicit user watch (User, optionally Deep or Sync).
type WatcherOptions struct {
	// Lazy defers evaluation: the watcher is only recomputed when a reader
	// calls Evaluate, and notifications merely mark it dirty.
	Lazy bool

	// Sync runs the watcher immediately on notification instead of going
	// through the scheduler.
	Sync bool

	// User marks an externally supplied watch; its callback runs inside its
	// own error boundary so one failing watch cannot abort a flush.
	User bool

	// Deep makes the watcher traverse the value graph after each evaluation
	// so nested container mutations trigger it.
	Deep bool

	// Before runs just before the watcher re-runs during a flush
	// (the beforeUpdate boundary).
	Before func()

	// Updated is deferred until the flush that ran this watcher completes;
	// the scheduler invokes Updated hooks last-to-first so children settle
	// before parents.
	Updated func()
}

// Watcher is a tracked computation: a render pass, a computed value, or an
// external watch. It records every dep touched while its tracked function
// runs and re-runs when any of them notifies.
type Watcher struct {
	id    uint64
	sched *Scheduler

	// label names the watcher in diagnostics (expression or component name).
	label string

	fn func() any
	cb func(newVal, oldVal any)

	value any

	deps      []*Dep
	depIDs    mapset.Set[uint64]
	newDeps   []*Dep
	newDepIDs mapset.Set[uint64]

	lazy   bool
	sync   bool
	user   bool
	deep   bool
	dirty  bool
	active bool

	before  func()
	updated func()
}

// NewWatcher creates a watcher over fn. Unless lazy, the tracked function
// runs once immediately to record its initial dependency set. cb, if
// non-nil, receives (newValue, oldValue) whenever a re-run produces a
// changed value. sched may be nil only for lazy or sync watchers.
func NewWatcher(sched *Scheduler, label string, fn func() any, cb func(newVal, oldVal any), opts WatcherOptions) *Watcher {
	w := &Watcher{
		id:        nextID(),
		sched:     sched,
		label:     label,
		fn:        fn,
		cb:        cb,
		depIDs:    mapset.NewThreadUnsafeSet[uint64](),
		newDepIDs: mapset.NewThreadUnsafeSet[uint64](),
		lazy:      opts.Lazy,
		sync:      opts.Sync,
		user:      opts.User,
		deep:      opts.Deep,
		dirty:     opts.Lazy,
		active:    true,
		before:    opts.Before,
		updated:   opts.Updated,
	}

	if !w.lazy {
		w.value = w.Get()
	}
	return w
}

// ID returns the watcher's creation-ordered unique identifier.
func (w *Watcher) ID() uint64 {
	return w.id
}

// Active reports whether the watcher has not been torn down.
func (w *Watcher) Active() bool {
	return w.active
}

// Dirty reports whether a lazy watcher needs re-evaluation.
func (w *Watcher) Dirty() bool {
	return w.dirty
}

// Get evaluates the tracked function with this watcher as the current
// target, then reconciles the dependency set: deps touched this run but not
// last run gain this watcher, deps from last run not touched this run drop
// it. The target stack and the dep sets are restored even when fn panics.
func (w *Watcher) Get() any {
	pushTarget(w)
	defer func() {
		popTarget()
		w.cleanupDeps()
	}()

	value := w.fn()
	if w.deep {
		traverse(value)
	}
	return value
}

// addDep records dep in the pending set. The watcher registers itself with
// the dep only when the dep was absent from the previous run's set,
// avoiding duplicate registration.
func (w *Watcher) addDep(d *Dep) {
	if w.newDepIDs.Contains(d.id) {
		return
	}
	w.newDepIDs.Add(d.id)
	w.newDeps = append(w.newDeps, d)
	if !w.depIDs.Contains(d.id) {
		d.addSub(w)
	}
}

// cleanupDeps drops subscriptions to deps that were not touched during the
// latest run, then swaps the pending set in as the current set.
func (w *Watcher) cleanupDeps() {
	for _, d := range w.deps {
		if !w.newDepIDs.Contains(d.id) {
			d.removeSub(w)
		}
	}

	w.depIDs, w.newDepIDs = w.newDepIDs, w.depIDs
	w.newDepIDs.Clear()
	w.deps, w.newDeps = w.newDeps, w.deps[:0]
}

// Update is called by a dep when a dependency changed. Lazy watchers are
// marked dirty for the next Evaluate; sync watchers run immediately;
// everything else is handed to the scheduler.
func (w *Watcher) Update() {
	switch {
	case w.lazy:
		w.dirty = true
	case w.sync:
		w.Run()
	default:
		w.sched.Enqueue(w)
	}
}

// Run re-evaluates the tracked function and fires the callback when the
// value changed. Containers and deep watchers always fire even when the
// reference is unchanged, since in-place mutation is invisible to an
// identity compare. User callbacks run inside their own error boundary.
func (w *Watcher) Run() {
	if !w.active {
		return
	}

	value, err := w.safeGet()
	if err != nil {
		ctx := fmt.Sprintf("tracked function for watcher %q", w.label)
		if !handleError(err, ctx) && !w.user {
			panic(err)
		}
		return
	}

	if sameValue(value, w.value) && !isContainer(value) && !w.deep {
		return
	}

	oldValue := w.value
	w.value = value
	if w.cb == nil {
		return
	}

	if w.user {
		w.invokeGuarded(value, oldValue)
	} else {
		w.cb(value, oldValue)
	}
}

// safeGet evaluates Get, converting a panic into an error.
func (w *Watcher) safeGet() (value any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = recoveredError(r)
		}
	}()
	return w.Get(), nil
}

// invokeGuarded runs a user callback inside its own error boundary so one
// failing watch cannot abort the scheduler's flush of other watchers.
func (w *Watcher) invokeGuarded(newVal, oldVal any) {
	defer func() {
		if r := recover(); r != nil {
			handleError(recoveredError(r), fmt.Sprintf("callback for watcher %q", w.label))
		}
	}()
	w.cb(newVal, oldVal)
}

// Evaluate forces a lazy watcher to recompute and clears its dirty flag.
// Answers "what is this computed value right now."
func (w *Watcher) Evaluate() any {
	w.value = w.Get()
	w.dirty = false
	return w.value
}

// Value returns the cached value from the last evaluation.
func (w *Watcher) Value() any {
	return w.value
}

// Depend registers all of this watcher's deps with the current target.
// Used when a computed value is read during another watcher's evaluation,
// so the outer watcher re-runs when the computed value's inputs change.
func (w *Watcher) Depend() {
	for _, d := range w.deps {
		d.Depend()
	}
}

// Teardown unsubscribes the watcher from every dep it currently holds and
// marks it inactive. Idempotent; a torn-down watcher already sitting in the
// scheduler queue runs as a no-op.
func (w *Watcher) Teardown() {
	if !w.active {
		return
	}
	w.active = false

	for _, d := range w.deps {
		d.removeSub(w)
	}
	w.deps = nil
	w.depIDs.Clear()
}

// isContainer reports whether v is an observed container.
func isContainer(v any) bool {
	_, ok := v.(container)
	return ok
}

// traverse visits every element of an observed value graph so each nested
// dep is collected while the current target is still pushed. A visited set
// keyed by shape-dep id guards against cycles.
func traverse(v any) {
	traverseValue(v, make(map[uint64]struct{}))
}

func traverseValue(v any, seen map[uint64]struct{}) {
	switch x := v.(type) {
	case *Map:
		id := x.ob.shapeDep.id
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		for _, k := range x.Keys() {
			traverseValue(x.Get(k), seen)
		}
	case *List:
		id := x.ob.shapeDep.id
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		for _, item := range x.Items() {
			traverseValue(item, seen)
		}
	}
}
