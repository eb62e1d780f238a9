package reactive

import "sync"

// Dep is an observable unit tracking which watchers care about one piece of
// state. Every reactive slot and every observed container owns exactly one.
type Dep struct {
	id uint64

	// subs are the watchers subscribed to this dep, in subscription order.
	subs []*Watcher

	// mu protects the subs slice.
	mu sync.Mutex
}

func newDep() *Dep {
	return &Dep{id: nextID()}
}

// ID returns the unique identifier for this dep.
func (d *Dep) ID() uint64 {
	return d.id
}

// addSub appends a watcher to this dep's subscribers.
// Deduplicates by watcher ID so a watcher appears at most once.
func (d *Dep) addSub(w *Watcher) {
	if w == nil {
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	for _, existing := range d.subs {
		if existing.id == w.id {
			return
		}
	}
	d.subs = append(d.subs, w)
}

// removeSub removes a watcher from this dep's subscribers.
func (d *Dep) removeSub(w *Watcher) {
	if w == nil {
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	for i, existing := range d.subs {
		if existing.id == w.id {
			d.subs = append(d.subs[:i], d.subs[i+1:]...)
			return
		}
	}
}

// Depend registers this dep with the watcher currently being tracked on
// this goroutine. No-op outside a tracked evaluation.
func (d *Dep) Depend() {
	if target := currentTarget(); target != nil {
		target.addDep(d)
	}
}

// Notify calls Update on every subscribed watcher.
// Uses copy-before-notify so subscribers may mutate the list (for example
// by tearing down) while being notified.
func (d *Dep) Notify() {
	d.mu.Lock()
	subs := make([]*Watcher, len(d.subs))
	copy(subs, d.subs)
	d.mu.Unlock()

	for _, sub := range subs {
		sub.Update()
	}
}

// subCount returns the current number of subscribers.
func (d *Dep) subCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.subs)
}
