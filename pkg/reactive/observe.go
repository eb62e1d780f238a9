package reactive

import (
	"math"
	"reflect"
	"sort"
	"sync"
)

// Observer marks a container as observed. It holds the dep representing
// "this container's shape changed" (element insertion/removal, dynamic key
// addition/deletion) and a count of how many root bindings reference the
// container.
type Observer struct {
	shapeDep *Dep

	// refCount is the number of root state bindings using this container.
	refCount int
	refMu    sync.Mutex
}

func newObserver() *Observer {
	return &Observer{shapeDep: newDep()}
}

// ShapeDep returns the dep notified when the container's shape changes.
func (o *Observer) ShapeDep() *Dep {
	return o.shapeDep
}

// Retain increments the root-binding reference count.
func (o *Observer) Retain() {
	o.refMu.Lock()
	o.refCount++
	o.refMu.Unlock()
}

// Release decrements the root-binding reference count.
func (o *Observer) Release() {
	o.refMu.Lock()
	if o.refCount > 0 {
		o.refCount--
	}
	o.refMu.Unlock()
}

// container is implemented by the observed container types.
type container interface {
	observer() *Observer
}

// Observe returns the observed form of v: already-observed containers are
// returned as-is, plain map[string]any and []any values are deep-converted
// to Map and List, and everything else passes through unchanged.
//
// Observation is suppressed inside WithoutObserving.
func Observe(v any) any {
	if !observingAllowed() {
		return v
	}
	return observeValue(v, make(map[uintptr]any))
}

// observeValue converts v within one observation pass. seen maps the
// identity of raw maps/slices already converted during this pass to their
// observed form, so mutually referencing containers observed for the first
// time cannot recurse forever.
func observeValue(v any, seen map[uintptr]any) any {
	switch x := v.(type) {
	case nil:
		return nil
	case *Map, *List:
		// Already wrapped in a container marker.
		return v
	case map[string]any:
		ptr := reflect.ValueOf(x).Pointer()
		if done, ok := seen[ptr]; ok {
			return done
		}
		m := &Map{ob: newObserver(), slots: make(map[string]*slot, len(x))}
		seen[ptr] = m
		for k, val := range x {
			m.slots[k] = &slot{dep: newDep(), value: observeValue(val, seen)}
		}
		return m
	case []any:
		if x == nil {
			return x
		}
		ptr := reflect.ValueOf(x).Pointer()
		if done, ok := seen[ptr]; ok {
			return done
		}
		l := &List{ob: newObserver()}
		seen[ptr] = l
		l.items = make([]any, len(x))
		for i, val := range x {
			l.items[i] = observeValue(val, seen)
		}
		return l
	default:
		return v
	}
}

// slot is a reactive slot: one observed key of a Map. Reading it registers
// the current watcher with the slot's dep (and the child container's shape
// dep); writing a different value notifies the dep.
type slot struct {
	dep   *Dep
	value any
}

// Map is an observed string-keyed record, the Go rendition of installing
// accessor pairs on a plain object's properties. Key reads and writes go
// through per-key reactive slots; adding or deleting keys notifies the
// container's shape dep.
type Map struct {
	mu    sync.RWMutex
	ob    *Observer
	slots map[string]*slot
}

// NewMap creates an observed record from init, deep-observing every value.
// A nil init yields an empty record.
func NewMap(init map[string]any) *Map {
	if init == nil {
		init = map[string]any{}
	}
	return observeValue(init, make(map[uintptr]any)).(*Map)
}

func (m *Map) observer() *Observer { return m.ob }

// Observer exposes the container's observer (shape dep and ref count).
func (m *Map) Observer() *Observer { return m.ob }

// Get returns the value stored under key, registering the current watcher
// with the key's slot dep. If the value is itself an observed container the
// watcher is also registered with that container's shape dep, so in-place
// mutation of the nested container re-triggers the watcher.
func (m *Map) Get(key string) any {
	m.mu.RLock()
	s := m.slots[key]
	m.mu.RUnlock()

	if s == nil {
		// Unknown key: depend on the shape so a later Set re-triggers.
		m.ob.shapeDep.Depend()
		return nil
	}

	s.dep.Depend()
	dependChild(s.value)
	return s.value
}

// Has reports whether key exists, registering a shape dependency.
func (m *Map) Has(key string) bool {
	m.ob.shapeDep.Depend()
	m.mu.RLock()
	_, ok := m.slots[key]
	m.mu.RUnlock()
	return ok
}

// Keys returns the keys in sorted order, registering a shape dependency.
func (m *Map) Keys() []string {
	m.ob.shapeDep.Depend()

	m.mu.RLock()
	keys := make([]string, 0, len(m.slots))
	for k := range m.slots {
		keys = append(keys, k)
	}
	m.mu.RUnlock()

	sort.Strings(keys)
	return keys
}

// Set stores v under key. Writing an existing key with an identical value
// (NaN-safe comparison) is a no-op. A changed value is observed (unless
// suppressed) and the slot dep notified; a brand-new key notifies the
// container's shape dep instead.
func (m *Map) Set(key string, v any) {
	m.mu.Lock()
	s, existed := m.slots[key]
	if existed && sameValue(s.value, v) {
		m.mu.Unlock()
		return
	}

	observed := v
	if observingAllowed() {
		observed = observeValue(v, make(map[uintptr]any))
	}

	if existed {
		s.value = observed
		m.mu.Unlock()
		s.dep.Notify()
		return
	}

	m.slots[key] = &slot{dep: newDep(), value: observed}
	m.mu.Unlock()
	m.ob.shapeDep.Notify()
}

// Delete removes key and notifies the container's shape dep.
// No-op for absent keys.
func (m *Map) Delete(key string) {
	m.mu.Lock()
	_, existed := m.slots[key]
	delete(m.slots, key)
	m.mu.Unlock()

	if existed {
		m.ob.shapeDep.Notify()
	}
}

// Peek returns the value under key without registering any dependency.
func (m *Map) Peek(key string) any {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if s := m.slots[key]; s != nil {
		return s.value
	}
	return nil
}

// Len returns the number of keys without registering a dependency.
func (m *Map) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.slots)
}

// List is an observed list. The in-place mutators mirror the intercepted
// operation set of the source design: each runs the underlying operation,
// observes newly inserted elements, notifies the container's shape dep, and
// returns the operation's original result.
type List struct {
	mu    sync.RWMutex
	ob    *Observer
	items []any
}

// NewList creates an observed list from items, deep-observing every element.
func NewList(items []any) *List {
	if items == nil {
		items = []any{}
	}
	return observeValue(items, make(map[uintptr]any)).(*List)
}

func (l *List) observer() *Observer { return l.ob }

// Observer exposes the container's observer.
func (l *List) Observer() *Observer { return l.ob }

// Len returns the element count, registering a shape dependency.
func (l *List) Len() int {
	l.ob.shapeDep.Depend()
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.items)
}

// Get returns the element at index i, registering a shape dependency.
// Returns nil when i is out of range.
func (l *List) Get(i int) any {
	l.ob.shapeDep.Depend()

	l.mu.RLock()
	defer l.mu.RUnlock()
	if i < 0 || i >= len(l.items) {
		return nil
	}
	v := l.items[i]
	dependChild(v)
	return v
}

// Items returns a snapshot copy of the elements, registering a shape
// dependency on the list and on every nested container.
func (l *List) Items() []any {
	l.ob.shapeDep.Depend()

	l.mu.RLock()
	out := make([]any, len(l.items))
	copy(out, l.items)
	l.mu.RUnlock()

	for _, v := range out {
		dependChild(v)
	}
	return out
}

// Set replaces the element at index i, observing the new value and
// notifying the shape dep when the value changed.
func (l *List) Set(i int, v any) {
	l.mu.Lock()
	if i < 0 || i >= len(l.items) {
		l.mu.Unlock()
		return
	}
	if sameValue(l.items[i], v) {
		l.mu.Unlock()
		return
	}
	l.items[i] = l.observeElem(v)
	l.mu.Unlock()

	l.ob.shapeDep.Notify()
}

// Push appends items and returns the new length.
func (l *List) Push(items ...any) int {
	l.mu.Lock()
	for _, v := range items {
		l.items = append(l.items, l.observeElem(v))
	}
	n := len(l.items)
	l.mu.Unlock()

	l.ob.shapeDep.Notify()
	return n
}

// Pop removes and returns the last element, or nil for an empty list.
func (l *List) Pop() any {
	l.mu.Lock()
	if len(l.items) == 0 {
		l.mu.Unlock()
		return nil
	}
	v := l.items[len(l.items)-1]
	l.items = l.items[:len(l.items)-1]
	l.mu.Unlock()

	l.ob.shapeDep.Notify()
	return v
}

// Shift removes and returns the first element, or nil for an empty list.
func (l *List) Shift() any {
	l.mu.Lock()
	if len(l.items) == 0 {
		l.mu.Unlock()
		return nil
	}
	v := l.items[0]
	l.items = append(l.items[:0], l.items[1:]...)
	l.mu.Unlock()

	l.ob.shapeDep.Notify()
	return v
}

// Unshift prepends items and returns the new length.
func (l *List) Unshift(items ...any) int {
	l.mu.Lock()
	observed := make([]any, len(items))
	for i, v := range items {
		observed[i] = l.observeElem(v)
	}
	l.items = append(observed, l.items...)
	n := len(l.items)
	l.mu.Unlock()

	l.ob.shapeDep.Notify()
	return n
}

// Splice removes deleteCount elements starting at start, inserts items in
// their place, and returns the removed elements.
func (l *List) Splice(start, deleteCount int, items ...any) []any {
	l.mu.Lock()
	n := len(l.items)
	if start < 0 {
		start = 0
	}
	if start > n {
		start = n
	}
	if deleteCount < 0 {
		deleteCount = 0
	}
	if start+deleteCount > n {
		deleteCount = n - start
	}

	removed := make([]any, deleteCount)
	copy(removed, l.items[start:start+deleteCount])

	observed := make([]any, len(items))
	for i, v := range items {
		observed[i] = l.observeElem(v)
	}

	tail := append([]any{}, l.items[start+deleteCount:]...)
	l.items = append(l.items[:start], observed...)
	l.items = append(l.items, tail...)
	l.mu.Unlock()

	l.ob.shapeDep.Notify()
	return removed
}

// Sort sorts the list in place using less and notifies the shape dep.
func (l *List) Sort(less func(a, b any) bool) {
	l.mu.Lock()
	sort.SliceStable(l.items, func(i, j int) bool {
		return less(l.items[i], l.items[j])
	})
	l.mu.Unlock()

	l.ob.shapeDep.Notify()
}

// Reverse reverses the list in place and notifies the shape dep.
func (l *List) Reverse() {
	l.mu.Lock()
	for i, j := 0, len(l.items)-1; i < j; i, j = i+1, j-1 {
		l.items[i], l.items[j] = l.items[j], l.items[i]
	}
	l.mu.Unlock()

	l.ob.shapeDep.Notify()
}

// PeekLen returns the element count without registering a dependency.
func (l *List) PeekLen() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.items)
}

// observeElem observes a newly inserted element. Caller holds l.mu.
func (l *List) observeElem(v any) any {
	if !observingAllowed() {
		return v
	}
	return observeValue(v, make(map[uintptr]any))
}

// dependChild registers the current watcher with a nested container's shape
// dep so that in-place mutation of the child re-triggers the watcher.
func dependChild(v any) {
	if c, ok := v.(container); ok {
		c.observer().shapeDep.Depend()
	}
}

// sameValue reports value identity with NaN-safe float comparison.
// Containers and other uncomparable values are never "same", even when both
// arguments are the identical reference; a write of such a value always
// notifies.
func sameValue(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb {
		return false
	}

	if fa, ok := a.(float64); ok {
		fb := b.(float64)
		return fa == fb || (math.IsNaN(fa) && math.IsNaN(fb))
	}
	if fa, ok := a.(float32); ok {
		fb := b.(float32)
		return fa == fb || (math.IsNaN(float64(fa)) && math.IsNaN(float64(fb)))
	}

	if !ta.Comparable() {
		return false
	}
	return a == b
}
