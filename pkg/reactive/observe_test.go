package reactive

import (
	"testing"
)

// newEvalWatcher returns a sync watcher over fn plus a pointer to its
// evaluation count. The initial tracked run is included, so a freshly
// created watcher reports 1.
func newEvalWatcher(fn func() any) (*Watcher, *int) {
	evals := 0
	counted := func() any {
		evals++
		return fn()
	}
	w := NewWatcher(nil, "test", counted, nil, WatcherOptions{Sync: true})
	return w, &evals
}

func TestMapGetSet(t *testing.T) {
	m := NewMap(map[string]any{"count": 0})

	if got := m.Get("count"); got != 0 {
		t.Errorf("expected initial value 0, got %v", got)
	}

	m.Set("count", 5)
	if got := m.Get("count"); got != 5 {
		t.Errorf("expected value 5, got %v", got)
	}
}

func TestMapSlotSubscription(t *testing.T) {
	m := NewMap(map[string]any{"count": 0})

	_, evals := newEvalWatcher(func() any {
		return m.Get("count")
	})
	if *evals != 1 {
		t.Fatalf("expected 1 initial evaluation, got %d", *evals)
	}

	// A changed value re-runs the watcher.
	m.Set("count", 1)
	if *evals != 2 {
		t.Errorf("expected 2 evaluations after change, got %d", *evals)
	}

	// Writing the identical value is a no-op.
	m.Set("count", 1)
	if *evals != 2 {
		t.Errorf("same value should not notify, got %d evaluations", *evals)
	}
}

func TestMapRewriteOfUncomparableNotifies(t *testing.T) {
	items := []string{"a", "b"}
	m := NewMap(map[string]any{"items": items})

	_, evals := newEvalWatcher(func() any {
		return m.Get("items")
	})
	if *evals != 1 {
		t.Fatalf("expected 1 initial evaluation, got %d", *evals)
	}

	// Slices never compare as same, even as the identical reference; the
	// elements may have been mutated in place.
	m.Set("items", items)
	if *evals != 2 {
		t.Errorf("rewriting a slice should notify, got %d evaluations", *evals)
	}
}

func TestMapPerKeyGranularity(t *testing.T) {
	m := NewMap(map[string]any{"a": 1, "b": 2})

	_, evals := newEvalWatcher(func() any {
		return m.Get("a")
	})

	// Writing an unrelated key must not touch the watcher.
	m.Set("b", 20)
	if *evals != 1 {
		t.Errorf("unrelated key should not notify, got %d evaluations", *evals)
	}

	m.Set("a", 10)
	if *evals != 2 {
		t.Errorf("expected 2 evaluations after own key changed, got %d", *evals)
	}
}

func TestMapAbsentKeyThenSet(t *testing.T) {
	m := NewMap(nil)

	// Reading an absent key records a shape dependency, so adding the key
	// later re-triggers the reader.
	_, evals := newEvalWatcher(func() any {
		return m.Get("missing")
	})

	m.Set("missing", "here")
	if *evals != 2 {
		t.Errorf("expected re-evaluation after key added, got %d", *evals)
	}
	if got := m.Get("missing"); got != "here" {
		t.Errorf("expected %q, got %v", "here", got)
	}
}

func TestMapKeysAndDelete(t *testing.T) {
	m := NewMap(map[string]any{"b": 2, "a": 1})

	_, evals := newEvalWatcher(func() any {
		return len(m.Keys())
	})

	keys := m.Keys()
	if len(keys) != 2 || keys[0] != "a" || keys[1] != "b" {
		t.Errorf("expected sorted keys [a b], got %v", keys)
	}

	m.Set("c", 3)
	if *evals != 2 {
		t.Errorf("new key should notify shape readers, got %d evaluations", *evals)
	}

	m.Delete("a")
	if *evals != 3 {
		t.Errorf("delete should notify shape readers, got %d evaluations", *evals)
	}

	// Deleting an absent key is a no-op.
	m.Delete("a")
	if *evals != 3 {
		t.Errorf("deleting absent key should not notify, got %d evaluations", *evals)
	}
}

func TestMapPeekDoesNotSubscribe(t *testing.T) {
	m := NewMap(map[string]any{"count": 42})

	_, evals := newEvalWatcher(func() any {
		return m.Peek("count")
	})

	m.Set("count", 100)
	if *evals != 1 {
		t.Errorf("Peek should not subscribe, got %d evaluations", *evals)
	}
}

func TestUntrackedRead(t *testing.T) {
	m := NewMap(map[string]any{"count": 0})

	_, evals := newEvalWatcher(func() any {
		var v any
		Untracked(func() {
			v = m.Get("count")
		})
		return v
	})

	m.Set("count", 1)
	if *evals != 1 {
		t.Errorf("untracked read should not subscribe, got %d evaluations", *evals)
	}
}

func TestListMutators(t *testing.T) {
	l := NewList([]any{"a", "b"})

	_, evals := newEvalWatcher(func() any {
		return l.Len()
	})

	if n := l.Push("c"); n != 3 {
		t.Errorf("Push should return new length 3, got %d", n)
	}
	if *evals != 2 {
		t.Errorf("Push should notify, got %d evaluations", *evals)
	}

	if v := l.Pop(); v != "c" {
		t.Errorf("Pop should return %q, got %v", "c", v)
	}
	if v := l.Shift(); v != "a" {
		t.Errorf("Shift should return %q, got %v", "a", v)
	}
	if n := l.Unshift("x", "y"); n != 3 {
		t.Errorf("Unshift should return new length 3, got %d", n)
	}
	if *evals != 5 {
		t.Errorf("expected 5 evaluations after 4 mutations, got %d", *evals)
	}
}

func TestListSplice(t *testing.T) {
	l := NewList([]any{1, 2, 3, 4})

	removed := l.Splice(1, 2, "x")
	if len(removed) != 2 || removed[0] != 2 || removed[1] != 3 {
		t.Errorf("expected removed [2 3], got %v", removed)
	}

	items := l.Items()
	if len(items) != 3 || items[0] != 1 || items[1] != "x" || items[2] != 4 {
		t.Errorf("expected [1 x 4], got %v", items)
	}

	// Out-of-range arguments are clamped.
	removed = l.Splice(10, 5)
	if len(removed) != 0 {
		t.Errorf("expected nothing removed past the end, got %v", removed)
	}
}

func TestListSetSameValue(t *testing.T) {
	l := NewList([]any{1, 2})

	_, evals := newEvalWatcher(func() any {
		return l.Get(0)
	})

	l.Set(0, 1)
	if *evals != 1 {
		t.Errorf("same value should not notify, got %d evaluations", *evals)
	}

	l.Set(0, 9)
	if *evals != 2 {
		t.Errorf("expected re-evaluation after change, got %d", *evals)
	}
}

func TestListSortReverse(t *testing.T) {
	l := NewList([]any{3, 1, 2})

	_, evals := newEvalWatcher(func() any {
		return l.Items()
	})

	l.Sort(func(a, b any) bool { return a.(int) < b.(int) })
	items := l.Items()
	if items[0] != 1 || items[1] != 2 || items[2] != 3 {
		t.Errorf("expected sorted [1 2 3], got %v", items)
	}
	if *evals != 2 {
		t.Errorf("Sort should notify, got %d evaluations", *evals)
	}

	l.Reverse()
	items = l.Items()
	if items[0] != 3 || items[1] != 2 || items[2] != 1 {
		t.Errorf("expected reversed [3 2 1], got %v", items)
	}
}

func TestObserveDeep(t *testing.T) {
	m := NewMap(map[string]any{
		"user": map[string]any{"name": "ada"},
		"tags": []any{"x", "y"},
	})

	user, ok := m.Get("user").(*Map)
	if !ok {
		t.Fatalf("nested map should be observed, got %T", m.Get("user"))
	}
	if _, ok := m.Get("tags").(*List); !ok {
		t.Fatalf("nested slice should be observed, got %T", m.Get("tags"))
	}

	_, evals := newEvalWatcher(func() any {
		u := m.Get("user").(*Map)
		return u.Get("name")
	})

	user.Set("name", "grace")
	if *evals != 2 {
		t.Errorf("nested write should notify, got %d evaluations", *evals)
	}
}

func TestObserveAssignedValue(t *testing.T) {
	m := NewMap(nil)

	m.Set("nested", map[string]any{"k": 1})
	if _, ok := m.Get("nested").(*Map); !ok {
		t.Errorf("assigned map should be observed, got %T", m.Get("nested"))
	}
}

func TestObserveCyclicGraph(t *testing.T) {
	raw := map[string]any{"name": "root"}
	raw["self"] = raw

	m := Observe(raw).(*Map)

	// The cycle must collapse to the same observed container.
	if m.Get("self") != m.Get("self") {
		t.Errorf("cyclic reference should observe to a stable container")
	}
	inner := m.Get("self").(*Map)
	if inner.Get("name") != "root" {
		t.Errorf("expected cyclic container to share contents, got %v", inner.Get("name"))
	}
}

func TestWithoutObserving(t *testing.T) {
	m := NewMap(nil)

	WithoutObserving(func() {
		m.Set("raw", map[string]any{"k": 1})
	})

	if _, ok := m.Get("raw").(map[string]any); !ok {
		t.Errorf("suppressed assignment should stay raw, got %T", m.Get("raw"))
	}

	// The flag is scoped: observation resumes after the call.
	m.Set("wrapped", map[string]any{"k": 2})
	if _, ok := m.Get("wrapped").(*Map); !ok {
		t.Errorf("observation should resume after WithoutObserving, got %T", m.Get("wrapped"))
	}
}

func TestSameValueNaN(t *testing.T) {
	m := NewMap(map[string]any{"f": nan()})

	_, evals := newEvalWatcher(func() any {
		return m.Get("f")
	})

	m.Set("f", nan())
	if *evals != 1 {
		t.Errorf("NaN written over NaN should not notify, got %d evaluations", *evals)
	}
}

func nan() float64 {
	f := 0.0
	return f / f
}
