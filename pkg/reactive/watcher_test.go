package reactive

import (
	"errors"
	"strings"
	"testing"
)

func TestWatcherDepReconciliation(t *testing.T) {
	m := NewMap(map[string]any{"which": "a", "a": 1, "b": 2})

	_, evals := newEvalWatcher(func() any {
		if m.Get("which") == "a" {
			return m.Get("a")
		}
		return m.Get("b")
	})

	// While on the "a" branch, "b" is not a dependency.
	m.Set("b", 20)
	if *evals != 1 {
		t.Errorf("untouched branch should not notify, got %d evaluations", *evals)
	}

	// Switch branches; the dependency set is rebuilt.
	m.Set("which", "b")
	if *evals != 2 {
		t.Errorf("expected re-evaluation on branch switch, got %d", *evals)
	}

	// Now "a" is stale and must have been dropped.
	m.Set("a", 10)
	if *evals != 2 {
		t.Errorf("stale dependency should be dropped, got %d evaluations", *evals)
	}

	m.Set("b", 200)
	if *evals != 3 {
		t.Errorf("active dependency should notify, got %d evaluations", *evals)
	}
}

func TestLazyWatcher(t *testing.T) {
	m := NewMap(map[string]any{"n": 2})
	evals := 0

	w := NewWatcher(nil, "doubled", func() any {
		evals++
		return m.Get("n").(int) * 2
	}, nil, WatcherOptions{Lazy: true})

	// Lazy watchers do not evaluate at creation.
	if evals != 0 {
		t.Fatalf("lazy watcher should not evaluate eagerly, ran %d times", evals)
	}
	if !w.Dirty() {
		t.Fatal("fresh lazy watcher should be dirty")
	}

	if got := w.Evaluate(); got != 4 {
		t.Errorf("expected 4, got %v", got)
	}
	if w.Dirty() {
		t.Error("evaluated watcher should be clean")
	}

	// A clean watcher serves the cached value.
	if got := w.Value(); got != 4 {
		t.Errorf("expected cached 4, got %v", got)
	}
	if evals != 1 {
		t.Errorf("expected 1 evaluation, got %d", evals)
	}

	// A dependency change only marks it dirty.
	m.Set("n", 5)
	if !w.Dirty() {
		t.Error("dependency change should mark lazy watcher dirty")
	}
	if evals != 1 {
		t.Errorf("notification should not evaluate a lazy watcher, got %d", evals)
	}

	if got := w.Evaluate(); got != 10 {
		t.Errorf("expected 10 after re-evaluation, got %v", got)
	}
}

func TestLazyWatcherChaining(t *testing.T) {
	m := NewMap(map[string]any{"n": 1})

	inner := NewWatcher(nil, "inner", func() any {
		return m.Get("n").(int) + 1
	}, nil, WatcherOptions{Lazy: true})

	// An outer watcher reading the computed value through Depend picks up
	// the computed value's own dependencies.
	_, evals := newEvalWatcher(func() any {
		if inner.Dirty() {
			inner.Evaluate()
		}
		inner.Depend()
		return inner.Value()
	})

	m.Set("n", 7)
	if *evals != 2 {
		t.Errorf("outer watcher should re-run when inner inputs change, got %d evaluations", *evals)
	}
	if got := inner.Value(); got != 8 {
		t.Errorf("expected inner value 8, got %v", got)
	}
}

func TestDeepWatcher(t *testing.T) {
	m := NewMap(map[string]any{
		"user": map[string]any{"profile": map[string]any{"name": "ada"}},
	})
	profile := m.Get("user").(*Map).Get("profile").(*Map)

	shallowRuns := 0
	NewWatcher(nil, "shallow", func() any {
		shallowRuns++
		return m.Get("user")
	}, nil, WatcherOptions{Sync: true})

	deepRuns := 0
	NewWatcher(nil, "deep", func() any {
		deepRuns++
		return m.Get("user")
	}, nil, WatcherOptions{Sync: true, Deep: true})

	profile.Set("name", "grace")

	if shallowRuns != 1 {
		t.Errorf("shallow watcher should ignore nested mutation, ran %d times", shallowRuns)
	}
	if deepRuns != 2 {
		t.Errorf("deep watcher should see nested mutation, ran %d times", deepRuns)
	}
}

func TestDeepWatcherCyclicGraph(t *testing.T) {
	raw := map[string]any{"name": "root"}
	raw["self"] = raw
	m := Observe(raw).(*Map)

	runs := 0
	NewWatcher(nil, "cyclic", func() any {
		runs++
		return m
	}, nil, WatcherOptions{Sync: true, Deep: true})

	// Traversal of a cyclic graph must terminate.
	m.Set("name", "other")
	if runs != 2 {
		t.Errorf("expected 2 runs, got %d", runs)
	}
}

func TestWatcherCallbackValues(t *testing.T) {
	m := NewMap(map[string]any{"n": 1})

	var gotNew, gotOld any
	NewWatcher(nil, "cb", func() any {
		return m.Get("n")
	}, func(newVal, oldVal any) {
		gotNew, gotOld = newVal, oldVal
	}, WatcherOptions{Sync: true})

	m.Set("n", 2)
	if gotNew != 2 || gotOld != 1 {
		t.Errorf("expected callback (2, 1), got (%v, %v)", gotNew, gotOld)
	}
}

func TestWatcherTeardown(t *testing.T) {
	m := NewMap(map[string]any{"n": 0})

	w, evals := newEvalWatcher(func() any {
		return m.Get("n")
	})

	w.Teardown()
	if w.Active() {
		t.Error("torn-down watcher should be inactive")
	}

	m.Set("n", 1)
	if *evals != 1 {
		t.Errorf("torn-down watcher must never run again, got %d evaluations", *evals)
	}

	// Idempotent.
	w.Teardown()
}

func TestTeardownDuringNotify(t *testing.T) {
	m := NewMap(map[string]any{"n": 0})

	var second *Watcher
	secondRuns := 0

	// The first subscriber tears down the second while both are being
	// notified. Copy-before-notify keeps the iteration safe, and the
	// torn-down watcher runs as a no-op from then on.
	NewWatcher(nil, "first", func() any {
		return m.Get("n")
	}, func(newVal, oldVal any) {
		second.Teardown()
	}, WatcherOptions{Sync: true})

	second = NewWatcher(nil, "second", func() any {
		secondRuns++
		return m.Get("n")
	}, nil, WatcherOptions{Sync: true})

	m.Set("n", 1)
	m.Set("n", 2)
	if secondRuns != 1 {
		t.Errorf("torn-down watcher must not run again, got %d runs", secondRuns)
	}
}

func TestErrorHandlerReceivesPanic(t *testing.T) {
	defer SetErrorHandler(nil)

	m := NewMap(map[string]any{"n": 0})

	var gotErr error
	var gotCtx string
	SetErrorHandler(func(err error, context string) {
		gotErr = err
		gotCtx = context
	})

	NewWatcher(nil, "exploder", func() any {
		if m.Get("n") == 1 {
			panic("boom")
		}
		return nil
	}, nil, WatcherOptions{Sync: true})

	m.Set("n", 1)
	if gotErr == nil || gotErr.Error() != "boom" {
		t.Errorf("expected handler to receive boom, got %v", gotErr)
	}
	if !strings.Contains(gotCtx, "exploder") {
		t.Errorf("expected context to name the watcher, got %q", gotCtx)
	}
}

func TestUserCallbackErrorIsolated(t *testing.T) {
	defer SetErrorHandler(nil)

	m := NewMap(map[string]any{"n": 0})

	var gotErr error
	SetErrorHandler(func(err error, context string) {
		gotErr = err
	})

	NewWatcher(nil, "angry", func() any {
		return m.Get("n")
	}, func(newVal, oldVal any) {
		panic(errors.New("callback failed"))
	}, WatcherOptions{Sync: true, User: true})

	laterRuns := 0
	NewWatcher(nil, "calm", func() any {
		laterRuns++
		return m.Get("n")
	}, nil, WatcherOptions{Sync: true})

	m.Set("n", 1)

	if gotErr == nil || gotErr.Error() != "callback failed" {
		t.Errorf("expected handler to receive callback error, got %v", gotErr)
	}
	if laterRuns != 2 {
		t.Errorf("a failing user callback must not block other subscribers, got %d runs", laterRuns)
	}
}

func TestTrackedPanicRestoresTarget(t *testing.T) {
	defer SetErrorHandler(nil)
	SetErrorHandler(func(err error, context string) {})

	m := NewMap(map[string]any{"n": 0})

	NewWatcher(nil, "panicky", func() any {
		if m.Get("n") == 1 {
			panic("mid-track")
		}
		return nil
	}, nil, WatcherOptions{Sync: true})

	m.Set("n", 1)

	// The target stack must be empty again: an untracked read after the
	// panic subscribes nobody.
	if currentTarget() != nil {
		t.Error("target stack should be restored after a tracked panic")
	}
}
