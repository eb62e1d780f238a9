package component

import (
	"testing"
)

func TestMergeHooksChainBaseFirst(t *testing.T) {
	var order []string

	base := Options{Created: func(*Instance) { order = append(order, "base") }}
	over := Options{Created: func(*Instance) { order = append(order, "over") }}

	merged := Merge(base, over)
	merged.Created(nil)

	if len(order) != 2 || order[0] != "base" || order[1] != "over" {
		t.Errorf("expected [base over], got %v", order)
	}
}

func TestMergePropsUnion(t *testing.T) {
	merged := Merge(
		Options{Props: []string{"a", "b"}},
		Options{Props: []string{"b", "c"}},
	)

	if len(merged.Props) != 3 {
		t.Fatalf("expected 3 props, got %v", merged.Props)
	}
	want := []string{"a", "b", "c"}
	for i, p := range want {
		if merged.Props[i] != p {
			t.Errorf("expected props %v, got %v", want, merged.Props)
			break
		}
	}
}

func TestMergeComputedOverrides(t *testing.T) {
	base := Options{Computed: map[string]func(*Instance) any{
		"x": func(*Instance) any { return "base" },
		"y": func(*Instance) any { return "base" },
	}}
	over := Options{Computed: map[string]func(*Instance) any{
		"x": func(*Instance) any { return "over" },
	}}

	merged := Merge(base, over)
	if got := merged.Computed["x"](nil); got != "over" {
		t.Errorf("expected override to win for x, got %v", got)
	}
	if got := merged.Computed["y"](nil); got != "base" {
		t.Errorf("expected base kept for y, got %v", got)
	}
}

func TestMergeDataCombines(t *testing.T) {
	base := Options{Data: func(*Instance) map[string]any {
		return map[string]any{"a": 1, "b": 1}
	}}
	over := Options{Data: func(*Instance) map[string]any {
		return map[string]any{"b": 2}
	}}

	data := Merge(base, over).Data(nil)
	if data["a"] != 1 || data["b"] != 2 {
		t.Errorf("expected {a:1 b:2}, got %v", data)
	}
}

func TestResolveMixinsDepthFirst(t *testing.T) {
	var order []string
	hook := func(name string) Hook {
		return func(*Instance) { order = append(order, name) }
	}

	grand := Options{Created: hook("grand")}
	mixinA := Options{Mixins: []Options{grand}, Created: hook("a")}
	mixinB := Options{Created: hook("b")}
	self := Options{
		Mixins:  []Options{mixinA, mixinB},
		Created: hook("self"),
	}

	resolved := resolve(self)
	resolved.Created(nil)

	want := []string{"grand", "a", "b", "self"}
	if len(order) != len(want) {
		t.Fatalf("expected %v, got %v", want, order)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("expected %v, got %v", want, order)
			break
		}
	}
}

func TestResolveNameAndRender(t *testing.T) {
	mixin := Options{Name: "mixin"}
	self := Options{Mixins: []Options{mixin}, Name: "self"}

	if got := resolve(self).Name; got != "self" {
		t.Errorf("expected own name to win, got %q", got)
	}

	unnamed := Options{Mixins: []Options{mixin}}
	if got := resolve(unnamed).Name; got != "mixin" {
		t.Errorf("expected mixin name inherited, got %q", got)
	}
}
