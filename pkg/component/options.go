package component

import (
	"github.com/reflow-dev/reflow/pkg/vdom"
)

// Hook is a lifecycle callback bound to an instance.
type Hook func(i *Instance)

// WatchHandler receives the new and old value of a watched expression.
type WatchHandler func(i *Instance, newVal, oldVal any)

// WatchSpec configures one declared watch.
type WatchSpec struct {
	Handler WatchHandler

	// Deep re-fires on nested container mutation.
	Deep bool

	// Immediate invokes the handler once at creation with the initial value.
	Immediate bool

	// Sync runs the handler at notification time instead of at the flush.
	Sync bool
}

// Options is a component definition: a plain configuration record. There is
// no component class hierarchy; reuse is composition via Mixins, and
// "extending" a component means deriving a new merged record.
type Options struct {
	// Name labels the component in diagnostics and scheduler output.
	Name string

	// Mixins are merged into this record front-to-back before it is used;
	// the record's own fields win over mixin fields, and lifecycle hooks
	// chain mixin-first.
	Mixins []Options

	// Props declares the keys a parent may pass in.
	Props []string

	// Data produces the instance's initial state. Runs after props are
	// installed, so it may read them.
	Data func(i *Instance) map[string]any

	// Computed declares lazily cached derived values.
	Computed map[string]func(i *Instance) any

	// Watch declares handlers over state expressions (dot paths allowed).
	Watch map[string]WatchSpec

	// Render produces the instance's node tree. A nil return renders the
	// empty marker.
	Render func(i *Instance) *vdom.VNode

	BeforeCreate  Hook
	Created       Hook
	BeforeMount   Hook
	Mounted       Hook
	BeforeUpdate  Hook
	Updated       Hook
	BeforeDestroy Hook
	Destroyed     Hook
	Activated     Hook
	Deactivated   Hook
}

// Merge derives a new record from base overlaid with over: scalar fields
// and Render take over's value when set, map fields merge key-wise with
// over winning, Props union, and lifecycle hooks chain base-first.
func Merge(base, over Options) Options {
	out := base

	if over.Name != "" {
		out.Name = over.Name
	}
	if over.Render != nil {
		out.Render = over.Render
	}

	out.Props = unionStrings(base.Props, over.Props)
	out.Data = mergeData(base.Data, over.Data)
	out.Computed = mergeComputed(base.Computed, over.Computed)
	out.Watch = mergeWatch(base.Watch, over.Watch)

	out.BeforeCreate = chainHooks(base.BeforeCreate, over.BeforeCreate)
	out.Created = chainHooks(base.Created, over.Created)
	out.BeforeMount = chainHooks(base.BeforeMount, over.BeforeMount)
	out.Mounted = chainHooks(base.Mounted, over.Mounted)
	out.BeforeUpdate = chainHooks(base.BeforeUpdate, over.BeforeUpdate)
	out.Updated = chainHooks(base.Updated, over.Updated)
	out.BeforeDestroy = chainHooks(base.BeforeDestroy, over.BeforeDestroy)
	out.Destroyed = chainHooks(base.Destroyed, over.Destroyed)
	out.Activated = chainHooks(base.Activated, over.Activated)
	out.Deactivated = chainHooks(base.Deactivated, over.Deactivated)

	out.Mixins = nil
	return out
}

// resolve folds an option record's mixins into a flat record, depth-first
// and front-to-back, with the record itself merged last.
func resolve(opts Options) Options {
	if len(opts.Mixins) == 0 {
		return opts
	}

	merged := Options{}
	for _, m := range opts.Mixins {
		merged = Merge(merged, resolve(m))
	}

	self := opts
	self.Mixins = nil
	return Merge(merged, self)
}

func chainHooks(a, b Hook) Hook {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(i *Instance) {
		a(i)
		b(i)
	}
}

func unionStrings(a, b []string) []string {
	if len(a) == 0 {
		return b
	}
	if len(b) == 0 {
		return a
	}

	seen := make(map[string]bool, len(a)+len(b))
	out := make([]string, 0, len(a)+len(b))
	for _, s := range append(append([]string{}, a...), b...) {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

func mergeData(a, b func(i *Instance) map[string]any) func(i *Instance) map[string]any {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(i *Instance) map[string]any {
		out := a(i)
		if out == nil {
			out = map[string]any{}
		}
		for k, v := range b(i) {
			out[k] = v
		}
		return out
	}
}

func mergeComputed(a, b map[string]func(i *Instance) any) map[string]func(i *Instance) any {
	if len(a) == 0 {
		return b
	}
	out := make(map[string]func(i *Instance) any, len(a)+len(b))
	for k, v := range a {
		out[k] = v
	}
	for k, v := range b {
		out[k] = v
	}
	return out
}

func mergeWatch(a, b map[string]WatchSpec) map[string]WatchSpec {
	if len(a) == 0 {
		return b
	}
	out := make(map[string]WatchSpec, len(a)+len(b))
	for k, v := range a {
		out[k] = v
	}
	for k, v := range b {
		out[k] = v
	}
	return out
}
