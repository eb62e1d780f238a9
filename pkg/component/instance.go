package component

import (
	"log/slog"
	"sort"
	"strings"

	"github.com/reflow-dev/reflow/pkg/host"
	"github.com/reflow-dev/reflow/pkg/reactive"
	"github.com/reflow-dev/reflow/pkg/vdom"
)

// Env carries the shared machinery an instance tree runs on: one scheduler
// and one patcher per mounted root, handed down to children.
type Env struct {
	Scheduler *reactive.Scheduler
	Patcher   *vdom.Patcher
	Logger    *slog.Logger
}

func (e Env) logger() *slog.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	return slog.Default()
}

// Instance is one live component: reactive state, a render watcher whose
// side effect is "re-render, reconcile, fire lifecycle hooks", and links
// into the instance tree.
type Instance struct {
	opts Options
	env  Env

	parent   *Instance
	children []*Instance

	state    *reactive.Map
	props    *reactive.Map
	computed map[string]*reactive.Watcher
	watchers []*reactive.Watcher

	renderWatcher *reactive.Watcher

	// placeholder is this component's vnode in the parent's tree; tree is
	// the instance's own rendered output.
	placeholder *vdom.VNode
	tree        *vdom.VNode
	el          host.Node

	// container is the mount target for a root instance.
	container host.Node

	mounted   bool
	destroyed bool
	inactive  bool
}

// New creates an instance from opts: mixins are folded in, beforeCreate
// fires, props are installed, state and computed values are set up, declared
// watches start, and created fires. Rendering does not start until Mount.
func New(opts Options, env Env, parent *Instance, props map[string]any) *Instance {
	i := &Instance{
		opts:   resolve(opts),
		env:    env,
		parent: parent,
	}
	if parent != nil {
		parent.children = append(parent.children, i)
	}

	i.callHook(i.opts.BeforeCreate)

	i.initProps(props)
	i.initState()
	i.initComputed()
	i.initWatches()

	i.callHook(i.opts.Created)
	return i
}

// Name returns the component's diagnostic name.
func (i *Instance) Name() string {
	if i.opts.Name != "" {
		return i.opts.Name
	}
	return "anonymous"
}

// Env returns the machinery this instance runs on.
func (i *Instance) Env() Env { return i.env }

// Parent returns the owning instance, nil for a root.
func (i *Instance) Parent() *Instance { return i.parent }

// El returns the root host node, nil before mount.
func (i *Instance) El() host.Node { return i.el }

// Mounted reports whether the instance's subtree is attached.
func (i *Instance) Mounted() bool { return i.mounted }

// Destroyed reports whether the instance has been torn down.
func (i *Instance) Destroyed() bool { return i.destroyed }

func (i *Instance) initProps(props map[string]any) {
	i.props = reactive.NewMap(nil)
	i.setProps(props)
}

func (i *Instance) initState() {
	if i.opts.Data == nil {
		i.state = reactive.NewMap(nil)
	} else {
		i.state = reactive.NewMap(i.opts.Data(i))
	}
	i.state.Observer().Retain()
}

func (i *Instance) initComputed() {
	if len(i.opts.Computed) == 0 {
		return
	}

	i.computed = make(map[string]*reactive.Watcher, len(i.opts.Computed))

	// Stable creation order keeps watcher ids deterministic across runs.
	names := make([]string, 0, len(i.opts.Computed))
	for name := range i.opts.Computed {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		fn := i.opts.Computed[name]
		i.computed[name] = reactive.NewWatcher(i.env.Scheduler, i.Name()+"."+name,
			func() any { return fn(i) }, nil,
			reactive.WatcherOptions{Lazy: true})
	}
}

func (i *Instance) initWatches() {
	if len(i.opts.Watch) == 0 {
		return
	}

	names := make([]string, 0, len(i.opts.Watch))
	for name := range i.opts.Watch {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, expr := range names {
		i.Watch(expr, i.opts.Watch[expr])
	}
}

// Watch starts a watcher over an expression (a state/props/computed key, or
// a dot path through nested records). Returns a stop function.
func (i *Instance) Watch(expr string, spec WatchSpec) func() {
	w := reactive.NewWatcher(i.env.Scheduler, i.Name()+" watch "+expr,
		func() any { return i.Eval(expr) },
		func(newVal, oldVal any) {
			if spec.Handler != nil {
				spec.Handler(i, newVal, oldVal)
			}
		},
		reactive.WatcherOptions{
			User: true,
			Deep: spec.Deep,
			Sync: spec.Sync,
		})
	i.watchers = append(i.watchers, w)

	if spec.Immediate && spec.Handler != nil {
		spec.Handler(i, w.Value(), nil)
	}

	return w.Teardown
}

// Get resolves key against state, then props, then computed values,
// registering the read with the current watcher.
func (i *Instance) Get(key string) any {
	if i.state.Has(key) {
		return i.state.Get(key)
	}
	if i.props.Has(key) {
		return i.props.Get(key)
	}
	if w, ok := i.computed[key]; ok {
		return evalComputed(w)
	}
	return nil
}

// Set writes a state key.
func (i *Instance) Set(key string, v any) {
	i.state.Set(key, v)
}

// State returns the instance's observed state record.
func (i *Instance) State() *reactive.Map { return i.state }

// Props returns the instance's observed props record.
func (i *Instance) Props() *reactive.Map { return i.props }

// Eval resolves a dot-path expression through nested observed records.
func (i *Instance) Eval(expr string) any {
	parts := strings.Split(expr, ".")
	var cur any = i.Get(parts[0])
	for _, p := range parts[1:] {
		m, ok := cur.(*reactive.Map)
		if !ok {
			return nil
		}
		cur = m.Get(p)
	}
	return cur
}

// evalComputed returns a computed watcher's value, recomputing if dirty and
// chaining its dependencies into the watcher currently evaluating.
func evalComputed(w *reactive.Watcher) any {
	if w.Dirty() {
		w.Evaluate()
	}
	w.Depend()
	return w.Value()
}

// Mount renders the instance into container and starts reactive updates.
func (i *Instance) Mount(container host.Node) {
	i.container = container
	i.mount(nil)
}

// HydrateInto adopts existing markup at elm instead of rebuilding it,
// degrading to a rebuild on mismatch.
func (i *Instance) HydrateInto(elm host.Node) {
	i.mount(elm)
}

func (i *Instance) mount(hydrateElm host.Node) {
	i.callHook(i.opts.BeforeMount)

	i.env.Scheduler.Do(func() {
		i.renderWatcher = reactive.NewWatcher(i.env.Scheduler, i.Name(),
			func() any {
				i.performRender(hydrateElm)
				hydrateElm = nil
				return nil
			},
			nil,
			reactive.WatcherOptions{
				Before: func() {
					if i.mounted && !i.destroyed {
						i.callHook(i.opts.BeforeUpdate)
					}
				},
				Updated: func() {
					if i.mounted && !i.destroyed {
						i.callHook(i.opts.Updated)
					}
				},
			})
	})

	// A child instance is marked mounted by its placeholder's insert hook,
	// once the parent has actually attached the subtree.
	if i.parent == nil {
		i.markMounted()
	}
}

// performRender is the render watcher's tracked function: produce a fresh
// tree, reconcile it against the previous one, and keep host references in
// sync up the placeholder chain.
func (i *Instance) performRender(hydrateElm host.Node) {
	if i.destroyed {
		return
	}
	if i.inactive && i.tree != nil {
		// Parked: skip patching until reactivated.
		return
	}

	next := i.render()

	switch {
	case i.tree == nil && hydrateElm != nil:
		i.env.Patcher.HydrateRoot(hydrateElm, next)
	case i.tree == nil:
		i.env.Patcher.Mount(i.container, next)
	default:
		i.env.Patcher.Patch(i.tree, next)
	}

	i.tree = next
	i.syncEl(next.Elm)
}

func (i *Instance) render() *vdom.VNode {
	v := i.opts.Render(i)
	if v == nil {
		v = vdom.Empty()
	}
	return v
}

// syncEl updates the resolved root host node, propagating it onto this
// component's placeholder and up through any ancestor whose rendered root
// is that placeholder.
func (i *Instance) syncEl(elm host.Node) {
	i.el = elm
	cur := i
	for cur.placeholder != nil {
		cur.placeholder.Elm = elm
		p := cur.parent
		if p == nil || p.tree != cur.placeholder {
			break
		}
		p.el = elm
		cur = p
	}
}

func (i *Instance) markMounted() {
	if i.mounted || i.destroyed {
		return
	}
	i.mounted = true
	i.callHook(i.opts.Mounted)
}

// ForceUpdate re-renders the instance on the next flush.
func (i *Instance) ForceUpdate() {
	if i.renderWatcher != nil {
		i.renderWatcher.Update()
	}
}

// Activate reactivates a kept-alive subtree: renders run again and the
// activated hooks fire top-down once the current flush settles.
func (i *Instance) Activate() {
	if !i.inactive || i.destroyed {
		return
	}
	i.inactive = false
	i.ForceUpdate()

	i.env.Scheduler.QueueActivated(func() {
		i.callHook(i.opts.Activated)
	})
	for _, c := range i.children {
		c.Activate()
	}
}

// Deactivate parks the subtree: the instance stops patching until
// reactivated. Deactivated hooks fire bottom-up immediately.
func (i *Instance) Deactivate() {
	if i.inactive || i.destroyed {
		return
	}
	i.inactive = true
	for _, c := range i.children {
		c.Deactivate()
	}
	i.callHook(i.opts.Deactivated)
}

// Inactive reports whether the instance is parked.
func (i *Instance) Inactive() bool { return i.inactive }

// Destroy tears the instance down for good: beforeDestroy, watcher
// teardown, subtree destruction with host detach, destroyed. Idempotent.
func (i *Instance) Destroy() {
	i.destroy(true)
}

func (i *Instance) destroy(detach bool) {
	if i.destroyed {
		return
	}
	i.callHook(i.opts.BeforeDestroy)
	i.destroyed = true

	if i.parent != nil {
		i.parent.removeChild(i)
	}

	if i.renderWatcher != nil {
		i.renderWatcher.Teardown()
	}
	for _, w := range i.watchers {
		w.Teardown()
	}
	for _, w := range i.computed {
		w.Teardown()
	}
	i.state.Observer().Release()

	if i.tree != nil {
		if detach {
			i.env.Patcher.Destroy(i.tree)
		} else {
			// The parent is detaching the whole subtree; only the hooks run.
			i.env.Patcher.InvokeDestroy(i.tree)
		}
	}

	i.callHook(i.opts.Destroyed)
}

func (i *Instance) removeChild(c *Instance) {
	for idx, existing := range i.children {
		if existing == c {
			i.children = append(i.children[:idx], i.children[idx+1:]...)
			return
		}
	}
}

func (i *Instance) callHook(h Hook) {
	if h != nil {
		h(i)
	}
}
