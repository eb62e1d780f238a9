// Package component binds the reactive graph to the reconciler: one render
// watcher per live instance, whose side effect is "re-render, reconcile,
// fire lifecycle hooks".
//
// A component is a plain Options record, not a class; reuse is composition
// via Mixins and "extending" means deriving a merged record. An Instance
// holds observed state and props, lazily cached computed values, declared
// watches, and its place in the instance tree.
//
//	counter := component.Options{
//	    Name: "counter",
//	    Data: func(i *component.Instance) map[string]any {
//	        return map[string]any{"count": 0}
//	    },
//	    Render: func(i *component.Instance) *vdom.VNode {
//	        return vdom.Div(vdom.Textf("%v", i.Get("count")))
//	    },
//	}
//	inst := component.New(counter, env, nil, nil)
//	inst.Mount(doc.Root())
//
// Lifecycle hooks fire in the fixed order beforeCreate, created,
// beforeMount, mounted, then beforeUpdate/updated around each flush that
// re-renders the instance, and beforeDestroy, destroyed at teardown.
// Updated hooks fire bottom-up: children settle before parents.
package component
