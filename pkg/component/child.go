package component

import (
	"github.com/reflow-dev/reflow/pkg/reactive"
	"github.com/reflow-dev/reflow/pkg/vdom"
)

// Child creates the placeholder vnode that embeds a child component in a
// parent's render output. The child instance is created when the
// placeholder is first realized and patched in place on later renders; the
// placeholder's identity across renders follows the component name plus
// key, like any keyed node.
func (i *Instance) Child(opts Options, key string, props map[string]any) *vdom.VNode {
	name := opts.Name
	if name == "" {
		name = "anonymous"
	}

	v := &vdom.VNode{
		Kind: vdom.KindElement,
		Tag:  "component:" + name,
		Key:  key,
		Data: &vdom.Data{},
	}

	v.Hooks = &vdom.Hooks{
		Init: func(v *vdom.VNode) {
			child := New(opts, i.env, i, props)
			child.placeholder = v
			child.mount(nil)
			v.Elm = child.el
			v.Component = child
		},

		Prepatch: func(old, new *vdom.VNode) {
			child, ok := old.Component.(*Instance)
			if !ok {
				return
			}
			new.Component = child
			child.placeholder = new
			child.setProps(props)
			new.Elm = child.el
		},

		Insert: func(v *vdom.VNode) {
			if child, ok := v.Component.(*Instance); ok {
				child.markMounted()
			}
		},

		Destroy: func(v *vdom.VNode) {
			if child, ok := v.Component.(*Instance); ok {
				// The parent detaches the host subtree; the child only runs
				// its teardown hooks.
				child.destroy(false)
			}
		},
	}

	return v
}

// setProps installs externally supplied props, ignoring undeclared keys.
// The values are owned and observed by the parent, so observation is
// suppressed while writing them.
func (i *Instance) setProps(props map[string]any) {
	if len(props) == 0 {
		return
	}

	declared := make(map[string]bool, len(i.opts.Props))
	for _, name := range i.opts.Props {
		declared[name] = true
	}

	reactive.WithoutObserving(func() {
		for k, v := range props {
			if !declared[k] {
				i.env.logger().Warn("undeclared prop ignored",
					"component", i.Name(),
					"prop", k)
				continue
			}
			i.props.Set(k, v)
		}
	})
}
