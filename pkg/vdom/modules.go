package vdom

import (
	"sort"
	"strings"

	"github.com/reflow-dev/reflow/pkg/host"
)

// Module is a cross-cutting concern invoked by the patcher at create and
// update time. The patcher knows nothing about attributes, classes, styles
// or events; each is a module over the node's Data.
type Module interface {
	// Create runs when a node's host element was just created. old is the
	// empty placeholder node.
	Create(ops host.Ops, old, new *VNode)

	// Update runs when a node is patched in place.
	Update(ops host.Ops, old, new *VNode)
}

// RemoveModule is implemented by modules that must acknowledge a node's
// removal before the host node is physically detached, e.g. an exit
// transition. done must be called exactly once.
type RemoveModule interface {
	Remove(ops host.Ops, v *VNode, done func())
}

// DestroyModule is implemented by modules holding per-node resources.
type DestroyModule interface {
	Destroy(ops host.Ops, v *VNode)
}

// DefaultModules returns the built-in module table in invocation order.
func DefaultModules() []Module {
	return []Module{attrsModule{}, classModule{}, styleModule{}, eventsModule{}}
}

// attrsModule syncs Data.Attrs onto the host element.
type attrsModule struct{}

func (attrsModule) Create(ops host.Ops, old, new *VNode) {
	attrsModule{}.Update(ops, old, new)
}

func (attrsModule) Update(ops host.Ops, old, new *VNode) {
	oldAttrs := dataAttrs(old)
	newAttrs := dataAttrs(new)
	if len(oldAttrs) == 0 && len(newAttrs) == 0 {
		return
	}

	for k, v := range newAttrs {
		if oldAttrs[k] != v || !hasKey(oldAttrs, k) {
			ops.SetAttribute(new.Elm, k, v)
		}
	}
	for k := range oldAttrs {
		if !hasKey(newAttrs, k) {
			ops.RemoveAttribute(new.Elm, k)
		}
	}
}

func dataAttrs(v *VNode) map[string]string {
	if v == nil || v.Data == nil {
		return nil
	}
	return v.Data.Attrs
}

func hasKey(m map[string]string, k string) bool {
	_, ok := m[k]
	return ok
}

// classModule renders Data.Class into the class attribute.
type classModule struct{}

func (classModule) Create(ops host.Ops, old, new *VNode) {
	classModule{}.Update(ops, old, new)
}

func (classModule) Update(ops host.Ops, old, new *VNode) {
	oldCls := classValue(old)
	newCls := classValue(new)
	if oldCls == newCls {
		return
	}
	if newCls == "" {
		ops.RemoveAttribute(new.Elm, "class")
		return
	}
	ops.SetAttribute(new.Elm, "class", newCls)
}

func classValue(v *VNode) string {
	if v == nil || v.Data == nil || len(v.Data.Class) == 0 {
		return ""
	}
	return strings.Join(v.Data.Class, " ")
}

// styleModule renders Data.Style into the style attribute, properties
// sorted by name for a stable serialization.
type styleModule struct{}

func (styleModule) Create(ops host.Ops, old, new *VNode) {
	styleModule{}.Update(ops, old, new)
}

func (styleModule) Update(ops host.Ops, old, new *VNode) {
	oldStyle := styleValue(old)
	newStyle := styleValue(new)
	if oldStyle == newStyle {
		return
	}
	if newStyle == "" {
		ops.RemoveAttribute(new.Elm, "style")
		return
	}
	ops.SetAttribute(new.Elm, "style", newStyle)
}

func styleValue(v *VNode) string {
	if v == nil || v.Data == nil || len(v.Data.Style) == 0 {
		return ""
	}

	names := make([]string, 0, len(v.Data.Style))
	for k := range v.Data.Style {
		names = append(names, k)
	}
	sort.Strings(names)

	var b strings.Builder
	for i, k := range names {
		if i > 0 {
			b.WriteByte(';')
		}
		b.WriteString(k)
		b.WriteByte(':')
		b.WriteString(v.Data.Style[k])
	}
	return b.String()
}

// eventsModule installs Data.On listeners through the backend's event
// support. Backends without event support get a no-op.
type eventsModule struct{}

func (eventsModule) Create(ops host.Ops, old, new *VNode) {
	eventsModule{}.Update(ops, old, new)
}

func (eventsModule) Update(ops host.Ops, old, new *VNode) {
	et, ok := ops.(host.EventTarget)
	if !ok {
		return
	}

	oldOn := dataOn(old)
	newOn := dataOn(new)

	for name, h := range newOn {
		et.SetEventListener(new.Elm, name, h)
	}
	for name := range oldOn {
		if _, kept := newOn[name]; !kept {
			et.SetEventListener(new.Elm, name, nil)
		}
	}
}

func (eventsModule) Destroy(ops host.Ops, v *VNode) {
	et, ok := ops.(host.EventTarget)
	if !ok || v.Elm == nil {
		return
	}
	for name := range dataOn(v) {
		et.SetEventListener(v.Elm, name, nil)
	}
}

func dataOn(v *VNode) map[string]host.EventHandler {
	if v == nil || v.Data == nil {
		return nil
	}
	return v.Data.On
}
