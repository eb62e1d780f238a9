package vdom

import (
	"github.com/reflow-dev/reflow/pkg/host"
)

// VKind is the node type discriminator.
type VKind uint8

const (
	KindElement VKind = iota // <div>, <button>, etc.
	KindText                 // plain text node
	KindComment              // comment node, also the explicit empty marker
)

// String returns the string representation of the VKind.
func (k VKind) String() string {
	switch k {
	case KindElement:
		return "Element"
	case KindText:
		return "Text"
	case KindComment:
		return "Comment"
	default:
		return "Unknown"
	}
}

// VNode describes one rendered unit for a single render pass. A fresh tree
// is produced on every render; the patcher never mutates a descriptor except
// to stamp Elm (and carry a component link forward) as nodes are created or
// matched.
type VNode struct {
	Kind VKind

	// Tag is the element tag name. Empty for text and comment nodes.
	Tag string

	// Key identifies a logical node across renders for child reconciliation.
	Key string

	// Data holds attributes, classes, styles and listeners. Whether Data is
	// nil participates in the sameness check.
	Data *Data

	Children []*VNode

	// Text holds a text node's content or a comment's body.
	Text string

	// NS is the element namespace, e.g. the SVG namespace. Empty for HTML.
	NS string

	// Elm is the resolved host node, stamped by the patcher.
	Elm host.Node

	// Hooks is the component glue attached by the component layer.
	Hooks *Hooks

	// Component is the resolved child component instance, carried forward
	// across patches of the same logical node.
	Component any

	// IsStatic marks a hoisted subtree that is cloned between renders and
	// never diffed.
	IsStatic bool

	// Once marks a render-once subtree treated like a static one after its
	// first patch.
	Once bool

	// IsCloned marks a node produced by Clone, letting the patcher skip
	// re-diffing a reused static subtree.
	IsCloned bool

	// AsyncFactory links an unresolved async component placeholder to its
	// factory. Two placeholders are the same node only when they share a
	// factory and resolution has not failed.
	AsyncFactory any

	// AsyncFailed records that the placeholder's factory failed to resolve.
	AsyncFailed bool
}

// Data holds the cross-cutting node payload consumed by the module hook
// table: plain attributes, class and style shorthands, and event listeners.
type Data struct {
	Attrs map[string]string

	// Class entries are joined into the class attribute in order.
	Class []string

	// Style entries are rendered into the style attribute sorted by name.
	Style map[string]string

	// On maps event names to handlers, installed through the backend's
	// event support.
	On map[string]host.EventHandler
}

// Hooks is the component glue invoked by the patcher at fixed points.
type Hooks struct {
	// Init runs when the node is first created; a component Init builds and
	// mounts the child instance and stamps vnode.Elm.
	Init func(v *VNode)

	// Prepatch runs when an existing node is patched in place, before its
	// own subtree is reconciled; propagates new props into the child
	// instance without destroying it.
	Prepatch func(old, new *VNode)

	// Postpatch runs after the node's subtree is fully reconciled.
	Postpatch func(old, new *VNode)

	// Insert runs once the node's host subtree is actually attached.
	Insert func(v *VNode)

	// Destroy runs when the node is being removed for good.
	Destroy func(v *VNode)
}

// textLikeInputs groups the input types whose host nodes are interchangeable
// without recreating the element.
var textLikeInputs = map[string]bool{
	"text": true, "number": true, "password": true, "search": true,
	"email": true, "tel": true, "url": true,
}

// sameVnode reports whether a and b describe the same logical node, so the
// existing host node can be patched in place instead of replaced.
func sameVnode(a, b *VNode) bool {
	if a.Key != b.Key {
		return false
	}

	if a.AsyncFactory != nil || b.AsyncFactory != nil {
		return a.AsyncFactory == b.AsyncFactory && !b.AsyncFailed
	}

	return a.Tag == b.Tag &&
		a.Kind == b.Kind &&
		(a.Data != nil) == (b.Data != nil) &&
		sameInputType(a, b)
}

// sameInputType reports whether two input elements can share a host node:
// equal type attributes, or both types in the text-like category.
func sameInputType(a, b *VNode) bool {
	if a.Tag != "input" {
		return true
	}
	ta := inputType(a)
	tb := inputType(b)
	return ta == tb || (textLikeInputs[ta] && textLikeInputs[tb])
}

func inputType(v *VNode) string {
	if v.Data == nil {
		return ""
	}
	return v.Data.Attrs["type"]
}

// Clone returns a deep copy of v with the render-time stamps reset.
// Used to reuse static subtrees across renders without sharing Elm stamps.
func (v *VNode) Clone() *VNode {
	c := *v
	c.Elm = nil
	c.Component = nil
	c.IsCloned = true
	if v.Children != nil {
		c.Children = make([]*VNode, len(v.Children))
		for i, ch := range v.Children {
			c.Children[i] = ch.Clone()
		}
	}
	return &c
}
