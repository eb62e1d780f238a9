// Package host defines the operations a rendering backend must provide.
// The reconciler in pkg/vdom depends only on these interfaces, never on a
// concrete backend: pkg/host/memdom implements them in memory and the
// session transport replays recorded operations on a remote document.
package host

// Node is an opaque reference to one rendered host node. The backend owns
// the concrete type; the reconciler only passes references back into the
// same backend's operations.
type Node interface{}

// Ops is the mutation surface of a rendering backend.
type Ops interface {
	CreateElement(tag string) Node
	CreateElementNS(ns, tag string) Node
	CreateText(text string) Node
	CreateComment(text string) Node

	SetTextContent(n Node, text string)
	SetAttribute(n Node, key, value string)
	RemoveAttribute(n Node, key string)

	AppendChild(parent, child Node)
	InsertBefore(parent, child, ref Node)
	RemoveChild(parent, child Node)

	ParentNode(n Node) Node
	NextSibling(n Node) Node
	TagName(n Node) string
}

// NodeKind classifies an existing host node. Hydration needs it to keep
// text and comment descriptors from adopting each other's nodes, since
// both report an empty TagName.
type NodeKind int

const (
	ElementNode NodeKind = iota
	TextNode
	CommentNode
)

// ChildWalker is implemented by backends that can enumerate and classify
// existing nodes, which hydration needs to walk server-rendered markup.
// Backends without it fall back to a full client-side rebuild.
type ChildWalker interface {
	FirstChild(n Node) Node
	NodeKind(n Node) NodeKind
}

// EventHandler receives a dispatched event.
type EventHandler func(e Event)

// Event is a host event delivered to a handler installed by the events
// module.
type Event struct {
	// Type is the event name, e.g. "click" or "input".
	Type string

	// Target is the node the event was dispatched on.
	Target Node

	// Data carries event payload fields, e.g. "value" for input events.
	Data map[string]any
}

// Value returns the event's "value" payload field as a string.
func (e Event) Value() string {
	if e.Data == nil {
		return ""
	}
	if v, ok := e.Data["value"].(string); ok {
		return v
	}
	return ""
}

// EventTarget is implemented by backends that can deliver events. Setting a
// nil handler removes the listener for that event name.
type EventTarget interface {
	SetEventListener(n Node, event string, h EventHandler)
}
