// Package memdom is an in-memory document backend implementing host.Ops.
// Server-side sessions render into it as the authoritative copy of the
// remote document, and tests use it to observe reconciler output directly.
package memdom

import (
	"sort"
	"sync"

	"github.com/reflow-dev/reflow/pkg/host"
)

// NodeKind distinguishes the three node flavors.
type NodeKind int

const (
	KindElement NodeKind = iota
	KindText
	KindComment
)

// Node is one in-memory document node.
type Node struct {
	Kind NodeKind

	// Tag and NS are set for elements.
	Tag string
	NS  string

	// Text holds a text node's data or a comment's body.
	Text string

	mu        sync.Mutex
	attrs     map[string]string
	parent    *Node
	children  []*Node
	listeners map[string]host.EventHandler
}

// Attr returns the attribute value and whether it is set.
func (n *Node) Attr(key string) (string, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	v, ok := n.attrs[key]
	return v, ok
}

// AttrNames returns the set attribute names in sorted order.
func (n *Node) AttrNames() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	names := make([]string, 0, len(n.attrs))
	for k := range n.attrs {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Children returns a snapshot of the child list.
func (n *Node) Children() []*Node {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]*Node, len(n.children))
	copy(out, n.children)
	return out
}

// FirstChild returns the first child, or nil.
func (n *Node) FirstChild() *Node {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.children) == 0 {
		return nil
	}
	return n.children[0]
}

// Dispatch delivers an event to the handler installed on this node.
// Returns false when no handler is installed for the event type.
func (n *Node) Dispatch(e host.Event) bool {
	n.mu.Lock()
	h := n.listeners[e.Type]
	n.mu.Unlock()

	if h == nil {
		return false
	}
	if e.Target == nil {
		e.Target = n
	}
	h(e)
	return true
}

// Document is an in-memory document. The zero value is not usable; call New.
type Document struct {
	root *Node
}

// New creates a document with a root element of the given tag.
func New(rootTag string) *Document {
	return &Document{root: &Node{Kind: KindElement, Tag: rootTag}}
}

// Root returns the document's root element.
func (d *Document) Root() *Node {
	return d.root
}

func (d *Document) CreateElement(tag string) host.Node {
	return &Node{Kind: KindElement, Tag: tag}
}

func (d *Document) CreateElementNS(ns, tag string) host.Node {
	return &Node{Kind: KindElement, Tag: tag, NS: ns}
}

func (d *Document) CreateText(text string) host.Node {
	return &Node{Kind: KindText, Text: text}
}

func (d *Document) CreateComment(text string) host.Node {
	return &Node{Kind: KindComment, Text: text}
}

func (d *Document) SetTextContent(n host.Node, text string) {
	node := n.(*Node)
	node.mu.Lock()
	defer node.mu.Unlock()

	if node.Kind == KindElement {
		// Setting text content replaces all children with one text node.
		for _, c := range node.children {
			c.mu.Lock()
			c.parent = nil
			c.mu.Unlock()
		}
		child := &Node{Kind: KindText, Text: text, parent: node}
		node.children = []*Node{child}
		return
	}
	node.Text = text
}

func (d *Document) SetAttribute(n host.Node, key, value string) {
	node := n.(*Node)
	node.mu.Lock()
	defer node.mu.Unlock()
	if node.attrs == nil {
		node.attrs = make(map[string]string)
	}
	node.attrs[key] = value
}

func (d *Document) RemoveAttribute(n host.Node, key string) {
	node := n.(*Node)
	node.mu.Lock()
	defer node.mu.Unlock()
	delete(node.attrs, key)
}

func (d *Document) AppendChild(parent, child host.Node) {
	p, c := parent.(*Node), child.(*Node)
	d.detach(c)

	p.mu.Lock()
	p.children = append(p.children, c)
	p.mu.Unlock()

	c.mu.Lock()
	c.parent = p
	c.mu.Unlock()
}

func (d *Document) InsertBefore(parent, child, ref host.Node) {
	p, c := parent.(*Node), child.(*Node)
	r, _ := ref.(*Node)
	if r == nil {
		d.AppendChild(parent, child)
		return
	}

	d.detach(c)

	p.mu.Lock()
	idx := len(p.children)
	for i, existing := range p.children {
		if existing == r {
			idx = i
			break
		}
	}
	p.children = append(p.children, nil)
	copy(p.children[idx+1:], p.children[idx:])
	p.children[idx] = c
	p.mu.Unlock()

	c.mu.Lock()
	c.parent = p
	c.mu.Unlock()
}

func (d *Document) RemoveChild(parent, child host.Node) {
	p, c := parent.(*Node), child.(*Node)

	p.mu.Lock()
	for i, existing := range p.children {
		if existing == c {
			p.children = append(p.children[:i], p.children[i+1:]...)
			break
		}
	}
	p.mu.Unlock()

	c.mu.Lock()
	c.parent = nil
	c.mu.Unlock()
}

func (d *Document) ParentNode(n host.Node) host.Node {
	node := n.(*Node)
	node.mu.Lock()
	defer node.mu.Unlock()
	if node.parent == nil {
		return nil
	}
	return node.parent
}

func (d *Document) NextSibling(n host.Node) host.Node {
	node := n.(*Node)
	node.mu.Lock()
	p := node.parent
	node.mu.Unlock()
	if p == nil {
		return nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	for i, c := range p.children {
		if c == node && i+1 < len(p.children) {
			return p.children[i+1]
		}
	}
	return nil
}

func (d *Document) TagName(n host.Node) string {
	return n.(*Node).Tag
}

// FirstChild returns a node's first child, or nil.
func (d *Document) FirstChild(n host.Node) host.Node {
	c := n.(*Node).FirstChild()
	if c == nil {
		return nil
	}
	return c
}

// NodeKind classifies a node for hydration.
func (d *Document) NodeKind(n host.Node) host.NodeKind {
	switch n.(*Node).Kind {
	case KindText:
		return host.TextNode
	case KindComment:
		return host.CommentNode
	}
	return host.ElementNode
}

// SetEventListener installs or, with a nil handler, removes the handler for
// one event name on a node.
func (d *Document) SetEventListener(n host.Node, event string, h host.EventHandler) {
	node := n.(*Node)
	node.mu.Lock()
	defer node.mu.Unlock()
	if h == nil {
		delete(node.listeners, event)
		return
	}
	if node.listeners == nil {
		node.listeners = make(map[string]host.EventHandler)
	}
	node.listeners[event] = h
}

// detach removes c from its current parent, if any.
func (d *Document) detach(c *Node) {
	c.mu.Lock()
	p := c.parent
	c.mu.Unlock()
	if p == nil {
		return
	}
	d.RemoveChild(p, c)
}
