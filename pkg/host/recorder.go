package host

import "sync"

// OpKind names one recorded host operation.
type OpKind string

const (
	OpCreateElement   OpKind = "createElement"
	OpCreateElementNS OpKind = "createElementNS"
	OpCreateText      OpKind = "createText"
	OpCreateComment   OpKind = "createComment"
	OpSetTextContent  OpKind = "setTextContent"
	OpSetAttribute    OpKind = "setAttribute"
	OpRemoveAttribute OpKind = "removeAttribute"
	OpAppendChild     OpKind = "appendChild"
	OpInsertBefore    OpKind = "insertBefore"
	OpRemoveChild     OpKind = "removeChild"
)

// Op is one recorded mutation, shaped for the wire: node references are
// replaced by stable numeric ids assigned in first-seen order.
type Op struct {
	Kind   OpKind `json:"op"`
	Node   uint64 `json:"node,omitempty"`
	Parent uint64 `json:"parent,omitempty"`
	Ref    uint64 `json:"ref,omitempty"`
	Tag    string `json:"tag,omitempty"`
	NS     string `json:"ns,omitempty"`
	Key    string `json:"key,omitempty"`
	Value  string `json:"value,omitempty"`
	Text   string `json:"text,omitempty"`
}

// Recorder wraps an Ops backend, forwarding every call and keeping a log of
// the operations performed. Sessions drain the log into patch frames; tests
// assert on it directly.
//
// Node values passed through a Recorder must be comparable; both memdom
// nodes and remote node handles are.
type Recorder struct {
	inner Ops

	mu    sync.Mutex
	ids   map[Node]uint64
	nodes map[uint64]Node
	next  uint64
	ops   []Op
}

// NewRecorder wraps inner.
func NewRecorder(inner Ops) *Recorder {
	return &Recorder{
		inner: inner,
		ids:   make(map[Node]uint64),
		nodes: make(map[uint64]Node),
	}
}

// Take returns the operations recorded since the last Take and clears the
// log.
func (r *Recorder) Take() []Op {
	r.mu.Lock()
	defer r.mu.Unlock()
	ops := r.ops
	r.ops = nil
	return ops
}

// Count returns how many recorded operations (since the last Take) have the
// given kind.
func (r *Recorder) Count(kind OpKind) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, op := range r.ops {
		if op.Kind == kind {
			n++
		}
	}
	return n
}

// NodeID returns the stable id assigned to n, registering it if needed.
// Lets a session name a pre-existing mount point in its patch stream.
func (r *Recorder) NodeID(n Node) uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.id(n)
}

// NodeByID returns the node a stable id refers to, or nil. Sessions use it
// to resolve the target of a client event frame.
func (r *Recorder) NodeByID(id uint64) Node {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.nodes[id]
}

// id returns the stable id for n, assigning the next one on first sight.
// Caller holds r.mu.
func (r *Recorder) id(n Node) uint64 {
	if n == nil {
		return 0
	}
	if id, ok := r.ids[n]; ok {
		return id
	}
	r.next++
	r.ids[n] = r.next
	r.nodes[r.next] = n
	return r.next
}

func (r *Recorder) CreateElement(tag string) Node {
	n := r.inner.CreateElement(tag)
	r.mu.Lock()
	id := r.id(n)
	r.ops = append(r.ops, Op{Kind: OpCreateElement, Node: id, Tag: tag})
	r.mu.Unlock()
	return n
}

func (r *Recorder) CreateElementNS(ns, tag string) Node {
	n := r.inner.CreateElementNS(ns, tag)
	r.mu.Lock()
	id := r.id(n)
	r.ops = append(r.ops, Op{Kind: OpCreateElementNS, Node: id, Tag: tag, NS: ns})
	r.mu.Unlock()
	return n
}

func (r *Recorder) CreateText(text string) Node {
	n := r.inner.CreateText(text)
	r.mu.Lock()
	id := r.id(n)
	r.ops = append(r.ops, Op{Kind: OpCreateText, Node: id, Text: text})
	r.mu.Unlock()
	return n
}

func (r *Recorder) CreateComment(text string) Node {
	n := r.inner.CreateComment(text)
	r.mu.Lock()
	id := r.id(n)
	r.ops = append(r.ops, Op{Kind: OpCreateComment, Node: id, Text: text})
	r.mu.Unlock()
	return n
}

func (r *Recorder) SetTextContent(n Node, text string) {
	r.inner.SetTextContent(n, text)
	r.mu.Lock()
	r.ops = append(r.ops, Op{Kind: OpSetTextContent, Node: r.id(n), Text: text})
	r.mu.Unlock()
}

func (r *Recorder) SetAttribute(n Node, key, value string) {
	r.inner.SetAttribute(n, key, value)
	r.mu.Lock()
	r.ops = append(r.ops, Op{Kind: OpSetAttribute, Node: r.id(n), Key: key, Value: value})
	r.mu.Unlock()
}

func (r *Recorder) RemoveAttribute(n Node, key string) {
	r.inner.RemoveAttribute(n, key)
	r.mu.Lock()
	r.ops = append(r.ops, Op{Kind: OpRemoveAttribute, Node: r.id(n), Key: key})
	r.mu.Unlock()
}

func (r *Recorder) AppendChild(parent, child Node) {
	r.inner.AppendChild(parent, child)
	r.mu.Lock()
	r.ops = append(r.ops, Op{Kind: OpAppendChild, Parent: r.id(parent), Node: r.id(child)})
	r.mu.Unlock()
}

func (r *Recorder) InsertBefore(parent, child, ref Node) {
	r.inner.InsertBefore(parent, child, ref)
	r.mu.Lock()
	r.ops = append(r.ops, Op{Kind: OpInsertBefore, Parent: r.id(parent), Node: r.id(child), Ref: r.id(ref)})
	r.mu.Unlock()
}

func (r *Recorder) RemoveChild(parent, child Node) {
	r.inner.RemoveChild(parent, child)
	r.mu.Lock()
	r.ops = append(r.ops, Op{Kind: OpRemoveChild, Parent: r.id(parent), Node: r.id(child)})
	r.mu.Unlock()
}

func (r *Recorder) ParentNode(n Node) Node  { return r.inner.ParentNode(n) }
func (r *Recorder) NextSibling(n Node) Node { return r.inner.NextSibling(n) }
func (r *Recorder) TagName(n Node) string   { return r.inner.TagName(n) }

// FirstChild forwards to the wrapped backend when it supports child
// enumeration.
func (r *Recorder) FirstChild(n Node) Node {
	if cw, ok := r.inner.(ChildWalker); ok {
		return cw.FirstChild(n)
	}
	return nil
}

// NodeKind forwards to the wrapped backend when it supports child
// enumeration.
func (r *Recorder) NodeKind(n Node) NodeKind {
	if cw, ok := r.inner.(ChildWalker); ok {
		return cw.NodeKind(n)
	}
	return ElementNode
}

// SetEventListener forwards to the wrapped backend when it supports events.
func (r *Recorder) SetEventListener(n Node, event string, h EventHandler) {
	if et, ok := r.inner.(EventTarget); ok {
		et.SetEventListener(n, event, h)
	}
}
