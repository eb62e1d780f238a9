package vdom

import (
	"log/slog"

	"github.com/reflow-dev/reflow/pkg/host"
)

// emptyNode is the old-side placeholder passed to module create hooks.
var emptyNode = &VNode{Kind: KindElement}

// PatcherOption configures a Patcher.
type PatcherOption func(*Patcher)

// WithModules replaces the default module table.
func WithModules(mods []Module) PatcherOption {
	return func(p *Patcher) {
		p.modules = mods
	}
}

// WithLogger sets the logger used for reconciliation diagnostics.
// Defaults to slog.Default().
func WithLogger(logger *slog.Logger) PatcherOption {
	return func(p *Patcher) {
		p.logger = logger
	}
}

// Patcher applies the minimal transformation from one descriptor tree to
// the next through an injected host backend. A Patcher is not safe for
// concurrent use; each session drives its own on the scheduler loop.
type Patcher struct {
	ops     host.Ops
	modules []Module
	logger  *slog.Logger

	// insertQueue collects nodes whose Insert hook must fire once the whole
	// patch has attached them.
	insertQueue []*VNode
}

// NewPatcher creates a patcher over the given backend with the default
// module table.
func NewPatcher(ops host.Ops, opts ...PatcherOption) *Patcher {
	p := &Patcher{
		ops:     ops,
		modules: DefaultModules(),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Mount creates the tree for v and appends it under parent. Used for the
// very first render, when no previous tree exists.
func (p *Patcher) Mount(parent host.Node, v *VNode) host.Node {
	p.insertQueue = nil
	p.createElm(v, parent, nil)
	p.flushInsertQueue()
	return v.Elm
}

// Patch transforms the host tree rendered from old into one matching new
// and returns new's host node. Same logical nodes are patched in place;
// anything else is replaced wholesale.
func (p *Patcher) Patch(old, new *VNode) host.Node {
	p.insertQueue = nil

	if sameVnode(old, new) {
		p.patchVnode(old, new)
	} else {
		// Not the same node: create the new tree next to the old one, then
		// drop the old subtree.
		elm := old.Elm
		parent := p.ops.ParentNode(elm)
		p.createElm(new, parent, p.ops.NextSibling(elm))

		if parent != nil {
			p.removeVnodes(parent, []*VNode{old}, 0, 0)
		} else {
			p.invokeDestroyHook(old)
		}
	}

	p.flushInsertQueue()
	return new.Elm
}

// Destroy tears down the tree rendered from v, firing destroy hooks and
// detaching the root host node.
func (p *Patcher) Destroy(v *VNode) {
	if v == nil || v.Elm == nil {
		p.invokeDestroyHook(v)
		return
	}
	if parent := p.ops.ParentNode(v.Elm); parent != nil {
		p.removeVnodes(parent, []*VNode{v}, 0, 0)
		return
	}
	p.invokeDestroyHook(v)
}

func (p *Patcher) flushInsertQueue() {
	queue := p.insertQueue
	p.insertQueue = nil
	for _, v := range queue {
		v.Hooks.Insert(v)
	}
}

// createElm realizes v as a host node and inserts it under parent before
// ref. A nil parent creates the subtree detached.
func (p *Patcher) createElm(v *VNode, parent, ref host.Node) {
	if v.Hooks != nil && v.Hooks.Init != nil {
		// Component node: Init builds and mounts the child instance,
		// stamping v.Elm with the child's root element.
		v.Hooks.Init(v)
		if v.Elm != nil {
			p.insert(parent, v.Elm, ref)
			if v.Hooks.Insert != nil {
				p.insertQueue = append(p.insertQueue, v)
			}
			return
		}
	}

	switch v.Kind {
	case KindText:
		v.Elm = p.ops.CreateText(v.Text)
	case KindComment:
		v.Elm = p.ops.CreateComment(v.Text)
	case KindElement:
		if v.NS != "" {
			v.Elm = p.ops.CreateElementNS(v.NS, v.Tag)
		} else {
			v.Elm = p.ops.CreateElement(v.Tag)
		}

		p.createChildren(v)
		if v.Data != nil {
			for _, m := range p.modules {
				m.Create(p.ops, emptyNode, v)
			}
		}
		if v.Hooks != nil && v.Hooks.Insert != nil {
			p.insertQueue = append(p.insertQueue, v)
		}
	}

	p.insert(parent, v.Elm, ref)
}

func (p *Patcher) createChildren(v *VNode) {
	p.warnDuplicateKeys(v.Children)
	for _, c := range v.Children {
		p.createElm(c, v.Elm, nil)
	}
}

func (p *Patcher) insert(parent, elm, ref host.Node) {
	if parent == nil || elm == nil {
		return
	}
	if ref != nil {
		p.ops.InsertBefore(parent, elm, ref)
		return
	}
	p.ops.AppendChild(parent, elm)
}

// patchVnode updates the host node shared by old and new in place.
func (p *Patcher) patchVnode(old, new *VNode) {
	if old == new {
		return
	}

	elm := old.Elm
	new.Elm = elm

	// Hoisted static and render-once subtrees are carried over untouched.
	if new.IsStatic && old.IsStatic && new.Key == old.Key && (new.IsCloned || new.Once) {
		new.Component = old.Component
		return
	}

	if new.Hooks != nil && new.Hooks.Prepatch != nil {
		new.Hooks.Prepatch(old, new)
	}

	if new.Data != nil {
		for _, m := range p.modules {
			m.Update(p.ops, old, new)
		}
	}

	switch new.Kind {
	case KindText, KindComment:
		if old.Text != new.Text {
			p.ops.SetTextContent(elm, new.Text)
		}
	case KindElement:
		switch {
		case len(old.Children) > 0 && len(new.Children) > 0:
			if !sameChildren(old.Children, new.Children) {
				p.updateChildren(elm, old.Children, new.Children)
			}
		case len(new.Children) > 0:
			p.warnDuplicateKeys(new.Children)
			p.addVnodes(elm, nil, new.Children, 0, len(new.Children)-1)
		case len(old.Children) > 0:
			p.removeVnodes(elm, old.Children, 0, len(old.Children)-1)
		}
	}

	if new.Hooks != nil && new.Hooks.Postpatch != nil {
		new.Hooks.Postpatch(old, new)
	}
}

// sameChildren reports whether both renders produced the identical child
// slice, which static subtree reuse can cause.
func sameChildren(a, b []*VNode) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// updateChildren reconciles two child lists with four cursors advancing
// inward, falling back to a lazily built key index for arbitrary moves.
func (p *Patcher) updateChildren(parentElm host.Node, oldCh, newCh []*VNode) {
	oldStartIdx, newStartIdx := 0, 0
	oldEndIdx := len(oldCh) - 1
	newEndIdx := len(newCh) - 1

	oldStart, oldEnd := oldCh[oldStartIdx], oldCh[oldEndIdx]
	newStart, newEnd := newCh[newStartIdx], newCh[newEndIdx]

	var oldKeyIdx map[string]int

	p.warnDuplicateKeys(newCh)

	for oldStartIdx <= oldEndIdx && newStartIdx <= newEndIdx {
		switch {
		case oldStart == nil:
			// Slot nulled out by an earlier key match.
			oldStartIdx++
			if oldStartIdx <= oldEndIdx {
				oldStart = oldCh[oldStartIdx]
			}
		case oldEnd == nil:
			oldEndIdx--
			if oldStartIdx <= oldEndIdx {
				oldEnd = oldCh[oldEndIdx]
			}
		case sameVnode(oldStart, newStart):
			p.patchVnode(oldStart, newStart)
			oldStartIdx++
			newStartIdx++
			if oldStartIdx <= oldEndIdx {
				oldStart = oldCh[oldStartIdx]
			}
			if newStartIdx <= newEndIdx {
				newStart = newCh[newStartIdx]
			}
		case sameVnode(oldEnd, newEnd):
			p.patchVnode(oldEnd, newEnd)
			oldEndIdx--
			newEndIdx--
			if oldStartIdx <= oldEndIdx {
				oldEnd = oldCh[oldEndIdx]
			}
			if newStartIdx <= newEndIdx {
				newEnd = newCh[newEndIdx]
			}
		case sameVnode(oldStart, newEnd):
			// Element moved right.
			p.patchVnode(oldStart, newEnd)
			p.insert(parentElm, oldStart.Elm, p.ops.NextSibling(oldEnd.Elm))
			oldStartIdx++
			newEndIdx--
			if oldStartIdx <= oldEndIdx {
				oldStart = oldCh[oldStartIdx]
			}
			if newStartIdx <= newEndIdx {
				newEnd = newCh[newEndIdx]
			}
		case sameVnode(oldEnd, newStart):
			// Element moved left.
			p.patchVnode(oldEnd, newStart)
			p.ops.InsertBefore(parentElm, oldEnd.Elm, oldStart.Elm)
			oldEndIdx--
			newStartIdx++
			if oldStartIdx <= oldEndIdx {
				oldEnd = oldCh[oldEndIdx]
			}
			if newStartIdx <= newEndIdx {
				newStart = newCh[newStartIdx]
			}
		default:
			if oldKeyIdx == nil {
				oldKeyIdx = buildKeyIndex(oldCh, oldStartIdx, oldEndIdx)
			}

			idx := -1
			if newStart.Key != "" {
				if i, ok := oldKeyIdx[newStart.Key]; ok {
					idx = i
				}
			} else {
				idx = findIdxInOld(newStart, oldCh, oldStartIdx, oldEndIdx)
			}

			if idx < 0 {
				// Genuinely new element.
				p.createElm(newStart, parentElm, oldStart.Elm)
			} else {
				match := oldCh[idx]
				if sameVnode(match, newStart) {
					p.patchVnode(match, newStart)
					oldCh[idx] = nil
					p.ops.InsertBefore(parentElm, match.Elm, oldStart.Elm)
				} else {
					// Same key, different element: treat as new.
					p.createElm(newStart, parentElm, oldStart.Elm)
				}
			}

			newStartIdx++
			if newStartIdx <= newEndIdx {
				newStart = newCh[newStartIdx]
			}
		}
	}

	if oldStartIdx > oldEndIdx {
		// Old exhausted first: the remaining new nodes are created before
		// the node that follows the new range.
		var ref host.Node
		if newEndIdx+1 < len(newCh) {
			ref = newCh[newEndIdx+1].Elm
		}
		p.addVnodes(parentElm, ref, newCh, newStartIdx, newEndIdx)
	} else if newStartIdx > newEndIdx {
		p.removeVnodes(parentElm, oldCh, oldStartIdx, oldEndIdx)
	}
}

func buildKeyIndex(children []*VNode, start, end int) map[string]int {
	idx := make(map[string]int)
	for i := start; i <= end; i++ {
		if c := children[i]; c != nil && c.Key != "" {
			idx[c.Key] = i
		}
	}
	return idx
}

// findIdxInOld scans for an unkeyed old child that can host newNode.
func findIdxInOld(newNode *VNode, oldCh []*VNode, start, end int) int {
	for i := start; i <= end; i++ {
		if c := oldCh[i]; c != nil && c.Key == "" && sameVnode(c, newNode) {
			return i
		}
	}
	return -1
}

func (p *Patcher) addVnodes(parentElm host.Node, ref host.Node, vnodes []*VNode, start, end int) {
	for i := start; i <= end; i++ {
		p.createElm(vnodes[i], parentElm, ref)
	}
}

func (p *Patcher) removeVnodes(parentElm host.Node, vnodes []*VNode, start, end int) {
	for i := start; i <= end; i++ {
		v := vnodes[i]
		if v == nil {
			continue
		}
		p.invokeDestroyHook(v)
		p.removeAndInvokeRemoveHook(parentElm, v)
	}
}

// removeAndInvokeRemoveHook detaches v's host node once every module that
// registered a remove hook has acknowledged completion.
func (p *Patcher) removeAndInvokeRemoveHook(parentElm host.Node, v *VNode) {
	elm := v.Elm
	if elm == nil {
		return
	}

	var removers []RemoveModule
	if v.Kind == KindElement && v.Data != nil {
		for _, m := range p.modules {
			if rm, ok := m.(RemoveModule); ok {
				removers = append(removers, rm)
			}
		}
	}

	if len(removers) == 0 {
		p.ops.RemoveChild(parentElm, elm)
		return
	}

	pending := len(removers)
	done := func() {
		pending--
		if pending == 0 {
			p.ops.RemoveChild(parentElm, elm)
		}
	}
	for _, rm := range removers {
		rm.Remove(p.ops, v, done)
	}
}

// InvokeDestroy fires destroy hooks for v's subtree without touching the
// host tree. Used when an ancestor is detaching the whole subtree anyway.
func (p *Patcher) InvokeDestroy(v *VNode) {
	p.invokeDestroyHook(v)
}

// invokeDestroyHook fires destroy hooks depth-recursively: the node's own
// component hook, then module destroy hooks, then children.
func (p *Patcher) invokeDestroyHook(v *VNode) {
	if v == nil {
		return
	}
	if v.Hooks != nil && v.Hooks.Destroy != nil {
		v.Hooks.Destroy(v)
	}
	if v.Data != nil {
		for _, m := range p.modules {
			if dm, ok := m.(DestroyModule); ok {
				dm.Destroy(p.ops, v)
			}
		}
	}
	for _, c := range v.Children {
		p.invokeDestroyHook(c)
	}
}

// warnDuplicateKeys reports repeated keys in one child list. Reconciliation
// proceeds best-effort; the duplicate is treated as a new node.
func (p *Patcher) warnDuplicateKeys(children []*VNode) {
	var seen map[string]bool
	for _, c := range children {
		if c == nil || c.Key == "" {
			continue
		}
		if seen == nil {
			seen = make(map[string]bool)
		}
		if seen[c.Key] {
			p.logger.Warn("duplicate key in child list, falling back to node creation",
				"key", c.Key,
				"tag", c.Tag)
		}
		seen[c.Key] = true
	}
}
