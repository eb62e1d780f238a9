package vdom

import (
	"github.com/reflow-dev/reflow/pkg/host"
)

// Hydrate adopts an existing host subtree, typically server-rendered
// markup, as the realization of v: host nodes are stamped onto the
// descriptor tree and listeners are installed without rebuilding anything.
// Returns false when the host tree's shape does not match the descriptor
// tree; nothing is rolled back, the caller is expected to rebuild.
func (p *Patcher) Hydrate(elm host.Node, v *VNode) bool {
	walker, ok := p.ops.(host.ChildWalker)
	if !ok {
		return false
	}

	p.insertQueue = nil
	if !p.hydrateNode(walker, elm, v) {
		p.insertQueue = nil
		return false
	}
	p.flushInsertQueue()
	return true
}

// HydrateRoot hydrates v onto elm, degrading to a create-and-replace of the
// host subtree when verification fails.
func (p *Patcher) HydrateRoot(elm host.Node, v *VNode) host.Node {
	if p.Hydrate(elm, v) {
		return v.Elm
	}

	p.logger.Warn("hydration mismatch, rebuilding subtree",
		"tag", v.Tag,
		"key", v.Key)

	parent := p.ops.ParentNode(elm)
	p.insertQueue = nil
	p.createElm(v, parent, p.ops.NextSibling(elm))
	if parent != nil {
		p.ops.RemoveChild(parent, elm)
	}
	p.flushInsertQueue()
	return v.Elm
}

func (p *Patcher) hydrateNode(w host.ChildWalker, elm host.Node, v *VNode) bool {
	v.Elm = elm

	// Unresolved async placeholders hydrate once the factory resolves.
	if v.AsyncFactory != nil {
		return true
	}

	if v.Hooks != nil && v.Hooks.Init != nil {
		// Component node: the instance mounts onto the pre-stamped element.
		v.Hooks.Init(v)
		if v.Hooks.Insert != nil {
			p.insertQueue = append(p.insertQueue, v)
		}
		return true
	}

	switch v.Kind {
	case KindElement:
		if p.ops.TagName(elm) != v.Tag {
			return false
		}

		child := w.FirstChild(elm)
		for _, c := range v.Children {
			if child == nil {
				return false
			}
			if !p.hydrateNode(w, child, c) {
				return false
			}
			child = p.ops.NextSibling(child)
		}
		if child != nil {
			// Host has more children than the descriptor tree.
			return false
		}

		if v.Data != nil {
			for _, m := range p.modules {
				m.Create(p.ops, emptyNode, v)
			}
		}
		if v.Hooks != nil && v.Hooks.Insert != nil {
			p.insertQueue = append(p.insertQueue, v)
		}
		return true

	case KindText, KindComment:
		want := host.TextNode
		if v.Kind == KindComment {
			want = host.CommentNode
		}
		if w.NodeKind(elm) != want {
			return false
		}
		// Content drift is tolerated; the descriptor wins.
		p.ops.SetTextContent(elm, v.Text)
		return true
	}

	return false
}
