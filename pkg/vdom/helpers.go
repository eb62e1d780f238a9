package vdom

import "fmt"

// Text creates a text node.
func Text(content string) *VNode {
	return &VNode{
		Kind: KindText,
		Text: content,
	}
}

// Textf creates a formatted text node.
func Textf(format string, args ...any) *VNode {
	return Text(fmt.Sprintf(format, args...))
}

// Comment creates a comment node.
func Comment(text string) *VNode {
	return &VNode{
		Kind: KindComment,
		Text: text,
	}
}

// Empty creates the explicit empty marker a render function returns when it
// produces no output. Rendered as an empty comment.
func Empty() *VNode {
	return &VNode{Kind: KindComment}
}

// El creates an element node. Arguments are folded by type: *Data sets the
// node data, strings become text children, *VNode and []*VNode append
// children, nils are skipped.
func El(tag string, args ...any) *VNode {
	node := &VNode{Kind: KindElement, Tag: tag}

	for _, arg := range args {
		switch v := arg.(type) {
		case nil:
			continue
		case *Data:
			node.Data = v
		case *VNode:
			if v != nil {
				node.Children = append(node.Children, v)
			}
		case []*VNode:
			for _, c := range v {
				if c != nil {
					node.Children = append(node.Children, c)
				}
			}
		case string:
			node.Children = append(node.Children, Text(v))
		default:
			node.Children = append(node.Children, Textf("%v", v))
		}
	}

	return node
}

// ElKeyed creates an element node carrying a reconciliation key.
func ElKeyed(tag, key string, args ...any) *VNode {
	node := El(tag, args...)
	node.Key = key
	return node
}

// Attrs builds a Data with plain attributes from alternating key/value
// pairs.
func Attrs(pairs ...string) *Data {
	d := &Data{Attrs: make(map[string]string, len(pairs)/2)}
	for i := 0; i+1 < len(pairs); i += 2 {
		d.Attrs[pairs[i]] = pairs[i+1]
	}
	return d
}
