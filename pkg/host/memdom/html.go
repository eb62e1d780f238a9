package memdom

import "strings"

// voidElements never carry children or a closing tag.
var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true,
	"hr": true, "img": true, "input": true, "link": true, "meta": true,
	"param": true, "source": true, "track": true, "wbr": true,
}

// HTML serializes the document from its root element.
func (d *Document) HTML() string {
	var buf strings.Builder
	writeNode(&buf, d.root)
	return buf.String()
}

// OuterHTML serializes a single node and its subtree.
func OuterHTML(n *Node) string {
	var buf strings.Builder
	writeNode(&buf, n)
	return buf.String()
}

func writeNode(buf *strings.Builder, n *Node) {
	switch n.Kind {
	case KindText:
		buf.WriteString(escapeHTML(n.Text))
	case KindComment:
		buf.WriteString("<!--")
		buf.WriteString(n.Text)
		buf.WriteString("-->")
	case KindElement:
		buf.WriteByte('<')
		buf.WriteString(n.Tag)
		for _, name := range n.AttrNames() {
			v, _ := n.Attr(name)
			buf.WriteByte(' ')
			buf.WriteString(name)
			buf.WriteString(`="`)
			buf.WriteString(escapeAttr(v))
			buf.WriteByte('"')
		}
		buf.WriteByte('>')

		if voidElements[n.Tag] {
			return
		}
		for _, c := range n.Children() {
			writeNode(buf, c)
		}
		buf.WriteString("</")
		buf.WriteString(n.Tag)
		buf.WriteByte('>')
	}
}

// escapeHTML escapes text for safe inclusion in HTML content.
func escapeHTML(s string) string {
	var buf strings.Builder
	buf.Grow(len(s))

	for _, r := range s {
		switch r {
		case '&':
			buf.WriteString("&amp;")
		case '<':
			buf.WriteString("&lt;")
		case '>':
			buf.WriteString("&gt;")
		case '"':
			buf.WriteString("&quot;")
		case '\'':
			buf.WriteString("&#39;")
		default:
			buf.WriteRune(r)
		}
	}

	return buf.String()
}

// escapeAttr escapes text for attribute values, additionally covering
// whitespace characters that could break attribute parsing.
func escapeAttr(s string) string {
	var buf strings.Builder
	buf.Grow(len(s))

	for _, r := range s {
		switch r {
		case '&':
			buf.WriteString("&amp;")
		case '<':
			buf.WriteString("&lt;")
		case '>':
			buf.WriteString("&gt;")
		case '"':
			buf.WriteString("&quot;")
		case '\'':
			buf.WriteString("&#39;")
		case '\n':
			buf.WriteString("&#10;")
		case '\r':
			buf.WriteString("&#13;")
		case '\t':
			buf.WriteString("&#9;")
		default:
			buf.WriteRune(r)
		}
	}

	return buf.String()
}
