package memdom

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/reflow-dev/reflow/pkg/host"
)

func TestTreeOperations(t *testing.T) {
	d := New("div")
	root := d.Root()

	a := d.CreateElement("span").(*Node)
	b := d.CreateElement("span").(*Node)
	c := d.CreateElement("span").(*Node)

	d.AppendChild(root, a)
	d.AppendChild(root, c)
	d.InsertBefore(root, b, c)

	kids := root.Children()
	if len(kids) != 3 || kids[0] != a || kids[1] != b || kids[2] != c {
		t.Fatalf("expected children [a b c], got %v", kids)
	}

	if d.NextSibling(a) != b {
		t.Error("expected b after a")
	}
	if d.NextSibling(c) != nil {
		t.Error("expected no sibling after c")
	}
	if d.ParentNode(b) != root {
		t.Error("expected root as parent of b")
	}

	// Inserting an attached node relocates it.
	d.InsertBefore(root, c, a)
	kids = root.Children()
	if len(kids) != 3 || kids[0] != c || kids[1] != a || kids[2] != b {
		t.Fatalf("expected children [c a b] after move, got %v", kids)
	}

	d.RemoveChild(root, a)
	if len(root.Children()) != 2 {
		t.Error("expected 2 children after removal")
	}
	if d.ParentNode(a) != nil {
		t.Error("removed node should have no parent")
	}
}

func TestInsertBeforeNilRefAppends(t *testing.T) {
	d := New("div")
	a := d.CreateElement("a")
	d.InsertBefore(d.Root(), a, nil)

	kids := d.Root().Children()
	if len(kids) != 1 || kids[0] != a {
		t.Errorf("nil ref should append, got %v", kids)
	}
}

func TestSetTextContentReplacesChildren(t *testing.T) {
	d := New("div")
	d.AppendChild(d.Root(), d.CreateElement("span"))
	d.AppendChild(d.Root(), d.CreateElement("span"))

	d.SetTextContent(d.Root(), "hello")

	kids := d.Root().Children()
	if len(kids) != 1 || kids[0].Kind != KindText || kids[0].Text != "hello" {
		t.Errorf("expected single text child, got %v", kids)
	}
}

func TestAttributes(t *testing.T) {
	d := New("div")
	n := d.CreateElement("input")

	d.SetAttribute(n, "type", "text")
	d.SetAttribute(n, "value", "x")

	if v, ok := n.(*Node).Attr("type"); !ok || v != "text" {
		t.Errorf("expected type=text, got %q (%v)", v, ok)
	}

	d.RemoveAttribute(n, "value")
	if _, ok := n.(*Node).Attr("value"); ok {
		t.Error("expected value removed")
	}

	names := n.(*Node).AttrNames()
	if len(names) != 1 || names[0] != "type" {
		t.Errorf("expected [type], got %v", names)
	}
}

func TestDispatch(t *testing.T) {
	d := New("div")
	btn := d.CreateElement("button")

	var got host.Event
	d.SetEventListener(btn, "click", func(e host.Event) { got = e })

	if !btn.(*Node).Dispatch(host.Event{Type: "click"}) {
		t.Fatal("expected handler to fire")
	}
	if got.Type != "click" || got.Target != btn {
		t.Errorf("expected click on btn, got %+v", got)
	}

	if btn.(*Node).Dispatch(host.Event{Type: "keydown"}) {
		t.Error("unexpected handler for keydown")
	}

	// A nil handler removes the listener.
	d.SetEventListener(btn, "click", nil)
	if btn.(*Node).Dispatch(host.Event{Type: "click"}) {
		t.Error("expected listener removed")
	}
}

func TestHTMLGolden(t *testing.T) {
	d := New("div")

	ul := d.CreateElement("ul")
	d.SetAttribute(ul, "class", "list")

	li1 := d.CreateElement("li")
	d.SetAttribute(li1, "data-key", "a")
	d.AppendChild(li1, d.CreateText(`Tom & "Jerry" <3`))

	li2 := d.CreateElement("li")
	d.SetTextContent(li2, "plain")

	d.AppendChild(ul, li1)
	d.AppendChild(ul, li2)
	d.AppendChild(d.Root(), ul)
	d.AppendChild(d.Root(), d.CreateComment("session 1"))

	img := d.CreateElement("img")
	d.SetAttribute(img, "src", "/x.png")
	d.AppendChild(d.Root(), img)

	g := goldie.New(t)
	g.Assert(t, "document", []byte(d.HTML()))
}

func TestRecorderAssignsStableIDs(t *testing.T) {
	d := New("div")
	r := host.NewRecorder(d)

	n := r.CreateElement("span")
	r.AppendChild(d.Root(), n)
	r.SetAttribute(n, "class", "x")

	ops := r.Take()
	if len(ops) != 3 {
		t.Fatalf("expected 3 ops, got %d", len(ops))
	}
	if ops[0].Kind != host.OpCreateElement || ops[0].Tag != "span" {
		t.Errorf("unexpected first op %+v", ops[0])
	}
	if ops[1].Node != ops[0].Node {
		t.Errorf("append should reference the created node, got %+v", ops[1])
	}
	if ops[2].Kind != host.OpSetAttribute || ops[2].Key != "class" || ops[2].Value != "x" {
		t.Errorf("unexpected attribute op %+v", ops[2])
	}

	if len(r.Take()) != 0 {
		t.Error("Take should clear the log")
	}
}
