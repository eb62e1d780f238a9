package vdom

import (
	"testing"

	"github.com/reflow-dev/reflow/pkg/host"
	"github.com/reflow-dev/reflow/pkg/host/memdom"
)

// buildServerMarkup constructs the host tree a server render would have
// produced for the descriptor used in the hydration tests.
func buildServerMarkup(doc *memdom.Document) host.Node {
	ul := doc.CreateElement("ul")
	doc.SetAttribute(ul, "class", "todo")

	li := doc.CreateElement("li")
	doc.AppendChild(li, doc.CreateText("first"))
	doc.AppendChild(ul, li)

	doc.AppendChild(doc.Root(), ul)
	return ul
}

func TestHydrateAdoptsMarkup(t *testing.T) {
	doc := memdom.New("div")
	rec := host.NewRecorder(doc)
	p := NewPatcher(rec)

	ul := buildServerMarkup(doc)
	rec.Take()

	clicks := 0
	v := El("ul",
		(&Data{Class: []string{"todo"}}).Handle("click", func(host.Event) { clicks++ }),
		Li("first"),
	)

	if !p.Hydrate(ul, v) {
		t.Fatal("expected hydration to succeed")
	}
	if v.Elm != ul {
		t.Error("hydration should stamp the existing host node")
	}

	// No structural host operations during successful hydration.
	for _, op := range rec.Take() {
		switch op.Kind {
		case host.OpCreateElement, host.OpCreateText, host.OpAppendChild, host.OpRemoveChild:
			t.Errorf("unexpected structural op %s during hydration", op.Kind)
		}
	}

	// Listeners are live on the adopted markup.
	ul.(*memdom.Node).Dispatch(host.Event{Type: "click"})
	if clicks != 1 {
		t.Errorf("expected hydrated listener to fire, got %d clicks", clicks)
	}

	// The adopted tree patches normally afterwards.
	next := El("ul",
		(&Data{Class: []string{"todo", "done"}}),
		Li("first"),
	)
	p.Patch(v, next)
	if got, _ := ul.(*memdom.Node).Attr("class"); got != "todo done" {
		t.Errorf("expected class updated after patch, got %q", got)
	}
}

func TestHydrateMismatchedTag(t *testing.T) {
	doc := memdom.New("div")
	p := NewPatcher(doc)

	ul := buildServerMarkup(doc)

	v := El("ol", Li("first"))
	if p.Hydrate(ul, v) {
		t.Error("expected hydration to fail on tag mismatch")
	}
}

func TestHydrateMismatchedChildCount(t *testing.T) {
	doc := memdom.New("div")
	p := NewPatcher(doc)

	ul := buildServerMarkup(doc)

	v := El("ul", (&Data{Class: []string{"todo"}}), Li("first"), Li("second"))
	if p.Hydrate(ul, v) {
		t.Error("expected hydration to fail when markup has fewer children")
	}
}

func TestHydrateRootRebuildsOnMismatch(t *testing.T) {
	doc := memdom.New("div")
	p := NewPatcher(doc)

	ul := buildServerMarkup(doc)

	v := El("ol", (&Data{Class: []string{"todo"}}), Li("first"))
	elm := p.HydrateRoot(ul, v)

	if elm == ul {
		t.Error("rebuild should produce a fresh host node")
	}
	want := `<div><ol class="todo"><li>first</li></ol></div>`
	if got := doc.HTML(); got != want {
		t.Errorf("expected %s, got %s", want, got)
	}
}

func TestHydrateTextCommentKindMismatch(t *testing.T) {
	doc := memdom.New("div")
	p := NewPatcher(doc)

	li := doc.CreateElement("li")
	doc.AppendChild(li, doc.CreateComment("first"))
	doc.AppendChild(doc.Root(), li)

	v := El("li", Text("first"))
	if p.Hydrate(li, v) {
		t.Error("expected hydration to fail when a text descriptor meets a comment node")
	}

	doc2 := memdom.New("div")
	p2 := NewPatcher(doc2)

	li2 := doc2.CreateElement("li")
	doc2.AppendChild(li2, doc2.CreateText("note"))
	doc2.AppendChild(doc2.Root(), li2)

	v2 := El("li", Comment("note"))
	if p2.Hydrate(li2, v2) {
		t.Error("expected hydration to fail when a comment descriptor meets a text node")
	}
}

func TestHydrateTextDrift(t *testing.T) {
	doc := memdom.New("div")
	p := NewPatcher(doc)

	ul := buildServerMarkup(doc)

	// Stale text content is tolerated; the descriptor wins.
	v := El("ul", (&Data{Class: []string{"todo"}}), Li("fresh"))
	if !p.Hydrate(ul, v) {
		t.Fatal("expected hydration to succeed despite text drift")
	}
	if got := memdom.OuterHTML(ul.(*memdom.Node)); got != `<ul class="todo"><li>fresh</li></ul>` {
		t.Errorf("unexpected markup %s", got)
	}
}
