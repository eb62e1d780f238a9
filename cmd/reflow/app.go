package main

import (
	"fmt"

	"github.com/reflow-dev/reflow/pkg/component"
	"github.com/reflow-dev/reflow/pkg/host"
	"github.com/reflow-dev/reflow/pkg/vdom"
)

// demoApp is the component served by `reflow serve` and driven by
// `reflow bench`: a counter plus a keyed list that rotates on every
// click, so updates exercise both text patching and reconciliation.
func demoApp(listSize int) component.Options {
	return component.Options{
		Name: "demo",
		Data: func(*component.Instance) map[string]any {
			items := make([]string, listSize)
			for i := range items {
				items[i] = fmt.Sprintf("item-%d", i)
			}
			return map[string]any{
				"count": 0,
				"items": items,
			}
		},
		Render: func(i *component.Instance) *vdom.VNode {
			items := i.Get("items").([]string)
			lis := make([]any, 0, len(items)+1)
			lis = append(lis, vdom.Attrs("class", "items"))
			for _, it := range items {
				lis = append(lis, vdom.ElKeyed("li", it, it))
			}

			return vdom.Div(
				vdom.H1("Reflow demo"),
				vdom.Span(vdom.Textf("%v", i.Get("count"))),
				vdom.Button(
					vdom.Attrs("type", "button").Handle("click", func(host.Event) {
						i.Set("count", i.Get("count").(int)+1)
						if len(items) > 1 {
							rotated := append(append([]string{}, items[1:]...), items[0])
							i.Set("items", rotated)
						}
					}),
					"+",
				),
				vdom.Ul(lis...),
			)
		},
	}
}
