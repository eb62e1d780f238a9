// Package vdom provides Reflow's virtual node trees and the reconciler that
// realizes them through a rendering backend.
//
// A render pass produces a fresh immutable VNode tree; the previous tree is
// kept only long enough to be diffed against. The Patcher computes the
// minimal transformation between the two and applies it through host.Ops,
// so the same reconciler drives the in-memory document, tests, and a remote
// document behind a patch stream.
//
// # Core Types
//
// VNode describes one rendered unit: an element, a text node, or a comment.
// Data carries the cross-cutting payload (attributes, classes, styles,
// listeners) consumed by the module table; the reconciler itself never
// inspects it.
//
// # Element API
//
// Elements are created using variadic factory functions:
//
//	Div(Attrs("id", "main"),
//	    H1("Title"),
//	    P("Content"),
//	    Button(Attrs("type", "button").Handle("click", onClick), "Add"),
//	)
//
// # Reconciliation
//
// Patch matches nodes across renders by key, tag and kind. Keyed child
// lists are reconciled with a dual-ended cursor walk that detects moves
// without rebuilding, falling back to a key index for arbitrary
// permutations.
//
// # Hydration
//
// Hydrate adopts existing markup (typically server-rendered) instead of
// rebuilding it, verifying shape node-by-node and degrading to a full
// rebuild on mismatch.
package vdom
