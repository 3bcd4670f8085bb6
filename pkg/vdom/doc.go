// Package vdom implements the view-tree reconciliation engine.
//
// A view tree is an immutable description of a UI fragment. It is built
// fresh on every update from constructors such as Element, Keyed, Text, Map,
// Lazy and Custom, and thrown away after it has been diffed. The live host
// tree (see package host) is the only long-lived structure.
//
// # Core Types
//
// Node is a view node. Facts holds the non-child metadata of an element:
// properties, attributes, namespaced attributes, styles and event handlers.
// Mapper transforms messages bubbling out of a mapped subtree. Widget is the
// escape hatch for opaque components that render and diff themselves.
//
// # Diffing
//
// Diff compares two view trees and returns a list of patches. Every patch is
// addressed by a pre-order position in the old tree (root 0). Composite
// nodes record their descendant count at construction, which lets both the
// differ and the patch locator skip whole subtrees.
//
//	patches := vdom.Diff(prev, next)
//	root, err = patcher.Apply(root, prev, patches)
//
// Keyed children are reconciled with a two-cursor walk and one-step
// lookahead; a key removed in one place and inserted in another becomes a
// move, so the live subtree is reused instead of rebuilt.
//
// # Applying
//
// A Patcher renders view trees into host nodes and applies patch lists. It
// first walks the old host tree once to attach each patch to its live node,
// then applies the patches in list order. A host failure aborts the apply
// call and leaves the tree partially patched; there is no rollback.
//
// # Events
//
// Handlers are latched on per-node callbacks. Messages produced by a handler
// travel up the Route chain installed by mapped subtrees and are finally
// delivered to the Sink given to the Patcher.
package vdom
