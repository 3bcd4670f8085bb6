// Package memhost is an in-memory host tree implementing host.Adapter.
//
// It is used by tests, the CLI and the inspector. Nodes behave like a small
// DOM: inserting an attached node moves it, events bubble from the target to
// the root until a listener stops propagation, and setting a style to the
// empty string removes it.
//
// Compare reports the first structural difference between two trees (tags,
// namespaces, text, attributes, properties, styles, listened events and
// child order), which is how the reconciler's equivalence guarantee is
// checked in tests.
package memhost
