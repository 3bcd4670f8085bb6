package vdom

import (
	"strconv"
	"testing"

	"github.com/vango-dev/vtree/pkg/host"
	"github.com/vango-dev/vtree/pkg/host/memhost"
)

// counter is a test widget rendering <x-counter count="n">.
type counter struct{ n int }

func (c *counter) Render(a host.Adapter) (host.Node, error) {
	n, err := a.CreateElement("x-counter", "")
	if err != nil {
		return nil, err
	}
	return n, a.SetAttribute(n, "count", strconv.Itoa(c.n))
}

func (c *counter) Diff(prev Widget) WidgetPatch {
	if prev.(*counter).n == c.n {
		return nil
	}
	n := c.n
	return func(a host.Adapter, node host.Node) (host.Node, error) {
		return node, a.SetAttribute(node, "count", strconv.Itoa(n))
	}
}

// badge is a second widget type, rendering <x-badge>.
type badge struct{}

func (badge) Render(a host.Adapter) (host.Node, error) { return a.CreateElement("x-badge", "") }
func (badge) Diff(Widget) WidgetPatch                  { return nil }

// mount renders v into a fresh document.
func mount(t *testing.T, v *Node, sink Sink) (*memhost.Document, *Patcher, *memhost.Node) {
	t.Helper()
	doc := memhost.New()
	p := NewPatcher(doc, NewRoute(sink))
	root, err := p.Render(v)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	return doc, p, root.(*memhost.Node)
}

// transition renders prev, applies Diff(prev, next) and checks the result
// against a direct render of next. It returns the patched root.
func transition(t *testing.T, prev, next *Node) *memhost.Node {
	t.Helper()
	_, p, root := mount(t, prev, nil)

	patches := Diff(prev, next)
	got, err := p.Apply(root, prev, patches)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}

	_, _, want := mount(t, next, nil)
	if err := memhost.Compare(got.(*memhost.Node), want); err != nil {
		t.Fatalf("patched tree differs from fresh render: %v\ngot:\n%s\nwant:\n%s",
			err, memhost.Dump(got.(*memhost.Node)), memhost.Dump(want))
	}
	return got.(*memhost.Node)
}

func kinds(patches []Patch) []PatchKind {
	out := make([]PatchKind, len(patches))
	for i, p := range patches {
		out[i] = p.Kind
	}
	return out
}

func keyedList(keys ...string) *Node {
	kids := make([]KeyedChild, len(keys))
	for i, k := range keys {
		kids[i] = K(k, Li(Text(k)))
	}
	return Keyed("ul", nil, kids...)
}
