package vdom

import (
	"maps"

	"github.com/vango-dev/vtree/pkg/host"
)

// Virtualize builds a view matching an existing host tree, so the tree can
// be patched without rendering it again. Facts are copied as the host holds
// them, including ones the element constructors would rewrite, so the first
// diff against a real view removes them. Listeners cannot be read back;
// that first diff attaches them.
func Virtualize(r host.Reader, n host.Node) *Node {
	d := r.Describe(n)
	if d.Text {
		return Text(d.Content)
	}
	if d.Tag == "" {
		return Text("")
	}

	kids := make([]*Node, 0, d.ChildCount)
	size := 0
	for i := 0; i < d.ChildCount; i++ {
		c := r.ChildAt(n, i)
		if c == nil {
			break
		}
		kid := Virtualize(r, c)
		kids = append(kids, kid)
		size += 1 + kid.size
	}

	return &Node{
		Kind:      KindElement,
		Tag:       d.Tag,
		Namespace: d.Namespace,
		Facts:     describedFacts(d),
		Children:  kids,
		size:      size,
	}
}

func describedFacts(d host.Description) Facts {
	f := Facts{
		Props:  nonEmpty(maps.Clone(d.Props)),
		Attrs:  nonEmpty(maps.Clone(d.Attrs)),
		Styles: nonEmpty(maps.Clone(d.Styles)),
	}
	if len(d.AttrsNS) > 0 {
		f.AttrsNS = make(map[string]NSAttr, len(d.AttrsNS))
		for k, a := range d.AttrsNS {
			f.AttrsNS[k] = NSAttr{Namespace: a.Namespace, Value: a.Value}
		}
	}
	return f
}

func nonEmpty[V any](m map[string]V) map[string]V {
	if len(m) == 0 {
		return nil
	}
	return m
}
