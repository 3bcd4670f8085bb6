package memhost

import (
	"sort"

	"github.com/vango-dev/vtree/pkg/host"
)

// NodeType distinguishes element and text nodes.
type NodeType uint8

const (
	ElementNode NodeType = iota + 1
	TextNode
)

// String returns the string representation of the NodeType.
func (t NodeType) String() string {
	switch t {
	case ElementNode:
		return "Element"
	case TextNode:
		return "Text"
	default:
		return "Unknown"
	}
}

// NSValue is a namespaced attribute value.
type NSValue struct {
	Namespace string
	Value     string
}

// Node is an in-memory host node.
type Node struct {
	Type      NodeType
	Tag       string
	Namespace string
	Text      string
	Attrs     map[string]string
	AttrsNS   map[string]NSValue
	Props     map[string]any
	Styles    map[string]string

	// Marker is an opaque value untouched by the adapter. Tests use it to
	// check that a node survived a patch.
	Marker any

	parent    *Node
	children  []*Node
	listeners map[string][]listener
	slot      host.Slot
}

type listener struct {
	l       host.Listener
	passive bool
}

// Slot implements host.Node.
func (n *Node) Slot() *host.Slot {
	return &n.slot
}

// Parent returns the parent node or nil.
func (n *Node) Parent() *Node {
	return n.parent
}

// Children returns a copy of the child list.
func (n *Node) Children() []*Node {
	out := make([]*Node, len(n.children))
	copy(out, n.children)
	return out
}

// ChildCount returns the number of children.
func (n *Node) ChildCount() int {
	return len(n.children)
}

// Child returns the i-th child or nil.
func (n *Node) Child(i int) *Node {
	if i < 0 || i >= len(n.children) {
		return nil
	}
	return n.children[i]
}

// ListenerCount returns the number of listeners registered for event.
func (n *Node) ListenerCount(event string) int {
	return len(n.listeners[event])
}

// Passive reports whether the first listener for event was registered passive.
func (n *Node) Passive(event string) bool {
	ls := n.listeners[event]
	return len(ls) > 0 && ls[0].passive
}

// Events returns the sorted names of events with at least one listener.
func (n *Node) Events() []string {
	var names []string
	for name, ls := range n.listeners {
		if len(ls) > 0 {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// Walk visits n and its descendants in pre-order.
func (n *Node) Walk(fn func(*Node)) {
	fn(n)
	for _, c := range n.children {
		c.Walk(fn)
	}
}

func (n *Node) indexOf(child *Node) int {
	for i, c := range n.children {
		if c == child {
			return i
		}
	}
	return -1
}

func (n *Node) detach() {
	if n.parent == nil {
		return
	}
	p := n.parent
	if i := p.indexOf(n); i >= 0 {
		p.children = append(p.children[:i], p.children[i+1:]...)
	}
	n.parent = nil
}
