package vdom

import "github.com/vango-dev/vtree/pkg/host"

// Kind is the node type discriminator.
type Kind uint8

const (
	KindText    Kind = iota // Plain text
	KindElement             // <div>, <button>, etc.
	KindKeyed               // Element whose children carry keys
	KindCustom              // Opaque widget
	KindTagged              // Message mapper around a subtree
	KindLazy                // Memoization boundary
)

// String returns the string representation of the Kind.
func (k Kind) String() string {
	switch k {
	case KindText:
		return "Text"
	case KindElement:
		return "Element"
	case KindKeyed:
		return "Keyed"
	case KindCustom:
		return "Custom"
	case KindTagged:
		return "Tagged"
	case KindLazy:
		return "Lazy"
	default:
		return "Unknown"
	}
}

// Node is an immutable view node. Build nodes with the constructors in this
// package; the descendant count is computed there and never changes.
type Node struct {
	Kind      Kind
	Tag       string       // Element and Keyed
	Namespace string       // Element and Keyed
	Facts     Facts        // Element, Keyed and Custom
	Children  []*Node      // Element
	Keyed     []KeyedChild // Keyed
	Text      string       // Text
	Mapper    *Mapper      // Tagged
	Child     *Node        // Tagged
	Refs      []any        // Lazy
	Thunk     func() *Node // Lazy
	Widget    Widget       // Custom

	size   int
	cached *Node
}

// KeyedChild is a child of a keyed element.
type KeyedChild struct {
	Key  string
	Node *Node
}

// Size returns the number of descendant view nodes.
func (n *Node) Size() int {
	if n == nil {
		return 0
	}
	return n.size
}

// Forced returns the rendered child of a lazy node, running the thunk on
// first use. The result is cached on the node.
func (n *Node) Forced() *Node {
	if n.cached == nil {
		n.cached = n.Thunk()
	}
	return n.cached
}

// Text creates a text node.
func Text(s string) *Node {
	return &Node{Kind: KindText, Text: s}
}

// Element creates an element node.
func Element(tag string, facts []Fact, children ...*Node) *Node {
	return ElementNS("", tag, facts, children...)
}

// ElementNS creates an element node in the given namespace. A script tag
// becomes p.
func ElementNS(namespace, tag string, facts []Fact, children ...*Node) *Node {
	kids := make([]*Node, 0, len(children))
	size := 0
	for _, c := range children {
		if c == nil {
			continue
		}
		kids = append(kids, c)
		size += 1 + c.size
	}
	return &Node{
		Kind:      KindElement,
		Tag:       noScript(tag),
		Namespace: namespace,
		Facts:     OrganizeFacts(facts),
		Children:  kids,
		size:      size,
	}
}

// Keyed creates an element whose children carry reconciliation keys.
func Keyed(tag string, facts []Fact, children ...KeyedChild) *Node {
	return KeyedNS("", tag, facts, children...)
}

// KeyedNS creates a keyed element in the given namespace.
func KeyedNS(namespace, tag string, facts []Fact, children ...KeyedChild) *Node {
	kids := make([]KeyedChild, 0, len(children))
	size := 0
	for _, c := range children {
		if c.Node == nil {
			continue
		}
		kids = append(kids, c)
		size += 1 + c.Node.size
	}
	return &Node{
		Kind:      KindKeyed,
		Tag:       noScript(tag),
		Namespace: namespace,
		Facts:     OrganizeFacts(facts),
		Keyed:     kids,
		size:      size,
	}
}

// K pairs a key with a node.
func K(key string, node *Node) KeyedChild {
	return KeyedChild{Key: key, Node: node}
}

// Map wraps child so that messages produced inside it pass through mapper.
func Map(mapper *Mapper, child *Node) *Node {
	return &Node{
		Kind:   KindTagged,
		Mapper: mapper,
		Child:  child,
		size:   1 + child.size,
	}
}

// Lazy creates a memoization boundary. The thunk runs only when refs differ
// from the previous lazy node at the same position, compared element-wise
// by identity.
func Lazy(refs []any, thunk func() *Node) *Node {
	return &Node{Kind: KindLazy, Refs: refs, Thunk: thunk}
}

// Custom creates an opaque widget node with its own facts.
func Custom(facts []Fact, w Widget) *Node {
	return &Node{Kind: KindCustom, Facts: OrganizeFacts(facts), Widget: w}
}

// Widget is an opaque component that renders and diffs itself. Two widgets
// are the same component when they have the same dynamic type.
type Widget interface {
	// Render creates the widget's host node.
	Render(a host.Adapter) (host.Node, error)

	// Diff compares the widget with the previous one of the same type and
	// returns a patch, or nil when nothing changed.
	Diff(prev Widget) WidgetPatch
}

// WidgetPatch updates a widget's host node, returning the node that should
// take its place (usually the same one).
type WidgetPatch func(a host.Adapter, node host.Node) (host.Node, error)

// Mapper is a message transformer installed by Map. Mappers are compared by
// pointer, so create them once and reuse them across renders.
type Mapper struct {
	name string
	fn   func(msg any) any
}

// NewMapper creates a named mapper.
func NewMapper(name string, fn func(msg any) any) *Mapper {
	return &Mapper{name: name, fn: fn}
}

// Name returns the mapper's name.
func (m *Mapper) Name() string {
	return m.name
}

// Apply transforms msg.
func (m *Mapper) Apply(msg any) any {
	return m.fn(msg)
}

// dekey returns an unkeyed element with the same tag, facts and size.
func dekey(n *Node) *Node {
	kids := make([]*Node, len(n.Keyed))
	for i, c := range n.Keyed {
		kids[i] = c.Node
	}
	return &Node{
		Kind:      KindElement,
		Tag:       n.Tag,
		Namespace: n.Namespace,
		Facts:     n.Facts,
		Children:  kids,
		size:      n.size,
	}
}
