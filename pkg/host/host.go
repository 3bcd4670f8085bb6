package host

// Node is a live host node handle.
type Node interface {
	// Slot returns the reconciler-owned storage attached to the node.
	Slot() *Slot
}

// Slot is per-node storage reserved for the reconciler.
type Slot struct {
	// Route is the event-routing record installed on this node, if any.
	// The concrete type belongs to the reconciler.
	Route any

	// Listeners holds the callbacks registered on this node by event name.
	Listeners map[string]Listener
}

// Listener receives events dispatched to a node.
type Listener interface {
	HandleEvent(ev *Event)
}

// Adapter performs local mutations on a host tree.
//
// InsertBefore with a nil ref appends. Inserting a node that already has a
// parent moves it. Parent and ChildAt return nil when there is no such node.
type Adapter interface {
	CreateElement(tag, namespace string) (Node, error)
	CreateText(text string) (Node, error)
	SetText(node Node, text string) error

	SetAttribute(node Node, key, value string) error
	RemoveAttribute(node Node, key string) error
	SetAttributeNS(node Node, namespace, key, value string) error
	RemoveAttributeNS(node Node, namespace, key string) error
	SetProperty(node Node, key string, value any) error
	Property(node Node, key string) (any, bool)
	SetStyle(node Node, key, value string) error

	AddEventListener(node Node, event string, l Listener, passive bool) error
	RemoveEventListener(node Node, event string, l Listener) error

	InsertBefore(parent, child, ref Node) error
	RemoveChild(parent, child Node) error
	ReplaceChild(parent, newChild, oldChild Node) error
	Parent(node Node) Node
	ChildAt(parent Node, index int) Node
}

// Reader reads back an existing host tree. Adapters implementing it can
// adopt markup the reconciler did not render.
type Reader interface {
	Describe(node Node) Description
	ChildAt(parent Node, index int) Node
}

// Description is a copy of one host node's own state, without its
// children or listeners. Maps may be nil.
type Description struct {
	Text       bool
	Content    string
	Tag        string
	Namespace  string
	Attrs      map[string]string
	AttrsNS    map[string]NSAttribute
	Props      map[string]any
	Styles     map[string]string
	ChildCount int
}

// NSAttribute is a namespaced attribute value.
type NSAttribute struct {
	Namespace string
	Value     string
}
