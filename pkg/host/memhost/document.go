package memhost

import (
	"errors"
	"fmt"
	"maps"

	"github.com/vango-dev/vtree/pkg/host"
)

// Adapter errors.
var (
	ErrForeignNode = errors.New("memhost: node does not belong to this host")
	ErrNotChild    = errors.New("memhost: node is not a child of parent")
	ErrNotElement  = errors.New("memhost: operation requires an element node")
	ErrCycle       = errors.New("memhost: insertion would create a cycle")
)

// Document creates and mutates in-memory nodes. It implements host.Adapter
// and host.Reader.
type Document struct {
	// Fail, when set, is consulted before every mutation. A non-nil return
	// aborts the mutation and is returned to the caller.
	Fail func(op string, n *Node) error

	mutations int
}

var (
	_ host.Adapter = (*Document)(nil)
	_ host.Reader  = (*Document)(nil)
)

// New creates an empty Document.
func New() *Document {
	return &Document{}
}

// Mutations returns the number of successful mutating calls so far.
func (d *Document) Mutations() int {
	return d.mutations
}

func (d *Document) check(op string, n *Node) error {
	if d.Fail != nil {
		if err := d.Fail(op, n); err != nil {
			return fmt.Errorf("memhost: %s: %w", op, err)
		}
	}
	d.mutations++
	return nil
}

func asNode(n host.Node) (*Node, error) {
	if n == nil {
		return nil, ErrForeignNode
	}
	m, ok := n.(*Node)
	if !ok || m == nil {
		return nil, ErrForeignNode
	}
	return m, nil
}

func asElement(n host.Node) (*Node, error) {
	m, err := asNode(n)
	if err != nil {
		return nil, err
	}
	if m.Type != ElementNode {
		return nil, ErrNotElement
	}
	return m, nil
}

// CreateElement implements host.Adapter.
func (d *Document) CreateElement(tag, namespace string) (host.Node, error) {
	n := &Node{Type: ElementNode, Tag: tag, Namespace: namespace}
	if err := d.check("createElement", n); err != nil {
		return nil, err
	}
	return n, nil
}

// CreateText implements host.Adapter.
func (d *Document) CreateText(text string) (host.Node, error) {
	n := &Node{Type: TextNode, Text: text}
	if err := d.check("createText", n); err != nil {
		return nil, err
	}
	return n, nil
}

// SetText implements host.Adapter.
func (d *Document) SetText(node host.Node, text string) error {
	n, err := asNode(node)
	if err != nil {
		return err
	}
	if n.Type != TextNode {
		return fmt.Errorf("memhost: setText on %s", n.Type)
	}
	if err := d.check("setText", n); err != nil {
		return err
	}
	n.Text = text
	return nil
}

// SetAttribute implements host.Adapter.
func (d *Document) SetAttribute(node host.Node, key, value string) error {
	n, err := asElement(node)
	if err != nil {
		return err
	}
	if err := d.check("setAttribute", n); err != nil {
		return err
	}
	if n.Attrs == nil {
		n.Attrs = make(map[string]string)
	}
	n.Attrs[key] = value
	return nil
}

// RemoveAttribute implements host.Adapter.
func (d *Document) RemoveAttribute(node host.Node, key string) error {
	n, err := asElement(node)
	if err != nil {
		return err
	}
	if err := d.check("removeAttribute", n); err != nil {
		return err
	}
	delete(n.Attrs, key)
	return nil
}

// SetAttributeNS implements host.Adapter.
func (d *Document) SetAttributeNS(node host.Node, namespace, key, value string) error {
	n, err := asElement(node)
	if err != nil {
		return err
	}
	if err := d.check("setAttributeNS", n); err != nil {
		return err
	}
	if n.AttrsNS == nil {
		n.AttrsNS = make(map[string]NSValue)
	}
	n.AttrsNS[key] = NSValue{Namespace: namespace, Value: value}
	return nil
}

// RemoveAttributeNS implements host.Adapter.
func (d *Document) RemoveAttributeNS(node host.Node, namespace, key string) error {
	n, err := asElement(node)
	if err != nil {
		return err
	}
	if err := d.check("removeAttributeNS", n); err != nil {
		return err
	}
	if v, ok := n.AttrsNS[key]; ok && v.Namespace == namespace {
		delete(n.AttrsNS, key)
	}
	return nil
}

// SetProperty implements host.Adapter. A nil value deletes the property.
func (d *Document) SetProperty(node host.Node, key string, value any) error {
	n, err := asElement(node)
	if err != nil {
		return err
	}
	if err := d.check("setProperty", n); err != nil {
		return err
	}
	if value == nil {
		delete(n.Props, key)
		return nil
	}
	if n.Props == nil {
		n.Props = make(map[string]any)
	}
	n.Props[key] = value
	return nil
}

// Property implements host.Adapter.
func (d *Document) Property(node host.Node, key string) (any, bool) {
	n, err := asNode(node)
	if err != nil {
		return nil, false
	}
	v, ok := n.Props[key]
	return v, ok
}

// SetStyle implements host.Adapter. An empty value removes the style.
func (d *Document) SetStyle(node host.Node, key, value string) error {
	n, err := asElement(node)
	if err != nil {
		return err
	}
	if err := d.check("setStyle", n); err != nil {
		return err
	}
	if value == "" {
		delete(n.Styles, key)
		return nil
	}
	if n.Styles == nil {
		n.Styles = make(map[string]string)
	}
	n.Styles[key] = value
	return nil
}

// AddEventListener implements host.Adapter.
func (d *Document) AddEventListener(node host.Node, event string, l host.Listener, passive bool) error {
	n, err := asElement(node)
	if err != nil {
		return err
	}
	if err := d.check("addEventListener", n); err != nil {
		return err
	}
	if n.listeners == nil {
		n.listeners = make(map[string][]listener)
	}
	n.listeners[event] = append(n.listeners[event], listener{l: l, passive: passive})
	return nil
}

// RemoveEventListener implements host.Adapter.
func (d *Document) RemoveEventListener(node host.Node, event string, l host.Listener) error {
	n, err := asElement(node)
	if err != nil {
		return err
	}
	if err := d.check("removeEventListener", n); err != nil {
		return err
	}
	ls := n.listeners[event]
	for i, entry := range ls {
		if entry.l == l {
			n.listeners[event] = append(ls[:i], ls[i+1:]...)
			break
		}
	}
	if len(n.listeners[event]) == 0 {
		delete(n.listeners, event)
	}
	return nil
}

// InsertBefore implements host.Adapter.
func (d *Document) InsertBefore(parent, child, ref host.Node) error {
	p, err := asElement(parent)
	if err != nil {
		return err
	}
	c, err := asNode(child)
	if err != nil {
		return err
	}
	for a := p; a != nil; a = a.parent {
		if a == c {
			return ErrCycle
		}
	}
	var r *Node
	if ref != nil {
		if r, err = asNode(ref); err != nil {
			return err
		}
		if r.parent != p {
			return ErrNotChild
		}
	}
	if err := d.check("insertBefore", p); err != nil {
		return err
	}
	if r == c {
		return nil
	}
	c.detach()
	if r == nil {
		p.children = append(p.children, c)
	} else {
		i := p.indexOf(r)
		p.children = append(p.children, nil)
		copy(p.children[i+1:], p.children[i:])
		p.children[i] = c
	}
	c.parent = p
	return nil
}

// RemoveChild implements host.Adapter.
func (d *Document) RemoveChild(parent, child host.Node) error {
	p, err := asElement(parent)
	if err != nil {
		return err
	}
	c, err := asNode(child)
	if err != nil {
		return err
	}
	if c.parent != p {
		return ErrNotChild
	}
	if err := d.check("removeChild", p); err != nil {
		return err
	}
	c.detach()
	return nil
}

// ReplaceChild implements host.Adapter.
func (d *Document) ReplaceChild(parent, newChild, oldChild host.Node) error {
	p, err := asElement(parent)
	if err != nil {
		return err
	}
	nc, err := asNode(newChild)
	if err != nil {
		return err
	}
	oc, err := asNode(oldChild)
	if err != nil {
		return err
	}
	if oc.parent != p {
		return ErrNotChild
	}
	if err := d.check("replaceChild", p); err != nil {
		return err
	}
	if nc == oc {
		return nil
	}
	nc.detach()
	i := p.indexOf(oc)
	p.children[i] = nc
	nc.parent = p
	oc.parent = nil
	return nil
}

// Parent implements host.Adapter.
func (d *Document) Parent(node host.Node) host.Node {
	n, err := asNode(node)
	if err != nil || n.parent == nil {
		return nil
	}
	return n.parent
}

// ChildAt implements host.Adapter.
func (d *Document) ChildAt(parent host.Node, index int) host.Node {
	p, err := asNode(parent)
	if err != nil {
		return nil
	}
	if c := p.Child(index); c != nil {
		return c
	}
	return nil
}

// Dispatch delivers an event to target and bubbles it towards the root.
// Listeners on a node all run before propagation stops.
func (d *Document) Dispatch(target *Node, typ string, data map[string]any) *host.Event {
	ev := host.NewEvent(typ, data)
	for n := target; n != nil; n = n.parent {
		ls := append([]listener(nil), n.listeners[typ]...)
		for _, entry := range ls {
			entry.l.HandleEvent(ev)
		}
		if ev.Stopped() {
			break
		}
	}
	return ev
}

// Describe implements host.Reader. The maps are copies.
func (d *Document) Describe(node host.Node) host.Description {
	n, err := asNode(node)
	if err != nil {
		return host.Description{}
	}
	if n.Type == TextNode {
		return host.Description{Text: true, Content: n.Text}
	}
	desc := host.Description{
		Tag:        n.Tag,
		Namespace:  n.Namespace,
		Attrs:      maps.Clone(n.Attrs),
		Props:      maps.Clone(n.Props),
		Styles:     maps.Clone(n.Styles),
		ChildCount: len(n.children),
	}
	if len(n.AttrsNS) > 0 {
		desc.AttrsNS = make(map[string]host.NSAttribute, len(n.AttrsNS))
		for k, v := range n.AttrsNS {
			desc.AttrsNS[k] = host.NSAttribute{Namespace: v.Namespace, Value: v.Value}
		}
	}
	return desc
}
