package protocol

import (
	"fmt"
	"sort"

	"github.com/vango-dev/vtree/pkg/vdom"
)

// nullMarker stands in for a nil node.
const nullMarker = 0xFF

// NodeWire is the serialisable form of a view node. Handlers, mappers and
// widgets are reduced to their names.
type NodeWire struct {
	Kind      vdom.Kind
	Tag       string
	Namespace string
	Attrs     map[string]string
	AttrsNS   map[string]vdom.NSAttr
	Props     map[string]any
	Styles    map[string]string
	Events    map[string]string // event name -> handler kind
	Children  []*NodeWire
	Keys      []string // Keyed: one per child
	Text      string
	Mapper    string // Tagged
	Widget    string // Custom: the widget's Go type
}

// NodeToWire converts a view node. Lazy nodes are forced and carried as
// their single child; tagged nodes keep one layer per mapper.
func NodeToWire(n *vdom.Node) *NodeWire {
	if n == nil {
		return nil
	}
	w := &NodeWire{Kind: n.Kind}

	switch n.Kind {
	case vdom.KindText:
		w.Text = n.Text

	case vdom.KindElement:
		w.Tag, w.Namespace = n.Tag, n.Namespace
		w.setFacts(n.Facts)
		for _, c := range n.Children {
			w.Children = append(w.Children, NodeToWire(c))
		}

	case vdom.KindKeyed:
		w.Tag, w.Namespace = n.Tag, n.Namespace
		w.setFacts(n.Facts)
		for _, kc := range n.Keyed {
			w.Keys = append(w.Keys, kc.Key)
			w.Children = append(w.Children, NodeToWire(kc.Node))
		}

	case vdom.KindTagged:
		w.Mapper = n.Mapper.Name()
		w.Children = []*NodeWire{NodeToWire(n.Child)}

	case vdom.KindLazy:
		w.Children = []*NodeWire{NodeToWire(n.Forced())}

	case vdom.KindCustom:
		w.setFacts(n.Facts)
		w.Widget = fmt.Sprintf("%T", n.Widget)
	}
	return w
}

func (w *NodeWire) setFacts(f vdom.Facts) {
	if len(f.Attrs) > 0 {
		w.Attrs = f.Attrs
	}
	if len(f.AttrsNS) > 0 {
		w.AttrsNS = f.AttrsNS
	}
	if len(f.Props) > 0 {
		w.Props = f.Props
	}
	if len(f.Styles) > 0 {
		w.Styles = f.Styles
	}
	if len(f.Events) > 0 {
		w.Events = make(map[string]string, len(f.Events))
		for name, h := range f.Events {
			w.Events[name] = h.Kind.String()
		}
	}
}

// EncodeNode appends a node and its subtree. Map entries are written in
// key order so equal trees encode to equal bytes.
func EncodeNode(e *Encoder, n *NodeWire) {
	if n == nil {
		e.WriteByte(nullMarker)
		return
	}

	e.WriteByte(byte(n.Kind))

	switch n.Kind {
	case vdom.KindText:
		e.WriteString(n.Text)
		return
	case vdom.KindTagged:
		e.WriteString(n.Mapper)
	case vdom.KindCustom:
		e.WriteString(n.Widget)
	case vdom.KindElement, vdom.KindKeyed:
		e.WriteString(n.Tag)
		e.WriteString(n.Namespace)
	}

	if n.Kind != vdom.KindTagged && n.Kind != vdom.KindLazy {
		writeStringMap(e, n.Attrs)
		e.WriteUvarint(uint64(len(n.AttrsNS)))
		for _, k := range sortedKeys(n.AttrsNS) {
			e.WriteString(k)
			e.WriteString(n.AttrsNS[k].Namespace)
			e.WriteString(n.AttrsNS[k].Value)
		}
		e.WriteUvarint(uint64(len(n.Props)))
		for _, k := range sortedKeys(n.Props) {
			e.WriteString(k)
			EncodeValue(e, n.Props[k])
		}
		writeStringMap(e, n.Styles)
		writeStringMap(e, n.Events)
	}

	if n.Kind == vdom.KindKeyed {
		e.WriteStrings(n.Keys)
	}
	e.WriteUvarint(uint64(len(n.Children)))
	for _, c := range n.Children {
		EncodeNode(e, c)
	}
}

// DecodeNode reads a node written by EncodeNode.
func DecodeNode(d *Decoder) (*NodeWire, error) {
	return decodeNode(d, 0)
}

func decodeNode(d *Decoder, depth int) (*NodeWire, error) {
	if err := checkDepth(depth, d.limits.NodeDepth); err != nil {
		return nil, err
	}

	kindByte, err := d.ReadByte()
	if err != nil {
		return nil, err
	}
	if kindByte == nullMarker {
		return nil, nil
	}

	n := &NodeWire{Kind: vdom.Kind(kindByte)}
	switch n.Kind {
	case vdom.KindText:
		n.Text, err = d.ReadString()
		return n, err
	case vdom.KindTagged:
		if n.Mapper, err = d.ReadString(); err != nil {
			return nil, err
		}
	case vdom.KindCustom:
		if n.Widget, err = d.ReadString(); err != nil {
			return nil, err
		}
	case vdom.KindElement, vdom.KindKeyed:
		if n.Tag, err = d.ReadString(); err != nil {
			return nil, err
		}
		if n.Namespace, err = d.ReadString(); err != nil {
			return nil, err
		}
	case vdom.KindLazy:
	default:
		return nil, fmt.Errorf("node kind 0x%02x: %w", kindByte, ErrInvalidTag)
	}

	if n.Kind != vdom.KindTagged && n.Kind != vdom.KindLazy {
		if err := n.decodeFacts(d); err != nil {
			return nil, err
		}
	}

	if n.Kind == vdom.KindKeyed {
		if n.Keys, err = d.ReadStrings(); err != nil {
			return nil, err
		}
	}
	count, err := d.ReadCollectionCount()
	if err != nil {
		return nil, err
	}
	if n.Kind == vdom.KindKeyed && count != len(n.Keys) {
		return nil, fmt.Errorf("protocol: keyed node has %d keys for %d children", len(n.Keys), count)
	}
	if count > 0 {
		n.Children = make([]*NodeWire, count)
		for i := range n.Children {
			if n.Children[i], err = decodeNode(d, depth+1); err != nil {
				return nil, err
			}
		}
	}
	return n, nil
}

func (n *NodeWire) decodeFacts(d *Decoder) error {
	var err error
	if n.Attrs, err = readStringMap(d); err != nil {
		return err
	}

	count, err := d.ReadCollectionCount()
	if err != nil {
		return err
	}
	if count > 0 {
		n.AttrsNS = make(map[string]vdom.NSAttr, count)
		for i := 0; i < count; i++ {
			var key string
			var a vdom.NSAttr
			if key, err = d.ReadString(); err != nil {
				return err
			}
			if a.Namespace, err = d.ReadString(); err != nil {
				return err
			}
			if a.Value, err = d.ReadString(); err != nil {
				return err
			}
			n.AttrsNS[key] = a
		}
	}

	if count, err = d.ReadCollectionCount(); err != nil {
		return err
	}
	if count > 0 {
		n.Props = make(map[string]any, count)
		for i := 0; i < count; i++ {
			key, err := d.ReadString()
			if err != nil {
				return err
			}
			if n.Props[key], err = DecodeValue(d); err != nil {
				return err
			}
		}
	}

	if n.Styles, err = readStringMap(d); err != nil {
		return err
	}
	n.Events, err = readStringMap(d)
	return err
}

func writeStringMap(e *Encoder, m map[string]string) {
	e.WriteUvarint(uint64(len(m)))
	for _, k := range sortedKeys(m) {
		e.WriteString(k)
		e.WriteString(m[k])
	}
}

func readStringMap(d *Decoder) (map[string]string, error) {
	count, err := d.ReadCollectionCount()
	if err != nil || count == 0 {
		return nil, err
	}
	m := make(map[string]string, count)
	for i := 0; i < count; i++ {
		k, err := d.ReadString()
		if err != nil {
			return nil, err
		}
		if m[k], err = d.ReadString(); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func sortedKeys[T any](m map[string]T) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
