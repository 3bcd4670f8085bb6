package fixture

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/vango-dev/vtree/pkg/vdom"
)

var (
	// ErrInvalidNode reports a node that is not exactly one kind, or is
	// missing a required field.
	ErrInvalidNode = errors.New("fixture: invalid node")

	// ErrHandlerKind reports an unknown event handler kind.
	ErrHandlerKind = errors.New("fixture: unknown handler kind")

	// ErrNoViews reports a document without a view or frames.
	ErrNoViews = errors.New("fixture: document has no views")
)

// NodeError locates a problem in the source document.
type NodeError struct {
	Line   int
	Column int
	Err    error
}

func (e *NodeError) Error() string {
	return fmt.Sprintf("line %d column %d: %v", e.Line, e.Column, e.Err)
}

func (e *NodeError) Unwrap() error {
	return e.Err
}

// Document is a parsed fixture file.
type Document struct {
	Name   string  `yaml:"name"`
	View   *Node   `yaml:"view"`
	Frames []*Node `yaml:"frames"`
}

// Node is the document form of a view node.
type Node struct {
	Text     *string           `yaml:"text"`
	Tag      string            `yaml:"tag"`
	NS       string            `yaml:"ns"`
	Key      string            `yaml:"key"`
	Attrs    map[string]string `yaml:"attrs"`
	AttrsNS  map[string]NSAttr `yaml:"attrsNS"`
	Props    map[string]any    `yaml:"props"`
	Styles   map[string]string `yaml:"styles"`
	Events   map[string]Event  `yaml:"events"`
	Children []*Node           `yaml:"children"`
	Keyed    []*Node           `yaml:"keyed"`
	Map      *Map              `yaml:"map"`
	Lazy     *Lazy             `yaml:"lazy"`

	Line   int `yaml:"-"`
	Column int `yaml:"-"`
}

// NSAttr is a namespaced attribute value.
type NSAttr struct {
	NS    string `yaml:"ns"`
	Value string `yaml:"value"`
}

// Event names a decoder and handler kind. A plain string is shorthand for
// a normal handler with that decoder.
type Event struct {
	Decoder string `yaml:"decoder"`
	Kind    string `yaml:"kind"`
}

// Map wraps a node in a named mapper.
type Map struct {
	Mapper string `yaml:"mapper"`
	Node   *Node  `yaml:"node"`
}

// Lazy wraps a node in a memoization boundary keyed by refs.
type Lazy struct {
	Refs []any `yaml:"refs"`
	Node *Node `yaml:"node"`
}

var nodeFields = map[string]bool{
	"text": true, "tag": true, "ns": true, "key": true,
	"attrs": true, "attrsNS": true, "props": true, "styles": true, "events": true,
	"children": true, "keyed": true, "map": true, "lazy": true,
}

// UnmarshalYAML decodes a node, rejecting unknown fields and recording the
// node's position.
func (n *Node) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.MappingNode {
		return &NodeError{Line: value.Line, Column: value.Column, Err: fmt.Errorf("%w: expected a mapping", ErrInvalidNode)}
	}
	for i := 0; i < len(value.Content); i += 2 {
		k := value.Content[i]
		if !nodeFields[k.Value] {
			return &NodeError{Line: k.Line, Column: k.Column, Err: fmt.Errorf("%w: unknown field %q", ErrInvalidNode, k.Value)}
		}
	}
	type plain Node
	var p plain
	if err := value.Decode(&p); err != nil {
		return err
	}
	*n = Node(p)
	n.Line, n.Column = value.Line, value.Column
	return nil
}

// UnmarshalYAML accepts either a decoder name or a {decoder, kind} mapping.
func (e *Event) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		e.Decoder = value.Value
		return nil
	}
	type plain Event
	var p plain
	if err := value.Decode(&p); err != nil {
		return err
	}
	*e = Event(p)
	return nil
}

// Parse decodes a YAML or JSON document.
func Parse(data []byte) (*Document, error) {
	var doc Document
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		if err == io.EOF {
			return nil, ErrNoViews
		}
		return nil, fmt.Errorf("fixture: parse: %w", err)
	}
	if doc.View == nil && len(doc.Frames) == 0 {
		return nil, ErrNoViews
	}
	return &doc, nil
}

// Load reads and parses the document at path.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("fixture: %w", err)
	}
	return Parse(data)
}

// Specs returns the view followed by the frames.
func (d *Document) Specs() []*Node {
	var out []*Node
	if d.View != nil {
		out = append(out, d.View)
	}
	return append(out, d.Frames...)
}

// Build converts every view of the document.
func (d *Document) Build(reg *Registry) ([]*vdom.Node, error) {
	specs := d.Specs()
	views := make([]*vdom.Node, len(specs))
	for i, s := range specs {
		v, err := s.Build(reg)
		if err != nil {
			return nil, err
		}
		views[i] = v
	}
	return views, nil
}

func (n *Node) fail(format string, args ...any) error {
	return &NodeError{Line: n.Line, Column: n.Column, Err: fmt.Errorf("%w: "+format, append([]any{ErrInvalidNode}, args...)...)}
}

// Build converts the node to a view node.
func (n *Node) Build(reg *Registry) (*vdom.Node, error) {
	kinds := 0
	for _, set := range []bool{n.Text != nil, n.Tag != "", n.Map != nil, n.Lazy != nil} {
		if set {
			kinds++
		}
	}
	if kinds != 1 {
		return nil, n.fail("need exactly one of text, tag, map or lazy")
	}

	switch {
	case n.Text != nil:
		return vdom.Text(*n.Text), nil

	case n.Map != nil:
		if n.Map.Mapper == "" || n.Map.Node == nil {
			return nil, n.fail("map needs mapper and node")
		}
		child, err := n.Map.Node.Build(reg)
		if err != nil {
			return nil, err
		}
		return vdom.Map(reg.Mapper(n.Map.Mapper), child), nil

	case n.Lazy != nil:
		if n.Lazy.Node == nil {
			return nil, n.fail("lazy needs node")
		}
		child, err := n.Lazy.Node.Build(reg)
		if err != nil {
			return nil, err
		}
		return vdom.Lazy(n.Lazy.Refs, func() *vdom.Node { return child }), nil
	}

	if len(n.Children) > 0 && len(n.Keyed) > 0 {
		return nil, n.fail("<%s> has both children and keyed", n.Tag)
	}
	facts, err := n.facts(reg)
	if err != nil {
		return nil, err
	}
	ns := namespace(n.NS)

	if n.Keyed != nil {
		kids := make([]vdom.KeyedChild, len(n.Keyed))
		for i, c := range n.Keyed {
			if c.Key == "" {
				return nil, c.fail("keyed child of <%s> has no key", n.Tag)
			}
			v, err := c.Build(reg)
			if err != nil {
				return nil, err
			}
			kids[i] = vdom.K(c.Key, v)
		}
		return vdom.KeyedNS(ns, n.Tag, facts, kids...), nil
	}

	kids := make([]*vdom.Node, len(n.Children))
	for i, c := range n.Children {
		v, err := c.Build(reg)
		if err != nil {
			return nil, err
		}
		kids[i] = v
	}
	return vdom.ElementNS(ns, n.Tag, facts, kids...), nil
}

// facts lists facts in sorted key order so repeated builds agree.
func (n *Node) facts(reg *Registry) ([]vdom.Fact, error) {
	var facts []vdom.Fact
	for _, k := range sortedKeys(n.Attrs) {
		facts = append(facts, vdom.Attribute(k, n.Attrs[k]))
	}
	for _, k := range sortedKeys(n.AttrsNS) {
		a := n.AttrsNS[k]
		facts = append(facts, vdom.AttributeNS(namespace(a.NS), k, a.Value))
	}
	for _, k := range sortedKeys(n.Props) {
		facts = append(facts, vdom.Property(k, n.Props[k]))
	}
	for _, k := range sortedKeys(n.Styles) {
		facts = append(facts, vdom.Style(k, n.Styles[k]))
	}
	for _, k := range sortedKeys(n.Events) {
		e := n.Events[k]
		if e.Decoder == "" {
			return nil, n.fail("event %q has no decoder", k)
		}
		kind, err := ParseHandlerKind(e.Kind)
		if err != nil {
			return nil, &NodeError{Line: n.Line, Column: n.Column, Err: err}
		}
		facts = append(facts, vdom.On(k, kind, reg.Decoder(e.Decoder)))
	}
	return facts, nil
}

// ParseHandlerKind maps a document handler kind to a vdom.HandlerKind. The
// empty string means normal.
func ParseHandlerKind(s string) (vdom.HandlerKind, error) {
	switch strings.ToLower(s) {
	case "", "normal":
		return vdom.HandlerNormal, nil
	case "stoppropagation", "maystoppropagation":
		return vdom.HandlerMayStopPropagation, nil
	case "preventdefault", "maypreventdefault":
		return vdom.HandlerMayPreventDefault, nil
	case "custom":
		return vdom.HandlerCustom, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrHandlerKind, s)
}

// namespace expands the short names svg, xlink and xml.
func namespace(ns string) string {
	switch ns {
	case "svg":
		return vdom.SVGNamespace
	case "xlink":
		return "http://www.w3.org/1999/xlink"
	case "xml":
		return "http://www.w3.org/XML/1998/namespace"
	}
	return ns
}

func sortedKeys[T any](m map[string]T) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
