package render

import (
	"bytes"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/vango-dev/vtree/pkg/host/memhost"
	"github.com/vango-dev/vtree/pkg/vdom"
)

// RendererConfig configures the HTML renderer.
type RendererConfig struct {
	// Pretty puts every block-level node on its own indented line.
	Pretty bool

	// Indent is the string used for each indentation level in pretty mode.
	// Defaults to two spaces.
	Indent string

	// EventMarkers writes a data-on-<event> attribute for every event with
	// a handler.
	EventMarkers bool
}

// Renderer serialises view trees and in-memory host trees to HTML. A view
// and the host tree rendered from it produce the same output.
type Renderer struct {
	config RendererConfig
}

// NewRenderer creates a Renderer with the given configuration.
func NewRenderer(config RendererConfig) *Renderer {
	if config.Indent == "" {
		config.Indent = "  "
	}
	return &Renderer{config: config}
}

// HTML renders a host tree with the default configuration.
func HTML(n *memhost.Node) string {
	s, _ := NewRenderer(RendererConfig{}).HostString(n)
	return s
}

// HostString renders a host tree to a string.
func (r *Renderer) HostString(n *memhost.Node) (string, error) {
	var buf bytes.Buffer
	if err := r.RenderHost(&buf, n); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// ViewString renders a view tree to a string.
func (r *Renderer) ViewString(v *vdom.Node) (string, error) {
	var buf bytes.Buffer
	if err := r.RenderView(&buf, v); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// RenderHost writes a host tree.
func (r *Renderer) RenderHost(w io.Writer, n *memhost.Node) error {
	return r.renderHost(w, n, 0, r.config.Pretty)
}

// RenderView writes a view tree. Lazy nodes are forced, mappers are
// transparent and widgets are rendered into a scratch document.
func (r *Renderer) RenderView(w io.Writer, v *vdom.Node) error {
	return r.renderView(w, v, 0, r.config.Pretty)
}

func (r *Renderer) renderHost(w io.Writer, n *memhost.Node, depth int, layout bool) error {
	if n == nil {
		return nil
	}
	if n.Type == memhost.TextNode {
		return r.writeText(w, n.Text, depth, layout)
	}

	ns := make(map[string]nsAttr, len(n.AttrsNS))
	for k, a := range n.AttrsNS {
		ns[k] = nsAttr{namespace: a.Namespace, value: a.Value}
	}
	el := element{
		tag:   n.Tag,
		attrs: r.attributes(n.Attrs, ns, n.Props, n.Styles, n.Events()),
	}
	kids := n.Children()
	el.textOnly = allText(len(kids), func(i int) bool { return kids[i].Type == memhost.TextNode })
	return r.writeElement(w, el, depth, layout, len(kids), func(i int, layout bool) error {
		return r.renderHost(w, kids[i], depth+1, layout)
	})
}

func (r *Renderer) renderView(w io.Writer, v *vdom.Node, depth int, layout bool) error {
	if v == nil {
		return nil
	}

	switch v.Kind {
	case vdom.KindText:
		return r.writeText(w, v.Text, depth, layout)

	case vdom.KindTagged:
		return r.renderView(w, v.Child, depth, layout)

	case vdom.KindLazy:
		return r.renderView(w, v.Forced(), depth, layout)

	case vdom.KindCustom:
		n, err := vdom.NewPatcher(memhost.New(), nil).Render(v)
		if err != nil {
			return fmt.Errorf("render: widget %T: %w", v.Widget, err)
		}
		return r.renderHost(w, n.(*memhost.Node), depth, layout)

	case vdom.KindElement, vdom.KindKeyed:
		kids := viewKids(v)
		ns := make(map[string]nsAttr, len(v.Facts.AttrsNS))
		for k, a := range v.Facts.AttrsNS {
			ns[k] = nsAttr{namespace: a.Namespace, value: a.Value}
		}
		events := make([]string, 0, len(v.Facts.Events))
		for name := range v.Facts.Events {
			events = append(events, name)
		}
		el := element{
			tag:   v.Tag,
			attrs: r.attributes(v.Facts.Attrs, ns, v.Facts.Props, v.Facts.Styles, events),
		}
		el.textOnly = allText(len(kids), func(i int) bool { return resolve(kids[i]).Kind == vdom.KindText })
		return r.writeElement(w, el, depth, layout, len(kids), func(i int, layout bool) error {
			return r.renderView(w, kids[i], depth+1, layout)
		})

	default:
		return fmt.Errorf("render: unknown node kind: %s", v.Kind)
	}
}

func viewKids(v *vdom.Node) []*vdom.Node {
	if v.Kind == vdom.KindElement {
		return v.Children
	}
	kids := make([]*vdom.Node, len(v.Keyed))
	for i, kc := range v.Keyed {
		kids[i] = kc.Node
	}
	return kids
}

// resolve skips mapper and lazy wrappers.
func resolve(v *vdom.Node) *vdom.Node {
	for {
		switch v.Kind {
		case vdom.KindTagged:
			v = v.Child
		case vdom.KindLazy:
			v = v.Forced()
		default:
			return v
		}
	}
}

func allText(n int, isText func(i int) bool) bool {
	for i := 0; i < n; i++ {
		if !isText(i) {
			return false
		}
	}
	return true
}

type nsAttr struct {
	namespace string
	value     string
}

type attribute struct {
	name  string
	value string
	bare  bool
}

type element struct {
	tag      string
	attrs    []attribute
	textOnly bool
}

// attributes merges every fact category into one sorted attribute list.
// Explicit attributes win over reflected properties of the same name.
func (r *Renderer) attributes(attrs map[string]string, ns map[string]nsAttr, props map[string]any, styles map[string]string, events []string) []attribute {
	byName := make(map[string]attribute, len(attrs)+len(props))

	for k, v := range props {
		name := k
		if mapped, ok := propAttrs[k]; ok {
			name = mapped
		}
		if b, ok := v.(bool); ok && isBooleanAttr(name) {
			if b {
				byName[name] = attribute{name: name, bare: true}
			}
			continue
		}
		s := propString(v)
		if s == "" {
			continue
		}
		byName[name] = attribute{name: name, value: s}
	}

	for k, v := range attrs {
		byName[k] = attribute{name: k, value: v}
	}

	for k, a := range ns {
		name := k
		if prefix, ok := nsPrefixes[a.namespace]; ok {
			name = prefix + ":" + k
		}
		byName[name] = attribute{name: name, value: a.value}
	}

	if style := styleString(styles); style != "" {
		byName["style"] = attribute{name: "style", value: style}
	}

	if r.config.EventMarkers {
		for _, e := range events {
			name := "data-on-" + strings.ToLower(e)
			byName[name] = attribute{name: name, value: "true"}
		}
	}

	out := make([]attribute, 0, len(byName))
	for _, a := range byName {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].name < out[j].name })
	return out
}

func styleString(styles map[string]string) string {
	keys := make([]string, 0, len(styles))
	for k, v := range styles {
		if v != "" {
			keys = append(keys, k)
		}
	}
	if len(keys) == 0 {
		return ""
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + ": " + styles[k]
	}
	return strings.Join(parts, "; ")
}

// propString converts a property value to attribute text.
func propString(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		if v {
			return "true"
		}
		return "false"
	case float64:
		return fmt.Sprintf("%g", v)
	default:
		return fmt.Sprintf("%v", v)
	}
}

func (r *Renderer) writeText(w io.Writer, text string, depth int, layout bool) error {
	if layout {
		r.writeIndent(w, depth)
	}
	if _, err := io.WriteString(w, escapeHTML(text)); err != nil {
		return err
	}
	return r.newline(w, layout)
}

// writeElement writes el and its n children. With layout on, block
// elements put each child on its own indented line; elements holding only
// text, and inline elements, stay on one line. Names that cannot be
// written as markup are an error.
func (r *Renderer) writeElement(w io.Writer, el element, depth int, layout bool, n int, child func(i int, layout bool) error) error {
	if !validTagName(el.tag) {
		return fmt.Errorf("render: invalid tag name %q", el.tag)
	}
	for _, a := range el.attrs {
		if !validAttrName(a.name) {
			return fmt.Errorf("render: <%s>: invalid attribute name %q", el.tag, a.name)
		}
	}
	if layout {
		r.writeIndent(w, depth)
	}

	var open strings.Builder
	open.WriteByte('<')
	open.WriteString(el.tag)
	for _, a := range el.attrs {
		open.WriteByte(' ')
		open.WriteString(a.name)
		if !a.bare {
			open.WriteString(`="`)
			open.WriteString(escapeAttr(a.value))
			open.WriteByte('"')
		}
	}
	open.WriteByte('>')
	if _, err := io.WriteString(w, open.String()); err != nil {
		return err
	}

	if vdom.IsVoidElement(el.tag) {
		return r.newline(w, layout)
	}

	block := layout && n > 0 && !el.textOnly && !isInlineElement(el.tag)
	if err := r.newline(w, block); err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		if err := child(i, block); err != nil {
			return err
		}
	}
	if block {
		r.writeIndent(w, depth)
	}
	if _, err := fmt.Fprintf(w, "</%s>", el.tag); err != nil {
		return err
	}
	return r.newline(w, layout)
}

func (r *Renderer) newline(w io.Writer, layout bool) error {
	if !layout {
		return nil
	}
	_, err := io.WriteString(w, "\n")
	return err
}

func (r *Renderer) writeIndent(w io.Writer, depth int) {
	io.WriteString(w, strings.Repeat(r.config.Indent, depth))
}
