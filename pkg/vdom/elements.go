package vdom

import "strconv"

// SVGNamespace is the namespace of SVG elements.
const SVGNamespace = "http://www.w3.org/2000/svg"

// voidElements are elements that cannot have children.
var voidElements = map[string]bool{
	"area":   true,
	"base":   true,
	"br":     true,
	"col":    true,
	"embed":  true,
	"hr":     true,
	"img":    true,
	"input":  true,
	"link":   true,
	"meta":   true,
	"param":  true,
	"source": true,
	"track":  true,
	"wbr":    true,
}

// IsVoidElement returns true if the tag is a void element.
func IsVoidElement(tag string) bool {
	return voidElements[tag]
}

// createElement builds an element from mixed arguments.
// Arguments can be: nil, Fact, []Fact, *Node, []*Node, string, KeyedChild,
// []KeyedChild. Any keyed child makes the result a keyed element; plain
// children among them are keyed by position.
func createElement(namespace, tag string, args []any) *Node {
	var (
		facts    []Fact
		children []*Node
		keyed    []KeyedChild
		isKeyed  bool
	)

	for _, arg := range args {
		switch v := arg.(type) {
		case nil:
			// Ignore nil (allows conditional children)
			continue
		case Fact:
			facts = append(facts, v)
		case []Fact:
			facts = append(facts, v...)
		case *Node:
			if v != nil {
				children = append(children, v)
				keyed = append(keyed, KeyedChild{Key: strconv.Itoa(len(keyed)), Node: v})
			}
		case []*Node:
			for _, c := range v {
				if c != nil {
					children = append(children, c)
					keyed = append(keyed, KeyedChild{Key: strconv.Itoa(len(keyed)), Node: c})
				}
			}
		case string:
			t := Text(v)
			children = append(children, t)
			keyed = append(keyed, KeyedChild{Key: strconv.Itoa(len(keyed)), Node: t})
		case KeyedChild:
			isKeyed = true
			keyed = append(keyed, v)
		case []KeyedChild:
			isKeyed = true
			keyed = append(keyed, v...)
		}
	}

	if isKeyed {
		return KeyedNS(namespace, tag, facts, keyed...)
	}
	return ElementNS(namespace, tag, facts, children...)
}

// Content sectioning elements

func Header(args ...any) *Node  { return createElement("", "header", args) }
func Footer(args ...any) *Node  { return createElement("", "footer", args) }
func Main(args ...any) *Node    { return createElement("", "main", args) }
func Nav(args ...any) *Node     { return createElement("", "nav", args) }
func Section(args ...any) *Node { return createElement("", "section", args) }
func Article(args ...any) *Node { return createElement("", "article", args) }
func Aside(args ...any) *Node   { return createElement("", "aside", args) }
func H1(args ...any) *Node      { return createElement("", "h1", args) }
func H2(args ...any) *Node      { return createElement("", "h2", args) }
func H3(args ...any) *Node      { return createElement("", "h3", args) }

// Text content elements

func Div(args ...any) *Node  { return createElement("", "div", args) }
func P(args ...any) *Node    { return createElement("", "p", args) }
func Span(args ...any) *Node { return createElement("", "span", args) }
func Pre(args ...any) *Node  { return createElement("", "pre", args) }
func Ul(args ...any) *Node   { return createElement("", "ul", args) }
func Ol(args ...any) *Node   { return createElement("", "ol", args) }
func Li(args ...any) *Node   { return createElement("", "li", args) }
func Hr(args ...any) *Node   { return createElement("", "hr", args) }

// Inline text semantics

func A(args ...any) *Node      { return createElement("", "a", args) }
func Strong(args ...any) *Node { return createElement("", "strong", args) }
func Em(args ...any) *Node     { return createElement("", "em", args) }
func Code(args ...any) *Node   { return createElement("", "code", args) }
func Br(args ...any) *Node     { return createElement("", "br", args) }

// Form elements

func Form(args ...any) *Node     { return createElement("", "form", args) }
func Input(args ...any) *Node    { return createElement("", "input", args) }
func Textarea(args ...any) *Node { return createElement("", "textarea", args) }
func Select(args ...any) *Node   { return createElement("", "select", args) }
func Option(args ...any) *Node   { return createElement("", "option", args) }
func Button(args ...any) *Node   { return createElement("", "button", args) }
func Label(args ...any) *Node    { return createElement("", "label", args) }

// Table elements

func Table(args ...any) *Node { return createElement("", "table", args) }
func Tbody(args ...any) *Node { return createElement("", "tbody", args) }
func Tr(args ...any) *Node    { return createElement("", "tr", args) }
func Th(args ...any) *Node    { return createElement("", "th", args) }
func Td(args ...any) *Node    { return createElement("", "td", args) }

// Media elements

func Img(args ...any) *Node   { return createElement("", "img", args) }
func Audio(args ...any) *Node { return createElement("", "audio", args) }

// SVG elements

func Svg(args ...any) *Node    { return createElement(SVGNamespace, "svg", args) }
func G(args ...any) *Node      { return createElement(SVGNamespace, "g", args) }
func Path(args ...any) *Node   { return createElement(SVGNamespace, "path", args) }
func Circle(args ...any) *Node { return createElement(SVGNamespace, "circle", args) }
func Rect(args ...any) *Node   { return createElement(SVGNamespace, "rect", args) }

// CustomElement creates an element with a custom tag name.
func CustomElement(tag string, args ...any) *Node {
	return createElement("", tag, args)
}
