package render

// inlineElements keep their children on one line when pretty printing.
var inlineElements = map[string]bool{
	"a":      true,
	"abbr":   true,
	"b":      true,
	"cite":   true,
	"code":   true,
	"em":     true,
	"i":      true,
	"kbd":    true,
	"label":  true,
	"mark":   true,
	"q":      true,
	"s":      true,
	"small":  true,
	"span":   true,
	"strong": true,
	"sub":    true,
	"sup":    true,
	"time":   true,
	"u":      true,
}

func isInlineElement(tag string) bool {
	return inlineElements[tag]
}

// booleanAttrs are written as a bare name when true and omitted when false.
var booleanAttrs = map[string]bool{
	"autofocus": true,
	"autoplay":  true,
	"checked":   true,
	"controls":  true,
	"disabled":  true,
	"hidden":    true,
	"multiple":  true,
	"muted":     true,
	"open":      true,
	"readonly":  true,
	"required":  true,
	"selected":  true,
}

func isBooleanAttr(name string) bool {
	return booleanAttrs[name]
}

// propAttrs maps DOM property names to the attribute they reflect.
var propAttrs = map[string]string{
	"className": "class",
	"htmlFor":   "for",
}

// nsPrefixes are the conventional prefixes for namespaced attributes.
var nsPrefixes = map[string]string{
	"http://www.w3.org/1999/xlink":         "xlink",
	"http://www.w3.org/XML/1998/namespace": "xml",
}
