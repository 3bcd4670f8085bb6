package vdom

import "strings"

// Element constructors and OrganizeFacts run these checks, so no view can
// carry a script element, an inline handler or a script URL to the host.

// noScript renders script elements as paragraphs.
func noScript(tag string) string {
	if strings.EqualFold(tag, "script") {
		return "p"
	}
	return tag
}

// noOnOrFormAction moves inline handler attributes (onclick, onload, ...)
// and formaction out of the way by prefixing them with "data-".
// Event listeners belong in Handler facts.
func noOnOrFormAction(key string) string {
	lower := strings.ToLower(key)
	if strings.HasPrefix(lower, "on") || lower == "formaction" {
		return "data-" + key
	}
	return key
}

// noInnerHTMLOrFormAction is the property counterpart of noOnOrFormAction.
func noInnerHTMLOrFormAction(key string) string {
	switch strings.ToLower(key) {
	case "innerhtml", "outerhtml", "formaction":
		return "data-" + key
	}
	return key
}

// noJavaScriptOrHTMLURI blanks javascript: and data:text/html URLs.
func noJavaScriptOrHTMLURI(value string) string {
	v := strings.ToLower(strings.TrimLeft(value, " \t\n\r\f\v"))
	if strings.HasPrefix(v, "javascript:") || strings.HasPrefix(v, "data:text/html") {
		return ""
	}
	return value
}

// sanitizeFact applies the attribute and property checks to one fact.
func sanitizeFact(f Fact) Fact {
	switch f.Kind {
	case FactAttribute, FactAttributeNS:
		f.Key = noOnOrFormAction(f.Key)
		f.Value = noJavaScriptOrHTMLURI(stringValue(f.Value))
	case FactProperty:
		f.Key = noInnerHTMLOrFormAction(f.Key)
		if s, ok := f.Value.(string); ok {
			f.Value = noJavaScriptOrHTMLURI(s)
		}
	}
	return f
}
