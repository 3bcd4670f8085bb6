package vdom

import "strings"

// attr creates an attribute fact.
func attr(key, value string) Fact {
	return Fact{Kind: FactAttribute, Key: key, Value: value}
}

// Attribute sets an arbitrary attribute.
func Attribute(key, value string) Fact { return attr(key, value) }

// AttributeNS sets a namespaced attribute.
func AttributeNS(namespace, key, value string) Fact {
	return Fact{Kind: FactAttributeNS, Key: key, Value: value, Namespace: namespace}
}

// Property sets a host property. Property values are compared by identity.
func Property(key string, value any) Fact {
	return Fact{Kind: FactProperty, Key: key, Value: value}
}

// Style sets one inline style declaration.
func Style(key, value string) Fact {
	return Fact{Kind: FactStyle, Key: key, Value: value}
}

// Identity attributes

// ID sets the id attribute.
func ID(id string) Fact { return attr("id", id) }

// Class sets the class attribute, joining multiple classes with spaces.
// Repeated Class facts on one element accumulate.
func Class(classes ...string) Fact { return attr("class", strings.Join(classes, " ")) }

// ClassName sets the className property. Repeated ClassName facts accumulate.
func ClassName(classes ...string) Fact { return Property("className", strings.Join(classes, " ")) }

// Data creates a data-* attribute.
// Example: Data("id", "123") → data-id="123"
func Data(key, value string) Fact { return attr("data-"+key, value) }

// Accessibility attributes

// Role sets the role attribute.
func Role(role string) Fact { return attr("role", role) }

// AriaLabel sets the aria-label attribute.
func AriaLabel(label string) Fact { return attr("aria-label", label) }

// Link attributes

// Href sets the href attribute.
func Href(url string) Fact { return attr("href", url) }

// XLinkHref sets xlink:href on SVG elements.
func XLinkHref(url string) Fact { return AttributeNS("http://www.w3.org/1999/xlink", "href", url) }

// Form attributes

// Name sets the name attribute.
func Name(name string) Fact { return attr("name", name) }

// Type sets the type attribute.
func Type(t string) Fact { return attr("type", t) }

// Placeholder sets the placeholder attribute.
func Placeholder(text string) Fact { return attr("placeholder", text) }

// Value sets the value property. The host value is only written when it
// differs, so user input in progress is not clobbered.
func Value(value string) Fact { return Property("value", value) }

// Checked sets the checked property.
func Checked(checked bool) Fact { return Property("checked", checked) }

// Disabled sets the disabled property.
func Disabled(disabled bool) Fact { return Property("disabled", disabled) }

// Conditional attributes

// ClassIf adds a class conditionally. A false condition yields an empty
// class, which accumulates to nothing.
func ClassIf(condition bool, class string) Fact {
	if condition {
		return attr("class", class)
	}
	return Fact{Kind: FactAttribute, Key: "class", Value: ""}
}
