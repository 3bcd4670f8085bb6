package vdom

import "testing"

func TestUnsafeFacts(t *testing.T) {
	f := OrganizeFacts([]Fact{
		Attribute("onclick", "alert(1)"),
		Attribute("OnMouseOver", "alert(2)"),
		Attribute("formAction", "/steal"),
		Attribute("one", "kept"),
		Href("javascript:alert(3)"),
		Attribute("src", "  JavaScript:alert(4)"),
		Attribute("data", "data:text/html,<script>alert(5)</script>"),
		Attribute("title", "javascript is fine here"),
		AttributeNS("urn:x", "onload", "alert(6)"),
		XLinkHref("javascript:alert(7)"),
		Property("innerHTML", "<img src=x onerror=alert(8)>"),
		Property("formAction", "/steal"),
		Property("href", "javascript:alert(9)"),
		Property("value", "safe"),
	})

	attrs := map[string]string{
		"data-onclick":     "alert(1)",
		"data-OnMouseOver": "alert(2)",
		"data-formAction":  "/steal",
		"data-one":         "kept",
		"href":             "",
		"src":              "",
		"data":             "",
		"title":            "javascript is fine here",
	}
	if len(f.Attrs) != len(attrs) {
		t.Errorf("attrs = %v", f.Attrs)
	}
	for k, want := range attrs {
		if got, ok := f.Attrs[k]; !ok || got != want {
			t.Errorf("attr %s = %q (%v), want %q", k, got, ok, want)
		}
	}
	for _, k := range []string{"onclick", "OnMouseOver", "formAction"} {
		if _, ok := f.Attrs[k]; ok {
			t.Errorf("attr %s survived", k)
		}
	}

	if got := f.AttrsNS["data-onload"]; got != (NSAttr{Namespace: "urn:x", Value: "alert(6)"}) {
		t.Errorf("ns onload = %v", got)
	}
	if got := f.AttrsNS["href"].Value; got != "" {
		t.Errorf("xlink:href = %q, want blank", got)
	}

	if _, ok := f.Props["innerHTML"]; ok {
		t.Error("innerHTML property survived")
	}
	if f.Props["data-innerHTML"] != "<img src=x onerror=alert(8)>" {
		t.Errorf("data-innerHTML = %v", f.Props["data-innerHTML"])
	}
	if _, ok := f.Props["data-formAction"]; !ok {
		t.Error("formAction property not moved")
	}
	if f.Props["href"] != "" {
		t.Errorf("href property = %v, want blank", f.Props["href"])
	}
	if f.Props["value"] != "safe" {
		t.Errorf("value = %v", f.Props["value"])
	}
}

func TestEventsAreNotAttributes(t *testing.T) {
	f := OrganizeFacts([]Fact{OnClick(MessageDecoder("click", 1))})
	if len(f.Attrs) != 0 || len(f.Events) != 1 {
		t.Errorf("facts = %+v", f)
	}
}

func TestScriptTag(t *testing.T) {
	tests := []struct {
		name string
		node *Node
	}{
		{"element", Element("script", nil, Text("alert(1)"))},
		{"upper case", Element("SCRIPT", nil)},
		{"namespaced", ElementNS("urn:x", "script", nil)},
		{"keyed", Keyed("script", nil, K("a", Text("alert(1)")))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.node.Tag != "p" {
				t.Errorf("tag = %q, want p", tt.node.Tag)
			}
		})
	}
	if n := Element("scripts", nil); n.Tag != "scripts" {
		t.Errorf("tag = %q, want scripts", n.Tag)
	}
}

func TestUnsafeFactsNeverReachHost(t *testing.T) {
	click := MessageDecoder("click", 1)
	prev := Div(Attribute("title", "a"))
	next := Div(Attribute("onclick", "alert(1)"), Href("javascript:void(0)"), OnClick(click))

	root := transition(t, prev, next)
	if _, ok := root.Attrs["onclick"]; ok {
		t.Errorf("onclick attribute reached host: %v", root.Attrs)
	}
	if root.Attrs["data-onclick"] != "alert(1)" || root.Attrs["href"] != "" {
		t.Errorf("attrs = %v", root.Attrs)
	}
	if root.ListenerCount("click") != 1 {
		t.Errorf("click listeners = %d", root.ListenerCount("click"))
	}
}
