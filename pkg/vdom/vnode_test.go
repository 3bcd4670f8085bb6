package vdom

import "testing"

func TestKindString(t *testing.T) {
	tests := []struct {
		kind Kind
		want string
	}{
		{KindText, "Text"},
		{KindElement, "Element"},
		{KindKeyed, "Keyed"},
		{KindCustom, "Custom"},
		{KindTagged, "Tagged"},
		{KindLazy, "Lazy"},
		{Kind(99), "Unknown"},
	}

	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.want {
			t.Errorf("Kind(%d).String() = %v, want %v", tt.kind, got, tt.want)
		}
	}
}

func TestText(t *testing.T) {
	node := Text("Hello, World!")

	if node.Kind != KindText {
		t.Errorf("Kind = %v, want KindText", node.Kind)
	}
	if node.Text != "Hello, World!" {
		t.Errorf("Text = %v, want 'Hello, World!'", node.Text)
	}
	if node.Size() != 0 {
		t.Errorf("Size = %d, want 0", node.Size())
	}
}

func TestTextf(t *testing.T) {
	node := Textf("Count: %d", 42)

	if node.Text != "Count: 42" {
		t.Errorf("Text = %v, want 'Count: 42'", node.Text)
	}
}

// checkSizes verifies that every composite node's size is the sum of
// 1 + child size over its children.
func checkSizes(t *testing.T, n *Node) {
	t.Helper()
	want := 0
	switch n.Kind {
	case KindElement:
		for _, c := range n.Children {
			checkSizes(t, c)
			want += 1 + c.Size()
		}
	case KindKeyed:
		for _, c := range n.Keyed {
			checkSizes(t, c.Node)
			want += 1 + c.Node.Size()
		}
	case KindTagged:
		checkSizes(t, n.Child)
		want = 1 + n.Child.Size()
	}
	if n.Size() != want {
		t.Errorf("%s <%s> size = %d, want %d", n.Kind, n.Tag, n.Size(), want)
	}
}

func TestSubtreeSize(t *testing.T) {
	m := NewMapper("m", func(msg any) any { return msg })

	tests := []struct {
		name string
		node *Node
		want int
	}{
		{"text", Text("x"), 0},
		{"empty element", Div(), 0},
		{"flat", Div(Text("a"), Text("b")), 2},
		{"nested", Div(P(Text("a")), Span()), 3},
		{"keyed", Ul(K("a", Li(Text("a"))), K("b", Li())), 3},
		{"tagged", Map(m, Div(Text("a"))), 2},
		{"nested tagged", Map(m, Map(m, Text("a"))), 2},
		{"lazy is opaque", Div(Lazy(nil, func() *Node { return Div(Text("a")) })), 1},
		{"custom is opaque", Div(Custom(nil, &counter{})), 1},
		{"mixed", Div(Map(m, Ul(K("a", Li()))), Text("t")), 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.node.Size(); got != tt.want {
				t.Errorf("Size() = %d, want %d", got, tt.want)
			}
			checkSizes(t, tt.node)
		})
	}
}

func TestElementDropsNilChildren(t *testing.T) {
	node := Element("div", nil, Text("a"), nil, Text("b"))

	if len(node.Children) != 2 {
		t.Fatalf("len(Children) = %d, want 2", len(node.Children))
	}
	if node.Size() != 2 {
		t.Errorf("Size = %d, want 2", node.Size())
	}
}

func TestCreateElementArgs(t *testing.T) {
	node := Div(
		ID("main"),
		[]Fact{Class("a"), Class("b")},
		"hello",
		nil,
		[]*Node{Span(), nil},
	)

	if node.Kind != KindElement {
		t.Fatalf("Kind = %v, want KindElement", node.Kind)
	}
	if node.Facts.Attrs["id"] != "main" {
		t.Errorf("id = %q, want main", node.Facts.Attrs["id"])
	}
	if node.Facts.Attrs["class"] != "a b" {
		t.Errorf("class = %q, want 'a b'", node.Facts.Attrs["class"])
	}
	if len(node.Children) != 2 {
		t.Fatalf("len(Children) = %d, want 2", len(node.Children))
	}
	if node.Children[0].Text != "hello" {
		t.Errorf("first child = %q, want hello", node.Children[0].Text)
	}
}

func TestCreateElementKeyed(t *testing.T) {
	node := Ul(Class("list"), K("a", Li()), Li(), K("c", Li()))

	if node.Kind != KindKeyed {
		t.Fatalf("Kind = %v, want KindKeyed", node.Kind)
	}
	keys := make([]string, len(node.Keyed))
	for i, c := range node.Keyed {
		keys[i] = c.Key
	}
	want := []string{"a", "1", "c"}
	for i := range want {
		if keys[i] != want[i] {
			t.Errorf("key[%d] = %q, want %q", i, keys[i], want[i])
		}
	}
}

func TestSvgNamespace(t *testing.T) {
	node := Svg(Circle(Attribute("r", "4")))

	if node.Namespace != SVGNamespace {
		t.Errorf("Namespace = %q, want %q", node.Namespace, SVGNamespace)
	}
	if node.Children[0].Namespace != SVGNamespace {
		t.Errorf("child Namespace = %q, want %q", node.Children[0].Namespace, SVGNamespace)
	}
}

func TestLazyForcesOnce(t *testing.T) {
	calls := 0
	node := Lazy([]any{1}, func() *Node {
		calls++
		return Text("x")
	})

	first := node.Forced()
	second := node.Forced()

	if calls != 1 {
		t.Errorf("thunk ran %d times, want 1", calls)
	}
	if first != second {
		t.Error("Forced returned different nodes")
	}
}

func TestDekey(t *testing.T) {
	keyed := Keyed("ul", []Fact{Class("x")}, K("a", Li()), K("b", Li(Text("b"))))
	plain := dekey(keyed)

	if plain.Kind != KindElement {
		t.Errorf("Kind = %v, want KindElement", plain.Kind)
	}
	if plain.Size() != keyed.Size() {
		t.Errorf("Size = %d, want %d", plain.Size(), keyed.Size())
	}
	if plain.Children[1] != keyed.Keyed[1].Node {
		t.Error("dekey did not keep child identity")
	}
}

func TestHelpers(t *testing.T) {
	items := []string{"a", "b", "c"}

	nodes := Range(items, func(s string, i int) *Node {
		return If(i != 1, Li(Text(s)))
	})
	if len(nodes) != 2 {
		t.Errorf("Range len = %d, want 2", len(nodes))
	}

	keyed := KeyedRange(items, func(s string) string { return s }, func(s string, _ int) *Node {
		return Li(Text(s))
	})
	if len(keyed) != 3 || keyed[2].Key != "c" {
		t.Errorf("KeyedRange = %v", keyed)
	}

	if got := IfElse(false, Text("a"), Text("b")); got.Text != "b" {
		t.Errorf("IfElse = %q, want b", got.Text)
	}
	if got := When(false, func() *Node { panic("called") }); got != nil {
		t.Error("When(false) should be nil")
	}
	if got := Repeat(3, func(i int) *Node { return Textf("%d", i) }); len(got) != 3 {
		t.Errorf("Repeat len = %d, want 3", len(got))
	}
}
