package vdom

import (
	"fmt"
	"testing"

	"github.com/vango-dev/vtree/pkg/host/memhost"
)

func BenchmarkElementCreation(b *testing.B) {
	b.Run("simple div", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			_ = Div(Class("card"))
		}
	})

	b.Run("complex card", func(b *testing.B) {
		click := MessageDecoder("click", "save")
		for i := 0; i < b.N; i++ {
			_ = Div(Class("card"),
				Header(H2(Text("Card Title"))),
				Main(
					P(Text("Card content goes here")),
					P(Text("More content")),
				),
				Footer(
					Button(OnClick(click), Text("Save")),
					Button(OnClick(click), Text("Cancel")),
				),
			)
		}
	})
}

func BenchmarkDiffSameTree(b *testing.B) {
	tree := createLargeTree(100)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = Diff(tree, tree)
	}
}

func BenchmarkDiffAttributeChange(b *testing.B) {
	prev := Div(Class("old"), ID("test"))
	next := Div(Class("new"), ID("test"))

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = Diff(prev, next)
	}
}

func BenchmarkDiffKeyedReorder(b *testing.B) {
	for _, n := range []int{10, 100} {
		b.Run(fmt.Sprintf("%d children", n), func(b *testing.B) {
			prev := createKeyedList(n, identity)
			next := createKeyedList(n, reversed(n))

			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				_ = Diff(prev, next)
			}
		})
	}
}

func BenchmarkDiffKeyedAddition(b *testing.B) {
	prev := createKeyedList(100, identity)
	kids := append([]KeyedChild(nil), prev.Keyed[:50]...)
	kids = append(kids, K("new-key", Li(Text("New Item"))))
	kids = append(kids, prev.Keyed[50:]...)
	next := Keyed("ul", nil, kids...)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = Diff(prev, next)
	}
}

func BenchmarkDiffLargeTree(b *testing.B) {
	for _, n := range []int{100, 1000} {
		b.Run(fmt.Sprintf("%d nodes", n), func(b *testing.B) {
			prev := createLargeTree(n)
			next := createLargeTreeWithChange(n)

			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				_ = Diff(prev, next)
			}
		})
	}
}

func BenchmarkDiffLazy(b *testing.B) {
	model := &struct{ n int }{n: 1}
	prev := Div(Lazy([]any{model}, func() *Node { return createLargeTree(1000) }))
	prev.Children[0].Forced()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		next := Div(Lazy([]any{model}, func() *Node { return createLargeTree(1000) }))
		_ = Diff(prev, next)
	}
}

func BenchmarkApplyKeyedReverse(b *testing.B) {
	prev := createKeyedList(100, identity)
	next := createKeyedList(100, reversed(100))

	for i := 0; i < b.N; i++ {
		b.StopTimer()
		p := NewPatcher(memhost.New(), nil)
		root, err := p.Render(prev)
		if err != nil {
			b.Fatal(err)
		}
		patches := Diff(prev, next)
		b.StartTimer()

		if _, err := p.Apply(root, prev, patches); err != nil {
			b.Fatal(err)
		}
	}
}

// Helper functions for benchmarks

func identity(i int) int { return i }

func reversed(n int) func(int) int {
	return func(i int) int { return n - 1 - i }
}

func createLargeTree(n int) *Node {
	return createLargeTreeChanged(n, -1)
}

func createLargeTreeWithChange(n int) *Node {
	return createLargeTreeChanged(n, 0)
}

func createLargeTreeChanged(n, changed int) *Node {
	children := make([]*Node, n/10)
	for i := range children {
		items := make([]*Node, 10)
		for j := range items {
			text := fmt.Sprintf("Item %d", i*10+j)
			if i*10+j == changed {
				text = "Changed Item"
			}
			items[j] = Li(Text(text))
		}
		children[i] = Ul(items)
	}
	return Div(Class("container"), children)
}

func createKeyedList(n int, order func(int) int) *Node {
	children := make([]KeyedChild, n)
	for i := range children {
		j := order(i)
		children[i] = K(fmt.Sprintf("key-%d", j), Li(Textf("Item %d", j)))
	}
	return Keyed("ul", nil, children...)
}
