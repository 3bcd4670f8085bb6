package vdom

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/vango-dev/vtree/pkg/host"
	"github.com/vango-dev/vtree/pkg/host/memhost"
)

// viewGen builds pseudo-random views from a seed. Mappers and decoders come
// from small shared pools so that consecutive views share identities and
// the differ takes its in-place paths, not only replacements.
type viewGen struct {
	r        *rand.Rand
	mappers  []*Mapper
	decoders []*Decoder
}

func newViewGen(seed int64) *viewGen {
	return &viewGen{
		r:       rand.New(rand.NewSource(seed)),
		mappers: []*Mapper{prefix("a:"), prefix("b:"), prefix("c:")},
		decoders: []*Decoder{
			MessageDecoder("x", "x"),
			MessageDecoder("y", "y"),
		},
	}
}

func (g *viewGen) sub(seed int64) *viewGen {
	return &viewGen{r: rand.New(rand.NewSource(seed)), mappers: g.mappers, decoders: g.decoders}
}

var genTags = []string{"div", "span", "p"}

// view returns a root element with up to four children.
func (g *viewGen) view() *Node {
	return Element("div", g.facts(), g.kids(3)...)
}

func (g *viewGen) kids(depth int) []*Node {
	kids := make([]*Node, g.r.Intn(5))
	for i := range kids {
		kids[i] = g.node(depth)
	}
	return kids
}

func (g *viewGen) node(depth int) *Node {
	if depth == 0 {
		return Text(fmt.Sprintf("t%d", g.r.Intn(3)))
	}
	switch g.r.Intn(8) {
	case 0:
		return Text(fmt.Sprintf("t%d", g.r.Intn(3)))
	case 1, 2:
		return Element(genTags[g.r.Intn(len(genTags))], g.facts(), g.kids(depth-1)...)
	case 3:
		return g.keyed(depth)
	case 4:
		return Map(g.mappers[g.r.Intn(len(g.mappers))], g.node(depth-1))
	case 5:
		// The body is a pure function of the refs, as a lazy thunk must be.
		ref, sub := g.r.Intn(3), depth-1
		return Lazy([]any{ref, sub}, func() *Node {
			return g.sub(int64(ref) + 1000*int64(sub)).node(sub)
		})
	case 6:
		return Custom(g.facts(), &counter{n: g.r.Intn(2)})
	default:
		return Custom(nil, badge{})
	}
}

func (g *viewGen) keyed(depth int) *Node {
	keys := []string{"a", "b", "c", "d", "e", "f"}
	g.r.Shuffle(len(keys), func(i, j int) { keys[i], keys[j] = keys[j], keys[i] })
	kids := make([]KeyedChild, g.r.Intn(len(keys)+1))
	for i := range kids {
		kids[i] = K(keys[i], g.node(depth-1))
	}
	return Keyed("ul", g.facts(), kids...)
}

func (g *viewGen) facts() []Fact {
	var facts []Fact
	if g.r.Intn(2) == 0 {
		facts = append(facts, Class([]string{"x", "y"}[g.r.Intn(2)]))
	}
	if g.r.Intn(3) == 0 {
		facts = append(facts, Style("color", []string{"red", "blue"}[g.r.Intn(2)]))
	}
	if g.r.Intn(3) == 0 {
		facts = append(facts, Property("value", []string{"", "v"}[g.r.Intn(2)]))
	}
	if g.r.Intn(3) == 0 {
		facts = append(facts, AttributeNS("urn:x", "k", "v"))
	}
	if g.r.Intn(2) == 0 {
		facts = append(facts, OnClick(g.decoders[g.r.Intn(len(g.decoders))]))
	}
	return facts
}

// checkTransitions renders the first view of seed, then applies the diffs
// to each following view. After every step the patched tree must match a
// fresh render of the same view, and a click on any node must produce the
// same message in both trees.
func checkTransitions(t *testing.T, seed int64, steps int) {
	t.Helper()
	g := newViewGen(seed)
	rec := &sinkRecorder{}

	prev := g.view()
	doc, p, root := mount(t, prev, rec.sink)
	var cur host.Node = root

	for step := 1; step <= steps; step++ {
		next := g.view()
		got, err := p.Apply(cur, prev, Diff(prev, next))
		if err != nil {
			t.Fatalf("seed %d step %d: Apply: %v", seed, step, err)
		}

		freshRec := &sinkRecorder{}
		freshDoc, _, want := mount(t, next, freshRec.sink)
		patched := got.(*memhost.Node)
		if err := memhost.Compare(patched, want); err != nil {
			t.Fatalf("seed %d step %d: patched tree differs from fresh render: %v\ngot:\n%s\nwant:\n%s",
				seed, step, err, memhost.Dump(patched), memhost.Dump(want))
		}
		compareClicks(t, doc, patched, rec, freshDoc, want, freshRec, fmt.Sprintf("seed %d step %d", seed, step))

		cur, prev = got, next
	}
}

// compareClicks walks two trees of the same shape and clicks every node
// with a click listener in both.
func compareClicks(t *testing.T, doc *memhost.Document, got *memhost.Node, gotRec *sinkRecorder, freshDoc *memhost.Document, want *memhost.Node, wantRec *sinkRecorder, where string) {
	t.Helper()
	if got.ListenerCount("click") > 0 {
		gotRec.got, wantRec.got = nil, nil
		doc.Dispatch(got, "click", nil)
		freshDoc.Dispatch(want, "click", nil)
		if fmt.Sprint(gotRec.got) != fmt.Sprint(wantRec.got) {
			t.Fatalf("%s: click on <%s> sent %v, fresh render sent %v", where, got.Tag, gotRec.got, wantRec.got)
		}
	}
	for i, c := range got.Children() {
		compareClicks(t, doc, c, gotRec, freshDoc, want.Child(i), wantRec, where)
	}
}

func TestRandomTransitions(t *testing.T) {
	for seed := int64(1); seed <= 300; seed++ {
		checkTransitions(t, seed, 6)
	}
}

// FuzzTransitions explores more seeds with the same checks.
func FuzzTransitions(f *testing.F) {
	for _, seed := range []int64{1, 7, 42, 1234} {
		f.Add(seed, uint8(4))
	}
	f.Fuzz(func(t *testing.T, seed int64, steps uint8) {
		checkTransitions(t, seed, int(steps%8)+1)
	})
}
