package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/vango-dev/vtree/pkg/host"
	"github.com/vango-dev/vtree/pkg/host/memhost"
	"github.com/vango-dev/vtree/pkg/vdom"
)

func list(items ...string) *vdom.Node {
	kids := make([]vdom.KeyedChild, len(items))
	for i, item := range items {
		kids[i] = vdom.K(item, vdom.Element("li", nil, vdom.Text(item)))
	}
	return vdom.Keyed("ul", []vdom.Fact{vdom.Class("list")}, kids...)
}

func fresh(t *testing.T, v *vdom.Node) *memhost.Node {
	t.Helper()
	root, err := vdom.NewPatcher(memhost.New(), nil).Render(v)
	require.NoError(t, err)
	return root.(*memhost.Node)
}

func TestMountThenUpdate(t *testing.T) {
	doc := memhost.New()
	eng := New(doc, nil)
	ctx := context.Background()

	root, err := eng.Mount(ctx, list("a", "b", "c"))
	require.NoError(t, err)
	assert.Equal(t, root, eng.Root())
	assert.Equal(t, uint64(1), eng.Seq())

	next := list("c", "a", "d")
	patches, err := eng.Update(ctx, next)
	require.NoError(t, err)
	assert.NotEmpty(t, patches)
	assert.Same(t, next, eng.View())
	assert.Equal(t, uint64(2), eng.Seq())

	assert.NoError(t, memhost.Compare(eng.Root().(*memhost.Node), fresh(t, next)))
}

func TestUpdateBeforeMount(t *testing.T) {
	eng := New(memhost.New(), nil)
	_, err := eng.Update(context.Background(), list("a"))
	assert.ErrorIs(t, err, ErrNotMounted)
}

func TestCancelledContext(t *testing.T) {
	eng := New(memhost.New(), nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := eng.Mount(ctx, list("a"))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, eng.Root())
}

func TestFailedApplyMarksStale(t *testing.T) {
	doc := memhost.New()
	eng := New(doc, nil)
	ctx := context.Background()

	_, err := eng.Mount(ctx, vdom.Div(vdom.Text("one")))
	require.NoError(t, err)

	boom := errors.New("boom")
	doc.Fail = func(op string, _ *memhost.Node) error {
		if op == "setText" {
			return boom
		}
		return nil
	}
	_, err = eng.Update(ctx, vdom.Div(vdom.Text("two")))
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	var ae *vdom.ApplyError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, vdom.PatchSetText, ae.Kind)
	assert.True(t, eng.Stale())

	doc.Fail = nil
	_, err = eng.Update(ctx, vdom.Div(vdom.Text("three")))
	assert.ErrorIs(t, err, ErrStale)

	view := vdom.Div(vdom.Text("four"))
	_, err = eng.Mount(ctx, view)
	require.NoError(t, err)
	assert.False(t, eng.Stale())

	_, err = eng.Update(ctx, vdom.Div(vdom.Text("five")))
	require.NoError(t, err)
	assert.NoError(t, memhost.Compare(eng.Root().(*memhost.Node), fresh(t, vdom.Div(vdom.Text("five")))))
}

func TestRootReplacementUpdatesRoot(t *testing.T) {
	eng := New(memhost.New(), nil)
	ctx := context.Background()

	first, err := eng.Mount(ctx, vdom.Div())
	require.NoError(t, err)
	_, err = eng.Update(ctx, vdom.Span())
	require.NoError(t, err)

	assert.NotSame(t, first, eng.Root())
	assert.Equal(t, "span", eng.Root().(*memhost.Node).Tag)
}

func TestObserversSeeEveryCycle(t *testing.T) {
	eng := New(memhost.New(), nil)
	ctx := context.Background()

	var cycles []Cycle
	eng.Observe(ObserverFunc(func(c Cycle) {
		// The lock is released before observers run.
		assert.Equal(t, c.Root, eng.Root())
		cycles = append(cycles, c)
	}))

	_, err := eng.Mount(ctx, list("a"))
	require.NoError(t, err)
	_, err = eng.Update(ctx, list("a", "b"))
	require.NoError(t, err)
	_, err = eng.Update(ctx, list("a", "b"))
	require.NoError(t, err)

	require.Len(t, cycles, 3)
	for i, c := range cycles {
		assert.Equal(t, uint64(i+1), c.Seq)
		assert.NoError(t, c.Err)
	}
	assert.Equal(t, OpMount, cycles[0].Op)
	assert.Empty(t, cycles[0].Patches)
	assert.Equal(t, OpUpdate, cycles[1].Op)
	assert.NotEmpty(t, cycles[1].Patches)
	assert.Empty(t, cycles[2].Patches)
}

func TestObserverSeesFailure(t *testing.T) {
	doc := memhost.New()
	var got []Cycle
	eng := New(doc, nil, WithObserver(ObserverFunc(func(c Cycle) { got = append(got, c) })))
	ctx := context.Background()

	_, err := eng.Mount(ctx, vdom.Div(vdom.Text("a")))
	require.NoError(t, err)
	doc.Fail = func(string, *memhost.Node) error { return errors.New("nope") }
	_, err = eng.Update(ctx, vdom.Div(vdom.Text("b")))
	require.Error(t, err)

	require.Len(t, got, 2)
	assert.Error(t, got[1].Err)
	assert.Len(t, got[1].Patches, 1)
}

func TestEventsReachSink(t *testing.T) {
	type msg struct{ name string }
	var (
		got   []any
		syncs []bool
	)
	sink := func(m any, s bool) {
		got = append(got, m)
		syncs = append(syncs, s)
	}
	doc := memhost.New()
	eng := New(doc, sink)
	ctx := context.Background()

	view := func(name string) *vdom.Node {
		return vdom.Button(vdom.OnClick(vdom.MessageDecoder("click", msg{name})), vdom.Text(name))
	}
	_, err := eng.Mount(ctx, view("first"))
	require.NoError(t, err)
	_, err = eng.Update(ctx, view("second"))
	require.NoError(t, err)

	doc.Dispatch(eng.Root().(*memhost.Node), "click", nil)
	assert.Equal(t, []any{msg{"second"}}, got)
	assert.Equal(t, []bool{false}, syncs)
}

func TestConcurrentUpdatesAreSerialised(t *testing.T) {
	eng := New(memhost.New(), nil)
	ctx := context.Background()
	_, err := eng.Mount(ctx, list("0"))
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 1; i <= 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			items := make([]string, i%5+1)
			for j := range items {
				items[j] = fmt.Sprint((i + j) % 7)
			}
			_, err := eng.Update(ctx, list(items...))
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, uint64(21), eng.Seq())
	assert.NoError(t, memhost.Compare(eng.Root().(*memhost.Node), fresh(t, eng.View())))
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(WithRegistry(reg), WithNamespace("test"))
	doc := memhost.New()
	eng := New(doc, nil, WithMetrics(m), WithTracer(noop.NewTracerProvider().Tracer("test")))
	ctx := context.Background()

	_, err := eng.Mount(ctx, vdom.Div(vdom.Text("a")))
	require.NoError(t, err)
	_, err = eng.Update(ctx, vdom.Div(vdom.Text("b"), vdom.Text("c")))
	require.NoError(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.cyclesTotal.WithLabelValues("mount", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.cyclesTotal.WithLabelValues("update", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.patchesTotal.WithLabelValues("SetText")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.patchesTotal.WithLabelValues("Extend")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.stale))

	doc.Fail = func(string, *memhost.Node) error { return errors.New("down") }
	_, err = eng.Update(ctx, vdom.Div(vdom.Text("x")))
	require.Error(t, err)
	_, err = eng.Update(ctx, vdom.Div(vdom.Text("y")))
	require.ErrorIs(t, err, ErrStale)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.cyclesTotal.WithLabelValues("update", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.staleRejects))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.stale))
}

func TestRead(t *testing.T) {
	eng := New(memhost.New(), nil)
	require.NoError(t, eng.Read(func(s State) error {
		assert.Nil(t, s.Root)
		assert.Nil(t, s.View)
		assert.Zero(t, s.Seq)
		return nil
	}))

	v := list("a")
	_, err := eng.Mount(context.Background(), v)
	require.NoError(t, err)

	boom := errors.New("boom")
	err = eng.Read(func(s State) error {
		assert.Same(t, v, s.View)
		assert.Equal(t, "ul", s.Root.(*memhost.Node).Tag)
		assert.Equal(t, uint64(1), s.Seq)
		assert.False(t, s.Stale)
		return boom
	})
	assert.ErrorIs(t, err, boom)
}

func TestAdoptThenUpdate(t *testing.T) {
	// Markup rendered by another patcher on the same document, with no
	// listeners attached.
	doc := memhost.New()
	pre, err := vdom.NewPatcher(doc, nil).Render(list("a", "b"))
	require.NoError(t, err)
	first := pre.(*memhost.Node).Child(0)

	var got []any
	eng := New(doc, func(msg any, _ bool) { got = append(got, msg) })
	ctx := context.Background()

	var cycles []Cycle
	eng.Observe(ObserverFunc(func(c Cycle) { cycles = append(cycles, c) }))

	view, err := eng.Adopt(ctx, pre)
	require.NoError(t, err)
	assert.Equal(t, "ul", view.Tag)
	assert.Equal(t, pre, eng.Root())
	assert.Same(t, view, eng.View())
	require.Len(t, cycles, 1)
	assert.Equal(t, OpAdopt, cycles[0].Op)
	assert.Empty(t, cycles[0].Patches)

	click := vdom.MessageDecoder("click", "picked")
	next := vdom.Keyed("ul", []vdom.Fact{vdom.Class("list")},
		vdom.K("a", vdom.Element("li", []vdom.Fact{vdom.OnClick(click)}, vdom.Text("a"))),
		vdom.K("b", vdom.Element("li", nil, vdom.Text("b"))),
	)
	_, err = eng.Update(ctx, next)
	require.NoError(t, err)
	assert.Equal(t, pre, eng.Root())
	assert.NoError(t, memhost.Compare(pre.(*memhost.Node), fresh(t, next)))

	doc.Dispatch(first, "click", nil)
	assert.Equal(t, []any{"picked"}, got)
}

func TestAdoptNeedsReader(t *testing.T) {
	doc := memhost.New()
	root, err := doc.CreateElement("div", "")
	require.NoError(t, err)

	eng := New(struct{ host.Adapter }{doc}, nil)
	_, err = eng.Adopt(context.Background(), root)
	assert.ErrorIs(t, err, ErrNotReader)
	assert.Nil(t, eng.Root())

	_, err = eng.Update(context.Background(), vdom.Div())
	assert.ErrorIs(t, err, ErrNotMounted)
}

func TestAdoptClearsStale(t *testing.T) {
	doc := memhost.New()
	eng := New(doc, nil)
	ctx := context.Background()

	root, err := eng.Mount(ctx, vdom.Div(vdom.Text("one")))
	require.NoError(t, err)
	doc.Fail = func(string, *memhost.Node) error { return errors.New("boom") }
	_, err = eng.Update(ctx, vdom.Div(vdom.Text("two")))
	require.Error(t, err)
	require.True(t, eng.Stale())
	doc.Fail = nil

	view, err := eng.Adopt(ctx, root)
	require.NoError(t, err)
	assert.False(t, eng.Stale())
	assert.Equal(t, "one", view.Children[0].Text)

	_, err = eng.Update(ctx, vdom.Div(vdom.Text("three")))
	require.NoError(t, err)
	assert.Equal(t, "three", root.(*memhost.Node).Child(0).Text)
}
