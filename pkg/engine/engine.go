package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/vtree/pkg/host"
	"github.com/vango-dev/vtree/pkg/vdom"
)

var (
	// ErrStale is returned by Update after a failed apply left the host tree
	// partially patched. Mount a fresh view, or Adopt the tree, to recover.
	ErrStale = errors.New("engine: host tree is stale")

	// ErrNotMounted is returned by Update before the first Mount or Adopt.
	ErrNotMounted = errors.New("engine: no view mounted")

	// ErrNotReader is returned by Adopt when the adapter cannot read back
	// host nodes.
	ErrNotReader = errors.New("engine: adapter does not implement host.Reader")
)

// Op names the kind of render cycle.
type Op string

const (
	OpMount  Op = "mount"
	OpAdopt  Op = "adopt"
	OpUpdate Op = "update"
)

// Cycle describes one completed render cycle.
type Cycle struct {
	Seq      uint64
	Op       Op
	Patches  []vdom.Patch
	Root     host.Node
	View     *vdom.Node
	Duration time.Duration
	Err      error
}

// Observer receives completed cycles. Observe is called synchronously after
// the engine lock is released, in cycle order for a single caller.
type Observer interface {
	Observe(c Cycle)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(c Cycle)

// Observe calls f(c).
func (f ObserverFunc) Observe(c Cycle) { f(c) }

// Engine serialises render cycles against one host tree.
type Engine struct {
	mu      sync.Mutex
	patcher *vdom.Patcher
	root    host.Node
	view    *vdom.Node
	seq     uint64
	stale   bool

	obsMu     sync.RWMutex
	observers []Observer

	logger  *slog.Logger
	tracer  trace.Tracer
	metrics *Metrics
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine's logger. The patcher logs through it too.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithTracer sets the tracer used for cycle spans.
// Default: otel.Tracer("vtree").
func WithTracer(t trace.Tracer) Option {
	return func(e *Engine) {
		if t != nil {
			e.tracer = t
		}
	}
}

// WithMetrics records cycles in m. Without it the engine records nothing.
func WithMetrics(m *Metrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

// WithObserver registers an observer at construction time.
func WithObserver(o Observer) Option {
	return func(e *Engine) {
		if o != nil {
			e.observers = append(e.observers, o)
		}
	}
}

// New creates an engine for adapter a. Messages produced by event handlers
// are delivered to sink.
func New(a host.Adapter, sink vdom.Sink, opts ...Option) *Engine {
	e := &Engine{
		logger: slog.Default(),
		tracer: otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.patcher = vdom.NewPatcher(a, vdom.NewRoute(sink), vdom.WithLogger(e.logger))
	return e
}

// Observe registers an observer.
func (e *Engine) Observe(o Observer) {
	e.obsMu.Lock()
	e.observers = append(e.observers, o)
	e.obsMu.Unlock()
}

// Adapter returns the host adapter.
func (e *Engine) Adapter() host.Adapter {
	return e.patcher.Adapter()
}

// Root returns the live root node, or nil before the first Mount.
func (e *Engine) Root() host.Node {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.root
}

// View returns the view the live tree was built from.
func (e *Engine) View() *vdom.Node {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.view
}

// Seq returns the sequence number of the last cycle.
func (e *Engine) Seq() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.seq
}

// Stale reports whether a failed apply left the host tree out of sync.
func (e *Engine) Stale() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stale
}

// State is a consistent view of the engine between cycles.
type State struct {
	Seq   uint64
	Root  host.Node
	View  *vdom.Node
	Stale bool
}

// Read calls fn with the engine state while holding the cycle lock, so no
// update can mutate the tree during fn. Root and View are nil before the
// first Mount. fn must not call back into the engine.
func (e *Engine) Read(fn func(s State) error) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return fn(State{Seq: e.seq, Root: e.root, View: e.view, Stale: e.stale})
}

// Mount renders view from scratch and makes it current. Any previous root
// is abandoned; attaching the returned node is up to the caller.
func (e *Engine) Mount(ctx context.Context, view *vdom.Node) (host.Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ctx, span := e.startSpan(ctx, OpMount)
	defer span.End()

	e.mu.Lock()
	start := time.Now()
	root, err := e.patcher.Render(view)
	e.seq++
	c := Cycle{Seq: e.seq, Op: OpMount, View: view, Duration: time.Since(start)}
	if err != nil {
		c.Err = fmt.Errorf("engine: mount: %w", err)
	} else {
		e.root, e.view, e.stale = root, view, false
		c.Root = root
	}
	stale := e.stale
	e.mu.Unlock()

	e.finish(ctx, span, c, stale)
	return root, c.Err
}

// Adopt makes an existing host tree current without rendering it, for
// markup produced elsewhere (a server render or a restored snapshot). The
// view is read back with vdom.Virtualize; the next Update patches root in
// place and attaches its listeners.
func (e *Engine) Adopt(ctx context.Context, root host.Node) (*vdom.Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r, ok := e.patcher.Adapter().(host.Reader)
	if !ok {
		return nil, ErrNotReader
	}
	ctx, span := e.startSpan(ctx, OpAdopt)
	defer span.End()

	e.mu.Lock()
	start := time.Now()
	view := vdom.Virtualize(r, root)
	e.seq++
	e.root, e.view, e.stale = root, view, false
	c := Cycle{Seq: e.seq, Op: OpAdopt, Root: root, View: view, Duration: time.Since(start)}
	e.mu.Unlock()

	e.finish(ctx, span, c, false)
	return view, nil
}

// Update diffs view against the current view, applies the patches and makes
// view current. It returns the applied patches.
func (e *Engine) Update(ctx context.Context, view *vdom.Node) ([]vdom.Patch, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ctx, span := e.startSpan(ctx, OpUpdate)
	defer span.End()

	e.mu.Lock()
	switch {
	case e.view == nil:
		e.mu.Unlock()
		e.fail(span, ErrNotMounted)
		return nil, ErrNotMounted
	case e.stale:
		e.mu.Unlock()
		e.fail(span, ErrStale)
		return nil, ErrStale
	}

	start := time.Now()
	patches := vdom.Diff(e.view, view)
	root, err := e.patcher.Apply(e.root, e.view, patches)
	e.seq++
	c := Cycle{Seq: e.seq, Op: OpUpdate, Patches: patches, View: view, Duration: time.Since(start)}
	if err != nil {
		e.stale = true
		c.Err = fmt.Errorf("engine: update: %w", err)
	} else {
		e.root, e.view = root, view
	}
	c.Root = e.root
	stale := e.stale
	e.mu.Unlock()

	e.finish(ctx, span, c, stale)
	return patches, c.Err
}

// finish logs, records and publishes a completed cycle.
func (e *Engine) finish(ctx context.Context, span trace.Span, c Cycle, stale bool) {
	endSpan(span, c)
	e.metrics.observe(c, stale)

	if c.Err != nil {
		e.logger.ErrorContext(ctx, "render cycle failed",
			"seq", c.Seq,
			"op", string(c.Op),
			"patches", vdom.Count(c.Patches),
			"error", c.Err)
	} else {
		e.logger.DebugContext(ctx, "render cycle",
			"seq", c.Seq,
			"op", string(c.Op),
			"patches", vdom.Count(c.Patches),
			"duration", c.Duration)
	}

	e.obsMu.RLock()
	observers := make([]Observer, len(e.observers))
	copy(observers, e.observers)
	e.obsMu.RUnlock()
	for _, o := range observers {
		o.Observe(c)
	}
}

// fail records an update rejected before any work was done.
func (e *Engine) fail(span trace.Span, err error) {
	recordError(span, err)
	if errors.Is(err, ErrStale) {
		e.metrics.rejected()
	}
}
