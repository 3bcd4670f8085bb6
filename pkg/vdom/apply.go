package vdom

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/vango-dev/vtree/pkg/host"
)

// ErrUnknownPatch is returned when a patch kind has no apply rule. It means
// the patch list was not produced by Diff.
var ErrUnknownPatch = errors.New("vdom: unknown patch kind")

// ErrUnlocated is returned when a patch could not be matched to a live node,
// usually because the host tree was not rendered from the old view.
var ErrUnlocated = errors.New("vdom: patch target not found")

// ApplyError describes a failed apply call. The host tree is left as it was
// when the failing patch was reached.
type ApplyError struct {
	Kind  PatchKind
	Index int
	Err   error
}

// Error implements the error interface.
func (e *ApplyError) Error() string {
	return fmt.Sprintf("vdom: apply %s patch at %d: %v", e.Kind, e.Index, e.Err)
}

// Unwrap returns the underlying error.
func (e *ApplyError) Unwrap() error {
	return e.Err
}

// Patcher renders view trees into a host and applies patch lists. A Patcher
// is not safe for concurrent use; one diff+apply cycle must finish before
// the next begins.
type Patcher struct {
	adapter host.Adapter
	route   *Route
	logger  *slog.Logger
}

// PatcherOption configures a Patcher.
type PatcherOption func(*Patcher)

// WithLogger sets the patcher's logger.
func WithLogger(l *slog.Logger) PatcherOption {
	return func(p *Patcher) {
		if l != nil {
			p.logger = l
		}
	}
}

// NewPatcher creates a patcher for the given host. Events from rendered
// nodes are delivered through route; a nil route drops them.
func NewPatcher(a host.Adapter, route *Route, opts ...PatcherOption) *Patcher {
	if route == nil {
		route = NewRoute(func(any, bool) {})
	}
	p := &Patcher{
		adapter: a,
		route:   route,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Adapter returns the host adapter.
func (p *Patcher) Adapter() host.Adapter {
	return p.adapter
}

// Apply applies patches produced by Diff(old, next) to root, the host tree
// rendered from old. It returns the new root, which differs from root when
// the root itself was replaced.
func (p *Patcher) Apply(root host.Node, old *Node, patches []Patch) (host.Node, error) {
	if len(patches) == 0 {
		return root, nil
	}
	p.locate(root, old, patches)
	return p.applyPatches(root, patches)
}

func (p *Patcher) applyPatches(root host.Node, patches []Patch) (host.Node, error) {
	for i := range patches {
		patch := &patches[i]
		local := patch.target
		if local == nil {
			return root, &ApplyError{Kind: patch.Kind, Index: patch.Index, Err: ErrUnlocated}
		}
		n, err := p.applyPatch(local, patch)
		if err != nil {
			var ae *ApplyError
			if errors.As(err, &ae) {
				return root, err
			}
			if errors.Is(err, ErrUnknownPatch) {
				p.logger.Error("vdom: unknown patch kind", "kind", uint8(patch.Kind), "index", patch.Index)
			}
			return root, &ApplyError{Kind: patch.Kind, Index: patch.Index, Err: err}
		}
		if local == root {
			root = n
		}
	}
	return root, nil
}

func (p *Patcher) applyPatch(n host.Node, patch *Patch) (host.Node, error) {
	a := p.adapter

	switch patch.Kind {
	case PatchReplace:
		return p.replace(n, patch.Node, patch.route)

	case PatchSetFacts:
		return n, p.applyFacts(n, patch.route, patch.Facts)

	case PatchSetText:
		return n, a.SetText(n, patch.Text)

	case PatchLazy:
		return p.applyPatches(n, patch.Sub)

	case PatchReroute:
		if r := linkFor(n, patch.route); r != nil {
			r.mappers = patch.Mappers
		} else if slot := n.Slot(); slot.Route == nil {
			slot.Route = &Route{mappers: patch.Mappers, parent: patch.route}
		}
		return n, nil

	case PatchTruncate:
		for i := 0; i < patch.Count; i++ {
			c := a.ChildAt(n, patch.From)
			if c == nil {
				return n, fmt.Errorf("no child at %d", patch.From)
			}
			if err := a.RemoveChild(n, c); err != nil {
				return n, err
			}
		}
		return n, nil

	case PatchExtend:
		for _, kid := range patch.Nodes {
			c, err := p.render(kid, patch.route)
			if err != nil {
				return n, err
			}
			if err := a.InsertBefore(n, c, nil); err != nil {
				return n, err
			}
		}
		return n, nil

	case PatchRemove:
		return p.applyRemove(n, patch)

	case PatchReorder:
		return p.applyReorder(n, patch)

	case PatchCustom:
		nn, err := patch.Widget(a, n)
		if err != nil {
			return n, err
		}
		if parent := a.Parent(n); parent != nil && nn != n {
			if err := a.ReplaceChild(parent, nn, n); err != nil {
				return n, err
			}
		}
		return nn, nil
	}

	return n, ErrUnknownPatch
}

// replace renders v and swaps it in for n. A replacement that installs no
// route of its own gets route, the innermost link of any tagged ancestors
// sharing n's host node.
func (p *Patcher) replace(n host.Node, v *Node, route *Route) (host.Node, error) {
	a := p.adapter
	parent := a.Parent(n)
	nn, err := p.render(v, route)
	if err != nil {
		return n, err
	}
	if nn.Slot().Route == nil {
		nn.Slot().Route = route
	}
	if parent != nil && nn != n {
		if err := a.ReplaceChild(parent, nn, n); err != nil {
			return n, err
		}
	}
	return nn, nil
}

// applyRemove detaches a keyed child. For a move the node is kept: its own
// patches are applied and the entry holds the result for reinsertion.
func (p *Patcher) applyRemove(n host.Node, patch *Patch) (host.Node, error) {
	a := p.adapter
	e := patch.Entry

	if e == nil || e.state != entryMoved {
		if parent := a.Parent(n); parent != nil {
			return n, a.RemoveChild(parent, n)
		}
		return n, nil
	}

	// Tail moves were detached before the local patches ran.
	if !e.end {
		if parent := a.Parent(n); parent != nil {
			if err := a.RemoveChild(parent, n); err != nil {
				return n, err
			}
		}
	}
	live, err := p.applyPatches(n, e.sub)
	if err != nil {
		return n, err
	}
	e.live = live
	return n, nil
}

// applyReorder runs a keyed reconciliation: detach nodes moving to the
// tail, apply the local patches, insert at their final positions, then
// append the tail.
func (p *Patcher) applyReorder(n host.Node, patch *Patch) (host.Node, error) {
	a := p.adapter
	r := patch.Reorder

	for _, ins := range r.EndInserts {
		if e := ins.Entry; e.state == entryMoved && e.live != nil && a.Parent(e.live) != nil {
			if err := a.RemoveChild(a.Parent(e.live), e.live); err != nil {
				return n, err
			}
		}
	}

	n, err := p.applyPatches(n, r.Patches)
	if err != nil {
		return n, err
	}

	for _, ins := range r.Inserts {
		c, err := p.entryNode(ins.Entry, patch.route)
		if err != nil {
			return n, err
		}
		if err := a.InsertBefore(n, c, a.ChildAt(n, ins.Index)); err != nil {
			return n, err
		}
	}

	for _, ins := range r.EndInserts {
		c, err := p.entryNode(ins.Entry, patch.route)
		if err != nil {
			return n, err
		}
		if err := a.InsertBefore(n, c, nil); err != nil {
			return n, err
		}
	}
	return n, nil
}

func (p *Patcher) entryNode(e *KeyedEntry, route *Route) (host.Node, error) {
	if e.state == entryMoved {
		if e.live == nil {
			return nil, ErrUnlocated
		}
		return e.live, nil
	}
	return p.render(e.node, route)
}
