package vdom

import "github.com/vango-dev/vtree/pkg/host"

// locate attaches every patch to its live host node with one pre-order walk
// of the old tree. Subtrees whose position range holds no patch are skipped.
func (p *Patcher) locate(root host.Node, old *Node, patches []Patch) {
	p.locateHelp(root, old, patches, 0, 0, old.size, p.route)
}

// locateHelp visits v (rendered as n) whose subtree spans positions
// low..high, starting at patches[i]. It returns the index of the first
// patch it did not consume.
func (p *Patcher) locateHelp(n host.Node, v *Node, patches []Patch, i, low, high int, route *Route) int {
	if i >= len(patches) || n == nil {
		return i
	}
	patch := &patches[i]
	index := patch.Index

	for index == low {
		patch.target = n
		patch.route = route

		switch patch.Kind {
		case PatchLazy:
			cached := v.Forced()
			p.locateHelp(n, cached, patch.Sub, 0, 0, cached.size, route)

		case PatchReorder:
			if sub := patch.Reorder.Patches; len(sub) > 0 {
				p.locateHelp(n, v, sub, 0, low, high, route)
			}

		case PatchRemove:
			if e := patch.Entry; e != nil && e.state == entryMoved {
				e.live = n
				if len(e.sub) > 0 {
					p.locateHelp(n, v, e.sub, 0, low, high, route)
				}
			}
		}

		i++
		if i >= len(patches) {
			return i
		}
		patch = &patches[i]
		if index = patch.Index; index > high {
			return i
		}
	}

	switch v.Kind {
	case KindTagged:
		// Tagged layers share their child's host node.
		sub := v.Child
		for sub.Kind == KindTagged {
			sub = sub.Child
		}
		link := linkFor(n, route)
		if link == nil {
			link = route
		}
		return p.locateHelp(n, sub, patches, i, low+1, high, link)

	case KindElement, KindKeyed:
		kids := v.kids()
		for j, kid := range kids {
			low++
			nextLow := low + kid.size
			if low <= index && index <= nextLow {
				i = p.locateHelp(p.adapter.ChildAt(n, j), kid, patches, i, low, nextLow, route)
				if i >= len(patches) {
					return i
				}
				if index = patches[i].Index; index > high {
					return i
				}
			}
			low = nextLow
		}
	}
	return i
}
