package vdom

import "github.com/vango-dev/vtree/pkg/host"

// PatchKind is the type of patch operation.
type PatchKind uint8

const (
	PatchReplace  PatchKind = iota // Render a new subtree in place of the old one
	PatchLazy                      // Nested patches for a lazy node's cached child
	PatchReroute                   // Swap the mappers of a tagged node
	PatchSetText                   // Update text content
	PatchSetFacts                  // Apply a facts delta
	PatchCustom                    // Widget-supplied update
	PatchTruncate                  // Remove trailing children
	PatchExtend                    // Append children
	PatchReorder                   // Keyed children reconciliation
	PatchRemove                    // Remove (or move) one keyed child
)

// String returns the string representation of the PatchKind.
func (k PatchKind) String() string {
	switch k {
	case PatchReplace:
		return "Replace"
	case PatchLazy:
		return "Lazy"
	case PatchReroute:
		return "Reroute"
	case PatchSetText:
		return "SetText"
	case PatchSetFacts:
		return "SetFacts"
	case PatchCustom:
		return "Custom"
	case PatchTruncate:
		return "Truncate"
	case PatchExtend:
		return "Extend"
	case PatchReorder:
		return "Reorder"
	case PatchRemove:
		return "Remove"
	default:
		return "Unknown"
	}
}

// Patch is a single positioned mutation. Index is the pre-order position
// of the target in the old view tree; which payload field is set depends
// on Kind.
type Patch struct {
	Kind  PatchKind
	Index int

	Node    *Node       // Replace
	Text    string      // SetText
	Facts   *FactsDiff  // SetFacts
	Mappers []*Mapper   // Reroute
	Sub     []Patch     // Lazy, indexed from 0 at the cached child
	Widget  WidgetPatch // Custom
	From    int         // Truncate, Extend: first affected child position
	Count   int         // Truncate
	Nodes   []*Node     // Extend
	Reorder *Reorder    // Reorder
	Entry   *KeyedEntry // Remove

	target host.Node
	route  *Route
}

// Reorder is the payload of a keyed reconciliation patch. Patches holds the
// in-place diffs and removals in discovery order; Inserts are positions in
// the new child list; EndInserts are appended after everything else.
type Reorder struct {
	Patches    []Patch
	Inserts    []Insert
	EndInserts []Insert
}

// Insert places a keyed entry among the children.
type Insert struct {
	Index int
	Entry *KeyedEntry
}

type entryState uint8

const (
	entryInserted entryState = iota
	entryRemoved
	entryMoved
)

// KeyedEntry correlates the removal and insertion of one key. When both
// happen, the entry is a move and the live node is reused.
type KeyedEntry struct {
	key   string
	state entryState
	node  *Node
	index int
	end   bool
	sub   []Patch
	live  host.Node
}

// Key returns the key (with any duplicate suffix) the entry is filed under.
func (e *KeyedEntry) Key() string { return e.key }

// Moved reports whether the entry's removal and insertion were matched.
func (e *KeyedEntry) Moved() bool { return e.state == entryMoved }

// Node returns the view node to render for a fresh insert, or the removed
// node for a plain removal. For moves it is whichever side was seen first.
func (e *KeyedEntry) Node() *Node { return e.node }

// Patches returns the moved subtree's own patches, indexed like the
// enclosing list.
func (e *KeyedEntry) Patches() []Patch { return e.sub }

// Count returns the number of patches in the list, including nested ones.
func Count(patches []Patch) int {
	n := 0
	for i := range patches {
		n++
		p := &patches[i]
		switch p.Kind {
		case PatchLazy:
			n += Count(p.Sub)
		case PatchReorder:
			n += Count(p.Reorder.Patches)
		case PatchRemove:
			if p.Entry != nil && p.Entry.Moved() {
				n += Count(p.Entry.sub)
			}
		}
	}
	return n
}

// Kinds tallies the patches in the list by kind, including nested ones.
func Kinds(patches []Patch) map[PatchKind]int {
	out := make(map[PatchKind]int)
	var walk func([]Patch)
	walk = func(ps []Patch) {
		for i := range ps {
			p := &ps[i]
			out[p.Kind]++
			switch p.Kind {
			case PatchLazy:
				walk(p.Sub)
			case PatchReorder:
				walk(p.Reorder.Patches)
			case PatchRemove:
				if p.Entry != nil && p.Entry.Moved() {
					walk(p.Entry.sub)
				}
			}
		}
	}
	walk(patches)
	return out
}
