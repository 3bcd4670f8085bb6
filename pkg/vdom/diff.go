package vdom

import "reflect"

// Diff compares two view trees and returns the patches needed to transform
// the host tree rendered from prev into the shape of next. Patches are
// ordered by ascending Index.
//
// Diff may force lazy nodes in next and records their cached children, so
// next must be the tree that is applied and kept for the following diff.
func Diff(prev, next *Node) []Patch {
	var patches []Patch
	diff(prev, next, &patches, 0)
	return patches
}

func push(patches *[]Patch, p Patch) {
	*patches = append(*patches, p)
}

// diff recursively compares nodes and appends patches.
func diff(x, y *Node, patches *[]Patch, index int) {
	if x == y {
		return
	}

	if x.Kind != y.Kind {
		switch {
		case x.Kind == KindElement && y.Kind == KindKeyed:
			y = dekey(y)
		case x.Kind == KindKeyed && y.Kind == KindElement:
			x = dekey(x)
		default:
			push(patches, Patch{Kind: PatchReplace, Index: index, Node: y})
			return
		}
	}

	switch y.Kind {
	case KindLazy:
		diffLazy(x, y, patches, index)

	case KindTagged:
		diffTagged(x, y, patches, index)

	case KindText:
		if x.Text != y.Text {
			push(patches, Patch{Kind: PatchSetText, Index: index, Text: y.Text})
		}

	case KindElement:
		diffNodes(x, y, patches, index, diffKids)

	case KindKeyed:
		diffNodes(x, y, patches, index, diffKeyedKids)

	case KindCustom:
		if reflect.TypeOf(x.Widget) != reflect.TypeOf(y.Widget) {
			push(patches, Patch{Kind: PatchReplace, Index: index, Node: y})
			return
		}
		if fd := DiffFacts(x.Facts, y.Facts); fd != nil {
			push(patches, Patch{Kind: PatchSetFacts, Index: index, Facts: fd})
		}
		if wp := y.Widget.Diff(x.Widget); wp != nil {
			push(patches, Patch{Kind: PatchCustom, Index: index, Widget: wp})
		}
	}
}

// diffLazy reuses the cached child when every ref is identical. Otherwise
// the new thunk runs and its output is diffed into a nested list rooted at
// the cached child.
func diffLazy(x, y *Node, patches *[]Patch, index int) {
	same := len(x.Refs) == len(y.Refs)
	for i := 0; same && i < len(x.Refs); i++ {
		same = sameRef(x.Refs[i], y.Refs[i])
	}
	if same {
		y.cached = x.cached
		return
	}

	var sub []Patch
	diff(x.Forced(), y.Forced(), &sub, 0)
	if len(sub) > 0 {
		push(patches, Patch{Kind: PatchLazy, Index: index, Sub: sub})
	}
}

// diffTagged unwraps every layer of mappers. A different layer count means
// the routing shape changed, so the subtree is replaced.
func diffTagged(x, y *Node, patches *[]Patch, index int) {
	xMappers, xSub := unwrap(x)
	yMappers, ySub := unwrap(y)

	if len(xMappers) != len(yMappers) {
		push(patches, Patch{Kind: PatchReplace, Index: index, Node: y})
		return
	}
	for i := range xMappers {
		if xMappers[i] != yMappers[i] {
			push(patches, Patch{Kind: PatchReroute, Index: index, Mappers: yMappers})
			break
		}
	}

	diff(xSub, ySub, patches, index+1)
}

// unwrap collects consecutive mappers, outermost first.
func unwrap(n *Node) ([]*Mapper, *Node) {
	mappers := []*Mapper{n.Mapper}
	sub := n.Child
	for sub.Kind == KindTagged {
		mappers = append(mappers, sub.Mapper)
		sub = sub.Child
	}
	return mappers, sub
}

func diffNodes(x, y *Node, patches *[]Patch, index int, kids func(x, y *Node, patches *[]Patch, index int)) {
	// A tag change means the host node cannot be reused.
	if x.Tag != y.Tag || x.Namespace != y.Namespace {
		push(patches, Patch{Kind: PatchReplace, Index: index, Node: y})
		return
	}

	if fd := DiffFacts(x.Facts, y.Facts); fd != nil {
		push(patches, Patch{Kind: PatchSetFacts, Index: index, Facts: fd})
	}

	kids(x, y, patches, index)
}

// diffKids pairs unkeyed children by position.
func diffKids(x, y *Node, patches *[]Patch, index int) {
	xKids, yKids := x.Children, y.Children
	xLen, yLen := len(xKids), len(yKids)

	if xLen > yLen {
		push(patches, Patch{Kind: PatchTruncate, Index: index, From: yLen, Count: xLen - yLen})
	} else if xLen < yLen {
		push(patches, Patch{Kind: PatchExtend, Index: index, From: xLen, Nodes: yKids[xLen:]})
	}

	for i := 0; i < min(xLen, yLen); i++ {
		xKid := xKids[i]
		index++
		diff(xKid, yKids[i], patches, index)
		index += xKid.size
	}
}
