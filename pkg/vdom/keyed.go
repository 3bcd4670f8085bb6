package vdom

// dupSuffix is appended to a key that is already pending in the change
// table. Repeated collisions append it again until a free slot is found.
const dupSuffix = "\x00dup"

// keyedDiff holds the state of one keyed children reconciliation.
type keyedDiff struct {
	local      []Patch
	changes    map[string]*KeyedEntry
	inserts    []Insert
	endInserts []Insert
}

// diffKeyedKids walks both child lists with two cursors and a one-step
// lookahead. Whatever the walk cannot pair is removed or appended, and the
// change table turns a removal and an insertion of the same key into a move.
func diffKeyedKids(x, y *Node, patches *[]Patch, rootIndex int) {
	kd := &keyedDiff{changes: make(map[string]*KeyedEntry)}

	xKids, yKids := x.Keyed, y.Keyed
	xLen, yLen := len(xKids), len(yKids)
	xIndex, yIndex := 0, 0
	index := rootIndex

walk:
	for xIndex < xLen && yIndex < yLen {
		xKey, yKey := xKids[xIndex].Key, yKids[yIndex].Key
		xNode, yNode := xKids[xIndex].Node, yKids[yIndex].Node

		if xKey == yKey {
			index++
			diff(xNode, yNode, &kd.local, index)
			index += xNode.size
			xIndex++
			yIndex++
			continue
		}

		var xNext, yNext *KeyedChild
		oldMatch, newMatch := false, false
		if xIndex+1 < xLen {
			xNext = &xKids[xIndex+1]
			oldMatch = yKey == xNext.Key
		}
		if yIndex+1 < yLen {
			yNext = &yKids[yIndex+1]
			newMatch = xKey == yNext.Key
		}

		switch {
		case newMatch && oldMatch:
			// Adjacent transposition: x stays put, x's neighbour moves in
			// front of it.
			index++
			diff(xNode, yNext.Node, &kd.local, index)
			kd.insert(yKey, yNode, yIndex, false)
			index += xNode.size
			index++
			kd.remove(xNext.Key, xNext.Node, index)
			index += xNext.Node.size
			xIndex += 2
			yIndex += 2

		case newMatch:
			// y was inserted.
			index++
			kd.insert(yKey, yNode, yIndex, false)
			diff(xNode, yNext.Node, &kd.local, index)
			index += xNode.size
			xIndex++
			yIndex += 2

		case oldMatch:
			// x was removed.
			index++
			kd.remove(xKey, xNode, index)
			index += xNode.size
			index++
			diff(xNext.Node, yNode, &kd.local, index)
			index += xNext.Node.size
			xIndex += 2
			yIndex++

		case xNext != nil && yNext != nil && xNext.Key == yNext.Key:
			// x was replaced by y.
			index++
			kd.remove(xKey, xNode, index)
			kd.insert(yKey, yNode, yIndex, false)
			index += xNode.size
			index++
			diff(xNext.Node, yNext.Node, &kd.local, index)
			index += xNext.Node.size
			xIndex += 2
			yIndex += 2

		default:
			break walk
		}
	}

	for ; xIndex < xLen; xIndex++ {
		index++
		x := xKids[xIndex]
		kd.remove(x.Key, x.Node, index)
		index += x.Node.size
	}
	for ; yIndex < yLen; yIndex++ {
		y := yKids[yIndex]
		kd.insert(y.Key, y.Node, yIndex, true)
	}

	if len(kd.local) > 0 || len(kd.inserts) > 0 || len(kd.endInserts) > 0 {
		push(patches, Patch{
			Kind:  PatchReorder,
			Index: rootIndex,
			Reorder: &Reorder{
				Patches:    kd.local,
				Inserts:    kd.inserts,
				EndInserts: kd.endInserts,
			},
		})
	}
}

// insert records that key appears at yIndex of the new list.
func (kd *keyedDiff) insert(key string, n *Node, yIndex int, end bool) {
	for {
		entry, ok := kd.changes[key]
		switch {
		case !ok:
			entry = &KeyedEntry{key: key, state: entryInserted, node: n, index: yIndex, end: end}
			kd.changes[key] = entry
			kd.addInsert(yIndex, entry, end)
			return

		case entry.state == entryRemoved:
			// Removed earlier: reuse that node. Its patches are indexed
			// from the old position.
			kd.addInsert(yIndex, entry, end)
			entry.state = entryMoved
			var sub []Patch
			diff(entry.node, n, &sub, entry.index)
			entry.sub = sub
			entry.index = yIndex
			entry.end = end
			return
		}
		key += dupSuffix
	}
}

// remove records that key left the old list at pre-order position index.
func (kd *keyedDiff) remove(key string, n *Node, index int) {
	for {
		entry, ok := kd.changes[key]
		switch {
		case !ok:
			entry = &KeyedEntry{key: key, state: entryRemoved, node: n, index: index}
			kd.changes[key] = entry
			push(&kd.local, Patch{Kind: PatchRemove, Index: index, Entry: entry})
			return

		case entry.state == entryInserted:
			// Inserted earlier: this is a move.
			entry.state = entryMoved
			var sub []Patch
			diff(n, entry.node, &sub, index)
			entry.sub = sub
			push(&kd.local, Patch{Kind: PatchRemove, Index: index, Entry: entry})
			return
		}
		key += dupSuffix
	}
}

func (kd *keyedDiff) addInsert(yIndex int, entry *KeyedEntry, end bool) {
	if end {
		kd.endInserts = append(kd.endInserts, Insert{Index: yIndex, Entry: entry})
		return
	}
	kd.inserts = append(kd.inserts, Insert{Index: yIndex, Entry: entry})
}
