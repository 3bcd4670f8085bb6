package protocol

import (
	"fmt"

	"github.com/vango-dev/vtree/pkg/vdom"
)

// Record is the serialisable summary of one patch. Closures (handlers,
// mappers, widget updates) are reduced to names; everything positional is
// kept so a record list describes exactly what an apply will touch.
type Record struct {
	Kind  vdom.PatchKind
	Index int

	Text    string         // SetText
	Node    *NodeWire      // Replace
	Nodes   []*NodeWire    // Extend
	Facts   []FactChange   // SetFacts
	Mappers []string       // Reroute
	From    int            // Truncate, Extend
	Count   int            // Truncate
	Key     string         // Remove
	Moved   bool           // Remove
	Inserts []InsertRecord // Reorder
	Sub     []Record       // Lazy, Reorder, moved Remove
}

// FactChange is one entry of a facts delta. Events carry the handler kind
// as their value.
type FactChange struct {
	Kind      vdom.FactKind
	Key       string
	Namespace string
	Value     any
	Removed   bool
}

// InsertRecord places a keyed child during a reorder. Node is set for fresh
// inserts only; moved children reuse the node removed under the same key.
type InsertRecord struct {
	Index int
	End   bool
	Key   string
	Moved bool
	Node  *NodeWire
}

// FromPatches converts a patch list.
func FromPatches(patches []vdom.Patch) []Record {
	if len(patches) == 0 {
		return nil
	}
	out := make([]Record, len(patches))
	for i := range patches {
		out[i] = fromPatch(&patches[i])
	}
	return out
}

func fromPatch(p *vdom.Patch) Record {
	r := Record{Kind: p.Kind, Index: p.Index}

	switch p.Kind {
	case vdom.PatchReplace:
		r.Node = NodeToWire(p.Node)
	case vdom.PatchLazy:
		r.Sub = FromPatches(p.Sub)
	case vdom.PatchReroute:
		r.Mappers = make([]string, len(p.Mappers))
		for i, m := range p.Mappers {
			r.Mappers[i] = m.Name()
		}
	case vdom.PatchSetText:
		r.Text = p.Text
	case vdom.PatchSetFacts:
		r.Facts = factChanges(p.Facts)
	case vdom.PatchTruncate:
		r.From, r.Count = p.From, p.Count
	case vdom.PatchExtend:
		r.From = p.From
		r.Nodes = make([]*NodeWire, len(p.Nodes))
		for i, n := range p.Nodes {
			r.Nodes[i] = NodeToWire(n)
		}
	case vdom.PatchReorder:
		r.Sub = FromPatches(p.Reorder.Patches)
		r.Inserts = insertRecords(p.Reorder.Inserts, false)
		r.Inserts = append(r.Inserts, insertRecords(p.Reorder.EndInserts, true)...)
	case vdom.PatchRemove:
		r.Key = p.Entry.Key()
		r.Moved = p.Entry.Moved()
		if r.Moved {
			r.Sub = FromPatches(p.Entry.Patches())
		}
	}
	return r
}

func insertRecords(inserts []vdom.Insert, end bool) []InsertRecord {
	var out []InsertRecord
	for _, in := range inserts {
		ir := InsertRecord{Index: in.Index, End: end, Key: in.Entry.Key(), Moved: in.Entry.Moved()}
		if !ir.Moved {
			ir.Node = NodeToWire(in.Entry.Node())
		}
		out = append(out, ir)
	}
	return out
}

func factChanges(d *vdom.FactsDiff) []FactChange {
	if d == nil {
		return nil
	}
	out := make([]FactChange, 0, d.Len())
	for _, k := range sortedKeys(d.Props) {
		c := d.Props[k]
		out = append(out, FactChange{Kind: vdom.FactProperty, Key: k, Value: c.Value, Removed: c.Removed})
	}
	for _, k := range sortedKeys(d.Attrs) {
		c := d.Attrs[k]
		out = append(out, FactChange{Kind: vdom.FactAttribute, Key: k, Value: c.Value, Removed: c.Removed})
	}
	for _, k := range sortedKeys(d.AttrsNS) {
		c := d.AttrsNS[k]
		out = append(out, FactChange{Kind: vdom.FactAttributeNS, Key: k, Namespace: c.Value.Namespace, Value: c.Value.Value, Removed: c.Removed})
	}
	for _, k := range sortedKeys(d.Styles) {
		c := d.Styles[k]
		out = append(out, FactChange{Kind: vdom.FactStyle, Key: k, Value: c.Value, Removed: c.Removed})
	}
	for _, k := range sortedKeys(d.Events) {
		c := d.Events[k]
		fc := FactChange{Kind: vdom.FactEvent, Key: k, Removed: c.Removed}
		if !c.Removed {
			fc.Value = c.Value.Kind.String()
		}
		out = append(out, fc)
	}
	return out
}

// EncodeRecords appends a record list.
func EncodeRecords(e *Encoder, records []Record) {
	e.WriteUvarint(uint64(len(records)))
	for i := range records {
		encodeRecord(e, &records[i])
	}
}

func encodeRecord(e *Encoder, r *Record) {
	e.WriteByte(byte(r.Kind))
	e.WriteUvarint(uint64(r.Index))

	switch r.Kind {
	case vdom.PatchReplace:
		EncodeNode(e, r.Node)
	case vdom.PatchLazy:
		EncodeRecords(e, r.Sub)
	case vdom.PatchReroute:
		e.WriteStrings(r.Mappers)
	case vdom.PatchSetText:
		e.WriteString(r.Text)
	case vdom.PatchSetFacts:
		e.WriteUvarint(uint64(len(r.Facts)))
		for _, fc := range r.Facts {
			e.WriteByte(byte(fc.Kind))
			e.WriteString(fc.Key)
			e.WriteString(fc.Namespace)
			e.WriteBool(fc.Removed)
			EncodeValue(e, fc.Value)
		}
	case vdom.PatchCustom:
	case vdom.PatchTruncate:
		e.WriteUvarint(uint64(r.From))
		e.WriteUvarint(uint64(r.Count))
	case vdom.PatchExtend:
		e.WriteUvarint(uint64(r.From))
		e.WriteUvarint(uint64(len(r.Nodes)))
		for _, n := range r.Nodes {
			EncodeNode(e, n)
		}
	case vdom.PatchReorder:
		EncodeRecords(e, r.Sub)
		e.WriteUvarint(uint64(len(r.Inserts)))
		for _, in := range r.Inserts {
			e.WriteUvarint(uint64(in.Index))
			e.WriteBool(in.End)
			e.WriteString(in.Key)
			e.WriteBool(in.Moved)
			if !in.Moved {
				EncodeNode(e, in.Node)
			}
		}
	case vdom.PatchRemove:
		e.WriteString(r.Key)
		e.WriteBool(r.Moved)
		if r.Moved {
			EncodeRecords(e, r.Sub)
		}
	}
}

// DecodeRecords reads a list written by EncodeRecords.
func DecodeRecords(d *Decoder) ([]Record, error) {
	return decodeRecords(d, 0)
}

func decodeRecords(d *Decoder, depth int) ([]Record, error) {
	if err := checkDepth(depth, d.limits.RecordDepth); err != nil {
		return nil, err
	}
	count, err := d.ReadCollectionCount()
	if err != nil || count == 0 {
		return nil, err
	}
	out := make([]Record, count)
	for i := range out {
		if err := decodeRecord(d, &out[i], depth); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func decodeRecord(d *Decoder, r *Record, depth int) error {
	kind, err := d.ReadByte()
	if err != nil {
		return err
	}
	r.Kind = vdom.PatchKind(kind)
	if r.Index, err = readUint(d); err != nil {
		return err
	}

	switch r.Kind {
	case vdom.PatchReplace:
		r.Node, err = DecodeNode(d)
	case vdom.PatchLazy:
		r.Sub, err = decodeRecords(d, depth+1)
	case vdom.PatchReroute:
		r.Mappers, err = d.ReadStrings()
	case vdom.PatchSetText:
		r.Text, err = d.ReadString()
	case vdom.PatchSetFacts:
		r.Facts, err = decodeFactChanges(d)
	case vdom.PatchCustom:
	case vdom.PatchTruncate:
		if r.From, err = readUint(d); err != nil {
			return err
		}
		r.Count, err = readUint(d)
	case vdom.PatchExtend:
		if r.From, err = readUint(d); err != nil {
			return err
		}
		var count int
		if count, err = d.ReadCollectionCount(); err != nil {
			return err
		}
		r.Nodes = make([]*NodeWire, count)
		for i := range r.Nodes {
			if r.Nodes[i], err = DecodeNode(d); err != nil {
				return err
			}
		}
	case vdom.PatchReorder:
		if r.Sub, err = decodeRecords(d, depth+1); err != nil {
			return err
		}
		r.Inserts, err = decodeInserts(d)
	case vdom.PatchRemove:
		if r.Key, err = d.ReadString(); err != nil {
			return err
		}
		if r.Moved, err = d.ReadBool(); err != nil {
			return err
		}
		if r.Moved {
			r.Sub, err = decodeRecords(d, depth+1)
		}
	default:
		return fmt.Errorf("patch kind 0x%02x: %w", kind, ErrInvalidTag)
	}
	return err
}

func decodeFactChanges(d *Decoder) ([]FactChange, error) {
	count, err := d.ReadCollectionCount()
	if err != nil || count == 0 {
		return nil, err
	}
	out := make([]FactChange, count)
	for i := range out {
		fc := &out[i]
		kind, err := d.ReadByte()
		if err != nil {
			return nil, err
		}
		if kind > byte(vdom.FactEvent) {
			return nil, fmt.Errorf("fact kind 0x%02x: %w", kind, ErrInvalidTag)
		}
		fc.Kind = vdom.FactKind(kind)
		if fc.Key, err = d.ReadString(); err != nil {
			return nil, err
		}
		if fc.Namespace, err = d.ReadString(); err != nil {
			return nil, err
		}
		if fc.Removed, err = d.ReadBool(); err != nil {
			return nil, err
		}
		if fc.Value, err = DecodeValue(d); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func decodeInserts(d *Decoder) ([]InsertRecord, error) {
	count, err := d.ReadCollectionCount()
	if err != nil || count == 0 {
		return nil, err
	}
	out := make([]InsertRecord, count)
	for i := range out {
		in := &out[i]
		if in.Index, err = readUint(d); err != nil {
			return nil, err
		}
		if in.End, err = d.ReadBool(); err != nil {
			return nil, err
		}
		if in.Key, err = d.ReadString(); err != nil {
			return nil, err
		}
		if in.Moved, err = d.ReadBool(); err != nil {
			return nil, err
		}
		if !in.Moved {
			if in.Node, err = DecodeNode(d); err != nil {
				return nil, err
			}
		}
	}
	return out, nil
}

func readUint(d *Decoder) (int, error) {
	v, err := d.ReadUvarint()
	if err != nil {
		return 0, err
	}
	if v > uint64(^uint(0)>>1) {
		return 0, ErrIntOverflow
	}
	return int(v), nil
}
