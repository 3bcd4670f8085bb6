package protocol

import (
	"bytes"
	"errors"
	"io"
	"reflect"
	"testing"

	"github.com/vango-dev/vtree/pkg/vdom"
)

var (
	outer = vdom.NewMapper("outer", func(msg any) any { return msg })
	inner = vdom.NewMapper("inner", func(msg any) any { return msg })
	click = vdom.MessageDecoder("click", "clicked")
)

func item(key string) vdom.KeyedChild {
	return vdom.K(key, vdom.Li(vdom.Text(key)))
}

func views() (prev, next *vdom.Node) {
	prev = vdom.Div(
		vdom.Class("a"),
		vdom.Text("x"),
		vdom.Map(outer, vdom.Span(vdom.Text("t"))),
		vdom.Lazy([]any{1}, func() *vdom.Node { return vdom.P(vdom.Text("one")) }),
		vdom.Keyed("ul", nil, item("a"), item("b"), item("c")),
		vdom.Element("input", []vdom.Fact{vdom.Value("v"), vdom.Checked(true)}),
		vdom.Svg(vdom.Path(vdom.XLinkHref("#a"))),
		vdom.Div(vdom.Text("1"), vdom.Text("2")),
	)
	next = vdom.Div(
		vdom.Class("b"),
		vdom.OnClick(click),
		vdom.Text("y"),
		vdom.Map(inner, vdom.Span(vdom.Text("t"))),
		vdom.Lazy([]any{2}, func() *vdom.Node { return vdom.P(vdom.Text("two")) }),
		vdom.Keyed("ul", nil, item("c"), item("a"), item("d")),
		vdom.Element("input", []vdom.Fact{vdom.Value("w")}),
		vdom.Svg(vdom.Path()),
		vdom.Div(vdom.Text("1"), vdom.Text("2"), vdom.Style("color", "red"), vdom.Text("3")),
	)
	return prev, next
}

func recordKinds(records []Record, into map[vdom.PatchKind]int) {
	for _, r := range records {
		into[r.Kind]++
		recordKinds(r.Sub, into)
	}
}

func TestPatchesFrameRoundTrip(t *testing.T) {
	prev, next := views()
	patches := vdom.Diff(prev, next)

	f := PatchesFrame(7, patches)
	got, err := DecodeFrame(EncodeFrame(f))
	if err != nil {
		t.Fatalf("DecodeFrame: %v", err)
	}
	if got.Type != FramePatches || got.Seq != 7 {
		t.Errorf("header = %s/%d, want Patches/7", got.Type, got.Seq)
	}
	if !reflect.DeepEqual(got.Records, f.Records) {
		t.Errorf("records differ after round trip\ngot:  %+v\nwant: %+v", got.Records, f.Records)
	}

	kinds := make(map[vdom.PatchKind]int)
	recordKinds(got.Records, kinds)
	for _, k := range []vdom.PatchKind{
		vdom.PatchSetFacts, vdom.PatchSetText, vdom.PatchReroute, vdom.PatchLazy,
		vdom.PatchReorder, vdom.PatchRemove, vdom.PatchExtend,
	} {
		if kinds[k] == 0 {
			t.Errorf("no %s record in %v", k, kinds)
		}
	}
	if want := vdom.Kinds(patches); !reflect.DeepEqual(kinds, want) {
		t.Errorf("record kinds = %v, patch kinds = %v", kinds, want)
	}
}

func TestRecordPayloads(t *testing.T) {
	tests := []struct {
		name  string
		prev  *vdom.Node
		next  *vdom.Node
		check func(t *testing.T, r Record)
	}{
		{
			name: "set text",
			prev: vdom.Text("a"),
			next: vdom.Text("b"),
			check: func(t *testing.T, r Record) {
				if r.Kind != vdom.PatchSetText || r.Text != "b" {
					t.Errorf("got %s %q", r.Kind, r.Text)
				}
			},
		},
		{
			name: "replace",
			prev: vdom.Div(),
			next: vdom.Span(vdom.ID("s"), vdom.Text("hi")),
			check: func(t *testing.T, r Record) {
				if r.Kind != vdom.PatchReplace || r.Node == nil || r.Node.Tag != "span" {
					t.Fatalf("got %+v", r)
				}
				if r.Node.Attrs["id"] != "s" || len(r.Node.Children) != 1 || r.Node.Children[0].Text != "hi" {
					t.Errorf("node = %+v", r.Node)
				}
			},
		},
		{
			name: "truncate",
			prev: vdom.Div(vdom.Text("1"), vdom.Text("2"), vdom.Text("3")),
			next: vdom.Div(vdom.Text("1")),
			check: func(t *testing.T, r Record) {
				if r.Kind != vdom.PatchTruncate || r.From != 1 || r.Count != 2 {
					t.Errorf("got %s from=%d count=%d", r.Kind, r.From, r.Count)
				}
			},
		},
		{
			name: "facts",
			prev: vdom.Div(vdom.Class("a"), vdom.Style("color", "red"), vdom.OnClick(click)),
			next: vdom.Div(vdom.Style("color", "blue"), vdom.Value("v")),
			check: func(t *testing.T, r Record) {
				want := []FactChange{
					{Kind: vdom.FactProperty, Key: "value", Value: "v"},
					{Kind: vdom.FactAttribute, Key: "class", Value: "", Removed: true},
					{Kind: vdom.FactStyle, Key: "color", Value: "blue"},
					{Kind: vdom.FactEvent, Key: "click", Removed: true},
				}
				if !reflect.DeepEqual(r.Facts, want) {
					t.Errorf("facts = %+v\nwant %+v", r.Facts, want)
				}
			},
		},
		{
			name: "reroute",
			prev: vdom.Map(outer, vdom.Map(inner, vdom.Div())),
			next: vdom.Map(inner, vdom.Map(outer, vdom.Div())),
			check: func(t *testing.T, r Record) {
				if r.Kind != vdom.PatchReroute || !reflect.DeepEqual(r.Mappers, []string{"inner", "outer"}) {
					t.Errorf("got %s %v", r.Kind, r.Mappers)
				}
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records := FromPatches(vdom.Diff(tt.prev, tt.next))
			if len(records) != 1 {
				t.Fatalf("got %d records, want 1: %+v", len(records), records)
			}
			got, err := DecodeFrame(EncodeFrame(&Frame{Type: FramePatches, Records: records}))
			if err != nil {
				t.Fatalf("DecodeFrame: %v", err)
			}
			tt.check(t, got.Records[0])
		})
	}
}

func TestReorderRecord(t *testing.T) {
	prev := vdom.Keyed("ul", nil, item("a"), item("b"), item("c"))
	next := vdom.Keyed("ul", nil, item("b"), item("c"), item("a"), item("d"))

	records := FromPatches(vdom.Diff(prev, next))
	if len(records) != 1 || records[0].Kind != vdom.PatchReorder {
		t.Fatalf("records = %+v", records)
	}
	r := records[0]

	var fresh, moved int
	for _, in := range r.Inserts {
		if in.Moved {
			moved++
			if in.Node != nil {
				t.Errorf("moved insert %q carries a node", in.Key)
			}
		} else {
			fresh++
			if in.Node == nil || in.Key != "d" {
				t.Errorf("fresh insert = %+v", in)
			}
		}
	}
	if fresh != 1 || moved != 1 {
		t.Errorf("fresh=%d moved=%d, want 1 and 1", fresh, moved)
	}

	got, err := DecodeFrame(EncodeFrame(&Frame{Type: FramePatches, Records: records}))
	if err != nil {
		t.Fatalf("DecodeFrame: %v", err)
	}
	if !reflect.DeepEqual(got.Records, records) {
		t.Errorf("reorder record differs after round trip")
	}
}

func TestMountFrame(t *testing.T) {
	_, next := views()
	f := MountFrame(1, next)
	got, err := DecodeFrame(EncodeFrame(f))
	if err != nil {
		t.Fatalf("DecodeFrame: %v", err)
	}
	if !reflect.DeepEqual(got.Tree, f.Tree) {
		t.Errorf("tree differs after round trip")
	}
	if got.Tree.Events["click"] != "Normal" {
		t.Errorf("events = %v", got.Tree.Events)
	}
	tagged := got.Tree.Children[1]
	if tagged.Kind != vdom.KindTagged || tagged.Mapper != "inner" || tagged.Children[0].Tag != "span" {
		t.Errorf("tagged = %+v", tagged)
	}
	lazy := got.Tree.Children[2]
	if lazy.Kind != vdom.KindLazy || lazy.Children[0].Children[0].Text != "two" {
		t.Errorf("lazy = %+v", lazy)
	}
	keyed := got.Tree.Children[3]
	if !reflect.DeepEqual(keyed.Keys, []string{"c", "a", "d"}) {
		t.Errorf("keys = %v", keyed.Keys)
	}
}

func TestErrorFrame(t *testing.T) {
	got, err := DecodeFrame(EncodeFrame(ErrorFrame(3, errors.New("host failed"))))
	if err != nil {
		t.Fatalf("DecodeFrame: %v", err)
	}
	if got.Type != FrameError || got.Seq != 3 || got.Error != "host failed" {
		t.Errorf("got %+v", got)
	}
}

func TestEncodingIsDeterministic(t *testing.T) {
	_, next := views()
	a := EncodeFrame(MountFrame(1, next))
	b := EncodeFrame(MountFrame(1, next))
	if !bytes.Equal(a, b) {
		t.Error("equal frames encoded differently")
	}
}

func TestDecodeFrameErrors(t *testing.T) {
	valid := EncodeFrame(ErrorFrame(1, errors.New("x")))

	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"empty", nil, io.ErrUnexpectedEOF},
		{"version", append([]byte{0x09}, valid[1:]...), ErrVersion},
		{"frame type", []byte{Version, 0x7E, 0x01}, ErrInvalidFrameType},
		{"trailing", append(append([]byte{}, valid...), 0x00), ErrTrailingBytes},
		{"truncated", valid[:len(valid)-1], io.ErrUnexpectedEOF},
		{"bad record kind", []byte{Version, byte(FramePatches), 0x01, 0x01, 0x7E, 0x00}, ErrInvalidTag},
		{"bad node kind", []byte{Version, byte(FrameMount), 0x01, 0x7E}, ErrInvalidTag},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := DecodeFrame(tt.data); !errors.Is(err, tt.want) {
				t.Errorf("DecodeFrame() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestFrameStream(t *testing.T) {
	prev, next := views()
	frames := []*Frame{
		MountFrame(1, prev),
		PatchesFrame(2, vdom.Diff(prev, next)),
		ErrorFrame(3, errors.New("boom")),
	}

	var buf bytes.Buffer
	for _, f := range frames {
		if err := WriteFrame(&buf, f); err != nil {
			t.Fatalf("WriteFrame: %v", err)
		}
	}

	for i, want := range frames {
		got, err := ReadFrame(&buf)
		if err != nil {
			t.Fatalf("ReadFrame %d: %v", i, err)
		}
		if got.Type != want.Type || got.Seq != want.Seq {
			t.Errorf("frame %d = %s/%d, want %s/%d", i, got.Type, got.Seq, want.Type, want.Seq)
		}
	}
	if _, err := ReadFrame(&buf); err != io.EOF {
		t.Errorf("ReadFrame at end = %v, want io.EOF", err)
	}
}

func TestReadFrameTruncatedPayload(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteFrame(&buf, ErrorFrame(1, errors.New("abc"))); err != nil {
		t.Fatal(err)
	}
	data := buf.Bytes()[:buf.Len()-2]
	if _, err := ReadFrame(bytes.NewReader(data)); !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Errorf("error = %v, want io.ErrUnexpectedEOF", err)
	}
}

func TestFrameTypeString(t *testing.T) {
	tests := []struct {
		ft   FrameType
		want string
	}{
		{FrameMount, "Mount"},
		{FramePatches, "Patches"},
		{FrameError, "Error"},
		{FrameType(0xEE), "Unknown"},
	}
	for _, tt := range tests {
		if got := tt.ft.String(); got != tt.want {
			t.Errorf("FrameType(%d).String() = %q, want %q", tt.ft, got, tt.want)
		}
	}
}
