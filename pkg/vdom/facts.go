package vdom

import (
	"fmt"
	"reflect"
	"sort"

	"github.com/vango-dev/vtree/pkg/host"
)

// FactKind is the category of a fact.
type FactKind uint8

const (
	FactProperty FactKind = iota
	FactAttribute
	FactAttributeNS
	FactStyle
	FactEvent
)

// String returns the string representation of the FactKind.
func (k FactKind) String() string {
	switch k {
	case FactProperty:
		return "Property"
	case FactAttribute:
		return "Attribute"
	case FactAttributeNS:
		return "AttributeNS"
	case FactStyle:
		return "Style"
	case FactEvent:
		return "Event"
	default:
		return "Unknown"
	}
}

// Fact is a single piece of element metadata, as passed to constructors.
type Fact struct {
	Kind      FactKind
	Key       string
	Value     any
	Namespace string
}

// NSAttr is a namespaced attribute value.
type NSAttr struct {
	Namespace string
	Value     string
}

// Facts holds an element's non-child metadata, one map per category.
// Nil maps are empty.
type Facts struct {
	Props   map[string]any
	Attrs   map[string]string
	AttrsNS map[string]NSAttr
	Styles  map[string]string
	Events  map[string]Handler
}

// Empty reports whether no fact is set.
func (f Facts) Empty() bool {
	return len(f.Props) == 0 && len(f.Attrs) == 0 && len(f.AttrsNS) == 0 &&
		len(f.Styles) == 0 && len(f.Events) == 0
}

// OrganizeFacts groups a fact list by category. Later facts win, except
// that repeated "class" attributes and "className" properties accumulate.
// Inline handler attributes, innerHTML and formaction keys are moved under
// "data-", and javascript: or data:text/html values are blanked.
func OrganizeFacts(list []Fact) Facts {
	var f Facts
	for _, fact := range list {
		fact = sanitizeFact(fact)
		switch fact.Kind {
		case FactProperty:
			if f.Props == nil {
				f.Props = make(map[string]any)
			}
			if s, ok := fact.Value.(string); ok && fact.Key == "className" {
				prev, _ := f.Props["className"].(string)
				f.Props["className"] = joinClass(prev, s)
				continue
			}
			f.Props[fact.Key] = fact.Value
		case FactAttribute:
			if f.Attrs == nil {
				f.Attrs = make(map[string]string)
			}
			s := stringValue(fact.Value)
			if fact.Key == "class" {
				s = joinClass(f.Attrs["class"], s)
			}
			f.Attrs[fact.Key] = s
		case FactAttributeNS:
			if f.AttrsNS == nil {
				f.AttrsNS = make(map[string]NSAttr)
			}
			f.AttrsNS[fact.Key] = NSAttr{Namespace: fact.Namespace, Value: stringValue(fact.Value)}
		case FactStyle:
			if f.Styles == nil {
				f.Styles = make(map[string]string)
			}
			f.Styles[fact.Key] = stringValue(fact.Value)
		case FactEvent:
			h, ok := fact.Value.(Handler)
			if !ok {
				continue
			}
			if f.Events == nil {
				f.Events = make(map[string]Handler)
			}
			f.Events[fact.Key] = h
		}
	}
	return f
}

func joinClass(prev, next string) string {
	switch {
	case prev == "":
		return next
	case next == "":
		return prev
	}
	return prev + " " + next
}

// Change is a single fact delta. Removed changes carry the category's
// empty value.
type Change[T any] struct {
	Value   T
	Removed bool
}

// FactsDiff is the delta between two fact sets.
type FactsDiff struct {
	Props   map[string]Change[any]
	Attrs   map[string]Change[string]
	AttrsNS map[string]Change[NSAttr]
	Styles  map[string]Change[string]
	Events  map[string]Change[Handler]
}

// Len returns the number of changed facts.
func (d *FactsDiff) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Props) + len(d.Attrs) + len(d.AttrsNS) + len(d.Styles) + len(d.Events)
}

// DiffFacts computes the delta turning x into y, or nil when they match.
func DiffFacts(x, y Facts) *FactsDiff {
	d := &FactsDiff{
		Props:   diffCategory(x.Props, y.Props, propRemoved, sameProp),
		Attrs:   diffCategory(x.Attrs, y.Attrs, func(string) string { return "" }, eq[string]),
		AttrsNS: diffCategory(x.AttrsNS, y.AttrsNS, func(a NSAttr) NSAttr { return NSAttr{Namespace: a.Namespace} }, eq[NSAttr]),
		Styles:  diffCategory(x.Styles, y.Styles, func(string) string { return "" }, eq[string]),
		Events:  diffCategory(x.Events, y.Events, func(Handler) Handler { return Handler{} }, eq[Handler]),
	}
	if d.Len() == 0 {
		return nil
	}
	return d
}

func diffCategory[T any](x, y map[string]T, empty func(T) T, same func(key string, a, b T) bool) map[string]Change[T] {
	var out map[string]Change[T]
	set := func(k string, c Change[T]) {
		if out == nil {
			out = make(map[string]Change[T])
		}
		out[k] = c
	}
	for k, xv := range x {
		yv, ok := y[k]
		if !ok {
			set(k, Change[T]{Value: empty(xv), Removed: true})
			continue
		}
		if !same(k, xv, yv) {
			set(k, Change[T]{Value: yv})
		}
	}
	for k, yv := range y {
		if _, ok := x[k]; !ok {
			set(k, Change[T]{Value: yv})
		}
	}
	return out
}

func eq[T comparable](_ string, a, b T) bool {
	return a == b
}

// sameProp treats "value" and "checked" as always changed: the host may
// have drifted from the last rendered value through user input.
func sameProp(key string, a, b any) bool {
	if key == "value" || key == "checked" {
		return false
	}
	return sameRef(a, b)
}

func propRemoved(v any) any {
	if _, ok := v.(string); ok {
		return ""
	}
	return nil
}

// sameRef reports identity equality: == for comparable values, pointer
// identity for reference types. Values that are neither count as different.
func sameRef(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb {
		return false
	}
	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	switch ta.Kind() {
	case reflect.Map, reflect.Func:
		return va.Pointer() == vb.Pointer()
	case reflect.Slice:
		return va.Pointer() == vb.Pointer() && va.Len() == vb.Len()
	}
	if va.Comparable() && vb.Comparable() {
		return va.Equal(vb)
	}
	return false
}

func stringValue(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case nil:
		return ""
	case bool:
		if s {
			return "true"
		}
		return "false"
	case fmt.Stringer:
		return s.String()
	}
	return fmt.Sprint(v)
}

func sortedKeys[T any](m map[string]T) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// HandlerKind says which event controls a handler's decoder may exercise.
type HandlerKind uint8

const (
	HandlerNormal             HandlerKind = iota // message only
	HandlerMayStopPropagation                    // message + stop propagation
	HandlerMayPreventDefault                     // message + prevent default
	HandlerCustom                                // message + both
)

// String returns the string representation of the HandlerKind.
func (k HandlerKind) String() string {
	switch k {
	case HandlerNormal:
		return "Normal"
	case HandlerMayStopPropagation:
		return "MayStopPropagation"
	case HandlerMayPreventDefault:
		return "MayPreventDefault"
	case HandlerCustom:
		return "Custom"
	default:
		return "Unknown"
	}
}

// Passive reports whether listeners for this kind never prevent default.
func (k HandlerKind) Passive() bool {
	return k < HandlerMayPreventDefault
}

// Handler is an event fact. Two handlers are equal when both kind and
// decoder identity match.
type Handler struct {
	Kind    HandlerKind
	Decoder *Decoder
}

// Decoded is the result of decoding a host event.
type Decoded struct {
	Message         any
	StopPropagation bool
	PreventDefault  bool
}

// Decoder turns a host event into a message. Decoders are compared by
// pointer, so create them once and reuse them across renders.
type Decoder struct {
	name string
	fn   func(ev *host.Event) (Decoded, error)
}

// NewDecoder creates a named decoder.
func NewDecoder(name string, fn func(ev *host.Event) (Decoded, error)) *Decoder {
	return &Decoder{name: name, fn: fn}
}

// MessageDecoder creates a decoder that always produces msg.
func MessageDecoder(name string, msg any) *Decoder {
	return NewDecoder(name, func(*host.Event) (Decoded, error) {
		return Decoded{Message: msg}, nil
	})
}

// Name returns the decoder's name.
func (d *Decoder) Name() string {
	return d.name
}

// Decode runs the decoder.
func (d *Decoder) Decode(ev *host.Event) (Decoded, error) {
	return d.fn(ev)
}
