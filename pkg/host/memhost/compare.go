package memhost

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
)

// Equal reports whether two trees are structurally equal.
func Equal(a, b *Node) bool {
	return Compare(a, b) == nil
}

// Compare returns an error describing the first structural difference
// between a and b, or nil if they match. Properties holding nil or "" are
// treated as absent, since that is what property removal leaves behind.
func Compare(a, b *Node) error {
	return compare(a, b, "/")
}

func compare(a, b *Node, path string) error {
	if a == nil || b == nil {
		if a == b {
			return nil
		}
		return fmt.Errorf("%s: one side is nil", path)
	}
	if a.Type != b.Type {
		return fmt.Errorf("%s: type %s != %s", path, a.Type, b.Type)
	}
	if a.Type == TextNode {
		if a.Text != b.Text {
			return fmt.Errorf("%s: text %q != %q", path, a.Text, b.Text)
		}
		return nil
	}
	if a.Tag != b.Tag || a.Namespace != b.Namespace {
		return fmt.Errorf("%s: tag %s{%s} != %s{%s}", path, a.Tag, a.Namespace, b.Tag, b.Namespace)
	}
	if !sameStrings(a.Attrs, b.Attrs) {
		return fmt.Errorf("%s: attrs %v != %v", path, a.Attrs, b.Attrs)
	}
	if !sameNS(a.AttrsNS, b.AttrsNS) {
		return fmt.Errorf("%s: namespaced attrs %v != %v", path, a.AttrsNS, b.AttrsNS)
	}
	if !sameStrings(a.Styles, b.Styles) {
		return fmt.Errorf("%s: styles %v != %v", path, a.Styles, b.Styles)
	}
	pa, pb := liveProps(a.Props), liveProps(b.Props)
	if !reflect.DeepEqual(pa, pb) {
		return fmt.Errorf("%s: props %v != %v", path, pa, pb)
	}
	if ea, eb := strings.Join(a.Events(), ","), strings.Join(b.Events(), ","); ea != eb {
		return fmt.Errorf("%s: events [%s] != [%s]", path, ea, eb)
	}
	if len(a.children) != len(b.children) {
		return fmt.Errorf("%s: %d children != %d", path, len(a.children), len(b.children))
	}
	for i := range a.children {
		if err := compare(a.children[i], b.children[i], fmt.Sprintf("%s%s[%d]/", path, a.Tag, i)); err != nil {
			return err
		}
	}
	return nil
}

func sameStrings(a, b map[string]string) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if w, ok := b[k]; !ok || w != v {
			return false
		}
	}
	return true
}

func sameNS(a, b map[string]NSValue) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if w, ok := b[k]; !ok || w != v {
			return false
		}
	}
	return true
}

func liveProps(props map[string]any) map[string]any {
	out := make(map[string]any, len(props))
	for k, v := range props {
		if v == nil {
			continue
		}
		if s, ok := v.(string); ok && s == "" {
			continue
		}
		out[k] = v
	}
	return out
}

// Dump returns an indented, deterministic description of the tree.
func Dump(n *Node) string {
	var b strings.Builder
	dump(&b, n, 0)
	return b.String()
}

func dump(b *strings.Builder, n *Node, depth int) {
	indent := strings.Repeat("  ", depth)
	if n.Type == TextNode {
		fmt.Fprintf(b, "%s%q\n", indent, n.Text)
		return
	}
	fmt.Fprintf(b, "%s<%s", indent, n.Tag)
	if n.Namespace != "" {
		fmt.Fprintf(b, " ns=%q", n.Namespace)
	}
	for _, k := range sortedKeys(n.Attrs) {
		fmt.Fprintf(b, " %s=%q", k, n.Attrs[k])
	}
	nsKeys := make([]string, 0, len(n.AttrsNS))
	for k := range n.AttrsNS {
		nsKeys = append(nsKeys, k)
	}
	sort.Strings(nsKeys)
	for _, k := range nsKeys {
		fmt.Fprintf(b, " %s:%s=%q", n.AttrsNS[k].Namespace, k, n.AttrsNS[k].Value)
	}
	for _, k := range sortedKeys(n.Styles) {
		fmt.Fprintf(b, " style.%s=%q", k, n.Styles[k])
	}
	props := liveProps(n.Props)
	keys := make([]string, 0, len(props))
	for k := range props {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(b, " .%s=%v", k, props[k])
	}
	for _, e := range n.Events() {
		fmt.Fprintf(b, " on%s", e)
	}
	b.WriteString(">\n")
	for _, c := range n.children {
		dump(b, c, depth+1)
	}
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
