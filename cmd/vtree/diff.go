package main

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/vango-dev/vtree/pkg/fixture"
	"github.com/vango-dev/vtree/pkg/vdom"
)

var (
	headStyle   = lipgloss.NewStyle().Bold(true)
	kindStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#f9e2af"))
	addStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#a6e3a1"))
	removeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#f38ba8"))
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#6c7086"))

	colors = true
)

func disableColors() { colors = false }

func paint(s lipgloss.Style, text string) string {
	if !colors {
		return text
	}
	return s.Render(text)
}

func diffCmd(g *globals) *cobra.Command {
	var summary bool

	cmd := &cobra.Command{
		Use:   "diff FILE [FILE...]",
		Short: "Print the patches between consecutive views",
		Long: `Diff every pair of consecutive views and print the patches.

Views are taken from each file in order: the view first, then the
frames. Two single-view files diff against each other.

Examples:
  vtree diff todo.yaml
  vtree diff before.yaml after.yaml
  vtree diff --summary todo.yaml`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			views, err := loadViews(args, fixture.NewRegistry())
			if err != nil {
				return err
			}
			if len(views) < 2 {
				return fmt.Errorf("need at least two views to diff, got %d", len(views))
			}
			return runDiff(os.Stdout, views, summary)
		},
	}

	cmd.Flags().BoolVar(&summary, "summary", false, "Print only patch counts per kind")

	return cmd
}

func runDiff(w io.Writer, views []*vdom.Node, summary bool) error {
	for i := 1; i < len(views); i++ {
		patches := vdom.Diff(views[i-1], views[i])
		fmt.Fprintf(w, "%s %s\n", paint(headStyle, fmt.Sprintf("frame %d → %d", i-1, i)),
			paint(mutedStyle, fmt.Sprintf("(%d patches)", vdom.Count(patches))))
		if summary {
			writeKinds(w, patches)
		} else {
			writePatches(w, patches, 1)
		}
		fmt.Fprintln(w)
	}
	return nil
}

func writeKinds(w io.Writer, patches []vdom.Patch) {
	kinds := vdom.Kinds(patches)
	names := make([]string, 0, len(kinds))
	counts := make(map[string]int, len(kinds))
	for k, n := range kinds {
		names = append(names, k.String())
		counts[k.String()] = n
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "  %-9s %d\n", paint(kindStyle, name), counts[name])
	}
}

// writePatches prints one line per patch, nested patches indented below
// their parent.
func writePatches(w io.Writer, patches []vdom.Patch, depth int) {
	indent := strings.Repeat("  ", depth)
	for i := range patches {
		p := &patches[i]
		fmt.Fprintf(w, "%s%s %s %s\n", indent, paint(mutedStyle, fmt.Sprintf("@%d", p.Index)),
			paint(kindStyle, p.Kind.String()), describePatch(p))
		switch p.Kind {
		case vdom.PatchLazy:
			writePatches(w, p.Sub, depth+1)
		case vdom.PatchReorder:
			writePatches(w, p.Reorder.Patches, depth+1)
			for _, ins := range p.Reorder.Inserts {
				fmt.Fprintf(w, "%s  %s\n", indent, paint(addStyle, describeInsert(ins, false)))
			}
			for _, ins := range p.Reorder.EndInserts {
				fmt.Fprintf(w, "%s  %s\n", indent, paint(addStyle, describeInsert(ins, true)))
			}
		case vdom.PatchRemove:
			if p.Entry != nil && p.Entry.Moved() {
				writePatches(w, p.Entry.Patches(), depth+1)
			}
		}
	}
}

func describeInsert(ins vdom.Insert, end bool) string {
	verb := "insert"
	if ins.Entry.Moved() {
		verb = "move"
	}
	where := fmt.Sprintf("at %d", ins.Index)
	if end {
		where = "at end"
	}
	return fmt.Sprintf("+ %s %q %s", verb, ins.Entry.Key(), where)
}

func describePatch(p *vdom.Patch) string {
	switch p.Kind {
	case vdom.PatchReplace:
		return describeNode(p.Node)
	case vdom.PatchSetText:
		return fmt.Sprintf("%q", p.Text)
	case vdom.PatchSetFacts:
		return describeFacts(p.Facts)
	case vdom.PatchReroute:
		names := make([]string, len(p.Mappers))
		for i, m := range p.Mappers {
			names[i] = m.Name()
		}
		return "[" + strings.Join(names, " ") + "]"
	case vdom.PatchTruncate:
		return paint(removeStyle, fmt.Sprintf("- %d from %d", p.Count, p.From))
	case vdom.PatchExtend:
		kids := make([]string, len(p.Nodes))
		for i, n := range p.Nodes {
			kids[i] = describeNode(n)
		}
		return paint(addStyle, fmt.Sprintf("+ %s from %d", strings.Join(kids, " "), p.From))
	case vdom.PatchReorder:
		return fmt.Sprintf("%d inserts, %d at end", len(p.Reorder.Inserts), len(p.Reorder.EndInserts))
	case vdom.PatchRemove:
		if p.Entry != nil && p.Entry.Moved() {
			return fmt.Sprintf("move %q out", p.Entry.Key())
		}
		if p.Entry != nil {
			return paint(removeStyle, fmt.Sprintf("- %q", p.Entry.Key()))
		}
		return paint(removeStyle, "-")
	}
	return ""
}

func describeNode(n *vdom.Node) string {
	if n == nil {
		return "<nil>"
	}
	switch n.Kind {
	case vdom.KindText:
		return fmt.Sprintf("%q", n.Text)
	case vdom.KindElement, vdom.KindKeyed:
		return "<" + n.Tag + ">"
	}
	return n.Kind.String()
}

func describeFacts(d *vdom.FactsDiff) string {
	if d == nil {
		return ""
	}
	var parts []string
	add := func(prefix, key string, removed bool, value any) {
		if removed {
			parts = append(parts, paint(removeStyle, "-"+prefix+key))
			return
		}
		parts = append(parts, fmt.Sprintf("%s%s=%v", prefix, key, value))
	}
	for _, k := range sortedKeys(d.Attrs) {
		add("", k, d.Attrs[k].Removed, fmt.Sprintf("%q", d.Attrs[k].Value))
	}
	for _, k := range sortedKeys(d.AttrsNS) {
		add("", k, d.AttrsNS[k].Removed, fmt.Sprintf("%q", d.AttrsNS[k].Value.Value))
	}
	for _, k := range sortedKeys(d.Props) {
		add(".", k, d.Props[k].Removed, d.Props[k].Value)
	}
	for _, k := range sortedKeys(d.Styles) {
		add("style.", k, d.Styles[k].Removed, fmt.Sprintf("%q", d.Styles[k].Value))
	}
	for _, k := range sortedKeys(d.Events) {
		add("on", k, d.Events[k].Removed, d.Events[k].Value.Kind)
	}
	return strings.Join(parts, " ")
}

func sortedKeys[T any](m map[string]T) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
