package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	vterrors "github.com/vango-dev/vtree/internal/errors"
	"github.com/vango-dev/vtree/pkg/engine"
	"github.com/vango-dev/vtree/pkg/fixture"
	"github.com/vango-dev/vtree/pkg/host/memhost"
	"github.com/vango-dev/vtree/pkg/render"
	"github.com/vango-dev/vtree/pkg/vdom"
)

func applyCmd(g *globals) *cobra.Command {
	var (
		compact bool
		all     bool
	)

	cmd := &cobra.Command{
		Use:   "apply FILE [FILE...]",
		Short: "Apply every frame and print the resulting tree",
		Long: `Mount the first view, patch it into each following view and print
the final host tree as HTML.

After each frame the patched tree is compared with a tree rendered
from scratch; any difference is reported as an error.

Examples:
  vtree apply todo.yaml
  vtree apply --all --compact todo.yaml`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			views, err := loadViews(args, fixture.NewRegistry())
			if err != nil {
				return err
			}
			r := render.NewRenderer(render.RendererConfig{Pretty: !compact})
			return runApply(cmd.Context(), os.Stdout, g.logger, r, views, all)
		},
	}

	cmd.Flags().BoolVar(&compact, "compact", false, "Print HTML without indentation")
	cmd.Flags().BoolVar(&all, "all", false, "Print the tree after every frame")

	return cmd
}

func runApply(ctx context.Context, w io.Writer, logger *slog.Logger, r *render.Renderer, views []*vdom.Node, all bool) error {
	if ctx == nil {
		ctx = context.Background()
	}
	return play(ctx, logger, views, func(i int, root *memhost.Node) error {
		if !all && i != len(views)-1 {
			return nil
		}
		if all {
			fmt.Fprintln(w, paint(mutedStyle, fmt.Sprintf("<!-- frame %d -->", i)))
		}
		html, err := r.HostString(root)
		if err != nil {
			return vterrors.New("E103").Wrap(err)
		}
		fmt.Fprintln(w, html)
		return nil
	})
}

// play mounts views[0], updates through the rest and calls fn with the
// host root after each frame. Every patched tree is checked against a
// fresh render of the same view.
func play(ctx context.Context, logger *slog.Logger, views []*vdom.Node, fn func(i int, root *memhost.Node) error) error {
	eng := engine.New(memhost.New(), nil, engine.WithLogger(logger))
	for i, v := range views {
		var err error
		if i == 0 {
			_, err = eng.Mount(ctx, v)
		} else {
			_, err = eng.Update(ctx, v)
		}
		if err != nil {
			return classify(err).WithDetail(fmt.Sprintf("Frame %d could not be applied.", i))
		}

		root := eng.Root().(*memhost.Node)
		fresh, err := vdom.NewPatcher(memhost.New(), nil).Render(v)
		if err != nil {
			return vterrors.New("E103").Wrap(err)
		}
		if err := memhost.Compare(root, fresh.(*memhost.Node)); err != nil {
			return vterrors.New("E104").Wrap(err).WithDetail(fmt.Sprintf("Frame %d differs after patching.", i))
		}
		if err := fn(i, root); err != nil {
			return err
		}
	}
	return nil
}
