package main

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	vterrors "github.com/vango-dev/vtree/internal/errors"
	"github.com/vango-dev/vtree/pkg/fixture"
	"github.com/vango-dev/vtree/pkg/host/memhost"
	"github.com/vango-dev/vtree/pkg/render"
	"github.com/vango-dev/vtree/pkg/snapshot"
)

func snapshotCmd(g *globals) *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Record and verify rendered fixtures",
		Long: `Render every frame of a fixture and store the output, or compare it
with the stored output.

The store is configured in vtree.yaml (snapshot.backend: disk or s3).`,
	}

	save := &cobra.Command{
		Use:   "save FILE",
		Short: "Record the rendered frames of FILE",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, n, out, err := prepareSnapshot(cmd.Context(), g, args[0], name)
			if err != nil {
				return err
			}
			if err := store.Put(cmd.Context(), n, out); err != nil {
				return vterrors.New("E403").Wrap(err)
			}
			fmt.Printf("%s saved %s (%d bytes)\n", paint(addStyle, "✓"), n, len(out))
			return nil
		},
	}

	check := &cobra.Command{
		Use:   "check FILE",
		Short: "Compare the rendered frames of FILE with the recording",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, n, out, err := prepareSnapshot(cmd.Context(), g, args[0], name)
			if err != nil {
				return err
			}
			if err := snapshot.Check(cmd.Context(), store, n, out); err != nil {
				return err
			}
			fmt.Printf("%s %s matches\n", paint(addStyle, "✓"), n)
			return nil
		},
	}

	cmd.PersistentFlags().StringVarP(&name, "name", "n", "", "Snapshot name (default: fixture name)")
	cmd.AddCommand(save, check)

	return cmd
}

func prepareSnapshot(ctx context.Context, g *globals, path, name string) (snapshot.Store, string, []byte, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	l, err := loadFixture(path, fixture.NewRegistry())
	if err != nil {
		return nil, "", nil, err
	}
	if name == "" {
		name = l.name
	}
	if err := snapshot.ValidateName(name); err != nil {
		return nil, "", nil, vterrors.New("E403").Wrap(err).
			WithSuggestion("Use letters, digits, '.', '_' and '-' separated by '/'")
	}

	out, err := renderFrames(ctx, g.logger, l)
	if err != nil {
		return nil, "", nil, err
	}

	store, err := snapshot.Open(ctx, g.cfg.Snapshot)
	if err != nil {
		return nil, "", nil, vterrors.New("E403").Wrap(err)
	}
	return store, name, out, nil
}

// renderFrames plays the fixture and renders each frame as pretty HTML
// under a comment header.
func renderFrames(ctx context.Context, logger *slog.Logger, l *loaded) ([]byte, error) {
	r := render.NewRenderer(render.RendererConfig{Pretty: true, EventMarkers: true})
	var buf bytes.Buffer
	err := play(ctx, logger, l.views, func(i int, root *memhost.Node) error {
		fmt.Fprintf(&buf, "<!-- %s frame %d -->\n", l.name, i)
		if err := r.RenderHost(&buf, root); err != nil {
			return vterrors.New("E103").Wrap(err)
		}
		buf.WriteString("\n")
		return nil
	})
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
