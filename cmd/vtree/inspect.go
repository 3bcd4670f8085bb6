package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/vango-dev/vtree/pkg/engine"
	"github.com/vango-dev/vtree/pkg/fixture"
	"github.com/vango-dev/vtree/pkg/host/memhost"
	"github.com/vango-dev/vtree/pkg/inspect"
	"github.com/vango-dev/vtree/pkg/vdom"
)

const reloadDebounce = 100 * time.Millisecond

func inspectCmd(g *globals) *cobra.Command {
	var (
		addr  string
		step  time.Duration
		watch bool
	)

	cmd := &cobra.Command{
		Use:   "inspect FILE",
		Short: "Serve a live inspector while replaying a fixture",
		Long: `Mount the fixture's first view, replay its frames and serve the
inspector: the live tree, cycle history, metrics and a websocket
stream of mount and patch frames.

With --watch the fixture is replayed whenever the file changes.

Examples:
  vtree inspect todo.yaml
  vtree inspect --watch --step=500ms todo.yaml
  vtree inspect --addr=0.0.0.0:7070 todo.yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr != "" {
				g.cfg.Inspect.Addr = addr
			}
			return runInspect(g, args[0], step, watch)
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "", "Listen address (default from vtree.yaml)")
	cmd.Flags().DurationVar(&step, "step", time.Second, "Delay between frames")
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "Replay when the fixture changes")

	return cmd
}

func runInspect(g *globals, path string, step time.Duration, watch bool) error {
	cfg := g.cfg
	logger := g.logger

	reg := fixture.NewRegistry()
	l, err := loadFixture(path, reg)
	if err != nil {
		return err
	}

	sink := func(msg any, sync bool) {
		logger.Info("message", "msg", fmt.Sprintf("%+v", msg), "sync", sync)
	}
	opts := []engine.Option{engine.WithLogger(logger)}
	promReg := prometheus.NewRegistry()
	if cfg.Telemetry.Metrics {
		promReg.MustRegister(collectors.NewGoCollector())
		opts = append(opts, engine.WithMetrics(engine.NewMetrics(
			engine.WithRegistry(promReg),
			engine.WithNamespace(cfg.Telemetry.Namespace),
		)))
	}
	eng := engine.New(memhost.New(), sink, opts...)

	hub := inspect.NewHub(inspect.HubConfig{
		History: cfg.Inspect.History,
		Rate:    cfg.Inspect.Rate,
		Burst:   cfg.Inspect.Burst,
	}, logger)
	srv := inspect.NewServer(eng, hub, inspect.Config{
		Addr:           cfg.Inspect.Addr,
		AllowedOrigins: cfg.Inspect.AllowedOrigins,
		Gatherer:       promReg,
		Title:          l.name,
		Logger:         logger,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Printf("%s inspecting %s at http://%s/tree\n", paint(addStyle, "✓"), l.name, cfg.Inspect.Addr)

	grp, ctx := errgroup.WithContext(ctx)
	grp.Go(func() error {
		return srv.Run(ctx)
	})
	grp.Go(func() error {
		if err := replay(ctx, eng, l.views, step); err != nil {
			return err
		}
		if !watch {
			return nil
		}
		return watchFixture(ctx, path, logger, func() {
			next, err := loadFixture(path, reg)
			if err != nil {
				logger.Warn("reload failed", "file", path, "error", err)
				return
			}
			logger.Info("fixture changed, replaying", "file", path, "frames", len(next.views))
			if err := replay(ctx, eng, next.views, step); err != nil && !errors.Is(err, context.Canceled) {
				logger.Warn("replay failed", "error", err)
			}
		})
	})

	if err := grp.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// replay drives eng through views, step apart. The first view is mounted
// unless a view is already current and the tree is not stale.
func replay(ctx context.Context, eng *engine.Engine, views []*vdom.Node, step time.Duration) error {
	for i, v := range views {
		if i > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(step):
			}
		}
		var err error
		if eng.View() == nil || eng.Stale() {
			_, err = eng.Mount(ctx, v)
		} else {
			_, err = eng.Update(ctx, v)
		}
		if err != nil {
			// The inspector shows failed cycles; keep going from a fresh mount.
			if _, err := eng.Mount(ctx, v); err != nil {
				return err
			}
		}
	}
	return nil
}

// watchFixture calls reload after writes to path settle.
func watchFixture(ctx context.Context, path string, logger *slog.Logger, reload func()) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	// Editors often replace the file, so watch its directory.
	if err := w.Add(filepath.Dir(abs)); err != nil {
		return err
	}

	var timer *time.Timer
	var fire <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs || !(ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create)) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(reloadDebounce)
			} else {
				timer.Reset(reloadDebounce)
			}
			fire = timer.C
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch error", "error", err)
		case <-fire:
			fire = nil
			reload()
		}
	}
}
