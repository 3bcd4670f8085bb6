package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/vango-dev/vtree/internal/config"
	vterrors "github.com/vango-dev/vtree/internal/errors"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// globals holds the state every command shares.
type globals struct {
	dir      string
	jsonErrs bool
	noColor  bool
	verbose  bool

	cfg    *config.Config
	logger *slog.Logger
}

func main() {
	g := &globals{}

	rootCmd := &cobra.Command{
		Use:   "vtree",
		Short: "Diff, patch and inspect view trees",
		Long: `vtree reconciles view trees described in fixture files.

Fixtures are YAML or JSON documents holding a view and a list of
frames. vtree diffs consecutive frames, applies the patches to an
in-memory host tree, checks the result against stored snapshots and
serves a live inspector for a running tree.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return g.setup()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&g.dir, "dir", "C", ".", "Directory containing "+config.ConfigFileName)
	rootCmd.PersistentFlags().BoolVar(&g.jsonErrs, "json-errors", false, "Print errors as JSON")
	rootCmd.PersistentFlags().BoolVar(&g.noColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().BoolVarP(&g.verbose, "verbose", "v", false, "Log at debug level")

	rootCmd.AddCommand(
		diffCmd(g),
		applyCmd(g),
		snapshotCmd(g),
		inspectCmd(g),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		g.printError(err)
		os.Exit(1)
	}
}

// setup loads the configuration and installs the logger.
func (g *globals) setup() error {
	if g.noColor || os.Getenv("NO_COLOR") != "" {
		vterrors.DisableColors()
		disableColors()
	}

	cfg, err := config.LoadOrDefault(g.dir)
	if err != nil {
		return err
	}
	g.cfg = cfg

	level := cfg.Level()
	if g.verbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}
	var h slog.Handler = slog.NewTextHandler(os.Stderr, opts)
	if cfg.Log.Format == "json" {
		h = slog.NewJSONHandler(os.Stderr, opts)
	}
	g.logger = slog.New(h)
	slog.SetDefault(g.logger)
	return nil
}

func (g *globals) printError(err error) {
	e := classify(err)
	if g.jsonErrs {
		fmt.Fprintln(os.Stderr, e.FormatJSON())
		return
	}
	vterrors.Print(os.Stderr, e)
}
