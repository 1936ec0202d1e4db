package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/spetersoncode/novelreview/analysis"
	"github.com/spetersoncode/novelreview/client"
	"github.com/spetersoncode/novelreview/internal/config"
	"github.com/spetersoncode/novelreview/pipeline"
	"github.com/spetersoncode/novelreview/store"
)

// app holds the state shared by every subcommand.
type app struct {
	configPath string
	logLevel   string
	dbPath     string

	cfg    *config.Config
	logger *slog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "novelreview",
		Short:         "Manuscript analysis: text type, summary, genre, evaluation, style and characters",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load(cmd)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "Path to config.yaml (default $NOVELREVIEW_CONFIG or the user config dir)")
	flags.StringVar(&a.logLevel, "log-level", "", "Log level: debug, info, warn or error")
	flags.StringVar(&a.dbPath, "db", "", "Path to the run archive database")

	root.AddCommand(
		newAnalyzeCmd(a),
		newServeCmd(a),
		newMCPCmd(a),
		newHistoryCmd(a),
		newShowCmd(a),
		newGraphCmd(a),
	)
	return root
}

// load resolves the configuration. Flags override file and environment.
func (a *app) load(cmd *cobra.Command) error {
	var overrides []config.Override
	if a.logLevel != "" {
		level := a.logLevel
		overrides = append(overrides, func(c *config.Config) { c.Log.Level = level })
	}
	if a.dbPath != "" {
		path := a.dbPath
		overrides = append(overrides, func(c *config.Config) { c.Store.Path = path })
	}
	cfg, err := config.Load(a.configPath, overrides...)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = cfg.Logger(cmd.ErrOrStderr())
	return nil
}

// pipeline wires the provider client, the analyzer and the compiled graph.
// Provider credentials are only checked on the first model call.
func (a *app) pipeline() (*pipeline.Pipeline, *client.Client, error) {
	c := client.New(a.cfg.Client(), client.WithLogger(a.logger))
	analyzer := analysis.New(c, analysis.WithLogger(a.logger))

	opts := append(a.cfg.PipelineOptions(), pipeline.WithLogger(a.logger))
	p, err := pipeline.New(analyzer, opts...)
	if err != nil {
		return nil, nil, err
	}
	return p, c, nil
}

// openStore opens the run archive, creating its directory if needed.
func (a *app) openStore() (*store.SQLite, error) {
	path := a.cfg.Store.Path
	if path == "" {
		return nil, fmt.Errorf("no run archive configured (set store.path, NOVELREVIEW_DB or --db)")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating archive directory: %w", err)
	}
	return store.Open(path)
}
