// Package cli implements the sparqlpad command line.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/sparqlpad/sparqlpad/internal/config"
	"github.com/sparqlpad/sparqlpad/internal/logging"
	"github.com/sparqlpad/sparqlpad/pkg/server/results"
	"github.com/sparqlpad/sparqlpad/pkg/sparql/executor"
)

// RootOptions holds global flags for all commands
type RootOptions struct {
	ConfigPath string
	LogLevel   string
	Format     string

	config *config.Config
	logger *slog.Logger
	format results.Format
}

// NewRootCommand creates the root command for the sparqlpad CLI
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "sparqlpad",
		Short: "sparqlpad - SPARQL SELECT over PDDL-derived RDF",
		Long: `Load Turtle or N-Triples documents into an in-memory triple store and
answer SPARQL SELECT queries with basic graph patterns and OPTIONAL.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.setup(cmd.ErrOrStderr())
		},
	}

	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "path to a YAML config file")
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "", "log level (debug|info|warn|error), overrides the config")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (text|json|csv|tsv|xml)")

	cmd.AddCommand(NewQueryCommand(opts))
	cmd.AddCommand(NewTranslateCommand(opts))
	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewDemoCommand(opts))

	return cmd
}

// Execute runs the root command with ctx
func Execute(ctx context.Context) error {
	return NewRootCommand().ExecuteContext(ctx)
}

// setup validates the global flags, then loads the configuration and builds
// the logger. Logs go to stderr so result output stays clean.
func (o *RootOptions) setup(stderr io.Writer) error {
	format, err := results.ParseFormat(o.Format)
	if err != nil {
		return fmt.Errorf("invalid format: %w", err)
	}

	cfg, err := config.Load(o.ConfigPath, logging.Discard())
	if err != nil {
		return err
	}
	if o.LogLevel != "" {
		cfg.Log.Level = o.LogLevel
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format, stderr)
	if err != nil {
		return err
	}

	o.config = cfg
	o.logger = logger
	o.format = format
	return nil
}

// writeRows renders rows in the selected format
func (o *RootOptions) writeRows(w io.Writer, rows *executor.Rows) error {
	rs, err := results.NewResultSet(rows)
	if err != nil {
		return err
	}
	return results.Write(w, o.format, rs)
}
