package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sparqlpad/sparqlpad/internal/translate"
	"github.com/sparqlpad/sparqlpad/pkg/server"
)

// NewServeCommand creates the serve command
func NewServeCommand(root *RootOptions) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve [--addr host:port]",
		Short: "Start the HTTP SPARQL endpoint",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := *root.config
			if addr != "" {
				cfg.Server.Addr = addr
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			translator := translate.NewHTTPTranslator(cfg.Translator, root.logger)
			return server.NewServer(&cfg, translator, root.logger).ListenAndServe(ctx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address, overrides server.addr")

	return cmd
}
