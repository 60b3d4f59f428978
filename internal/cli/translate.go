package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/sparqlpad/sparqlpad/internal/translate"
)

// NewTranslateCommand creates the translate command
func NewTranslateCommand(root *RootOptions) *cobra.Command {
	var pddlPath, outPath string

	cmd := &cobra.Command{
		Use:   "translate --pddl <file> [--out <file>]",
		Short: "Translate a PDDL document to RDF",
		Long: `Send a PDDL document to the configured translation service and write
the returned RDF to stdout or --out.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			translator := translate.NewHTTPTranslator(root.config.Translator, root.logger)
			return runTranslate(cmd, translator, pddlPath, outPath)
		},
	}

	cmd.Flags().StringVar(&pddlPath, "pddl", "", "PDDL file to translate, or - for stdin")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "write the RDF here instead of stdout")
	_ = cmd.MarkFlagRequired("pddl")

	return cmd
}

func runTranslate(cmd *cobra.Command, translator translate.Translator, pddlPath, outPath string) error {
	var data []byte
	var err error
	if pddlPath == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(pddlPath) // #nosec G304 - path comes from the operator
	}
	if err != nil {
		return fmt.Errorf("failed to read PDDL: %w", err)
	}

	rdfText, err := translator.Translate(cmd.Context(), string(data))
	if err != nil {
		return err
	}

	if outPath == "" {
		_, err = io.WriteString(cmd.OutOrStdout(), rdfText)
		return err
	}
	if err := os.WriteFile(outPath, []byte(rdfText), 0o600); err != nil {
		return fmt.Errorf("failed to write %s: %w", outPath, err)
	}
	return nil
}
