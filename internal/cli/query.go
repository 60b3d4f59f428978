package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/cobra"

	"github.com/sparqlpad/sparqlpad/internal/rdfio"
	"github.com/sparqlpad/sparqlpad/internal/session"
)

type queryOptions struct {
	data      []string
	queryFile string
	expr      string
	lenient   bool
}

// NewQueryCommand creates the query command
func NewQueryCommand(root *RootOptions) *cobra.Command {
	opts := &queryOptions{}

	cmd := &cobra.Command{
		Use:   "query --data <glob>... (--query <file|-> | -e <text>)",
		Short: "Run a SELECT query over local RDF files",
		Long: `Load every file matching the --data globs into one session and run a
SPARQL SELECT query against it. Globs support ** for recursive matches.
Files ending in .nt are read as N-Triples, everything else as Turtle.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(cmd, root, opts)
		},
	}

	cmd.Flags().StringArrayVarP(&opts.data, "data", "d", nil, "RDF file glob (repeatable)")
	cmd.Flags().StringVarP(&opts.queryFile, "query", "q", "", "file holding the query, or - for stdin")
	cmd.Flags().StringVarP(&opts.expr, "expr", "e", "", "query text")
	cmd.Flags().BoolVar(&opts.lenient, "lenient", false, "keep triples read before a syntax error")
	_ = cmd.MarkFlagRequired("data")

	return cmd
}

func runQuery(cmd *cobra.Command, root *RootOptions, opts *queryOptions) error {
	text, err := readQuery(cmd.InOrStdin(), opts)
	if err != nil {
		return err
	}

	docs, err := readDocuments(opts.data)
	if err != nil {
		return err
	}

	cfg := *root.config
	if opts.lenient {
		cfg.Parse.Lenient = true
	}

	sess, err := session.New(&cfg, root.logger)
	if err != nil {
		return err
	}
	defer sess.Close() // #nosec G104 - nothing to do on shutdown failure

	if _, err := sess.LoadAll(cmd.Context(), docs...); err != nil {
		return err
	}

	rows, err := sess.Query(cmd.Context(), text)
	if err != nil {
		return err
	}
	return root.writeRows(cmd.OutOrStdout(), rows)
}

func readQuery(stdin io.Reader, opts *queryOptions) (string, error) {
	switch {
	case opts.expr != "" && opts.queryFile != "":
		return "", errors.New("use either --query or -e, not both")
	case opts.expr != "":
		return opts.expr, nil
	case opts.queryFile == "-":
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read query from stdin: %w", err)
		}
		return string(data), nil
	case opts.queryFile != "":
		data, err := os.ReadFile(opts.queryFile) // #nosec G304 - path comes from the operator
		if err != nil {
			return "", fmt.Errorf("failed to read query: %w", err)
		}
		return string(data), nil
	}
	return "", errors.New("no query given: pass --query or -e")
}

// readDocuments expands the globs in order and reads each matching file
// once
func readDocuments(patterns []string) ([]session.Document, error) {
	seen := make(map[string]bool)
	var docs []session.Document

	for _, pattern := range patterns {
		matches, err := doublestar.FilepathGlob(pattern)
		if err != nil {
			return nil, fmt.Errorf("bad glob %q: %w", pattern, err)
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("no files match %q", pattern)
		}
		sort.Strings(matches)

		for _, path := range matches {
			if seen[path] {
				continue
			}
			seen[path] = true

			data, err := os.ReadFile(path) // #nosec G304 - path comes from the operator
			if err != nil {
				return nil, fmt.Errorf("failed to read %s: %w", path, err)
			}
			docs = append(docs, session.Document{
				Name:        path,
				ContentType: rdfio.ContentTypeForPath(path),
				Text:        string(data),
			})
		}
	}

	return docs, nil
}
