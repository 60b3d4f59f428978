package cli

import (
	_ "embed"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sparqlpad/sparqlpad/internal/session"
)

//go:embed demo/blocksworld.ttl
var demoData string

// DefaultQuery lists every function with its parameter names
const DefaultQuery = `PREFIX ont: <http://example.com/pddl_ont/>
PREFIX ex: <http://example.com/test/>
SELECT ?p ?name
WHERE {
    ?p a ont:Function.
    OPTIONAL {
        ?p ont:hasParameters/ont:parameterName ?name.
    }
}`

// NewDemoCommand creates the demo command
func NewDemoCommand(root *RootOptions) *cobra.Command {
	var showData bool

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Run the default query over a bundled blocksworld sample",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if showData {
				fmt.Fprintf(out, "%s\n", demoData)
			}

			sess, err := session.New(root.config, root.logger)
			if err != nil {
				return err
			}
			defer sess.Close() // #nosec G104 - nothing to do on shutdown failure

			if _, err := sess.LoadAll(cmd.Context(), session.Document{Name: "blocksworld.ttl", Text: demoData}); err != nil {
				return err
			}

			rows, err := sess.Query(cmd.Context(), DefaultQuery)
			if err != nil {
				return err
			}
			return root.writeRows(out, rows)
		},
	}

	cmd.Flags().BoolVar(&showData, "show-data", false, "print the sample Turtle before the results")

	return cmd
}
