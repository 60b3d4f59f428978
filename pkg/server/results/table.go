package results

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/sparqlpad/sparqlpad/pkg/rdf"
)

// NoResults is printed in place of an empty table
const NoResults = "No results"

// Table is the display view of a result set: one row per binding, one
// column per variable, empty cells for unbound variables.
type Table struct {
	Headers []string
	Rows    [][]string
}

// NewTable builds the display table for rs
func NewTable(rs *ResultSet) *Table {
	return &Table{
		Headers: append([]string(nil), rs.Variables...),
		Rows:    rs.cells(rdf.DisplayValue),
	}
}

// WriteText renders the table with aligned columns
func (t *Table) WriteText(w io.Writer) error {
	if len(t.Rows) == 0 {
		_, err := fmt.Fprintln(w, NoResults)
		return err
	}

	widths := make([]int, len(t.Headers))
	for i, h := range t.Headers {
		widths[i] = utf8.RuneCountInString(h)
	}
	for _, row := range t.Rows {
		for i, cell := range row {
			if n := utf8.RuneCountInString(displayCell(cell)); n > widths[i] {
				widths[i] = n
			}
		}
	}

	var sb strings.Builder
	writeRow := func(cells []string) {
		for i, cell := range cells {
			if i > 0 {
				sb.WriteString(" | ")
			}
			sb.WriteString(cell)
			if i < len(cells)-1 {
				sb.WriteString(strings.Repeat(" ", widths[i]-utf8.RuneCountInString(cell)))
			}
		}
		sb.WriteString("\n")
	}

	writeRow(t.Headers)
	for i, width := range widths {
		if i > 0 {
			sb.WriteString("-+-")
		}
		sb.WriteString(strings.Repeat("-", width))
	}
	sb.WriteString("\n")

	for _, row := range t.Rows {
		cells := make([]string, len(row))
		for i, cell := range row {
			cells[i] = displayCell(cell)
		}
		writeRow(cells)
	}

	_, err := io.WriteString(w, sb.String())
	return err
}

// displayCell keeps multi-line literals on one line
func displayCell(cell string) string {
	if !strings.ContainsAny(cell, "\n\r\t") {
		return cell
	}
	return strings.NewReplacer("\n", `\n`, "\r", `\r`, "\t", `\t`).Replace(cell)
}
