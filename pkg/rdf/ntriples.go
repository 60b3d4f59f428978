package rdf

import (
	"fmt"
	"io"
	"strings"
)

// SerializeNTriples writes triples in canonical N-Triples form, one per line.
// Input order is preserved.
func SerializeNTriples(triples []*Triple) string {
	var builder strings.Builder
	_ = WriteNTriples(&builder, triples) // #nosec G104 - strings.Builder never fails
	return builder.String()
}

// WriteNTriples writes triples in canonical N-Triples form to w
func WriteNTriples(w io.Writer, triples []*Triple) error {
	for _, triple := range triples {
		if _, err := fmt.Fprintf(w, "%s %s %s .\n", triple.Subject, triple.Predicate, triple.Object); err != nil {
			return err
		}
	}
	return nil
}

// EscapeString escapes a literal value for N-Triples output: the named
// escapes \t \b \n \r \f \" \\ and \uXXXX for the remaining control characters
func EscapeString(s string) string {
	if !strings.ContainsFunc(s, needsEscape) {
		return s
	}

	var builder strings.Builder
	builder.Grow(len(s) + 8)

	for _, r := range s {
		switch r {
		case '\t':
			builder.WriteString(`\t`)
		case '\b':
			builder.WriteString(`\b`)
		case '\n':
			builder.WriteString(`\n`)
		case '\r':
			builder.WriteString(`\r`)
		case '\f':
			builder.WriteString(`\f`)
		case '"':
			builder.WriteString(`\"`)
		case '\\':
			builder.WriteString(`\\`)
		default:
			if r < 0x20 || r == 0x7F {
				fmt.Fprintf(&builder, `\u%04X`, r)
			} else {
				builder.WriteRune(r)
			}
		}
	}

	return builder.String()
}

func needsEscape(r rune) bool {
	return r < 0x20 || r == 0x7F || r == '"' || r == '\\'
}
