package optimizer

import (
	"fmt"
	"strings"

	"github.com/sparqlpad/sparqlpad/pkg/sparql/parser"
)

// QueryPlan represents an execution plan
type QueryPlan interface {
	planNode()
}

// EmptyPlan yields its input binding once. It is the plan of an empty group.
type EmptyPlan struct{}

func (p *EmptyPlan) planNode() {}

// ScanPlan represents a scan operation over one resolved triple pattern
type ScanPlan struct {
	Pattern *parser.TriplePattern
}

func (p *ScanPlan) planNode() {}

// JoinPlan represents a nested loop join: Right is evaluated once per Left
// binding, seeded with it
type JoinPlan struct {
	Left  QueryPlan
	Right QueryPlan
}

func (p *JoinPlan) planNode() {}

// OptionalPlan represents an OPTIONAL pattern (left outer join)
type OptionalPlan struct {
	Left  QueryPlan
	Right QueryPlan
}

func (p *OptionalPlan) planNode() {}

// ProjectionPlan represents a projection operation
type ProjectionPlan struct {
	Input     QueryPlan
	Variables []string
}

func (p *ProjectionPlan) planNode() {}

// DistinctPlan represents a DISTINCT operation
type DistinctPlan struct {
	Input QueryPlan
}

func (p *DistinctPlan) planNode() {}

// OffsetPlan represents an OFFSET operation
type OffsetPlan struct {
	Input  QueryPlan
	Offset int
}

func (p *OffsetPlan) planNode() {}

// LimitPlan represents a LIMIT operation
type LimitPlan struct {
	Input QueryPlan
	Limit int
}

func (p *LimitPlan) planNode() {}

// Explain renders a plan as an indented tree
func Explain(plan QueryPlan) string {
	var sb strings.Builder
	explain(&sb, plan, 0)
	return sb.String()
}

func explain(sb *strings.Builder, plan QueryPlan, depth int) {
	indent := strings.Repeat("  ", depth)
	switch p := plan.(type) {
	case *EmptyPlan:
		fmt.Fprintf(sb, "%sEmpty\n", indent)
	case *ScanPlan:
		fmt.Fprintf(sb, "%sScan %s\n", indent, p.Pattern)
	case *JoinPlan:
		fmt.Fprintf(sb, "%sJoin\n", indent)
		explain(sb, p.Left, depth+1)
		explain(sb, p.Right, depth+1)
	case *OptionalPlan:
		fmt.Fprintf(sb, "%sOptional\n", indent)
		explain(sb, p.Left, depth+1)
		explain(sb, p.Right, depth+1)
	case *ProjectionPlan:
		fmt.Fprintf(sb, "%sProject %s\n", indent, strings.Join(p.Variables, " "))
		explain(sb, p.Input, depth+1)
	case *DistinctPlan:
		fmt.Fprintf(sb, "%sDistinct\n", indent)
		explain(sb, p.Input, depth+1)
	case *OffsetPlan:
		fmt.Fprintf(sb, "%sOffset %d\n", indent, p.Offset)
		explain(sb, p.Input, depth+1)
	case *LimitPlan:
		fmt.Fprintf(sb, "%sLimit %d\n", indent, p.Limit)
		explain(sb, p.Input, depth+1)
	default:
		fmt.Fprintf(sb, "%s%T\n", indent, plan)
	}
}
