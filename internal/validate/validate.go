// Package validate is the admission gate between a grouping and a function
// candidate: an ordered list of checks evaluated until the first failure.
package validate

import (
	"fmt"
	"strings"

	"github.com/morozRed/nb2prod/internal/graph"
	"github.com/morozRed/nb2prod/internal/group"
	"github.com/morozRed/nb2prod/internal/notebook"
	"github.com/morozRed/nb2prod/internal/parser"
	"github.com/morozRed/nb2prod/internal/signature"
)

// Rule identifies why a grouping was rejected.
type Rule string

const (
	RuleCriticalIssues   Rule = "critical-issues"
	RuleEducational      Rule = "educational"
	RuleHardcodedPath    Rule = "hardcoded-path"
	RuleForwardProducer  Rule = "forward-producer"
	RuleNestedDefinition Rule = "nested-definition"
	RuleSize             Rule = "size"
	RuleDeadCode         Rule = "dead-code"
	RuleIO               Rule = "io"
)

// DefaultDeadCodeRatio is the share of unused names a grouping may carry.
const DefaultDeadCodeRatio = 0.5

// Context is the notebook-wide state every check reads. It is built once
// per run and never mutated by checks.
type Context struct {
	Cells         []notebook.Cell
	Profiles      []*parser.SymbolProfile
	Graph         *graph.Graph
	Educational   bool
	MaxCells      int
	DeadCodeRatio float64
}

// Check is one admission rule. Fails returns true and a human-readable
// detail when the grouping must be rejected.
type Check struct {
	Rule  Rule
	Fails func(ctx *Context, gr group.Grouping, b signature.Boundary) (bool, string)
}

// Checks is the fixed evaluation order.
var Checks = []Check{
	{RuleCriticalIssues, consumesForwardEdge},
	{RuleEducational, educational},
	{RuleHardcodedPath, hardcodedPath},
	{RuleForwardProducer, producesForEarlierCell},
	{RuleNestedDefinition, nestedDefinition},
	{RuleSize, oversized},
	{RuleDeadCode, deadCode},
	{RuleIO, noInputOutput},
}

// Verdict is the outcome of validating one grouping.
type Verdict struct {
	Cells    []int              `json:"cells"`
	Accepted bool               `json:"accepted"`
	Rule     Rule               `json:"rule,omitempty"`
	Detail   string             `json:"detail,omitempty"`
	Boundary signature.Boundary `json:"-"`
}

// Validate runs the checks in order and stops at the first failure.
func Validate(ctx *Context, gr group.Grouping) Verdict {
	b := signature.ComputeBoundary(gr, ctx.Profiles, ctx.Graph)
	verdict := Verdict{Cells: append([]int(nil), gr.Cells...), Boundary: b}
	for _, check := range Checks {
		if failed, detail := check.Fails(ctx, gr, b); failed {
			verdict.Rule = check.Rule
			verdict.Detail = detail
			return verdict
		}
	}
	verdict.Accepted = true
	return verdict
}

func consumesForwardEdge(ctx *Context, gr group.Grouping, _ signature.Boundary) (bool, string) {
	for _, cell := range gr.Cells {
		if edges := ctx.Graph.ForwardInto(cell); len(edges) > 0 {
			e := edges[0]
			return true, fmt.Sprintf("cell %d reads %q before cell %d defines it", e.Consumer, e.Symbol, e.Producer)
		}
	}
	return false, ""
}

func educational(ctx *Context, _ group.Grouping, _ signature.Boundary) (bool, string) {
	if ctx.Educational {
		return true, "notebook is educational; extraction is disabled"
	}
	return false, ""
}

func hardcodedPath(ctx *Context, gr group.Grouping, _ signature.Boundary) (bool, string) {
	for _, cell := range gr.Cells {
		if paths := HardcodedPaths(ctx.Profiles[cell].Strings); len(paths) > 0 {
			return true, fmt.Sprintf("cell %d hardcodes %q", cell, paths[0])
		}
	}
	return false, ""
}

func producesForEarlierCell(ctx *Context, gr group.Grouping, _ signature.Boundary) (bool, string) {
	for _, cell := range gr.Cells {
		for _, e := range ctx.Graph.ForwardFrom(cell) {
			if e.Consumer < gr.First() {
				return true, fmt.Sprintf("%q is needed earlier by cell %d", e.Symbol, e.Consumer)
			}
		}
	}
	return false, ""
}

func nestedDefinition(ctx *Context, gr group.Grouping, _ signature.Boundary) (bool, string) {
	for _, cell := range gr.Cells {
		if p := ctx.Profiles[cell]; p.DefinesCallable() {
			return true, fmt.Sprintf("cell %d already defines %s", cell, strings.Join(p.Definitions, ", "))
		}
	}
	return false, ""
}

func oversized(ctx *Context, gr group.Grouping, _ signature.Boundary) (bool, string) {
	limit := ctx.MaxCells
	if limit <= 0 {
		limit = group.DefaultMaxCells
	}
	if gr.Len() > limit {
		return true, fmt.Sprintf("%d cells exceeds the limit of %d", gr.Len(), limit)
	}
	return false, ""
}

// deadCode counts a defined name as live when a later member reads it, a
// cell outside the grouping consumes it, or it is returned.
func deadCode(ctx *Context, gr group.Grouping, b signature.Boundary) (bool, string) {
	ratio := ctx.DeadCodeRatio
	if ratio <= 0 {
		ratio = DefaultDeadCodeRatio
	}

	total := 0
	var dead []string
	seen := make(map[string]bool)
	for i, cell := range gr.Cells {
		p := ctx.Profiles[cell]
		for _, name := range p.Defined {
			if seen[name] || name == "_" || p.IsImport(name) {
				continue
			}
			seen[name] = true
			total++
			if !live(ctx, gr, b, gr.Cells[i+1:], name) {
				dead = append(dead, name)
			}
		}
	}

	if total == 0 {
		return false, ""
	}
	if float64(len(dead))/float64(total) > ratio {
		return true, fmt.Sprintf("%d of %d defined names are never used (%s)", len(dead), total, strings.Join(dead, ", "))
	}
	return false, ""
}

func live(ctx *Context, gr group.Grouping, b signature.Boundary, laterMembers []int, name string) bool {
	if b.IsReturned(name) {
		return true
	}
	for _, cell := range laterMembers {
		if ctx.Profiles[cell].Uses(name) {
			return true
		}
	}
	for _, e := range ctx.Graph.Edges {
		if e.Symbol == name && gr.Contains(e.Producer) && !gr.Contains(e.Consumer) {
			return true
		}
	}
	return false
}

func noInputOutput(_ *Context, _ group.Grouping, b signature.Boundary) (bool, string) {
	if len(b.Params) == 0 && len(b.Returns) == 0 {
		return true, "no parameters and no return values"
	}
	return false, ""
}
