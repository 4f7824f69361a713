// Package pipeline runs the analysis stages over one notebook: analyze,
// graph, educational detection, group, then validate and infer.
package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/morozRed/nb2prod/internal/graph"
	"github.com/morozRed/nb2prod/internal/group"
	"github.com/morozRed/nb2prod/internal/heuristics"
	"github.com/morozRed/nb2prod/internal/issues"
	"github.com/morozRed/nb2prod/internal/languages"
	"github.com/morozRed/nb2prod/internal/logging"
	"github.com/morozRed/nb2prod/internal/notebook"
	"github.com/morozRed/nb2prod/internal/parser"
	"github.com/morozRed/nb2prod/internal/signature"
	"github.com/morozRed/nb2prod/internal/validate"
)

// Options configures a Pipeline. Zero values fall back to defaults.
type Options struct {
	Registry      *parser.Registry
	Tables        *heuristics.Tables
	MaxCells      int
	DeadCodeRatio float64
	Educational   validate.EducationalOptions
	Logger        *logging.Logger
}

// Pipeline is bound to one analyzer registry, so it must not be shared
// between goroutines.
type Pipeline struct {
	opts Options
}

// Result is everything one run produced.
type Result struct {
	Notebook    *notebook.Notebook
	Profiles    []*parser.SymbolProfile
	Graph       *graph.Graph
	Groupings   []group.Grouping
	Verdicts    []validate.Verdict
	Candidates  []signature.FunctionCandidate
	Issues      *issues.List
	Stats       notebook.Stats
	Educational bool
}

func New(opts Options) *Pipeline {
	if opts.Registry == nil {
		opts.Registry = languages.NewDefaultRegistry()
	}
	if opts.Tables == nil {
		opts.Tables = heuristics.Default()
	}
	if opts.MaxCells <= 0 {
		opts.MaxCells = group.DefaultMaxCells
	}
	if opts.DeadCodeRatio <= 0 {
		opts.DeadCodeRatio = validate.DefaultDeadCodeRatio
	}
	if opts.Educational.IsZero() {
		opts.Educational = validate.DefaultEducationalOptions()
	}
	if opts.Logger == nil {
		opts.Logger = logging.NopLogger()
	}
	return &Pipeline{opts: opts}
}

// Tables returns the heuristics the pipeline categorizes and names with.
func (p *Pipeline) Tables() *heuristics.Tables {
	return p.opts.Tables
}

// Run analyzes nb. The only error it returns is a parse failure of the
// notebook or a cancelled context; everything else becomes an issue. The
// context is checked between stages only.
func (p *Pipeline) Run(ctx context.Context, nb *notebook.Notebook) (*Result, error) {
	log := p.opts.Logger.WithNotebook(nb.Path)
	res := &Result{Notebook: nb, Issues: &issues.List{}, Stats: nb.Stats()}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	profiles, err := p.opts.Registry.AnalyzeNotebook(nb)
	if err != nil {
		return nil, fmt.Errorf("analyze notebook: %w", err)
	}
	res.Profiles = profiles
	p.reportCells(res)
	log.WithPhase("analyze").Debug("profiled cells", "cells", len(profiles), "code", res.Stats.Code)

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	res.Graph = graph.Build(profiles)
	for _, e := range res.Graph.Forward {
		res.Issues.Add(issues.Issue{
			Kind:   issues.ForwardDependency,
			Cells:  []int{e.Consumer, e.Producer},
			Symbol: e.Symbol,
			Detail: fmt.Sprintf("cell %d reads %q which is only defined later, in cell %d", e.Consumer, e.Symbol, e.Producer),
		})
	}
	log.WithPhase("graph").Debug("built dependency graph", "edges", len(res.Graph.Edges), "forward", len(res.Graph.Forward))

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	edu, detail := validate.DetectEducational(nb.Cells, profiles, p.opts.Educational)
	res.Educational = edu
	if edu {
		res.Issues.Add(issues.Issue{Kind: issues.EducationalNotebookDetected, Detail: detail})
		log.WithPhase("educational").Info("educational notebook, extraction disabled", "reason", detail)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	res.Groupings = group.New(p.opts.MaxCells).Group(nb.Cells, res.Graph)
	log.WithPhase("group").Debug("grouped cells", "groupings", len(res.Groupings))

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	vctx := &validate.Context{
		Cells:         nb.Cells,
		Profiles:      profiles,
		Graph:         res.Graph,
		Educational:   edu,
		MaxCells:      p.opts.MaxCells,
		DeadCodeRatio: p.opts.DeadCodeRatio,
	}
	inferencer := signature.NewInferencer(p.opts.Tables)
	for _, gr := range res.Groupings {
		verdict := validate.Validate(vctx, gr)
		res.Verdicts = append(res.Verdicts, verdict)
		if !verdict.Accepted {
			res.Issues.Add(issues.Issue{
				Kind:   issues.CandidateRejected,
				Cells:  gr.Cells,
				Rule:   string(verdict.Rule),
				Detail: verdict.Detail,
			})
			continue
		}
		res.Candidates = append(res.Candidates, inferencer.Candidate(gr, verdict.Boundary, nb.Cells, profiles))
	}
	log.WithPhase("validate").Debug("validated groupings", "accepted", len(res.Candidates), "rejected", len(res.Verdicts)-len(res.Candidates))

	return res, nil
}

// reportCells raises the per-cell issues: unparsable cells, hardcoded
// paths, and a notebook that defines no function or class at all.
func (p *Pipeline) reportCells(res *Result) {
	definesCallable := false
	for i, profile := range res.Profiles {
		if profile.SyntaxError {
			res.Issues.Addf(issues.UnparsableCell, []int{i}, "cell %d has syntax errors; symbols are best effort", i)
		}
		if paths := validate.HardcodedPaths(profile.Strings); len(paths) > 0 {
			res.Issues.Add(issues.Issue{
				Kind:   issues.HardcodedPathDetected,
				Cells:  []int{i},
				Detail: fmt.Sprintf("hardcoded path %s", quoteAll(paths)),
			})
		}
		if profile.DefinesCallable() {
			definesCallable = true
		}
	}
	if !definesCallable && res.Stats.Code > 0 {
		res.Issues.Addf(issues.NoFunctionsDefined, nil, "notebook defines no functions or classes")
	}
}

func quoteAll(values []string) string {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = fmt.Sprintf("%q", v)
	}
	return strings.Join(quoted, ", ")
}

// Accepted returns the number of accepted candidates.
func (r *Result) Accepted() int {
	return len(r.Candidates)
}

// Rejected returns the verdicts that rejected their grouping.
func (r *Result) Rejected() []validate.Verdict {
	var out []validate.Verdict
	for _, v := range r.Verdicts {
		if !v.Accepted {
			out = append(out, v)
		}
	}
	return out
}
