// Package report turns a pipeline result into the analysis report and
// computes the readiness score.
package report

import (
	"math"

	"github.com/morozRed/nb2prod/internal/fileutil"
	"github.com/morozRed/nb2prod/internal/graph"
	"github.com/morozRed/nb2prod/internal/issues"
	"github.com/morozRed/nb2prod/internal/notebook"
	"github.com/morozRed/nb2prod/internal/pipeline"
	"github.com/morozRed/nb2prod/internal/signature"
	"github.com/morozRed/nb2prod/internal/validate"
)

const (
	maxScore            = 10
	forwardPenalty      = 2
	forwardPenaltyCap   = 6
	hardcodedPenalty    = 2
	noFunctionsPenalty  = 2
	yieldPenalty        = 3
	targetYield         = 0.25
	defaultCentralCells = 5
)

// ScoreInputs are the only facts the readiness score depends on.
type ScoreInputs struct {
	ForwardIssues  int
	HardcodedPaths int
	NoFunctions    bool
	Accepted       int
	CodeCells      int
}

// Yield is accepted candidates per code cell, 0 without code.
func (in ScoreInputs) Yield() float64 {
	if in.CodeCells == 0 {
		return 0
	}
	return float64(in.Accepted) / float64(in.CodeCells)
}

// Readiness scores a notebook from 0 to 10. Each forward dependency costs 2
// (at most 6), any hardcoded path costs 2, a notebook without functions
// costs 2, and a yield below one function per four code cells costs up to 3.
func Readiness(in ScoreInputs) int {
	score := float64(maxScore)
	score -= float64(min(in.ForwardIssues*forwardPenalty, forwardPenaltyCap))
	if in.HardcodedPaths > 0 {
		score -= hardcodedPenalty
	}
	if in.NoFunctions {
		score -= noFunctionsPenalty
	}
	score -= yieldPenalty * (1 - math.Min(1, in.Yield()/targetYield))

	return int(math.Round(math.Max(0, math.Min(maxScore, score))))
}

// InputsOf extracts score inputs from a run.
func InputsOf(res *pipeline.Result) ScoreInputs {
	return ScoreInputs{
		ForwardIssues:  res.Issues.Count(issues.ForwardDependency),
		HardcodedPaths: res.Issues.Count(issues.HardcodedPathDetected),
		NoFunctions:    res.Issues.Count(issues.NoFunctionsDefined) > 0,
		Accepted:       res.Accepted(),
		CodeCells:      res.Stats.Code,
	}
}

// CentralCell is a highly referenced cell, ranked by centrality.
type CentralCell struct {
	Cell       int     `json:"cell"`
	Centrality float64 `json:"centrality"`
	InDegree   int     `json:"in_degree"`
	OutDegree  int     `json:"out_degree"`
}

// Report is the analysis report for one notebook.
type Report struct {
	Notebook     string                        `json:"notebook"`
	Language     string                        `json:"language"`
	Fingerprint  string                        `json:"fingerprint"`
	Stats        notebook.Stats                `json:"stats"`
	Score        int                           `json:"readiness_score"`
	Educational  bool                          `json:"educational"`
	Issues       []issues.Issue                `json:"issues"`
	Edges        []graph.Edge                  `json:"edges"`
	ForwardEdges []graph.Edge                  `json:"forward_edges"`
	Central      []CentralCell                 `json:"central_cells"`
	Candidates   []signature.FunctionCandidate `json:"candidates"`
	Rejected     []validate.Verdict            `json:"rejected"`
}

// Build assembles the report. Slices are never nil so JSON output always
// carries arrays.
func Build(res *pipeline.Result) *Report {
	nb := res.Notebook
	sources := make([]string, len(nb.Cells))
	for i, c := range nb.Cells {
		sources[i] = string(c.Kind) + "\x00" + c.Source
	}

	r := &Report{
		Notebook:     nb.Path,
		Language:     nb.Language,
		Fingerprint:  fileutil.HashStrings(sources),
		Stats:        res.Stats,
		Score:        Readiness(InputsOf(res)),
		Educational:  res.Educational,
		Issues:       nonNil(res.Issues.Sorted()),
		Edges:        nonNil(res.Graph.Edges),
		ForwardEdges: nonNil(res.Graph.Forward),
		Candidates:   nonNil(res.Candidates),
		Rejected:     nonNil(res.Rejected()),
	}
	for _, n := range res.Graph.TopNodes(defaultCentralCells) {
		r.Central = append(r.Central, CentralCell{
			Cell:       n.Cell,
			Centrality: n.Centrality,
			InDegree:   n.InDegree(),
			OutDegree:  n.OutDegree(),
		})
	}
	r.Central = nonNil(r.Central)
	return r
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// Grade buckets a score the way the text report colors it.
func Grade(score int) string {
	switch {
	case score >= 8:
		return "ready"
	case score >= 5:
		return "needs work"
	default:
		return "not ready"
	}
}
