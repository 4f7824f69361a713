package signature

import (
	"fmt"
	"strings"

	"github.com/morozRed/nb2prod/internal/group"
	"github.com/morozRed/nb2prod/internal/heuristics"
	"github.com/morozRed/nb2prod/internal/notebook"
	"github.com/morozRed/nb2prod/internal/parser"
)

// StatusAccepted is the only status a candidate leaves the pipeline with.
const StatusAccepted = "accepted"

// Param is a typed name in a function signature.
type Param struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// FunctionCandidate is the contract handed to code generation.
type FunctionCandidate struct {
	Cells      []int             `json:"cells"`
	Sources    []string          `json:"sources"`
	Name       string            `json:"name"`
	Category   notebook.Category `json:"category"`
	Parameters []Param           `json:"parameters"`
	Returns    []Param           `json:"returns"`
	Imports    []string          `json:"imports,omitempty"`
	Status     string            `json:"status"`
}

// Signature renders the candidate as a Python def line.
func (c FunctionCandidate) Signature() string {
	params := make([]string, len(c.Parameters))
	for i, p := range c.Parameters {
		params[i] = fmt.Sprintf("%s: %s", p.Name, p.Type)
	}
	ret := "None"
	switch len(c.Returns) {
	case 0:
	case 1:
		ret = c.Returns[0].Type
	default:
		types := make([]string, len(c.Returns))
		for i, r := range c.Returns {
			types[i] = r.Type
		}
		ret = fmt.Sprintf("Tuple[%s]", strings.Join(types, ", "))
	}
	return fmt.Sprintf("def %s(%s) -> %s", c.Name, strings.Join(params, ", "), ret)
}

// Inferencer names and types accepted groupings. Names are unique within the
// lifetime of one Inferencer, so use one per run.
type Inferencer struct {
	tables *heuristics.Tables
	names  map[string]int
}

func NewInferencer(tables *heuristics.Tables) *Inferencer {
	if tables == nil {
		tables = heuristics.Default()
	}
	return &Inferencer{tables: tables, names: make(map[string]int)}
}

// Candidate builds the FunctionCandidate for an accepted grouping.
func (in *Inferencer) Candidate(gr group.Grouping, b Boundary, cells []notebook.Cell, profiles []*parser.SymbolProfile) FunctionCandidate {
	sources := make([]string, len(gr.Cells))
	for i, c := range gr.Cells {
		sources[i] = cells[c].Source
	}

	return FunctionCandidate{
		Cells:      append([]int(nil), gr.Cells...),
		Sources:    sources,
		Name:       in.uniqueName(in.tables.FunctionName(gr.Category, strings.Join(sources, "\n"))),
		Category:   gr.Category,
		Parameters: in.typed(b.Params, profiles),
		Returns:    in.typed(b.Returns, profiles),
		Imports:    append([]string(nil), b.Imports...),
		Status:     StatusAccepted,
	}
}

func (in *Inferencer) typed(flows []Flow, profiles []*parser.SymbolProfile) []Param {
	out := make([]Param, len(flows))
	for i, f := range flows {
		producer := ""
		if binding, ok := profiles[f.Producer].Bindings[f.Name]; ok && binding.Kind != parser.BindAugmented {
			producer = binding.Value
		}
		out[i] = Param{Name: f.Name, Type: in.tables.TypeHint(f.Name, producer)}
	}
	return out
}

func (in *Inferencer) uniqueName(base string) string {
	in.names[base]++
	if n := in.names[base]; n > 1 {
		return fmt.Sprintf("%s_%d", base, n)
	}
	return base
}
