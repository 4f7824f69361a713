// Package signature infers the data-flow contract of a grouping: which names
// flow in as parameters, which flow out as returns, and what the resulting
// function should be called.
package signature

import (
	"github.com/morozRed/nb2prod/internal/graph"
	"github.com/morozRed/nb2prod/internal/group"
	"github.com/morozRed/nb2prod/internal/parser"
)

// Flow is a name crossing the grouping boundary together with the cell
// whose binding supplies its value.
type Flow struct {
	Name     string
	Producer int
}

// Boundary is the inferred input/output contract of a grouping.
type Boundary struct {
	Params   []Flow
	Returns  []Flow
	Fallback bool // Returns came from the last significant name, not an outgoing edge
	Imports  []string
}

// ComputeBoundary derives parameters and returns from the graph. profiles
// is indexed by cell. A name any member binds is never a parameter, even
// when a member reads it first (df = df.dropna()).
func ComputeBoundary(gr group.Grouping, profiles []*parser.SymbolProfile, g *graph.Graph) Boundary {
	var b Boundary
	memberDefined := make(map[string]bool)
	for _, cell := range gr.Cells {
		for _, name := range profiles[cell].Defined {
			memberDefined[name] = true
		}
	}
	seenParam := make(map[string]bool)
	seenImport := make(map[string]bool)
	addImport := func(stmt string) {
		if stmt != "" && !seenImport[stmt] {
			seenImport[stmt] = true
			b.Imports = append(b.Imports, stmt)
		}
	}

	for _, cell := range gr.Cells {
		for _, stmt := range profiles[cell].Imports {
			addImport(stmt)
		}
		for _, e := range g.EdgesInto(cell) {
			if gr.Contains(e.Producer) {
				continue
			}
			producer := profiles[e.Producer]
			if producer.IsImport(e.Symbol) {
				addImport(producer.Bindings[e.Symbol].Value)
				continue
			}
			if !seenParam[e.Symbol] && !memberDefined[e.Symbol] {
				seenParam[e.Symbol] = true
				b.Params = append(b.Params, Flow{Name: e.Symbol, Producer: e.Producer})
			}
		}
	}

	seenReturn := make(map[string]bool)
	for _, cell := range gr.Cells {
		p := profiles[cell]
		for _, name := range p.Defined {
			if seenReturn[name] || p.IsImport(name) {
				continue
			}
			for _, e := range g.EdgesFrom(cell) {
				if e.Symbol == name && !gr.Contains(e.Consumer) {
					seenReturn[name] = true
					b.Returns = append(b.Returns, Flow{Name: name, Producer: lastDefiner(gr, profiles, name)})
					break
				}
			}
		}
	}

	if len(b.Returns) == 0 {
		last := profiles[gr.Last()]
		for i := len(last.Defined) - 1; i >= 0; i-- {
			name := last.Defined[i]
			if name == "_" || last.IsImport(name) {
				continue
			}
			b.Returns = []Flow{{Name: name, Producer: gr.Last()}}
			b.Fallback = true
			break
		}
	}

	return b
}

func lastDefiner(gr group.Grouping, profiles []*parser.SymbolProfile, name string) int {
	for i := len(gr.Cells) - 1; i >= 0; i-- {
		if profiles[gr.Cells[i]].Defines(name) {
			return gr.Cells[i]
		}
	}
	return gr.Last()
}

// ParamNames lists parameter names in order.
func (b Boundary) ParamNames() []string {
	return flowNames(b.Params)
}

// ReturnNames lists return names in order.
func (b Boundary) ReturnNames() []string {
	return flowNames(b.Returns)
}

// IsReturned reports whether name is one of the inferred returns.
func (b Boundary) IsReturned(name string) bool {
	for _, f := range b.Returns {
		if f.Name == name {
			return true
		}
	}
	return false
}

func flowNames(flows []Flow) []string {
	out := make([]string, len(flows))
	for i, f := range flows {
		out[i] = f.Name
	}
	return out
}
