// Package group partitions a notebook's code cells into candidate groupings
// with a single forward pass.
package group

import (
	"github.com/morozRed/nb2prod/internal/graph"
	"github.com/morozRed/nb2prod/internal/notebook"
)

// DefaultMaxCells bounds how many cells one function may absorb.
const DefaultMaxCells = 4

// Grouping is an ordered run of code cells sharing one category.
type Grouping struct {
	Cells    []int             `json:"cells"`
	Category notebook.Category `json:"category"`
	Cohesion float64           `json:"cohesion"`
}

func (g Grouping) Len() int {
	return len(g.Cells)
}

func (g Grouping) First() int {
	return g.Cells[0]
}

func (g Grouping) Last() int {
	return g.Cells[len(g.Cells)-1]
}

// Contains reports whether cell is a member.
func (g Grouping) Contains(cell int) bool {
	for _, c := range g.Cells {
		if c == cell {
			return true
		}
	}
	return false
}

// Grouper decides grouping boundaries.
type Grouper struct {
	MaxCells int
}

func New(maxCells int) *Grouper {
	if maxCells <= 0 {
		maxCells = DefaultMaxCells
	}
	return &Grouper{MaxCells: maxCells}
}

// Group walks cells in index order keeping one open grouping. A code cell
// joins it when the category matches, some member produces a normal edge
// into it, and the size limit allows. Anything else, including a narrative
// cell, closes it. Every code cell lands in exactly one grouping.
func (gr *Grouper) Group(cells []notebook.Cell, g *graph.Graph) []Grouping {
	var out []Grouping
	var open *Grouping

	closeOpen := func() {
		if open == nil {
			return
		}
		open.Cohesion = g.Cohesion(open.Cells)
		out = append(out, *open)
		open = nil
	}

	for _, cell := range cells {
		if !cell.IsCode() {
			closeOpen()
			continue
		}
		if open != nil && gr.extends(open, cell, g) {
			open.Cells = append(open.Cells, cell.Index)
			continue
		}
		closeOpen()
		open = &Grouping{Cells: []int{cell.Index}, Category: cell.Category}
	}
	closeOpen()

	return out
}

func (gr *Grouper) extends(open *Grouping, cell notebook.Cell, g *graph.Graph) bool {
	if cell.Category != open.Category {
		return false
	}
	if open.Len()+1 > gr.MaxCells {
		return false
	}
	for _, member := range open.Cells {
		if g.HasEdge(member, cell.Index) {
			return true
		}
	}
	return false
}
