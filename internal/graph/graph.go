// Package graph builds the cross-cell data-flow graph from symbol profiles.
package graph

import (
	"sort"

	"github.com/morozRed/nb2prod/internal/parser"
)

// Edge records that Consumer reads Symbol produced by Producer. Forward
// edges point to a later producer and are never used as normal edges.
type Edge struct {
	Producer int    `json:"producer"`
	Consumer int    `json:"consumer"`
	Symbol   string `json:"symbol"`
	Forward  bool   `json:"forward,omitempty"`
}

// Node represents a cell in the dependency graph
type Node struct {
	Cell       int
	InEdges    []int   // distinct producer cells feeding this cell
	OutEdges   []int   // distinct consumer cells reading from this cell
	Centrality float64 // PageRank over consumer -> producer references
}

func (n *Node) InDegree() int {
	return len(n.InEdges)
}

func (n *Node) OutDegree() int {
	return len(n.OutEdges)
}

// Graph holds one node per cell plus the symbol-level edges between them.
type Graph struct {
	Nodes   []*Node
	Edges   []Edge // normal edges, by consumer then first read
	Forward []Edge // forward dependencies, same order

	definers map[string][]int // symbol -> ascending defining cells
}

// Build constructs the graph. profiles[i] must describe cell i.
func Build(profiles []*parser.SymbolProfile) *Graph {
	g := &Graph{
		Nodes:    make([]*Node, len(profiles)),
		definers: make(map[string][]int),
	}
	for i, p := range profiles {
		g.Nodes[i] = &Node{Cell: i}
		if p == nil {
			continue
		}
		for _, name := range p.Defined {
			g.definers[name] = append(g.definers[name], i)
		}
	}

	for i, p := range profiles {
		if p == nil {
			continue
		}
		for _, name := range p.External {
			if j, ok := g.nearestBefore(name, i); ok {
				g.Edges = append(g.Edges, Edge{Producer: j, Consumer: i, Symbol: name})
				g.Nodes[j].OutEdges = append(g.Nodes[j].OutEdges, i)
				g.Nodes[i].InEdges = append(g.Nodes[i].InEdges, j)
				continue
			}
			if k, ok := g.nearestAfter(name, i); ok {
				g.Forward = append(g.Forward, Edge{Producer: k, Consumer: i, Symbol: name, Forward: true})
			}
		}
	}

	g.normalizeEdges()
	g.calculateCentrality(20, 0.85)

	return g
}

func (g *Graph) nearestBefore(name string, cell int) (int, bool) {
	cells := g.definers[name]
	idx := sort.SearchInts(cells, cell)
	if idx == 0 {
		return 0, false
	}
	return cells[idx-1], true
}

func (g *Graph) nearestAfter(name string, cell int) (int, bool) {
	cells := g.definers[name]
	idx := sort.SearchInts(cells, cell+1)
	if idx == len(cells) {
		return 0, false
	}
	return cells[idx], true
}

// Definers returns the cells that bind name, in ascending order.
func (g *Graph) Definers(name string) []int {
	return append([]int(nil), g.definers[name]...)
}

// HasEdge reports whether a normal edge runs from producer to consumer.
func (g *Graph) HasEdge(producer, consumer int) bool {
	if consumer < 0 || consumer >= len(g.Nodes) {
		return false
	}
	in := g.Nodes[consumer].InEdges
	idx := sort.SearchInts(in, producer)
	return idx < len(in) && in[idx] == producer
}

// EdgesInto returns the normal edges consumed by cell, in first-read order.
func (g *Graph) EdgesInto(cell int) []Edge {
	return filterEdges(g.Edges, func(e Edge) bool { return e.Consumer == cell })
}

// EdgesFrom returns the normal edges produced by cell.
func (g *Graph) EdgesFrom(cell int) []Edge {
	return filterEdges(g.Edges, func(e Edge) bool { return e.Producer == cell })
}

// ForwardInto returns the forward edges whose consumer is cell.
func (g *Graph) ForwardInto(cell int) []Edge {
	return filterEdges(g.Forward, func(e Edge) bool { return e.Consumer == cell })
}

// ForwardFrom returns the forward edges whose producer is cell.
func (g *Graph) ForwardFrom(cell int) []Edge {
	return filterEdges(g.Forward, func(e Edge) bool { return e.Producer == cell })
}

func filterEdges(edges []Edge, keep func(Edge) bool) []Edge {
	var out []Edge
	for _, e := range edges {
		if keep(e) {
			out = append(out, e)
		}
	}
	return out
}

// Cohesion is the share of cell-to-cell links touching members that stay
// inside the set. A set with no links scores 0.
func (g *Graph) Cohesion(cells []int) float64 {
	members := make(map[int]bool, len(cells))
	for _, c := range cells {
		members[c] = true
	}

	internal, boundary := 0, 0
	for _, c := range cells {
		if c < 0 || c >= len(g.Nodes) {
			continue
		}
		node := g.Nodes[c]
		for _, p := range node.InEdges {
			if members[p] {
				internal++
			} else {
				boundary++
			}
		}
		for _, consumer := range node.OutEdges {
			if !members[consumer] {
				boundary++
			}
		}
	}
	if internal+boundary == 0 {
		return 0
	}
	return float64(internal) / float64(internal+boundary)
}

// calculateCentrality ranks cells by how much downstream work depends on
// them: a consumer passes its rank to the producers it reads from.
func (g *Graph) calculateCentrality(iterations int, dampingFactor float64) {
	n := float64(len(g.Nodes))
	if n == 0 {
		return
	}

	for _, node := range g.Nodes {
		node.Centrality = 1.0 / n
	}

	for i := 0; i < iterations; i++ {
		newRanks := make([]float64, len(g.Nodes))
		for idx, node := range g.Nodes {
			rank := (1 - dampingFactor) / n
			for _, consumer := range node.OutEdges {
				c := g.Nodes[consumer]
				if producers := float64(c.InDegree()); producers > 0 {
					rank += dampingFactor * (c.Centrality / producers)
				}
			}
			newRanks[idx] = rank
		}
		for idx, rank := range newRanks {
			g.Nodes[idx].Centrality = rank
		}
	}
}

// TopNodes returns the n cells with the most connections, by centrality.
// Cells without any edge are left out.
func (g *Graph) TopNodes(n int) []*Node {
	nodes := make([]*Node, 0, len(g.Nodes))
	for _, node := range g.Nodes {
		if node.InDegree()+node.OutDegree() > 0 {
			nodes = append(nodes, node)
		}
	}

	sort.Slice(nodes, func(i, j int) bool {
		if nodes[i].Centrality == nodes[j].Centrality {
			return nodes[i].Cell < nodes[j].Cell
		}
		return nodes[i].Centrality > nodes[j].Centrality
	})

	if n > len(nodes) {
		n = len(nodes)
	}
	return nodes[:n]
}

func (g *Graph) normalizeEdges() {
	for _, node := range g.Nodes {
		node.OutEdges = dedupeAndSort(node.OutEdges)
		node.InEdges = dedupeAndSort(node.InEdges)
	}
}

func dedupeAndSort(values []int) []int {
	if len(values) == 0 {
		return values
	}

	seen := make(map[int]bool, len(values))
	out := make([]int, 0, len(values))
	for _, value := range values {
		if seen[value] {
			continue
		}
		seen[value] = true
		out = append(out, value)
	}
	sort.Ints(out)
	return out
}
