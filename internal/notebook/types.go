package notebook

// CellKind distinguishes executable cells from prose.
type CellKind string

const (
	KindCode      CellKind = "code"
	KindNarrative CellKind = "narrative"
)

// Category is the coarse purpose tag assigned to a code cell at load time.
type Category string

const (
	CategoryData          Category = "data"
	CategoryFeature       Category = "feature"
	CategoryModel         Category = "model"
	CategoryVisualization Category = "visualization"
	CategoryOther         Category = "other"
)

// Categories lists every category in the order heuristics are evaluated.
var Categories = []Category{
	CategoryData,
	CategoryFeature,
	CategoryModel,
	CategoryVisualization,
	CategoryOther,
}

// ParseCategory returns the category for a name, or false if it is unknown.
func ParseCategory(name string) (Category, bool) {
	for _, c := range Categories {
		if string(c) == name {
			return c, true
		}
	}
	return "", false
}

// Cell is one source fragment of a notebook. Index is assigned once at load
// and is the addressing key used by every later stage.
type Cell struct {
	Index    int      `json:"index"`
	Source   string   `json:"source"`
	Kind     CellKind `json:"kind"`
	Category Category `json:"category"`
}

// IsCode reports whether the cell holds executable source.
func (c Cell) IsCode() bool {
	return c.Kind == KindCode
}

// Categorizer assigns a category tag to a code cell's source.
type Categorizer interface {
	Categorize(source string) Category
}

// Stats summarizes the cell mix of a notebook.
type Stats struct {
	Total     int `json:"total_cells"`
	Code      int `json:"code_cells"`
	Narrative int `json:"narrative_cells"`
	Empty     int `json:"empty_cells"`
}

// Notebook is the immutable, ordered snapshot every analysis run works on.
type Notebook struct {
	Path     string `json:"path,omitempty"`
	Language string `json:"language"`
	Cells    []Cell `json:"cells"`
}

// CodeCells returns the code cells in source order.
func (n *Notebook) CodeCells() []Cell {
	out := make([]Cell, 0, len(n.Cells))
	for _, cell := range n.Cells {
		if cell.IsCode() {
			out = append(out, cell)
		}
	}
	return out
}

// Stats counts cells by kind.
func (n *Notebook) Stats() Stats {
	var s Stats
	s.Total = len(n.Cells)
	for _, cell := range n.Cells {
		if cell.IsCode() {
			s.Code++
		} else {
			s.Narrative++
		}
		if isBlank(cell.Source) {
			s.Empty++
		}
	}
	return s
}

// Cell returns the cell at index, or false when out of range.
func (n *Notebook) Cell(index int) (Cell, bool) {
	if index < 0 || index >= len(n.Cells) {
		return Cell{}, false
	}
	return n.Cells[index], true
}
