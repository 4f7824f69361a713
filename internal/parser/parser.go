// Package parser defines per-cell symbol profiles and the registry that maps
// a notebook language to the analyzer that produces them.
package parser

import (
	"fmt"
	"sort"
	"strings"

	"github.com/morozRed/nb2prod/internal/notebook"
)

// CellAnalyzer defines the interface each notebook language must implement
type CellAnalyzer interface {
	// Language returns the canonical language name (e.g., "python")
	Language() string

	// Aliases returns other kernel language names this analyzer accepts
	Aliases() []string

	// Analyze extracts the symbol profile of one code cell
	Analyze(cell notebook.Cell) (*SymbolProfile, error)
}

// Registry holds the registered analyzers. Analyzers wrap parsers that are
// not safe for concurrent use, so each goroutine should own its Registry.
type Registry struct {
	analyzers map[string]CellAnalyzer // language name or alias -> analyzer
	languages []string
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{analyzers: make(map[string]CellAnalyzer)}
}

// Register adds an analyzer under its language name and aliases
func (r *Registry) Register(a CellAnalyzer) {
	lang := strings.ToLower(a.Language())
	if _, exists := r.analyzers[lang]; !exists {
		r.languages = append(r.languages, lang)
	}
	r.analyzers[lang] = a
	for _, alias := range a.Aliases() {
		r.analyzers[strings.ToLower(strings.TrimSpace(alias))] = a
	}
}

// ForLanguage returns the analyzer for a notebook language name
func (r *Registry) ForLanguage(lang string) (CellAnalyzer, bool) {
	a, ok := r.analyzers[strings.ToLower(strings.TrimSpace(lang))]
	return a, ok
}

// Languages returns the canonical names of all registered analyzers
func (r *Registry) Languages() []string {
	out := append([]string(nil), r.languages...)
	sort.Strings(out)
	return out
}

// AnalyzeNotebook profiles every cell of nb in index order. Narrative and
// blank cells get empty profiles. A language with no analyzer is a parse
// failure of the whole notebook.
func (r *Registry) AnalyzeNotebook(nb *notebook.Notebook) ([]*SymbolProfile, error) {
	analyzer, ok := r.ForLanguage(nb.Language)
	if !ok {
		return nil, &notebook.ParseError{
			Path:   nb.Path,
			Reason: fmt.Sprintf("unsupported notebook language %q (supported: %s)", nb.Language, strings.Join(r.Languages(), ", ")),
		}
	}

	profiles := make([]*SymbolProfile, len(nb.Cells))
	for i, cell := range nb.Cells {
		if !cell.IsCode() || strings.TrimSpace(cell.Source) == "" {
			profiles[i] = EmptyProfile(cell.Index)
			continue
		}
		profile, err := analyzer.Analyze(cell)
		if err != nil {
			return nil, fmt.Errorf("analyze cell %d: %w", cell.Index, err)
		}
		profiles[i] = profile
	}
	return profiles, nil
}
