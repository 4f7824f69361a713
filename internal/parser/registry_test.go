package parser

import (
	"errors"
	"strings"
	"testing"

	"github.com/morozRed/nb2prod/internal/notebook"
)

type mockAnalyzer struct {
	lang    string
	aliases []string
	calls   int
}

func (m *mockAnalyzer) Language() string {
	return m.lang
}

func (m *mockAnalyzer) Aliases() []string {
	return m.aliases
}

func (m *mockAnalyzer) Analyze(cell notebook.Cell) (*SymbolProfile, error) {
	m.calls++
	b := NewProfileBuilder(cell.Index)
	for _, field := range strings.Fields(cell.Source) {
		b.Bind(Binding{Name: field, Kind: BindAssign})
	}
	return b.Profile(), nil
}

func TestRegistryForLanguageMatchesAliases(t *testing.T) {
	r := NewRegistry()
	r.Register(&mockAnalyzer{lang: "mock", aliases: []string{"Mock3", "mk"}})

	for _, lang := range []string{"mock", "MOCK", "mock3", " mk "} {
		a, ok := r.ForLanguage(lang)
		if !ok {
			t.Fatalf("expected analyzer for %q", lang)
		}
		if a.Language() != "mock" {
			t.Fatalf("expected language mock, got %s", a.Language())
		}
	}
	if _, ok := r.ForLanguage("r"); ok {
		t.Fatalf("did not expect analyzer for r")
	}
	if got := r.Languages(); len(got) != 1 || got[0] != "mock" {
		t.Fatalf("expected only canonical names, got %#v", got)
	}
}

func TestAnalyzeNotebookSkipsNarrativeAndBlankCells(t *testing.T) {
	mock := &mockAnalyzer{lang: "python"}
	r := NewRegistry()
	r.Register(mock)

	nb := notebook.FromSources(nil, "a b", "#md prose here", "   ", "c")
	profiles, err := r.AnalyzeNotebook(nb)
	if err != nil {
		t.Fatalf("analyze failed: %v", err)
	}
	if len(profiles) != 4 {
		t.Fatalf("expected one profile per cell, got %d", len(profiles))
	}
	if mock.calls != 2 {
		t.Fatalf("expected analyzer to see 2 code cells, saw %d", mock.calls)
	}
	if !profiles[1].Empty() || !profiles[2].Empty() {
		t.Fatalf("expected empty profiles for narrative and blank cells")
	}
	if profiles[3].Cell != 3 || !profiles[3].Defines("c") {
		t.Fatalf("unexpected profile for cell 3: %#v", profiles[3])
	}
}

func TestAnalyzeNotebookUnsupportedLanguage(t *testing.T) {
	r := NewRegistry()
	r.Register(&mockAnalyzer{lang: "python"})

	nb := notebook.FromSources(nil, "x")
	nb.Language = "julia"
	_, err := r.AnalyzeNotebook(nb)
	if !errors.Is(err, notebook.ErrParseFailure) {
		t.Fatalf("expected parse failure, got %v", err)
	}
}

func TestProfileBuilderExternalOrdering(t *testing.T) {
	b := NewProfileBuilder(7)
	b.Use("x")
	b.Bind(Binding{Name: "x", Kind: BindAugmented})
	b.Bind(Binding{Name: "y", Kind: BindAssign, Value: "x * 2"})
	b.Use("y")
	b.Bind(Binding{Name: "y", Kind: BindAssign, Value: "y + 1"})
	b.Bind(Binding{Name: "f", Kind: BindFunction})

	p := b.Profile()
	if strings.Join(p.Defined, ",") != "x,y,f" {
		t.Fatalf("unexpected defined order: %v", p.Defined)
	}
	if strings.Join(p.Used, ",") != "x,y" {
		t.Fatalf("unexpected used order: %v", p.Used)
	}
	if strings.Join(p.External, ",") != "x" {
		t.Fatalf("expected only x external, got %v", p.External)
	}
	if got := p.Bindings["y"].Value; got != "y + 1" {
		t.Fatalf("expected last binding of y to win, got %q", got)
	}
	if !p.DefinesCallable() {
		t.Fatalf("expected function definition to be recorded")
	}
}
