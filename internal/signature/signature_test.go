package signature

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/morozRed/nb2prod/internal/graph"
	"github.com/morozRed/nb2prod/internal/group"
	"github.com/morozRed/nb2prod/internal/heuristics"
	"github.com/morozRed/nb2prod/internal/languages"
	"github.com/morozRed/nb2prod/internal/notebook"
	"github.com/morozRed/nb2prod/internal/parser"
)

type fixture struct {
	nb       *notebook.Notebook
	profiles []*parser.SymbolProfile
	graph    *graph.Graph
}

func load(t *testing.T, sources ...string) fixture {
	t.Helper()
	nb := notebook.FromSources(heuristics.Default(), sources...)
	profiles, err := languages.NewDefaultRegistry().AnalyzeNotebook(nb)
	require.NoError(t, err)
	return fixture{nb: nb, profiles: profiles, graph: graph.Build(profiles)}
}

func (f fixture) grouping(cells ...int) group.Grouping {
	return group.Grouping{Cells: cells, Category: f.nb.Cells[cells[0]].Category}
}

func TestBoundaryFallsBackToLastSignificantName(t *testing.T) {
	f := load(t, "import os", "a = 0", "b = 0", "x = 1", "y = x + 1")
	b := ComputeBoundary(f.grouping(3, 4), f.profiles, f.graph)

	assert.Empty(t, b.Params)
	assert.Equal(t, []string{"y"}, b.ReturnNames())
	assert.True(t, b.Fallback)
}

func TestBoundaryParamsAndReturnsFollowEdges(t *testing.T) {
	f := load(t,
		"import pandas as pd\nthreshold = 0.5",
		"raw = pd.read_csv(src)",
		"clean = raw.dropna()\nclean = clean[clean.score > threshold]\ntmp = 1",
		"summary = clean.describe()\n_ = raw",
	)
	b := ComputeBoundary(f.grouping(2), f.profiles, f.graph)

	assert.Equal(t, []string{"raw", "threshold"}, b.ParamNames())
	assert.Equal(t, []string{"clean"}, b.ReturnNames())
	assert.False(t, b.Fallback)
}

func TestBoundaryExcludesImportBindings(t *testing.T) {
	f := load(t,
		"import numpy as np",
		"arr = np.array(values)",
		"print(arr)",
	)
	b := ComputeBoundary(f.grouping(1), f.profiles, f.graph)

	assert.Empty(t, b.ParamNames())
	assert.Equal(t, []string{"import numpy as np"}, b.Imports)
	assert.Equal(t, []string{"arr"}, b.ReturnNames())
}

func TestBoundaryParamsExcludeMemberDefinedNames(t *testing.T) {
	f := load(t,
		"df = load()",
		"df = df.fillna(0)\ncols = list(df)",
		"df = df[cols]",
		"print(df)",
	)
	gr := f.grouping(1, 2)
	b := ComputeBoundary(gr, f.profiles, f.graph)

	assert.Empty(t, b.ParamNames())
	assert.Equal(t, []string{"df"}, b.ReturnNames())
}

func TestBoundaryRebindingCellTakesNoParameter(t *testing.T) {
	f := load(t,
		"import pandas as pd\ndf = pd.read_csv('data.csv')",
		"#md ## Clean",
		"df = df.dropna()\nsummary = df.describe()",
		"print(summary)",
	)
	b := ComputeBoundary(f.grouping(2), f.profiles, f.graph)

	assert.NotContains(t, b.ParamNames(), "df")
	assert.Empty(t, b.ParamNames())
	assert.Equal(t, []string{"summary"}, b.ReturnNames())
}

func TestInferencerNamesAndTypes(t *testing.T) {
	f := load(t,
		"df = pd.read_csv(path)",
		"df2 = pd.read_csv(other_path)",
		"n_rows = len(df) + len(df2)",
	)
	in := NewInferencer(heuristics.Default())

	first := f.grouping(0)
	c1 := in.Candidate(first, ComputeBoundary(first, f.profiles, f.graph), f.nb.Cells, f.profiles)
	second := f.grouping(1)
	c2 := in.Candidate(second, ComputeBoundary(second, f.profiles, f.graph), f.nb.Cells, f.profiles)

	assert.Equal(t, "load_data", c1.Name)
	assert.Equal(t, "load_data_2", c2.Name)
	assert.Equal(t, StatusAccepted, c1.Status)
	require.Len(t, c1.Returns, 1)
	assert.Equal(t, Param{Name: "df", Type: "pd.DataFrame"}, c1.Returns[0])
	assert.Equal(t, []string{"df = pd.read_csv(path)"}, c1.Sources)
	assert.Equal(t, "def load_data() -> pd.DataFrame", c1.Signature())
}

func TestSignatureRendersTupleReturns(t *testing.T) {
	c := FunctionCandidate{
		Name:       "split_data",
		Parameters: []Param{{Name: "df", Type: "pd.DataFrame"}, {Name: "ratio", Type: "float"}},
		Returns:    []Param{{Name: "X_train", Type: "np.ndarray"}, {Name: "X_test", Type: "np.ndarray"}},
	}
	assert.Equal(t, "def split_data(df: pd.DataFrame, ratio: float) -> Tuple[np.ndarray, np.ndarray]", c.Signature())
}
