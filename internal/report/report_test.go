package report

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/morozRed/nb2prod/internal/heuristics"
	"github.com/morozRed/nb2prod/internal/issues"
	"github.com/morozRed/nb2prod/internal/notebook"
	"github.com/morozRed/nb2prod/internal/pipeline"
)

func TestReadinessIsMonotoneInYield(t *testing.T) {
	for _, hardcoded := range []int{0, 3} {
		for _, noFunctions := range []bool{false, true} {
			for code := 1; code <= 40; code++ {
				prev := -1
				prevYield := -1.0
				for accepted := 0; accepted <= code; accepted++ {
					in := ScoreInputs{HardcodedPaths: hardcoded, NoFunctions: noFunctions, Accepted: accepted, CodeCells: code}
					score := Readiness(in)
					require.GreaterOrEqual(t, in.Yield(), prevYield)
					require.GreaterOrEqual(t, score, prev, "score dropped at %d/%d (hardcoded=%d noFunctions=%v)",
						accepted, code, hardcoded, noFunctions)
					require.True(t, score >= 0 && score <= 10)
					prev, prevYield = score, in.Yield()
				}
			}
		}
	}
}

func TestReadinessPenalties(t *testing.T) {
	cases := []struct {
		name string
		in   ScoreInputs
		want int
	}{
		{"full yield", ScoreInputs{Accepted: 1, CodeCells: 4}, 10},
		{"no yield", ScoreInputs{Accepted: 0, CodeCells: 4}, 7},
		{"half target yield", ScoreInputs{Accepted: 1, CodeCells: 8}, 9},
		{"one forward", ScoreInputs{ForwardIssues: 1, Accepted: 2, CodeCells: 4}, 8},
		{"forward capped", ScoreInputs{ForwardIssues: 9, Accepted: 2, CodeCells: 4}, 4},
		{"hardcoded counted once", ScoreInputs{HardcodedPaths: 5, Accepted: 2, CodeCells: 4}, 8},
		{"everything", ScoreInputs{ForwardIssues: 4, HardcodedPaths: 1, NoFunctions: true, CodeCells: 4}, 0},
		{"no code", ScoreInputs{}, 7},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Readiness(tc.in))
		})
	}
}

func analyze(t *testing.T, sources ...string) *Report {
	t.Helper()
	nb := notebook.FromSources(heuristics.Default(), sources...)
	nb.Path = "demo.ipynb"
	res, err := pipeline.New(pipeline.Options{}).Run(context.Background(), nb)
	require.NoError(t, err)
	return Build(res)
}

func TestBuildListsOneHardcodedPathIssue(t *testing.T) {
	r := analyze(t,
		"#md # Load",
		"import pandas as pd",
		"df = pd.read_csv('/Users/a/data.csv')",
		"print(df.head())",
	)

	var paths []issues.Issue
	for _, issue := range r.Issues {
		if issue.Kind == issues.HardcodedPathDetected {
			paths = append(paths, issue)
		}
	}
	require.Len(t, paths, 1)
	assert.Equal(t, []int{2}, paths[0].Cells)
	assert.Empty(t, r.Candidates)
	assert.NotEmpty(t, r.Rejected)
	assert.Equal(t, "demo.ipynb", r.Notebook)
	assert.Len(t, r.Fingerprint, 16)
}

func TestBuildIsStable(t *testing.T) {
	sources := []string{"import numpy as np", "x = np.zeros(3)", "y = x * 2", "print(y)"}
	a := analyze(t, sources...)
	b := analyze(t, sources...)
	assert.Equal(t, a, b)

	c := analyze(t, append(sources, "print(x)")...)
	assert.NotEqual(t, a.Fingerprint, c.Fingerprint)
}

func TestRenderJSONAlwaysHasArrays(t *testing.T) {
	r := analyze(t, "a = 1")

	var buf bytes.Buffer
	require.NoError(t, RenderJSON(&buf, r))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	for _, key := range []string{"issues", "edges", "forward_edges", "central_cells", "candidates", "rejected"} {
		_, isArray := decoded[key].([]any)
		assert.True(t, isArray, "%s should be an array, got %T", key, decoded[key])
	}
	assert.EqualValues(t, r.Score, decoded["readiness_score"])
}

func TestRenderTextSections(t *testing.T) {
	r := analyze(t,
		"a = 1",
		"preds = model.predict(a)",
		"model = train(a)",
		"import pandas as pd\ndf = pd.DataFrame({'v': [1, 2]})",
		"summary = df.describe()",
		"print(summary)",
	)

	var buf bytes.Buffer
	require.NoError(t, RenderText(&buf, r, RenderOptions{ShowRejected: true, ShowEdges: true}))
	out := buf.String()

	assert.Contains(t, out, "demo.ipynb")
	assert.Contains(t, out, "Readiness")
	assert.Contains(t, out, "ForwardDependency cells 1-2")
	assert.Contains(t, out, "Rejected groupings")
	assert.Contains(t, out, "critical-issues")
	assert.Contains(t, out, "0 -> 1 a")
	assert.Contains(t, out, "3 -> 4 df")
	assert.False(t, strings.Contains(out, "CandidateRejected"), "rejections are listed in their own section")
}

func TestGrade(t *testing.T) {
	assert.Equal(t, "ready", Grade(8))
	assert.Equal(t, "needs work", Grade(5))
	assert.Equal(t, "not ready", Grade(4))
}
