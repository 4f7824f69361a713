package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/viper"

	"github.com/morozRed/nb2prod/internal/fileutil"
	"github.com/morozRed/nb2prod/internal/notebook"
)

func TestAnalyzeJSONReportsScoreAndIssues(t *testing.T) {
	root := t.TempDir()
	writeNotebook(t, filepath.Join(root, "paths.ipynb"),
		"#md # Load",
		"import pandas as pd",
		"df = pd.read_csv('/Users/a/data.csv')",
		"print(df.head())",
	)

	withWorkingDir(t, root, func() {
		stdout, _, err := runCLI(t, "analyze", "--json", "paths.ipynb")
		if err != nil {
			t.Fatalf("analyze failed: %v", err)
		}

		var reports []map[string]any
		if err := json.Unmarshal([]byte(stdout), &reports); err != nil {
			t.Fatalf("expected JSON array, got %q: %v", stdout, err)
		}
		if len(reports) != 1 {
			t.Fatalf("expected one report, got %d", len(reports))
		}
		r := reports[0]
		if r["notebook"] != "paths.ipynb" {
			t.Fatalf("unexpected notebook path: %v", r["notebook"])
		}
		score, ok := r["readiness_score"].(float64)
		if !ok || score >= 10 {
			t.Fatalf("expected a penalized score, got %v", r["readiness_score"])
		}

		hardcoded := 0
		for _, raw := range r["issues"].([]any) {
			issue := raw.(map[string]any)
			if issue["kind"] == "HardcodedPathDetected" {
				hardcoded++
			}
		}
		if hardcoded != 1 {
			t.Fatalf("expected exactly one hardcoded path issue, got %d", hardcoded)
		}
	})
}

func TestAnalyzeFailUnder(t *testing.T) {
	root := t.TempDir()
	writeNotebook(t, filepath.Join(root, "order.ipynb"),
		"a = 1",
		"preds = model.predict(a)",
		"model = train(a)",
	)

	withWorkingDir(t, root, func() {
		stdout, _, err := runCLI(t, "analyze", "--fail-under", "10", "--show-rejected", "order.ipynb")
		if !errors.Is(err, ErrBelowThreshold) {
			t.Fatalf("expected ErrBelowThreshold, got %v", err)
		}
		for _, expected := range []string{"order.ipynb", "Readiness", "ForwardDependency", "critical-issues"} {
			if !strings.Contains(stdout, expected) {
				t.Fatalf("expected output to contain %q, got:\n%s", expected, stdout)
			}
		}

		if _, _, err := runCLI(t, "analyze", "order.ipynb"); err != nil {
			t.Fatalf("expected success without --fail-under, got %v", err)
		}
	})
}

func TestExtractWritesJSONLDeterministically(t *testing.T) {
	root := t.TempDir()
	writeNotebook(t, filepath.Join(root, "nbs", "a.ipynb"),
		"import numpy as np",
		"x = np.zeros(3)",
		"y = x * 2",
		"#md ## Show",
		"print(y)",
	)
	writeNotebook(t, filepath.Join(root, "nbs", "b.ipynb"), "x = 1", "y = x + 1")
	writeNotebook(t, filepath.Join(root, "nbs", ".ipynb_checkpoints", "a-checkpoint.ipynb"), "x = 1", "y = x + 1")

	withWorkingDir(t, root, func() {
		stdout, _, err := runCLI(t, "extract", "--json", "--out", "out/candidates.jsonl", "nbs")
		if err != nil {
			t.Fatalf("extract failed: %v", err)
		}
		var first extractOutput
		if err := json.Unmarshal([]byte(stdout), &first); err != nil {
			t.Fatalf("expected JSON output, got %q: %v", stdout, err)
		}
		if first.Summary.Notebooks != 2 || first.Summary.Candidates != 3 || !first.Summary.Written {
			t.Fatalf("unexpected summary: %+v", first.Summary)
		}

		f, err := os.Open(filepath.Join(root, "out", "candidates.jsonl"))
		if err != nil {
			t.Fatalf("missing export: %v", err)
		}
		records, err := fileutil.DecodeJSONL[CandidateRecord](f)
		f.Close()
		if err != nil {
			t.Fatalf("decode export: %v", err)
		}
		var names []string
		for _, r := range records {
			names = append(names, filepath.Base(r.Notebook)+":"+r.Name)
		}
		want := []string{"a.ipynb:process_data", "a.ipynb:process_data_2", "b.ipynb:process_data"}
		if strings.Join(names, ",") != strings.Join(want, ",") {
			t.Fatalf("unexpected records %v, want %v", names, want)
		}
		if len(records[1].Parameters) != 1 || records[1].Parameters[0].Name != "y" {
			t.Fatalf("expected print cell to take y, got %+v", records[1].Parameters)
		}

		stdout, _, err = runCLI(t, "extract", "--json", "--out", "out/candidates.jsonl", "nbs")
		if err != nil {
			t.Fatalf("second extract failed: %v", err)
		}
		var second extractOutput
		if err := json.Unmarshal([]byte(stdout), &second); err != nil {
			t.Fatalf("expected JSON output: %v", err)
		}
		if second.Summary.Written {
			t.Fatalf("expected identical export to be left untouched")
		}
	})
}

func TestExtractRefusesEducationalNotebook(t *testing.T) {
	root := t.TempDir()
	var cells []string
	for i := 1; i <= 4; i++ {
		cells = append(cells, "#md Explain step", "#md More explanation")
		cells = append(cells, "x"+string(rune('0'+i))+" = "+string(rune('0'+i)))
	}
	writeNotebook(t, filepath.Join(root, "lesson.ipynb"), cells...)

	withWorkingDir(t, root, func() {
		stdout, _, err := runCLI(t, "extract", "lesson.ipynb")
		if err != nil {
			t.Fatalf("extract failed: %v", err)
		}
		if !strings.Contains(stdout, "refused:") || !strings.Contains(stdout, "candidates=0") || !strings.Contains(stdout, "refused=1") {
			t.Fatalf("expected refusal, got:\n%s", stdout)
		}
	})
}

func TestExtractReportsParseFailures(t *testing.T) {
	root := t.TempDir()
	mustWriteFile(t, filepath.Join(root, "broken.ipynb"), "{not json")
	writeNotebook(t, filepath.Join(root, "ok.ipynb"), "x = 1", "y = x + 1")

	withWorkingDir(t, root, func() {
		stdout, _, err := runCLI(t, "extract", "broken.ipynb", "ok.ipynb")
		if !errors.Is(err, notebook.ErrParseFailure) {
			t.Fatalf("expected parse failure, got %v", err)
		}
		if !strings.Contains(stdout, "failed=1") || !strings.Contains(stdout, "candidates=1") {
			t.Fatalf("expected the healthy notebook to still be extracted, got:\n%s", stdout)
		}
	})
}

func TestConfigControlsGroupingSize(t *testing.T) {
	root := t.TempDir()
	writeNotebook(t, filepath.Join(root, "chain.ipynb"), "x = 1", "y = x + 1")
	mustWriteFile(t, filepath.Join(root, "small.yaml"), "analysis:\n  max_cells_per_function: 1\n")

	withWorkingDir(t, root, func() {
		stdout, _, err := runCLI(t, "extract", "--json", "chain.ipynb")
		if err != nil {
			t.Fatalf("extract failed: %v", err)
		}
		var def extractOutput
		if err := json.Unmarshal([]byte(stdout), &def); err != nil {
			t.Fatalf("bad JSON: %v", err)
		}

		stdout, _, err = runCLI(t, "--config", "small.yaml", "extract", "--json", "chain.ipynb")
		if err != nil {
			t.Fatalf("extract with config failed: %v", err)
		}
		var small extractOutput
		if err := json.Unmarshal([]byte(stdout), &small); err != nil {
			t.Fatalf("bad JSON: %v", err)
		}

		if def.Summary.Candidates != 1 || small.Summary.Candidates != 2 {
			t.Fatalf("expected 1 candidate by default and 2 with max 1 cell, got %d and %d",
				def.Summary.Candidates, small.Summary.Candidates)
		}
	})
}

func TestDoctorFlagsInvalidConfig(t *testing.T) {
	root := t.TempDir()
	mustWriteFile(t, filepath.Join(root, "bad.yaml"), "analysis:\n  dead_code_ratio: 2\n")

	withWorkingDir(t, root, func() {
		stdout, _, err := runCLI(t, "doctor", "--json", "--config", "bad.yaml")
		if err != nil {
			t.Fatalf("doctor failed: %v", err)
		}
		var summary DoctorSummary
		if err := json.Unmarshal([]byte(stdout), &summary); err != nil {
			t.Fatalf("bad JSON %q: %v", stdout, err)
		}
		if summary.Healthy || len(summary.Problems) != 1 || !strings.Contains(summary.Problems[0], "analysis.dead_code_ratio") {
			t.Fatalf("expected one dead_code_ratio problem, got %+v", summary)
		}
		if !containsString(summary.Languages, "python") {
			t.Fatalf("expected python among languages, got %v", summary.Languages)
		}

		stdout, _, err = runCLI(t, "doctor")
		if err != nil {
			t.Fatalf("doctor failed: %v", err)
		}
		if !strings.Contains(stdout, "doctor: ok") {
			t.Fatalf("expected healthy defaults, got:\n%s", stdout)
		}
	})
}

func TestVersionCommand(t *testing.T) {
	stdout, _, err := runCLI(t, "version")
	if err != nil {
		t.Fatalf("version failed: %v", err)
	}
	if stdout != "nb2prod test\n" {
		t.Fatalf("unexpected version output %q", stdout)
	}
}

func TestAnalyzeRequiresNotebooks(t *testing.T) {
	root := t.TempDir()
	withWorkingDir(t, root, func() {
		if _, _, err := runCLI(t, "analyze", "."); err == nil || !strings.Contains(err.Error(), "no notebooks found") {
			t.Fatalf("expected no notebooks error, got %v", err)
		}
	})
}

func runCLI(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	var stdout, stderr bytes.Buffer
	cmd := NewRootCommand("test")
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

// writeNotebook writes an nbformat 4 notebook. Sources starting with "#md "
// become markdown cells.
func writeNotebook(t *testing.T, path string, sources ...string) {
	t.Helper()
	type cell struct {
		CellType string   `json:"cell_type"`
		Metadata struct{} `json:"metadata"`
		Source   string   `json:"source"`
	}
	cells := make([]cell, 0, len(sources))
	for _, src := range sources {
		if rest, ok := strings.CutPrefix(src, "#md "); ok {
			cells = append(cells, cell{CellType: "markdown", Source: rest})
			continue
		}
		cells = append(cells, cell{CellType: "code", Source: src})
	}
	data, err := json.Marshal(map[string]any{
		"nbformat":       4,
		"nbformat_minor": 5,
		"metadata":       map[string]any{"kernelspec": map[string]any{"language": "python"}},
		"cells":          cells,
	})
	if err != nil {
		t.Fatalf("marshal notebook: %v", err)
	}
	mustWriteFile(t, path, string(data))
}

func withWorkingDir(t *testing.T, dir string, fn func()) {
	t.Helper()

	originalWD, err := os.Getwd()
	if err != nil {
		t.Fatalf("failed to get cwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("failed to chdir: %v", err)
	}
	defer func() {
		_ = os.Chdir(originalWD)
	}()

	fn()
}

func containsString(values []string, target string) bool {
	for _, value := range values {
		if value == target {
			return true
		}
	}
	return false
}

func mustWriteFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("failed to create directory %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write file %s: %v", path, err)
	}
}
