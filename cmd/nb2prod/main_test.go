package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"

	"github.com/morozRed/nb2prod/internal/cli"
	"github.com/morozRed/nb2prod/internal/fileutil"
)

func fixture(t *testing.T, rel string) string {
	t.Helper()
	path, err := filepath.Abs(filepath.Join("..", "..", "fixtures", rel))
	if err != nil {
		t.Fatalf("resolve fixture: %v", err)
	}
	return path
}

func execute(t *testing.T, args ...string) string {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	var stdout bytes.Buffer
	cmd := cli.NewRootCommand("test")
	cmd.SetOut(&stdout)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	if err := cmd.Execute(); err != nil {
		t.Fatalf("nb2prod %v failed: %v\n%s", args, err, stdout.String())
	}
	return stdout.String()
}

func TestAnalyzeIrisFixture(t *testing.T) {
	out := execute(t, "analyze", "--json", fixture(t, "notebooks/iris.ipynb"))

	var reports []struct {
		Score        int               `json:"readiness_score"`
		ForwardEdges []json.RawMessage `json:"forward_edges"`
		Candidates   []json.RawMessage `json:"candidates"`
		Issues       []struct {
			Kind string `json:"kind"`
		} `json:"issues"`
	}
	if err := json.Unmarshal([]byte(out), &reports); err != nil {
		t.Fatalf("bad JSON: %v\n%s", err, out)
	}
	if len(reports) != 1 {
		t.Fatalf("expected one report, got %d", len(reports))
	}
	r := reports[0]
	if len(r.ForwardEdges) != 0 {
		t.Fatalf("expected clean execution order, got %d forward edges", len(r.ForwardEdges))
	}
	if len(r.Candidates) < 2 {
		t.Fatalf("expected at least two candidates, got %d", len(r.Candidates))
	}
	for _, issue := range r.Issues {
		if issue.Kind == "HardcodedPathDetected" {
			t.Fatalf("relative data path must not count as hardcoded")
		}
	}
}

func TestExtractIrisWithProjectHeuristics(t *testing.T) {
	dir := t.TempDir()
	cfg := filepath.Join(dir, "config.yaml")
	body := "heuristics:\n  file: " + fixture(t, "heuristics.yaml") + "\n"
	if err := os.WriteFile(cfg, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	outFile := filepath.Join(dir, "candidates.jsonl")

	execute(t, "--config", cfg, "extract", "--out", outFile, fixture(t, "notebooks/iris.ipynb"))

	f, err := os.Open(outFile)
	if err != nil {
		t.Fatalf("missing export: %v", err)
	}
	defer f.Close()
	records, err := fileutil.DecodeJSONL[cli.CandidateRecord](f)
	if err != nil {
		t.Fatalf("decode export: %v", err)
	}

	names := make(map[string]cli.CandidateRecord)
	for _, r := range records {
		names[r.Name] = r
	}
	load, ok := names["load_iris"]
	if !ok {
		t.Fatalf("expected load_iris from project tables, got %v", records)
	}
	if len(load.Returns) != 1 || load.Returns[0].Name != "df" {
		t.Fatalf("expected load_iris to return df, got %+v", load.Returns)
	}
	if _, ok := names["fit_classifier"]; !ok {
		t.Fatalf("expected fit_classifier from project tables, got %v", records)
	}
}
