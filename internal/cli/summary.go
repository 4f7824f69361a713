package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/morozRed/nb2prod/internal/fileutil"
)

// ExtractSummary describes one extract run across all notebooks.
type ExtractSummary struct {
	Mode       string   `json:"mode"`
	Notebooks  int      `json:"notebooks"`
	Failed     int      `json:"failed"`
	Refused    int      `json:"refused"`
	Candidates int      `json:"candidates"`
	Rejected   int      `json:"rejected"`
	OutputFile string   `json:"output_file,omitempty"`
	Written    bool     `json:"written"`
	DurationMS int64    `json:"duration_ms"`
	Errors     []string `json:"errors,omitempty"`
}

func PrintExtractSummary(w io.Writer, summary ExtractSummary, asJSON bool) error {
	if asJSON {
		return fileutil.PrintJSON(w, summary)
	}

	fmt.Fprintf(w,
		"%s: notebooks=%d failed=%d refused=%d candidates=%d rejected=%d duration=%dms\n",
		summary.Mode,
		summary.Notebooks,
		summary.Failed,
		summary.Refused,
		summary.Candidates,
		summary.Rejected,
		summary.DurationMS,
	)
	if summary.OutputFile != "" {
		state := "unchanged"
		if summary.Written {
			state = "written"
		}
		fmt.Fprintf(w, "output: %s (%s)\n", summary.OutputFile, state)
	}
	if len(summary.Errors) > 0 {
		fmt.Fprintf(w, "errors (%d): %s\n", len(summary.Errors), SummarizePaths(summary.Errors, 4))
	}
	return nil
}

func SummarizePaths(paths []string, limit int) string {
	if len(paths) <= limit {
		return strings.Join(paths, ", ")
	}
	return fmt.Sprintf("%s ... (+%d more)", strings.Join(paths[:limit], ", "), len(paths)-limit)
}
