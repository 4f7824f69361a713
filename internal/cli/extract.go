package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/morozRed/nb2prod/internal/fileutil"
	"github.com/morozRed/nb2prod/internal/issues"
	"github.com/morozRed/nb2prod/internal/signature"
	"github.com/morozRed/nb2prod/internal/validate"
)

// CandidateRecord is one line of the JSONL export: a candidate tagged with
// the notebook it came from.
type CandidateRecord struct {
	Notebook string `json:"notebook"`
	signature.FunctionCandidate
}

// NotebookExtraction is the per-notebook JSON output of extract.
type NotebookExtraction struct {
	Notebook   string                        `json:"notebook"`
	Refused    *issues.Issue                 `json:"refused,omitempty"`
	Candidates []signature.FunctionCandidate `json:"candidates"`
	Rejected   []validate.Verdict            `json:"rejected,omitempty"`
	Error      string                        `json:"error,omitempty"`
}

type extractOutput struct {
	Notebooks []NotebookExtraction `json:"notebooks"`
	Summary   ExtractSummary       `json:"summary"`
}

func RunExtract(cmd *cobra.Command, args []string) error {
	start := time.Now()
	asJSON, err := OptionalBoolFlag(cmd, "json", false)
	if err != nil {
		return err
	}
	outFile, err := OptionalStringFlag(cmd, "out")
	if err != nil {
		return err
	}
	showRejected, err := OptionalBoolFlag(cmd, "show-rejected", false)
	if err != nil {
		return err
	}

	env, err := loadEnvironment(cmd)
	if err != nil {
		return err
	}
	outcomes, err := analyzeNotebooks(commandContext(cmd), env, args, cmd.ErrOrStderr(), asJSON)
	if err != nil {
		return err
	}

	summary := ExtractSummary{Mode: "extract", Notebooks: len(outcomes), OutputFile: outFile}
	var records []CandidateRecord
	extractions := make([]NotebookExtraction, 0, len(outcomes))
	for _, o := range outcomes {
		ex := NotebookExtraction{Notebook: o.Path, Candidates: []signature.FunctionCandidate{}}
		if o.Err != nil {
			summary.Failed++
			summary.Errors = append(summary.Errors, fmt.Sprintf("%s: %v", o.Path, o.Err))
			ex.Error = o.Err.Error()
			extractions = append(extractions, ex)
			continue
		}
		res := o.Result
		if refused := res.Issues.ByKind(issues.EducationalNotebookDetected); len(refused) > 0 {
			summary.Refused++
			ex.Refused = &refused[0]
		}
		if res.Candidates != nil {
			ex.Candidates = res.Candidates
		}
		ex.Rejected = res.Rejected()
		summary.Candidates += len(res.Candidates)
		summary.Rejected += len(ex.Rejected)
		for _, c := range res.Candidates {
			records = append(records, CandidateRecord{Notebook: o.Path, FunctionCandidate: c})
		}
		if !showRejected {
			ex.Rejected = nil
		}
		extractions = append(extractions, ex)
	}

	if outFile != "" {
		data, err := fileutil.EncodeJSONL(records)
		if err != nil {
			return err
		}
		written, err := fileutil.WriteIfChanged(outFile, data)
		if err != nil {
			return fmt.Errorf("failed to write %s: %w", outFile, err)
		}
		summary.Written = written
	}
	summary.DurationMS = time.Since(start).Milliseconds()

	out := cmd.OutOrStdout()
	if asJSON {
		if err := fileutil.PrintJSON(out, extractOutput{Notebooks: extractions, Summary: summary}); err != nil {
			return err
		}
	} else {
		printExtractions(out, extractions)
		if err := PrintExtractSummary(out, summary, false); err != nil {
			return err
		}
	}
	return failures(outcomes)
}

func printExtractions(w io.Writer, extractions []NotebookExtraction) {
	for _, ex := range extractions {
		fmt.Fprintf(w, "%s\n", ex.Notebook)
		switch {
		case ex.Error != "":
			fmt.Fprintf(w, "  error: %s\n", ex.Error)
		case ex.Refused != nil:
			fmt.Fprintf(w, "  refused: %s\n", ex.Refused.Detail)
		case len(ex.Candidates) == 0:
			fmt.Fprintln(w, "  no candidates")
		}
		for _, c := range ex.Candidates {
			fmt.Fprintf(w, "  %s  # cells %s\n", c.Signature(), issues.FormatCells(c.Cells))
			for _, imp := range c.Imports {
				fmt.Fprintf(w, "      needs %s\n", imp)
			}
		}
		for _, v := range ex.Rejected {
			fmt.Fprintf(w, "  rejected cells %s: %s (%s)\n", issues.FormatCells(v.Cells), v.Rule, v.Detail)
		}
	}
}
