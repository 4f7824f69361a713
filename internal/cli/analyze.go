package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/morozRed/nb2prod/internal/fileutil"
	"github.com/morozRed/nb2prod/internal/report"
)

// ErrBelowThreshold is returned when --fail-under is not met.
var ErrBelowThreshold = errors.New("readiness below threshold")

func RunAnalyze(cmd *cobra.Command, args []string) error {
	asJSON, err := OptionalBoolFlag(cmd, "json", false)
	if err != nil {
		return err
	}
	showEdges, err := OptionalBoolFlag(cmd, "edges", false)
	if err != nil {
		return err
	}
	showRejected, err := OptionalBoolFlag(cmd, "show-rejected", false)
	if err != nil {
		return err
	}
	failUnder, err := OptionalIntFlag(cmd, "fail-under", 0)
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

	out := cmd.OutOrStdout()
	var reports []*report.Report
	var below []string
	for _, o := range outcomes {
		if o.Report == nil {
			continue
		}
		if o.Report.Score < failUnder {
			below = append(below, fmt.Sprintf("%s=%d", o.Path, o.Report.Score))
		}
		if asJSON {
			reports = append(reports, o.Report)
			continue
		}
		if err := report.RenderText(out, o.Report, report.RenderOptions{ShowRejected: showRejected, ShowEdges: showEdges}); err != nil {
			return err
		}
	}
	if asJSON {
		if reports == nil {
			reports = []*report.Report{}
		}
		if err := fileutil.PrintJSON(out, reports); err != nil {
			return err
		}
	}

	if err := failures(outcomes); err != nil {
		return err
	}
	if len(below) > 0 {
		return fmt.Errorf("%w %d: %s", ErrBelowThreshold, failUnder, SummarizePaths(below, 5))
	}
	return nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
