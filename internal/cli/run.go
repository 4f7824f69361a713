package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/sourcegraph/conc/pool"
	"github.com/spf13/cobra"

	"github.com/morozRed/nb2prod/internal/config"
	"github.com/morozRed/nb2prod/internal/discover"
	"github.com/morozRed/nb2prod/internal/heuristics"
	"github.com/morozRed/nb2prod/internal/logging"
	"github.com/morozRed/nb2prod/internal/notebook"
	"github.com/morozRed/nb2prod/internal/pipeline"
	"github.com/morozRed/nb2prod/internal/report"
	"github.com/morozRed/nb2prod/internal/validate"
)

// environment is what every command needs after configuration is resolved.
type environment struct {
	cfg    *config.Config
	logger *logging.Logger
	tables *heuristics.Tables
}

func loadEnvironment(cmd *cobra.Command) (*environment, error) {
	cfgFile, err := OptionalStringFlag(cmd, "config")
	if err != nil {
		return nil, err
	}
	if err := config.Init(cfgFile); err != nil {
		return nil, err
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	verbose, err := OptionalBoolFlag(cmd, "verbose", false)
	if err != nil {
		return nil, err
	}
	level := cfg.Logging.Level
	if verbose {
		level = logging.LevelDebug
	}
	logger := logging.New(cmd.ErrOrStderr(), level, cfg.Logging.Format)

	tables, err := heuristics.LoadFile(cfg.Heuristics.File)
	if err != nil {
		return nil, err
	}
	return &environment{cfg: cfg, logger: logger, tables: tables}, nil
}

// pipelineOptions builds options for one worker. The registry is left nil
// so each pipeline gets its own tree-sitter parser.
func (e *environment) pipelineOptions() pipeline.Options {
	a := e.cfg.Analysis
	return pipeline.Options{
		Tables:        e.tables,
		MaxCells:      a.MaxCellsPerFunction,
		DeadCodeRatio: a.DeadCodeRatio,
		Educational: validate.EducationalOptions{
			NarrativeRatio:      a.Educational.NarrativeRatio,
			MinNumberedVariants: a.Educational.MinNumberedVariants,
			MinRebindingCells:   a.Educational.MinRebindingCells,
			TutorialNames:       a.Educational.TutorialNames,
		},
		Logger: e.logger,
	}
}

// outcome is the result for one notebook, kept in argument order.
type outcome struct {
	Path   string
	Result *pipeline.Result
	Report *report.Report
	Err    error
}

// analyzeNotebooks resolves args and runs the pipeline over every notebook
// on a bounded worker pool. Per-notebook failures are kept in the outcome.
func analyzeNotebooks(ctx context.Context, env *environment, args []string, progressOut io.Writer, quiet bool) ([]outcome, error) {
	paths, err := discover.Notebooks(args)
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no notebooks found in %s", SummarizePaths(args, 3))
	}

	outcomes := make([]outcome, len(paths))
	progress := newProgressReporter(progressOut, "analyze", len(paths), quiet)
	p := pool.New().WithMaxGoroutines(max(1, env.cfg.Workers))
	for i, path := range paths {
		i, path := i, path
		p.Go(func() {
			defer progress.Finished(path)
			outcomes[i] = analyzeOne(ctx, env, path)
		})
	}
	p.Wait()
	progress.Done()

	if err := ctx.Err(); err != nil {
		return outcomes, err
	}
	return outcomes, nil
}

func analyzeOne(ctx context.Context, env *environment, path string) outcome {
	out := outcome{Path: path}
	nb, err := notebook.Load(path, env.tables)
	if err != nil {
		env.logger.WithNotebook(path).Error("failed to load notebook", "error", err)
		out.Err = err
		return out
	}
	res, err := pipeline.New(env.pipelineOptions()).Run(ctx, nb)
	if err != nil {
		env.logger.WithNotebook(path).Error("analysis failed", "error", err)
		out.Err = err
		return out
	}
	out.Result = res
	out.Report = report.Build(res)
	return out
}

// failures joins the per-notebook errors, or returns nil.
func failures(outcomes []outcome) error {
	var errs []error
	for _, o := range outcomes {
		if o.Err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", o.Path, o.Err))
		}
	}
	return errors.Join(errs...)
}
