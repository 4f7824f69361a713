package config

import (
	"fmt"
	"os"
	"slices"
	"strings"
)

// ValidationError represents a single validation failure
type ValidationError struct {
	Field   string // config key, e.g. "analysis.dead_code_ratio"
	Value   any
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%d validation errors:\n", len(e))
	for i, err := range e {
		fmt.Fprintf(&sb, "  %d. %s\n", i+1, err.Error())
	}
	return sb.String()
}

// ValidLogLevels returns the accepted logging.level values
func ValidLogLevels() []string {
	return []string{"debug", "info", "warn", "error"}
}

// ValidLogFormats returns the accepted logging.format values
func ValidLogFormats() []string {
	return []string{"text", "json"}
}

// Validate checks the Config for invalid values and returns every problem found
func (c *Config) Validate() []ValidationError {
	var errs []ValidationError
	errs = append(errs, c.validateAnalysis()...)
	errs = append(errs, c.validateHeuristics()...)
	errs = append(errs, c.validateLogging()...)

	if c.Workers < 1 {
		errs = append(errs, ValidationError{Field: "workers", Value: c.Workers, Message: "must be at least 1"})
	}
	return errs
}

func (c *Config) validateAnalysis() []ValidationError {
	var errs []ValidationError
	a := c.Analysis

	if a.MaxCellsPerFunction < 1 {
		errs = append(errs, ValidationError{
			Field:   "analysis.max_cells_per_function",
			Value:   a.MaxCellsPerFunction,
			Message: "must be at least 1",
		})
	}
	if a.DeadCodeRatio <= 0 || a.DeadCodeRatio > 1 {
		errs = append(errs, ValidationError{
			Field:   "analysis.dead_code_ratio",
			Value:   a.DeadCodeRatio,
			Message: "must be in (0, 1]",
		})
	}
	if a.Educational.NarrativeRatio < 0 || a.Educational.NarrativeRatio >= 1 {
		errs = append(errs, ValidationError{
			Field:   "analysis.educational.narrative_ratio",
			Value:   a.Educational.NarrativeRatio,
			Message: "must be in [0, 1)",
		})
	}
	if a.Educational.MinNumberedVariants < 2 {
		errs = append(errs, ValidationError{
			Field:   "analysis.educational.min_numbered_variants",
			Value:   a.Educational.MinNumberedVariants,
			Message: "must be at least 2",
		})
	}
	if a.Educational.MinRebindingCells < 2 {
		errs = append(errs, ValidationError{
			Field:   "analysis.educational.min_rebinding_cells",
			Value:   a.Educational.MinRebindingCells,
			Message: "must be at least 2",
		})
	}
	return errs
}

func (c *Config) validateHeuristics() []ValidationError {
	if c.Heuristics.File == "" {
		return nil
	}
	if _, err := os.Stat(c.Heuristics.File); err != nil {
		return []ValidationError{{Field: "heuristics.file", Value: c.Heuristics.File, Message: "file not readable"}}
	}
	return nil
}

func (c *Config) validateLogging() []ValidationError {
	var errs []ValidationError
	if !slices.Contains(ValidLogLevels(), strings.ToLower(c.Logging.Level)) {
		errs = append(errs, ValidationError{
			Field:   "logging.level",
			Value:   c.Logging.Level,
			Message: "must be one of " + strings.Join(ValidLogLevels(), ", "),
		})
	}
	if !slices.Contains(ValidLogFormats(), strings.ToLower(c.Logging.Format)) {
		errs = append(errs, ValidationError{
			Field:   "logging.format",
			Value:   c.Logging.Format,
			Message: "must be one of " + strings.Join(ValidLogFormats(), ", "),
		})
	}
	return errs
}
