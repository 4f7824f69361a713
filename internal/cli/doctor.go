package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/morozRed/nb2prod/internal/config"
	"github.com/morozRed/nb2prod/internal/discover"
	"github.com/morozRed/nb2prod/internal/fileutil"
	"github.com/morozRed/nb2prod/internal/heuristics"
	"github.com/morozRed/nb2prod/internal/languages"
)

// DoctorSummary is the result of checking the local setup.
type DoctorSummary struct {
	Mode           string   `json:"mode"`
	Healthy        bool     `json:"healthy"`
	ConfigFile     string   `json:"config_file,omitempty"`
	HeuristicsFile string   `json:"heuristics_file,omitempty"`
	Languages      []string `json:"languages"`
	IgnoreRules    int      `json:"ignore_rules"`
	Workers        int      `json:"workers"`
	Problems       []string `json:"problems,omitempty"`
	Suggestions    []string `json:"suggestions,omitempty"`
}

func RunDoctor(cmd *cobra.Command, args []string) error {
	asJSON, err := OptionalBoolFlag(cmd, "json", false)
	if err != nil {
		return err
	}
	cfgFile, err := OptionalStringFlag(cmd, "config")
	if err != nil {
		return err
	}

	summary := DoctorSummary{
		Mode:      "doctor",
		Languages: languages.NewDefaultRegistry().Languages(),
	}

	if err := config.Init(cfgFile); err != nil {
		summary.Problems = append(summary.Problems, err.Error())
		summary.Suggestions = append(summary.Suggestions, "fix or remove the config file")
	} else {
		summary.ConfigFile = viper.ConfigFileUsed()
		cfg, err := config.Load()
		var verrs config.ValidationErrors
		switch {
		case errors.As(err, &verrs):
			for _, v := range verrs {
				summary.Problems = append(summary.Problems, v.Error())
			}
			summary.Suggestions = append(summary.Suggestions, "fix the listed keys in the config file or the NB2PROD_* environment")
		case err != nil:
			summary.Problems = append(summary.Problems, err.Error())
		default:
			summary.Workers = cfg.Workers
			summary.HeuristicsFile = cfg.Heuristics.File
			if _, err := heuristics.LoadFile(cfg.Heuristics.File); err != nil {
				summary.Problems = append(summary.Problems, err.Error())
				summary.Suggestions = append(summary.Suggestions, "check the heuristics file against the built-in table layout")
			}
		}
	}
	if summary.ConfigFile == "" {
		summary.Suggestions = append(summary.Suggestions, "optional: create "+config.ConfigFile()+" to tune thresholds")
	}

	wd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to resolve working directory: %w", err)
	}
	rules, err := discover.LoadIgnoreRules(wd)
	if err != nil {
		summary.Problems = append(summary.Problems, err.Error())
	}
	summary.IgnoreRules = len(rules)

	summary.Healthy = len(summary.Problems) == 0

	out := cmd.OutOrStdout()
	if asJSON {
		return fileutil.PrintJSON(out, summary)
	}

	status := "issues"
	if summary.Healthy {
		status = "ok"
	}
	fmt.Fprintf(out, "doctor: %s\n", status)
	configFile := summary.ConfigFile
	if configFile == "" {
		configFile = "(defaults)"
	}
	fmt.Fprintf(out, "config: %s\n", configFile)
	if summary.HeuristicsFile != "" {
		fmt.Fprintf(out, "heuristics: %s\n", filepath.Clean(summary.HeuristicsFile))
	}
	fmt.Fprintf(out, "languages: %s\n", strings.Join(summary.Languages, ", "))
	fmt.Fprintf(out, "ignore rules: %d (%s)\n", summary.IgnoreRules, discover.IgnoreFile)
	for _, problem := range summary.Problems {
		fmt.Fprintf(out, "problem: %s\n", problem)
	}
	for _, suggestion := range summary.Suggestions {
		fmt.Fprintf(out, "next: %s\n", suggestion)
	}
	return nil
}
