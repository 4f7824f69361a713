package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func NewRootCommand(version string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "nb2prod",
		Short: "Find the functions hiding in a Jupyter notebook",
		Long: `nb2prod reads a notebook's code cells, works out which cells feed
which, and proposes the groups of cells that can become functions, with
inferred parameters, return values and type hints.

It also reports what stands between the notebook and production code:
cells that read names defined further down, hardcoded paths, and a 0-10
readiness score.`,
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().String("config", "", "Config file (default: ./config.yaml or $XDG_CONFIG_HOME/nb2prod/config.yaml)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Log pipeline stages at debug level")

	analyzeCmd := &cobra.Command{
		Use:   "analyze <notebook|dir>...",
		Short: "Report issues, the cell dependency graph and a readiness score",
		Args:  cobra.MinimumNArgs(1),
		RunE:  RunAnalyze,
	}
	analyzeCmd.Flags().Bool("json", false, "Print machine-readable reports")
	analyzeCmd.Flags().Bool("edges", false, "List every dependency edge")
	analyzeCmd.Flags().Bool("show-rejected", false, "List each rejected grouping with its rule")
	analyzeCmd.Flags().Int("fail-under", 0, "Exit non-zero when any notebook scores below this")

	extractCmd := &cobra.Command{
		Use:   "extract <notebook|dir>...",
		Short: "List the function candidates that passed validation",
		Args:  cobra.MinimumNArgs(1),
		RunE:  RunExtract,
	}
	extractCmd.Flags().Bool("json", false, "Print candidates and the run summary as JSON")
	extractCmd.Flags().StringP("out", "o", "", "Write candidates to this JSONL file")
	extractCmd.Flags().Bool("show-rejected", false, "Also print rejected groupings")

	doctorCmd := &cobra.Command{
		Use:   "doctor",
		Short: "Validate configuration and heuristic tables",
		Args:  cobra.NoArgs,
		RunE:  RunDoctor,
	}
	doctorCmd.Flags().Bool("json", false, "Print machine-readable doctor output")

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "nb2prod %s\n", version)
		},
	}

	rootCmd.AddCommand(
		analyzeCmd,
		extractCmd,
		doctorCmd,
		versionCmd,
	)

	return rootCmd
}
