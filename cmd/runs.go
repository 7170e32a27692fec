package cmd

import (
	"github.com/huangsam/formpath/core"
	"github.com/spf13/cobra"
)

// runsCmd reads the tracking backend.
var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Compare tracked model runs.",
	Run: func(cmd *cobra.Command, _ []string) {
		_ = cmd.Help()
	},
}

var runsExperimentsCmd = &cobra.Command{
	Use:     "experiments",
	Short:   "List experiments, filtered by --experiment-prefix.",
	Args:    cobra.NoArgs,
	PreRunE: sharedSetupWrapper,
	RunE:    runExecutor(core.ExecuteExperiments),
}

var runsCompareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Normalize metrics across the runs of an experiment.",
	Long: `Scale each metric to [0,1] across the runs of one experiment. Lower-is-better
metrics are inverted first. The "Global score" metric divides the product of
higher-is-better values by the product of lower-is-better values before scaling.
With exactly two metrics the Pareto front is marked too.

Examples:
  formpath runs compare --experiment 12 --compare-metrics Accuracy,Duration
  formpath runs compare --experiment 12 --compare-metrics "Accuracy,F1-score,Global score" --output csv`,
	Args:    cobra.NoArgs,
	PreRunE: sharedSetupWrapper,
	RunE:    runExecutor(core.ExecuteCompare),
}

var runsExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the runs of an experiment to Parquet files.",
	Long: `Write <output-file>.runs.parquet and <output-file>.metrics.parquet. Metric rows carry
normalized values when --compare-metrics is given.`,
	Args:    cobra.NoArgs,
	PreRunE: sharedSetupWrapper,
	RunE:    runExecutor(core.ExecuteExport),
}

var runsShowCmd = &cobra.Command{
	Use:     "show <run-id>",
	Short:   "Show the metrics, params and artifacts of one run.",
	Args:    cobra.ExactArgs(1),
	PreRunE: runArgSetup,
	RunE:    runExecutor(core.ExecuteRunShow),
}
