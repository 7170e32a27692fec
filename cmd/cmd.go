// Package cmd defines the command-line interface for formpath.
package cmd

import (
	"github.com/huangsam/formpath/internal/contract"
	"github.com/huangsam/formpath/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	// Call initConfig on Cobra's initialization
	cobra.OnInitialize(initConfig)

	// Add primary subcommands to the root command
	rootCmd.AddCommand(fillCmd)
	rootCmd.AddCommand(editCmd)
	rootCmd.AddCommand(formsCmd)
	rootCmd.AddCommand(feedbackCmd)
	rootCmd.AddCommand(runsCmd)
	rootCmd.AddCommand(graphCmd)
	rootCmd.AddCommand(trackingCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(versionCmd)

	formsCmd.AddCommand(formsListCmd)
	formsCmd.AddCommand(formsShowCmd)
	formsCmd.AddCommand(formsRankCmd)
	formsCmd.AddCommand(formsDeleteCmd)
	formsCmd.AddCommand(formsStatsCmd)

	feedbackCmd.AddCommand(feedbackAddCmd)
	feedbackCmd.AddCommand(feedbackListCmd)

	runsCmd.AddCommand(runsExperimentsCmd)
	runsCmd.AddCommand(runsCompareCmd)
	runsCmd.AddCommand(runsExportCmd)
	runsCmd.AddCommand(runsShowCmd)

	graphCmd.AddCommand(graphImportCmd)
	graphCmd.AddCommand(graphStatusCmd)
	graphCmd.AddCommand(graphClearCmd)
	graphCmd.AddCommand(graphMigrateCmd)

	trackingCmd.AddCommand(trackingStatusCmd)
	trackingCmd.AddCommand(trackingMigrateCmd)

	// Bind all persistent flags of rootCmd to Viper
	rootCmd.PersistentFlags().String("config", "", "Path to config file")
	rootCmd.PersistentFlags().StringP("user", "u", "", "User who owns the forms")
	rootCmd.PersistentFlags().IntP("limit", "l", contract.DefaultResultLimit, "Number of ranked candidates to display")
	rootCmd.PersistentFlags().String("output", string(schema.TextOut), "Output format: text or csv or json or parquet")
	rootCmd.PersistentFlags().String("output-file", "", "Optional path to write output to")
	rootCmd.PersistentFlags().Int("precision", contract.DefaultPrecision, "Decimal precision for numeric columns")
	rootCmd.PersistentFlags().Int("width", 0, "Terminal width override (0 = auto-detect)")
	rootCmd.PersistentFlags().String("color", "yes", "Enable colored labels in output (yes/no/true/false/1/0)")
	rootCmd.PersistentFlags().Bool("accessible", false, "Use plain prompts instead of the interactive form UI")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Log debug details to stderr")
	rootCmd.PersistentFlags().String("profile", "", "Enable profiling and write profiles to files with this prefix")
	rootCmd.PersistentFlags().String("graph-backend", string(schema.GraphSQLite), "Graph backend: sqlite or mysql or postgresql or neo4j")
	rootCmd.PersistentFlags().String("graph-db-connect", "", "Graph connection string (neo4j://host:7687 for neo4j)")
	rootCmd.PersistentFlags().String("neo4j-user", "", "Neo4j user name")
	rootCmd.PersistentFlags().String("neo4j-password", "", "Neo4j password (prefer FORMPATH_NEO4J_PASSWORD)")
	rootCmd.PersistentFlags().String("root-question", contract.DefaultRootQuestion, "Id of the first question of the questionnaire")
	rootCmd.PersistentFlags().String("affirmative", schema.AffirmativeAnswer, "Answer text that hides restricted propositions")
	rootCmd.PersistentFlags().String("restriction-question", "", "Only this boolean question hides restricted propositions")
	rootCmd.PersistentFlags().String("tracking-backend", string(schema.TrackingSQLite), "Tracking backend: mlflow or sqlite or mysql or postgresql or none")
	rootCmd.PersistentFlags().String("tracking-uri", "", "MLflow tracking server URL")
	rootCmd.PersistentFlags().String("tracking-db-connect", "", "Database connection string for SQL tracking (must differ from graph-db-connect)")
	rootCmd.PersistentFlags().String("experiment-prefix", contract.DefaultPrefix, "Only consider experiments whose name starts with this prefix")
	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		contract.LogFatal("Error binding root flags", err)
	}

	// Subcommand flags are bound by sharedSetup for the running command only
	for _, c := range []*cobra.Command{fillCmd, editCmd} {
		c.Flags().String("answers", "", "YAML file with scripted answers instead of interactive prompts")
		c.Flags().Bool("track", false, "Record the answers and ranking as a run in the tracking backend")
	}
	editCmd.Flags().String("new-name", "", "Store the edited form under this name")

	for _, c := range []*cobra.Command{runsCompareCmd, runsExportCmd} {
		c.Flags().String("experiment", "", "Experiment id in the tracking backend")
		c.Flags().String("compare-metrics", "", "Comma-separated metrics to normalize (e.g. 'Accuracy,Duration')")
	}

	graphImportCmd.Flags().StringP("file", "f", "", "YAML questionnaire to import")

	for _, c := range []*cobra.Command{graphMigrateCmd, trackingMigrateCmd} {
		c.Flags().Int("target-version", -1, "Target migration version (-1 means latest, 0 means rollback to initial state)")
	}
}
