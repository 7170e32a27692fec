package cmd

import (
	"github.com/huangsam/formpath/core"
	"github.com/spf13/cobra"
)

// graphCmd manages the questionnaire graph store.
var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Manage the questionnaire graph store.",
	Long: `Manage the store holding the questionnaire and the stored forms.

Supported backends: SQLite (default), MySQL, PostgreSQL or Neo4j.`,
	Run: func(cmd *cobra.Command, _ []string) {
		_ = cmd.Help()
	},
}

var graphImportCmd = &cobra.Command{
	Use:   "import",
	Short: "Import a YAML questionnaire.",
	Long: `Check and import a questionnaire. Importing the same file twice is harmless.

Example:
  formpath graph import --file examples/questionnaire.yaml`,
	Args:    cobra.NoArgs,
	PreRunE: sharedSetupWrapper,
	RunE:    runExecutor(core.ExecuteGraphImport),
}

var graphStatusCmd = &cobra.Command{
	Use:     "status",
	Short:   "Show graph store status.",
	Args:    cobra.NoArgs,
	PreRunE: sharedSetupWrapper,
	RunE:    runExecutor(core.ExecuteGraphStatus),
}

var graphClearCmd = &cobra.Command{
	Use:     "clear",
	Short:   "Delete the questionnaire and every stored form.",
	Args:    cobra.NoArgs,
	PreRunE: sharedSetupWrapper,
	RunE:    runExecutor(core.ExecuteGraphClear),
}

var graphMigrateCmd = &cobra.Command{
	Use:     "migrate",
	Short:   "Migrate the SQL graph schema.",
	Args:    cobra.NoArgs,
	PreRunE: configOnlySetup,
	RunE:    runExecutor(core.ExecuteGraphMigrate),
}
