package cmd

import (
	"github.com/huangsam/formpath/core"
	"github.com/spf13/cobra"
)

// trackingCmd manages the tracking backend.
var trackingCmd = &cobra.Command{
	Use:   "tracking",
	Short: "Manage the run tracking backend.",
	Long: `Manage the backend holding experiments and runs.

Supported backends: MLflow (read-only), SQLite (default), MySQL, PostgreSQL or None.`,
	Run: func(cmd *cobra.Command, _ []string) {
		_ = cmd.Help()
	},
}

var trackingStatusCmd = &cobra.Command{
	Use:     "status",
	Short:   "Show tracking backend status.",
	Args:    cobra.NoArgs,
	PreRunE: sharedSetupWrapper,
	RunE:    runExecutor(core.ExecuteTrackingStatus),
}

var trackingMigrateCmd = &cobra.Command{
	Use:     "migrate",
	Short:   "Migrate the SQL tracking schema.",
	Args:    cobra.NoArgs,
	PreRunE: configOnlySetup,
	RunE:    runExecutor(core.ExecuteTrackingMigrate),
}
