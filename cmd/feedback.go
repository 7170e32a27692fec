package cmd

import (
	"strings"

	"github.com/huangsam/formpath/core"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// feedbackCmd stores free-text notes from users.
var feedbackCmd = &cobra.Command{
	Use:   "feedback",
	Short: "Leave or read feedback about the recommendations.",
	Run: func(cmd *cobra.Command, _ []string) {
		_ = cmd.Help()
	},
}

var feedbackAddCmd = &cobra.Command{
	Use:   "add <text>...",
	Short: "Store a note for a user.",
	Args:  cobra.MinimumNArgs(1),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		viper.Set("text", strings.Join(args, " "))
		return sharedSetup(rootCtx, cmd, args)
	},
	RunE: runExecutor(core.ExecuteFeedbackAdd),
}

var feedbackListCmd = &cobra.Command{
	Use:     "list",
	Short:   "List the notes of a user.",
	Args:    cobra.NoArgs,
	PreRunE: sharedSetupWrapper,
	RunE:    runExecutor(core.ExecuteFeedbackList),
}
