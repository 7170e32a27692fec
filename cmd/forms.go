package cmd

import (
	"github.com/huangsam/formpath/core"
	"github.com/spf13/cobra"
)

// formsCmd focuses on stored forms.
var formsCmd = &cobra.Command{
	Use:   "forms",
	Short: "Inspect and manage stored forms.",
	Run: func(cmd *cobra.Command, _ []string) {
		_ = cmd.Help()
	},
}

var formsListCmd = &cobra.Command{
	Use:     "list",
	Short:   "List the forms of a user.",
	Args:    cobra.NoArgs,
	PreRunE: sharedSetupWrapper,
	RunE:    runExecutor(core.ExecuteFormsList),
}

var formsShowCmd = &cobra.Command{
	Use:     "show <form>",
	Short:   "Show the answers of a form with a fresh ranking.",
	Args:    cobra.ExactArgs(1),
	PreRunE: formArgSetup,
	RunE:    runExecutor(core.ExecuteFormShow),
}

var formsRankCmd = &cobra.Command{
	Use:     "rank <form>",
	Short:   "Rank the candidates of a form against the current questionnaire.",
	Args:    cobra.ExactArgs(1),
	PreRunE: formArgSetup,
	RunE:    runExecutor(core.ExecuteFormRank),
}

var formsDeleteCmd = &cobra.Command{
	Use:     "delete <form>",
	Short:   "Delete a form.",
	Args:    cobra.ExactArgs(1),
	PreRunE: formArgSetup,
	RunE:    runExecutor(core.ExecuteFormDelete),
}

var formsStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Count how often each candidate was recommended across all forms.",
	Long: `Count, over every stored form of every user, how often each candidate was
ranked first and how often it was ranked at all.`,
	Args:    cobra.NoArgs,
	PreRunE: sharedSetupWrapper,
	RunE:    runExecutor(core.ExecuteFormStats),
}
