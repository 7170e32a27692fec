package cmd

import (
	"github.com/huangsam/formpath/core"
	"github.com/spf13/cobra"
)

// fillCmd walks a new form.
var fillCmd = &cobra.Command{
	Use:   "fill <form>",
	Short: "Answer the questionnaire and store the answers as a new form.",
	Long: `Ask the questionnaire from its root question to the end and rank the candidate models.

Each answer decides the next question. Answering "Yes" to a boolean question hides
restricted propositions for the rest of the form. Choose "Back" at any question to
change the previous answer.

Examples:
  # Fill a form interactively
  formpath fill churn-model --user alice

  # Fill a form from scripted answers and record it as a tracked run
  formpath fill churn-model --user alice --answers answers.yaml --track`,
	Args:    cobra.ExactArgs(1),
	PreRunE: formArgSetup,
	RunE:    runExecutor(core.ExecuteFill),
}

// editCmd reopens a stored form.
var editCmd = &cobra.Command{
	Use:   "edit <form>",
	Short: "Change an answer of a stored form and walk the rest again.",
	Long: `Pick one answer of a stored form, answer from there to the end and store the result.

Answers before the chosen one are kept. With --new-name the edited form replaces the
old one under a new name; an existing form with that name is never overwritten.

Examples:
  formpath edit churn-model --user alice
  formpath edit churn-model --user alice --new-name churn-model-v2`,
	Args:    cobra.ExactArgs(1),
	PreRunE: formArgSetup,
	RunE:    runExecutor(core.ExecuteEdit),
}
