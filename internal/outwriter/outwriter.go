// Package outwriter renders results as text tables, CSV or JSON.
package outwriter

import (
	"os"

	"github.com/huangsam/formpath/internal/contract"
	"github.com/huangsam/formpath/schema"
	"golang.org/x/term"
)

// OutWriter provides a unified interface for all output operations.
// It encapsulates the output formats so core logic never deals with them.
type OutWriter struct{}

// NewOutWriter creates a new instance of the output writer.
func NewOutWriter() *OutWriter {
	return &OutWriter{}
}

// WriteRanking prints the candidate ranking of a form.
func (ow *OutWriter) WriteRanking(form string, ranked []schema.RankedCandidate, cfg *contract.Config) error {
	return PrintRanking(form, ranked, cfg)
}

// WriteForms prints the stored forms of a user.
func (ow *OutWriter) WriteForms(forms []schema.StoredForm, cfg *contract.Config) error {
	return PrintForms(forms, cfg)
}

// WriteFormDetail prints one stored form with its answers.
func (ow *OutWriter) WriteFormDetail(detail schema.FormDetail, cfg *contract.Config) error {
	return PrintFormDetail(detail, cfg)
}

// WriteComparison prints normalized run metrics and the Pareto front.
func (ow *OutWriter) WriteComparison(result schema.Comparison, cfg *contract.Config) error {
	return PrintComparison(result, cfg)
}

// WriteExperiments prints tracked experiments.
func (ow *OutWriter) WriteExperiments(experiments []schema.Experiment, cfg *contract.Config) error {
	return PrintExperiments(experiments, cfg)
}

// WriteRunDetail prints one run with its artifacts.
func (ow *OutWriter) WriteRunDetail(detail schema.RunDetail, cfg *contract.Config) error {
	return PrintRunDetail(detail, cfg)
}

// WriteStats prints candidate statistics across stored forms.
func (ow *OutWriter) WriteStats(stats []schema.CandidateStat, cfg *contract.Config) error {
	return PrintStats(stats, cfg)
}

// WriteFeedback prints the feedback notes of a user.
func (ow *OutWriter) WriteFeedback(notes []schema.Feedback, cfg *contract.Config) error {
	return PrintFeedback(notes, cfg)
}

// GetMaxTextWidth returns the room left for free-text columns such as question
// texts, based on the terminal width and the fixed columns around them.
func GetMaxTextWidth(cfg *contract.Config, fixedColumns int) int {
	termWidth := cfg.Width
	if termWidth == 0 {
		detected, _, err := term.GetSize(int(os.Stdout.Fd()))
		if err != nil || detected <= 0 {
			termWidth = 80 // narrow terminals and CI
		} else {
			termWidth = detected
		}
	}

	// borders, separators and padding
	available := termWidth - fixedColumns - 20
	if available < 15 {
		return 15
	}
	if available > 70 {
		return 70
	}
	return available
}
