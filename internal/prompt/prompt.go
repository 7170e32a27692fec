// Package prompt asks questionnaire questions on a terminal.
package prompt

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/huangsam/formpath/internal/contract"
	"github.com/huangsam/formpath/schema"
)

// backValue is the option value standing for "go back".
const backValue = "\x00back"

// backKeyword typed as an open answer goes back.
const backKeyword = "/back"

// ErrAborted is returned when the person quits the form.
var ErrAborted = errors.New("form aborted")

// Terminal asks questions with interactive huh forms.
type Terminal struct {
	accessible bool
}

var _ contract.Prompter = &Terminal{} // Compile-time check

// NewTerminal creates a terminal prompter. Accessible mode trades the TUI for plain prompts.
func NewTerminal(accessible bool) *Terminal {
	return &Terminal{accessible: accessible}
}

// Ask implements the Prompter interface.
func (t *Terminal) Ask(ctx context.Context, q schema.Question, canGoBack bool) (contract.PromptAnswer, error) {
	switch q.Type {
	case schema.SingleChoice, schema.BooleanChoice:
		var choice string
		field := huh.NewSelect[string]().
			Title(q.Text).
			Description(q.Help).
			Options(choiceOptions(q, canGoBack)...).
			Value(&choice)
		if err := t.run(ctx, field); err != nil {
			return contract.PromptAnswer{}, err
		}
		if choice == backValue {
			return contract.PromptAnswer{Back: true}, nil
		}
		return contract.PromptAnswer{ChosenIDs: []string{choice}}, nil

	case schema.MultiChoice:
		var choices []string
		field := huh.NewMultiSelect[string]().
			Title(q.Text).
			Description(q.Help).
			Options(choiceOptions(q, canGoBack)...).
			Validate(validateMulti).
			Value(&choices)
		if err := t.run(ctx, field); err != nil {
			return contract.PromptAnswer{}, err
		}
		if len(choices) == 1 && choices[0] == backValue {
			return contract.PromptAnswer{Back: true}, nil
		}
		return contract.PromptAnswer{ChosenIDs: choices}, nil

	case schema.OpenQuestion:
		if len(q.Propositions) == 0 {
			return contract.PromptAnswer{}, contract.ConfigErrorf("open question %q has no proposition", q.ID)
		}
		var text string
		field := huh.NewInput().
			Title(q.Text).
			Description(openDescription(q, canGoBack)).
			Value(&text)
		if err := t.run(ctx, field); err != nil {
			return contract.PromptAnswer{}, err
		}
		text = strings.TrimSpace(text)
		if canGoBack && text == backKeyword {
			return contract.PromptAnswer{Back: true}, nil
		}
		return contract.PromptAnswer{ChosenIDs: []string{q.Propositions[0].ID}, Response: text}, nil

	default:
		return contract.PromptAnswer{}, contract.ConfigErrorf("question %q has unknown type %q", q.ID, q.Type)
	}
}

// PickStep implements the Prompter interface.
func (t *Terminal) PickStep(ctx context.Context, history *schema.AnswerHistory) (int, error) {
	if history.Len() == 0 {
		return 0, contract.ValidationErrorf("the form has no answers to revise")
	}
	var idx int
	field := huh.NewSelect[int]().
		Title("Which answer do you want to change?").
		Options(stepOptions(history)...).
		Value(&idx)
	if err := t.run(ctx, field); err != nil {
		return 0, err
	}
	return idx, nil
}

func (t *Terminal) run(ctx context.Context, field huh.Field) error {
	form := huh.NewForm(huh.NewGroup(field)).WithAccessible(t.accessible)
	if err := form.RunWithContext(ctx); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return ErrAborted
		}
		return fmt.Errorf("prompt failed: %w", err)
	}
	return nil
}

// choiceOptions lists the propositions of q, plus a back option when allowed.
func choiceOptions(q schema.Question, canGoBack bool) []huh.Option[string] {
	opts := make([]huh.Option[string], 0, len(q.Propositions)+1)
	for _, p := range q.Propositions {
		label := p.Text
		if p.Help != "" {
			label += " (" + p.Help + ")"
		}
		opts = append(opts, huh.NewOption(label, p.ID))
	}
	if canGoBack {
		opts = append(opts, huh.NewOption("← Back", backValue))
	}
	return opts
}

// stepOptions lists the answered steps, newest last.
func stepOptions(history *schema.AnswerHistory) []huh.Option[int] {
	opts := make([]huh.Option[int], 0, history.Len())
	for i, step := range history.Steps {
		label := fmt.Sprintf("%d. %s: %s", i+1, step.Question.Text, strings.Join(step.ChosenTexts(), ", "))
		opts = append(opts, huh.NewOption(label, i))
	}
	return opts
}

func openDescription(q schema.Question, canGoBack bool) string {
	desc := q.Help
	if canGoBack {
		if desc != "" {
			desc += "\n"
		}
		desc += "Type " + backKeyword + " to change the previous answer."
	}
	return desc
}

// validateMulti rejects an empty selection and a back option mixed with answers.
func validateMulti(choices []string) error {
	if len(choices) == 0 {
		return errors.New("pick at least one answer")
	}
	if len(choices) > 1 {
		for _, c := range choices {
			if c == backValue {
				return errors.New("back cannot be combined with answers")
			}
		}
	}
	return nil
}
