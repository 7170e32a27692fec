package prompt

import (
	"context"
	"io"

	"github.com/huangsam/formpath/internal/contract"
	"github.com/huangsam/formpath/schema"
	"gopkg.in/yaml.v3"
)

// ScriptAnswer is the planned answer to one question. Choices hold proposition ids
// or texts.
type ScriptAnswer struct {
	Choices  []string `yaml:"choices" json:"choices"`
	Response string   `yaml:"response" json:"response,omitempty"`
}

// Script answers questions from a fixed plan keyed by question id. It lets forms be
// filled without a terminal.
type Script struct {
	Answers map[string]ScriptAnswer `yaml:"answers" json:"answers"`
	// Revise names the question an edit restarts from.
	Revise string `yaml:"revise" json:"revise,omitempty"`
}

var _ contract.Prompter = &Script{} // Compile-time check

// LoadScript decodes a YAML answer plan.
func LoadScript(r io.Reader) (*Script, error) {
	var s Script
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil {
		return nil, contract.ValidationErrorf("invalid answer script: %v", err)
	}
	if len(s.Answers) == 0 {
		return nil, contract.ValidationErrorf("answer script has no answers")
	}
	return &s, nil
}

// Ask implements the Prompter interface.
func (s *Script) Ask(_ context.Context, q schema.Question, _ bool) (contract.PromptAnswer, error) {
	planned, ok := s.Answers[q.ID]
	if !ok {
		return contract.PromptAnswer{}, contract.ValidationErrorf("no scripted answer for question %q (%s)", q.ID, q.Text)
	}

	choices := planned.Choices
	if q.Type == schema.OpenQuestion && len(choices) == 0 && len(q.Propositions) > 0 {
		choices = []string{q.Propositions[0].ID}
	}

	ids := make([]string, 0, len(choices))
	for _, c := range choices {
		id, ok := resolveChoice(q, c)
		if !ok {
			return contract.PromptAnswer{}, contract.ValidationErrorf("%q is not a proposition of question %q", c, q.ID)
		}
		ids = append(ids, id)
	}
	return contract.PromptAnswer{ChosenIDs: ids, Response: planned.Response}, nil
}

// PickStep implements the Prompter interface.
func (s *Script) PickStep(_ context.Context, history *schema.AnswerHistory) (int, error) {
	if s.Revise == "" {
		return 0, contract.ValidationErrorf("answer script does not name a question to revise")
	}
	for i, step := range history.Steps {
		if step.Question.ID == s.Revise {
			return i, nil
		}
	}
	return 0, contract.ValidationErrorf("question %q was not answered in this form", s.Revise)
}

// resolveChoice matches a proposition by id first, then by text.
func resolveChoice(q schema.Question, choice string) (string, bool) {
	for _, p := range q.Propositions {
		if p.ID == choice {
			return p.ID, true
		}
	}
	for _, p := range q.Propositions {
		if p.Text == choice {
			return p.ID, true
		}
	}
	return "", false
}
