package core

import (
	"context"
	"slices"

	"github.com/huangsam/formpath/internal/contract"
	"github.com/huangsam/formpath/internal/gateway"
	"github.com/huangsam/formpath/schema"
	"go.uber.org/zap"
)

// RestrictionPolicy decides which answer hides restricted propositions.
type RestrictionPolicy struct {
	// Affirmative is the proposition text that triggers the filter.
	Affirmative string
	// QuestionID narrows the trigger to one boolean question when set.
	QuestionID string
}

// DefaultRestrictionPolicy fires on any boolean question answered "Yes".
func DefaultRestrictionPolicy() RestrictionPolicy {
	return RestrictionPolicy{Affirmative: schema.AffirmativeAnswer}
}

// RestrictionPolicyFrom builds the policy from configuration.
func RestrictionPolicyFrom(cfg *contract.Config) RestrictionPolicy {
	policy := DefaultRestrictionPolicy()
	if cfg.Affirmative != "" {
		policy.Affirmative = cfg.Affirmative
	}
	policy.QuestionID = cfg.RestrictionQuestion
	return policy
}

// UnlocksRestricted reports whether an answered step turns on the restricted filter.
func (p RestrictionPolicy) UnlocksRestricted(step schema.AnswerStep) bool {
	if step.Question.Type != schema.BooleanChoice {
		return false
	}
	if p.QuestionID != "" && step.Question.ID != p.QuestionID {
		return false
	}
	return slices.Contains(step.ChosenTexts(), p.Affirmative)
}

// Walker resolves the next question of one traversal. It keeps a cursor of the
// question ids it has handed out and the restricted flag, so one Walker serves
// exactly one session.
type Walker struct {
	gw     *gateway.Gateway
	policy RestrictionPolicy
	logger *zap.Logger

	visited    []string
	restricted bool
}

// NewWalker creates a walker over the questionnaire behind gw.
func NewWalker(gw *gateway.Gateway, policy RestrictionPolicy, logger *zap.Logger) *Walker {
	return &Walker{gw: gw, policy: policy, logger: contract.LoggerOrNop(logger)}
}

// Visited returns the ids of the questions handed out so far, in order.
func (w *Walker) Visited() []string {
	return slices.Clone(w.visited)
}

// RestrictedHidden reports whether restricted propositions are being filtered out.
func (w *Walker) RestrictedHidden() bool {
	return w.restricted
}

// Next returns the question that follows history. An empty history yields the root
// question. Once the traversal is over it keeps returning the terminal question.
func (w *Walker) Next(ctx context.Context, history *schema.AnswerHistory) (schema.Question, error) {
	w.sync(history)

	q, err := w.resolve(ctx, history)
	if err != nil {
		return schema.Question{}, err
	}

	if q.IsTerminal() {
		q = schema.Question{ID: q.ID, Type: schema.TerminalQuestion}
		if n := len(w.visited); n > 0 && w.visited[n-1] == q.ID {
			return q, nil
		}
	} else if w.restricted {
		q.Propositions = slices.DeleteFunc(q.Propositions, func(p schema.Proposition) bool { return p.Restricted })
	}

	w.visited = append(w.visited, q.ID)
	return q, nil
}

// sync aligns the cursor with the history. The cursor keeps one entry per answered
// step plus the question handed out last; a shorter history is a backtrack and the
// memorized suffix is dropped.
func (w *Walker) sync(history *schema.AnswerHistory) {
	n := history.Len()
	if n+1 < len(w.visited) {
		w.logger.Debug("walker backtrack",
			zap.Int("from", len(w.visited)-1),
			zap.Int("to", n))
	}
	if n < len(w.visited) {
		w.visited = w.visited[:n]
	}
	for i, step := range history.Steps {
		if i < len(w.visited) {
			w.visited[i] = step.Question.ID
		} else {
			w.visited = append(w.visited, step.Question.ID)
		}
		if !w.restricted && w.policy.UnlocksRestricted(step) {
			w.logger.Debug("restricted propositions hidden", zap.String("question", step.Question.ID))
			w.restricted = true
		}
	}
}

// resolve finds the successor of the last answered question.
func (w *Walker) resolve(ctx context.Context, history *schema.AnswerHistory) (schema.Question, error) {
	last, ok := history.Last()
	if !ok {
		return w.gw.RootQuestion(ctx)
	}

	var target string
	switch last.Question.Type {
	case schema.OpenQuestion, schema.MultiChoice:
		id, err := w.uniqueSuccessor(ctx, last.Question)
		if err != nil {
			return schema.Question{}, err
		}
		target = id

	case schema.SingleChoice, schema.BooleanChoice:
		id, err := w.matchingSuccessor(ctx, last)
		if err != nil {
			return schema.Question{}, err
		}
		target = id

	case schema.TerminalQuestion:
		return schema.Question{ID: last.Question.ID, Type: schema.TerminalQuestion}, nil

	default:
		return schema.Question{}, contract.ConfigErrorf("question %q has unknown type %q", last.Question.ID, last.Question.Type)
	}

	return w.gw.Question(ctx, target)
}

// uniqueSuccessor returns the one question every proposition of q leads to.
func (w *Walker) uniqueSuccessor(ctx context.Context, q schema.Question) (string, error) {
	props, err := w.gw.Successors(ctx, q.ID)
	if err != nil {
		return "", err
	}
	if len(props) == 0 {
		return "", contract.ConfigErrorf("question %q has no outgoing proposition", q.ID)
	}
	target := props[0].Next
	for _, p := range props[1:] {
		if p.Next != target {
			return "", contract.ConfigErrorf("%s question %q leads to both %q and %q", q.Type, q.ID, target, p.Next)
		}
	}
	return target, nil
}

// matchingSuccessor returns the target of the proposition whose text was chosen.
func (w *Walker) matchingSuccessor(ctx context.Context, step schema.AnswerStep) (string, error) {
	if len(step.Chosen) == 0 {
		return "", contract.ValidationErrorf("question %q was answered without a proposition", step.Question.ID)
	}
	chosen := step.Chosen[0].Text

	props, err := w.gw.Successors(ctx, step.Question.ID)
	if err != nil {
		return "", err
	}
	for _, p := range props {
		if p.Text == chosen {
			return p.Next, nil
		}
	}
	return "", contract.ValidationErrorf("%q is not a proposition of question %q", chosen, step.Question.ID)
}
