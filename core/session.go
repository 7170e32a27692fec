package core

import (
	"context"
	"slices"

	"github.com/huangsam/formpath/core/algo"
	"github.com/huangsam/formpath/internal/contract"
	"github.com/huangsam/formpath/internal/gateway"
	"github.com/huangsam/formpath/schema"
	"go.uber.org/zap"
)

// Session is one user filling one form. It owns its walker and history, so two
// sessions never share traversal state.
type Session struct {
	User    string
	History *schema.AnswerHistory

	gw     *gateway.Gateway
	walker *Walker
}

// NewSession starts an empty traversal for user.
func NewSession(user string, gw *gateway.Gateway, policy RestrictionPolicy, logger *zap.Logger) *Session {
	return &Session{
		User:    user,
		History: &schema.AnswerHistory{},
		gw:      gw,
		walker:  NewWalker(gw, policy, logger),
	}
}

// ResumeSession continues a traversal from a stored history.
func ResumeSession(user string, history *schema.AnswerHistory, gw *gateway.Gateway, policy RestrictionPolicy, logger *zap.Logger) *Session {
	s := NewSession(user, gw, policy, logger)
	s.History = history
	return s
}

// Walker exposes the walker behind the session.
func (s *Session) Walker() *Walker {
	return s.walker
}

// Current returns the question to answer next. Reaching the terminal question
// marks the history completed.
func (s *Session) Current(ctx context.Context) (schema.Question, error) {
	q, err := s.walker.Next(ctx, s.History)
	if err != nil {
		return schema.Question{}, err
	}
	if q.IsTerminal() {
		s.History.Completed = true
	}
	return q, nil
}

// Answer records the propositions chosen for q. The chosen ids must belong to the
// propositions q offered, and their count must fit the question type.
func (s *Session) Answer(q schema.Question, chosenIDs []string, response string) error {
	if q.IsTerminal() {
		return contract.ValidationErrorf("question %q ends the form and takes no answer", q.ID)
	}
	if err := checkChoiceCount(q, len(chosenIDs)); err != nil {
		return err
	}

	chosen := make([]schema.Proposition, 0, len(chosenIDs))
	for _, id := range chosenIDs {
		i := slices.IndexFunc(q.Propositions, func(p schema.Proposition) bool { return p.ID == id })
		if i < 0 {
			return contract.ValidationErrorf("%q is not a proposition of question %q", id, q.ID)
		}
		if slices.ContainsFunc(chosen, func(p schema.Proposition) bool { return p.ID == id }) {
			return contract.ValidationErrorf("proposition %q chosen twice", id)
		}
		chosen = append(chosen, q.Propositions[i])
	}

	step := schema.AnswerStep{Question: q, Chosen: chosen}
	if q.Type == schema.OpenQuestion {
		step.Response = response
	}
	s.History.Append(step)
	return nil
}

// Back undoes the last n answers.
func (s *Session) Back(n int) {
	s.History.Truncate(s.History.Len() - n)
}

// Rank scores the candidate outputs against the answers so far.
func (s *Session) Rank(ctx context.Context, n int) ([]schema.RankedCandidate, error) {
	outputs, err := s.gw.CandidateOutputs(ctx)
	if err != nil {
		return nil, err
	}
	return algo.RankScores(s.History, outputs, n)
}

func checkChoiceCount(q schema.Question, n int) error {
	switch q.Type {
	case schema.MultiChoice:
		if n == 0 {
			return contract.ValidationErrorf("question %q needs at least one proposition", q.ID)
		}
	case schema.SingleChoice, schema.BooleanChoice, schema.OpenQuestion:
		if n != 1 {
			return contract.ValidationErrorf("question %q takes exactly one proposition, got %d", q.ID, n)
		}
	default:
		return contract.ConfigErrorf("question %q has unknown type %q", q.ID, q.Type)
	}
	return nil
}
