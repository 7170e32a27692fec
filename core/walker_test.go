package core

import (
	"context"
	"testing"

	"github.com/huangsam/formpath/internal/contract"
	"github.com/huangsam/formpath/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stepFor answers question id with the propositions at the given positions.
func stepFor(t *testing.T, q schema.Question, picks ...int) schema.AnswerStep {
	t.Helper()
	step := schema.AnswerStep{Question: q}
	for _, i := range picks {
		require.Less(t, i, len(q.Propositions))
		step.Chosen = append(step.Chosen, q.Propositions[i])
	}
	return step
}

func TestWalker_Traversal(t *testing.T) {
	ctx := context.Background()
	g := newFixtureGateway(t)
	w := NewWalker(g, DefaultRestrictionPolicy(), nil)
	h := &schema.AnswerHistory{}

	q1, err := w.Next(ctx, h)
	require.NoError(t, err)
	assert.Equal(t, "1", q1.ID)
	h.Append(stepFor(t, q1, 1))

	q2, err := w.Next(ctx, h)
	require.NoError(t, err)
	assert.Equal(t, "2", q2.ID)
	assert.Equal(t, schema.BooleanChoice, q2.Type)
	h.Append(stepFor(t, q2, 1))

	q3, err := w.Next(ctx, h)
	require.NoError(t, err)
	assert.Equal(t, "3", q3.ID)
	assert.Len(t, q3.Propositions, 3, "restricted propositions stay visible after No")
	h.Append(stepFor(t, q3, 0, 2))

	q4, err := w.Next(ctx, h)
	require.NoError(t, err)
	assert.Equal(t, "4", q4.ID)
	h.Append(stepFor(t, q4, 0))

	end, err := w.Next(ctx, h)
	require.NoError(t, err)
	assert.True(t, end.IsTerminal())
	assert.Equal(t, "9", end.ID)
	assert.Empty(t, end.Propositions)

	again, err := w.Next(ctx, h)
	require.NoError(t, err)
	assert.Equal(t, end, again)
	assert.Equal(t, []string{"1", "2", "3", "4", "9"}, w.Visited(), "terminal is recorded once")
}

func TestWalker_AffirmativeHidesRestricted(t *testing.T) {
	ctx := context.Background()
	g := newFixtureGateway(t)
	w := NewWalker(g, DefaultRestrictionPolicy(), nil)
	h := &schema.AnswerHistory{}

	q1, err := w.Next(ctx, h)
	require.NoError(t, err)
	h.Append(stepFor(t, q1, 0))
	q2, err := w.Next(ctx, h)
	require.NoError(t, err)
	h.Append(stepFor(t, q2, 0))

	q3, err := w.Next(ctx, h)
	require.NoError(t, err)
	assert.True(t, w.RestrictedHidden())
	require.Len(t, q3.Propositions, 2)
	for _, p := range q3.Propositions {
		assert.False(t, p.Restricted)
	}

	// Backtracking does not clear the flag.
	h.Truncate(1)
	q2, err = w.Next(ctx, h)
	require.NoError(t, err)
	h.Append(stepFor(t, q2, 1))
	q3, err = w.Next(ctx, h)
	require.NoError(t, err)
	assert.Len(t, q3.Propositions, 2)
}

func TestWalker_RestrictionQuestionNarrowsTrigger(t *testing.T) {
	ctx := context.Background()
	g := newFixtureGateway(t)
	w := NewWalker(g, RestrictionPolicy{Affirmative: "Yes", QuestionID: "7"}, nil)
	h := &schema.AnswerHistory{}

	q1, err := w.Next(ctx, h)
	require.NoError(t, err)
	h.Append(stepFor(t, q1, 0))
	q2, err := w.Next(ctx, h)
	require.NoError(t, err)
	h.Append(stepFor(t, q2, 0))

	q3, err := w.Next(ctx, h)
	require.NoError(t, err)
	assert.False(t, w.RestrictedHidden())
	assert.Len(t, q3.Propositions, 3)
}

func TestWalker_BacktrackDropsSuffix(t *testing.T) {
	ctx := context.Background()
	g := newFixtureGateway(t)
	s := NewSession("alice", g, DefaultRestrictionPolicy(), nil)
	answerAll(t, s, classificationPath)
	require.Equal(t, []string{"1", "2", "3", "4", "9"}, s.Walker().Visited())

	s.Back(3)
	q, err := s.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, "2", q.ID)
	assert.Equal(t, []string{"1", "2"}, s.Walker().Visited())
	assert.False(t, s.History.Completed)
}

func TestWalker_Errors(t *testing.T) {
	ctx := context.Background()
	g := newFixtureGateway(t)
	root, err := g.RootQuestion(ctx)
	require.NoError(t, err)

	tests := []struct {
		name string
		step schema.AnswerStep
		want error
	}{
		{
			name: "unknown question type",
			step: schema.AnswerStep{Question: schema.Question{ID: "1", Type: "slider"}},
			want: contract.ErrConfiguration,
		},
		{
			name: "chosen text not offered",
			step: schema.AnswerStep{Question: root, Chosen: []schema.Proposition{{ID: "x", Text: "Clustering"}}},
			want: contract.ErrValidation,
		},
		{
			name: "single choice without answer",
			step: schema.AnswerStep{Question: root},
			want: contract.ErrValidation,
		},
		{
			name: "successor missing from graph",
			step: schema.AnswerStep{Question: schema.Question{ID: "404", Type: schema.OpenQuestion}},
			want: contract.ErrConfiguration,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := NewWalker(g, DefaultRestrictionPolicy(), nil)
			h := &schema.AnswerHistory{}
			h.Append(tt.step)
			_, err := w.Next(ctx, h)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestWalker_TerminalStepInHistory(t *testing.T) {
	g := newFixtureGateway(t)
	w := NewWalker(g, DefaultRestrictionPolicy(), nil)
	h := &schema.AnswerHistory{}
	h.Append(schema.AnswerStep{Question: schema.Question{ID: "9", Type: schema.TerminalQuestion}})

	q, err := w.Next(context.Background(), h)
	require.NoError(t, err)
	assert.True(t, q.IsTerminal())
	assert.Equal(t, []string{"9"}, w.Visited())
}

func TestWalkersDoNotShareState(t *testing.T) {
	ctx := context.Background()
	g := newFixtureGateway(t)
	a := NewSession("alice", g, DefaultRestrictionPolicy(), nil)
	b := NewSession("bob", g, DefaultRestrictionPolicy(), nil)

	answerAll(t, a, map[string][]string{"1": {"cls"}, "2": {"yes"}, "3": {"speed"}, "4": {"desc"}})

	q, err := b.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, "1", q.ID)
	assert.True(t, a.Walker().RestrictedHidden())
	assert.False(t, b.Walker().RestrictedHidden())
	assert.Equal(t, []string{"1"}, b.Walker().Visited())
}

func TestUnlocksRestricted(t *testing.T) {
	boolQ := schema.Question{ID: "2", Type: schema.BooleanChoice}
	yes := schema.Proposition{Text: "Yes"}
	no := schema.Proposition{Text: "No"}

	tests := []struct {
		name   string
		policy RestrictionPolicy
		step   schema.AnswerStep
		want   bool
	}{
		{name: "yes on boolean", policy: DefaultRestrictionPolicy(), step: schema.AnswerStep{Question: boolQ, Chosen: []schema.Proposition{yes}}, want: true},
		{name: "no on boolean", policy: DefaultRestrictionPolicy(), step: schema.AnswerStep{Question: boolQ, Chosen: []schema.Proposition{no}}, want: false},
		{name: "yes on single choice", policy: DefaultRestrictionPolicy(), step: schema.AnswerStep{Question: schema.Question{ID: "1", Type: schema.SingleChoice}, Chosen: []schema.Proposition{yes}}, want: false},
		{name: "custom affirmative", policy: RestrictionPolicy{Affirmative: "Oui"}, step: schema.AnswerStep{Question: boolQ, Chosen: []schema.Proposition{{Text: "Oui"}}}, want: true},
		{name: "matching question", policy: RestrictionPolicy{Affirmative: "Yes", QuestionID: "2"}, step: schema.AnswerStep{Question: boolQ, Chosen: []schema.Proposition{yes}}, want: true},
		{name: "other question", policy: RestrictionPolicy{Affirmative: "Yes", QuestionID: "5"}, step: schema.AnswerStep{Question: boolQ, Chosen: []schema.Proposition{yes}}, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.policy.UnlocksRestricted(tt.step))
		})
	}
}

func TestRestrictionPolicyFrom(t *testing.T) {
	assert.Equal(t, DefaultRestrictionPolicy(), RestrictionPolicyFrom(&contract.Config{}))
	got := RestrictionPolicyFrom(&contract.Config{Affirmative: "Oui", RestrictionQuestion: "2"})
	assert.Equal(t, RestrictionPolicy{Affirmative: "Oui", QuestionID: "2"}, got)
}
