package core

import (
	"context"
	"testing"
	"time"

	"github.com/huangsam/formpath/core/algo"
	"github.com/huangsam/formpath/internal/contract"
	"github.com/huangsam/formpath/internal/gateway"
	"github.com/huangsam/formpath/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)

func newFormStore(g *gateway.Gateway) *FormStore {
	fs := NewFormStore(g, nil)
	fs.now = func() time.Time { return fixedNow }
	return fs
}

func completedSession(t *testing.T, g *gateway.Gateway, user string, choices map[string][]string) *Session {
	t.Helper()
	s := NewSession(user, g, DefaultRestrictionPolicy(), nil)
	answerAll(t, s, choices)
	return s
}

func TestFormStore_SaveAndRetrieve(t *testing.T) {
	ctx := context.Background()
	g := newFixtureGateway(t)
	fs := newFormStore(g)
	s := completedSession(t, g, "alice", classificationPath)

	exists, err := fs.Exists(ctx, "alice", "first")
	require.NoError(t, err)
	assert.False(t, exists)

	saved, err := fs.Save(ctx, s.History, "alice", "first", []string{"XGBoost", "RandomForest"}, "run-1")
	require.NoError(t, err)
	assert.True(t, saved)

	exists, err = fs.Exists(ctx, "alice", "first")
	require.NoError(t, err)
	assert.True(t, exists)

	root, ok, err := g.Vertex(ctx, "alice-answer1-first")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "XGBoost", root.Prop(schema.PropBestOutputs))
	assert.Equal(t, "XGBoost,RandomForest", root.Prop(schema.PropBestList))
	assert.Equal(t, "run-1", root.Prop(schema.PropTrackingID))

	end, ok, err := g.Vertex(ctx, "alice-answer9-first")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, string(schema.TerminalQuestion), end.Label)

	got, err := fs.Retrieve(ctx, "alice", "first")
	require.NoError(t, err)
	assert.True(t, got.Completed)
	require.Equal(t, s.History.Len(), got.Len())
	for i, step := range got.Steps {
		want := s.History.Steps[i]
		assert.Equal(t, want.Question.ID, step.Question.ID)
		assert.Equal(t, want.Question.Type, step.Question.Type)
		assert.Equal(t, want.Question.Text, step.Question.Text)
		assert.Equal(t, want.ChosenTexts(), step.ChosenTexts())
		assert.Equal(t, want.Response, step.Response)
		for j, p := range step.Chosen {
			assert.Equal(t, want.Chosen[j].Coefficients, p.Coefficients)
			assert.Equal(t, want.Chosen[j].Next, p.Next)
		}
	}

	outputs, err := g.CandidateOutputs(ctx)
	require.NoError(t, err)
	before, err := algo.Rank(s.History, outputs, 3)
	require.NoError(t, err)
	after, err := algo.Rank(got, outputs, 3)
	require.NoError(t, err)
	assert.Equal(t, before, after, "a retrieved form ranks the same")
}

func TestFormStore_SaveRefusesTakenName(t *testing.T) {
	ctx := context.Background()
	g := newFixtureGateway(t)
	fs := newFormStore(g)
	first := completedSession(t, g, "alice", classificationPath)
	second := completedSession(t, g, "alice", map[string][]string{"1": {"reg"}, "2": {"no"}, "3": {"energy"}, "4": {"desc"}})

	saved, err := fs.Save(ctx, first.History, "alice", "mine", []string{"XGBoost"}, "")
	require.NoError(t, err)
	require.True(t, saved)

	saved, err = fs.Save(ctx, second.History, "alice", "mine", []string{"MLP"}, "")
	require.NoError(t, err)
	assert.False(t, saved)

	summary, err := fs.Summary(ctx, "alice", "mine")
	require.NoError(t, err)
	assert.Equal(t, []string{"XGBoost"}, summary.Ranked, "the first form is untouched")

	saved, err = fs.Save(ctx, second.History, "bob", "mine", []string{"MLP"}, "")
	require.NoError(t, err)
	assert.True(t, saved, "names are scoped per user")
}

func TestFormStore_SaveValidation(t *testing.T) {
	ctx := context.Background()
	g := newFixtureGateway(t)
	fs := newFormStore(g)
	s := completedSession(t, g, "alice", classificationPath)

	tests := []struct {
		name    string
		history *schema.AnswerHistory
		user    string
		form    string
	}{
		{name: "empty user", history: s.History, user: "", form: "f"},
		{name: "empty form", history: s.History, user: "alice", form: "  "},
		{name: "forbidden characters", history: s.History, user: "alice", form: "x') DROP"},
		{name: "empty history", history: &schema.AnswerHistory{}, user: "alice", form: "f"},
		{name: "not starting at root", history: &schema.AnswerHistory{Steps: s.History.Steps[1:]}, user: "alice", form: "f"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := fs.Save(ctx, tt.history, tt.user, tt.form, nil, "")
			assert.ErrorIs(t, err, contract.ErrValidation)
		})
	}
}

func TestFormStore_RetrieveMissing(t *testing.T) {
	fs := newFormStore(newFixtureGateway(t))
	_, err := fs.Retrieve(context.Background(), "alice", "nothing")
	assert.ErrorIs(t, err, contract.ErrNotFound)
}

func TestFormStore_SaveResumesInterruptedSave(t *testing.T) {
	ctx := context.Background()
	g := newFixtureGateway(t)
	fs := newFormStore(g)
	s := completedSession(t, g, "alice", classificationPath)

	// An earlier attempt wrote the first node and stopped.
	require.NoError(t, g.EnsureVertex(ctx, schema.Vertex{
		ID:    "alice-answer1-f",
		Label: schema.AnswerLabel,
		Properties: map[string]string{
			schema.PropQuestionID: "1",
			schema.PropFormName:   "f",
		},
	}))

	exists, err := fs.Exists(ctx, "alice", "f")
	require.NoError(t, err)
	assert.False(t, exists, "an unlinked node is not a form")
	_, err = fs.Retrieve(ctx, "alice", "f")
	assert.ErrorIs(t, err, contract.ErrNotFound)

	saved, err := fs.Save(ctx, s.History, "alice", "f", []string{"XGBoost"}, "")
	require.NoError(t, err)
	assert.True(t, saved)

	got, err := fs.Retrieve(ctx, "alice", "f")
	require.NoError(t, err)
	require.Equal(t, s.History.Len(), got.Len())
	for i, step := range got.Steps {
		assert.Equal(t, s.History.Steps[i].ChosenTexts(), step.ChosenTexts())
	}

	forms, err := fs.List(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, forms, 1)
	assert.Equal(t, "f", forms[0].Name)

	saved, err = fs.Save(ctx, s.History, "alice", "f", []string{"XGBoost"}, "")
	require.NoError(t, err)
	assert.False(t, saved, "a completed form is not saved again")
}

func TestFormStore_RetrieveBrokenChain(t *testing.T) {
	ctx := context.Background()
	g := newFixtureGateway(t)
	fs := newFormStore(g)
	s := completedSession(t, g, "alice", classificationPath)
	saved, err := fs.Save(ctx, s.History, "alice", "first", nil, "")
	require.NoError(t, err)
	require.True(t, saved)

	edges, err := g.OutEdges(ctx, "alice-answer1-first", schema.AnswerEdge)
	require.NoError(t, err)
	require.NotEmpty(t, edges)
	missing := edges[0].To
	require.NoError(t, g.DropVertex(ctx, missing))
	_, err = g.Store().AddEdge(ctx, schema.Edge{
		ID:    "dangling",
		Label: schema.AnswerEdge,
		From:  "alice-answer1-first",
		To:    missing,
	})
	require.NoError(t, err)

	_, err = fs.Retrieve(ctx, "alice", "first")
	require.ErrorIs(t, err, contract.ErrConfiguration)
	assert.Contains(t, err.Error(), "is missing")
}

func TestFormStore_SaveWithRename(t *testing.T) {
	ctx := context.Background()
	g := newFixtureGateway(t)
	fs := newFormStore(g)
	s := completedSession(t, g, "alice", classificationPath)

	_, err := fs.Save(ctx, s.History, "alice", "draft", []string{"XGBoost"}, "")
	require.NoError(t, err)
	_, err = fs.Save(ctx, s.History, "alice", "other", []string{"MLP"}, "")
	require.NoError(t, err)

	edited := completedSession(t, g, "alice", map[string][]string{"1": {"reg"}, "2": {"no"}, "3": {"energy"}, "4": {"desc"}})

	saved, err := fs.SaveWithRename(ctx, edited.History, "alice", "draft", "other", []string{"RandomForest"}, "")
	require.NoError(t, err)
	assert.False(t, saved, "renaming onto another form is refused")
	exists, err := fs.Exists(ctx, "alice", "draft")
	require.NoError(t, err)
	assert.True(t, exists, "the refused rename keeps the old form")

	saved, err = fs.SaveWithRename(ctx, edited.History, "alice", "draft", "final", []string{"RandomForest"}, "")
	require.NoError(t, err)
	assert.True(t, saved)

	exists, err = fs.Exists(ctx, "alice", "draft")
	require.NoError(t, err)
	assert.False(t, exists)
	_, ok, err := g.Vertex(ctx, "alice-answer4-draft")
	require.NoError(t, err)
	assert.False(t, ok, "the whole old chain is gone")

	got, err := fs.Retrieve(ctx, "alice", "final")
	require.NoError(t, err)
	assert.Equal(t, []string{"Regression"}, got.Steps[0].ChosenTexts())

	saved, err = fs.SaveWithRename(ctx, edited.History, "alice", "final", "final", []string{"MLP"}, "")
	require.NoError(t, err)
	assert.True(t, saved, "saving an edit under the same name overwrites it")
	summary, err := fs.Summary(ctx, "alice", "final")
	require.NoError(t, err)
	assert.Equal(t, []string{"MLP"}, summary.Ranked)

	saved, err = fs.SaveWithRename(ctx, edited.History, "alice", "ghost", "fresh", nil, "")
	require.NoError(t, err)
	assert.True(t, saved, "a missing old chain is tolerated")
}

func TestFormStore_DeleteListSummary(t *testing.T) {
	ctx := context.Background()
	g := newFixtureGateway(t)
	fs := newFormStore(g)
	s := completedSession(t, g, "alice", classificationPath)

	for _, name := range []string{"zeta", "alpha"} {
		_, err := fs.Save(ctx, s.History, "alice", name, []string{"XGBoost", "MLP"}, "run-"+name)
		require.NoError(t, err)
	}
	_, err := fs.AddFeedback(ctx, "alice", "nice")
	require.NoError(t, err)

	forms, err := fs.List(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, forms, 2, "feedback is not listed as a form")
	assert.Equal(t, "alpha", forms[0].Name)
	assert.Equal(t, "zeta", forms[1].Name)
	assert.Equal(t, "run-alpha", forms[0].TrackingID)
	assert.Equal(t, fixedNow, forms[0].CreatedAt)

	deleted, err := fs.Delete(ctx, "alice", "alpha")
	require.NoError(t, err)
	assert.True(t, deleted)
	deleted, err = fs.Delete(ctx, "alice", "alpha")
	require.NoError(t, err)
	assert.False(t, deleted)

	_, err = fs.Summary(ctx, "alice", "alpha")
	assert.ErrorIs(t, err, contract.ErrNotFound)

	nobody, err := fs.List(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, nobody)
}

func TestFormStore_Feedback(t *testing.T) {
	ctx := context.Background()
	fs := newFormStore(newFixtureGateway(t))

	_, err := fs.AddFeedback(ctx, "alice", "   ")
	assert.ErrorIs(t, err, contract.ErrValidation)

	fb, err := fs.AddFeedback(ctx, "alice", "  More models please ")
	require.NoError(t, err)
	assert.Equal(t, "More models please", fb.Text)
	assert.Contains(t, fb.ID, "alice-feedback-")

	list, err := fs.ListFeedback(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, fb, list[0])
}

func TestFormStore_Stats(t *testing.T) {
	ctx := context.Background()
	g := newFixtureGateway(t)
	fs := newFormStore(g)
	s := completedSession(t, g, "alice", classificationPath)

	_, err := fs.Save(ctx, s.History, "alice", "a", []string{"XGBoost", "MLP"}, "")
	require.NoError(t, err)
	_, err = fs.Save(ctx, s.History, "alice", "b", []string{"MLP"}, "")
	require.NoError(t, err)
	_, err = fs.Save(ctx, s.History, "bob", "c", []string{"XGBoost", "RandomForest"}, "")
	require.NoError(t, err)

	stats, err := fs.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, []schema.CandidateStat{
		{Name: "XGBoost", TopCount: 2, Appearances: 2},
		{Name: "MLP", TopCount: 1, Appearances: 2},
		{Name: "RandomForest", TopCount: 0, Appearances: 1},
	}, stats)
}
