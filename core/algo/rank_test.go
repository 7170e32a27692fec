package algo

import (
	"math"
	"testing"

	"github.com/huangsam/formpath/internal/contract"
	"github.com/huangsam/formpath/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// historyOf builds a history with one chosen proposition per coefficient vector.
func historyOf(vectors ...[]float64) *schema.AnswerHistory {
	h := &schema.AnswerHistory{}
	for i, v := range vectors {
		q := schema.Question{ID: string(rune('1' + i)), Type: schema.SingleChoice}
		h.Append(schema.AnswerStep{Question: q, Chosen: []schema.Proposition{{ID: "p", Text: "A", Coefficients: v}}})
	}
	return h
}

func TestRank_TwoStepExample(t *testing.T) {
	h := historyOf([]float64{2, 1}, []float64{1, 4})
	got, err := Rank(h, []string{"X", "Y"}, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"Y", "X"}, got)

	scores, err := RankScores(h, []string{"X", "Y"}, 2)
	require.NoError(t, err)
	assert.Equal(t, []schema.RankedCandidate{{Name: "Y", Coefficient: 4}, {Name: "X", Coefficient: 2}}, scores)
}

func TestRank(t *testing.T) {
	outputs := []string{"A", "B", "C", "D"}
	tests := []struct {
		name    string
		history *schema.AnswerHistory
		n       int
		want    []string
	}{
		{name: "empty history keeps candidate order", history: historyOf(), n: 4, want: []string{"A", "B", "C", "D"}},
		{name: "nil vectors are neutral", history: historyOf(nil, nil), n: 2, want: []string{"A", "B"}},
		{name: "ties keep candidate order", history: historyOf([]float64{1, 3, 3, 2}), n: 3, want: []string{"B", "C", "D"}},
		{name: "zero is dropped inside top n", history: historyOf([]float64{0, 1, 0, 0}), n: 3, want: []string{"B"}},
		{name: "negative is dropped", history: historyOf([]float64{-1, 2, 1, 1}, []float64{1, 1, -1, 1}), n: 4, want: []string{"B", "D"}},
		{name: "NaN becomes negative", history: historyOf([]float64{math.NaN(), 1, 1, 1}), n: 4, want: []string{"B", "C", "D"}},
		{name: "n larger than outputs", history: historyOf([]float64{1, 2, 3, 4}), n: 10, want: []string{"D", "C", "B", "A"}},
		{name: "n zero", history: historyOf([]float64{1, 2, 3, 4}), n: 0, want: []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Rank(tt.history, outputs, tt.n)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRankScores_Invariants(t *testing.T) {
	h := historyOf([]float64{0.5, 3, -2, 1, 7, 0}, []float64{2, 1, 1, math.NaN(), 0.1, 5})
	outputs := []string{"a", "b", "c", "d", "e", "f"}
	for n := 0; n <= len(outputs)+1; n++ {
		ranked, err := RankScores(h, outputs, n)
		require.NoError(t, err)
		assert.LessOrEqual(t, len(ranked), n)
		for i, r := range ranked {
			assert.Greater(t, r.Coefficient, 0.0)
			if i > 0 {
				assert.GreaterOrEqual(t, ranked[i-1].Coefficient, r.Coefficient)
			}
		}
	}
}

func TestMultiChoiceMultipliesEveryChosenProposition(t *testing.T) {
	h := &schema.AnswerHistory{}
	h.Append(schema.AnswerStep{
		Question: schema.Question{ID: "3", Type: schema.MultiChoice},
		Chosen: []schema.Proposition{
			{ID: "a", Coefficients: []float64{2, 1}},
			{ID: "b", Coefficients: []float64{1, 3}},
		},
	})
	coefs, err := Coefficients(h, []string{"X", "Y"})
	require.NoError(t, err)
	assert.Equal(t, []float64{2, 3}, coefs)
}

func TestCoefficients_LengthMismatch(t *testing.T) {
	_, err := Coefficients(historyOf([]float64{1, 2, 3}), []string{"X", "Y"})
	assert.ErrorIs(t, err, contract.ErrConfiguration)
}

func TestRank_Deterministic(t *testing.T) {
	h := historyOf([]float64{1, 2, 2, 1}, []float64{3, 1, 1, 3})
	first, err := Rank(h, []string{"A", "B", "C", "D"}, 4)
	require.NoError(t, err)
	for range 5 {
		again, err := Rank(h, []string{"A", "B", "C", "D"}, 4)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestRelevantMetrics(t *testing.T) {
	h := &schema.AnswerHistory{}
	h.Append(schema.AnswerStep{Chosen: []schema.Proposition{{Metrics: []string{"Accuracy", "F1-score"}}}})
	h.Append(schema.AnswerStep{Chosen: []schema.Proposition{{Metrics: []string{"Duration"}}, {Metrics: []string{"Accuracy"}}}})
	assert.Equal(t, []string{"Accuracy", "F1-score", "Duration"}, RelevantMetrics(h))
	assert.Empty(t, RelevantMetrics(&schema.AnswerHistory{}))
}
