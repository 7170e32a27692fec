// Package algo holds the numeric core: answer scoring, metric normalization and
// Pareto ranking.
package algo

import (
	"cmp"
	"math"
	"slices"

	"github.com/huangsam/formpath/internal/contract"
	"github.com/huangsam/formpath/schema"
	"gonum.org/v1/gonum/floats"
)

// Coefficients multiplies the weight vectors of every chosen proposition in the
// history, starting from 1.0 per output. Nil vectors are neutral. NaN becomes -1.
func Coefficients(history *schema.AnswerHistory, outputs []string) ([]float64, error) {
	coefs := make([]float64, len(outputs))
	for i := range coefs {
		coefs[i] = 1
	}

	for _, step := range history.Steps {
		for _, p := range step.Chosen {
			if p.Coefficients == nil {
				continue
			}
			if len(p.Coefficients) != len(coefs) {
				return nil, contract.ConfigErrorf("proposition %q of question %q has %d coefficients for %d outputs",
					p.ID, step.Question.ID, len(p.Coefficients), len(coefs))
			}
			floats.Mul(coefs, p.Coefficients)
		}
	}

	for i, c := range coefs {
		if math.IsNaN(c) {
			coefs[i] = -1
		}
	}
	return coefs, nil
}

// RankScores returns at most n candidates in non-increasing coefficient order.
// Ties keep the order of outputs and candidates with a coefficient <= 0 are dropped.
func RankScores(history *schema.AnswerHistory, outputs []string, n int) ([]schema.RankedCandidate, error) {
	coefs, err := Coefficients(history, outputs)
	if err != nil {
		return nil, err
	}

	order := make([]int, len(outputs))
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(a, b int) int {
		return cmp.Compare(coefs[b], coefs[a])
	})

	if n < 0 {
		n = 0
	}
	if len(order) > n {
		order = order[:n]
	}

	ranked := make([]schema.RankedCandidate, 0, len(order))
	for _, idx := range order {
		if coefs[idx] <= 0 {
			continue
		}
		ranked = append(ranked, schema.RankedCandidate{Name: outputs[idx], Coefficient: coefs[idx]})
	}
	return ranked, nil
}

// Rank is RankScores without the coefficients.
func Rank(history *schema.AnswerHistory, outputs []string, n int) ([]string, error) {
	ranked, err := RankScores(history, outputs, n)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(ranked))
	for i, r := range ranked {
		names[i] = r.Name
	}
	return names, nil
}

// RelevantMetrics returns the metric tags of every chosen proposition, first occurrence first.
func RelevantMetrics(history *schema.AnswerHistory) []string {
	seen := make(map[string]struct{})
	var metrics []string
	for _, step := range history.Steps {
		for _, p := range step.Chosen {
			for _, m := range p.Metrics {
				if _, ok := seen[m]; ok {
					continue
				}
				seen[m] = struct{}{}
				metrics = append(metrics, m)
			}
		}
	}
	return metrics
}
