package algo

import (
	"cmp"
	"slices"

	"github.com/huangsam/formpath/internal/contract"
	"github.com/huangsam/formpath/schema"
)

// Pareto marks which models sit on the Pareto front of two normalized metrics, both
// maximized. The result is sorted by descending m1+m2. Comparisons are strict, so two
// models with equal values on both axes can both be on the front.
func Pareto(models []schema.Model, m1, m2 string) ([]schema.ParetoPoint, error) {
	type point struct {
		model   schema.Model
		x, y    float64
		onFront bool
		done    bool
	}

	points := make([]point, len(models))
	for i, m := range models {
		x, ok1 := m.Normalized[m1]
		y, ok2 := m.Normalized[m2]
		if !ok1 || !ok2 {
			return nil, contract.ConfigErrorf("model %q has no normalized value for %q and %q", m.Name, m1, m2)
		}
		points[i] = point{model: m, x: x, y: y}
	}

	slices.SortStableFunc(points, func(a, b point) int {
		return cmp.Compare(b.x+b.y, a.x+a.y)
	})

	dominates := func(a, b point) bool { return a.x > b.x && a.y > b.y }

	for i := range points {
		if points[i].done {
			continue
		}
		points[i].onFront = true
		for j := i + 1; j < len(points); j++ {
			if dominates(points[i], points[j]) {
				points[j].done = true
				points[j].onFront = false
				continue
			}
			if dominates(points[j], points[i]) {
				points[i].onFront = false
				break
			}
		}
		points[i].done = true
	}

	result := make([]schema.ParetoPoint, len(points))
	for i, p := range points {
		result[i] = schema.ParetoPoint{Model: p.model, OnFront: p.onFront}
	}
	return result, nil
}
