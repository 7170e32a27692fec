package core

import (
	"context"
	"fmt"

	"github.com/huangsam/formpath/core/algo"
	"github.com/huangsam/formpath/internal/contract"
	"github.com/huangsam/formpath/schema"
)

// ModelsFromRuns turns tracked runs into models keyed by run name.
func ModelsFromRuns(runs []schema.Run) []schema.Model {
	models := make([]schema.Model, 0, len(runs))
	for _, r := range runs {
		name := r.Name
		if name == "" {
			name = r.ID
		}
		models = append(models, schema.Model{
			Name:         name,
			RunID:        r.ID,
			ExperimentID: r.ExperimentID,
			Metrics:      r.Metrics,
			Params:       r.Params,
		})
	}
	return models
}

// CompareRuns loads the runs of an experiment and normalizes the requested metrics.
// When exactly two metrics are requested the Pareto front over them is computed too.
func CompareRuns(ctx context.Context, tracker contract.Tracker, experimentID string, metrics []string, directions schema.MetricDirections) (schema.Comparison, error) {
	if experimentID == "" {
		return schema.Comparison{}, contract.ValidationErrorf("experiment id is required")
	}
	if len(metrics) == 0 {
		return schema.Comparison{}, contract.ValidationErrorf("at least one metric is required")
	}

	runs, err := tracker.ListRuns(ctx, experimentID)
	if err != nil {
		return schema.Comparison{}, fmt.Errorf("list runs of experiment %q: %w", experimentID, err)
	}
	if len(runs) == 0 {
		return schema.Comparison{}, fmt.Errorf("%w: experiment %q has no runs", contract.ErrNotFound, experimentID)
	}

	models := ModelsFromRuns(runs)
	if err := algo.Normalize(models, metrics, directions); err != nil {
		return schema.Comparison{}, err
	}

	out := schema.Comparison{ExperimentID: experimentID, Metrics: metrics, Models: models, Runs: runs}
	if len(metrics) == 2 {
		withBoth := make([]schema.Model, 0, len(models))
		for _, m := range models {
			_, ok1 := m.Normalized[metrics[0]]
			_, ok2 := m.Normalized[metrics[1]]
			if ok1 && ok2 {
				withBoth = append(withBoth, m)
			}
		}
		if out.Pareto, err = algo.Pareto(withBoth, metrics[0], metrics[1]); err != nil {
			return schema.Comparison{}, err
		}
	}
	return out, nil
}
