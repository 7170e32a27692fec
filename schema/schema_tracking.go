package schema

import "time"

// Experiment groups runs in the tracking service.
type Experiment struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	ArtifactLocation string    `json:"artifact_location,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

// Run is one recorded training or evaluation run.
type Run struct {
	ID           string             `json:"id"`
	ExperimentID string             `json:"experiment_id"`
	Name         string             `json:"name"`
	Status       string             `json:"status"`
	StartTime    time.Time          `json:"start_time"`
	EndTime      time.Time          `json:"end_time"`
	Metrics      map[string]float64 `json:"metrics"`
	Params       map[string]string  `json:"params"`
}

// Artifact is a file logged against a run.
type Artifact struct {
	Path  string `json:"path"`
	IsDir bool   `json:"is_dir"`
	Size  int64  `json:"size"`
}

// RunDetail is one run with its logged artifacts.
type RunDetail struct {
	Run       Run        `json:"run"`
	Artifacts []Artifact `json:"artifacts"`
}

// Model is a run as seen by the normalizer. Metrics hold raw values and are
// never mutated; Normalized holds [0,1] values filled in by normalization.
type Model struct {
	Name         string             `json:"name"`
	RunID        string             `json:"run_id"`
	ExperimentID string             `json:"experiment_id"`
	Metrics      map[string]float64 `json:"metrics"`
	Params       map[string]string  `json:"params,omitempty"`
	Normalized   map[string]float64 `json:"normalized"`
}

// ParetoPoint marks whether a model sits on the Pareto front of two metrics.
type ParetoPoint struct {
	Model   Model `json:"model"`
	OnFront bool  `json:"on_front"`
}

// MetricDirections maps metric names to their direction.
type MetricDirections map[string]MetricDirection

// NewMetricDirections builds the direction table. A name listed in both wins as higher.
func NewMetricDirections(higher, lower []string) MetricDirections {
	d := make(MetricDirections, len(higher)+len(lower))
	for _, m := range lower {
		d[m] = LowerIsBetter
	}
	for _, m := range higher {
		d[m] = HigherIsBetter
	}
	return d
}

// Known reports whether the metric can be normalized. GlobalScore is always known.
func (d MetricDirections) Known(metric string) bool {
	if metric == GlobalScore {
		return true
	}
	_, ok := d[metric]
	return ok
}

// Comparison is the outcome of comparing the runs of one experiment.
type Comparison struct {
	ExperimentID string        `json:"experiment_id"`
	Metrics      []string      `json:"metrics"`
	Models       []Model       `json:"models"`
	Pareto       []ParetoPoint `json:"pareto,omitempty"`
	Runs         []Run         `json:"-"`
}
