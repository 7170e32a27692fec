// Package parquet exports tracked runs and model rankings to Parquet files
// using github.com/parquet-go/parquet-go.
package parquet

import (
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/huangsam/formpath/schema"
	"github.com/parquet-go/parquet-go"
)

// Run is one tracked run with its metadata.
type Run struct {
	// RunID is the tracker's identifier of the run
	RunID string `parquet:"run_id,snappy"`

	ExperimentID string `parquet:"experiment_id,snappy"`
	RunName      string `parquet:"run_name,snappy"`
	Status       string `parquet:"status,snappy"`

	// StartTime is when the run began (stored as TIMESTAMP with nanosecond precision)
	StartTime time.Time `parquet:"start_time,snappy"`

	// EndTime is when the run finished (nullable while the run is active)
	EndTime *time.Time `parquet:"end_time,optional,snappy"`

	// Params contains the JSON-encoded run parameters (nullable)
	Params *string `parquet:"params,optional,snappy"`
}

// RunMetric is one metric value of one run, in long format.
type RunMetric struct {
	RunID     string `parquet:"run_id,snappy"`
	ModelName string `parquet:"model_name,snappy"`
	Metric    string `parquet:"metric,snappy"`

	// Value is the raw value as logged
	Value float64 `parquet:"value,snappy"`

	// Normalized is the value mapped to [0,1] (nullable when the metric has no direction)
	Normalized *float64 `parquet:"normalized,optional,snappy"`

	// OnFront marks models on the Pareto front of the exported comparison
	OnFront bool `parquet:"on_front,snappy"`
}

// write writes rows of any struct type to a Parquet file.
func write[T any](data []T, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() { _ = file.Close() }()

	// The schema is derived from the struct tags of T
	writer := parquet.NewGenericWriter[T](file)
	if _, err := writer.Write(data); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write data to parquet file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize parquet file: %w", err)
	}
	return nil
}

// WriteRunsParquet writes runs to a Parquet file.
func WriteRunsParquet(data []Run, outputPath string) error {
	return write(data, outputPath)
}

// WriteRunMetricsParquet writes metric rows to a Parquet file.
func WriteRunMetricsParquet(data []RunMetric, outputPath string) error {
	return write(data, outputPath)
}

// ConvertRuns converts tracked runs for Parquet export.
func ConvertRuns(runs []schema.Run, encodeParams func(map[string]string) (string, error)) ([]Run, error) {
	result := make([]Run, len(runs))
	for i, r := range runs {
		result[i] = Run{
			RunID:        r.ID,
			ExperimentID: r.ExperimentID,
			RunName:      r.Name,
			Status:       r.Status,
			StartTime:    r.StartTime,
		}
		if !r.EndTime.IsZero() {
			end := r.EndTime
			result[i].EndTime = &end
		}
		if len(r.Params) > 0 && encodeParams != nil {
			encoded, err := encodeParams(r.Params)
			if err != nil {
				return nil, fmt.Errorf("run %q: %w", r.ID, err)
			}
			result[i].Params = &encoded
		}
	}
	return result, nil
}

// ConvertModels flattens compared models into metric rows, ordered by model then metric.
func ConvertModels(points []schema.ParetoPoint) []RunMetric {
	var result []RunMetric
	for _, p := range points {
		names := make([]string, 0, len(p.Model.Metrics))
		for name := range p.Model.Metrics {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			row := RunMetric{
				RunID:     p.Model.RunID,
				ModelName: p.Model.Name,
				Metric:    name,
				Value:     p.Model.Metrics[name],
				OnFront:   p.OnFront,
			}
			if v, ok := p.Model.Normalized[name]; ok {
				norm := v
				row.Normalized = &norm
			}
			result = append(result, row)
		}
	}
	return result
}
