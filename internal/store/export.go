package store

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/huangsam/formpath/internal/parquet"
	"github.com/huangsam/formpath/schema"
)

// ExportSummary lists the files written by an export.
type ExportSummary struct {
	RunsFile    string
	RunCount    int
	MetricsFile string
	MetricCount int
}

// ExportRuns writes runs and compared models to two Parquet files named after outputFile.
func ExportRuns(outputFile string, runs []schema.Run, points []schema.ParetoPoint) (ExportSummary, error) {
	if outputFile == "" {
		return ExportSummary{}, errors.New("--output-file is required for export command")
	}
	if len(runs) == 0 {
		return ExportSummary{}, errors.New("no runs found to export")
	}

	parquetRuns, err := parquet.ConvertRuns(runs, encodeParams)
	if err != nil {
		return ExportSummary{}, err
	}
	summary := ExportSummary{
		RunsFile:    outputFile + ".runs.parquet",
		RunCount:    len(parquetRuns),
		MetricsFile: outputFile + ".metrics.parquet",
	}
	if err := parquet.WriteRunsParquet(parquetRuns, summary.RunsFile); err != nil {
		return ExportSummary{}, fmt.Errorf("failed to write runs: %w", err)
	}

	metrics := parquet.ConvertModels(points)
	summary.MetricCount = len(metrics)
	if err := parquet.WriteRunMetricsParquet(metrics, summary.MetricsFile); err != nil {
		return ExportSummary{}, fmt.Errorf("failed to write metrics: %w", err)
	}
	return summary, nil
}

// encodeParams encodes run params as a JSON object.
func encodeParams(params map[string]string) (string, error) {
	data, err := json.Marshal(params)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
