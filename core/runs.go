package core

import (
	"context"
	"fmt"

	"github.com/huangsam/formpath/internal/contract"
	"github.com/huangsam/formpath/internal/outwriter"
	"github.com/huangsam/formpath/internal/store"
	"github.com/huangsam/formpath/schema"
	"go.uber.org/zap"
)

func openTracker(mgr contract.StoreManager) (contract.Tracker, error) {
	tracker := mgr.GetTracker()
	if tracker == nil {
		return nil, contract.ConfigErrorf("tracker is not initialized")
	}
	return tracker, nil
}

// ExecuteExperiments lists the experiments whose name starts with the configured prefix.
func ExecuteExperiments(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) error {
	tracker, err := openTracker(mgr)
	if err != nil {
		return err
	}
	experiments, err := tracker.ListExperiments(ctx, cfg.ExperimentPrefix)
	if err != nil {
		return err
	}
	return outwriter.NewOutWriter().WriteExperiments(experiments, cfg)
}

// ExecuteCompare normalizes the chosen metrics across the runs of one experiment.
func ExecuteCompare(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) error {
	tracker, err := openTracker(mgr)
	if err != nil {
		return err
	}
	result, err := CompareRuns(ctx, tracker, cfg.ExperimentID, cfg.Metrics, cfg.Directions)
	if err != nil {
		return err
	}
	loggerFrom(ctx).Debug("runs compared",
		zap.String("experiment", result.ExperimentID),
		zap.Int("models", len(result.Models)),
		zap.Int("pareto", len(result.Pareto)))
	return outwriter.NewOutWriter().WriteComparison(result, cfg)
}

// ExecuteRunShow prints one tracked run with its artifacts.
func ExecuteRunShow(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) error {
	tracker, err := openTracker(mgr)
	if err != nil {
		return err
	}
	if cfg.RunID == "" {
		return contract.ValidationErrorf("run id is required")
	}
	run, err := tracker.GetRun(ctx, cfg.RunID)
	if err != nil {
		return err
	}
	artifacts, err := tracker.ListArtifacts(ctx, cfg.RunID)
	if err != nil {
		return err
	}
	return outwriter.NewOutWriter().WriteRunDetail(schema.RunDetail{Run: run, Artifacts: artifacts}, cfg)
}

// ExecuteExport writes the runs of one experiment to Parquet files. Metrics are
// normalized when any are chosen.
func ExecuteExport(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) error {
	tracker, err := openTracker(mgr)
	if err != nil {
		return err
	}
	if cfg.ExperimentID == "" {
		return contract.ValidationErrorf("experiment id is required")
	}
	if cfg.OutputFile == "" {
		return contract.ValidationErrorf("--output-file is required for export")
	}

	var (
		runs   []schema.Run
		points []schema.ParetoPoint
	)
	if len(cfg.Metrics) > 0 {
		result, err := CompareRuns(ctx, tracker, cfg.ExperimentID, cfg.Metrics, cfg.Directions)
		if err != nil {
			return err
		}
		runs = result.Runs
		points = exportPoints(result)
	} else {
		if runs, err = tracker.ListRuns(ctx, cfg.ExperimentID); err != nil {
			return err
		}
		points = exportPoints(schema.Comparison{Models: ModelsFromRuns(runs)})
	}

	summary, err := store.ExportRuns(cfg.OutputFile, runs, points)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(stdout, "Exported %d runs to %s\nExported %d metric rows to %s\n",
		summary.RunCount, summary.RunsFile, summary.MetricCount, summary.MetricsFile)
	return err
}

// exportPoints keeps the Pareto marks when there are any and lists every model otherwise.
func exportPoints(result schema.Comparison) []schema.ParetoPoint {
	front := make(map[string]bool, len(result.Pareto))
	for _, p := range result.Pareto {
		front[p.Model.RunID] = p.OnFront
	}
	points := make([]schema.ParetoPoint, 0, len(result.Models))
	for _, m := range result.Models {
		points = append(points, schema.ParetoPoint{Model: m, OnFront: front[m.RunID]})
	}
	return points
}
