package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"maps"
	"slices"
	"strconv"
	"time"

	"github.com/huangsam/formpath/internal/contract"
	"github.com/huangsam/formpath/schema"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// frontMembership maps run ids to their Pareto status. It is nil when no front was computed.
func frontMembership(result schema.Comparison) map[string]bool {
	if result.Pareto == nil {
		return nil
	}
	front := make(map[string]bool, len(result.Pareto))
	for _, p := range result.Pareto {
		front[p.Model.RunID] = p.OnFront
	}
	return front
}

// PrintComparison outputs normalized metrics per model and, for two metrics, the Pareto front.
func PrintComparison(result schema.Comparison, cfg *contract.Config) error {
	fmtFloat := createFormatter(cfg.Precision)
	front := frontMembership(result)
	return render(cfg, renderer{
		data:   result,
		header: []string{"model", "run_id", "metric", "value", "normalized", "on_front"},
		rows: func(w *csv.Writer) error {
			for _, m := range result.Models {
				for _, metric := range result.Metrics {
					norm, ok := m.Normalized[metric]
					if !ok {
						continue
					}
					raw := ""
					if v, ok := m.Metrics[metric]; ok {
						raw = fmtFloat(v)
					}
					onFront := ""
					if front != nil {
						onFront = strconv.FormatBool(front[m.RunID])
					}
					if err := w.Write([]string{m.Name, m.RunID, metric, raw, fmtFloat(norm), onFront}); err != nil {
						return err
					}
				}
			}
			return nil
		},
		table: func(w io.Writer) error {
			return writeComparisonTable(w, result, front, cfg)
		},
	})
}

// writeComparisonTable renders one row per model with raw and normalized values.
func writeComparisonTable(w io.Writer, result schema.Comparison, front map[string]bool, cfg *contract.Config) error {
	fmtFloat := createFormatter(cfg.Precision)
	table := tablewriter.NewWriter(w)

	headers := []string{"Model"}
	for _, metric := range result.Metrics {
		headers = append(headers, metric, "Norm")
	}
	if front != nil {
		headers = append(headers, "Front")
	}
	table.Header(headers)
	table.Configure(func(c *tablewriter.Config) {
		c.Row.Alignment.Global = tw.AlignRight
	})

	data := make([][]string, 0, len(result.Models))
	for _, m := range result.Models {
		row := []string{m.Name}
		for _, metric := range result.Metrics {
			raw := "-"
			if v, ok := m.Metrics[metric]; ok {
				raw = fmtFloat(v)
			}
			norm := "-"
			if v, ok := m.Normalized[metric]; ok {
				norm = fmtFloat(v) + " " + labelFor(cfg, v)
			}
			row = append(row, raw, norm)
		}
		if front != nil {
			mark := ""
			if front[m.RunID] {
				mark = "yes"
				if cfg.UseColors {
					mark = contract.FrontColor.Sprint(mark)
				}
			}
			row = append(row, mark)
		}
		data = append(data, row)
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "Compared %d run(s) of experiment %s\n", len(result.Models), result.ExperimentID)
	return err
}

// PrintExperiments outputs tracked experiments.
func PrintExperiments(experiments []schema.Experiment, cfg *contract.Config) error {
	return render(cfg, renderer{
		data:   experiments,
		header: []string{"id", "name", "artifact_location", "created_at"},
		rows: func(w *csv.Writer) error {
			for _, e := range experiments {
				created := ""
				if !e.CreatedAt.IsZero() {
					created = e.CreatedAt.Format(time.RFC3339)
				}
				if err := w.Write([]string{e.ID, e.Name, e.ArtifactLocation, created}); err != nil {
					return err
				}
			}
			return nil
		},
		table: func(w io.Writer) error {
			return writeExperimentsTable(w, experiments)
		},
	})
}

// writeExperimentsTable renders experiments as a table.
func writeExperimentsTable(w io.Writer, experiments []schema.Experiment) error {
	if len(experiments) == 0 {
		_, err := fmt.Fprintln(w, "No experiments found.")
		return err
	}
	table := tablewriter.NewWriter(w)
	table.Header([]string{"ID", "Name", "Created"})
	data := make([][]string, 0, len(experiments))
	for _, e := range experiments {
		data = append(data, []string{e.ID, e.Name, formatCreated(e.CreatedAt)})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}

// PrintRunDetail outputs the metrics, params and artifacts of one run.
func PrintRunDetail(detail schema.RunDetail, cfg *contract.Config) error {
	fmtFloat := createFormatter(cfg.Precision)
	metricNames := slices.Sorted(maps.Keys(detail.Run.Metrics))
	paramNames := slices.Sorted(maps.Keys(detail.Run.Params))
	return render(cfg, renderer{
		data:   detail,
		header: []string{"kind", "key", "value"},
		rows: func(w *csv.Writer) error {
			for _, name := range metricNames {
				if err := w.Write([]string{"metric", name, fmtFloat(detail.Run.Metrics[name])}); err != nil {
					return err
				}
			}
			for _, name := range paramNames {
				if err := w.Write([]string{"param", name, detail.Run.Params[name]}); err != nil {
					return err
				}
			}
			for _, a := range detail.Artifacts {
				if err := w.Write([]string{"artifact", a.Path, strconv.FormatInt(a.Size, 10)}); err != nil {
					return err
				}
			}
			return nil
		},
		table: func(w io.Writer) error {
			return writeRunDetailTable(w, detail, metricNames, paramNames, cfg)
		},
	})
}

// writeRunDetailTable renders a run as a key/value table followed by its artifacts.
func writeRunDetailTable(w io.Writer, detail schema.RunDetail, metricNames, paramNames []string, cfg *contract.Config) error {
	run := detail.Run
	if _, err := fmt.Fprintf(w, "Run %s (%s) of experiment %s, status %s\n", run.ID, run.Name, run.ExperimentID, run.Status); err != nil {
		return err
	}

	fmtFloat := createFormatter(cfg.Precision)
	textWidth := GetMaxTextWidth(cfg, 25)
	table := tablewriter.NewWriter(w)
	table.Header([]string{"Kind", "Key", "Value"})
	data := make([][]string, 0, len(metricNames)+len(paramNames))
	for _, name := range metricNames {
		data = append(data, []string{"metric", name, fmtFloat(run.Metrics[name])})
	}
	for _, name := range paramNames {
		data = append(data, []string{"param", name, contract.TruncateText(run.Params[name], textWidth)})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}

	if len(detail.Artifacts) == 0 {
		_, err := fmt.Fprintln(w, "No artifacts.")
		return err
	}
	for _, a := range detail.Artifacts {
		if _, err := fmt.Fprintf(w, "  %s (%d bytes)\n", a.Path, a.Size); err != nil {
			return err
		}
	}
	return nil
}
