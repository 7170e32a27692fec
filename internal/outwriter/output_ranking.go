package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/huangsam/formpath/internal/contract"
	"github.com/huangsam/formpath/schema"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// rankingRow is one ranked candidate as written to JSON.
type rankingRow struct {
	Rank        int     `json:"rank"`
	Name        string  `json:"name"`
	Coefficient float64 `json:"coefficient"`
	Relative    float64 `json:"relative"`
	Label       string  `json:"label"`
}

// buildRankingRows computes each candidate's coefficient relative to the best one.
func buildRankingRows(ranked []schema.RankedCandidate) []rankingRow {
	rows := make([]rankingRow, 0, len(ranked))
	top := 0.0
	if len(ranked) > 0 {
		top = ranked[0].Coefficient
	}
	for i, r := range ranked {
		rel := 0.0
		if top > 0 {
			rel = r.Coefficient / top
		}
		rows = append(rows, rankingRow{
			Rank:        i + 1,
			Name:        r.Name,
			Coefficient: r.Coefficient,
			Relative:    rel,
			Label:       contract.GetPlainLabel(rel),
		})
	}
	return rows
}

// PrintRanking outputs the ranking of a form in the configured format.
func PrintRanking(form string, ranked []schema.RankedCandidate, cfg *contract.Config) error {
	rows := buildRankingRows(ranked)
	fmtFloat := createFormatter(cfg.Precision)
	return render(cfg, renderer{
		data:   rows,
		header: []string{"rank", "name", "coefficient", "relative", "label"},
		rows: func(w *csv.Writer) error {
			for _, r := range rows {
				if err := w.Write([]string{strconv.Itoa(r.Rank), r.Name, fmtFloat(r.Coefficient), fmtFloat(r.Relative), r.Label}); err != nil {
					return err
				}
			}
			return nil
		},
		table: func(w io.Writer) error {
			return writeRankingTable(w, form, rows, cfg)
		},
	})
}

// writeRankingTable renders the ranking as a human-readable table.
func writeRankingTable(w io.Writer, form string, rows []rankingRow, cfg *contract.Config) error {
	if len(rows) == 0 {
		_, err := fmt.Fprintf(w, "No candidate fits form %q.\n", form)
		return err
	}

	fmtFloat := createFormatter(cfg.Precision)
	table := tablewriter.NewWriter(w)
	table.Header([]string{"Rank", "Candidate", "Coefficient", "Label"})
	table.Configure(func(c *tablewriter.Config) {
		c.Row.Alignment.Global = tw.AlignRight
	})

	data := make([][]string, 0, len(rows))
	for _, r := range rows {
		data = append(data, []string{strconv.Itoa(r.Rank), r.Name, fmtFloat(r.Coefficient), labelFor(cfg, r.Relative)})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "Best candidates for %q (top %d)\n", form, len(rows))
	return err
}
