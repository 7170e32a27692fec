package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/huangsam/formpath/internal/contract"
	"github.com/huangsam/formpath/schema"
	"github.com/olekukonko/tablewriter"
)

// PrintStats outputs how often each candidate was recommended.
func PrintStats(stats []schema.CandidateStat, cfg *contract.Config) error {
	return render(cfg, renderer{
		data:   stats,
		header: []string{"name", "top_count", "appearances"},
		rows: func(w *csv.Writer) error {
			for _, s := range stats {
				if err := w.Write([]string{s.Name, strconv.Itoa(s.TopCount), strconv.Itoa(s.Appearances)}); err != nil {
					return err
				}
			}
			return nil
		},
		table: func(w io.Writer) error {
			return writeStatsTable(w, stats)
		},
	})
}

// writeStatsTable renders candidate statistics as a table.
func writeStatsTable(w io.Writer, stats []schema.CandidateStat) error {
	if len(stats) == 0 {
		_, err := fmt.Fprintln(w, "No stored rankings yet.")
		return err
	}
	table := tablewriter.NewWriter(w)
	table.Header([]string{"Candidate", "Ranked first", "Ranked"})
	data := make([][]string, 0, len(stats))
	for _, s := range stats {
		data = append(data, []string{s.Name, strconv.Itoa(s.TopCount), strconv.Itoa(s.Appearances)})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}

// PrintFeedback outputs the feedback notes of a user.
func PrintFeedback(notes []schema.Feedback, cfg *contract.Config) error {
	return render(cfg, renderer{
		data:   notes,
		header: []string{"id", "user", "text", "created_at"},
		rows: func(w *csv.Writer) error {
			for _, n := range notes {
				if err := w.Write([]string{n.ID, n.User, n.Text, n.CreatedAt.Format(time.RFC3339)}); err != nil {
					return err
				}
			}
			return nil
		},
		table: func(w io.Writer) error {
			return writeFeedbackTable(w, notes, cfg)
		},
	})
}

// writeFeedbackTable renders feedback notes as a table.
func writeFeedbackTable(w io.Writer, notes []schema.Feedback, cfg *contract.Config) error {
	if len(notes) == 0 {
		_, err := fmt.Fprintln(w, "No feedback.")
		return err
	}
	textWidth := GetMaxTextWidth(cfg, 25)
	table := tablewriter.NewWriter(w)
	table.Header([]string{"Created", "Feedback"})
	data := make([][]string, 0, len(notes))
	for _, n := range notes {
		data = append(data, []string{formatCreated(n.CreatedAt), contract.TruncateText(n.Text, textWidth)})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}
