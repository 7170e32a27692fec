package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/huangsam/formpath/internal/contract"
	"github.com/huangsam/formpath/schema"
	"github.com/olekukonko/tablewriter"
)

// formatCreated renders a creation time, or a dash when unknown.
func formatCreated(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format(time.DateTime)
}

// formatBest returns the first ranked candidate, or a dash.
func formatBest(f schema.StoredForm) string {
	if len(f.Ranked) == 0 {
		return "-"
	}
	return f.Ranked[0]
}

// PrintForms outputs the stored forms of a user.
func PrintForms(forms []schema.StoredForm, cfg *contract.Config) error {
	return render(cfg, renderer{
		data:   forms,
		header: []string{"user", "name", "best", "ranked", "tracking_id", "created_at"},
		rows: func(w *csv.Writer) error {
			for _, f := range forms {
				created := ""
				if !f.CreatedAt.IsZero() {
					created = f.CreatedAt.Format(time.RFC3339)
				}
				if err := w.Write([]string{f.User, f.Name, formatBest(f), strings.Join(f.Ranked, ";"), f.TrackingID, created}); err != nil {
					return err
				}
			}
			return nil
		},
		table: func(w io.Writer) error {
			return writeFormsTable(w, forms)
		},
	})
}

// writeFormsTable renders stored forms as a table.
func writeFormsTable(w io.Writer, forms []schema.StoredForm) error {
	if len(forms) == 0 {
		_, err := fmt.Fprintln(w, "No stored forms.")
		return err
	}
	table := tablewriter.NewWriter(w)
	table.Header([]string{"Form", "Best", "Ranking", "Tracking", "Created"})
	data := make([][]string, 0, len(forms))
	for _, f := range forms {
		tracking := f.TrackingID
		if tracking == "" {
			tracking = "-"
		}
		data = append(data, []string{f.Name, formatBest(f), strings.Join(f.Ranked, " > "), tracking, formatCreated(f.CreatedAt)})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "%d stored form(s)\n", len(forms))
	return err
}

// answerText joins the chosen propositions and the free-text response of a step.
func answerText(step schema.AnswerStep) string {
	text := strings.Join(step.ChosenTexts(), ", ")
	if step.Response != "" {
		text += ": " + step.Response
	}
	return text
}

// PrintFormDetail outputs one stored form with its answers and ranking.
func PrintFormDetail(detail schema.FormDetail, cfg *contract.Config) error {
	return render(cfg, renderer{
		data:   detail,
		header: []string{"step", "question_id", "question", "type", "answer"},
		rows: func(w *csv.Writer) error {
			for i, step := range detail.History.Steps {
				row := []string{strconv.Itoa(i + 1), step.Question.ID, step.Question.Text, string(step.Question.Type), answerText(step)}
				if err := w.Write(row); err != nil {
					return err
				}
			}
			return nil
		},
		table: func(w io.Writer) error {
			return writeFormDetailTable(w, detail, cfg)
		},
	})
}

// writeFormDetailTable renders the answers of a form followed by its ranking.
func writeFormDetailTable(w io.Writer, detail schema.FormDetail, cfg *contract.Config) error {
	if _, err := fmt.Fprintf(w, "Form %q of %s (created %s)\n", detail.Form.Name, detail.Form.User, formatCreated(detail.Form.CreatedAt)); err != nil {
		return err
	}

	textWidth := GetMaxTextWidth(cfg, 30)
	table := tablewriter.NewWriter(w)
	table.Header([]string{"Step", "Question", "Answer"})
	data := make([][]string, 0, detail.History.Len())
	for i, step := range detail.History.Steps {
		data = append(data, []string{
			strconv.Itoa(i + 1),
			contract.TruncateText(step.Question.Text, textWidth),
			contract.TruncateText(answerText(step), textWidth),
		})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}
	return writeRankingTable(w, detail.Form.Name, buildRankingRows(detail.Ranking), cfg)
}
