package outwriter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/huangsam/formpath/internal/contract"
	"github.com/huangsam/formpath/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sampleRanking = []schema.RankedCandidate{
	{Name: "XGBoost", Coefficient: 4},
	{Name: "MLP", Coefficient: 3},
	{Name: "RandomForest", Coefficient: 1},
}

func plainConfig(out schema.OutputMode, file string) *contract.Config {
	return &contract.Config{Output: out, OutputFile: file, Precision: 2, Width: 120}
}

func TestCreateFormatter(t *testing.T) {
	tests := []struct {
		precision int
		value     float64
		expected  string
	}{
		{precision: 2, value: 3.14159, expected: "3.14"},
		{precision: 0, value: 3.14159, expected: "3"},
		{precision: 4, value: -42.56789, expected: "-42.5679"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, createFormatter(tt.precision)(tt.value))
	}
}

func TestBuildRankingRows(t *testing.T) {
	rows := buildRankingRows(sampleRanking)
	require.Len(t, rows, 3)
	assert.Equal(t, 1, rows[0].Rank)
	assert.InDelta(t, 1.0, rows[0].Relative, 1e-9)
	assert.Equal(t, contract.BestValue, rows[0].Label)
	assert.InDelta(t, 0.75, rows[1].Relative, 1e-9)
	assert.Equal(t, contract.GoodValue, rows[1].Label)
	assert.Equal(t, contract.WeakValue, rows[2].Label)
	assert.Empty(t, buildRankingRows(nil))
}

func TestWriteRankingTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeRankingTable(&buf, "demo", buildRankingRows(sampleRanking), plainConfig(schema.TextOut, "")))
	out := buf.String()
	assert.Contains(t, out, "XGBoost")
	assert.Contains(t, out, "4.00")
	assert.Contains(t, out, `Best candidates for "demo" (top 3)`)

	buf.Reset()
	require.NoError(t, writeRankingTable(&buf, "demo", nil, plainConfig(schema.TextOut, "")))
	assert.Contains(t, buf.String(), "No candidate fits")
}

func TestPrintRanking_JSONAndCSV(t *testing.T) {
	dir := t.TempDir()

	jsonFile := filepath.Join(dir, "ranking.json")
	require.NoError(t, PrintRanking("demo", sampleRanking, plainConfig(schema.JSONOut, jsonFile)))
	raw, err := os.ReadFile(jsonFile)
	require.NoError(t, err)
	var rows []map[string]any
	require.NoError(t, json.Unmarshal(raw, &rows))
	require.Len(t, rows, 3)
	assert.Equal(t, "XGBoost", rows[0]["name"])
	assert.Equal(t, float64(1), rows[0]["rank"])

	csvFile := filepath.Join(dir, "ranking.csv")
	require.NoError(t, PrintRanking("demo", sampleRanking, plainConfig(schema.CSVOut, csvFile)))
	f, err := os.Open(csvFile)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()
	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 4)
	assert.Equal(t, []string{"rank", "name", "coefficient", "relative", "label"}, records[0])
	assert.Equal(t, []string{"2", "MLP", "3.00", "0.75", "Good"}, records[2])
}

func TestRender_ParquetIsRejected(t *testing.T) {
	err := PrintStats(nil, plainConfig(schema.ParquetOut, ""))
	assert.ErrorIs(t, err, contract.ErrValidation)
}

func TestWriteFormsTable(t *testing.T) {
	forms := []schema.StoredForm{
		{User: "alice", Name: "first", Ranked: []string{"XGBoost", "MLP"}, TrackingID: "exp-1", CreatedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)},
		{User: "alice", Name: "second"},
	}
	var buf bytes.Buffer
	require.NoError(t, writeFormsTable(&buf, forms))
	out := buf.String()
	assert.Contains(t, out, "XGBoost > MLP")
	assert.Contains(t, out, "2026-01-02 03:04:05")
	assert.Contains(t, out, "2 stored form(s)")

	buf.Reset()
	require.NoError(t, writeFormsTable(&buf, nil))
	assert.Equal(t, "No stored forms.\n", buf.String())
}

func TestWriteFormDetailTable(t *testing.T) {
	h := &schema.AnswerHistory{Completed: true}
	h.Append(schema.AnswerStep{
		Question: schema.Question{ID: "1", Text: "What kind of task is it?", Type: schema.SingleChoice},
		Chosen:   []schema.Proposition{{Text: "Classification"}},
	})
	h.Append(schema.AnswerStep{
		Question: schema.Question{ID: "4", Text: "Describe your dataset", Type: schema.OpenQuestion},
		Chosen:   []schema.Proposition{{Text: "Dataset description"}},
		Response: "images",
	})
	detail := schema.FormDetail{
		Form:    schema.StoredForm{User: "alice", Name: "first"},
		History: h,
		Ranking: sampleRanking[:1],
	}

	var buf bytes.Buffer
	require.NoError(t, writeFormDetailTable(&buf, detail, plainConfig(schema.TextOut, "")))
	out := buf.String()
	assert.Contains(t, out, `Form "first" of alice (created -)`)
	assert.Contains(t, out, "Dataset description: images")
	assert.Contains(t, out, "XGBoost")
	assert.Equal(t, "Classification", answerText(h.Steps[0]))
}

func TestPrintComparison(t *testing.T) {
	result := schema.Comparison{
		ExperimentID: "7",
		Metrics:      []string{"Accuracy", "Duration"},
		Models: []schema.Model{
			{Name: "fast", RunID: "r1", Metrics: map[string]float64{"Accuracy": 0.8, "Duration": 10}, Normalized: map[string]float64{"Accuracy": 0, "Duration": 1}},
			{Name: "slow", RunID: "r2", Metrics: map[string]float64{"Accuracy": 0.9, "Duration": 20}, Normalized: map[string]float64{"Accuracy": 1, "Duration": 0}},
		},
	}
	result.Pareto = []schema.ParetoPoint{{Model: result.Models[0], OnFront: true}, {Model: result.Models[1], OnFront: true}}

	var buf bytes.Buffer
	require.NoError(t, writeComparisonTable(&buf, result, frontMembership(result), plainConfig(schema.TextOut, "")))
	out := buf.String()
	assert.Contains(t, out, "Front")
	assert.Contains(t, out, "1.00 Best")
	assert.Contains(t, out, "Compared 2 run(s) of experiment 7")

	csvFile := filepath.Join(t.TempDir(), "cmp.csv")
	require.NoError(t, PrintComparison(result, plainConfig(schema.CSVOut, csvFile)))
	raw, err := os.ReadFile(csvFile)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	require.Len(t, lines, 5)
	assert.Equal(t, "fast,r1,Duration,10.00,1.00,true", lines[2])

	assert.Nil(t, frontMembership(schema.Comparison{}))
}

func TestWriteStatsAndFeedback(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeStatsTable(&buf, []schema.CandidateStat{{Name: "MLP", TopCount: 2, Appearances: 3}}))
	assert.Contains(t, buf.String(), "MLP")

	buf.Reset()
	require.NoError(t, writeStatsTable(&buf, nil))
	assert.Equal(t, "No stored rankings yet.\n", buf.String())

	buf.Reset()
	notes := []schema.Feedback{{ID: "f", User: "alice", Text: strings.Repeat("long ", 40), CreatedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}}
	require.NoError(t, writeFeedbackTable(&buf, notes, plainConfig(schema.TextOut, "")))
	assert.Contains(t, buf.String(), "...")

	buf.Reset()
	require.NoError(t, writeExperimentsTable(&buf, nil))
	assert.Equal(t, "No experiments found.\n", buf.String())
}

func TestGetMaxTextWidth(t *testing.T) {
	tests := []struct {
		width, fixed, want int
	}{
		{width: 40, fixed: 30, want: 15},
		{width: 100, fixed: 30, want: 50},
		{width: 300, fixed: 30, want: 70},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, GetMaxTextWidth(&contract.Config{Width: tt.width}, tt.fixed))
	}
}
