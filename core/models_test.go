package core

import (
	"context"
	"errors"
	"testing"

	"github.com/huangsam/formpath/internal/contract"
	"github.com/huangsam/formpath/internal/store"
	"github.com/huangsam/formpath/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var testDirections = schema.NewMetricDirections(schema.DefaultHigherMetrics, schema.DefaultLowerMetrics)

func TestCompareRuns(t *testing.T) {
	ctx := context.Background()
	tracker, err := store.NewSQLTracker(schema.SQLiteBackend, ":memory:", nil)
	require.NoError(t, err)
	defer func() { _ = tracker.Close() }()

	expID, err := tracker.CreateExperiment(ctx, "formpath-demo")
	require.NoError(t, err)
	for name, m := range map[string]map[string]float64{
		"fast":     {"Accuracy": 0.80, "Duration": 10},
		"slow":     {"Accuracy": 0.95, "Duration": 20},
		"balanced": {"Accuracy": 0.70, "Duration": 15},
	} {
		_, err := tracker.LogRun(ctx, expID, name, m, map[string]string{"seed": "1"})
		require.NoError(t, err)
	}

	got, err := CompareRuns(ctx, tracker, expID, []string{"Accuracy", "Duration"}, testDirections)
	require.NoError(t, err)
	require.Len(t, got.Models, 3)
	require.Len(t, got.Pareto, 3)

	byName := map[string]schema.Model{}
	for _, m := range got.Models {
		byName[m.Name] = m
	}
	assert.InDelta(t, 1.0, byName["fast"].Normalized["Duration"], 1e-9)
	assert.InDelta(t, 0.0, byName["slow"].Normalized["Duration"], 1e-9)
	assert.InDelta(t, 1.0, byName["slow"].Normalized["Accuracy"], 1e-9)

	front := map[string]bool{}
	for _, p := range got.Pareto {
		front[p.Model.Name] = p.OnFront
	}
	assert.Equal(t, map[string]bool{"fast": true, "slow": true, "balanced": false}, front)
}

func TestCompareRuns_SingleMetricHasNoFront(t *testing.T) {
	m := &store.MockTracker{}
	m.On("ListRuns", mock.Anything, "1").Return([]schema.Run{
		{ID: "r1", Metrics: map[string]float64{"AUC": 0.6}},
		{ID: "r2", Name: "named", Metrics: map[string]float64{"AUC": 0.9}},
	}, nil)

	got, err := CompareRuns(context.Background(), m, "1", []string{"AUC"}, testDirections)
	require.NoError(t, err)
	assert.Nil(t, got.Pareto)
	assert.Equal(t, "r1", got.Models[0].Name, "unnamed runs fall back to their id")
	assert.Equal(t, "named", got.Models[1].Name)
}

func TestCompareRuns_Errors(t *testing.T) {
	down := &store.MockTracker{}
	down.On("ListRuns", mock.Anything, "1").Return(nil, contract.Unavailable("mlflow", errors.New("refused")))
	empty := &store.MockTracker{}
	empty.On("ListRuns", mock.Anything, "1").Return([]schema.Run{}, nil)
	some := &store.MockTracker{}
	some.On("ListRuns", mock.Anything, "1").Return([]schema.Run{{ID: "r", Metrics: map[string]float64{"AUC": 1}}}, nil)

	tests := []struct {
		name    string
		tracker contract.Tracker
		expID   string
		metrics []string
		want    error
	}{
		{name: "no experiment", tracker: some, expID: "", metrics: []string{"AUC"}, want: contract.ErrValidation},
		{name: "no metric", tracker: some, expID: "1", metrics: nil, want: contract.ErrValidation},
		{name: "unavailable", tracker: down, expID: "1", metrics: []string{"AUC"}, want: contract.ErrUnavailable},
		{name: "no runs", tracker: empty, expID: "1", metrics: []string{"AUC"}, want: contract.ErrNotFound},
		{name: "unknown metric", tracker: some, expID: "1", metrics: []string{"Vibes"}, want: contract.ErrConfiguration},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := CompareRuns(context.Background(), tt.tracker, tt.expID, tt.metrics, testDirections)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}
