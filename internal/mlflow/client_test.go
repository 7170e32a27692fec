package mlflow

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/huangsam/formpath/internal/contract"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL+"/", nil)
}

func TestListExperiments_FiltersByPrefixAndPages(t *testing.T) {
	calls := 0
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/2.0/mlflow/experiments/search", r.URL.Path)
		require.Equal(t, http.MethodPost, r.Method)
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		calls++
		if body["page_token"] == nil {
			_, _ = w.Write([]byte(`{"experiments":[{"experiment_id":"2","name":"churn_b","creation_time":1700000000000},{"experiment_id":"9","name":"other"}],"next_page_token":"p2"}`))
			return
		}
		_, _ = w.Write([]byte(`{"experiments":[{"experiment_id":"1","name":"churn_a"}]}`))
	})

	experiments, err := client.ListExperiments(context.Background(), "churn")
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	require.Len(t, experiments, 2)
	assert.Equal(t, "churn_a", experiments[0].Name, "sorted by name")
	assert.Equal(t, "2", experiments[1].ID)
}

func TestListRuns_DecodesMetricsParamsAndName(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/2.0/mlflow/runs/search", r.URL.Path)
		_, _ = w.Write([]byte(`{"runs":[{
			"info":{"run_id":"r1","experiment_id":"1","status":"FINISHED","start_time":1000,"end_time":2000},
			"data":{
				"metrics":[{"key":"Accuracy","value":0.9},{"key":"Duration","value":12}],
				"params":[{"key":"depth","value":"6"}],
				"tags":[{"key":"mlflow.runName","value":"xgboost"}]
			}}]}`))
	})

	runs, err := client.ListRuns(context.Background(), "1")
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "xgboost", runs[0].Name)
	assert.InDelta(t, 0.9, runs[0].Metrics["Accuracy"], 1e-9)
	assert.InDelta(t, 12.0, runs[0].Metrics["Duration"], 1e-9)
	assert.Equal(t, "6", runs[0].Params["depth"])
	assert.False(t, runs[0].EndTime.IsZero())
}

func TestGetRun_NotFound(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "missing", r.URL.Query().Get("run_id"))
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error_code":"RESOURCE_DOES_NOT_EXIST","message":"Run 'missing' not found"}`))
	})

	_, err := client.GetRun(context.Background(), "missing")
	assert.ErrorIs(t, err, contract.ErrNotFound)
}

func TestServerErrorIsUnavailable(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := client.ListRuns(context.Background(), "1")
	assert.ErrorIs(t, err, contract.ErrUnavailable)
}

func TestBadRequestIsNotUnavailable(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error_code":"INVALID_PARAMETER_VALUE","message":"bad"}`))
	})

	_, err := client.ListRuns(context.Background(), "1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, contract.ErrUnavailable)
	assert.Contains(t, err.Error(), "INVALID_PARAMETER_VALUE")
}

func TestUnreachableServer(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()
	client := NewClient(srv.URL, nil)

	_, err := client.ListExperiments(context.Background(), "")
	assert.ErrorIs(t, err, contract.ErrUnavailable)

	status, err := client.GetStatus(context.Background())
	assert.NoError(t, err)
	assert.False(t, status.Connected)
}

func TestListArtifacts(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/2.0/mlflow/artifacts/list", r.URL.Path)
		_, _ = w.Write([]byte(`{"files":[{"path":"model","is_dir":true},{"path":"metrics.json","file_size":42}]}`))
	})

	artifacts, err := client.ListArtifacts(context.Background(), "r1")
	require.NoError(t, err)
	require.Len(t, artifacts, 2)
	assert.True(t, artifacts[0].IsDir)
	assert.Equal(t, int64(42), artifacts[1].Size)
}
