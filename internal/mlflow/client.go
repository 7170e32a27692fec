// Package mlflow reads experiments, runs and artifacts from an MLflow tracking server
// over its REST API.
package mlflow

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/huangsam/formpath/internal/contract"
	"github.com/huangsam/formpath/schema"
	"go.uber.org/zap"
)

// DefaultTimeout bounds every request to the tracking server.
const DefaultTimeout = 30 * time.Second

// pageSize is the page size requested from search endpoints.
const pageSize = 500

// errResourceMissing is the MLflow error code for unknown ids.
const errResourceMissing = "RESOURCE_DOES_NOT_EXIST"

// Client talks to one MLflow tracking server. It is safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

var _ contract.Tracker = &Client{} // Compile-time check

// NewClient creates a client for the server at baseURL (e.g. "http://localhost:5000").
func NewClient(baseURL string, logger *zap.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: DefaultTimeout},
		logger:     contract.LoggerOrNop(logger),
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.httpClient = hc
	return c
}

type apiError struct {
	ErrorCode string `json:"error_code"`
	Message   string `json:"message"`
}

type experimentJSON struct {
	ExperimentID     string `json:"experiment_id"`
	Name             string `json:"name"`
	ArtifactLocation string `json:"artifact_location"`
	CreationTime     int64  `json:"creation_time"`
}

type keyValueJSON struct {
	Key   string          `json:"key"`
	Value json.RawMessage `json:"value"`
}

type runJSON struct {
	Info struct {
		RunID        string `json:"run_id"`
		ExperimentID string `json:"experiment_id"`
		RunName      string `json:"run_name"`
		Status       string `json:"status"`
		StartTime    int64  `json:"start_time"`
		EndTime      int64  `json:"end_time"`
	} `json:"info"`
	Data struct {
		Metrics []keyValueJSON `json:"metrics"`
		Params  []keyValueJSON `json:"params"`
		Tags    []keyValueJSON `json:"tags"`
	} `json:"data"`
}

// do sends a request and decodes the JSON response into out.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any, out any) error {
	endpoint := c.baseURL + "/api/2.0/mlflow/" + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return contract.Unavailable("mlflow", err)
	}
	defer func() { _ = resp.Body.Close() }()
	c.logger.Debug("mlflow request",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)))

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return contract.Unavailable("mlflow", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr apiError
		_ = json.Unmarshal(data, &apiErr)
		switch {
		case apiErr.ErrorCode == errResourceMissing || resp.StatusCode == http.StatusNotFound:
			return fmt.Errorf("%w: %s", contract.ErrNotFound, apiErr.Message)
		case resp.StatusCode >= http.StatusInternalServerError:
			return contract.Unavailable("mlflow", fmt.Errorf("status %d: %s", resp.StatusCode, string(data)))
		default:
			return fmt.Errorf("mlflow returned status %d (%s): %s", resp.StatusCode, apiErr.ErrorCode, apiErr.Message)
		}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

// ListExperiments implements the Tracker interface. The prefix is matched client side so
// that it never becomes part of a server-side filter expression.
func (c *Client) ListExperiments(ctx context.Context, prefix string) ([]schema.Experiment, error) {
	var experiments []schema.Experiment
	token := ""
	for {
		req := map[string]any{"max_results": pageSize}
		if token != "" {
			req["page_token"] = token
		}
		var resp struct {
			Experiments   []experimentJSON `json:"experiments"`
			NextPageToken string           `json:"next_page_token"`
		}
		if err := c.do(ctx, http.MethodPost, "experiments/search", nil, req, &resp); err != nil {
			return nil, err
		}
		for _, e := range resp.Experiments {
			if !strings.HasPrefix(e.Name, prefix) {
				continue
			}
			experiments = append(experiments, schema.Experiment{
				ID:               e.ExperimentID,
				Name:             e.Name,
				ArtifactLocation: e.ArtifactLocation,
				CreatedAt:        time.UnixMilli(e.CreationTime),
			})
		}
		if resp.NextPageToken == "" {
			break
		}
		token = resp.NextPageToken
	}
	sort.SliceStable(experiments, func(i, j int) bool { return experiments[i].Name < experiments[j].Name })
	return experiments, nil
}

// ListRuns implements the Tracker interface.
func (c *Client) ListRuns(ctx context.Context, experimentID string) ([]schema.Run, error) {
	var runs []schema.Run
	token := ""
	for {
		req := map[string]any{
			"experiment_ids": []string{experimentID},
			"max_results":    pageSize,
		}
		if token != "" {
			req["page_token"] = token
		}
		var resp struct {
			Runs          []runJSON `json:"runs"`
			NextPageToken string    `json:"next_page_token"`
		}
		if err := c.do(ctx, http.MethodPost, "runs/search", nil, req, &resp); err != nil {
			return nil, err
		}
		for _, r := range resp.Runs {
			runs = append(runs, convertRun(r))
		}
		if resp.NextPageToken == "" {
			break
		}
		token = resp.NextPageToken
	}
	return runs, nil
}

// GetRun implements the Tracker interface.
func (c *Client) GetRun(ctx context.Context, runID string) (schema.Run, error) {
	var resp struct {
		Run runJSON `json:"run"`
	}
	if err := c.do(ctx, http.MethodGet, "runs/get", url.Values{"run_id": {runID}}, nil, &resp); err != nil {
		if errors.Is(err, contract.ErrNotFound) {
			return schema.Run{}, fmt.Errorf("run %q: %w", runID, err)
		}
		return schema.Run{}, err
	}
	return convertRun(resp.Run), nil
}

// ListArtifacts implements the Tracker interface.
func (c *Client) ListArtifacts(ctx context.Context, runID string) ([]schema.Artifact, error) {
	var resp struct {
		Files []struct {
			Path     string `json:"path"`
			IsDir    bool   `json:"is_dir"`
			FileSize int64  `json:"file_size"`
		} `json:"files"`
	}
	if err := c.do(ctx, http.MethodGet, "artifacts/list", url.Values{"run_id": {runID}}, nil, &resp); err != nil {
		return nil, err
	}
	artifacts := make([]schema.Artifact, 0, len(resp.Files))
	for _, f := range resp.Files {
		artifacts = append(artifacts, schema.Artifact{Path: f.Path, IsDir: f.IsDir, Size: f.FileSize})
	}
	return artifacts, nil
}

// GetStatus implements the Tracker interface.
func (c *Client) GetStatus(ctx context.Context) (schema.TrackingStatus, error) {
	status := schema.TrackingStatus{Backend: string(schema.TrackingMLflow)}
	experiments, err := c.ListExperiments(ctx, "")
	if err != nil {
		if errors.Is(err, contract.ErrUnavailable) {
			return status, nil
		}
		return status, err
	}
	status.Connected = true
	status.Experiments = len(experiments)
	return status, nil
}

// Close implements the Tracker interface.
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

// convertRun decodes an MLflow run. The run name falls back to the mlflow.runName tag.
func convertRun(r runJSON) schema.Run {
	run := schema.Run{
		ID:           r.Info.RunID,
		ExperimentID: r.Info.ExperimentID,
		Name:         r.Info.RunName,
		Status:       r.Info.Status,
		StartTime:    time.UnixMilli(r.Info.StartTime),
		Metrics:      make(map[string]float64, len(r.Data.Metrics)),
		Params:       make(map[string]string, len(r.Data.Params)),
	}
	if r.Info.EndTime > 0 {
		run.EndTime = time.UnixMilli(r.Info.EndTime)
	}
	for _, m := range r.Data.Metrics {
		var v float64
		if err := json.Unmarshal(m.Value, &v); err == nil {
			run.Metrics[m.Key] = v
		}
	}
	for _, p := range r.Data.Params {
		run.Params[p.Key] = rawString(p.Value)
	}
	if run.Name == "" {
		for _, tag := range r.Data.Tags {
			if tag.Key == "mlflow.runName" {
				run.Name = rawString(tag.Value)
			}
		}
	}
	return run
}

// rawString decodes a JSON string value, or returns the raw text for other JSON types.
func rawString(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}
