package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/huangsam/formpath/internal/contract"
	"github.com/huangsam/formpath/schema"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

// Table names for run tracking.
const (
	experimentsTable = "formpath_experiments"
	runsTable        = "formpath_runs"
	runMetricsTable  = "formpath_run_metrics"
	runParamsTable   = "formpath_run_params"
)

func init() {
	// modernc registers itself as "sqlite", which sqlx does not know by default
	sqlx.BindDriver("sqlite", sqlx.QUESTION)
}

// SQLTracker implements RunRecorder on a relational backend.
type SQLTracker struct {
	db      *sqlx.DB
	backend schema.DatabaseBackend
	logger  *zap.Logger
}

var _ contract.RunRecorder = &SQLTracker{} // Compile-time check

// experimentRow is a row of the experiments table.
type experimentRow struct {
	ID               string `db:"experiment_id"`
	Name             string `db:"name"`
	ArtifactLocation string `db:"artifact_location"`
	CreatedAt        int64  `db:"created_at"`
}

// runRow is a row of the runs table.
type runRow struct {
	ID           string `db:"run_id"`
	ExperimentID string `db:"experiment_id"`
	Name         string `db:"run_name"`
	Status       string `db:"status"`
	StartTime    int64  `db:"start_time"`
	EndTime      int64  `db:"end_time"`
}

// metricRow is a row of the run metrics table.
type metricRow struct {
	RunID string  `db:"run_id"`
	Key   string  `db:"metric_key"`
	Value float64 `db:"metric_value"`
}

// paramRow is a row of the run params table.
type paramRow struct {
	RunID string `db:"run_id"`
	Key   string `db:"param_key"`
	Value string `db:"param_value"`
}

// NewSQLTracker opens a tracking store on sqlite, mysql or postgresql and creates its tables.
func NewSQLTracker(backend schema.DatabaseBackend, connStr string, logger *zap.Logger) (*SQLTracker, error) {
	raw, err := openSQL(backend, connStr, contract.GetTrackingDBFilePath())
	if err != nil {
		return nil, err
	}
	driverName, _ := driverNameFor(backend)
	db := sqlx.NewDb(raw, driverName)

	for _, query := range getCreateTrackingQueries(backend) {
		if _, err := db.Exec(query); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to create tracking tables: %w", err)
		}
	}

	logger = contract.LoggerOrNop(logger)
	logger.Debug("tracking store opened", zap.String("backend", string(backend)))
	return &SQLTracker{db: db, backend: backend, logger: logger}, nil
}

// getCreateTrackingQueries returns the DDL for the backend.
func getCreateTrackingQueries(backend schema.DatabaseBackend) []string {
	et := quoteTableName(experimentsTable, backend)
	rt := quoteTableName(runsTable, backend)
	mt := quoteTableName(runMetricsTable, backend)
	pt := quoteTableName(runParamsTable, backend)

	idType, textType, floatType := "TEXT", "TEXT", "REAL"
	switch backend {
	case schema.MySQLBackend:
		idType, textType, floatType = "VARCHAR(64)", "VARCHAR(255)", "DOUBLE"
	case schema.PostgreSQLBackend:
		floatType = "DOUBLE PRECISION"
	}

	return []string{
		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				experiment_id %s PRIMARY KEY,
				name %s NOT NULL,
				artifact_location %s NOT NULL DEFAULT '',
				created_at BIGINT NOT NULL
			);`, et, idType, textType, textType),
		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id %s PRIMARY KEY,
				experiment_id %s NOT NULL,
				run_name %s NOT NULL,
				status %s NOT NULL,
				start_time BIGINT NOT NULL,
				end_time BIGINT NOT NULL
			);`, rt, idType, idType, textType, textType),
		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id %s NOT NULL,
				metric_key %s NOT NULL,
				metric_value %s NOT NULL,
				PRIMARY KEY (run_id, metric_key)
			);`, mt, idType, textType, floatType),
		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id %s NOT NULL,
				param_key %s NOT NULL,
				param_value %s NOT NULL,
				PRIMARY KEY (run_id, param_key)
			);`, pt, idType, textType, textType),
	}
}

// wrap marks connection failures as unavailable.
func (st *SQLTracker) wrap(err error) error {
	return wrapSQL(st.backend, err)
}

// CreateExperiment implements the RunRecorder interface.
func (st *SQLTracker) CreateExperiment(ctx context.Context, name string) (string, error) {
	id := uuid.NewString()
	query := st.db.Rebind(fmt.Sprintf(`INSERT INTO %s (experiment_id, name, artifact_location, created_at) VALUES (?, ?, ?, ?)`,
		quoteTableName(experimentsTable, st.backend)))
	if _, err := st.db.ExecContext(ctx, query, id, name, "", time.Now().UnixMilli()); err != nil {
		return "", st.wrap(fmt.Errorf("failed to create experiment %q: %w", name, err))
	}
	return id, nil
}

// LogRun implements the RunRecorder interface.
func (st *SQLTracker) LogRun(ctx context.Context, experimentID, name string, metrics map[string]float64, params map[string]string) (string, error) {
	runID := uuid.NewString()
	now := time.Now().UnixMilli()

	tx, err := st.db.BeginTxx(ctx, nil)
	if err != nil {
		return "", st.wrap(fmt.Errorf("failed to begin transaction: %w", err))
	}
	defer func() { _ = tx.Rollback() }()

	runQuery := tx.Rebind(fmt.Sprintf(`INSERT INTO %s (run_id, experiment_id, run_name, status, start_time, end_time) VALUES (?, ?, ?, ?, ?, ?)`,
		quoteTableName(runsTable, st.backend)))
	if _, err := tx.ExecContext(ctx, runQuery, runID, experimentID, name, "FINISHED", now, now); err != nil {
		return "", st.wrap(fmt.Errorf("failed to record run %q: %w", name, err))
	}

	metricQuery := tx.Rebind(fmt.Sprintf(`INSERT INTO %s (run_id, metric_key, metric_value) VALUES (?, ?, ?)`,
		quoteTableName(runMetricsTable, st.backend)))
	for key, value := range metrics {
		if _, err := tx.ExecContext(ctx, metricQuery, runID, key, value); err != nil {
			return "", st.wrap(fmt.Errorf("failed to record metric %q: %w", key, err))
		}
	}

	paramQuery := tx.Rebind(fmt.Sprintf(`INSERT INTO %s (run_id, param_key, param_value) VALUES (?, ?, ?)`,
		quoteTableName(runParamsTable, st.backend)))
	for key, value := range params {
		if _, err := tx.ExecContext(ctx, paramQuery, runID, key, value); err != nil {
			return "", st.wrap(fmt.Errorf("failed to record param %q: %w", key, err))
		}
	}

	if err := tx.Commit(); err != nil {
		return "", st.wrap(fmt.Errorf("failed to commit run %q: %w", name, err))
	}
	st.logger.Debug("run recorded", zap.String("run_id", runID), zap.String("experiment_id", experimentID))
	return runID, nil
}

// ListExperiments implements the Tracker interface.
func (st *SQLTracker) ListExperiments(ctx context.Context, prefix string) ([]schema.Experiment, error) {
	query := st.db.Rebind(fmt.Sprintf(`SELECT experiment_id, name, artifact_location, created_at FROM %s WHERE name LIKE ? ORDER BY name`,
		quoteTableName(experimentsTable, st.backend)))

	var rows []experimentRow
	if err := st.db.SelectContext(ctx, &rows, query, escapeLike(prefix)+"%"); err != nil {
		return nil, st.wrap(fmt.Errorf("failed to list experiments: %w", err))
	}
	experiments := make([]schema.Experiment, 0, len(rows))
	for _, r := range rows {
		experiments = append(experiments, schema.Experiment{
			ID:               r.ID,
			Name:             r.Name,
			ArtifactLocation: r.ArtifactLocation,
			CreatedAt:        time.UnixMilli(r.CreatedAt),
		})
	}
	return experiments, nil
}

// ListRuns implements the Tracker interface.
func (st *SQLTracker) ListRuns(ctx context.Context, experimentID string) ([]schema.Run, error) {
	query := st.db.Rebind(fmt.Sprintf(`SELECT run_id, experiment_id, run_name, status, start_time, end_time FROM %s WHERE experiment_id = ? ORDER BY start_time, run_id`,
		quoteTableName(runsTable, st.backend)))

	var rows []runRow
	if err := st.db.SelectContext(ctx, &rows, query, experimentID); err != nil {
		return nil, st.wrap(fmt.Errorf("failed to list runs of %q: %w", experimentID, err))
	}
	runs := make([]schema.Run, 0, len(rows))
	for _, r := range rows {
		run, err := st.hydrate(ctx, r)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, nil
}

// GetRun implements the Tracker interface.
func (st *SQLTracker) GetRun(ctx context.Context, runID string) (schema.Run, error) {
	query := st.db.Rebind(fmt.Sprintf(`SELECT run_id, experiment_id, run_name, status, start_time, end_time FROM %s WHERE run_id = ?`,
		quoteTableName(runsTable, st.backend)))

	var r runRow
	if err := st.db.GetContext(ctx, &r, query, runID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return schema.Run{}, fmt.Errorf("run %q: %w", runID, contract.ErrNotFound)
		}
		return schema.Run{}, st.wrap(fmt.Errorf("failed to read run %q: %w", runID, err))
	}
	return st.hydrate(ctx, r)
}

// hydrate attaches metrics and params to a run row.
func (st *SQLTracker) hydrate(ctx context.Context, r runRow) (schema.Run, error) {
	run := schema.Run{
		ID:           r.ID,
		ExperimentID: r.ExperimentID,
		Name:         r.Name,
		Status:       r.Status,
		StartTime:    time.UnixMilli(r.StartTime),
		EndTime:      time.UnixMilli(r.EndTime),
		Metrics:      make(map[string]float64),
		Params:       make(map[string]string),
	}

	metricQuery := st.db.Rebind(fmt.Sprintf(`SELECT run_id, metric_key, metric_value FROM %s WHERE run_id = ?`,
		quoteTableName(runMetricsTable, st.backend)))
	var metrics []metricRow
	if err := st.db.SelectContext(ctx, &metrics, metricQuery, r.ID); err != nil {
		return run, st.wrap(fmt.Errorf("failed to read metrics of %q: %w", r.ID, err))
	}
	for _, m := range metrics {
		run.Metrics[m.Key] = m.Value
	}

	paramQuery := st.db.Rebind(fmt.Sprintf(`SELECT run_id, param_key, param_value FROM %s WHERE run_id = ?`,
		quoteTableName(runParamsTable, st.backend)))
	var params []paramRow
	if err := st.db.SelectContext(ctx, &params, paramQuery, r.ID); err != nil {
		return run, st.wrap(fmt.Errorf("failed to read params of %q: %w", r.ID, err))
	}
	for _, p := range params {
		run.Params[p.Key] = p.Value
	}
	return run, nil
}

// ListArtifacts implements the Tracker interface. Local runs carry no artifacts.
func (st *SQLTracker) ListArtifacts(ctx context.Context, runID string) ([]schema.Artifact, error) {
	if _, err := st.GetRun(ctx, runID); err != nil {
		return nil, err
	}
	return nil, nil
}

// GetStatus implements the Tracker interface.
func (st *SQLTracker) GetStatus(ctx context.Context) (schema.TrackingStatus, error) {
	status := schema.TrackingStatus{Backend: string(st.backend), Connected: st.db != nil}
	if st.db == nil {
		return status, nil
	}
	if err := st.db.GetContext(ctx, &status.Experiments, fmt.Sprintf("SELECT COUNT(*) FROM %s", quoteTableName(experimentsTable, st.backend))); err != nil {
		return status, st.wrap(fmt.Errorf("failed to count experiments: %w", err))
	}
	if err := st.db.GetContext(ctx, &status.Runs, fmt.Sprintf("SELECT COUNT(*) FROM %s", quoteTableName(runsTable, st.backend))); err != nil {
		return status, st.wrap(fmt.Errorf("failed to count runs: %w", err))
	}
	if status.Runs > 0 {
		var last int64
		if err := st.db.GetContext(ctx, &last, fmt.Sprintf("SELECT MAX(start_time) FROM %s", quoteTableName(runsTable, st.backend))); err != nil {
			return status, st.wrap(fmt.Errorf("failed to get last run time: %w", err))
		}
		status.LastRunTime = time.UnixMilli(last)
	}
	return status, nil
}

// Close implements the Tracker interface.
func (st *SQLTracker) Close() error {
	if st.db != nil {
		return st.db.Close()
	}
	return nil
}

// escapeLike neutralizes LIKE wildcards in a user prefix.
func escapeLike(prefix string) string {
	out := make([]rune, 0, len(prefix))
	for _, r := range prefix {
		if r == '%' || r == '_' {
			continue
		}
		out = append(out, r)
	}
	return string(out)
}

// NoneTracker is the tracker used when tracking is disabled. Every listing is empty.
type NoneTracker struct{}

var _ contract.Tracker = NoneTracker{} // Compile-time check

// ListExperiments implements the Tracker interface.
func (NoneTracker) ListExperiments(context.Context, string) ([]schema.Experiment, error) {
	return nil, nil
}

// ListRuns implements the Tracker interface.
func (NoneTracker) ListRuns(context.Context, string) ([]schema.Run, error) { return nil, nil }

// GetRun implements the Tracker interface.
func (NoneTracker) GetRun(_ context.Context, runID string) (schema.Run, error) {
	return schema.Run{}, fmt.Errorf("run %q: %w", runID, contract.ErrNotFound)
}

// ListArtifacts implements the Tracker interface.
func (NoneTracker) ListArtifacts(context.Context, string) ([]schema.Artifact, error) {
	return nil, nil
}

// GetStatus implements the Tracker interface.
func (NoneTracker) GetStatus(context.Context) (schema.TrackingStatus, error) {
	return schema.TrackingStatus{Backend: string(schema.TrackingNone)}, nil
}

// Close implements the Tracker interface.
func (NoneTracker) Close() error { return nil }
