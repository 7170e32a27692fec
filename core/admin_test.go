package core

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/huangsam/formpath/internal/contract"
	"github.com/huangsam/formpath/internal/store"
	"github.com/huangsam/formpath/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestExecuteGraphImportStatusClear(t *testing.T) {
	gs, err := store.NewSQLGraphStore(schema.SQLiteBackend, ":memory:", nil)
	require.NoError(t, err)
	defer func() { _ = gs.Close() }()
	mgr := store.NewStoreManager(gs, store.NoneTracker{})
	cfg := &contract.Config{RootQuestion: "1", QuestionnaireFile: fixturePath}
	ctx := context.Background()
	buf := captureStdout(t)

	require.NoError(t, ExecuteGraphImport(ctx, cfg, mgr))
	assert.Contains(t, buf.String(), "Imported 5 questions")

	buf.Reset()
	require.NoError(t, ExecuteGraphStatus(ctx, cfg, mgr))
	assert.Contains(t, buf.String(), "Connected: true")

	require.NoError(t, ExecuteGraphClear(ctx, cfg, mgr))
	status, err := gs.GetStatus(ctx)
	require.NoError(t, err)
	assert.Zero(t, status.Vertices)
}

func TestExecuteGraphImport_Errors(t *testing.T) {
	mgr := store.NewStoreManager(&store.MockGraphStore{}, store.NoneTracker{})
	ctx := context.Background()

	assert.ErrorIs(t, ExecuteGraphImport(ctx, &contract.Config{RootQuestion: "1"}, mgr), contract.ErrValidation)
	err := ExecuteGraphImport(ctx, &contract.Config{RootQuestion: "1", QuestionnaireFile: filepath.Join(t.TempDir(), "none.yaml")}, mgr)
	assert.Error(t, err)
}

func TestExecuteTrackingStatus(t *testing.T) {
	tracker := &store.MockTracker{}
	tracker.On("GetStatus", mock.Anything).Return(schema.TrackingStatus{Backend: "mlflow", Connected: true, Experiments: 2}, nil)
	mgr := store.NewStoreManager(nil, tracker)
	buf := captureStdout(t)

	require.NoError(t, ExecuteTrackingStatus(context.Background(), &contract.Config{}, mgr))
	assert.Contains(t, buf.String(), "Tracking Backend: mlflow")
	tracker.AssertExpectations(t)

	down := &store.MockTracker{}
	down.On("GetStatus", mock.Anything).Return(schema.TrackingStatus{}, contract.Unavailable("mlflow", errors.New("refused")))
	err := ExecuteTrackingStatus(context.Background(), &contract.Config{}, store.NewStoreManager(nil, down))
	assert.ErrorIs(t, err, contract.ErrUnavailable)
}

func TestExecuteMigrate(t *testing.T) {
	dir := t.TempDir()
	cfg := &contract.Config{
		GraphBackend:      schema.GraphSQLite,
		GraphDBConnect:    filepath.Join(dir, "graph.db"),
		TrackingBackend:   schema.TrackingSQLite,
		TrackingDBConnect: filepath.Join(dir, "tracking.db"),
		TargetVersion:     -1,
	}
	buf := captureStdout(t)

	require.NoError(t, ExecuteGraphMigrate(context.Background(), cfg, nil))
	assert.Contains(t, buf.String(), "graph schema migrated")
	require.NoError(t, ExecuteTrackingMigrate(context.Background(), cfg, nil))
	assert.Contains(t, buf.String(), "tracking schema migrated")

	buf.Reset()
	require.NoError(t, ExecuteGraphMigrate(context.Background(), cfg, nil))
	assert.Contains(t, buf.String(), "already at version")

	cfg.GraphBackend = schema.GraphNeo4j
	assert.ErrorIs(t, ExecuteGraphMigrate(context.Background(), cfg, nil), contract.ErrConfiguration)
	cfg.TrackingBackend = schema.TrackingMLflow
	assert.ErrorIs(t, ExecuteTrackingMigrate(context.Background(), cfg, nil), contract.ErrConfiguration)
}
