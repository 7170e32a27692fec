package store

import (
	"context"

	"github.com/huangsam/formpath/internal/contract"
	"github.com/huangsam/formpath/schema"
	"github.com/stretchr/testify/mock"
)

// MockStoreManager is a mock implementation of StoreManager for testing.
type MockStoreManager struct {
	mock.Mock
}

var _ contract.StoreManager = &MockStoreManager{} // Compile-time check

// GetGraphStore implements the StoreManager interface.
func (m *MockStoreManager) GetGraphStore() contract.GraphStore {
	ret := m.Called()
	gs, _ := ret.Get(0).(contract.GraphStore)
	return gs
}

// GetTracker implements the StoreManager interface.
func (m *MockStoreManager) GetTracker() contract.Tracker {
	ret := m.Called()
	tr, _ := ret.Get(0).(contract.Tracker)
	return tr
}

// MockGraphStore is a mock implementation of GraphStore for testing.
type MockGraphStore struct {
	mock.Mock
}

var _ contract.GraphStore = &MockGraphStore{} // Compile-time check

// GetVertex implements the GraphStore interface.
func (m *MockGraphStore) GetVertex(ctx context.Context, id string) (schema.Vertex, bool, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(schema.Vertex), args.Bool(1), args.Error(2)
}

// VerticesByLabel implements the GraphStore interface.
func (m *MockGraphStore) VerticesByLabel(ctx context.Context, label string) ([]schema.Vertex, error) {
	args := m.Called(ctx, label)
	vs, _ := args.Get(0).([]schema.Vertex)
	return vs, args.Error(1)
}

// OutEdges implements the GraphStore interface.
func (m *MockGraphStore) OutEdges(ctx context.Context, from string, label string) ([]schema.Edge, error) {
	args := m.Called(ctx, from, label)
	es, _ := args.Get(0).([]schema.Edge)
	return es, args.Error(1)
}

// HasEdge implements the GraphStore interface.
func (m *MockGraphStore) HasEdge(ctx context.Context, id string) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

// AddVertex implements the GraphStore interface.
func (m *MockGraphStore) AddVertex(ctx context.Context, v schema.Vertex) (bool, error) {
	args := m.Called(ctx, v)
	return args.Bool(0), args.Error(1)
}

// AddEdge implements the GraphStore interface.
func (m *MockGraphStore) AddEdge(ctx context.Context, e schema.Edge) (bool, error) {
	args := m.Called(ctx, e)
	return args.Bool(0), args.Error(1)
}

// DropVertex implements the GraphStore interface.
func (m *MockGraphStore) DropVertex(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// Clear implements the GraphStore interface.
func (m *MockGraphStore) Clear(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// GetStatus implements the GraphStore interface.
func (m *MockGraphStore) GetStatus(ctx context.Context) (schema.GraphStatus, error) {
	args := m.Called(ctx)
	return args.Get(0).(schema.GraphStatus), args.Error(1)
}

// Close implements the GraphStore interface.
func (m *MockGraphStore) Close() error {
	args := m.Called()
	return args.Error(0)
}

// MockTracker is a mock implementation of Tracker for testing.
type MockTracker struct {
	mock.Mock
}

var _ contract.Tracker = &MockTracker{} // Compile-time check

// ListExperiments implements the Tracker interface.
func (m *MockTracker) ListExperiments(ctx context.Context, prefix string) ([]schema.Experiment, error) {
	args := m.Called(ctx, prefix)
	es, _ := args.Get(0).([]schema.Experiment)
	return es, args.Error(1)
}

// ListRuns implements the Tracker interface.
func (m *MockTracker) ListRuns(ctx context.Context, experimentID string) ([]schema.Run, error) {
	args := m.Called(ctx, experimentID)
	rs, _ := args.Get(0).([]schema.Run)
	return rs, args.Error(1)
}

// GetRun implements the Tracker interface.
func (m *MockTracker) GetRun(ctx context.Context, runID string) (schema.Run, error) {
	args := m.Called(ctx, runID)
	return args.Get(0).(schema.Run), args.Error(1)
}

// ListArtifacts implements the Tracker interface.
func (m *MockTracker) ListArtifacts(ctx context.Context, runID string) ([]schema.Artifact, error) {
	args := m.Called(ctx, runID)
	as, _ := args.Get(0).([]schema.Artifact)
	return as, args.Error(1)
}

// GetStatus implements the Tracker interface.
func (m *MockTracker) GetStatus(ctx context.Context) (schema.TrackingStatus, error) {
	args := m.Called(ctx)
	return args.Get(0).(schema.TrackingStatus), args.Error(1)
}

// Close implements the Tracker interface.
func (m *MockTracker) Close() error {
	args := m.Called()
	return args.Error(0)
}
