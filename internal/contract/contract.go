// Package contract provides interfaces and shared utilities for internal architecture.
package contract

import (
	"context"

	"github.com/huangsam/formpath/schema"
)

// GraphStore is the storage behind the questionnaire graph and the answer chains.
// Every implementation binds values as query parameters; ids and properties never
// become part of the query text.
type GraphStore interface {
	// GetVertex returns the vertex with the given id. The boolean is false when it does not exist.
	GetVertex(ctx context.Context, id string) (schema.Vertex, bool, error)

	// VerticesByLabel returns every vertex carrying the label, ordered by id.
	VerticesByLabel(ctx context.Context, label string) ([]schema.Vertex, error)

	// OutEdges returns the outgoing edges of a vertex ordered by Seq then id.
	// An empty label matches every edge.
	OutEdges(ctx context.Context, from string, label string) ([]schema.Edge, error)

	// HasEdge reports whether an edge with the given id exists.
	HasEdge(ctx context.Context, id string) (bool, error)

	// AddVertex creates the vertex if absent and reports whether it was created.
	AddVertex(ctx context.Context, v schema.Vertex) (bool, error)

	// AddEdge creates the edge if absent and reports whether it was created.
	AddEdge(ctx context.Context, e schema.Edge) (bool, error)

	// DropVertex removes a vertex and its incident edges. Missing vertices are not an error.
	DropVertex(ctx context.Context, id string) error

	// Clear removes every vertex and edge.
	Clear(ctx context.Context) error

	// GetStatus returns status information about the store.
	GetStatus(ctx context.Context) (schema.GraphStatus, error)

	// Close closes the underlying connection.
	Close() error
}

// Tracker reads experiments and runs from an experiment-tracking service.
type Tracker interface {
	// ListExperiments returns experiments whose name starts with prefix.
	ListExperiments(ctx context.Context, prefix string) ([]schema.Experiment, error)

	// ListRuns returns the runs of an experiment with their metrics and params.
	ListRuns(ctx context.Context, experimentID string) ([]schema.Run, error)

	// GetRun returns a single run. A missing run wraps ErrNotFound.
	GetRun(ctx context.Context, runID string) (schema.Run, error)

	// ListArtifacts returns the artifacts logged against a run.
	ListArtifacts(ctx context.Context, runID string) ([]schema.Artifact, error)

	// GetStatus returns status information about the tracking backend.
	GetStatus(ctx context.Context) (schema.TrackingStatus, error)

	// Close releases the underlying connection.
	Close() error
}

// RunRecorder is a Tracker that can also record runs locally.
type RunRecorder interface {
	Tracker

	// CreateExperiment registers an experiment and returns its id.
	CreateExperiment(ctx context.Context, name string) (string, error)

	// LogRun records a finished run and returns its id.
	LogRun(ctx context.Context, experimentID, name string, metrics map[string]float64, params map[string]string) (string, error)
}

// StoreManager hands out the configured stores.
// This allows the storage layer to be mocked for testing.
type StoreManager interface {
	GetGraphStore() GraphStore
	GetTracker() Tracker
}

// PromptAnswer is what a person entered for one question.
type PromptAnswer struct {
	Back      bool     // undo the previous answer instead
	ChosenIDs []string // ids of the chosen propositions
	Response  string   // free text of open questions
}

// Prompter asks a person to answer questions.
type Prompter interface {
	// Ask presents q and returns the answer. canGoBack tells whether Back is allowed.
	Ask(ctx context.Context, q schema.Question, canGoBack bool) (PromptAnswer, error)

	// PickStep asks which answered step to revise and returns its index.
	PickStep(ctx context.Context, history *schema.AnswerHistory) (int, error)
}
