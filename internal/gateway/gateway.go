// Package gateway decodes the questionnaire graph and answer chains out of a GraphStore.
// It is the only place that knows how questions and propositions map onto vertices and
// edges.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/huangsam/formpath/internal/contract"
	"github.com/huangsam/formpath/schema"
	"go.uber.org/zap"
)

// Visibility polling bounds for writes.
const (
	DefaultVisibilityTries   = 8
	DefaultVisibilityInitial = 10 * time.Millisecond
	DefaultVisibilityMax     = 500 * time.Millisecond
)

// errNotVisible marks a write that the store has not surfaced yet.
var errNotVisible = errors.New("not visible yet")

// Gateway reads and writes typed records through a GraphStore.
type Gateway struct {
	store  contract.GraphStore
	rootID string
	logger *zap.Logger

	tries   uint
	initial time.Duration
	max     time.Duration
}

// New creates a gateway whose questionnaire starts at rootID.
func New(store contract.GraphStore, rootID string, logger *zap.Logger) *Gateway {
	return &Gateway{
		store:   store,
		rootID:  rootID,
		logger:  contract.LoggerOrNop(logger),
		tries:   DefaultVisibilityTries,
		initial: DefaultVisibilityInitial,
		max:     DefaultVisibilityMax,
	}
}

// WithVisibilityPolling overrides the bounds of the post-write visibility check.
func (g *Gateway) WithVisibilityPolling(tries uint, initial, maxInterval time.Duration) *Gateway {
	g.tries = max(tries, 1)
	g.initial = initial
	g.max = maxInterval
	return g
}

// RootID returns the id of the first question.
func (g *Gateway) RootID() string {
	return g.rootID
}

// Store returns the underlying graph store.
func (g *Gateway) Store() contract.GraphStore {
	return g.store
}

// RootQuestion returns the first question of the questionnaire.
func (g *Gateway) RootQuestion(ctx context.Context) (schema.Question, error) {
	return g.Question(ctx, g.rootID)
}

// Question loads a question and its propositions in edge order.
// A question that is referenced but missing is a configuration error.
func (g *Gateway) Question(ctx context.Context, id string) (schema.Question, error) {
	v, ok, err := g.store.GetVertex(ctx, id)
	if err != nil {
		return schema.Question{}, err
	}
	if !ok {
		return schema.Question{}, contract.ConfigErrorf("question %q does not exist in the graph", id)
	}

	q, err := DecodeQuestion(v)
	if err != nil {
		return schema.Question{}, err
	}
	if q.IsTerminal() {
		return q, nil
	}

	if q.Propositions, err = g.Successors(ctx, id); err != nil {
		return schema.Question{}, err
	}
	return q, nil
}

// Successors returns the propositions leaving a question, each pointing at its target.
func (g *Gateway) Successors(ctx context.Context, questionID string) ([]schema.Proposition, error) {
	edges, err := g.store.OutEdges(ctx, questionID, schema.PropositionEdge)
	if err != nil {
		return nil, err
	}
	props := make([]schema.Proposition, 0, len(edges))
	for _, e := range edges {
		p, err := DecodeProposition(e)
		if err != nil {
			return nil, err
		}
		p.Next = e.To
		props = append(props, p)
	}
	return props, nil
}

// CandidateOutputs returns the candidate list stored on the root question.
func (g *Gateway) CandidateOutputs(ctx context.Context) ([]string, error) {
	v, ok, err := g.store.GetVertex(ctx, g.rootID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, contract.ConfigErrorf("root question %q does not exist in the graph", g.rootID)
	}
	outputs, err := schema.SplitSlots(v.Prop(schema.PropOutputs))
	if err != nil {
		return nil, contract.ConfigErrorf("root question %q: %s: %v", g.rootID, schema.PropOutputs, err)
	}
	if len(outputs) == 0 {
		return nil, contract.ConfigErrorf("root question %q has no %s property", g.rootID, schema.PropOutputs)
	}
	return outputs, nil
}

// IsTerminal reports whether a question ends the traversal.
func (g *Gateway) IsTerminal(q schema.Question) bool {
	return q.IsTerminal()
}

// Vertex returns a raw vertex.
func (g *Gateway) Vertex(ctx context.Context, id string) (schema.Vertex, bool, error) {
	return g.store.GetVertex(ctx, id)
}

// OutEdges returns the raw outgoing edges of a vertex.
func (g *Gateway) OutEdges(ctx context.Context, from, label string) ([]schema.Edge, error) {
	return g.store.OutEdges(ctx, from, label)
}

// HasEdge reports whether an edge with that id exists.
func (g *Gateway) HasEdge(ctx context.Context, id string) (bool, error) {
	return g.store.HasEdge(ctx, id)
}

// VerticesByLabel returns every vertex with the label.
func (g *Gateway) VerticesByLabel(ctx context.Context, label string) ([]schema.Vertex, error) {
	return g.store.VerticesByLabel(ctx, label)
}

// DropVertex removes a vertex and its edges. A missing vertex is not an error.
func (g *Gateway) DropVertex(ctx context.Context, id string) error {
	return g.store.DropVertex(ctx, id)
}

// EnsureVertex creates the vertex if absent and waits until it can be read back.
func (g *Gateway) EnsureVertex(ctx context.Context, v schema.Vertex) error {
	created, err := g.store.AddVertex(ctx, v)
	if err != nil {
		return err
	}
	if created {
		g.logger.Debug("vertex created", zap.String("id", v.ID), zap.String("label", v.Label))
	}
	return g.waitVisible(ctx, "vertex "+v.ID, func() (bool, error) {
		_, ok, err := g.store.GetVertex(ctx, v.ID)
		return ok, err
	})
}

// EnsureEdge creates the edge if absent and waits until it can be read back.
func (g *Gateway) EnsureEdge(ctx context.Context, e schema.Edge) error {
	created, err := g.store.AddEdge(ctx, e)
	if err != nil {
		return err
	}
	if created {
		g.logger.Debug("edge created", zap.String("id", e.ID), zap.String("from", e.From), zap.String("to", e.To))
	}
	return g.waitVisible(ctx, "edge "+e.ID, func() (bool, error) {
		return g.store.HasEdge(ctx, e.ID)
	})
}

// waitVisible polls check with bounded exponential backoff. Store errors stop the
// polling at once; only a record that is not visible yet is retried.
func (g *Gateway) waitVisible(ctx context.Context, what string, check func() (bool, error)) error {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = g.initial
	policy.MaxInterval = g.max

	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		ok, err := check()
		if err != nil {
			return struct{}{}, backoff.Permanent(err)
		}
		if !ok {
			return struct{}{}, errNotVisible
		}
		return struct{}{}, nil
	}, backoff.WithBackOff(policy), backoff.WithMaxTries(g.tries))

	if errors.Is(err, errNotVisible) {
		return contract.Unavailable("graph", fmt.Errorf("%s was written but is %w after %d checks", what, errNotVisible, g.tries))
	}
	return err
}
