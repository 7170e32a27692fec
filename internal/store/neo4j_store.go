package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/huangsam/formpath/internal/contract"
	"github.com/huangsam/formpath/schema"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"
)

// Reserved Neo4j property names. User properties never start with an underscore.
const (
	neoID    = "_id"
	neoLabel = "_label"
	neoSeq   = "_seq"
)

// Neo4jGraphStore implements GraphStore on Neo4j. Every vertex is a :Vertex node and
// every edge an :EDGE relationship; labels are stored as properties so that Cypher
// text never depends on input values.
type Neo4jGraphStore struct {
	driver neo4j.DriverWithContext
	logger *zap.Logger
}

var _ contract.GraphStore = &Neo4jGraphStore{} // Compile-time check

// NewNeo4jGraphStore connects to Neo4j and ensures the id constraint exists.
func NewNeo4jGraphStore(ctx context.Context, uri, user, password string, logger *zap.Logger) (*Neo4jGraphStore, error) {
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(user, password, ""))
	if err != nil {
		return nil, fmt.Errorf("failed to create neo4j driver for %q: %w", uri, err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, contract.Unavailable("neo4j", err)
	}

	gs := &Neo4jGraphStore{driver: driver, logger: contract.LoggerOrNop(logger)}
	constraint := `CREATE CONSTRAINT formpath_vertex_id IF NOT EXISTS FOR (v:Vertex) REQUIRE v._id IS UNIQUE`
	if _, err := gs.run(ctx, neo4j.AccessModeWrite, constraint, nil, nil); err != nil {
		_ = driver.Close(ctx)
		return nil, fmt.Errorf("failed to create neo4j constraint: %w", err)
	}

	gs.logger.Debug("graph store opened", zap.String("backend", string(schema.GraphNeo4j)), zap.String("uri", uri))
	return gs, nil
}

// run executes one auto-commit query and feeds every record to fn.
func (gs *Neo4jGraphStore) run(ctx context.Context, mode neo4j.AccessMode, cypher string, params map[string]any, fn func(*neo4j.Record) error) (neo4j.ResultSummary, error) {
	session := gs.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: mode})
	defer func() { _ = session.Close(ctx) }()

	result, err := session.Run(ctx, cypher, params)
	if err != nil {
		return nil, gs.wrap(err)
	}
	for result.Next(ctx) {
		if fn == nil {
			continue
		}
		if err := fn(result.Record()); err != nil {
			return nil, err
		}
	}
	if err := result.Err(); err != nil {
		return nil, gs.wrap(err)
	}
	summary, err := result.Consume(ctx)
	if err != nil {
		return nil, gs.wrap(err)
	}
	return summary, nil
}

// wrap marks connectivity failures as unavailable.
func (gs *Neo4jGraphStore) wrap(err error) error {
	if neo4j.IsConnectivityError(err) {
		return contract.Unavailable("neo4j", err)
	}
	return err
}

// GetVertex implements the GraphStore interface.
func (gs *Neo4jGraphStore) GetVertex(ctx context.Context, id string) (schema.Vertex, bool, error) {
	var v schema.Vertex
	found := false
	_, err := gs.run(ctx, neo4j.AccessModeRead,
		`MATCH (v:Vertex {_id: $id}) RETURN properties(v) AS props`,
		map[string]any{"id": id},
		func(rec *neo4j.Record) error {
			props, _ := rec.Get("props")
			v = vertexFromProps(props)
			found = true
			return nil
		})
	if err != nil {
		return schema.Vertex{}, false, fmt.Errorf("failed to read vertex %q: %w", id, err)
	}
	return v, found, nil
}

// VerticesByLabel implements the GraphStore interface.
func (gs *Neo4jGraphStore) VerticesByLabel(ctx context.Context, label string) ([]schema.Vertex, error) {
	var vertices []schema.Vertex
	_, err := gs.run(ctx, neo4j.AccessModeRead,
		`MATCH (v:Vertex) WHERE v._label = $label RETURN properties(v) AS props ORDER BY v._id`,
		map[string]any{"label": label},
		func(rec *neo4j.Record) error {
			props, _ := rec.Get("props")
			vertices = append(vertices, vertexFromProps(props))
			return nil
		})
	if err != nil {
		return nil, fmt.Errorf("failed to list %q vertices: %w", label, err)
	}
	return vertices, nil
}

// OutEdges implements the GraphStore interface.
func (gs *Neo4jGraphStore) OutEdges(ctx context.Context, from string, label string) ([]schema.Edge, error) {
	var edges []schema.Edge
	_, err := gs.run(ctx, neo4j.AccessModeRead,
		`MATCH (a:Vertex {_id: $from})-[e:EDGE]->(b:Vertex)
		 WHERE $label = '' OR e._label = $label
		 RETURN properties(e) AS props, b._id AS target
		 ORDER BY e._seq, e._id`,
		map[string]any{"from": from, "label": label},
		func(rec *neo4j.Record) error {
			props, _ := rec.Get("props")
			target, _ := rec.Get("target")
			e := edgeFromProps(props)
			e.From = from
			e.To = fmt.Sprint(target)
			edges = append(edges, e)
			return nil
		})
	if err != nil {
		return nil, fmt.Errorf("failed to list edges of %q: %w", from, err)
	}
	return edges, nil
}

// HasEdge implements the GraphStore interface.
func (gs *Neo4jGraphStore) HasEdge(ctx context.Context, id string) (bool, error) {
	var count int64
	_, err := gs.run(ctx, neo4j.AccessModeRead,
		`MATCH ()-[e:EDGE {_id: $id}]->() RETURN count(e) AS n`,
		map[string]any{"id": id},
		func(rec *neo4j.Record) error {
			n, _ := rec.Get("n")
			count, _ = n.(int64)
			return nil
		})
	if err != nil {
		return false, fmt.Errorf("failed to check edge %q: %w", id, err)
	}
	return count > 0, nil
}

// AddVertex implements the GraphStore interface.
func (gs *Neo4jGraphStore) AddVertex(ctx context.Context, v schema.Vertex) (bool, error) {
	summary, err := gs.run(ctx, neo4j.AccessModeWrite,
		`MERGE (v:Vertex {_id: $id})
		 ON CREATE SET v += $props, v._label = $label`,
		map[string]any{"id": v.ID, "label": v.Label, "props": toParams(v.Properties)},
		nil)
	if err != nil {
		return false, fmt.Errorf("failed to add vertex %q: %w", v.ID, err)
	}
	return summary.Counters().NodesCreated() > 0, nil
}

// AddEdge implements the GraphStore interface.
func (gs *Neo4jGraphStore) AddEdge(ctx context.Context, e schema.Edge) (bool, error) {
	summary, err := gs.run(ctx, neo4j.AccessModeWrite,
		`MATCH (a:Vertex {_id: $from}), (b:Vertex {_id: $to})
		 MERGE (a)-[e:EDGE {_id: $id}]->(b)
		 ON CREATE SET e += $props, e._label = $label, e._seq = $seq`,
		map[string]any{"from": e.From, "to": e.To, "id": e.ID, "label": e.Label, "seq": e.Seq, "props": toParams(e.Properties)},
		nil)
	if err != nil {
		return false, fmt.Errorf("failed to add edge %q: %w", e.ID, err)
	}
	if summary.Counters().RelationshipsCreated() > 0 {
		return true, nil
	}
	exists, err := gs.HasEdge(ctx, e.ID)
	if err != nil {
		return false, err
	}
	if !exists {
		return false, fmt.Errorf("failed to add edge %q: endpoint %q or %q does not exist", e.ID, e.From, e.To)
	}
	return false, nil
}

// DropVertex implements the GraphStore interface.
func (gs *Neo4jGraphStore) DropVertex(ctx context.Context, id string) error {
	_, err := gs.run(ctx, neo4j.AccessModeWrite,
		`MATCH (v:Vertex {_id: $id}) DETACH DELETE v`,
		map[string]any{"id": id}, nil)
	if err != nil {
		return fmt.Errorf("failed to drop vertex %q: %w", id, err)
	}
	return nil
}

// Clear implements the GraphStore interface.
func (gs *Neo4jGraphStore) Clear(ctx context.Context) error {
	if _, err := gs.run(ctx, neo4j.AccessModeWrite, `MATCH (v:Vertex) DETACH DELETE v`, nil, nil); err != nil {
		return fmt.Errorf("failed to clear graph: %w", err)
	}
	gs.logger.Info("graph store cleared", zap.String("backend", string(schema.GraphNeo4j)))
	return nil
}

// GetStatus implements the GraphStore interface.
func (gs *Neo4jGraphStore) GetStatus(ctx context.Context) (schema.GraphStatus, error) {
	status := schema.GraphStatus{
		Backend:     string(schema.GraphNeo4j),
		Connected:   true,
		LabelCounts: make(map[string]int64),
	}
	_, err := gs.run(ctx, neo4j.AccessModeRead,
		`MATCH (v:Vertex) RETURN v._label AS label, count(v) AS n`, nil,
		func(rec *neo4j.Record) error {
			label, _ := rec.Get("label")
			n, _ := rec.Get("n")
			count, _ := n.(int64)
			status.LabelCounts[fmt.Sprint(label)] = count
			status.Vertices += count
			return nil
		})
	if err != nil {
		status.Connected = false
		return status, fmt.Errorf("failed to count vertices: %w", err)
	}
	_, err = gs.run(ctx, neo4j.AccessModeRead,
		`MATCH ()-[e:EDGE]->() RETURN count(e) AS n`, nil,
		func(rec *neo4j.Record) error {
			n, _ := rec.Get("n")
			status.Edges, _ = n.(int64)
			return nil
		})
	if err != nil {
		return status, fmt.Errorf("failed to count edges: %w", err)
	}
	return status, nil
}

// Close implements the GraphStore interface.
func (gs *Neo4jGraphStore) Close() error {
	return gs.driver.Close(context.Background())
}

// toParams converts string properties into a Cypher parameter map.
func toParams(props map[string]string) map[string]any {
	params := make(map[string]any, len(props))
	for k, v := range props {
		if strings.HasPrefix(k, "_") {
			continue
		}
		params[k] = v
	}
	return params
}

// userProps extracts non-reserved properties as strings.
func userProps(raw map[string]any) map[string]string {
	props := make(map[string]string, len(raw))
	for k, v := range raw {
		if strings.HasPrefix(k, "_") {
			continue
		}
		props[k] = fmt.Sprint(v)
	}
	return props
}

// vertexFromProps decodes a node property map.
func vertexFromProps(raw any) schema.Vertex {
	m, _ := raw.(map[string]any)
	return schema.Vertex{
		ID:         fmt.Sprint(m[neoID]),
		Label:      fmt.Sprint(m[neoLabel]),
		Properties: userProps(m),
	}
}

// edgeFromProps decodes a relationship property map.
func edgeFromProps(raw any) schema.Edge {
	m, _ := raw.(map[string]any)
	seq, _ := m[neoSeq].(int64)
	return schema.Edge{
		ID:         fmt.Sprint(m[neoID]),
		Label:      fmt.Sprint(m[neoLabel]),
		Seq:        int(seq),
		Properties: userProps(m),
	}
}
