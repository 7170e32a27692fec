package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/huangsam/formpath/internal/contract"
	"github.com/huangsam/formpath/schema"
	"go.uber.org/zap"
)

// Table names for graph storage.
const (
	verticesTable = "formpath_vertices"
	edgesTable    = "formpath_edges"
)

// SQLGraphStore implements GraphStore on a relational backend.
type SQLGraphStore struct {
	db      *sql.DB
	backend schema.DatabaseBackend
	logger  *zap.Logger
}

var _ contract.GraphStore = &SQLGraphStore{} // Compile-time check

// NewGraphStore opens the graph store for the configured backend.
func NewGraphStore(ctx context.Context, cfg *contract.Config, logger *zap.Logger) (contract.GraphStore, error) {
	if cfg.GraphBackend == schema.GraphNeo4j {
		gs, err := NewNeo4jGraphStore(ctx, cfg.GraphDBConnect, cfg.Neo4jUser, cfg.Neo4jPassword, logger)
		if err != nil {
			return nil, err
		}
		return gs, nil
	}
	gs, err := NewSQLGraphStore(schema.DatabaseBackend(cfg.GraphBackend), cfg.GraphDBConnect, logger)
	if err != nil {
		return nil, err
	}
	return gs, nil
}

// NewSQLGraphStore opens a graph store on sqlite, mysql or postgresql and creates its tables.
func NewSQLGraphStore(backend schema.DatabaseBackend, connStr string, logger *zap.Logger) (*SQLGraphStore, error) {
	db, err := openSQL(backend, connStr, contract.GetGraphDBFilePath())
	if err != nil {
		return nil, err
	}

	if err := createGraphTables(db, backend); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create graph tables: %w", err)
	}

	logger = contract.LoggerOrNop(logger)
	logger.Debug("graph store opened", zap.String("backend", string(backend)))
	return &SQLGraphStore{db: db, backend: backend, logger: logger}, nil
}

// createGraphTables creates the vertex and edge tables.
func createGraphTables(db *sql.DB, backend schema.DatabaseBackend) error {
	for _, query := range getCreateGraphQueries(backend) {
		if _, err := db.Exec(query); err != nil {
			return err
		}
	}
	return nil
}

// getCreateGraphQueries returns the DDL for the backend.
func getCreateGraphQueries(backend schema.DatabaseBackend) []string {
	vt := quoteTableName(verticesTable, backend)
	et := quoteTableName(edgesTable, backend)

	switch backend {
	case schema.MySQLBackend:
		return []string{
			fmt.Sprintf(`
				CREATE TABLE IF NOT EXISTS %s (
					vertex_id VARCHAR(255) PRIMARY KEY,
					label VARCHAR(64) NOT NULL,
					properties TEXT NOT NULL,
					INDEX idx_formpath_vertices_label (label)
				);`, vt),
			fmt.Sprintf(`
				CREATE TABLE IF NOT EXISTS %s (
					edge_id VARCHAR(512) PRIMARY KEY,
					label VARCHAR(64) NOT NULL,
					from_id VARCHAR(255) NOT NULL,
					to_id VARCHAR(255) NOT NULL,
					seq INT NOT NULL DEFAULT 0,
					properties TEXT NOT NULL,
					INDEX idx_formpath_edges_from (from_id),
					INDEX idx_formpath_edges_to (to_id)
				);`, et),
		}

	case schema.PostgreSQLBackend:
		return []string{
			fmt.Sprintf(`
				CREATE TABLE IF NOT EXISTS %s (
					vertex_id TEXT PRIMARY KEY,
					label TEXT NOT NULL,
					properties TEXT NOT NULL
				);`, vt),
			fmt.Sprintf(`
				CREATE TABLE IF NOT EXISTS %s (
					edge_id TEXT PRIMARY KEY,
					label TEXT NOT NULL,
					from_id TEXT NOT NULL,
					to_id TEXT NOT NULL,
					seq INT NOT NULL DEFAULT 0,
					properties TEXT NOT NULL
				);`, et),
			fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_formpath_vertices_label ON %s (label);`, vt),
			fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_formpath_edges_from ON %s (from_id);`, et),
			fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_formpath_edges_to ON %s (to_id);`, et),
		}

	default: // SQLite
		return []string{
			fmt.Sprintf(`
				CREATE TABLE IF NOT EXISTS %s (
					vertex_id TEXT PRIMARY KEY,
					label TEXT NOT NULL,
					properties TEXT NOT NULL
				);`, vt),
			fmt.Sprintf(`
				CREATE TABLE IF NOT EXISTS %s (
					edge_id TEXT PRIMARY KEY,
					label TEXT NOT NULL,
					from_id TEXT NOT NULL,
					to_id TEXT NOT NULL,
					seq INTEGER NOT NULL DEFAULT 0,
					properties TEXT NOT NULL
				);`, et),
			fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_formpath_vertices_label ON %s (label);`, vt),
			fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_formpath_edges_from ON %s (from_id);`, et),
			fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_formpath_edges_to ON %s (to_id);`, et),
		}
	}
}

// wrap marks connection failures as unavailable.
func (gs *SQLGraphStore) wrap(err error) error {
	return wrapSQL(gs.backend, err)
}

// ph is a shorthand for the n-th placeholder of this store.
func (gs *SQLGraphStore) ph(n int) string {
	return placeholder(gs.backend, n)
}

// GetVertex implements the GraphStore interface.
func (gs *SQLGraphStore) GetVertex(ctx context.Context, id string) (schema.Vertex, bool, error) {
	query := fmt.Sprintf(`SELECT vertex_id, label, properties FROM %s WHERE vertex_id = %s`,
		quoteTableName(verticesTable, gs.backend), gs.ph(1))

	var v schema.Vertex
	var props string
	err := gs.db.QueryRowContext(ctx, query, id).Scan(&v.ID, &v.Label, &props)
	if errors.Is(err, sql.ErrNoRows) {
		return schema.Vertex{}, false, nil
	}
	if err != nil {
		return schema.Vertex{}, false, gs.wrap(fmt.Errorf("failed to read vertex %q: %w", id, err))
	}
	if v.Properties, err = decodeProperties(props); err != nil {
		return schema.Vertex{}, false, fmt.Errorf("vertex %q: %w", id, err)
	}
	return v, true, nil
}

// VerticesByLabel implements the GraphStore interface.
func (gs *SQLGraphStore) VerticesByLabel(ctx context.Context, label string) ([]schema.Vertex, error) {
	query := fmt.Sprintf(`SELECT vertex_id, label, properties FROM %s WHERE label = %s ORDER BY vertex_id`,
		quoteTableName(verticesTable, gs.backend), gs.ph(1))

	rows, err := gs.db.QueryContext(ctx, query, label)
	if err != nil {
		return nil, gs.wrap(fmt.Errorf("failed to list %q vertices: %w", label, err))
	}
	defer func() { _ = rows.Close() }()

	var vertices []schema.Vertex
	for rows.Next() {
		var v schema.Vertex
		var props string
		if err := rows.Scan(&v.ID, &v.Label, &props); err != nil {
			return nil, err
		}
		if v.Properties, err = decodeProperties(props); err != nil {
			return nil, fmt.Errorf("vertex %q: %w", v.ID, err)
		}
		vertices = append(vertices, v)
	}
	return vertices, gs.wrap(rows.Err())
}

// OutEdges implements the GraphStore interface.
func (gs *SQLGraphStore) OutEdges(ctx context.Context, from string, label string) ([]schema.Edge, error) {
	et := quoteTableName(edgesTable, gs.backend)
	query := fmt.Sprintf(`SELECT edge_id, label, from_id, to_id, seq, properties FROM %s WHERE from_id = %s`, et, gs.ph(1))
	args := []any{from}
	if label != "" {
		query += fmt.Sprintf(` AND label = %s`, gs.ph(2))
		args = append(args, label)
	}
	query += ` ORDER BY seq, edge_id`

	rows, err := gs.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, gs.wrap(fmt.Errorf("failed to list edges of %q: %w", from, err))
	}
	defer func() { _ = rows.Close() }()

	var edges []schema.Edge
	for rows.Next() {
		var e schema.Edge
		var props string
		if err := rows.Scan(&e.ID, &e.Label, &e.From, &e.To, &e.Seq, &props); err != nil {
			return nil, err
		}
		if e.Properties, err = decodeProperties(props); err != nil {
			return nil, fmt.Errorf("edge %q: %w", e.ID, err)
		}
		edges = append(edges, e)
	}
	return edges, gs.wrap(rows.Err())
}

// HasEdge implements the GraphStore interface.
func (gs *SQLGraphStore) HasEdge(ctx context.Context, id string) (bool, error) {
	query := fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE edge_id = %s`, quoteTableName(edgesTable, gs.backend), gs.ph(1))
	var count int
	if err := gs.db.QueryRowContext(ctx, query, id).Scan(&count); err != nil {
		return false, gs.wrap(fmt.Errorf("failed to check edge %q: %w", id, err))
	}
	return count > 0, nil
}

// AddVertex implements the GraphStore interface.
func (gs *SQLGraphStore) AddVertex(ctx context.Context, v schema.Vertex) (bool, error) {
	props, err := encodeProperties(v.Properties)
	if err != nil {
		return false, err
	}
	query := gs.insertIgnoreQuery(verticesTable, "vertex_id", []string{"vertex_id", "label", "properties"})
	res, err := gs.db.ExecContext(ctx, query, v.ID, v.Label, props)
	if err != nil {
		return false, gs.wrap(fmt.Errorf("failed to add vertex %q: %w", v.ID, err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// AddEdge implements the GraphStore interface.
func (gs *SQLGraphStore) AddEdge(ctx context.Context, e schema.Edge) (bool, error) {
	props, err := encodeProperties(e.Properties)
	if err != nil {
		return false, err
	}
	query := gs.insertIgnoreQuery(edgesTable, "edge_id", []string{"edge_id", "label", "from_id", "to_id", "seq", "properties"})
	res, err := gs.db.ExecContext(ctx, query, e.ID, e.Label, e.From, e.To, e.Seq, props)
	if err != nil {
		return false, gs.wrap(fmt.Errorf("failed to add edge %q: %w", e.ID, err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// insertIgnoreQuery returns a create-if-absent INSERT for the backend.
func (gs *SQLGraphStore) insertIgnoreQuery(table, key string, columns []string) string {
	quoted := quoteTableName(table, gs.backend)
	placeholders := ""
	cols := ""
	for i, c := range columns {
		if i > 0 {
			placeholders += ", "
			cols += ", "
		}
		placeholders += gs.ph(i + 1)
		cols += c
	}

	switch gs.backend {
	case schema.MySQLBackend:
		return fmt.Sprintf(`INSERT IGNORE INTO %s (%s) VALUES (%s)`, quoted, cols, placeholders)
	case schema.PostgreSQLBackend:
		return fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s) ON CONFLICT (%s) DO NOTHING`, quoted, cols, placeholders, key)
	default: // SQLite
		return fmt.Sprintf(`INSERT OR IGNORE INTO %s (%s) VALUES (%s)`, quoted, cols, placeholders)
	}
}

// DropVertex implements the GraphStore interface.
func (gs *SQLGraphStore) DropVertex(ctx context.Context, id string) error {
	tx, err := gs.db.BeginTx(ctx, nil)
	if err != nil {
		return gs.wrap(fmt.Errorf("failed to begin transaction: %w", err))
	}
	defer func() { _ = tx.Rollback() }()

	edgeQuery := fmt.Sprintf(`DELETE FROM %s WHERE from_id = %s OR to_id = %s`,
		quoteTableName(edgesTable, gs.backend), gs.ph(1), gs.ph(2))
	if _, err := tx.ExecContext(ctx, edgeQuery, id, id); err != nil {
		return gs.wrap(fmt.Errorf("failed to drop edges of %q: %w", id, err))
	}

	vertexQuery := fmt.Sprintf(`DELETE FROM %s WHERE vertex_id = %s`, quoteTableName(verticesTable, gs.backend), gs.ph(1))
	if _, err := tx.ExecContext(ctx, vertexQuery, id); err != nil {
		return gs.wrap(fmt.Errorf("failed to drop vertex %q: %w", id, err))
	}

	return gs.wrap(tx.Commit())
}

// Clear implements the GraphStore interface.
func (gs *SQLGraphStore) Clear(ctx context.Context) error {
	for _, table := range []string{edgesTable, verticesTable} {
		query := fmt.Sprintf("DELETE FROM %s", quoteTableName(table, gs.backend))
		if _, err := gs.db.ExecContext(ctx, query); err != nil {
			return gs.wrap(fmt.Errorf("failed to clear table %s: %w", table, err))
		}
	}
	gs.logger.Info("graph store cleared", zap.String("backend", string(gs.backend)))
	return nil
}

// GetStatus implements the GraphStore interface.
func (gs *SQLGraphStore) GetStatus(ctx context.Context) (schema.GraphStatus, error) {
	status := schema.GraphStatus{
		Backend:     string(gs.backend),
		Connected:   gs.db != nil,
		LabelCounts: make(map[string]int64),
	}
	if gs.db == nil {
		return status, nil
	}

	vt := quoteTableName(verticesTable, gs.backend)
	et := quoteTableName(edgesTable, gs.backend)

	if err := gs.db.QueryRowContext(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %s", vt)).Scan(&status.Vertices); err != nil {
		return status, gs.wrap(fmt.Errorf("failed to count vertices: %w", err))
	}
	if err := gs.db.QueryRowContext(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %s", et)).Scan(&status.Edges); err != nil {
		return status, gs.wrap(fmt.Errorf("failed to count edges: %w", err))
	}

	rows, err := gs.db.QueryContext(ctx, fmt.Sprintf("SELECT label, COUNT(*) FROM %s GROUP BY label", vt))
	if err != nil {
		return status, gs.wrap(fmt.Errorf("failed to count labels: %w", err))
	}
	defer func() { _ = rows.Close() }()
	for rows.Next() {
		var label string
		var count int64
		if err := rows.Scan(&label, &count); err != nil {
			return status, err
		}
		status.LabelCounts[label] = count
	}
	return status, gs.wrap(rows.Err())
}

// Close implements the GraphStore interface.
func (gs *SQLGraphStore) Close() error {
	if gs.db != nil {
		return gs.db.Close()
	}
	return nil
}

// encodeProperties serializes properties as a JSON object.
func encodeProperties(props map[string]string) (string, error) {
	if props == nil {
		props = map[string]string{}
	}
	data, err := json.Marshal(props)
	if err != nil {
		return "", fmt.Errorf("failed to encode properties: %w", err)
	}
	return string(data), nil
}

// decodeProperties is the inverse of encodeProperties.
func decodeProperties(raw string) (map[string]string, error) {
	props := map[string]string{}
	if raw == "" {
		return props, nil
	}
	if err := json.Unmarshal([]byte(raw), &props); err != nil {
		return nil, fmt.Errorf("failed to decode properties: %w", err)
	}
	return props, nil
}
