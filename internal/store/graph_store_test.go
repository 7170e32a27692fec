package store

import (
	"bytes"
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"testing"

	"github.com/huangsam/formpath/internal/contract"
	"github.com/huangsam/formpath/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMemoryGraph(t *testing.T) *SQLGraphStore {
	t.Helper()
	gs, err := NewSQLGraphStore(schema.SQLiteBackend, ":memory:", nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = gs.Close() })
	return gs
}

func TestGraphStore_AddVertexIsIdempotent(t *testing.T) {
	ctx := context.Background()
	gs := newMemoryGraph(t)

	v := schema.Vertex{ID: "1", Label: "single_choice", Properties: map[string]string{"text": "Task?"}}
	created, err := gs.AddVertex(ctx, v)
	require.NoError(t, err)
	assert.True(t, created)

	v.Properties["text"] = "changed"
	created, err = gs.AddVertex(ctx, v)
	require.NoError(t, err)
	assert.False(t, created, "second insert is a no-op")

	got, ok, err := gs.GetVertex(ctx, "1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Task?", got.Prop("text"), "existing vertex is not overwritten")
	assert.Equal(t, "single_choice", got.Label)
}

func TestGraphStore_GetVertexMissing(t *testing.T) {
	gs := newMemoryGraph(t)
	_, ok, err := gs.GetVertex(context.Background(), "nope")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestGraphStore_ValuesAreBoundNotInterpolated(t *testing.T) {
	ctx := context.Background()
	gs := newMemoryGraph(t)

	id := `x'); DROP TABLE formpath_vertices; --`
	_, err := gs.AddVertex(ctx, schema.Vertex{ID: id, Label: "user"})
	require.NoError(t, err)

	got, ok, err := gs.GetVertex(ctx, id)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, id, got.ID)
}

func TestGraphStore_OutEdgesOrdering(t *testing.T) {
	ctx := context.Background()
	gs := newMemoryGraph(t)

	for _, id := range []string{"a", "b", "c"} {
		_, err := gs.AddVertex(ctx, schema.Vertex{ID: id, Label: "open"})
		require.NoError(t, err)
	}
	edges := []schema.Edge{
		{ID: "e2", Label: schema.PropositionEdge, From: "a", To: "c", Seq: 1},
		{ID: "e1", Label: schema.PropositionEdge, From: "a", To: "b", Seq: 0, Properties: map[string]string{"text": "Yes"}},
		{ID: "e3", Label: schema.AnswerEdge, From: "a", To: "b", Seq: 2},
	}
	for _, e := range edges {
		created, err := gs.AddEdge(ctx, e)
		require.NoError(t, err)
		assert.True(t, created)
	}

	out, err := gs.OutEdges(ctx, "a", schema.PropositionEdge)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "e1", out[0].ID)
	assert.Equal(t, "Yes", out[0].Prop("text"))
	assert.Equal(t, "e2", out[1].ID)

	all, err := gs.OutEdges(ctx, "a", "")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	ok, err := gs.HasEdge(ctx, "e3")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestGraphStore_DropVertexRemovesIncidentEdges(t *testing.T) {
	ctx := context.Background()
	gs := newMemoryGraph(t)

	_, _ = gs.AddVertex(ctx, schema.Vertex{ID: "a", Label: "open"})
	_, _ = gs.AddVertex(ctx, schema.Vertex{ID: "b", Label: "open"})
	_, err := gs.AddEdge(ctx, schema.Edge{ID: "a>b", Label: schema.AnswerEdge, From: "a", To: "b"})
	require.NoError(t, err)

	require.NoError(t, gs.DropVertex(ctx, "b"))
	require.NoError(t, gs.DropVertex(ctx, "b"), "missing vertex is fine")

	ok, err := gs.HasEdge(ctx, "a>b")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestGraphStore_StatusAndClear(t *testing.T) {
	ctx := context.Background()
	gs := newMemoryGraph(t)

	_, _ = gs.AddVertex(ctx, schema.Vertex{ID: "u", Label: schema.UserLabel})
	_, _ = gs.AddVertex(ctx, schema.Vertex{ID: "q", Label: "open"})
	_, _ = gs.AddEdge(ctx, schema.Edge{ID: "u>q", Label: schema.AnswerEdge, From: "u", To: "q"})

	status, err := gs.GetStatus(ctx)
	require.NoError(t, err)
	assert.True(t, status.Connected)
	assert.Equal(t, int64(2), status.Vertices)
	assert.Equal(t, int64(1), status.Edges)
	assert.Equal(t, int64(1), status.LabelCounts[schema.UserLabel])

	var buf bytes.Buffer
	PrintGraphStatus(&buf, status)
	assert.Contains(t, buf.String(), "Vertices: 2")
	assert.Contains(t, buf.String(), "user: 1")

	require.NoError(t, gs.Clear(ctx))
	users, err := gs.VerticesByLabel(ctx, schema.UserLabel)
	require.NoError(t, err)
	assert.Empty(t, users)
}

func TestQuoteTableName(t *testing.T) {
	assert.Equal(t, "`t`", quoteTableName("t", schema.MySQLBackend))
	assert.Equal(t, `"t"`, quoteTableName("t", schema.PostgreSQLBackend))
	assert.Equal(t, `"t"`, quoteTableName("t", schema.SQLiteBackend))
}

func TestPlaceholder(t *testing.T) {
	assert.Equal(t, "$2", placeholder(schema.PostgreSQLBackend, 2))
	assert.Equal(t, "?", placeholder(schema.MySQLBackend, 2))
	assert.Equal(t, "?", placeholder(schema.SQLiteBackend, 1))
}

func TestInsertIgnoreQuery(t *testing.T) {
	cols := []string{"vertex_id", "label"}
	pg := (&SQLGraphStore{backend: schema.PostgreSQLBackend}).insertIgnoreQuery(verticesTable, "vertex_id", cols)
	assert.Contains(t, pg, "ON CONFLICT (vertex_id) DO NOTHING")
	assert.Contains(t, pg, "$1, $2")

	my := (&SQLGraphStore{backend: schema.MySQLBackend}).insertIgnoreQuery(verticesTable, "vertex_id", cols)
	assert.Contains(t, my, "INSERT IGNORE INTO `formpath_vertices`")

	lite := (&SQLGraphStore{backend: schema.SQLiteBackend}).insertIgnoreQuery(verticesTable, "vertex_id", cols)
	assert.Contains(t, lite, "INSERT OR IGNORE")
}

func TestUnsupportedBackend(t *testing.T) {
	_, err := NewSQLGraphStore(schema.NoneBackend, "", nil)
	assert.Error(t, err)
}

func TestGraphStore_ClosedStoreIsUnavailable(t *testing.T) {
	ctx := context.Background()
	gs, err := NewSQLGraphStore(schema.SQLiteBackend, ":memory:", nil)
	require.NoError(t, err)
	require.NoError(t, gs.Close())

	tests := []struct {
		name string
		call func() error
	}{
		{"GetVertex", func() error { _, _, err := gs.GetVertex(ctx, "1"); return err }},
		{"VerticesByLabel", func() error { _, err := gs.VerticesByLabel(ctx, "user"); return err }},
		{"OutEdges", func() error { _, err := gs.OutEdges(ctx, "1", ""); return err }},
		{"HasEdge", func() error { _, err := gs.HasEdge(ctx, "e"); return err }},
		{"AddVertex", func() error { _, err := gs.AddVertex(ctx, schema.Vertex{ID: "1", Label: "user"}); return err }},
		{"AddEdge", func() error { _, err := gs.AddEdge(ctx, schema.Edge{ID: "e", From: "1", To: "2"}); return err }},
		{"DropVertex", func() error { return gs.DropVertex(ctx, "1") }},
		{"Clear", func() error { return gs.Clear(ctx) }},
		{"GetStatus", func() error { _, err := gs.GetStatus(ctx); return err }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.call()
			require.Error(t, err)
			assert.ErrorIs(t, err, contract.ErrUnavailable)
		})
	}
}

func TestWrapSQL(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		unavailable bool
	}{
		{"nil", nil, false},
		{"bad conn", fmt.Errorf("query: %w", driver.ErrBadConn), true},
		{"conn done", sql.ErrConnDone, true},
		{"closed", errors.New("sql: database is closed"), true},
		{"net", &net.OpError{Op: "dial", Err: errors.New("connection refused")}, true},
		{"constraint", errors.New("UNIQUE constraint failed"), false},
		{"no rows", sql.ErrNoRows, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := wrapSQL(schema.MySQLBackend, tt.err)
			if tt.err == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.err)
			assert.Equal(t, tt.unavailable, errors.Is(err, contract.ErrUnavailable))
		})
	}
}
