package core

import (
	"context"
	"os"
	"testing"

	"github.com/huangsam/formpath/internal/gateway"
	"github.com/huangsam/formpath/internal/store"
	"github.com/huangsam/formpath/schema"
	"github.com/stretchr/testify/require"
)

const fixturePath = "../internal/gateway/testdata/questionnaire.yaml"

// newFixtureGateway imports the shared questionnaire into an in-memory graph.
func newFixtureGateway(t *testing.T) *gateway.Gateway {
	t.Helper()
	gs, err := store.NewSQLGraphStore(schema.SQLiteBackend, ":memory:", nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = gs.Close() })

	f, err := os.Open(fixturePath)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()
	qn, err := gateway.ParseQuestionnaire(f)
	require.NoError(t, err)

	g := gateway.New(gs, "1", nil)
	_, err = g.ImportQuestionnaire(context.Background(), qn)
	require.NoError(t, err)
	return g
}

// answerAll drives a session to the end with fixed choices per question id.
func answerAll(t *testing.T, s *Session, choices map[string][]string) {
	t.Helper()
	ctx := context.Background()
	for range 10 {
		q, err := s.Current(ctx)
		require.NoError(t, err)
		if q.IsTerminal() {
			return
		}
		ids, ok := choices[q.ID]
		require.True(t, ok, "no choice for question %s", q.ID)
		require.NoError(t, s.Answer(q, ids, "tabular data"))
	}
	t.Fatal("session did not reach the end")
}

var classificationPath = map[string][]string{
	"1": {"cls"},
	"2": {"no"},
	"3": {"speed"},
	"4": {"desc"},
}
