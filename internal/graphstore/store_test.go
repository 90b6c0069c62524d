package graphstore_test

import (
	"testing"

	"github.com/dominikbraun/graph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/braidml/braid/internal/graphstore"
)

func buildStore(t *testing.T) *graphstore.MemoryStore[string, string] {
	t.Helper()

	store := graphstore.New[string, string]()
	for _, v := range []string{"a", "b", "c"} {
		require.NoError(t, store.AddVertex(v, v, graph.VertexProperties{}))
	}
	require.NoError(t, store.AddEdge("a", "b", graph.Edge[string]{Source: "a", Target: "b"}))
	require.NoError(t, store.AddEdge("a", "c", graph.Edge[string]{Source: "a", Target: "c"}))
	require.NoError(t, store.AddEdge("b", "c", graph.Edge[string]{Source: "b", Target: "c"}))

	return store
}

func TestVertexLifecycle(t *testing.T) {
	t.Parallel()

	store := graphstore.New[string, string]()

	require.NoError(t, store.AddVertex("a", "a", graph.VertexProperties{}))
	assert.ErrorIs(t, store.AddVertex("a", "a", graph.VertexProperties{}), graph.ErrVertexAlreadyExists)

	count, err := store.VertexCount()
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	_, _, err = store.Vertex("missing")
	assert.ErrorIs(t, err, graph.ErrVertexNotFound)

	require.NoError(t, store.RemoveVertex("a"))
	assert.ErrorIs(t, store.RemoveVertex("a"), graph.ErrVertexNotFound)
}

func TestRemoveVertexWithEdges(t *testing.T) {
	t.Parallel()

	store := buildStore(t)
	assert.ErrorIs(t, store.RemoveVertex("b"), graph.ErrVertexHasEdges)
}

func TestNeighbours(t *testing.T) {
	t.Parallel()

	store := buildStore(t)

	assert.ElementsMatch(t, []string{"a", "b"}, store.Predecessors("c"))
	assert.ElementsMatch(t, []string{"b", "c"}, store.Successors("a"))
	assert.Equal(t, 2, store.InDegree("c"))
	assert.Equal(t, 2, store.OutDegree("a"))
	assert.Equal(t, 0, store.InDegree("a"))
	assert.Empty(t, store.Predecessors("a"))
}

func TestEdgeLookup(t *testing.T) {
	t.Parallel()

	store := buildStore(t)

	edge, err := store.Edge("a", "b")
	require.NoError(t, err)
	assert.Equal(t, "b", edge.Target)

	_, err = store.Edge("b", "a")
	assert.ErrorIs(t, err, graph.ErrEdgeNotFound)

	edges, err := store.ListEdges()
	require.NoError(t, err)
	assert.Len(t, edges, 3)
}

func TestCreatesCycle(t *testing.T) {
	t.Parallel()

	store := buildStore(t)

	tcs := map[string]struct {
		source string
		target string
		want   bool
	}{
		"back edge":     {source: "c", target: "a", want: true},
		"self loop":     {source: "a", target: "a", want: true},
		"forward edge":  {source: "a", target: "c", want: false},
		"between sinks": {source: "b", target: "c", want: false},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			got, err := store.CreatesCycle(tc.source, tc.target)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}

	_, err := store.CreatesCycle("missing", "a")
	assert.Error(t, err)
}
