package store_test

import (
	"testing"

	"github.com/dominikbraun/graph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askiada/go-mixed-pipeline/internal/store"
)

func TestMemoryStoreVertices(t *testing.T) {
	t.Parallel()

	st := store.NewMemoryStore[string, string]()
	gra := graph.NewWithStore(graph.StringHash, st, graph.Directed())

	require.NoError(t, gra.AddVertex("start"))
	require.NoError(t, gra.AddVertex("end"))
	require.ErrorIs(t, gra.AddVertex("start"), graph.ErrVertexAlreadyExists)

	require.NoError(t, st.UpdateVertex("end", graph.VertexAttribute("xlabel", "1s")))
	require.ErrorIs(t, st.UpdateVertex("missing", graph.VertexAttribute("xlabel", "1s")), graph.ErrVertexNotFound)

	_, properties, err := gra.VertexWithProperties("end")
	require.NoError(t, err)
	assert.Equal(t, "1s", properties.Attributes["xlabel"])

	properties.Attributes["xlabel"] = "changed"
	_, properties, err = st.Vertex("end")
	require.NoError(t, err)
	assert.Equal(t, "1s", properties.Attributes["xlabel"])

	count, err := st.VertexCount()
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestMemoryStoreEdges(t *testing.T) {
	t.Parallel()

	st := store.NewMemoryStore[int, int]()
	gra := graph.NewWithStore(graph.IntHash, st, graph.Directed())

	for i := 1; i <= 5; i++ {
		require.NoError(t, gra.AddVertex(i))
	}

	for _, edge := range [][2]int{{1, 2}, {2, 3}, {2, 4}, {3, 5}, {4, 5}} {
		require.NoError(t, gra.AddEdge(edge[0], edge[1]))
	}

	path, err := graph.ShortestPath(gra, 1, 5)
	require.NoError(t, err)
	assert.Len(t, path, 4)

	require.NoError(t, gra.UpdateEdge(2, 3, graph.EdgeAttribute("color", "red")))
	edge, err := gra.Edge(2, 3)
	require.NoError(t, err)
	assert.Equal(t, "red", edge.Properties.Attributes["color"])
	require.ErrorIs(t, st.UpdateEdge(5, 1, graph.Edge[int]{}), graph.ErrEdgeNotFound)

	cycle, err := st.CreatesCycle(5, 1)
	require.NoError(t, err)
	assert.True(t, cycle)

	cycle, err = st.CreatesCycle(3, 4)
	require.NoError(t, err)
	assert.False(t, cycle)

	_, err = st.CreatesCycle(1, 42)
	require.ErrorIs(t, err, graph.ErrVertexNotFound)

	require.ErrorIs(t, st.RemoveVertex(5), graph.ErrVertexHasEdges)
	require.NoError(t, st.RemoveEdge(3, 5))
	require.NoError(t, st.RemoveEdge(4, 5))
	require.NoError(t, st.RemoveVertex(5))
	require.ErrorIs(t, st.RemoveVertex(5), graph.ErrVertexNotFound)

	edges, err := st.ListEdges()
	require.NoError(t, err)
	assert.Len(t, edges, 3)
}
