package unitgraph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func threeNodeGraph(t *testing.T) *Graph {
	t.Helper()
	g := New()
	require.True(t, g.AddNode(0, "cup"))
	require.True(t, g.AddNode(1, "tablespoon"))
	require.True(t, g.AddNode(2, "teaspoon"))
	require.True(t, g.AddEdge(0, 1, 16))
	require.True(t, g.AddEdge(1, 0, 1.0/16))
	require.True(t, g.AddEdge(1, 2, 3))
	require.True(t, g.AddEdge(2, 1, 1.0/3))
	return g
}

func TestGraph_AddNode(t *testing.T) {
	t.Run("first label wins", func(t *testing.T) {
		g := New()
		assert.True(t, g.AddNode(0, "cup"))
		assert.False(t, g.AddNode(1, "cup"), "label already present under another id")
		assert.False(t, g.AddNode(0, "cup"))
		assert.Equal(t, 1, g.NodeCount())

		id, ok := g.NodeID("cup")
		assert.True(t, ok)
		assert.Equal(t, 0, id)
	})

	t.Run("id zero is a real id", func(t *testing.T) {
		g := New()
		require.True(t, g.AddNode(0, "cup"))
		id, ok := g.NodeID("cup")
		assert.True(t, ok)
		assert.Zero(t, id)

		_, ok = g.NodeID("pint")
		assert.False(t, ok)
	})

	t.Run("reused id relabels and keeps edges", func(t *testing.T) {
		g := threeNodeGraph(t)
		assert.True(t, g.AddNode(0, "mug"))

		label, ok := g.Label(0)
		assert.True(t, ok)
		assert.Equal(t, "mug", label)
		_, ok = g.NodeID("cup")
		assert.False(t, ok)
		assert.Equal(t, 3, g.NodeCount())
		assert.Equal(t, 4, g.EdgeCount())
		assert.True(t, g.HasEdge(0, 1))
	})
}

func TestGraph_AddEdge(t *testing.T) {
	g := New()
	g.AddNode(0, "cup")
	g.AddNode(1, "tablespoon")

	t.Run("missing endpoints", func(t *testing.T) {
		assert.False(t, g.AddEdge(0, 7, 1))
		assert.False(t, g.AddEdge(7, 0, 1))
		assert.Equal(t, 0, g.EdgeCount())
	})

	t.Run("duplicate rejected", func(t *testing.T) {
		assert.True(t, g.AddEdge(0, 1, 16))
		assert.Equal(t, 1, g.EdgeCount())
		assert.False(t, g.AddEdge(0, 1, 99))
		assert.Equal(t, 1, g.EdgeCount())

		w, ok := g.Weight(0, 1)
		assert.True(t, ok)
		assert.Equal(t, 16.0, w, "first weight kept")
	})

	t.Run("reverse is a separate edge", func(t *testing.T) {
		assert.False(t, g.HasEdge(1, 0))
		assert.True(t, g.AddEdge(1, 0, 1.0/16))
		assert.Equal(t, 2, g.EdgeCount())
	})

	t.Run("stored in both directions", func(t *testing.T) {
		assert.Equal(t, map[int]float64{1: 16}, g.OutEdges(0))
		assert.Equal(t, map[int]float64{1: 1.0 / 16}, g.InEdges(0))
	})
}

func TestGraph_RemoveEdge(t *testing.T) {
	g := threeNodeGraph(t)

	assert.True(t, g.RemoveEdge(0, 1))
	assert.Equal(t, 3, g.EdgeCount())
	assert.False(t, g.HasEdge(0, 1))
	assert.NotContains(t, g.InEdges(1), 0)

	assert.False(t, g.RemoveEdge(0, 1), "already removed")
	assert.False(t, g.RemoveEdge(0, 2), "never existed")
	assert.False(t, g.RemoveEdge(5, 6), "unknown nodes")
	assert.Equal(t, 3, g.EdgeCount())
}

func TestGraph_RemoveNode(t *testing.T) {
	t.Run("removes incoming and outgoing edges", func(t *testing.T) {
		g := threeNodeGraph(t)

		assert.True(t, g.RemoveNode(1))
		assert.Equal(t, 2, g.NodeCount())
		assert.Equal(t, 0, g.EdgeCount())
		assert.Empty(t, g.OutEdges(0))
		assert.Empty(t, g.InEdges(0))
		assert.Empty(t, g.OutEdges(2))
		assert.Empty(t, g.InEdges(2))

		_, ok := g.NodeID("tablespoon")
		assert.False(t, ok)
	})

	t.Run("one-way edges", func(t *testing.T) {
		g := New()
		g.AddNode(0, "a")
		g.AddNode(1, "b")
		g.AddNode(2, "c")
		g.AddEdge(0, 1, 2) // only incoming to b
		g.AddEdge(1, 2, 3) // only outgoing from b
		g.AddEdge(0, 2, 6)

		assert.True(t, g.RemoveNode(1))
		assert.Equal(t, 1, g.EdgeCount())
		assert.True(t, g.HasEdge(0, 2))
	})

	t.Run("self loop", func(t *testing.T) {
		g := New()
		g.AddNode(0, "a")
		g.AddEdge(0, 0, 1)
		assert.True(t, g.RemoveNode(0))
		assert.Equal(t, 0, g.EdgeCount())
	})

	t.Run("missing node", func(t *testing.T) {
		g := threeNodeGraph(t)
		assert.False(t, g.RemoveNode(42))
		assert.Equal(t, 4, g.EdgeCount())
	})

	t.Run("label can be reused", func(t *testing.T) {
		g := threeNodeGraph(t)
		require.True(t, g.RemoveNode(2))
		assert.True(t, g.AddNode(9, "teaspoon"))
	})
}

func TestGraph_EdgeCountMatchesAdjacency(t *testing.T) {
	g := threeNodeGraph(t)
	g.AddNode(3, "milliliter")
	g.AddEdge(2, 3, 4.92892)
	g.AddEdge(3, 2, 1/4.92892)
	g.RemoveEdge(1, 2)
	g.RemoveNode(0)

	outTotal, inTotal := 0, 0
	for _, n := range g.Nodes() {
		outTotal += len(g.OutEdges(n.ID))
		inTotal += len(g.InEdges(n.ID))
	}
	assert.Equal(t, g.EdgeCount(), outTotal)
	assert.Equal(t, g.EdgeCount(), inTotal)
	assert.Len(t, g.Edges(), g.EdgeCount())
}

func TestGraph_Views(t *testing.T) {
	g := threeNodeGraph(t)

	t.Run("out edges are copies", func(t *testing.T) {
		out := g.OutEdges(0)
		out[2] = 48
		assert.False(t, g.HasEdge(0, 2))
	})

	t.Run("unknown node has no edges", func(t *testing.T) {
		assert.Empty(t, g.OutEdges(99))
		_, ok := g.Label(99)
		assert.False(t, ok)
	})

	t.Run("ordered listings", func(t *testing.T) {
		assert.Equal(t, []string{"cup", "tablespoon", "teaspoon"}, g.Labels())
		edges := g.Edges()
		require.Len(t, edges, 4)
		assert.Equal(t, Edge{Src: 0, Dst: 1, Weight: 16}, edges[0])
	})
}
