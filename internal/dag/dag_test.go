package dag

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddNode(t *testing.T) {
	g := New()

	g.AddNode("a")
	assert.Equal(t, 1, g.Len())

	g.AddNode("a") // Test idempotency
	assert.Equal(t, 1, g.Len())

	g.AddNode("b")
	assert.Equal(t, 2, g.Len())
}

func TestAddEdge(t *testing.T) {
	t.Run("success case", func(t *testing.T) {
		g := New()
		g.AddNode("a")
		g.AddNode("b")
		require.NoError(t, g.AddEdge("a", "b"))
	})

	t.Run("error cases", func(t *testing.T) {
		g := New()
		g.AddNode("a")

		assert.Error(t, g.AddEdge("dne", "a"), "missing from node")
		assert.Error(t, g.AddEdge("a", "dne"), "missing to node")
		assert.Error(t, g.AddEdge("a", "a"), "self edge")
	})
}

func TestTopoSort(t *testing.T) {
	t.Run("linear chain", func(t *testing.T) {
		g := New()
		g.AddNode("a")
		g.AddNode("b")
		g.AddNode("c")
		require.NoError(t, g.AddEdge("a", "b"))
		require.NoError(t, g.AddEdge("b", "c"))

		order, err := g.TopoSort()
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b", "c"}, order)
	})

	t.Run("independent nodes keep insertion order", func(t *testing.T) {
		g := New()
		g.AddNode("c")
		g.AddNode("a")
		g.AddNode("b")

		order, err := g.TopoSort()
		require.NoError(t, err)
		assert.Equal(t, []string{"c", "a", "b"}, order)
	})

	t.Run("ties broken by insertion order", func(t *testing.T) {
		// Both b and c become ready once a runs; b was inserted first.
		g := New()
		g.AddNode("a")
		g.AddNode("b")
		g.AddNode("c")
		g.AddNode("d")
		require.NoError(t, g.AddEdge("a", "b"))
		require.NoError(t, g.AddEdge("a", "c"))
		require.NoError(t, g.AddEdge("b", "d"))
		require.NoError(t, g.AddEdge("c", "d"))

		order, err := g.TopoSort()
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b", "c", "d"}, order)
	})

	t.Run("repeated sorts are identical", func(t *testing.T) {
		g := New()
		for _, id := range []string{"e", "b", "d", "a", "c"} {
			g.AddNode(id)
		}
		require.NoError(t, g.AddEdge("b", "a"))
		require.NoError(t, g.AddEdge("d", "c"))

		first, err := g.TopoSort()
		require.NoError(t, err)
		for i := 0; i < 10; i++ {
			again, err := g.TopoSort()
			require.NoError(t, err)
			assert.Equal(t, first, again)
		}
	})

	t.Run("cycle reported with members", func(t *testing.T) {
		g := New()
		g.AddNode("a")
		g.AddNode("b")
		g.AddNode("c")
		require.NoError(t, g.AddEdge("a", "b"))
		require.NoError(t, g.AddEdge("b", "a"))

		_, err := g.TopoSort()
		var cycle *CycleError
		require.ErrorAs(t, err, &cycle)
		assert.Equal(t, []string{"a", "b"}, cycle.Nodes)
	})
}
