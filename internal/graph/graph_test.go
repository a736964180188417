package graph

import (
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func triangle(t *testing.T) *Graph {
	t.Helper()
	g := New()
	for _, id := range []NodeID{"A", "B", "C"} {
		require.NoError(t, g.AddNode(id))
	}
	require.NoError(t, g.AddEdge("A", "B", 5, 10, 0.2))
	require.NoError(t, g.AddEdge("B", "C", 5, 10, 0.2))
	require.NoError(t, g.AddBidirectionalEdge("A", "C", 12, 15, 0.5))
	return g
}

func TestAddNodeIdempotent(t *testing.T) {
	g := New()
	require.NoError(t, g.AddNode("A"))
	require.NoError(t, g.AddEdge("A", "A", 1, 1, 0))
	require.NoError(t, g.AddNode("A"))

	assert.Equal(t, 1, g.NodeCount())
	assert.Equal(t, 1, g.EdgeCount(), "re-adding a node must keep its adjacency")
}

func TestAddNodeEmptyID(t *testing.T) {
	err := New().AddNode("")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidArgument))
}

func TestAddEdgeReportsExactAttributes(t *testing.T) {
	g := triangle(t)
	e, ok := g.Neighbors("A")["B"]
	require.True(t, ok)
	assert.Equal(t, Edge{To: "B", Distance: 5, Time: 10, Congestion: 0.2}, e)

	_, ok = g.Neighbors("B")["A"]
	assert.False(t, ok, "directed edge must not be mirrored")
}

func TestAddEdgeRejectsInvalidInput(t *testing.T) {
	cases := []struct {
		name     string
		from, to NodeID
		d, tm, c float64
	}{
		{"negative distance", "A", "B", -1, 1, 0.1},
		{"negative time", "A", "B", 1, -1, 0.1},
		{"congestion above one", "A", "B", 1, 1, 1.01},
		{"congestion below zero", "A", "B", 1, 1, -0.1},
		{"congestion NaN", "A", "B", 1, 1, math.NaN()},
		{"missing source", "X", "B", 1, 1, 0.1},
		{"missing target", "A", "X", 1, 1, 0.1},
		{"empty id", "", "B", 1, 1, 0.1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			g := triangle(t)
			before := g.Edges()
			err := g.AddEdge(tc.from, tc.to, tc.d, tc.tm, tc.c)
			require.ErrorIs(t, err, ErrInvalidArgument)
			assert.Equal(t, before, g.Edges(), "failed AddEdge must not mutate the graph")
		})
	}
}

func TestBidirectionalCountsTwice(t *testing.T) {
	g := triangle(t)
	assert.Equal(t, 4, g.EdgeCount())
	assert.Equal(t, 2, g.RemoveBidirectionalEdge("A", "C"))
	assert.Equal(t, 2, g.EdgeCount())
	assert.Equal(t, 0, g.RemoveBidirectionalEdge("A", "C"))
}

func TestRemoveNodeCascades(t *testing.T) {
	g := triangle(t)
	g.RemoveNode("C")

	assert.False(t, g.HasNode("C"))
	for _, e := range g.Edges() {
		assert.NotEqual(t, NodeID("C"), e.To, "edge %s→%s still targets removed node", e.From, e.To)
		assert.NotEqual(t, NodeID("C"), e.From)
	}
	assert.Equal(t, 1, g.EdgeCount())
	assert.Empty(t, g.Neighbors("C"))
	assert.NotNil(t, g.Neighbors("C"))
}

func TestUpdateEdgeNeverCreates(t *testing.T) {
	g := triangle(t)

	ok, err := g.UpdateEdge("C", "B", 1, 1, 0.1)
	require.NoError(t, err)
	assert.False(t, ok)
	_, exists := g.Edge("C", "B")
	assert.False(t, exists)

	ok, err = g.UpdateEdge("A", "B", 7, 8, 0.9)
	require.NoError(t, err)
	assert.True(t, ok)
	e, _ := g.Edge("A", "B")
	assert.Equal(t, Edge{To: "B", Distance: 7, Time: 8, Congestion: 0.9}, e)
	assert.Equal(t, 4, g.EdgeCount())

	_, err = g.UpdateEdge("A", "B", 1, 1, 2)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestNeighborsIsACopy(t *testing.T) {
	g := triangle(t)
	n := g.Neighbors("A")
	delete(n, "B")
	_, ok := g.Edge("A", "B")
	assert.True(t, ok)
}

func TestEdgesSorted(t *testing.T) {
	g := triangle(t)
	var got []string
	for _, e := range g.Edges() {
		got = append(got, string(e.From)+string(e.To))
	}
	assert.Equal(t, []string{"AB", "AC", "BC", "CA"}, got)
}

func TestCloneIsIndependent(t *testing.T) {
	g := triangle(t)
	c := g.Clone()
	c.RemoveNode("A")
	assert.True(t, g.HasNode("A"))
	assert.Equal(t, 4, g.EdgeCount())
	assert.Equal(t, 1, c.EdgeCount())
}

func TestCongestionLevel(t *testing.T) {
	assert.Equal(t, Light, Edge{Congestion: 0.29}.Level())
	assert.Equal(t, Moderate, Edge{Congestion: 0.3}.Level())
	assert.Equal(t, Heavy, Edge{Congestion: 0.7}.Level())
}

func TestSharedSerialisesWriters(t *testing.T) {
	s := NewShared(nil)
	require.NoError(t, s.Write(func(g *Graph) error { return g.AddNode("hub") }))

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.Write(func(g *Graph) error { return g.AddEdge("hub", "hub", 1, 1, 0) })
			s.Read(func(g *Graph) { _ = g.EdgeCount() })
		}()
	}
	wg.Wait()

	snap := s.Snapshot()
	assert.Equal(t, 1, snap.EdgeCount())
}
