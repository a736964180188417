package routing

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ilds/internal/graph"
)

// line builds A→B(d=5,t=10,c=0.2), B→C(d=5,t=10,c=0.2).
func line(t *testing.T) *graph.Graph {
	t.Helper()
	g := graph.New()
	for _, id := range []graph.NodeID{"A", "B", "C"} {
		require.NoError(t, g.AddNode(id))
	}
	require.NoError(t, g.AddEdge("A", "B", 5, 10, 0.2))
	require.NoError(t, g.AddEdge("B", "C", 5, 10, 0.2))
	return g
}

func TestMinDistanceLine(t *testing.T) {
	g := line(t)
	res, err := MinDistance(g, "A", "C", Constraints{Capacity: 1, DeadlineHours: 1})
	require.NoError(t, err)

	assert.Equal(t, []graph.NodeID{"A", "B", "C"}, res.Path)
	assert.Equal(t, 10.0, res.TotalDistance)
	assert.Equal(t, 20.0, res.TotalTime)
	assert.InDelta(t, 0.2, res.AverageCongestion, 1e-12)
}

func TestMinTimeMissesTightDeadline(t *testing.T) {
	g := line(t)
	res, err := MinTime(g, "A", "C", Constraints{Capacity: 1, DeadlineHours: 0.1})
	require.NoError(t, err)

	assert.False(t, res.Found())
	assert.Empty(t, res.Path)
	assert.Equal(t, math.MaxFloat64, res.TotalTime)
	assert.Equal(t, math.MaxFloat64, res.TotalDistance)
	assert.Equal(t, 0.0, res.AverageCongestion)
}

func TestUnknownEndpoints(t *testing.T) {
	g := line(t)
	for _, search := range []func(*graph.Graph, graph.NodeID, graph.NodeID, Constraints) (PathResult, error){
		MinDistance,
		func(g *graph.Graph, s, d graph.NodeID, c Constraints) (PathResult, error) { return MinTime(g, s, d, c) },
	} {
		_, err := search(g, "A", "Z", Unbounded())
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrUnknownNode))
		assert.True(t, errors.Is(err, graph.ErrInvalidArgument))

		var ne *NodeError
		require.True(t, errors.As(err, &ne))
		assert.Equal(t, graph.NodeID("Z"), ne.ID)

		_, err = search(g, "Z", "A", Unbounded())
		assert.ErrorIs(t, err, ErrUnknownNode)
	}
}

func TestBadConstraints(t *testing.T) {
	g := line(t)
	_, err := MinDistance(g, "A", "C", Constraints{Capacity: -1, DeadlineHours: 1})
	assert.ErrorIs(t, err, graph.ErrInvalidArgument)
	_, err = MinTime(g, "A", "C", Constraints{Capacity: 1, DeadlineHours: math.NaN()})
	assert.ErrorIs(t, err, ErrBadConstraints)
}

func TestSameSourceAndTarget(t *testing.T) {
	g := line(t)
	res, err := MinTime(g, "B", "B", Constraints{Capacity: 0, DeadlineHours: 0})
	require.NoError(t, err)
	assert.Equal(t, []graph.NodeID{"B"}, res.Path)
	assert.Equal(t, 0.0, res.TotalDistance)
	assert.Equal(t, 0.0, res.AverageCongestion)
}

func TestUnreachableIsAValue(t *testing.T) {
	g := line(t)
	res, err := MinDistance(g, "C", "A", Unbounded())
	require.NoError(t, err)
	assert.False(t, res.Found())
	assert.Equal(t, "No valid route found.", res.String())
}

func TestCapacityFiltersCongestedEdges(t *testing.T) {
	g := graph.New()
	for _, id := range []graph.NodeID{"A", "B", "C"} {
		require.NoError(t, g.AddNode(id))
	}
	require.NoError(t, g.AddEdge("A", "C", 1, 1, 0.5))
	require.NoError(t, g.AddEdge("A", "B", 5, 5, 0))
	require.NoError(t, g.AddEdge("B", "C", 5, 5, 0))

	// capacity 0 admits only congestion-free edges
	res, err := MinDistance(g, "A", "C", Constraints{Capacity: 0, DeadlineHours: NoDeadline})
	require.NoError(t, err)
	assert.Equal(t, []graph.NodeID{"A", "B", "C"}, res.Path)

	res, err = MinDistance(g, "A", "C", Constraints{Capacity: 1, DeadlineHours: NoDeadline})
	require.NoError(t, err)
	assert.Equal(t, []graph.NodeID{"A", "C"}, res.Path)
	assert.Equal(t, 0.5, res.AverageCongestion)
}

func TestMinTimePrefersFasterLongerRoute(t *testing.T) {
	g := graph.New()
	for _, id := range []graph.NodeID{"S", "M", "T"} {
		require.NoError(t, g.AddNode(id))
	}
	require.NoError(t, g.AddEdge("S", "T", 10, 60, 0.1))
	require.NoError(t, g.AddEdge("S", "M", 8, 10, 0.3))
	require.NoError(t, g.AddEdge("M", "T", 8, 10, 0.5))

	byDist, err := MinDistance(g, "S", "T", Unbounded())
	require.NoError(t, err)
	assert.Equal(t, []graph.NodeID{"S", "T"}, byDist.Path)

	byTime, err := MinTime(g, "S", "T", Unbounded())
	require.NoError(t, err)
	assert.Equal(t, []graph.NodeID{"S", "M", "T"}, byTime.Path)
	assert.Equal(t, 20.0, byTime.TotalTime)
	assert.Equal(t, 16.0, byTime.TotalDistance)
	assert.InDelta(t, 0.4, byTime.AverageCongestion, 1e-12)

	alts, err := Alternatives(g, "S", "T", Unbounded())
	require.NoError(t, err)
	assert.Len(t, alts, 2)
}

func TestAlternativesCollapseIdenticalRoutes(t *testing.T) {
	alts, err := Alternatives(line(t), "A", "C", Unbounded())
	require.NoError(t, err)
	assert.Len(t, alts, 1)
}

func TestDeadlineMinutes(t *testing.T) {
	assert.Equal(t, 90.0, DeadlineMinutes(1.5))
	assert.True(t, math.IsInf(DeadlineMinutes(NoDeadline), 1))
}

func TestParsePreference(t *testing.T) {
	p, err := ParsePreference(" Minimal_Time ")
	require.NoError(t, err)
	assert.Equal(t, MinimalTime, p)
	_, err = ParsePreference("scenic")
	assert.ErrorIs(t, err, ErrUnknownPreference)

	res, err := FindBestPath(line(t), "A", "C", Shortest, Unbounded())
	require.NoError(t, err)
	assert.True(t, res.Found())
}

func TestCalculateDistance(t *testing.T) {
	g := line(t)
	d, err := CalculateDistance(g, "A", "C", Unbounded())
	require.NoError(t, err)
	assert.Equal(t, 10.0, d)
	d, err = CalculateDistance(g, "C", "A", Unbounded())
	require.NoError(t, err)
	assert.Equal(t, math.MaxFloat64, d)
}

// randomGraph builds a small dense directed graph for brute-force checks.
func randomGraph(rng *rand.Rand, n int) *graph.Graph {
	g := graph.New()
	ids := make([]graph.NodeID, n)
	for i := range ids {
		ids[i] = graph.NodeID(rune('a' + i))
		_ = g.AddNode(ids[i])
	}
	for _, u := range ids {
		for _, v := range ids {
			if u == v || rng.Float64() < 0.45 {
				continue
			}
			d := float64(1 + rng.Intn(20))
			tm := float64(1 + rng.Intn(30))
			c := math.Round(rng.Float64()*10) / 10
			_ = g.AddEdge(u, v, d, tm, c)
		}
	}
	return g
}

// bruteForce enumerates every simple path and returns the best value of
// metric among paths whose edges have congestion ≤ capacity and whose total
// time stays within limit minutes.
func bruteForce(g *graph.Graph, src, dst graph.NodeID, capacity, limit float64, metric func(d, t float64) float64) (float64, bool) {
	best, found := math.Inf(1), false
	visited := map[graph.NodeID]bool{src: true}
	var walk func(u graph.NodeID, d, t float64)
	walk = func(u graph.NodeID, d, t float64) {
		if u == dst {
			if m := metric(d, t); m < best {
				best, found = m, true
			}
			return
		}
		for _, e := range g.OutEdges(u) {
			if visited[e.To] || e.Congestion > capacity || t+e.Time > limit {
				continue
			}
			visited[e.To] = true
			walk(e.To, d+e.Distance, t+e.Time)
			visited[e.To] = false
		}
	}
	walk(src, 0, 0)
	return best, found
}

func TestMinDistanceOptimalAgainstBruteForce(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for trial := 0; trial < 40; trial++ {
		g := randomGraph(rng, 6)
		capacity := rng.Intn(2)
		for _, deadline := range []float64{NoDeadline, 0.5, 1} {
			for _, src := range g.Nodes() {
				for _, dst := range g.Nodes() {
					want, ok := bruteForce(g, src, dst, float64(capacity), DeadlineMinutes(deadline), func(d, _ float64) float64 { return d })
					res, err := MinDistance(g, src, dst, Constraints{Capacity: capacity, DeadlineHours: deadline})
					require.NoError(t, err)
					require.Equal(t, ok, res.Found(), "trial %d deadline %v %s→%s", trial, deadline, src, dst)
					if ok {
						assert.InDelta(t, want, res.TotalDistance, 1e-9, "trial %d deadline %v %s→%s", trial, deadline, src, dst)
						assert.LessOrEqual(t, res.TotalTime, DeadlineMinutes(deadline))
					}
				}
			}
		}
	}
}

func TestMinDistanceKeepsFasterPrefixUnderDeadline(t *testing.T) {
	g := graph.New()
	for _, id := range []graph.NodeID{"S", "X", "Y", "T"} {
		require.NoError(t, g.AddNode(id))
	}
	require.NoError(t, g.AddEdge("S", "X", 1, 8, 0))
	require.NoError(t, g.AddEdge("S", "Y", 1, 1, 0))
	require.NoError(t, g.AddEdge("Y", "X", 1, 1, 0))
	require.NoError(t, g.AddEdge("X", "T", 1, 5, 0))

	// S→X is shorter but leaves no time for X→T within 10 minutes.
	c := Constraints{Capacity: 1, DeadlineHours: 10.0 / 60}
	res, err := MinDistance(g, "S", "T", c)
	require.NoError(t, err)
	assert.Equal(t, []graph.NodeID{"S", "Y", "X", "T"}, res.Path)
	assert.Equal(t, 3.0, res.TotalDistance)
	assert.Equal(t, 7.0, res.TotalTime)

	d, err := CalculateDistance(g, "S", "T", c)
	require.NoError(t, err)
	assert.Equal(t, 3.0, d)

	res, err = MinDistance(g, "S", "T", Unbounded())
	require.NoError(t, err)
	assert.Equal(t, []graph.NodeID{"S", "X", "T"}, res.Path)
}

func TestMinTimeOptimalAgainstBruteForce(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	for trial := 0; trial < 40; trial++ {
		g := randomGraph(rng, 6)
		c := Constraints{Capacity: 1, DeadlineHours: float64(rng.Intn(3)) * 0.5}
		for _, src := range g.Nodes() {
			for _, dst := range g.Nodes() {
				want, ok := bruteForce(g, src, dst, 1, DeadlineMinutes(c.DeadlineHours), func(_, t float64) float64 { return t })
				for _, h := range []Heuristic{ZeroHeuristic{}, ReverseTimeBound{}} {
					res, err := MinTime(g, src, dst, c, WithHeuristic(h))
					require.NoError(t, err)
					require.Equal(t, ok, res.Found(), "trial %d %s→%s %T", trial, src, dst, h)
					if ok {
						assert.InDelta(t, want, res.TotalTime, 1e-9, "trial %d %s→%s %T", trial, src, dst, h)
					}
				}
			}
		}
	}
}

func TestMinTimeMonotoneInDeadline(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	g := randomGraph(rng, 7)
	src, dst := graph.NodeID("a"), graph.NodeID("g")

	prev, err := MinTime(g, src, dst, Unbounded())
	require.NoError(t, err)
	for hours := 3.0; hours >= 0; hours -= 0.05 {
		res, err := MinTime(g, src, dst, Constraints{Capacity: 1, DeadlineHours: hours})
		require.NoError(t, err)
		if res.Found() {
			require.True(t, prev.Found(), "tighter deadline found a route the looser one missed")
			assert.Equal(t, prev.TotalTime, res.TotalTime)
			assert.LessOrEqual(t, res.TotalTime, DeadlineMinutes(hours))
		}
		prev = res
	}
}

func TestReverseTimeBoundIsAdmissible(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	g := randomGraph(rng, 6)
	for _, dst := range g.Nodes() {
		h := ReverseTimeBound{}.Bind(g, dst)
		for _, src := range g.Nodes() {
			res, err := MinTime(g, src, dst, Unbounded(), WithHeuristic(ZeroHeuristic{}))
			require.NoError(t, err)
			if res.Found() {
				assert.LessOrEqual(t, h(src), res.TotalTime+1e-9)
			} else {
				assert.True(t, math.IsInf(h(src), 1))
			}
		}
	}
}
