package routing

import (
	"container/heap"
	"math"

	"ilds/internal/graph"
)

// Heuristic estimates remaining travel time (minutes) to a fixed target.
// Implementations must never overestimate the time of any admissible
// remaining route, and must return the same estimate for the same node pair
// within one search.
type Heuristic interface {
	Bind(g *graph.Graph, target graph.NodeID) func(graph.NodeID) float64
}

// ZeroHeuristic estimates zero everywhere. Trivially admissible; A* then
// expands exactly like Dijkstra keyed on time.
type ZeroHeuristic struct{}

func (ZeroHeuristic) Bind(*graph.Graph, graph.NodeID) func(graph.NodeID) float64 {
	return func(graph.NodeID) float64 { return 0 }
}

// ReverseTimeBound estimates each node by its exact least travel time to the
// target over all edges, ignoring capacity and deadline filters. Filtering
// only removes routes, so the estimate is a lower bound (admissible); it also
// satisfies h(u) ≤ time(u,v) + h(v) (consistent), which keeps settled nodes
// final. Nodes that cannot reach the target at all estimate +Inf.
//
// Binding costs one reverse Dijkstra over the graph.
type ReverseTimeBound struct{}

func (ReverseTimeBound) Bind(g *graph.Graph, target graph.NodeID) func(graph.NodeID) float64 {
	reverse := make(map[graph.NodeID][]graph.DirectedEdge)
	for _, e := range g.Edges() {
		reverse[e.To] = append(reverse[e.To], e)
	}

	bound := map[graph.NodeID]float64{target: 0}
	done := map[graph.NodeID]bool{}
	pq := frontier{}
	var seq uint64
	heap.Push(&pq, &frontierItem{id: target})
	for pq.Len() > 0 {
		item := heap.Pop(&pq).(*frontierItem)
		if done[item.id] {
			continue
		}
		done[item.id] = true
		for _, e := range reverse[item.id] {
			t := bound[item.id] + e.Time
			if old, ok := bound[e.From]; ok && t >= old {
				continue
			}
			bound[e.From] = t
			seq++
			heap.Push(&pq, &frontierItem{id: e.From, priority: t, seq: seq})
		}
	}

	return func(id graph.NodeID) float64 {
		if t, ok := bound[id]; ok {
			return t
		}
		return math.Inf(1)
	}
}

// Option configures MinTime.
type Option func(*options)

type options struct {
	heuristic Heuristic
}

// WithHeuristic replaces the default ReverseTimeBound heuristic.
func WithHeuristic(h Heuristic) Option {
	return func(o *options) {
		if h != nil {
			o.heuristic = h
		}
	}
}

// MinTime returns the route from src to dst with the least total travel time
// among the edges admitted by c.
//
// The frontier is keyed on cumulative time plus the heuristic estimate; a
// neighbour is relaxed only when its tentative time strictly decreases. The
// deadline is checked against cumulative time, not against the estimate.
// The search stops as soon as dst is popped.
func MinTime(g *graph.Graph, src, dst graph.NodeID, c Constraints, opts ...Option) (PathResult, error) {
	cfg := options{heuristic: ReverseTimeBound{}}
	for _, opt := range opts {
		opt(&cfg)
	}
	if err := checkEndpoints(g, src, dst, c); err != nil {
		return NoPath(), err
	}
	r := newRunner(g, src, dst, c, func(l label) float64 { return l.time })
	r.estimate = cfg.heuristic.Bind(g, dst)
	return r.run(), nil
}
