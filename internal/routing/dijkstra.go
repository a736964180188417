package routing

import (
	"container/heap"
	"math"

	"ilds/internal/graph"
)

// MinDistance returns the route from src to dst with the least total
// distance among the edges admitted by c whose cumulative time fits the
// deadline.
//
// Without a deadline the frontier is keyed on cumulative distance and a
// neighbour is relaxed only when its tentative distance strictly decreases.
// The search stops as soon as dst is popped.
//
// Complexity: O((V + E) log V) time, O(V + E) space.
//
// With a finite deadline a single label per node is not enough: the shortest
// prefix to a node may be too slow to finish in time while a longer, faster
// one would. The search then keeps every (distance, time) label that no
// settled label at the same node beats on both.
func MinDistance(g *graph.Graph, src, dst graph.NodeID, c Constraints) (PathResult, error) {
	if err := checkEndpoints(g, src, dst, c); err != nil {
		return NoPath(), err
	}
	if limit := DeadlineMinutes(c.DeadlineHours); !math.IsInf(limit, 1) {
		return minDistanceWithin(g, src, dst, float64(c.Capacity), limit), nil
	}
	r := newRunner(g, src, dst, c, func(l label) float64 { return l.distance })
	return r.run(), nil
}

// pathLabel is one partial route in a deadline search.
type pathLabel struct {
	label
	node   graph.NodeID
	parent int // -1 at the source
}

// minDistanceWithin is a label-setting search over (distance, time). Labels
// pop in (distance, time) order, so a popped label is dominated exactly when
// a label already settled at its node is no slower; the settled times at a
// node strictly decrease, which is all the Pareto front needs to record.
func minDistanceWithin(g *graph.Graph, src, dst graph.NodeID, capacity, limit float64) PathResult {
	pool := labelPool{{node: src, parent: -1}}
	fastest := map[graph.NodeID]float64{} // least settled time per node
	pq := frontier{}
	var seq uint64
	heap.Push(&pq, &frontierItem{id: src, label: 0})

	for pq.Len() > 0 {
		item := heap.Pop(&pq).(*frontierItem)
		cur := pool[item.label]
		if t, ok := fastest[cur.node]; ok && t <= cur.time {
			continue
		}
		fastest[cur.node] = cur.time
		if cur.node == dst {
			return pool.result(item.label)
		}
		for _, e := range g.OutEdges(cur.node) {
			if e.Congestion > capacity {
				continue
			}
			next := label{
				distance:   cur.distance + e.Distance,
				time:       cur.time + e.Time,
				congestion: cur.congestion + e.Congestion,
				hops:       cur.hops + 1,
			}
			if next.time > limit {
				continue
			}
			if t, ok := fastest[e.To]; ok && t <= next.time {
				continue
			}
			pool = append(pool, pathLabel{label: next, node: e.To, parent: item.label})
			seq++
			heap.Push(&pq, &frontierItem{id: e.To, priority: next.distance, tie: next.time, seq: seq, label: len(pool) - 1})
		}
	}
	return NoPath()
}

type labelPool []pathLabel

func (p labelPool) result(i int) PathResult {
	l := p[i].label
	var rev []graph.NodeID
	for at := i; at >= 0; at = p[at].parent {
		rev = append(rev, p[at].node)
	}
	path := make([]graph.NodeID, len(rev))
	for j, id := range rev {
		path[len(rev)-1-j] = id
	}
	avg := 0.0
	if l.hops > 0 {
		avg = l.congestion / float64(l.hops)
	}
	return PathResult{Path: path, TotalDistance: l.distance, TotalTime: l.time, AverageCongestion: avg}
}
