package routing

import (
	"container/heap"

	"ilds/internal/graph"
)

// label accumulates the metrics of the best known path to a node.
type label struct {
	distance   float64
	time       float64
	congestion float64 // sum over traversed edges
	hops       int
}

// runner holds the mutable state of one search. key selects the metric that
// must strictly decrease for a relaxation to be accepted; estimate adds the
// heuristic for A* (zero for Dijkstra).
type runner struct {
	g        *graph.Graph
	src, dst graph.NodeID
	capacity float64
	limit    float64 // deadline in minutes
	key      func(label) float64
	estimate func(graph.NodeID) float64

	best    map[graph.NodeID]label
	prev    map[graph.NodeID]graph.NodeID
	settled map[graph.NodeID]bool
	pq      frontier
	seq     uint64
}

func newRunner(g *graph.Graph, src, dst graph.NodeID, c Constraints, key func(label) float64) *runner {
	n := g.NodeCount()
	return &runner{
		g:        g,
		src:      src,
		dst:      dst,
		capacity: float64(c.Capacity),
		limit:    DeadlineMinutes(c.DeadlineHours),
		key:      key,
		estimate: func(graph.NodeID) float64 { return 0 },
		best:     make(map[graph.NodeID]label, n),
		prev:     make(map[graph.NodeID]graph.NodeID, n),
		settled:  make(map[graph.NodeID]bool, n),
		pq:       make(frontier, 0, n),
	}
}

func checkEndpoints(g *graph.Graph, src, dst graph.NodeID, c Constraints) error {
	if err := c.validate(); err != nil {
		return err
	}
	if !g.HasNode(src) {
		return &NodeError{ID: src}
	}
	if !g.HasNode(dst) {
		return &NodeError{ID: dst}
	}
	return nil
}

// NodeError names the missing endpoint. It matches ErrUnknownNode and
// graph.ErrInvalidArgument under errors.Is.
type NodeError struct{ ID graph.NodeID }

func (e *NodeError) Error() string { return ErrUnknownNode.Error() + ": " + string(e.ID) }

func (e *NodeError) Unwrap() error { return ErrUnknownNode }

func (r *runner) push(id graph.NodeID, priority float64) {
	r.seq++
	heap.Push(&r.pq, &frontierItem{id: id, priority: priority, seq: r.seq})
}

// run expands the frontier until the target is popped or nothing is left.
func (r *runner) run() PathResult {
	r.best[r.src] = label{}
	r.push(r.src, r.estimate(r.src))

	for r.pq.Len() > 0 {
		item := heap.Pop(&r.pq).(*frontierItem)
		u := item.id
		if r.settled[u] {
			continue // stale entry
		}
		r.settled[u] = true
		if u == r.dst {
			break
		}
		r.relax(u)
	}
	return r.result()
}

func (r *runner) relax(u graph.NodeID) {
	cur := r.best[u]
	for _, e := range r.g.OutEdges(u) {
		if e.Congestion > r.capacity {
			continue
		}
		next := label{
			distance:   cur.distance + e.Distance,
			time:       cur.time + e.Time,
			congestion: cur.congestion + e.Congestion,
			hops:       cur.hops + 1,
		}
		if next.time > r.limit {
			continue
		}
		if old, seen := r.best[e.To]; seen && r.key(next) >= r.key(old) {
			continue
		}
		r.best[e.To] = next
		r.prev[e.To] = u
		r.push(e.To, r.key(next)+r.estimate(e.To))
	}
}

func (r *runner) result() PathResult {
	path := r.reconstruct()
	if len(path) == 0 {
		return NoPath()
	}
	l := r.best[r.dst]
	avg := 0.0
	if l.hops > 0 {
		avg = l.congestion / float64(l.hops)
	}
	return PathResult{Path: path, TotalDistance: l.distance, TotalTime: l.time, AverageCongestion: avg}
}

// reconstruct walks predecessors back from the target. A chain that does not
// end at the source means the target was never reached.
func (r *runner) reconstruct() []graph.NodeID {
	var rev []graph.NodeID
	for at, ok := r.dst, true; ok; at, ok = r.prev[at] {
		rev = append(rev, at)
		if len(rev) > len(r.best)+1 {
			return nil
		}
	}
	if rev[len(rev)-1] != r.src {
		return nil
	}
	path := make([]graph.NodeID, len(rev))
	for i, id := range rev {
		path[len(rev)-1-i] = id
	}
	return path
}

// frontierItem is a heap entry. Equal priorities pop by tie, then in push
// order.
type frontierItem struct {
	id       graph.NodeID
	priority float64
	tie      float64
	seq      uint64
	label    int // index into the label pool of a deadline search
}

// frontier is a min-heap with lazy decrease-key: improved nodes are pushed
// again and stale entries are skipped when popped.
type frontier []*frontierItem

func (pq frontier) Len() int { return len(pq) }

func (pq frontier) Less(i, j int) bool {
	if pq[i].priority != pq[j].priority {
		return pq[i].priority < pq[j].priority
	}
	if pq[i].tie != pq[j].tie {
		return pq[i].tie < pq[j].tie
	}
	return pq[i].seq < pq[j].seq
}

func (pq frontier) Swap(i, j int) { pq[i], pq[j] = pq[j], pq[i] }

func (pq *frontier) Push(x any) { *pq = append(*pq, x.(*frontierItem)) }

func (pq *frontier) Pop() any {
	old := *pq
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*pq = old[:n-1]
	return item
}
