// Package graph holds the road network: hubs (nodes) joined by directed
// road segments (edges) carrying distance, travel time and congestion.
//
// A Graph is a plain single-owner value and is not safe for concurrent use.
// Share it between goroutines through Shared, which scopes readers and
// writers explicitly.
package graph

import (
	"errors"
	"fmt"
	"sort"
)

// ErrInvalidArgument marks malformed ids, out-of-range attributes and
// references to nodes that are not in the graph.
var ErrInvalidArgument = errors.New("graph: invalid argument")

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrInvalidArgument}, args...)...)
}

// NodeID identifies a hub. Two nodes are the same node iff their ids are equal.
type NodeID string

// Validate reports whether id can name a node.
func (id NodeID) Validate() error {
	if id == "" {
		return invalid("node id must not be empty")
	}
	return nil
}

// Edge is a directed road segment. To is the key the edge is stored under
// in its source node's adjacency.
type Edge struct {
	To         NodeID  `json:"to"`
	Distance   float64 `json:"distance"`
	Time       float64 `json:"time"`
	Congestion float64 `json:"congestion"`
}

// DirectedEdge is an Edge together with its source node.
type DirectedEdge struct {
	From NodeID `json:"from"`
	Edge
}

// CongestionLevel buckets a congestion value for display.
type CongestionLevel string

const (
	Light    CongestionLevel = "Light"
	Moderate CongestionLevel = "Moderate"
	Heavy    CongestionLevel = "Heavy"
)

// Level classifies the edge congestion.
func (e Edge) Level() CongestionLevel {
	switch {
	case e.Congestion < 0.3:
		return Light
	case e.Congestion < 0.7:
		return Moderate
	default:
		return Heavy
	}
}

func (e Edge) String() string {
	return fmt.Sprintf("Edge{to=%s, distance=%.2f km, time=%.2f mins, congestion=%s}",
		e.To, e.Distance, e.Time, e.Level())
}

// ValidateAttributes checks edge attributes without touching any graph.
func ValidateAttributes(distance, time, congestion float64) error {
	if distance < 0 || time < 0 {
		return invalid("distance and time must be non-negative (distance=%v time=%v)", distance, time)
	}
	// NaN fails both comparisons, so test the accepted range.
	if !(congestion >= 0 && congestion <= 1) {
		return invalid("congestion must be within [0,1] (congestion=%v)", congestion)
	}
	return nil
}

// Graph maps every node to its (possibly empty) adjacency.
type Graph struct {
	adj   map[NodeID]map[NodeID]Edge
	edges int
}

// New returns an empty graph.
func New() *Graph {
	return &Graph{adj: map[NodeID]map[NodeID]Edge{}}
}

// AddNode inserts id. Adding an existing node is a no-op.
func (g *Graph) AddNode(id NodeID) error {
	if err := id.Validate(); err != nil {
		return err
	}
	if _, ok := g.adj[id]; !ok {
		g.adj[id] = map[NodeID]Edge{}
	}
	return nil
}

// HasNode reports whether id is in the graph.
func (g *Graph) HasNode(id NodeID) bool {
	_, ok := g.adj[id]
	return ok
}

// RemoveNode deletes id together with its outgoing edges and every edge
// from another node that targets it. Unknown ids are ignored.
func (g *Graph) RemoveNode(id NodeID) {
	out, ok := g.adj[id]
	if !ok {
		return
	}
	g.edges -= len(out)
	delete(g.adj, id)
	for _, nbrs := range g.adj {
		if _, ok := nbrs[id]; ok {
			delete(nbrs, id)
			g.edges--
		}
	}
}

// AddEdge inserts or replaces the directed edge from→to. Both endpoints must
// already exist; on error the graph is left untouched.
func (g *Graph) AddEdge(from, to NodeID, distance, time, congestion float64) error {
	if err := g.checkEndpoints(from, to); err != nil {
		return err
	}
	if err := ValidateAttributes(distance, time, congestion); err != nil {
		return err
	}
	g.put(from, to, distance, time, congestion)
	return nil
}

// AddBidirectionalEdge writes a→b and b→a with identical attributes. Both
// writes are validated before either is applied.
func (g *Graph) AddBidirectionalEdge(a, b NodeID, distance, time, congestion float64) error {
	if err := g.checkEndpoints(a, b); err != nil {
		return err
	}
	if err := ValidateAttributes(distance, time, congestion); err != nil {
		return err
	}
	g.put(a, b, distance, time, congestion)
	g.put(b, a, distance, time, congestion)
	return nil
}

// RemoveEdge deletes the directed edge from→to and reports whether it existed.
func (g *Graph) RemoveEdge(from, to NodeID) bool {
	nbrs, ok := g.adj[from]
	if !ok {
		return false
	}
	if _, ok := nbrs[to]; !ok {
		return false
	}
	delete(nbrs, to)
	g.edges--
	return true
}

// RemoveBidirectionalEdge deletes a→b and b→a and returns how many of the
// two directed edges were present.
func (g *Graph) RemoveBidirectionalEdge(a, b NodeID) int {
	n := 0
	if g.RemoveEdge(a, b) {
		n++
	}
	if g.RemoveEdge(b, a) {
		n++
	}
	return n
}

// UpdateEdge overwrites the attributes of an existing directed edge. It never
// creates an edge: when from→to is absent it returns false and a nil error.
func (g *Graph) UpdateEdge(from, to NodeID, distance, time, congestion float64) (bool, error) {
	if err := ValidateAttributes(distance, time, congestion); err != nil {
		return false, err
	}
	nbrs, ok := g.adj[from]
	if !ok {
		return false, nil
	}
	if _, ok := nbrs[to]; !ok {
		return false, nil
	}
	nbrs[to] = Edge{To: to, Distance: distance, Time: time, Congestion: congestion}
	return true, nil
}

// Edge returns the directed edge from→to.
func (g *Graph) Edge(from, to NodeID) (Edge, bool) {
	e, ok := g.adj[from][to]
	return e, ok
}

// Neighbors returns a copy of id's adjacency. Unknown ids yield an empty map.
func (g *Graph) Neighbors(id NodeID) map[NodeID]Edge {
	nbrs := g.adj[id]
	out := make(map[NodeID]Edge, len(nbrs))
	for k, e := range nbrs {
		out[k] = e
	}
	return out
}

// neighborsSorted lists id's outgoing edges ordered by target id so that
// searches expand neighbours deterministically.
func (g *Graph) neighborsSorted(id NodeID) []Edge {
	nbrs := g.adj[id]
	out := make([]Edge, 0, len(nbrs))
	for _, e := range nbrs {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].To < out[j].To })
	return out
}

// OutEdges is the sorted outgoing edge list of id.
func (g *Graph) OutEdges(id NodeID) []Edge { return g.neighborsSorted(id) }

// Nodes returns all node ids in ascending order.
func (g *Graph) Nodes() []NodeID {
	out := make([]NodeID, 0, len(g.adj))
	for id := range g.adj {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Edges returns every directed edge ordered by (from, to).
func (g *Graph) Edges() []DirectedEdge {
	out := make([]DirectedEdge, 0, g.edges)
	for _, from := range g.Nodes() {
		for _, e := range g.neighborsSorted(from) {
			out = append(out, DirectedEdge{From: from, Edge: e})
		}
	}
	return out
}

// NodeCount is the number of nodes.
func (g *Graph) NodeCount() int { return len(g.adj) }

// EdgeCount is the number of directed edges; a bidirectional pair counts twice.
func (g *Graph) EdgeCount() int { return g.edges }

// Clone returns a deep copy of g.
func (g *Graph) Clone() *Graph {
	c := &Graph{adj: make(map[NodeID]map[NodeID]Edge, len(g.adj)), edges: g.edges}
	for id, nbrs := range g.adj {
		cp := make(map[NodeID]Edge, len(nbrs))
		for k, e := range nbrs {
			cp[k] = e
		}
		c.adj[id] = cp
	}
	return c
}

func (g *Graph) checkEndpoints(from, to NodeID) error {
	if err := from.Validate(); err != nil {
		return err
	}
	if err := to.Validate(); err != nil {
		return err
	}
	if !g.HasNode(from) {
		return invalid("unknown source node %q", from)
	}
	if !g.HasNode(to) {
		return invalid("unknown target node %q", to)
	}
	return nil
}

func (g *Graph) put(from, to NodeID, distance, time, congestion float64) {
	nbrs := g.adj[from]
	if _, ok := nbrs[to]; !ok {
		g.edges++
	}
	nbrs[to] = Edge{To: to, Distance: distance, Time: time, Congestion: congestion}
}
