package graph

import "sync"

// Shared owns a Graph used by several goroutines. Readers (path searches,
// scheduling rounds) run under Read; structural or attribute mutations and
// congestion sweeps run under Write, which excludes every reader for its
// whole duration.
type Shared struct {
	mu sync.RWMutex
	g  *Graph
}

// NewShared takes ownership of g. A nil g starts from an empty graph.
func NewShared(g *Graph) *Shared {
	if g == nil {
		g = New()
	}
	return &Shared{g: g}
}

// Read runs fn with shared access. fn must not mutate the graph or keep the
// pointer after returning.
func (s *Shared) Read(fn func(g *Graph)) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn(s.g)
}

// Write runs fn with exclusive access and returns its error.
func (s *Shared) Write(fn func(g *Graph) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.g)
}

// Snapshot returns a deep copy taken under a read lock.
func (s *Shared) Snapshot() *Graph {
	var c *Graph
	s.Read(func(g *Graph) { c = g.Clone() })
	return c
}
