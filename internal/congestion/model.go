// Package congestion simulates changing traffic by rewriting edge congestion
// and travel time in place.
package congestion

import (
	"math"
	"sync"

	"ilds/internal/graph"
)

// RandSource supplies uniform values in [0,1). *math/rand.Rand satisfies it.
type RandSource interface {
	Float64() float64
}

// Model predicts the next congestion of the edge from → to.
type Model interface {
	Predict(from, to graph.NodeID, current float64) float64
}

type pair struct{ from, to graph.NodeID }

// History is a table of recorded congestion per ordered node pair. It is safe
// for concurrent use.
type History struct {
	mu    sync.RWMutex
	table map[pair]float64
}

func NewHistory() *History {
	return &History{table: map[pair]float64{}}
}

// Record stores the congestion observed on from → to, replacing any earlier
// value. The edge does not need to exist yet.
func (h *History) Record(from, to graph.NodeID, congestion float64) error {
	if err := from.Validate(); err != nil {
		return err
	}
	if err := to.Validate(); err != nil {
		return err
	}
	if err := graph.ValidateAttributes(0, 0, congestion); err != nil {
		return err
	}
	h.mu.Lock()
	h.table[pair{from, to}] = congestion
	h.mu.Unlock()
	return nil
}

func (h *History) Lookup(from, to graph.NodeID) (float64, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	c, ok := h.table[pair{from, to}]
	return c, ok
}

func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.table)
}

// Predict returns the recorded value, or current when the pair has none.
func (h *History) Predict(from, to graph.NodeID, current float64) float64 {
	if c, ok := h.Lookup(from, to); ok {
		return c
	}
	return current
}

// Range bounds the multiplicative factor drawn by Perturb.
type Range struct {
	Min, Max float64
}

var (
	// MildRange models gradual day-to-day drift.
	MildRange = Range{Min: 0.8, Max: 1.2}
	// VolatileRange models incidents and rush hours.
	VolatileRange = Range{Min: 0.5, Max: 1.5}
)

// Perturb multiplies the current congestion by a factor drawn uniformly from
// [Min, Max). Rand is consulted exactly once per prediction.
type Perturb struct {
	Range
	Rand RandSource
}

func (p Perturb) Predict(_, _ graph.NodeID, current float64) float64 {
	factor := p.Min + p.Rand.Float64()*(p.Max-p.Min)
	return Clamp(current * factor)
}

// Chain answers from History when the pair has a record and from Fallback
// otherwise.
type Chain struct {
	History  *History
	Fallback Model
}

func (c Chain) Predict(from, to graph.NodeID, current float64) float64 {
	if c.History != nil {
		if v, ok := c.History.Lookup(from, to); ok {
			return v
		}
	}
	if c.Fallback == nil {
		return current
	}
	return c.Fallback.Predict(from, to, current)
}

// Clamp bounds v to [0,1]. NaN maps to 0.
func Clamp(v float64) float64 {
	if !(v > 0) {
		return 0
	}
	return math.Min(v, 1)
}
