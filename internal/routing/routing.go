// Package routing finds constrained routes over a graph.Graph.
//
// Two searches share one contract. MinDistance is Dijkstra keyed on
// cumulative distance; MinTime is A* keyed on cumulative time plus an
// admissible heuristic. Both skip any edge whose congestion exceeds the
// capacity bound and any edge that would push cumulative travel time past
// the deadline. An infeasible query is not an error: it yields NoPath().
//
// Units: distance in kilometres, time in minutes, deadlines in hours.
// DeadlineMinutes is the only place hours become minutes.
package routing

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"ilds/internal/graph"
)

// NoDeadline stands for an absent deadline.
const NoDeadline = math.MaxFloat64

var (
	// ErrUnknownNode is returned when the source or target is not in the graph.
	ErrUnknownNode = fmt.Errorf("%w: node not in graph", graph.ErrInvalidArgument)

	// ErrBadConstraints is returned for negative capacity or deadline.
	ErrBadConstraints = fmt.Errorf("%w: constraints out of range", graph.ErrInvalidArgument)

	// ErrUnknownPreference is returned by ParsePreference.
	ErrUnknownPreference = errors.New("routing: invalid preference, use 'shortest' or 'minimal_time'")
)

// Constraints bound a search. Capacity is compared against edge congestion:
// an edge with congestion > Capacity is never traversed.
type Constraints struct {
	Capacity      int
	DeadlineHours float64
}

// Unbounded places no deadline and lets every congestion level through.
func Unbounded() Constraints {
	return Constraints{Capacity: 1, DeadlineHours: NoDeadline}
}

func (c Constraints) validate() error {
	if c.Capacity < 0 {
		return fmt.Errorf("%w: capacity=%d", ErrBadConstraints, c.Capacity)
	}
	if !(c.DeadlineHours >= 0) {
		return fmt.Errorf("%w: deadline=%v", ErrBadConstraints, c.DeadlineHours)
	}
	return nil
}

// DeadlineMinutes converts a deadline in hours to the minutes used by edge
// times. NoDeadline maps to +Inf.
func DeadlineMinutes(hours float64) float64 {
	if hours > math.MaxFloat64/60 {
		return math.Inf(1)
	}
	return hours * 60
}

// PathResult is the immutable outcome of a search.
type PathResult struct {
	Path              []graph.NodeID `json:"path"`
	TotalDistance     float64        `json:"totalDistance"`
	TotalTime         float64        `json:"totalTime"`
	AverageCongestion float64        `json:"averageCongestion"`
}

// NoPath is the result of an infeasible search.
func NoPath() PathResult {
	return PathResult{Path: []graph.NodeID{}, TotalDistance: math.MaxFloat64, TotalTime: math.MaxFloat64}
}

// Found reports whether the result carries a route.
func (r PathResult) Found() bool { return len(r.Path) > 0 }

// Nodes returns a copy of the route.
func (r PathResult) Nodes() []graph.NodeID {
	return append([]graph.NodeID(nil), r.Path...)
}

func (r PathResult) String() string {
	if !r.Found() {
		return "No valid route found."
	}
	ids := make([]string, len(r.Path))
	for i, id := range r.Path {
		ids[i] = string(id)
	}
	return fmt.Sprintf("Optimal Route: [%s]\nTotal Distance: %.2f km\nTotal Time: %.2f mins\nAverage Congestion: %.2f",
		strings.Join(ids, ", "), r.TotalDistance, r.TotalTime, r.AverageCongestion)
}

func (r PathResult) equal(o PathResult) bool {
	if len(r.Path) != len(o.Path) {
		return false
	}
	for i := range r.Path {
		if r.Path[i] != o.Path[i] {
			return false
		}
	}
	return true
}
