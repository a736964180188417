package routing

import (
	"fmt"
	"math"
	"strings"

	"ilds/internal/graph"
)

// Preference picks the search used by FindBestPath.
type Preference string

const (
	Shortest    Preference = "shortest"
	MinimalTime Preference = "minimal_time"
)

// ParsePreference accepts "shortest" and "minimal_time" in any case.
func ParsePreference(s string) (Preference, error) {
	switch Preference(strings.ToLower(strings.TrimSpace(s))) {
	case Shortest:
		return Shortest, nil
	case MinimalTime:
		return MinimalTime, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownPreference, s)
	}
}

// FindBestPath dispatches to MinDistance or MinTime.
func FindBestPath(g *graph.Graph, src, dst graph.NodeID, pref Preference, c Constraints, opts ...Option) (PathResult, error) {
	switch pref {
	case Shortest:
		return MinDistance(g, src, dst, c)
	case MinimalTime:
		return MinTime(g, src, dst, c, opts...)
	default:
		return NoPath(), fmt.Errorf("%w: %q", ErrUnknownPreference, pref)
	}
}

// CalculateDistance is the least constrained distance from src to dst, or
// math.MaxFloat64 when no admitted route exists.
func CalculateDistance(g *graph.Graph, src, dst graph.NodeID, c Constraints) (float64, error) {
	res, err := MinDistance(g, src, dst, c)
	if err != nil {
		return math.MaxFloat64, err
	}
	if !res.Found() {
		return math.MaxFloat64, nil
	}
	return res.TotalDistance, nil
}

// Alternatives returns the distance-optimal and the time-optimal routes,
// dropping empty results and collapsing them when both follow the same nodes.
func Alternatives(g *graph.Graph, src, dst graph.NodeID, c Constraints, opts ...Option) ([]PathResult, error) {
	byDistance, err := MinDistance(g, src, dst, c)
	if err != nil {
		return nil, err
	}
	byTime, err := MinTime(g, src, dst, c, opts...)
	if err != nil {
		return nil, err
	}
	out := []PathResult{}
	if byDistance.Found() {
		out = append(out, byDistance)
	}
	if byTime.Found() && !(byDistance.Found() && byDistance.equal(byTime)) {
		out = append(out, byTime)
	}
	return out, nil
}
