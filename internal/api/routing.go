package api

import (
	"net/http"

	"ilds/internal/graph"
	"ilds/internal/metrics"
	"ilds/internal/model"
	"ilds/internal/obs"
	"ilds/internal/routing"
)

var algorithms = map[routing.Preference]string{
	routing.Shortest:    "dijkstra",
	routing.MinimalTime: "astar",
}

func searchOptions(in model.RouteSearchRequest) []routing.Option {
	if in.Heuristic == "zero" {
		return []routing.Option{routing.WithHeuristic(routing.ZeroHeuristic{})}
	}
	return nil
}

// SearchRoute answers POST /v1/routes/search. An empty result is a 200 with
// found=false; unknown endpoints are a 404.
func (s *Server) SearchRoute(w http.ResponseWriter, r *http.Request) {
	var in model.RouteSearchRequest
	if !s.decode(w, r, &in) {
		return
	}
	if in.Preference == "" {
		in.Preference = string(routing.MinimalTime)
	}
	pref, err := routing.ParsePreference(in.Preference)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var res routing.PathResult
	func() {
		defer obs.Time(r.Context(), "routes.search")(&err)
		s.Network.Read(func(g *graph.Graph) {
			res, err = routing.FindBestPath(g, graph.NodeID(in.Source), graph.NodeID(in.Destination), pref, in.Constraints(), searchOptions(in)...)
		})
	}()
	metrics.ObserveSearch(algorithms[pref], res.Found(), err)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, model.NewRouteOut(string(pref), res))
}

// RouteAlternatives returns the distance-optimal and time-optimal routes,
// collapsed to one when they coincide.
func (s *Server) RouteAlternatives(w http.ResponseWriter, r *http.Request) {
	var in model.RouteSearchRequest
	if !s.decode(w, r, &in) {
		return
	}
	var (
		alts []routing.PathResult
		err  error
	)
	func() {
		defer obs.Time(r.Context(), "routes.alternatives")(&err)
		s.Network.Read(func(g *graph.Graph) {
			alts, err = routing.Alternatives(g, graph.NodeID(in.Source), graph.NodeID(in.Destination), in.Constraints(), searchOptions(in)...)
		})
	}()
	metrics.ObserveSearch("alternatives", len(alts) > 0, err)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]model.RouteOut, 0, len(alts))
	for _, a := range alts {
		out = append(out, model.NewRouteOut("", a))
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": out})
}
