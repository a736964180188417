package api

import (
	"fmt"
	"io"
	"net/http"

	"github.com/gorilla/mux"

	"ilds/internal/graph"
	"ilds/internal/model"
	"ilds/internal/netload"
	"ilds/internal/routing"
)

type nodeOut struct {
	ID        graph.NodeID `json:"id"`
	OutDegree int          `json:"outDegree"`
}

type edgeOut struct {
	From       graph.NodeID          `json:"from"`
	To         graph.NodeID          `json:"to"`
	Distance   float64               `json:"distance"`
	Time       float64               `json:"time"`
	Congestion float64               `json:"congestion"`
	Level      graph.CongestionLevel `json:"level"`
}

func newEdgeOut(from graph.NodeID, e graph.Edge) edgeOut {
	return edgeOut{From: from, To: e.To, Distance: e.Distance, Time: e.Time, Congestion: e.Congestion, Level: e.Level()}
}

func (s *Server) ListNodes(w http.ResponseWriter, r *http.Request) {
	var out []nodeOut
	s.Network.Read(func(g *graph.Graph) {
		out = make([]nodeOut, 0, g.NodeCount())
		for _, id := range g.Nodes() {
			out = append(out, nodeOut{ID: id, OutDegree: len(g.OutEdges(id))})
		}
	})
	writeJSON(w, http.StatusOK, map[string]any{"items": out})
}

func (s *Server) CreateNode(w http.ResponseWriter, r *http.Request) {
	var in model.NodeIn
	if !s.decode(w, r, &in) {
		return
	}
	id := graph.NodeID(in.ID)
	err := s.Network.Write(func(g *graph.Graph) error {
		if err := g.AddNode(id); err != nil {
			return err
		}
		s.changed(g, "node.added", map[string]any{"id": in.ID})
		return nil
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, nodeOut{ID: id})
}

func (s *Server) DeleteNode(w http.ResponseWriter, r *http.Request) {
	id := graph.NodeID(mux.Vars(r)["id"])
	err := s.Network.Write(func(g *graph.Graph) error {
		if !g.HasNode(id) {
			return &routing.NodeError{ID: id}
		}
		g.RemoveNode(id)
		s.changed(g, "node.removed", map[string]any{"id": string(id)})
		return nil
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) Neighbors(w http.ResponseWriter, r *http.Request) {
	id := graph.NodeID(mux.Vars(r)["id"])
	var (
		out   []edgeOut
		found bool
	)
	s.Network.Read(func(g *graph.Graph) {
		if found = g.HasNode(id); !found {
			return
		}
		out = []edgeOut{}
		for _, e := range g.OutEdges(id) {
			out = append(out, newEdgeOut(id, e))
		}
	})
	if !found {
		writeError(w, r, &routing.NodeError{ID: id})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": out})
}

func (s *Server) ListEdges(w http.ResponseWriter, r *http.Request) {
	var out []edgeOut
	s.Network.Read(func(g *graph.Graph) {
		out = make([]edgeOut, 0, g.EdgeCount())
		for _, de := range g.Edges() {
			out = append(out, newEdgeOut(de.From, de.Edge))
		}
	})
	writeJSON(w, http.StatusOK, map[string]any{"items": out})
}

func (s *Server) CreateEdge(w http.ResponseWriter, r *http.Request) {
	var in model.EdgeIn
	if !s.decode(w, r, &in) {
		return
	}
	from, to := graph.NodeID(in.From), graph.NodeID(in.To)
	err := s.Network.Write(func(g *graph.Graph) error {
		var err error
		if in.Bidirectional {
			err = g.AddBidirectionalEdge(from, to, in.Distance, in.Time, in.Congestion)
		} else {
			err = g.AddEdge(from, to, in.Distance, in.Time, in.Congestion)
		}
		if err != nil {
			return err
		}
		s.changed(g, "edge.added", map[string]any{"from": in.From, "to": in.To, "bidirectional": in.Bidirectional})
		return nil
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, edgeOut{
		From: from, To: to, Distance: in.Distance, Time: in.Time, Congestion: in.Congestion,
		Level: graph.Edge{Congestion: in.Congestion}.Level(),
	})
}

func (s *Server) UpdateEdge(w http.ResponseWriter, r *http.Request) {
	var in model.EdgePatch
	if !s.decode(w, r, &in) {
		return
	}
	vars := mux.Vars(r)
	from, to := graph.NodeID(vars["from"]), graph.NodeID(vars["to"])
	both := queryBool(r, "bidirectional")
	var updated edgeOut
	err := s.Network.Write(func(g *graph.Graph) error {
		pairs := [][2]graph.NodeID{{from, to}}
		if both {
			pairs = append(pairs, [2]graph.NodeID{to, from})
		}
		// Check every direction first so a partial update never happens.
		for _, p := range pairs {
			if _, ok := g.Edge(p[0], p[1]); !ok {
				return fmt.Errorf("edge %s->%s: %w", p[0], p[1], errEdgeNotFound)
			}
		}
		for _, p := range pairs {
			if _, err := g.UpdateEdge(p[0], p[1], in.Distance, in.Time, in.Congestion); err != nil {
				return err
			}
		}
		e, _ := g.Edge(from, to)
		updated = newEdgeOut(from, e)
		s.changed(g, "edge.updated", map[string]any{"from": string(from), "to": string(to), "bidirectional": both})
		return nil
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) DeleteEdge(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	from, to := graph.NodeID(vars["from"]), graph.NodeID(vars["to"])
	both := queryBool(r, "bidirectional")
	err := s.Network.Write(func(g *graph.Graph) error {
		removed := 0
		if both {
			removed = g.RemoveBidirectionalEdge(from, to)
		} else if g.RemoveEdge(from, to) {
			removed = 1
		}
		if removed == 0 {
			return fmt.Errorf("edge %s->%s: %w", from, to, errEdgeNotFound)
		}
		s.changed(g, "edge.removed", map[string]any{"from": string(from), "to": string(to), "removed": removed})
		return nil
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ImportNetwork loads the text format from the body. With ?replace=true the
// current network is cleared first, in the same write scope.
func (s *Server) ImportNetwork(w http.ResponseWriter, r *http.Request) {
	replace := queryBool(r, "replace")
	var report netload.Report
	err := s.Network.Write(func(g *graph.Graph) error {
		if replace {
			for _, id := range g.Nodes() {
				g.RemoveNode(id)
			}
		}
		var err error
		report, err = netload.LoadText(io.LimitReader(r.Body, maxBody), g, s.logger)
		if err != nil {
			return err
		}
		s.changed(g, "network.imported", map[string]any{
			"nodes": report.Nodes, "edges": report.Edges, "skipped": len(report.Skipped), "replace": replace,
		})
		return nil
	})
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Import failed", err.Error(), r.URL.Path)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) ExportNetwork(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	var err error
	s.Network.Read(func(g *graph.Graph) { err = netload.Write(w, g) })
	if err != nil {
		s.logger.Printf("network: export failed err=%v", err)
	}
}
